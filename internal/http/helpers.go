package http

import (
	"errors"
	"fmt"
	"net/http"

	"kakeibo/internal/core"
)

// userMessage turns a service error into text shown on the page.
func userMessage(err error) string {
	var editErr *core.EditError
	if errors.As(err, &editErr) {
		return fmt.Sprintf("Row %d: %s", editErr.Index+1, userMessage(editErr.Err))
	}
	var formatErr *core.DataFormatError
	if errors.As(err, &formatErr) {
		return "The ledger sheet has a cell that cannot be read: " + formatErr.Error()
	}

	switch {
	case errors.Is(err, core.ErrConfiguration):
		return "The app is not configured correctly: " + err.Error()
	case errors.Is(err, core.ErrStorage):
		return "The spreadsheet could not be reached. Please try again later."
	case errors.Is(err, core.ErrEmptyAccountName):
		return "Please enter an account name."
	case errors.Is(err, core.ErrNegativeAmount):
		return "The amount must be zero or more."
	case errors.Is(err, core.ErrInvalidAmount):
		return "The amount must be a whole number of yen."
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrInvalidKind):
		return "Please choose an account kind from the list."
	case errors.Is(err, core.ErrInvalidOwner), errors.Is(err, core.ErrOwnerNotAllowed):
		return "You cannot record balances for that owner."
	case errors.Is(err, core.ErrPasswordMismatch):
		return "The two passwords do not match."
	case errors.Is(err, core.ErrEmptyPassword):
		return "The new password cannot be empty."
	case errors.Is(err, core.ErrInvalidCredentials):
		return "Wrong username or password."
	case errors.Is(err, core.ErrUnknownUser):
		return "That user is not in user_config."
	case errors.Is(err, core.ErrMasterKeyNotConfigured):
		return "Password reset is not enabled on this server."
	case errors.Is(err, core.ErrInvalidMasterKey):
		return "The master key is wrong."
	default:
		return "Something went wrong. Please try again."
	}
}

// errorStatus picks the response code for a failed form action.
func errorStatus(err error) int {
	switch {
	case core.IsValidation(err), errors.Is(err, core.ErrUnknownUser):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrInvalidMasterKey):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrMasterKeyNotConfigured):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
