package core

import (
	"errors"
	"fmt"
)

// Error classes. Typed errors below match these through errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrStorage       = errors.New("storage error")
	ErrDataFormat    = errors.New("data format error")
)

var (
	ErrEmptyAccountName = errors.New("account name is required")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidOwner     = errors.New("unknown owner")
	ErrInvalidKind      = errors.New("unknown account kind")
	ErrInvalidDate      = errors.New("invalid date")
	ErrOwnerNotAllowed  = errors.New("owner not allowed for this user")

	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrEmptyPassword          = errors.New("password must not be empty")
	ErrUnauthenticated        = errors.New("not logged in")
	ErrInvalidCredentials     = errors.New("wrong username or password")
	ErrUnknownUser            = errors.New("user not found")
	ErrMasterKeyNotConfigured = errors.New("master key is not configured")
	ErrInvalidMasterKey       = errors.New("master key does not match")
)

// ConfigurationError reports a missing or unusable store or setting,
// such as an absent user_config table.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// StorageError wraps a transport or backend failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// DataFormatError points at the cell that could not be parsed.
// Row is 1-based and counts the header row, matching what a spreadsheet shows.
type DataFormatError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("data format: column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("data format: row %d column %q value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// EditError locates a rejected row of the edit grid.
type EditError struct {
	Index int
	Err   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a user-correctable input problem.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyAccountName, ErrNegativeAmount, ErrInvalidAmount, ErrInvalidOwner,
		ErrInvalidKind, ErrInvalidDate, ErrOwnerNotAllowed, ErrPasswordMismatch, ErrEmptyPassword,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
