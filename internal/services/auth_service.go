package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
)

// AuthService checks and changes credentials kept in the user_config table.
type AuthService struct {
	store     sheets.CredentialStore
	masterKey string
}

// NewAuthService wires the service. An empty masterKey disables password resets.
func NewAuthService(store sheets.CredentialStore, masterKey string) *AuthService {
	return &AuthService{store: store, masterKey: masterKey}
}

// ResetEnabled reports whether master-key resets are accepted.
func (a *AuthService) ResetEnabled() bool { return a.masterKey != "" }

func sameSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (a *AuthService) Usernames(ctx context.Context) ([]string, error) {
	return a.store.Usernames(ctx)
}

// Authenticate compares the password text with the stored secret text.
// Store errors, including a missing user table, are returned unchanged.
func (a *AuthService) Authenticate(ctx context.Context, username, password string) (core.Session, error) {
	creds, err := a.store.LoadCredentials(ctx)
	if err != nil {
		return core.Session{}, err
	}
	secret, ok := creds[username]
	if !ok || !sameSecret(secret, password) {
		slog.WarnContext(ctx, "Login failed", "username", username)
		return core.Session{}, core.ErrInvalidCredentials
	}
	slog.InfoContext(ctx, "Login succeeded", "username", username)
	return core.Session{Authenticated: true, CurrentUser: username}, nil
}

func validateNewSecret(secret, confirm string) error {
	if secret != confirm {
		return core.ErrPasswordMismatch
	}
	if secret == "" {
		return core.ErrEmptyPassword
	}
	return nil
}

func (a *AuthService) ChangePassword(ctx context.Context, sess core.Session, secret, confirm string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := validateNewSecret(secret, confirm); err != nil {
		return err
	}
	return a.update(ctx, sess.CurrentUser, secret)
}

// ResetPassword sets a user's secret without the old one, guarded by the master key.
func (a *AuthService) ResetPassword(ctx context.Context, username, masterKey, secret string) error {
	if a.masterKey == "" {
		return core.ErrMasterKeyNotConfigured
	}
	if !sameSecret(a.masterKey, masterKey) {
		slog.WarnContext(ctx, "Password reset rejected", "username", username)
		return core.ErrInvalidMasterKey
	}
	if secret == "" {
		return core.ErrEmptyPassword
	}
	return a.update(ctx, username, secret)
}

// SetPassword is the administrative reset used by the CLI; no master key is needed.
func (a *AuthService) SetPassword(ctx context.Context, username, secret string) error {
	if secret == "" {
		return core.ErrEmptyPassword
	}
	return a.update(ctx, username, secret)
}

func (a *AuthService) update(ctx context.Context, username, secret string) error {
	ok, err := a.store.UpdateCredential(ctx, username, secret)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if !ok {
		return core.ErrUnknownUser
	}
	slog.InfoContext(ctx, "Password updated", "username", username)
	return nil
}
