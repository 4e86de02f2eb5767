package sheets

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for outbound adapters.
type (
	LedgerReader interface {
		// Load returns every ledger row in table order. An empty table yields an empty ledger.
		Load(ctx context.Context) (core.Ledger, error)
	}

	LedgerWriter interface {
		// Save replaces the whole table with l. Last writer wins.
		Save(ctx context.Context, l core.Ledger) error
	}

	LedgerStore interface {
		LedgerReader
		LedgerWriter
	}

	// CredentialStore reads and updates the user_config table.
	CredentialStore interface {
		LoadCredentials(ctx context.Context) (map[string]string, error)
		// UpdateCredential overwrites the secret of an existing user only.
		// It reports false when no row has that username.
		UpdateCredential(ctx context.Context, username, secret string) (bool, error)
		// Usernames lists users in table order.
		Usernames(ctx context.Context) ([]string, error)
	}

	// CredentialSeeder is implemented by stores that can gain users outside a spreadsheet editor.
	CredentialSeeder interface {
		AddCredential(ctx context.Context, c core.Credential) error
	}
)
