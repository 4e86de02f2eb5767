package backend

import (
	"context"

	"kakeibo/internal/sheets"
)

// Backend is everything the web app and admin tool need from a store.
type Backend interface {
	sheets.LedgerStore
	sheets.CredentialStore
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the created backend and its optional cleanup.
// Publisher is nil when no AMQP URL is configured or the broker was unreachable.
type BackendResult struct {
	Backend   Backend
	Publisher Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleLedgerSheet        string
	GoogleUsersSheet         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string

	// Memory backend specific
	DataDirectory string

	// Change events, any backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
