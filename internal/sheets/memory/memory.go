package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/sheets/rows"
)

// Seed files read by NewFromFiles.
const (
	LedgerFile = "ledger.csv"
	UsersFile  = "users.csv"
)

// Store keeps the ledger and user_config tables in process.
// A nil credential table behaves like a spreadsheet without a user_config sheet.
type Store struct {
	mu     sync.Mutex
	ledger core.Ledger
	creds  []core.Credential
}

func New(ledger core.Ledger, creds []core.Credential) *Store {
	s := &Store{ledger: ledger.Clone()}
	if creds != nil {
		s.creds = append([]core.Credential{}, creds...)
	}
	return s
}

// NewFromFiles seeds the store from ledger.csv and users.csv in base.
// Missing files leave the table empty (ledger) or absent (users).
func NewFromFiles(base string) (*Store, error) {
	ledger, err := readSeed(filepath.Join(base, LedgerFile), rows.ReadLedgerCSV)
	if err != nil {
		return nil, err
	}
	creds, err := readSeed(filepath.Join(base, UsersFile), rows.ReadCredentialsCSV)
	if err != nil {
		return nil, err
	}
	return New(ledger, creds), nil
}

func readSeed[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("seed %s: %w", path, err)
	}
	return v, nil
}

func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone(), nil
}

func (s *Store) Save(_ context.Context, l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l.Clone()
	return nil
}

func errNoUserTable() error {
	return &core.ConfigurationError{Op: "load credentials", Err: errors.New("user_config table not found")}
}

func (s *Store) LoadCredentials(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, errNoUserTable()
	}
	return rows.CredentialMap(s.creds), nil
}

func (s *Store) Usernames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, errNoUserTable()
	}
	out := make([]string, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c.Username)
	}
	return out, nil
}

func (s *Store) UpdateCredential(_ context.Context, username, secret string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return false, errNoUserTable()
	}
	for i := range s.creds {
		if s.creds[i].Username == username {
			s.creds[i].Secret = secret
			return true, nil
		}
	}
	return false, nil
}

// AddCredential appends a user, creating the table if needed. Existing users are updated in place.
func (s *Store) AddCredential(_ context.Context, c core.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.creds {
		if s.creds[i].Username == c.Username {
			s.creds[i].Secret = c.Secret
			return nil
		}
	}
	s.creds = append(s.creds, c)
	return nil
}
