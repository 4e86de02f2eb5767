package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the ledger and user_config tables in SQLite.
// Row order is kept in the position column.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ ports.LedgerStore      = (*SQLiteRepository)(nil)
	_ ports.CredentialStore  = (*SQLiteRepository)(nil)
	_ ports.CredentialSeeder = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer keeps clear-and-rewrite saves from interleaving
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe. Counting rows also fails when the
// schema is missing, which a bare connection ping would not notice.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if _, err := r.queries.CountLedgerRows(ctx); err != nil {
		return &core.StorageError{Op: "count ledger rows", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (core.Ledger, error) {
	dbRows, err := r.queries.ListLedgerRows(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "list ledger rows", Err: err}
	}
	out := make(core.Ledger, 0, len(dbRows))
	for i, row := range dbRows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, &core.DataFormatError{Row: i + 2, Column: "date", Value: row.Date, Err: err}
		}
		if row.Amount < 0 {
			return nil, &core.DataFormatError{Row: i + 2, Column: "amount", Value: fmt.Sprint(row.Amount), Err: core.ErrNegativeAmount}
		}
		out = append(out, core.Transaction{
			Date:        date,
			AccountName: row.AccountName,
			AccountKind: core.AccountKind(row.AccountKind),
			Owner:       core.Owner(row.Owner),
			Amount:      core.Yen(row.Amount),
			Memo:        row.Memo,
		})
	}
	return out, nil
}

// Save replaces every ledger row in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, l core.Ledger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "begin save", Err: err}
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteLedgerRows(ctx); err != nil {
		return &core.StorageError{Op: "clear ledger", Err: err}
	}
	for i, t := range l {
		if err := q.InsertLedgerRow(ctx, LedgerRow{
			Position:    int64(i + 1),
			Date:        t.Date.String(),
			AccountName: t.AccountName,
			AccountKind: string(t.AccountKind),
			Owner:       string(t.Owner),
			Amount:      int64(t.Amount),
			Memo:        t.Memo,
		}); err != nil {
			return &core.StorageError{Op: fmt.Sprintf("insert ledger row %d", i+1), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit save", Err: err}
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite", "rows", len(l))
	return nil
}

func (r *SQLiteRepository) credentials(ctx context.Context) ([]UserConfig, error) {
	users, err := r.queries.ListUserConfig(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "list user_config", Err: err}
	}
	return users, nil
}

func (r *SQLiteRepository) LoadCredentials(ctx context.Context) (map[string]string, error) {
	users, err := r.credentials(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.Username] = u.Secret
	}
	return out, nil
}

func (r *SQLiteRepository) Usernames(ctx context.Context) ([]string, error) {
	users, err := r.credentials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateCredential(ctx context.Context, username, secret string) (bool, error) {
	n, err := r.queries.UpdateUserSecret(ctx, secret, username)
	if err != nil {
		return false, &core.StorageError{Op: "update credential", Err: err}
	}
	return n > 0, nil
}

func (r *SQLiteRepository) AddCredential(ctx context.Context, c core.Credential) error {
	if err := r.queries.UpsertUser(ctx, c.Username, c.Secret); err != nil {
		return &core.StorageError{Op: "add credential", Err: err}
	}
	slog.InfoContext(ctx, "User saved to SQLite", "username", c.Username)
	return nil
}
