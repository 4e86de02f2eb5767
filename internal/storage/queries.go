package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type LedgerRow struct {
	Position    int64
	Date        string
	AccountName string
	AccountKind string
	Owner       string
	Amount      int64
	Memo        string
}

type UserConfig struct {
	Position int64
	Username string
	Secret   string
}

const listLedgerRows = `-- name: ListLedgerRows :many
SELECT position, date, account_name, account_kind, owner, amount, memo
FROM ledger_rows
ORDER BY position
`

func (q *Queries) ListLedgerRows(ctx context.Context) ([]LedgerRow, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerRow
	for rows.Next() {
		var i LedgerRow
		if err := rows.Scan(&i.Position, &i.Date, &i.AccountName, &i.AccountKind, &i.Owner, &i.Amount, &i.Memo); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLedgerRows = `-- name: DeleteLedgerRows :exec
DELETE FROM ledger_rows
`

func (q *Queries) DeleteLedgerRows(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteLedgerRows)
	return err
}

const insertLedgerRow = `-- name: InsertLedgerRow :exec
INSERT INTO ledger_rows (position, date, account_name, account_kind, owner, amount, memo)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertLedgerRow(ctx context.Context, arg LedgerRow) error {
	_, err := q.db.ExecContext(ctx, insertLedgerRow,
		arg.Position, arg.Date, arg.AccountName, arg.AccountKind, arg.Owner, arg.Amount, arg.Memo)
	return err
}

const countLedgerRows = `-- name: CountLedgerRows :one
SELECT COUNT(*) FROM ledger_rows
`

func (q *Queries) CountLedgerRows(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLedgerRows)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listUserConfig = `-- name: ListUserConfig :many
SELECT position, username, secret
FROM user_config
ORDER BY position
`

func (q *Queries) ListUserConfig(ctx context.Context) ([]UserConfig, error) {
	rows, err := q.db.QueryContext(ctx, listUserConfig)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserConfig
	for rows.Next() {
		var i UserConfig
		if err := rows.Scan(&i.Position, &i.Username, &i.Secret); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateUserSecret = `-- name: UpdateUserSecret :execrows
UPDATE user_config SET secret = ? WHERE username = ?
`

func (q *Queries) UpdateUserSecret(ctx context.Context, secret, username string) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserSecret, secret, username)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertUser = `-- name: UpsertUser :exec
INSERT INTO user_config (position, username, secret)
VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM user_config), ?, ?)
ON CONFLICT(username) DO UPDATE SET secret = excluded.secret
`

func (q *Queries) UpsertUser(ctx context.Context, username, secret string) error {
	_, err := q.db.ExecContext(ctx, upsertUser, username, secret)
	return err
}
