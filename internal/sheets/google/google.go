package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
	"kakeibo/internal/sheets/rows"

	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultLedgerSheet = "ledger"
	DefaultUsersSheet  = "user_config"

	// values are read as displayed so text like "0000" keeps its zeros
	renderFormatted = "FORMATTED_VALUE"
	// RAW stops the Sheets API from turning secrets and dates into numbers
	inputRaw = "RAW"

	titlesKey = "titles"
	titlesTTL = time.Minute
)

// Config names the spreadsheet and its tabs. An empty LedgerSheet means the first tab.
type Config struct {
	SpreadsheetID string
	LedgerSheet   string
	UsersSheet    string
}

// Client is the Sheets-backed ledger repository and credential store.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	usersSheet    string
	titles        *cache.LRUCache[[]string]
}

var (
	_ ports.LedgerStore     = (*Client)(nil)
	_ ports.CredentialStore = (*Client)(nil)
)

func New(svc *gsheet.Service, cfg Config) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, &core.ConfigurationError{Op: "sheets client", Err: errors.New("missing spreadsheet id")}
	}
	users := strings.TrimSpace(cfg.UsersSheet)
	if users == "" {
		users = DefaultUsersSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		ledgerSheet:   strings.TrimSpace(cfg.LedgerSheet),
		usersSheet:    users,
		titles:        cache.NewLRUCache[[]string](1, titlesTTL),
	}, nil
}

// NewFromCredentials creates the service and the client in one step.
func NewFromCredentials(ctx context.Context, creds Credentials, cfg Config) (*Client, error) {
	svc, err := NewService(ctx, creds)
	if err != nil {
		return nil, &core.ConfigurationError{Op: "sheets service", Err: err}
	}
	return New(svc, cfg)
}

// a1 quotes a tab title for A1 notation.
func a1(title, rng string) string {
	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if rng == "" {
		return quoted
	}
	return quoted + "!" + rng
}

// columnLetter converts a 0-based column index to its A1 letters.
func columnLetter(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

func (c *Client) sheetTitles(ctx context.Context) ([]string, error) {
	if titles, ok := c.titles.Get(titlesKey); ok {
		return titles, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, &core.StorageError{Op: "read spreadsheet metadata", Err: err}
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	c.titles.Set(titlesKey, titles)
	return titles, nil
}

func hasTitle(titles []string, want string) bool {
	for _, t := range titles {
		if t == want {
			return true
		}
	}
	return false
}

// ledgerTitle resolves the ledger tab, falling back to the first tab of the spreadsheet.
func (c *Client) ledgerTitle(ctx context.Context) (string, error) {
	titles, err := c.sheetTitles(ctx)
	if err != nil {
		return "", err
	}
	if c.ledgerSheet != "" && hasTitle(titles, c.ledgerSheet) {
		return c.ledgerSheet, nil
	}
	if len(titles) == 0 {
		return "", &core.ConfigurationError{Op: "resolve ledger sheet", Err: errors.New("spreadsheet has no sheets")}
	}
	if c.ledgerSheet != "" {
		slog.WarnContext(ctx, "Ledger sheet not found, using first sheet", "wanted", c.ledgerSheet, "using", titles[0])
	}
	return titles[0], nil
}

func (c *Client) usersTitle(ctx context.Context) (string, error) {
	titles, err := c.sheetTitles(ctx)
	if err != nil {
		return "", err
	}
	if !hasTitle(titles, c.usersSheet) {
		return "", &core.ConfigurationError{
			Op:  "load credentials",
			Err: fmt.Errorf("%s sheet not found", c.usersSheet),
		}
	}
	return c.usersSheet, nil
}

func (c *Client) readTable(ctx context.Context, title string) ([][]string, error) {
	rng := a1(title, "A:Z")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption(renderFormatted).Context(ctx).Do()
	if err != nil {
		return nil, &core.StorageError{Op: "read " + rng, Err: err}
	}
	return rows.TextTable(resp.Values), nil
}

func (c *Client) Load(ctx context.Context) (core.Ledger, error) {
	title, err := c.ledgerTitle(ctx)
	if err != nil {
		return nil, err
	}
	table, err := c.readTable(ctx, title)
	if err != nil {
		return nil, err
	}
	l, err := rows.DecodeLedger(table)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", title, err)
	}
	return l, nil
}

// ledgerValues keeps amounts numeric so sheet formulas over the amount column keep working.
func ledgerValues(l core.Ledger) [][]any {
	out := make([][]any, 0, len(l)+1)
	header := make([]any, len(rows.LedgerHeader))
	for i, h := range rows.LedgerHeader {
		header[i] = h
	}
	out = append(out, header)
	for _, t := range l {
		out = append(out, []any{
			t.Date.String(),
			t.AccountName,
			string(t.AccountKind),
			string(t.Owner),
			int64(t.Amount),
			t.Memo,
		})
	}
	return out
}

// Save clears the ledger tab and writes the header plus every row.
func (c *Client) Save(ctx context.Context, l core.Ledger) error {
	title, err := c.ledgerTitle(ctx)
	if err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1(title, ""), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return &core.StorageError{Op: "clear " + title, Err: err}
	}
	vr := &gsheet.ValueRange{Values: ledgerValues(l)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(title, "A1"), vr).
		ValueInputOption(inputRaw).Context(ctx).Do(); err != nil {
		return &core.StorageError{Op: "write " + title, Err: err}
	}
	slog.InfoContext(ctx, "Ledger written to sheet", "sheet", title, "rows", len(l))
	return nil
}

func (c *Client) credentials(ctx context.Context) ([]core.Credential, [][]string, error) {
	title, err := c.usersTitle(ctx)
	if err != nil {
		return nil, nil, err
	}
	table, err := c.readTable(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	creds, err := rows.DecodeCredentials(table)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", title, err)
	}
	return creds, table, nil
}

func (c *Client) LoadCredentials(ctx context.Context) (map[string]string, error) {
	creds, _, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return rows.CredentialMap(creds), nil
}

func (c *Client) Usernames(ctx context.Context) ([]string, error) {
	creds, _, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(creds))
	for _, cr := range creds {
		out = append(out, cr.Username)
	}
	return out, nil
}

// UpdateCredential rewrites only the secret cell of the first row matching username.
func (c *Client) UpdateCredential(ctx context.Context, username, secret string) (bool, error) {
	_, table, err := c.credentials(ctx)
	if err != nil {
		return false, err
	}
	if len(table) == 0 {
		return false, nil
	}
	cols := rows.IndexHeader(table[0])
	for i, record := range table[1:] {
		if cols.Cell(record, rows.ColUsername) != username {
			continue
		}
		cell := columnLetter(cols[rows.ColSecret]) + strconv.Itoa(i+2)
		vr := &gsheet.ValueRange{Values: [][]any{{secret}}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(c.usersSheet, cell), vr).
			ValueInputOption(inputRaw).Context(ctx).Do(); err != nil {
			return false, &core.StorageError{Op: "update credential", Err: err}
		}
		return true, nil
	}
	return false, nil
}
