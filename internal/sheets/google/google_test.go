package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"kakeibo/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the handful of Sheets REST calls the client makes.
type fakeSheets struct {
	mu           sync.Mutex
	tabs         []string
	data         map[string][][]any
	inputOptions []string
	updates      []string
	down         bool
}

func newFakeSheets(tabs ...string) *fakeSheets {
	return &fakeSheets{tabs: tabs, data: map[string][][]any{}}
}

func splitRange(rng string) (title, cell string) {
	title, cell, _ = strings.Cut(rng, "!")
	title = strings.ReplaceAll(strings.Trim(title, "'"), "''", "'")
	return title, cell
}

// parseCell turns "B3" into column 1, row 2.
func parseCell(cell string) (col, row int) {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		col = col*26 + int(cell[i]-'A'+1)
		i++
	}
	row, _ = strconv.Atoi(cell[i:])
	return col - 1, row - 1
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend unavailable"}}`))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	_, rng, hasValues := strings.Cut(path, "/values/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case !hasValues && r.Method == http.MethodGet:
		sp := &gsheet.Spreadsheet{}
		for _, t := range f.tabs {
			sp.Sheets = append(sp.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: t}})
		}
		_ = json.NewEncoder(w).Encode(sp)

	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		title, _ := splitRange(strings.TrimSuffix(rng, ":clear"))
		f.data[title] = nil
		_ = json.NewEncoder(w).Encode(&gsheet.ClearValuesResponse{ClearedRange: rng})

	case r.Method == http.MethodGet:
		title, _ := splitRange(rng)
		_ = json.NewEncoder(w).Encode(&gsheet.ValueRange{Range: rng, Values: f.data[title]})

	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.inputOptions = append(f.inputOptions, r.URL.Query().Get("valueInputOption"))
		f.updates = append(f.updates, rng)
		title, cell := splitRange(rng)
		col, row := parseCell(cell)
		grid := f.data[title]
		for i, values := range vr.Values {
			for len(grid) <= row+i {
				grid = append(grid, []any{})
			}
			line := grid[row+i]
			for len(line) < col+len(values) {
				line = append(line, "")
			}
			copy(line[col:], values)
			grid[row+i] = line
		}
		f.data[title] = grid
		_ = json.NewEncoder(w).Encode(&gsheet.UpdateValuesResponse{UpdatedRange: rng})

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = "sheet-id"
	}
	c, err := New(svc, cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestLedgerRoundTrip(t *testing.T) {
	fake := newFakeSheets("ledger", "user_config")
	c := newTestClient(t, fake, Config{LedgerSheet: "ledger"})
	ctx := context.Background()

	ledger := core.Ledger{
		{Date: core.NewDate(2024, 1, 1), AccountName: "Bank X", AccountKind: core.KindChecking, Owner: "userA", Amount: 1000},
		{Date: core.NewDate(2024, 1, 1), AccountName: "Bank X", AccountKind: core.KindChecking, Owner: "userA", Amount: 1000},
		{Date: core.NewDate(2024, 1, 2), AccountName: "Fund", AccountKind: core.KindMutualFund, Owner: "joint", Amount: 0, Memo: "n/a"},
	}
	if err := c.Save(ctx, ledger); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(ledger) {
		t.Fatalf("got %d rows, want %d", len(got), len(ledger))
	}
	for i := range ledger {
		if got[i] != ledger[i] {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], ledger[i])
		}
	}
	if fake.inputOptions[0] != "RAW" {
		t.Errorf("ledger written with %q, want RAW", fake.inputOptions[0])
	}
}

func TestLoadEmptySheetAndFirstSheetFallback(t *testing.T) {
	fake := newFakeSheets("Sheet1")
	c := newTestClient(t, fake, Config{LedgerSheet: "ledger"})

	got, err := c.Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("empty sheet: got %v, %v", got, err)
	}

	if err := c.Save(context.Background(), core.Ledger{{Date: core.NewDate(2024, 5, 1), AccountName: "A", Owner: "joint", Amount: 5}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fake.data["Sheet1"]) != 2 {
		t.Fatalf("expected header and one row on the first sheet, got %v", fake.data["Sheet1"])
	}
}

func TestLoadMalformedRow(t *testing.T) {
	fake := newFakeSheets("ledger")
	fake.data["ledger"] = [][]any{
		{"date", "account_name", "account_kind", "owner", "amount", "memo"},
		{"2024-01-01", "A", "cash", "userA", "1,000"},
		{"someday", "B", "cash", "userA", "5"},
	}
	c := newTestClient(t, fake, Config{LedgerSheet: "ledger"})

	_, err := c.Load(context.Background())
	if !errors.Is(err, core.ErrDataFormat) {
		t.Fatalf("expected data format error, got %v", err)
	}
	var dfe *core.DataFormatError
	if !errors.As(err, &dfe) || dfe.Row != 3 || dfe.Column != "date" {
		t.Fatalf("unexpected error detail: %+v", dfe)
	}
}

func TestCredentialUpdateScenario(t *testing.T) {
	fake := newFakeSheets("ledger", "user_config")
	fake.data["user_config"] = [][]any{
		{"username", "secret"},
		{"userA", "x"},
		{"userB", "y"},
	}
	c := newTestClient(t, fake, Config{})
	ctx := context.Background()

	ok, err := c.UpdateCredential(ctx, "userA", "0000")
	if err != nil || !ok {
		t.Fatalf("update userA: ok=%v err=%v", ok, err)
	}
	if fake.updates[0] != "'user_config'!B2" {
		t.Errorf("updated range %q, want 'user_config'!B2", fake.updates[0])
	}
	if fake.inputOptions[0] != "RAW" {
		t.Errorf("secret written with %q, want RAW", fake.inputOptions[0])
	}

	creds, err := c.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("load credentials: %v", err)
	}
	if creds["userA"] != "0000" || creds["userB"] != "y" {
		t.Fatalf("unexpected credentials: %v", creds)
	}

	ok, err = c.UpdateCredential(ctx, "userC", "z")
	if err != nil || ok {
		t.Fatalf("update userC: ok=%v err=%v", ok, err)
	}
	if len(fake.updates) != 1 {
		t.Fatalf("unknown user must not write, got %v", fake.updates)
	}

	names, err := c.Usernames(ctx)
	if err != nil || strings.Join(names, ",") != "userA,userB" {
		t.Fatalf("usernames: %v %v", names, err)
	}
}

func TestMissingUserSheetIsConfigurationError(t *testing.T) {
	c := newTestClient(t, newFakeSheets("ledger"), Config{})

	_, err := c.LoadCredentials(context.Background())
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTransportFailureIsStorageError(t *testing.T) {
	fake := newFakeSheets("ledger")
	fake.down = true
	c := newTestClient(t, fake, Config{LedgerSheet: "ledger"})

	if _, err := c.Load(context.Background()); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("load: expected storage error, got %v", err)
	}
	if err := c.Save(context.Background(), nil); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("save: expected storage error, got %v", err)
	}
}

func TestA1Helpers(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for in, want := range cases {
		if got := columnLetter(in); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", in, got, want)
		}
	}
	if got := a1("Bob's", "A1"); got != "'Bob''s'!A1" {
		t.Errorf("a1 quoting: %q", got)
	}
	if got := a1("ledger", ""); got != "'ledger'" {
		t.Errorf("a1 whole sheet: %q", got)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(&gsheet.Service{}, Config{}); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(nil, Config{SpreadsheetID: "x"}); err == nil {
		t.Fatal("expected error for nil service")
	}
}
