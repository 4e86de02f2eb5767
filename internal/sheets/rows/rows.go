// Package rows converts between header-row tables and domain values.
//
// Every store keeps the same layout: a header row followed by one row per
// record. Spreadsheet tables are hand-editable, so decoding finds columns by
// header name instead of position and tolerates short rows.
package rows

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

const (
	ColDate        = "date"
	ColAccountName = "account_name"
	ColAccountKind = "account_kind"
	ColOwner       = "owner"
	ColAmount      = "amount"
	ColMemo        = "memo"

	ColUsername = "username"
	ColSecret   = "secret"
)

var (
	LedgerHeader     = []string{ColDate, ColAccountName, ColAccountKind, ColOwner, ColAmount, ColMemo}
	CredentialHeader = []string{ColUsername, ColSecret}
)

// Columns maps header names to positions.
type Columns map[string]int

// IndexHeader reads a header row. Names are matched case-insensitively.
func IndexHeader(header []string) Columns {
	cols := make(Columns, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	return cols
}

// Require fails with a DataFormatError naming the first missing column.
func (c Columns) Require(names ...string) error {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return &core.DataFormatError{Row: 1, Column: n, Err: fmt.Errorf("missing header")}
		}
	}
	return nil
}

// Raw returns the cell for name as stored, or "" when the row is short.
func (c Columns) Raw(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// Cell returns the trimmed cell for name. Only cells that are parsed go
// through Cell; text columns are read with Raw so a save writes them back
// unchanged.
func (c Columns) Cell(record []string, name string) string {
	return strings.TrimSpace(c.Raw(record, name))
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DecodeLedger parses a table whose first row is the header. An empty table
// or a header without data is an empty ledger. Fully blank rows are skipped.
func DecodeLedger(table [][]string) (core.Ledger, error) {
	if len(table) == 0 {
		return core.Ledger{}, nil
	}
	cols := IndexHeader(table[0])
	if err := cols.Require(ColDate, ColAccountName, ColOwner, ColAmount); err != nil {
		return nil, err
	}

	out := make(core.Ledger, 0, len(table)-1)
	for i, record := range table[1:] {
		if blank(record) {
			continue
		}
		t, err := UnmarshalTransaction(cols, record, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// UnmarshalTransaction converts one data row. rowNum is the sheet row number used in errors.
func UnmarshalTransaction(cols Columns, record []string, rowNum int) (core.Transaction, error) {
	rawDate := cols.Cell(record, ColDate)
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, &core.DataFormatError{Row: rowNum, Column: ColDate, Value: rawDate, Err: err}
	}

	rawAmount := cols.Cell(record, ColAmount)
	amount, err := core.ParseYen(rawAmount)
	if err != nil {
		return core.Transaction{}, &core.DataFormatError{Row: rowNum, Column: ColAmount, Value: rawAmount, Err: err}
	}

	return core.Transaction{
		Date:        date,
		AccountName: cols.Raw(record, ColAccountName),
		AccountKind: core.AccountKind(cols.Raw(record, ColAccountKind)),
		Owner:       core.Owner(cols.Raw(record, ColOwner)),
		Amount:      amount,
		Memo:        cols.Raw(record, ColMemo),
	}, nil
}

// MarshalTransaction converts a row to cells in LedgerHeader order.
func MarshalTransaction(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.AccountName,
		string(t.AccountKind),
		string(t.Owner),
		t.Amount.Plain(),
		t.Memo,
	}
}

// EncodeLedger returns the header row followed by every row of l.
func EncodeLedger(l core.Ledger) [][]string {
	out := make([][]string, 0, len(l)+1)
	out = append(out, append([]string(nil), LedgerHeader...))
	for _, t := range l {
		out = append(out, MarshalTransaction(t))
	}
	return out
}

// DecodeCredentials parses the user_config table, keeping table order.
func DecodeCredentials(table [][]string) ([]core.Credential, error) {
	if len(table) == 0 {
		return nil, nil
	}
	cols := IndexHeader(table[0])
	if err := cols.Require(ColUsername, ColSecret); err != nil {
		return nil, err
	}
	out := []core.Credential{}
	for _, record := range table[1:] {
		name := cols.Cell(record, ColUsername)
		if name == "" {
			continue
		}
		// secrets are compared verbatim, so only the username is trimmed
		secret := ""
		if i := cols[ColSecret]; i < len(record) {
			secret = record[i]
		}
		out = append(out, core.Credential{Username: name, Secret: secret})
	}
	return out, nil
}

func EncodeCredentials(creds []core.Credential) [][]string {
	out := make([][]string, 0, len(creds)+1)
	out = append(out, append([]string(nil), CredentialHeader...))
	for _, c := range creds {
		out = append(out, []string{c.Username, c.Secret})
	}
	return out
}

// CredentialMap indexes credentials by username. A later duplicate wins.
func CredentialMap(creds []core.Credential) map[string]string {
	m := make(map[string]string, len(creds))
	for _, c := range creds {
		m[c.Username] = c.Secret
	}
	return m
}

// CellText renders a raw spreadsheet cell as text. Whole numbers never use
// exponent notation, so a secret stored as 1234 reads back as "1234".
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// TextTable converts a raw value grid to text cells.
func TextTable(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = CellText(v)
		}
		out[i] = cells
	}
	return out
}
