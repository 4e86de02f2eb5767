// Package http provides the web surface: session boundary, pages and forms.
//
// This file turns posted forms into domain values.
package http

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

// Field names of the registration form and of each edit grid row.
const (
	fieldDate        = "date"
	fieldAccountName = "account_name"
	fieldAccountKind = "account_kind"
	fieldOwner       = "owner"
	fieldAmount      = "amount"
	fieldMemo        = "memo"
	fieldDelete      = "delete"

	gridPrefix = "row."
)

// TransactionForm keeps the raw text of a submitted row so a rejected form
// can be shown again as typed.
type TransactionForm struct {
	Date        string
	AccountName string
	AccountKind string
	Owner       string
	Amount      string
	Memo        string
}

// ReadTransactionForm collects the registration fields from form.
func ReadTransactionForm(form url.Values) TransactionForm {
	return readFields(func(name string) string { return form.Get(name) })
}

func readFields(get func(string) string) TransactionForm {
	return TransactionForm{
		Date:        strings.TrimSpace(get(fieldDate)),
		AccountName: sanitizeInput(get(fieldAccountName)),
		AccountKind: strings.TrimSpace(get(fieldAccountKind)),
		Owner:       strings.TrimSpace(get(fieldOwner)),
		Amount:      strings.TrimSpace(get(fieldAmount)),
		Memo:        sanitizeInput(get(fieldMemo)),
	}
}

// Transaction parses the text fields. Range and ownership checks are left
// to the ledger service.
func (f TransactionForm) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseYen(f.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:        date,
		AccountName: f.AccountName,
		AccountKind: core.AccountKind(f.AccountKind),
		Owner:       core.Owner(f.Owner),
		Amount:      amount,
		Memo:        f.Memo,
	}, nil
}

// gridIndexes returns the distinct N of every row.N.* key, ascending.
func gridIndexes(form url.Values) []int {
	seen := make(map[int]struct{})
	for key := range form {
		rest, ok := strings.CutPrefix(key, gridPrefix)
		if !ok {
			continue
		}
		num, _, ok := strings.Cut(rest, ".")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 {
			continue
		}
		seen[n] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ParseEditGrid reads the row.N.* fields of the data-management grid in
// row order. Rows marked for deletion are not parsed further, so a broken
// cell never blocks its own removal.
func ParseEditGrid(form url.Values) ([]core.EditedRow, error) {
	indexes := gridIndexes(form)
	out := make([]core.EditedRow, 0, len(indexes))
	for pos, n := range indexes {
		prefix := gridPrefix + strconv.Itoa(n) + "."
		get := func(name string) string { return form.Get(prefix + name) }

		if isChecked(get(fieldDelete)) {
			out = append(out, core.EditedRow{Delete: true})
			continue
		}
		t, err := readFields(get).Transaction()
		if err != nil {
			return nil, &core.EditError{Index: pos, Err: err}
		}
		out = append(out, core.EditedRow{Transaction: t})
	}
	return out, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *ResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Malformed form submission")
	}
	return nil
}

// sanitizeInput drops control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
