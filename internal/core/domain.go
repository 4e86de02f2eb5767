package core

import (
	"strings"
	"time"
)

const (
	KindChecking    AccountKind = "checking"
	KindTimeDeposit AccountKind = "time-deposit"
	KindMutualFund  AccountKind = "mutual-fund"
	KindStock       AccountKind = "stock"
	KindCash        AccountKind = "cash"
	KindPoints      AccountKind = "points"
	KindOther       AccountKind = "other"
)

// DateLayout is the canonical on-disk form of a ledger date.
const DateLayout = "2006-01-02"

type (
	Owner       string
	AccountKind string

	Date struct {
		time.Time
	}

	// Transaction is one balance snapshot of one account on one date.
	Transaction struct {
		Date        Date
		AccountName string
		AccountKind AccountKind
		Owner       Owner
		Amount      Yen
		Memo        string
	}

	// Ledger keeps rows in store order. Duplicates are allowed.
	Ledger []Transaction

	Credential struct {
		Username string
		Secret   string
	}

	// Session is the per-browser authentication state.
	Session struct {
		Authenticated bool
		CurrentUser   string
	}
)

// AccountKinds lists the kinds offered by the registration form, in display order.
var AccountKinds = []AccountKind{
	KindChecking, KindTimeDeposit, KindMutualFund, KindStock, KindCash, KindPoints, KindOther,
}

func (k AccountKind) Valid() bool {
	for _, known := range AccountKinds {
		if k == known {
			return true
		}
	}
	return false
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, m, d)
}

// readLayouts are tried in order; spreadsheet edits tend to produce slashes or a time part.
var readLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate accepts the permissive layouts above and drops any time of day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Validate checks the invariants a new or edited row must satisfy.
// Kinds are not checked here: rows loaded from a hand-edited sheet may carry any text.
func (t Transaction) Validate(h Household) error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.AccountName) == "" {
		return ErrEmptyAccountName
	}
	if t.Amount < 0 {
		return ErrNegativeAmount
	}
	if !h.IsOwner(t.Owner) {
		return ErrInvalidOwner
	}
	return nil
}

// Filter returns the rows for which keep is true, in order. The result never aliases l.
func (l Ledger) Filter(keep func(Transaction) bool) Ledger {
	out := make(Ledger, 0, len(l))
	for _, t := range l {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}
