package core

import "sort"

// EditedRow is one line of the data-management grid.
type EditedRow struct {
	Transaction
	Delete bool
}

// EditRows lists the visible rows the way the grid shows them: newest first,
// equal dates in ledger order.
func EditRows(visible Ledger) []EditedRow {
	out := make([]EditedRow, len(visible))
	for i, t := range visible {
		out[i] = EditedRow{Transaction: t}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[b].Date.Before(out[a].Date) })
	return out
}

// ValidateEdits checks every row that will be kept. Rows flagged for
// deletion are not validated.
func ValidateEdits(h Household, allowed OwnerSet, edited []EditedRow) error {
	for i, e := range edited {
		if e.Delete {
			continue
		}
		if err := e.Validate(h); err != nil {
			return &EditError{Index: i, Err: err}
		}
		if !allowed.Contains(e.Owner) {
			return &EditError{Index: i, Err: ErrOwnerNotAllowed}
		}
	}
	return nil
}

// Reconcile merges a user's edited view back into the full ledger. Rows the
// user cannot see come first, untouched and in their original order, then
// the edited rows that were not marked for deletion.
func Reconcile(full Ledger, allowed OwnerSet, edited []EditedRow) Ledger {
	out := full.Filter(func(t Transaction) bool { return !allowed.Contains(t.Owner) })
	for _, e := range edited {
		if !e.Delete {
			out = append(out, e.Transaction)
		}
	}
	return out
}

// Append returns a new ledger with t added at the end.
func Append(full Ledger, t Transaction) Ledger {
	out := make(Ledger, 0, len(full)+1)
	out = append(out, full...)
	return append(out, t)
}
