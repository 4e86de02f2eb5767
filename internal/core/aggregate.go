package core

import (
	"sort"
)

type holdingKey struct {
	account string
	owner   Owner
}

// sortedByDate returns row indexes ordered by date, ties kept in input order.
func sortedByDate(rows Ledger) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rows[idx[a]].Date.Before(rows[idx[b]].Date)
	})
	return idx
}

// LatestSnapshot keeps one row per (account name, owner): the one with the
// greatest date, and of equal dates the one that comes last in rows. The
// result is ordered by date ascending.
func LatestSnapshot(rows Ledger) Ledger {
	order := sortedByDate(rows)
	last := make(map[holdingKey]int, len(rows))
	for pos, i := range order {
		last[holdingKey{rows[i].AccountName, rows[i].Owner}] = pos
	}
	out := make(Ledger, 0, len(last))
	for pos, i := range order {
		if last[holdingKey{rows[i].AccountName, rows[i].Owner}] == pos {
			out = append(out, rows[i])
		}
	}
	return out
}

func TotalAssets(latest Ledger) Yen {
	var sum Yen
	for _, t := range latest {
		sum += t.Amount
	}
	return sum
}

type DailyTotal struct {
	Date  Date
	Total Yen
}

// DailyTotals sums every row by date, ascending. Two snapshots of the same
// account on the same day are both counted.
func DailyTotals(rows Ledger) []DailyTotal {
	byDay := make(map[Date]Yen)
	for _, t := range rows {
		byDay[t.Date] += t.Amount
	}
	out := make([]DailyTotal, 0, len(byDay))
	for d, total := range byDay {
		out = append(out, DailyTotal{Date: d, Total: total})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out
}

// AccountNames returns the distinct account names, sorted.
func AccountNames(rows Ledger) []string {
	seen := make(map[string]struct{}, len(rows))
	var names []string
	for _, t := range rows {
		if _, ok := seen[t.AccountName]; ok || t.AccountName == "" {
			continue
		}
		seen[t.AccountName] = struct{}{}
		names = append(names, t.AccountName)
	}
	sort.Strings(names)
	return names
}
