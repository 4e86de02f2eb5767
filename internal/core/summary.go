package core

import "sort"

// Holding is one line of the holdings table with its share of the total.
type Holding struct {
	AccountName string
	AccountKind AccountKind
	Owner       Owner
	Date        Date
	Amount      Yen
	Percent     float64
}

// Dashboard holds the figures rendered for a set of visible rows.
type Dashboard struct {
	Total    Yen
	Holdings []Holding
	Daily    []DailyTotal
	Rows     int
}

// HasBreakdown reports whether a share breakdown makes sense.
func (d Dashboard) HasBreakdown() bool { return d.Total > 0 }

// BuildDashboard derives the dashboard from the rows after display filtering.
// Holdings are sorted by amount, largest first.
func BuildDashboard(rows Ledger) Dashboard {
	latest := LatestSnapshot(rows)
	total := TotalAssets(latest)

	holdings := make([]Holding, 0, len(latest))
	for _, t := range latest {
		holdings = append(holdings, Holding{
			AccountName: t.AccountName,
			AccountKind: t.AccountKind,
			Owner:       t.Owner,
			Date:        t.Date,
			Amount:      t.Amount,
			Percent:     Share(t.Amount, total),
		})
	}
	sort.SliceStable(holdings, func(a, b int) bool { return holdings[a].Amount > holdings[b].Amount })

	return Dashboard{
		Total:    total,
		Holdings: holdings,
		Daily:    DailyTotals(rows),
		Rows:     len(rows),
	}
}
