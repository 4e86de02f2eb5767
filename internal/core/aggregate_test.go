package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestSnapshotTieBreaksOnLaterRow(t *testing.T) {
	rows := Ledger{
		{Date: NewDate(2024, 1, 1), AccountName: "A", Owner: "userA", Amount: 100},
		{Date: NewDate(2024, 1, 1), AccountName: "A", Owner: "userA", Amount: 200},
	}

	latest := LatestSnapshot(rows)
	require.Len(t, latest, 1)
	assert.Equal(t, Yen(200), latest[0].Amount)
}

func TestLatestSnapshotGroupsByAccountAndOwner(t *testing.T) {
	rows := Ledger{
		{Date: NewDate(2024, 1, 3), AccountName: "A", Owner: "userA", Amount: 300},
		{Date: NewDate(2024, 1, 1), AccountName: "A", Owner: "userA", Amount: 100},
		{Date: NewDate(2024, 1, 2), AccountName: "A", Owner: "joint", Amount: 50},
	}

	latest := LatestSnapshot(rows)
	require.Len(t, latest, 2)
	assert.Equal(t, Owner("joint"), latest[0].Owner)
	assert.Equal(t, Yen(50), latest[0].Amount)
	assert.Equal(t, Yen(300), latest[1].Amount)
}

func TestAggregationScenario(t *testing.T) {
	rows := Ledger{
		{Date: NewDate(2024, 1, 1), AccountName: "A", Owner: "userA", Amount: 1000},
		{Date: NewDate(2024, 1, 2), AccountName: "A", Owner: "userA", Amount: 1200},
		{Date: NewDate(2024, 1, 2), AccountName: "B", Owner: "joint", Amount: 500},
	}

	latest := LatestSnapshot(rows)
	require.Len(t, latest, 2)
	assert.Equal(t, Yen(1700), TotalAssets(latest))

	assert.Equal(t, []DailyTotal{
		{Date: NewDate(2024, 1, 1), Total: 1000},
		{Date: NewDate(2024, 1, 2), Total: 1700},
	}, DailyTotals(rows))
}

func TestDailyTotalsDoubleCountsSameDaySnapshots(t *testing.T) {
	rows := Ledger{
		{Date: NewDate(2024, 2, 1), AccountName: "A", Owner: "userA", Amount: 100},
		{Date: NewDate(2024, 2, 1), AccountName: "A", Owner: "userA", Amount: 150},
	}

	assert.Equal(t, []DailyTotal{{Date: NewDate(2024, 2, 1), Total: 250}}, DailyTotals(rows))
	assert.Equal(t, Yen(150), TotalAssets(LatestSnapshot(rows)))
}

func TestAggregatesOnEmptyLedger(t *testing.T) {
	assert.Empty(t, LatestSnapshot(nil))
	assert.Equal(t, Yen(0), TotalAssets(nil))
	assert.Empty(t, DailyTotals(Ledger{}))

	d := BuildDashboard(nil)
	assert.False(t, d.HasBreakdown())
	assert.Empty(t, d.Holdings)
}

func TestBuildDashboard(t *testing.T) {
	rows := Ledger{
		{Date: NewDate(2024, 1, 1), AccountName: "A", AccountKind: KindChecking, Owner: "userA", Amount: 250},
		{Date: NewDate(2024, 1, 2), AccountName: "B", AccountKind: KindStock, Owner: "joint", Amount: 750},
	}

	d := BuildDashboard(rows)
	assert.Equal(t, Yen(1000), d.Total)
	assert.True(t, d.HasBreakdown())
	require.Len(t, d.Holdings, 2)
	assert.Equal(t, "B", d.Holdings[0].AccountName)
	assert.InDelta(t, 75.0, d.Holdings[0].Percent, 0.001)
	assert.InDelta(t, 25.0, d.Holdings[1].Percent, 0.001)
	assert.Len(t, d.Daily, 2)
	assert.Equal(t, 2, d.Rows)
}

func TestAccountNames(t *testing.T) {
	assert.Equal(t, []string{"Bank X", "Bank Y", "Bank Z"}, AccountNames(sampleLedger()))
	assert.Empty(t, AccountNames(nil))
}
