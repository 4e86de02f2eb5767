package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerSavedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerSaved(_ context.Context, msg *amqp.LedgerSavedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

// brokenStore fails loads and/or saves and records whether Save was attempted.
type brokenStore struct {
	loadErr, saveErr error
	saved            bool
}

func (b *brokenStore) Load(context.Context) (core.Ledger, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return core.Ledger{}, nil
}

func (b *brokenStore) Save(context.Context, core.Ledger) error {
	b.saved = true
	return b.saveErr
}

var (
	userA = core.Session{Authenticated: true, CurrentUser: "userA"}
	userB = core.Session{Authenticated: true, CurrentUser: "userB"}
)

func seedLedger() core.Ledger {
	return core.Ledger{
		{Date: core.NewDate(2024, 1, 1), AccountName: "A", AccountKind: core.KindChecking, Owner: "userA", Amount: 1000},
		{Date: core.NewDate(2024, 1, 1), AccountName: "B", AccountKind: core.KindChecking, Owner: "userB", Amount: 400},
		{Date: core.NewDate(2024, 1, 2), AccountName: "A", AccountKind: core.KindChecking, Owner: "userA", Amount: 1200},
		{Date: core.NewDate(2024, 1, 2), AccountName: "J", AccountKind: core.KindCash, Owner: "joint", Amount: 500},
	}
}

func newLedgerService(t *testing.T) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New(seedLedger(), nil)
	pub := &recordingPublisher{}
	return NewLedgerService(store, core.DefaultHousehold(), pub), store, pub
}

func TestViewScopesToAllowedOwners(t *testing.T) {
	svc, _, _ := newLedgerService(t)

	view, err := svc.View(context.Background(), userA, "")
	require.NoError(t, err)
	assert.Equal(t, core.OwnerSet{"userA", "joint"}, view.Allowed)
	assert.Len(t, view.Visible, 3)
	assert.Equal(t, core.Yen(1700), view.Dashboard.Total)
	assert.Equal(t, []core.DailyTotal{
		{Date: core.NewDate(2024, 1, 1), Total: 1000},
		{Date: core.NewDate(2024, 1, 2), Total: 1700},
	}, view.Dashboard.Daily)
	assert.Equal(t, []string{"A", "J"}, view.AccountNames)
	require.Len(t, view.EditRows, 3)
	assert.Equal(t, core.NewDate(2024, 1, 2), view.EditRows[0].Date)

	joint, err := svc.View(context.Background(), userA, "joint")
	require.NoError(t, err)
	assert.Equal(t, core.Yen(500), joint.Dashboard.Total)
	assert.Len(t, joint.Visible, 3, "the edit grid is not narrowed by the display scope")

	foreign, err := svc.View(context.Background(), userA, "userB")
	require.NoError(t, err)
	assert.True(t, foreign.Scope.All())
}

func TestViewRequiresSession(t *testing.T) {
	svc, _, _ := newLedgerService(t)
	_, err := svc.View(context.Background(), core.Session{}, "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestViewDegradesOnLoadFailure(t *testing.T) {
	svc := NewLedgerService(&brokenStore{loadErr: &core.StorageError{Op: "read", Err: errors.New("503")}}, core.DefaultHousehold(), nil)

	view, err := svc.View(context.Background(), userA, "")
	require.ErrorIs(t, err, core.ErrStorage)
	assert.Empty(t, view.Visible)
	assert.Equal(t, core.Yen(0), view.Dashboard.Total)
	assert.Equal(t, "userA", view.User)
}

func TestRegister(t *testing.T) {
	svc, store, pub := newLedgerService(t)
	ctx := context.Background()

	row := core.Transaction{Date: core.NewDate(2024, 2, 1), AccountName: "  New Bank ", AccountKind: core.KindTimeDeposit, Owner: "joint", Amount: 3000}
	require.NoError(t, svc.Register(ctx, userA, row))

	l, _ := store.Load(ctx)
	require.Len(t, l, 5)
	assert.Equal(t, "New Bank", l[4].AccountName)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, amqp.ReasonRegister, pub.msgs[0].Reason)
	assert.Equal(t, "userA", pub.msgs[0].Actor)
	assert.Equal(t, 5, pub.msgs[0].Rows)
}

func TestRegisterValidation(t *testing.T) {
	svc, store, pub := newLedgerService(t)
	ctx := context.Background()
	base := core.Transaction{Date: core.NewDate(2024, 2, 1), AccountName: "X", AccountKind: core.KindCash, Owner: "userA", Amount: 1}

	cases := []struct {
		name   string
		mutate func(*core.Transaction)
		want   error
	}{
		{"empty name", func(t *core.Transaction) { t.AccountName = " " }, core.ErrEmptyAccountName},
		{"negative", func(t *core.Transaction) { t.Amount = -1 }, core.ErrNegativeAmount},
		{"unknown kind", func(t *core.Transaction) { t.AccountKind = "crypto" }, core.ErrInvalidKind},
		{"foreign owner", func(t *core.Transaction) { t.Owner = "userB" }, core.ErrOwnerNotAllowed},
		{"unknown owner", func(t *core.Transaction) { t.Owner = "cat" }, core.ErrInvalidOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := base
			tc.mutate(&row)
			assert.ErrorIs(t, svc.Register(ctx, userA, row), tc.want)
		})
	}

	l, _ := store.Load(ctx)
	assert.Len(t, l, 4)
	assert.Empty(t, pub.msgs)
	assert.ErrorIs(t, svc.Register(ctx, core.Session{}, base), core.ErrUnauthenticated)
}

func TestRegisterDoesNotSaveWhenLoadFails(t *testing.T) {
	store := &brokenStore{loadErr: errors.New("timeout")}
	svc := NewLedgerService(store, core.DefaultHousehold(), nil)

	err := svc.Register(context.Background(), userA, core.Transaction{
		Date: core.NewDate(2024, 2, 1), AccountName: "X", AccountKind: core.KindCash, Owner: "userA", Amount: 1,
	})
	require.Error(t, err)
	assert.False(t, store.saved)
}

func TestSaveEditsPreservesHiddenRows(t *testing.T) {
	svc, store, pub := newLedgerService(t)
	ctx := context.Background()

	view, err := svc.View(ctx, userB, "")
	require.NoError(t, err)
	require.Len(t, view.EditRows, 2)

	edited := view.EditRows
	for i := range edited {
		if edited[i].Owner == "joint" {
			edited[i].Delete = true
		} else {
			edited[i].Amount = 450
		}
	}
	require.NoError(t, svc.SaveEdits(ctx, userB, edited))

	l, _ := store.Load(ctx)
	hidden := core.Ledger{seedLedger()[0], seedLedger()[2]}
	require.Len(t, l, 3)
	assert.Equal(t, hidden, l[:2])
	assert.Equal(t, core.Yen(450), l[2].Amount)
	assert.Equal(t, core.Owner("userB"), l[2].Owner)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, amqp.ReasonEdit, pub.msgs[0].Reason)
}

func TestSaveEditsRejectsForeignOwner(t *testing.T) {
	svc, store, _ := newLedgerService(t)
	ctx := context.Background()

	view, _ := svc.View(ctx, userA, "")
	edited := view.EditRows
	edited[0].Owner = "userB"

	err := svc.SaveEdits(ctx, userA, edited)
	require.ErrorIs(t, err, core.ErrOwnerNotAllowed)
	l, _ := store.Load(ctx)
	assert.Equal(t, seedLedger(), l)
}

func TestSaveEditsSurvivesPublisherFailure(t *testing.T) {
	store := memory.New(seedLedger(), nil)
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewLedgerService(store, core.DefaultHousehold(), pub)

	require.NoError(t, svc.SaveEdits(context.Background(), userA, nil))
	l, _ := store.Load(context.Background())
	assert.Len(t, l, 1, "userA dropped every visible row, only userB's row remains")
}

func TestImportAndExport(t *testing.T) {
	svc, _, pub := newLedgerService(t)
	ctx := context.Background()
	extra := core.Ledger{{Date: core.NewDate(2024, 3, 1), AccountName: "Imported", AccountKind: core.KindStock, Owner: "joint", Amount: 10}}

	n, err := svc.Import(ctx, extra, false, "admin")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.Import(ctx, extra, true, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, extra, all)
	assert.Len(t, pub.msgs, 2)

	bad := core.Ledger{{Date: core.NewDate(2024, 3, 1), AccountName: "X", Owner: "stranger", Amount: 1}}
	_, err = svc.Import(ctx, bad, true, "admin")
	assert.ErrorIs(t, err, core.ErrInvalidOwner)
}
