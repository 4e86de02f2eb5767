package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
)

// EventPublisher announces ledger saves. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error
}

// LedgerService runs the load, filter, aggregate, edit, reconcile and save
// cycle for one acting user at a time. It holds no ledger state between calls.
type LedgerService struct {
	store     sheets.LedgerStore
	household core.Household
	publisher EventPublisher
	timeout   time.Duration
}

// NewLedgerService wires the service. publisher may be nil.
func NewLedgerService(store sheets.LedgerStore, household core.Household, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, household: household, publisher: publisher}
}

// WithTimeout bounds every store round trip. Zero means no bound.
func (s *LedgerService) WithTimeout(d time.Duration) *LedgerService {
	s.timeout = d
	return s
}

func (s *LedgerService) Household() core.Household { return s.household }

func (s *LedgerService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// LedgerView is everything the dashboard and data-management pages show.
type LedgerView struct {
	User         string
	Allowed      core.OwnerSet
	Scope        core.DisplayScope
	Visible      core.Ledger
	Rows         core.Ledger
	Dashboard    core.Dashboard
	AccountNames []string
	EditRows     []core.EditedRow
}

func requireSession(sess core.Session) error {
	if !sess.Authenticated || sess.CurrentUser == "" {
		return core.ErrUnauthenticated
	}
	return nil
}

// View loads the ledger once and derives the user's figures. When the load
// fails the view is built from an empty ledger and the error is returned with it.
func (s *LedgerService) View(ctx context.Context, sess core.Session, rawScope string) (LedgerView, error) {
	if err := requireSession(sess); err != nil {
		return LedgerView{}, err
	}
	allowed := s.household.AllowedOwners(sess.CurrentUser)
	scope := core.ParseDisplayScope(rawScope, allowed)

	sctx, cancel := s.storeContext(ctx)
	full, loadErr := s.store.Load(sctx)
	cancel()
	if loadErr != nil {
		slog.ErrorContext(ctx, "Failed to load ledger", "user", sess.CurrentUser, "error", loadErr)
		full = core.Ledger{}
		loadErr = fmt.Errorf("load ledger: %w", loadErr)
	}

	visible := core.VisibleRows(full, allowed)
	rows := core.ApplyDisplayFilter(visible, scope)
	return LedgerView{
		User:         sess.CurrentUser,
		Allowed:      allowed,
		Scope:        scope,
		Visible:      visible,
		Rows:         rows,
		Dashboard:    core.BuildDashboard(rows),
		AccountNames: core.AccountNames(visible),
		EditRows:     core.EditRows(visible),
	}, loadErr
}

// Register appends one snapshot row. Nothing is saved if the ledger cannot be loaded.
func (s *LedgerService) Register(ctx context.Context, sess core.Session, t core.Transaction) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	t.AccountName = strings.TrimSpace(t.AccountName)
	t.Memo = strings.TrimSpace(t.Memo)
	if !t.AccountKind.Valid() {
		return core.ErrInvalidKind
	}
	if err := t.Validate(s.household); err != nil {
		return err
	}
	if !s.household.AllowedOwners(sess.CurrentUser).Contains(t.Owner) {
		return core.ErrOwnerNotAllowed
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	full, err := s.store.Load(sctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	next := core.Append(full, t)
	if err := s.store.Save(sctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot registered",
		"user", sess.CurrentUser,
		"account", t.AccountName,
		"owner", t.Owner,
		"rows", len(next))
	s.publish(ctx, len(next), sess.CurrentUser, amqp.ReasonRegister)
	return nil
}

// SaveEdits replaces the user's visible rows with the edited grid. Rows of
// owners the user cannot see are written back untouched.
func (s *LedgerService) SaveEdits(ctx context.Context, sess core.Session, edited []core.EditedRow) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	allowed := s.household.AllowedOwners(sess.CurrentUser)
	for i := range edited {
		edited[i].AccountName = strings.TrimSpace(edited[i].AccountName)
		edited[i].Memo = strings.TrimSpace(edited[i].Memo)
	}
	if err := core.ValidateEdits(s.household, allowed, edited); err != nil {
		return err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	full, err := s.store.Load(sctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	next := core.Reconcile(full, allowed, edited)
	if err := s.store.Save(sctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger edits saved",
		"user", sess.CurrentUser,
		"before", len(full),
		"after", len(next))
	s.publish(ctx, len(next), sess.CurrentUser, amqp.ReasonEdit)
	return nil
}

// Import adds rows to the ledger, or replaces it entirely. Used by the admin CLI.
func (s *LedgerService) Import(ctx context.Context, rows core.Ledger, replace bool, actor string) (int, error) {
	for i, t := range rows {
		if err := t.Validate(s.household); err != nil {
			return 0, &core.EditError{Index: i, Err: err}
		}
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	next := rows.Clone()
	if !replace {
		full, err := s.store.Load(sctx)
		if err != nil {
			return 0, fmt.Errorf("load ledger: %w", err)
		}
		next = append(full.Clone(), rows...)
	}
	if err := s.store.Save(sctx, next); err != nil {
		return 0, fmt.Errorf("save ledger: %w", err)
	}
	s.publish(ctx, len(next), actor, amqp.ReasonImport)
	return len(next), nil
}

// Export returns the whole ledger.
func (s *LedgerService) Export(ctx context.Context) (core.Ledger, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	l, err := s.store.Load(sctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

// publish never fails the caller: the save already happened.
func (s *LedgerService) publish(ctx context.Context, rows int, actor, reason string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger.saved")
		return
	}
	if err := s.publisher.PublishLedgerSaved(ctx, amqp.NewLedgerSavedMessage(rows, actor, reason)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger.saved", "reason", reason, "error", err)
	}
}
