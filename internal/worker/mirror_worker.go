package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
	"kakeibo/internal/sheets/rows"
)

// MirrorWorker copies the primary ledger over the mirror ledger. Every copy is
// a whole-table replace, so repeated or reordered triggers are harmless.
type MirrorWorker struct {
	source   sheets.LedgerReader
	target   sheets.LedgerWriter
	interval time.Duration

	mu         sync.Mutex
	lastDigest string
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func NewMirrorWorker(source sheets.LedgerReader, target sheets.LedgerWriter, interval time.Duration) *MirrorWorker {
	return &MirrorWorker{source: source, target: target, interval: interval}
}

// HandleLedgerSaved mirrors after a save event. The message only triggers the
// copy; the primary store is always re-read.
func (w *MirrorWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	slog.InfoContext(ctx, "Processing ledger.saved",
		"actor", msg.Actor,
		"reason", msg.Reason,
		"rows", msg.Rows,
		"timestamp", msg.Timestamp)

	if _, err := w.mirror(ctx, true); err != nil {
		return fmt.Errorf("mirror after %s: %w", msg.Reason, err)
	}
	return nil
}

// Mirror copies the ledger unless it is unchanged since the last copy.
// It reports whether a write happened.
func (w *MirrorWorker) Mirror(ctx context.Context) (bool, error) {
	return w.mirror(ctx, false)
}

// StartupSync forces one copy so a mirror that drifted while the worker was
// down is repaired.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	written, err := w.mirror(ctx, true)
	if err != nil {
		return fmt.Errorf("startup mirror: %w", err)
	}
	slog.InfoContext(ctx, "Startup mirror completed", "written", written)
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, force bool) (bool, error) {
	ledger, err := w.source.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load primary ledger: %w", err)
	}
	digest := ledgerDigest(ledger)

	w.mu.Lock()
	unchanged := digest == w.lastDigest
	w.mu.Unlock()
	if unchanged && !force {
		slog.DebugContext(ctx, "Ledger unchanged, skipping mirror", "rows", len(ledger))
		return false, nil
	}

	if err := w.target.Save(ctx, ledger); err != nil {
		return false, fmt.Errorf("save mirror ledger: %w", err)
	}

	w.mu.Lock()
	w.lastDigest = digest
	w.mu.Unlock()

	slog.InfoContext(ctx, "Ledger mirrored", "rows", len(ledger))
	return true, nil
}

func ledgerDigest(l core.Ledger) string {
	h := sha256.New()
	for _, record := range rows.EncodeLedger(l) {
		for _, cell := range record {
			h.Write([]byte(cell))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Start runs the periodic mirror in the background. A non-positive interval
// disables it.
func (w *MirrorWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		slog.InfoContext(ctx, "Periodic mirror disabled")
		return nil
	}
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx, w.stopCh, w.doneCh)

	slog.InfoContext(ctx, "Mirror worker started", "interval", w.interval)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Mirror(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
			}
		}
	}
}
