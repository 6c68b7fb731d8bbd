package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
	"pennywise/internal/sheets"
)

// SyncWorker mirrors committed ledger changes into a spreadsheet. Events only
// carry ids; the transaction itself is always read back from the store.
type SyncWorker struct {
	store  gateway.TransactionStore
	mirror sheets.TransactionMirror
	logger *log.Logger
	now    func() time.Time
}

func NewSyncWorker(store gateway.TransactionStore, mirror sheets.TransactionMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleEvent processes a single ledger event from AMQP. Returning an error
// requeues the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	logger := w.logger.With(
		log.FieldOperation, log.OpSync,
		log.FieldEventType, ev.Type,
		log.FieldUserID, ev.UserID,
		log.FieldTransactionID, ev.TransactionID)

	switch ev.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		return w.syncTransaction(ctx, logger, ev)
	case amqp.EventTransactionDeleted:
		return w.deleteTransaction(ctx, logger, ev)
	default:
		logger.DebugContext(ctx, "Event not mirrored")
		return nil
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, logger *log.Logger, ev *amqp.LedgerEvent) error {
	if ev.TransactionID == "" {
		logger.WarnContext(ctx, "Transaction event without id, skipping")
		return nil
	}

	t, err := w.store.GetTransaction(auth.WithUser(ctx, ev.UserID), ev.TransactionID)
	if errors.Is(err, gateway.ErrNotFound) {
		// deleted before we got here; the delete event cleans the sheet
		logger.InfoContext(ctx, "Transaction no longer exists, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.mirror.UpsertTransaction(ctx, ev.UserID, t)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mirror transaction", log.FieldError, err)
		return fmt.Errorf("mirror transaction: %w", err)
	}
	logger.InfoContext(ctx, "Transaction mirrored",
		"sheets_ref", ref,
		log.FieldAmountCents, t.Amount.Cents)
	return nil
}

func (w *SyncWorker) deleteTransaction(ctx context.Context, logger *log.Logger, ev *amqp.LedgerEvent) error {
	year := w.now().Year()
	if ev.Month != "" {
		m, err := core.ParseMonth(ev.Month)
		if err != nil {
			logger.WarnContext(ctx, "Bad month on delete event, using current year", "month", ev.Month)
		} else {
			year = m.Year()
		}
	}

	if err := w.mirror.DeleteTransaction(ctx, ev.TransactionID, year); err != nil {
		logger.ErrorContext(ctx, "Failed to delete mirrored transaction", log.FieldError, err)
		return fmt.Errorf("delete mirrored transaction: %w", err)
	}
	logger.InfoContext(ctx, "Mirrored transaction deleted", log.FieldYear, year)
	return nil
}

// ResyncYear mirrors every transaction of userID dated in year. It recovers
// from events lost while the worker was down and keeps going past single
// failures.
func (w *SyncWorker) ResyncYear(ctx context.Context, userID string, year int) (synced, failed int, err error) {
	from, to := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
	list, err := w.store.ListTransactionsBetween(auth.WithUser(ctx, userID), from, to)
	if err != nil {
		return 0, 0, fmt.Errorf("list transactions: %w", err)
	}

	for _, t := range list {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if _, err := w.mirror.UpsertTransaction(ctx, userID, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror transaction during resync",
				log.FieldUserID, userID,
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		log.FieldUserID, userID,
		log.FieldYear, year,
		"total", len(list),
		"synced", synced,
		"errors", failed)
	return synced, failed, nil
}
