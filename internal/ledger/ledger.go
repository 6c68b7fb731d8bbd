// Package ledger holds the per-user application state: the loaded
// transactions partitioned by kind, the account balances and the expense
// limits, together with the dismissible error banner shown to the user.
//
// Every mutation writes the entity and the affected balance in one gateway
// unit of work. The in-memory state only changes after that unit commits.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pennywise/internal/amqp"
	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
)

// Banner messages shown after a failed operation.
const (
	MsgLoadFailed       = "Failed to load data from server"
	MsgAddExpenseFailed = "Failed to add expense"
	MsgAddIncomeFailed  = "Failed to add income"
	MsgUpdateFailed     = "Failed to update transaction"
	MsgDeleteFailed     = "Failed to delete transaction"
	MsgBalancesFailed   = "Failed to update account balances"
	MsgLimitsFailed     = "Failed to update expense limits"
	MsgNoPreviousLimits = "No expense limits found for the previous month"
	MsgNotLoaded        = "Data has not been loaded yet"
)

var (
	ErrNotLoaded        = errors.New("ledger not loaded")
	ErrNoPreviousLimits = errors.New("previous month has no expense limits")
)

// EventPublisher receives a notification after every committed change.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Publishers fans one event out to several publishers and joins their errors.
type Publishers []EventPublisher

func (p Publishers) PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.PublishEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// State is a copy of a session's data safe to hand to callers.
type State struct {
	Expenses      []core.Transaction   `json:"expenses"`
	Income        []core.Transaction   `json:"income"`
	Balances      core.AccountBalances `json:"balances"`
	ExpenseLimits []core.ExpenseLimit  `json:"expenseLimits"`
	Error         string               `json:"error,omitempty"`
	Loaded        bool                 `json:"loaded"`
	LoadedAt      time.Time            `json:"loadedAt,omitempty"`

	// Revision increases on every successful load or mutation.
	Revision uint64 `json:"revision"`
}

// Transactions returns expenses followed by income.
func (s State) Transactions() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.Expenses)+len(s.Income))
	out = append(out, s.Expenses...)
	return append(out, s.Income...)
}

// Session is the state controller of one user. Its methods are safe for
// concurrent use; mutations of one session are applied one at a time.
type Session struct {
	userID string
	gw     gateway.Gateway
	events EventPublisher
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// NewSession creates an empty, not yet loaded session. events may be nil.
func NewSession(userID string, gw gateway.Gateway, events EventPublisher, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{
		userID: userID,
		gw:     gw,
		events: events,
		logger: logger.WithComponent(log.ComponentLedger).With(log.FieldUserID, userID),
		now:    time.Now,
	}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) ctx(ctx context.Context) context.Context {
	return auth.WithUser(ctx, s.userID)
}

// Load fetches transactions, balances and limits concurrently and replaces
// the in-memory state with them. On failure the previous state is kept and
// the load banner is set.
func (s *Session) Load(ctx context.Context) error {
	ctx = s.ctx(ctx)

	var (
		txs      []core.Transaction
		balances core.AccountBalances
		limits   []core.ExpenseLimit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.gw.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		balances, err = s.gw.GetBalances(gctx)
		if err != nil {
			return fmt.Errorf("get balances: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		limits, err = s.gw.ListLimits(gctx)
		if err != nil {
			return fmt.Errorf("list limits: %w", err)
		}
		return nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := g.Wait(); err != nil {
		s.fail(log.OpLoad, MsgLoadFailed, err)
		return err
	}

	s.state = State{
		Expenses:      core.FilterByKind(txs, core.KindExpense),
		Income:        core.FilterByKind(txs, core.KindIncome),
		Balances:      balances,
		ExpenseLimits: limits,
		Error:         s.state.Error,
		Loaded:        true,
		LoadedAt:      s.now(),
		Revision:      s.nextLoadRevision(),
	}
	s.logger.Info("Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"expenses", len(s.state.Expenses),
		"income", len(s.state.Income),
		"limits", len(limits))
	return nil
}

// nextLoadRevision seeds a session's first revision from the clock so a
// reloaded session never reuses the revisions of an evicted one.
func (s *Session) nextLoadRevision() uint64 {
	if s.state.Revision == 0 {
		return uint64(s.now().UnixNano())
	}
	return s.state.Revision + 1
}

// Loaded reports whether a Load has succeeded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loaded
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Expenses = append([]core.Transaction(nil), st.Expenses...)
	st.Income = append([]core.Transaction(nil), st.Income...)
	st.ExpenseLimits = append([]core.ExpenseLimit(nil), st.ExpenseLimits...)
	return st
}

// Error returns the current banner message, empty when there is none.
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Error
}

func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// fail records banner for err. Must be called with s.mu held.
func (s *Session) fail(op, banner string, err error) {
	s.state.Error = banner
	s.logger.Error(banner, log.FieldOperation, op, log.FieldError, err)
}

func (s *Session) requireLoaded(op string) error {
	if !s.state.Loaded {
		s.fail(op, MsgNotLoaded, ErrNotLoaded)
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, event.Type,
			log.FieldError, err)
	}
}

// AddTransaction validates t, stores it and applies it to its account.
func (s *Session) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	ctx = s.ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(log.OpCreate); err != nil {
		return core.Transaction{}, err
	}

	var (
		saved    core.Transaction
		balances core.AccountBalances
	)
	err := s.gw.InTx(ctx, func(tx gateway.Store) error {
		var err error
		if saved, err = tx.AddTransaction(ctx, t); err != nil {
			return fmt.Errorf("add transaction: %w", err)
		}
		current, err := tx.GetBalances(ctx)
		if err != nil {
			return fmt.Errorf("get balances: %w", err)
		}
		if balances, err = tx.UpdateBalances(ctx, current.Apply(saved)); err != nil {
			return fmt.Errorf("update balances: %w", err)
		}
		return nil
	})
	if err != nil {
		banner := MsgAddExpenseFailed
		if t.Kind == core.KindIncome {
			banner = MsgAddIncomeFailed
		}
		s.fail(log.OpCreate, banner, err)
		return core.Transaction{}, err
	}

	if saved.Kind == core.KindExpense {
		s.state.Expenses = prepend(s.state.Expenses, saved)
	} else {
		s.state.Income = prepend(s.state.Income, saved)
	}
	s.state.Balances = balances
	s.state.Revision++
	s.logTransaction("Transaction added", log.OpCreate, saved)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionCreated, s.userID, saved.ID)
	ev.Month = saved.Date.MonthKey()
	s.publish(ctx, ev)
	return saved, nil
}

// UpdateTransaction replaces the stored transaction with t.ID. The balance
// effect of the previous version is reversed and the new one applied, so
// moving an entry between accounts or kinds keeps both balances right.
func (s *Session) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		return core.Transaction{}, &core.ValidationError{Fields: map[string]string{"id": "ID is required"}}
	}
	ctx = s.ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(log.OpUpdate); err != nil {
		return core.Transaction{}, err
	}

	var (
		old, saved core.Transaction
		balances   core.AccountBalances
	)
	err := s.gw.InTx(ctx, func(tx gateway.Store) error {
		var err error
		if old, err = tx.GetTransaction(ctx, t.ID); err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		if saved, err = tx.UpdateTransaction(ctx, t); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		current, err := tx.GetBalances(ctx)
		if err != nil {
			return fmt.Errorf("get balances: %w", err)
		}
		if balances, err = tx.UpdateBalances(ctx, current.Rebalance(old, saved)); err != nil {
			return fmt.Errorf("update balances: %w", err)
		}
		return nil
	})
	if err != nil {
		s.fail(log.OpUpdate, MsgUpdateFailed, err)
		return core.Transaction{}, err
	}

	// Same kind keeps its position; a kind change moves to the front of the
	// other list.
	if saved.Kind == core.KindExpense {
		s.state.Income = remove(s.state.Income, saved.ID)
		s.state.Expenses = replaceOrPrepend(s.state.Expenses, saved)
	} else {
		s.state.Expenses = remove(s.state.Expenses, saved.ID)
		s.state.Income = replaceOrPrepend(s.state.Income, saved)
	}
	s.state.Balances = balances
	s.state.Revision++
	s.logTransaction("Transaction updated", log.OpUpdate, saved)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionUpdated, s.userID, saved.ID)
	ev.Month = saved.Date.MonthKey()
	s.publish(ctx, ev)
	return saved, nil
}

// DeleteTransaction removes the transaction and reverses its balance effect.
func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return &core.ValidationError{Fields: map[string]string{"id": "ID is required"}}
	}
	ctx = s.ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(log.OpDelete); err != nil {
		return err
	}

	var (
		old      core.Transaction
		balances core.AccountBalances
	)
	err := s.gw.InTx(ctx, func(tx gateway.Store) error {
		var err error
		if old, err = tx.GetTransaction(ctx, id); err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		if err = tx.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		current, err := tx.GetBalances(ctx)
		if err != nil {
			return fmt.Errorf("get balances: %w", err)
		}
		if balances, err = tx.UpdateBalances(ctx, current.Revert(old)); err != nil {
			return fmt.Errorf("update balances: %w", err)
		}
		return nil
	})
	if err != nil {
		s.fail(log.OpDelete, MsgDeleteFailed, err)
		return err
	}

	s.state.Expenses = remove(s.state.Expenses, id)
	s.state.Income = remove(s.state.Income, id)
	s.state.Balances = balances
	s.state.Revision++
	s.logTransaction("Transaction deleted", log.OpDelete, old)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionDeleted, s.userID, id)
	ev.Month = old.Date.MonthKey()
	s.publish(ctx, ev)
	return nil
}

// SetBalances overwrites both account balances.
func (s *Session) SetBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	ctx = s.ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(log.OpUpdate); err != nil {
		return core.AccountBalances{}, err
	}

	saved, err := s.gw.UpdateBalances(ctx, b)
	if err != nil {
		s.fail(log.OpUpdate, MsgBalancesFailed, err)
		return core.AccountBalances{}, err
	}
	s.state.Balances = saved
	s.state.Revision++
	s.logger.Info("Balances updated",
		log.FieldOperation, log.OpUpdate,
		"bank_cents", saved.Bank.Cents,
		"wallet_cents", saved.Wallet.Cents)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventBalancesUpdated, s.userID, ""))
	return saved, nil
}

// ReplaceLimits makes the stored limits, across every month, equal to
// limits. An empty list removes them all.
func (s *Session) ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) ([]core.ExpenseLimit, error) {
	if err := validateLimits(limits); err != nil {
		return nil, err
	}
	return s.writeLimits(ctx, "", func(ctx context.Context, tx gateway.Store) error {
		return gateway.ApplyLimits(ctx, tx, limits)
	})
}

// SetMonthLimits replaces the limits of one month and leaves the others.
func (s *Session) SetMonthLimits(ctx context.Context, month string, limits []core.ExpenseLimit) ([]core.ExpenseLimit, error) {
	if !core.IsValidMonth(month) {
		return nil, &core.ValidationError{Fields: map[string]string{"month": "Month must be YYYY-MM"}}
	}
	scoped := make([]core.ExpenseLimit, len(limits))
	for i, l := range limits {
		l.Month = month
		scoped[i] = l
	}
	if err := validateLimits(scoped); err != nil {
		return nil, err
	}
	return s.writeLimits(ctx, month, func(ctx context.Context, tx gateway.Store) error {
		all, err := tx.ListLimits(ctx)
		if err != nil {
			return fmt.Errorf("list limits: %w", err)
		}
		return gateway.ApplyLimits(ctx, tx, gateway.MergeMonthLimits(all, month, scoped))
	})
}

// UpsertLimit creates or changes the limit for (l.Category, l.Month).
func (s *Session) UpsertLimit(ctx context.Context, l core.ExpenseLimit) ([]core.ExpenseLimit, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return s.writeLimits(ctx, l.Month, func(ctx context.Context, tx gateway.Store) error {
		if _, err := tx.UpsertLimit(ctx, l); err != nil {
			return fmt.Errorf("upsert limit: %w", err)
		}
		return nil
	})
}

// DeleteLimit removes the limit for category in month.
func (s *Session) DeleteLimit(ctx context.Context, category, month string) ([]core.ExpenseLimit, error) {
	if err := (core.ExpenseLimit{Category: category, Month: month}).Validate(); err != nil {
		return nil, err
	}
	return s.writeLimits(ctx, month, func(ctx context.Context, tx gateway.Store) error {
		if err := tx.DeleteLimit(ctx, category, month); err != nil {
			return fmt.Errorf("delete limit: %w", err)
		}
		return nil
	})
}

// CopyPreviousMonthLimits copies every limit of the month before month into
// month, overwriting same-category limits already there. It fails with
// ErrNoPreviousLimits, changing nothing, when the previous month has none.
func (s *Session) CopyPreviousMonthLimits(ctx context.Context, month string) ([]core.ExpenseLimit, error) {
	prev, err := core.PreviousMonth(month)
	if err != nil {
		return nil, &core.ValidationError{Fields: map[string]string{"month": "Month must be YYYY-MM"}}
	}

	s.mu.Lock()
	loaded := s.state.Loaded
	var copies []core.ExpenseLimit
	for _, l := range s.state.ExpenseLimits {
		if l.Month == prev {
			copies = append(copies, core.ExpenseLimit{Category: l.Category, Limit: l.Limit, Month: month})
		}
	}
	if loaded && len(copies) == 0 {
		s.fail(log.OpUpdate, MsgNoPreviousLimits, ErrNoPreviousLimits)
		s.mu.Unlock()
		return nil, ErrNoPreviousLimits
	}
	s.mu.Unlock()

	return s.writeLimits(ctx, month, func(ctx context.Context, tx gateway.Store) error {
		for _, l := range copies {
			if _, err := tx.UpsertLimit(ctx, l); err != nil {
				return fmt.Errorf("copy limit %s: %w", l.Category, err)
			}
		}
		return nil
	})
}

// writeLimits runs write in a unit of work, then reloads the limits so the
// in-memory list carries the stored ids and order.
func (s *Session) writeLimits(ctx context.Context, month string, write func(ctx context.Context, tx gateway.Store) error) ([]core.ExpenseLimit, error) {
	ctx = s.ctx(ctx)
	op := log.OpUpdate
	if month == "" {
		op = log.OpReplace
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(op); err != nil {
		return nil, err
	}

	var limits []core.ExpenseLimit
	err := s.gw.InTx(ctx, func(tx gateway.Store) error {
		if err := write(ctx, tx); err != nil {
			return err
		}
		var err error
		if limits, err = tx.ListLimits(ctx); err != nil {
			return fmt.Errorf("list limits: %w", err)
		}
		return nil
	})
	if err != nil {
		s.fail(op, MsgLimitsFailed, err)
		return nil, err
	}

	s.state.ExpenseLimits = limits
	s.state.Revision++
	s.logger.Info("Expense limits updated",
		log.FieldOperation, op,
		log.FieldMonth, month,
		log.FieldCount, len(limits))

	ev := amqp.NewLedgerEvent(amqp.EventLimitsChanged, s.userID, "")
	ev.Month = month
	s.publish(ctx, ev)
	return append([]core.ExpenseLimit(nil), limits...), nil
}

func (s *Session) logTransaction(msg, op string, t core.Transaction) {
	attrs := log.TransactionAttrs(t.ID, string(t.Kind), t.Category, string(t.Account()), t.Amount.Cents)
	s.logger.Info(msg, append([]any{log.FieldOperation, op}, attrs...)...)
}

func validateLimits(limits []core.ExpenseLimit) error {
	verr := &core.ValidationError{Fields: map[string]string{}}
	for i, l := range limits {
		if err := l.Validate(); err != nil {
			var fe *core.ValidationError
			if errors.As(err, &fe) {
				for field, msg := range fe.Fields {
					verr.Fields[fmt.Sprintf("limits[%d].%s", i, field)] = msg
				}
				continue
			}
			return err
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func prepend(list []core.Transaction, t core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(list)+1)
	out = append(out, t)
	return append(out, list...)
}

func replaceOrPrepend(list []core.Transaction, t core.Transaction) []core.Transaction {
	for i := range list {
		if list[i].ID == t.ID {
			out := append([]core.Transaction(nil), list...)
			out[i] = t
			return out
		}
	}
	return prepend(list, t)
}

func remove(list []core.Transaction, id string) []core.Transaction {
	out := list[:0:0]
	for _, t := range list {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
