// Package memory is an in-process gateway. With a snapshot store attached it
// doubles as the offline fallback: each user's ledger is loaded from the
// last saved snapshot and written back after every change.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
	"pennywise/internal/offline"
)

type ledger struct {
	txs      []core.Transaction
	balances *core.AccountBalances
	limits   []core.ExpenseLimit
}

func (l *ledger) clone() *ledger {
	c := &ledger{
		txs:    append([]core.Transaction(nil), l.txs...),
		limits: append([]core.ExpenseLimit(nil), l.limits...),
	}
	if l.balances != nil {
		b := *l.balances
		c.balances = &b
	}
	return c
}

type Store struct {
	mu        sync.Mutex
	users     map[string]*ledger
	snapshots *offline.SnapshotStore
	logger    *log.Logger
}

var _ gateway.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{users: make(map[string]*ledger), logger: log.Discard()}
}

// NewWithSnapshots returns a store that persists every user's ledger through
// snapshots.
func NewWithSnapshots(snapshots *offline.SnapshotStore, logger *log.Logger) *Store {
	s := New()
	s.snapshots = snapshots
	s.logger = logger.WithComponent(log.ComponentOffline)
	return s
}

// ledgerFor returns the caller's ledger. Must be called with s.mu held.
func (s *Store) ledgerFor(ctx context.Context) (string, *ledger, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return "", nil, err
	}
	l, ok := s.users[uid]
	if !ok {
		l = &ledger{}
		if s.snapshots != nil {
			snap := s.snapshots.Load(ctx, uid)
			l.txs = append(append(l.txs, snap.Expenses...), snap.Income...)
			l.limits = append(l.limits, snap.ExpenseLimits...)
			b := snap.Balances
			l.balances = &b
		}
		s.users[uid] = l
	}
	return uid, l, nil
}

func (s *Store) persist(ctx context.Context, uid string, l *ledger) {
	if s.snapshots == nil {
		return
	}
	snap := offline.EmptySnapshot()
	snap.Expenses = append(snap.Expenses, core.FilterByKind(l.txs, core.KindExpense)...)
	snap.Income = append(snap.Income, core.FilterByKind(l.txs, core.KindIncome)...)
	snap.ExpenseLimits = append(snap.ExpenseLimits, l.limits...)
	if l.balances != nil {
		snap.Balances = *l.balances
	}
	if err := s.snapshots.Save(ctx, uid, snap); err != nil {
		s.logger.WarnContext(ctx, "Failed to save offline snapshot", log.FieldUserID, uid, log.FieldError, err)
	}
}

// read runs fn against the caller's ledger under the lock.
func (s *Store) read(ctx context.Context, fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, l, err := s.ledgerFor(ctx)
	if err != nil {
		return err
	}
	return fn(&view{l: l})
}

// write runs fn against a copy of the caller's ledger and keeps the copy
// only when fn succeeds.
func (s *Store) write(ctx context.Context, fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, l, err := s.ledgerFor(ctx)
	if err != nil {
		return err
	}
	work := l.clone()
	if err := fn(&view{l: work}); err != nil {
		return err
	}
	s.users[uid] = work
	s.persist(ctx, uid, work)
	return nil
}

// InTx runs fn with exclusive access to the caller's ledger. fn must only
// use the Store it is given.
func (s *Store) InTx(ctx context.Context, fn func(tx gateway.Store) error) error {
	return s.write(ctx, func(v *view) error { return fn(v) })
}

func (s *Store) ListTransactions(ctx context.Context) (out []core.Transaction, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListTransactions(ctx)
		return err
	})
	return out, err
}

func (s *Store) ListTransactionsBetween(ctx context.Context, from, to core.Date) (out []core.Transaction, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListTransactionsBetween(ctx, from, to)
		return err
	})
	return out, err
}

func (s *Store) GetTransaction(ctx context.Context, id string) (out core.Transaction, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.GetTransaction(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (out core.Transaction, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.AddTransaction(ctx, t)
		return err
	})
	return out, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (out core.Transaction, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.UpdateTransaction(ctx, t)
		return err
	})
	return out, err
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.write(ctx, func(v *view) error { return v.DeleteTransaction(ctx, id) })
}

// GetBalances creates zero balances on first use, which is a write.
func (s *Store) GetBalances(ctx context.Context) (out core.AccountBalances, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.GetBalances(ctx)
		return err
	})
	return out, err
}

func (s *Store) CreateBalances(ctx context.Context, b core.AccountBalances) (out core.AccountBalances, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.CreateBalances(ctx, b)
		return err
	})
	return out, err
}

func (s *Store) UpdateBalances(ctx context.Context, b core.AccountBalances) (out core.AccountBalances, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.UpdateBalances(ctx, b)
		return err
	})
	return out, err
}

func (s *Store) ListLimits(ctx context.Context) (out []core.ExpenseLimit, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListLimits(ctx)
		return err
	})
	return out, err
}

func (s *Store) AddLimit(ctx context.Context, l core.ExpenseLimit) (out core.ExpenseLimit, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.AddLimit(ctx, l)
		return err
	})
	return out, err
}

func (s *Store) UpsertLimit(ctx context.Context, l core.ExpenseLimit) (out core.ExpenseLimit, err error) {
	err = s.write(ctx, func(v *view) error {
		out, err = v.UpsertLimit(ctx, l)
		return err
	})
	return out, err
}

func (s *Store) DeleteLimit(ctx context.Context, category, month string) error {
	return s.write(ctx, func(v *view) error { return v.DeleteLimit(ctx, category, month) })
}

func (s *Store) ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) error {
	return s.write(ctx, func(v *view) error { return v.ReplaceLimits(ctx, limits) })
}

// view implements gateway.Store over one ledger without locking.
type view struct {
	l *ledger
}

func (v *view) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	out := append([]core.Transaction(nil), v.l.txs...)
	// newest date first; among equal dates the most recently added first
	idx := make(map[string]int, len(v.l.txs))
	for i, t := range v.l.txs {
		idx[t.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return idx[out[i].ID] > idx[out[j].ID]
	})
	return out, nil
}

func (v *view) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	all, _ := v.ListTransactions(ctx)
	out := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if !t.Date.Before(from.Time) && !t.Date.After(to.Time) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v *view) find(id string) int {
	for i, t := range v.l.txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (v *view) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	i := v.find(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, gateway.ErrNotFound)
	}
	return v.l.txs[i], nil
}

func (v *view) AddTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	v.l.txs = append(v.l.txs, t)
	return t, nil
}

func (v *view) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	i := v.find(t.ID)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, gateway.ErrNotFound)
	}
	t = t.Normalize()
	v.l.txs[i] = t
	return t, nil
}

func (v *view) DeleteTransaction(_ context.Context, id string) error {
	i := v.find(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, gateway.ErrNotFound)
	}
	v.l.txs = append(v.l.txs[:i], v.l.txs[i+1:]...)
	return nil
}

func (v *view) GetBalances(ctx context.Context) (core.AccountBalances, error) {
	if v.l.balances == nil {
		return v.CreateBalances(ctx, core.AccountBalances{})
	}
	return *v.l.balances, nil
}

func (v *view) CreateBalances(_ context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	v.l.balances = &b
	return b, nil
}

func (v *view) UpdateBalances(_ context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	v.l.balances = &b
	return b, nil
}

func (v *view) ListLimits(_ context.Context) ([]core.ExpenseLimit, error) {
	out := append([]core.ExpenseLimit(nil), v.l.limits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

func (v *view) AddLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	for _, cur := range v.l.limits {
		if cur.Key() == l.Key() {
			return core.ExpenseLimit{}, fmt.Errorf("limit %s/%s: %w", l.Month, l.Category, gateway.ErrConflict)
		}
	}
	return v.UpsertLimit(ctx, l)
}

func (v *view) UpsertLimit(_ context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	for i := range v.l.limits {
		if v.l.limits[i].Key() == l.Key() {
			l.ID = v.l.limits[i].ID
			v.l.limits[i] = l
			return l, nil
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	v.l.limits = append(v.l.limits, l)
	return l, nil
}

func (v *view) DeleteLimit(_ context.Context, category, month string) error {
	out := v.l.limits[:0]
	for _, l := range v.l.limits {
		if l.Category == category && l.Month == month {
			continue
		}
		out = append(out, l)
	}
	v.l.limits = out
	return nil
}

func (v *view) ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) error {
	return gateway.ApplyLimits(ctx, v, limits)
}
