package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
)

// Repository is the SQL gateway. The same code serves the embedded SQLite
// database and a hosted Postgres one.
type Repository struct {
	db      *sql.DB
	queries *Queries
	dialect Dialect
	logger  *log.Logger
}

var _ gateway.Gateway = (*Repository)(nil)

// Open connects to dsn, applies pending migrations and returns a repository.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	db, err := Connect(ctx, dialect, dsn, defaultRetryDelay)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewRepository(db, dialect, logger), nil
}

// NewRepository wraps an already migrated database.
func NewRepository(db *sql.DB, dialect Dialect, logger *log.Logger) *Repository {
	return &Repository{
		db:      db,
		queries: New(db, dialect),
		dialect: dialect,
		logger:  logger.WithComponent(log.ComponentStorage),
	}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) DB() *sql.DB { return r.db }

func (r *Repository) Dialect() Dialect { return r.dialect }

// InTx runs fn inside one database transaction, rolled back when fn fails.
func (r *Repository) InTx(ctx context.Context, fn func(tx gateway.Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.store(r.queries.WithTx(tx))); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.ErrorContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) store(q *Queries) *sqlStore {
	return &sqlStore{q: q, logger: r.logger}
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.store(r.queries).ListTransactions(ctx)
}

func (r *Repository) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return r.store(r.queries).ListTransactionsBetween(ctx, from, to)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return r.store(r.queries).GetTransaction(ctx, id)
}

func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.store(r.queries).AddTransaction(ctx, t)
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.store(r.queries).UpdateTransaction(ctx, t)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.store(r.queries).DeleteTransaction(ctx, id)
}

func (r *Repository) GetBalances(ctx context.Context) (core.AccountBalances, error) {
	return r.store(r.queries).GetBalances(ctx)
}

func (r *Repository) CreateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	return r.store(r.queries).CreateBalances(ctx, b)
}

func (r *Repository) UpdateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	return r.store(r.queries).UpdateBalances(ctx, b)
}

func (r *Repository) ListLimits(ctx context.Context) ([]core.ExpenseLimit, error) {
	return r.store(r.queries).ListLimits(ctx)
}

func (r *Repository) AddLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	return r.store(r.queries).AddLimit(ctx, l)
}

func (r *Repository) UpsertLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	return r.store(r.queries).UpsertLimit(ctx, l)
}

func (r *Repository) DeleteLimit(ctx context.Context, category, month string) error {
	return r.store(r.queries).DeleteLimit(ctx, category, month)
}

// ReplaceLimits reconciles the stored limits with limits in one transaction.
func (r *Repository) ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) error {
	return r.InTx(ctx, func(tx gateway.Store) error {
		return tx.ReplaceLimits(ctx, limits)
	})
}

// sqlStore implements gateway.Store over a Queries bound to the database or
// to an open transaction.
type sqlStore struct {
	q      *Queries
	logger *log.Logger
}

func (s *sqlStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.q.ListTransactions(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

func (s *sqlStore) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.q.ListTransactionsBetween(ctx, uid, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions between %s and %s: %w", from, to, err)
	}
	return list, nil
}

func (s *sqlStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	t, err := s.q.GetTransaction(ctx, uid, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (s *sqlStore) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	t = t.Normalize()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := s.q.InsertTransaction(ctx, toRow(uid, t)); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "Transaction inserted",
		append([]any{log.FieldUserID, uid}, log.TransactionAttrs(t.ID, string(t.Kind), t.Category, string(t.Account()), t.Amount.Cents)...)...)
	return t, nil
}

func (s *sqlStore) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	t = t.Normalize()
	ok, err := s.q.UpdateTransaction(ctx, toRow(uid, t))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", t.ID, gateway.ErrNotFound)
	}
	return t, nil
}

func (s *sqlStore) DeleteTransaction(ctx context.Context, id string) error {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ok, err := s.q.DeleteTransaction(ctx, uid, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("delete transaction %s: %w", id, gateway.ErrNotFound)
	}
	return nil
}

func (s *sqlStore) GetBalances(ctx context.Context) (core.AccountBalances, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.AccountBalances{}, err
	}
	b, err := s.q.GetBalances(ctx, uid)
	if isNoRows(err) {
		return s.CreateBalances(ctx, core.AccountBalances{})
	}
	if err != nil {
		return core.AccountBalances{}, fmt.Errorf("get balances: %w", err)
	}
	return b, nil
}

func (s *sqlStore) CreateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.AccountBalances{}, err
	}
	if err := s.q.InsertBalancesIfMissing(ctx, uuid.NewString(), uid, b); err != nil {
		return core.AccountBalances{}, fmt.Errorf("create balances: %w", err)
	}
	stored, err := s.q.GetBalances(ctx, uid)
	if err != nil {
		return core.AccountBalances{}, fmt.Errorf("create balances: %w", err)
	}
	return stored, nil
}

func (s *sqlStore) UpdateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.AccountBalances{}, err
	}
	if err := s.q.UpsertBalances(ctx, uuid.NewString(), uid, b); err != nil {
		return core.AccountBalances{}, fmt.Errorf("update balances: %w", err)
	}
	return b, nil
}

func (s *sqlStore) ListLimits(ctx context.Context) ([]core.ExpenseLimit, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	limits, err := s.q.ListLimits(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list limits: %w", err)
	}
	return limits, nil
}

func (s *sqlStore) AddLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseLimit{}, err
	}
	l.ID = uuid.NewString()
	if err := s.q.InsertLimit(ctx, l.ID, uid, l); err != nil {
		if isUniqueViolation(err) {
			return core.ExpenseLimit{}, fmt.Errorf("add limit %s/%s: %w", l.Month, l.Category, gateway.ErrConflict)
		}
		return core.ExpenseLimit{}, fmt.Errorf("add limit: %w", err)
	}
	return l, nil
}

func (s *sqlStore) UpsertLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseLimit{}, err
	}
	id, err := s.q.UpsertLimit(ctx, uuid.NewString(), uid, l)
	if err != nil {
		return core.ExpenseLimit{}, fmt.Errorf("upsert limit %s/%s: %w", l.Month, l.Category, err)
	}
	l.ID = id
	return l, nil
}

func (s *sqlStore) DeleteLimit(ctx context.Context, category, month string) error {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	if err := s.q.DeleteLimit(ctx, uid, category, month); err != nil {
		return fmt.Errorf("delete limit %s/%s: %w", month, category, err)
	}
	return nil
}

// ReplaceLimits on a sqlStore assumes it is already inside a transaction.
func (s *sqlStore) ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) error {
	if _, err := auth.UserID(ctx); err != nil {
		return err
	}
	return gateway.ApplyLimits(ctx, s, limits)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
