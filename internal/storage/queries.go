package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/gateway"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL of the three tables. Statements are written with ?
// placeholders and rebound for the dialect.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (q *Queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// TransactionRow is the persisted shape of a transaction.
type TransactionRow struct {
	ID          string
	UserID      string
	AmountCents int64
	Category    string
	Description string
	Date        string
	Type        string
	Source      sql.NullString
	Destination sql.NullString
}

func toRow(userID string, t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		UserID:      userID,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		Type:        string(t.Kind),
		Source:      nullAccount(t.Source),
		Destination: nullAccount(t.Destination),
	}
}

func nullAccount(a core.Account) sql.NullString {
	if a == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(a), Valid: true}
}

func (r TransactionRow) toDomain() (core.Transaction, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          r.ID,
		Amount:      core.Cents(r.AmountCents),
		Category:    r.Category,
		Description: r.Description,
		Date:        d,
		Kind:        core.Kind(r.Type),
	}
	if r.Source.Valid {
		t.Source = core.Account(r.Source.String)
	}
	if r.Destination.Valid {
		t.Destination = core.Account(r.Destination.String)
	}
	return t, nil
}

const transactionColumns = `id, user_id, amount_cents, category, description, date, type, source, destination`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.AmountCents, &r.Category, &r.Description, &r.Date, &r.Type, &r.Source, &r.Destination); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", r.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := q.query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (q *Queries) ListTransactionsBetween(ctx context.Context, userID, from, to string) ([]core.Transaction, error) {
	rows, err := q.query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date DESC, created_at DESC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	rows, err := q.query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	list, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(list) == 0 {
		return core.Transaction{}, gateway.ErrNotFound
	}
	return list[0], nil
}

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.AmountCents, r.Category, r.Description, r.Date, r.Type, r.Source, r.Destination)
	return err
}

// UpdateTransaction reports whether a row was changed.
func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (bool, error) {
	res, err := q.exec(ctx, `UPDATE transactions
		SET amount_cents = ?, category = ?, description = ?, date = ?, type = ?, source = ?, destination = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id = ?`,
		r.AmountCents, r.Category, r.Description, r.Date, r.Type, r.Source, r.Destination, r.UserID, r.ID)
	return affected(res, err)
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (bool, error) {
	res, err := q.exec(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	return affected(res, err)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetBalances returns sql.ErrNoRows when the user has no balance row.
func (q *Queries) GetBalances(ctx context.Context, userID string) (core.AccountBalances, error) {
	var bank, wallet int64
	err := q.queryRow(ctx, `SELECT bank_cents, wallet_cents FROM account_balances WHERE user_id = ?`, userID).Scan(&bank, &wallet)
	if err != nil {
		return core.AccountBalances{}, err
	}
	return core.AccountBalances{Bank: core.Cents(bank), Wallet: core.Cents(wallet)}, nil
}

// InsertBalancesIfMissing creates the balance row unless one exists.
func (q *Queries) InsertBalancesIfMissing(ctx context.Context, id, userID string, b core.AccountBalances) error {
	_, err := q.exec(ctx, `INSERT INTO account_balances (id, user_id, bank_cents, wallet_cents)
		VALUES (?, ?, ?, ?) ON CONFLICT (user_id) DO NOTHING`, id, userID, b.Bank.Cents, b.Wallet.Cents)
	return err
}

func (q *Queries) UpsertBalances(ctx context.Context, id, userID string, b core.AccountBalances) error {
	_, err := q.exec(ctx, `INSERT INTO account_balances (id, user_id, bank_cents, wallet_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET bank_cents = excluded.bank_cents, wallet_cents = excluded.wallet_cents, updated_at = CURRENT_TIMESTAMP`,
		id, userID, b.Bank.Cents, b.Wallet.Cents)
	return err
}

func (q *Queries) ListLimits(ctx context.Context, userID string) ([]core.ExpenseLimit, error) {
	rows, err := q.query(ctx, `SELECT id, category, limit_cents, month FROM expense_limits
		WHERE user_id = ? ORDER BY month DESC, category`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.ExpenseLimit
	for rows.Next() {
		var (
			l     core.ExpenseLimit
			cents int64
		)
		if err := rows.Scan(&l.ID, &l.Category, &cents, &l.Month); err != nil {
			return nil, fmt.Errorf("scan limit: %w", err)
		}
		l.Limit = core.Cents(cents)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (q *Queries) InsertLimit(ctx context.Context, id, userID string, l core.ExpenseLimit) error {
	_, err := q.exec(ctx, `INSERT INTO expense_limits (id, user_id, category, limit_cents, month)
		VALUES (?, ?, ?, ?, ?)`, id, userID, l.Category, l.Limit.Cents, l.Month)
	return err
}

// UpsertLimit returns the id of the row now holding (category, month).
func (q *Queries) UpsertLimit(ctx context.Context, id, userID string, l core.ExpenseLimit) (string, error) {
	var stored string
	err := q.queryRow(ctx, `INSERT INTO expense_limits (id, user_id, category, limit_cents, month)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category, month) DO UPDATE SET limit_cents = excluded.limit_cents, updated_at = CURRENT_TIMESTAMP
		RETURNING id`, id, userID, l.Category, l.Limit.Cents, l.Month).Scan(&stored)
	return stored, err
}

func (q *Queries) DeleteLimit(ctx context.Context, userID, category, month string) error {
	_, err := q.exec(ctx, `DELETE FROM expense_limits WHERE user_id = ? AND category = ? AND month = ?`, userID, category, month)
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
