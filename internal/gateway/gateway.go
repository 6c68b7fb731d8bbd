// Package gateway defines the persistence ports used by the ledger. Every
// operation is scoped to the caller found in the context (see auth.UserID)
// and fails with auth.ErrNotAuthenticated when there is none.
package gateway

import (
	"context"
	"errors"

	"pennywise/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Ports for outbound adapters.
type (
	TransactionStore interface {
		// ListTransactions returns every transaction of the caller, newest date first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ListTransactionsBetween returns the transactions dated in [from, to].
		ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		// AddTransaction persists t and returns it with its assigned id.
		AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// UpdateTransaction fully replaces the stored transaction with t.ID.
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	BalanceStore interface {
		// GetBalances returns the caller's balances, creating zero balances
		// when none are stored yet.
		GetBalances(ctx context.Context) (core.AccountBalances, error)
		CreateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error)
		// UpdateBalances replaces both balances, creating the row if needed.
		UpdateBalances(ctx context.Context, b core.AccountBalances) (core.AccountBalances, error)
	}

	LimitStore interface {
		// ListLimits returns every limit of the caller, newest month first.
		ListLimits(ctx context.Context) ([]core.ExpenseLimit, error)
		AddLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error)
		// UpsertLimit creates or updates the limit keyed by (category, month).
		UpsertLimit(ctx context.Context, l core.ExpenseLimit) (core.ExpenseLimit, error)
		DeleteLimit(ctx context.Context, category, month string) error
		// ReplaceLimits makes the caller's stored limits equal to limits.
		ReplaceLimits(ctx context.Context, limits []core.ExpenseLimit) error
	}

	Store interface {
		TransactionStore
		BalanceStore
		LimitStore
	}

	// Gateway is a Store that can group several writes into one unit of
	// work. fn receives a Store bound to the unit of work; when fn returns an
	// error nothing it wrote is kept.
	Gateway interface {
		Store
		InTx(ctx context.Context, fn func(tx Store) error) error
	}
)
