package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
	"pennywise/internal/offline"
)

func userCtx(id string) context.Context {
	return auth.WithUser(context.Background(), id)
}

func expense(cents int64, date string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{Kind: core.KindExpense, Category: "Food", Amount: core.Cents(cents), Date: d, Source: core.AccountBank, Destination: core.AccountWallet}
}

func TestRequiresCaller(t *testing.T) {
	s := New()
	_, err := s.ListTransactions(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	_, err = s.GetBalances(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestTransactionsCRUD(t *testing.T) {
	s := New()
	ctx := userCtx("u1")

	a, err := s.AddTransaction(ctx, expense(100, "2024-05-01"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, core.Account(""), a.Destination, "destination must be cleared on expenses")

	b, err := s.AddTransaction(ctx, expense(200, "2024-05-03"))
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest date first")

	b.Amount = core.Cents(250)
	_, err = s.UpdateTransaction(ctx, b)
	require.NoError(t, err)
	got, err := s.GetTransaction(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Cents(250), got.Amount)

	between, err := s.ListTransactionsBetween(ctx, core.NewDate(2024, 5, 2), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, between, 1)

	require.NoError(t, s.DeleteTransaction(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, a.ID), gateway.ErrNotFound)

	// other users see nothing
	others, err := s.ListTransactions(userCtx("u2"))
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestBalancesCreatedWithZeros(t *testing.T) {
	s := New()
	ctx := userCtx("u1")
	b, err := s.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.AccountBalances{}, b)

	_, err = s.UpdateBalances(ctx, core.AccountBalances{Bank: core.Cents(5), Wallet: core.Cents(7)})
	require.NoError(t, err)
	b, _ = s.GetBalances(ctx)
	assert.Equal(t, core.Cents(7), b.Wallet)
}

func TestLimits(t *testing.T) {
	s := New()
	ctx := userCtx("u1")
	_, err := s.AddLimit(ctx, core.ExpenseLimit{Category: "Food", Limit: core.Cents(100), Month: "2024-04"})
	require.NoError(t, err)
	_, err = s.AddLimit(ctx, core.ExpenseLimit{Category: "Food", Limit: core.Cents(100), Month: "2024-04"})
	assert.ErrorIs(t, err, gateway.ErrConflict)

	first, err := s.UpsertLimit(ctx, core.ExpenseLimit{Category: "Food", Limit: core.Cents(300), Month: "2024-05"})
	require.NoError(t, err)
	second, err := s.UpsertLimit(ctx, core.ExpenseLimit{Category: "Food", Limit: core.Cents(400), Month: "2024-05"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert keeps identity of (category, month)")

	limits, err := s.ListLimits(ctx)
	require.NoError(t, err)
	require.Len(t, limits, 2)
	assert.Equal(t, "2024-05", limits[0].Month, "newest month first")

	require.NoError(t, s.ReplaceLimits(ctx, nil))
	limits, _ = s.ListLimits(ctx)
	assert.Empty(t, limits)
}

func TestInTxRollsBack(t *testing.T) {
	s := New()
	ctx := userCtx("u1")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx gateway.Store) error {
		if _, err := tx.AddTransaction(ctx, expense(100, "2024-05-01")); err != nil {
			return err
		}
		if _, err := tx.UpdateBalances(ctx, core.AccountBalances{Bank: core.Cents(-100)}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, _ := s.ListTransactions(ctx)
	assert.Empty(t, list)
	b, _ := s.GetBalances(ctx)
	assert.Equal(t, core.AccountBalances{}, b)

	require.NoError(t, s.InTx(ctx, func(tx gateway.Store) error {
		_, err := tx.AddTransaction(ctx, expense(100, "2024-05-01"))
		return err
	}))
	list, _ = s.ListTransactions(ctx)
	assert.Len(t, list, 1)
}

func TestSnapshotsPersistAcrossStores(t *testing.T) {
	blobs, err := offline.NewFileBlobs(t.TempDir())
	require.NoError(t, err)
	snaps := offline.NewSnapshotStore(blobs, time.Hour, log.Discard())
	ctx := userCtx("u1")

	first := NewWithSnapshots(snaps, log.Discard())
	_, err = first.AddTransaction(ctx, expense(100, "2024-05-01"))
	require.NoError(t, err)
	_, err = first.UpdateBalances(ctx, core.AccountBalances{Bank: core.Cents(-100)})
	require.NoError(t, err)

	second := NewWithSnapshots(snaps, log.Discard())
	list, err := second.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	b, err := second.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Cents(-100), b.Bank)
}
