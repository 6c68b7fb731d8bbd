package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAndRevert(t *testing.T) {
	start := AccountBalances{Bank: Cents(10000), Wallet: Cents(5000)}

	expense := Transaction{Kind: KindExpense, Amount: Cents(3000), Source: AccountWallet}
	assert.Equal(t, AccountBalances{Bank: Cents(10000), Wallet: Cents(2000)}, start.Apply(expense))
	assert.Equal(t, AccountBalances{Bank: Cents(10000), Wallet: Cents(8000)}, start.Revert(expense))

	income := Transaction{Kind: KindIncome, Amount: Cents(3000), Destination: AccountBank}
	assert.Equal(t, AccountBalances{Bank: Cents(13000), Wallet: Cents(5000)}, start.Apply(income))
	assert.Equal(t, AccountBalances{Bank: Cents(7000), Wallet: Cents(5000)}, start.Revert(income))

	assert.Equal(t, start, start.Apply(expense).Revert(expense))
}

func TestRebalanceMovesAccount(t *testing.T) {
	start := AccountBalances{Bank: Cents(10000), Wallet: Cents(10000)}
	old := Transaction{Kind: KindExpense, Amount: Cents(5000), Source: AccountBank}
	moved := old
	moved.Source = AccountWallet

	got := start.Rebalance(old, moved)
	assert.Equal(t, Cents(15000), got.Bank)
	assert.Equal(t, Cents(5000), got.Wallet)
	assert.Equal(t, start.Total(), got.Total())

	// applying in the other order gives the same result
	assert.Equal(t, got, start.Apply(moved).Revert(old))
}

func TestRebalanceKindChange(t *testing.T) {
	start := AccountBalances{}
	old := Transaction{Kind: KindExpense, Amount: Cents(100), Source: AccountBank}
	updated := Transaction{Kind: KindIncome, Amount: Cents(100), Destination: AccountBank}
	assert.Equal(t, AccountBalances{Bank: Cents(200)}, start.Rebalance(old, updated))
}

func TestBalanceWithoutAccountIsUnchanged(t *testing.T) {
	start := AccountBalances{Bank: Cents(1)}
	assert.Equal(t, start, start.Apply(Transaction{Kind: KindExpense, Amount: Cents(50)}))
}
