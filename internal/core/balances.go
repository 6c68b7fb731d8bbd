package core

// AccountBalances is the running total of both accounts for one user.
// A user without stored balances has zero in both.
type AccountBalances struct {
	Bank   Money `json:"bank"`
	Wallet Money `json:"wallet"`
}

// Delta is the signed change a transaction makes to its account: expenses
// subtract from the source, income adds to the destination.
func Delta(t Transaction) Money {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Apply returns the balances after t has been recorded.
func (b AccountBalances) Apply(t Transaction) AccountBalances {
	return b.adjust(t.Account(), Delta(t))
}

// Revert returns the balances with t's effect undone.
func (b AccountBalances) Revert(t Transaction) AccountBalances {
	return b.adjust(t.Account(), Delta(t).Neg())
}

// Rebalance reverses old and then applies updated, the arithmetic for an edit.
func (b AccountBalances) Rebalance(old, updated Transaction) AccountBalances {
	return b.Revert(old).Apply(updated)
}

func (b AccountBalances) adjust(a Account, delta Money) AccountBalances {
	switch a {
	case AccountBank:
		b.Bank = b.Bank.Add(delta)
	case AccountWallet:
		b.Wallet = b.Wallet.Add(delta)
	}
	return b
}

// Get returns the balance of a single account.
func (b AccountBalances) Get(a Account) Money {
	switch a {
	case AccountBank:
		return b.Bank
	case AccountWallet:
		return b.Wallet
	}
	return Money{}
}

// Total is the sum over both accounts.
func (b AccountBalances) Total() Money {
	return b.Bank.Add(b.Wallet)
}
