package main

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryVault is an in-process funds-custody backend. External accounts are
// credited via Fund; Receive moves account balance into auction custody and
// Pay moves custody back out. Every locked or withdrawable ledger balance in
// the engine is backed one-to-one by the custody total.
type MemoryVault struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	custody  decimal.Decimal
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		balances: make(map[string]decimal.Decimal),
	}
}

// Fund credits an external account. Development money-in; a production
// deployment replaces MemoryVault with a real custody backend.
func (v *MemoryVault) Fund(account string, amount decimal.Decimal) error {
	if account == "" {
		return fmt.Errorf("account identity is required")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("fund amount must be positive, got %s", amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.balances[account] = v.balances[account].Add(amount)
	return nil
}

// Receive captures amount from an external account into auction custody.
func (v *MemoryVault) Receive(from string, amount decimal.Decimal) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	balance := v.balances[from]
	if balance.LessThan(amount) {
		return fmt.Errorf("insufficient funds: %s holds %s, need %s", from, balance, amount)
	}
	v.balances[from] = balance.Sub(amount)
	v.custody = v.custody.Add(amount)
	return nil
}

// Pay releases amount from auction custody to an external account.
func (v *MemoryVault) Pay(to string, amount decimal.Decimal) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.custody.LessThan(amount) {
		return fmt.Errorf("custody underflow: holds %s, need %s", v.custody, amount)
	}
	v.custody = v.custody.Sub(amount)
	v.balances[to] = v.balances[to].Add(amount)
	return nil
}

// Balance reports an external account's spendable balance.
func (v *MemoryVault) Balance(account string) decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.balances[account]
}

// Custody reports the total funds currently held by the auction.
func (v *MemoryVault) Custody() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.custody
}
