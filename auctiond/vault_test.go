package main

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestMemoryVault_Fund(t *testing.T) {
	vault := NewMemoryVault()

	check.Nil(t, vault.Fund("alice", units(3)))
	check.Nil(t, vault.Fund("alice", units(2)))
	check.True(t, vault.Balance("alice").Equal(units(5)))
}

func TestMemoryVault_FundValidation(t *testing.T) {
	vault := NewMemoryVault()

	check.NotNil(t, vault.Fund("", units(1)))
	check.NotNil(t, vault.Fund("alice", decimal.Zero))
	check.NotNil(t, vault.Fund("alice", units(-1)))
	check.True(t, vault.Balance("alice").IsZero())
}

func TestMemoryVault_Receive(t *testing.T) {
	vault := NewMemoryVault()
	check.Nil(t, vault.Fund("alice", units(5)))

	check.Nil(t, vault.Receive("alice", units(3)))
	check.True(t, vault.Balance("alice").Equal(units(2)))
	check.True(t, vault.Custody().Equal(units(3)))
}

func TestMemoryVault_ReceiveInsufficientFunds(t *testing.T) {
	vault := NewMemoryVault()
	check.Nil(t, vault.Fund("alice", units(2)))

	err := vault.Receive("alice", units(3))
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "insufficient funds"))

	// Nothing moved
	check.True(t, vault.Balance("alice").Equal(units(2)))
	check.True(t, vault.Custody().IsZero())
}

func TestMemoryVault_Pay(t *testing.T) {
	vault := NewMemoryVault()
	check.Nil(t, vault.Fund("alice", units(5)))
	check.Nil(t, vault.Receive("alice", units(5)))

	check.Nil(t, vault.Pay("beneficiary", units(5)))
	check.True(t, vault.Balance("beneficiary").Equal(units(5)))
	check.True(t, vault.Custody().IsZero())
}

func TestMemoryVault_PayCustodyUnderflow(t *testing.T) {
	vault := NewMemoryVault()
	check.Nil(t, vault.Fund("alice", units(5)))
	check.Nil(t, vault.Receive("alice", units(2)))

	err := vault.Pay("beneficiary", units(3))
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "custody underflow"))
	check.True(t, vault.Custody().Equal(units(2)))
	check.True(t, vault.Balance("beneficiary").IsZero())
}
