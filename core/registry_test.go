package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestPrizeRegistry_MintTo(t *testing.T) {
	registry := NewPrizeRegistry()
	check.Equal(t, "", registry.OwnerOf())

	check.Nil(t, registry.MintTo("auction-1"))
	check.Equal(t, "auction-1", registry.OwnerOf())
}

func TestPrizeRegistry_MintTwice(t *testing.T) {
	registry := NewPrizeRegistry()
	check.Nil(t, registry.MintTo("auction-1"))

	err := registry.MintTo("auction-2")
	check.True(t, errors.Is(err, ErrAlreadyMinted))
	check.Equal(t, "auction-1", registry.OwnerOf())
}

func TestPrizeRegistry_TransferTo(t *testing.T) {
	registry := NewPrizeRegistry()
	check.Nil(t, registry.MintTo("auction-1"))

	check.Nil(t, registry.TransferTo("auction-1", "winner"))
	check.Equal(t, "winner", registry.OwnerOf())
}

func TestPrizeRegistry_TransferByNonOwner(t *testing.T) {
	registry := NewPrizeRegistry()
	check.Nil(t, registry.MintTo("auction-1"))

	err := registry.TransferTo("mallory", "mallory")
	check.True(t, errors.Is(err, ErrNotOwner))
	check.Equal(t, "auction-1", registry.OwnerOf())
}

func TestPrizeRegistry_TransferBeforeMint(t *testing.T) {
	registry := NewPrizeRegistry()

	err := registry.TransferTo("anyone", "anyone")
	check.True(t, errors.Is(err, ErrNotOwner))
}

func TestPrizeRegistry_OldOwnerLosesControl(t *testing.T) {
	registry := NewPrizeRegistry()
	check.Nil(t, registry.MintTo("auction-1"))
	check.Nil(t, registry.TransferTo("auction-1", "winner"))

	err := registry.TransferTo("auction-1", "other")
	check.True(t, errors.Is(err, ErrNotOwner))
	check.Equal(t, "winner", registry.OwnerOf())
}
