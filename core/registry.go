package core

import "sync"

// PrizeRegistry tracks ownership of the single indivisible prize unit.
// Total supply is exactly one: minted once at engine construction, owned by
// the engine until closing, then transferred to the winner (or back to the
// beneficiary if the auction closed with no bids).
type PrizeRegistry struct {
	mu     sync.Mutex
	minted bool
	owner  string
}

func NewPrizeRegistry() *PrizeRegistry {
	return &PrizeRegistry{}
}

// MintTo creates the one unit of supply owned by owner. Callable exactly
// once; a second call fails with ErrAlreadyMinted.
func (r *PrizeRegistry) MintTo(owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.minted {
		return ErrAlreadyMinted
	}
	r.minted = true
	r.owner = owner
	return nil
}

// TransferTo reassigns ownership from caller to newOwner. Fails with
// ErrNotOwner unless caller is the current owner.
func (r *PrizeRegistry) TransferTo(caller, newOwner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.minted || caller != r.owner {
		return ErrNotOwner
	}
	r.owner = newOwner
	return nil
}

// OwnerOf returns the current owner identity, or empty before minting.
func (r *PrizeRegistry) OwnerOf() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.owner
}
