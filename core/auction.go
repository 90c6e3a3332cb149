package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine runs a single irreversible English auction for the one prize unit.
// It owns the cumulative-contribution ledger, the highest-bidder tracking and
// the closing state machine. Every operation is atomic under one mutex:
// precondition checks and state mutation never interleave across calls, so
// the two closing triggers (price cap inside Bid, beneficiary close after the
// deadline) are mutually exclusive by construction.
type Engine struct {
	mu sync.Mutex

	id    string
	cfg   Config
	clock Clock
	vault Vault
	prize *PrizeRegistry

	beneficiary string
	deadline    time.Time

	leader     string
	hasLeader  bool
	highestBid decimal.Decimal
	ledger     map[string]decimal.Decimal

	closed   bool
	closedAt time.Time

	// paidTo records the beneficiary at the moment of closing; later
	// beneficiary updates are cosmetic and must not rewrite the settlement.
	paidTo string
}

// NewEngine validates cfg, mints the prize to the new engine and opens the
// auction. The deadline is clock.Now() + cfg.Duration.
func NewEngine(cfg Config, clock Clock, vault Vault) (*Engine, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if vault == nil {
		return nil, fmt.Errorf("vault is required")
	}
	if !cfg.MinBid.IsPositive() {
		return nil, fmt.Errorf("min bid must be positive, got %s", cfg.MinBid)
	}
	if cfg.MaxBid.LessThan(cfg.MinBid) {
		return nil, fmt.Errorf("max bid %s below min bid %s", cfg.MaxBid, cfg.MinBid)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", cfg.Duration)
	}
	if cfg.Beneficiary == "" {
		return nil, fmt.Errorf("beneficiary identity is required")
	}

	e := &Engine{
		id:          uuid.NewString(),
		cfg:         cfg,
		clock:       clock,
		vault:       vault,
		prize:       NewPrizeRegistry(),
		beneficiary: cfg.Beneficiary,
		deadline:    clock.Now().Add(cfg.Duration),
		ledger:      make(map[string]decimal.Decimal),
	}

	if err := e.prize.MintTo(e.id); err != nil {
		return nil, fmt.Errorf("mint prize: %w", err)
	}

	return e, nil
}

// Bid records a deposit of amount by caller. The caller's cumulative
// contribution grows by amount; if the new total exceeds the current highest
// bid the caller becomes the provisional winner. A non-leading deposit is
// still captured and remains withdrawable. Reaching MaxBid closes the
// auction before Bid returns.
func (e *Engine) Bid(caller string, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrAuctionClosed
	}
	if amount.LessThan(e.cfg.MinBid) {
		return fmt.Errorf("%w: %s < %s", ErrBidTooLow, amount, e.cfg.MinBid)
	}
	if e.hasLeader && caller == e.leader {
		return ErrAlreadyHighestBidder
	}

	// Capture funds before touching the ledger so a failed capture mutates
	// nothing.
	if err := e.vault.Receive(caller, amount); err != nil {
		return fmt.Errorf("%w: capture %s from %s: %v", ErrTransferFailure, amount, caller, err)
	}

	newTotal := e.ledger[caller].Add(amount)
	e.ledger[caller] = newTotal

	if newTotal.GreaterThan(e.highestBid) {
		e.leader = caller
		e.hasLeader = true
		e.highestBid = newTotal
	}

	if newTotal.GreaterThanOrEqual(e.cfg.MaxBid) {
		return e.closeLocked()
	}
	return nil
}

// Withdraw returns the caller's entire pending return. The ledger entry is
// zeroed before the vault payment is initiated; on payment failure the debit
// is restored and ErrTransferFailure surfaced, so every balance stays fully
// backed either way. Losers may withdraw before or after closing.
func (e *Engine) Withdraw(caller string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasLeader && caller == e.leader {
		return decimal.Zero, ErrCannotWithdrawAsHighestBidder
	}
	amount := e.ledger[caller]
	if !amount.IsPositive() {
		return decimal.Zero, ErrNothingToWithdraw
	}

	e.ledger[caller] = decimal.Zero
	if err := e.vault.Pay(caller, amount); err != nil {
		e.ledger[caller] = amount
		return decimal.Zero, fmt.Errorf("%w: return %s to %s: %v", ErrTransferFailure, amount, caller, err)
	}
	return amount, nil
}

// Close is the manual closing path. Only the current beneficiary may close,
// and only once the deadline has passed.
func (e *Engine) Close(caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrAuctionClosed
	}
	if caller != e.beneficiary {
		return ErrNotBeneficiary
	}
	if e.clock.Now().Before(e.deadline) {
		return fmt.Errorf("%w: deadline %s", ErrDeadlineNotReached, e.deadline.Format(time.RFC3339))
	}
	return e.closeLocked()
}

// closeLocked performs the one-time closing action: pay the winning funds to
// the beneficiary, transfer the prize, mark the auction closed. Called with
// the engine lock held, from Bid (price cap) or Close (deadline). If the
// payout fails the auction stays open and the close may be retriggered; the
// losers' balances are untouched either way. An auction closed without any
// bid pays nothing and returns the prize to the beneficiary.
func (e *Engine) closeLocked() error {
	if e.hasLeader && e.highestBid.IsPositive() {
		if err := e.vault.Pay(e.beneficiary, e.highestBid); err != nil {
			return fmt.Errorf("%w: pay out %s to beneficiary %s: %v", ErrTransferFailure, e.highestBid, e.beneficiary, err)
		}
	}

	newOwner := e.beneficiary
	if e.hasLeader {
		newOwner = e.leader
	}
	if err := e.prize.TransferTo(e.id, newOwner); err != nil {
		return fmt.Errorf("transfer prize to %s: %w", newOwner, err)
	}

	e.closed = true
	e.closedAt = e.clock.Now()
	e.paidTo = e.beneficiary
	return nil
}

// UpdateBeneficiary reassigns the beneficiary. Only the current beneficiary
// may do so. Allowed after closing as well; at that point it only changes
// who may appear in future queries, the funds are already disbursed.
func (e *Engine) UpdateBeneficiary(caller, newBeneficiary string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.beneficiary {
		return ErrNotBeneficiary
	}
	if newBeneficiary == "" {
		return fmt.Errorf("new beneficiary identity is required")
	}
	e.beneficiary = newBeneficiary
	return nil
}

// ID returns the auction instance identity. The engine holds the prize under
// this identity until closing.
func (e *Engine) ID() string {
	return e.id
}

func (e *Engine) Beneficiary() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beneficiary
}

// HighestBidder returns the provisional (or, once closed, final) winner.
// The second return is false before any bid has been placed.
func (e *Engine) HighestBidder() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leader, e.hasLeader
}

func (e *Engine) HighestBid() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highestBid
}

func (e *Engine) MinBid() decimal.Decimal { return e.cfg.MinBid }

func (e *Engine) MaxBid() decimal.Decimal { return e.cfg.MaxBid }

func (e *Engine) Deadline() time.Time { return e.deadline }

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// PendingReturn reports the withdrawable balance of bidder: their full
// cumulative contribution while they are not leading, zero while they are.
func (e *Engine) PendingReturn(bidder string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasLeader && bidder == e.leader {
		return decimal.Zero
	}
	return e.ledger[bidder]
}

// PrizeOwner returns the current owner of the prize unit: the engine's own
// ID while the auction is open, the winner (or beneficiary, if there were no
// bids) afterwards.
func (e *Engine) PrizeOwner() string {
	return e.prize.OwnerOf()
}

// Settlement returns the outcome snapshot of a closed auction, including a
// copy of the final ledger. Fails with ErrAuctionOpen until closing.
func (e *Engine) Settlement() (*Settlement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		return nil, ErrAuctionOpen
	}

	ledger := make(map[string]decimal.Decimal, len(e.ledger))
	for bidder, total := range e.ledger {
		ledger[bidder] = total
	}

	st := &Settlement{
		AuctionID:   e.id,
		Beneficiary: e.paidTo,
		ClosedAt:    e.closedAt,
		Ledger:      ledger,
	}
	if e.hasLeader {
		st.Winner = e.leader
		st.WinningBid = e.highestBid
	}
	return st, nil
}
