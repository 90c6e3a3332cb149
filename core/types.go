package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config carries the auction parameters fixed at construction.
type Config struct {
	// MinBid is the minimum amount accepted for any single bid.
	MinBid decimal.Decimal

	// MaxBid closes the auction immediately once a bidder's cumulative
	// contribution reaches or exceeds it.
	MaxBid decimal.Decimal

	// Duration is added to the clock's current time at construction to
	// derive the deadline after which the beneficiary may close manually.
	Duration time.Duration

	// Beneficiary is the identity entitled to the winning funds. It may be
	// reassigned later, but only by the current beneficiary.
	Beneficiary string
}

// Clock provides the current time to the engine. Injected so that deadline
// behavior is testable without waiting on wall-clock time.
type Clock interface {
	Now() time.Time
}

// Vault is the funds-custody capability. Receive captures a bid amount from
// a bidder into auction custody; Pay releases custody funds to a recipient.
// A Pay failure must leave the recipient uncredited so the engine can roll
// back the corresponding ledger debit.
type Vault interface {
	Receive(from string, amount decimal.Decimal) error
	Pay(to string, amount decimal.Decimal) error
}

// Settlement is the immutable outcome snapshot of a closed auction.
type Settlement struct {
	// AuctionID identifies the auction instance.
	AuctionID string

	// Winner is the final highest bidder, or empty if the auction closed
	// without any bid ever placed.
	Winner string

	// WinningBid is the amount paid to the beneficiary (zero if no winner).
	WinningBid decimal.Decimal

	// Beneficiary is the identity the winning funds were paid to.
	Beneficiary string

	// ClosedAt is the engine clock reading at the moment of closing.
	ClosedAt time.Time

	// Ledger is a copy of the final cumulative-contribution ledger,
	// including the winner's locked amount and every pending return.
	Ledger map[string]decimal.Decimal
}
