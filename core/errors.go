package core

import "errors"

// Error kinds surfaced by engine and registry operations. Callers match them
// with errors.Is; operations that fail leave all auction state unchanged.
var (
	// ErrAuctionClosed is returned when an operation requires the auction
	// to still be open.
	ErrAuctionClosed = errors.New("auction closed")

	// ErrAuctionOpen is returned when an operation requires the auction to
	// have closed (e.g. reading the settlement).
	ErrAuctionOpen = errors.New("auction still open")

	// ErrBidTooLow is returned when a single bid is below the minimum bid.
	ErrBidTooLow = errors.New("bid below minimum")

	// ErrAlreadyHighestBidder is returned when the current leader attempts
	// to bid again.
	ErrAlreadyHighestBidder = errors.New("already the highest bidder")

	// ErrNothingToWithdraw is returned when the caller has no pending return.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")

	// ErrCannotWithdrawAsHighestBidder is returned when the current or
	// final highest bidder attempts to withdraw their locked contribution.
	ErrCannotWithdrawAsHighestBidder = errors.New("highest bidder cannot withdraw")

	// ErrDeadlineNotReached is returned when a manual close is attempted
	// before the auction deadline.
	ErrDeadlineNotReached = errors.New("deadline not reached")

	// ErrNotBeneficiary is returned when close or updateBeneficiary is
	// attempted by anyone other than the current beneficiary.
	ErrNotBeneficiary = errors.New("caller is not the beneficiary")

	// ErrTransferFailure wraps vault failures. The ledger debit (if any) has
	// been rolled back by the time this error is returned.
	ErrTransferFailure = errors.New("funds transfer failed")

	// ErrAlreadyMinted is returned when the prize is minted a second time.
	ErrAlreadyMinted = errors.New("prize already minted")

	// ErrNotOwner is returned when a prize transfer is attempted by anyone
	// other than the current owner.
	ErrNotOwner = errors.New("caller does not own the prize")
)
