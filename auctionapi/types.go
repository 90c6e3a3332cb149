// Package auctionapi defines the wire types exchanged with the auction
// service: one JSON request/response pair per operation, dispatched on the
// "type" field, plus the CBOR closing-receipt payload signed by the service.
package auctionapi

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Request type values dispatched by the server.
const (
	TypePing              = "ping"
	TypeFund              = "fund"
	TypeBid               = "bid"
	TypeWithdraw          = "withdraw"
	TypeClose             = "close"
	TypeUpdateBeneficiary = "update_beneficiary"
	TypeStatus            = "status"
	TypePendingReturn     = "pending_return"
	TypeReceipt           = "receipt"
)

// Error kinds carried in responses. Stable strings, one per engine error.
const (
	ErrKindAuctionClosed       = "auction_closed"
	ErrKindBidTooLow           = "bid_too_low"
	ErrKindAlreadyHighest      = "already_highest_bidder"
	ErrKindNothingToWithdraw   = "nothing_to_withdraw"
	ErrKindWinnerLocked        = "cannot_withdraw_as_highest_bidder"
	ErrKindDeadlineNotReached  = "deadline_not_reached"
	ErrKindNotBeneficiary      = "not_beneficiary"
	ErrKindTransferFailure     = "transfer_failure"
	ErrKindAuctionOpen         = "auction_open"
	ErrKindInvalidRequest      = "invalid_request"
	ErrKindInternal            = "internal"
)

// BidRequest deposits amount from bidder into the auction.
type BidRequest struct {
	Type   string          `json:"type"`
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
}

// FundRequest credits an external account in the service's vault so it can
// back subsequent bids. Development money-in; production deployments replace
// the vault with a real custody backend.
type FundRequest struct {
	Type    string          `json:"type"`
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// WithdrawRequest returns a losing bidder's pending return.
type WithdrawRequest struct {
	Type   string `json:"type"`
	Bidder string `json:"bidder"`
}

// CloseRequest is the beneficiary's manual close after the deadline.
type CloseRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
}

// UpdateBeneficiaryRequest reassigns the beneficiary identity.
type UpdateBeneficiaryRequest struct {
	Type           string `json:"type"`
	Caller         string `json:"caller"`
	NewBeneficiary string `json:"new_beneficiary"`
}

// PendingReturnRequest queries a bidder's withdrawable balance.
type PendingReturnRequest struct {
	Type   string `json:"type"`
	Bidder string `json:"bidder"`
}

// OpResponse is the common response envelope for mutating operations.
type OpResponse struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// WithdrawResponse reports the amount returned to the bidder.
type WithdrawResponse struct {
	OpResponse
	Amount decimal.Decimal `json:"amount"`
}

// StatusResponse is the read-only view of the auction.
type StatusResponse struct {
	Type          string          `json:"type"`
	AuctionID     string          `json:"auction_id"`
	Beneficiary   string          `json:"beneficiary"`
	HighestBidder string          `json:"highest_bidder,omitempty"`
	HighestBid    decimal.Decimal `json:"highest_bid"`
	MinBid        decimal.Decimal `json:"min_bid"`
	MaxBid        decimal.Decimal `json:"max_bid"`
	Deadline      time.Time       `json:"deadline"`
	Closed        bool            `json:"closed"`
	PrizeOwner    string          `json:"prize_owner"`
}

// PendingReturnResponse reports a bidder's withdrawable balance.
type PendingReturnResponse struct {
	Type   string          `json:"type"`
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
}

// ReceiptResponse delivers the signed closing receipt once the auction has
// closed, along with the PEM public key needed to verify it offline.
type ReceiptResponse struct {
	Type         string            `json:"type"`
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	ErrorKind    string            `json:"error_kind,omitempty"`
	Receipt      ReceiptCOSEBase64 `json:"receipt_cose_base64,omitempty"`
	PublicKeyPEM string            `json:"public_key_pem,omitempty"`
}

// ClosingReceipt is the CBOR payload of the COSE_Sign1 closing receipt. The
// full ledger stays out of the receipt; LedgerHash commits to it so a bidder
// the ledger is disclosed to can verify their balance was counted.
type ClosingReceipt struct {
	ReceiptID       string    `cbor:"receipt_id" json:"receipt_id"`
	AuctionID       string    `cbor:"auction_id" json:"auction_id"`
	Winner          string    `cbor:"winner,omitempty" json:"winner,omitempty"`
	WinningBid      string    `cbor:"winning_bid" json:"winning_bid"`
	Beneficiary     string    `cbor:"beneficiary" json:"beneficiary"`
	LedgerHash      string    `cbor:"ledger_hash" json:"ledger_hash"`
	LedgerNonce     string    `cbor:"ledger_nonce" json:"ledger_nonce"`
	SettlementHash  string    `cbor:"settlement_hash" json:"settlement_hash"`
	SettlementNonce string    `cbor:"settlement_nonce" json:"settlement_nonce"`
	ClosedAt        time.Time `cbor:"closed_at" json:"closed_at"`
	IssuedAt        time.Time `cbor:"issued_at" json:"issued_at"`
}

// ReceiptCOSE is a raw COSE_Sign1 closing receipt.
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is a standard-base64 encoded COSE_Sign1 closing receipt,
// the form carried in JSON responses.
type ReceiptCOSEBase64 string

// EncodeBase64 encodes raw COSE bytes for JSON transport.
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// Decode converts base64 back to raw COSE bytes.
func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReceiptCOSE(data), nil
}

func (r ReceiptCOSEBase64) String() string {
	return string(r)
}
