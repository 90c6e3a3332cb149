// Package validation verifies signed closing receipts offline: COSE_Sign1
// signature, payload decoding, settlement-hash consistency and, when the
// final ledger has been disclosed, the ledger commitment.
package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/prizeauction/auctionapi"
	"github.com/cloudx-io/prizeauction/core"
)

// ReceiptValidationInput contains all inputs needed for receipt validation.
type ReceiptValidationInput struct {
	ReceiptCOSE  auctionapi.ReceiptCOSEBase64
	PublicKeyPEM string

	// Ledger is the disclosed final ledger, if any. When non-nil the
	// receipt's ledger commitment is recomputed and checked against it.
	Ledger map[string]decimal.Decimal
}

// ReceiptValidationResult carries the per-check outcomes. Call IsValid for
// the overall status.
type ReceiptValidationResult struct {
	SignatureValid      bool
	PayloadValid        bool
	SettlementHashValid bool
	LedgerChecked       bool
	LedgerHashValid     bool

	// Receipt is the decoded payload, present once PayloadValid.
	Receipt *auctionapi.ClosingReceipt

	ValidationDetails []string
}

// IsValid reports whether every performed check passed.
func (r *ReceiptValidationResult) IsValid() bool {
	if !r.SignatureValid || !r.PayloadValid || !r.SettlementHashValid {
		return false
	}
	if r.LedgerChecked && !r.LedgerHashValid {
		return false
	}
	return true
}

// ValidateClosingReceipt verifies a closing receipt and returns detailed
// results. An error is returned only when validation cannot be performed at
// all (malformed key or COSE structure); check failures are reported in the
// result.
func ValidateClosingReceipt(input *ReceiptValidationInput) (*ReceiptValidationResult, error) {
	result := &ReceiptValidationResult{}

	receipt, err := VerifyReceipt(input.ReceiptCOSE, input.PublicKeyPEM)
	if err != nil {
		return nil, err
	}
	result.SignatureValid = true
	result.PayloadValid = true
	result.Receipt = receipt
	result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")

	result.SettlementHashValid = validateSettlementHash(receipt, result)

	if input.Ledger != nil {
		result.LedgerChecked = true
		result.LedgerHashValid = validateLedgerHash(receipt, input.Ledger, result)
	}

	return result, nil
}

// VerifyReceipt verifies the COSE_Sign1 signature with the given PEM public
// key and decodes the CBOR payload.
func VerifyReceipt(coseB64 auctionapi.ReceiptCOSEBase64, publicKeyPEM string) (*auctionapi.ClosingReceipt, error) {
	coseBytes, err := coseB64.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode COSE bytes: %w", err)
	}

	publicKey, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1 message: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("COSE signature verification failed: %w", err)
	}

	var receipt auctionapi.ClosingReceipt
	if err := cbor.Unmarshal(msg.Payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}

	return &receipt, nil
}

// ParsePublicKeyPEM parses a PEM-encoded ECDSA public key.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}

	return ecdsaKey, nil
}

func validateSettlementHash(receipt *auctionapi.ClosingReceipt, result *ReceiptValidationResult) bool {
	if receipt.SettlementNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Settlement nonce missing from receipt")
		return false
	}

	winningBid, err := decimal.NewFromString(receipt.WinningBid)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Invalid winning bid %q in receipt", receipt.WinningBid))
		return false
	}

	computed := core.ComputeSettlementHash(receipt.AuctionID, receipt.Winner, winningBid, receipt.SettlementNonce)
	if computed != receipt.SettlementHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Settlement hash mismatch. Computed: %s", computed))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, "Settlement hash verified")
	return true
}

func validateLedgerHash(receipt *auctionapi.ClosingReceipt, ledger map[string]decimal.Decimal, result *ReceiptValidationResult) bool {
	if receipt.LedgerNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Ledger nonce missing from receipt")
		return false
	}

	computed := core.ComputeLedgerHash(ledger, receipt.LedgerNonce)
	if computed != receipt.LedgerHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Ledger hash mismatch. Computed: %s", computed))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, "Ledger hash verified against disclosed ledger")
	return true
}
