// Package receipt issues signed closing receipts. When the auction closes,
// the service signs a COSE_Sign1 message over a CBOR settlement payload with
// a locally generated ECDSA P-384 key; anyone holding the published public
// key can verify the outcome offline.
package receipt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/prizeauction/auctionapi"
	"github.com/cloudx-io/prizeauction/core"
)

// Signer holds the service's receipt-signing key pair.
type Signer struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewSigner creates a Signer with a fresh ECDSA P-384 key pair.
func NewSigner() (*Signer, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return &Signer{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PublicKeyPEM returns the verification key in PEM format.
func (s *Signer) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(s.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// Sign builds the closing receipt for a settlement and signs it as a
// COSE_Sign1 message (ES384). The ledger itself never enters the receipt,
// only its hash under a fresh nonce.
func (s *Signer) Sign(st *core.Settlement) (auctionapi.ReceiptCOSE, error) {
	if st == nil {
		return nil, fmt.Errorf("settlement is nil")
	}

	ledgerNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ledger nonce: %w", err)
	}
	settlementNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate settlement nonce: %w", err)
	}

	payload := &auctionapi.ClosingReceipt{
		ReceiptID:       uuid.NewString(),
		AuctionID:       st.AuctionID,
		Winner:          st.Winner,
		WinningBid:      st.WinningBid.String(),
		Beneficiary:     st.Beneficiary,
		LedgerHash:      core.ComputeLedgerHash(st.Ledger, ledgerNonce),
		LedgerNonce:     ledgerNonce,
		SettlementHash:  core.ComputeSettlementHash(st.AuctionID, st.Winner, st.WinningBid, settlementNonce),
		SettlementNonce: settlementNonce,
		ClosedAt:        st.ClosedAt,
		IssuedAt:        time.Now().UTC(),
	}

	payloadBytes, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt payload: %w", err)
	}

	coseSigner, err := cose.NewSigner(cose.AlgorithmES384, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create COSE signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES384)
	msg.Payload = payloadBytes

	if err := msg.Sign(rand.Reader, nil, coseSigner); err != nil {
		return nil, fmt.Errorf("COSE signing failed: %w", err)
	}

	coseBytes, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("marshal COSE message: %w", err)
	}

	return auctionapi.ReceiptCOSE(coseBytes), nil
}

// generateSecureRandomBytes generates cryptographically secure random bytes
// for receipt nonces.
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
