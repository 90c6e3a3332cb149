package core

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeLedgerHash(t *testing.T) {
	ledger := map[string]decimal.Decimal{
		"alice": decimal.New(1, 18),
		"bob":   decimal.New(2, 18),
	}
	nonce := "test_nonce_456"

	hash := ComputeLedgerHash(ledger, nonce)

	// Verify hash is 64 characters (SHA256 hex encoding)
	if len(hash) != 64 {
		t.Errorf("ComputeLedgerHash() hash length = %d, want 64", len(hash))
	}

	// Verify hash contains only hex characters
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("ComputeLedgerHash() contains non-hex character: %c", c)
		}
	}

	// Same inputs should produce same hash (deterministic)
	hash2 := ComputeLedgerHash(ledger, nonce)
	if hash != hash2 {
		t.Errorf("ComputeLedgerHash() not deterministic")
	}

	// Different nonce should produce a different hash
	hash3 := ComputeLedgerHash(ledger, "other_nonce")
	if hash == hash3 {
		t.Errorf("Different nonces should produce different hashes")
	}

	// Verify exact hash calculation (bidders sorted)
	expectedData := fmt.Sprintf("%s|alice:%s|bob:%s", nonce, decimal.New(1, 18), decimal.New(2, 18))
	expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte(expectedData)))
	if hash != expectedHash {
		t.Errorf("ComputeLedgerHash() = %v, want %v", hash, expectedHash)
	}
}

func TestComputeLedgerHash_AmountCanonicalForm(t *testing.T) {
	nonce := "test"

	// Equal amounts built differently must hash identically
	hash1 := ComputeLedgerHash(map[string]decimal.Decimal{"alice": decimal.New(15, 17)}, nonce)
	hash2 := ComputeLedgerHash(map[string]decimal.Decimal{"alice": decimal.RequireFromString("1500000000000000000")}, nonce)

	if hash1 != hash2 {
		t.Errorf("Equal amounts should produce the same hash")
	}
}

func TestComputeLedgerHash_DifferentInputs(t *testing.T) {
	nonce := "test-nonce"

	hash1 := ComputeLedgerHash(map[string]decimal.Decimal{"alice": decimal.New(1, 18)}, nonce)
	hash2 := ComputeLedgerHash(map[string]decimal.Decimal{"bob": decimal.New(1, 18)}, nonce)
	if hash1 == hash2 {
		t.Errorf("Different bidders should produce different hashes")
	}

	hash3 := ComputeLedgerHash(map[string]decimal.Decimal{"alice": decimal.New(2, 18)}, nonce)
	if hash1 == hash3 {
		t.Errorf("Different amounts should produce different hashes")
	}

	hash4 := ComputeLedgerHash(map[string]decimal.Decimal{}, nonce)
	if hash1 == hash4 {
		t.Errorf("Empty ledger should produce a different hash")
	}
}

func TestComputeSettlementHash(t *testing.T) {
	auctionID := "auction_123"
	winner := "bob"
	amount := decimal.New(8, 18)
	nonce := "test_nonce"

	hash := ComputeSettlementHash(auctionID, winner, amount, nonce)

	if len(hash) != 64 {
		t.Errorf("ComputeSettlementHash() hash length = %d, want 64", len(hash))
	}

	hash2 := ComputeSettlementHash(auctionID, winner, amount, nonce)
	if hash != hash2 {
		t.Errorf("ComputeSettlementHash() not deterministic")
	}

	// Verify exact hash calculation
	expectedData := fmt.Sprintf("%s|%s|%s|%s", auctionID, winner, amount.String(), nonce)
	expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte(expectedData)))
	if hash != expectedHash {
		t.Errorf("ComputeSettlementHash() = %v, want %v", hash, expectedHash)
	}
}

func TestComputeSettlementHash_NoWinner(t *testing.T) {
	// A no-bid close hashes with an empty winner and zero amount
	hash1 := ComputeSettlementHash("auction_123", "", decimal.Zero, "nonce")
	hash2 := ComputeSettlementHash("auction_123", "bob", decimal.Zero, "nonce")

	if hash1 == hash2 {
		t.Errorf("Empty winner should produce a different hash")
	}
}
