package core

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ComputeLedgerHash computes a commitment to the final ledger without
// disclosing it. This is embedded in closing receipts and recomputed by
// anyone the ledger is later disclosed to.
//
// Formula: SHA256(nonce + "|" + sorted_key_value_pairs)
// where sorted_key_value_pairs = "bidder1:amount1|bidder2:amount2|..."
// (sorted by bidder identity). Amounts use their canonical decimal string
// form so the hash is independent of in-memory representation.
func ComputeLedgerHash(ledger map[string]decimal.Decimal, nonce string) string {
	data := nonce

	// Sort bidders to ensure deterministic hash calculation
	bidders := make([]string, 0, len(ledger))
	for bidder := range ledger {
		bidders = append(bidders, bidder)
	}
	sort.Strings(bidders)

	for _, bidder := range bidders {
		data += fmt.Sprintf("|%s:%s", bidder, ledger[bidder].String())
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeSettlementHash computes the settlement hash embedded in closing
// receipts.
//
// Formula: SHA256(auction_id + "|" + winner + "|" + amount + "|" + nonce)
// with winner empty when the auction closed without bids.
func ComputeSettlementHash(auctionID, winner string, amount decimal.Decimal, nonce string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", auctionID, winner, amount.String(), nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
