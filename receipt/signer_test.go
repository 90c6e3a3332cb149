package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/prizeauction/core"
	"github.com/cloudx-io/prizeauction/validation"
)

func testSettlement() *core.Settlement {
	return &core.Settlement{
		AuctionID:   "auction-123",
		Winner:      "bob",
		WinningBid:  decimal.New(8, 18),
		Beneficiary: "beneficiary",
		ClosedAt:    time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		Ledger: map[string]decimal.Decimal{
			"alice": decimal.New(5, 18),
			"bob":   decimal.New(8, 18),
			"carol": decimal.New(4, 18),
		},
	}
}

func TestNewSigner(t *testing.T) {
	signer1, err := NewSigner()
	check.Nil(t, err)
	check.NotNil(t, signer1.PublicKey)

	signer2, err := NewSigner()
	check.Nil(t, err)

	// Fresh keys every time
	check.False(t, signer1.PublicKey.Equal(signer2.PublicKey))
}

func TestPublicKeyPEM(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	pemStr, err := signer.PublicKeyPEM()
	check.Nil(t, err)
	check.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	parsed, err := validation.ParsePublicKeyPEM(pemStr)
	check.Nil(t, err)
	check.True(t, signer.PublicKey.Equal(parsed))
}

func TestSign_VerifiableReceipt(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	coseBytes, err := signer.Sign(testSettlement())
	check.Nil(t, err)
	check.True(t, len(coseBytes) > 0)

	pemStr, err := signer.PublicKeyPEM()
	check.Nil(t, err)

	receipt, err := validation.VerifyReceipt(coseBytes.EncodeBase64(), pemStr)
	check.Nil(t, err)

	check.NotEqual(t, "", receipt.ReceiptID)
	check.Equal(t, "auction-123", receipt.AuctionID)
	check.Equal(t, "bob", receipt.Winner)
	check.Equal(t, decimal.New(8, 18).String(), receipt.WinningBid)
	check.Equal(t, "beneficiary", receipt.Beneficiary)
	check.True(t, receipt.ClosedAt.Equal(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)))
}

func TestSign_LedgerCommitment(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	st := testSettlement()
	coseBytes, err := signer.Sign(st)
	check.Nil(t, err)

	pemStr, err := signer.PublicKeyPEM()
	check.Nil(t, err)

	receipt, err := validation.VerifyReceipt(coseBytes.EncodeBase64(), pemStr)
	check.Nil(t, err)

	// The receipt commits to the full ledger without disclosing it
	check.Equal(t, core.ComputeLedgerHash(st.Ledger, receipt.LedgerNonce), receipt.LedgerHash)
	check.Equal(t, core.ComputeSettlementHash(st.AuctionID, st.Winner, st.WinningBid, receipt.SettlementNonce), receipt.SettlementHash)
}

func TestSign_FreshNoncesPerReceipt(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	cose1, err := signer.Sign(testSettlement())
	check.Nil(t, err)
	cose2, err := signer.Sign(testSettlement())
	check.Nil(t, err)

	pemStr, err := signer.PublicKeyPEM()
	check.Nil(t, err)

	receipt1, err := validation.VerifyReceipt(cose1.EncodeBase64(), pemStr)
	check.Nil(t, err)
	receipt2, err := validation.VerifyReceipt(cose2.EncodeBase64(), pemStr)
	check.Nil(t, err)

	check.NotEqual(t, receipt1.ReceiptID, receipt2.ReceiptID)
	check.NotEqual(t, receipt1.LedgerNonce, receipt2.LedgerNonce)
	check.NotEqual(t, receipt1.SettlementNonce, receipt2.SettlementNonce)
}

func TestSign_NoWinnerSettlement(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	st := &core.Settlement{
		AuctionID:   "auction-empty",
		Beneficiary: "beneficiary",
		ClosedAt:    time.Now().UTC(),
		Ledger:      map[string]decimal.Decimal{},
	}

	coseBytes, err := signer.Sign(st)
	check.Nil(t, err)

	pemStr, err := signer.PublicKeyPEM()
	check.Nil(t, err)

	receipt, err := validation.VerifyReceipt(coseBytes.EncodeBase64(), pemStr)
	check.Nil(t, err)
	check.Equal(t, "", receipt.Winner)
	check.Equal(t, "0", receipt.WinningBid)
}

func TestSign_NilSettlement(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	coseBytes, err := signer.Sign(nil)
	check.NotNil(t, err)
	check.Nil(t, coseBytes)
}
