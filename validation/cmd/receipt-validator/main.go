package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/prizeauction/auctionapi"
	"github.com/cloudx-io/prizeauction/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput   = flag.String("receipt", "", "Closing receipt (file path or inline base64 COSE)")
		publicKeyInput = flag.String("public-key", "", "Service public key (file path or inline PEM)")
		ledgerInput    = flag.String("ledger", "", "Optional disclosed ledger JSON (file path or inline JSON)")
		outputFormat   = flag.String("format", "text", "Output format: text or json")
		help           = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	// Check for required inputs
	if *receiptInput == "" || *publicKeyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --receipt and --public-key are required\n")
		os.Exit(1)
	}

	receiptB64, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	publicKeyPEM, err := readInput(*publicKeyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}

	input := &validation.ReceiptValidationInput{
		ReceiptCOSE:  auctionapi.ReceiptCOSEBase64(strings.TrimSpace(receiptB64)),
		PublicKeyPEM: publicKeyPEM,
	}

	if *ledgerInput != "" {
		ledger, err := readLedger(*ledgerInput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
			os.Exit(2)
		}
		input.Ledger = ledger
	}

	// Validate using library
	result, err := validation.ValidateClosingReceipt(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	// Output results
	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	// Exit with appropriate code
	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Auction Closing Receipt Validator")
	fmt.Println()
	fmt.Println("Verifies a signed closing receipt against the service's public key.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <cose> --public-key <pem> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <cose>        Base64 COSE_Sign1 receipt (from the service's receipt response)")
	fmt.Println("  --public-key <pem>      PEM-encoded ECDSA public key published by the service")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --ledger <json>         Disclosed final ledger to check against the receipt's ledger hash")
	fmt.Println("  --format <text|json>    Output format (default: text)")
	fmt.Println("  --help                  Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  Each flag accepts either a file path or an inline value.")
	fmt.Println()
	fmt.Println("Ledger JSON (bidder identity -> cumulative contribution):")
	fmt.Println("  {")
	fmt.Println("    \"alice\": \"5000000000000000000\",")
	fmt.Println("    \"bob\": \"8000000000000000000\"")
	fmt.Println("  }")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) (string, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return string(data), nil
	}
	// Treat as inline value
	return input, nil
}

func readLedger(input string) (map[string]decimal.Decimal, error) {
	data, err := readInput(input)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("parse ledger JSON: %w", err)
	}

	ledger := make(map[string]decimal.Decimal, len(raw))
	for bidder, amount := range raw {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q for bidder %s: %w", amount, bidder, err)
		}
		ledger[bidder] = value
	}
	return ledger, nil
}

func outputText(result *validation.ReceiptValidationResult) {
	fmt.Println("Auction Closing Receipt Validator")
	fmt.Println("==================================")
	fmt.Println()

	if result.Receipt != nil {
		fmt.Println("Receipt:")
		fmt.Printf("  Receipt ID:   %s\n", result.Receipt.ReceiptID)
		fmt.Printf("  Auction ID:   %s\n", result.Receipt.AuctionID)
		if result.Receipt.Winner != "" {
			fmt.Printf("  Winner:       %s\n", result.Receipt.Winner)
		} else {
			fmt.Printf("  Winner:       (none - closed without bids)\n")
		}
		fmt.Printf("  Winning Bid:  %s\n", result.Receipt.WinningBid)
		fmt.Printf("  Beneficiary:  %s\n", result.Receipt.Beneficiary)
		fmt.Printf("  Closed At:    %s\n", result.Receipt.ClosedAt)
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Printf("  Payload Valid:           %v\n", result.PayloadValid)
	fmt.Printf("  Settlement Hash Valid:   %v\n", result.SettlementHashValid)
	if result.LedgerChecked {
		fmt.Printf("  Ledger Hash Valid:       %v\n", result.LedgerHashValid)
	} else {
		fmt.Printf("  Ledger Hash Valid:       (not checked, no ledger supplied)\n")
	}

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("==================================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
		fmt.Println("Exit Code: 0")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
		fmt.Println("Exit Code: 1")
	}
}

func outputJSON(result *validation.ReceiptValidationResult) {
	output := map[string]any{
		"valid":                 result.IsValid(),
		"signature_valid":       result.SignatureValid,
		"payload_valid":         result.PayloadValid,
		"settlement_hash_valid": result.SettlementHashValid,
		"ledger_checked":        result.LedgerChecked,
		"ledger_hash_valid":     result.LedgerHashValid,
		"details":               result.ValidationDetails,
	}
	if result.Receipt != nil {
		output["receipt"] = result.Receipt
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
