package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/prizeauction/core"
	"github.com/cloudx-io/prizeauction/receipt"
)

func main() {
	cfg, err := loadAuctionConfig()
	if err != nil {
		log.Fatalf("ERROR: Invalid auction configuration: %v", err)
	}

	vault := NewMemoryVault()

	engine, err := core.NewEngine(cfg, systemClock{}, vault)
	if err != nil {
		log.Fatalf("ERROR: Failed to create auction engine: %v", err)
	}
	log.Printf("INFO: Auction %s open: min bid %s, max bid %s, deadline %s, beneficiary %s",
		engine.ID(), cfg.MinBid, cfg.MaxBid, engine.Deadline().Format(time.RFC3339), cfg.Beneficiary)

	signer, err := receipt.NewSigner()
	if err != nil {
		log.Fatalf("ERROR: Failed to initialize receipt signer: %v", err)
	}
	log.Printf("INFO: Receipt signer initialized")

	server := NewAuctionServer(5000, engine, vault, signer)
	log.Fatal(server.Start())
}

// loadAuctionConfig builds the engine configuration from required
// environment variables.
func loadAuctionConfig() (core.Config, error) {
	minBid, err := getRequiredEnvDecimal("AUCTION_MIN_BID")
	if err != nil {
		return core.Config{}, err
	}

	maxBid, err := getRequiredEnvDecimal("AUCTION_MAX_BID")
	if err != nil {
		return core.Config{}, err
	}

	durationSeconds, err := getRequiredEnvInt("AUCTION_DURATION_SECONDS")
	if err != nil {
		return core.Config{}, err
	}

	beneficiary := os.Getenv("AUCTION_BENEFICIARY")
	if beneficiary == "" {
		return core.Config{}, fmt.Errorf("required environment variable AUCTION_BENEFICIARY is not set")
	}

	return core.Config{
		MinBid:      minBid,
		MaxBid:      maxBid,
		Duration:    time.Duration(durationSeconds) * time.Second,
		Beneficiary: beneficiary,
	}, nil
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

func getRequiredEnvDecimal(key string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return decimal.Zero, fmt.Errorf("required environment variable %s is not set", key)
	}

	decValue, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s: %s (must be a decimal amount)", key, value)
	}

	log.Printf("INFO: Using %s=%s from environment", key, decValue)
	return decValue, nil
}
