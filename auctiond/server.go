package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/prizeauction/auctionapi"
	"github.com/cloudx-io/prizeauction/core"
	"github.com/cloudx-io/prizeauction/receipt"
)

// AuctionServer serves the auction over a one-request-per-connection JSON
// protocol: the client writes a request and half-closes, the server writes a
// single response.
type AuctionServer struct {
	port   uint32
	engine *core.Engine
	vault  *MemoryVault
	signer *receipt.Signer

	mu          sync.Mutex
	receiptCOSE auctionapi.ReceiptCOSE
}

func NewAuctionServer(port uint32, engine *core.Engine, vault *MemoryVault, signer *receipt.Signer) *AuctionServer {
	return &AuctionServer{
		port:   port,
		engine: engine,
		vault:  vault,
		signer: signer,
	}
}

func (s *AuctionServer) Start() error {
	listener, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Auction server listening on %s", listener.Addr())

	maxWorkers, err := getRequiredEnvInt("AUCTIOND_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

// listen binds vsock by default; AUCTIOND_TCP_ADDR switches to a TCP
// listener for development outside a VM.
func (s *AuctionServer) listen() (net.Listener, error) {
	if addr := os.Getenv("AUCTIOND_TCP_ADDR"); addr != "" {
		log.Printf("INFO: Using TCP listener on %s (AUCTIOND_TCP_ADDR set)", addr)
		return net.Listen("tcp", addr)
	}
	return vsock.Listen(s.port, nil)
}

func (s *AuctionServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	_, err := io.Copy(&buf, conn)
	if err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response := s.handleRequest(buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}
