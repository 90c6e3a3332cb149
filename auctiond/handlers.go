package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudx-io/prizeauction/auctionapi"
	"github.com/cloudx-io/prizeauction/core"
)

// handleRequest decodes one JSON request and dispatches it on its type
// field. Always returns a JSON-encodable response.
func (s *AuctionServer) handleRequest(data []byte) any {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return invalidRequest("", fmt.Sprintf("Failed to decode request: %v", err))
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}
	case auctionapi.TypeFund:
		return s.handleFund(data)
	case auctionapi.TypeBid:
		return s.handleBid(data)
	case auctionapi.TypeWithdraw:
		return s.handleWithdraw(data)
	case auctionapi.TypeClose:
		return s.handleClose(data)
	case auctionapi.TypeUpdateBeneficiary:
		return s.handleUpdateBeneficiary(data)
	case auctionapi.TypeStatus:
		return s.handleStatus()
	case auctionapi.TypePendingReturn:
		return s.handlePendingReturn(data)
	case auctionapi.TypeReceipt:
		return s.handleReceipt()
	default:
		return invalidRequest("", fmt.Sprintf("Unknown request type: %s", baseReq.Type))
	}
}

func (s *AuctionServer) handleFund(data []byte) any {
	var req auctionapi.FundRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypeFund, fmt.Sprintf("Failed to decode fund request: %v", err))
	}

	if err := s.vault.Fund(req.Account, req.Amount); err != nil {
		return invalidRequest(auctionapi.TypeFund, err.Error())
	}

	log.Printf("INFO: Funded account %s with %s (balance now %s)", req.Account, req.Amount, s.vault.Balance(req.Account))
	return success(auctionapi.TypeFund, fmt.Sprintf("Credited %s to %s", req.Amount, req.Account))
}

func (s *AuctionServer) handleBid(data []byte) any {
	var req auctionapi.BidRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypeBid, fmt.Sprintf("Failed to decode bid request: %v", err))
	}
	if req.Bidder == "" {
		return invalidRequest(auctionapi.TypeBid, "bidder identity is required")
	}
	if !req.Amount.IsPositive() {
		return invalidRequest(auctionapi.TypeBid, fmt.Sprintf("bid amount must be positive, got %s", req.Amount))
	}

	if err := s.engine.Bid(req.Bidder, req.Amount); err != nil {
		log.Printf("INFO: Bid of %s by %s rejected: %v", req.Amount, req.Bidder, err)
		return failure(auctionapi.TypeBid, err)
	}

	leader, _ := s.engine.HighestBidder()
	log.Printf("INFO: Bid of %s by %s accepted: highest bidder %s at %s", req.Amount, req.Bidder, leader, s.engine.HighestBid())

	// A bid reaching the price cap closes the auction synchronously.
	if s.engine.Closed() {
		s.onClosed()
	}
	return success(auctionapi.TypeBid, fmt.Sprintf("Recorded bid of %s by %s", req.Amount, req.Bidder))
}

func (s *AuctionServer) handleWithdraw(data []byte) any {
	var req auctionapi.WithdrawRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypeWithdraw, fmt.Sprintf("Failed to decode withdraw request: %v", err))
	}
	if req.Bidder == "" {
		return invalidRequest(auctionapi.TypeWithdraw, "bidder identity is required")
	}

	amount, err := s.engine.Withdraw(req.Bidder)
	if err != nil {
		log.Printf("INFO: Withdrawal by %s rejected: %v", req.Bidder, err)
		return failure(auctionapi.TypeWithdraw, err)
	}

	log.Printf("INFO: Returned %s to %s", amount, req.Bidder)
	return auctionapi.WithdrawResponse{
		OpResponse: success(auctionapi.TypeWithdraw, fmt.Sprintf("Returned %s to %s", amount, req.Bidder)),
		Amount:     amount,
	}
}

func (s *AuctionServer) handleClose(data []byte) any {
	var req auctionapi.CloseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypeClose, fmt.Sprintf("Failed to decode close request: %v", err))
	}

	if err := s.engine.Close(req.Caller); err != nil {
		log.Printf("INFO: Close by %s rejected: %v", req.Caller, err)
		return failure(auctionapi.TypeClose, err)
	}

	s.onClosed()
	return success(auctionapi.TypeClose, "Auction closed")
}

func (s *AuctionServer) handleUpdateBeneficiary(data []byte) any {
	var req auctionapi.UpdateBeneficiaryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypeUpdateBeneficiary, fmt.Sprintf("Failed to decode update request: %v", err))
	}

	if err := s.engine.UpdateBeneficiary(req.Caller, req.NewBeneficiary); err != nil {
		return failure(auctionapi.TypeUpdateBeneficiary, err)
	}

	log.Printf("INFO: Beneficiary updated to %s", req.NewBeneficiary)
	return success(auctionapi.TypeUpdateBeneficiary, fmt.Sprintf("Beneficiary is now %s", req.NewBeneficiary))
}

func (s *AuctionServer) handleStatus() any {
	resp := auctionapi.StatusResponse{
		Type:        auctionapi.TypeStatus,
		AuctionID:   s.engine.ID(),
		Beneficiary: s.engine.Beneficiary(),
		HighestBid:  s.engine.HighestBid(),
		MinBid:      s.engine.MinBid(),
		MaxBid:      s.engine.MaxBid(),
		Deadline:    s.engine.Deadline(),
		Closed:      s.engine.Closed(),
		PrizeOwner:  s.engine.PrizeOwner(),
	}
	if leader, ok := s.engine.HighestBidder(); ok {
		resp.HighestBidder = leader
	}
	return resp
}

func (s *AuctionServer) handlePendingReturn(data []byte) any {
	var req auctionapi.PendingReturnRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest(auctionapi.TypePendingReturn, fmt.Sprintf("Failed to decode pending return request: %v", err))
	}
	if req.Bidder == "" {
		return invalidRequest(auctionapi.TypePendingReturn, "bidder identity is required")
	}

	return auctionapi.PendingReturnResponse{
		Type:   auctionapi.TypePendingReturn,
		Bidder: req.Bidder,
		Amount: s.engine.PendingReturn(req.Bidder),
	}
}

func (s *AuctionServer) handleReceipt() any {
	if !s.engine.Closed() {
		return auctionapi.ReceiptResponse{
			Type:      auctionapi.TypeReceipt,
			Success:   false,
			Message:   "auction is still open, no closing receipt yet",
			ErrorKind: auctionapi.ErrKindAuctionOpen,
		}
	}

	coseBytes, err := s.closingReceipt()
	if err != nil {
		log.Printf("ERROR: Failed to produce closing receipt: %v", err)
		return auctionapi.ReceiptResponse{
			Type:      auctionapi.TypeReceipt,
			Success:   false,
			Message:   fmt.Sprintf("Failed to produce closing receipt: %v", err),
			ErrorKind: auctionapi.ErrKindInternal,
		}
	}

	publicKeyPEM, err := s.signer.PublicKeyPEM()
	if err != nil {
		log.Printf("ERROR: Failed to export receipt public key: %v", err)
		return auctionapi.ReceiptResponse{
			Type:      auctionapi.TypeReceipt,
			Success:   false,
			Message:   fmt.Sprintf("Failed to export public key: %v", err),
			ErrorKind: auctionapi.ErrKindInternal,
		}
	}

	return auctionapi.ReceiptResponse{
		Type:         auctionapi.TypeReceipt,
		Success:      true,
		Receipt:      coseBytes.EncodeBase64(),
		PublicKeyPEM: publicKeyPEM,
	}
}

// onClosed logs the outcome and signs the closing receipt eagerly so it is
// ready before the first receipt query.
func (s *AuctionServer) onClosed() {
	winner, ok := s.engine.HighestBidder()
	if ok {
		log.Printf("INFO: Auction closed: winner %s at %s, prize owner %s", winner, s.engine.HighestBid(), s.engine.PrizeOwner())
	} else {
		log.Printf("INFO: Auction closed with no bids, prize returned to %s", s.engine.PrizeOwner())
	}

	if _, err := s.closingReceipt(); err != nil {
		log.Printf("ERROR: Failed to sign closing receipt: %v", err)
	}
}

// closingReceipt signs the settlement once and caches the COSE bytes.
func (s *AuctionServer) closingReceipt() (auctionapi.ReceiptCOSE, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.receiptCOSE != nil {
		return s.receiptCOSE, nil
	}

	settlement, err := s.engine.Settlement()
	if err != nil {
		return nil, err
	}

	coseBytes, err := s.signer.Sign(settlement)
	if err != nil {
		return nil, err
	}

	s.receiptCOSE = coseBytes
	log.Printf("INFO: Closing receipt signed: %d bytes", len(coseBytes))
	return coseBytes, nil
}

func success(respType, message string) auctionapi.OpResponse {
	return auctionapi.OpResponse{
		Type:    respType,
		Success: true,
		Message: message,
	}
}

func invalidRequest(respType, message string) auctionapi.OpResponse {
	return auctionapi.OpResponse{
		Type:      respType,
		Success:   false,
		Message:   message,
		ErrorKind: auctionapi.ErrKindInvalidRequest,
	}
}

func failure(respType string, err error) auctionapi.OpResponse {
	return auctionapi.OpResponse{
		Type:      respType,
		Success:   false,
		Message:   err.Error(),
		ErrorKind: errorKind(err),
	}
}

// errorKind maps engine errors to the stable kinds carried on the wire.
func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrAuctionClosed):
		return auctionapi.ErrKindAuctionClosed
	case errors.Is(err, core.ErrBidTooLow):
		return auctionapi.ErrKindBidTooLow
	case errors.Is(err, core.ErrAlreadyHighestBidder):
		return auctionapi.ErrKindAlreadyHighest
	case errors.Is(err, core.ErrNothingToWithdraw):
		return auctionapi.ErrKindNothingToWithdraw
	case errors.Is(err, core.ErrCannotWithdrawAsHighestBidder):
		return auctionapi.ErrKindWinnerLocked
	case errors.Is(err, core.ErrDeadlineNotReached):
		return auctionapi.ErrKindDeadlineNotReached
	case errors.Is(err, core.ErrNotBeneficiary):
		return auctionapi.ErrKindNotBeneficiary
	case errors.Is(err, core.ErrTransferFailure):
		return auctionapi.ErrKindTransferFailure
	case errors.Is(err, core.ErrAuctionOpen):
		return auctionapi.ErrKindAuctionOpen
	default:
		return auctionapi.ErrKindInternal
	}
}
