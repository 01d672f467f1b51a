package repository

import (
	"fmt"
	"sync"

	"marketplace-bidding/internal/biderrors"
	model "marketplace-bidding/internal/models"
)

// AuctionStore defines the auction and bid storage interface owned by the
// bid authority. Bids are append-only; the auction's current bid is the only
// field that advances after creation.
type AuctionStore interface {
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() ([]model.Auction, error)
	RecordBid(bid model.Bid) error
	BidsByAuction(auctionID string) ([]model.Bid, error)
	HighestBid(auctionID string) (model.Bid, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> auction with denormalized current bid
	bids     map[string][]model.Bid   // key: auctionID -> bids in acceptance order
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// AddAuction registers an auction. Used by seeding and tests; auctions are
// otherwise created out of band by the listing flow.
func (s *MemoryStore) AddAuction(a model.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.AuctionID] = a
}

// GetAuction returns the auction with its current bid state
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biderrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListAuctions returns all known auctions
func (s *MemoryStore) ListAuctions() ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		auctions = append(auctions, a)
	}
	return auctions, nil
}

// RecordBid appends a bid and advances the auction's current bid when the
// new amount is higher.
func (s *MemoryStore) RecordBid(bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, biderrors.ErrAuctionNotFound)
	}

	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)

	if a.CurrentBid == nil || bid.Amount.GreaterThan(*a.CurrentBid) {
		amount := bid.Amount
		a.CurrentBid = &amount
		s.auctions[bid.AuctionID] = a
	}
	return nil
}

// BidsByAuction returns all bids for an auction, newest first
func (s *MemoryStore) BidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biderrors.ErrNoBids)
	}

	out := make([]model.Bid, len(bids))
	for i, b := range bids {
		out[len(bids)-1-i] = b
	}
	return out, nil
}

// HighestBid returns the highest bid for an auction; on equal amounts the
// earliest accepted bid wins.
func (s *MemoryStore) HighestBid(auctionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, biderrors.ErrNoBids)
	}

	highest := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(highest.Amount) {
			highest = b
		}
	}
	return highest, nil
}
