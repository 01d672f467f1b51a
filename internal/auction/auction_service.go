package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-bidding/internal/biderrors"
	"marketplace-bidding/internal/cache"
	"marketplace-bidding/internal/clock"
	"marketplace-bidding/internal/minbid"
	model "marketplace-bidding/internal/models"
	"marketplace-bidding/internal/repository"
	"marketplace-bidding/utils"

	"github.com/shopspring/decimal"
)

// Broadcaster fans an accepted bid out to realtime subscribers
type Broadcaster interface {
	BroadcastBid(auctionID string, bid model.Bid)
}

// Service is the bid authority: the single writer of auction bid state.
// Acceptance is serialized so concurrent bidders can never both advance
// the current bid inconsistently.
type Service struct {
	store repository.AuctionStore
	calc  minbid.Calculator
	clk   clock.Clock

	mu sync.Mutex // serializes bid acceptance across all auctions

	highestCache cache.Cache
	highestTTL   time.Duration
	broadcaster  Broadcaster
}

// NewService creates a new bid authority over the given store
func NewService(store repository.AuctionStore, calc minbid.Calculator, clk clock.Clock) *Service {
	return &Service{
		store: store,
		calc:  calc,
		clk:   clk,
	}
}

// WithHighestBidCache enables a cached highest-bid read path
func (s *Service) WithHighestBidCache(c cache.Cache, ttl time.Duration) *Service {
	s.highestCache = c
	s.highestTTL = ttl
	return s
}

// WithBroadcaster wires accepted-bid fan-out
func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcaster = b
	return s
}

func highestBidKey(auctionID string) string {
	return "auction:" + auctionID + ":highest"
}

// PlaceBid validates and records a bid. It is the sole arbiter of whether a
// bid is still valid against concurrent bidders: the amount is checked
// against the minimum under the acceptance lock, so a bid racing a just
// accepted higher bid is rejected rather than recorded out of order.
func (s *Service) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", biderrors.ErrInvalidBid)
	}
	if amount.Sign() <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", biderrors.ErrInvalidBid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}

	if !a.EndTime.IsZero() && !s.clk.Now().Before(a.EndTime) {
		return model.Bid{}, fmt.Errorf("service: %w", biderrors.ErrAuctionEnded)
	}

	minimum, err := s.calc.Minimum(a.CurrentBid, &a.StartPrice)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}
	if amount.LessThan(minimum) {
		return model.Bid{}, fmt.Errorf("service: %w - minimum bid is %s", biderrors.ErrBidTooLow, minimum.StringFixed(2))
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: s.clk.Now(),
	}

	if err := s.store.RecordBid(bid); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}

	if s.highestCache != nil {
		if err := s.highestCache.Set(ctx, highestBidKey(auctionID), amount.String(), s.highestTTL); err != nil {
			utils.Warn("failed to refresh highest-bid cache", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBid(auctionID, bid)
	}

	return bid, nil
}

// GetAuction returns the auction detail including its current bid
func (s *Service) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", biderrors.ErrInvalidBid)
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns all auctions known to the authority
func (s *Service) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	auctions, err := s.store.ListAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// BidHistory returns all bids for an auction, newest first
func (s *Service) BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biderrors.ErrInvalidBid)
	}

	bids, err := s.store.BidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// HighestBid returns the authoritative highest bid amount, or ok=false when
// the auction has no bids yet. Reads go through the cache when configured.
func (s *Service) HighestBid(ctx context.Context, auctionID string) (decimal.Decimal, bool, error) {
	if auctionID == "" {
		return decimal.Decimal{}, false, fmt.Errorf("service: %w - empty auction ID", biderrors.ErrInvalidBid)
	}

	if s.highestCache != nil {
		if val, ok, err := s.highestCache.Get(ctx, highestBidKey(auctionID)); err == nil && ok {
			if amount, perr := decimal.NewFromString(val); perr == nil {
				return amount, true, nil
			}
		}
	}

	bid, err := s.store.HighestBid(auctionID)
	if err != nil {
		if errors.Is(err, biderrors.ErrNoBids) {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, fmt.Errorf("service: failed to get highest bid for auction %s: %w", auctionID, err)
	}

	if s.highestCache != nil {
		if err := s.highestCache.Set(ctx, highestBidKey(auctionID), bid.Amount.String(), s.highestTTL); err != nil {
			utils.Warn("failed to populate highest-bid cache", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
	}
	return bid.Amount, true, nil
}
