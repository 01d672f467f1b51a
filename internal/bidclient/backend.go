// Package bidclient implements the page-facing bidding core: minimum-bid
// display, bid validation and submission, reconciliation of the locally
// edited draft against authoritative backend state, and cache invalidation
// after an accepted bid. The backend stays the single source of truth; the
// client never commits a bid optimistically.
package bidclient

import (
	"context"

	model "marketplace-bidding/internal/models"

	"github.com/shopspring/decimal"
)

// Outcome is the backend's verdict on a submitted bid
type Outcome struct {
	Accepted   bool
	Message    string
	CurrentBid decimal.Decimal // authoritative highest bid after acceptance
}

// Backend is the narrow slice of the bid authority the client core depends
// on. Implementations must treat PlaceBid as atomic: concurrent callers
// racing on the same auction must never both succeed.
type Backend interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (Outcome, error)
	HighestBid(ctx context.Context, auctionID string) (decimal.Decimal, bool, error)
	BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error)
}

// Identity supplies the signed-in user placing bids, if any
type Identity interface {
	CurrentUserID() (string, bool)
}

// Invalidator marks dependent cached reads stale after an accepted bid
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// AuctionDetailKey is the cache key for an auction's detail read
func AuctionDetailKey(auctionID string) string {
	return "auction:" + auctionID
}

// BidHistoryKey is the cache key for an auction's bid history read
func BidHistoryKey(auctionID string) string {
	return "auction:" + auctionID + ":bids"
}
