package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a marketplace account able to place bids
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction represents a product listing sold via competitive bidding.
// StartPrice, Currency and EndTime are fixed at creation; CurrentBid is
// nil until the first bid is accepted and is only ever advanced by the
// bid authority.
type Auction struct {
	AuctionID   string           `json:"auction_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	StartPrice  decimal.Decimal  `json:"start_price"`
	CurrentBid  *decimal.Decimal `json:"current_bid,omitempty"`
	Currency    string           `json:"currency"`
	EndTime     time.Time        `json:"end_time"`
}

// Bid represents an accepted bid on an auction. Bids are append-only:
// once recorded they are never mutated or deleted.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
