package bidclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	model "marketplace-bidding/internal/models"

	"github.com/shopspring/decimal"
)

// HTTPBackend implements Backend against the bid authority's REST API.
type HTTPBackend struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPBackend creates an adapter for the authority at the given base URL
func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// envelope matches the authority's JSON response shape
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type placeBidPayload struct {
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type bidResultPayload struct {
	BidID      string          `json:"bid_id"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	CurrentBid decimal.Decimal `json:"current_bid"`
	CreatedAt  string          `json:"created_at"`
}

type highestBidPayload struct {
	AuctionID string          `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PlaceBid submits a bid. A non-2xx response with a parseable envelope is an
// authoritative rejection, not an error: the backend's reason is carried
// verbatim on the Outcome.
func (b *HTTPBackend) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (Outcome, error) {
	body, err := json.Marshal(placeBidPayload{AuctionID: auctionID, BidderID: bidderID, Amount: amount})
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal bid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/bids", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.HTTP.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer res.Body.Close()

	var env envelope
	if decErr := json.NewDecoder(res.Body).Decode(&env); decErr != nil {
		return Outcome{}, fmt.Errorf("place bid http %d: %w", res.StatusCode, decErr)
	}

	if res.StatusCode == http.StatusCreated {
		var result bidResultPayload
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return Outcome{}, fmt.Errorf("decode accepted bid: %w", err)
		}
		return Outcome{Accepted: true, Message: env.Message, CurrentBid: result.CurrentBid}, nil
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return Outcome{}, fmt.Errorf("place bid http %d: %s", res.StatusCode, env.Message)
	}

	reason := env.Error
	if reason == "" {
		reason = env.Message
	}
	return Outcome{Accepted: false, Message: reason}, nil
}

// HighestBid fetches the authoritative highest bid; ok=false when the
// auction has no bids yet
func (b *HTTPBackend) HighestBid(ctx context.Context, auctionID string) (decimal.Decimal, bool, error) {
	env, err := b.get(ctx, "/auctions/"+auctionID+"/highest")
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return decimal.Decimal{}, false, nil
	}

	var payload highestBidPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("decode highest bid: %w", err)
	}
	return payload.Amount, true, nil
}

// BidHistory fetches all bids for an auction, newest first
func (b *HTTPBackend) BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error) {
	env, err := b.get(ctx, "/auctions/"+auctionID+"/bids")
	if err != nil {
		return nil, err
	}

	var bids []model.Bid
	if err := json.Unmarshal(env.Data, &bids); err != nil {
		return nil, fmt.Errorf("decode bid history: %w", err)
	}
	return bids, nil
}

func (b *HTTPBackend) get(ctx context.Context, path string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		return envelope{}, err
	}

	res, err := b.HTTP.Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer res.Body.Close()

	var env envelope
	if decErr := json.NewDecoder(res.Body).Decode(&env); decErr != nil {
		return envelope{}, fmt.Errorf("get %s http %d: %w", path, res.StatusCode, decErr)
	}
	if res.StatusCode != http.StatusOK {
		return envelope{}, fmt.Errorf("get %s http %d: %s", path, res.StatusCode, env.Message)
	}
	return env, nil
}
