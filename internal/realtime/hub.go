// Package realtime fans accepted bids out to WebSocket subscribers so open
// product pages see new current bids without polling.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	model "marketplace-bidding/internal/models"
	"marketplace-bidding/utils"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// ClientMsg is a subscriber's control message
type ClientMsg struct {
	Type      string `json:"type"` // "subscribe", "unsubscribe", "ping"
	AuctionID string `json:"auction_id"`
}

// BidUpdate is pushed to every subscriber of an auction when a bid is accepted
type BidUpdate struct {
	Type      string          `json:"type"` // always "bid_accepted"
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// Hub manages WebSocket connections and per-auction subscriptions
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// auctionID -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

// NewHub creates a hub with a custom origin policy
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS manages the lifecycle of one WebSocket connection. A client may
// subscribe to any number of auctions; all its subscriptions are removed on
// disconnect.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.AuctionID]; !ok {
				h.subs[msg.AuctionID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.AuctionID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.AuctionID]; ok {
				delete(set, conn)
				if len(set) == 0 {
					delete(h.subs, msg.AuctionID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}

	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Subscribers returns how many connections follow an auction
func (h *Hub) Subscribers(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[auctionID])
}

// BroadcastBid pushes an accepted bid to every subscriber of its auction
func (h *Hub) BroadcastBid(auctionID string, bid model.Bid) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[auctionID]))
	for conn := range h.subs[auctionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	update := BidUpdate{
		Type:      "bid_accepted",
		AuctionID: auctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		PlacedAt:  bid.CreatedAt,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		utils.Error("failed to marshal bid update", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.Warn("failed to push bid update", map[string]any{"auction_id": auctionID, "error": err.Error()})
		}
	}
}
