package main

import (
	"fmt"
	"os"
	"time"

	"marketplace-bidding/internal/auction"
	"marketplace-bidding/internal/cache"
	"marketplace-bidding/internal/clock"
	"marketplace-bidding/internal/config"
	"marketplace-bidding/internal/minbid"
	model "marketplace-bidding/internal/models"
	"marketplace-bidding/internal/realtime"
	"marketplace-bidding/internal/repository"
	"marketplace-bidding/internal/server"
	"marketplace-bidding/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	utils.SetLevel(cfg.LogLevel)

	store := repository.NewMemoryStore()
	seedAuctions(store)

	increment, err := cfg.Increment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	svc := auction.NewService(store, minbid.New(increment), clock.NewSystem())

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			utils.Warn("redis unavailable, serving highest bids without cache", map[string]any{
				"addr":  cfg.RedisAddr,
				"error": err.Error(),
			})
		} else {
			svc.WithHighestBidCache(cache.NewRedis(rdb), cfg.HighestBidTTL)
		}
	}

	hub := realtime.NewHub(nil) // default same-origin policy
	svc.WithBroadcaster(hub)

	router := server.SetupRouter(svc, hub)

	addr := ":" + cfg.Port
	utils.Info("starting auction server", map[string]any{"addr": addr})
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// seedAuctions adds sample auctions to the in-memory store
func seedAuctions(store *repository.MemoryStore) {
	now := time.Now().UTC()
	auctions := []model.Auction{
		{
			AuctionID:   "auction1",
			Title:       "Vintage camera",
			Description: "1970s rangefinder, fully serviced",
			StartPrice:  decimal.RequireFromString("100.00"),
			Currency:    "USD",
			EndTime:     now.Add(48 * time.Hour),
		},
		{
			AuctionID:   "auction2",
			Title:       "Mechanical keyboard",
			Description: "Custom build, lubed switches",
			StartPrice:  decimal.RequireFromString("200.00"),
			Currency:    "USD",
			EndTime:     now.Add(24 * time.Hour),
		},
		{
			AuctionID:   "auction3",
			Title:       "Road bike frame",
			Description: "Steel frame, size 56",
			StartPrice:  decimal.RequireFromString("150.00"),
			Currency:    "USD",
			EndTime:     now.Add(72 * time.Hour),
		},
	}

	for _, a := range auctions {
		store.AddAuction(a)
	}
}
