package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bidsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bidding_bids_accepted_total",
		Help: "Number of bids accepted by the bid authority.",
	})
	bidsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bidding_bids_rejected_total",
		Help: "Number of bids rejected, by reason.",
	}, []string{"reason"})
)

func rejectionReason(status int) string {
	switch status {
	case 404:
		return "auction_not_found"
	case 400:
		return "invalid_bid"
	case 409:
		return "bid_too_low"
	case 410:
		return "auction_ended"
	default:
		return "internal_error"
	}
}
