package biderrors

import "errors"

// Authority-side errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionEnded    = errors.New("auction already ended")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrNoPrice         = errors.New("auction has neither a current bid nor a start price")
	ErrInvalidBid      = errors.New("invalid bid")
	ErrBidTooLow       = errors.New("bid amount too low")
)

// Client submission errors
var (
	ErrInvalidAmount      = errors.New("bid amount is not a positive number")
	ErrBelowMinimum       = errors.New("bid amount below the current minimum")
	ErrAuthRequired       = errors.New("authentication required to place a bid")
	ErrBidRejected        = errors.New("bid rejected by the backend")
	ErrTransport          = errors.New("backend unreachable")
	ErrSubmissionInFlight = errors.New("a bid submission is already in progress")
)
