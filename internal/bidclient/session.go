package bidclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"marketplace-bidding/internal/biderrors"
	"marketplace-bidding/internal/minbid"
	model "marketplace-bidding/internal/models"
	"marketplace-bidding/utils"

	"github.com/shopspring/decimal"
)

// State identifies where a session is in the submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

// Session owns the bid submission lifecycle for one auction and one viewer.
// A session lives as long as the bid form for that auction; navigating to a
// different auction means a new session, which is what resets the draft and
// its edited flag.
type Session struct {
	auctionID   string
	backend     Backend
	identity    Identity
	invalidator Invalidator
	calc        minbid.Calculator

	mu         sync.Mutex
	state      State
	startPrice *decimal.Decimal
	currentBid *decimal.Decimal
	draft      string
	edited     bool
	generation uint64
	onAccepted []func(currentBid decimal.Decimal)
}

// NewSession creates a session seeded from the auction detail the page
// already fetched. The draft starts at the current minimum bid.
func NewSession(a model.Auction, backend Backend, identity Identity, invalidator Invalidator, calc minbid.Calculator) *Session {
	s := &Session{
		auctionID:   a.AuctionID,
		backend:     backend,
		identity:    identity,
		invalidator: invalidator,
		calc:        calc,
	}
	start := a.StartPrice
	s.startPrice = &start
	if a.CurrentBid != nil {
		current := *a.CurrentBid
		s.currentBid = &current
	}
	if minimum, err := s.minimumLocked(); err == nil {
		s.draft = minimum.StringFixed(2)
	}
	return s
}

// caller must hold s.mu (or the session must not be shared yet)
func (s *Session) minimumLocked() (decimal.Decimal, error) {
	return s.calc.Minimum(s.currentBid, s.startPrice)
}

// AuctionID returns the auction this session bids on
func (s *Session) AuctionID() string {
	return s.auctionID
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MinimumBid returns the smallest amount Submit would currently accept
func (s *Session) MinimumBid() (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minimumLocked()
}

// Draft returns the editable bid amount and whether the user has edited it
// since the last authoritative update
func (s *Session) Draft() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.edited
}

// SetDraft records a user edit. Once edited, authoritative refreshes no
// longer overwrite the draft until a submission succeeds.
func (s *Session) SetDraft(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = value
	s.edited = true
}

// OnBidAccepted registers a listener for locally accepted bids, invoked with
// the backend-confirmed current bid. Listeners run outside the session lock.
func (s *Session) OnBidAccepted(fn func(currentBid decimal.Decimal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAccepted = append(s.onAccepted, fn)
}

// Submit validates the draft and, when it passes, sends it to the backend.
// The backend decides acceptance; on success the session adopts the returned
// authoritative amount (never the typed one), clears the edited flag, resets
// the draft to the new minimum and invalidates dependent cached reads.
// A second Submit while one is outstanding is refused.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return Outcome{}, biderrors.ErrSubmissionInFlight
	}
	s.state = StateValidating

	minimum, err := s.minimumLocked()
	if err != nil {
		s.state = StateIdle
		s.mu.Unlock()
		return Outcome{}, err
	}

	raw := strings.TrimSpace(s.draft)
	amount, perr := decimal.NewFromString(raw)
	if perr != nil || amount.Sign() <= 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %q", biderrors.ErrInvalidAmount, raw)
	}
	if amount.LessThan(minimum) {
		s.state = StateIdle
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: minimum bid is %s", biderrors.ErrBelowMinimum, minimum.StringFixed(2))
	}

	bidderID, ok := s.identity.CurrentUserID()
	if !ok {
		s.state = StateIdle
		s.mu.Unlock()
		return Outcome{}, biderrors.ErrAuthRequired
	}

	s.state = StateSubmitting
	auctionID := s.auctionID
	s.mu.Unlock()

	outcome, err := s.backend.PlaceBid(ctx, auctionID, bidderID, amount)

	s.mu.Lock()
	s.state = StateIdle
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %v", biderrors.ErrTransport, err)
	}
	if !outcome.Accepted {
		// Rejection reason is surfaced verbatim; displayed state stays as is.
		s.mu.Unlock()
		return outcome, fmt.Errorf("%w: %s", biderrors.ErrBidRejected, outcome.Message)
	}

	// Adopt the backend-confirmed amount, not the locally typed one, so a
	// concurrent higher bidder cannot leave us displaying a stale floor.
	confirmed := outcome.CurrentBid
	s.currentBid = &confirmed
	s.edited = false
	s.generation++ // refreshes initiated before this acceptance are stale now
	if minimum, merr := s.minimumLocked(); merr == nil {
		s.draft = minimum.StringFixed(2)
	}
	listeners := append(([]func(decimal.Decimal))(nil), s.onAccepted...)
	s.mu.Unlock()

	if s.invalidator != nil {
		if ierr := s.invalidator.Invalidate(ctx, AuctionDetailKey(auctionID), BidHistoryKey(auctionID)); ierr != nil {
			utils.Warn("failed to invalidate cached reads after accepted bid", map[string]any{
				"auction_id": auctionID,
				"error":      ierr.Error(),
			})
		}
	}
	for _, fn := range listeners {
		fn(confirmed)
	}
	return outcome, nil
}

// Refresh fetches the authoritative highest bid and reconciles it into the
// session. Only the most recently initiated refresh may apply its result:
// a slow earlier fetch resolving after a faster later one is discarded, so
// the displayed bid can never move backward. The draft is overwritten only
// when the user has not edited it.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	auctionID := s.auctionID
	s.mu.Unlock()

	amount, ok, err := s.backend.HighestBid(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("%w: %v", biderrors.ErrTransport, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Superseded by a newer refresh or an accepted bid.
		return nil
	}
	if ok {
		s.currentBid = &amount
	}
	if !s.edited {
		if minimum, merr := s.minimumLocked(); merr == nil {
			s.draft = minimum.StringFixed(2)
		}
	}
	return nil
}

// BidHistory loads the auction's bid history through the backend
func (s *Session) BidHistory(ctx context.Context) ([]model.Bid, error) {
	bids, err := s.backend.BidHistory(ctx, s.auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", biderrors.ErrTransport, err)
	}
	return bids, nil
}
