package bidclient

import (
	"context"
	"errors"
	"testing"

	"marketplace-bidding/internal/biderrors"
	"marketplace-bidding/internal/minbid"
	model "marketplace-bidding/internal/models"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeIdentity struct {
	userID string
	signed bool
}

func (f fakeIdentity) CurrentUserID() (string, bool) {
	return f.userID, f.signed
}

type recordingInvalidator struct {
	keys []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, keys ...string) error {
	r.keys = append(r.keys, keys...)
	return nil
}

func testAuction(currentBid *decimal.Decimal) model.Auction {
	return model.Auction{
		AuctionID:  "auction1",
		Title:      "title1",
		StartPrice: dec("100.00"),
		CurrentBid: currentBid,
		Currency:   "EUR",
	}
}

func newTestSession(t *testing.T, currentBid *decimal.Decimal, signedIn bool) (*Session, *MockBackend, *recordingInvalidator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	backend := NewMockBackend(ctrl)
	invalidator := &recordingInvalidator{}
	session := NewSession(testAuction(currentBid), backend, fakeIdentity{userID: "user1", signed: signedIn}, invalidator, minbid.New(dec("0.50")))
	return session, backend, invalidator
}

// The draft seeds to the minimum bid when the form mounts.
func TestNewSession_SeedsDraftToMinimum(t *testing.T) {
	t.Parallel()

	t.Run("no_bids_yet", func(t *testing.T) {
		session, _, _ := newTestSession(t, nil, true)

		draft, edited := session.Draft()
		require.Equal(t, "100.00", draft)
		require.False(t, edited)
	})

	t.Run("existing_current_bid", func(t *testing.T) {
		session, _, _ := newTestSession(t, decPtr("120.00"), true)

		draft, edited := session.Draft()
		require.Equal(t, "120.50", draft)
		require.False(t, edited)

		minimum, err := session.MinimumBid()
		require.NoError(t, err)
		require.True(t, minimum.Equal(dec("120.50")))
	})
}

// Local validation failures must never reach the backend: no EXPECT is set,
// so any call would fail the controller.
func TestSession_Submit_LocalValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		draft         string
		signedIn      bool
		expectedError error
	}{
		{name: "not_a_number", draft: "abc", signedIn: true, expectedError: biderrors.ErrInvalidAmount},
		{name: "empty_draft", draft: "", signedIn: true, expectedError: biderrors.ErrInvalidAmount},
		{name: "negative_amount", draft: "-5.00", signedIn: true, expectedError: biderrors.ErrInvalidAmount},
		{name: "zero_amount", draft: "0", signedIn: true, expectedError: biderrors.ErrInvalidAmount},
		{name: "below_minimum", draft: "99.99", signedIn: true, expectedError: biderrors.ErrBelowMinimum},
		{name: "unauthenticated", draft: "150.00", signedIn: false, expectedError: biderrors.ErrAuthRequired},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			session, _, _ := newTestSession(t, nil, tc.signedIn)
			session.SetDraft(tc.draft)

			_, err := session.Submit(context.Background())
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
			require.Equal(t, StateIdle, session.State())

			// Failed validation leaves the typed draft alone.
			draft, edited := session.Draft()
			require.Equal(t, tc.draft, draft)
			require.True(t, edited)
		})
	}
}

// The below-minimum message states the exact minimum.
func TestSession_Submit_BelowMinimumNamesExactMinimum(t *testing.T) {
	t.Parallel()

	session, _, _ := newTestSession(t, decPtr("100.00"), true)
	session.SetDraft("100.25")

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, biderrors.ErrBelowMinimum))
	require.Contains(t, err.Error(), "100.50")
}

// An accepted bid adopts the backend-confirmed amount, resets the edited
// flag, recomputes the draft and invalidates dependent cached reads.
func TestSession_Submit_Accepted(t *testing.T) {
	t.Parallel()

	session, backend, invalidator := newTestSession(t, nil, true)

	var notified []decimal.Decimal
	session.OnBidAccepted(func(currentBid decimal.Decimal) {
		notified = append(notified, currentBid)
	})

	session.SetDraft("100.00")
	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("100.00")).
		Return(Outcome{Accepted: true, Message: "bid recorded successfully", CurrentBid: dec("100.00")}, nil)

	outcome, err := session.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Accepted)

	draft, edited := session.Draft()
	require.Equal(t, "100.50", draft)
	require.False(t, edited)

	minimum, err := session.MinimumBid()
	require.NoError(t, err)
	require.True(t, minimum.Equal(dec("100.50")))

	require.Equal(t, []string{"auction:auction1", "auction:auction1:bids"}, invalidator.keys)
	require.Len(t, notified, 1)
	require.True(t, notified[0].Equal(dec("100.00")))
}

// The session displays the backend's confirmed amount even when it differs
// from the locally typed one (a concurrent bidder raced us upward).
func TestSession_Submit_AdoptsAuthoritativeAmount(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, nil, true)
	session.SetDraft("100.00")

	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("100.00")).
		Return(Outcome{Accepted: true, CurrentBid: dec("240.00")}, nil)

	_, err := session.Submit(context.Background())
	require.NoError(t, err)

	minimum, err := session.MinimumBid()
	require.NoError(t, err)
	require.True(t, minimum.Equal(dec("240.50")), "minimum should derive from the confirmed amount, got %s", minimum)
}

// A backend rejection surfaces its reason verbatim and leaves local state
// untouched: nothing was optimistically applied, nothing to roll back.
func TestSession_Submit_BackendRejected(t *testing.T) {
	t.Parallel()

	session, backend, invalidator := newTestSession(t, decPtr("100.00"), true)
	session.SetDraft("150.00")

	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("150.00")).
		Return(Outcome{Accepted: false, Message: "bid amount too low - minimum bid is 180.50"}, nil)

	outcome, err := session.Submit(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, biderrors.ErrBidRejected))
	require.Contains(t, err.Error(), "bid amount too low - minimum bid is 180.50")
	require.Equal(t, "bid amount too low - minimum bid is 180.50", outcome.Message)

	draft, edited := session.Draft()
	require.Equal(t, "150.00", draft)
	require.True(t, edited)
	require.Empty(t, invalidator.keys)
}

// Transport failures are retryable and leave state untouched.
func TestSession_Submit_TransportFailure(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, nil, true)
	session.SetDraft("100.00")

	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("100.00")).
		Return(Outcome{}, errors.New("connection refused"))

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, biderrors.ErrTransport))
	require.Equal(t, StateIdle, session.State())

	// Retry without additional cleanup succeeds.
	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("100.00")).
		Return(Outcome{Accepted: true, CurrentBid: dec("100.00")}, nil)

	_, err = session.Submit(context.Background())
	require.NoError(t, err)
}

// A second submit while one is outstanding is refused.
func TestSession_Submit_RefusedWhileInFlight(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, nil, true)
	session.SetDraft("100.00")

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("100.00")).
		DoAndReturn(func(context.Context, string, string, decimal.Decimal) (Outcome, error) {
			close(entered)
			<-release
			return Outcome{Accepted: true, CurrentBid: dec("100.00")}, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background())
		done <- err
	}()

	<-entered
	require.Equal(t, StateSubmitting, session.State())
	_, err := session.Submit(context.Background())
	require.True(t, errors.Is(err, biderrors.ErrSubmissionInFlight))

	close(release)
	require.NoError(t, <-done)
}

// Refresh updates the draft only while the user has not edited it.
func TestSession_Refresh_Reconciliation(t *testing.T) {
	t.Parallel()

	t.Run("untouched_draft_follows_minimum", func(t *testing.T) {
		session, backend, _ := newTestSession(t, nil, true)

		backend.EXPECT().HighestBid(gomock.Any(), "auction1").Return(dec("130.00"), true, nil)
		require.NoError(t, session.Refresh(context.Background()))

		draft, edited := session.Draft()
		require.Equal(t, "130.50", draft)
		require.False(t, edited)
	})

	t.Run("edited_draft_is_never_overwritten", func(t *testing.T) {
		session, backend, _ := newTestSession(t, nil, true)
		session.SetDraft("200.00")

		backend.EXPECT().HighestBid(gomock.Any(), "auction1").Return(dec("130.00"), true, nil)
		require.NoError(t, session.Refresh(context.Background()))

		draft, edited := session.Draft()
		require.Equal(t, "200.00", draft)
		require.True(t, edited)

		// The floor still tracks the authoritative amount underneath.
		minimum, err := session.MinimumBid()
		require.NoError(t, err)
		require.True(t, minimum.Equal(dec("130.50")))
	})

	t.Run("no_bids_keeps_start_price_floor", func(t *testing.T) {
		session, backend, _ := newTestSession(t, nil, true)

		backend.EXPECT().HighestBid(gomock.Any(), "auction1").Return(decimal.Decimal{}, false, nil)
		require.NoError(t, session.Refresh(context.Background()))

		minimum, err := session.MinimumBid()
		require.NoError(t, err)
		require.True(t, minimum.Equal(dec("100.00")))
	})
}

// A slow earlier refresh resolving after a faster later one must be
// discarded, otherwise the displayed bid would move backward.
func TestSession_Refresh_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, nil, true)

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.EXPECT().
		HighestBid(gomock.Any(), "auction1").
		DoAndReturn(func(context.Context, string) (decimal.Decimal, bool, error) {
			close(entered)
			<-release
			return dec("150.00"), true, nil
		})
	backend.EXPECT().HighestBid(gomock.Any(), "auction1").Return(dec("300.00"), true, nil)

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- session.Refresh(context.Background())
	}()

	<-entered
	// A later refresh resolves first with the newer amount.
	require.NoError(t, session.Refresh(context.Background()))

	close(release)
	require.NoError(t, <-slowDone)

	minimum, err := session.MinimumBid()
	require.NoError(t, err)
	require.True(t, minimum.Equal(dec("300.50")), "stale 150.00 response must not revert the floor, got %s", minimum)

	draft, _ := session.Draft()
	require.Equal(t, "300.50", draft)
}

// An acceptance between a refresh being initiated and resolving supersedes
// that refresh.
func TestSession_Refresh_SupersededByAcceptedBid(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, nil, true)

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.EXPECT().
		HighestBid(gomock.Any(), "auction1").
		DoAndReturn(func(context.Context, string) (decimal.Decimal, bool, error) {
			close(entered)
			<-release
			return dec("100.00"), true, nil
		})

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- session.Refresh(context.Background())
	}()
	<-entered

	session.SetDraft("500.00")
	backend.EXPECT().
		PlaceBid(gomock.Any(), "auction1", "user1", dec("500.00")).
		Return(Outcome{Accepted: true, CurrentBid: dec("500.00")}, nil)
	_, err := session.Submit(context.Background())
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-slowDone)

	minimum, err := session.MinimumBid()
	require.NoError(t, err)
	require.True(t, minimum.Equal(dec("500.50")), "refresh initiated before acceptance must not apply, got %s", minimum)
}

// Refresh transport failures surface as retryable and change nothing.
func TestSession_Refresh_TransportFailure(t *testing.T) {
	t.Parallel()

	session, backend, _ := newTestSession(t, decPtr("100.00"), true)

	backend.EXPECT().HighestBid(gomock.Any(), "auction1").Return(decimal.Decimal{}, false, errors.New("timeout"))

	err := session.Refresh(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, biderrors.ErrTransport))

	minimum, merr := session.MinimumBid()
	require.NoError(t, merr)
	require.True(t, minimum.Equal(dec("100.50")))
}
