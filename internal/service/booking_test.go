package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository"
)

type fakeBookingRepo struct {
	bookings map[uint]domain.Booking
	nextID   uint
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uint]domain.Booking),
	}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking domain.Booking) (domain.Booking, error) {
	r.nextID++
	booking.ID = r.nextID
	r.bookings[booking.ID] = booking

	return booking, nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uint) (domain.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, repository.ErrBookingNotFound
	}

	return booking, nil
}

func (r *fakeBookingRepo) ListByResource(_ context.Context, resourceID uint) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range r.bookings {
		if b.ResourceID == resourceID {
			result = append(result, b)
		}
	}

	return result, nil
}

func (r *fakeBookingRepo) ListByRequester(_ context.Context, requesterID uint) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range r.bookings {
		if b.RequesterID != nil && *b.RequesterID == requesterID {
			result = append(result, b)
		}
	}

	return result, nil
}

func (r *fakeBookingRepo) TransitionFromPending(_ context.Context, id uint, newStatus, meetingLink string) (bool, error) {
	booking, ok := r.bookings[id]
	if !ok || booking.Status != domain.BookingPending {
		return false, nil
	}

	booking.Status = newStatus
	if meetingLink != "" {
		booking.MeetingLink = meetingLink
	}
	r.bookings[id] = booking

	return true, nil
}

func (r *fakeBookingRepo) AttachMeetingLink(_ context.Context, id uint, meetingLink string) (bool, error) {
	booking, ok := r.bookings[id]
	if !ok || booking.Status != domain.BookingAccepted {
		return false, nil
	}

	booking.MeetingLink = meetingLink
	r.bookings[id] = booking

	return true, nil
}

func newBookingFixture(t *testing.T) (*BookingService, *fakeBookingRepo) {
	t.Helper()

	resourceRepo := newFakeAdmissionRepo(domain.Resource{
		ID:              1,
		Kind:            domain.ResourceKindSession,
		OwnerID:         5,
		HourlyRate:      20,
		MaxParticipants: 10,
	})
	repo := newFakeBookingRepo()

	return NewBookingService(repo, resourceRepo), repo
}

func TestBookingService_Create(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	t.Run("prices from the current rate and normalized duration", func(t *testing.T) {
		svc, _ := newBookingFixture(t)

		requesterID := uint(10)
		booking, err := svc.Create(context.Background(), 1, "Ada", &requesterID, start, 50)
		require.NoError(t, err)

		assert.Equal(t, domain.BookingPending, booking.Status)
		assert.Equal(t, 60, booking.DurationMinutes)
		assert.Equal(t, 20.0, booking.HourlyRate)
		assert.Equal(t, 20.00, booking.Total)
	})

	t.Run("total survives a later rate change", func(t *testing.T) {
		resourceRepo := newFakeAdmissionRepo(domain.Resource{ID: 1, OwnerID: 5, HourlyRate: 20})
		repo := newFakeBookingRepo()
		svc := NewBookingService(repo, resourceRepo)

		booking, err := svc.Create(context.Background(), 1, "Ada", nil, start, 60)
		require.NoError(t, err)

		res := resourceRepo.resources[1]
		res.HourlyRate = 45
		resourceRepo.resources[1] = res

		current, err := svc.GetBooking(context.Background(), booking.ID)
		require.NoError(t, err)
		assert.Equal(t, 20.00, current.Total)
		assert.Equal(t, 20.0, current.HourlyRate)
	})

	t.Run("missing resource id", func(t *testing.T) {
		svc, _ := newBookingFixture(t)

		_, err := svc.Create(context.Background(), 0, "Ada", nil, start, 60)
		assert.ErrorIs(t, err, ErrMissingResourceID)
	})

	t.Run("unknown resource", func(t *testing.T) {
		svc, _ := newBookingFixture(t)

		_, err := svc.Create(context.Background(), 99, "Ada", nil, start, 60)
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})
}

func TestBookingService_Transition(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	owner := domain.User{ID: 5, Role: "tutor"}
	stranger := domain.User{ID: 77, Role: "tutor"}
	admin := domain.User{ID: 1, Role: "admin"}

	createPending := func(t *testing.T, svc *BookingService) domain.Booking {
		t.Helper()

		booking, err := svc.Create(context.Background(), 1, "Ada", nil, start, 60)
		require.NoError(t, err)

		return booking
	}

	t.Run("owner accepts with a meeting link", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		accepted, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "https://meet.example/abc")
		require.NoError(t, err)

		assert.Equal(t, domain.BookingAccepted, accepted.Status)
		assert.Equal(t, "https://meet.example/abc", accepted.MeetingLink)
	})

	t.Run("admin may decide on someone else's resource", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		rejected, err := svc.Transition(context.Background(), booking.ID, admin, domain.BookingRejected, "")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingRejected, rejected.Status)
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, stranger, domain.BookingAccepted, "")
		assert.ErrorIs(t, err, ErrNotResourceOwner)
	})

	t.Run("invalid target status", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, owner, "pending", "")
		assert.ErrorIs(t, err, ErrInvalidBookingStatus)
	})

	t.Run("repeating the decision is a no-op", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "https://meet.example/abc")
		require.NoError(t, err)

		again, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingAccepted, again.Status)
		assert.Equal(t, "https://meet.example/abc", again.MeetingLink)
	})

	t.Run("accepted booking can change its meeting link", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "https://meet.example/abc")
		require.NoError(t, err)

		updated, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "https://meet.example/xyz")
		require.NoError(t, err)
		assert.Equal(t, "https://meet.example/xyz", updated.MeetingLink)
	})

	t.Run("reversing a terminal decision is a conflict", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingRejected, "")
		require.NoError(t, err)

		_, err = svc.Transition(context.Background(), booking.ID, owner, domain.BookingAccepted, "")
		assert.ErrorIs(t, err, ErrTerminalBooking)
	})

	t.Run("rejected booking refuses a meeting link", func(t *testing.T) {
		svc, _ := newBookingFixture(t)
		booking := createPending(t, svc)

		_, err := svc.Transition(context.Background(), booking.ID, owner, domain.BookingRejected, "")
		require.NoError(t, err)

		_, err = svc.Transition(context.Background(), booking.ID, owner, domain.BookingRejected, "https://meet.example/abc")
		assert.ErrorIs(t, err, ErrRejectedImmutable)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, _ := newBookingFixture(t)

		_, err := svc.Transition(context.Background(), 99, owner, domain.BookingAccepted, "")
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestBookingService_Listing(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	owner := domain.User{ID: 5, Role: "tutor"}
	stranger := domain.User{ID: 77, Role: "student"}

	svc, _ := newBookingFixture(t)
	ctx := context.Background()

	requesterID := uint(10)
	_, err := svc.Create(ctx, 1, "Ada", &requesterID, start, 60)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "Grace", nil, start.Add(2*time.Hour), 30)
	require.NoError(t, err)

	t.Run("owner lists resource bookings", func(t *testing.T) {
		bookings, err := svc.BookingsForResource(ctx, 1, owner)
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
	})

	t.Run("stranger cannot list resource bookings", func(t *testing.T) {
		_, err := svc.BookingsForResource(ctx, 1, stranger)
		assert.ErrorIs(t, err, ErrNotResourceOwner)
	})

	t.Run("requester sees only their own", func(t *testing.T) {
		bookings, err := svc.BookingsForRequester(ctx, requesterID)
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, "Ada", bookings[0].RequesterName)
	})
}
