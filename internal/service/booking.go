package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository"
)

var (
	ErrBookingNotFound      = repository.ErrBookingNotFound
	ErrMissingResourceID    = errors.New("resource id is required")
	ErrInvalidBookingStatus = errors.New("status must be accepted or rejected")
	ErrNotResourceOwner     = errors.New("actor does not own the booked resource")
	ErrTerminalBooking      = errors.New("booking is already in a terminal state")
	ErrRejectedImmutable    = errors.New("rejected bookings cannot be modified")
)

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	GetByID(ctx context.Context, id uint) (domain.Booking, error)
	ListByResource(ctx context.Context, resourceID uint) ([]domain.Booking, error)
	ListByRequester(ctx context.Context, requesterID uint) ([]domain.Booking, error)
	TransitionFromPending(ctx context.Context, id uint, newStatus, meetingLink string) (bool, error)
	AttachMeetingLink(ctx context.Context, id uint, meetingLink string) (bool, error)
}

type BookingResourceRepository interface {
	GetByID(ctx context.Context, id uint) (domain.Resource, error)
}

type BookingService struct {
	repo         BookingRepository
	resourceRepo BookingResourceRepository
}

func NewBookingService(repo BookingRepository, resourceRepo BookingResourceRepository) *BookingService {
	return &BookingService{
		repo:         repo,
		resourceRepo: resourceRepo,
	}
}

// Create records a scheduling request against a tutoring session. Bookings
// never occupy roster slots, so no capacity check applies; the owner rejects
// the excess. The resource's hourly rate is snapshotted and the total is
// computed once, here, so later rate changes leave the booking untouched.
// There is no degraded mode for creation: storage failures surface to the caller.
func (s *BookingService) Create(ctx context.Context, resourceID uint, requesterName string, requesterID *uint, startTime time.Time, durationMinutes int) (domain.Booking, error) {
	if resourceID == 0 {
		return domain.Booking{}, ErrMissingResourceID
	}

	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) || errors.Is(err, repository.ErrStorageUnavailable) {
			return domain.Booking{}, err
		}

		return domain.Booking{}, fmt.Errorf("s.resourceRepo.GetByID -> %w", err)
	}

	minutes := NormalizeDuration(durationMinutes)

	booking := domain.Booking{
		ResourceID:      resourceID,
		RequesterName:   requesterName,
		RequesterID:     requesterID,
		StartTime:       startTime,
		DurationMinutes: minutes,
		HourlyRate:      resource.HourlyRate,
		Total:           Price(resource.HourlyRate, minutes),
		Status:          domain.BookingPending,
	}

	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// Transition moves a booking to accepted or rejected. Only the owning tutor
// or an admin may call it. Repeating the current status is a no-op returning
// the current state; leaving a terminal state is a conflict. A meeting link
// may be attached when accepting, or later while the booking is still
// accepted, but never on a rejected booking.
func (s *BookingService) Transition(ctx context.Context, bookingID uint, actor domain.User, newStatus, meetingLink string) (domain.Booking, error) {
	if newStatus != domain.BookingAccepted && newStatus != domain.BookingRejected {
		return domain.Booking{}, ErrInvalidBookingStatus
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return domain.Booking{}, ErrBookingNotFound
		}

		return domain.Booking{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	resource, err := s.resourceRepo.GetByID(ctx, booking.ResourceID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.resourceRepo.GetByID -> %w", err)
	}

	if resource.OwnerID != actor.ID && !actor.IsAdmin() {
		return domain.Booking{}, ErrNotResourceOwner
	}

	if booking.Status == newStatus {
		return s.repeatTransition(ctx, booking, meetingLink)
	}

	if booking.IsTerminal() {
		return domain.Booking{}, ErrTerminalBooking
	}

	changed, err := s.repo.TransitionFromPending(ctx, bookingID, newStatus, meetingLink)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.TransitionFromPending -> %w", err)
	}

	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if !changed {
		// Lost a race: someone else moved the booking first. Identical
		// outcomes are fine, anything else is a conflict.
		if current.Status != newStatus {
			return domain.Booking{}, ErrTerminalBooking
		}
	}

	return current, nil
}

// repeatTransition handles the idempotent case. An accepted booking may still
// pick up or change its meeting link; a rejected one takes no mutation at all.
func (s *BookingService) repeatTransition(ctx context.Context, booking domain.Booking, meetingLink string) (domain.Booking, error) {
	if meetingLink == "" || meetingLink == booking.MeetingLink {
		return booking, nil
	}

	if booking.Status == domain.BookingRejected {
		return domain.Booking{}, ErrRejectedImmutable
	}

	if _, err := s.repo.AttachMeetingLink(ctx, booking.ID, meetingLink); err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.AttachMeetingLink -> %w", err)
	}

	current, err := s.repo.GetByID(ctx, booking.ID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return current, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uint) (domain.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return domain.Booking{}, ErrBookingNotFound
		}

		return domain.Booking{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return booking, nil
}

// BookingsForResource lists every booking against a resource, for its owner.
func (s *BookingService) BookingsForResource(ctx context.Context, resourceID uint, actor domain.User) ([]domain.Booking, error) {
	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("s.resourceRepo.GetByID -> %w", err)
	}

	if resource.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotResourceOwner
	}

	bookings, err := s.repo.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByResource -> %w", err)
	}

	return bookings, nil
}

func (s *BookingService) BookingsForRequester(ctx context.Context, requesterID uint) ([]domain.Booking, error) {
	bookings, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByRequester -> %w", err)
	}

	return bookings, nil
}
