package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository/dao"
)

var ErrBookingNotFound = dao.ErrBookingNotFound

type BookingDAO interface {
	Insert(ctx context.Context, booking dao.Booking) (dao.Booking, error)
	FindByID(ctx context.Context, id uint) (dao.Booking, error)
	FindByResourceID(ctx context.Context, resourceID uint) ([]dao.Booking, error)
	FindByRequesterID(ctx context.Context, requesterID uint) ([]dao.Booking, error)
	TransitionFromPending(ctx context.Context, id uint, newStatus, meetingLink string) (bool, error)
	AttachMeetingLink(ctx context.Context, id uint, meetingLink string) (bool, error)
}

type BookingRepository struct {
	dao BookingDAO
}

func NewBookingRepository(dao BookingDAO) *BookingRepository {
	return &BookingRepository{
		dao: dao,
	}
}

func (r *BookingRepository) domainToDao(b domain.Booking) dao.Booking {
	return dao.Booking{
		ID:              b.ID,
		ResourceID:      b.ResourceID,
		RequesterName:   b.RequesterName,
		RequesterID:     b.RequesterID,
		StartTime:       b.StartTime,
		DurationMinutes: b.DurationMinutes,
		HourlyRate:      b.HourlyRate,
		Total:           b.Total,
		Status:          b.Status,
		MeetingLink:     b.MeetingLink,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r *BookingRepository) daoToDomain(b dao.Booking) domain.Booking {
	return domain.Booking{
		ID:              b.ID,
		ResourceID:      b.ResourceID,
		RequesterName:   b.RequesterName,
		RequesterID:     b.RequesterID,
		StartTime:       b.StartTime,
		DurationMinutes: b.DurationMinutes,
		HourlyRate:      b.HourlyRate,
		Total:           b.Total,
		Status:          b.Status,
		MeetingLink:     b.MeetingLink,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(booking))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uint) (domain.Booking, error) {
	booking, err := r.dao.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrBookingNotFound) {
			return domain.Booking{}, err
		}

		return domain.Booking{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(booking), nil
}

func (r *BookingRepository) ListByResource(ctx context.Context, resourceID uint) ([]domain.Booking, error) {
	bookings, err := r.dao.FindByResourceID(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByResourceID -> %w", err)
	}

	result := make([]domain.Booking, len(bookings))
	for i, b := range bookings {
		result[i] = r.daoToDomain(b)
	}

	return result, nil
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID uint) ([]domain.Booking, error) {
	bookings, err := r.dao.FindByRequesterID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRequesterID -> %w", err)
	}

	result := make([]domain.Booking, len(bookings))
	for i, b := range bookings {
		result[i] = r.daoToDomain(b)
	}

	return result, nil
}

func (r *BookingRepository) TransitionFromPending(ctx context.Context, id uint, newStatus, meetingLink string) (bool, error) {
	changed, err := r.dao.TransitionFromPending(ctx, id, newStatus, meetingLink)
	if err != nil {
		return false, fmt.Errorf("r.dao.TransitionFromPending -> %w", err)
	}

	return changed, nil
}

func (r *BookingRepository) AttachMeetingLink(ctx context.Context, id uint, meetingLink string) (bool, error) {
	changed, err := r.dao.AttachMeetingLink(ctx, id, meetingLink)
	if err != nil {
		return false, fmt.Errorf("r.dao.AttachMeetingLink -> %w", err)
	}

	return changed, nil
}
