package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Booking struct {
	ID              uint  `gorm:"primaryKey"`
	ResourceID      uint  `gorm:"not null;index"`
	RequesterName   string
	RequesterID     *uint
	StartTime       time.Time
	DurationMinutes int
	HourlyRate      float64
	Total           float64
	Status          string `gorm:"not null;default:pending"` // "pending", "accepted" or "rejected"
	MeetingLink     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BookingDAO struct {
	db *gorm.DB
}

func NewBookingDAO(db *gorm.DB) *BookingDAO {
	return &BookingDAO{
		db: db,
	}
}

func (d *BookingDAO) Insert(ctx context.Context, booking Booking) (Booking, error) {
	result := d.db.WithContext(ctx).Create(&booking)
	if result.Error != nil {
		return Booking{}, result.Error
	}

	return booking, nil
}

func (d *BookingDAO) FindByID(ctx context.Context, id uint) (Booking, error) {
	var booking Booking

	result := d.db.WithContext(ctx).First(&booking, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Booking{}, ErrBookingNotFound
		}

		return Booking{}, result.Error
	}

	return booking, nil
}

func (d *BookingDAO) FindByResourceID(ctx context.Context, resourceID uint) ([]Booking, error) {
	var bookings []Booking

	result := d.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("start_time").
		Find(&bookings)
	if result.Error != nil {
		return nil, result.Error
	}

	return bookings, nil
}

func (d *BookingDAO) FindByRequesterID(ctx context.Context, requesterID uint) ([]Booking, error) {
	var bookings []Booking

	result := d.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("start_time").
		Find(&bookings)
	if result.Error != nil {
		return nil, result.Error
	}

	return bookings, nil
}

// TransitionFromPending moves a booking out of "pending" with a conditional
// update, so a racing transition on the same booking loses cleanly instead of
// overwriting a terminal state. It reports whether any row changed.
func (d *BookingDAO) TransitionFromPending(ctx context.Context, id uint, newStatus, meetingLink string) (bool, error) {
	updates := map[string]interface{}{
		"status": newStatus,
	}
	if meetingLink != "" {
		updates["meeting_link"] = meetingLink
	}

	result := d.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, "pending").
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// AttachMeetingLink sets the meeting link on an already accepted booking.
func (d *BookingDAO) AttachMeetingLink(ctx context.Context, id uint, meetingLink string) (bool, error) {
	result := d.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, "accepted").
		Update("meeting_link", meetingLink)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
