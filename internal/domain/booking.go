package domain

import "time"

const (
	BookingPending  = "pending"
	BookingAccepted = "accepted"
	BookingRejected = "rejected"
)

// Booking is a scheduling request against a tutoring session resource.
// It does not occupy a roster slot; the owner decides its fate.
type Booking struct {
	ID              uint      `json:"id"`
	ResourceID      uint      `json:"resource_id"`
	RequesterName   string    `json:"requester_name"`
	RequesterID     *uint     `json:"requester_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	HourlyRate      float64   `json:"hourly_rate"` // Snapshot taken at creation.
	Total           float64   `json:"total"`
	Status          string    `json:"status"` // "pending", "accepted" or "rejected"
	MeetingLink     string    `json:"meeting_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b Booking) IsTerminal() bool {
	return b.Status == BookingAccepted || b.Status == BookingRejected
}
