package domain

import "time"

const (
	ResourceKindSession    = "session"
	ResourceKindTournament = "tournament"
)

const (
	ParticipationRegistered = "registered"
	ParticipationWaitlist   = "waitlist"
)

// Resource is a capacity-bounded offering that users can join:
// a tutoring session slot or a tournament roster.
type Resource struct {
	ID              uint      `json:"id"`
	Kind            string    `json:"kind"`
	OwnerID         uint      `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	HourlyRate      float64   `json:"hourly_rate"` // Only for sessions.
	Prize           string    `json:"prize"`       // Only for tournaments.
	MaxParticipants int       `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Participation links one user (or an anonymous display name) to one resource.
// There is at most one record per (resource, user) pair.
type Participation struct {
	ID          uint      `json:"id"`
	ResourceID  uint      `json:"resource_id"`
	UserID      *uint     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"` // "registered" or "waitlist"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
