package response

import "github.com/campuslink/campuslink-api/internal/domain"

type JoinResponse struct {
	Outcome    string `json:"outcome"` // "admitted" or "waitlisted"
	Registered int    `json:"registered"`
	Capacity   int    `json:"capacity"`
	Degraded   bool   `json:"degraded,omitempty"`
	Advisory   bool   `json:"advisory,omitempty"`
}

type LeaveResponse struct {
	Message  string                `json:"message"`
	Promoted *domain.Participation `json:"promoted,omitempty"`
}
