package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateBookingRequest struct {
	RequesterName   string `json:"requester_name" binding:"required"`
	StartTime       string `json:"start_time" binding:"required" format:"RFC3339"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

func (req *CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RequesterName, validation.Required, validation.Length(2, 50)),
		validation.Field(&req.StartTime, validation.Required),
		validation.Field(&req.DurationMinutes, validation.Required, validation.Min(1), validation.Max(8*60)),
	)
}

type TransitionBookingRequest struct {
	Status      string `json:"status" binding:"required"`
	MeetingLink string `json:"meeting_link"`
}

func (req *TransitionBookingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In("accepted", "rejected")),
		validation.Field(&req.MeetingLink, validation.Length(0, 200)),
	)
}
