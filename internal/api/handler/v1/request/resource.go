package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateResourceRequest struct {
	Kind            string  `json:"kind" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	StartTime       string  `json:"start_time" binding:"required" format:"RFC3339"`
	HourlyRate      float64 `json:"hourly_rate"`
	Prize           string  `json:"prize"`
	MaxParticipants int     `json:"max_participants" binding:"required,min=1"`
}

func (req *CreateResourceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Kind, validation.Required, validation.In("session", "tournament")),
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.StartTime, validation.Required),
		validation.Field(&req.HourlyRate, validation.Min(0.0)),
		validation.Field(&req.MaxParticipants, validation.Required, validation.Min(1)),
	)
}

type UpdateResourceRequest struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	StartTime       string  `json:"start_time" binding:"required" format:"RFC3339"`
	HourlyRate      float64 `json:"hourly_rate"`
	Prize           string  `json:"prize"`
	MaxParticipants int     `json:"max_participants" binding:"required,min=1"`
}

func (req *UpdateResourceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.StartTime, validation.Required),
		validation.Field(&req.HourlyRate, validation.Min(0.0)),
		validation.Field(&req.MaxParticipants, validation.Required, validation.Min(1)),
	)
}

type JoinResourceRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (req *JoinResourceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.DisplayName, validation.Required, validation.Length(2, 50)),
	)
}
