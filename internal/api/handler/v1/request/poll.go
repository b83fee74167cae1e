package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreatePollRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	StartDate   *string  `json:"start_date" format:"RFC3339"`
	EndDate     *string  `json:"end_date" format:"RFC3339"`
	Options     []string `json:"options" binding:"required"`
}

func (req *CreatePollRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Options, validation.Required, validation.Length(2, 20)),
	)
}

// UpdatePollOption carries a stable option id for kept options; new options
// leave it empty and get one assigned.
type UpdatePollOption struct {
	OptionID string `json:"option_id"`
	Label    string `json:"label" binding:"required"`
}

type UpdatePollRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	StartDate   *string            `json:"start_date" format:"RFC3339"`
	EndDate     *string            `json:"end_date" format:"RFC3339"`
	IsActive    bool               `json:"is_active"`
	Options     []UpdatePollOption `json:"options" binding:"required"`
}

func (req *UpdatePollRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Options, validation.Required, validation.Length(2, 20)),
	)
}

type CastVoteRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

func (req *CastVoteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.OptionID, validation.Required),
	)
}
