package domain

import "time"

type Poll struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatorID   uint       `json:"creator_id"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    bool       `json:"is_active"`
	Options     []Option   `json:"options"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Option carries a stable identifier assigned at creation. The identifier
// never changes on edit, only the label may.
type Option struct {
	OptionID string `json:"option_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// IsOpen reports whether the poll accepts votes at the given instant.
// Either date bound may be nil, meaning unbounded on that side.
func (p Poll) IsOpen(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}

	return true
}

// HasOption reports whether optionID is among the poll's current options.
func (p Poll) HasOption(optionID string) bool {
	for _, opt := range p.Options {
		if opt.OptionID == optionID {
			return true
		}
	}

	return false
}

type Ballot struct {
	ID       uint      `json:"id"`
	PollID   uint      `json:"poll_id"`
	VoterID  uint      `json:"voter_id"`
	OptionID string    `json:"option_id"`
	CastAt   time.Time `json:"cast_at"`
}
