package response

type VoteResponse struct {
	Outcome  string `json:"outcome"` // "recorded" or "updated"
	OptionID string `json:"option_id"`
}

type TallyResponse struct {
	PollID uint           `json:"poll_id"`
	Counts map[string]int `json:"counts"`
}

type VoterChoiceResponse struct {
	PollID   uint   `json:"poll_id"`
	OptionID string `json:"option_id"` // "none" when the voter has no ballot
}
