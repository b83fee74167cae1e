package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository"
)

var (
	ErrPollNotFound  = repository.ErrPollNotFound
	ErrPollInactive  = errors.New("poll is not open for voting")
	ErrUnknownOption = errors.New("option is not part of the poll")
	ErrNotPollOwner  = errors.New("actor does not own the poll")
)

const (
	VoteRecorded = "recorded"
	VoteUpdated  = "updated"

	// NoChoice is reported when a voter has no ballot on a poll.
	NoChoice = "none"
)

type PollRepository interface {
	Create(ctx context.Context, poll domain.Poll) (domain.Poll, error)
	GetByID(ctx context.Context, id uint) (domain.Poll, error)
	List(ctx context.Context) ([]domain.Poll, error)
	Update(ctx context.Context, poll domain.Poll) (domain.Poll, error)
	UpsertBallot(ctx context.Context, pollID, voterID uint, optionID string) (bool, error)
	TallyBallots(ctx context.Context, pollID uint) (map[string]int, error)
	GetBallot(ctx context.Context, pollID, voterID uint) (domain.Ballot, error)
}

type PollService struct {
	repo PollRepository
}

func NewPollService(repo PollRepository) *PollService {
	return &PollService{
		repo: repo,
	}
}

// CreatePoll stores a poll and assigns each option a stable identifier.
// Identifiers are generated exactly once, here; edits never regenerate them.
func (s *PollService) CreatePoll(ctx context.Context, poll domain.Poll, optionLabels []string) (domain.Poll, error) {
	options := make([]domain.Option, len(optionLabels))
	for i, label := range optionLabels {
		options[i] = domain.Option{
			OptionID: uuid.NewString(),
			Label:    label,
			Position: i,
		}
	}
	poll.Options = options

	created, err := s.repo.Create(ctx, poll)
	if err != nil {
		return domain.Poll{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// UpdatePoll rewrites a poll's fields and options. Options that carry an
// existing identifier keep it; options without one are new and get a fresh
// identifier. Ballots for removed options are dropped by the repository, so
// they stop occupying their voter's single ballot slot.
func (s *PollService) UpdatePoll(ctx context.Context, pollID uint, actor domain.User, update domain.Poll) (domain.Poll, error) {
	existing, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return domain.Poll{}, ErrPollNotFound
		}

		return domain.Poll{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if existing.CreatorID != actor.ID && !actor.IsAdmin() {
		return domain.Poll{}, ErrNotPollOwner
	}

	for i := range update.Options {
		if update.Options[i].OptionID == "" {
			update.Options[i].OptionID = uuid.NewString()
		}
		update.Options[i].Position = i
	}

	update.ID = pollID
	update.CreatorID = existing.CreatorID

	updated, err := s.repo.Update(ctx, update)
	if err != nil {
		return domain.Poll{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *PollService) GetPoll(ctx context.Context, pollID uint) (domain.Poll, error) {
	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return domain.Poll{}, ErrPollNotFound
		}

		return domain.Poll{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return poll, nil
}

func (s *PollService) ListPolls(ctx context.Context) ([]domain.Poll, error) {
	polls, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return polls, nil
}

// CastVote records the voter's choice, overwriting any previous ballot for
// the same poll in place. Revoting is a success ("updated"), not an error.
func (s *PollService) CastVote(ctx context.Context, pollID, voterID uint, optionID string) (string, error) {
	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return "", ErrPollNotFound
		}

		return "", fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if !poll.IsOpen(time.Now()) {
		return "", ErrPollInactive
	}

	if !poll.HasOption(optionID) {
		return "", ErrUnknownOption
	}

	updated, err := s.repo.UpsertBallot(ctx, pollID, voterID, optionID)
	if err != nil {
		return "", fmt.Errorf("s.repo.UpsertBallot -> %w", err)
	}

	if updated {
		return VoteUpdated, nil
	}

	return VoteRecorded, nil
}

// Tally counts ballots per option. Every current option appears in the
// result, zero-filled when nobody picked it.
func (s *PollService) Tally(ctx context.Context, pollID uint) (map[string]int, error) {
	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return nil, ErrPollNotFound
		}

		return nil, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	counts, err := s.repo.TallyBallots(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.TallyBallots -> %w", err)
	}

	tally := make(map[string]int, len(poll.Options))
	for _, opt := range poll.Options {
		tally[opt.OptionID] = counts[opt.OptionID]
	}

	return tally, nil
}

// VoterChoice reports the voter's current option id, or NoChoice when the
// voter has not cast a ballot.
func (s *PollService) VoterChoice(ctx context.Context, pollID, voterID uint) (string, error) {
	if _, err := s.repo.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return "", ErrPollNotFound
		}

		return "", fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	ballot, err := s.repo.GetBallot(ctx, pollID, voterID)
	if err != nil {
		if errors.Is(err, repository.ErrBallotNotFound) {
			return NoChoice, nil
		}

		return "", fmt.Errorf("s.repo.GetBallot -> %w", err)
	}

	return ballot.OptionID, nil
}
