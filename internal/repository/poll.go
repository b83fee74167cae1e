package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository/dao"
)

var (
	ErrPollNotFound   = dao.ErrPollNotFound
	ErrBallotNotFound = dao.ErrBallotNotFound
)

type PollDAO interface {
	Insert(ctx context.Context, poll dao.Poll) (dao.Poll, error)
	FindByID(ctx context.Context, id uint) (dao.Poll, error)
	FindAll(ctx context.Context) ([]dao.Poll, error)
	Update(ctx context.Context, poll dao.Poll) (dao.Poll, error)
	UpsertBallot(ctx context.Context, pollID, voterID uint, optionID string) (bool, error)
	TallyBallots(ctx context.Context, pollID uint) ([]dao.OptionTally, error)
	FindBallot(ctx context.Context, pollID, voterID uint) (dao.Ballot, error)
}

type PollRepository struct {
	dao PollDAO
}

func NewPollRepository(dao PollDAO) *PollRepository {
	return &PollRepository{
		dao: dao,
	}
}

func (r *PollRepository) domainToDao(p domain.Poll) dao.Poll {
	options := make([]dao.PollOption, len(p.Options))
	for i, opt := range p.Options {
		options[i] = dao.PollOption{
			PollID:   p.ID,
			OptionID: opt.OptionID,
			Label:    opt.Label,
			Position: opt.Position,
		}
	}

	return dao.Poll{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsActive:    p.IsActive,
		Options:     options,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *PollRepository) daoToDomain(p dao.Poll) domain.Poll {
	options := make([]domain.Option, len(p.Options))
	for i, opt := range p.Options {
		options[i] = domain.Option{
			OptionID: opt.OptionID,
			Label:    opt.Label,
			Position: opt.Position,
		}
	}

	return domain.Poll{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsActive:    p.IsActive,
		Options:     options,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *PollRepository) Create(ctx context.Context, poll domain.Poll) (domain.Poll, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(poll))
	if err != nil {
		return domain.Poll{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *PollRepository) GetByID(ctx context.Context, id uint) (domain.Poll, error) {
	poll, err := r.dao.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrPollNotFound) {
			return domain.Poll{}, err
		}

		return domain.Poll{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(poll), nil
}

func (r *PollRepository) List(ctx context.Context) ([]domain.Poll, error) {
	polls, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	result := make([]domain.Poll, len(polls))
	for i, p := range polls {
		result[i] = r.daoToDomain(p)
	}

	return result, nil
}

func (r *PollRepository) Update(ctx context.Context, poll domain.Poll) (domain.Poll, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(poll))
	if err != nil {
		if errors.Is(err, dao.ErrPollNotFound) {
			return domain.Poll{}, err
		}

		return domain.Poll{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *PollRepository) UpsertBallot(ctx context.Context, pollID, voterID uint, optionID string) (bool, error) {
	updated, err := r.dao.UpsertBallot(ctx, pollID, voterID, optionID)
	if err != nil {
		return false, fmt.Errorf("r.dao.UpsertBallot -> %w", err)
	}

	return updated, nil
}

func (r *PollRepository) TallyBallots(ctx context.Context, pollID uint) (map[string]int, error) {
	tallies, err := r.dao.TallyBallots(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.TallyBallots -> %w", err)
	}

	counts := make(map[string]int, len(tallies))
	for _, t := range tallies {
		counts[t.OptionID] = t.Count
	}

	return counts, nil
}

func (r *PollRepository) GetBallot(ctx context.Context, pollID, voterID uint) (domain.Ballot, error) {
	ballot, err := r.dao.FindBallot(ctx, pollID, voterID)
	if err != nil {
		if errors.Is(err, dao.ErrBallotNotFound) {
			return domain.Ballot{}, err
		}

		return domain.Ballot{}, fmt.Errorf("r.dao.FindBallot -> %w", err)
	}

	return domain.Ballot{
		ID:       ballot.ID,
		PollID:   ballot.PollID,
		VoterID:  ballot.VoterID,
		OptionID: ballot.OptionID,
		CastAt:   ballot.CastAt,
	}, nil
}
