package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository/dao"
)

var (
	ErrResourceNotFound    = dao.ErrResourceNotFound
	ErrParticipantNotFound = dao.ErrParticipantNotFound
	ErrStorageUnavailable  = dao.ErrStorageUnavailable
)

type ResourceDAO interface {
	Insert(ctx context.Context, resource dao.Resource) (dao.Resource, error)
	FindByID(ctx context.Context, id uint) (dao.Resource, error)
	FindByKind(ctx context.Context, kind string) ([]dao.Resource, error)
	Update(ctx context.Context, resource dao.Resource) (dao.Resource, error)
	CountRegistered(ctx context.Context, resourceID uint) (int, error)
	FindParticipants(ctx context.Context, resourceID uint) ([]dao.Participation, error)
	AdmitOrWaitlist(ctx context.Context, resourceID, userID uint, displayName string) (dao.Participation, error)
	RemoveAndPromote(ctx context.Context, resourceID, userID uint) (*dao.Participation, error)
}

type ResourceRepository struct {
	dao ResourceDAO
}

func NewResourceRepository(dao ResourceDAO) *ResourceRepository {
	return &ResourceRepository{
		dao: dao,
	}
}

func (r *ResourceRepository) domainToDao(res domain.Resource) dao.Resource {
	return dao.Resource{
		ID:              res.ID,
		Kind:            res.Kind,
		OwnerID:         res.OwnerID,
		Title:           res.Title,
		Description:     res.Description,
		Location:        res.Location,
		StartTime:       res.StartTime,
		HourlyRate:      res.HourlyRate,
		Prize:           res.Prize,
		MaxParticipants: res.MaxParticipants,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

func (r *ResourceRepository) daoToDomain(res dao.Resource) domain.Resource {
	return domain.Resource{
		ID:              res.ID,
		Kind:            res.Kind,
		OwnerID:         res.OwnerID,
		Title:           res.Title,
		Description:     res.Description,
		Location:        res.Location,
		StartTime:       res.StartTime,
		HourlyRate:      res.HourlyRate,
		Prize:           res.Prize,
		MaxParticipants: res.MaxParticipants,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

func (r *ResourceRepository) participationDaoToDomain(p dao.Participation) domain.Participation {
	return domain.Participation{
		ID:          p.ID,
		ResourceID:  p.ResourceID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *ResourceRepository) Create(ctx context.Context, resource domain.Resource) (domain.Resource, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(resource))
	if err != nil {
		return domain.Resource{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, id uint) (domain.Resource, error) {
	resource, err := r.dao.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrResourceNotFound) || errors.Is(err, dao.ErrStorageUnavailable) {
			return domain.Resource{}, err
		}

		return domain.Resource{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(resource), nil
}

func (r *ResourceRepository) ListByKind(ctx context.Context, kind string) ([]domain.Resource, error) {
	resources, err := r.dao.FindByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByKind -> %w", err)
	}

	result := make([]domain.Resource, len(resources))
	for i, res := range resources {
		result[i] = r.daoToDomain(res)
	}

	return result, nil
}

func (r *ResourceRepository) Update(ctx context.Context, resource domain.Resource) (domain.Resource, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(resource))
	if err != nil {
		return domain.Resource{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ResourceRepository) CountRegistered(ctx context.Context, resourceID uint) (int, error) {
	count, err := r.dao.CountRegistered(ctx, resourceID)
	if err != nil {
		if errors.Is(err, dao.ErrStorageUnavailable) {
			return 0, err
		}

		return 0, fmt.Errorf("r.dao.CountRegistered -> %w", err)
	}

	return count, nil
}

func (r *ResourceRepository) ListParticipants(ctx context.Context, resourceID uint) ([]domain.Participation, error) {
	participants, err := r.dao.FindParticipants(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindParticipants -> %w", err)
	}

	result := make([]domain.Participation, len(participants))
	for i, p := range participants {
		result[i] = r.participationDaoToDomain(p)
	}

	return result, nil
}

func (r *ResourceRepository) AdmitOrWaitlist(ctx context.Context, resourceID, userID uint, displayName string) (domain.Participation, error) {
	participation, err := r.dao.AdmitOrWaitlist(ctx, resourceID, userID, displayName)
	if err != nil {
		if errors.Is(err, dao.ErrResourceNotFound) || errors.Is(err, dao.ErrStorageUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("r.dao.AdmitOrWaitlist -> %w", err)
	}

	return r.participationDaoToDomain(participation), nil
}

func (r *ResourceRepository) RemoveAndPromote(ctx context.Context, resourceID, userID uint) (*domain.Participation, error) {
	promoted, err := r.dao.RemoveAndPromote(ctx, resourceID, userID)
	if err != nil {
		if errors.Is(err, dao.ErrResourceNotFound) ||
			errors.Is(err, dao.ErrParticipantNotFound) ||
			errors.Is(err, dao.ErrStorageUnavailable) {
			return nil, err
		}

		return nil, fmt.Errorf("r.dao.RemoveAndPromote -> %w", err)
	}

	if promoted == nil {
		return nil, nil
	}

	p := r.participationDaoToDomain(*promoted)

	return &p, nil
}
