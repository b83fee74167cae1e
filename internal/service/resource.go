package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/repository"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource domain.Resource) (domain.Resource, error)
	GetByID(ctx context.Context, id uint) (domain.Resource, error)
	ListByKind(ctx context.Context, kind string) ([]domain.Resource, error)
	Update(ctx context.Context, resource domain.Resource) (domain.Resource, error)
	CountRegistered(ctx context.Context, resourceID uint) (int, error)
}

type ResourceService struct {
	repo ResourceRepository
}

func NewResourceService(repo ResourceRepository) *ResourceService {
	return &ResourceService{
		repo: repo,
	}
}

func (s *ResourceService) CreateResource(ctx context.Context, resource domain.Resource) (domain.Resource, error) {
	created, err := s.repo.Create(ctx, resource)
	if err != nil {
		return domain.Resource{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *ResourceService) GetResource(ctx context.Context, id uint) (domain.Resource, error) {
	resource, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) || errors.Is(err, repository.ErrStorageUnavailable) {
			return domain.Resource{}, err
		}

		return domain.Resource{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return resource, nil
}

func (s *ResourceService) ListResources(ctx context.Context, kind string) ([]domain.Resource, error) {
	resources, err := s.repo.ListByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByKind -> %w", err)
	}

	return resources, nil
}

// UpdateResource applies owner edits: capacity and rate are mutable, but only
// by the owner or an admin.
func (s *ResourceService) UpdateResource(ctx context.Context, resource domain.Resource, actor domain.User) (domain.Resource, error) {
	existing, err := s.repo.GetByID(ctx, resource.ID)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) {
			return domain.Resource{}, ErrResourceNotFound
		}

		return domain.Resource{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if existing.OwnerID != actor.ID && !actor.IsAdmin() {
		return domain.Resource{}, ErrNotResourceOwner
	}

	updated, err := s.repo.Update(ctx, resource)
	if err != nil {
		return domain.Resource{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *ResourceService) RegisteredCount(ctx context.Context, resourceID uint) (int, error) {
	count, err := s.repo.CountRegistered(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			return 0, err
		}

		return 0, fmt.Errorf("s.repo.CountRegistered -> %w", err)
	}

	return count, nil
}
