package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/fallback"
	"github.com/campuslink/campuslink-api/internal/repository"
)

var (
	ErrResourceNotFound    = repository.ErrResourceNotFound
	ErrParticipantNotFound = repository.ErrParticipantNotFound
	ErrStorageUnavailable  = repository.ErrStorageUnavailable
)

const (
	JoinAdmitted   = "admitted"
	JoinWaitlisted = "waitlisted"
)

// JoinResult is the outcome of a join request. Waitlisting is a successful,
// non-admitting outcome, never an error.
type JoinResult struct {
	Outcome       string                `json:"outcome"` // "admitted" or "waitlisted"
	Registered    int                   `json:"registered"`
	Capacity      int                   `json:"capacity"`
	Degraded      bool                  `json:"degraded"` // decision served from the in-memory mirror
	Advisory      bool                  `json:"advisory"` // anonymous actor, nothing persisted
	Participation *domain.Participation `json:"participation,omitempty"`
}

type AdmissionResourceRepository interface {
	GetByID(ctx context.Context, id uint) (domain.Resource, error)
	CountRegistered(ctx context.Context, resourceID uint) (int, error)
	ListParticipants(ctx context.Context, resourceID uint) ([]domain.Participation, error)
	AdmitOrWaitlist(ctx context.Context, resourceID, userID uint, displayName string) (domain.Participation, error)
	RemoveAndPromote(ctx context.Context, resourceID, userID uint) (*domain.Participation, error)
}

// CapacityMirror is the degraded-mode view of resource capacity. The real
// implementation lives in the fallback package; tests substitute their own.
type CapacityMirror interface {
	Join(resourceID uint) (fallback.Decision, bool)
	Snapshot(resourceID uint) (fallback.Decision, bool)
}

type AdmissionService struct {
	repo   AdmissionResourceRepository
	mirror CapacityMirror
}

func NewAdmissionService(repo AdmissionResourceRepository, mirror CapacityMirror) *AdmissionService {
	return &AdmissionService{
		repo:   repo,
		mirror: mirror,
	}
}

// Join admits the actor to the resource or places them on the waitlist.
// Repeat joins by the same actor are idempotent and only refresh the display
// name. An anonymous actor gets an advisory decision: admission state is
// reported but nothing is persisted.
func (s *AdmissionService) Join(ctx context.Context, resourceID uint, actor *domain.User, displayName string) (JoinResult, error) {
	if actor == nil {
		return s.advisoryJoin(ctx, resourceID)
	}

	participation, err := s.repo.AdmitOrWaitlist(ctx, resourceID, actor.ID, displayName)
	if err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			return s.degradedJoin(resourceID, displayName)
		}
		if errors.Is(err, repository.ErrResourceNotFound) {
			return JoinResult{}, ErrResourceNotFound
		}

		return JoinResult{}, fmt.Errorf("s.repo.AdmitOrWaitlist -> %w", err)
	}

	result := JoinResult{
		Outcome:       JoinWaitlisted,
		Participation: &participation,
	}
	if participation.Status == domain.ParticipationRegistered {
		result.Outcome = JoinAdmitted
	}

	// Counts are informational; the admission decision already happened.
	if resource, err := s.repo.GetByID(ctx, resourceID); err == nil {
		result.Capacity = resource.MaxParticipants
	}
	if registered, err := s.repo.CountRegistered(ctx, resourceID); err == nil {
		result.Registered = registered
	}

	return result, nil
}

// advisoryJoin reports what would happen without persisting a record,
// for unauthenticated callers.
func (s *AdmissionService) advisoryJoin(ctx context.Context, resourceID uint) (JoinResult, error) {
	resource, err := s.repo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			return s.advisorySnapshot(resourceID)
		}
		if errors.Is(err, repository.ErrResourceNotFound) {
			return JoinResult{}, ErrResourceNotFound
		}

		return JoinResult{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	registered, err := s.repo.CountRegistered(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			return s.advisorySnapshot(resourceID)
		}

		return JoinResult{}, fmt.Errorf("s.repo.CountRegistered -> %w", err)
	}

	outcome := JoinWaitlisted
	if registered < resource.MaxParticipants {
		outcome = JoinAdmitted
	}

	return JoinResult{
		Outcome:    outcome,
		Registered: registered,
		Capacity:   resource.MaxParticipants,
		Advisory:   true,
	}, nil
}

// degradedJoin serves the join decision from the in-memory mirror while the
// database is down. The join is counted in the mirror only: it is not linked
// to the actor and cannot be reconciled later, which is why it gets logged as
// a known data-loss window instead of being silently swallowed.
func (s *AdmissionService) degradedJoin(resourceID uint, displayName string) (JoinResult, error) {
	decision, ok := s.mirror.Join(resourceID)
	if !ok {
		return JoinResult{}, ErrResourceNotFound
	}

	outcome := JoinWaitlisted
	if decision.Admitted {
		outcome = JoinAdmitted
	}

	zap.L().Warn("join served from capacity mirror; decision is not durable and not linked to an actor",
		zap.Uint("resource_id", resourceID),
		zap.String("display_name", displayName),
		zap.String("outcome", outcome),
	)

	return JoinResult{
		Outcome:    outcome,
		Registered: decision.Registered,
		Capacity:   decision.Capacity,
		Degraded:   true,
	}, nil
}

func (s *AdmissionService) advisorySnapshot(resourceID uint) (JoinResult, error) {
	decision, ok := s.mirror.Snapshot(resourceID)
	if !ok {
		return JoinResult{}, ErrResourceNotFound
	}

	outcome := JoinWaitlisted
	if decision.Admitted {
		outcome = JoinAdmitted
	}

	return JoinResult{
		Outcome:    outcome,
		Registered: decision.Registered,
		Capacity:   decision.Capacity,
		Degraded:   true,
		Advisory:   true,
	}, nil
}

// Leave removes the actor's participation. Freeing a registered slot promotes
// the oldest waitlisted participant, so capacity stays fully used without
// ever being exceeded.
func (s *AdmissionService) Leave(ctx context.Context, resourceID uint, actor domain.User) (*domain.Participation, error) {
	promoted, err := s.repo.RemoveAndPromote(ctx, resourceID, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) ||
			errors.Is(err, repository.ErrParticipantNotFound) ||
			errors.Is(err, repository.ErrStorageUnavailable) {
			return nil, err
		}

		return nil, fmt.Errorf("s.repo.RemoveAndPromote -> %w", err)
	}

	if promoted != nil {
		zap.L().Info("waitlisted participant promoted",
			zap.Uint("resource_id", resourceID),
			zap.Uint("participation_id", promoted.ID),
		)
	}

	return promoted, nil
}

func (s *AdmissionService) Participants(ctx context.Context, resourceID uint) ([]domain.Participation, error) {
	if _, err := s.repo.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) || errors.Is(err, repository.ErrStorageUnavailable) {
			return nil, err
		}

		return nil, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	participants, err := s.repo.ListParticipants(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListParticipants -> %w", err)
	}

	return participants, nil
}
