package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/fallback"
	"github.com/campuslink/campuslink-api/internal/repository"
)

type fakeAdmissionRepo struct {
	resources      map[uint]domain.Resource
	participations map[uint][]domain.Participation
	unavailable    bool
	nextID         uint
}

func newFakeAdmissionRepo(resources ...domain.Resource) *fakeAdmissionRepo {
	r := &fakeAdmissionRepo{
		resources:      make(map[uint]domain.Resource),
		participations: make(map[uint][]domain.Participation),
	}
	for _, res := range resources {
		r.resources[res.ID] = res
	}

	return r
}

func (r *fakeAdmissionRepo) GetByID(_ context.Context, id uint) (domain.Resource, error) {
	if r.unavailable {
		return domain.Resource{}, repository.ErrStorageUnavailable
	}

	res, ok := r.resources[id]
	if !ok {
		return domain.Resource{}, repository.ErrResourceNotFound
	}

	return res, nil
}

func (r *fakeAdmissionRepo) CountRegistered(_ context.Context, resourceID uint) (int, error) {
	if r.unavailable {
		return 0, repository.ErrStorageUnavailable
	}

	count := 0
	for _, p := range r.participations[resourceID] {
		if p.Status == domain.ParticipationRegistered {
			count++
		}
	}

	return count, nil
}

func (r *fakeAdmissionRepo) ListParticipants(_ context.Context, resourceID uint) ([]domain.Participation, error) {
	if r.unavailable {
		return nil, repository.ErrStorageUnavailable
	}

	return r.participations[resourceID], nil
}

func (r *fakeAdmissionRepo) AdmitOrWaitlist(_ context.Context, resourceID, userID uint, displayName string) (domain.Participation, error) {
	if r.unavailable {
		return domain.Participation{}, repository.ErrStorageUnavailable
	}

	res, ok := r.resources[resourceID]
	if !ok {
		return domain.Participation{}, repository.ErrResourceNotFound
	}

	for i, p := range r.participations[resourceID] {
		if p.UserID != nil && *p.UserID == userID {
			r.participations[resourceID][i].DisplayName = displayName

			return r.participations[resourceID][i], nil
		}
	}

	registered := 0
	for _, p := range r.participations[resourceID] {
		if p.Status == domain.ParticipationRegistered {
			registered++
		}
	}

	status := domain.ParticipationWaitlist
	if registered < res.MaxParticipants {
		status = domain.ParticipationRegistered
	}

	r.nextID++
	uid := userID
	participation := domain.Participation{
		ID:          r.nextID,
		ResourceID:  resourceID,
		UserID:      &uid,
		DisplayName: displayName,
		Status:      status,
	}
	r.participations[resourceID] = append(r.participations[resourceID], participation)

	return participation, nil
}

func (r *fakeAdmissionRepo) RemoveAndPromote(_ context.Context, resourceID, userID uint) (*domain.Participation, error) {
	if r.unavailable {
		return nil, repository.ErrStorageUnavailable
	}

	if _, ok := r.resources[resourceID]; !ok {
		return nil, repository.ErrResourceNotFound
	}

	parts := r.participations[resourceID]
	idx := -1
	for i, p := range parts {
		if p.UserID != nil && *p.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, repository.ErrParticipantNotFound
	}

	removed := parts[idx]
	parts = append(parts[:idx], parts[idx+1:]...)

	var promoted *domain.Participation
	if removed.Status == domain.ParticipationRegistered {
		for i := range parts {
			if parts[i].Status == domain.ParticipationWaitlist {
				parts[i].Status = domain.ParticipationRegistered
				promoted = &parts[i]
				break
			}
		}
	}

	r.participations[resourceID] = parts

	return promoted, nil
}

func testUser(id uint) *domain.User {
	return &domain.User{ID: id, Name: fmt.Sprintf("user-%d", id), Role: "student"}
}

func TestAdmissionService_Join(t *testing.T) {
	resource := domain.Resource{ID: 1, Kind: domain.ResourceKindSession, MaxParticipants: 2}

	t.Run("admits while capacity remains", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())

		result, err := svc.Join(context.Background(), 1, testUser(10), "Ada")
		require.NoError(t, err)

		assert.Equal(t, JoinAdmitted, result.Outcome)
		assert.Equal(t, 1, result.Registered)
		assert.Equal(t, 2, result.Capacity)
		assert.False(t, result.Degraded)
		assert.False(t, result.Advisory)
		require.NotNil(t, result.Participation)
		assert.Equal(t, domain.ParticipationRegistered, result.Participation.Status)
	})

	t.Run("waitlists at capacity", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())
		ctx := context.Background()

		_, err := svc.Join(ctx, 1, testUser(10), "Ada")
		require.NoError(t, err)
		_, err = svc.Join(ctx, 1, testUser(11), "Grace")
		require.NoError(t, err)

		result, err := svc.Join(ctx, 1, testUser(12), "Edsger")
		require.NoError(t, err)

		assert.Equal(t, JoinWaitlisted, result.Outcome)
		assert.Equal(t, 2, result.Registered)
		require.NotNil(t, result.Participation)
		assert.Equal(t, domain.ParticipationWaitlist, result.Participation.Status)
	})

	t.Run("rejoin keeps status and refreshes display name", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())
		ctx := context.Background()

		first, err := svc.Join(ctx, 1, testUser(10), "Ada")
		require.NoError(t, err)
		_, err = svc.Join(ctx, 1, testUser(11), "Grace")
		require.NoError(t, err)

		// The roster is full now; a repeat join must not demote the holder.
		again, err := svc.Join(ctx, 1, testUser(10), "Ada L.")
		require.NoError(t, err)

		assert.Equal(t, JoinAdmitted, again.Outcome)
		assert.Equal(t, first.Participation.ID, again.Participation.ID)
		assert.Equal(t, "Ada L.", again.Participation.DisplayName)
		assert.Equal(t, 2, again.Registered)
	})

	t.Run("unknown resource", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())

		_, err := svc.Join(context.Background(), 99, testUser(10), "Ada")
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})

	t.Run("anonymous join is advisory and persists nothing", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())

		result, err := svc.Join(context.Background(), 1, nil, "Visitor")
		require.NoError(t, err)

		assert.Equal(t, JoinAdmitted, result.Outcome)
		assert.True(t, result.Advisory)
		assert.Nil(t, result.Participation)
		assert.Empty(t, repo.participations[1])
	})

	t.Run("falls back to the capacity mirror when storage is down", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		repo.unavailable = true

		mirror := fallback.NewRegistry()
		mirror.Seed(1, 2, 1)
		svc := NewAdmissionService(repo, mirror)

		result, err := svc.Join(context.Background(), 1, testUser(10), "Ada")
		require.NoError(t, err)

		assert.Equal(t, JoinAdmitted, result.Outcome)
		assert.True(t, result.Degraded)
		assert.Equal(t, 2, result.Registered)
		assert.Equal(t, 2, result.Capacity)
		assert.Nil(t, result.Participation)

		// The mirror is now full, so the next join waitlists.
		next, err := svc.Join(context.Background(), 1, testUser(11), "Grace")
		require.NoError(t, err)
		assert.Equal(t, JoinWaitlisted, next.Outcome)
	})

	t.Run("storage down and resource unknown to the mirror", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		repo.unavailable = true
		svc := NewAdmissionService(repo, fallback.NewRegistry())

		_, err := svc.Join(context.Background(), 1, testUser(10), "Ada")
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})
}

func TestAdmissionService_Leave(t *testing.T) {
	resource := domain.Resource{ID: 1, Kind: domain.ResourceKindSession, MaxParticipants: 1}

	t.Run("freed slot promotes the oldest waitlisted participant", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())
		ctx := context.Background()

		_, err := svc.Join(ctx, 1, testUser(10), "Ada")
		require.NoError(t, err)
		_, err = svc.Join(ctx, 1, testUser(11), "Grace")
		require.NoError(t, err)
		_, err = svc.Join(ctx, 1, testUser(12), "Edsger")
		require.NoError(t, err)

		promoted, err := svc.Leave(ctx, 1, *testUser(10))
		require.NoError(t, err)

		require.NotNil(t, promoted)
		assert.Equal(t, domain.ParticipationRegistered, promoted.Status)
		assert.Equal(t, "Grace", promoted.DisplayName)
	})

	t.Run("leaving from the waitlist promotes nobody", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())
		ctx := context.Background()

		_, err := svc.Join(ctx, 1, testUser(10), "Ada")
		require.NoError(t, err)
		_, err = svc.Join(ctx, 1, testUser(11), "Grace")
		require.NoError(t, err)

		promoted, err := svc.Leave(ctx, 1, *testUser(11))
		require.NoError(t, err)
		assert.Nil(t, promoted)
	})

	t.Run("not a participant", func(t *testing.T) {
		repo := newFakeAdmissionRepo(resource)
		svc := NewAdmissionService(repo, fallback.NewRegistry())

		_, err := svc.Leave(context.Background(), 1, *testUser(42))
		assert.ErrorIs(t, err, ErrParticipantNotFound)
	})
}

func TestAdmissionService_Participants(t *testing.T) {
	resource := domain.Resource{ID: 1, Kind: domain.ResourceKindSession, MaxParticipants: 5}
	repo := newFakeAdmissionRepo(resource)
	svc := NewAdmissionService(repo, fallback.NewRegistry())
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, testUser(10), "Ada")
	require.NoError(t, err)
	_, err = svc.Join(ctx, 1, testUser(11), "Grace")
	require.NoError(t, err)

	participants, err := svc.Participants(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	_, err = svc.Participants(ctx, 99)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}
