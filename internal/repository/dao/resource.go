package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Resource struct {
	ID              uint   `gorm:"primaryKey"`
	Kind            string `gorm:"not null;index"` // "session" or "tournament"
	OwnerID         uint   `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	Description     string
	Location        string
	StartTime       time.Time
	HourlyRate      float64 `gorm:"default:0"`
	Prize           string
	MaxParticipants int `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Participation struct {
	ID          uint  `gorm:"primaryKey"`
	ResourceID  uint  `gorm:"not null;uniqueIndex:uni_participations_resource_user"`
	UserID      *uint `gorm:"uniqueIndex:uni_participations_resource_user"`
	DisplayName string
	Status      string `gorm:"not null"` // "registered" or "waitlist"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CapacitySeed is one row of the boot-time snapshot used to seed the
// in-memory capacity mirror.
type CapacitySeed struct {
	ResourceID      uint
	MaxParticipants int
	Registered      int
}

type ResourceDAO struct {
	db *gorm.DB
}

func NewResourceDAO(db *gorm.DB) *ResourceDAO {
	return &ResourceDAO{
		db: db,
	}
}

func (d *ResourceDAO) Insert(ctx context.Context, resource Resource) (Resource, error) {
	result := d.db.WithContext(ctx).Create(&resource)
	if result.Error != nil {
		return Resource{}, result.Error
	}

	return resource, nil
}

func (d *ResourceDAO) FindByID(ctx context.Context, id uint) (Resource, error) {
	var resource Resource

	result := d.db.WithContext(ctx).First(&resource, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Resource{}, ErrResourceNotFound
		}

		return Resource{}, mapUnavailable(result.Error)
	}

	return resource, nil
}

func (d *ResourceDAO) FindByKind(ctx context.Context, kind string) ([]Resource, error) {
	var resources []Resource

	result := d.db.WithContext(ctx).Where("kind = ?", kind).Order("start_time").Find(&resources)
	if result.Error != nil {
		return nil, mapUnavailable(result.Error)
	}

	return resources, nil
}

// Update persists owner-mutable fields (title, capacity, rate, schedule).
func (d *ResourceDAO) Update(ctx context.Context, resource Resource) (Resource, error) {
	result := d.db.WithContext(ctx).Model(&Resource{ID: resource.ID}).Updates(map[string]interface{}{
		"title":            resource.Title,
		"description":      resource.Description,
		"location":         resource.Location,
		"start_time":       resource.StartTime,
		"hourly_rate":      resource.HourlyRate,
		"prize":            resource.Prize,
		"max_participants": resource.MaxParticipants,
	})
	if result.Error != nil {
		return Resource{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Resource{}, ErrResourceNotFound
	}

	return d.FindByID(ctx, resource.ID)
}

func (d *ResourceDAO) CountRegistered(ctx context.Context, resourceID uint) (int, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Participation{}).
		Where("resource_id = ? AND status = ?", resourceID, "registered").
		Count(&count)
	if result.Error != nil {
		return 0, mapUnavailable(result.Error)
	}

	return int(count), nil
}

func (d *ResourceDAO) FindParticipants(ctx context.Context, resourceID uint) ([]Participation, error) {
	var participants []Participation

	result := d.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at").
		Find(&participants)
	if result.Error != nil {
		return nil, mapUnavailable(result.Error)
	}

	return participants, nil
}

// AdmitOrWaitlist runs the capacity check and the participation upsert as one
// transaction. The row lock on the resource serializes concurrent joins for
// the same resource, so the last open slot is never granted twice. An existing
// record only gets its display name refreshed; a "registered" participant is
// never demoted by a later contended call.
func (d *ResourceDAO) AdmitOrWaitlist(ctx context.Context, resourceID, userID uint, displayName string) (Participation, error) {
	var participation Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resource Resource
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&resource, resourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResourceNotFound
			}

			return err
		}

		err := tx.Where("resource_id = ? AND user_id = ?", resourceID, userID).First(&participation).Error
		if err == nil {
			participation.DisplayName = displayName
			return tx.Model(&participation).Update("display_name", displayName).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var registered int64
		if err = tx.Model(&Participation{}).
			Where("resource_id = ? AND status = ?", resourceID, "registered").
			Count(&registered).Error; err != nil {
			return err
		}

		status := "waitlist"
		if int(registered) < resource.MaxParticipants {
			status = "registered"
		}

		participation = Participation{
			ResourceID:  resourceID,
			UserID:      &userID,
			DisplayName: displayName,
			Status:      status,
		}

		// The uniqueness constraint on (resource_id, user_id) backstops the
		// recount: a racing insert for the same user collapses into a
		// display-name refresh instead of a duplicate row.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"display_name": displayName}),
		}).Create(&participation).Error
	})
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return Participation{}, err
		}

		return Participation{}, mapUnavailable(err)
	}

	return participation, nil
}

// RemoveAndPromote deletes the user's participation and, when a registered
// slot was freed, promotes the oldest waitlisted participant in the same
// transaction. It returns the promoted record, if any.
func (d *ResourceDAO) RemoveAndPromote(ctx context.Context, resourceID, userID uint) (*Participation, error) {
	var promoted *Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resource Resource
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&resource, resourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResourceNotFound
			}

			return err
		}

		var participation Participation
		if err := tx.Where("resource_id = ? AND user_id = ?", resourceID, userID).
			First(&participation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipantNotFound
			}

			return err
		}

		if err := tx.Delete(&Participation{}, participation.ID).Error; err != nil {
			return err
		}

		if participation.Status != "registered" {
			return nil
		}

		var next Participation
		err := tx.Where("resource_id = ? AND status = ?", resourceID, "waitlist").
			Order("created_at").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err = tx.Model(&next).Update("status", "registered").Error; err != nil {
			return err
		}

		next.Status = "registered"
		promoted = &next

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrParticipantNotFound) {
			return nil, err
		}

		return nil, mapUnavailable(err)
	}

	return promoted, nil
}

// CapacitySnapshot reports every resource's capacity and current registered
// count, for seeding the fallback mirror at boot.
func (d *ResourceDAO) CapacitySnapshot() ([]CapacitySeed, error) {
	var seeds []CapacitySeed

	result := d.db.Raw(`
		SELECT r.id AS resource_id,
		       r.max_participants,
		       COUNT(p.id) FILTER (WHERE p.status = 'registered') AS registered
		FROM resources r
		LEFT JOIN participations p ON p.resource_id = r.id
		GROUP BY r.id, r.max_participants`).
		Scan(&seeds)
	if result.Error != nil {
		return nil, mapUnavailable(result.Error)
	}

	return seeds, nil
}
