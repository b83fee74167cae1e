package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Poll struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	CreatorID   uint `gorm:"not null"`
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    bool         `gorm:"default:true"`
	Options     []PollOption `gorm:"foreignKey:PollID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PollOption struct {
	ID       uint   `gorm:"primaryKey"`
	PollID   uint   `gorm:"not null;uniqueIndex:uni_poll_options_poll_option"`
	OptionID string `gorm:"not null;uniqueIndex:uni_poll_options_poll_option"`
	Label    string `gorm:"not null"`
	Position int    `gorm:"default:0"`
}

type Ballot struct {
	ID       uint   `gorm:"primaryKey"`
	PollID   uint   `gorm:"not null;uniqueIndex:uni_ballots_poll_voter"`
	VoterID  uint   `gorm:"not null;uniqueIndex:uni_ballots_poll_voter"`
	OptionID string `gorm:"not null"`
	CastAt   time.Time
}

// OptionTally is one row of the grouped ballot count.
type OptionTally struct {
	OptionID string
	Count    int
}

type PollDAO struct {
	db *gorm.DB
}

func NewPollDAO(db *gorm.DB) *PollDAO {
	return &PollDAO{
		db: db,
	}
}

func (d *PollDAO) Insert(ctx context.Context, poll Poll) (Poll, error) {
	result := d.db.WithContext(ctx).Create(&poll)
	if result.Error != nil {
		return Poll{}, result.Error
	}

	return poll, nil
}

func (d *PollDAO) FindByID(ctx context.Context, id uint) (Poll, error) {
	var poll Poll

	result := d.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("poll_options.position")
		}).
		First(&poll, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Poll{}, ErrPollNotFound
		}

		return Poll{}, result.Error
	}

	return poll, nil
}

func (d *PollDAO) FindAll(ctx context.Context) ([]Poll, error) {
	var polls []Poll

	result := d.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("poll_options.position")
		}).
		Order("created_at DESC").
		Find(&polls)
	if result.Error != nil {
		return nil, result.Error
	}

	return polls, nil
}

// Update rewrites the poll's fields and option set. Kept options are matched
// by their stable option_id and only get label/position refreshed; options no
// longer present are deleted together with the ballots that reference them,
// so a tally never counts votes for options that do not exist anymore.
func (d *PollDAO) Update(ctx context.Context, poll Poll) (Poll, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Poll{}).
			Where("id = ?", poll.ID).
			Updates(map[string]interface{}{
				"title":       poll.Title,
				"description": poll.Description,
				"start_date":  poll.StartDate,
				"end_date":    poll.EndDate,
				"is_active":   poll.IsActive,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPollNotFound
		}

		kept := make([]string, 0, len(poll.Options))
		for i := range poll.Options {
			poll.Options[i].PollID = poll.ID
			kept = append(kept, poll.Options[i].OptionID)

			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "poll_id"}, {Name: "option_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"label":    poll.Options[i].Label,
					"position": poll.Options[i].Position,
				}),
			}).Create(&poll.Options[i]).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("poll_id = ? AND option_id NOT IN ?", poll.ID, kept).
			Delete(&PollOption{}).Error; err != nil {
			return err
		}

		return tx.Where("poll_id = ? AND option_id NOT IN ?", poll.ID, kept).
			Delete(&Ballot{}).Error
	})
	if err != nil {
		return Poll{}, err
	}

	return d.FindByID(ctx, poll.ID)
}

// UpsertBallot writes the voter's choice, overwriting a previous ballot in
// place. The uniqueness constraint on (poll_id, voter_id) guarantees a single
// row per voter even under concurrent casts. It reports whether an existing
// ballot was updated rather than a new one recorded.
func (d *PollDAO) UpsertBallot(ctx context.Context, pollID, voterID uint, optionID string) (bool, error) {
	updated := false

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Ballot
		err := tx.Where("poll_id = ? AND voter_id = ?", pollID, voterID).First(&existing).Error
		if err == nil {
			updated = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ballot := Ballot{
			PollID:   pollID,
			VoterID:  voterID,
			OptionID: optionID,
			CastAt:   time.Now(),
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"option_id": optionID,
				"cast_at":   ballot.CastAt,
			}),
		}).Create(&ballot).Error
	})
	if err != nil {
		return false, err
	}

	return updated, nil
}

func (d *PollDAO) TallyBallots(ctx context.Context, pollID uint) ([]OptionTally, error) {
	var tallies []OptionTally

	result := d.db.WithContext(ctx).Model(&Ballot{}).
		Select("option_id, COUNT(*) AS count").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&tallies)
	if result.Error != nil {
		return nil, result.Error
	}

	return tallies, nil
}

func (d *PollDAO) FindBallot(ctx context.Context, pollID, voterID uint) (Ballot, error) {
	var ballot Ballot

	result := d.db.WithContext(ctx).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		First(&ballot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ballot{}, ErrBallotNotFound
		}

		return Ballot{}, result.Error
	}

	return ballot, nil
}
