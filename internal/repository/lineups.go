package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/lineups"
	"github.com/trentd187/club-league/internal/models"
)

// Lineups implements lineups.Repository.
type Lineups struct {
	db *gorm.DB
}

func NewLineups(db *gorm.DB) *Lineups {
	return &Lineups{db: db}
}

func (r *Lineups) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	return getFixture(ctx, r.db, id)
}

func (r *Lineups) FindLineup(ctx context.Context, fixtureID, teamID uuid.UUID) (*models.Lineup, error) {
	var l models.Lineup
	err := r.db.WithContext(ctx).Where("fixture_id = ? AND team_id = ?", fixtureID, teamID).Take(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &l, nil
}

// UpsertLineup never overwrites a locked lineup, even if it was locked after
// the caller's check.
func (r *Lineups) UpsertLineup(ctx context.Context, l *models.Lineup) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "fixture_id"}, {Name: "team_id"}},
				Where:   clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "lineups.locked = false"}}},
				DoUpdates: clause.AssignmentColumns([]string{
					"formation", "starting_11", "substitutes", "captain_id", "submitted_by", "submitted_at",
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "id"}}},
		).
		Create(l)
	if res.Error != nil {
		return apperr.Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("lineup is locked")
	}
	return nil
}

func (r *Lineups) FixtureLineups(ctx context.Context, fixtureID uuid.UUID) ([]lineups.View, error) {
	var out []lineups.View
	err := r.db.WithContext(ctx).
		Table("lineups l").
		Select("l.*, t.name AS team_name, t.crest_url AS team_crest").
		Joins("JOIN teams t ON t.id = l.team_id").
		Where("l.fixture_id = ?", fixtureID).
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Lineups) LockLineup(ctx context.Context, id uuid.UUID, at time.Time) (*models.Lineup, error) {
	var l models.Lineup
	res := r.db.WithContext(ctx).Model(&l).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{"locked": true, "locked_at": at})
	if err := mustAffect(res, "lineup"); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Lineups) DeleteLineup(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Lineup{}), "lineup")
}
