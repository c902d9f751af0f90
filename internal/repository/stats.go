package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/stats"
)

// Stats implements stats.Repository.
type Stats struct {
	db *gorm.DB
}

func NewStats(db *gorm.DB) *Stats {
	return &Stats{db: db}
}

func (r *Stats) Transaction(ctx context.Context, fn func(tx stats.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Stats{db: tx})
	})
}

func (r *Stats) LockFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	return lockFixture(ctx, r.db, id)
}

func (r *Stats) SetFinalScore(ctx context.Context, fixtureID uuid.UUID, home, away int) error {
	res := r.db.WithContext(ctx).Model(&models.Fixture{}).
		Where("id = ?", fixtureID).
		Updates(map[string]any{"home_score": home, "away_score": away, "status": models.FixtureStatusCompleted})
	return mustAffect(res, "fixture")
}

func (r *Stats) CountStats(ctx context.Context, fixtureID uuid.UUID, status models.StatStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.MatchStat{}).
		Where("fixture_id = ? AND status = ?", fixtureID, status).
		Count(&n).Error
	return n, apperr.Wrap(err)
}

// UpsertStats overwrites the counters of an existing (fixture, player) line
// and puts it back to pending review.
func (r *Stats) UpsertStats(ctx context.Context, list []models.MatchStat) error {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].ID == uuid.Nil {
			list[i].ID = uuid.New()
		}
	}
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "fixture_id"}, {Name: "player_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"team_id", "goals", "assists", "saves", "clean_sheet", "yellow_cards", "red_cards",
					"minutes_played", "is_mvp", "status", "submitted_by", "submitted_at",
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "id"}}},
		).
		Create(&list).Error
	return apperr.Wrap(err)
}

func (r *Stats) SetStatus(ctx context.Context, fixtureID uuid.UUID, status models.StatStatus, by uuid.UUID, at time.Time) ([]models.MatchStat, error) {
	var out []models.MatchStat
	err := r.db.WithContext(ctx).Model(&out).
		Clauses(clause.Returning{}).
		Where("fixture_id = ?", fixtureID).
		Updates(map[string]any{"status": status, "approved_by": by, "approved_at": at}).Error
	return out, apperr.Wrap(err)
}

func (r *Stats) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("match_stats s").
		Select("s.*, p.first_name, p.last_name, p.gamer_tag, p.avatar_url, t.name AS team_name").
		Joins("JOIN players p ON p.id = s.player_id").
		Joins("JOIN teams t ON t.id = s.team_id")
}

func (r *Stats) FixtureStats(ctx context.Context, fixtureID uuid.UUID) ([]stats.View, error) {
	var out []stats.View
	err := r.views(ctx).Where("s.fixture_id = ?", fixtureID).Order("s.team_id, s.goals DESC").Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Stats) PlayerStat(ctx context.Context, fixtureID, playerID uuid.UUID) (*stats.View, error) {
	var out []stats.View
	err := r.views(ctx).Where("s.fixture_id = ? AND s.player_id = ?", fixtureID, playerID).Limit(1).Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("stats not found")
	}
	return &out[0], nil
}

func (r *Stats) PendingFixtures(ctx context.Context, leagueID *uuid.UUID) ([]stats.PendingFixture, error) {
	q := r.db.WithContext(ctx).
		Table("fixtures f").
		Select(`f.id AS fixture_id, f.match_date, f.home_score, f.away_score,
			home.name AS home_team_name, away.name AS away_team_name, COUNT(s.id) AS total_stats`).
		Joins("JOIN teams home ON home.id = f.home_team_id").
		Joins("JOIN teams away ON away.id = f.away_team_id").
		Joins("JOIN match_stats s ON s.fixture_id = f.id AND s.status = ?", models.StatStatusPending).
		Where("f.status = ?", models.FixtureStatusCompleted)
	if leagueID != nil {
		q = q.Where("f.league_id = ?", *leagueID)
	}
	var out []stats.PendingFixture
	err := q.Group("f.id, f.match_date, f.home_score, f.away_score, home.name, away.name").
		Order("f.match_date DESC").
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Stats) DeleteStat(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MatchStat{}), "stats")
}
