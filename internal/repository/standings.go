package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/standings"
)

// Standings implements standings.Repository.
type Standings struct {
	db *gorm.DB
}

func NewStandings(db *gorm.DB) *Standings {
	return &Standings{db: db}
}

func (r *Standings) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return getLeague(ctx, r.db, id)
}

func (r *Standings) LeagueTeams(ctx context.Context, leagueID uuid.UUID) ([]standings.TeamInfo, error) {
	var teams []standings.TeamInfo
	err := r.db.WithContext(ctx).
		Table("teams t").
		Select("t.id, t.name, t.crest_url").
		Joins("JOIN league_teams lt ON lt.team_id = t.id").
		Where("lt.league_id = ? AND lt.status = ?", leagueID, models.MembershipActive).
		Order("t.created_at, t.id").
		Scan(&teams).Error
	return teams, apperr.Wrap(err)
}

func (r *Standings) CompletedResults(ctx context.Context, leagueID uuid.UUID) ([]standings.Result, error) {
	var results []standings.Result
	err := r.db.WithContext(ctx).
		Model(&models.Fixture{}).
		Select("home_team_id, away_team_id, home_score, away_score, match_date").
		Where("league_id = ? AND status = ?", leagueID, models.FixtureStatusCompleted).
		Where("home_score IS NOT NULL AND away_score IS NOT NULL").
		Order("match_date, id").
		Scan(&results).Error
	return results, apperr.Wrap(err)
}
