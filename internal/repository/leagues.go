package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/leagues"
	"github.com/trentd187/club-league/internal/models"
)

// Leagues implements leagues.Repository.
type Leagues struct {
	db *gorm.DB
}

func NewLeagues(db *gorm.DB) *Leagues {
	return &Leagues{db: db}
}

func (r *Leagues) Transaction(ctx context.Context, fn func(tx leagues.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Leagues{db: tx})
	})
}

func (r *Leagues) CreateLeague(ctx context.Context, l *models.League) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *Leagues) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return getLeague(ctx, r.db, id)
}

func (r *Leagues) LockLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return lockLeague(ctx, r.db, id)
}

func (r *Leagues) ListLeagues(ctx context.Context, filter leagues.ListFilter) ([]leagues.Summary, error) {
	activeTeams := r.db.Model(&models.LeagueTeam{}).
		Select("COUNT(*)").
		Where("league_teams.league_id = l.id AND league_teams.status = ?", models.MembershipActive)
	q := r.db.WithContext(ctx).
		Table("leagues l").
		Select("l.*, (?) AS team_count", activeTeams)
	if filter.Status != "" {
		q = q.Where("l.status = ?", filter.Status)
	}
	if filter.Region != "" {
		q = q.Where("l.region = ?", filter.Region)
	}
	var out []leagues.Summary
	err := q.Order("l.created_at DESC, l.id").Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Leagues) UpdateLeague(ctx context.Context, id uuid.UUID, cols map[string]any) (*models.League, error) {
	var updated models.League
	res := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(cols)
	if err := mustAffect(res, "league"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Leagues) DeleteLeague(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.League{}), "league")
}

func (r *Leagues) LeagueTeams(ctx context.Context, leagueID uuid.UUID) ([]leagues.TeamSummary, error) {
	players := r.db.Model(&models.TeamMember{}).
		Select("COUNT(*)").
		Where("team_members.team_id = t.id AND team_members.status = ?", models.MembershipActive)
	var out []leagues.TeamSummary
	err := r.db.WithContext(ctx).
		Table("league_teams lt").
		Select("t.id AS team_id, t.name, t.crest_url, lt.status, (?) AS player_count", players).
		Joins("JOIN teams t ON t.id = lt.team_id").
		Where("lt.league_id = ?", leagueID).
		Order("t.name").
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Leagues) MatchSummary(ctx context.Context, leagueID uuid.UUID) (leagues.MatchSummary, error) {
	var out leagues.MatchSummary
	err := r.db.WithContext(ctx).Model(&models.Fixture{}).
		Select(`COUNT(*) AS total_matches,
			COUNT(*) FILTER (WHERE status = ?) AS completed_matches,
			COALESCE(SUM(COALESCE(home_score, 0) + COALESCE(away_score, 0)), 0) AS total_goals`,
			models.FixtureStatusCompleted).
		Where("league_id = ?", leagueID).
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Leagues) CountActiveTeams(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	return countActiveTeams(ctx, r.db, leagueID)
}

func (r *Leagues) PendingApplications(ctx context.Context, leagueID uuid.UUID) ([]leagues.Application, error) {
	var out []leagues.Application
	err := r.db.WithContext(ctx).
		Table("league_teams lt").
		Select(`lt.team_id, lt.league_id, lt.status, lt.joined_at,
			t.name AS team_name, t.crest_url, t.platform, t.server_region,
			u.username AS owner_username, u.email AS owner_email`).
		Joins("JOIN teams t ON t.id = lt.team_id").
		Joins("JOIN users u ON u.id = t.created_by").
		Where("lt.league_id = ? AND lt.status = ?", leagueID, models.MembershipPending).
		Order("lt.joined_at").
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Leagues) GetMembership(ctx context.Context, leagueID, teamID uuid.UUID) (*models.LeagueTeam, error) {
	var m models.LeagueTeam
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "application")
	}
	return &m, nil
}

func (r *Leagues) ApproveMembership(ctx context.Context, leagueID, teamID, approvedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.LeagueTeam{}).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Updates(map[string]any{"status": models.MembershipActive, "approved_by": approvedBy, "approved_at": at})
	return mustAffect(res, "application")
}

func (r *Leagues) DeleteMembership(ctx context.Context, leagueID, teamID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Delete(&models.LeagueTeam{})
	return mustAffect(res, "application")
}

func (r *Leagues) CreateChatRoom(ctx context.Context, room *models.ChatRoom) error {
	return createChatRoom(ctx, r.db, room)
}

func (r *Leagues) DeleteChatRoom(ctx context.Context, roomID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("room_id = ?", roomID).Delete(&models.ChatMessage{}).Error; err != nil {
		return apperr.Wrap(err)
	}
	return apperr.Wrap(db.Where("room_id = ?", roomID).Delete(&models.ChatRoom{}).Error)
}
