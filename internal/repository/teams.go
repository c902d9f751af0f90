package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/teams"
)

// Teams implements teams.Repository.
type Teams struct {
	db *gorm.DB
}

func NewTeams(db *gorm.DB) *Teams {
	return &Teams{db: db}
}

func (r *Teams) Transaction(ctx context.Context, fn func(tx teams.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Teams{db: tx})
	})
}

func (r *Teams) PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	return playerByUser(ctx, r.db, userID)
}

func (r *Teams) PlayerByContact(ctx context.Context, email, username string) (*models.Player, error) {
	q := r.db.WithContext(ctx).
		Table("players p").
		Select("p.*").
		Joins("JOIN users u ON u.id = p.user_id")
	if email != "" {
		q = q.Where("LOWER(u.email) = LOWER(?)", email)
	} else {
		q = q.Where("u.username = ?", username)
	}
	var player models.Player
	if err := q.Take(&player).Error; err != nil {
		return nil, notFound(err, "player")
	}
	return &player, nil
}

func (r *Teams) CreateTeam(ctx context.Context, t *models.Team) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (r *Teams) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "team")
	}
	return &t, nil
}

func (r *Teams) CreateChatRoom(ctx context.Context, room *models.ChatRoom) error {
	return createChatRoom(ctx, r.db, room)
}

// FindAssignment prefers the active row when a player has several.
func (r *Teams) FindAssignment(ctx context.Context, teamID, playerID uuid.UUID) (*models.TeamMember, error) {
	var a models.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND player_id = ?", teamID, playerID).
		Order("CASE WHEN status = 'active' THEN 0 ELSE 1 END").
		Order("joined_at DESC").
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &a, nil
}

func (r *Teams) CreateAssignment(ctx context.Context, a *models.TeamMember) error {
	return createAssignment(ctx, r.db, a)
}

func (r *Teams) ReactivateAssignment(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.MembershipActive, "left_at": nil, "joined_at": at})
	return mustAffect(res, "assignment")
}

func (r *Teams) Roster(ctx context.Context, teamID uuid.UUID) ([]teams.RosterEntry, error) {
	var out []teams.RosterEntry
	err := r.db.WithContext(ctx).
		Table("team_members tm").
		Select(`p.id AS player_id, p.first_name, p.last_name, p.gamer_tag,
			tm.role_in_team, COALESCE(tm.jersey_number, p.jersey_number) AS jersey_number, tm.joined_at`).
		Joins("JOIN players p ON p.id = tm.player_id").
		Where("tm.team_id = ? AND tm.status = ?", teamID, models.MembershipActive).
		Order("CASE tm.role_in_team WHEN 'owner' THEN 0 WHEN 'captain' THEN 1 ELSE 2 END, p.last_name").
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Teams) LockLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return lockLeague(ctx, r.db, id)
}

func (r *Teams) CountActiveTeams(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	return countActiveTeams(ctx, r.db, leagueID)
}

func (r *Teams) MembershipExists(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.LeagueTeam{}).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Count(&n).Error
	return n > 0, apperr.Wrap(err)
}

func (r *Teams) CreateMembership(ctx context.Context, m *models.LeagueTeam) error {
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (r *Teams) HasPendingRequest(ctx context.Context, teamID, playerID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("team_id = ? AND player_id = ? AND status = ?", teamID, playerID, models.MembershipPending).
		Count(&n).Error
	return n > 0, apperr.Wrap(err)
}

func (r *Teams) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return apperr.Wrap(r.db.WithContext(ctx).Create(req).Error)
}

// GetJoinRequest locks the request so two acceptances cannot both admit the player.
func (r *Teams) GetJoinRequest(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "request")
	}
	return &req, nil
}

func (r *Teams) DeleteJoinRequest(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.JoinRequest{}), "request")
}
