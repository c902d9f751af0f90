package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/models"
)

// insertBatchSize keeps a full double round robin for a large league within
// Postgres' bind parameter limit.
const insertBatchSize = 200

// Fixtures implements fixtures.Repository.
type Fixtures struct {
	db *gorm.DB
}

func NewFixtures(db *gorm.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (r *Fixtures) Transaction(ctx context.Context, fn func(tx fixtures.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Fixtures{db: tx})
	})
}

func (r *Fixtures) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return getLeague(ctx, r.db, id)
}

func (r *Fixtures) LockLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return lockLeague(ctx, r.db, id)
}

func (r *Fixtures) EligibleTeams(ctx context.Context, leagueID uuid.UUID) ([]fixtures.Team, error) {
	var teams []fixtures.Team
	err := r.db.WithContext(ctx).
		Table("teams t").
		Select("t.id, t.name").
		Joins("JOIN league_teams lt ON lt.team_id = t.id").
		Where("lt.league_id = ? AND lt.status = ? AND t.status = ?", leagueID, models.MembershipActive, models.MembershipActive).
		Order("t.created_at, t.id").
		Scan(&teams).Error
	return teams, apperr.Wrap(err)
}

func (r *Fixtures) IsActiveMember(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.LeagueTeam{}).
		Where("league_id = ? AND team_id = ? AND status = ?", leagueID, teamID, models.MembershipActive).
		Count(&n).Error
	return n > 0, apperr.Wrap(err)
}

func (r *Fixtures) HasRewards(ctx context.Context, leagueID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM pending_rewards pr JOIN fixtures f ON f.id = pr.fixture_id WHERE f.league_id = ?
		) OR EXISTS (
			SELECT 1 FROM transactions t JOIN fixtures f ON f.id = t.fixture_id WHERE f.league_id = ?
		)`, leagueID, leagueID).Scan(&exists).Error
	return exists, apperr.Wrap(err)
}

func (r *Fixtures) DeleteLeagueFixtures(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("league_id = ?", leagueID).Delete(&models.Fixture{})
	return res.RowsAffected, apperr.Wrap(res.Error)
}

func (r *Fixtures) InsertFixtures(ctx context.Context, list []models.Fixture) error {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].ID == uuid.Nil {
			list[i].ID = uuid.New()
		}
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(list, insertBatchSize).Error)
}

func (r *Fixtures) CreateFixture(ctx context.Context, f *models.Fixture) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

func (r *Fixtures) ListFixtures(ctx context.Context, leagueID uuid.UUID, filter fixtures.ListFilter) ([]models.Fixture, error) {
	q := r.db.WithContext(ctx).Where("league_id = ?", leagueID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Week > 0 {
		q = q.Where("match_week = ?", filter.Week)
	}
	var out []models.Fixture
	err := q.Order("match_date, id").Find(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Fixtures) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	return getFixture(ctx, r.db, id)
}

func (r *Fixtures) UpdateFixture(ctx context.Context, id uuid.UUID, patch fixtures.Patch) (*models.Fixture, error) {
	var updated models.Fixture
	res := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	if err := mustAffect(res, "fixture"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Fixtures) DeleteFixture(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Fixture{}), "fixture")
}
