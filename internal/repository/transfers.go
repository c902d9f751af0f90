package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/transfers"
)

// Transfers implements transfers.Repository.
type Transfers struct {
	db *gorm.DB
}

func NewTransfers(db *gorm.DB) *Transfers {
	return &Transfers{db: db}
}

func (r *Transfers) Transaction(ctx context.Context, fn func(tx transfers.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Transfers{db: tx})
	})
}

func (r *Transfers) IsActiveAssignment(ctx context.Context, playerID, teamID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("player_id = ? AND team_id = ? AND status = ?", playerID, teamID, models.MembershipActive).
		Count(&n).Error
	return n > 0, apperr.Wrap(err)
}

func (r *Transfers) HasPendingTransfer(ctx context.Context, playerID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transfer{}).
		Where("player_id = ? AND status = ?", playerID, models.TransferStatusPending).
		Count(&n).Error
	return n > 0, apperr.Wrap(err)
}

// CreateTransfer relies on the partial unique index over pending transfers to
// settle a race between two concurrent requests for the same player.
func (r *Transfers) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
	if isUniqueViolation(err) {
		return apperr.Conflict("player already has a pending transfer")
	}
	return apperr.Wrap(err)
}

func (r *Transfers) LockTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	var t models.Transfer
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "transfer")
	}
	return &t, nil
}

func (r *Transfers) UpdateTransfer(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	return mustAffect(r.db.WithContext(ctx).Model(&models.Transfer{}).Where("id = ?", id).Updates(cols), "transfer")
}

func (r *Transfers) ListTransfers(ctx context.Context, filter transfers.ListFilter) ([]transfers.View, error) {
	q := r.db.WithContext(ctx).
		Table("transfers tr").
		Select(`tr.*, p.first_name, p.last_name, p.gamer_tag,
			ft.name AS from_team_name, tt.name AS to_team_name, l.name AS league_name`).
		Joins("JOIN players p ON p.id = tr.player_id").
		Joins("JOIN teams ft ON ft.id = tr.from_team_id").
		Joins("JOIN teams tt ON tt.id = tr.to_team_id").
		Joins("LEFT JOIN leagues l ON l.id = tr.league_id")
	if filter.Status != "" {
		q = q.Where("tr.status = ?", filter.Status)
	}
	if filter.LeagueID != nil {
		q = q.Where("tr.league_id = ?", *filter.LeagueID)
	}
	if filter.TeamID != nil {
		q = q.Where("tr.from_team_id = ? OR tr.to_team_id = ?", *filter.TeamID, *filter.TeamID)
	}
	if filter.PlayerID != nil {
		q = q.Where("tr.player_id = ?", *filter.PlayerID)
	}
	var out []transfers.View
	err := q.Order("tr.requested_at DESC, tr.id").Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Transfers) DeactivateAssignment(ctx context.Context, playerID, teamID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("player_id = ? AND team_id = ? AND status = ?", playerID, teamID, models.MembershipActive).
		Updates(map[string]any{"status": models.MembershipInactive, "left_at": at}).Error
	return apperr.Wrap(err)
}

func (r *Transfers) CreateAssignment(ctx context.Context, a *models.TeamMember) error {
	return createAssignment(ctx, r.db, a)
}
