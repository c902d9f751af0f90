package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/rewards"
)

// Rewards implements rewards.Repository.
type Rewards struct {
	db *gorm.DB
}

func NewRewards(db *gorm.DB) *Rewards {
	return &Rewards{db: db}
}

func (r *Rewards) Transaction(ctx context.Context, fn func(tx rewards.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Rewards{db: tx})
	})
}

func (r *Rewards) LockFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	return lockFixture(ctx, r.db, id)
}

func (r *Rewards) ApprovedStats(ctx context.Context, fixtureID uuid.UUID) ([]models.MatchStat, error) {
	var stats []models.MatchStat
	err := r.db.WithContext(ctx).
		Where("fixture_id = ? AND status = ?", fixtureID, models.StatStatusApproved).
		Order("submitted_at, id").
		Find(&stats).Error
	return stats, apperr.Wrap(err)
}

func (r *Rewards) CountFixtureRewards(ctx context.Context, fixtureID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PendingReward{}).Where("fixture_id = ?", fixtureID).Count(&n).Error
	return n, apperr.Wrap(err)
}

func (r *Rewards) InsertRewards(ctx context.Context, list []models.PendingReward) error {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].ID == uuid.Nil {
			list[i].ID = uuid.New()
		}
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(&list).Error)
}

func (r *Rewards) LockApprovedRewards(ctx context.Context, ids []uuid.UUID) ([]models.PendingReward, error) {
	var out []models.PendingReward
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("id IN ? AND status = ?", ids, models.RewardStatusApproved).
		Order("calculated_at, id").
		Find(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Rewards) EnsureWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error) {
	return ensureWallet(ctx, r.db, playerID)
}

func (r *Rewards) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return apperr.Wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(txn).Error)
}

func (r *Rewards) CreditWallet(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	return mustAffect(res, "wallet")
}

func (r *Rewards) MarkRewardPaid(ctx context.Context, rewardID, paidBy uuid.UUID, paidAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.PendingReward{}).
		Where("id = ? AND status = ?", rewardID, models.RewardStatusApproved).
		Updates(map[string]any{"status": models.RewardStatusPaid, "paid_by": paidBy, "paid_at": paidAt})
	return mustAffect(res, "approved reward")
}

func (r *Rewards) ListRewards(ctx context.Context, filter rewards.RewardFilter) ([]rewards.RewardView, error) {
	q := r.db.WithContext(ctx).
		Table("pending_rewards pr").
		Select("pr.*, p.first_name, p.last_name, p.gamer_tag, t.name AS team_name, f.match_date").
		Joins("JOIN players p ON p.id = pr.player_id").
		Joins("JOIN teams t ON t.id = pr.team_id").
		Joins("LEFT JOIN fixtures f ON f.id = pr.fixture_id").
		Where("pr.status = ?", filter.Status)
	if filter.LeagueID != nil {
		q = q.Where("f.league_id = ?", *filter.LeagueID)
	}
	if filter.PlayerID != nil {
		q = q.Where("pr.player_id = ?", *filter.PlayerID)
	}
	if filter.FixtureID != nil {
		q = q.Where("pr.fixture_id = ?", *filter.FixtureID)
	}
	var out []rewards.RewardView
	err := q.Order("pr.calculated_at DESC, pr.id").Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Rewards) ListTransactions(ctx context.Context, filter rewards.TransactionFilter) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.PlayerID != nil {
		q = q.Joins("JOIN wallets w ON w.id = transactions.to_wallet_id").
			Where("w.owner_type = ? AND w.owner_id = ?", models.WalletOwnerPlayer, *filter.PlayerID)
	}
	if filter.FixtureID != nil {
		q = q.Where("transactions.fixture_id = ?", *filter.FixtureID)
	}
	var out []models.Transaction
	err := q.Order("transactions.executed_at DESC, transactions.id").Limit(filter.Limit).Find(&out).Error
	return out, apperr.Wrap(err)
}
