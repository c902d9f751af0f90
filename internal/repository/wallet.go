package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/wallet"
)

// Wallets implements wallet.Repository.
type Wallets struct {
	db *gorm.DB
}

func NewWallets(db *gorm.DB) *Wallets {
	return &Wallets{db: db}
}

func (r *Wallets) Transaction(ctx context.Context, fn func(tx wallet.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Wallets{db: tx})
	})
}

func (r *Wallets) PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	return playerByUser(ctx, r.db, userID)
}

func (r *Wallets) EnsureWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error) {
	return ensureWallet(ctx, r.db, playerID)
}

func (r *Wallets) FindWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", models.WalletOwnerPlayer, playerID).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &w, nil
}

func (r *Wallets) LedgerBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("to_wallet_id = ?", walletID).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, apperr.Wrap(err)
	}
	return sum, nil
}

func (r *Wallets) SetBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).Where("id = ?", walletID).Update("balance", balance)
	return mustAffect(res, "wallet")
}

func (r *Wallets) WalletTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]wallet.TransactionView, error) {
	var out []wallet.TransactionView
	err := r.db.WithContext(ctx).
		Table("transactions tx").
		Select("tx.*, f.match_date, home.name AS home_team, away.name AS away_team").
		Joins("LEFT JOIN fixtures f ON f.id = tx.fixture_id").
		Joins("LEFT JOIN teams home ON home.id = f.home_team_id").
		Joins("LEFT JOIN teams away ON away.id = f.away_team_id").
		Where("tx.to_wallet_id = ?", walletID).
		Order("tx.executed_at DESC, tx.id").
		Limit(limit).
		Scan(&out).Error
	return out, apperr.Wrap(err)
}

func (r *Wallets) EarningsByType(ctx context.Context, walletID uuid.UUID) ([]wallet.Earning, error) {
	var out []wallet.Earning
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("transaction_type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("to_wallet_id = ?", walletID).
		Group("transaction_type").
		Order("transaction_type").
		Scan(&out).Error
	return out, apperr.Wrap(err)
}
