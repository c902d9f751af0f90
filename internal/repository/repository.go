// Package repository holds the GORM implementations of the storage ports the
// domain packages declare. Each domain gets its own small type wrapping a
// *gorm.DB; Transaction hands the callback a copy bound to one transaction.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/leagues"
	"github.com/trentd187/club-league/internal/lineups"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/rewards"
	"github.com/trentd187/club-league/internal/standings"
	"github.com/trentd187/club-league/internal/stats"
	"github.com/trentd187/club-league/internal/teams"
	"github.com/trentd187/club-league/internal/transfers"
	"github.com/trentd187/club-league/internal/wallet"
)

var (
	_ fixtures.Repository  = (*Fixtures)(nil)
	_ standings.Repository = (*Standings)(nil)
	_ rewards.Repository   = (*Rewards)(nil)
	_ wallet.Repository    = (*Wallets)(nil)
	_ leagues.Repository   = (*Leagues)(nil)
	_ teams.Repository     = (*Teams)(nil)
	_ transfers.Repository = (*Transfers)(nil)
	_ stats.Repository     = (*Stats)(nil)
	_ lineups.Repository   = (*Lineups)(nil)
)

// notFound turns gorm.ErrRecordNotFound into a NotFound error naming what
// was missing, and classifies everything else as a persistence failure.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Wrap(err)
}

// mustAffect reports NotFound when a write matched no rows.
func mustAffect(res *gorm.DB, what string) error {
	if res.Error != nil {
		return apperr.Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("%s not found", what)
	}
	return nil
}

// isUniqueViolation needs the connection opened with TranslateError so the
// driver's 23505 surfaces as gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func getLeague(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.League, error) {
	var league models.League
	if err := db.WithContext(ctx).First(&league, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "league")
	}
	return &league, nil
}

func lockLeague(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.League, error) {
	var league models.League
	if err := db.WithContext(ctx).Clauses(forUpdate()).First(&league, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "league")
	}
	return &league, nil
}

func lockFixture(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Fixture, error) {
	var fixture models.Fixture
	if err := db.WithContext(ctx).Clauses(forUpdate()).First(&fixture, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "fixture")
	}
	return &fixture, nil
}

func getFixture(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Fixture, error) {
	var fixture models.Fixture
	if err := db.WithContext(ctx).First(&fixture, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "fixture")
	}
	return &fixture, nil
}

func countActiveTeams(ctx context.Context, db *gorm.DB, leagueID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.LeagueTeam{}).
		Where("league_id = ? AND status = ?", leagueID, models.MembershipActive).
		Count(&n).Error
	return n, apperr.Wrap(err)
}

func playerByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*models.Player, error) {
	var player models.Player
	if err := db.WithContext(ctx).First(&player, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "player profile")
	}
	return &player, nil
}

// createChatRoom inserts the room unless one with the same ID already exists.
func createChatRoom(ctx context.Context, db *gorm.DB, room *models.ChatRoom) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(room).Error
	return apperr.Wrap(err)
}

func createAssignment(ctx context.Context, db *gorm.DB, a *models.TeamMember) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return apperr.Wrap(db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

// ensureWallet returns the player's wallet, creating it with a zero balance
// on first use. Concurrent first uses race on the (owner_type, owner_id)
// unique index; the loser's insert is a no-op and both read the same row.
func ensureWallet(ctx context.Context, db *gorm.DB, playerID uuid.UUID) (*models.Wallet, error) {
	wallet := models.Wallet{
		ID:        uuid.New(),
		OwnerType: models.WalletOwnerPlayer,
		OwnerID:   playerID,
		Balance:   decimal.Zero,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}}, DoNothing: true}).
		Create(&wallet).Error
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	var stored models.Wallet
	err = db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", models.WalletOwnerPlayer, playerID).
		First(&stored).Error
	if err != nil {
		return nil, notFound(err, "wallet")
	}
	return &stored, nil
}
