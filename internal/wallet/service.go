// Package wallet exposes a player's balance and ledger history.
//
// The transactions table is the source of truth. wallets.balance is a cache
// kept in step by the payout path; Balance recomputes it from the ledger and
// repairs the cache if the two ever disagree.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/models"
)

const defaultLimit = 50

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// PlayerByUser returns the player profile of a user, or not found.
	PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error)
	EnsureWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error)
	// FindWallet returns nil without error when the player has no wallet yet.
	FindWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error)
	LedgerBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	SetBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error
	WalletTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]TransactionView, error)
	EarningsByType(ctx context.Context, walletID uuid.UUID) ([]Earning, error)
}

// TransactionView is a ledger entry with the fixture it paid out for.
type TransactionView struct {
	models.Transaction
	MatchDate *time.Time `json:"match_date"`
	HomeTeam  *string    `json:"home_team"`
	AwayTeam  *string    `json:"away_team"`
}

// Earning is the sum of one transaction type.
type Earning struct {
	TransactionType models.TransactionType `json:"transaction_type"`
	Count           int64                  `json:"count"`
	Total           decimal.Decimal        `json:"total"`
}

// BalanceView is what a player sees for their wallet.
type BalanceView struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
	Player   PlayerSummary   `json:"player"`
}

type PlayerSummary struct {
	PlayerID  uuid.UUID `json:"player_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	GamerTag  string    `json:"gamer_tag"`
}

// EarningsSummary groups a wallet's credits by type.
type EarningsSummary struct {
	Breakdown     []Earning       `json:"breakdown"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "wallet").Logger()}
}

// Balance returns the caller's wallet, creating it if needed.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceView, error) {
	player, err := s.repo.PlayerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var view BalanceView
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		w, err := tx.EnsureWallet(ctx, player.ID)
		if err != nil {
			return err
		}
		ledger, err := tx.LedgerBalance(ctx, w.ID)
		if err != nil {
			return err
		}
		if !ledger.Equal(w.Balance) {
			s.logger.Warn().
				Str("wallet_id", w.ID.String()).
				Str("cached", w.Balance.String()).
				Str("ledger", ledger.String()).
				Msg("wallet balance drifted from ledger, repairing")
			if err := tx.SetBalance(ctx, w.ID, ledger); err != nil {
				return err
			}
		}
		view = BalanceView{WalletID: w.ID, Balance: ledger, Player: summarize(player)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Transactions lists the caller's ledger entries, newest first.
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]TransactionView, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	w, err := s.walletOf(ctx, userID)
	if err != nil || w == nil {
		return []TransactionView{}, err
	}
	return s.repo.WalletTransactions(ctx, w.ID, limit)
}

// Earnings summarizes the caller's credits by transaction type.
func (s *Service) Earnings(ctx context.Context, userID uuid.UUID) (*EarningsSummary, error) {
	summary := &EarningsSummary{Breakdown: []Earning{}, TotalEarnings: decimal.Zero}
	w, err := s.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return summary, nil
	}

	earnings, err := s.repo.EarningsByType(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	summary.Breakdown = earnings
	for _, e := range earnings {
		summary.TotalEarnings = summary.TotalEarnings.Add(e.Total)
	}
	return summary, nil
}

func (s *Service) walletOf(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	player, err := s.repo.PlayerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindWallet(ctx, player.ID)
}

func summarize(p *models.Player) PlayerSummary {
	return PlayerSummary{PlayerID: p.ID, FirstName: p.FirstName, LastName: p.LastName, GamerTag: p.GamerTag}
}
