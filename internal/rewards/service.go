package rewards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Repository is the storage port for the reward ledger.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// LockFixture reads the fixture with SELECT ... FOR UPDATE. Stat approval
	// takes the same lock, so approval and calculation for one fixture serialize.
	LockFixture(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error)
	ApprovedStats(ctx context.Context, fixtureID uuid.UUID) ([]models.MatchStat, error)
	CountFixtureRewards(ctx context.Context, fixtureID uuid.UUID) (int64, error)
	InsertRewards(ctx context.Context, rewards []models.PendingReward) error

	// LockApprovedRewards returns the subset of ids still approved, locking the rows.
	LockApprovedRewards(ctx context.Context, ids []uuid.UUID) ([]models.PendingReward, error)
	// EnsureWallet returns the player's wallet, creating it on first use.
	EnsureWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error)
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	CreditWallet(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	MarkRewardPaid(ctx context.Context, rewardID, paidBy uuid.UUID, paidAt time.Time) error

	ListRewards(ctx context.Context, filter RewardFilter) ([]RewardView, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
}

// RewardView is a staged reward with the display fields callers list it with.
type RewardView struct {
	models.PendingReward
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	GamerTag  string     `json:"gamer_tag"`
	TeamName  string     `json:"team_name"`
	MatchDate *time.Time `json:"match_date"`
}

// RewardFilter narrows the pending reward listing. Status defaults to approved.
type RewardFilter struct {
	Status    models.RewardStatus
	LeagueID  *uuid.UUID
	PlayerID  *uuid.UUID
	FixtureID *uuid.UUID
}

// TransactionFilter narrows the transaction history.
type TransactionFilter struct {
	PlayerID  *uuid.UUID
	FixtureID *uuid.UUID
	Limit     int
}

type Service struct {
	repo   Repository
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewService(repo Repository, clock clockwork.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{repo: repo, clock: clock, logger: logger.With().Str("component", "rewards").Logger()}
}

// CalculateResult is the staged rewards for one fixture and their sum.
type CalculateResult struct {
	Rewards []models.PendingReward
	Total   decimal.Decimal
}

// Calculate stages one reward per approved stat line of the fixture.
//
// A fixture is calculated once: if rewards already exist for it the call
// fails with a conflict instead of staging duplicates.
func (s *Service) Calculate(ctx context.Context, fixtureID, calculatedBy uuid.UUID) (*CalculateResult, error) {
	var result CalculateResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.LockFixture(ctx, fixtureID); err != nil {
			return err
		}

		stats, err := tx.ApprovedStats(ctx, fixtureID)
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			return apperr.NotFound("no approved stats found for fixture %s", fixtureID)
		}

		existing, err := tx.CountFixtureRewards(ctx, fixtureID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("rewards have already been calculated for fixture %s", fixtureID)
		}

		now := s.clock.Now()
		rewards := make([]models.PendingReward, len(stats))
		total := decimal.Zero
		for i, stat := range stats {
			amount, breakdown := Score(stat)
			rewards[i] = models.PendingReward{
				FixtureID:    fixtureID,
				PlayerID:     stat.PlayerID,
				TeamID:       stat.TeamID,
				Amount:       decimal.NewFromInt(amount),
				Breakdown:    breakdown,
				Status:       models.RewardStatusApproved,
				CalculatedBy: calculatedBy,
				CalculatedAt: now,
			}
			total = total.Add(rewards[i].Amount)
		}
		if err := tx.InsertRewards(ctx, rewards); err != nil {
			return err
		}

		result = CalculateResult{Rewards: rewards, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("fixture_id", fixtureID.String()).
		Int("reward_count", len(result.Rewards)).
		Str("total", result.Total.String()).
		Msg("rewards calculated")
	return &result, nil
}

// PayoutResult is the ledger entries written by one payout batch.
type PayoutResult struct {
	Transactions []models.Transaction
	TotalPaid    decimal.Decimal
}

// Payout credits every still-approved reward among ids to its player's wallet.
//
// The batch is one transaction. Selected rewards are locked FOR UPDATE, so two
// batches sharing ids cannot both pay the same reward; the later one only sees
// what the earlier one left approved. Ids that are missing or already paid are
// skipped. If nothing payable remains the call fails with not found and writes
// nothing.
func (s *Service) Payout(ctx context.Context, ids []uuid.UUID, executedBy uuid.UUID) (*PayoutResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, apperr.Validation("no rewards selected for payout")
	}

	var result PayoutResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		rewards, err := tx.LockApprovedRewards(ctx, ids)
		if err != nil {
			return err
		}
		if len(rewards) == 0 {
			return apperr.NotFound("no approved rewards found")
		}

		now := s.clock.Now()
		result = PayoutResult{Transactions: make([]models.Transaction, 0, len(rewards)), TotalPaid: decimal.Zero}
		for _, reward := range rewards {
			wallet, err := tx.EnsureWallet(ctx, reward.PlayerID)
			if err != nil {
				return err
			}

			fixtureID, rewardID := reward.FixtureID, reward.ID
			txn := models.Transaction{
				ToWalletID:      wallet.ID,
				Amount:          reward.Amount,
				TransactionType: models.TransactionTypeReward,
				FixtureID:       &fixtureID,
				RewardID:        &rewardID,
				Description:     describe(reward.Breakdown),
				ExecutedBy:      executedBy,
				ExecutedAt:      now,
			}
			if err := tx.InsertTransaction(ctx, &txn); err != nil {
				return err
			}
			if err := tx.CreditWallet(ctx, wallet.ID, reward.Amount); err != nil {
				return err
			}
			if err := tx.MarkRewardPaid(ctx, reward.ID, executedBy, now); err != nil {
				return err
			}

			result.Transactions = append(result.Transactions, txn)
			result.TotalPaid = result.TotalPaid.Add(reward.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("requested", len(ids)).
		Int("paid", len(result.Transactions)).
		Str("total_paid", result.TotalPaid.String()).
		Str("executed_by", executedBy.String()).
		Msg("reward payout executed")
	return &result, nil
}

// PendingResult is a filtered reward listing with its sum.
type PendingResult struct {
	Rewards     []RewardView
	TotalAmount decimal.Decimal
}

// Pending lists staged rewards, newest first. With no status given only
// approved (unpaid) rewards are listed.
func (s *Service) Pending(ctx context.Context, filter RewardFilter) (*PendingResult, error) {
	switch filter.Status {
	case "":
		filter.Status = models.RewardStatusApproved
	case models.RewardStatusApproved, models.RewardStatusPaid:
	default:
		return nil, apperr.Validation("unknown reward status %q", filter.Status)
	}

	rewards, err := s.repo.ListRewards(ctx, filter)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rewards {
		total = total.Add(r.Amount)
	}
	return &PendingResult{Rewards: rewards, TotalAmount: total}, nil
}

// History lists ledger transactions, newest first.
func (s *Service) History(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	switch {
	case filter.Limit < 0:
		return nil, apperr.Validation("limit must not be negative")
	case filter.Limit == 0:
		filter.Limit = DefaultHistoryLimit
	case filter.Limit > MaxHistoryLimit:
		filter.Limit = MaxHistoryLimit
	}
	return s.repo.ListTransactions(ctx, filter)
}

func describe(breakdown []models.RewardLineItem) string {
	if len(breakdown) == 0 {
		return "Match reward"
	}
	parts := make([]string, len(breakdown))
	for i, item := range breakdown {
		parts[i] = fmt.Sprintf("%s x%d", item.Reason, item.Count)
	}
	return "Match reward: " + strings.Join(parts, ", ")
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
