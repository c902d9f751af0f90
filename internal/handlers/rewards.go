package handlers

// This file handles the /api/v1/rewards routes: staging rewards from approved
// match stats, listing what is owed, and paying it out to player wallets.
//
// Only the cfo and admin roles may execute a payout (enforced on the route).

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/rewards"
)

// RewardService is the part of rewards.Service the handlers call.
type RewardService interface {
	Calculate(ctx context.Context, fixtureID, calculatedBy uuid.UUID) (*rewards.CalculateResult, error)
	Payout(ctx context.Context, ids []uuid.UUID, executedBy uuid.UUID) (*rewards.PayoutResult, error)
	Pending(ctx context.Context, filter rewards.RewardFilter) (*rewards.PendingResult, error)
	History(ctx context.Context, filter rewards.TransactionFilter) ([]models.Transaction, error)
}

// CalculateRewards returns a handler for POST /api/v1/rewards/calculate/:fixtureId.
func CalculateRewards(svc RewardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		fixtureID, err := paramUUID(c, "fixtureId")
		if err != nil {
			return err
		}
		result, err := svc.Calculate(c.UserContext(), fixtureID, actor.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"rewards": result.Rewards, "total": result.Total})
	}
}

// GetPendingRewards returns a handler for GET /api/v1/rewards/pending.
// Optional query params: ?status=paid&league_id=<id>&player_id=<id>&fixture_id=<id>
// Without a status only approved (unpaid) rewards are listed.
func GetPendingRewards(svc RewardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := rewards.RewardFilter{Status: models.RewardStatus(c.Query("status"))}
		var err error
		if filter.LeagueID, err = queryUUID(c, "league_id"); err != nil {
			return err
		}
		if filter.PlayerID, err = queryUUID(c, "player_id"); err != nil {
			return err
		}
		if filter.FixtureID, err = queryUUID(c, "fixture_id"); err != nil {
			return err
		}

		result, err := svc.Pending(c.UserContext(), filter)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"rewards":      result.Rewards,
			"count":        len(result.Rewards),
			"total_amount": result.TotalAmount,
		})
	}
}

// PayoutRequest is the JSON body of POST /api/v1/rewards/payout.
type PayoutRequest struct {
	RewardIDs []uuid.UUID `json:"reward_ids"`
}

// ExecutePayout returns a handler for POST /api/v1/rewards/payout.
// Ids that are already paid or unknown are skipped; an empty selection is a 400
// and a selection with nothing payable a 404.
func ExecutePayout(svc RewardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req PayoutRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		result, err := svc.Payout(c.UserContext(), req.RewardIDs, actor.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"transactions": result.Transactions,
			"total_paid":   result.TotalPaid,
			"count":        len(result.Transactions),
		})
	}
}

// GetTransactions returns a handler for GET /api/v1/rewards/transactions.
// Optional query params: ?player_id=<id>&fixture_id=<id>&limit=50
func GetTransactions(svc RewardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := rewards.TransactionFilter{Limit: c.QueryInt("limit")}
		var err error
		if filter.PlayerID, err = queryUUID(c, "player_id"); err != nil {
			return err
		}
		if filter.FixtureID, err = queryUUID(c, "fixture_id"); err != nil {
			return err
		}

		list, err := svc.History(c.UserContext(), filter)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transactions": list, "count": len(list)})
	}
}
