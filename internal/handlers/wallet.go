package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/wallet"
)

// WalletService is the part of wallet.Service the handlers call.
// Every call is scoped to the authenticated user's own wallet.
type WalletService interface {
	Balance(ctx context.Context, userID uuid.UUID) (*wallet.BalanceView, error)
	Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]wallet.TransactionView, error)
	Earnings(ctx context.Context, userID uuid.UUID) (*wallet.EarningsSummary, error)
}

// GetWalletBalance returns a handler for GET /api/v1/wallet/balance.
func GetWalletBalance(svc WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		view, err := svc.Balance(c.UserContext(), actor.UserID)
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// GetWalletTransactions returns a handler for GET /api/v1/wallet/transactions.
// Optional query param: ?limit=50
func GetWalletTransactions(svc WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		list, err := svc.Transactions(c.UserContext(), actor.UserID, c.QueryInt("limit"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transactions": list, "count": len(list)})
	}
}

// GetWalletEarnings returns a handler for GET /api/v1/wallet/earnings.
func GetWalletEarnings(svc WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		summary, err := svc.Earnings(c.UserContext(), actor.UserID)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}
