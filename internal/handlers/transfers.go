package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/transfers"
)

// TransferService is the part of transfers.Service the handlers call.
type TransferService interface {
	Request(ctx context.Context, actor models.Actor, req transfers.CreateRequest) (*models.Transfer, error)
	List(ctx context.Context, filter transfers.ListFilter) ([]transfers.View, error)
	PlayerHistory(ctx context.Context, playerID uuid.UUID) ([]transfers.View, error)
	Approve(ctx context.Context, actor models.Actor, transferID uuid.UUID) error
	Reject(ctx context.Context, actor models.Actor, transferID uuid.UUID, reason *string) error
}

// CreateTransferRequest is the JSON body of POST /api/v1/transfers.
type CreateTransferRequest struct {
	PlayerID     string          `json:"player_id" validate:"required,uuid"`
	FromTeamID   string          `json:"from_team_id" validate:"required,uuid"`
	ToTeamID     string          `json:"to_team_id" validate:"required,uuid"`
	LeagueID     *string         `json:"league_id" validate:"omitempty,uuid"`
	TransferType string          `json:"transfer_type" validate:"omitempty,max=50"`
	TransferFee  decimal.Decimal `json:"transfer_fee"`
	Notes        *string         `json:"notes"`
}

// CreateTransfer returns a handler for POST /api/v1/transfers.
func CreateTransfer(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req CreateTransferRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		create := transfers.CreateRequest{
			PlayerID:     uuid.MustParse(req.PlayerID),
			FromTeamID:   uuid.MustParse(req.FromTeamID),
			ToTeamID:     uuid.MustParse(req.ToTeamID),
			TransferType: req.TransferType,
			TransferFee:  req.TransferFee,
			Notes:        req.Notes,
		}
		if req.LeagueID != nil {
			id := uuid.MustParse(*req.LeagueID)
			create.LeagueID = &id
		}

		transfer, err := svc.Request(c.UserContext(), actor, create)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transfer": transfer})
	}
}

// GetTransfers returns a handler for GET /api/v1/transfers.
// Optional query params: ?status=pending&league_id=<id>&team_id=<id>
func GetTransfers(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		leagueID, err := queryUUID(c, "league_id")
		if err != nil {
			return err
		}
		teamID, err := queryUUID(c, "team_id")
		if err != nil {
			return err
		}

		list, err := svc.List(c.UserContext(), transfers.ListFilter{
			Status:   models.TransferStatus(c.Query("status")),
			LeagueID: leagueID,
			TeamID:   teamID,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transfers": list, "count": len(list)})
	}
}

// GetPlayerTransfers returns a handler for GET /api/v1/transfers/player/:playerId.
func GetPlayerTransfers(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		playerID, err := paramUUID(c, "playerId")
		if err != nil {
			return err
		}
		list, err := svc.PlayerHistory(c.UserContext(), playerID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transfers": list, "count": len(list)})
	}
}

// ApproveTransfer returns a handler for POST /api/v1/transfers/:id/approve.
func ApproveTransfer(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Approve(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transfer_id": id, "status": models.TransferStatusCompleted})
	}
}

type rejectTransferRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// RejectTransfer returns a handler for POST /api/v1/transfers/:id/reject.
// The body is optional.
func RejectTransfer(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req rejectTransferRequest
		if len(c.Body()) > 0 {
			if err := bind(c, &req); err != nil {
				return err
			}
		}
		if err := svc.Reject(c.UserContext(), actor, id, req.Reason); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"transfer_id": id, "status": models.TransferStatusRejected})
	}
}
