package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/lineups"
	"github.com/trentd187/club-league/internal/models"
)

// LineupService is the part of lineups.Service the handlers call.
type LineupService interface {
	Submit(ctx context.Context, actor models.Actor, req lineups.SubmitRequest) (*models.Lineup, error)
	Match(ctx context.Context, fixtureID uuid.UUID) (*lineups.MatchLineups, error)
	Lock(ctx context.Context, lineupID uuid.UUID) (*models.Lineup, error)
	Delete(ctx context.Context, lineupID uuid.UUID) error
}

// SubmitLineupRequest is the JSON body of POST /api/v1/lineups.
type SubmitLineupRequest struct {
	FixtureID   string              `json:"fixture_id" validate:"required,uuid"`
	TeamID      string              `json:"team_id" validate:"required,uuid"`
	Formation   string              `json:"formation" validate:"required,max=20"`
	Starting    []models.LineupSlot `json:"starting_11" validate:"required,min=2,max=11"`
	Substitutes []models.LineupSlot `json:"substitutes" validate:"max=12"`
	CaptainID   *string             `json:"captain_id" validate:"omitempty,uuid"`
}

// SubmitLineup returns a handler for POST /api/v1/lineups.
// Submissions close shortly before kickoff; see lineups.Service.Submit.
func SubmitLineup(svc LineupService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req SubmitLineupRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		submit := lineups.SubmitRequest{
			FixtureID:   uuid.MustParse(req.FixtureID),
			TeamID:      uuid.MustParse(req.TeamID),
			Formation:   req.Formation,
			Starting:    req.Starting,
			Substitutes: req.Substitutes,
		}
		if req.CaptainID != nil {
			id := uuid.MustParse(*req.CaptainID)
			submit.CaptainID = &id
		}

		lineup, err := svc.Submit(c.UserContext(), actor, submit)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lineup": lineup})
	}
}

// GetMatchLineups returns a handler for GET /api/v1/lineups/fixture/:fixtureId.
// A side that has not submitted yet is null.
func GetMatchLineups(svc LineupService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fixtureID, err := paramUUID(c, "fixtureId")
		if err != nil {
			return err
		}
		match, err := svc.Match(c.UserContext(), fixtureID)
		if err != nil {
			return err
		}
		return c.JSON(match)
	}
}

// LockLineup returns a handler for POST /api/v1/lineups/:id/lock.
func LockLineup(svc LineupService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		lineup, err := svc.Lock(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"lineup": lineup})
	}
}

// DeleteLineup returns a handler for DELETE /api/v1/lineups/:id.
func DeleteLineup(svc LineupService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
