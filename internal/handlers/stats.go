package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/stats"
)

// StatsService is the part of stats.Service the handlers call.
type StatsService interface {
	Submit(ctx context.Context, actor models.Actor, req stats.SubmitRequest) ([]models.MatchStat, error)
	Review(ctx context.Context, actor models.Actor, fixtureID uuid.UUID, approve bool) ([]models.MatchStat, error)
	FixtureStats(ctx context.Context, fixtureID uuid.UUID) ([]stats.View, error)
	PlayerStat(ctx context.Context, fixtureID, playerID uuid.UUID) (*stats.View, error)
	Pending(ctx context.Context, leagueID *uuid.UUID) ([]stats.PendingFixture, error)
	Delete(ctx context.Context, statID uuid.UUID) error
}

// PlayerStatLine is one player's numbers in a stats submission.
// minutes_played defaults to a full match when omitted.
type PlayerStatLine struct {
	PlayerID      string `json:"player_id" validate:"required,uuid"`
	Goals         int    `json:"goals" validate:"min=0"`
	Assists       int    `json:"assists" validate:"min=0"`
	Saves         int    `json:"saves" validate:"min=0"`
	CleanSheet    bool   `json:"clean_sheet"`
	YellowCards   int    `json:"yellow_cards" validate:"min=0,max=2"`
	RedCards      int    `json:"red_cards" validate:"min=0,max=1"`
	MinutesPlayed int    `json:"minutes_played" validate:"min=0,max=150"`
	IsMVP         bool   `json:"is_mvp"`
}

type finalScore struct {
	Home int `json:"home" validate:"min=0"`
	Away int `json:"away" validate:"min=0"`
}

// SubmitStatsRequest is the JSON body of POST /api/v1/stats.
type SubmitStatsRequest struct {
	FixtureID   string           `json:"fixture_id" validate:"required,uuid"`
	TeamID      string           `json:"team_id" validate:"required,uuid"`
	PlayerStats []PlayerStatLine `json:"player_stats" validate:"required,min=1,dive"`
	FinalScore  *finalScore      `json:"final_score"`
}

// SubmitStats returns a handler for POST /api/v1/stats.
// Resubmitting replaces the team's earlier lines until they are approved.
func SubmitStats(svc StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req SubmitStatsRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		submit := stats.SubmitRequest{
			FixtureID: uuid.MustParse(req.FixtureID),
			TeamID:    uuid.MustParse(req.TeamID),
			Players:   make([]stats.PlayerLine, len(req.PlayerStats)),
		}
		for i, p := range req.PlayerStats {
			submit.Players[i] = stats.PlayerLine{
				PlayerID:      uuid.MustParse(p.PlayerID),
				Goals:         p.Goals,
				Assists:       p.Assists,
				Saves:         p.Saves,
				CleanSheet:    p.CleanSheet,
				YellowCards:   p.YellowCards,
				RedCards:      p.RedCards,
				MinutesPlayed: p.MinutesPlayed,
				IsMVP:         p.IsMVP,
			}
		}
		if req.FinalScore != nil {
			submit.FinalScore = &stats.Score{Home: req.FinalScore.Home, Away: req.FinalScore.Away}
		}

		records, err := svc.Submit(c.UserContext(), actor, submit)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"stats": records, "count": len(records)})
	}
}

// GetFixtureStats returns a handler for GET /api/v1/stats/fixture/:fixtureId.
func GetFixtureStats(svc StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fixtureID, err := paramUUID(c, "fixtureId")
		if err != nil {
			return err
		}
		list, err := svc.FixtureStats(c.UserContext(), fixtureID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"stats": list, "count": len(list)})
	}
}

// GetPlayerFixtureStat returns a handler for
// GET /api/v1/stats/fixture/:fixtureId/player/:playerId.
func GetPlayerFixtureStat(svc StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fixtureID, err := paramUUID(c, "fixtureId")
		if err != nil {
			return err
		}
		playerID, err := paramUUID(c, "playerId")
		if err != nil {
			return err
		}
		stat, err := svc.PlayerStat(c.UserContext(), fixtureID, playerID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"stat": stat})
	}
}

// ReviewStats returns a handler for POST /api/v1/stats/fixture/:fixtureId/approve
// (approve == true) and POST /api/v1/stats/fixture/:fixtureId/reject.
func ReviewStats(svc StatsService, approve bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		fixtureID, err := paramUUID(c, "fixtureId")
		if err != nil {
			return err
		}
		records, err := svc.Review(c.UserContext(), actor, fixtureID, approve)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"stats": records, "count": len(records)})
	}
}

// GetPendingStats returns a handler for GET /api/v1/stats/pending.
// Optional query param: ?league_id=<id>
func GetPendingStats(svc StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		leagueID, err := queryUUID(c, "league_id")
		if err != nil {
			return err
		}
		list, err := svc.Pending(c.UserContext(), leagueID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"fixtures": list, "count": len(list)})
	}
}

// DeleteStat returns a handler for DELETE /api/v1/stats/:id.
func DeleteStat(svc StatsService) fiber.Handler {
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
