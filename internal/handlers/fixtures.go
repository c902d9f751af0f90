package handlers

// This file handles the /api/v1/fixtures routes: calendar generation and
// hand-maintained fixtures.

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/models"
)

// FixtureService is the part of fixtures.Service the handlers call.
type FixtureService interface {
	Generate(ctx context.Context, req fixtures.GenerateRequest) (*fixtures.GenerateResult, error)
	Create(ctx context.Context, req fixtures.CreateRequest) (*models.Fixture, error)
	List(ctx context.Context, leagueID uuid.UUID, filter fixtures.ListFilter) ([]models.Fixture, error)
	Get(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error)
	Update(ctx context.Context, fixtureID uuid.UUID, patch fixtures.Patch) (*models.Fixture, error)
	Delete(ctx context.Context, fixtureID uuid.UUID) error
}

// GenerateFixturesRequest is the JSON body of POST /api/v1/fixtures/generate.
// matches_per_week is the number of days between match days; 0 falls back to
// the league's own interval.
type GenerateFixturesRequest struct {
	LeagueID       string `json:"league_id" validate:"required,uuid"`
	MatchesPerWeek int    `json:"matches_per_week" validate:"min=0"`
	Platform       string `json:"platform" validate:"omitempty,max=50"`
}

// GenerateFixtures returns a handler for POST /api/v1/fixtures/generate.
// It throws away the league's calendar and plans a new one.
func GenerateFixtures(svc FixtureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req GenerateFixturesRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		result, err := svc.Generate(c.UserContext(), fixtures.GenerateRequest{
			LeagueID:     uuid.MustParse(req.LeagueID),
			IntervalDays: req.MatchesPerWeek,
			Platform:     req.Platform,
			CreatedBy:    actor.UserID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"fixtures": result.Fixtures,
			"deleted":  result.Deleted,
			"total":    len(result.Fixtures),
		})
	}
}

// CreateFixtureRequest is the JSON body of POST /api/v1/fixtures.
type CreateFixtureRequest struct {
	LeagueID   string    `json:"league_id" validate:"required,uuid"`
	HomeTeamID string    `json:"home_team_id" validate:"required,uuid"`
	AwayTeamID string    `json:"away_team_id" validate:"required,uuid"`
	MatchDate  time.Time `json:"match_date" validate:"required"`
	MatchWeek  int       `json:"match_week" validate:"min=0"`
	Platform   string    `json:"platform" validate:"omitempty,max=50"`
	Venue      *string   `json:"venue"`
}

// CreateFixture returns a handler for POST /api/v1/fixtures.
func CreateFixture(svc FixtureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req CreateFixtureRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		fixture, err := svc.Create(c.UserContext(), fixtures.CreateRequest{
			LeagueID:   uuid.MustParse(req.LeagueID),
			HomeTeamID: uuid.MustParse(req.HomeTeamID),
			AwayTeamID: uuid.MustParse(req.AwayTeamID),
			MatchDate:  req.MatchDate,
			MatchWeek:  req.MatchWeek,
			Platform:   req.Platform,
			Venue:      req.Venue,
			CreatedBy:  actor.UserID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"fixture": fixture})
	}
}

// GetLeagueFixtures returns a handler for GET /api/v1/fixtures/league/:leagueId.
// Optional query params: ?status=completed&week=3
func GetLeagueFixtures(svc FixtureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		leagueID, err := paramUUID(c, "leagueId")
		if err != nil {
			return err
		}
		list, err := svc.List(c.UserContext(), leagueID, fixtures.ListFilter{
			Status: models.FixtureStatus(c.Query("status")),
			Week:   c.QueryInt("week"),
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"fixtures": list, "count": len(list)})
	}
}

// GetFixture returns a handler for GET /api/v1/fixtures/:id.
func GetFixture(svc FixtureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		fixture, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"fixture": fixture})
	}
}

// UpdateFixtureRequest is the JSON body of PATCH /api/v1/fixtures/:id.
// Only the fields present in the body are changed.
type UpdateFixtureRequest struct {
	MatchDate *time.Time            `json:"match_date"`
	Platform  *string               `json:"platform" validate:"omitempty,max=50"`
	Venue     *string               `json:"venue"`
	Status    *models.FixtureStatus `json:"status"`
	HomeScore *int                  `json:"home_score" validate:"omitempty,min=0"`
	AwayScore *int                  `json:"away_score" validate:"omitempty,min=0"`
}

// UpdateFixture returns a handler for PATCH /api/v1/fixtures/:id.
func UpdateFixture(svc FixtureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req UpdateFixtureRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		fixture, err := svc.Update(c.UserContext(), id, fixtures.Patch{
			MatchDate: req.MatchDate,
			Platform:  req.Platform,
			Venue:     req.Venue,
			Status:    req.Status,
			HomeScore: req.HomeScore,
			AwayScore: req.AwayScore,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"fixture": fixture})
	}
}

// DeleteFixture returns a handler for DELETE /api/v1/fixtures/:id.
func DeleteFixture(svc FixtureService) fiber.Handler {
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
