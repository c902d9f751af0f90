package handlers

// This file handles the /api/v1/leagues routes: the league registry, the
// standings table, and the approval of teams applying to join.
//
// --- Permission model ---
// Route level (middleware.RequireRole): only governors and admins create leagues.
// Resource level (leagues.Service): only the governor of a league may change it,
// activate it, delete it, or decide on its applications.

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/leagues"
	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/standings"
)

// LeagueService is the part of leagues.Service the handlers call.
type LeagueService interface {
	Create(ctx context.Context, actor models.Actor, req leagues.CreateRequest) (*models.League, error)
	List(ctx context.Context, filter leagues.ListFilter) ([]leagues.Summary, error)
	Get(ctx context.Context, leagueID uuid.UUID) (*leagues.Detail, error)
	Update(ctx context.Context, actor models.Actor, leagueID uuid.UUID, patch leagues.Patch) (*models.League, error)
	Activate(ctx context.Context, actor models.Actor, leagueID uuid.UUID) (*models.League, error)
	Delete(ctx context.Context, actor models.Actor, leagueID uuid.UUID) error
	Applications(ctx context.Context, leagueID uuid.UUID) ([]leagues.Application, error)
	ApproveApplication(ctx context.Context, actor models.Actor, leagueID, teamID uuid.UUID) error
	RejectApplication(ctx context.Context, actor models.Actor, leagueID, teamID uuid.UUID) error
}

// StandingsService computes a league table.
type StandingsService interface {
	Standings(ctx context.Context, leagueID uuid.UUID) ([]standings.Row, error)
}

// CreateLeagueRequest is the JSON body of POST /api/v1/leagues.
// Dates are "YYYY-MM-DD"; omitted settings take the league defaults.
type CreateLeagueRequest struct {
	Name              string          `json:"name" validate:"required,max=100"`
	Region            string          `json:"region" validate:"max=50"`
	Season            string          `json:"season" validate:"max=50"`
	Description       *string         `json:"description"`
	SeasonStart       *string         `json:"season_start" validate:"required"`
	SeasonEnd         *string         `json:"season_end"`
	PrizePool         decimal.Decimal `json:"prize_pool"`
	MaxTeams          int             `json:"max_teams" validate:"min=0"`
	MatchIntervalDays int             `json:"match_interval_days" validate:"min=0"`
	Format            string          `json:"format" validate:"omitempty,oneof=SINGLE_ROBIN ROUND_ROBIN DOUBLE_ROBIN KNOCKOUT"`
	MatchStartTime    string          `json:"match_start_time"`
}

// CreateLeague returns a handler for POST /api/v1/leagues.
// The caller becomes the league's governor.
func CreateLeague(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req CreateLeagueRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		start, err := parseOptionalDate("season_start", req.SeasonStart)
		if err != nil {
			return err
		}
		end, err := parseOptionalDate("season_end", req.SeasonEnd)
		if err != nil {
			return err
		}

		create := leagues.CreateRequest{
			Name:              req.Name,
			Region:            req.Region,
			Season:            req.Season,
			Description:       req.Description,
			SeasonEnd:         end,
			PrizePool:         req.PrizePool,
			MaxTeams:          req.MaxTeams,
			MatchIntervalDays: req.MatchIntervalDays,
			Format:            req.Format,
			MatchStartTime:    req.MatchStartTime,
		}
		if start != nil {
			create.SeasonStart = *start
		}

		league, err := svc.Create(c.UserContext(), actor, create)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"league": league})
	}
}

// GetLeagues returns a handler for GET /api/v1/leagues.
// Optional query params: ?status=active&region=EU
func GetLeagues(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), leagues.ListFilter{
			Status: models.LeagueStatus(c.Query("status")),
			Region: c.Query("region"),
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"leagues": list, "count": len(list)})
	}
}

// GetLeague returns a handler for GET /api/v1/leagues/:id.
func GetLeague(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		detail, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	}
}

// GetStandings returns a handler for GET /api/v1/leagues/:id/standings.
func GetStandings(svc StandingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		rows, err := svc.Standings(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"standings": rows})
	}
}

// UpdateLeagueRequest is the JSON body of PATCH /api/v1/leagues/:id.
// Only the fields present in the body are changed.
type UpdateLeagueRequest struct {
	Name              *string              `json:"name" validate:"omitempty,max=100"`
	Region            *string              `json:"region" validate:"omitempty,max=50"`
	Season            *string              `json:"season" validate:"omitempty,max=50"`
	Description       *string              `json:"description"`
	SeasonStart       *string              `json:"season_start"`
	SeasonEnd         *string              `json:"season_end"`
	PrizePool         *decimal.Decimal     `json:"prize_pool"`
	MaxTeams          *int                 `json:"max_teams"`
	MatchIntervalDays *int                 `json:"match_interval_days"`
	Format            *string              `json:"format" validate:"omitempty,oneof=SINGLE_ROBIN ROUND_ROBIN DOUBLE_ROBIN KNOCKOUT"`
	MatchStartTime    *string              `json:"match_start_time"`
	Status            *models.LeagueStatus `json:"status"`
}

// UpdateLeague returns a handler for PATCH /api/v1/leagues/:id.
func UpdateLeague(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req UpdateLeagueRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		start, err := parseOptionalDate("season_start", req.SeasonStart)
		if err != nil {
			return err
		}
		end, err := parseOptionalDate("season_end", req.SeasonEnd)
		if err != nil {
			return err
		}

		league, err := svc.Update(c.UserContext(), actor, id, leagues.Patch{
			Name:              req.Name,
			Region:            req.Region,
			Season:            req.Season,
			Description:       req.Description,
			SeasonStart:       start,
			SeasonEnd:         end,
			PrizePool:         req.PrizePool,
			MaxTeams:          req.MaxTeams,
			MatchIntervalDays: req.MatchIntervalDays,
			Format:            req.Format,
			MatchStartTime:    req.MatchStartTime,
			Status:            req.Status,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"league": league})
	}
}

// ActivateLeague returns a handler for PUT /api/v1/leagues/:id/activate.
func ActivateLeague(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		league, err := svc.Activate(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"league": league})
	}
}

// DeleteLeague returns a handler for DELETE /api/v1/leagues/:id.
// Only draft leagues without active teams can be deleted.
func DeleteLeague(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetApplications returns a handler for GET /api/v1/leagues/:id/applications.
func GetApplications(svc LeagueService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		apps, err := svc.Applications(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"applications": apps, "count": len(apps)})
	}
}

// DecideApplication returns a handler for
// POST /api/v1/leagues/:id/applications/:teamId/approve (approve == true) and
// POST /api/v1/leagues/:id/applications/:teamId/reject.
func DecideApplication(svc LeagueService, approve bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		leagueID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		teamID, err := paramUUID(c, "teamId")
		if err != nil {
			return err
		}

		if approve {
			err = svc.ApproveApplication(c.UserContext(), actor, leagueID, teamID)
		} else {
			err = svc.RejectApplication(c.UserContext(), actor, leagueID, teamID)
		}
		if err != nil {
			return err
		}

		status := models.MembershipActive
		if !approve {
			status = models.MembershipRejected
		}
		return c.JSON(fiber.Map{"league_id": leagueID, "team_id": teamID, "status": status})
	}
}
