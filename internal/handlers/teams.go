package handlers

// This file handles the /api/v1/teams routes: team creation, league
// applications, and roster changes through invitations and join requests.

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/models"
	"github.com/trentd187/club-league/internal/teams"
)

// TeamService is the part of teams.Service the handlers call.
type TeamService interface {
	Create(ctx context.Context, actor models.Actor, req teams.CreateRequest) (*models.Team, error)
	JoinLeague(ctx context.Context, actor models.Actor, teamID, leagueID uuid.UUID) error
	Invite(ctx context.Context, actor models.Actor, teamID uuid.UUID, email, username string) (*models.JoinRequest, error)
	RequestToJoin(ctx context.Context, actor models.Actor, teamID uuid.UUID) (*models.JoinRequest, error)
	AcceptInvitation(ctx context.Context, actor models.Actor, requestID uuid.UUID) error
	ApproveJoinRequest(ctx context.Context, actor models.Actor, teamID, requestID uuid.UUID) error
	Roster(ctx context.Context, teamID uuid.UUID) ([]teams.RosterEntry, error)
}

// CreateTeamRequest is the JSON body of POST /api/v1/teams.
type CreateTeamRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	CrestURL     *string `json:"crest_url" validate:"omitempty,url"`
	Colors       *string `json:"colors"`
	Platform     string  `json:"platform" validate:"omitempty,max=50"`
	Description  *string `json:"description"`
	TeamSize     int     `json:"team_size" validate:"min=0,max=30"`
	ServerRegion string  `json:"server_region" validate:"max=50"`
}

// CreateTeam returns a handler for POST /api/v1/teams.
// The caller needs a player profile and becomes the team's owner.
func CreateTeam(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var req CreateTeamRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		team, err := svc.Create(c.UserContext(), actor, teams.CreateRequest{
			Name:         req.Name,
			CrestURL:     req.CrestURL,
			Colors:       req.Colors,
			Platform:     req.Platform,
			Description:  req.Description,
			TeamSize:     req.TeamSize,
			ServerRegion: req.ServerRegion,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"team": team})
	}
}

type joinLeagueRequest struct {
	LeagueID string `json:"league_id" validate:"required,uuid"`
}

// JoinLeague returns a handler for POST /api/v1/teams/:id/join-league.
// The application waits for the league governor's approval.
func JoinLeague(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		teamID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req joinLeagueRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		leagueID := uuid.MustParse(req.LeagueID)

		if err := svc.JoinLeague(c.UserContext(), actor, teamID, leagueID); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"team_id":   teamID,
			"league_id": leagueID,
			"status":    models.MembershipPending,
		})
	}
}

// InvitePlayerRequest is the JSON body of POST /api/v1/teams/:id/invitations.
// The player is looked up by email first, then by username.
type InvitePlayerRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
}

// InvitePlayer returns a handler for POST /api/v1/teams/:id/invitations.
func InvitePlayer(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		teamID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req InvitePlayerRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		invite, err := svc.Invite(c.UserContext(), actor, teamID, req.Email, req.Username)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invitation": invite})
	}
}

// RequestToJoinTeam returns a handler for POST /api/v1/teams/:id/join-requests.
func RequestToJoinTeam(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		teamID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		req, err := svc.RequestToJoin(c.UserContext(), actor, teamID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"join_request": req})
	}
}

// AcceptInvitation returns a handler for POST /api/v1/teams/invitations/:requestId/accept.
func AcceptInvitation(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		requestID, err := paramUUID(c, "requestId")
		if err != nil {
			return err
		}
		if err := svc.AcceptInvitation(c.UserContext(), actor, requestID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"request_id": requestID, "status": models.MembershipActive})
	}
}

// ApproveJoinRequest returns a handler for POST /api/v1/teams/:id/join-requests/:requestId/approve.
func ApproveJoinRequest(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		teamID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		requestID, err := paramUUID(c, "requestId")
		if err != nil {
			return err
		}
		if err := svc.ApproveJoinRequest(c.UserContext(), actor, teamID, requestID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"request_id": requestID, "status": models.MembershipActive})
	}
}

// GetRoster returns a handler for GET /api/v1/teams/:id/roster.
func GetRoster(svc TeamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		teamID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		roster, err := svc.Roster(c.UserContext(), teamID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"players": roster, "count": len(roster)})
	}
}
