// Package teams manages teams, their rosters, and how players and teams join
// each other: invitations, join requests, and league applications.
package teams

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

const defaultPlatform = "Playstation"

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error)
	// PlayerByContact finds the player whose user has the given email, or
	// failing that the given username.
	PlayerByContact(ctx context.Context, email, username string) (*models.Player, error)

	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	CreateChatRoom(ctx context.Context, room *models.ChatRoom) error

	// FindAssignment returns the player's assignment to the team in any status,
	// or nil when there is none.
	FindAssignment(ctx context.Context, teamID, playerID uuid.UUID) (*models.TeamMember, error)
	CreateAssignment(ctx context.Context, assignment *models.TeamMember) error
	ReactivateAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) error
	Roster(ctx context.Context, teamID uuid.UUID) ([]RosterEntry, error)

	LockLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	CountActiveTeams(ctx context.Context, leagueID uuid.UUID) (int64, error)
	MembershipExists(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error)
	CreateMembership(ctx context.Context, membership *models.LeagueTeam) error

	HasPendingRequest(ctx context.Context, teamID, playerID uuid.UUID) (bool, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error)
	DeleteJoinRequest(ctx context.Context, requestID uuid.UUID) error
}

// RosterEntry is an active player on a team.
type RosterEntry struct {
	PlayerID     uuid.UUID       `json:"player_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	GamerTag     string          `json:"gamer_tag"`
	RoleInTeam   models.TeamRole `json:"role_in_team"`
	JerseyNumber *int            `json:"jersey_number"`
	JoinedAt     time.Time       `json:"joined_at"`
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
	return &Service{repo: repo, clock: clock, logger: logger.With().Str("component", "teams").Logger()}
}

// CreateRequest describes a new team.
type CreateRequest struct {
	Name         string
	CrestURL     *string
	Colors       *string
	Platform     string
	Description  *string
	TeamSize     int
	ServerRegion string
}

// Create inserts the team, makes the caller its owner, and opens the team chat
// room. All three happen in one transaction.
func (s *Service) Create(ctx context.Context, actor models.Actor, req CreateRequest) (*models.Team, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	player, err := s.repo.PlayerByUser(ctx, actor.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("you must create a player profile before creating a team")
		}
		return nil, err
	}

	team := &models.Team{
		Name:         strings.TrimSpace(req.Name),
		CrestURL:     req.CrestURL,
		Colors:       req.Colors,
		Platform:     req.Platform,
		Description:  req.Description,
		TeamSize:     req.TeamSize,
		ServerRegion: req.ServerRegion,
		Status:       models.MembershipActive,
		CreatedBy:    actor.UserID,
	}
	if team.Platform == "" {
		team.Platform = defaultPlatform
	}
	if team.TeamSize <= 0 {
		team.TeamSize = 11
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateTeam(ctx, team); err != nil {
			return err
		}
		assignedBy := actor.UserID
		if err := tx.CreateAssignment(ctx, &models.TeamMember{
			PlayerID:   player.ID,
			TeamID:     team.ID,
			RoleInTeam: models.TeamRoleOwner,
			Status:     models.MembershipActive,
			AssignedBy: &assignedBy,
			JoinedAt:   s.clock.Now(),
		}); err != nil {
			return err
		}
		teamID := team.ID
		return tx.CreateChatRoom(ctx, &models.ChatRoom{
			ID:          models.TeamRoomID(team.ID),
			RoomType:    "team",
			TeamID:      &teamID,
			Name:        team.Name + " Chat",
			Description: fmt.Sprintf("Chat room for %s members", team.Name),
			CreatedBy:   actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("team_id", team.ID.String()).Str("owner", actor.UserID.String()).Msg("team created")
	return team, nil
}

// JoinLeague files a pending application for the team. Only the owner may
// apply, the league must have room, and a team applies to a league once.
func (s *Service) JoinLeague(ctx context.Context, actor models.Actor, teamID, leagueID uuid.UUID) error {
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CreatedBy != actor.UserID {
		return apperr.Forbidden("only the team owner can join a league")
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := tx.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		active, err := tx.CountActiveTeams(ctx, leagueID)
		if err != nil {
			return err
		}
		if active >= int64(league.MaxTeams) {
			return apperr.Conflict("league is full")
		}
		exists, err := tx.MembershipExists(ctx, leagueID, teamID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("team is already in this league")
		}
		return tx.CreateMembership(ctx, &models.LeagueTeam{
			TeamID:   teamID,
			LeagueID: leagueID,
			Status:   models.MembershipPending,
			JoinedAt: s.clock.Now(),
		})
	})
}

// Invite creates a pending invitation for the player identified by email or
// username. Owners and captains may invite.
func (s *Service) Invite(ctx context.Context, actor models.Actor, teamID uuid.UUID, email, username string) (*models.JoinRequest, error) {
	if email == "" && username == "" {
		return nil, apperr.Validation("either email or username is required")
	}
	if err := s.requireTeamRole(ctx, actor, teamID, models.TeamRoleOwner, models.TeamRoleCaptain); err != nil {
		return nil, err
	}
	player, err := s.repo.PlayerByContact(ctx, email, username)
	if err != nil {
		return nil, err
	}
	return s.openRequest(ctx, actor, teamID, player.ID, models.JoinRequestInvitation)
}

// RequestToJoin lets the calling player ask to join a team.
func (s *Service) RequestToJoin(ctx context.Context, actor models.Actor, teamID uuid.UUID) (*models.JoinRequest, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	player, err := s.repo.PlayerByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.openRequest(ctx, actor, teamID, player.ID, models.JoinRequestApplication)
}

func (s *Service) openRequest(ctx context.Context, actor models.Actor, teamID, playerID uuid.UUID, kind models.JoinRequestType) (*models.JoinRequest, error) {
	assignment, err := s.repo.FindAssignment(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}
	if assignment != nil && assignment.Status == models.MembershipActive {
		return nil, apperr.Conflict("player is already a member of this team")
	}
	pending, err := s.repo.HasPendingRequest(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("a pending request already exists for this player and team")
	}

	req := &models.JoinRequest{
		TeamID:      teamID,
		PlayerID:    playerID,
		RequestType: kind,
		Status:      "pending",
		RequestedBy: actor.UserID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateJoinRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptInvitation is the invited player's side of an invitation.
func (s *Service) AcceptInvitation(ctx context.Context, actor models.Actor, requestID uuid.UUID) error {
	player, err := s.repo.PlayerByUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		req, err := pendingRequest(ctx, tx, requestID, models.JoinRequestInvitation)
		if err != nil {
			return err
		}
		if req.PlayerID != player.ID {
			return apperr.Forbidden("this invitation is not for you")
		}
		return s.admit(ctx, tx, req, actor.UserID)
	})
}

// ApproveJoinRequest is the team owner's side of a join request.
func (s *Service) ApproveJoinRequest(ctx context.Context, actor models.Actor, teamID, requestID uuid.UUID) error {
	if err := s.requireTeamRole(ctx, actor, teamID, models.TeamRoleOwner); err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		req, err := pendingRequest(ctx, tx, requestID, models.JoinRequestApplication)
		if err != nil {
			return err
		}
		if req.TeamID != teamID {
			return apperr.NotFound("join request not found")
		}
		return s.admit(ctx, tx, req, actor.UserID)
	})
}

// admit reactivates the player's old assignment or creates a new one, then
// deletes the request. Must run inside a transaction.
func (s *Service) admit(ctx context.Context, tx Repository, req *models.JoinRequest, assignedBy uuid.UUID) error {
	now := s.clock.Now()
	assignment, err := tx.FindAssignment(ctx, req.TeamID, req.PlayerID)
	if err != nil {
		return err
	}
	switch {
	case assignment != nil && assignment.Status == models.MembershipActive:
		return apperr.Conflict("player is already a member of this team")
	case assignment != nil:
		if err := tx.ReactivateAssignment(ctx, assignment.ID, now); err != nil {
			return err
		}
	default:
		if err := tx.CreateAssignment(ctx, &models.TeamMember{
			PlayerID:   req.PlayerID,
			TeamID:     req.TeamID,
			RoleInTeam: models.TeamRolePlayer,
			Status:     models.MembershipActive,
			AssignedBy: &assignedBy,
			JoinedAt:   now,
		}); err != nil {
			return err
		}
	}
	return tx.DeleteJoinRequest(ctx, req.ID)
}

// Roster lists the team's active players.
func (s *Service) Roster(ctx context.Context, teamID uuid.UUID) ([]RosterEntry, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.Roster(ctx, teamID)
}

func (s *Service) requireTeamRole(ctx context.Context, actor models.Actor, teamID uuid.UUID, roles ...models.TeamRole) error {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return err
	}
	player, err := s.repo.PlayerByUser(ctx, actor.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Forbidden("you are not a member of this team")
		}
		return err
	}
	assignment, err := s.repo.FindAssignment(ctx, teamID, player.ID)
	if err != nil {
		return err
	}
	if assignment != nil && assignment.Status == models.MembershipActive {
		for _, r := range roles {
			if assignment.RoleInTeam == r {
				return nil
			}
		}
	}
	return apperr.Forbidden("your team role does not allow this action")
}

func pendingRequest(ctx context.Context, tx Repository, requestID uuid.UUID, kind models.JoinRequestType) (*models.JoinRequest, error) {
	req, err := tx.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" || req.RequestType != kind {
		return nil, apperr.NotFound("request not found or already processed")
	}
	return req, nil
}
