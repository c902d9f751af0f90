// Package leagues manages the league registry: creation, settings, lifecycle,
// and the approval of teams applying to join.
package leagues

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
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/models"
)

const (
	DefaultMaxTeams = 12
	DefaultFormat   = "ROUND_ROBIN"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateLeague(ctx context.Context, league *models.League) error
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	LockLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	ListLeagues(ctx context.Context, filter ListFilter) ([]Summary, error)
	UpdateLeague(ctx context.Context, leagueID uuid.UUID, columns map[string]any) (*models.League, error)
	DeleteLeague(ctx context.Context, leagueID uuid.UUID) error

	LeagueTeams(ctx context.Context, leagueID uuid.UUID) ([]TeamSummary, error)
	MatchSummary(ctx context.Context, leagueID uuid.UUID) (MatchSummary, error)
	CountActiveTeams(ctx context.Context, leagueID uuid.UUID) (int64, error)

	PendingApplications(ctx context.Context, leagueID uuid.UUID) ([]Application, error)
	GetMembership(ctx context.Context, leagueID, teamID uuid.UUID) (*models.LeagueTeam, error)
	ApproveMembership(ctx context.Context, leagueID, teamID, approvedBy uuid.UUID, at time.Time) error
	DeleteMembership(ctx context.Context, leagueID, teamID uuid.UUID) error

	// CreateChatRoom inserts the room, ignoring an existing one with the same ID.
	CreateChatRoom(ctx context.Context, room *models.ChatRoom) error
	// DeleteChatRoom removes a room and every message in it.
	DeleteChatRoom(ctx context.Context, roomID string) error
}

// ListFilter narrows the league list. Empty fields match everything.
type ListFilter struct {
	Status models.LeagueStatus
	Region string
}

// Summary is a league with its count of active teams.
type Summary struct {
	models.League
	TeamCount int64 `json:"team_count"`
}

// TeamSummary is a team registered in a league.
type TeamSummary struct {
	TeamID      uuid.UUID               `json:"team_id"`
	Name        string                  `json:"name"`
	CrestURL    *string                 `json:"crest_url"`
	Status      models.MembershipStatus `json:"status"`
	PlayerCount int64                   `json:"player_count"`
}

// MatchSummary aggregates a league's fixtures.
type MatchSummary struct {
	TotalMatches     int64 `json:"total_matches"`
	CompletedMatches int64 `json:"completed_matches"`
	TotalGoals       int64 `json:"total_goals"`
}

// Detail is the full league view.
type Detail struct {
	League  Summary       `json:"league"`
	Teams   []TeamSummary `json:"teams"`
	Matches MatchSummary  `json:"stats"`
}

// Application is a team's pending request to join a league.
type Application struct {
	TeamID        uuid.UUID               `json:"team_id"`
	LeagueID      uuid.UUID               `json:"league_id"`
	Status        models.MembershipStatus `json:"status"`
	JoinedAt      time.Time               `json:"joined_at"`
	TeamName      string                  `json:"team_name"`
	CrestURL      *string                 `json:"crest_url"`
	Platform      string                  `json:"platform"`
	ServerRegion  string                  `json:"server_region"`
	OwnerUsername string                  `json:"owner_username"`
	OwnerEmail    string                  `json:"owner_email"`
}

type Service struct {
	repo            Repository
	clock           clockwork.Clock
	defaultInterval int
	logger          zerolog.Logger
}

func NewService(repo Repository, clock clockwork.Clock, defaultInterval int, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if defaultInterval <= 0 {
		defaultInterval = fixtures.DefaultIntervalDays
	}
	return &Service{
		repo:            repo,
		clock:           clock,
		defaultInterval: defaultInterval,
		logger:          logger.With().Str("component", "leagues").Logger(),
	}
}

// CreateRequest describes a new league. Zero values take the documented defaults.
type CreateRequest struct {
	Name              string
	Region            string
	Season            string
	Description       *string
	SeasonStart       time.Time
	SeasonEnd         *time.Time
	PrizePool         decimal.Decimal
	MaxTeams          int
	MatchIntervalDays int
	Format            string
	MatchStartTime    string
}

// Create inserts a draft league governed by its creator together with the
// league chat room.
func (s *Service) Create(ctx context.Context, actor models.Actor, req CreateRequest) (*models.League, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if req.SeasonStart.IsZero() {
		return nil, apperr.Validation("season_start is required")
	}
	if req.PrizePool.IsNegative() {
		return nil, apperr.Validation("prize_pool must not be negative")
	}

	league := &models.League{
		Name:              strings.TrimSpace(req.Name),
		Region:            req.Region,
		Season:            req.Season,
		Description:       req.Description,
		CreatedBy:         actor.UserID,
		GovernorID:        actor.UserID,
		Status:            models.LeagueStatusDraft,
		SeasonStart:       req.SeasonStart,
		SeasonEnd:         req.SeasonEnd,
		PrizePool:         req.PrizePool,
		MaxTeams:          orDefault(req.MaxTeams, DefaultMaxTeams),
		MatchIntervalDays: orDefault(req.MatchIntervalDays, s.defaultInterval),
		Format:            req.Format,
		MatchStartTime:    req.MatchStartTime,
	}
	if league.Format == "" {
		league.Format = DefaultFormat
	}
	league.Format = strings.ToUpper(league.Format)
	if league.MatchStartTime == "" {
		league.MatchStartTime = fixtures.DefaultStartTime
	}
	if err := validateSettings(league.MaxTeams, league.MatchIntervalDays, league.MatchStartTime); err != nil {
		return nil, err
	}
	if league.SeasonEnd == nil {
		end := fixtures.EstimateSeasonEnd(league.Format, league.MaxTeams, league.MatchIntervalDays, league.SeasonStart)
		league.SeasonEnd = &end
	} else if league.SeasonEnd.Before(league.SeasonStart) {
		return nil, apperr.Validation("season_end must not be before season_start")
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateLeague(ctx, league); err != nil {
			return err
		}
		leagueID := league.ID
		return tx.CreateChatRoom(ctx, &models.ChatRoom{
			ID:          models.LeagueRoomID(league.ID),
			RoomType:    "league",
			LeagueID:    &leagueID,
			Name:        league.Name + " Chat",
			Description: fmt.Sprintf("Chat room for %s participants", league.Name),
			CreatedBy:   actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("league_id", league.ID.String()).Str("format", league.Format).Msg("league created")
	return league, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperr.Validation("unknown league status %q", filter.Status)
	}
	return s.repo.ListLeagues(ctx, filter)
}

// Get returns a league with its teams and a summary of its matches.
func (s *Service) Get(ctx context.Context, leagueID uuid.UUID) (*Detail, error) {
	league, err := s.repo.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := s.repo.LeagueTeams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.MatchSummary(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	var active int64
	for _, t := range teams {
		if t.Status == models.MembershipActive {
			active++
		}
	}
	return &Detail{League: Summary{League: *league, TeamCount: active}, Teams: teams, Matches: matches}, nil
}

// Update applies a patch. Only the league's governor may change it. Moving the
// league to completed also removes its chat room and messages, in the same
// transaction as the status change.
func (s *Service) Update(ctx context.Context, actor models.Actor, leagueID uuid.UUID, patch Patch) (*models.League, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *models.League
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := tx.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league.GovernorID != actor.UserID {
			return apperr.Forbidden("only the league governor can update this league")
		}

		completing := patch.Status != nil && *patch.Status == models.LeagueStatusCompleted &&
			league.Status != models.LeagueStatusCompleted
		if completing {
			if err := tx.DeleteChatRoom(ctx, models.LeagueRoomID(league.ID)); err != nil {
				return err
			}
		}

		updated, err = tx.UpdateLeague(ctx, leagueID, patch.Columns())
		return err
	})
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status == models.LeagueStatusCompleted {
		s.logger.Info().Str("league_id", leagueID.String()).Msg("league completed, chat room removed")
	}
	return updated, nil
}

// Activate moves a league to active and records who approved it.
func (s *Service) Activate(ctx context.Context, actor models.Actor, leagueID uuid.UUID) (*models.League, error) {
	var updated *models.League
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := tx.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league.GovernorID != actor.UserID {
			return apperr.Forbidden("only the league governor can activate this league")
		}
		if league.Status == models.LeagueStatusCompleted {
			return apperr.Conflict("a completed league cannot be reactivated")
		}
		updated, err = tx.UpdateLeague(ctx, leagueID, map[string]any{
			"status":      string(models.LeagueStatusActive),
			"approved_by": actor.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a draft league that has no active teams.
func (s *Service) Delete(ctx context.Context, actor models.Actor, leagueID uuid.UUID) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := tx.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league.GovernorID != actor.UserID {
			return apperr.Forbidden("only the league governor can delete this league")
		}
		if league.Status != models.LeagueStatusDraft {
			return apperr.Conflict("only draft leagues can be deleted")
		}
		active, err := tx.CountActiveTeams(ctx, leagueID)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict("cannot delete a league with %d registered teams", active)
		}
		return tx.DeleteLeague(ctx, leagueID)
	})
}

// Applications lists teams waiting for approval, newest first.
func (s *Service) Applications(ctx context.Context, leagueID uuid.UUID) ([]Application, error) {
	if _, err := s.repo.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.repo.PendingApplications(ctx, leagueID)
}

// ApproveApplication activates a pending membership if the league has room.
func (s *Service) ApproveApplication(ctx context.Context, actor models.Actor, leagueID, teamID uuid.UUID) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := s.governedLeague(ctx, tx, actor, leagueID)
		if err != nil {
			return err
		}
		if err := pendingMembership(ctx, tx, leagueID, teamID); err != nil {
			return err
		}
		active, err := tx.CountActiveTeams(ctx, leagueID)
		if err != nil {
			return err
		}
		if active >= int64(league.MaxTeams) {
			return apperr.Conflict("league is full (%d teams)", league.MaxTeams)
		}
		return tx.ApproveMembership(ctx, leagueID, teamID, actor.UserID, s.clock.Now())
	})
}

// RejectApplication removes a pending membership.
func (s *Service) RejectApplication(ctx context.Context, actor models.Actor, leagueID, teamID uuid.UUID) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := s.governedLeague(ctx, tx, actor, leagueID); err != nil {
			return err
		}
		if err := pendingMembership(ctx, tx, leagueID, teamID); err != nil {
			return err
		}
		return tx.DeleteMembership(ctx, leagueID, teamID)
	})
}

func (s *Service) governedLeague(ctx context.Context, tx Repository, actor models.Actor, leagueID uuid.UUID) (*models.League, error) {
	league, err := tx.LockLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league.GovernorID != actor.UserID {
		return nil, apperr.Forbidden("only the league governor can review applications")
	}
	return league, nil
}

func pendingMembership(ctx context.Context, tx Repository, leagueID, teamID uuid.UUID) error {
	membership, err := tx.GetMembership(ctx, leagueID, teamID)
	if err != nil {
		return err
	}
	if membership.Status != models.MembershipPending {
		return apperr.Conflict("application is %s, not pending", membership.Status)
	}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
