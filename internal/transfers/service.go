// Package transfers moves players between teams through a request and
// approval workflow.
package transfers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

const defaultTransferType = "TRANSFER"

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	IsActiveAssignment(ctx context.Context, playerID, teamID uuid.UUID) (bool, error)
	HasPendingTransfer(ctx context.Context, playerID uuid.UUID) (bool, error)
	CreateTransfer(ctx context.Context, t *models.Transfer) error
	// LockTransfer reads the transfer with a row lock held until the
	// surrounding transaction ends.
	LockTransfer(ctx context.Context, transferID uuid.UUID) (*models.Transfer, error)
	UpdateTransfer(ctx context.Context, transferID uuid.UUID, cols map[string]any) error
	ListTransfers(ctx context.Context, filter ListFilter) ([]View, error)

	DeactivateAssignment(ctx context.Context, playerID, teamID uuid.UUID, at time.Time) error
	CreateAssignment(ctx context.Context, assignment *models.TeamMember) error
}

// View is a transfer joined with the names a client needs to display it.
type View struct {
	models.Transfer
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	GamerTag     string  `json:"gamer_tag"`
	FromTeamName string  `json:"from_team_name"`
	ToTeamName   string  `json:"to_team_name"`
	LeagueName   *string `json:"league_name"`
}

// ListFilter narrows ListTransfers. TeamID matches either side of the move.
type ListFilter struct {
	Status   models.TransferStatus
	LeagueID *uuid.UUID
	TeamID   *uuid.UUID
	PlayerID *uuid.UUID
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
	return &Service{repo: repo, clock: clock, logger: logger.With().Str("component", "transfers").Logger()}
}

type CreateRequest struct {
	PlayerID     uuid.UUID
	FromTeamID   uuid.UUID
	ToTeamID     uuid.UUID
	LeagueID     *uuid.UUID
	TransferType string
	TransferFee  decimal.Decimal
	Notes        *string
}

// Request files a pending transfer. The player must currently play for the
// source team and may have only one pending transfer at a time.
func (s *Service) Request(ctx context.Context, actor models.Actor, req CreateRequest) (*models.Transfer, error) {
	if req.FromTeamID == req.ToTeamID {
		return nil, apperr.Validation("source and destination team must differ")
	}
	if req.TransferFee.IsNegative() {
		return nil, apperr.Validation("transfer_fee must not be negative")
	}

	active, err := s.repo.IsActiveAssignment(ctx, req.PlayerID, req.FromTeamID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperr.Validation("player is not in the source team")
	}
	pending, err := s.repo.HasPendingTransfer(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("player already has a pending transfer")
	}

	t := &models.Transfer{
		PlayerID:     req.PlayerID,
		FromTeamID:   req.FromTeamID,
		ToTeamID:     req.ToTeamID,
		LeagueID:     req.LeagueID,
		TransferType: req.TransferType,
		TransferFee:  req.TransferFee,
		Status:       models.TransferStatusPending,
		Notes:        req.Notes,
		RequestedBy:  actor.UserID,
		RequestedAt:  s.clock.Now(),
	}
	if t.TransferType == "" {
		t.TransferType = defaultTransferType
	}
	if err := s.repo.CreateTransfer(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperr.Validation("unknown transfer status %q", filter.Status)
	}
	return s.repo.ListTransfers(ctx, filter)
}

// PlayerHistory lists every transfer involving the player, newest first.
func (s *Service) PlayerHistory(ctx context.Context, playerID uuid.UUID) ([]View, error) {
	return s.repo.ListTransfers(ctx, ListFilter{PlayerID: &playerID})
}

// Approve completes a pending transfer: the player leaves the source team and
// joins the destination team in the same transaction.
func (s *Service) Approve(ctx context.Context, actor models.Actor, transferID uuid.UUID) error {
	now := s.clock.Now()
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		t, err := tx.LockTransfer(ctx, transferID)
		if err != nil {
			return err
		}
		if t.Status != models.TransferStatusPending {
			return apperr.Conflict("transfer is not pending")
		}
		if err := tx.UpdateTransfer(ctx, t.ID, map[string]any{
			"status":      string(models.TransferStatusApproved),
			"approved_by": actor.UserID,
			"approved_at": now,
		}); err != nil {
			return err
		}
		if err := tx.DeactivateAssignment(ctx, t.PlayerID, t.FromTeamID, now); err != nil {
			return err
		}
		if err := tx.CreateAssignment(ctx, &models.TeamMember{
			PlayerID:   t.PlayerID,
			TeamID:     t.ToTeamID,
			LeagueID:   t.LeagueID,
			RoleInTeam: models.TeamRolePlayer,
			Status:     models.MembershipActive,
			AssignedBy: &actor.UserID,
			JoinedAt:   now,
		}); err != nil {
			return err
		}
		return tx.UpdateTransfer(ctx, t.ID, map[string]any{"status": string(models.TransferStatusCompleted)})
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("transfer_id", transferID.String()).Str("approved_by", actor.UserID.String()).Msg("transfer completed")
	return nil
}

// Reject closes a pending transfer. The reason, when given, replaces the notes.
func (s *Service) Reject(ctx context.Context, actor models.Actor, transferID uuid.UUID, reason *string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		t, err := tx.LockTransfer(ctx, transferID)
		if err != nil {
			return err
		}
		if t.Status != models.TransferStatusPending {
			return apperr.NotFound("transfer not found or not pending")
		}
		cols := map[string]any{
			"status":      string(models.TransferStatusRejected),
			"rejected_by": actor.UserID,
			"rejected_at": s.clock.Now(),
		}
		if reason != nil {
			cols["notes"] = *reason
		}
		return tx.UpdateTransfer(ctx, t.ID, cols)
	})
}

func validStatus(s models.TransferStatus) bool {
	switch s {
	case models.TransferStatusPending, models.TransferStatusApproved, models.TransferStatusCompleted, models.TransferStatusRejected:
		return true
	}
	return false
}
