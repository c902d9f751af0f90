// Package stats records per-player match statistics and their approval, which
// gates reward calculation.
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

const defaultMinutes = 90

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	LockFixture(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error)
	SetFinalScore(ctx context.Context, fixtureID uuid.UUID, home, away int) error
	CountStats(ctx context.Context, fixtureID uuid.UUID, status models.StatStatus) (int64, error)
	// UpsertStats inserts each record or overwrites the counters of the
	// existing (fixture, player) record, filling in IDs.
	UpsertStats(ctx context.Context, stats []models.MatchStat) error
	SetStatus(ctx context.Context, fixtureID uuid.UUID, status models.StatStatus, by uuid.UUID, at time.Time) ([]models.MatchStat, error)

	FixtureStats(ctx context.Context, fixtureID uuid.UUID) ([]View, error)
	PlayerStat(ctx context.Context, fixtureID, playerID uuid.UUID) (*View, error)
	PendingFixtures(ctx context.Context, leagueID *uuid.UUID) ([]PendingFixture, error)
	DeleteStat(ctx context.Context, statID uuid.UUID) error
}

// View is a stat record with the player's and team's display names.
type View struct {
	models.MatchStat
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	GamerTag  string  `json:"gamer_tag"`
	AvatarURL *string `json:"avatar_url"`
	TeamName  string  `json:"team_name"`
}

// PendingFixture is a completed fixture that still has stats awaiting approval.
type PendingFixture struct {
	FixtureID    uuid.UUID `json:"fixture_id"`
	MatchDate    time.Time `json:"match_date"`
	HomeScore    *int      `json:"home_score"`
	AwayScore    *int      `json:"away_score"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamName string    `json:"away_team_name"`
	TotalStats   int64     `json:"total_stats"`
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
	return &Service{repo: repo, clock: clock, logger: logger.With().Str("component", "stats").Logger()}
}

// PlayerLine is one player's submitted numbers. Zero minutes means a full match.
type PlayerLine struct {
	PlayerID      uuid.UUID
	Goals         int
	Assists       int
	Saves         int
	CleanSheet    bool
	YellowCards   int
	RedCards      int
	MinutesPlayed int
	IsMVP         bool
}

type Score struct {
	Home int
	Away int
}

type SubmitRequest struct {
	FixtureID  uuid.UUID
	TeamID     uuid.UUID
	Players    []PlayerLine
	FinalScore *Score
}

// Submit stores a team's stat lines for a fixture, and the final score when
// given. Lines already approved for the fixture are frozen.
func (s *Service) Submit(ctx context.Context, actor models.Actor, req SubmitRequest) ([]models.MatchStat, error) {
	if len(req.Players) == 0 {
		return nil, apperr.Validation("player_stats must not be empty")
	}
	if req.FinalScore != nil && (req.FinalScore.Home < 0 || req.FinalScore.Away < 0) {
		return nil, apperr.Validation("scores must not be negative")
	}
	for _, p := range req.Players {
		if p.Goals < 0 || p.Assists < 0 || p.Saves < 0 || p.YellowCards < 0 || p.RedCards < 0 || p.MinutesPlayed < 0 {
			return nil, apperr.Validation("stat counters must not be negative")
		}
	}

	now := s.clock.Now()
	records := make([]models.MatchStat, 0, len(req.Players))
	for _, p := range req.Players {
		minutes := p.MinutesPlayed
		if minutes == 0 {
			minutes = defaultMinutes
		}
		records = append(records, models.MatchStat{
			FixtureID:     req.FixtureID,
			PlayerID:      p.PlayerID,
			TeamID:        req.TeamID,
			Goals:         p.Goals,
			Assists:       p.Assists,
			Saves:         p.Saves,
			CleanSheet:    p.CleanSheet,
			YellowCards:   p.YellowCards,
			RedCards:      p.RedCards,
			MinutesPlayed: minutes,
			IsMVP:         p.IsMVP,
			Status:        models.StatStatusPending,
			SubmittedBy:   actor.UserID,
			SubmittedAt:   now,
		})
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		fixture, err := tx.LockFixture(ctx, req.FixtureID)
		if err != nil {
			return err
		}
		if req.TeamID != fixture.HomeTeamID && req.TeamID != fixture.AwayTeamID {
			return apperr.Validation("team did not play in this fixture")
		}
		approved, err := tx.CountStats(ctx, fixture.ID, models.StatStatusApproved)
		if err != nil {
			return err
		}
		if approved > 0 {
			return apperr.Conflict("stats for this fixture are already approved")
		}
		if req.FinalScore != nil {
			if err := tx.SetFinalScore(ctx, fixture.ID, req.FinalScore.Home, req.FinalScore.Away); err != nil {
				return err
			}
		}
		return tx.UpsertStats(ctx, records)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Review approves or rejects every stat line of a fixture. The fixture row is
// locked so a review cannot interleave with reward calculation.
func (s *Service) Review(ctx context.Context, actor models.Actor, fixtureID uuid.UUID, approve bool) ([]models.MatchStat, error) {
	status := models.StatStatusRejected
	if approve {
		status = models.StatStatusApproved
	}
	var out []models.MatchStat
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.LockFixture(ctx, fixtureID); err != nil {
			return err
		}
		updated, err := tx.SetStatus(ctx, fixtureID, status, actor.UserID, s.clock.Now())
		if err != nil {
			return err
		}
		if len(updated) == 0 {
			return apperr.NotFound("no stats submitted for this fixture")
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("fixture_id", fixtureID.String()).Str("status", string(status)).Int("records", len(out)).Msg("stats reviewed")
	return out, nil
}

func (s *Service) FixtureStats(ctx context.Context, fixtureID uuid.UUID) ([]View, error) {
	return s.repo.FixtureStats(ctx, fixtureID)
}

func (s *Service) PlayerStat(ctx context.Context, fixtureID, playerID uuid.UUID) (*View, error) {
	return s.repo.PlayerStat(ctx, fixtureID, playerID)
}

// Pending lists completed fixtures with stats awaiting review, optionally
// limited to one league.
func (s *Service) Pending(ctx context.Context, leagueID *uuid.UUID) ([]PendingFixture, error) {
	return s.repo.PendingFixtures(ctx, leagueID)
}

func (s *Service) Delete(ctx context.Context, statID uuid.UUID) error {
	return s.repo.DeleteStat(ctx, statID)
}
