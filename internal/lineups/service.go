// Package lineups handles team selections for fixtures. Submissions close a
// configurable number of minutes before kickoff.
package lineups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

const (
	DefaultLockMinutes = 30
	minStarters        = 2
)

type Repository interface {
	GetFixture(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error)
	// FindLineup returns the team's lineup for the fixture, or nil.
	FindLineup(ctx context.Context, fixtureID, teamID uuid.UUID) (*models.Lineup, error)
	// UpsertLineup inserts the lineup or replaces the existing (fixture, team)
	// selection, filling in the ID.
	UpsertLineup(ctx context.Context, lineup *models.Lineup) error
	FixtureLineups(ctx context.Context, fixtureID uuid.UUID) ([]View, error)
	LockLineup(ctx context.Context, lineupID uuid.UUID, at time.Time) (*models.Lineup, error)
	DeleteLineup(ctx context.Context, lineupID uuid.UUID) error
}

// View is a lineup with its team's display fields.
type View struct {
	models.Lineup
	TeamName  string  `json:"team_name"`
	TeamCrest *string `json:"team_crest"`
}

// MatchLineups holds both sides of a fixture; either may be nil.
type MatchLineups struct {
	Home *View `json:"home_lineup"`
	Away *View `json:"away_lineup"`
}

type Service struct {
	repo       Repository
	clock      clockwork.Clock
	lockWindow time.Duration
	logger     zerolog.Logger
}

func NewService(repo Repository, clock clockwork.Clock, lockMinutes int, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if lockMinutes <= 0 {
		lockMinutes = DefaultLockMinutes
	}
	return &Service{
		repo:       repo,
		clock:      clock,
		lockWindow: time.Duration(lockMinutes) * time.Minute,
		logger:     logger.With().Str("component", "lineups").Logger(),
	}
}

type SubmitRequest struct {
	FixtureID   uuid.UUID
	TeamID      uuid.UUID
	Formation   string
	Starting    []models.LineupSlot
	Substitutes []models.LineupSlot
	CaptainID   *uuid.UUID
}

// Submit stores or replaces a team's lineup. It is refused once the lock
// window before kickoff has opened or the lineup has been locked.
func (s *Service) Submit(ctx context.Context, actor models.Actor, req SubmitRequest) (*models.Lineup, error) {
	fixture, err := s.repo.GetFixture(ctx, req.FixtureID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !now.Before(fixture.MatchDate.Add(-s.lockWindow)) {
		return nil, apperr.Validation("lineup submission closed; match starts in less than %d minutes", int(s.lockWindow.Minutes()))
	}
	if req.TeamID != fixture.HomeTeamID && req.TeamID != fixture.AwayTeamID {
		return nil, apperr.Validation("team does not play in this fixture")
	}
	if len(req.Starting) < minStarters {
		return nil, apperr.Validation("starting lineup must have at least %d players", minStarters)
	}
	if err := checkDistinct(req.Starting, req.Substitutes); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindLineup(ctx, req.FixtureID, req.TeamID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Locked {
		return nil, apperr.Conflict("lineup is locked")
	}

	subs := req.Substitutes
	if subs == nil {
		subs = []models.LineupSlot{}
	}
	lineup := &models.Lineup{
		FixtureID:   req.FixtureID,
		TeamID:      req.TeamID,
		Formation:   req.Formation,
		Starting:    datatypes.NewJSONSlice(req.Starting),
		Substitutes: datatypes.NewJSONSlice(subs),
		CaptainID:   req.CaptainID,
		SubmittedBy: actor.UserID,
		SubmittedAt: now,
	}
	if err := s.repo.UpsertLineup(ctx, lineup); err != nil {
		return nil, err
	}
	return lineup, nil
}

// Match returns the home and away lineups of a fixture.
func (s *Service) Match(ctx context.Context, fixtureID uuid.UUID) (*MatchLineups, error) {
	fixture, err := s.repo.GetFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	views, err := s.repo.FixtureLineups(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	out := &MatchLineups{}
	for i := range views {
		switch views[i].TeamID {
		case fixture.HomeTeamID:
			out.Home = &views[i]
		case fixture.AwayTeamID:
			out.Away = &views[i]
		}
	}
	return out, nil
}

func (s *Service) Lock(ctx context.Context, lineupID uuid.UUID) (*models.Lineup, error) {
	return s.repo.LockLineup(ctx, lineupID, s.clock.Now())
}

func (s *Service) Delete(ctx context.Context, lineupID uuid.UUID) error {
	return s.repo.DeleteLineup(ctx, lineupID)
}

func checkDistinct(starting, subs []models.LineupSlot) error {
	seen := make(map[uuid.UUID]struct{}, len(starting)+len(subs))
	for _, slot := range append(append([]models.LineupSlot{}, starting...), subs...) {
		if _, dup := seen[slot.PlayerID]; dup {
			return apperr.Validation("player %s appears more than once", slot.PlayerID)
		}
		seen[slot.PlayerID] = struct{}{}
	}
	return nil
}
