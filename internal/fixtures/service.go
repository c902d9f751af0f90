package fixtures

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

// DefaultPlatform is recorded on fixtures when the caller names none.
const DefaultPlatform = "Playstation"

// Repository is the storage port the fixture service runs against.
// Implementations bound to a transaction are handed to the Transaction callback.
type Repository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	// LockLeague reads the league row with SELECT ... FOR UPDATE.
	LockLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	// EligibleTeams lists active teams holding an active membership in the league,
	// oldest team first.
	EligibleTeams(ctx context.Context, leagueID uuid.UUID) ([]Team, error)
	IsActiveMember(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error)
	// HasRewards reports whether any fixture of the league has staged or paid
	// rewards. Those rows pin the fixtures they reference.
	HasRewards(ctx context.Context, leagueID uuid.UUID) (bool, error)

	DeleteLeagueFixtures(ctx context.Context, leagueID uuid.UUID) (int64, error)
	InsertFixtures(ctx context.Context, fixtures []models.Fixture) error
	CreateFixture(ctx context.Context, fixture *models.Fixture) error
	ListFixtures(ctx context.Context, leagueID uuid.UUID, filter ListFilter) ([]models.Fixture, error)
	GetFixture(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error)
	UpdateFixture(ctx context.Context, fixtureID uuid.UUID, patch Patch) (*models.Fixture, error)
	DeleteFixture(ctx context.Context, fixtureID uuid.UUID) error
}

// ListFilter narrows a league's fixture list. Zero values mean "any".
type ListFilter struct {
	Status models.FixtureStatus
	Week   int
}

// Config tunes the service. Zero values fall back to sensible defaults.
type Config struct {
	// NewRand returns the random source for one generation run. Tests inject a
	// seeded source to get a reproducible calendar.
	NewRand             func() *rand.Rand
	Location            *time.Location
	DefaultIntervalDays int
}

// Service implements fixture generation and fixture CRUD.
type Service struct {
	repo   Repository
	cfg    Config
	logger zerolog.Logger
}

func NewService(repo Repository, cfg Config, logger zerolog.Logger) *Service {
	if cfg.NewRand == nil {
		cfg.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultIntervalDays <= 0 {
		cfg.DefaultIntervalDays = DefaultIntervalDays
	}
	return &Service{repo: repo, cfg: cfg, logger: logger.With().Str("component", "fixtures").Logger()}
}

// SeededRand returns a factory producing a fresh PCG source from seed on every call.
func SeededRand(seed uint64) func() *rand.Rand {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// GenerateRequest asks for a full calendar regeneration for one league.
type GenerateRequest struct {
	LeagueID     uuid.UUID
	IntervalDays int    // Days between match days; 0 uses the league's interval, then the service default
	Platform     string // Empty means DefaultPlatform
	CreatedBy    uuid.UUID
}

// GenerateResult reports the new calendar and how many fixtures it replaced.
type GenerateResult struct {
	Fixtures []models.Fixture
	Deleted  int64
}

// Generate replaces every fixture of the league with a freshly planned calendar.
//
// The whole run happens in one transaction that starts by locking the league
// row, so two regenerations of the same league queue behind each other and
// readers see either the old calendar or the new one, never a mix.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.LeagueID == uuid.Nil {
		return nil, apperr.Validation("league_id is required")
	}
	if req.IntervalDays < 0 {
		return nil, apperr.Validation("matches_per_week must not be negative")
	}
	platform := req.Platform
	if platform == "" {
		platform = DefaultPlatform
	}

	var result GenerateResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		league, err := tx.LockLeague(ctx, req.LeagueID)
		if err != nil {
			return err
		}

		teams, err := tx.EligibleTeams(ctx, league.ID)
		if err != nil {
			return err
		}
		if len(teams) < 2 {
			return apperr.Validation("need at least 2 active teams to generate fixtures, league has %d", len(teams))
		}

		rewarded, err := tx.HasRewards(ctx, league.ID)
		if err != nil {
			return err
		}
		if rewarded {
			return apperr.Conflict("league has paid or staged rewards")
		}

		interval := req.IntervalDays
		if interval == 0 {
			interval = league.MatchIntervalDays
		}
		if interval <= 0 {
			interval = s.cfg.DefaultIntervalDays
		}

		planned, err := Plan(teams, PlanConfig{
			Format:       ParseFormat(league.Format),
			SeasonStart:  league.SeasonStart,
			IntervalDays: interval,
			StartTime:    league.MatchStartTime,
			Location:     s.cfg.Location,
		}, s.cfg.NewRand())
		if err != nil {
			return err
		}

		deleted, err := tx.DeleteLeagueFixtures(ctx, league.ID)
		if err != nil {
			return err
		}

		fixtures := make([]models.Fixture, len(planned))
		for i, p := range planned {
			fixtures[i] = models.Fixture{
				LeagueID:   league.ID,
				HomeTeamID: p.HomeTeamID,
				AwayTeamID: p.AwayTeamID,
				MatchDate:  p.MatchDate,
				MatchWeek:  p.MatchWeek,
				Platform:   platform,
				Status:     models.FixtureStatusScheduled,
				CreatedBy:  req.CreatedBy,
			}
		}
		if err := tx.InsertFixtures(ctx, fixtures); err != nil {
			return err
		}

		result = GenerateResult{Fixtures: fixtures, Deleted: deleted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("league_id", req.LeagueID.String()).
		Int("created", len(result.Fixtures)).
		Int64("deleted", result.Deleted).
		Msg("fixtures regenerated")
	return &result, nil
}

// CreateRequest schedules a single fixture by hand.
type CreateRequest struct {
	LeagueID   uuid.UUID
	HomeTeamID uuid.UUID
	AwayTeamID uuid.UUID
	MatchDate  time.Time
	MatchWeek  int
	Platform   string
	Venue      *string
	CreatedBy  uuid.UUID
}

// Create inserts a manually scheduled fixture. Both teams must be active
// members of the league.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Fixture, error) {
	if req.HomeTeamID == req.AwayTeamID {
		return nil, apperr.Validation("a team cannot play itself")
	}
	if req.MatchDate.IsZero() {
		return nil, apperr.Validation("match_date is required")
	}

	if _, err := s.repo.GetLeague(ctx, req.LeagueID); err != nil {
		return nil, err
	}
	for _, teamID := range []uuid.UUID{req.HomeTeamID, req.AwayTeamID} {
		ok, err := s.repo.IsActiveMember(ctx, req.LeagueID, teamID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("team %s is not an active member of the league", teamID)
		}
	}

	week := req.MatchWeek
	if week <= 0 {
		week = 1
	}
	platform := req.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	fixture := &models.Fixture{
		LeagueID:   req.LeagueID,
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		MatchDate:  req.MatchDate,
		MatchWeek:  week,
		Platform:   platform,
		Venue:      req.Venue,
		Status:     models.FixtureStatusScheduled,
		CreatedBy:  req.CreatedBy,
	}
	if err := s.repo.CreateFixture(ctx, fixture); err != nil {
		return nil, err
	}
	return fixture, nil
}

// List returns a league's fixtures ordered by match date.
func (s *Service) List(ctx context.Context, leagueID uuid.UUID, filter ListFilter) ([]models.Fixture, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperr.Validation("unknown fixture status %q", filter.Status)
	}
	return s.repo.ListFixtures(ctx, leagueID, filter)
}

func (s *Service) Get(ctx context.Context, fixtureID uuid.UUID) (*models.Fixture, error) {
	return s.repo.GetFixture(ctx, fixtureID)
}

// Update applies a partial update. An empty patch is rejected.
func (s *Service) Update(ctx context.Context, fixtureID uuid.UUID, patch Patch) (*models.Fixture, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpdateFixture(ctx, fixtureID, patch)
}

func (s *Service) Delete(ctx context.Context, fixtureID uuid.UUID) error {
	return s.repo.DeleteFixture(ctx, fixtureID)
}
