package fixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

// fakeRepo is an in-memory Repository. Transaction snapshots the fixture table
// and restores it when the callback fails.
type fakeRepo struct {
	leagues  map[uuid.UUID]*models.League
	teams    map[uuid.UUID][]Team
	fixtures []models.Fixture

	locked      []uuid.UUID
	rewarded    map[uuid.UUID]bool
	failInsert  error
	transaction int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leagues:  map[uuid.UUID]*models.League{},
		teams:    map[uuid.UUID][]Team{},
		rewarded: map[uuid.UUID]bool{},
	}
}

func (f *fakeRepo) addLeague(format string, teams int) *models.League {
	league := &models.League{
		ID:                uuid.New(),
		Format:            format,
		SeasonStart:       seasonStart,
		MatchIntervalDays: 2,
		MatchStartTime:    "19:00:00",
	}
	f.leagues[league.ID] = league
	f.teams[league.ID] = makeTeams(teams)
	return league
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	f.transaction++
	snapshot := append([]models.Fixture(nil), f.fixtures...)
	if err := fn(f); err != nil {
		f.fixtures = snapshot
		return err
	}
	return nil
}

func (f *fakeRepo) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	league, ok := f.leagues[id]
	if !ok {
		return nil, apperr.NotFound("league not found")
	}
	return league, nil
}

func (f *fakeRepo) LockLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	f.locked = append(f.locked, id)
	return f.GetLeague(ctx, id)
}

func (f *fakeRepo) EligibleTeams(ctx context.Context, leagueID uuid.UUID) ([]Team, error) {
	return f.teams[leagueID], nil
}

func (f *fakeRepo) IsActiveMember(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error) {
	for _, team := range f.teams[leagueID] {
		if team.ID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HasRewards(ctx context.Context, leagueID uuid.UUID) (bool, error) {
	return f.rewarded[leagueID], nil
}

func (f *fakeRepo) DeleteLeagueFixtures(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	kept := f.fixtures[:0:0]
	var deleted int64
	for _, fx := range f.fixtures {
		if fx.LeagueID == leagueID {
			deleted++
			continue
		}
		kept = append(kept, fx)
	}
	f.fixtures = kept
	return deleted, nil
}

func (f *fakeRepo) InsertFixtures(ctx context.Context, fixtures []models.Fixture) error {
	if f.failInsert != nil {
		return apperr.Persistence(f.failInsert)
	}
	for i := range fixtures {
		fixtures[i].ID = uuid.New()
	}
	f.fixtures = append(f.fixtures, fixtures...)
	return nil
}

func (f *fakeRepo) CreateFixture(ctx context.Context, fixture *models.Fixture) error {
	fixture.ID = uuid.New()
	f.fixtures = append(f.fixtures, *fixture)
	return nil
}

func (f *fakeRepo) ListFixtures(ctx context.Context, leagueID uuid.UUID, filter ListFilter) ([]models.Fixture, error) {
	var out []models.Fixture
	for _, fx := range f.fixtures {
		if fx.LeagueID == leagueID {
			out = append(out, fx)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	for i := range f.fixtures {
		if f.fixtures[i].ID == id {
			return &f.fixtures[i], nil
		}
	}
	return nil, apperr.NotFound("fixture not found")
}

func (f *fakeRepo) UpdateFixture(ctx context.Context, id uuid.UUID, patch Patch) (*models.Fixture, error) {
	fx, err := f.GetFixture(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		fx.Status = *patch.Status
	}
	if patch.HomeScore != nil {
		fx.HomeScore = patch.HomeScore
	}
	if patch.AwayScore != nil {
		fx.AwayScore = patch.AwayScore
	}
	return fx, nil
}

func (f *fakeRepo) DeleteFixture(ctx context.Context, id uuid.UUID) error {
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, Config{NewRand: SeededRand(11)}, zerolog.Nop())
}

func TestGenerateReplacesPriorCalendar(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 4)
	other := repo.addLeague("SINGLE_ROBIN", 3)
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, GenerateRequest{LeagueID: other.ID}); err != nil {
		t.Fatalf("generate other league: %v", err)
	}

	first, err := svc.Generate(ctx, GenerateRequest{LeagueID: league.ID, IntervalDays: 2, Platform: "Xbox"})
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if first.Deleted != 0 || len(first.Fixtures) != 12 {
		t.Fatalf("expected 12 new and 0 deleted, got %d and %d", len(first.Fixtures), first.Deleted)
	}
	if first.Fixtures[0].Platform != "Xbox" {
		t.Fatalf("expected platform Xbox, got %q", first.Fixtures[0].Platform)
	}

	second, err := svc.Generate(ctx, GenerateRequest{LeagueID: league.ID})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.Deleted != 12 {
		t.Fatalf("expected 12 deleted, got %d", second.Deleted)
	}
	if second.Fixtures[0].Platform != DefaultPlatform {
		t.Fatalf("expected default platform, got %q", second.Fixtures[0].Platform)
	}

	count := 0
	for _, fx := range repo.fixtures {
		if fx.LeagueID == league.ID {
			count++
		}
	}
	if count != 12 {
		t.Fatalf("expected 12 fixtures stored for league, got %d", count)
	}
	if len(repo.fixtures) != 12+3 {
		t.Fatalf("expected other league's fixtures untouched, store has %d", len(repo.fixtures))
	}
	if len(repo.locked) != 3 {
		t.Fatalf("expected league row locked on every run, got %d locks", len(repo.locked))
	}
}

func TestGenerateUnknownLeague(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateNeedsTwoTeams(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 1)
	repo.fixtures = []models.Fixture{{ID: uuid.New(), LeagueID: league.ID}}

	_, err := newTestService(repo).Generate(context.Background(), GenerateRequest{LeagueID: league.ID})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.fixtures) != 1 {
		t.Fatalf("expected existing calendar kept, got %d fixtures", len(repo.fixtures))
	}
}

func TestGenerateRefusesLeagueWithRewards(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 4)
	svc := newTestService(repo)
	if _, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: league.ID}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	repo.rewarded[league.ID] = true
	_, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: league.ID})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.fixtures) != 12 {
		t.Fatalf("expected calendar kept, got %d fixtures", len(repo.fixtures))
	}
}

func TestGenerateKicksOffInConfiguredZone(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("SINGLE_ROBIN", 2)
	madrid := time.FixedZone("CET", 60*60)
	svc := NewService(repo, Config{NewRand: SeededRand(11), Location: madrid}, zerolog.Nop())

	res, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: league.ID})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := res.Fixtures[0].MatchDate
	if got.In(madrid).Hour() != 19 {
		t.Fatalf("expected 19:00 local kickoff, got %s", got.In(madrid))
	}
	if want := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.UTC())
	}
}

func TestGenerateRollsBackWhenInsertFails(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 4)
	svc := newTestService(repo)
	if _, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: league.ID}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	repo.failInsert = errors.New("connection reset")
	_, err := svc.Generate(context.Background(), GenerateRequest{LeagueID: league.ID})
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(repo.fixtures) != 12 {
		t.Fatalf("expected prior calendar restored, got %d fixtures", len(repo.fixtures))
	}
}

func TestGenerateFallsBackToLeagueInterval(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("SINGLE_ROBIN", 2)
	league.MatchIntervalDays = 5
	repo.teams[league.ID] = makeTeams(4)

	res, err := newTestService(repo).Generate(context.Background(), GenerateRequest{LeagueID: league.ID})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	days := map[time.Time]bool{}
	for _, fx := range res.Fixtures {
		days[fx.MatchDate] = true
	}
	want := time.Date(2025, 1, 6, 19, 0, 0, 0, time.UTC)
	if !days[want] {
		t.Fatalf("expected a match day on %s with a 5 day interval", want)
	}
}

func TestCreateRejectsSelfFixture(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 2)
	team := repo.teams[league.ID][0].ID

	_, err := newTestService(repo).Create(context.Background(), CreateRequest{
		LeagueID:   league.ID,
		HomeTeamID: team,
		AwayTeamID: team,
		MatchDate:  seasonStart,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresActiveMembers(t *testing.T) {
	repo := newFakeRepo()
	league := repo.addLeague("ROUND_ROBIN", 2)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		LeagueID:   league.ID,
		HomeTeamID: repo.teams[league.ID][0].ID,
		AwayTeamID: uuid.New(),
		MatchDate:  seasonStart,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fx, err := svc.Create(context.Background(), CreateRequest{
		LeagueID:   league.ID,
		HomeTeamID: repo.teams[league.ID][0].ID,
		AwayTeamID: repo.teams[league.ID][1].ID,
		MatchDate:  seasonStart,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fx.MatchWeek != 1 || fx.Platform != DefaultPlatform || fx.Status != models.FixtureStatusScheduled {
		t.Fatalf("unexpected defaults: %+v", fx)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	_, err := newTestService(newFakeRepo()).Update(context.Background(), uuid.New(), Patch{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPatchColumns(t *testing.T) {
	status := models.FixtureStatusCompleted
	home, away := 2, 1
	cols := Patch{Status: &status, HomeScore: &home, AwayScore: &away}.Columns()
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %v", cols)
	}
	if cols["status"] != "completed" || cols["home_score"] != 2 || cols["away_score"] != 1 {
		t.Fatalf("unexpected columns %v", cols)
	}

	bad := models.FixtureStatus("postponed")
	if err := (Patch{Status: &bad}).Validate(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
