package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

type fakeRepo struct {
	fixtures   map[uuid.UUID]*models.Fixture
	stats      map[[2]uuid.UUID]*models.MatchStat
	failUpsert error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{fixtures: map[uuid.UUID]*models.Fixture{}, stats: map[[2]uuid.UUID]*models.MatchStat{}}
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	fixtures := map[uuid.UUID]*models.Fixture{}
	for k, v := range f.fixtures {
		copied := *v
		fixtures[k] = &copied
	}
	stats := map[[2]uuid.UUID]*models.MatchStat{}
	for k, v := range f.stats {
		copied := *v
		stats[k] = &copied
	}
	if err := fn(f); err != nil {
		f.fixtures, f.stats = fixtures, stats
		return err
	}
	return nil
}

func (f *fakeRepo) LockFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, apperr.NotFound("fixture not found")
	}
	return fx, nil
}

func (f *fakeRepo) SetFinalScore(ctx context.Context, id uuid.UUID, home, away int) error {
	fx := f.fixtures[id]
	fx.HomeScore, fx.AwayScore = &home, &away
	fx.Status = models.FixtureStatusCompleted
	return nil
}

func (f *fakeRepo) CountStats(ctx context.Context, id uuid.UUID, status models.StatStatus) (int64, error) {
	var n int64
	for k, s := range f.stats {
		if k[0] == id && s.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) UpsertStats(ctx context.Context, stats []models.MatchStat) error {
	if f.failUpsert != nil {
		return apperr.Persistence(f.failUpsert)
	}
	for i := range stats {
		key := [2]uuid.UUID{stats[i].FixtureID, stats[i].PlayerID}
		if existing, ok := f.stats[key]; ok {
			stats[i].ID = existing.ID
		} else {
			stats[i].ID = uuid.New()
		}
		copied := stats[i]
		f.stats[key] = &copied
	}
	return nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.StatStatus, by uuid.UUID, at time.Time) ([]models.MatchStat, error) {
	var out []models.MatchStat
	for k, s := range f.stats {
		if k[0] == id {
			s.Status, s.ApprovedBy, s.ApprovedAt = status, &by, &at
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) FixtureStats(ctx context.Context, id uuid.UUID) ([]View, error) {
	var out []View
	for k, s := range f.stats {
		if k[0] == id {
			out = append(out, View{MatchStat: *s})
		}
	}
	return out, nil
}

func (f *fakeRepo) PlayerStat(ctx context.Context, fixtureID, playerID uuid.UUID) (*View, error) {
	s, ok := f.stats[[2]uuid.UUID{fixtureID, playerID}]
	if !ok {
		return nil, apperr.NotFound("stats not found")
	}
	return &View{MatchStat: *s}, nil
}

func (f *fakeRepo) PendingFixtures(ctx context.Context, leagueID *uuid.UUID) ([]PendingFixture, error) {
	return nil, nil
}

func (f *fakeRepo) DeleteStat(ctx context.Context, id uuid.UUID) error {
	for k, s := range f.stats {
		if s.ID == id {
			delete(f.stats, k)
			return nil
		}
	}
	return apperr.NotFound("stats not found")
}

var (
	now      = time.Date(2025, 5, 10, 21, 0, 0, 0, time.UTC)
	reviewer = models.Actor{UserID: uuid.New(), Roles: []models.Role{models.RoleGovernor}}
)

func setup() (*fakeRepo, *Service, *models.Fixture) {
	repo := newFakeRepo()
	fx := &models.Fixture{ID: uuid.New(), HomeTeamID: uuid.New(), AwayTeamID: uuid.New(), Status: models.FixtureStatusScheduled}
	repo.fixtures[fx.ID] = fx
	return repo, NewService(repo, clockwork.NewFakeClockAt(now), zerolog.Nop()), fx
}

func TestSubmitAppliesDefaultsAndScore(t *testing.T) {
	repo, svc, fx := setup()
	player := uuid.New()

	out, err := svc.Submit(context.Background(), reviewer, SubmitRequest{
		FixtureID:  fx.ID,
		TeamID:     fx.HomeTeamID,
		Players:    []PlayerLine{{PlayerID: player, Goals: 2}},
		FinalScore: &Score{Home: 2, Away: 1},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(out) != 1 || out[0].MinutesPlayed != 90 || out[0].Status != models.StatStatusPending || !out[0].SubmittedAt.Equal(now) {
		t.Fatalf("unexpected stats %+v", out)
	}
	got := repo.fixtures[fx.ID]
	if got.Status != models.FixtureStatusCompleted || *got.HomeScore != 2 || *got.AwayScore != 1 {
		t.Fatalf("expected final score recorded, got %+v", got)
	}
}

func TestSubmitOverwritesSameRecord(t *testing.T) {
	repo, svc, fx := setup()
	player := uuid.New()
	submit := func(goals int) []models.MatchStat {
		out, err := svc.Submit(context.Background(), reviewer, SubmitRequest{FixtureID: fx.ID, TeamID: fx.AwayTeamID, Players: []PlayerLine{{PlayerID: player, Goals: goals}}})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		return out
	}
	first := submit(1)
	second := submit(3)

	if first[0].ID != second[0].ID || len(repo.stats) != 1 {
		t.Fatalf("expected one record, got %d", len(repo.stats))
	}
	if repo.stats[[2]uuid.UUID{fx.ID, player}].Goals != 3 {
		t.Fatalf("expected goals overwritten")
	}
}

func TestSubmitValidation(t *testing.T) {
	_, svc, fx := setup()
	cases := []SubmitRequest{
		{FixtureID: fx.ID, TeamID: fx.HomeTeamID},
		{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Players: []PlayerLine{{PlayerID: uuid.New(), Goals: -1}}},
		{FixtureID: fx.ID, TeamID: uuid.New(), Players: []PlayerLine{{PlayerID: uuid.New()}}},
		{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Players: []PlayerLine{{PlayerID: uuid.New()}}, FinalScore: &Score{Home: -1}},
	}
	for i, req := range cases {
		if _, err := svc.Submit(context.Background(), reviewer, req); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	_, err := svc.Submit(context.Background(), reviewer, SubmitRequest{FixtureID: uuid.New(), TeamID: fx.HomeTeamID, Players: []PlayerLine{{PlayerID: uuid.New()}}})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown fixture, got %v", err)
	}
}

func TestSubmitRollsBackScore(t *testing.T) {
	repo, svc, fx := setup()
	repo.failUpsert = errors.New("deadlock detected")

	_, err := svc.Submit(context.Background(), reviewer, SubmitRequest{
		FixtureID:  fx.ID,
		TeamID:     fx.HomeTeamID,
		Players:    []PlayerLine{{PlayerID: uuid.New()}},
		FinalScore: &Score{Home: 1, Away: 0},
	})
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if got := repo.fixtures[fx.ID]; got.Status != models.FixtureStatusScheduled || got.HomeScore != nil {
		t.Fatalf("expected fixture untouched, got %+v", got)
	}
}

func TestReviewApprovesAndFreezes(t *testing.T) {
	_, svc, fx := setup()
	req := SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Players: []PlayerLine{{PlayerID: uuid.New()}, {PlayerID: uuid.New()}}}
	if _, err := svc.Submit(context.Background(), reviewer, req); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out, err := svc.Review(context.Background(), reviewer, fx.ID, true)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records reviewed, got %d", len(out))
	}
	for _, s := range out {
		if s.Status != models.StatStatusApproved || s.ApprovedBy == nil || *s.ApprovedBy != reviewer.UserID {
			t.Fatalf("unexpected record %+v", s)
		}
	}
	if _, err := svc.Submit(context.Background(), reviewer, req); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after approval, got %v", err)
	}
}

func TestReviewWithoutStats(t *testing.T) {
	_, svc, fx := setup()
	if _, err := svc.Review(context.Background(), reviewer, fx.ID, false); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	_, svc, fx := setup()
	out, err := svc.Submit(context.Background(), reviewer, SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Players: []PlayerLine{{PlayerID: uuid.New()}}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Delete(context.Background(), out[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), out[0].ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
