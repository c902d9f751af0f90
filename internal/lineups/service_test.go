package lineups

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

type fakeRepo struct {
	fixtures map[uuid.UUID]*models.Fixture
	lineups  map[[2]uuid.UUID]*models.Lineup
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{fixtures: map[uuid.UUID]*models.Fixture{}, lineups: map[[2]uuid.UUID]*models.Lineup{}}
}

func (f *fakeRepo) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, apperr.NotFound("fixture not found")
	}
	return fx, nil
}

func (f *fakeRepo) FindLineup(ctx context.Context, fixtureID, teamID uuid.UUID) (*models.Lineup, error) {
	return f.lineups[[2]uuid.UUID{fixtureID, teamID}], nil
}

func (f *fakeRepo) UpsertLineup(ctx context.Context, l *models.Lineup) error {
	key := [2]uuid.UUID{l.FixtureID, l.TeamID}
	if existing, ok := f.lineups[key]; ok {
		l.ID = existing.ID
	} else {
		l.ID = uuid.New()
	}
	f.lineups[key] = l
	return nil
}

func (f *fakeRepo) FixtureLineups(ctx context.Context, fixtureID uuid.UUID) ([]View, error) {
	var out []View
	for k, l := range f.lineups {
		if k[0] == fixtureID {
			out = append(out, View{Lineup: *l})
		}
	}
	return out, nil
}

func (f *fakeRepo) LockLineup(ctx context.Context, id uuid.UUID, at time.Time) (*models.Lineup, error) {
	for _, l := range f.lineups {
		if l.ID == id {
			l.Locked, l.LockedAt = true, &at
			return l, nil
		}
	}
	return nil, apperr.NotFound("lineup not found")
}

func (f *fakeRepo) DeleteLineup(ctx context.Context, id uuid.UUID) error {
	for k, l := range f.lineups {
		if l.ID == id {
			delete(f.lineups, k)
			return nil
		}
	}
	return apperr.NotFound("lineup not found")
}

var (
	kickoff = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	captain = models.Actor{UserID: uuid.New()}
)

func setup(now time.Time) (*fakeRepo, *Service, *models.Fixture) {
	repo := newFakeRepo()
	fx := &models.Fixture{ID: uuid.New(), HomeTeamID: uuid.New(), AwayTeamID: uuid.New(), MatchDate: kickoff}
	repo.fixtures[fx.ID] = fx
	return repo, NewService(repo, clockwork.NewFakeClockAt(now), 30, zerolog.Nop()), fx
}

func slots(n int) []models.LineupSlot {
	out := make([]models.LineupSlot, n)
	for i := range out {
		out[i] = models.LineupSlot{PlayerID: uuid.New()}
	}
	return out
}

func TestSubmitWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"well before", kickoff.Add(-2 * time.Hour), false},
		{"one minute before lock", kickoff.Add(-31 * time.Minute), false},
		{"exactly at lock", kickoff.Add(-30 * time.Minute), true},
		{"inside window", kickoff.Add(-5 * time.Minute), true},
		{"after kickoff", kickoff.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc, fx := setup(tt.now)
			_, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Starting: slots(11)})
			if tt.wantErr && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("submit: %v", err)
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	_, svc, fx := setup(kickoff.Add(-24 * time.Hour))
	dup := slots(2)
	cases := []SubmitRequest{
		{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Starting: slots(1)},
		{FixtureID: fx.ID, TeamID: uuid.New(), Starting: slots(5)},
		{FixtureID: fx.ID, TeamID: fx.AwayTeamID, Starting: dup, Substitutes: dup[:1]},
	}
	for i, req := range cases {
		if _, err := svc.Submit(context.Background(), captain, req); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: uuid.New()}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResubmitReplacesUntilLocked(t *testing.T) {
	repo, svc, fx := setup(kickoff.Add(-24 * time.Hour))
	first, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Formation: "4-4-2", Starting: slots(11)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Formation: "4-3-3", Starting: slots(3)})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if first.ID != second.ID || len(repo.lineups) != 1 || len(second.Substitutes) != 0 {
		t.Fatalf("expected lineup replaced in place")
	}

	locked, err := svc.Lock(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !locked.Locked || locked.LockedAt == nil {
		t.Fatalf("expected locked lineup, got %+v", locked)
	}
	if _, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: fx.ID, TeamID: fx.HomeTeamID, Starting: slots(11)}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for locked lineup, got %v", err)
	}
}

func TestMatchSplitsHomeAndAway(t *testing.T) {
	_, svc, fx := setup(kickoff.Add(-24 * time.Hour))
	if _, err := svc.Submit(context.Background(), captain, SubmitRequest{FixtureID: fx.ID, TeamID: fx.AwayTeamID, Starting: slots(2)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	match, err := svc.Match(context.Background(), fx.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match.Home != nil || match.Away == nil || match.Away.TeamID != fx.AwayTeamID {
		t.Fatalf("unexpected lineups %+v", match)
	}
}

func TestDeleteMissing(t *testing.T) {
	_, svc, _ := setup(kickoff)
	if err := svc.Delete(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
