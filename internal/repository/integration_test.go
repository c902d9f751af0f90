//go:build integration

// These tests run the repository queries against a real Postgres:
//
//	DATABASE_URL=postgres://... go test -tags integration ./internal/repository/
//
// Every test works inside a transaction that is rolled back on cleanup.

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trentd187/club-league/internal/database"
)

func openTx(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	source := os.Getenv("MIGRATIONS_PATH")
	if source == "" {
		source = "file://../../migrations"
	}
	if err := database.RunMigrations(source, dsn, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func mustExec(t *testing.T, tx *gorm.DB, sql string, args ...any) {
	t.Helper()
	if err := tx.Exec(sql, args...).Error; err != nil {
		t.Fatalf("seed %q: %v", sql, err)
	}
}

// seedLeague is one league with four teams: two active members, an inactive
// team holding an active membership, and an active team still applying.
type seedLeague struct {
	user, league            uuid.UUID
	home, away              uuid.UUID
	inactiveTeam, applicant uuid.UUID
}

func seed(t *testing.T, tx *gorm.DB) seedLeague {
	t.Helper()
	s := seedLeague{
		user: uuid.New(), league: uuid.New(),
		home: uuid.New(), away: uuid.New(), inactiveTeam: uuid.New(), applicant: uuid.New(),
	}
	tag := s.user.String()[:8]
	mustExec(t, tx, `INSERT INTO users (id, email, username) VALUES (?, ?, ?)`, s.user, tag+"@club.test", "u"+tag)
	mustExec(t, tx, `INSERT INTO leagues (id, name, created_by, governor_id, season_start) VALUES (?, 'Spring', ?, ?, '2025-01-01')`,
		s.league, s.user, s.user)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	teams := []struct {
		id         uuid.UUID
		teamStatus string
		membership string
	}{
		{s.home, "active", "active"},
		{s.away, "active", "active"},
		{s.inactiveTeam, "inactive", "active"},
		{s.applicant, "active", "pending"},
	}
	for i, tm := range teams {
		mustExec(t, tx, `INSERT INTO teams (id, name, status, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
			tm.id, "Team "+tm.id.String()[:6], tm.teamStatus, s.user, created.Add(time.Duration(i)*time.Hour))
		mustExec(t, tx, `INSERT INTO league_teams (team_id, league_id, status) VALUES (?, ?, ?)`, tm.id, s.league, tm.membership)
	}
	return s
}

func addFixture(t *testing.T, tx *gorm.DB, s seedLeague, status string, home, away *int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	mustExec(t, tx, `INSERT INTO fixtures (id, league_id, home_team_id, away_team_id, match_date, status, home_score, away_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.league, s.home, s.away, time.Date(2025, 1, 1, 19, 0, 0, 0, time.UTC), status, home, away)
	return id
}

func intp(n int) *int { return &n }

func TestEligibleTeamsNeedActiveTeamAndMembership(t *testing.T) {
	tx := openTx(t)
	s := seed(t, tx)

	got, err := NewFixtures(tx).EligibleTeams(context.Background(), s.league)
	if err != nil {
		t.Fatalf("eligible teams: %v", err)
	}
	if len(got) != 2 || got[0].ID != s.home || got[1].ID != s.away {
		t.Fatalf("expected the two active members oldest first, got %+v", got)
	}
}

func TestCompletedResultsNeedBothScores(t *testing.T) {
	tx := openTx(t)
	s := seed(t, tx)
	counted := addFixture(t, tx, s, "completed", intp(2), intp(1))
	addFixture(t, tx, s, "completed", intp(3), nil)
	addFixture(t, tx, s, "scheduled", intp(1), intp(0))

	got, err := NewStandings(tx).CompletedResults(context.Background(), s.league)
	if err != nil {
		t.Fatalf("completed results: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the fully scored completed fixture, got %d (%s)", len(got), counted)
	}
	if got[0].HomeScore != 2 || got[0].AwayScore != 1 {
		t.Fatalf("unexpected score %d-%d", got[0].HomeScore, got[0].AwayScore)
	}
}

func TestLockApprovedRewardsSkipsPaidRows(t *testing.T) {
	tx := openTx(t)
	s := seed(t, tx)
	fixture := addFixture(t, tx, s, "completed", intp(1), intp(0))

	player := uuid.New()
	mustExec(t, tx, `INSERT INTO players (id, user_id) VALUES (?, ?)`, player, s.user)
	approved, paid := uuid.New(), uuid.New()
	mustExec(t, tx, `INSERT INTO pending_rewards (id, fixture_id, player_id, team_id, amount, status) VALUES (?, ?, ?, ?, 10, 'approved')`,
		approved, fixture, player, s.home)
	mustExec(t, tx, `INSERT INTO pending_rewards (id, fixture_id, player_id, team_id, amount, status) VALUES (?, ?, ?, ?, 5, 'paid')`,
		paid, fixture, player, s.home)

	got, err := NewRewards(tx).LockApprovedRewards(context.Background(), []uuid.UUID{approved, paid, uuid.New()})
	if err != nil {
		t.Fatalf("lock approved rewards: %v", err)
	}
	if len(got) != 1 || got[0].ID != approved {
		t.Fatalf("expected only the approved reward, got %+v", got)
	}

	rewarded, err := NewFixtures(tx).HasRewards(context.Background(), s.league)
	if err != nil {
		t.Fatalf("has rewards: %v", err)
	}
	if !rewarded {
		t.Fatalf("expected league to report rewards")
	}
}
