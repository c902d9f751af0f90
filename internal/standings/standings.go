// Package standings computes a league table from completed fixtures.
// Nothing is stored: the table is rebuilt from fixture scores on every call.
package standings

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/models"
)

const (
	pointsForWin  = 3
	pointsForDraw = 1
	formLength    = 5
)

// TeamInfo is a team taking part in the league.
type TeamInfo struct {
	ID       uuid.UUID
	Name     string
	CrestURL *string
}

// Result is one completed fixture with both scores recorded.
type Result struct {
	HomeTeamID uuid.UUID
	AwayTeamID uuid.UUID
	HomeScore  int
	AwayScore  int
	MatchDate  time.Time
}

// Row is one ranked line of the table.
type Row struct {
	Rank           int       `json:"rank"`
	TeamID         uuid.UUID `json:"team_id"`
	Name           string    `json:"name"`
	CrestURL       *string   `json:"crest_url"`
	Played         int       `json:"played"`
	Won            int       `json:"won"`
	Drawn          int       `json:"drawn"`
	Lost           int       `json:"lost"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	Points         int       `json:"points"`
	Form           []string  `json:"form"` // Up to 5 of "W", "D", "L", oldest first
}

// Repository is the read-only storage port behind the calculator.
type Repository interface {
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	// LeagueTeams lists every team assigned to the league, oldest team first.
	LeagueTeams(ctx context.Context, leagueID uuid.UUID) ([]TeamInfo, error)
	// CompletedResults lists completed fixtures that have both scores.
	CompletedResults(ctx context.Context, leagueID uuid.UUID) ([]Result, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Standings returns the ranked table for a league.
func (s *Service) Standings(ctx context.Context, leagueID uuid.UUID) ([]Row, error) {
	if _, err := s.repo.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	teams, err := s.repo.LeagueTeams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.CompletedResults(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return Compute(teams, results), nil
}

type teamRecord struct {
	Row
	history []Result
}

// Compute ranks teams by points, then goal difference, then goals scored.
// Equal teams keep their input order. Results involving teams not in teams
// are ignored.
func Compute(teams []TeamInfo, results []Result) []Row {
	records := make([]*teamRecord, len(teams))
	byID := make(map[uuid.UUID]*teamRecord, len(teams))
	for i, team := range teams {
		rec := &teamRecord{Row: Row{TeamID: team.ID, Name: team.Name, CrestURL: team.CrestURL}}
		records[i] = rec
		byID[team.ID] = rec
	}

	for _, res := range results {
		if home, ok := byID[res.HomeTeamID]; ok {
			home.record(res, res.HomeScore, res.AwayScore)
		}
		if away, ok := byID[res.AwayTeamID]; ok {
			away.record(res, res.AwayScore, res.HomeScore)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})

	rows := make([]Row, len(records))
	for i, rec := range records {
		rec.Rank = i + 1
		rec.Form = rec.form()
		rows[i] = rec.Row
	}
	return rows
}

func (r *teamRecord) record(res Result, scored, conceded int) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	r.GoalDifference = r.GoalsFor - r.GoalsAgainst
	switch {
	case scored > conceded:
		r.Won++
	case scored == conceded:
		r.Drawn++
	default:
		r.Lost++
	}
	r.Points = r.Won*pointsForWin + r.Drawn*pointsForDraw
	r.history = append(r.history, res)
}

// form returns the outcomes of the team's last five results, oldest first.
func (r *teamRecord) form() []string {
	history := append([]Result(nil), r.history...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].MatchDate.Before(history[j].MatchDate)
	})
	if len(history) > formLength {
		history = history[len(history)-formLength:]
	}

	form := make([]string, 0, len(history))
	for _, res := range history {
		scored, conceded := res.HomeScore, res.AwayScore
		if res.AwayTeamID == r.TeamID {
			scored, conceded = conceded, scored
		}
		switch {
		case scored > conceded:
			form = append(form, "W")
		case scored == conceded:
			form = append(form, "D")
		default:
			form = append(form, "L")
		}
	}
	return form
}
