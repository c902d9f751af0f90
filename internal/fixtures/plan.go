// Package fixtures generates and manages a league's match calendar.
//
// Generation has two halves. Plan is a pure function that turns a team list and
// league settings into dated pairings using an injected random source. Service
// wraps it with the store: it locks the league row, reads eligible teams, and
// replaces the league's fixtures in a single transaction.
package fixtures

import (
	"math/bits"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/apperr"
)

// Format is a league's tournament format.
type Format string

const (
	FormatSingleRobin Format = "SINGLE_ROBIN" // Every pair meets once
	FormatRoundRobin  Format = "ROUND_ROBIN"  // Every pair meets twice, home and away
	FormatDoubleRobin Format = "DOUBLE_ROBIN" // Alias of ROUND_ROBIN
	FormatKnockout    Format = "KNOCKOUT"     // First round of a single-elimination bracket
)

// ParseFormat maps a stored format name to a Format. Anything unrecognised,
// including the empty string, schedules as ROUND_ROBIN.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatSingleRobin, FormatRoundRobin, FormatDoubleRobin, FormatKnockout:
		return f
	default:
		return FormatRoundRobin
	}
}

func (f Format) doubleLegged() bool {
	return f == FormatRoundRobin || f == FormatDoubleRobin
}

const (
	DefaultStartTime    = "19:00:00"
	DefaultIntervalDays = 2
)

// Team is the minimal team view the planner needs.
type Team struct {
	ID   uuid.UUID
	Name string
}

// PlanConfig carries the league settings that shape a calendar.
type PlanConfig struct {
	Format       Format
	SeasonStart  time.Time      // Only the calendar date is used
	IntervalDays int            // Days between match days; <= 0 means DefaultIntervalDays
	StartTime    string         // "HH:MM" or "HH:MM:SS"; empty means DefaultStartTime
	Location     *time.Location // Zone the start time is expressed in; nil means UTC
}

// PlannedFixture is one dated pairing produced by Plan.
type PlannedFixture struct {
	HomeTeamID uuid.UUID
	AwayTeamID uuid.UUID
	MatchDate  time.Time
	MatchWeek  int
}

type pairing struct {
	first, second Team
}

// Plan builds the full calendar for teams under cfg.
//
// Pairings are chunked into match days of floor(n/2) fixtures. The first match
// day is the season start; each following one is IntervalDays later. The week
// counter starts at 1 and goes up whenever the running date's weekday
// (Sunday = 0) falls below the season start's weekday, checked right after the
// date advances.
func Plan(teams []Team, cfg PlanConfig, rng *rand.Rand) ([]PlannedFixture, error) {
	if len(teams) < 2 {
		return nil, apperr.Validation("at least 2 teams are required to generate fixtures, found %d", len(teams))
	}

	hour, minute, second, err := ParseStartTime(cfg.StartTime)
	if err != nil {
		return nil, err
	}
	interval := cfg.IntervalDays
	if interval <= 0 {
		interval = DefaultIntervalDays
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	format := cfg.Format
	if format == "" {
		format = FormatRoundRobin
	}
	pairings := buildPairings(teams, format, rng)

	matchesPerDay := len(teams) / 2
	startYear, startMonth, startDay := cfg.SeasonStart.Date()
	startWeekday := time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, loc).Weekday()

	planned := make([]PlannedFixture, 0, len(pairings))
	offset := 0 // days since season start
	week := 1
	for i := 0; i < len(pairings); i += matchesPerDay {
		end := min(i+matchesPerDay, len(pairings))
		matchDate := time.Date(startYear, startMonth, startDay+offset, hour, minute, second, 0, loc)

		for _, p := range pairings[i:end] {
			home, away := p.first, p.second
			if !format.doubleLegged() && rng.IntN(2) == 1 {
				home, away = away, home
			}
			planned = append(planned, PlannedFixture{
				HomeTeamID: home.ID,
				AwayTeamID: away.ID,
				MatchDate:  matchDate,
				MatchWeek:  week,
			})
		}

		offset += interval
		next := time.Date(startYear, startMonth, startDay+offset, 0, 0, 0, 0, loc)
		if next.Weekday() < startWeekday {
			week++
		}
	}
	return planned, nil
}

func buildPairings(teams []Team, format Format, rng *rand.Rand) []pairing {
	var out []pairing
	switch {
	case format == FormatKnockout:
		shuffled := append([]Team(nil), teams...)
		shuffle(rng, shuffled)
		// An odd team out gets a bye.
		for i := 0; i+1 < len(shuffled); i += 2 {
			out = append(out, pairing{shuffled[i], shuffled[i+1]})
		}
		shuffle(rng, out)

	case format == FormatSingleRobin:
		out = allPairs(teams)
		shuffle(rng, out)

	default:
		// Shuffle the matchups first, then emit both legs of each so the
		// reverse fixture directly follows the first leg.
		base := allPairs(teams)
		shuffle(rng, base)
		out = make([]pairing, 0, 2*len(base))
		for _, p := range base {
			out = append(out, p, pairing{p.second, p.first})
		}
	}
	return out
}

// allPairs returns the C(n,2) unordered pairs in roster order.
func allPairs(teams []Team) []pairing {
	out := make([]pairing, 0, len(teams)*(len(teams)-1)/2)
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			out = append(out, pairing{teams[i], teams[j]})
		}
	}
	return out
}

func shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// ParseStartTime parses "HH:MM" or "HH:MM:SS". The empty string yields DefaultStartTime.
func ParseStartTime(s string) (hour, minute, second int, err error) {
	if s == "" {
		s = DefaultStartTime
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, apperr.Validation("invalid match start time %q", s)
	}
	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, part := range parts {
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n < 0 || n > limits[i] {
			return 0, 0, 0, apperr.Validation("invalid match start time %q", s)
		}
		values[i] = n
	}
	return values[0], values[1], values[2], nil
}

// ExpectedFixtureCount is the number of fixtures Plan produces for n teams.
func ExpectedFixtureCount(format Format, n int) int {
	if n < 2 {
		return 0
	}
	switch format {
	case FormatSingleRobin:
		return n * (n - 1) / 2
	case FormatKnockout:
		return n / 2
	default:
		return n * (n - 1)
	}
}

// EstimateSeasonEnd predicts the last match day for a league of teamCount teams
// starting on start. Robin formats use the number of match days Plan would
// produce; knockout allows one interval per bracket round; any other format
// gets a flat 30 days.
func EstimateSeasonEnd(format string, teamCount, intervalDays int, start time.Time) time.Time {
	if intervalDays <= 0 {
		intervalDays = DefaultIntervalDays
	}
	if teamCount < 2 {
		return start
	}

	var days int
	switch Format(strings.ToUpper(strings.TrimSpace(format))) {
	case FormatSingleRobin, FormatRoundRobin, FormatDoubleRobin:
		matches := ExpectedFixtureCount(ParseFormat(format), teamCount)
		perDay := teamCount / 2
		matchDays := (matches + perDay - 1) / perDay
		days = (matchDays - 1) * intervalDays
	case FormatKnockout:
		rounds := bits.Len(uint(teamCount - 1)) // ceil(log2 n)
		days = rounds * intervalDays
	default:
		days = 30
	}
	return start.AddDate(0, 0, days)
}
