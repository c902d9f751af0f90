package leagues

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/models"
)

// Patch is a partial league update. A nil field is left untouched.
type Patch struct {
	Name              *string
	Region            *string
	Season            *string
	Description       *string
	SeasonStart       *time.Time
	SeasonEnd         *time.Time
	PrizePool         *decimal.Decimal
	MaxTeams          *int
	MatchIntervalDays *int
	Format            *string
	MatchStartTime    *string
	Status            *models.LeagueStatus
}

func (p Patch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return apperr.Validation("no fields to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation("name must not be empty")
	}
	if p.Status != nil && !validStatus(*p.Status) {
		return apperr.Validation("unknown league status %q", *p.Status)
	}
	if p.PrizePool != nil && p.PrizePool.IsNegative() {
		return apperr.Validation("prize_pool must not be negative")
	}
	if p.SeasonStart != nil && p.SeasonEnd != nil && p.SeasonEnd.Before(*p.SeasonStart) {
		return apperr.Validation("season_end must not be before season_start")
	}
	maxTeams, interval, start := 2, 1, fixtures.DefaultStartTime
	if p.MaxTeams != nil {
		maxTeams = *p.MaxTeams
	}
	if p.MatchIntervalDays != nil {
		interval = *p.MatchIntervalDays
	}
	if p.MatchStartTime != nil {
		start = *p.MatchStartTime
	}
	return validateSettings(maxTeams, interval, start)
}

// Columns compiles the present fields into a column → value map for a single UPDATE.
func (p Patch) Columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, present bool, v func() any) {
		if present {
			cols[col] = v()
		}
	}
	set("name", p.Name != nil, func() any { return strings.TrimSpace(*p.Name) })
	set("region", p.Region != nil, func() any { return *p.Region })
	set("season", p.Season != nil, func() any { return *p.Season })
	set("description", p.Description != nil, func() any { return *p.Description })
	set("season_start", p.SeasonStart != nil, func() any { return *p.SeasonStart })
	set("season_end", p.SeasonEnd != nil, func() any { return *p.SeasonEnd })
	set("prize_pool", p.PrizePool != nil, func() any { return *p.PrizePool })
	set("max_teams", p.MaxTeams != nil, func() any { return *p.MaxTeams })
	set("match_interval_days", p.MatchIntervalDays != nil, func() any { return *p.MatchIntervalDays })
	set("match_type", p.Format != nil, func() any { return strings.ToUpper(*p.Format) })
	set("match_start_time", p.MatchStartTime != nil, func() any { return *p.MatchStartTime })
	set("status", p.Status != nil, func() any { return string(*p.Status) })
	return cols
}

func validateSettings(maxTeams, interval int, startTime string) error {
	if maxTeams < 2 {
		return apperr.Validation("max_teams must be at least 2")
	}
	if interval <= 0 {
		return apperr.Validation("match_interval_days must be positive")
	}
	if _, _, _, err := fixtures.ParseStartTime(startTime); err != nil {
		return err
	}
	return nil
}

func validStatus(s models.LeagueStatus) bool {
	switch s {
	case models.LeagueStatusDraft, models.LeagueStatusActive, models.LeagueStatusCompleted:
		return true
	}
	return false
}
