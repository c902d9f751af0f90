package fixtures

import (
	"time"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

// Patch is a partial fixture update. A nil field is left untouched.
type Patch struct {
	MatchDate *time.Time
	Platform  *string
	Venue     *string
	Status    *models.FixtureStatus
	HomeScore *int
	AwayScore *int
}

func (p Patch) IsEmpty() bool {
	return p.MatchDate == nil && p.Platform == nil && p.Venue == nil &&
		p.Status == nil && p.HomeScore == nil && p.AwayScore == nil
}

// Validate rejects empty patches and out-of-range values.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return apperr.Validation("no fields to update")
	}
	if p.Status != nil && !validStatus(*p.Status) {
		return apperr.Validation("unknown fixture status %q", *p.Status)
	}
	if p.HomeScore != nil && *p.HomeScore < 0 {
		return apperr.Validation("home_score must not be negative")
	}
	if p.AwayScore != nil && *p.AwayScore < 0 {
		return apperr.Validation("away_score must not be negative")
	}
	if p.MatchDate != nil && p.MatchDate.IsZero() {
		return apperr.Validation("match_date must be a valid timestamp")
	}
	return nil
}

// Columns compiles the present fields into a column → value map. The store
// turns it into one parameterized UPDATE.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 6)
	if p.MatchDate != nil {
		cols["match_date"] = *p.MatchDate
	}
	if p.Platform != nil {
		cols["platform"] = *p.Platform
	}
	if p.Venue != nil {
		cols["venue"] = *p.Venue
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.HomeScore != nil {
		cols["home_score"] = *p.HomeScore
	}
	if p.AwayScore != nil {
		cols["away_score"] = *p.AwayScore
	}
	return cols
}

func validStatus(s models.FixtureStatus) bool {
	switch s {
	case models.FixtureStatusScheduled, models.FixtureStatusLive,
		models.FixtureStatusCompleted, models.FixtureStatusCancelled:
		return true
	}
	return false
}
