// Package rewards turns approved match stats into staged rewards and pays
// staged rewards out as ledger transactions.
package rewards

import (
	"github.com/trentd187/club-league/internal/models"
)

// Reason codes used in reward breakdowns.
const (
	ReasonGoal       = "GOAL"
	ReasonAssist     = "ASSIST"
	ReasonSave       = "SAVE"
	ReasonCleanSheet = "CLEAN_SHEET"
	ReasonYellowCard = "YELLOW_CARD"
	ReasonRedCard    = "RED_CARD"
	ReasonMVP        = "MVP"
)

// rule scores one stat. The slice order is the breakdown order.
type rule struct {
	reason string
	value  int64
	count  func(models.MatchStat) int
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

var rules = []rule{
	{ReasonGoal, 15, func(s models.MatchStat) int { return s.Goals }},
	{ReasonAssist, 10, func(s models.MatchStat) int { return s.Assists }},
	{ReasonSave, 3, func(s models.MatchStat) int { return s.Saves }},
	{ReasonCleanSheet, 20, func(s models.MatchStat) int { return flag(s.CleanSheet) }},
	{ReasonYellowCard, -10, func(s models.MatchStat) int { return s.YellowCards }},
	{ReasonRedCard, -25, func(s models.MatchStat) int { return s.RedCards }},
	{ReasonMVP, 25, func(s models.MatchStat) int { return flag(s.IsMVP) }},
}

// Score computes the reward for one stat line. The breakdown lists every rule
// with a positive count, in rule order. The total may be negative.
func Score(stat models.MatchStat) (int64, []models.RewardLineItem) {
	var total int64
	breakdown := make([]models.RewardLineItem, 0, len(rules))
	for _, r := range rules {
		n := r.count(stat)
		if n <= 0 {
			continue
		}
		amount := int64(n) * r.value
		total += amount
		breakdown = append(breakdown, models.RewardLineItem{Reason: r.reason, Count: n, Amount: amount})
	}
	return total, breakdown
}
