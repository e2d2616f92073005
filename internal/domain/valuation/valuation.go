package valuation

import (
	"fmt"
	"math"

	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/stats"
)

// Renewal durations the league offers, in months.
const (
	RenewShort = 12
	RenewLong  = 18
)

// Recompute derives a player's market value from season statistics.
//
// A player with zero presences keeps its current value as the season base;
// otherwise the contractual base value anchors the computation. Goalkeepers
// with a meaningful average rating earn a rating bonus around the 6.0
// baseline plus a flat bonus per penalty saved. The result never drops below
// the season base.
func Recompute(p player.Player, s stats.SeasonStats) int64 {
	base := float64(p.BaseValue)
	if s.Presences == 0 {
		base = float64(p.CurrentValue)
	}

	current := base
	if p.Position == player.PositionGoalkeeper && s.AvgRating > 1 {
		current += math.Round((s.AvgRating - 6) * 50)
		current += float64(s.PenaltiesSaved * 5)
	}
	current += float64(s.Goals)
	current -= float64(s.RedCards)
	current += math.Round(s.Assists * 0.5)
	current -= math.Round(float64(s.YellowCards) * 0.5)
	current += math.Round(float64(s.Presences) * 0.4)

	if current < base {
		current = base
	}

	return int64(math.Ceil(current))
}

// Renew computes the post-renewal value for a contract extension of the
// given duration: half value for 12 months, three quarters for 18. High
// valued players are clamped so a renewal never drops them below the 200 or
// 100 floor applicable to their pre-renewal value.
func Renew(p player.Player, months int) (int64, error) {
	var renewed float64
	switch months {
	case RenewShort:
		renewed = math.Ceil(float64(p.CurrentValue) / 2)
	case RenewLong:
		renewed = math.Ceil(float64(p.CurrentValue) * 0.75)
	default:
		return 0, fmt.Errorf("unsupported renewal duration: %d months", months)
	}

	value := int64(renewed)
	switch {
	case p.CurrentValue > 200:
		if value < 200 {
			value = 200
		}
	case p.CurrentValue > 100:
		if value < 100 {
			value = 100
		}
	}

	return value, nil
}
