// Package engine implements the trade lifecycle engine: price-level
// derivation, the historical replay state machine, and the live tick
// state machine. Everything here is pure computation; all I/O lives in
// the feed and store packages.
package engine

import (
	"math"

	"breakout-monitor/internal/models"
)

// Default breakout parameters.
const (
	DefaultEntryPct    = 0.03 // breakout threshold above open
	DefaultStoplossPct = 0.01 // drawdown threshold below open
	DefaultRiskReward  = 1.0  // risk:reward multiplier
)

// Params are the tunable breakout parameters.
type Params struct {
	EntryPct    float64
	StoplossPct float64
	RiskReward  float64
}

// DefaultParams returns the default breakout parameters.
func DefaultParams() Params {
	return Params{
		EntryPct:    DefaultEntryPct,
		StoplossPct: DefaultStoplossPct,
		RiskReward:  DefaultRiskReward,
	}
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Levels derives the trigger prices for a breakout candidate from its
// opening price. A non-positive open yields degenerate but well-defined
// levels; validation is the caller's concern.
func Levels(open float64, p Params) models.PriceLevels {
	entry := Round2(open * (1 + p.EntryPct))
	stoploss := Round2(open * (1 - p.StoplossPct))
	risk := Round2(entry - stoploss)
	target := Round2(entry + risk*p.RiskReward)

	return models.PriceLevels{
		Open:     open,
		Entry:    entry,
		Stoploss: stoploss,
		Target:   target,
		Risk:     risk,
		RR:       p.RiskReward,
	}
}
