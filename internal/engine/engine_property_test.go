package engine

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"breakout-monitor/internal/models"
	"breakout-monitor/pkg/utils"
)

// genCandle generates a candle within the NSE session on a fixed day,
// with a valid high/low range around a base price.
func genCandle() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 374), // minutes after 09:15
		gen.Float64Range(90, 120),
		gen.Float64Range(0, 15),
	).Map(func(values []interface{}) models.Candle {
		offset := values[0].(int)
		low := values[1].(float64)
		spread := values[2].(float64)

		base := time.Date(2025, time.November, 18, 9, 15, 0, 0, utils.IndiaLocation)
		ts := base.Add(time.Duration(offset) * time.Minute)
		return models.Candle{
			Timestamp: ts.UnixMilli(),
			Open:      low + spread/2,
			High:      low + spread,
			Low:       low,
			Close:     low + spread/2,
		}
	})
}

// genCandleSeries generates an ascending-timestamp candle series.
func genCandleSeries() gopter.Gen {
	return gen.SliceOf(genCandle()).Map(func(candles []models.Candle) []models.Candle {
		sort.Slice(candles, func(i, j int) bool {
			return candles[i].Timestamp < candles[j].Timestamp
		})
		return candles
	})
}

// Property: replaying any prefix of a candle series never yields a
// state further along the lifecycle than a longer prefix — status only
// moves forward as candles are appended.
func TestProperty_ReplayStatusMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("status rank is nondecreasing over prefixes", prop.ForAll(
		func(candles []models.Candle) bool {
			prevRank := -1
			for i := 0; i <= len(candles); i++ {
				state := Replay(testSignal, candles[:i])
				if state.Status.Rank() < prevRank {
					return false
				}
				prevRank = state.Status.Rank()
			}
			return true
		},
		genCandleSeries(),
	))

	properties.TestingRun(t)
}

// Property: replay is a pure function — the same inputs always produce
// the same state.
func TestProperty_ReplayDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs yield identical states", prop.ForAll(
		func(candles []models.Candle) bool {
			a := Replay(testSignal, candles)
			b := Replay(testSignal, candles)
			if a.Status != b.Status || a.EntryTime != b.EntryTime || a.ExitTime != b.ExitTime {
				return false
			}
			if (a.ExitPrice == nil) != (b.ExitPrice == nil) {
				return false
			}
			return a.ExitPrice == nil || *a.ExitPrice == *b.ExitPrice
		},
		genCandleSeries(),
	))

	properties.TestingRun(t)
}

// Property: an entry never carries a timestamp before the 09:20 IST
// cutoff, in both replay and live paths. HH:MM(:SS) strings compare
// correctly lexicographically.
func TestProperty_EntryRespectsCutoff(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("replay entry time at or after 09:20", prop.ForAll(
		func(candles []models.Candle) bool {
			state := Replay(testSignal, candles)
			return state.EntryTime == "" || state.EntryTime >= "09:20"
		},
		genCandleSeries(),
	))

	properties.Property("live entry time at or after 09:20", prop.ForAll(
		func(minuteOfDay int, ltp float64) bool {
			now := time.Date(2025, time.November, 18, 0, 0, 0, 0, utils.IndiaLocation).
				Add(time.Duration(minuteOfDay) * time.Minute)
			state := Tick(testSignal, ltp, models.NewTradeState(), now)
			return state.EntryTime == "" || state.EntryTime >= "09:20"
		},
		gen.IntRange(0, 1439),
		gen.Float64Range(90, 130),
	))

	properties.TestingRun(t)
}

// Property: when a candle's range spans both trigger prices, the
// replay resolves in favor of the target, never the stoploss, on that
// candle.
func TestProperty_TargetPriorityOnSpanningCandle(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("spanning candle resolves to target", prop.ForAll(
		func(high, low float64) bool {
			if high < testSignal.Target || low > testSignal.Stoploss {
				return true // not a spanning candle
			}
			candles := []models.Candle{
				candleAt("09:20", math.NaN(), testSignal.Entry, testSignal.Entry-0.5, testSignal.Entry),
				candleAt("09:21", math.NaN(), high, low, (high+low)/2),
			}
			state := Replay(testSignal, candles)
			return state.Status == models.StatusExitedTarget
		},
		gen.Float64Range(100, 150),
		gen.Float64Range(50, 105),
	))

	properties.TestingRun(t)
}

// Property: the derived levels obey the published identities.
func TestProperty_LevelArithmetic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("target identity and entry ordering", prop.ForAll(
		func(open, entryPct, stoplossPct, rr float64) bool {
			p := Params{EntryPct: entryPct, StoplossPct: stoplossPct, RiskReward: rr}
			l := Levels(open, p)

			if l.Target != Round2(l.Entry+Round2(l.Entry-l.Stoploss)*rr) {
				return false
			}
			// Strict increase once the breakout margin survives
			// rounding to paise.
			if open*entryPct > 0.015 && l.Entry <= Round2(l.Open) {
				return false
			}
			if entryPct == 0 && l.Entry != Round2(l.Open) {
				return false
			}
			return true
		},
		gen.Float64Range(1, 10000),
		gen.Float64Range(0, 0.2),
		gen.Float64Range(0, 0.2),
		gen.Float64Range(0, 5),
	))

	properties.TestingRun(t)
}
