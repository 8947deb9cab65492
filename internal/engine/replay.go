package engine

import (
	"time"

	"breakout-monitor/internal/models"
	"breakout-monitor/pkg/utils"
)

// Entries are disallowed before 09:20 IST, five minutes into the NSE
// normal session.
const (
	entryCutoffHour   = 9
	entryCutoffMinute = 20
)

// replayTimeLayout is the format recorded for entry/exit times during
// replay (minute resolution, matching candle granularity).
const replayTimeLayout = "15:04"

// entryAllowed reports whether the entry cutoff has passed at t.
func entryAllowed(t time.Time) bool {
	return t.Hour() > entryCutoffHour ||
		(t.Hour() == entryCutoffHour && t.Minute() >= entryCutoffMinute)
}

// isOpeningMinute reports whether t is 09:15 or 09:16 IST, the
// preferred minutes for reading the session open.
func isOpeningMinute(t time.Time) bool {
	return t.Hour() == 9 && (t.Minute() == 15 || t.Minute() == 16)
}

// candleTime returns the candle's normalized timestamp in IST.
func candleTime(c models.Candle) time.Time {
	return time.UnixMilli(models.EpochMillis(c.Timestamp)).In(utils.IndiaLocation)
}

// ReplayResult is the outcome of replaying a full candle series from
// its opening price: the derived levels plus the final trade state.
type ReplayResult struct {
	Levels models.PriceLevels
	State  models.TradeState
}

// ReplayFromOpen derives price levels from the series' opening candle
// and replays the rest of the series against them. The opening candle
// is the first 09:15/09:16 candle with a usable open, falling back to
// the first candle with a usable open anywhere in the series.
//
// Returns ok=false when the series is empty or no candle has a usable
// open; that signals insufficient data, not a pending trade.
func ReplayFromOpen(candles []models.Candle, p Params) (ReplayResult, bool) {
	openIdx := -1
	for i, c := range candles {
		if isOpeningMinute(candleTime(c)) && c.HasOpen() {
			openIdx = i
			break
		}
	}
	if openIdx == -1 {
		for i, c := range candles {
			if c.HasOpen() {
				openIdx = i
				break
			}
		}
	}
	if openIdx == -1 {
		return ReplayResult{}, false
	}

	levels := Levels(candles[openIdx].Open, p)
	state := walk(candles[openIdx+1:], levels.Entry, levels.Target, levels.Stoploss)

	return ReplayResult{Levels: levels, State: state}, true
}

// Replay runs the replay state machine for one signal over its full
// candle series, walking every candle. Used to seed live state from
// the day's history so a restarted process reaches the same state a
// continuously running one would.
func Replay(sig models.Signal, candles []models.Candle) models.TradeState {
	return walk(candles, sig.Entry, sig.Target, sig.Stoploss)
}

// walk advances a fresh PENDING state over the candles in order. At
// most one transition fires per candle: a candle that triggers entry
// is not also evaluated for exit. While ENTERED, target is checked
// before stoploss, so a candle whose range spans both resolves to
// EXITED_TARGET. Terminal states stop the walk.
func walk(candles []models.Candle, entry, target, stoploss float64) models.TradeState {
	state := models.NewTradeState()

	for _, c := range candles {
		if !c.HasRange() {
			continue
		}
		ts := candleTime(c)

		if state.Status == models.StatusPending && entryAllowed(ts) && c.High >= entry {
			state.Status = models.StatusEntered
			state.EntryTime = ts.Format(replayTimeLayout)
			continue
		}

		if state.Status == models.StatusEntered && c.High >= target {
			state.Status = models.StatusExitedTarget
			state.ExitTime = ts.Format(replayTimeLayout)
			price := target
			state.ExitPrice = &price
			break
		}

		if state.Status == models.StatusEntered && c.Low <= stoploss {
			state.Status = models.StatusExitedSL
			state.ExitTime = ts.Format(replayTimeLayout)
			price := stoploss
			state.ExitPrice = &price
			break
		}
	}

	return state
}
