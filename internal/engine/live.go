package engine

import (
	"time"

	"breakout-monitor/internal/models"
)

// liveTimeLayout is the format recorded for entry/exit times on live
// ticks (second resolution).
const liveTimeLayout = "15:04:05"

// Tick applies one polled last-traded price to a symbol's state and
// returns the next state. now must be in IST; callers with no price
// for a symbol this cycle simply do not call Tick, leaving the state
// untouched.
//
// A tick is treated as a zero-width candle under the same discipline
// as Replay: at most one transition fires per tick. A price that
// crosses both entry and target in the same instant enters on this
// tick and can exit on the next, keeping live and replay decisions
// consistent.
func Tick(sig models.Signal, ltp float64, prev models.TradeState, now time.Time) models.TradeState {
	state := prev
	if state.Status.Terminal() {
		return state
	}

	if state.Status == models.StatusPending {
		if entryAllowed(now) && ltp >= sig.Entry {
			state.Status = models.StatusEntered
			state.EntryTime = now.Format(liveTimeLayout)
		}
		return state
	}

	// ENTERED: target takes priority over stoploss.
	if ltp >= sig.Target {
		state.Status = models.StatusExitedTarget
		state.ExitTime = now.Format(liveTimeLayout)
		price := sig.Target
		state.ExitPrice = &price
		return state
	}
	if ltp <= sig.Stoploss {
		state.Status = models.StatusExitedSL
		state.ExitTime = now.Format(liveTimeLayout)
		price := sig.Stoploss
		state.ExitPrice = &price
	}
	return state
}
