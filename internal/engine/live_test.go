package engine

import (
	"testing"
	"time"

	"breakout-monitor/internal/models"
	"breakout-monitor/pkg/utils"
)

func istTime(hhmmss string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", "2025-11-18 "+hhmmss, utils.IndiaLocation)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTickEntry(t *testing.T) {
	state := Tick(testSignal, 103.5, models.NewTradeState(), istTime("10:00:00"))

	if state.Status != models.StatusEntered {
		t.Fatalf("status = %s, want ENTERED", state.Status)
	}
	if state.EntryTime != "10:00:00" {
		t.Errorf("entry_time = %q, want 10:00:00", state.EntryTime)
	}
}

func TestTickNoEntryBeforeCutoff(t *testing.T) {
	state := Tick(testSignal, 110, models.NewTradeState(), istTime("09:19:59"))

	if state.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING before 09:20", state.Status)
	}
}

func TestTickOneTransitionPerTick(t *testing.T) {
	// A price above both entry and target enters on this tick; the exit
	// fires on the next tick, mirroring replay's one-transition-per-
	// candle rule.
	now := istTime("10:00:00")
	state := Tick(testSignal, 110, models.NewTradeState(), now)

	if state.Status != models.StatusEntered {
		t.Fatalf("first tick status = %s, want ENTERED", state.Status)
	}
	if state.ExitPrice != nil {
		t.Fatalf("first tick exit_price = %v, want nil", *state.ExitPrice)
	}

	state = Tick(testSignal, 110, state, istTime("10:00:03"))
	if state.Status != models.StatusExitedTarget {
		t.Fatalf("second tick status = %s, want EXITED_TARGET", state.Status)
	}
	if state.ExitPrice == nil || *state.ExitPrice != testSignal.Target {
		t.Errorf("exit_price = %v, want %v", state.ExitPrice, testSignal.Target)
	}
}

func TestTickExits(t *testing.T) {
	entered := models.TradeState{Status: models.StatusEntered, EntryTime: "09:45:00"}

	tests := []struct {
		name      string
		ltp       float64
		want      models.TradeStatus
		wantPrice float64
	}{
		{"target hit", 107.5, models.StatusExitedTarget, 107},
		{"target exact", 107, models.StatusExitedTarget, 107},
		{"stoploss hit", 98.5, models.StatusExitedSL, 99},
		{"stoploss exact", 99, models.StatusExitedSL, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Tick(testSignal, tt.ltp, entered, istTime("11:00:00"))
			if state.Status != tt.want {
				t.Fatalf("status = %s, want %s", state.Status, tt.want)
			}
			if state.ExitPrice == nil || *state.ExitPrice != tt.wantPrice {
				t.Errorf("exit_price = %v, want %v", state.ExitPrice, tt.wantPrice)
			}
			if state.EntryTime != "09:45:00" {
				t.Errorf("entry_time changed to %q", state.EntryTime)
			}
		})
	}
}

func TestTickHoldsBetweenLevels(t *testing.T) {
	entered := models.TradeState{Status: models.StatusEntered, EntryTime: "09:45:00"}
	state := Tick(testSignal, 104, entered, istTime("11:00:00"))

	if state != entered {
		t.Errorf("state changed to %+v while price was between levels", state)
	}
}

func TestTickTerminalStateFrozen(t *testing.T) {
	price := 107.0
	exited := models.TradeState{
		Status:    models.StatusExitedTarget,
		EntryTime: "09:45:00",
		ExitTime:  "10:15:00",
		ExitPrice: &price,
	}

	for _, ltp := range []float64{50, 104, 120} {
		state := Tick(testSignal, ltp, exited, istTime("12:00:00"))
		if state != exited {
			t.Errorf("terminal state changed to %+v at ltp=%v", state, ltp)
		}
	}
}
