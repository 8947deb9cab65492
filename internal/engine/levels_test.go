package engine

import (
	"testing"

	"breakout-monitor/internal/models"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		open float64
		p    Params
		want models.PriceLevels
	}{
		{
			name: "documented example",
			open: 100,
			p:    Params{EntryPct: 0.03, StoplossPct: 0.01, RiskReward: 1},
			want: models.PriceLevels{Open: 100, Entry: 103, Stoploss: 99, Target: 107, Risk: 4, RR: 1},
		},
		{
			name: "double risk reward",
			open: 100,
			p:    Params{EntryPct: 0.03, StoplossPct: 0.01, RiskReward: 2},
			want: models.PriceLevels{Open: 100, Entry: 103, Stoploss: 99, Target: 111, Risk: 4, RR: 2},
		},
		{
			name: "rounding to paise",
			open: 123.456,
			p:    Params{EntryPct: 0.03, StoplossPct: 0.01, RiskReward: 1},
			want: models.PriceLevels{Open: 123.456, Entry: 127.16, Stoploss: 122.22, Target: 132.1, Risk: 4.94, RR: 1},
		},
		{
			name: "zero percentages collapse to open",
			open: 250,
			p:    Params{EntryPct: 0, StoplossPct: 0, RiskReward: 1},
			want: models.PriceLevels{Open: 250, Entry: 250, Stoploss: 250, Target: 250, Risk: 0, RR: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Levels(tt.open, tt.p)
			if got != tt.want {
				t.Errorf("Levels(%v, %+v) = %+v, want %+v", tt.open, tt.p, got, tt.want)
			}
		})
	}
}

func TestLevelsDegenerateOpen(t *testing.T) {
	// A non-positive open is not rejected; levels are degenerate but
	// well-defined.
	got := Levels(0, DefaultParams())
	if got.Entry != 0 || got.Stoploss != 0 || got.Target != 0 {
		t.Errorf("Levels(0) = %+v, want all-zero levels", got)
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.EntryPct != 0.03 || p.StoplossPct != 0.01 || p.RiskReward != 1.0 {
		t.Errorf("DefaultParams() = %+v", p)
	}
}
