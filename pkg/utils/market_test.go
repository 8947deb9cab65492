package utils

import (
	"testing"
	"time"
)

func TestPrevTradingDate(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"midweek", "2025-11-20", "2025-11-19"},        // Thu -> Wed
		{"monday skips weekend", "2025-11-17", "2025-11-14"}, // Mon -> Fri
		{"sunday skips saturday", "2025-11-16", "2025-11-14"},
		{"tuesday", "2025-11-18", "2025-11-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := time.ParseInLocation(DateLayout, tt.base, IndiaLocation)
			if err != nil {
				t.Fatalf("parse base: %v", err)
			}
			if got := PrevTradingDate(base); got != tt.want {
				t.Errorf("PrevTradingDate(%s) = %s, want %s", tt.base, got, tt.want)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	sat, _ := time.ParseInLocation(DateLayout, "2025-11-15", IndiaLocation)
	wed, _ := time.ParseInLocation(DateLayout, "2025-11-19", IndiaLocation)

	if !IsWeekend(sat) {
		t.Error("saturday should be a weekend")
	}
	if IsWeekend(wed) {
		t.Error("wednesday should not be a weekend")
	}
}
