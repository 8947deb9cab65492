package store

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	price := 107.0
	states := map[string]models.TradeState{
		"RELIANCE": {Status: models.StatusExitedTarget, EntryTime: "09:25", ExitTime: "10:40", ExitPrice: &price},
		"TCS":      {Status: models.StatusPending},
	}

	if err := s.SaveSession(ctx, "2025-11-18", states); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	loaded, err := s.LoadSession(ctx, "2025-11-18")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d states, want 2", len(loaded))
	}
	rel := loaded["RELIANCE"]
	if rel.Status != models.StatusExitedTarget || rel.EntryTime != "09:25" {
		t.Errorf("RELIANCE = %+v", rel)
	}
	if rel.ExitPrice == nil || *rel.ExitPrice != 107 {
		t.Errorf("exit_price = %v, want 107", rel.ExitPrice)
	}
	if loaded["TCS"].ExitPrice != nil {
		t.Errorf("pending TCS has exit_price %v", *loaded["TCS"].ExitPrice)
	}
}

func TestSessionAbsent(t *testing.T) {
	s := newTestStore(t)

	states, err := s.LoadSession(context.Background(), "2025-11-18")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if states != nil {
		t.Errorf("absent session = %v, want nil", states)
	}
}

func TestSessionOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveSession(ctx, "2025-11-18", map[string]models.TradeState{
		"RELIANCE": {Status: models.StatusPending},
	})
	s.SaveSession(ctx, "2025-11-18", map[string]models.TradeState{
		"RELIANCE": {Status: models.StatusEntered, EntryTime: "09:25:03"},
	})

	loaded, err := s.LoadSession(ctx, "2025-11-18")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded["RELIANCE"].Status != models.StatusEntered {
		t.Errorf("status = %s after overwrite", loaded["RELIANCE"].Status)
	}
}

func testSnapshot(date string) *models.HistoricalSnapshot {
	return &models.HistoricalSnapshot{
		Version:   1,
		Date:      date,
		CreatedAt: time.Now().UTC(),
		Params:    models.AnalysisParams{EntryPct: 0.03, StoplossPct: 0.01, RiskReward: 1},
		Candles: map[string][]models.Candle{
			"RELIANCE": {
				{Timestamp: 1763437500000, Open: 100, High: 101, Low: 99, Close: 100.5},
				{Timestamp: 1763437560000, Open: math.NaN(), High: 102, Low: 100, Close: 101},
			},
		},
		Results: []models.HistoricalRow{
			{Symbol: "RELIANCE", Open: 100, Entry: 103, LTP: 100, Status: models.StatusPending, Date: date},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSnapshot(ctx, testSnapshot("2025-11-14")); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx, "2025-11-14")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded == nil {
		t.Fatal("snapshot absent after save")
	}
	if loaded.Date != "2025-11-14" || len(loaded.Results) != 1 {
		t.Errorf("snapshot = %+v", loaded)
	}

	candles := loaded.Candles["RELIANCE"]
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}
	// Null prices must survive the round trip as NaN.
	if !math.IsNaN(candles[1].Open) {
		t.Errorf("second candle open = %v, want NaN", candles[1].Open)
	}
}

func TestSnapshotAbsentAndCorrupt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loaded, err := s.LoadSnapshot(ctx, "2025-11-14")
	if err != nil || loaded != nil {
		t.Fatalf("absent snapshot = (%v, %v), want (nil, nil)", loaded, err)
	}

	// Corrupt blob is treated as absent, not an error.
	_, err = s.db.Exec(
		`INSERT INTO historical_snapshots (date, snapshot) VALUES (?, ?)`,
		"2025-11-13", `{"date":"mismatch"`)
	if err != nil {
		t.Fatalf("inserting corrupt blob: %v", err)
	}
	loaded, err = s.LoadSnapshot(ctx, "2025-11-13")
	if err != nil || loaded != nil {
		t.Errorf("corrupt snapshot = (%v, %v), want (nil, nil)", loaded, err)
	}

	// Date mismatch inside a valid blob is also treated as absent.
	_, err = s.db.Exec(
		`INSERT INTO historical_snapshots (date, snapshot) VALUES (?, ?)`,
		"2025-11-12", `{"version":1,"date":"2025-11-11","candles":{},"results":[]}`)
	if err != nil {
		t.Fatalf("inserting mismatched blob: %v", err)
	}
	loaded, err = s.LoadSnapshot(ctx, "2025-11-12")
	if err != nil || loaded != nil {
		t.Errorf("mismatched snapshot = (%v, %v), want (nil, nil)", loaded, err)
	}
}

func TestSnapshotSizeCeiling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snapshot := testSnapshot("2025-11-14")
	snapshot.Results = []models.HistoricalRow{
		{Symbol: strings.Repeat("X", MaxSnapshotBytes), Date: "2025-11-14"},
	}

	err := s.SaveSnapshot(ctx, snapshot)
	if !apperrors.Is(err, apperrors.ErrSnapshotTooLarge) {
		t.Fatalf("err = %v, want ErrSnapshotTooLarge", err)
	}

	loaded, err := s.LoadSnapshot(ctx, "2025-11-14")
	if err != nil || loaded != nil {
		t.Errorf("oversized snapshot was persisted: (%v, %v)", loaded, err)
	}
}

func TestListAndDeleteSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2025-11-12", "2025-11-14", "2025-11-13"} {
		if err := s.SaveSnapshot(ctx, testSnapshot(date)); err != nil {
			t.Fatalf("SaveSnapshot(%s): %v", date, err)
		}
	}

	dates, err := s.ListSnapshotDates(ctx)
	if err != nil {
		t.Fatalf("ListSnapshotDates: %v", err)
	}
	want := []string{"2025-11-14", "2025-11-13", "2025-11-12"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}

	if err := s.DeleteSnapshot(ctx, "2025-11-13"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	dates, _ = s.ListSnapshotDates(ctx)
	if len(dates) != 2 {
		t.Errorf("dates after delete = %v", dates)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveSession(ctx, "2025-11-18", map[string]models.TradeState{"RELIANCE": {Status: models.StatusPending}})
	s.SaveSnapshot(ctx, testSnapshot("2025-11-14"))

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	states, _ := s.LoadSession(ctx, "2025-11-18")
	if states != nil {
		t.Errorf("session survived reset: %v", states)
	}
	snapshot, _ := s.LoadSnapshot(ctx, "2025-11-14")
	if snapshot != nil {
		t.Errorf("snapshot survived reset: %+v", snapshot)
	}
}
