// Package store provides the key-value persistence substrate for
// session state and historical snapshots.
package store

import (
	"context"

	"breakout-monitor/internal/models"
)

// MaxSnapshotBytes is the serialized-size ceiling for a historical
// snapshot. Larger snapshots are not persisted; the computed result is
// still returned to the caller.
const MaxSnapshotBytes = 4_500_000

// Store persists per-trade-date session state and per-date historical
// snapshots. Absent entries are (nil, nil); last write wins.
type Store interface {
	// LoadSession returns the cached symbol->state mapping for a trade
	// date, or nil when none exists.
	LoadSession(ctx context.Context, tradeDate string) (map[string]models.TradeState, error)
	// SaveSession persists the full symbol->state mapping for a trade
	// date, replacing any previous mapping.
	SaveSession(ctx context.Context, tradeDate string, states map[string]models.TradeState) error

	// LoadSnapshot returns the snapshot for a date, or nil when none
	// exists. Corrupt or mismatched entries are treated as absent.
	LoadSnapshot(ctx context.Context, date string) (*models.HistoricalSnapshot, error)
	// SaveSnapshot persists a snapshot, replacing any previous one for
	// its date. Returns ErrSnapshotTooLarge without writing when the
	// serialized form exceeds MaxSnapshotBytes.
	SaveSnapshot(ctx context.Context, snapshot *models.HistoricalSnapshot) error
	// ListSnapshotDates returns the dates with cached snapshots, most
	// recent first.
	ListSnapshotDates(ctx context.Context) ([]string, error)
	// DeleteSnapshot removes the snapshot for a date, if present.
	DeleteSnapshot(ctx context.Context, date string) error

	// ClearAll discards all persisted session and historical state.
	// Used for operator-triggered reset only.
	ClearAll(ctx context.Context) error

	Close() error
}
