package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/models"
)

// SQLiteStore implements Store using SQLite. State blobs are stored as
// JSON so the schema survives model evolution.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Live session state, one row per trade date
	CREATE TABLE IF NOT EXISTS session_state (
		trade_date TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Historical analysis snapshots, one row per analyzed date
	CREATE TABLE IF NOT EXISTS historical_snapshots (
		date TEXT PRIMARY KEY,
		snapshot TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadSession returns the cached state mapping for a trade date.
func (s *SQLiteStore) LoadSession(ctx context.Context, tradeDate string) (map[string]models.TradeState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM session_state WHERE trade_date = ?`, tradeDate,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "loading session state")
	}

	var states map[string]models.TradeState
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		return nil, apperrors.Wrap(err, "decoding session state")
	}
	return states, nil
}

// SaveSession persists the full state mapping for a trade date.
func (s *SQLiteStore) SaveSession(ctx context.Context, tradeDate string, states map[string]models.TradeState) error {
	raw, err := json.Marshal(states)
	if err != nil {
		return apperrors.Wrap(err, "encoding session state")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_state (trade_date, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(trade_date) DO UPDATE SET
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP`,
		tradeDate, string(raw))
	if err != nil {
		return apperrors.Wrap(err, "saving session state")
	}
	return nil
}

// LoadSnapshot returns the snapshot for a date. Entries that fail to
// decode or do not match the requested date are treated as absent.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, date string) (*models.HistoricalSnapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM historical_snapshots WHERE date = ?`, date,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "loading snapshot")
	}

	var snapshot models.HistoricalSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, nil
	}
	if !snapshot.Valid(date) {
		return nil, nil
	}
	return &snapshot, nil
}

// SaveSnapshot persists a snapshot unless it exceeds the size ceiling.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot *models.HistoricalSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.Wrap(err, "encoding snapshot")
	}
	if len(raw) > MaxSnapshotBytes {
		return apperrors.ErrSnapshotTooLarge
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO historical_snapshots (date, snapshot, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			snapshot = excluded.snapshot,
			created_at = CURRENT_TIMESTAMP`,
		snapshot.Date, string(raw))
	if err != nil {
		return apperrors.Wrap(err, "saving snapshot")
	}
	return nil
}

// ListSnapshotDates returns cached snapshot dates, most recent first.
func (s *SQLiteStore) ListSnapshotDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM historical_snapshots ORDER BY date DESC`)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing snapshots")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, apperrors.Wrap(err, "scanning snapshot date")
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// DeleteSnapshot removes the snapshot for a date.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM historical_snapshots WHERE date = ?`, date)
	if err != nil {
		return apperrors.Wrap(err, "deleting snapshot")
	}
	return nil
}

// ClearAll discards all persisted session and historical state.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM session_state;
		DELETE FROM historical_snapshots;`)
	if err != nil {
		return apperrors.Wrap(err, "clearing store")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
