// Package historical runs the replay state machine retroactively over
// an arbitrary past date for every symbol, producing a cached report.
package historical

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"breakout-monitor/internal/engine"
	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/feed"
	"breakout-monitor/internal/metrics"
	"breakout-monitor/internal/models"
	"breakout-monitor/internal/store"
	"breakout-monitor/pkg/utils"
)

const snapshotVersion = 1

// Analyzer orchestrates level derivation and replay across all symbols
// for one past date. It never touches live session state.
type Analyzer struct {
	candles feed.CandleSource
	store   store.Store
	params  engine.Params
	retry   utils.RetryConfig
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer with the given breakout parameters.
func NewAnalyzer(candles feed.CandleSource, st store.Store, params engine.Params, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		candles: candles,
		store:   st,
		params:  params,
		retry:   utils.DefaultRetryConfig(),
		log:     log.With().Str("component", "historical").Logger(),
	}
}

// Run analyzes one past date. A valid cached snapshot is returned
// directly unless refresh is set; cached reports the cache hit.
//
// Returns ErrNoDataForDate when every symbol's series is empty (market
// holiday or bad date); nothing is cached in that case.
func (a *Analyzer) Run(ctx context.Context, date string, refresh bool) (snapshot *models.HistoricalSnapshot, cached bool, err error) {
	if !refresh {
		cachedSnap, err := a.store.LoadSnapshot(ctx, date)
		if err != nil {
			return nil, false, err
		}
		if cachedSnap != nil {
			a.log.Debug().Str("date", date).Msg("Using cached snapshot")
			return cachedSnap, true, nil
		}
	}

	allCandles, err := utils.RetryWithResult(ctx, a.retry, func() (map[string][]models.Candle, error) {
		return a.candles.ByDate(ctx, date)
	})
	if err != nil {
		return nil, false, err
	}

	empty := true
	for _, series := range allCandles {
		if len(series) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return nil, false, apperrors.ErrNoDataForDate
	}

	symbols := make([]string, 0, len(allCandles))
	for symbol := range allCandles {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	rows := make([]models.HistoricalRow, 0, len(symbols))
	for _, symbol := range symbols {
		res, ok := engine.ReplayFromOpen(allCandles[symbol], a.params)
		if !ok {
			// Insufficient data for this symbol; it is dropped from
			// the report, not errored.
			continue
		}
		rows = append(rows, buildRow(symbol, date, res))
	}

	snapshot = &models.HistoricalSnapshot{
		Version:   snapshotVersion,
		Date:      date,
		CreatedAt: time.Now().UTC(),
		Params: models.AnalysisParams{
			EntryPct:    a.params.EntryPct,
			StoplossPct: a.params.StoplossPct,
			RiskReward:  a.params.RiskReward,
		},
		Candles: allCandles,
		Results: rows,
	}

	if err := a.store.SaveSnapshot(ctx, snapshot); err != nil {
		if apperrors.Is(err, apperrors.ErrSnapshotTooLarge) {
			metrics.SnapshotSkips.Inc()
			a.log.Warn().Str("date", date).Msg("Snapshot too large for cache, skipping save")
		} else {
			a.log.Warn().Err(err).Str("date", date).Msg("Failed to cache snapshot")
		}
	}

	return snapshot, false, nil
}

// List returns the dates with cached snapshots, most recent first.
func (a *Analyzer) List(ctx context.Context) ([]string, error) {
	return a.store.ListSnapshotDates(ctx)
}

// Clear removes the cached snapshot for a date, or every cached
// snapshot when date is empty. Returns the number removed.
func (a *Analyzer) Clear(ctx context.Context, date string) (int, error) {
	if date != "" {
		if err := a.store.DeleteSnapshot(ctx, date); err != nil {
			return 0, err
		}
		return 1, nil
	}

	dates, err := a.store.ListSnapshotDates(ctx)
	if err != nil {
		return 0, err
	}
	for i, d := range dates {
		if err := a.store.DeleteSnapshot(ctx, d); err != nil {
			return i, err
		}
	}
	return len(dates), nil
}

// buildRow derives the report row for one replayed symbol. The
// effective price is the exit price when terminal, the entry while
// ENTERED, and the open while still PENDING.
func buildRow(symbol, date string, res engine.ReplayResult) models.HistoricalRow {
	effective := res.Levels.Open
	switch {
	case res.State.ExitPrice != nil:
		effective = *res.State.ExitPrice
	case res.State.Status == models.StatusEntered:
		effective = res.Levels.Entry
	}

	var pnlPct float64
	if res.Levels.Entry != 0 {
		pnlPct = engine.Round2((effective - res.Levels.Entry) / res.Levels.Entry * 100)
	}

	return models.HistoricalRow{
		Symbol:    symbol,
		Open:      res.Levels.Open,
		Entry:     res.Levels.Entry,
		Target:    res.Levels.Target,
		Stoploss:  res.Levels.Stoploss,
		LTP:       effective,
		Status:    res.State.Status,
		EntryTime: res.State.EntryTime,
		ExitPrice: res.State.ExitPrice,
		ExitTime:  res.State.ExitTime,
		PnlPct:    pnlPct,
		Date:      date,
	}
}
