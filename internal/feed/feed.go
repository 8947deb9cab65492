// Package feed retrieves signals and candle data from the remote shard
// endpoints. The candle universe is partitioned across N shards that
// are queried in parallel and merged by symbol.
package feed

import (
	"context"

	"breakout-monitor/internal/models"
)

// SignalBatch is the signal endpoint's response for one trade date.
type SignalBatch struct {
	Found     bool            `json:"found"`
	TradeDate string          `json:"trade_date"`
	Data      []models.Signal `json:"data"`
}

// SignalSource produces the day's breakout signals.
type SignalSource interface {
	// Signals fetches signals for the given yyyy-mm-dd date, or for
	// today when date is empty.
	Signals(ctx context.Context, date string) (SignalBatch, error)
}

// CandleSource retrieves candle data from the shard endpoints.
type CandleSource interface {
	// FullDay fetches the current day's full-resolution candle series
	// for every symbol, used for seeding live state.
	FullDay(ctx context.Context) (map[string][]models.Candle, error)
	// ByDate fetches the full candle series for an arbitrary past
	// date, used for historical analysis.
	ByDate(ctx context.Context, date string) (map[string][]models.Candle, error)
	// Latest fetches the last traded price for every symbol in one
	// batched sweep, used by the poll loop.
	Latest(ctx context.Context) (map[string]float64, error)
}
