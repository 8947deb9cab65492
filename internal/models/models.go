// Package models provides domain models for the breakout monitor.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TradeStatus represents the lifecycle state of a breakout candidate.
type TradeStatus string

const (
	StatusPending      TradeStatus = "PENDING"
	StatusEntered      TradeStatus = "ENTERED"
	StatusExitedTarget TradeStatus = "EXITED_TARGET"
	StatusExitedSL     TradeStatus = "EXITED_SL"
)

// Terminal returns true if no further transitions are possible.
func (s TradeStatus) Terminal() bool {
	return s == StatusExitedTarget || s == StatusExitedSL
}

// Rank returns the position of the status along the lifecycle.
// PENDING < ENTERED < EXITED_*. Both exits share the same rank.
func (s TradeStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusEntered:
		return 1
	case StatusExitedTarget, StatusExitedSL:
		return 2
	}
	return -1
}

// Signal represents one breakout candidate issued for a trade date.
// Signals are produced externally once per day and are immutable.
type Signal struct {
	Symbol    string  `json:"symbol"`
	Entry     float64 `json:"entry"`
	Target    float64 `json:"target"`
	Stoploss  float64 `json:"stoploss"`
	Qty       int64   `json:"qty"`
	TradeDate string  `json:"trade_date"`
}

// TradeState is the mutable lifecycle record for one symbol on one
// trade date. Times are formatted in IST; empty string means unset.
// ExitPrice is nil until an exit transition fires and is never
// overwritten afterwards.
type TradeState struct {
	Status    TradeStatus `json:"status"`
	EntryTime string      `json:"entry_time,omitempty"`
	ExitTime  string      `json:"exit_time,omitempty"`
	ExitPrice *float64    `json:"exit_price,omitempty"`
}

// NewTradeState returns a fresh PENDING state.
func NewTradeState() TradeState {
	return TradeState{Status: StatusPending}
}

// PriceLevels holds the derived trigger prices for one signal.
type PriceLevels struct {
	Open     float64 `json:"open"`
	Entry    float64 `json:"entry"`
	Stoploss float64 `json:"stoploss"`
	Target   float64 `json:"target"`
	Risk     float64 `json:"risk"`
	RR       float64 `json:"rr"`
}

const millisThreshold = 1e12

// EpochMillis normalizes an epoch timestamp to milliseconds. The feed
// mixes second and millisecond precision; anything below 10^12 is a
// second-precision value.
func EpochMillis(ts int64) int64 {
	if ts < millisThreshold {
		return ts * 1000
	}
	return ts
}

// Candle is one OHLC sample. The feed serializes candles as positional
// arrays [ts, open, high, low, close] where any price may be null;
// missing prices are represented as NaN. Timestamp is epoch
// milliseconds after normalization.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// HasOpen reports whether the candle carries a usable opening price.
func (c Candle) HasOpen() bool {
	return !math.IsNaN(c.Open)
}

// HasRange reports whether both high and low are present.
func (c Candle) HasRange() bool {
	return !math.IsNaN(c.High) && !math.IsNaN(c.Low)
}

// Time returns the candle timestamp in the given location.
func (c Candle) Time(loc *time.Location) time.Time {
	return time.UnixMilli(c.Timestamp).In(loc)
}

// UnmarshalJSON decodes the positional array form, normalizing the
// timestamp to milliseconds and mapping nulls to NaN.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var arr []*float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) < 5 {
		return fmt.Errorf("candle: expected at least 5 fields, got %d", len(arr))
	}
	if arr[0] == nil {
		return fmt.Errorf("candle: null timestamp")
	}
	c.Timestamp = EpochMillis(int64(*arr[0]))
	c.Open = deref(arr[1])
	c.High = deref(arr[2])
	c.Low = deref(arr[3])
	c.Close = deref(arr[4])
	return nil
}

// MarshalJSON encodes back to the positional array form, mapping NaN
// to null so snapshots round-trip losslessly.
func (c Candle) MarshalJSON() ([]byte, error) {
	arr := []interface{}{
		c.Timestamp,
		ref(c.Open),
		ref(c.High),
		ref(c.Low),
		ref(c.Close),
	}
	return json.Marshal(arr)
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func ref(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// LiveRow is one published row of the live view, refreshed every poll
// cycle for each symbol that had a price in the batch.
type LiveRow struct {
	Symbol         string      `json:"symbol"`
	Entry          float64     `json:"entry"`
	LTP            float64     `json:"ltp"`
	Status         TradeStatus `json:"status"`
	EntryTime      string      `json:"entry_time,omitempty"`
	ExitPrice      *float64    `json:"exit_price,omitempty"`
	ExitTime       string      `json:"exit_time,omitempty"`
	Qty            int64       `json:"qty"`
	CapitalUsed    float64     `json:"capital_used"`
	MarginRequired float64     `json:"margin_required"`
	PnlPct         float64     `json:"pnl_pct"`
	PnlCapital     float64     `json:"pnl_capital"`
	UpdatedAt      string      `json:"updated_at"`
}

// HistoricalRow is one result row of a historical batch analysis.
// LTP carries the effective exit price: exit price if terminal, entry
// if still ENTERED, open if still PENDING.
type HistoricalRow struct {
	Symbol    string      `json:"symbol"`
	Open      float64     `json:"open"`
	Entry     float64     `json:"entry"`
	Target    float64     `json:"target"`
	Stoploss  float64     `json:"stoploss"`
	LTP       float64     `json:"ltp"`
	Status    TradeStatus `json:"status"`
	EntryTime string      `json:"entry_time,omitempty"`
	ExitPrice *float64    `json:"exit_price,omitempty"`
	ExitTime  string      `json:"exit_time,omitempty"`
	PnlPct    float64     `json:"pnl_pct"`
	Date      string      `json:"date"`
}

// AnalysisParams are the breakout parameters a historical snapshot was
// computed with, stored for reproducibility.
type AnalysisParams struct {
	EntryPct    float64 `json:"entry_pct"`
	StoplossPct float64 `json:"stoploss_pct"`
	RiskReward  float64 `json:"rr"`
}

// HistoricalSnapshot bundles one analyzed date: the parameters, the
// raw candle series per symbol, and the derived rows. Immutable once
// written; re-running the analysis replaces it wholesale.
type HistoricalSnapshot struct {
	Version   int                 `json:"version"`
	Date      string              `json:"date"`
	CreatedAt time.Time           `json:"created_at"`
	Params    AnalysisParams      `json:"params"`
	Candles   map[string][]Candle `json:"candles"`
	Results   []HistoricalRow     `json:"results"`
}

// Valid reports whether a loaded snapshot matches the requested date
// and carries the fields a usable snapshot must have. Corrupt cache
// entries are treated as absent.
func (s *HistoricalSnapshot) Valid(date string) bool {
	return s != nil && s.Date == date && s.Results != nil && s.Candles != nil
}
