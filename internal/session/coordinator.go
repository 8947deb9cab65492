// Package session coordinates the live trading day: daily signal
// acquisition with fallback, one-time state seeding via replay, and
// the recurring poll loop driving the live tick engine.
package session

import (
	"context"
	"fmt"
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

// DefaultPollInterval is the time between live ticks.
const DefaultPollInterval = 3 * time.Second

// DefaultMarginFactor divides capital used into margin required for
// the published view (intraday leverage).
const DefaultMarginFactor = 5.0

// Config holds coordinator tunables.
type Config struct {
	PollInterval time.Duration
	MarginFactor float64
	// Clock returns the current IST time; overridable in tests.
	Clock func() time.Time
}

// Publisher receives the per-symbol view after each poll cycle.
// Symbols with no price this cycle are excluded; they reappear once
// price resumes.
type Publisher func(rows []models.LiveRow)

// Coordinator owns the live session: the fixed trade date, the
// signals, and the per-symbol trade state. All mutation happens on the
// single poll timeline, so no locking is needed.
type Coordinator struct {
	cfg     Config
	signals feed.SignalSource
	candles feed.CandleSource
	store   store.Store
	publish Publisher
	retry   utils.RetryConfig
	log     zerolog.Logger

	initialized bool
	tradeDate   string
	sigs        []models.Signal
	states      map[string]models.TradeState
}

// New creates a coordinator. publish may be nil.
func New(cfg Config, signals feed.SignalSource, candles feed.CandleSource, st store.Store, publish Publisher, log zerolog.Logger) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MarginFactor <= 0 {
		cfg.MarginFactor = DefaultMarginFactor
	}
	if cfg.Clock == nil {
		cfg.Clock = utils.NowIST
	}
	return &Coordinator{
		cfg:     cfg,
		signals: signals,
		candles: candles,
		store:   st,
		publish: publish,
		retry:   utils.DefaultRetryConfig(),
		log:     log.With().Str("component", "session").Logger(),
	}
}

// Initialized reports whether a trade date has been fixed.
func (c *Coordinator) Initialized() bool {
	return c.initialized
}

// TradeDate returns the fixed trade date, empty until initialized.
func (c *Coordinator) TradeDate() string {
	return c.tradeDate
}

// States returns the current per-symbol state mapping.
func (c *Coordinator) States() map[string]models.TradeState {
	return c.states
}

// Init fixes the trade date and seeds per-symbol state, once per
// session. Today's signals are requested first; if none exist, the
// previous trading date (stepping over weekends) is tried once. When
// neither date has signals, the coordinator stays uninitialized and
// ErrNoSignalsFound is returned.
//
// Cached state for the trade date is adopted directly; otherwise the
// day's full candle series is replayed per symbol and the result
// persisted, so a restarted process reaches the same state a
// continuously running one would.
func (c *Coordinator) Init(ctx context.Context) error {
	batch, err := c.fetchSignals(ctx, "")
	if err != nil {
		return err
	}

	if !batch.Found {
		fallback := utils.PrevTradingDate(c.cfg.Clock())
		c.log.Info().Str("date", fallback).Msg("No signals for today, trying previous trading day")

		batch, err = c.fetchSignals(ctx, fallback)
		if err != nil {
			return err
		}
		if !batch.Found {
			return apperrors.ErrNoSignalsFound
		}
	}

	c.tradeDate = batch.TradeDate
	c.sigs = batch.Data

	cached, err := c.store.LoadSession(ctx, c.tradeDate)
	if err != nil {
		return err
	}
	if cached != nil {
		c.states = cached
		c.initialized = true
		metrics.TrackedSymbols.Set(float64(len(c.sigs)))
		c.log.Info().Str("trade_date", c.tradeDate).Int("symbols", len(c.sigs)).
			Msg("Adopted cached session state")
		return nil
	}

	allCandles, err := utils.RetryWithResult(ctx, c.retry, func() (map[string][]models.Candle, error) {
		return c.candles.FullDay(ctx)
	})
	if err != nil {
		return err
	}

	states := make(map[string]models.TradeState, len(c.sigs))
	for _, sig := range c.sigs {
		states[sig.Symbol] = engine.Replay(sig, allCandles[sig.Symbol])
	}

	if err := c.store.SaveSession(ctx, c.tradeDate, states); err != nil {
		return err
	}

	c.states = states
	c.initialized = true
	metrics.TrackedSymbols.Set(float64(len(c.sigs)))
	c.log.Info().Str("trade_date", c.tradeDate).Int("symbols", len(c.sigs)).
		Msg("Seeded session state from replay")
	return nil
}

// Run drives the poll loop until ctx is cancelled. A failed cycle is
// logged and skipped; state stays at its last known value and the loop
// keeps going.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.initialized {
		return fmt.Errorf("session not initialized")
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	c.log.Info().Dur("interval", c.cfg.PollInterval).Msg("Polling started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Polling stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.tick(ctx); err != nil {
				metrics.PollCycles.WithLabelValues("skipped").Inc()
				c.log.Warn().Err(err).Msg("Poll cycle skipped")
				continue
			}
			metrics.PollCycles.WithLabelValues("ok").Inc()
		}
	}
}

// Reset discards all persisted session and historical state, returns
// the coordinator to uninitialized, and re-runs initialization. For
// operator-triggered recovery only.
func (c *Coordinator) Reset(ctx context.Context) error {
	if err := c.store.ClearAll(ctx); err != nil {
		return err
	}

	c.initialized = false
	c.tradeDate = ""
	c.sigs = nil
	c.states = nil
	metrics.TrackedSymbols.Set(0)
	c.log.Info().Msg("Session state cleared")

	return c.Init(ctx)
}

// tick runs one poll cycle: refresh the trade date's signals, fetch
// the batched last prices, advance each priced symbol's state, persist
// the full mapping, and publish the view.
func (c *Coordinator) tick(ctx context.Context) error {
	batch, err := c.fetchSignals(ctx, c.tradeDate)
	if err != nil {
		return err
	}
	if batch.Found && len(batch.Data) > 0 {
		c.sigs = batch.Data
	}

	ltps, err := utils.RetryWithResult(ctx, c.retry, func() (map[string]float64, error) {
		return c.candles.Latest(ctx)
	})
	if err != nil {
		return err
	}

	now := c.cfg.Clock()
	rows := make([]models.LiveRow, 0, len(c.sigs))

	for _, sig := range c.sigs {
		ltp, ok := ltps[sig.Symbol]
		if !ok {
			// No price this cycle: state untouched, row withheld.
			continue
		}

		prev, tracked := c.states[sig.Symbol]
		if !tracked {
			prev = models.NewTradeState()
		}

		next := engine.Tick(sig, ltp, prev, now)
		if next.Status != prev.Status {
			metrics.Transitions.WithLabelValues(string(next.Status)).Inc()
			c.log.Info().Str("symbol", sig.Symbol).
				Str("from", string(prev.Status)).Str("to", string(next.Status)).
				Float64("ltp", ltp).Msg("Trade state transition")
		}
		c.states[sig.Symbol] = next

		rows = append(rows, buildLiveRow(sig, ltp, next, now, c.cfg.MarginFactor))
	}

	if err := c.store.SaveSession(ctx, c.tradeDate, c.states); err != nil {
		return err
	}
	metrics.TrackedSymbols.Set(float64(len(c.sigs)))

	if c.publish != nil {
		c.publish(rows)
	}
	return nil
}

// fetchSignals retrieves signals for a date with retry; date "" means
// today.
func (c *Coordinator) fetchSignals(ctx context.Context, date string) (feed.SignalBatch, error) {
	return utils.RetryWithResult(ctx, c.retry, func() (feed.SignalBatch, error) {
		return c.signals.Signals(ctx, date)
	})
}

// buildLiveRow derives the published view for one symbol. The
// effective price is the exit price once exited, the live price
// otherwise.
func buildLiveRow(sig models.Signal, ltp float64, state models.TradeState, now time.Time, marginFactor float64) models.LiveRow {
	effective := ltp
	if state.ExitPrice != nil {
		effective = *state.ExitPrice
	}

	pnl := engine.Round2(effective - sig.Entry)
	var pnlPct float64
	if sig.Entry != 0 {
		pnlPct = engine.Round2(pnl / sig.Entry * 100)
	}
	capital := engine.Round2(sig.Entry * float64(sig.Qty))

	return models.LiveRow{
		Symbol:         sig.Symbol,
		Entry:          sig.Entry,
		LTP:            ltp,
		Status:         state.Status,
		EntryTime:      state.EntryTime,
		ExitPrice:      state.ExitPrice,
		ExitTime:       state.ExitTime,
		Qty:            sig.Qty,
		CapitalUsed:    capital,
		MarginRequired: engine.Round2(capital / marginFactor),
		PnlPct:         pnlPct,
		PnlCapital:     engine.Round2(pnl * float64(sig.Qty)),
		UpdatedAt:      now.Format("15:04:05"),
	}
}
