// Package metrics exposes Prometheus metrics the monitor updates
// during operation:
//   - breakout_poll_cycles_total{result}      – poll cycles (ok|skipped)
//   - breakout_transitions_total{status}      – lifecycle transitions by new status
//   - breakout_feed_errors_total{source}      – failed feed requests by source
//   - breakout_tracked_symbols                – symbols in the live session (gauge)
//   - breakout_snapshot_skips_total           – snapshot cache writes skipped for size
//   - breakout_shard_conflicts_total          – symbols returned by multiple shards
//
// Registered in init() and served at /metrics when a listen address is
// configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_poll_cycles_total",
			Help: "Live poll cycles by result",
		},
		[]string{"result"}, // ok|skipped
	)

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_transitions_total",
			Help: "Trade lifecycle transitions by new status",
		},
		[]string{"status"},
	)

	FeedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_feed_errors_total",
			Help: "Failed feed requests by source",
		},
		[]string{"source"}, // signals|candles|ltp
	)

	TrackedSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breakout_tracked_symbols",
			Help: "Symbols tracked by the live session",
		},
	)

	SnapshotSkips = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breakout_snapshot_skips_total",
			Help: "Historical snapshot cache writes skipped for size",
		},
	)

	ShardConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breakout_shard_conflicts_total",
			Help: "Symbols returned by more than one candle shard",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PollCycles,
		Transitions,
		FeedErrors,
		TrackedSymbols,
		SnapshotSkips,
		ShardConflicts,
	)
}

// Serve starts the metrics endpoint on addr in a background goroutine.
// Errors are logged, never fatal; the monitor runs fine without it.
func Serve(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}
