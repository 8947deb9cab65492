package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/metrics"
	"breakout-monitor/internal/models"
)

// DefaultTimeout bounds every outbound request; expiry surfaces as a
// TransportError the caller retries for that cycle only.
const DefaultTimeout = 10 * time.Second

// Client implements SignalSource and CandleSource over the HTTP shard
// endpoints.
type Client struct {
	signalsURL string
	shardURLs  []string
	http       *http.Client
	log        zerolog.Logger
}

// NewClient creates a feed client. shardURLs are the candle shard base
// URLs; timeout <= 0 falls back to DefaultTimeout.
func NewClient(signalsURL string, shardURLs []string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		signalsURL: signalsURL,
		shardURLs:  shardURLs,
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Signals fetches the signal batch for a date ("" = today).
func (c *Client) Signals(ctx context.Context, date string) (SignalBatch, error) {
	u := c.signalsURL
	if date != "" {
		u += "?date=" + url.QueryEscape(date)
	}

	var batch SignalBatch
	if err := c.getJSON(ctx, "signals", u, &batch); err != nil {
		return SignalBatch{}, err
	}
	return batch, nil
}

// candleSeriesResponse is one shard's response carrying full series.
type candleSeriesResponse struct {
	Data map[string][]models.Candle `json:"data"`
}

// latestCandle is the trailing candle a shard reports per symbol on a
// latest=true sweep; only the close is consumed.
type latestCandle struct {
	Close float64 `json:"close"`
}

type latestResponse struct {
	Data map[string]latestCandle `json:"data"`
}

// FullDay fetches today's full candle series from every shard.
func (c *Client) FullDay(ctx context.Context) (map[string][]models.Candle, error) {
	return c.fetchSeries(ctx, "")
}

// ByDate fetches the full candle series for a past date.
func (c *Client) ByDate(ctx context.Context, date string) (map[string][]models.Candle, error) {
	return c.fetchSeries(ctx, "?date="+url.QueryEscape(date))
}

func (c *Client) fetchSeries(ctx context.Context, query string) (map[string][]models.Candle, error) {
	responses := make([]map[string][]models.Candle, len(c.shardURLs))

	err := c.eachShard(ctx, func(i int, shardURL string) error {
		var resp candleSeriesResponse
		if err := c.getJSON(ctx, "candles", shardURL+query, &resp); err != nil {
			return err
		}
		responses[i] = resp.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, conflicts := mergeBySymbol(responses)
	c.reportConflicts(conflicts)
	return merged, nil
}

// Latest fetches the last traded price for every symbol. Symbols whose
// trailing candle has no close are omitted.
func (c *Client) Latest(ctx context.Context) (map[string]float64, error) {
	responses := make([]map[string]latestCandle, len(c.shardURLs))

	err := c.eachShard(ctx, func(i int, shardURL string) error {
		var resp latestResponse
		if err := c.getJSON(ctx, "ltp", shardURL+"?latest=true", &resp); err != nil {
			return err
		}
		responses[i] = resp.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, conflicts := mergeBySymbol(responses)
	c.reportConflicts(conflicts)

	ltps := make(map[string]float64, len(merged))
	for symbol, candle := range merged {
		if candle.Close > 0 {
			ltps[symbol] = candle.Close
		}
	}
	return ltps, nil
}

// eachShard runs fn against every shard in parallel and returns the
// first error, if any.
func (c *Client) eachShard(ctx context.Context, fn func(i int, shardURL string) error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(c.shardURLs))

	for i, shardURL := range c.shardURLs {
		wg.Add(1)
		go func(i int, shardURL string) {
			defer wg.Done()
			errs[i] = fn(i, shardURL)
		}(i, shardURL)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// mergeBySymbol merges shard responses keyed by symbol. Shards are
// expected to partition the symbol universe disjointly; symbols seen
// in more than one response are reported as conflicts, with the last
// shard's value winning.
func mergeBySymbol[T any](responses []map[string]T) (map[string]T, []string) {
	merged := make(map[string]T)
	var conflicts []string

	for _, resp := range responses {
		for symbol, v := range resp {
			if _, seen := merged[symbol]; seen {
				conflicts = append(conflicts, symbol)
			}
			merged[symbol] = v
		}
	}

	sort.Strings(conflicts)
	return merged, conflicts
}

func (c *Client) reportConflicts(conflicts []string) {
	if len(conflicts) == 0 {
		return
	}
	metrics.ShardConflicts.Add(float64(len(conflicts)))
	c.log.Warn().
		Strs("symbols", conflicts).
		Msg("Shard partition conflict: symbols returned by multiple shards")
}

// getJSON issues a GET and decodes the JSON body into target. All
// failures are wrapped in a TransportError tagged with the source.
func (c *Client) getJSON(ctx context.Context, source, u string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.NewTransportError(source, u, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.FeedErrors.WithLabelValues(source).Inc()
		return apperrors.NewTransportError(source, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.FeedErrors.WithLabelValues(source).Inc()
		return apperrors.NewTransportError(source, u, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		metrics.FeedErrors.WithLabelValues(source).Inc()
		return apperrors.NewTransportError(source, u, apperrors.Wrap(err, "decoding response"))
	}
	return nil
}
