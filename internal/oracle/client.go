// Package oracle adapts the remote language-model ranking service. The
// service is an opaque scoring oracle: it receives the current vitals, the
// user's preference context and the full candidate pool, and returns a ranked
// subset. Everything it sends back is validated against the pool before it is
// trusted; the oracle cannot introduce items that are not actually available.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

// Config controls the remote ranking call.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`   // hard bound on the critical path
	MinPicks int           `yaml:"min_picks"` // below this the result is insufficient
	RPS      float64       `yaml:"rps"`
	Burst    int           `yaml:"burst"`
}

// DefaultConfig returns the production oracle settings: an 8s timeout and the
// 5-pick sufficiency floor.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8787",
		Timeout:  8 * time.Second,
		MinPicks: 5,
		RPS:      2,
		Burst:    4,
	}
}

// Result is a successful or partially successful ranking call. Insufficient
// marks a partial success: the oracle answered with fewer than MinPicks valid
// items, a soft condition the cascade recovers with a seeded fallback pass.
type Result struct {
	Picks        []catalog.Item // annotated copies of pool items, oracle order
	Insufficient bool
}

// Titles returns the pick titles, used as fallback seed titles.
func (r Result) Titles() []string {
	titles := make([]string, 0, len(r.Picks))
	for _, p := range r.Picks {
		titles = append(titles, p.Title)
	}
	return titles
}

// Client calls the remote ranking oracle with a bounded timeout, a token
// bucket rate limit and a circuit breaker so a flapping oracle stops being
// hammered.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewClient creates an oracle client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MinPicks <= 0 {
		cfg.MinPicks = DefaultConfig().MinPicks
	}
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultConfig().RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}

	settings := gobreaker.Settings{Name: "ranking-oracle"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// rankRequest is the outbound payload: one request carrying everything the
// oracle needs to rank the full pool.
type rankRequest struct {
	Vitals     vitals.Snapshot `json:"vitals"`
	Prefs      prefs.Prefs     `json:"prefs"`
	Candidates []catalog.Item  `json:"candidates"`
}

// Rank asks the oracle to rank the pool. It returns an *OracleError for every
// hard failure (timeout, transport, non-2xx, undecodable or empty response)
// and never panics or leaks raw transport errors past this boundary.
func (c *Client) Rank(ctx context.Context, pool []catalog.Item, snap vitals.Snapshot, p prefs.Prefs) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, newError(ErrCodeRateLimit, "rate limiter wait aborted", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(rankRequest{Vitals: snap, Prefs: p, Candidates: pool})
	if err != nil {
		return Result{}, newError(ErrCodeDecode, "failed to encode rank request", err)
	}

	start := time.Now()
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, newError(ErrCodeCircuitOpen, "oracle circuit breaker open", err)
		}
		var oerr *OracleError
		if errors.As(err, &oerr) {
			return Result{}, oerr
		}
		return Result{}, newError(ErrCodeHTTP, "oracle call failed", err)
	}

	picks, err := parsePicks(raw.([]byte))
	if err != nil {
		return Result{}, err
	}

	valid := validateAgainstPool(picks, pool)
	log.Debug().
		Int("returned", len(picks)).
		Int("valid", len(valid)).
		Dur("duration", duration).
		Msg("oracle ranking call completed")

	if len(valid) == 0 {
		return Result{}, newError(ErrCodeEmpty, "oracle returned no items matching the pool", nil)
	}

	return Result{
		Picks:        valid,
		Insufficient: len(valid) < c.cfg.MinPicks,
	}, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	url := c.cfg.BaseURL + "/recommend"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrCodeHTTP, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(ErrCodeTimeout, fmt.Sprintf("oracle call exceeded %s", c.cfg.Timeout), err)
		}
		return nil, newError(ErrCodeHTTP, "oracle request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(ErrCodeHTTP, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, newError(ErrCodeHTTP, "failed to read oracle response", err)
	}
	return data, nil
}
