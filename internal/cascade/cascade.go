// Package cascade orchestrates the recommendation ranking chain:
// RemoteAttempt → (Success | PartialSuccess | Failure) → LocalFallback →
// MinimumFill → Done. Whatever the remote oracle does, a non-empty candidate
// pool always yields at least min(MinPicks, |pool|) recommendations.
package cascade

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/fallback"
	"github.com/healthpick/healthpick/internal/oracle"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/scoring"
	"github.com/healthpick/healthpick/internal/vitals"
)

// Source labels the strategy that produced a cycle's result.
const (
	SourceRemote         = "remote"
	SourceRemoteFallback = "remote_fallback"
	SourceFallback       = "fallback"
	SourceEmpty          = "empty"
)

// RemoteRanker is the remote oracle boundary, satisfied by *oracle.Client and
// by test fakes.
type RemoteRanker interface {
	Rank(ctx context.Context, pool []catalog.Item, snap vitals.Snapshot, p prefs.Prefs) (oracle.Result, error)
}

// Config controls the cascade floor and ceiling.
type Config struct {
	MinPicks    int `yaml:"min_picks"`
	MaxReturned int `yaml:"max_returned"`
}

// DefaultConfig returns the production floor of 5 and ceiling of 12.
func DefaultConfig() Config {
	return Config{MinPicks: 5, MaxReturned: 12}
}

// Outcome is a completed ranking cycle. Stale marks a cycle that finished
// after a newer cycle already completed; callers should discard stale
// outcomes rather than overwrite fresher ones.
type Outcome struct {
	Cycle  uint64           `json:"cycle"`
	Source string           `json:"source"`
	Stale  bool             `json:"stale,omitempty"`
	Items  []catalog.Ranked `json:"items"`
}

// Cascade runs ranking cycles. Cycles are tagged with a monotonically
// increasing sequence number; concurrent cycles are not serialized against
// each other, only ordered by completion.
type Cascade struct {
	cfg    Config
	remote RemoteRanker // nil means remote ranking is disabled
	fb     *fallback.Scorer
	engine *scoring.Engine
	store  *prefs.Store

	seq       atomic.Uint64
	completed atomic.Uint64
}

// New creates a cascade. remote may be nil to skip the remote attempt, which
// degrades every cycle straight to the local fallback path.
func New(cfg Config, remote RemoteRanker, fb *fallback.Scorer, engine *scoring.Engine, store *prefs.Store) *Cascade {
	if cfg.MinPicks <= 0 {
		cfg.MinPicks = DefaultConfig().MinPicks
	}
	if cfg.MaxReturned < cfg.MinPicks {
		cfg.MaxReturned = DefaultConfig().MaxReturned
	}
	return &Cascade{
		cfg:    cfg,
		remote: remote,
		fb:     fb,
		engine: engine,
		store:  store,
	}
}

// Run executes one full ranking cycle over the pool. It never returns an
// error: every remote failure degrades to the local fallback, and the only
// empty result is an empty candidate pool.
func (c *Cascade) Run(ctx context.Context, pool []catalog.Item, snap vitals.Snapshot, p prefs.Prefs) Outcome {
	cycle := c.seq.Add(1)

	if len(pool) == 0 {
		runsTotal.WithLabelValues(SourceEmpty).Inc()
		return c.finish(Outcome{Cycle: cycle, Source: SourceEmpty})
	}

	pool = catalog.Filter(pool, p.Diet, p.Satvik)
	model, bandit := c.loadState()

	items, source := c.rank(ctx, pool, snap, p, model, bandit)
	items = c.minimumFill(items, pool, snap, model, bandit)

	if len(items) > c.cfg.MaxReturned {
		items = items[:c.cfg.MaxReturned]
	}

	runsTotal.WithLabelValues(source).Inc()
	log.Info().
		Uint64("cycle", cycle).
		Str("source", source).
		Int("items", len(items)).
		Msg("ranking cycle complete")

	return c.finish(Outcome{Cycle: cycle, Source: source, Items: items})
}

// rank walks RemoteAttempt and LocalFallback and returns the pre-fill result
// list with its source label.
func (c *Cascade) rank(ctx context.Context, pool []catalog.Item, snap vitals.Snapshot, p prefs.Prefs, model prefs.Model, bandit prefs.Bandit) ([]catalog.Ranked, string) {
	if c.remote == nil {
		return c.fb.Rank(pool, p, snap, nil), SourceFallback
	}

	start := time.Now()
	res, err := c.remote.Rank(ctx, pool, snap, p)
	oracleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// Transport failures and malformed payloads are recovered identically:
		// degrade to the local heuristic, never surface the error upward.
		log.Warn().Err(err).Msg("remote ranking failed, using local fallback")
		return c.fb.Rank(pool, p, snap, nil), SourceFallback
	}

	if res.Insufficient {
		log.Debug().Int("picks", len(res.Picks)).Msg("remote result insufficient, seeding fallback")
		merged := c.annotate(res.Picks, snap, model, bandit)
		for _, r := range c.fb.Rank(pool, p, snap, res.Titles()) {
			merged = appendUnique(merged, r)
		}
		return merged, SourceRemoteFallback
	}

	return c.annotate(res.Picks, snap, model, bandit), SourceRemote
}

// annotate scores oracle picks through the engine, preserving oracle order,
// and fills in reason text for picks the oracle left unexplained.
func (c *Cascade) annotate(picks []catalog.Item, snap vitals.Snapshot, model prefs.Model, bandit prefs.Bandit) []catalog.Ranked {
	out := make([]catalog.Ranked, 0, len(picks))
	for _, item := range picks {
		res := c.engine.Score(item, snap, model, bandit)
		reason := item.Reason
		if reason == "" {
			reason = scoring.ComposeReason(item, snap, res.Rules)
		}
		out = append(out, catalog.Ranked{Item: item, Score: res.Score, Reason: reason})
	}
	return out
}

// minimumFill appends pool items in engine score order until the result
// reaches min(MinPicks, |pool|). This step cannot fail; it is the
// guarantee-of-non-emptiness safety net.
func (c *Cascade) minimumFill(items []catalog.Ranked, pool []catalog.Item, snap vitals.Snapshot, model prefs.Model, bandit prefs.Bandit) []catalog.Ranked {
	floor := c.cfg.MinPicks
	if len(pool) < floor {
		floor = len(pool)
	}
	if len(items) >= floor {
		return items
	}

	minimumFillTotal.Inc()
	for _, r := range c.engine.Rank(pool, snap, model, bandit) {
		if len(items) >= floor {
			break
		}
		r.Reason = "included to reach minimum recommendations"
		items = appendUnique(items, r)
	}
	return items
}

// loadState reads preference state, degrading to empty state on error so a
// broken blob never blocks a ranking cycle.
func (c *Cascade) loadState() (prefs.Model, prefs.Bandit) {
	model, err := c.store.Model()
	if err != nil {
		log.Warn().Err(err).Msg("preference model unavailable, scoring without it")
		model = prefs.Model{}
	}
	bandit, err := c.store.Bandit()
	if err != nil {
		log.Warn().Err(err).Msg("bandit stats unavailable, scoring without them")
		bandit = prefs.Bandit{}
	}
	return model, bandit
}

// finish records completion order and flags outcomes superseded by a newer
// completed cycle.
func (c *Cascade) finish(out Outcome) Outcome {
	for {
		latest := c.completed.Load()
		if out.Cycle <= latest {
			out.Stale = true
			staleCyclesTotal.Inc()
			return out
		}
		if c.completed.CompareAndSwap(latest, out.Cycle) {
			return out
		}
	}
}

func appendUnique(items []catalog.Ranked, r catalog.Ranked) []catalog.Ranked {
	for _, existing := range items {
		if existing.Item.Key() == r.Item.Key() {
			return items
		}
	}
	return append(items, r)
}
