package vitals

import (
	"context"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FeedConfig controls the polled vitals feed.
type FeedConfig struct {
	Path             string        `yaml:"path"`              // wearable stream file
	PollInterval     time.Duration `yaml:"poll_interval"`     // full re-read from source
	SimulateInterval time.Duration `yaml:"simulate_interval"` // drift between reads, 0 disables
}

// DefaultFeedConfig returns the demo feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Path:             "data/wearable_stream.json",
		PollInterval:     15 * time.Minute,
		SimulateInterval: 30 * time.Second,
	}
}

// Feed holds the most recent vitals snapshot and refreshes it by polling the
// wearable source. Between polls it can apply bounded random drift so demo
// vitals do not sit still. Subscribers receive every replaced snapshot.
type Feed struct {
	cfg FeedConfig
	rng *rand.Rand

	mu   sync.RWMutex
	snap Snapshot

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// NewFeed creates a feed. rng drives the simulated drift; pass nil to use an
// unseeded source, or a seeded one for deterministic tests.
func NewFeed(cfg FeedConfig, rng *rand.Rand) *Feed {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Feed{
		cfg:  cfg,
		rng:  rng,
		subs: make(map[chan Snapshot]struct{}),
	}
}

// Snapshot returns the current reading.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap
}

// Subscribe registers for snapshot updates. The returned cancel func must be
// called to release the subscription.
func (f *Feed) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)
	f.subMu.Lock()
	f.subs[ch] = struct{}{}
	f.subMu.Unlock()

	cancel := func() {
		f.subMu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.subMu.Unlock()
	}
	return ch, cancel
}

// Refresh re-reads the wearable source and replaces the snapshot.
func (f *Feed) Refresh() error {
	data, err := os.ReadFile(f.cfg.Path)
	if err != nil {
		return err
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return err
	}
	f.replace(snap)
	return nil
}

// Start runs the poll and drift loops until ctx is cancelled. The initial
// read happens synchronously; a read failure leaves the prior snapshot in
// place and is logged, never fatal.
func (f *Feed) Start(ctx context.Context) {
	if err := f.Refresh(); err != nil {
		log.Warn().Err(err).Str("path", f.cfg.Path).Msg("initial vitals read failed")
	}

	go f.loop(ctx, f.cfg.PollInterval, func() {
		if err := f.Refresh(); err != nil {
			log.Warn().Err(err).Msg("vitals refresh failed, keeping previous snapshot")
		}
	})

	if f.cfg.SimulateInterval > 0 {
		go f.loop(ctx, f.cfg.SimulateInterval, f.Drift)
	}
}

func (f *Feed) loop(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Drift applies one bounded random perturbation to the current snapshot:
// heart rate stays in [50,120], calories burned non-negative, systolic in
// [90,160], diastolic in [60,100], and the activity level is re-rolled.
func (f *Feed) Drift() {
	f.mu.RLock()
	snap := f.snap
	f.mu.RUnlock()

	if snap.HeartRate != nil {
		hr := clampRange(*snap.HeartRate+float64(f.rng.Intn(9)-4), 50, 120)
		snap.HeartRate = &hr
	}
	if snap.CaloriesBurned != nil {
		cb := *snap.CaloriesBurned + float64(f.rng.Intn(101)-50)
		if cb < 0 {
			cb = 0
		}
		snap.CaloriesBurned = &cb
	}
	if snap.BPSystolic != nil {
		sys := clampRange(*snap.BPSystolic+float64(f.rng.Intn(7)-3), 90, 160)
		snap.BPSystolic = &sys
	}
	if snap.BPDiastolic != nil {
		dia := clampRange(*snap.BPDiastolic+float64(f.rng.Intn(5)-2), 60, 100)
		snap.BPDiastolic = &dia
	}
	if snap.ActivityLevel != "" {
		levels := []string{"low", "moderate", "high"}
		snap.ActivityLevel = levels[f.rng.Intn(len(levels))]
	}
	snap.Timestamp = time.Now()

	f.replace(snap)
}

func (f *Feed) replace(snap Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()

	f.subMu.Lock()
	for ch := range f.subs {
		select {
		case ch <- snap:
		default: // slow subscriber, drop rather than block the feed
		}
	}
	f.subMu.Unlock()
}

func clampRange(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
