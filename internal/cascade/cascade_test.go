package cascade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/fallback"
	"github.com/healthpick/healthpick/internal/oracle"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/scoring"
	"github.com/healthpick/healthpick/internal/vitals"
)

// fakeRemote satisfies RemoteRanker with a canned response.
type fakeRemote struct {
	res   oracle.Result
	err   error
	calls int
}

func (f *fakeRemote) Rank(_ context.Context, _ []catalog.Item, _ vitals.Snapshot, _ prefs.Prefs) (oracle.Result, error) {
	f.calls++
	return f.res, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testStore(t *testing.T) *prefs.Store {
	t.Helper()
	dir := t.TempDir()
	return prefs.NewStore(prefs.StoreConfig{
		ModelPath:  filepath.Join(dir, "model.json"),
		BanditPath: filepath.Join(dir, "bandit.json"),
	})
}

func testCascade(t *testing.T, remote RemoteRanker) *Cascade {
	t.Helper()
	return New(
		DefaultConfig(),
		remote,
		fallback.NewScorer(fallback.DefaultConfig()),
		scoring.NewEngine(nil),
		testStore(t),
	)
}

func bigPool() []catalog.Item {
	return []catalog.Item{
		{Title: "Dal Khichdi", Tags: []string{"satvik"}},
		{Title: "Grilled Paneer Salad", Tags: []string{"high-protein-snack"}},
		{Title: "Oats Bowl"},
		{Title: "Sprout Chaat"},
		{Title: "Clear Soup", Tags: []string{"low-sodium"}},
		{Title: "Protein Shake", Tags: []string{"high-protein-snack"}},
		{Title: "Millet Upma"},
		{Title: "Quinoa Bowl"},
	}
}

func titles(items []catalog.Ranked) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.Item.Title)
	}
	return out
}

func TestRun_RemoteFailureDegradesToFallback(t *testing.T) {
	remote := &fakeRemote{err: &oracle.OracleError{Code: oracle.ErrCodeTimeout, Message: "deadline", Temporary: true}}
	c := testCascade(t, remote)

	out := c.Run(context.Background(), bigPool(), vitals.Snapshot{}, prefs.Prefs{})

	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, SourceFallback, out.Source)
	assert.GreaterOrEqual(t, len(out.Items), 5, "minimum floor holds even when the oracle is down")
	for _, r := range out.Items {
		assert.NotEmpty(t, r.Reason)
	}
}

func TestRun_MinimumFloorOnSmallPool(t *testing.T) {
	c := testCascade(t, nil)
	pool := bigPool()[:3]

	out := c.Run(context.Background(), pool, vitals.Snapshot{}, prefs.Prefs{})
	assert.Len(t, out.Items, 3, "floor is min(MinPicks, pool size), never invented items")
}

func TestRun_EmptyPool(t *testing.T) {
	c := testCascade(t, nil)

	out := c.Run(context.Background(), nil, vitals.Snapshot{}, prefs.Prefs{})
	assert.Equal(t, SourceEmpty, out.Source)
	assert.Empty(t, out.Items)
}

func TestRun_ResultsAreSubsetOfPool(t *testing.T) {
	remote := &fakeRemote{res: oracle.Result{
		Picks: []catalog.Item{
			{Title: "Oats Bowl"},
			{Title: "Clear Soup", Tags: []string{"low-sodium"}},
			{Title: "Dal Khichdi", Tags: []string{"satvik"}},
			{Title: "Sprout Chaat"},
			{Title: "Millet Upma"},
		},
	}}
	c := testCascade(t, remote)
	pool := bigPool()

	keys := make(map[string]struct{}, len(pool))
	for _, item := range pool {
		keys[item.Key()] = struct{}{}
	}

	out := c.Run(context.Background(), pool, vitals.Snapshot{}, prefs.Prefs{})
	assert.Equal(t, SourceRemote, out.Source)
	for _, r := range out.Items {
		_, ok := keys[r.Item.Key()]
		assert.True(t, ok, "item %q not in candidate pool", r.Item.Title)
	}
}

func TestRun_RemoteOrderPreserved(t *testing.T) {
	remote := &fakeRemote{res: oracle.Result{
		Picks: []catalog.Item{
			{Title: "Millet Upma"},
			{Title: "Oats Bowl"},
			{Title: "Quinoa Bowl"},
			{Title: "Sprout Chaat"},
			{Title: "Clear Soup"},
		},
	}}
	c := testCascade(t, remote)

	out := c.Run(context.Background(), bigPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.GreaterOrEqual(t, len(out.Items), 5)
	assert.Equal(t,
		[]string{"Millet Upma", "Oats Bowl", "Quinoa Bowl", "Sprout Chaat", "Clear Soup"},
		titles(out.Items)[:5])
}

func TestRun_PartialRemoteSeedsFallback(t *testing.T) {
	remote := &fakeRemote{res: oracle.Result{
		Picks: []catalog.Item{
			{Title: "Grilled Paneer Salad", Reason: "good recovery option"},
			{Title: "Clear Soup"},
		},
		Insufficient: true,
	}}
	c := testCascade(t, remote)

	out := c.Run(context.Background(), bigPool(), vitals.Snapshot{}, prefs.Prefs{})

	assert.Equal(t, SourceRemoteFallback, out.Source)
	require.GreaterOrEqual(t, len(out.Items), 5)

	// Partial picks survive at the front with their oracle reasons, then the
	// seeded fallback tops up without duplicating them.
	got := titles(out.Items)
	assert.Equal(t, "Grilled Paneer Salad", got[0])
	assert.Equal(t, "good recovery option", out.Items[0].Reason)
	assert.Equal(t, "Clear Soup", got[1])

	seen := make(map[string]int)
	for _, title := range got {
		seen[title]++
	}
	for title, n := range seen {
		assert.Equal(t, 1, n, "%q returned more than once", title)
	}
}

func TestRun_SameInputsSameOutput(t *testing.T) {
	c := testCascade(t, nil)
	pool := bigPool()
	snap := vitals.Snapshot{ActivityLevel: "low"}
	p := prefs.Prefs{Diet: "veg"}

	first := c.Run(context.Background(), pool, snap, p)
	second := c.Run(context.Background(), pool, snap, p)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Item.Title, second.Items[i].Item.Title)
		assert.Equal(t, first.Items[i].Score, second.Items[i].Score)
	}
}

func TestRun_CapsAtMaxReturned(t *testing.T) {
	c := New(
		Config{MinPicks: 2, MaxReturned: 4},
		nil,
		fallback.NewScorer(fallback.Config{MaxReturned: 100}),
		scoring.NewEngine(nil),
		testStore(t),
	)

	out := c.Run(context.Background(), bigPool(), vitals.Snapshot{}, prefs.Prefs{})
	assert.Len(t, out.Items, 4)
}

func TestFinish_MarksSupersededCyclesStale(t *testing.T) {
	c := testCascade(t, nil)

	newer := c.finish(Outcome{Cycle: 2, Source: SourceFallback})
	assert.False(t, newer.Stale)

	older := c.finish(Outcome{Cycle: 1, Source: SourceFallback})
	assert.True(t, older.Stale, "a cycle finishing after a newer one is stale")
}

func TestRun_BrokenStateBlobStillRanks(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	writeFile(t, modelPath, "{not json")

	store := prefs.NewStore(prefs.StoreConfig{
		ModelPath:  modelPath,
		BanditPath: filepath.Join(dir, "bandit.json"),
	})
	c := New(DefaultConfig(), nil, fallback.NewScorer(fallback.DefaultConfig()), scoring.NewEngine(nil), store)

	out := c.Run(context.Background(), bigPool(), vitals.Snapshot{}, prefs.Prefs{})
	assert.GreaterOrEqual(t, len(out.Items), 5, "corrupt preference state never blocks a cycle")
}
