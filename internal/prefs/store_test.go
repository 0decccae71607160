package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(StoreConfig{
		ModelPath:  filepath.Join(dir, "model.json"),
		BanditPath: filepath.Join(dir, "bandit.json"),
	})
}

func TestApplyFeedback_WeightSteps(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.ApplyFeedback([]string{"satvik"}, 1))
	}

	model, err := s.Model()
	require.NoError(t, err)
	assert.Equal(t, 10.0, model["satvik"], "5 likes at +2 each should reach 10")
}

func TestApplyFeedback_ClampInvariant(t *testing.T) {
	s := newTestStore(t)

	// 25 likes would reach +50 unclamped.
	for i := 0; i < 25; i++ {
		require.NoError(t, s.ApplyFeedback([]string{"satvik"}, 1))
	}
	model, err := s.Model()
	require.NoError(t, err)
	assert.Equal(t, MaxWeight, model["satvik"])

	// Hammer the other direction too.
	for i := 0; i < 40; i++ {
		require.NoError(t, s.ApplyFeedback([]string{"satvik"}, -1))
	}
	model, err = s.Model()
	require.NoError(t, err)
	assert.Equal(t, MinWeight, model["satvik"])
}

func TestApplyFeedback_MixedSequenceStaysInBounds(t *testing.T) {
	s := newTestStore(t)

	deltas := []int{1, 1, -1, 1, -1, -1, -1, 1, 1, 1, -1, 1}
	for _, d := range deltas {
		require.NoError(t, s.ApplyFeedback([]string{"low-sodium", "light-clean"}, d))
		model, err := s.Model()
		require.NoError(t, err)
		for tag, w := range model {
			assert.GreaterOrEqual(t, w, MinWeight, "tag %s", tag)
			assert.LessOrEqual(t, w, MaxWeight, "tag %s", tag)
		}
	}
}

func TestApplyFeedback_RejectsInvalidDelta(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.ApplyFeedback([]string{"satvik"}, 0))
	assert.Error(t, s.ApplyFeedback([]string{"satvik"}, 2))
}

func TestBanditCounters_Monotonic(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordImpression([]string{"satvik", "light-clean"}))
	require.NoError(t, s.RecordImpression([]string{"satvik"}))
	require.NoError(t, s.ApplyFeedback([]string{"satvik"}, 1))
	require.NoError(t, s.ApplyFeedback([]string{"satvik"}, -1))

	bandit, err := s.Bandit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), bandit["satvik"].Shown)
	assert.Equal(t, int64(1), bandit["satvik"].Success, "only positive feedback counts")
	assert.Equal(t, int64(1), bandit["light-clean"].Shown)
	assert.Equal(t, int64(0), bandit["light-clean"].Success)
}

func TestRecordImpression_DedupesRepeatedTags(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordImpression([]string{"satvik", "satvik", "satvik"}))

	bandit, err := s.Bandit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), bandit["satvik"].Shown, "one impression counts once per tag")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := StoreConfig{
		ModelPath:  filepath.Join(dir, "model.json"),
		BanditPath: filepath.Join(dir, "bandit.json"),
	}

	s1 := NewStore(cfg)
	require.NoError(t, s1.ApplyFeedback([]string{"low-carb"}, 1))
	require.NoError(t, s1.RecordImpression([]string{"low-carb"}))

	s2 := NewStore(cfg)
	model, err := s2.Model()
	require.NoError(t, err)
	assert.Equal(t, 2.0, model["low-carb"])

	bandit, err := s2.Bandit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), bandit["low-carb"].Shown)
	assert.Equal(t, int64(1), bandit["low-carb"].Success)
}

func TestExploitScore_LaplaceSmoothing(t *testing.T) {
	b := Bandit{}
	assert.InDelta(t, 2.0, b.ExploitScore("unseen"), 1e-9, "unseen tags get the neutral prior")

	b["hot"] = TagStats{Shown: 8, Success: 9}
	assert.InDelta(t, 4.0, b.ExploitScore("hot"), 1e-9)

	b["cold"] = TagStats{Shown: 98, Success: 0}
	assert.InDelta(t, 0.04, b.ExploitScore("cold"), 1e-9)
}
