package scoring

import (
	"math/rand"
	"sort"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

// Vitals rule bonuses. Rules are independent and additive.
const (
	recoveryBonus  = 8.0  // high calorie burn + recovery tag
	lowSodiumBonus = 10.0 // elevated BP + low-sodium tag
	lightBonus     = 6.0  // low activity + light tag
)

// Tags the vitals rules react to.
const (
	TagRecovery  = "high-protein-snack"
	TagLowSodium = "low-sodium"
	TagLight     = "light-clean"
)

// remoteWeight scales a 0-10 oracle suitability score into a bounded 0-20
// contribution, enough to reorder without overriding learned preferences.
const remoteWeight = 2.0

// jitterMax bounds the novelty perturbation.
const jitterMax = 1.5

// Result is a fully attributed score: the total plus each additive part, so
// every term is independently inspectable.
type Result struct {
	Score float64            `json:"score"`
	Parts map[string]float64 `json:"parts"`
	Rules []string           `json:"rules,omitempty"` // fired vitals rules, for reason text
}

// Engine computes item scores from the preference model, bandit stats and
// current vitals. The novelty jitter source is injectable: a nil rng disables
// jitter entirely, which makes ordering deterministic and stable.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates a scoring engine. Pass nil for deterministic scoring or a
// seeded rand for reproducible jitter.
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// Score computes the additive score for one item. Missing tags contribute
// zero; missing vitals fields simply leave their rule unfired.
func (e *Engine) Score(item catalog.Item, snap vitals.Snapshot, model prefs.Model, bandit prefs.Bandit) Result {
	parts := make(map[string]float64)
	var rules []string

	var pref float64
	for _, tag := range item.Tags {
		pref += model.Weight(tag)
	}
	parts["preference"] = pref

	var rule float64
	if snap.HighBurn() && item.HasTag(TagRecovery) {
		rule += recoveryBonus
		rules = append(rules, "high calorie burn → protein supports recovery")
	}
	if snap.ElevatedBP() && item.HasTag(TagLowSodium) {
		rule += lowSodiumBonus
		rules = append(rules, "elevated BP → low sodium helps")
	}
	if snap.LowActivity() && item.HasTag(TagLight) {
		rule += lightBonus
		rules = append(rules, "low activity → lighter, easy-to-digest meal")
	}
	parts["vitals"] = rule

	var exploit float64
	for _, tag := range item.Tags {
		exploit += bandit.ExploitScore(tag)
	}
	parts["bandit"] = exploit

	var remote float64
	if item.RemoteScore != nil && *item.RemoteScore >= 0 && *item.RemoteScore <= 10 {
		remote = *item.RemoteScore * remoteWeight
	}
	parts["remote"] = remote

	var jitter float64
	if e.rng != nil {
		jitter = e.rng.Float64() * jitterMax
	}
	parts["jitter"] = jitter

	return Result{
		Score: pref + rule + exploit + remote + jitter,
		Parts: parts,
		Rules: rules,
	}
}

// Rank scores a pool and returns it ordered by descending score. The sort is
// stable, so with jitter disabled ties keep pool order.
func (e *Engine) Rank(pool []catalog.Item, snap vitals.Snapshot, model prefs.Model, bandit prefs.Bandit) []catalog.Ranked {
	ranked := make([]catalog.Ranked, 0, len(pool))
	for _, item := range pool {
		res := e.Score(item, snap, model, bandit)
		reason := item.Reason
		if reason == "" {
			reason = ComposeReason(item, snap, res.Rules)
		}
		ranked = append(ranked, catalog.Ranked{Item: item, Score: res.Score, Reason: reason})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
