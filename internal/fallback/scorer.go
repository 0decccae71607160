// Package fallback implements the local keyword-similarity ranker used when
// the remote ranking oracle is unavailable or returned too few results. It is
// pure and deterministic: the only tie-breaker is derived from text length,
// so the same pool, prefs and vitals always produce the same ordering.
package fallback

import (
	"sort"
	"strings"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

// Score weights for the heuristic. Diet fit dominates, then meal style, then
// protein preference; seed promotion outranks everything so partial remote
// results are never discarded.
const (
	dietBonus      = 30.0
	styleBonus     = 15.0
	proteinBonus   = 8.0
	perKeyword     = 2.0
	seedBonus      = 100.0
	priceWeight    = 2.0
	priceReference = 500.0 // price at or above which the full penalty applies
)

// Config controls the fallback ranker output size.
type Config struct {
	MaxReturned int `yaml:"max_returned"`
}

// DefaultConfig caps fallback output at 12 items.
func DefaultConfig() Config {
	return Config{MaxReturned: 12}
}

// Scorer ranks a candidate pool with the lexical heuristic.
type Scorer struct {
	cfg Config
}

// NewScorer creates a fallback scorer.
func NewScorer(cfg Config) *Scorer {
	if cfg.MaxReturned <= 0 {
		cfg.MaxReturned = DefaultConfig().MaxReturned
	}
	return &Scorer{cfg: cfg}
}

// Rank scores the pool against the user's diet, the vitals-driven style and
// protein preferences, and any seed titles harvested from a partial remote
// result, then returns the top min(MaxReturned, |pool|) items in descending
// score order with a reason assembled from what matched.
func (s *Scorer) Rank(pool []catalog.Item, p prefs.Prefs, snap vitals.Snapshot, seedTitles []string) []catalog.Ranked {
	if len(pool) == 0 {
		return nil
	}

	diet := dietLexicon(p.Diet)
	wantLight := snap.ElevatedHeartRate() || snap.LowActivity()
	wantProtein := snap.ActiveOrBetter() || snap.HighBurn()

	seeds := make([]string, 0, len(seedTitles))
	for _, t := range seedTitles {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			seeds = append(seeds, t)
		}
	}

	ranked := make([]catalog.Ranked, 0, len(pool))
	for _, item := range pool {
		text := item.SearchText()

		var score float64
		var matched []string
		var reasons []string

		if hits := matchKeywords(text, diet); len(hits) > 0 {
			score += dietBonus
			matched = append(matched, hits...)
			reasons = append(reasons, "fits your "+dietLabel(p.Diet)+" preference")
		}
		if wantLight {
			if hits := matchKeywords(text, lightLexicon); len(hits) > 0 {
				score += styleBonus
				matched = append(matched, hits...)
				if snap.ElevatedHeartRate() {
					reasons = append(reasons, "elevated heart rate → prefer light items")
				} else {
					reasons = append(reasons, "low activity → prefer light items")
				}
			}
		}
		if wantProtein {
			if hits := matchKeywords(text, proteinLexicon); len(hits) > 0 {
				score += proteinBonus
				matched = append(matched, hits...)
				reasons = append(reasons, "active day → extra protein helps")
			}
		}

		score += float64(len(distinct(matched))) * perKeyword

		// Deterministic tie-breaker: derived from text length, not randomness.
		score += float64(len(text)%7) * 0.01

		if item.Price > 0 {
			ratio := item.Price / priceReference
			if ratio > 1 {
				ratio = 1
			}
			score -= ratio * priceWeight
		}

		if promoted(item.Title, seeds) {
			score += seedBonus
			reasons = append(reasons, "suggested by your assistant")
		}

		if len(reasons) == 0 {
			reasons = append(reasons, "fallback suggestion from your catalog")
		}

		ranked = append(ranked, catalog.Ranked{
			Item:   item,
			Score:  score,
			Reason: strings.Join(reasons, " • "),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > s.cfg.MaxReturned {
		ranked = ranked[:s.cfg.MaxReturned]
	}
	return ranked
}

// promoted reports whether an item title fuzzily matches any seed title:
// either string containing the other counts.
func promoted(title string, seeds []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, seed := range seeds {
		if strings.Contains(t, seed) || strings.Contains(seed, t) {
			return true
		}
	}
	return false
}

func matchKeywords(text string, lexicon []string) []string {
	var hits []string
	for _, kw := range lexicon {
		if strings.Contains(text, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

func distinct(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	var out []string
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func dietLabel(diet string) string {
	if diet == "nonveg" {
		return "non-vegetarian"
	}
	return "vegetarian"
}
