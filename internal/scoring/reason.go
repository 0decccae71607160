package scoring

import (
	"strings"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/vitals"
)

// tagExplain maps tags to the one-line explanation used when no vitals rule
// fired for an item.
var tagExplain = map[string]string{
	"satvik":             "simple, plant-based, easy to digest",
	"low-carb":           "lower carbs to avoid spikes",
	"high-protein-snack": "higher protein to support muscle",
	"low-sodium":         "reduced sodium for BP control",
	"light-clean":        "minimal oil, clean prep",
}

// ComposeReason builds the human-readable justification for an item from the
// vitals rules that fired, falling back to a tag explanation and finally to a
// generic preference match. The wearable context is referenced in general
// terms, never raw numbers, since the snapshot may move faster than the UI.
func ComposeReason(item catalog.Item, snap vitals.Snapshot, firedRules []string) string {
	why := strings.Join(firedRules, " • ")
	if why == "" {
		for _, tag := range item.Tags {
			if expl, ok := tagExplain[tag]; ok {
				why = expl
				break
			}
		}
	}
	if why == "" {
		why = "matches your preferences"
	}

	if metrics := snap.Metrics(); len(metrics) > 0 {
		return why + " based on your wearable metrics (" + strings.Join(metrics, ", ") + ")"
	}
	return why + " based on your wearable metrics"
}
