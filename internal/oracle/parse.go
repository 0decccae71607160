package oracle

import (
	"encoding/json"
	"strings"

	"github.com/healthpick/healthpick/internal/catalog"
)

// pick is one element of the oracle response. Only title is required; partner
// disambiguates partner-sourced pools, and score/reason are optional
// annotations.
type pick struct {
	Title   string   `json:"title"`
	Partner string   `json:"partner,omitempty"`
	City    string   `json:"city,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

// parsePicks accepts the two documented response shapes, a bare JSON array or
// an object with a picks field, plus the lenient case of an array embedded in
// surrounding text, which language-model backends produce often enough to
// handle. Anything else is a decode failure.
func parsePicks(data []byte) ([]pick, error) {
	var arr []pick
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr, nil
	}

	var wrapped struct {
		Picks []pick `json:"picks"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Picks != nil {
		return wrapped.Picks, nil
	}

	if extracted := extractArray(data); extracted != nil {
		if err := json.Unmarshal(extracted, &arr); err == nil {
			return arr, nil
		}
	}

	return nil, newError(ErrCodeDecode, "oracle response is not a JSON array or {picks:[...]}", nil)
}

// extractArray pulls the first [...] block out of a text blob.
func extractArray(data []byte) []byte {
	s := string(data)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil
	}
	return []byte(s[start : end+1])
}

// validateAgainstPool keeps only picks that reference an item actually in the
// pool and returns annotated copies of those items in oracle order,
// deduplicated by title+partner. Titles match case-insensitively; when a pick
// names a partner it must match the pool item's partner, so the oracle cannot
// hallucinate an unavailable offering into the result.
func validateAgainstPool(picks []pick, pool []catalog.Item) []catalog.Item {
	byTitle := make(map[string][]catalog.Item, len(pool))
	for _, item := range pool {
		k := strings.ToLower(strings.TrimSpace(item.Title))
		byTitle[k] = append(byTitle[k], item)
	}

	seen := make(map[string]struct{})
	var out []catalog.Item
	for _, p := range picks {
		title := strings.ToLower(strings.TrimSpace(p.Title))
		if title == "" {
			continue
		}

		var match *catalog.Item
		for i := range byTitle[title] {
			candidate := byTitle[title][i]
			if p.Partner != "" && !strings.EqualFold(candidate.Partner, p.Partner) {
				continue
			}
			match = &candidate
			break
		}
		if match == nil {
			continue
		}
		if _, dup := seen[match.Key()]; dup {
			continue
		}
		seen[match.Key()] = struct{}{}

		item := *match
		item.Reason = p.Reason
		if p.Score != nil && *p.Score >= 0 && *p.Score <= 10 {
			score := *p.Score
			item.RemoteScore = &score
		}
		out = append(out, item)
	}
	return out
}
