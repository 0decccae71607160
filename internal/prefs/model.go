package prefs

// Weight bounds for the preference model. Every update clamps into this
// range, so an out-of-range weight is structurally impossible.
const (
	MinWeight = -20.0
	MaxWeight = 40.0
)

// Model maps a tag to its learned signed weight. Mutated only through the
// store's feedback path.
type Model map[string]float64

// TagStats holds bandit counters for one tag. Shown counts impressions,
// Success counts positive feedback; both are monotonically non-decreasing and
// Success is not bounded by Shown.
type TagStats struct {
	Shown   int64 `json:"shown"`
	Success int64 `json:"success"`
}

// Bandit maps a tag to its impression/success counters.
type Bandit map[string]TagStats

// ExploitScore is the Laplace-smoothed success rate for a tag, scaled to
// contribute up to 4 points: (success+1)/(shown+2) * 4. Unseen tags get the
// neutral prior 0.5*4 = 2.
func (b Bandit) ExploitScore(tag string) float64 {
	st := b[tag]
	return float64(st.Success+1) / float64(st.Shown+2) * 4
}

// Weight returns the model weight for a tag, zero when unseen.
func (m Model) Weight(tag string) float64 {
	return m[tag]
}

// Prefs are the user's explicit settings, distinct from the learned model.
type Prefs struct {
	Diet   string `yaml:"diet" json:"diet"` // "", "veg" or "nonveg"
	City   string `yaml:"city" json:"city"`
	Satvik bool   `yaml:"satvik" json:"satvik"`
}

func clampWeight(w float64) float64 {
	if w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}
