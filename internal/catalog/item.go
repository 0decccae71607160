package catalog

import "strings"

// Item is a single dish in a candidate pool. Items are immutable once loaded
// except for the ranking annotations (RemoteScore, Reason), which are attached
// to copies during a ranking pass.
type Item struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"` // "veg" or "nonveg"
	Tags        []string `json:"tags,omitempty"`
	Hero        string   `json:"hero,omitempty"`

	// Partner/source metadata for dishes flattened out of partner menus.
	Partner string  `json:"partner,omitempty"`
	City    string  `json:"city,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Link    string  `json:"link,omitempty"`

	Macros *Macros `json:"macros,omitempty"`

	// Ranking annotations.
	RemoteScore *float64 `json:"remote_score,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// Macros is a per-100g nutrient record, usually filled in lazily from the
// nutrition lookup.
type Macros struct {
	Calories float64 `json:"calories,omitempty"`
	ProteinG float64 `json:"protein_g,omitempty"`
	CarbsG   float64 `json:"carbs_g,omitempty"`
	FatG     float64 `json:"fat_g,omitempty"`
	SodiumMg float64 `json:"sodium_mg,omitempty"`
}

// Ranked pairs an item with its computed score and a human-readable
// justification. Ranked lists are ephemeral: only the descending score order
// carries meaning.
type Ranked struct {
	Item   Item    `json:"item"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Key identifies an item within a pool. Title alone is unique for catalog
// dishes; partner-sourced dishes may repeat a title across partners.
func (it Item) Key() string {
	return strings.ToLower(strings.TrimSpace(it.Title)) + "|" + strings.ToLower(strings.TrimSpace(it.Partner))
}

// HasTag reports whether the item carries the given tag.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SearchText returns the lowercased text used for keyword matching.
func (it Item) SearchText() string {
	parts := []string{it.Title, it.Description}
	parts = append(parts, it.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}
