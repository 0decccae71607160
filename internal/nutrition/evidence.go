package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Evidence is one research citation backing a tag.
type Evidence struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Abstract string `json:"abstract,omitempty"`
}

// evidenceQueries rotates semantically related searches per tag so repeated
// lookups surface varied research for the same recommendation.
var evidenceQueries = map[string][]string{
	"low-sodium": {
		"low sodium diet blood pressure clinical trial",
		"salt intake hypertension study",
		"reduced salt cardiovascular health",
		"sodium reduction and heart disease",
	},
	"high-protein-snack": {
		"protein intake muscle recovery study",
		"high protein snack benefits",
		"post-workout protein snack research",
	},
	"light-clean": {
		"light meal digestion benefits",
		"small meal digestion study",
		"low-fat meal digestive efficiency",
	},
	"satvik": {
		"sattvic diet health benefits",
		"ayurvedic sattvic diet",
		"sattvic diet scientific evidence",
	},
	"low-carb": {
		"low carbohydrate diet blood sugar control",
		"low carb diet study weight loss",
		"reduced carbohydrate health benefits",
	},
}

// staticEvidence answers when the lookup service is down, so the "why" panel
// always has a citation to show.
var staticEvidence = map[string]Evidence{
	"low-sodium":         {Title: "Reducing sodium intake lowers blood pressure", URL: "https://www.nih.gov/news-events/news-releases/low-sodium-diet-benefits-blood-pressure"},
	"high-protein-snack": {Title: "Why protein matters after exercise", URL: "https://www.bhf.org.uk/informationsupport/heart-matters-magazine/nutrition/ask-the-expert/why-is-protein-important-after-exercise"},
	"light-clean":        {Title: "Heavy meals can make you feel sluggish", URL: "https://health.clevelandclinic.org/should-you-eat-heavy-meals-before-bed"},
	"low-carb":           {Title: "Eating protein/veg before carbs helps control blood glucose", URL: "https://www.uclahealth.org/news/eating-certain-order-helps-control-blood-glucose"},
	"satvik":             {Title: "What Is the Sattvic Diet? Review, Food Lists, and Menu", URL: "https://www.healthline.com/nutrition/sattvic-diet-review"},
}

// EvidenceClient fetches research citations for tags from a Crossref-style
// lookup endpoint.
type EvidenceClient struct {
	cfg   Config
	http  *http.Client
	cache Cache
	rng   *rand.Rand
}

// NewEvidenceClient creates an evidence lookup client. rng picks among the
// rotating queries; pass a seeded source for deterministic tests.
func NewEvidenceClient(cfg Config, cache Cache, rng *rand.Rand) *EvidenceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &EvidenceClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		rng:   rng,
	}
}

// Lookup returns a citation for a tag: cached if available, fetched if
// possible, static fallback otherwise. A nil result means the tag has no
// known evidence anywhere.
func (c *EvidenceClient) Lookup(ctx context.Context, tag string) (*Evidence, error) {
	if tag == "" {
		return nil, nil
	}
	key := "evidence:" + tag

	if cached, found, err := c.cache.Get(ctx, key); err == nil && found {
		var ev Evidence
		if json.Unmarshal(cached, &ev) == nil {
			return &ev, nil
		}
	} else if err != nil {
		log.Warn().Err(err).Msg("evidence cache read failed, fetching uncached")
	}

	if ev := c.fetch(ctx, tag); ev != nil {
		if data, err := json.Marshal(ev); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("evidence cache write failed")
			}
		}
		return ev, nil
	}

	if ev, ok := staticEvidence[tag]; ok {
		return &ev, nil
	}
	return nil, nil
}

func (c *EvidenceClient) fetch(ctx context.Context, tag string) *Evidence {
	if c.cfg.EvidenceBaseURL == "" {
		return nil
	}

	query := tag + " diet health benefits"
	if list := evidenceQueries[tag]; len(list) > 0 {
		query = list[c.rng.Intn(len(list))]
	}

	reqURL := fmt.Sprintf("%s/evidence?q=%s", c.cfg.EvidenceBaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("tag", tag).Msg("evidence lookup failed, using static entry")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var ev Evidence
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil || ev.Title == "" {
		return nil
	}
	return &ev
}
