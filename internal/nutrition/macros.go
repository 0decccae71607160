// Package nutrition wraps the out-of-process macro-nutrient and research
// evidence lookups. Both are simple cached GET calls: results feed reason
// text and scoring context but a miss or an outage never blocks ranking.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthpick/healthpick/internal/catalog"
)

// Config controls the lookup clients.
type Config struct {
	MacroBaseURL    string        `yaml:"macro_base_url"`
	EvidenceBaseURL string        `yaml:"evidence_base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig caches lookups for seven days, matching how slowly nutrient
// data and published research move.
func DefaultConfig() Config {
	return Config{
		Timeout:  5 * time.Second,
		CacheTTL: 7 * 24 * time.Hour,
	}
}

// MacroClient fetches per-dish macro records from an OpenFoodFacts-style
// lookup endpoint.
type MacroClient struct {
	cfg   Config
	http  *http.Client
	cache Cache
}

// NewMacroClient creates a macro lookup client.
func NewMacroClient(cfg Config, cache Cache) *MacroClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &MacroClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
	}
}

type macroResponse struct {
	Found  bool            `json:"found"`
	Macros *catalog.Macros `json:"macros"`
}

// Lookup returns the macro record for a dish title, serving from cache when
// possible. A nil record with nil error means the dish is unknown upstream.
func (c *MacroClient) Lookup(ctx context.Context, title string) (*catalog.Macros, error) {
	key := "macros:" + title

	if cached, found, err := c.cache.Get(ctx, key); err == nil && found {
		var m catalog.Macros
		if json.Unmarshal(cached, &m) == nil {
			return &m, nil
		}
	} else if err != nil {
		log.Warn().Err(err).Msg("macro cache read failed, fetching uncached")
	}

	if c.cfg.MacroBaseURL == "" {
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s/ofacts?q=%s", c.cfg.MacroBaseURL, url.QueryEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("macro lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("macro lookup HTTP %d", resp.StatusCode)
	}

	var body macroResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("macro lookup decode failed: %w", err)
	}
	if !body.Found || body.Macros == nil {
		return nil, nil
	}

	if data, err := json.Marshal(body.Macros); err == nil {
		if err := c.cache.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("macro cache write failed")
		}
	}

	return body.Macros, nil
}

// Ensure fills item.Macros in place when missing, swallowing lookup errors.
func (c *MacroClient) Ensure(ctx context.Context, item *catalog.Item) {
	if item.Macros != nil {
		return
	}
	m, err := c.Lookup(ctx, item.Title)
	if err != nil {
		log.Debug().Err(err).Str("title", item.Title).Msg("macro lookup skipped")
		return
	}
	item.Macros = m
}
