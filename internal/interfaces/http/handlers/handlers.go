// Package handlers implements the JSON API consumed by the rendering layer.
// The ranking output contract: ordered items must be paginated, never
// re-sorted, by the consumer.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthpick/healthpick/internal/cascade"
	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/nutrition"
	"github.com/healthpick/healthpick/internal/oracle"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

const defaultPageSize = 10

// Handlers serves the recommendation API.
type Handlers struct {
	Cascade  *cascade.Cascade
	Store    *prefs.Store
	Feed     *vitals.Feed
	Pool     func() []catalog.Item
	Menus    []catalog.PartnerMenu
	Prefs    prefs.Prefs
	Macros   *nutrition.MacroClient
	Evidence *nutrition.EvidenceClient
	Oracle   *oracle.Client // nil when remote ranking is disabled

	mu     sync.Mutex
	latest *cascade.Outcome
}

// Health reports liveness, the vitals snapshot age and the oracle breaker
// state.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.Feed.Snapshot()
	oracleState := "disabled"
	if h.Oracle != nil {
		oracleState = h.Oracle.BreakerState()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"vitals_at": snap.Timestamp,
		"oracle":    oracleState,
	})
}

// Recommendations runs a ranking cycle and serves one page of the result.
// Serving a page counts one impression per item for the bandit stats. A cycle
// that completes stale is discarded in favor of the newest delivered outcome.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize <= 0 || pageSize > 50 {
		pageSize = defaultPageSize
	}

	out := h.Cascade.Run(r.Context(), h.Pool(), h.Feed.Snapshot(), h.Prefs)

	h.mu.Lock()
	if out.Stale && h.latest != nil {
		out = *h.latest
	} else {
		h.latest = &out
	}
	h.mu.Unlock()

	start := page * pageSize
	if start > len(out.Items) {
		start = len(out.Items)
	}
	end := start + pageSize
	if end > len(out.Items) {
		end = len(out.Items)
	}
	slice := out.Items[start:end]

	h.recordImpressions(slice)
	h.ensureMacros(r.Context(), slice)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cycle":     out.Cycle,
		"source":    out.Source,
		"page":      page,
		"page_size": pageSize,
		"total":     len(out.Items),
		"items":     slice,
	})
}

type feedbackRequest struct {
	ItemID string `json:"item_id"`
	Delta  int    `json:"delta"`
}

// Feedback applies one like (+1) or skip (-1) event.
func (h *Handlers) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		writeError(w, http.StatusBadRequest, "delta must be +1 or -1")
		return
	}

	item, ok := h.findItem(req.ItemID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown item")
		return
	}

	if err := h.Store.ApplyFeedback(item.Tags, req.Delta); err != nil {
		log.Error().Err(err).Str("item", item.Title).Msg("feedback persistence failed")
		writeError(w, http.StatusInternalServerError, "failed to persist feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item":  item.Title,
		"delta": req.Delta,
	})
}

// Vitals returns the current snapshot with the derived high-risk flag.
func (h *Handlers) Vitals(w http.ResponseWriter, r *http.Request) {
	snap := h.Feed.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vitals":    snap,
		"high_risk": snap.HighRisk(),
	})
}

// Partners lists partner offerings for a dish, optionally narrowed to a city.
func (h *Handlers) Partners(w http.ResponseWriter, r *http.Request) {
	dish := r.URL.Query().Get("dish")
	if dish == "" {
		writeError(w, http.StatusBadRequest, "missing dish parameter")
		return
	}
	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.Prefs.City
	}

	matches := catalog.PartnersFor(h.Menus, dish, city)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dish":     dish,
		"city":     city,
		"partners": matches,
	})
}

// EvidenceLookup returns a research citation for a tag.
func (h *Handlers) EvidenceLookup(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "missing tag parameter")
		return
	}

	ev, err := h.Evidence.Lookup(r.Context(), tag)
	if err != nil || ev == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"tag": tag, "evidence": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tag": tag, "evidence": ev})
}

// NotFound is the JSON 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func (h *Handlers) findItem(id string) (catalog.Item, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, item := range h.Pool() {
		if item.Key() == id || strings.ToLower(item.Title) == id {
			return item, true
		}
	}
	return catalog.Item{}, false
}

func (h *Handlers) recordImpressions(slice []catalog.Ranked) {
	if len(slice) == 0 {
		return
	}
	tags := make([][]string, 0, len(slice))
	for _, r := range slice {
		tags = append(tags, r.Item.Tags)
	}
	if err := h.Store.RecordImpressions(tags); err != nil {
		log.Warn().Err(err).Msg("impression recording failed")
	}
}

func (h *Handlers) ensureMacros(ctx context.Context, slice []catalog.Ranked) {
	if h.Macros == nil {
		return
	}
	for i := range slice {
		h.Macros.Ensure(ctx, &slice[i].Item)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
