package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

func testPool() []catalog.Item {
	return []catalog.Item{
		{Title: "Dal Khichdi", Partner: "Satvik Rasoi", Tags: []string{"satvik"}},
		{Title: "Grilled Paneer Salad", Partner: "Green Bowl Kitchen"},
		{Title: "Oats Bowl"},
		{Title: "Sprout Chaat"},
		{Title: "Clear Soup"},
		{Title: "Protein Shake"},
	}
}

func newTestClient(url string, minPicks int) *Client {
	return NewClient(Config{
		BaseURL:  url,
		Timeout:  2 * time.Second,
		MinPicks: minPicks,
		RPS:      1000,
		Burst:    1000,
	})
}

func TestRank_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/recommend", r.URL.Path)
		w.Write([]byte(`[
			{"title":"Oats Bowl","reason":"steady energy","score":8},
			{"title":"Clear Soup","score":6},
			{"title":"Dal Khichdi","partner":"Satvik Rasoi"},
			{"title":"Sprout Chaat"},
			{"title":"Protein Shake"}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	res, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.NoError(t, err)
	assert.False(t, res.Insufficient)
	require.Len(t, res.Picks, 5)

	// Oracle order and annotations are preserved.
	assert.Equal(t, "Oats Bowl", res.Picks[0].Title)
	assert.Equal(t, "steady energy", res.Picks[0].Reason)
	require.NotNil(t, res.Picks[0].RemoteScore)
	assert.Equal(t, 8.0, *res.Picks[0].RemoteScore)
	assert.Nil(t, res.Picks[2].RemoteScore)
}

func TestRank_WrappedPicksShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"picks":[{"title":"oats bowl"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	res, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)
	assert.Equal(t, "Oats Bowl", res.Picks[0].Title, "title matching is case-insensitive")
}

func TestRank_ArrayEmbeddedInText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Here are my picks:\n[{\"title\":\"Clear Soup\"}]\nEnjoy!"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	res, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)
	assert.Equal(t, "Clear Soup", res.Picks[0].Title)
}

func TestRank_HallucinatedItemsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"title":"Unicorn Smoothie"},
			{"title":"Dal Khichdi","partner":"Some Other Kitchen"},
			{"title":"Oats Bowl"},
			{"title":"Oats Bowl"}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	res, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1, "unknown title, wrong partner and duplicate all dropped")
	assert.Equal(t, "Oats Bowl", res.Picks[0].Title)
}

func TestRank_InsufficientPicks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title":"Oats Bowl"},{"title":"Clear Soup"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	res, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	require.NoError(t, err)
	assert.True(t, res.Insufficient)
	assert.Equal(t, []string{"Oats Bowl", "Clear Soup"}, res.Titles())
}

func TestRank_EmptyValidSetIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title":"Unicorn Smoothie"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeEmpty, oerr.Code)
}

func TestRank_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:  srv.URL,
		Timeout:  50 * time.Millisecond,
		MinPicks: 5,
		RPS:      1000,
		Burst:    1000,
	})
	_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeTimeout, oerr.Code)
	assert.True(t, oerr.Temporary)
}

func TestRank_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeHTTP, oerr.Code)
	assert.Contains(t, oerr.Message, "502")
}

func TestRank_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sorry, I cannot rank these right now"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeDecode, oerr.Code)
}

func TestRank_CircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	for i := 0; i < 3; i++ {
		_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
		require.Error(t, err)
	}

	_, err := client.Rank(context.Background(), testPool(), vitals.Snapshot{}, prefs.Prefs{})
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeCircuitOpen, oerr.Code)
	assert.Equal(t, "open", client.BreakerState())
}

func TestParsePicks_RejectsGarbage(t *testing.T) {
	_, err := parsePicks([]byte(`{"not":"an array"}`))
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, ErrCodeDecode, oerr.Code)

	_, err = parsePicks([]byte(`no brackets at all`))
	require.True(t, errors.As(err, &oerr))
}
