package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatchStore struct {
	matches map[string]domain.CrossPlatformMatch
	listErr error
}

func (f *fakeMatchStore) Upsert(context.Context, domain.CrossPlatformMatch) error        { return nil }
func (f *fakeMatchStore) UpsertBatch(context.Context, []domain.CrossPlatformMatch) error { return nil }

func (f *fakeMatchStore) GetByID(_ context.Context, id string) (domain.CrossPlatformMatch, error) {
	m, ok := f.matches[id]
	if !ok {
		return domain.CrossPlatformMatch{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatchStore) ListRecent(context.Context, domain.ListOpts) ([]domain.CrossPlatformMatch, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.CrossPlatformMatch, 0, len(f.matches))
	for _, m := range f.matches {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMatchStore) Count(context.Context) (int64, error) {
	return int64(len(f.matches)), nil
}

type fakeOppStore struct {
	opps []domain.ArbitrageOpportunity
}

func (f *fakeOppStore) Insert(context.Context, domain.ArbitrageOpportunity) error { return nil }

func (f *fakeOppStore) ListRecent(_ context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	if limit > 0 && limit < len(f.opps) {
		return f.opps[:limit], nil
	}
	return f.opps, nil
}

func (f *fakeOppStore) ListOpen(_ context.Context, now time.Time) ([]domain.ArbitrageOpportunity, error) {
	var open []domain.ArbitrageOpportunity
	for _, o := range f.opps {
		if o.ExpiresAt.After(now) {
			open = append(open, o)
		}
	}
	return open, nil
}

func sampleMatch(id string) domain.CrossPlatformMatch {
	return domain.CrossPlatformMatch{
		ID:        id,
		Poly:      domain.Market{Venue: domain.VenuePolymarket, ID: "p1", Title: "Poly market"},
		Kalshi:    domain.Market{Venue: domain.VenueKalshi, ID: "k1", Title: "Kalshi market"},
		Score:     0.82,
		MatchedAt: time.Now().UTC(),
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListMatches(t *testing.T) {
	store := &fakeMatchStore{matches: map[string]domain.CrossPlatformMatch{
		"m1": sampleMatch("m1"),
		"m2": sampleMatch("m2"),
	}}
	h := NewMatchHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/matches?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListMatches(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []domain.CrossPlatformMatch `json:"matches"`
		Total   int64                       `json:"total"`
		Limit   int                         `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Matches, 2)
	assert.Equal(t, int64(2), body.Total)
	assert.Equal(t, 10, body.Limit)
}

func TestListMatchesStoreError(t *testing.T) {
	store := &fakeMatchStore{listErr: errors.New("db down")}
	h := NewMatchHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/matches", nil)
	rec := httptest.NewRecorder()
	h.ListMatches(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetMatch(t *testing.T) {
	store := &fakeMatchStore{matches: map[string]domain.CrossPlatformMatch{
		"polymarket:p1|kalshi:k1": sampleMatch("polymarket:p1|kalshi:k1"),
	}}
	h := NewMatchHandler(store, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matches/{id}", h.GetMatch)

	req := httptest.NewRequest(http.MethodGet, "/api/matches/polymarket:p1|kalshi:k1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var match domain.CrossPlatformMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &match))
	assert.Equal(t, "polymarket:p1|kalshi:k1", match.ID)
}

func TestGetMatchNotFound(t *testing.T) {
	h := NewMatchHandler(&fakeMatchStore{}, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matches/{id}", h.GetMatch)

	req := httptest.NewRequest(http.MethodGet, "/api/matches/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOpenFiltersExpired(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeOppStore{opps: []domain.ArbitrageOpportunity{
		{ID: "live", ExpiresAt: now.Add(time.Hour)},
		{ID: "dead", ExpiresAt: now.Add(-time.Hour)},
	}}
	h := NewOpportunityHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/open", nil)
	rec := httptest.NewRecorder()
	h.ListOpen(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Opportunities, 1)
	assert.Equal(t, "live", body.Opportunities[0].ID)
}

func TestScanTrigger(t *testing.T) {
	h := NewScanHandler(func(context.Context) (int, error) { return 7, nil }, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil)
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["matches"])
}

func TestScanTriggerLockHeld(t *testing.T) {
	h := NewScanHandler(func(context.Context) (int, error) {
		return 0, domain.ErrLockHeld
	}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil)
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
