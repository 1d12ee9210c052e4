package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/match"
)

var testEnd = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

type fakeLister struct {
	markets []domain.Market
	err     error
}

func (f *fakeLister) ListOpenMarkets(context.Context, int, int) ([]domain.Market, error) {
	return f.markets, f.err
}

type recordingMatchStore struct {
	batches [][]domain.CrossPlatformMatch
}

func (r *recordingMatchStore) Upsert(context.Context, domain.CrossPlatformMatch) error { return nil }

func (r *recordingMatchStore) UpsertBatch(_ context.Context, matches []domain.CrossPlatformMatch) error {
	r.batches = append(r.batches, matches)
	return nil
}

func (r *recordingMatchStore) GetByID(context.Context, string) (domain.CrossPlatformMatch, error) {
	return domain.CrossPlatformMatch{}, domain.ErrNotFound
}

func (r *recordingMatchStore) ListRecent(context.Context, domain.ListOpts) ([]domain.CrossPlatformMatch, error) {
	return nil, nil
}

func (r *recordingMatchStore) Count(context.Context) (int64, error) { return 0, nil }

type fakeLock struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) Notify(_ context.Context, event, _, _ string) error {
	r.events = append(r.events, event)
	return nil
}

type recordingAudit struct {
	events []string
}

func (r *recordingAudit) Log(_ context.Context, event string, _ map[string]any) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func crossVenuePair() (*fakeLister, *fakeLister) {
	poly := &fakeLister{markets: []domain.Market{{
		Venue: domain.VenuePolymarket, ID: "p1",
		Title:   "Will Bitcoin reach $100k in 2025?",
		Slug:    "bitcoin-100k-2025",
		EndTime: testEnd,
	}}}
	kalshi := &fakeLister{markets: []domain.Market{{
		Venue: domain.VenueKalshi, ID: "k1",
		Title:   "Bitcoin price above $100k in 2025?",
		Slug:    "bitcoin-100k-2025",
		EndTime: testEnd,
	}}}
	return poly, kalshi
}

func newScanService(poly, kalshi MarketLister, store domain.MatchStore, lock domain.LockManager, notifier Notifier, audit domain.AuditStore) *ScanService {
	return NewScanService(
		ScanConfig{},
		poly, kalshi,
		match.New(match.Config{}, slog.Default()),
		store,
		nil, // cache
		lock,
		nil, // bus
		notifier,
		audit,
		slog.Default(),
	)
}

func TestScanPersistsAndAnnouncesMatches(t *testing.T) {
	poly, kalshi := crossVenuePair()
	store := &recordingMatchStore{}
	lock := &fakeLock{}
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}

	svc := newScanService(poly, kalshi, store, lock, notifier, audit)

	n, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 1)
	assert.Equal(t, "polymarket:p1|kalshi:k1", store.batches[0][0].ID)

	assert.Equal(t, []string{"match_found"}, notifier.events)
	assert.Equal(t, []string{"scan.completed"}, audit.events)
	assert.Equal(t, 1, lock.acquired)
	assert.Equal(t, 1, lock.released)
}

func TestScanSkipsWhenLockHeld(t *testing.T) {
	poly, kalshi := crossVenuePair()
	store := &recordingMatchStore{}

	svc := newScanService(poly, kalshi, store, &fakeLock{held: true}, nil, nil)

	n, err := svc.Scan(context.Background())
	assert.ErrorIs(t, err, domain.ErrLockHeld)
	assert.Zero(t, n)
	assert.Empty(t, store.batches)
}

func TestScanPropagatesFetchError(t *testing.T) {
	poly := &fakeLister{err: errors.New("gamma down")}
	_, kalshi := crossVenuePair()
	store := &recordingMatchStore{}

	svc := newScanService(poly, kalshi, store, nil, nil, nil)

	_, err := svc.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch polymarket")
	assert.Empty(t, store.batches)
}

func TestScanIncrementalAcrossPasses(t *testing.T) {
	poly, kalshi := crossVenuePair()
	kalshi.markets = append(kalshi.markets, domain.Market{
		Venue: domain.VenueKalshi, ID: "k2",
		Title:   "Kansas City Chiefs @ Buffalo Bills Moneyline",
		EndTime: testEnd,
	})
	store := &recordingMatchStore{}
	svc := newScanService(poly, kalshi, store, nil, nil, nil)

	n, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.batches, 1)

	// unchanged snapshots add nothing on the next pass
	n, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.batches, 1)

	// a newly listed Polymarket market pairs against the held index without
	// disturbing the earlier claim
	poly.markets = append(poly.markets, domain.Market{
		Venue: domain.VenuePolymarket, ID: "p2",
		Title:   "Chiefs vs Bills Winner?",
		EndTime: testEnd,
	})
	n, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.batches, 2)
	require.Len(t, store.batches[1], 1)
	assert.Equal(t, "polymarket:p2|kalshi:k2", store.batches[1][0].ID)
}

func TestScanRebuildsIndexWhenKalshiSetChanges(t *testing.T) {
	poly, kalshi := crossVenuePair()
	store := &recordingMatchStore{}
	svc := newScanService(poly, kalshi, store, nil, nil, nil)

	n, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the counterpart delists and relists under a new ticker; the rebuild
	// drops stale claims and re-pairs the full snapshot
	kalshi.markets = []domain.Market{{
		Venue: domain.VenueKalshi, ID: "k9",
		Title:   "Bitcoin price above $100k in 2025?",
		Slug:    "bitcoin-100k-2025",
		EndTime: testEnd,
	}}
	n, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.batches, 2)
	assert.Equal(t, "polymarket:p1|kalshi:k9", store.batches[1][0].ID)
}

func TestScanNoMatchesSkipsUpsert(t *testing.T) {
	poly := &fakeLister{markets: []domain.Market{{
		Venue: domain.VenuePolymarket, ID: "p1",
		Title:   "Will Bitcoin reach $100k in 2025?",
		EndTime: testEnd,
	}}}
	kalshi := &fakeLister{markets: []domain.Market{{
		Venue: domain.VenueKalshi, ID: "k1",
		Title:   "Government shutdown before July?",
		EndTime: testEnd,
	}}}
	store := &recordingMatchStore{}

	svc := newScanService(poly, kalshi, store, nil, nil, nil)

	n, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.batches)
}
