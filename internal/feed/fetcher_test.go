package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/pkg/logger"
)

// stubProvider returns canned candles or a canned error and counts calls.
type stubProvider struct {
	name   string
	series market.Series
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, string, market.Interval, int) (market.Series, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func syntheticSeries(t *testing.T, n int) market.Series {
	t.Helper()
	series, err := NewSynthetic(42).Fetch(context.Background(), "EUR/USD", market.Interval5Min, n)
	require.NoError(t, err)
	return series
}

func TestFetcher_FallsThroughFailedProviders(t *testing.T) {
	series := syntheticSeries(t, 60)
	broken := &stubProvider{name: "primary", err: errors.New("upstream down")}
	healthy := &stubProvider{name: "secondary", series: series}

	f := NewFetcherWithProviders(time.Minute, logger.Nop(), broken, healthy)

	got, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)
	assert.Len(t, got, 60)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, healthy.calls)

	stats := f.Stats()
	assert.Equal(t, 1, stats.Requests)
	assert.Equal(t, 1, stats.SuccessfulRequests)
	assert.Equal(t, 0, stats.FailedRequests)
}

func TestFetcher_ServesFromCacheWithinTTL(t *testing.T) {
	provider := &stubProvider{name: "primary", series: syntheticSeries(t, 60)}
	f := NewFetcherWithProviders(time.Minute, logger.Nop(), provider)

	_, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "second fetch should hit the cache")

	stats := f.Stats()
	assert.Equal(t, 2, stats.Requests)
	assert.Equal(t, 1, stats.CacheHits)
	assert.InDelta(t, 50.0, stats.CacheHitRate, 0.01)
}

func TestFetcher_CacheKeyIncludesIntervalAndCount(t *testing.T) {
	provider := &stubProvider{name: "primary", series: syntheticSeries(t, 60)}
	f := NewFetcherWithProviders(time.Minute, logger.Nop(), provider)

	_, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "EUR/USD", market.Interval1H, 60)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
}

func TestFetcher_ServesStaleCacheWhenAllProvidersFail(t *testing.T) {
	provider := &stubProvider{name: "primary", series: syntheticSeries(t, 60)}
	f := NewFetcherWithProviders(time.Minute, logger.Nop(), provider)

	_, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)

	// Expire the cache and break the provider.
	f.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	provider.err = errors.New("upstream down")
	provider.series = nil

	got, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err, "stale cache should be the fallback of last resort")
	assert.Len(t, got, 60)

	stats := f.Stats()
	assert.Equal(t, 1, stats.FailedRequests)
}

func TestFetcher_ErrorWhenNothingAvailable(t *testing.T) {
	provider := &stubProvider{name: "primary", err: errors.New("upstream down")}
	f := NewFetcherWithProviders(time.Minute, logger.Nop(), provider)

	_, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestFetcher_ClearCacheForcesRefetch(t *testing.T) {
	provider := &stubProvider{name: "primary", series: syntheticSeries(t, 60)}
	f := NewFetcherWithProviders(time.Minute, logger.Nop(), provider)

	_, err := f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)

	f.ClearCache()

	_, err = f.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestFetcher_ProvidersInPriorityOrder(t *testing.T) {
	f := NewFetcherWithProviders(time.Minute, logger.Nop(),
		&stubProvider{name: "primary"},
		&stubProvider{name: "secondary"},
		NewSynthetic(1),
	)

	assert.Equal(t, []string{"primary", "secondary", "Synthetic"}, f.Providers())
}

func TestSynthetic_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	a := NewSynthetic(7)
	a.now = func() time.Time { return now }
	b := NewSynthetic(7)
	b.now = func() time.Time { return now }

	seriesA, err := a.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 100)
	require.NoError(t, err)
	seriesB, err := b.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 100)
	require.NoError(t, err)

	require.Len(t, seriesA, 100)
	for i := range seriesA {
		assert.True(t, seriesA[i].Close.Equal(seriesB[i].Close))
		assert.Equal(t, seriesA[i].Volume, seriesB[i].Volume)
	}
}

func TestSynthetic_SeriesShape(t *testing.T) {
	s := NewSynthetic(7)
	series, err := s.Fetch(context.Background(), "EUR/USD", market.Interval5Min, 100)
	require.NoError(t, err)
	require.Len(t, series, 100)

	for i, c := range series {
		assert.True(t, c.High.GreaterThanOrEqual(c.Open), "high below open at %d", i)
		assert.True(t, c.High.GreaterThanOrEqual(c.Close), "high below close at %d", i)
		assert.True(t, c.Low.LessThanOrEqual(c.Open), "low above open at %d", i)
		assert.True(t, c.Low.LessThanOrEqual(c.Close), "low above close at %d", i)
		assert.GreaterOrEqual(t, c.Volume, int64(800))
		assert.Less(t, c.Volume, int64(2300))

		if i > 0 {
			assert.True(t, c.Time.After(series[i-1].Time), "candles should be oldest first")
			assert.True(t, c.Open.Equal(series[i-1].Close), "bars should chain open to close")
		}
	}
}
