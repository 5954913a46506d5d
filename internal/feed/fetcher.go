package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/pkg/config"
	"github.com/wonny/fxsignal/pkg/httputil"
	"github.com/wonny/fxsignal/pkg/logger"
)

// Fetcher walks a provider chain in priority order and caches results.
// A fresh cache entry short-circuits the chain entirely; when every provider
// fails, a stale entry is better than nothing and is returned as a last
// resort.
type Fetcher struct {
	providers []Provider
	logger    *logger.Logger

	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
	stats UsageStats
}

type cacheEntry struct {
	candles  market.Series
	fetched  time.Time
	provider string
}

// UsageStats counts fetch outcomes across the fetcher's lifetime.
type UsageStats struct {
	Requests           int `json:"requests"`
	SuccessfulRequests int `json:"successful_requests"`
	FailedRequests     int `json:"failed_requests"`
	CacheHits          int `json:"cache_hits"`
}

// UsageReport is UsageStats with derived rates, in percent.
type UsageReport struct {
	UsageStats
	SuccessRate  float64 `json:"success_rate"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// NewFetcher builds the default provider chain from config: TwelveData, then
// AlphaVantage, then Finnhub, then the synthetic generator. Providers without
// an API key are skipped.
func NewFetcher(cfg config.FeedConfig, log *logger.Logger) *Fetcher {
	client := httputil.New(log, cfg.RequestTimeout).WithRateLimit(cfg.RateLimitPerMinute)

	var providers []Provider
	if cfg.TwelveDataKey != "" {
		providers = append(providers, NewTwelveData(client, cfg.TwelveDataURL, cfg.TwelveDataKey))
	}
	if cfg.AlphaVantageKey != "" {
		providers = append(providers, NewAlphaVantage(client, cfg.AlphaVantageURL, cfg.AlphaVantageKey))
	}
	if cfg.FinnhubKey != "" {
		providers = append(providers, NewFinnhub(client, cfg.FinnhubURL, cfg.FinnhubKey))
	}
	providers = append(providers, NewSynthetic(time.Now().UnixNano()))

	return NewFetcherWithProviders(cfg.CacheTTL, log, providers...)
}

// NewFetcherWithProviders creates a fetcher over an explicit chain.
func NewFetcherWithProviders(cacheTTL time.Duration, log *logger.Logger, providers ...Provider) *Fetcher {
	return &Fetcher{
		providers: providers,
		logger:    log,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

// Fetch returns count candles for the pair and interval. The result order is
// unspecified; callers normalize with OldestFirst before indicator math.
func (f *Fetcher) Fetch(ctx context.Context, pair string, interval market.Interval, count int) (market.Series, error) {
	key := fmt.Sprintf("%s_%s_%d", pair, interval, count)

	f.mu.Lock()
	f.stats.Requests++
	if entry, ok := f.cache[key]; ok && f.now().Sub(entry.fetched) < f.cacheTTL {
		f.stats.CacheHits++
		candles := entry.candles
		f.mu.Unlock()

		f.logger.WithFields(map[string]interface{}{
			"pair":     pair,
			"interval": interval,
			"provider": entry.provider,
		}).Debug("Serving candles from cache")
		return candles, nil
	}
	f.mu.Unlock()

	for _, p := range f.providers {
		candles, err := p.Fetch(ctx, pair, interval, count)
		if err != nil {
			f.logger.WithFields(map[string]interface{}{
				"provider": p.Name(),
				"pair":     pair,
				"interval": interval,
			}).WithError(err).Warn("Provider fetch failed, trying next")
			continue
		}
		if len(candles) == 0 {
			continue
		}

		f.mu.Lock()
		f.stats.SuccessfulRequests++
		f.cache[key] = cacheEntry{candles: candles, fetched: f.now(), provider: p.Name()}
		f.mu.Unlock()

		f.logger.WithFields(map[string]interface{}{
			"provider": p.Name(),
			"pair":     pair,
			"interval": interval,
			"candles":  len(candles),
		}).Debug("Fetched candle history")
		return candles, nil
	}

	f.mu.Lock()
	f.stats.FailedRequests++
	stale, hasStale := f.cache[key]
	f.mu.Unlock()

	if hasStale {
		f.logger.WithFields(map[string]interface{}{
			"pair":     pair,
			"interval": interval,
			"age":      f.now().Sub(stale.fetched),
		}).Warn("All providers failed, serving stale cache")
		return stale.candles, nil
	}

	return nil, fmt.Errorf("%w: %s %s", ErrAllProvidersFailed, pair, interval)
}

// Providers lists the chain's provider names in priority order.
func (f *Fetcher) Providers() []string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return names
}

// Stats returns usage counters with derived rates.
func (f *Fetcher) Stats() UsageReport {
	f.mu.Lock()
	defer f.mu.Unlock()

	report := UsageReport{UsageStats: f.stats}
	if f.stats.Requests > 0 {
		report.SuccessRate = float64(f.stats.SuccessfulRequests) / float64(f.stats.Requests) * 100
		report.CacheHitRate = float64(f.stats.CacheHits) / float64(f.stats.Requests) * 100
	}
	return report
}

// ClearCache drops every cached series.
func (f *Fetcher) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]cacheEntry)
}
