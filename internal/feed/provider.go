// Package feed fetches candle history from upstream market-data providers
// with a fallback chain, a short-lived cache and usage accounting.
package feed

import (
	"context"
	"errors"

	"github.com/wonny/fxsignal/internal/market"
)

// Provider delivers candle history for one instrument and interval.
// Implementations return candles in any order; consumers normalize.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, pair string, interval market.Interval, count int) (market.Series, error)
}

// ErrAllProvidersFailed means every provider in the chain errored and no
// cached data, not even stale, was available.
var ErrAllProvidersFailed = errors.New("all data providers failed")

// ErrNoData means a provider responded but the payload held no candles.
var ErrNoData = errors.New("provider returned no candle data")
