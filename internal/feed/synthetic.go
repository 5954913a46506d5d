package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/market"
)

// basePrices anchor the random walk per instrument so generated quotes look
// plausible for the pair.
var basePrices = map[string]float64{
	"EUR/USD": 1.0950,
	"GBP/USD": 1.2750,
	"USD/JPY": 148.00,
	"AUD/USD": 0.6780,
	"USD/CAD": 1.3420,
	"USD/CHF": 0.8950,
	"NZD/USD": 0.6250,
	"EUR/GBP": 0.8750,
	"EUR/JPY": 162.00,
	"GBP/JPY": 185.00,
}

// volatilities are per-bar fractional price moves per instrument.
var volatilities = map[string]float64{
	"EUR/USD": 0.002,
	"GBP/USD": 0.003,
	"USD/JPY": 0.002,
	"AUD/USD": 0.004,
	"USD/CAD": 0.002,
	"USD/CHF": 0.002,
	"NZD/USD": 0.004,
	"EUR/GBP": 0.002,
	"EUR/JPY": 0.003,
	"GBP/JPY": 0.004,
}

// Synthetic generates a plausible random-walk candle series. It is the last
// provider in the chain so analysis can proceed when every upstream is down,
// and the only provider used in tests.
type Synthetic struct {
	rng *rand.Rand

	// Injected clock; candles are stamped backwards from it.
	now func() time.Time
}

// NewSynthetic creates a generator seeded from the given source. A fixed seed
// makes the series reproducible.
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

func (s *Synthetic) Name() string { return "Synthetic" }

// Fetch generates count candles ending at the current bar. Each bar opens at
// the previous close, moves by a uniform step scaled to the pair's
// volatility, and extends high/low beyond the body. Volumes land in the
// 800-2300 range so the volume check sees realistic variation.
func (s *Synthetic) Fetch(_ context.Context, pair string, interval market.Interval, count int) (market.Series, error) {
	base, ok := basePrices[pair]
	if !ok {
		base = 1.0
	}
	vol, ok := volatilities[pair]
	if !ok {
		vol = 0.002
	}

	barDur := interval.Duration()
	end := s.now().UTC().Truncate(barDur)

	candles := make(market.Series, 0, count)
	price := base

	for i := count - 1; i >= 0; i-- {
		open := price
		change := (s.rng.Float64() - 0.5) * vol * price
		closeP := open + change

		hi := open
		if closeP > hi {
			hi = closeP
		}
		lo := open
		if closeP < lo {
			lo = closeP
		}
		hi += s.rng.Float64() * vol * price * 0.3
		lo -= s.rng.Float64() * vol * price * 0.3

		candles = append(candles, market.Candle{
			Time:   end.Add(-time.Duration(i) * barDur),
			Open:   fxDecimal(open),
			High:   fxDecimal(hi),
			Low:    fxDecimal(lo),
			Close:  fxDecimal(closeP),
			Volume: int64(s.rng.Intn(1500)) + 800,
		})

		price = closeP
	}

	return candles, nil
}

// fxDecimal rounds to the 5 decimal places of a forex quote.
func fxDecimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(5)
}
