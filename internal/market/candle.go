package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents one OHLCV bar for a fixed time interval.
// Prices are decimals to keep 5-decimal forex quotes exact; binary floats
// flip comparisons like Bollinger touches at that precision.
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Series is an ordered sequence of candles.
// Providers may deliver either newest-first or oldest-first; indicator math
// always runs on an oldest-first series.
type Series []Candle

// OldestFirst returns a copy of the series sorted by ascending timestamp.
func (s Series) OldestFirst() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// NewestFirst returns a copy of the series sorted by descending timestamp.
// This is the external reporting order.
func (s Series) NewestFirst() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})
	return out
}

// Last returns the final candle of the series. The series must be non-empty.
func (s Series) Last() Candle {
	return s[len(s)-1]
}

// Closes extracts close prices as floats for indicator math.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i], _ = c.Close.Float64()
	}
	return out
}

// Highs extracts high prices as floats.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i], _ = c.High.Float64()
	}
	return out
}

// Lows extracts low prices as floats.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i], _ = c.Low.Float64()
	}
	return out
}

// Volumes extracts volumes.
func (s Series) Volumes() []int64 {
	out := make([]int64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// HighestHigh returns the maximum high over the series as an exact decimal.
func (s Series) HighestHigh() decimal.Decimal {
	max := s[0].High
	for _, c := range s[1:] {
		if c.High.GreaterThan(max) {
			max = c.High
		}
	}
	return max
}

// LowestLow returns the minimum low over the series as an exact decimal.
func (s Series) LowestLow() decimal.Decimal {
	min := s[0].Low
	for _, c := range s[1:] {
		if c.Low.LessThan(min) {
			min = c.Low
		}
	}
	return min
}
