package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() Series {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mk := func(offset int, closeP string) Candle {
		c, _ := decimal.NewFromString(closeP)
		return Candle{
			Time:   base.Add(time.Duration(offset) * 5 * time.Minute),
			Open:   c.Sub(decimal.NewFromFloat(0.0002)),
			High:   c.Add(decimal.NewFromFloat(0.0003)),
			Low:    c.Sub(decimal.NewFromFloat(0.0004)),
			Close:  c,
			Volume: int64(1000 + offset),
		}
	}

	// Deliberately unordered.
	return Series{mk(2, "1.0854"), mk(0, "1.0850"), mk(1, "1.0852")}
}

func TestSeries_Ordering(t *testing.T) {
	s := sampleSeries()

	oldest := s.OldestFirst()
	require.Len(t, oldest, 3)
	assert.True(t, oldest[0].Time.Before(oldest[1].Time))
	assert.True(t, oldest[1].Time.Before(oldest[2].Time))

	newest := s.NewestFirst()
	assert.True(t, newest[0].Time.After(newest[1].Time))

	// Sorting returns copies; the original stays untouched.
	assert.Equal(t, "1.0854", s[0].Close.String())
}

func TestSeries_Extractors(t *testing.T) {
	s := sampleSeries().OldestFirst()

	closes := s.Closes()
	require.Len(t, closes, 3)
	assert.InDelta(t, 1.0850, closes[0], 1e-9)
	assert.InDelta(t, 1.0854, closes[2], 1e-9)

	volumes := s.Volumes()
	assert.Equal(t, []int64{1000, 1001, 1002}, volumes)

	assert.True(t, s.Last().Close.Equal(decimal.RequireFromString("1.0854")))
}

func TestSeries_Extremes(t *testing.T) {
	s := sampleSeries()

	high := s.HighestHigh()
	low := s.LowestLow()

	assert.True(t, high.Equal(decimal.RequireFromString("1.0857")))
	assert.True(t, low.Equal(decimal.RequireFromString("1.0846")))
}

func TestInterval_Duration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Interval5Min.Duration())
	assert.Equal(t, 4*time.Hour, Interval4H.Duration())
	assert.Equal(t, 24*time.Hour, Interval1Day.Duration())
	assert.Equal(t, 5*time.Minute, Interval("2min").Duration(), "unknown intervals fall back")
}

func TestInterval_Known(t *testing.T) {
	assert.True(t, Interval1Min.Known())
	assert.False(t, Interval("2min").Known())
}
