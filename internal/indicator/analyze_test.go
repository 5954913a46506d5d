package indicator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxsignal/internal/market"
)

// uptrendSeries builds n candles with a steady 0.0005 rise per bar.
func uptrendSeries(n int) market.Series {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make(market.Series, n)

	price := 1.0800
	for i := range candles {
		closeP := price + 0.0005
		candles[i] = market.Candle{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   decimal.NewFromFloat(price).Round(5),
			High:   decimal.NewFromFloat(closeP + 0.0003).Round(5),
			Low:    decimal.NewFromFloat(price - 0.0003).Round(5),
			Close:  decimal.NewFromFloat(closeP).Round(5),
			Volume: int64(1000 + i),
		}
		price = closeP
	}
	return candles
}

func TestAnalyze_RejectsShortHistory(t *testing.T) {
	_, err := Analyze(uptrendSeries(49))
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrInsufficientData)
}

func TestAnalyze_AcceptsExactlyMinCandles(t *testing.T) {
	analysis, err := Analyze(uptrendSeries(50))
	require.NoError(t, err)
	assert.Equal(t, 50, analysis.DataPoints)
}

func TestAnalyze_NormalizesInputOrder(t *testing.T) {
	candles := uptrendSeries(60)

	fromOldest, err := Analyze(candles)
	require.NoError(t, err)

	fromNewest, err := Analyze(candles.NewestFirst())
	require.NoError(t, err)

	assert.True(t, fromOldest.CurrentPrice.Equal(fromNewest.CurrentPrice))
	assert.Equal(t, fromOldest.Timestamp, fromNewest.Timestamp)
	assert.InDelta(t, lastOrZero(fromOldest.RSI), lastOrZero(fromNewest.RSI), 1e-9)
}

func TestAnalyze_PriceFields(t *testing.T) {
	candles := uptrendSeries(60)
	analysis, err := Analyze(candles)
	require.NoError(t, err)

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	assert.True(t, analysis.CurrentPrice.Equal(last.Close))
	assert.True(t, analysis.PreviousPrice.Equal(prev.Close))
	assert.True(t, analysis.PriceChange.Equal(last.Close.Sub(prev.Close)))
	assert.Greater(t, analysis.PriceChangePercent, 0.0)
	assert.Equal(t, last.Time, analysis.Timestamp)
}

func TestAnalyze_EMA200EmptyBelow200Candles(t *testing.T) {
	analysis, err := Analyze(uptrendSeries(60))
	require.NoError(t, err)

	assert.Empty(t, analysis.EMA200)
	assert.Zero(t, analysis.Latest().EMA200)
}

func TestLatest_ProjectsSeriesTails(t *testing.T) {
	analysis, err := Analyze(uptrendSeries(60))
	require.NoError(t, err)

	snap := analysis.Latest()
	assert.InDelta(t, lastOrZero(analysis.RSI), snap.RSI, 1e-9)
	assert.InDelta(t, lastOrZero(analysis.EMA12), snap.EMA12, 1e-9)
	assert.InDelta(t, lastOrZero(analysis.MACD.Histogram), snap.MACDHistogram, 1e-9)
	assert.InDelta(t, lastOrZero(analysis.Bollinger.Upper), snap.BBUpper, 1e-9)
	assert.True(t, snap.Price.Equal(analysis.CurrentPrice))
}

func TestDetermineTrend(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
		want Trend
	}{
		{
			name: "all votes bullish",
			snap: &Snapshot{
				Price: decimal.NewFromFloat(1.10), EMA50: 1.09,
				EMA12: 1.10, EMA26: 1.09,
				SMA20: 1.10, SMA50: 1.09,
				MACDLine: 0.002, MACDSignal: 0.001, MACDHistogram: 0.001,
				RSI: 60,
			},
			want: TrendBullish,
		},
		{
			name: "all votes bearish",
			snap: &Snapshot{
				Price: decimal.NewFromFloat(1.08), EMA50: 1.09,
				EMA12: 1.08, EMA26: 1.09,
				SMA20: 1.08, SMA50: 1.09,
				MACDLine: -0.002, MACDSignal: -0.001, MACDHistogram: -0.001,
				RSI: 40,
			},
			want: TrendBearish,
		},
		{
			name: "split votes are sideways",
			snap: &Snapshot{
				Price: decimal.NewFromFloat(1.10), EMA50: 1.09,
				EMA12: 1.10, EMA26: 1.09,
				SMA20: 1.08, SMA50: 1.09,
				MACDLine: -0.002, MACDSignal: -0.001, MACDHistogram: -0.001,
				RSI: 60,
			},
			want: TrendSideways,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineTrend(tt.snap))
		})
	}
}

func TestDetermineTrend_UptrendFixture(t *testing.T) {
	analysis, err := Analyze(uptrendSeries(60))
	require.NoError(t, err)

	assert.Equal(t, TrendBullish, DetermineTrend(analysis.Latest()))
}
