package indicator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxsignal/internal/market"
)

func constantSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 2, got[0], 1e-9)
	assert.InDelta(t, 3, got[1], 1e-9)
	assert.InDelta(t, 4, got[2], 1e-9)
}

func TestSMA_InsufficientData(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 3))
	assert.Nil(t, SMA(nil, 3))
	assert.Nil(t, SMA([]float64{1, 2, 3}, 0))
}

func TestEMA_SeedIsSMA(t *testing.T) {
	// seed = SMA(1,2,3) = 2; mult = 0.5
	// next = 4*0.5 + 2*0.5 = 3; next = 5*0.5 + 3*0.5 = 4
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 2, got[0], 1e-9)
	assert.InDelta(t, 3, got[1], 1e-9)
	assert.InDelta(t, 4, got[2], 1e-9)
}

func TestEMA_ConstantSeriesStaysFlat(t *testing.T) {
	got := EMA(constantSeries(1.1, 40), 12)
	require.Len(t, got, 29)
	for _, v := range got {
		assert.InDelta(t, 1.1, v, 1e-9)
	}
}

func TestRSI_Extremes(t *testing.T) {
	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := range rising {
		rising[i] = 1.0 + float64(i)*0.01
		falling[i] = 2.0 - float64(i)*0.01
	}

	up := RSI(rising, 14)
	require.Len(t, up, 6)
	for _, v := range up {
		assert.InDelta(t, 100, v, 1e-9, "all gains should pin RSI at 100")
	}

	down := RSI(falling, 14)
	require.Len(t, down, 6)
	for _, v := range down {
		assert.InDelta(t, 0, v, 1e-9, "all losses should pin RSI at 0")
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	assert.Nil(t, RSI(constantSeries(1, 14), 14))
}

func TestMACD_Alignment(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 1.0 + float64(i)*0.001
	}

	res := MACD(prices, 12, 26, 9)

	// slowEMA has len-26+1 points; macdLine matches it, the signal line
	// trails by 8 and the histogram matches the signal line.
	require.Len(t, res.MACDLine, 35)
	require.Len(t, res.SignalLine, 27)
	require.Len(t, res.Histogram, 27)
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	res := MACD(constantSeries(1.25, 60), 12, 26, 9)
	for _, v := range res.MACDLine {
		assert.InDelta(t, 0, v, 1e-9)
	}
	for i := range res.Histogram {
		assert.InDelta(t, 0, res.Histogram[i], 1e-9)
	}
}

func TestMACD_InsufficientData(t *testing.T) {
	res := MACD(constantSeries(1, 20), 12, 26, 9)
	assert.Empty(t, res.MACDLine)
}

func TestBollingerBands_ConstantSeries(t *testing.T) {
	res := BollingerBands(constantSeries(1.5, 30), 20, 2)
	require.Len(t, res.Middle, 11)
	for i := range res.Middle {
		assert.InDelta(t, 1.5, res.Middle[i], 1e-9)
		assert.InDelta(t, 1.5, res.Upper[i], 1e-9, "zero stddev keeps bands on the mean")
		assert.InDelta(t, 1.5, res.Lower[i], 1e-9)
	}
}

func TestBollingerBands_BandsAreSymmetric(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	res := BollingerBands(prices, 5, 2)
	require.NotEmpty(t, res.Middle)

	for i := range res.Middle {
		up := res.Upper[i] - res.Middle[i]
		down := res.Middle[i] - res.Lower[i]
		assert.InDelta(t, up, down, 1e-9)
		assert.Greater(t, up, 0.0)
	}
}

func testCandle(ts time.Time, open, high, low, closeP float64) market.Candle {
	return market.Candle{
		Time:   ts,
		Open:   decimal.NewFromFloat(open),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(closeP),
		Volume: 1000,
	}
}

func TestATR_ConstantRange(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make(market.Series, 30)
	for i := range candles {
		// Every bar spans exactly 0.02 with no gaps between bars.
		candles[i] = testCandle(start.Add(time.Duration(i)*5*time.Minute), 1.10, 1.12, 1.10, 1.10)
	}

	got := ATR(candles, 14)
	require.NotEmpty(t, got)
	for _, v := range got {
		assert.InDelta(t, 0.02, v, 1e-9)
	}
}

func TestStochastic_FlatWindowIsFifty(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make(market.Series, 20)
	for i := range candles {
		candles[i] = testCandle(start.Add(time.Duration(i)*5*time.Minute), 1.10, 1.10, 1.10, 1.10)
	}

	res := Stochastic(candles, 14, 3)
	require.NotEmpty(t, res.K)
	for _, k := range res.K {
		assert.InDelta(t, 50, k, 1e-9)
	}
}

func TestStochastic_CloseAtHighIsHundred(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make(market.Series, 20)
	for i := range candles {
		base := 1.10 + float64(i)*0.01
		candles[i] = testCandle(start.Add(time.Duration(i)*5*time.Minute), base-0.005, base, base-0.01, base)
	}

	res := Stochastic(candles, 14, 3)
	require.NotEmpty(t, res.K)
	assert.InDelta(t, 100, res.K[len(res.K)-1], 1e-9)

	require.NotEmpty(t, res.D)
	assert.InDelta(t, 100, res.D[len(res.D)-1], 1e-9)
}
