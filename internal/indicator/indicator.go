// Package indicator implements the technical-indicator engine: pure,
// deterministic transforms of price/volume history. Nothing in this package
// holds state or performs I/O, which keeps every computation reproducible.
package indicator

import (
	"math"

	"github.com/wonny/fxsignal/internal/market"
)

// SMA computes the simple moving average of each trailing window of length
// period. The result has len(series)-period+1 values; it is empty when the
// series is shorter than the period.
func SMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA computes the exponential moving average with multiplier 2/(period+1).
// The first output value is the SMA of the first period inputs; no back-fill,
// so the result has len(series)-period+1 values.
func EMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	mult := 2.0 / (float64(period) + 1.0)

	seed := 0.0
	for _, v := range series[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(series)-period+1)
	out = append(out, seed)

	prev := seed
	for _, v := range series[period:] {
		prev = v*mult + prev*(1-mult)
		out = append(out, prev)
	}
	return out
}

// RSI computes the relative strength index. The first value seeds the average
// gain/loss with a simple mean over the first period deltas; the rest use
// Wilder smoothing. A zero average loss pins RSI at 100.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(gains)-period+1)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the three MACD series. The signal line trails the MACD
// line by signalPeriod-1 points and the histogram is aligned to the signal
// line's length.
type MACDResult struct {
	MACDLine   []float64
	SignalLine []float64
	Histogram  []float64
}

// MACD computes the moving average convergence/divergence series.
// The fast and slow EMAs start at different indices; offset slow-fast aligns
// them so macdLine[i] subtracts values for the same bar.
func MACD(prices []float64, fast, slow, signalPeriod int) MACDResult {
	if len(prices) < slow {
		return MACDResult{}
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	offset := slow - fast
	macdLine := make([]float64, len(slowEMA))
	for i := range slowEMA {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine := EMA(macdLine, signalPeriod)

	histStart := len(macdLine) - len(signalLine)
	histogram := make([]float64, len(signalLine))
	for i := range signalLine {
		histogram[i] = macdLine[i+histStart] - signalLine[i]
	}

	return MACDResult{
		MACDLine:   macdLine,
		SignalLine: signalLine,
		Histogram:  histogram,
	}
}

// BollingerResult holds the three Bollinger band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes middle = SMA(period) and upper/lower bands at
// k population standard deviations around it.
func BollingerBands(prices []float64, period int, k float64) BollingerResult {
	if period <= 0 || len(prices) < period {
		return BollingerResult{}
	}

	middle := SMA(prices, period)
	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))

	for i := range middle {
		window := prices[i : i+period]
		mean := middle[i]

		variance := 0.0
		for _, p := range window {
			d := p - mean
			variance += d * d
		}
		variance /= float64(period)
		stddev := math.Sqrt(variance)

		upper[i] = mean + k*stddev
		lower[i] = mean - k*stddev
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}

// ATR computes the average true range: the EMA over per-bar true ranges,
// where true range is max(high-low, |high-prevClose|, |low-prevClose|).
// The series must be oldest-first.
func ATR(candles market.Series, period int) []float64 {
	if len(candles) < period+1 {
		return nil
	}

	highs := candles.Highs()
	lows := candles.Lows()
	closes := candles.Closes()

	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		trueRanges = append(trueRanges, tr)
	}

	return EMA(trueRanges, period)
}

// StochasticResult holds the %K and %D oscillator series.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes %K = (close-lowestLow)/(highestHigh-lowestLow)*100 over
// the trailing kPeriod window and %D = SMA(%K, dPeriod). A flat window (zero
// range) yields %K = 50. The series must be oldest-first.
func Stochastic(candles market.Series, kPeriod, dPeriod int) StochasticResult {
	if kPeriod <= 0 || len(candles) < kPeriod {
		return StochasticResult{}
	}

	highs := candles.Highs()
	lows := candles.Lows()
	closes := candles.Closes()

	k := make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		highest := highs[i-kPeriod+1]
		lowest := lows[i-kPeriod+1]
		for j := i - kPeriod + 2; j <= i; j++ {
			if highs[j] > highest {
				highest = highs[j]
			}
			if lows[j] < lowest {
				lowest = lows[j]
			}
		}

		if highest == lowest {
			k = append(k, 50)
			continue
		}
		k = append(k, (closes[i]-lowest)/(highest-lowest)*100)
	}

	return StochasticResult{K: k, D: SMA(k, dPeriod)}
}
