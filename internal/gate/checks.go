package gate

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/internal/signal"
)

// Weighted strength components: RSI 25, MACD 25, Stochastic 20, EMA distance
// 20, ATR regime 10. The sum is already on a 0-100 scale.
const maxStrength = 25 + 25 + 20 + 20 + 10

// signalStrength scores how decisively the indicators are positioned,
// independent of direction. Each component grants its full weight in an
// extreme regime, a middle award in a leaning regime, and a token award when
// flat.
func (g *QualityGate) signalStrength(snap *indicator.Snapshot) int {
	score := 0.0

	// RSI: full weight at the extremes, partial outside the neutral band.
	switch {
	case snap.RSI <= g.cfg.RSIOversold || snap.RSI >= g.cfg.RSIOverbought:
		score += 25
	case snap.RSI < g.cfg.RSINeutralMin || snap.RSI > g.cfg.RSINeutralMax:
		score += 15
	default:
		score += 5
	}

	// MACD: histogram magnitude relative to the minimum meaningful size.
	histMag := math.Abs(snap.MACDHistogram)
	switch {
	case histMag > g.cfg.MACDMinHistogram*3:
		score += 25
	case histMag > g.cfg.MACDMinHistogram:
		score += 15
	default:
		score += 5
	}

	// Stochastic
	switch {
	case snap.StochasticK <= g.cfg.StochOversold || snap.StochasticK >= g.cfg.StochOverbought:
		score += 20
	case snap.StochasticK < 40 || snap.StochasticK > 60:
		score += 12
	default:
		score += 4
	}

	// EMA separation as a fraction of price.
	price := snap.PriceFloat()
	emaDist := 0.0
	if price != 0 {
		emaDist = math.Abs(snap.EMA12-snap.EMA26) / price
	}
	switch {
	case emaDist > 0.003:
		score += 20
	case emaDist > 0.001:
		score += 12
	default:
		score += 4
	}

	// ATR regime: a moderate range is tradeable, dead or frantic is not.
	atrPct := 0.0
	if price != 0 {
		atrPct = snap.ATR / price * 100
	}
	switch {
	case atrPct > 0.3 && atrPct < 1.5:
		score += 10
	case atrPct > 0.1 && atrPct < 2.0:
		score += 6
	default:
		score += 2
	}

	return int(score/maxStrength*100 + 0.5)
}

// confirmingIndicators returns the names of the checks, out of six, that
// agree with the candidate's direction.
func (g *QualityGate) confirmingIndicators(dir signal.Direction, snap *indicator.Snapshot) []string {
	var confirmed []string
	buy := dir == signal.Buy

	if (buy && snap.RSI < g.cfg.RSIOversold) || (!buy && snap.RSI > g.cfg.RSIOverbought) {
		confirmed = append(confirmed, "RSI")
	}

	if (buy && snap.MACDHistogram > g.cfg.MACDMinHistogram) ||
		(!buy && snap.MACDHistogram < -g.cfg.MACDMinHistogram) {
		confirmed = append(confirmed, "MACD")
	}

	if (buy && snap.StochasticK < g.cfg.StochOversold) ||
		(!buy && snap.StochasticK > g.cfg.StochOverbought) {
		confirmed = append(confirmed, "Stochastic")
	}

	if (buy && snap.EMA12 > snap.EMA26) || (!buy && snap.EMA12 < snap.EMA26) {
		confirmed = append(confirmed, "EMA_CROSS")
	}

	price := snap.PriceFloat()
	if (buy && price > snap.EMA50) || (!buy && price < snap.EMA50) {
		confirmed = append(confirmed, "PRICE_VS_EMA50")
	}

	if (buy && snap.Price.LessThanOrEqual(decimal.NewFromFloat(snap.BBLower))) ||
		(!buy && snap.Price.GreaterThanOrEqual(decimal.NewFromFloat(snap.BBUpper))) {
		confirmed = append(confirmed, "BOLLINGER")
	}

	return confirmed
}

type volumeCheck struct {
	Adequate bool
	Ratio    float64
}

// checkVolume compares the latest bar's volume against the average of all
// positive volumes in the window. Short histories and feeds that report no
// volume pass by default rather than vetoing every signal.
func (g *QualityGate) checkVolume(ordered market.Series) volumeCheck {
	if len(ordered) < 20 {
		return volumeCheck{Adequate: true, Ratio: 1}
	}

	var sum int64
	count := 0
	for _, c := range ordered {
		if c.Volume > 0 {
			sum += c.Volume
			count++
		}
	}
	if count == 0 {
		return volumeCheck{Adequate: true, Ratio: 1}
	}

	avg := float64(sum) / float64(count)
	ratio := float64(ordered.Last().Volume) / avg

	return volumeCheck{Adequate: ratio >= g.cfg.MinVolumeRatio, Ratio: ratio}
}

type volatilityCheck struct {
	Acceptable bool
	Percent    float64
}

// checkVolatility bounds ATR as a percentage of price.
func (g *QualityGate) checkVolatility(snap *indicator.Snapshot) volatilityCheck {
	price := snap.PriceFloat()
	if price == 0 {
		return volatilityCheck{Acceptable: false, Percent: 0}
	}

	pct := snap.ATR / price * 100
	return volatilityCheck{Acceptable: pct <= g.cfg.MaxVolatility, Percent: pct}
}

// checkConflicts lists indicators actively pointing against the candidate's
// direction. Neutral readings are not conflicts.
func (g *QualityGate) checkConflicts(dir signal.Direction, snap *indicator.Snapshot) []string {
	var conflicts []string
	buy := dir == signal.Buy

	if buy && snap.RSI > g.cfg.RSIOverbought {
		conflicts = append(conflicts, "RSI in overbought territory")
	}
	if !buy && snap.RSI < g.cfg.RSIOversold {
		conflicts = append(conflicts, "RSI in oversold territory")
	}

	if buy && snap.MACDHistogram < -g.cfg.MACDMinHistogram {
		conflicts = append(conflicts, "MACD points bearish")
	}
	if !buy && snap.MACDHistogram > g.cfg.MACDMinHistogram {
		conflicts = append(conflicts, "MACD points bullish")
	}

	if buy && snap.EMA12 < snap.EMA26 {
		conflicts = append(conflicts, "moving averages point bearish")
	}
	if !buy && snap.EMA12 > snap.EMA26 {
		conflicts = append(conflicts, "moving averages point bullish")
	}

	return conflicts
}

type levelCheck struct {
	Safe     bool
	Level    string // "support" or "resistance"
	Distance float64
}

// checkSupportResistance measures the relative distance from price to the
// extremes of the trailing 50 candles. Distances are computed on the exact
// decimal prices so a five-decimal pip boundary does not wobble.
func (g *QualityGate) checkSupportResistance(snap *indicator.Snapshot, ordered market.Series) levelCheck {
	if len(ordered) < 50 {
		return levelCheck{Safe: true}
	}

	window := ordered[len(ordered)-50:]
	resistance := window.HighestHigh()
	support := window.LowestLow()

	price := snap.Price
	if price.IsZero() {
		return levelCheck{Safe: true}
	}

	toResistance := resistance.Sub(price).Abs().Div(price)
	toSupport := price.Sub(support).Abs().Div(price)
	minDistance := decimal.NewFromFloat(g.cfg.MinSupportResistanceDistance)

	if toResistance.LessThan(minDistance) {
		d, _ := toResistance.Float64()
		return levelCheck{Safe: false, Level: "resistance", Distance: d}
	}
	if toSupport.LessThan(minDistance) {
		d, _ := toSupport.Float64()
		return levelCheck{Safe: false, Level: "support", Distance: d}
	}

	return levelCheck{Safe: true}
}

type timingCheck struct {
	Optimal bool
	Reason  string
}

// checkMarketTiming applies a coarse UTC session heuristic: weekends are
// closed, the dead hours around the New York close are quiet, and the
// London/New York overlaps are preferred.
func (g *QualityGate) checkMarketTiming() timingCheck {
	now := g.now().UTC()

	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return timingCheck{Optimal: false, Reason: "weekend - market closed"}
	}

	hour := now.Hour()
	switch {
	case hour >= 22 || hour <= 2:
		return timingCheck{Optimal: false, Reason: "quiet trading hours"}
	case (hour >= 8 && hour <= 10) || (hour >= 13 && hour <= 16):
		return timingCheck{Optimal: true, Reason: "optimal trading window"}
	default:
		return timingCheck{Optimal: true, Reason: "acceptable trading time"}
	}
}
