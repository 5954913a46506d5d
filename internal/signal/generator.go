package signal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/pkg/logger"
)

// Rule thresholds are fixed: candidates are generated liberally and it is the
// quality gate's job to filter them against configurable limits.
const (
	rsiOversold     = 30.0
	rsiOverbought   = 70.0
	stochOversold   = 20.0
	stochOverbought = 80.0

	// Minimum number of same-direction candidates before an aggregate
	// MULTI_* signal is added on top.
	multiSignalMin = 3
)

// Generator derives candidate signals from one indicator snapshot.
// Each rule contributes at most one candidate per cycle.
type Generator struct {
	logger *logger.Logger
}

// NewGenerator creates a signal generator.
func NewGenerator(log *logger.Logger) *Generator {
	return &Generator{logger: log}
}

// Generate applies the per-indicator rules to the snapshot and returns all
// candidates. The aggregate MULTI_* rule runs last: with multiSignalMin or
// more candidates agreeing on a direction it emits one extra candidate so the
// gate can weigh consensus. That deliberately double-counts evidence already
// present in the individual candidates.
func (g *Generator) Generate(snap *indicator.Snapshot) []Signal {
	price := snap.Price
	signals := make([]Signal, 0, 6)

	// RSI
	if snap.RSI <= rsiOversold {
		signals = append(signals, Signal{
			Type:      TypeRSIOversold,
			Direction: Buy,
			Price:     price,
			Source:    "RSI",
			Priority:  PriorityHigh,
			Reason:    fmt.Sprintf("RSI in oversold territory: %.2f", snap.RSI),
		})
	} else if snap.RSI >= rsiOverbought {
		signals = append(signals, Signal{
			Type:      TypeRSIOverbought,
			Direction: Sell,
			Price:     price,
			Source:    "RSI",
			Priority:  PriorityHigh,
			Reason:    fmt.Sprintf("RSI in overbought territory: %.2f", snap.RSI),
		})
	}

	// MACD
	if snap.MACDHistogram > 0 && snap.MACDLine > snap.MACDSignal {
		signals = append(signals, Signal{
			Type:      TypeMACDBullish,
			Direction: Buy,
			Price:     price,
			Source:    "MACD",
			Priority:  PriorityMedium,
			Reason:    fmt.Sprintf("MACD bullish: histogram = %.6f", snap.MACDHistogram),
		})
	} else if snap.MACDHistogram < 0 && snap.MACDLine < snap.MACDSignal {
		signals = append(signals, Signal{
			Type:      TypeMACDBearish,
			Direction: Sell,
			Price:     price,
			Source:    "MACD",
			Priority:  PriorityMedium,
			Reason:    fmt.Sprintf("MACD bearish: histogram = %.6f", snap.MACDHistogram),
		})
	}

	// Stochastic
	if snap.StochasticK <= stochOversold && snap.StochasticD <= stochOversold {
		signals = append(signals, Signal{
			Type:      TypeStochOversold,
			Direction: Buy,
			Price:     price,
			Source:    "Stochastic",
			Priority:  PriorityMedium,
			Reason: fmt.Sprintf("Stochastic in oversold territory: K=%.2f, D=%.2f",
				snap.StochasticK, snap.StochasticD),
		})
	} else if snap.StochasticK >= stochOverbought && snap.StochasticD >= stochOverbought {
		signals = append(signals, Signal{
			Type:      TypeStochOverbought,
			Direction: Sell,
			Price:     price,
			Source:    "Stochastic",
			Priority:  PriorityMedium,
			Reason: fmt.Sprintf("Stochastic in overbought territory: K=%.2f, D=%.2f",
				snap.StochasticK, snap.StochasticD),
		})
	}

	// Bollinger Bands. Price is an exact decimal; compare against the bands
	// as decimals so a 5-decimal touch does not flip on float noise.
	if price.LessThanOrEqual(decimal.NewFromFloat(snap.BBLower)) {
		signals = append(signals, Signal{
			Type:      TypeBBLowerTouch,
			Direction: Buy,
			Price:     price,
			Source:    "BollingerBands",
			Priority:  PriorityMedium,
			Reason:    fmt.Sprintf("price touched lower Bollinger band: %.5f", snap.BBLower),
		})
	} else if price.GreaterThanOrEqual(decimal.NewFromFloat(snap.BBUpper)) {
		signals = append(signals, Signal{
			Type:      TypeBBUpperTouch,
			Direction: Sell,
			Price:     price,
			Source:    "BollingerBands",
			Priority:  PriorityMedium,
			Reason:    fmt.Sprintf("price touched upper Bollinger band: %.5f", snap.BBUpper),
		})
	}

	// EMA trend
	if snap.EMA12 > snap.EMA26 && snap.PriceFloat() > snap.EMA50 {
		signals = append(signals, Signal{
			Type:      TypeEMABullish,
			Direction: Buy,
			Price:     price,
			Source:    "EMA",
			Priority:  PriorityLow,
			Reason:    "moving averages bullish: EMA12 > EMA26 and price > EMA50",
		})
	} else if snap.EMA12 < snap.EMA26 && snap.PriceFloat() < snap.EMA50 {
		signals = append(signals, Signal{
			Type:      TypeEMABearish,
			Direction: Sell,
			Price:     price,
			Source:    "EMA",
			Priority:  PriorityLow,
			Reason:    "moving averages bearish: EMA12 < EMA26 and price < EMA50",
		})
	}

	// Aggregate consensus signal
	bullish := 0
	bearish := 0
	for _, s := range signals {
		if s.Direction == Buy {
			bullish++
		} else {
			bearish++
		}
	}

	if bullish >= multiSignalMin {
		signals = append(signals, Signal{
			Type:      TypeMultiBullish,
			Direction: Buy,
			Price:     price,
			Source:    "MultiIndicator",
			Priority:  PriorityVeryHigh,
			Reason:    fmt.Sprintf("composite bullish signal from %d indicators", bullish),
		})
	} else if bearish >= multiSignalMin {
		signals = append(signals, Signal{
			Type:      TypeMultiBearish,
			Direction: Sell,
			Price:     price,
			Source:    "MultiIndicator",
			Priority:  PriorityVeryHigh,
			Reason:    fmt.Sprintf("composite bearish signal from %d indicators", bearish),
		})
	}

	g.logger.WithFields(map[string]interface{}{
		"candidates": len(signals),
		"bullish":    bullish,
		"bearish":    bearish,
	}).Debug("Generated candidate signals")

	return signals
}
