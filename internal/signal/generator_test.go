package signal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/pkg/logger"
)

// neutralSnapshot fires no generation rule.
func neutralSnapshot() *indicator.Snapshot {
	return &indicator.Snapshot{
		Price: decimal.NewFromFloat(1.1000),
		RSI:   50,
		EMA12: 1.1000, EMA26: 1.1000, EMA50: 1.1000,
		MACDLine: 0, MACDSignal: 0, MACDHistogram: 0,
		StochasticK: 50, StochasticD: 50,
		BBUpper: 1.1500, BBMiddle: 1.1000, BBLower: 1.0500,
		ATR: 0.005,
	}
}

func findSignal(signals []Signal, typ string) *Signal {
	for i := range signals {
		if signals[i].Type == typ {
			return &signals[i]
		}
	}
	return nil
}

func TestGenerate_NeutralSnapshotYieldsNothing(t *testing.T) {
	gen := NewGenerator(logger.Nop())
	assert.Empty(t, gen.Generate(neutralSnapshot()))
}

func TestGenerate_RSIOversold(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.RSI = 25

	signals := gen.Generate(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, TypeRSIOversold, signals[0].Type)
	assert.Equal(t, Buy, signals[0].Direction)
	assert.Equal(t, PriorityHigh, signals[0].Priority)
	assert.Equal(t, "RSI", signals[0].Source)
}

func TestGenerate_RSIOverbought(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.RSI = 75

	signals := gen.Generate(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, TypeRSIOverbought, signals[0].Type)
	assert.Equal(t, Sell, signals[0].Direction)
}

func TestGenerate_MACDRequiresHistogramAndCross(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.MACDHistogram = 0.0005
	snap.MACDLine = 0.002
	snap.MACDSignal = 0.0015

	signals := gen.Generate(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, TypeMACDBullish, signals[0].Type)

	// Positive histogram alone is not enough.
	snap.MACDLine = 0.001
	snap.MACDSignal = 0.0015
	assert.Empty(t, gen.Generate(snap))
}

func TestGenerate_StochasticNeedsBothLines(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.StochasticK = 15
	snap.StochasticD = 18

	signals := gen.Generate(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, TypeStochOversold, signals[0].Type)
	assert.Equal(t, Buy, signals[0].Direction)

	// %K in the zone with %D outside does not fire.
	snap.StochasticD = 30
	assert.Empty(t, gen.Generate(snap))
}

func TestGenerate_BollingerTouchIsInclusive(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.Price = decimal.NewFromFloat(1.0500) // exactly on the lower band

	signals := gen.Generate(snap)
	sig := findSignal(signals, TypeBBLowerTouch)
	require.NotNil(t, sig)
	assert.Equal(t, Buy, sig.Direction)
}

func TestGenerate_EMATrend(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.EMA12 = 1.1010
	snap.EMA26 = 1.1000
	snap.EMA50 = 1.0950 // price 1.1000 above EMA50

	signals := gen.Generate(snap)
	sig := findSignal(signals, TypeEMABullish)
	require.NotNil(t, sig)
	assert.Equal(t, PriorityLow, sig.Priority)
}

func TestGenerate_MultiSignalConsensus(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.RSI = 25
	snap.MACDHistogram = 0.0005
	snap.MACDLine = 0.002
	snap.MACDSignal = 0.0015
	snap.StochasticK = 15
	snap.StochasticD = 15
	snap.Price = decimal.NewFromFloat(1.0400) // below lower band
	snap.EMA12 = 1.1010
	snap.EMA26 = 1.1000
	snap.EMA50 = 1.0300

	signals := gen.Generate(snap)
	require.Len(t, signals, 6, "five rules plus the aggregate")

	multi := findSignal(signals, TypeMultiBullish)
	require.NotNil(t, multi)
	assert.Equal(t, Buy, multi.Direction)
	assert.Equal(t, PriorityVeryHigh, multi.Priority)
	assert.Equal(t, "MultiIndicator", multi.Source)
}

func TestGenerate_TwoSignalsDoNotTriggerMulti(t *testing.T) {
	gen := NewGenerator(logger.Nop())

	snap := neutralSnapshot()
	snap.RSI = 25
	snap.StochasticK = 15
	snap.StochasticD = 15

	signals := gen.Generate(snap)
	require.Len(t, signals, 2)
	assert.Nil(t, findSignal(signals, TypeMultiBullish))
}
