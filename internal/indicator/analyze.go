package indicator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/market"
)

// MinCandles is the minimum history length Analyze accepts.
const MinCandles = 50

// Analysis holds the full indicator series computed from one candle history.
// It is produced once per analysis cycle and never mutated afterwards.
type Analysis struct {
	SMA20  []float64
	SMA50  []float64
	EMA12  []float64
	EMA26  []float64
	EMA50  []float64
	EMA200 []float64

	RSI        []float64
	MACD       MACDResult
	Stochastic StochasticResult

	Bollinger BollingerResult
	ATR       []float64

	CurrentPrice       decimal.Decimal
	PreviousPrice      decimal.Decimal
	PriceChange        decimal.Decimal
	PriceChangePercent float64

	HighestPrice  decimal.Decimal
	LowestPrice   decimal.Decimal
	AverageVolume float64

	Timestamp  time.Time
	DataPoints int
}

// Analyze computes the full indicator set over the given candles.
// The input may arrive in either order; it is normalized oldest-first before
// any computation. Fails with market.ErrInsufficientData below MinCandles.
func Analyze(candles market.Series) (*Analysis, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("%w: got %d candles, need %d",
			market.ErrInsufficientData, len(candles), MinCandles)
	}

	ordered := candles.OldestFirst()
	closes := ordered.Closes()

	var totalVolume int64
	for _, c := range ordered {
		totalVolume += c.Volume
	}

	current := ordered[len(ordered)-1].Close
	previous := ordered[len(ordered)-2].Close
	change := current.Sub(previous)
	changePct, _ := change.Div(previous).Float64()

	return &Analysis{
		SMA20:  SMA(closes, 20),
		SMA50:  SMA(closes, 50),
		EMA12:  EMA(closes, 12),
		EMA26:  EMA(closes, 26),
		EMA50:  EMA(closes, 50),
		EMA200: EMA(closes, 200),

		RSI:        RSI(closes, 14),
		MACD:       MACD(closes, 12, 26, 9),
		Stochastic: Stochastic(ordered, 14, 3),

		Bollinger: BollingerBands(closes, 20, 2),
		ATR:       ATR(ordered, 14),

		CurrentPrice:       current,
		PreviousPrice:      previous,
		PriceChange:        change,
		PriceChangePercent: changePct * 100,

		HighestPrice:  ordered.HighestHigh(),
		LowestPrice:   ordered.LowestLow(),
		AverageVolume: float64(totalVolume) / float64(len(ordered)),

		Timestamp:  ordered.Last().Time,
		DataPoints: len(ordered),
	}, nil
}

// Snapshot is the latest-value projection of an Analysis: the most recent
// point of every indicator series plus the derived price-change fields.
type Snapshot struct {
	Price              decimal.Decimal `json:"price"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent float64         `json:"price_change_percent"`

	SMA20  float64 `json:"sma20"`
	SMA50  float64 `json:"sma50"`
	EMA12  float64 `json:"ema12"`
	EMA26  float64 `json:"ema26"`
	EMA50  float64 `json:"ema50"`
	EMA200 float64 `json:"ema200"` // zero when fewer than 200 candles

	RSI           float64 `json:"rsi"`
	MACDLine      float64 `json:"macd_line"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`
	StochasticK   float64 `json:"stochastic_k"`
	StochasticD   float64 `json:"stochastic_d"`

	BBUpper  float64 `json:"bb_upper"`
	BBMiddle float64 `json:"bb_middle"`
	BBLower  float64 `json:"bb_lower"`

	ATR float64 `json:"atr"`

	Timestamp time.Time `json:"timestamp"`
}

// Latest projects the most recent value of every series into a Snapshot.
func (a *Analysis) Latest() *Snapshot {
	return &Snapshot{
		Price:              a.CurrentPrice,
		PriceChange:        a.PriceChange,
		PriceChangePercent: a.PriceChangePercent,

		SMA20:  lastOrZero(a.SMA20),
		SMA50:  lastOrZero(a.SMA50),
		EMA12:  lastOrZero(a.EMA12),
		EMA26:  lastOrZero(a.EMA26),
		EMA50:  lastOrZero(a.EMA50),
		EMA200: lastOrZero(a.EMA200),

		RSI:           lastOrZero(a.RSI),
		MACDLine:      lastOrZero(a.MACD.MACDLine),
		MACDSignal:    lastOrZero(a.MACD.SignalLine),
		MACDHistogram: lastOrZero(a.MACD.Histogram),
		StochasticK:   lastOrZero(a.Stochastic.K),
		StochasticD:   lastOrZero(a.Stochastic.D),

		BBUpper:  lastOrZero(a.Bollinger.Upper),
		BBMiddle: lastOrZero(a.Bollinger.Middle),
		BBLower:  lastOrZero(a.Bollinger.Lower),

		ATR: lastOrZero(a.ATR),

		Timestamp: a.Timestamp,
	}
}

// PriceFloat returns the current price as a float for ratio math.
// Exact price comparisons stay on the decimal field.
func (s *Snapshot) PriceFloat() float64 {
	f, _ := s.Price.Float64()
	return f
}

func lastOrZero(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// Trend is the overall market direction voted by the snapshot's indicators.
type Trend string

const (
	TrendBullish  Trend = "bullish"
	TrendBearish  Trend = "bearish"
	TrendSideways Trend = "sideways"
)

// DetermineTrend tallies six directional votes (price vs EMA50, EMA12 vs
// EMA26, SMA20 vs SMA50, MACD line vs signal, histogram sign, RSI vs 50).
// A side needs a two-vote margin to win; otherwise the market is sideways.
func DetermineTrend(s *Snapshot) Trend {
	bullish := 0
	bearish := 0

	vote := func(cond bool) {
		if cond {
			bullish++
		} else {
			bearish++
		}
	}

	vote(s.PriceFloat() > s.EMA50)
	vote(s.EMA12 > s.EMA26)
	vote(s.SMA20 > s.SMA50)
	vote(s.MACDLine > s.MACDSignal)
	vote(s.MACDHistogram > 0)
	vote(s.RSI > 50)

	switch {
	case bullish > bearish+1:
		return TrendBullish
	case bearish > bullish+1:
		return TrendBearish
	default:
		return TrendSideways
	}
}
