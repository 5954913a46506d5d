// Package signal defines the candidate-signal model shared by the generator,
// the quality gate, and the engine.
package signal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/market"
)

// Direction is the side of a directional hypothesis.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Priority tags a candidate for downstream display. It carries no weight in
// gating decisions.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityVeryHigh Priority = "very_high"
)

// Candidate signal kinds.
const (
	TypeRSIOversold     = "RSI_OVERSOLD"
	TypeRSIOverbought   = "RSI_OVERBOUGHT"
	TypeMACDBullish     = "MACD_BULLISH"
	TypeMACDBearish     = "MACD_BEARISH"
	TypeStochOversold   = "STOCH_OVERSOLD"
	TypeStochOverbought = "STOCH_OVERBOUGHT"
	TypeBBLowerTouch    = "BB_LOWER_TOUCH"
	TypeBBUpperTouch    = "BB_UPPER_TOUCH"
	TypeEMABullish      = "EMA_BULLISH"
	TypeEMABearish      = "EMA_BEARISH"
	TypeMultiBullish    = "MULTI_BULLISH"
	TypeMultiBearish    = "MULTI_BEARISH"
)

// Signal is a candidate directional hypothesis derived from one indicator
// rule. It is immutable after creation and lives only within the analysis
// cycle that produced it, until the quality gate consumes it.
type Signal struct {
	Type      string          `json:"type"`
	Direction Direction       `json:"direction"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Priority  Priority        `json:"priority"`
	Reason    string          `json:"reason"`
}

// Evaluation is the quality gate's verdict on one candidate. It references
// the signal without mutating it.
type Evaluation struct {
	Signal           Signal    `json:"signal"`
	Approved         bool      `json:"approved"`
	Confidence       int       `json:"confidence"` // 0-100
	Strength         int       `json:"strength"`   // 0-100
	RejectionReasons []string  `json:"rejection_reasons"`
	Warnings         []string  `json:"warnings"`
	Timestamp        time.Time `json:"timestamp"`
}

// Approved is an approved evaluation's signal stamped with its scores and the
// instrument/interval it was produced for. These records live in bounded
// FIFO buffers (gate history, engine active list).
type Approved struct {
	Signal     Signal          `json:"signal"`
	Pair       string          `json:"pair"`
	Interval   market.Interval `json:"interval"`
	Confidence int             `json:"confidence"`
	Strength   int             `json:"strength"`
	Timestamp  time.Time       `json:"timestamp"`
}
