package engine

import (
	"time"

	"github.com/wonny/fxsignal/internal/feed"
	"github.com/wonny/fxsignal/internal/gate"
	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/internal/signal"
	"github.com/wonny/fxsignal/pkg/config"
)

// Report summarizes one completed analysis cycle.
type Report struct {
	Pair             string              `json:"pair"`
	Interval         market.Interval     `json:"interval"`
	CandleCount      int                 `json:"candle_count"`
	Indicators       *indicator.Snapshot `json:"indicators"`
	Trend            indicator.Trend     `json:"trend"`
	PotentialSignals int                 `json:"potential_signals"`
	ApprovedSignals  int                 `json:"approved_signals"`
	Evaluations      []signal.Evaluation `json:"evaluations"`
	Timestamp        time.Time           `json:"timestamp"`
}

// ErrorRecord is one entry of the engine's bounded error log.
type ErrorRecord struct {
	Context   string    `json:"context"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is a point-in-time view of the engine for operators.
type Status struct {
	Running      bool            `json:"running"`
	Pair         string          `json:"pair,omitempty"`
	Interval     market.Interval `json:"interval,omitempty"`
	LastUpdate   time.Time       `json:"last_update"`
	LastAnalysis *Report         `json:"last_analysis,omitempty"`

	ActiveSignalCount int `json:"active_signal_count"`
	ErrorCount        int `json:"error_count"`

	Config    config.EngineConfig `json:"config"`
	FeedStats feed.UsageReport    `json:"feed_stats"`
	GateStats gate.StatsReport    `json:"gate_stats"`
}
