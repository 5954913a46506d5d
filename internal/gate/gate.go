// Package gate implements the multi-factor quality gate that accepts or
// rejects candidate signals. Every candidate ends in exactly one of two
// terminal states, approved or rejected; the only state carried across
// evaluations is the rolling statistics and the approval history.
package gate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/internal/signal"
	"github.com/wonny/fxsignal/pkg/config"
	"github.com/wonny/fxsignal/pkg/logger"
)

// historyCap bounds the approval history; oldest entries are evicted first.
const historyCap = 100

// QualityGate scores candidate signals against configurable thresholds and
// keeps rolling approval statistics.
type QualityGate struct {
	cfg    config.GateConfig
	logger *logger.Logger

	// Injected clock so market-timing checks are testable.
	now func() time.Time

	mu      sync.Mutex
	stats   Stats
	history []signal.Evaluation
}

// Stats are the gate's rolling counters.
type Stats struct {
	TotalSignals     int            `json:"total_signals"`
	ApprovedSignals  int            `json:"approved_signals"`
	RejectedSignals  int            `json:"rejected_signals"`
	RejectionReasons map[string]int `json:"rejection_reasons"`
}

// StatsReport is the external projection of Stats.
type StatsReport struct {
	Stats
	ApprovalRate  float64             `json:"approval_rate"` // percent
	RecentSignals []signal.Evaluation `json:"recent_signals"`
}

// New creates a quality gate with the given thresholds.
func New(cfg config.GateConfig, log *logger.Logger) *QualityGate {
	return &QualityGate{
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		stats:  Stats{RejectionReasons: make(map[string]int)},
	}
}

// Evaluate runs the candidate through every check, accumulating rejection
// reasons rather than short-circuiting so a rejected signal reports all of
// its defects. A panic inside any check is converted into a rejection reason;
// the gate never propagates a failure.
func (g *QualityGate) Evaluate(sig signal.Signal, snap *indicator.Snapshot, candles market.Series) signal.Evaluation {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.TotalSignals++

	eval := signal.Evaluation{
		Signal:           sig,
		RejectionReasons: []string{},
		Warnings:         []string{},
		Timestamp:        g.now().UTC(),
	}

	g.runChecks(&eval, sig, snap, candles)

	if len(eval.RejectionReasons) == 0 && eval.Confidence >= g.cfg.MinConfidence {
		eval.Approved = true
		g.stats.ApprovedSignals++

		g.history = append(g.history, eval)
		if len(g.history) > historyCap {
			g.history = g.history[len(g.history)-historyCap:]
		}
	} else {
		g.stats.RejectedSignals++
		for _, reason := range eval.RejectionReasons {
			key := strings.SplitN(reason, ":", 2)[0]
			g.stats.RejectionReasons[key]++
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"type":       sig.Type,
		"direction":  sig.Direction,
		"approved":   eval.Approved,
		"confidence": eval.Confidence,
		"strength":   eval.Strength,
		"rejections": len(eval.RejectionReasons),
	}).Debug("Evaluated candidate signal")

	return eval
}

// runChecks executes the eight evaluation steps. It only mutates eval; the
// deferred recover turns any panic (e.g. a malformed snapshot) into one more
// rejection reason.
func (g *QualityGate) runChecks(eval *signal.Evaluation, sig signal.Signal, snap *indicator.Snapshot, candles market.Series) {
	defer func() {
		if r := recover(); r != nil {
			eval.RejectionReasons = append(eval.RejectionReasons,
				fmt.Sprintf("evaluation error: %v", r))
		}
	}()

	ordered := candles.OldestFirst()

	// 1. Base signal strength
	strength := g.signalStrength(snap)
	eval.Strength = strength
	if strength < g.cfg.MinSignalStrength {
		eval.RejectionReasons = append(eval.RejectionReasons,
			fmt.Sprintf("signal strength too weak: %d%% (required: %d%%)",
				strength, g.cfg.MinSignalStrength))
	}

	// 2. Multi-indicator confirmation
	confirmations := g.confirmingIndicators(sig.Direction, snap)
	if len(confirmations) < g.cfg.MinConfirmingIndicators {
		eval.RejectionReasons = append(eval.RejectionReasons,
			fmt.Sprintf("insufficient confirming indicators: %d (required: %d)",
				len(confirmations), g.cfg.MinConfirmingIndicators))
	}

	// 3. Volume adequacy
	volume := g.checkVolume(ordered)
	if !volume.Adequate {
		eval.RejectionReasons = append(eval.RejectionReasons,
			fmt.Sprintf("trading volume too low: %.2f (required: %.2f)",
				volume.Ratio, g.cfg.MinVolumeRatio))
	}

	// 4. Volatility bound
	volatility := g.checkVolatility(snap)
	if !volatility.Acceptable {
		eval.RejectionReasons = append(eval.RejectionReasons,
			fmt.Sprintf("volatility too high: %.2f%% (maximum: %.2f%%)",
				volatility.Percent, g.cfg.MaxVolatility))
	}

	// 5. Conflicting indicators
	conflicts := g.checkConflicts(sig.Direction, snap)
	if len(conflicts) > 0 {
		eval.RejectionReasons = append(eval.RejectionReasons,
			"conflicting indicators: "+strings.Join(conflicts, ", "))
	}

	// 6. Support/resistance proximity (warning, not rejection)
	levels := g.checkSupportResistance(snap, ordered)
	if !levels.Safe {
		eval.Warnings = append(eval.Warnings,
			fmt.Sprintf("near %s level: %.4f", levels.Level, levels.Distance))
	}

	// 7. Market timing (warning, not rejection)
	timing := g.checkMarketTiming()
	if !timing.Optimal {
		eval.Warnings = append(eval.Warnings, "market timing: "+timing.Reason)
	}

	// 8. Final confidence
	eval.Confidence = g.confidence(
		strength,
		len(confirmations),
		volume.Adequate,
		volatility.Acceptable,
		len(conflicts) == 0,
		levels.Safe,
	)
}

// confidence is the weighted composite used for the final accept decision:
// strength 40%, confirmation ratio (capped at 1.0) 25%, volume 10%,
// volatility 10%, no conflicts 10%, safe distance from levels 5%.
func (g *QualityGate) confidence(strength, confirming int, adequateVolume, acceptableVolatility, noConflicts, safeFromLevels bool) int {
	confidence := float64(strength) / 100 * 40

	ratio := float64(confirming) / float64(g.cfg.MinConfirmingIndicators)
	if ratio > 1 {
		ratio = 1
	}
	confidence += ratio * 25

	if adequateVolume {
		confidence += 10
	}
	if acceptableVolatility {
		confidence += 10
	}
	if noConflicts {
		confidence += 10
	}
	if safeFromLevels {
		confidence += 5
	}

	return int(confidence + 0.5)
}

// UpdateConfig replaces the gate thresholds. Callers pass a fully populated
// config; partial merging is their concern.
func (g *QualityGate) UpdateConfig(cfg config.GateConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg
}

// Config returns the current thresholds.
func (g *QualityGate) Config() config.GateConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// GetStats returns the rolling statistics with the derived approval rate and
// the ten most recent approved evaluations.
func (g *QualityGate) GetStats() StatsReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := StatsReport{Stats: g.statsCopy()}

	if g.stats.TotalSignals > 0 {
		report.ApprovalRate = float64(g.stats.ApprovedSignals) / float64(g.stats.TotalSignals) * 100
	}

	n := 10
	if n > len(g.history) {
		n = len(g.history)
	}
	report.RecentSignals = append([]signal.Evaluation{}, g.history[len(g.history)-n:]...)

	return report
}

// History returns a copy of the bounded approval history, oldest first.
func (g *QualityGate) History() []signal.Evaluation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]signal.Evaluation{}, g.history...)
}

// ResetStats clears counters and the approval history.
func (g *QualityGate) ResetStats() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = Stats{RejectionReasons: make(map[string]int)}
	g.history = nil
}

func (g *QualityGate) statsCopy() Stats {
	out := g.stats
	out.RejectionReasons = make(map[string]int, len(g.stats.RejectionReasons))
	for k, v := range g.stats.RejectionReasons {
		out.RejectionReasons[k] = v
	}
	return out
}
