// Package engine orchestrates the analysis pipeline: fetch candles, compute
// indicators, generate candidate signals, filter them through the quality
// gate and publish the results as events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/fxsignal/internal/feed"
	"github.com/wonny/fxsignal/internal/gate"
	"github.com/wonny/fxsignal/internal/indicator"
	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/internal/scheduler"
	"github.com/wonny/fxsignal/internal/signal"
	"github.com/wonny/fxsignal/pkg/config"
	"github.com/wonny/fxsignal/pkg/logger"
)

// ErrCycleInProgress is returned when an analysis cycle for the same pair and
// interval is already running. Overlapping cycles are skipped, not queued.
var ErrCycleInProgress = errors.New("analysis cycle already in progress")

// autoUpdateJobName is the scheduler job that re-runs the current analysis.
const autoUpdateJobName = "auto-analysis"

// Engine ties the feed, the indicator engine, the signal generator and the
// quality gate together and owns all mutable pipeline state.
type Engine struct {
	cfg       config.EngineConfig
	fetcher   *feed.Fetcher
	generator *signal.Generator
	gate      *gate.QualityGate
	bus       *Bus
	sched     *scheduler.Scheduler
	logger    *logger.Logger

	mu           sync.Mutex
	running      bool
	pair         string
	interval     market.Interval
	lastUpdate   time.Time
	lastReport   *Report
	active       []signal.Approved
	errorLog     []ErrorRecord
	inFlight     map[string]bool
	jobScheduled bool
}

// New creates an engine with its collaborators.
func New(cfg config.EngineConfig, fetcher *feed.Fetcher, gen *signal.Generator, qg *gate.QualityGate, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		generator: gen,
		gate:      qg,
		bus:       NewBus(log),
		sched:     scheduler.New(log),
		logger:    log,
		inFlight:  make(map[string]bool),
	}
}

// Bus exposes the engine's event bus for subscribers.
func (e *Engine) Bus() *Bus { return e.bus }

// StartOptions tune one engine run. The zero value keeps configured defaults.
type StartOptions struct {
	// FetchCount overrides the configured candle request size when positive.
	FetchCount int

	// EnableAutoUpdate re-runs the analysis on the configured interval.
	EnableAutoUpdate bool

	// GateConfig replaces the quality-gate thresholds for this run.
	GateConfig *config.GateConfig
}

// Start validates the pair and interval against the allow-lists, runs one
// initial analysis cycle and, when requested, schedules recurring updates.
// A failed initial cycle leaves the engine stopped.
func (e *Engine) Start(ctx context.Context, pair string, interval market.Interval, opts StartOptions) error {
	if !contains(e.cfg.SupportedPairs, pair) {
		return fmt.Errorf("%w: %s", market.ErrUnsupportedInstrument, pair)
	}
	if !contains(e.cfg.SupportedIntervals, string(interval)) {
		return fmt.Errorf("%w: %s", market.ErrUnsupportedInterval, interval)
	}

	if opts.GateConfig != nil {
		e.gate.UpdateConfig(*opts.GateConfig)
	}

	e.mu.Lock()
	e.running = true
	e.pair = pair
	e.interval = interval
	e.errorLog = nil
	e.mu.Unlock()

	e.logger.WithFields(map[string]interface{}{
		"pair":     pair,
		"interval": interval,
	}).Info("Starting engine")

	fetchCount := e.cfg.FetchCount
	if opts.FetchCount > 0 {
		fetchCount = opts.FetchCount
	}

	if _, err := e.analyze(ctx, pair, interval, fetchCount); err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return err
	}

	if opts.EnableAutoUpdate {
		if err := e.enableAutoUpdate(); err != nil {
			return err
		}
	}

	e.bus.Publish(Event{Kind: EventUpdate, Payload: map[string]interface{}{
		"type":      "engine_started",
		"pair":      pair,
		"interval":  interval,
		"timestamp": time.Now().UTC(),
	}})

	return nil
}

// Stop halts recurring updates and marks the engine stopped. Buffered signals
// and errors survive a stop; Reset clears them.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasScheduled := e.jobScheduled
	e.running = false
	e.mu.Unlock()

	if wasScheduled {
		e.sched.Stop()
	}

	e.bus.Publish(Event{Kind: EventUpdate, Payload: map[string]interface{}{
		"type":      "engine_stopped",
		"timestamp": time.Now().UTC(),
	}})

	e.logger.Info("Engine stopped")
}

// Analyze runs one full analysis cycle for the pair and interval. Cycles for
// the same pair and interval never overlap; a second caller gets
// ErrCycleInProgress while the first is still running.
func (e *Engine) Analyze(ctx context.Context, pair string, interval market.Interval) (*Report, error) {
	return e.analyze(ctx, pair, interval, e.cfg.FetchCount)
}

func (e *Engine) analyze(ctx context.Context, pair string, interval market.Interval, fetchCount int) (*Report, error) {
	key := pair + "_" + string(interval)

	e.mu.Lock()
	if e.inFlight[key] {
		e.mu.Unlock()
		e.logger.WithFields(map[string]interface{}{
			"pair":     pair,
			"interval": interval,
		}).Warn("Skipping overlapping analysis cycle")
		return nil, fmt.Errorf("%w: %s %s", ErrCycleInProgress, pair, interval)
	}
	e.inFlight[key] = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}()

	report, err := e.runCycle(ctx, pair, interval, fetchCount)
	if err != nil {
		e.recordError("analyze", err)
		return nil, err
	}
	return report, nil
}

// runCycle is the pipeline body: fetch, analyze, generate, gate, publish.
func (e *Engine) runCycle(ctx context.Context, pair string, interval market.Interval, fetchCount int) (*Report, error) {
	candles, err := e.fetcher.Fetch(ctx, pair, interval, fetchCount)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s %s: %w", pair, interval, err)
	}
	if len(candles) < e.cfg.MinCandles {
		return nil, fmt.Errorf("%w: got %d candles for %s %s, need %d",
			market.ErrInsufficientData, len(candles), pair, interval, e.cfg.MinCandles)
	}

	analysis, err := indicator.Analyze(candles)
	if err != nil {
		return nil, fmt.Errorf("analysis failed for %s %s: %w", pair, interval, err)
	}

	snap := analysis.Latest()
	trend := indicator.DetermineTrend(snap)

	candidates := e.generator.Generate(snap)

	evaluations := make([]signal.Evaluation, 0, len(candidates))
	approved := make([]signal.Evaluation, 0, len(candidates))
	for _, cand := range candidates {
		eval := e.gate.Evaluate(cand, snap, candles)
		evaluations = append(evaluations, eval)
		if eval.Approved {
			approved = append(approved, eval)
		}
	}

	now := time.Now().UTC()
	report := &Report{
		Pair:             pair,
		Interval:         interval,
		CandleCount:      len(candles),
		Indicators:       snap,
		Trend:            trend,
		PotentialSignals: len(candidates),
		ApprovedSignals:  len(approved),
		Evaluations:      evaluations,
		Timestamp:        now,
	}

	e.mu.Lock()
	e.lastUpdate = now
	e.lastReport = report
	for _, eval := range approved {
		e.active = append(e.active, signal.Approved{
			Signal:     eval.Signal,
			Pair:       pair,
			Interval:   interval,
			Confidence: eval.Confidence,
			Strength:   eval.Strength,
			Timestamp:  eval.Timestamp,
		})
	}
	if len(e.active) > e.cfg.MaxStoredSignals {
		e.active = e.active[len(e.active)-e.cfg.MaxStoredSignals:]
	}
	e.mu.Unlock()

	e.bus.Publish(Event{Kind: EventAnalysis, Payload: report})
	for _, eval := range approved {
		e.bus.Publish(Event{Kind: EventSignal, Payload: eval})
	}

	e.logger.WithFields(map[string]interface{}{
		"pair":       pair,
		"interval":   interval,
		"candidates": len(candidates),
		"approved":   len(approved),
		"trend":      trend,
	}).Info("Analysis cycle completed")

	return report, nil
}

// enableAutoUpdate registers and starts the recurring analysis job.
func (e *Engine) enableAutoUpdate() error {
	e.mu.Lock()
	already := e.jobScheduled
	e.jobScheduled = true
	e.mu.Unlock()

	if already {
		e.sched.Start()
		return nil
	}

	job := &autoUpdateJob{engine: e, every: e.cfg.AutoUpdateInterval}
	if err := e.sched.AddJob(job); err != nil {
		return fmt.Errorf("failed to enable auto update: %w", err)
	}

	e.sched.Start()
	e.logger.WithField("interval", e.cfg.AutoUpdateInterval).Info("Auto update enabled")
	return nil
}

// autoUpdateJob re-runs the engine's current analysis on a fixed interval.
type autoUpdateJob struct {
	engine *Engine
	every  time.Duration
}

func (j *autoUpdateJob) Name() string { return autoUpdateJobName }

func (j *autoUpdateJob) Schedule() string { return "@every " + j.every.String() }

func (j *autoUpdateJob) Run(ctx context.Context) error {
	j.engine.mu.Lock()
	running := j.engine.running
	pair := j.engine.pair
	interval := j.engine.interval
	j.engine.mu.Unlock()

	if !running || pair == "" {
		return nil
	}

	_, err := j.engine.Analyze(ctx, pair, interval)
	if errors.Is(err, ErrCycleInProgress) {
		// The previous cycle is still running; this tick is dropped.
		return nil
	}
	return err
}

// recordError appends to the bounded error log and publishes an error event.
func (e *Engine) recordError(context string, err error) {
	record := ErrorRecord{
		Context:   context,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}

	e.mu.Lock()
	e.errorLog = append(e.errorLog, record)
	if len(e.errorLog) > e.cfg.MaxStoredErrors {
		e.errorLog = e.errorLog[len(e.errorLog)-e.cfg.MaxStoredErrors:]
	}
	e.mu.Unlock()

	e.logger.WithField("context", context).WithError(err).Error("Engine error")
	e.bus.Publish(Event{Kind: EventError, Payload: record})
}

// Status reports the engine state together with feed and gate statistics.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		Running:           e.running,
		Pair:              e.pair,
		Interval:          e.interval,
		LastUpdate:        e.lastUpdate,
		LastAnalysis:      e.lastReport,
		ActiveSignalCount: len(e.active),
		ErrorCount:        len(e.errorLog),
		Config:            e.cfg,
		FeedStats:         e.fetcher.Stats(),
		GateStats:         e.gate.GetStats(),
	}
}

// ActiveSignals returns up to limit approved signals, newest first.
func (e *Engine) ActiveSignals(limit int) []signal.Approved {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limit <= 0 || limit > len(e.active) {
		limit = len(e.active)
	}

	out := make([]signal.Approved, limit)
	for i := 0; i < limit; i++ {
		out[i] = e.active[len(e.active)-1-i]
	}
	return out
}

// ClearActiveSignals drops every buffered approved signal.
func (e *Engine) ClearActiveSignals() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
}

// Errors returns a copy of the bounded error log, oldest first.
func (e *Engine) Errors() []ErrorRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ErrorRecord{}, e.errorLog...)
}

// Reset stops the engine and clears signals, errors, the last report, the
// feed cache and the gate statistics.
func (e *Engine) Reset() {
	e.Stop()

	e.mu.Lock()
	e.active = nil
	e.errorLog = nil
	e.lastReport = nil
	e.mu.Unlock()

	e.fetcher.ClearCache()
	e.gate.ResetStats()

	e.logger.Info("Engine reset")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
