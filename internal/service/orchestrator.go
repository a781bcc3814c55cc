package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxQueryLength = 1000

// Stage is one pipeline step. Execute reads and writes the query's state
// through the state store and returns the stage's confidence.
type Stage interface {
	Name() string
	Execute(ctx context.Context, queryID string) (float64, error)
}

// Failure error codes.
const (
	CodeValidation   = "validation_error"
	CodeStageFailure = "stage_failure"
	CodeMaxRetries   = "max_retries_exceeded"
	CodeQueryTimeout = "query_timeout"
	CodeInternal     = "internal_error"
)

// PipelineError is the structured terminal failure of one query.
type PipelineError struct {
	QueryID string `json:"query_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("query %s failed (%s): %s", e.QueryID, e.Code, e.Message)
}

// Orchestrator drives one query through the five pipeline stages, enforces
// the retry policy, and commits finalized results to the archive.
type Orchestrator struct {
	states      *state.Store
	planner     Stage
	researcher  Stage
	verifier    Stage
	synthesizer Stage
	reflector   Stage
	learning    *LearningService
	metrics     domain.MetricsStore
	logger      *zap.Logger

	maxRetries   int
	queryTimeout time.Duration

	runMu   sync.Mutex
	running map[string]struct{}

	statsMu    sync.Mutex
	stageStats map[string]*stageCounters
}

type stageCounters struct {
	executions int64
	failures   int64
	total      time.Duration
}

func NewOrchestrator(states *state.Store, planner, researcher, verifier, synthesizer, reflector Stage, learning *LearningService, metrics domain.MetricsStore, maxRetries int, queryTimeout time.Duration, logger *zap.Logger) *Orchestrator {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if queryTimeout <= 0 {
		queryTimeout = 120 * time.Second
	}
	return &Orchestrator{
		states:       states,
		planner:      planner,
		researcher:   researcher,
		verifier:     verifier,
		synthesizer:  synthesizer,
		reflector:    reflector,
		learning:     learning,
		metrics:      metrics,
		logger:       logger,
		maxRetries:   maxRetries,
		queryTimeout: queryTimeout,
		running:      make(map[string]struct{}),
		stageStats:   make(map[string]*stageCounters),
	}
}

// beginRun registers queryID as in flight. At most one run may be active
// for a given query at a time.
func (o *Orchestrator) beginRun(queryID string) error {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if _, active := o.running[queryID]; active {
		return ErrQueryActive
	}
	o.running[queryID] = struct{}{}
	return nil
}

func (o *Orchestrator) endRun(queryID string) {
	o.runMu.Lock()
	delete(o.running, queryID)
	o.runMu.Unlock()
}

// Submit validates the query text and admits it into the pipeline in the
// planning state.
func (o *Orchestrator) Submit(queryText string) (string, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return "", ErrEmptyQuery
	}
	if len(queryText) > MaxQueryLength {
		return "", ErrQueryTooLong
	}

	id := uuid.NewString()
	o.states.Create(id, queryText)
	o.logger.Info("query admitted", zap.String("query_id", id))
	return id, nil
}

// RunOptions adjust a single pipeline run.
type RunOptions struct {
	// SkipReflection finalizes the query right after synthesis, without
	// quality evaluation or a chance at a reflection-driven retry.
	SkipReflection bool
}

// Run executes the full pipeline for a submitted query and returns the
// finalized result. A hard per-query timeout bounds the whole run. On
// terminal failure the query state is evicted and a PipelineError returned.
func (o *Orchestrator) Run(ctx context.Context, queryID string) (*domain.QueryResult, error) {
	return o.RunWith(ctx, queryID, RunOptions{})
}

func (o *Orchestrator) RunWith(ctx context.Context, queryID string, opts RunOptions) (*domain.QueryResult, error) {
	if err := o.beginRun(queryID); err != nil {
		return nil, err
	}
	defer o.endRun(queryID)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	if _, err := o.states.Get(queryID); err != nil {
		return nil, ErrQueryNotFound
	}

	if _, err := o.stageWithLog(ctx, queryID, o.planner); err != nil {
		return nil, o.fail(queryID, o.planner.Name(), err)
	}

	for {
		if err := o.runResearchToSynthesis(ctx, queryID); err != nil {
			retried, ferr := o.consumeRetry(queryID, err)
			if ferr != nil {
				return nil, ferr
			}
			if retried {
				continue
			}
			return nil, o.fail(queryID, "pipeline", err)
		}

		if opts.SkipReflection {
			return o.complete(ctx, queryID, start)
		}

		if err := o.states.SetStatus(queryID, domain.StatusReflecting); err != nil {
			return nil, o.fail(queryID, o.reflector.Name(), err)
		}
		if _, err := o.stageWithLog(ctx, queryID, o.reflector); err != nil {
			retried, ferr := o.consumeRetry(queryID, err)
			if ferr != nil {
				return nil, ferr
			}
			if retried {
				continue
			}
			return nil, o.fail(queryID, o.reflector.Name(), err)
		}

		st, err := o.states.Get(queryID)
		if err != nil {
			return nil, o.fail(queryID, "pipeline", err)
		}
		if st.Reflection != nil && st.Reflection.ShouldRetry {
			retried, ferr := o.retryForReflection(queryID, st.Reflection.RetryReason)
			if ferr != nil {
				return nil, ferr
			}
			if retried {
				continue
			}
		}

		return o.complete(ctx, queryID, start)
	}
}

// runResearchToSynthesis drives the three forward stages that a retry
// re-enters: research, verification, synthesis.
func (o *Orchestrator) runResearchToSynthesis(ctx context.Context, queryID string) error {
	stages := []struct {
		status domain.QueryStatus
		stage  Stage
	}{
		{domain.StatusResearching, o.researcher},
		{domain.StatusVerifying, o.verifier},
		{domain.StatusSynthesizing, o.synthesizer},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.states.SetStatus(queryID, s.status); err != nil {
			return fatalErr(s.stage.Name(), err)
		}
		if _, err := o.stageWithLog(ctx, queryID, s.stage); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) stageWithLog(ctx context.Context, queryID string, s Stage) (float64, error) {
	begin := time.Now()
	confidence, err := s.Execute(ctx, queryID)
	o.recordStage(s.Name(), time.Since(begin), err)
	if err != nil {
		_ = o.states.RecordError(queryID, s.Name(), err.Error())
		return 0, err
	}
	return confidence, nil
}

func (o *Orchestrator) recordStage(name string, elapsed time.Duration, err error) {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	c := o.stageStats[name]
	if c == nil {
		c = &stageCounters{}
		o.stageStats[name] = c
	}
	c.executions++
	if err != nil {
		c.failures++
	}
	c.total += elapsed
}

// consumeRetry spends one pipeline retry for a recoverable stage error.
// It returns (true, nil) when the pipeline should re-enter at research,
// (false, nil) when the error is not recoverable, and a terminal failure
// when the retry budget is exhausted or the query timed out.
func (o *Orchestrator) consumeRetry(queryID string, err error) (bool, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		return false, o.failWithCode(queryID, CodeQueryTimeout, "query exceeded its time budget")
	}

	var se *StageError
	if !errors.As(err, &se) || !se.Recoverable {
		return false, nil
	}

	st, gerr := o.states.Get(queryID)
	if gerr != nil {
		return false, o.failWithCode(queryID, CodeInternal, gerr.Error())
	}
	if st.RetryCount >= o.maxRetries {
		return false, o.failWithCode(queryID, CodeMaxRetries,
			fmt.Sprintf("recoverable error after %d retries: %v", st.RetryCount, se))
	}

	n, rerr := o.states.IncrementRetry(queryID)
	if rerr != nil {
		return false, o.failWithCode(queryID, CodeInternal, rerr.Error())
	}
	o.logger.Warn("pipeline retrying after recoverable error",
		zap.String("query_id", queryID),
		zap.String("stage", se.Stage),
		zap.Int("retry", n),
		zap.Error(se.Err))
	return true, nil
}

// retryForReflection spends one pipeline retry on the reflector's verdict.
// An exhausted budget converts the verdict into a terminal failure.
func (o *Orchestrator) retryForReflection(queryID, reason string) (bool, error) {
	st, err := o.states.Get(queryID)
	if err != nil {
		return false, o.failWithCode(queryID, CodeInternal, err.Error())
	}
	if st.RetryCount >= o.maxRetries {
		return false, o.failWithCode(queryID, CodeMaxRetries,
			fmt.Sprintf("reflection recommended retry after %d retries: %s", st.RetryCount, reason))
	}

	n, err := o.states.IncrementRetry(queryID)
	if err != nil {
		return false, o.failWithCode(queryID, CodeInternal, err.Error())
	}
	o.logger.Info("pipeline retrying on reflection verdict",
		zap.String("query_id", queryID),
		zap.String("reason", reason),
		zap.Int("retry", n))
	return true, nil
}

func (o *Orchestrator) complete(ctx context.Context, queryID string, start time.Time) (*domain.QueryResult, error) {
	if err := o.states.SetStatus(queryID, domain.StatusCompleted); err != nil {
		return nil, o.failWithCode(queryID, CodeInternal, err.Error())
	}
	st, err := o.states.Get(queryID)
	if err != nil {
		return nil, o.failWithCode(queryID, CodeInternal, err.Error())
	}

	result := buildResult(st, time.Since(start))

	o.learning.Archive(ctx, st, result)
	o.saveMetrics(ctx, st, result)
	o.states.Delete(queryID)

	o.logger.Info("query completed",
		zap.String("query_id", queryID),
		zap.Float64("confidence", result.Confidence),
		zap.Int("retries", result.RetryCount),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (o *Orchestrator) saveMetrics(ctx context.Context, st *domain.QueryState, result *domain.QueryResult) {
	level := domain.CredibilityLow
	if st.Verification != nil {
		level = st.Verification.Assessment.Level
	}
	record := &domain.MetricsRecord{
		QueryID:          st.ID,
		Confidence:       result.Confidence,
		DurationSeconds:  float64(result.DurationMS) / 1000,
		SourcesUsed:      len(st.Sources),
		RetryCount:       st.RetryCount,
		CredibilityLevel: level,
		Succeeded:        true,
	}
	if err := o.metrics.Save(ctx, record); err != nil {
		o.logger.Warn("save metrics failed", zap.String("query_id", st.ID), zap.Error(err))
	}
}

// saveFailureMetrics records a terminal failure so the stats endpoint can
// report failure counts. The run context may already be expired here, so
// the write uses a fresh one.
func (o *Orchestrator) saveFailureMetrics(st *domain.QueryState, code string) {
	level := domain.CredibilityLow
	if st.Verification != nil {
		level = st.Verification.Assessment.Level
	}
	record := &domain.MetricsRecord{
		QueryID:          st.ID,
		DurationSeconds:  time.Since(st.CreatedAt).Seconds(),
		SourcesUsed:      len(st.Sources),
		RetryCount:       st.RetryCount,
		CredibilityLevel: level,
		FailureCode:      code,
	}
	if err := o.metrics.Save(context.Background(), record); err != nil {
		o.logger.Warn("save metrics failed", zap.String("query_id", st.ID), zap.Error(err))
	}
}

func (o *Orchestrator) fail(queryID, stage string, err error) error {
	code := CodeStageFailure
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeQueryTimeout
	}
	return o.failWithCode(queryID, code, fmt.Sprintf("%s: %v", stage, err))
}

func (o *Orchestrator) failWithCode(queryID, code, message string) error {
	_ = o.states.SetStatus(queryID, domain.StatusFailed)
	if st, err := o.states.Get(queryID); err == nil {
		o.saveFailureMetrics(st, code)
	}
	o.states.Delete(queryID)
	o.logger.Error("query failed",
		zap.String("query_id", queryID),
		zap.String("code", code),
		zap.String("message", message))
	return &PipelineError{QueryID: queryID, Code: code, Message: message}
}

// Status returns a snapshot of an in-flight query's state.
func (o *Orchestrator) Status(queryID string) (*domain.QueryState, error) {
	st, err := o.states.Get(queryID)
	if err != nil {
		return nil, ErrQueryNotFound
	}
	return st, nil
}

// Result returns the archived outcome of a completed query. A query still
// moving through the pipeline yields ErrNotCompleted.
func (o *Orchestrator) Result(ctx context.Context, queryID string) (*domain.QueryRecord, error) {
	if _, err := o.states.Get(queryID); err == nil {
		return nil, ErrNotCompleted
	}
	return o.learning.history.GetByQueryID(ctx, queryID)
}

// StageStats aggregates one stage's executions over the process lifetime.
type StageStats struct {
	Executions int64   `json:"executions"`
	Failures   int64   `json:"failures"`
	AverageMS  float64 `json:"average_ms"`
}

// Stats combines live pipeline counts with aggregate run metrics.
type Stats struct {
	Active state.Stats            `json:"active"`
	Stages map[string]StageStats  `json:"stages"`
	Totals *domain.MetricsSummary `json:"totals"`
}

func (o *Orchestrator) Stats(ctx context.Context) (*Stats, error) {
	summary, err := o.metrics.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Active: o.states.Stats(), Stages: o.stageSnapshot(), Totals: summary}, nil
}

func (o *Orchestrator) stageSnapshot() map[string]StageStats {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	out := make(map[string]StageStats, len(o.stageStats))
	for name, c := range o.stageStats {
		s := StageStats{Executions: c.executions, Failures: c.failures}
		if c.executions > 0 {
			s.AverageMS = float64(c.total.Milliseconds()) / float64(c.executions)
		}
		out[name] = s
	}
	return out
}

// ResetStats clears aggregate metrics, stage counters, and any lingering
// query states.
func (o *Orchestrator) ResetStats(ctx context.Context) error {
	if err := o.metrics.Reset(ctx); err != nil {
		return err
	}
	o.statsMu.Lock()
	o.stageStats = make(map[string]*stageCounters)
	o.statsMu.Unlock()
	o.states.DeleteAll()
	return nil
}

func buildResult(st *domain.QueryState, elapsed time.Duration) *domain.QueryResult {
	result := &domain.QueryResult{
		QueryID:    st.ID,
		Query:      st.Query,
		Answer:     st.FinalAnswer,
		Confidence: st.Confidence,
		RetryCount: st.RetryCount,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if st.Plan != nil {
		result.Pipeline.PlanConfidence = st.Plan.Confidence
	}
	if st.Findings != nil {
		result.Pipeline.SourcesFound = st.Findings.SourcesFound
		result.Pipeline.SourcesAnalyzed = st.Findings.SourcesFetched
	}
	if st.Verification != nil {
		result.Pipeline.VerificationConfidence = st.Verification.OverallConfidence
		result.Quality.CredibilityLevel = st.Verification.Assessment.Level
		result.Quality.SourcesVerified = st.Verification.Assessment.VerifiedCount
	}
	if st.Synthesis != nil {
		result.Citations = st.Synthesis.Citations
		result.KeyPoints = st.Synthesis.KeyPoints
		result.Caveats = st.Synthesis.Caveats
		result.Quality.AnswerStyle = st.Synthesis.Style
		result.Pipeline.SynthesisConfidence = st.Synthesis.Confidence
	}
	if st.Reflection != nil {
		score := st.Reflection.QualityScore
		result.Quality.ReflectionScore = &score
	}
	return result
}
