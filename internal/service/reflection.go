package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/state"
	"go.uber.org/zap"
)

// Retry thresholds. Any one failing condition is enough to recommend a
// pipeline retry.
const (
	minQualityScore      = 0.60
	minCompletenessScore = 0.60
	minSynthesisScore    = 0.50
)

const (
	maxImprovements        = 5
	historyLookupLimit      = 5
	defaultReflectionScore = 0.7
)

// Reflector grades the synthesized answer, compares it against past
// performance, and decides whether the pipeline should retry.
type Reflector struct {
	states   *state.Store
	llm      domain.LLMClient
	learning *LearningService
	logger   *zap.Logger
}

func NewReflector(states *state.Store, lc domain.LLMClient, learning *LearningService, logger *zap.Logger) *Reflector {
	return &Reflector{states: states, llm: lc, learning: learning, logger: logger}
}

func (r *Reflector) Name() string { return "reflector" }

func (r *Reflector) Execute(ctx context.Context, queryID string) (float64, error) {
	st, err := r.states.Get(queryID)
	if err != nil {
		return 0, fatalErr(r.Name(), err)
	}
	if st.Synthesis == nil {
		return 0, fatalErr(r.Name(), errors.New("no synthesized answer to reflect on"))
	}

	quality, err := r.evaluate(ctx, queryID, st)
	if err != nil {
		return 0, err
	}
	completeness, err := r.checkCompleteness(ctx, queryID, st)
	if err != nil {
		return 0, err
	}
	comparison := r.compareHistory(ctx, st)

	shouldRetry, reason := retryVerdict(quality, completeness, st.Synthesis.Confidence)

	improvements := append([]string{}, quality.Weaknesses...)
	improvements = append(improvements, completeness.MissingAspects...)
	if len(improvements) > maxImprovements {
		improvements = improvements[:maxImprovements]
	}

	result := &domain.ReflectionResult{
		QualityScore:      quality.OverallScore,
		QualityLevel:      quality.QualityLevel,
		CompletenessScore: completeness.Score,
		Strengths:         quality.Strengths,
		Weaknesses:        quality.Weaknesses,
		Improvements:      improvements,
		ShouldRetry:       shouldRetry,
		RetryReason:       reason,
		Comparison:        comparison,
		Summary: fmt.Sprintf("quality %.2f (%s), completeness %.2f",
			quality.OverallScore, quality.QualityLevel, completeness.Score),
	}
	if err := r.states.StoreReflection(queryID, result); err != nil {
		return 0, fatalErr(r.Name(), err)
	}

	r.logger.Info("reflection complete",
		zap.String("query_id", queryID),
		zap.Float64("quality", quality.OverallScore),
		zap.Float64("completeness", completeness.Score),
		zap.Bool("should_retry", shouldRetry),
		zap.String("retry_reason", reason))
	return quality.OverallScore, nil
}

func (r *Reflector) evaluate(ctx context.Context, queryID string, st *domain.QueryState) (*domain.QualityAssessment, error) {
	_ = r.states.RecordToolCall(queryID, "evaluate_answer", nil)

	quality, err := r.llm.EvaluateAnswer(ctx, domain.EvaluationRequest{
		Query:            st.Query,
		Answer:           st.Synthesis.Answer,
		Confidence:       st.Synthesis.Confidence,
		CitationCount:    len(st.Synthesis.Citations),
		CredibilityLevel: st.Synthesis.Metadata.CredibilityLevel,
	})
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return nil, recoverableErr(r.Name(), err)
		}
		r.logger.Warn("answer evaluation unparseable, using default",
			zap.String("query_id", queryID), zap.Error(err))
		return &domain.QualityAssessment{
			OverallScore: defaultReflectionScore,
			QualityLevel: "acceptable",
			Reasoning:    "default grade after unparseable evaluation output",
		}, nil
	}
	return quality, nil
}

func (r *Reflector) checkCompleteness(ctx context.Context, queryID string, st *domain.QueryState) (*domain.CompletenessCheck, error) {
	check, err := r.llm.CheckCompleteness(ctx, st.Query, st.Synthesis.Answer, st.Synthesis.KeyPoints)
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return nil, recoverableErr(r.Name(), err)
		}
		r.logger.Warn("completeness check unparseable, using default",
			zap.String("query_id", queryID), zap.Error(err))
		return &domain.CompletenessCheck{
			Score:                  defaultReflectionScore,
			DirectlyAddressesQuery: true,
			SufficientDetail:       true,
		}, nil
	}
	return check, nil
}

func (r *Reflector) compareHistory(ctx context.Context, st *domain.QueryState) *domain.HistoryComparison {
	records := r.learning.SimilarHistory(ctx, st.Query, historyLookupLimit)
	if len(records) == 0 {
		return nil
	}

	var sum float64
	for _, rec := range records {
		sum += rec.Confidence
	}
	avg := sum / float64(len(records))

	performance := "comparable"
	switch {
	case st.Synthesis.Confidence > avg+0.05:
		performance = "above past average"
	case st.Synthesis.Confidence < avg-0.05:
		performance = "below past average"
	}

	return &domain.HistoryComparison{
		SimilarQueries:   len(records),
		AveragePastScore: avg,
		CurrentScore:     st.Synthesis.Confidence,
		Performance:      performance,
	}
}

// retryVerdict applies the retry thresholds. Unparseable evaluation output
// never reaches here; the defaults substituted above sit over every
// threshold, so a degraded reflection does not trigger retries.
func retryVerdict(quality *domain.QualityAssessment, completeness *domain.CompletenessCheck, synthesisConfidence float64) (bool, string) {
	switch {
	case quality.OverallScore < minQualityScore:
		return true, fmt.Sprintf("quality score %.2f below %.2f", quality.OverallScore, minQualityScore)
	case completeness.Score < minCompletenessScore:
		return true, fmt.Sprintf("completeness score %.2f below %.2f", completeness.Score, minCompletenessScore)
	case synthesisConfidence < minSynthesisScore:
		return true, fmt.Sprintf("synthesis confidence %.2f below %.2f", synthesisConfidence, minSynthesisScore)
	case !completeness.DirectlyAddressesQuery:
		return true, "answer does not directly address the query"
	}
	return false, ""
}
