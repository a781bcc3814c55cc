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

const (
	minPlanConfidence = 0.5
	maxPlanConfidence = 0.95
	pastLearningLimit = 3
)

// Planner analyzes the query, recalls related past learnings, and builds
// the execution plan the rest of the pipeline follows.
type Planner struct {
	states   *state.Store
	llm      domain.LLMClient
	learning *LearningService
	logger   *zap.Logger
}

func NewPlanner(states *state.Store, lc domain.LLMClient, learning *LearningService, logger *zap.Logger) *Planner {
	return &Planner{states: states, llm: lc, learning: learning, logger: logger}
}

func (p *Planner) Name() string { return "planner" }

func (p *Planner) Execute(ctx context.Context, queryID string) (float64, error) {
	st, err := p.states.Get(queryID)
	if err != nil {
		return 0, fatalErr(p.Name(), err)
	}

	analysis, err := p.llm.AnalyzeQuery(ctx, st.Query)
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return 0, recoverableErr(p.Name(), err)
		}
		p.logger.Warn("query analysis unparseable, using default",
			zap.String("query_id", queryID), zap.Error(err))
		analysis = defaultAnalysis()
	}
	_ = p.states.RecordToolCall(queryID, "analyze_query", map[string]any{"query_type": analysis.QueryType})

	past := p.learning.SimilarLearnings(ctx, st.Query, pastLearningLimit)

	result := &domain.PlanResult{
		Analysis:      *analysis,
		Plan:          buildPlan(analysis),
		PastLearnings: past,
		Confidence:    planConfidence(analysis, len(past) > 0),
	}
	if err := p.states.StorePlan(queryID, result); err != nil {
		return 0, fatalErr(p.Name(), err)
	}

	p.logger.Info("plan built",
		zap.String("query_id", queryID),
		zap.String("query_type", analysis.QueryType),
		zap.String("complexity", analysis.Complexity),
		zap.Int("past_learnings", len(past)),
		zap.Float64("confidence", result.Confidence))
	return result.Confidence, nil
}

func defaultAnalysis() *domain.QueryAnalysis {
	return &domain.QueryAnalysis{
		QueryType:            "factual",
		Complexity:           "moderate",
		RequiresResearch:     true,
		RequiresVerification: true,
		EstimatedSources:     3,
		TimeSensitivity:      "none",
		Reasoning:            "default analysis after unparseable model output",
	}
}

// buildPlan derives the fixed research-verify-synthesize sequence from the
// analysis. Step parameters come from the analysis, the sequence does not.
func buildPlan(a *domain.QueryAnalysis) domain.Plan {
	style := styleFor(a.QueryType)
	return domain.Plan{
		Strategy: fmt.Sprintf("%s research with verification", a.Complexity),
		Agents:   []string{"researcher", "verifier", "synthesizer", "reflector"},
		Steps: []domain.PlanStep{
			{Step: 1, Agent: "researcher", Action: "gather sources", Sources: a.EstimatedSources},
			{Step: 2, Agent: "verifier", Action: "cross-check findings", Threshold: "0.6"},
			{Step: 3, Agent: "synthesizer", Action: "compose answer", Style: string(style)},
			{Step: 4, Agent: "reflector", Action: "evaluate answer quality"},
		},
		EstimatedTime: estimateFor(a.Complexity),
	}
}

func styleFor(queryType string) domain.AnswerStyle {
	switch queryType {
	case "factual":
		return domain.StyleConcise
	case "comparative":
		return domain.StyleComparative
	case "exploratory":
		return domain.StyleExplanatory
	default:
		return domain.StyleComprehensive
	}
}

func estimateFor(complexity string) string {
	switch complexity {
	case "simple":
		return "under 30s"
	case "complex":
		return "60-120s"
	default:
		return "30-60s"
	}
}

// planConfidence scores the plan from the analysis complexity, nudged up
// when past learnings apply, clamped to [0.5, 0.95].
func planConfidence(a *domain.QueryAnalysis, hasPastLearnings bool) float64 {
	var c float64
	switch a.Complexity {
	case "simple":
		c = 0.9
	case "complex":
		c = 0.65
	default:
		c = 0.78
	}
	if hasPastLearnings {
		c += 0.05
	}
	if c < minPlanConfidence {
		c = minPlanConfidence
	}
	if c > maxPlanConfidence {
		c = maxPlanConfidence
	}
	return c
}
