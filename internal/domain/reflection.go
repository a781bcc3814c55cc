package domain

// QualityAssessment is the reflector's grading of the synthesized answer.
type QualityAssessment struct {
	OverallScore   float64            `json:"overall_score"`
	QualityLevel   string             `json:"quality_level"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
	Reasoning      string             `json:"reasoning,omitempty"`
}

// CompletenessCheck reports whether the answer actually covers the question.
type CompletenessCheck struct {
	Score                  float64  `json:"completeness_score"`
	DirectlyAddressesQuery bool     `json:"directly_addresses_query"`
	MissingAspects         []string `json:"missing_aspects,omitempty"`
	SufficientDetail       bool     `json:"sufficient_detail"`
}

// HistoryComparison relates this answer's confidence to similar past queries.
type HistoryComparison struct {
	SimilarQueries   int     `json:"similar_queries_found"`
	AveragePastScore float64 `json:"average_past_confidence"`
	CurrentScore     float64 `json:"current_confidence"`
	Performance      string  `json:"performance"`
}

// ReflectionResult is the full output of the reflection stage.
type ReflectionResult struct {
	QualityScore      float64            `json:"quality_score"`
	QualityLevel      string             `json:"quality_level"`
	CompletenessScore float64            `json:"completeness_score"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
	Improvements      []string           `json:"improvements,omitempty"`
	ShouldRetry       bool               `json:"should_retry"`
	RetryReason       string             `json:"retry_reason,omitempty"`
	Comparison        *HistoryComparison `json:"history_comparison,omitempty"`
	Summary           string             `json:"summary"`
}
