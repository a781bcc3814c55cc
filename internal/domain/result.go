package domain

import "time"

// QualitySummary is the reader-facing quality block of a final result.
type QualitySummary struct {
	CredibilityLevel CredibilityLevel `json:"credibility_level"`
	SourcesVerified  int              `json:"sources_verified"`
	AnswerStyle      AnswerStyle      `json:"answer_style"`
	ReflectionScore  *float64         `json:"reflection_score,omitempty"`
}

// PipelineSummary is the per-stage confidence breakdown of a final result.
type PipelineSummary struct {
	PlanConfidence         float64 `json:"plan_confidence"`
	SourcesFound           int     `json:"sources_found"`
	SourcesAnalyzed        int     `json:"sources_analyzed"`
	VerificationConfidence float64 `json:"verification_confidence"`
	SynthesisConfidence    float64 `json:"synthesis_confidence"`
}

// QueryResult is the final packaged answer returned to callers.
type QueryResult struct {
	QueryID    string          `json:"query_id"`
	Query      string          `json:"query"`
	Answer     string          `json:"answer"`
	Confidence float64         `json:"confidence"`
	Citations  []Citation      `json:"citations"`
	KeyPoints  []string        `json:"key_points"`
	Caveats    []string        `json:"caveats,omitempty"`
	Quality    QualitySummary  `json:"quality"`
	Pipeline   PipelineSummary `json:"pipeline"`
	RetryCount int             `json:"retry_count"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}
