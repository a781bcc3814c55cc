package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceTrustRecord is the persistent trust counter for one source domain.
// Score is always HelpfulObservations / TotalObservations.
type SourceTrustRecord struct {
	Domain              string    `json:"domain"`
	TotalObservations   int64     `json:"total_observations"`
	HelpfulObservations int64     `json:"helpful_observations"`
	Score               float64   `json:"score"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NeutralTrustScore is the score assumed for a domain never observed.
const NeutralTrustScore = 0.5

// LearningRecord is one durable insight extracted from a completed query.
type LearningRecord struct {
	ID         uuid.UUID `json:"id"`
	Topic      string    `json:"topic"`
	Insight    string    `json:"insight"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LearningMatch pairs a learning with its similarity to a query embedding.
type LearningMatch struct {
	Learning   LearningRecord `json:"learning"`
	Similarity float64        `json:"similarity"`
}

// QueryRecord is the archived outcome of one completed query.
type QueryRecord struct {
	QueryID    string         `json:"query_id"`
	Query      string         `json:"query"`
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []string       `json:"sources,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MetricsRecord is one per-query row in the run metrics table.
type MetricsRecord struct {
	ID               uuid.UUID        `json:"id"`
	QueryID          string           `json:"query_id"`
	Confidence       float64          `json:"confidence"`
	DurationSeconds  float64          `json:"duration_seconds"`
	SourcesUsed      int              `json:"sources_used"`
	RetryCount       int              `json:"retry_count"`
	CredibilityLevel CredibilityLevel `json:"credibility_level"`
	Succeeded        bool             `json:"succeeded"`
	FailureCode      string           `json:"failure_code,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// MetricsSummary aggregates the metrics table for the stats endpoint.
type MetricsSummary struct {
	TotalQueries      int64   `json:"total_queries"`
	SuccessfulQueries int64   `json:"successful_queries"`
	FailedQueries     int64   `json:"failed_queries"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageDuration   float64 `json:"average_duration_seconds"`
	TotalSourcesUsed  int64   `json:"total_sources_used"`
	TotalRetries      int64   `json:"total_retries"`
}
