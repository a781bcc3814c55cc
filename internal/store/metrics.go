package store

import (
	"context"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MetricsStore struct {
	db *pgxpool.Pool
}

func NewMetricsStore(db *pgxpool.Pool) *MetricsStore {
	return &MetricsStore{db: db}
}

func (s *MetricsStore) Save(ctx context.Context, m *domain.MetricsRecord) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO query_metrics (query_id, confidence, duration_seconds, sources_used, retry_count, credibility_level, succeeded, failure_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		m.QueryID, m.Confidence, m.DurationSeconds, m.SourcesUsed, m.RetryCount, m.CredibilityLevel, m.Succeeded, m.FailureCode,
	).Scan(&m.ID, &m.CreatedAt)
}

func (s *MetricsStore) Summary(ctx context.Context) (*domain.MetricsSummary, error) {
	sum := &domain.MetricsSummary{}
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE succeeded),
		        COUNT(*) FILTER (WHERE NOT succeeded),
		        COALESCE(AVG(confidence) FILTER (WHERE succeeded), 0),
		        COALESCE(AVG(duration_seconds), 0),
		        COALESCE(SUM(sources_used), 0),
		        COALESCE(SUM(retry_count), 0)
		 FROM query_metrics`,
	).Scan(&sum.TotalQueries, &sum.SuccessfulQueries, &sum.FailedQueries, &sum.AverageConfidence, &sum.AverageDuration, &sum.TotalSourcesUsed, &sum.TotalRetries)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *MetricsStore) Reset(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM query_metrics`)
	return err
}
