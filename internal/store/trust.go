package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SourceTrustStore struct {
	db *pgxpool.Pool
}

func NewSourceTrustStore(db *pgxpool.Pool) *SourceTrustStore {
	return &SourceTrustStore{db: db}
}

// Observe increments the counters for one domain in a single upsert, so
// concurrent observations serialize at the row and no count is lost.
func (s *SourceTrustStore) Observe(ctx context.Context, sourceDomain string, helpful bool) (*domain.SourceTrustRecord, error) {
	helpfulDelta := 0
	if helpful {
		helpfulDelta = 1
	}

	r := &domain.SourceTrustRecord{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO source_trust (domain, total_observations, helpful_observations)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (domain) DO UPDATE SET
		    total_observations = source_trust.total_observations + 1,
		    helpful_observations = source_trust.helpful_observations + EXCLUDED.helpful_observations,
		    updated_at = now()
		 RETURNING domain, total_observations, helpful_observations, updated_at`,
		sourceDomain, helpfulDelta,
	).Scan(&r.Domain, &r.TotalObservations, &r.HelpfulObservations, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Score = score(r.HelpfulObservations, r.TotalObservations)
	return r, nil
}

func (s *SourceTrustStore) Get(ctx context.Context, sourceDomain string) (*domain.SourceTrustRecord, error) {
	r := &domain.SourceTrustRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT domain, total_observations, helpful_observations, updated_at
		 FROM source_trust WHERE domain = $1`,
		sourceDomain,
	).Scan(&r.Domain, &r.TotalObservations, &r.HelpfulObservations, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Score = score(r.HelpfulObservations, r.TotalObservations)
	return r, nil
}

func (s *SourceTrustStore) Top(ctx context.Context, limit int) ([]domain.SourceTrustRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx,
		`SELECT domain, total_observations, helpful_observations, updated_at
		 FROM source_trust
		 ORDER BY helpful_observations::float8 / total_observations DESC, total_observations DESC, domain ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SourceTrustRecord
	for rows.Next() {
		var r domain.SourceTrustRecord
		if err := rows.Scan(&r.Domain, &r.TotalObservations, &r.HelpfulObservations, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Score = score(r.HelpfulObservations, r.TotalObservations)
		records = append(records, r)
	}
	return records, rows.Err()
}

func score(helpful, total int64) float64 {
	if total == 0 {
		return domain.NeutralTrustScore
	}
	return float64(helpful) / float64(total)
}
