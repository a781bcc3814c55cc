package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QueryHistoryStore struct {
	db *pgxpool.Pool
}

func NewQueryHistoryStore(db *pgxpool.Pool) *QueryHistoryStore {
	return &QueryHistoryStore{db: db}
}

func (s *QueryHistoryStore) Save(ctx context.Context, r *domain.QueryRecord) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO query_history (query_id, query, answer, confidence, sources, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		r.QueryID, r.Query, r.Answer, r.Confidence, r.Sources, r.Metadata,
	).Scan(&r.CreatedAt)
}

func (s *QueryHistoryStore) GetByQueryID(ctx context.Context, queryID string) (*domain.QueryRecord, error) {
	r := &domain.QueryRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT query_id, query, answer, confidence, sources, metadata, created_at
		 FROM query_history WHERE query_id = $1`,
		queryID,
	).Scan(&r.QueryID, &r.Query, &r.Answer, &r.Confidence, &r.Sources, &r.Metadata, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *QueryHistoryStore) Search(ctx context.Context, term string, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT query_id, query, answer, confidence, sources, metadata, created_at
		 FROM query_history WHERE query ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC
		 LIMIT $2`,
		term, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueryRecords(rows)
}

func (s *QueryHistoryStore) Recent(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT query_id, query, answer, confidence, sources, metadata, created_at
		 FROM query_history
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueryRecords(rows)
}

func scanQueryRecords(rows pgx.Rows) ([]domain.QueryRecord, error) {
	var records []domain.QueryRecord
	for rows.Next() {
		var r domain.QueryRecord
		if err := rows.Scan(&r.QueryID, &r.Query, &r.Answer, &r.Confidence, &r.Sources, &r.Metadata, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
