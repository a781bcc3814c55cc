package store

import (
	"context"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type LearningStore struct {
	db *pgxpool.Pool
}

func NewLearningStore(db *pgxpool.Pool) *LearningStore {
	return &LearningStore{db: db}
}

func (s *LearningStore) Create(ctx context.Context, l *domain.LearningRecord, embedding []float32) error {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO learnings (topic, insight, confidence, sources, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		l.Topic, l.Insight, l.Confidence, l.Sources, vec,
	).Scan(&l.ID, &l.CreatedAt)
}

func (s *LearningStore) GetByTopic(ctx context.Context, topic string, limit int) ([]domain.LearningRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, topic, insight, confidence, sources, created_at
		 FROM learnings WHERE topic ILIKE '%' || $1 || '%'
		 ORDER BY confidence DESC, created_at DESC
		 LIMIT $2`,
		topic, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var learnings []domain.LearningRecord
	for rows.Next() {
		var l domain.LearningRecord
		if err := rows.Scan(&l.ID, &l.Topic, &l.Insight, &l.Confidence, &l.Sources, &l.CreatedAt); err != nil {
			return nil, err
		}
		learnings = append(learnings, l)
	}
	return learnings, rows.Err()
}

func (s *LearningStore) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.LearningMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, topic, insight, confidence, sources, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM learnings WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.LearningMatch
	for rows.Next() {
		var m domain.LearningMatch
		if err := rows.Scan(&m.Learning.ID, &m.Learning.Topic, &m.Learning.Insight, &m.Learning.Confidence, &m.Learning.Sources, &m.Learning.CreatedAt, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *LearningStore) ListTopics(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT topic FROM learnings ORDER BY topic`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
