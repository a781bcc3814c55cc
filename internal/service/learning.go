package service

import (
	"context"
	"strings"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"go.uber.org/zap"
)

// LearningService manages the durable memory of completed queries: the
// query archive, extracted topic learnings with embeddings, and similarity
// recall over both.
type LearningService struct {
	learnings domain.LearningStore
	history   domain.QueryHistoryStore
	embedder  domain.EmbeddingClient
	logger    *zap.Logger
}

func NewLearningService(ls domain.LearningStore, hs domain.QueryHistoryStore, ec domain.EmbeddingClient, logger *zap.Logger) *LearningService {
	return &LearningService{
		learnings: ls,
		history:   hs,
		embedder:  ec,
		logger:    logger,
	}
}

// Archive persists a completed query's outcome and extracts one learning
// per key topic. Archival is best-effort: failures are logged, never
// surfaced to the caller's pipeline.
func (s *LearningService) Archive(ctx context.Context, state *domain.QueryState, result *domain.QueryResult) {
	record := &domain.QueryRecord{
		QueryID:    state.ID,
		Query:      state.Query,
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Sources:    state.Sources,
		Metadata: map[string]any{
			"credibility_level": string(result.Quality.CredibilityLevel),
			"retry_count":       state.RetryCount,
			"sources_verified":  result.Quality.SourcesVerified,
		},
	}
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Warn("archive query failed", zap.String("query_id", state.ID), zap.Error(err))
	}

	if state.Plan == nil {
		return
	}
	for _, topic := range state.Plan.Analysis.KeyTopics {
		learning := &domain.LearningRecord{
			Topic:      topic,
			Insight:    insightFor(topic, result),
			Confidence: result.Confidence,
			Sources:    state.Sources,
		}

		embedding, err := s.embedder.Embed(ctx, topic+": "+learning.Insight)
		if err != nil {
			s.logger.Warn("embed learning failed", zap.String("topic", topic), zap.Error(err))
			embedding = nil
		}

		if err := s.learnings.Create(ctx, learning, embedding); err != nil {
			s.logger.Warn("save learning failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// SimilarLearnings recalls prior learnings close to the query by embedding
// similarity. Returns nil when recall is unavailable; planning proceeds
// without memory.
func (s *LearningService) SimilarLearnings(ctx context.Context, query string, limit int) []domain.LearningMatch {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("embed query failed", zap.Error(err))
		return nil
	}

	matches, err := s.learnings.FindSimilar(ctx, embedding, limit)
	if err != nil {
		s.logger.Warn("similar learnings lookup failed", zap.Error(err))
		return nil
	}
	return matches
}

// SimilarHistory returns archived queries whose text overlaps the given
// query, for reflection's comparison against past performance.
func (s *LearningService) SimilarHistory(ctx context.Context, query string, limit int) []domain.QueryRecord {
	term := searchTerm(query)
	if term == "" {
		return nil
	}
	records, err := s.history.Search(ctx, term, limit)
	if err != nil {
		s.logger.Warn("history search failed", zap.Error(err))
		return nil
	}
	return records
}

func (s *LearningService) LearningsByTopic(ctx context.Context, topic string, limit int) ([]domain.LearningRecord, error) {
	return s.learnings.GetByTopic(ctx, topic, limit)
}

func (s *LearningService) Topics(ctx context.Context) ([]string, error) {
	return s.learnings.ListTopics(ctx)
}

func (s *LearningService) RecentHistory(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	return s.history.Recent(ctx, limit)
}

func insightFor(topic string, result *domain.QueryResult) string {
	for _, p := range result.KeyPoints {
		if strings.Contains(strings.ToLower(p), strings.ToLower(topic)) {
			return p
		}
	}
	if len(result.KeyPoints) > 0 {
		return result.KeyPoints[0]
	}
	return firstSentence(result.Answer)
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i > 0 {
		return s[:i+1]
	}
	return s
}

// searchTerm picks the longest word of the query as a crude search key.
func searchTerm(query string) string {
	var longest string
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, ".,?!\"'")
		if len(w) > len(longest) {
			longest = w
		}
	}
	return longest
}
