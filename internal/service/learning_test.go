package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/embedding"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLearningService_ArchiveSavesRecordAndLearnings(t *testing.T) {
	learnings := &mockLearningStore{}
	history := newMockHistoryStore()
	svc := NewLearningService(learnings, history, embedding.NewMockClient(), zap.NewNop())
	ctx := context.Background()

	st := &domain.QueryState{
		ID:         "q-1",
		Query:      "how effective are mRNA vaccines",
		RetryCount: 1,
		Sources:    []string{"https://www.who.int/a", "https://cdc.gov/b"},
		Plan: &domain.PlanResult{
			Analysis: domain.QueryAnalysis{
				KeyTopics: []string{"mRNA vaccines", "efficacy"},
			},
		},
	}
	result := &domain.QueryResult{
		Answer:     "mRNA vaccines are highly effective. Trials show strong protection.",
		Confidence: 0.87,
		KeyPoints:  []string{"efficacy above 90% in trials", "mRNA vaccines are well studied"},
	}
	result.Quality.CredibilityLevel = domain.CredibilityHigh
	result.Quality.SourcesVerified = 2

	svc.Archive(ctx, st, result)

	record, err := history.GetByQueryID(ctx, "q-1")
	assert.NoError(t, err)
	assert.Equal(t, result.Answer, record.Answer)
	assert.Equal(t, 0.87, record.Confidence)
	assert.Equal(t, "high", record.Metadata["credibility_level"])

	// one learning per key topic, each matched to a relevant key point
	assert.Len(t, learnings.learnings, 2)
	assert.Equal(t, "mRNA vaccines", learnings.learnings[0].Topic)
	assert.Equal(t, "mRNA vaccines are well studied", learnings.learnings[0].Insight)
	assert.Equal(t, "efficacy above 90% in trials", learnings.learnings[1].Insight)
}

func TestLearningService_ArchiveWithoutPlanSkipsLearnings(t *testing.T) {
	learnings := &mockLearningStore{}
	history := newMockHistoryStore()
	svc := NewLearningService(learnings, history, embedding.NewMockClient(), zap.NewNop())

	st := &domain.QueryState{ID: "q-2", Query: "q"}
	result := &domain.QueryResult{Answer: "Answer."}

	svc.Archive(context.Background(), st, result)

	_, err := history.GetByQueryID(context.Background(), "q-2")
	assert.NoError(t, err)
	assert.Empty(t, learnings.learnings)
}

func TestInsightFor_FallsBackToFirstSentence(t *testing.T) {
	result := &domain.QueryResult{
		Answer: "Vaccines work. Details follow.",
	}
	assert.Equal(t, "Vaccines work.", insightFor("anything", result))
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "effectiveness", searchTerm("what is the effectiveness of masks?"))
	assert.Equal(t, "", searchTerm("   "))
}
