package llm

import (
	"context"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	AnalyzeQueryResponse      *domain.QueryAnalysis
	AnalyzeQueryError         error
	SearchQueriesResponse     []string
	SearchQueriesError        error
	OrganizeFindingsResponse  *domain.OrganizedFindings
	OrganizeFindingsError     error
	VerifyFindingsResponse    []domain.VerifiedFinding
	VerifyFindingsError       error
	DetectConflictsResponse   []domain.Conflict
	DetectConflictsError      error
	SynthesizeResponse        *domain.DraftAnswer
	SynthesizeError           error
	EvaluateAnswerResponse    *domain.QualityAssessment
	EvaluateAnswerError       error
	CheckCompletenessResponse *domain.CompletenessCheck
	CheckCompletenessError    error

	// Call tracking for assertions
	AnalyzeQueryCalls      []string
	SearchQueriesCalls     []string
	OrganizeFindingsCalls  []string
	VerifyFindingsCalls    [][]domain.Finding
	DetectConflictsCalls   [][]domain.VerifiedFinding
	SynthesizeCalls        []domain.SynthesisRequest
	EvaluateAnswerCalls    []domain.EvaluationRequest
	CheckCompletenessCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		AnalyzeQueryResponse: &domain.QueryAnalysis{
			QueryType:            "factual",
			Complexity:           "simple",
			RequiresResearch:     true,
			RequiresVerification: true,
			KeyTopics:            []string{"mock topic"},
			EstimatedSources:     3,
			TimeSensitivity:      "none",
		},
		SearchQueriesResponse: []string{"mock search query"},
		OrganizeFindingsResponse: &domain.OrganizedFindings{
			KeyFindings: []domain.Finding{
				{Text: "Mock finding", Sources: []string{"https://www.who.int/mock"}, Confidence: 0.85},
			},
			MainThemes:    []string{"mock theme"},
			SourceQuality: domain.SourceQuality{High: 1},
			Summary:       "Mock research summary",
		},
		VerifyFindingsResponse: []domain.VerifiedFinding{
			{
				Text:              "Mock finding",
				Status:            domain.VerificationVerified,
				Confidence:        0.88,
				SupportingSources: []string{"https://www.who.int/mock"},
			},
		},
		SynthesizeResponse: &domain.DraftAnswer{
			Answer:       "Mock synthesized answer.",
			KeyPoints:    []string{"mock point"},
			QualityScore: 0.8,
		},
		EvaluateAnswerResponse: &domain.QualityAssessment{
			OverallScore: 0.85,
			QualityLevel: "good",
			CriteriaScores: map[string]float64{
				"accuracy": 0.85, "completeness": 0.85, "clarity": 0.85, "citations": 0.85,
			},
			Strengths: []string{"well grounded"},
		},
		CheckCompletenessResponse: &domain.CompletenessCheck{
			Score:                  0.85,
			DirectlyAddressesQuery: true,
			SufficientDetail:       true,
		},
	}
}

func (c *MockClient) AnalyzeQuery(ctx context.Context, query string) (*domain.QueryAnalysis, error) {
	c.AnalyzeQueryCalls = append(c.AnalyzeQueryCalls, query)
	if c.AnalyzeQueryError != nil {
		return nil, c.AnalyzeQueryError
	}
	return c.AnalyzeQueryResponse, nil
}

func (c *MockClient) GenerateSearchQueries(ctx context.Context, query string, topics []string) ([]string, error) {
	c.SearchQueriesCalls = append(c.SearchQueriesCalls, query)
	if c.SearchQueriesError != nil {
		return nil, c.SearchQueriesError
	}
	return c.SearchQueriesResponse, nil
}

func (c *MockClient) OrganizeFindings(ctx context.Context, query string, pages []domain.PageContent) (*domain.OrganizedFindings, error) {
	c.OrganizeFindingsCalls = append(c.OrganizeFindingsCalls, query)
	if c.OrganizeFindingsError != nil {
		return nil, c.OrganizeFindingsError
	}
	return c.OrganizeFindingsResponse, nil
}

func (c *MockClient) VerifyFindings(ctx context.Context, query string, findings []domain.Finding, reliability map[string]float64) ([]domain.VerifiedFinding, error) {
	c.VerifyFindingsCalls = append(c.VerifyFindingsCalls, findings)
	if c.VerifyFindingsError != nil {
		return nil, c.VerifyFindingsError
	}
	return c.VerifyFindingsResponse, nil
}

func (c *MockClient) DetectConflicts(ctx context.Context, findings []domain.VerifiedFinding) ([]domain.Conflict, error) {
	c.DetectConflictsCalls = append(c.DetectConflictsCalls, findings)
	if c.DetectConflictsError != nil {
		return nil, c.DetectConflictsError
	}
	return c.DetectConflictsResponse, nil
}

func (c *MockClient) Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.DraftAnswer, error) {
	c.SynthesizeCalls = append(c.SynthesizeCalls, req)
	if c.SynthesizeError != nil {
		return nil, c.SynthesizeError
	}
	return c.SynthesizeResponse, nil
}

func (c *MockClient) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (*domain.QualityAssessment, error) {
	c.EvaluateAnswerCalls = append(c.EvaluateAnswerCalls, req)
	if c.EvaluateAnswerError != nil {
		return nil, c.EvaluateAnswerError
	}
	return c.EvaluateAnswerResponse, nil
}

func (c *MockClient) CheckCompleteness(ctx context.Context, query, answer string, keyPoints []string) (*domain.CompletenessCheck, error) {
	c.CheckCompletenessCalls = append(c.CheckCompletenessCalls, query)
	if c.CheckCompletenessError != nil {
		return nil, c.CheckCompletenessError
	}
	return c.CheckCompletenessResponse, nil
}
