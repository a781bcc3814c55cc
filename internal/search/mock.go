package search

import (
	"context"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// MockClient is a configurable search client for testing.
type MockClient struct {
	Results     []domain.SearchResult
	SearchError error

	SearchCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Results: []domain.SearchResult{
			{
				Title:   "Mock result",
				URL:     "https://www.who.int/mock",
				Snippet: "Mock search snippet.",
				Score:   0.9,
			},
		},
	}
}

func (c *MockClient) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	c.SearchCalls = append(c.SearchCalls, query)
	if c.SearchError != nil {
		return nil, c.SearchError
	}

	results := c.Results
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].Query = query
	}
	return out, nil
}
