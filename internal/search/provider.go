package search

import (
	"fmt"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// Provider constants
const (
	ProviderTavily = "tavily"
	ProviderMock   = "mock"
)

// NewClient creates a web search client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.SearchClient, error) {
	switch provider {
	case ProviderTavily:
		if apiKey == "" {
			return nil, fmt.Errorf("TAVILY_API_KEY is required for Tavily provider")
		}
		return NewTavilyClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s (valid options: tavily, mock)", provider)
	}
}
