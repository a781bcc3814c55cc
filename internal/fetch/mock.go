package fetch

import (
	"context"
	"strings"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// MockClient is a configurable fetch client for testing. All domains are
// allowed unless listed in Disallowed.
type MockClient struct {
	Pages      map[string]*domain.PageContent
	Disallowed map[string]bool
	FetchError error

	FetchCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Pages:      make(map[string]*domain.PageContent),
		Disallowed: make(map[string]bool),
	}
}

func (c *MockClient) Allowed(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return !c.Disallowed[normalizeDomain(host)]
}

func (c *MockClient) Fetch(ctx context.Context, rawURL string) (*domain.PageContent, error) {
	c.FetchCalls = append(c.FetchCalls, rawURL)
	if !c.Allowed(rawURL) {
		return nil, ErrDomainNotAllowed
	}
	if c.FetchError != nil {
		return nil, c.FetchError
	}

	if page, ok := c.Pages[rawURL]; ok {
		cp := *page
		return &cp, nil
	}

	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}
	text := "Mock page content for " + rawURL
	return &domain.PageContent{
		URL:       rawURL,
		Domain:    normalizeDomain(host),
		Title:     "Mock page " + strings.TrimPrefix(host, "www."),
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}, nil
}
