package embedding

import (
	"context"
	"hash/fnv"
)

// MockClient produces deterministic embeddings derived from the input text,
// so similarity queries behave consistently in tests.
type MockClient struct {
	Dimensions int
	EmbedError error

	EmbedCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{Dimensions: 1536}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.EmbedCalls = append(c.EmbedCalls, text)
	if c.EmbedError != nil {
		return nil, c.EmbedError
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, c.Dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed%2000)-1000) / 1000
	}
	return vec, nil
}
