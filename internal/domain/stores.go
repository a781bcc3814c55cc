package domain

import "context"

// SourceTrustStore persists per-domain trust counters.
type SourceTrustStore interface {
	// Observe records one outcome for a domain and returns the updated
	// record. The update is atomic: concurrent observations for the same
	// domain never lose counts.
	Observe(ctx context.Context, domain string, helpful bool) (*SourceTrustRecord, error)
	Get(ctx context.Context, domain string) (*SourceTrustRecord, error)
	Top(ctx context.Context, limit int) ([]SourceTrustRecord, error)
}

// LearningStore persists insights extracted from completed queries.
type LearningStore interface {
	Create(ctx context.Context, learning *LearningRecord, embedding []float32) error
	GetByTopic(ctx context.Context, topic string, limit int) ([]LearningRecord, error)
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]LearningMatch, error)
	ListTopics(ctx context.Context) ([]string, error)
}

// QueryHistoryStore archives completed query outcomes.
type QueryHistoryStore interface {
	Save(ctx context.Context, record *QueryRecord) error
	GetByQueryID(ctx context.Context, queryID string) (*QueryRecord, error)
	Search(ctx context.Context, term string, limit int) ([]QueryRecord, error)
	Recent(ctx context.Context, limit int) ([]QueryRecord, error)
}

// MetricsStore persists per-query run metrics.
type MetricsStore interface {
	Save(ctx context.Context, record *MetricsRecord) error
	Summary(ctx context.Context) (*MetricsSummary, error)
	Reset(ctx context.Context) error
}

// EmbeddingClient produces vector embeddings for text.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchClient runs web searches.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// FetchClient retrieves and extracts page content from allowed URLs.
// Fetching a URL outside the allowlist is a validation error; callers
// filter candidates with Allowed first.
type FetchClient interface {
	Allowed(url string) bool
	Fetch(ctx context.Context, url string) (*PageContent, error)
}

// SynthesisRequest bundles the inputs to answer synthesis.
type SynthesisRequest struct {
	Query            string
	Style            AnswerStyle
	Findings         []VerifiedFinding
	Conflicts        []Conflict
	Themes           []string
	CredibilityLevel CredibilityLevel
}

// EvaluationRequest bundles the inputs to reflection's quality grading.
type EvaluationRequest struct {
	Query            string
	Answer           string
	Confidence       float64
	CitationCount    int
	CredibilityLevel CredibilityLevel
}

// LLMClient is the language-model surface the pipeline stages call. Each
// method corresponds to one structured prompt and returns parsed output.
type LLMClient interface {
	AnalyzeQuery(ctx context.Context, query string) (*QueryAnalysis, error)
	GenerateSearchQueries(ctx context.Context, query string, topics []string) ([]string, error)
	OrganizeFindings(ctx context.Context, query string, pages []PageContent) (*OrganizedFindings, error)
	VerifyFindings(ctx context.Context, query string, findings []Finding, reliability map[string]float64) ([]VerifiedFinding, error)
	DetectConflicts(ctx context.Context, findings []VerifiedFinding) ([]Conflict, error)
	Synthesize(ctx context.Context, req SynthesisRequest) (*DraftAnswer, error)
	EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*QualityAssessment, error)
	CheckCompleteness(ctx context.Context, query, answer string, keyPoints []string) (*CompletenessCheck, error)
}
