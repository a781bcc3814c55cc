package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/embedding"
	"github.com/Harshitk-cp/inquest/internal/fetch"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/search"
	"github.com/Harshitk-cp/inquest/internal/state"
	"github.com/Harshitk-cp/inquest/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockLearningStore struct {
	mu        sync.Mutex
	learnings []domain.LearningRecord
}

func (m *mockLearningStore) Create(ctx context.Context, l *domain.LearningRecord, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	m.learnings = append(m.learnings, *l)
	return nil
}

func (m *mockLearningStore) GetByTopic(ctx context.Context, topic string, limit int) ([]domain.LearningRecord, error) {
	return nil, nil
}

func (m *mockLearningStore) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.LearningMatch, error) {
	return nil, nil
}

func (m *mockLearningStore) ListTopics(ctx context.Context) ([]string, error) {
	return nil, nil
}

type mockHistoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.QueryRecord
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{records: make(map[string]*domain.QueryRecord)}
}

func (m *mockHistoryStore) Save(ctx context.Context, r *domain.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.CreatedAt = time.Now()
	cp := *r
	m.records[r.QueryID] = &cp
	return nil
}

func (m *mockHistoryStore) GetByQueryID(ctx context.Context, queryID string) (*domain.QueryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[queryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockHistoryStore) Search(ctx context.Context, term string, limit int) ([]domain.QueryRecord, error) {
	return nil, nil
}

func (m *mockHistoryStore) Recent(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	return nil, nil
}

type mockMetricsStore struct {
	mu      sync.Mutex
	records []domain.MetricsRecord
}

func (m *mockMetricsStore) Save(ctx context.Context, r *domain.MetricsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.records = append(m.records, *r)
	return nil
}

func (m *mockMetricsStore) Summary(ctx context.Context) (*domain.MetricsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := &domain.MetricsSummary{TotalQueries: int64(len(m.records))}
	for _, r := range m.records {
		if r.Succeeded {
			sum.SuccessfulQueries++
			sum.AverageConfidence += r.Confidence
		} else {
			sum.FailedQueries++
		}
		sum.TotalSourcesUsed += int64(r.SourcesUsed)
		sum.TotalRetries += int64(r.RetryCount)
	}
	if sum.SuccessfulQueries > 0 {
		sum.AverageConfidence /= float64(sum.SuccessfulQueries)
	}
	return sum, nil
}

func (m *mockMetricsStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// scriptedLLM pops queued reflection grades before falling back to the
// embedded mock, so a pipeline can fail reflection once and pass on retry.
type scriptedLLM struct {
	*llm.MockClient
	evaluations []*domain.QualityAssessment
}

func (s *scriptedLLM) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (*domain.QualityAssessment, error) {
	if len(s.evaluations) > 0 {
		next := s.evaluations[0]
		s.evaluations = s.evaluations[1:]
		return next, nil
	}
	return s.MockClient.EvaluateAnswer(ctx, req)
}

type pipelineFixture struct {
	orch    *Orchestrator
	states  *state.Store
	llm     *scriptedLLM
	search  *search.MockClient
	fetcher *fetch.MockClient
	trust   *mockTrustStore
	history *mockHistoryStore
	metrics *mockMetricsStore
}

func newPipelineFixture(maxRetries int) *pipelineFixture {
	logger := zap.NewNop()
	states := state.NewStore()
	llmMock := &scriptedLLM{MockClient: llm.NewMockClient()}
	searchMock := search.NewMockClient()
	fetchMock := fetch.NewMockClient()
	trustStore := newMockTrustStore()
	historyStore := newMockHistoryStore()
	metricsStore := &mockMetricsStore{}

	trust := NewTrustService(trustStore, logger)
	learning := NewLearningService(&mockLearningStore{}, historyStore, embedding.NewMockClient(), logger)

	orch := NewOrchestrator(
		states,
		NewPlanner(states, llmMock, learning, logger),
		NewResearcher(states, llmMock, searchMock, fetchMock, trust, 5, 3, logger),
		NewVerifier(states, llmMock, trust, logger),
		NewSynthesizer(states, llmMock, logger),
		NewReflector(states, llmMock, learning, logger),
		learning,
		metricsStore,
		maxRetries,
		30*time.Second,
		logger,
	)
	return &pipelineFixture{
		orch:    orch,
		states:  states,
		llm:     llmMock,
		search:  searchMock,
		fetcher: fetchMock,
		trust:   trustStore,
		history: historyStore,
		metrics: metricsStore,
	}
}

func TestOrchestrator_SubmitValidation(t *testing.T) {
	f := newPipelineFixture(2)

	if _, err := f.orch.Submit("   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}

	long := make([]byte, MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := f.orch.Submit(string(long)); !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("err = %v, want ErrQueryTooLong", err)
	}
}

func TestOrchestrator_HappyPath(t *testing.T) {
	f := newPipelineFixture(2)
	ctx := context.Background()

	// who.int has a strong track record, so its findings grade high
	_, _ = f.trust.Observe(ctx, "who.int", true)
	_, _ = f.trust.Observe(ctx, "who.int", true)

	id, err := f.orch.Submit("are mRNA vaccines safe")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := f.orch.Run(ctx, id)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Answer != "Mock synthesized answer." {
		t.Errorf("answer = %q", result.Answer)
	}
	// verification 0.88, credibility high, synthesis quality 0.8:
	// 0.4*0.88 + 0.4*0.9 + 0.2*0.8 = 0.87
	if result.Confidence != 0.87 {
		t.Errorf("confidence = %f, want 0.87", result.Confidence)
	}
	if result.RetryCount != 0 {
		t.Errorf("retries = %d, want 0", result.RetryCount)
	}
	if result.Quality.CredibilityLevel != domain.CredibilityHigh {
		t.Errorf("credibility = %s, want high", result.Quality.CredibilityLevel)
	}

	// state is evicted after finalization
	if _, err := f.orch.Status(id); !errors.Is(err, ErrQueryNotFound) {
		t.Errorf("status after completion = %v, want ErrQueryNotFound", err)
	}

	// outcome is archived and retrievable
	record, err := f.orch.Result(ctx, id)
	if err != nil {
		t.Fatalf("result lookup: %v", err)
	}
	if record.Answer != result.Answer {
		t.Errorf("archived answer = %q", record.Answer)
	}

	if len(f.metrics.records) != 1 {
		t.Errorf("metrics records = %d, want 1", len(f.metrics.records))
	}
}

func TestOrchestrator_TrustFeedbackOnVerified(t *testing.T) {
	f := newPipelineFixture(2)

	id, _ := f.orch.Submit("query")
	if _, err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	// one helpful observation for the successful fetch, one more when the
	// verifier marks the who.int finding verified
	record, err := f.trust.Get(context.Background(), "who.int")
	if err != nil {
		t.Fatalf("trust lookup: %v", err)
	}
	if record.HelpfulObservations != 2 || record.TotalObservations != 2 {
		t.Errorf("who.int = %d/%d, want 2/2", record.HelpfulObservations, record.TotalObservations)
	}
}

func TestOrchestrator_RejectsConcurrentRun(t *testing.T) {
	f := newPipelineFixture(2)

	id, _ := f.orch.Submit("query already in flight")
	if err := f.orch.beginRun(id); err != nil {
		t.Fatalf("beginRun: %v", err)
	}
	defer f.orch.endRun(id)

	if _, err := f.orch.Run(context.Background(), id); !errors.Is(err, ErrQueryActive) {
		t.Errorf("err = %v, want ErrQueryActive", err)
	}

	// the rejected run must not have touched the query state
	st, err := f.orch.Status(id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != domain.StatusPlanning {
		t.Errorf("status = %s, want planning", st.Status)
	}
}

func TestOrchestrator_RunReleasesGuardOnCompletion(t *testing.T) {
	f := newPipelineFixture(2)

	id, _ := f.orch.Submit("query")
	if _, err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	// the finished run released its slot, so the id only fails as unknown
	if _, err := f.orch.Run(context.Background(), id); !errors.Is(err, ErrQueryNotFound) {
		t.Errorf("err = %v, want ErrQueryNotFound", err)
	}
}

func TestOrchestrator_FetchSuccessRecordsHelpfulSource(t *testing.T) {
	f := newPipelineFixture(2)
	// partial verification contributes no trust signal of its own
	f.llm.MockClient.VerifyFindingsResponse = []domain.VerifiedFinding{
		{
			Text:              "Mock finding",
			Status:            domain.VerificationPartial,
			Confidence:        0.7,
			SupportingSources: []string{"https://www.who.int/mock"},
		},
	}

	id, _ := f.orch.Submit("query")
	if _, err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record, err := f.trust.Get(context.Background(), "who.int")
	if err != nil {
		t.Fatalf("trust lookup: %v", err)
	}
	if record.HelpfulObservations != 1 || record.TotalObservations != 1 {
		t.Errorf("who.int = %d/%d, want 1/1 from the fetch alone",
			record.HelpfulObservations, record.TotalObservations)
	}
}

func TestOrchestrator_ReflectionRetryReusesPlan(t *testing.T) {
	f := newPipelineFixture(2)
	// first reflection grades below threshold, second passes
	f.llm.evaluations = []*domain.QualityAssessment{
		{OverallScore: 0.50, QualityLevel: "poor", Weaknesses: []string{"thin sourcing"}},
		{OverallScore: 0.85, QualityLevel: "good"},
	}

	id, _ := f.orch.Submit("query needing a second pass")
	result, err := f.orch.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.RetryCount != 1 {
		t.Errorf("retries = %d, want exactly 1", result.RetryCount)
	}
	// planning ran once; research ran twice on the reused plan
	if got := len(f.llm.AnalyzeQueryCalls); got != 1 {
		t.Errorf("analyze calls = %d, want 1", got)
	}
	if got := len(f.search.SearchCalls); got != 2 {
		t.Errorf("search calls = %d, want 2", got)
	}
}

func TestOrchestrator_RetryBudgetExhaustedFails(t *testing.T) {
	f := newPipelineFixture(1)
	// reflection never passes
	f.llm.MockClient.EvaluateAnswerResponse = &domain.QualityAssessment{
		OverallScore: 0.40,
		QualityLevel: "poor",
	}

	id, _ := f.orch.Submit("query that never satisfies reflection")
	_, err := f.orch.Run(context.Background(), id)

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeMaxRetries {
		t.Errorf("code = %s, want %s", pe.Code, CodeMaxRetries)
	}
	if pe.QueryID != id {
		t.Errorf("query id = %s, want %s", pe.QueryID, id)
	}
}

func TestOrchestrator_RecoverableStageErrorConsumesRetries(t *testing.T) {
	f := newPipelineFixture(1)
	f.search.SearchError = errors.New("search service unavailable")

	id, _ := f.orch.Submit("query with a broken search backend")
	_, err := f.orch.Run(context.Background(), id)

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeMaxRetries {
		t.Errorf("code = %s, want %s", pe.Code, CodeMaxRetries)
	}
}

func TestOrchestrator_QueryTimeout(t *testing.T) {
	f := newPipelineFixture(2)
	f.orch.queryTimeout = time.Nanosecond

	id, _ := f.orch.Submit("query that cannot finish in time")
	_, err := f.orch.Run(context.Background(), id)

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeQueryTimeout {
		t.Errorf("code = %s, want %s", pe.Code, CodeQueryTimeout)
	}
}

func TestOrchestrator_UnparseableAnalysisFallsBack(t *testing.T) {
	f := newPipelineFixture(2)
	f.llm.MockClient.AnalyzeQueryError = &llm.UnparseableError{Raw: "not json", Err: errors.New("bad")}

	id, _ := f.orch.Submit("query with unparseable analysis")
	result, err := f.orch.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Answer == "" {
		t.Error("expected an answer despite unparseable analysis")
	}
}

func TestOrchestrator_UnparseableEvaluationDefaults(t *testing.T) {
	f := newPipelineFixture(2)
	f.llm.MockClient.EvaluateAnswerError = &llm.UnparseableError{Raw: "not json", Err: errors.New("bad")}

	id, _ := f.orch.Submit("query with an unparseable evaluation")
	result, err := f.orch.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.RetryCount != 0 {
		t.Errorf("retries = %d, want 0", result.RetryCount)
	}
	if result.Quality.ReflectionScore == nil || *result.Quality.ReflectionScore != 0.7 {
		t.Errorf("reflection score = %v, want default 0.7", result.Quality.ReflectionScore)
	}
}

func TestOrchestrator_ReflectionBackendErrorConsumesRetries(t *testing.T) {
	f := newPipelineFixture(0)
	f.llm.MockClient.EvaluateAnswerError = errors.New("llm unavailable")

	id, _ := f.orch.Submit("query whose reflection backend is down")
	_, err := f.orch.Run(context.Background(), id)

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeMaxRetries {
		t.Errorf("code = %s, want %s", pe.Code, CodeMaxRetries)
	}
}

func TestOrchestrator_FailureCountedInStats(t *testing.T) {
	f := newPipelineFixture(0)
	f.search.SearchError = errors.New("search service unavailable")
	ctx := context.Background()

	id, _ := f.orch.Submit("query that fails terminally")
	if _, err := f.orch.Run(ctx, id); err == nil {
		t.Fatal("expected terminal failure")
	}

	if len(f.metrics.records) != 1 {
		t.Fatalf("metrics records = %d, want 1", len(f.metrics.records))
	}
	rec := f.metrics.records[0]
	if rec.Succeeded {
		t.Error("failure recorded as succeeded")
	}
	if rec.FailureCode != CodeMaxRetries {
		t.Errorf("failure code = %s, want %s", rec.FailureCode, CodeMaxRetries)
	}

	stats, err := f.orch.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Totals.FailedQueries != 1 || stats.Totals.SuccessfulQueries != 0 {
		t.Errorf("failed/successful = %d/%d, want 1/0",
			stats.Totals.FailedQueries, stats.Totals.SuccessfulQueries)
	}
	if s := stats.Stages["planner"]; s.Executions != 1 || s.Failures != 0 {
		t.Errorf("planner stage = %+v, want 1 execution, 0 failures", s)
	}
	if s := stats.Stages["researcher"]; s.Executions != 1 || s.Failures != 1 {
		t.Errorf("researcher stage = %+v, want 1 execution, 1 failure", s)
	}
}

func TestOrchestrator_ResultWhileInFlight(t *testing.T) {
	f := newPipelineFixture(2)

	id, _ := f.orch.Submit("query not yet run")
	if _, err := f.orch.Result(context.Background(), id); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("err = %v, want ErrNotCompleted", err)
	}
}

func TestOrchestrator_ResetStats(t *testing.T) {
	f := newPipelineFixture(2)
	ctx := context.Background()

	id, _ := f.orch.Submit("query")
	if _, err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats, err := f.orch.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Totals.TotalQueries != 1 {
		t.Errorf("total queries = %d, want 1", stats.Totals.TotalQueries)
	}

	if err := f.orch.ResetStats(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	stats, _ = f.orch.Stats(ctx)
	if stats.Totals.TotalQueries != 0 {
		t.Errorf("total queries after reset = %d, want 0", stats.Totals.TotalQueries)
	}
	if len(stats.Stages) != 0 {
		t.Errorf("stage stats after reset = %v, want empty", stats.Stages)
	}
}
