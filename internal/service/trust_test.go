package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/store"
	"go.uber.org/zap"
)

type mockTrustStore struct {
	mu      sync.Mutex
	records map[string]*domain.SourceTrustRecord
}

func newMockTrustStore() *mockTrustStore {
	return &mockTrustStore{records: make(map[string]*domain.SourceTrustRecord)}
}

func (m *mockTrustStore) Observe(ctx context.Context, sourceDomain string, helpful bool) (*domain.SourceTrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[sourceDomain]
	if !ok {
		r = &domain.SourceTrustRecord{Domain: sourceDomain}
		m.records[sourceDomain] = r
	}
	r.TotalObservations++
	if helpful {
		r.HelpfulObservations++
	}
	r.Score = float64(r.HelpfulObservations) / float64(r.TotalObservations)
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *mockTrustStore) Get(ctx context.Context, sourceDomain string) (*domain.SourceTrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sourceDomain]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockTrustStore) Top(ctx context.Context, limit int) ([]domain.SourceTrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SourceTrustRecord
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func TestTrustService_ScoreIsHelpfulOverTotal(t *testing.T) {
	ts := NewTrustService(newMockTrustStore(), zap.NewNop())
	ctx := context.Background()

	// three helpful, one unhelpful -> 0.75
	for i := 0; i < 3; i++ {
		if _, err := ts.RecordOutcome(ctx, "who.int", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	record, err := ts.RecordOutcome(ctx, "who.int", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Score != 0.75 {
		t.Errorf("score = %f, want 0.75", record.Score)
	}
}

func TestTrustService_ConcurrentObservationsLoseNothing(t *testing.T) {
	st := newMockTrustStore()
	ts := NewTrustService(st, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		helpful := i%2 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ts.RecordOutcome(ctx, "cdc.gov", helpful)
		}()
	}
	wg.Wait()

	record, err := st.Get(ctx, "cdc.gov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.TotalObservations != 40 {
		t.Errorf("total = %d, want 40", record.TotalObservations)
	}
	if record.HelpfulObservations != 20 {
		t.Errorf("helpful = %d, want 20", record.HelpfulObservations)
	}
	if record.Score != 0.5 {
		t.Errorf("score = %f, want 0.5", record.Score)
	}
}

func TestTrustService_RecordVerificationFeedback(t *testing.T) {
	st := newMockTrustStore()
	ts := NewTrustService(st, zap.NewNop())
	ctx := context.Background()

	report := &domain.VerificationReport{
		Findings: []domain.VerifiedFinding{
			{
				Status:            domain.VerificationVerified,
				SupportingSources: []string{"https://www.who.int/a", "https://cdc.gov/b"},
			},
			{
				Status:            domain.VerificationUnverifed,
				SupportingSources: []string{"https://cdc.gov/c"},
			},
			{
				Status:            domain.VerificationPartial,
				SupportingSources: []string{"https://nih.gov/d"},
			},
		},
	}
	ts.RecordVerification(ctx, report)

	who, _ := st.Get(ctx, "who.int")
	if who.TotalObservations != 1 || who.HelpfulObservations != 1 {
		t.Errorf("who.int = %+v, want 1 helpful of 1", who)
	}

	cdc, _ := st.Get(ctx, "cdc.gov")
	if cdc.TotalObservations != 2 || cdc.HelpfulObservations != 1 {
		t.Errorf("cdc.gov = %+v, want 1 helpful of 2", cdc)
	}

	// partially verified carries no signal
	if _, err := st.Get(ctx, "nih.gov"); err == nil {
		t.Error("nih.gov should have no observations")
	}
}

func TestTrustService_ReliabilityDefaultsToNeutral(t *testing.T) {
	st := newMockTrustStore()
	ts := NewTrustService(st, zap.NewNop())
	ctx := context.Background()

	_, _ = ts.RecordOutcome(ctx, "who.int", true)

	scores := ts.ReliabilityFor(ctx, []string{
		"https://www.who.int/page",
		"https://nejm.org/unseen",
	})
	if scores["who.int"] != 1.0 {
		t.Errorf("who.int = %f, want 1.0", scores["who.int"])
	}
	if scores["nejm.org"] != domain.NeutralTrustScore {
		t.Errorf("nejm.org = %f, want neutral", scores["nejm.org"])
	}
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.who.int/news/item", "who.int"},
		{"https://pubmed.ncbi.nlm.nih.gov/12345", "pubmed.ncbi.nlm.nih.gov"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := domainOf(tt.url); got != tt.want {
			t.Errorf("domainOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
