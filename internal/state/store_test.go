package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore()
	created := s.Create("q-1", "what is the capital of France")

	if created.Status != domain.StatusPlanning {
		t.Errorf("status = %s, want %s", created.Status, domain.StatusPlanning)
	}

	got, err := s.Get("q-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Query != "what is the capital of France" {
		t.Errorf("query = %q", got.Query)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	got, err := s.Get("q-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Status = domain.StatusFailed
	got.Sources = append(got.Sources, "https://example.com")

	fresh, err := s.Get("q-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.Status != domain.StatusPlanning {
		t.Errorf("mutation of returned copy leaked into store")
	}
	if len(fresh.Sources) != 0 {
		t.Errorf("sources = %v, want empty", fresh.Sources)
	}
}

func TestStore_SetStatus(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	steps := []domain.QueryStatus{
		domain.StatusResearching,
		domain.StatusVerifying,
		domain.StatusSynthesizing,
		domain.StatusReflecting,
	}
	for _, next := range steps {
		if err := s.SetStatus("q-1", next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// reflection may roll back to researching
	if err := s.SetStatus("q-1", domain.StatusResearching); err != nil {
		t.Fatalf("rollback to researching: %v", err)
	}
}

func TestStore_SetStatusRejectsIllegalTransition(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	err := s.SetStatus("q-1", domain.StatusSynthesizing)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if te.From != domain.StatusPlanning || te.To != domain.StatusSynthesizing {
		t.Errorf("transition error = %v", te)
	}
}

func TestStore_TerminalStateIsFinal(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	if err := s.SetStatus("q-1", domain.StatusFailed); err != nil {
		t.Fatalf("transition to failed: %v", err)
	}
	if err := s.SetStatus("q-1", domain.StatusResearching); err == nil {
		t.Error("expected transition out of failed to be rejected")
	}
}

func TestStore_AddSourcesDeduplicates(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	if err := s.AddSources("q-1", "https://a.com", "https://b.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddSources("q-1", "https://b.com", "https://c.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Get("q-1")
	want := []string{"https://a.com", "https://b.com", "https://c.com"}
	if len(got.Sources) != len(want) {
		t.Fatalf("sources = %v, want %v", got.Sources, want)
	}
	for i := range want {
		if got.Sources[i] != want[i] {
			t.Errorf("sources[%d] = %s, want %s", i, got.Sources[i], want[i])
		}
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RecordToolCall("q-1", "web_search", nil)
		}()
	}
	wg.Wait()

	got, _ := s.Get("q-1")
	if len(got.ToolCalls) != 50 {
		t.Errorf("tool calls = %d, want 50", len(got.ToolCalls))
	}
}

func TestStore_Stats(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "one")
	s.Create("q-2", "two")
	s.Create("q-3", "three")
	_ = s.SetStatus("q-3", domain.StatusResearching)

	stats := s.Stats()
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[domain.StatusPlanning] != 2 {
		t.Errorf("planning = %d, want 2", stats.ByStatus[domain.StatusPlanning])
	}
	if stats.ByStatus[domain.StatusResearching] != 1 {
		t.Errorf("researching = %d, want 1", stats.ByStatus[domain.StatusResearching])
	}
}

func TestStore_IncrementRetry(t *testing.T) {
	s := NewStore()
	s.Create("q-1", "query")

	n, err := s.IncrementRetry("q-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("retry count = %d, want 1", n)
	}

	got, _ := s.Get("q-1")
	if got.RetryCount != 1 {
		t.Errorf("stored retry count = %d, want 1", got.RetryCount)
	}
}
