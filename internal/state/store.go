// Package state holds the in-memory working state of in-flight queries.
// It is the pipeline's scratchpad; durable outcomes live in the Postgres
// stores.
package state

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

var ErrNotFound = errors.New("query state not found")

// Store is a concurrency-safe map of query ID to QueryState. Reads return
// deep copies so callers never observe a state mid-mutation.
type Store struct {
	mu      sync.RWMutex
	queries map[string]*domain.QueryState
}

func NewStore() *Store {
	return &Store{queries: make(map[string]*domain.QueryState)}
}

// Create registers a new query in the planning state.
func (s *Store) Create(id, query string) *domain.QueryState {
	now := time.Now().UTC()
	st := &domain.QueryState{
		ID:        id,
		Query:     query,
		Status:    domain.StatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.queries[id] = st
	s.mu.Unlock()

	return snapshot(st)
}

// Get returns a copy of the state for id.
func (s *Store) Get(id string) (*domain.QueryState, error) {
	s.mu.RLock()
	st, ok := s.queries[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	cp := snapshot(st)
	s.mu.RUnlock()
	return cp, nil
}

// Update applies fn to the state for id under the store lock.
func (s *Store) Update(id string, fn func(*domain.QueryState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.queries[id]
	if !ok {
		return ErrNotFound
	}
	fn(st)
	st.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus transitions the query to next, rejecting illegal transitions.
func (s *Store) SetStatus(id string, next domain.QueryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.queries[id]
	if !ok {
		return ErrNotFound
	}
	if !st.Status.CanTransition(next) {
		return &TransitionError{From: st.Status, To: next}
	}
	st.Status = next
	st.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordToolCall appends one entry to the query's tool log.
func (s *Store) RecordToolCall(id, tool string, params map[string]any) error {
	return s.Update(id, func(st *domain.QueryState) {
		st.ToolCalls = append(st.ToolCalls, domain.ToolCall{
			Tool:      tool,
			Params:    params,
			Timestamp: time.Now().UTC(),
		})
	})
}

// RecordError appends one entry to the query's error log.
func (s *Store) RecordError(id, stage, message string) error {
	return s.Update(id, func(st *domain.QueryState) {
		st.Errors = append(st.Errors, domain.ErrorRecord{
			Stage:     stage,
			Message:   message,
			Timestamp: time.Now().UTC(),
		})
	})
}

// AddSources merges urls into the query's source set, preserving insertion
// order and dropping duplicates.
func (s *Store) AddSources(id string, urls ...string) error {
	return s.Update(id, func(st *domain.QueryState) {
		seen := make(map[string]bool, len(st.Sources))
		for _, u := range st.Sources {
			seen[u] = true
		}
		for _, u := range urls {
			if !seen[u] {
				seen[u] = true
				st.Sources = append(st.Sources, u)
			}
		}
	})
}

// IncrementRetry bumps the retry counter and returns the new value.
func (s *Store) IncrementRetry(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.queries[id]
	if !ok {
		return 0, ErrNotFound
	}
	st.RetryCount++
	st.UpdatedAt = time.Now().UTC()
	return st.RetryCount, nil
}

// StorePlan records the planning stage's output.
func (s *Store) StorePlan(id string, plan *domain.PlanResult) error {
	return s.Update(id, func(st *domain.QueryState) { st.Plan = plan })
}

// StoreFindings records the research stage's output.
func (s *Store) StoreFindings(id string, findings *domain.ResearchFindings) error {
	return s.Update(id, func(st *domain.QueryState) { st.Findings = findings })
}

// StoreVerification records the verification stage's output.
func (s *Store) StoreVerification(id string, report *domain.VerificationReport) error {
	return s.Update(id, func(st *domain.QueryState) { st.Verification = report })
}

// StoreSynthesis records the synthesis stage's output and the answer it
// produced.
func (s *Store) StoreSynthesis(id string, synthesis *domain.SynthesisResult) error {
	return s.Update(id, func(st *domain.QueryState) {
		st.Synthesis = synthesis
		st.FinalAnswer = synthesis.Answer
		st.Confidence = synthesis.Confidence
	})
}

// StoreReflection records the reflection stage's output.
func (s *Store) StoreReflection(id string, reflection *domain.ReflectionResult) error {
	return s.Update(id, func(st *domain.QueryState) { st.Reflection = reflection })
}

// Delete removes the state for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.queries, id)
	s.mu.Unlock()
}

// DeleteAll clears every query state.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	s.queries = make(map[string]*domain.QueryState)
	s.mu.Unlock()
}

// Stats summarizes the store's contents.
type Stats struct {
	Total    int                        `json:"total"`
	ByStatus map[domain.QueryStatus]int `json:"by_status"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.QueryStatus]int)
	for _, st := range s.queries {
		counts[st.Status]++
	}
	return Stats{Total: len(s.queries), ByStatus: counts}
}

// TransitionError reports an illegal status transition.
type TransitionError struct {
	From domain.QueryStatus
	To   domain.QueryStatus
}

func (e *TransitionError) Error() string {
	return "illegal transition from " + string(e.From) + " to " + string(e.To)
}

// snapshot deep-copies st through JSON. Query states are small and are only
// snapshotted on reads, so the round trip is cheap enough.
func snapshot(st *domain.QueryState) *domain.QueryState {
	b, err := json.Marshal(st)
	if err != nil {
		cp := *st
		return &cp
	}
	var cp domain.QueryState
	if err := json.Unmarshal(b, &cp); err != nil {
		c := *st
		return &c
	}
	return &cp
}
