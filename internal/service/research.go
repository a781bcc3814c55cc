package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/fetch"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/state"
	"go.uber.org/zap"
)

const (
	maxSearchQueries = 3
	searchAttempts   = 2
)

// Researcher runs the plan's search queries, fetches allowlisted pages, and
// organizes their content into findings.
type Researcher struct {
	states  *state.Store
	llm     domain.LLMClient
	search  domain.SearchClient
	fetcher domain.FetchClient
	trust   *TrustService
	logger  *zap.Logger

	maxResults int
	maxFetches int
}

func NewResearcher(states *state.Store, lc domain.LLMClient, sc domain.SearchClient, fc domain.FetchClient, trust *TrustService, maxResults, maxFetches int, logger *zap.Logger) *Researcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxFetches <= 0 {
		maxFetches = 3
	}
	return &Researcher{
		states:     states,
		llm:        lc,
		search:     sc,
		fetcher:    fc,
		trust:      trust,
		logger:     logger,
		maxResults: maxResults,
		maxFetches: maxFetches,
	}
}

func (r *Researcher) Name() string { return "researcher" }

func (r *Researcher) Execute(ctx context.Context, queryID string) (float64, error) {
	st, err := r.states.Get(queryID)
	if err != nil {
		return 0, fatalErr(r.Name(), err)
	}

	queries := r.searchQueries(ctx, queryID, st)
	results, err := r.runSearches(ctx, queryID, queries)
	if err != nil {
		return 0, err
	}

	pages := r.fetchPages(ctx, queryID, results)

	organized, err := r.organize(ctx, queryID, st.Query, pages)
	if err != nil {
		return 0, err
	}

	findings := &domain.ResearchFindings{
		OrganizedFindings: *organized,
		SearchResults:     results,
		Pages:             pages,
		SourcesFound:      len(results),
		SourcesFetched:    len(pages),
	}
	if err := r.states.StoreFindings(queryID, findings); err != nil {
		return 0, fatalErr(r.Name(), err)
	}

	for _, p := range pages {
		_ = r.states.AddSources(queryID, p.URL)
	}

	confidence := meanConfidence(organized.KeyFindings)
	r.logger.Info("research complete",
		zap.String("query_id", queryID),
		zap.Int("sources_found", len(results)),
		zap.Int("sources_fetched", len(pages)),
		zap.Int("findings", len(organized.KeyFindings)),
		zap.Float64("confidence", confidence))
	return confidence, nil
}

func (r *Researcher) searchQueries(ctx context.Context, queryID string, st *domain.QueryState) []string {
	var topics []string
	if st.Plan != nil {
		topics = st.Plan.Analysis.KeyTopics
	}

	queries, err := r.llm.GenerateSearchQueries(ctx, st.Query, topics)
	if err != nil || len(queries) == 0 {
		if err != nil {
			r.logger.Warn("search query generation failed, using raw query",
				zap.String("query_id", queryID), zap.Error(err))
		}
		queries = []string{st.Query}
	}
	if len(queries) > maxSearchQueries {
		queries = queries[:maxSearchQueries]
	}
	return queries
}

// runSearches issues each search with a small local retry budget and
// deduplicates results by URL across queries.
func (r *Researcher) runSearches(ctx context.Context, queryID string, queries []string) ([]domain.SearchResult, error) {
	seen := make(map[string]bool)
	var results []domain.SearchResult
	for _, q := range queries {
		_ = r.states.RecordToolCall(queryID, "web_search", map[string]any{"query": q})

		batch, err := r.searchWithRetry(ctx, q)
		if err != nil {
			_ = r.states.RecordError(queryID, r.Name(), err.Error())
			return nil, recoverableErr(r.Name(), err)
		}
		for _, res := range batch {
			if seen[res.URL] {
				continue
			}
			seen[res.URL] = true
			results = append(results, res)
		}
	}
	return results, nil
}

func (r *Researcher) searchWithRetry(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < searchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		results, err := r.search.Search(ctx, query, r.maxResults)
		if err == nil {
			return results, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// fetchPages fetches the best-scored allowlisted results up to the fetch
// budget. Each successful fetch records a helpful trust observation for the
// source domain; a fetch that fails after retries records an unhelpful one.
func (r *Researcher) fetchPages(ctx context.Context, queryID string, results []domain.SearchResult) []domain.PageContent {
	ranked := make([]domain.SearchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var pages []domain.PageContent
	for _, res := range ranked {
		if len(pages) >= r.maxFetches {
			break
		}
		if !r.fetcher.Allowed(res.URL) {
			r.logger.Debug("skipping non-allowlisted source",
				zap.String("query_id", queryID), zap.String("url", res.URL))
			continue
		}

		_ = r.states.RecordToolCall(queryID, "url_fetch", map[string]any{"url": res.URL})
		page, err := r.fetcher.Fetch(ctx, res.URL)
		if err != nil {
			_ = r.states.RecordError(queryID, r.Name(), err.Error())
			if !errors.Is(err, fetch.ErrDomainNotAllowed) {
				if d := domainOf(res.URL); d != "" {
					if _, terr := r.trust.RecordOutcome(ctx, d, false); terr != nil {
						r.logger.Warn("trust observation failed", zap.String("domain", d), zap.Error(terr))
					}
				}
			}
			continue
		}
		pages = append(pages, *page)

		if d := domainOf(res.URL); d != "" {
			if _, terr := r.trust.RecordOutcome(ctx, d, true); terr != nil {
				r.logger.Warn("trust observation failed", zap.String("domain", d), zap.Error(terr))
			}
		}
	}
	return pages
}

func (r *Researcher) organize(ctx context.Context, queryID, query string, pages []domain.PageContent) (*domain.OrganizedFindings, error) {
	if len(pages) == 0 {
		return &domain.OrganizedFindings{Summary: "no sources could be fetched"}, nil
	}

	organized, err := r.llm.OrganizeFindings(ctx, query, pages)
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return nil, recoverableErr(r.Name(), err)
		}
		r.logger.Warn("findings unparseable, using default",
			zap.String("query_id", queryID), zap.Error(err))
		return &domain.OrganizedFindings{
			Summary: "findings could not be organized from fetched sources",
		}, nil
	}
	return organized, nil
}

func meanConfidence(findings []domain.Finding) float64 {
	if len(findings) == 0 {
		return 0
	}
	var sum float64
	for _, f := range findings {
		sum += f.Confidence
	}
	return sum / float64(len(findings))
}
