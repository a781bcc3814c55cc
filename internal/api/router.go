package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/inquest/internal/api/handlers"
	mw "github.com/Harshitk-cp/inquest/internal/api/middleware"
	"github.com/Harshitk-cp/inquest/internal/config"
	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/embedding"
	"github.com/Harshitk-cp/inquest/internal/fetch"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/search"
	"github.com/Harshitk-cp/inquest/internal/service"
	"github.com/Harshitk-cp/inquest/internal/state"
	"github.com/Harshitk-cp/inquest/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	trustStore := store.NewSourceTrustStore(db)
	learningStore := store.NewLearningStore(db)
	historyStore := store.NewQueryHistoryStore(db)
	metricsStore := store.NewMetricsStore(db)

	// External clients via provider factory. A misconfigured provider falls
	// back to the mock so the server still starts for local development.
	llmClient, err := llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed, using mock",
			zap.String("provider", config.LLMProvider()), zap.Error(err))
		llmClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed, using mock",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	searchClient, err := search.NewClient(config.SearchProvider(), config.TavilyAPIKey())
	if err != nil {
		logger.Warn("search client initialization failed, using mock",
			zap.String("provider", config.SearchProvider()), zap.Error(err))
		searchClient = search.NewMockClient()
	} else {
		logger.Info("search client initialized", zap.String("provider", config.SearchProvider()))
	}

	fetcher := fetch.NewFetcher(fetch.Options{
		AllowedDomains: config.AllowedDomains(),
		Timeout:        time.Duration(config.FetchTimeoutSeconds()) * time.Second,
		MaxRetries:     config.FetchMaxRetries(),
		MaxPageBytes:   int64(config.MaxPageSizeMB()) << 20,
	})

	// Services
	states := state.NewStore()
	trustSvc := service.NewTrustService(trustStore, logger)
	learningSvc := service.NewLearningService(learningStore, historyStore, embeddingClient, logger)

	orch := service.NewOrchestrator(
		states,
		service.NewPlanner(states, llmClient, learningSvc, logger),
		service.NewResearcher(states, llmClient, searchClient, fetcher, trustSvc,
			config.MaxSearchResults(), config.MaxURLFetches(), logger),
		service.NewVerifier(states, llmClient, trustSvc, logger),
		service.NewSynthesizer(states, llmClient, logger),
		service.NewReflector(states, llmClient, learningSvc, logger),
		learningSvc,
		metricsStore,
		config.MaxPipelineRetries(),
		time.Duration(config.QueryTimeoutSeconds())*time.Second,
		logger,
	)

	// Handlers
	queryHandler := handlers.NewQueryHandler(orch)
	statsHandler := handlers.NewStatsHandler(orch)
	sourcesHandler := handlers.NewSourcesHandler(trustSvc)
	learningHandler := handlers.NewLearningHandler(learningSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/queries", func(r chi.Router) {
			r.Post("/", queryHandler.Submit)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", queryHandler.Status)
				r.Get("/result", queryHandler.Result)
			})
		})

		r.Get("/stats", statsHandler.Get)
		r.Post("/stats/reset", statsHandler.Reset)

		r.Get("/sources/top", sourcesHandler.Top)

		r.Route("/learnings", func(r chi.Router) {
			r.Get("/", learningHandler.List)
			r.Get("/topics", learningHandler.Topics)
		})
		r.Get("/history", learningHandler.History)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SourceTrustStore  = (*store.SourceTrustStore)(nil)
	_ domain.LearningStore     = (*store.LearningStore)(nil)
	_ domain.QueryHistoryStore = (*store.QueryHistoryStore)(nil)
	_ domain.MetricsStore      = (*store.MetricsStore)(nil)
	_ domain.EmbeddingClient   = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient   = (*embedding.MockClient)(nil)
	_ domain.LLMClient         = (*llm.Client)(nil)
	_ domain.LLMClient         = (*llm.MockClient)(nil)
	_ domain.SearchClient      = (*search.TavilyClient)(nil)
	_ domain.SearchClient      = (*search.MockClient)(nil)
	_ domain.FetchClient       = (*fetch.Fetcher)(nil)
	_ domain.FetchClient       = (*fetch.MockClient)(nil)
)
