package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by INQUEST_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("INQUEST_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func TavilyAPIKey() string {
	return os.Getenv("TAVILY_API_KEY")
}

// APIKey returns the static key clients must present in X-API-Key.
// Empty means the API is open (local development).
func APIKey() string {
	return os.Getenv("API_KEY")
}

// LLMProvider returns the configured reasoning provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured reasoning provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// SearchProvider returns the configured web search provider.
// Valid values: tavily, mock
func SearchProvider() string {
	p := os.Getenv("SEARCH_PROVIDER")
	if p == "" {
		return "tavily"
	}
	return p
}

// MaxPipelineRetries returns the pipeline-level retry budget R.
// A query is allowed at most R restarts before it fails terminally.
func MaxPipelineRetries() int {
	n, err := strconv.Atoi(os.Getenv("MAX_PIPELINE_RETRIES"))
	if err != nil || n < 0 {
		return 2
	}
	return n
}

// QueryTimeoutSeconds returns the hard per-query timeout enforced by the
// orchestrator. Defaults to 120 if not set.
func QueryTimeoutSeconds() int {
	n, err := strconv.Atoi(os.Getenv("QUERY_TIMEOUT_SECONDS"))
	if err != nil || n <= 0 {
		return 120
	}
	return n
}

// FetchTimeoutSeconds returns the timeout for a single page fetch.
func FetchTimeoutSeconds() int {
	n, err := strconv.Atoi(os.Getenv("FETCH_TIMEOUT_SECONDS"))
	if err != nil || n <= 0 {
		return 15
	}
	return n
}

// FetchMaxRetries returns the stage-local retry budget for page fetches.
func FetchMaxRetries() int {
	n, err := strconv.Atoi(os.Getenv("FETCH_MAX_RETRIES"))
	if err != nil || n < 0 {
		return 2
	}
	return n
}

// MaxPageSizeMB returns the largest page the fetcher will accept.
func MaxPageSizeMB() int {
	n, err := strconv.Atoi(os.Getenv("MAX_PAGE_SIZE_MB"))
	if err != nil || n <= 0 {
		return 5
	}
	return n
}

// MaxSearchResults returns results requested per search query.
func MaxSearchResults() int {
	n, err := strconv.Atoi(os.Getenv("MAX_SEARCH_RESULTS"))
	if err != nil || n <= 0 {
		return 5
	}
	return n
}

// MaxURLFetches returns how many pages the researcher extracts per query.
func MaxURLFetches() int {
	n, err := strconv.Atoi(os.Getenv("MAX_URL_FETCHES"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

var defaultAllowedDomains = []string{
	"who.int",
	"cdc.gov",
	"nih.gov",
	"bmj.com",
	"thelancet.com",
	"nejm.org",
	"jamanetwork.com",
	"pubmed.ncbi.nlm.nih.gov",
	"www.who.int",
	"www.cdc.gov",
	"www.nih.gov",
}

// AllowedDomains returns the fetch allowlist, either from the
// comma-separated ALLOWED_DOMAINS env var or the built-in default set.
func AllowedDomains() []string {
	raw := os.Getenv("ALLOWED_DOMAINS")
	if raw == "" {
		return defaultAllowedDomains
	}
	parts := strings.Split(raw, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := strings.TrimSpace(p); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		return defaultAllowedDomains
	}
	return domains
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
