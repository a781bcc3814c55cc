// Package fetch retrieves pages from an allowlist of trusted domains and
// extracts their readable text for the research stage.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

var (
	ErrDomainNotAllowed = errors.New("domain not in allowlist")
	ErrPageTooLarge     = errors.New("page exceeds size limit")
)

type Fetcher struct {
	httpClient *http.Client
	allowed    map[string]bool
	maxBytes   int64
	maxRetries int
}

type Options struct {
	AllowedDomains []string
	Timeout        time.Duration
	MaxRetries     int
	MaxPageBytes   int64
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxPageBytes <= 0 {
		opts.MaxPageBytes = 5 << 20
	}

	allowed := make(map[string]bool, len(opts.AllowedDomains))
	for _, d := range opts.AllowedDomains {
		allowed[strings.ToLower(d)] = true
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		allowed:    allowed,
		maxBytes:   opts.MaxPageBytes,
		maxRetries: opts.MaxRetries,
	}
}

// Allowed reports whether rawURL points at an allowlisted domain.
func (f *Fetcher) Allowed(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return f.allowed[host]
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.PageContent, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if !f.allowed[host] {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotAllowed, host)
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		page, retryable, err := f.fetchOnce(ctx, rawURL, host)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, host string) (*domain.PageContent, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", "inquest-research/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetch request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("read fetch response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, false, fmt.Errorf("%w: %s", ErrPageTooLarge, rawURL)
	}

	title, text := extractText(body)
	return &domain.PageContent{
		URL:       rawURL,
		Domain:    normalizeDomain(host),
		Title:     title,
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}, false, nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return strings.ToLower(u.Hostname()), nil
}

// normalizeDomain strips the www prefix so trust observations for the same
// site aggregate under one key.
func normalizeDomain(host string) string {
	return strings.TrimPrefix(host, "www.")
}
