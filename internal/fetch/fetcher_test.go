package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testFetcher(serverURL string, maxRetries int) *Fetcher {
	u, _ := url.Parse(serverURL)
	return NewFetcher(Options{
		AllowedDomains: []string{u.Hostname()},
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		MaxPageBytes:   1 << 20,
	})
}

func TestFetcher_RejectsDisallowedDomain(t *testing.T) {
	f := NewFetcher(Options{AllowedDomains: []string{"who.int", "www.who.int"}})

	_, err := f.Fetch(context.Background(), "https://example.com/page")
	if !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("err = %v, want ErrDomainNotAllowed", err)
	}

	if f.Allowed("https://example.com/page") {
		t.Error("example.com should not be allowed")
	}
	if !f.Allowed("https://www.who.int/news") {
		t.Error("www.who.int should be allowed")
	}
}

func TestFetcher_ExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Vaccine Safety</title>
			<script>ignored()</script><style>.x{}</style></head>
			<body><h1>Overview</h1><p>Vaccines are rigorously tested.</p></body></html>`))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL, 0)
	page, err := f.Fetch(context.Background(), srv.URL+"/article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Title != "Vaccine Safety" {
		t.Errorf("title = %q", page.Title)
	}
	if strings.Contains(page.Text, "ignored()") {
		t.Errorf("script content leaked into text: %q", page.Text)
	}
	if !strings.Contains(page.Text, "rigorously tested") {
		t.Errorf("body text missing: %q", page.Text)
	}
	if page.WordCount == 0 {
		t.Error("word count not computed")
	}
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL, 2)
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !strings.Contains(page.Text, "recovered") {
		t.Errorf("text = %q", page.Text)
	}
}

func TestFetcher_DoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher(srv.URL, 2)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestFetcher_EnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	f := NewFetcher(Options{
		AllowedDomains: []string{u.Hostname()},
		MaxPageBytes:   1024,
	})

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrPageTooLarge) {
		t.Errorf("err = %v, want ErrPageTooLarge", err)
	}
}

func TestNormalizeDomain(t *testing.T) {
	if got := normalizeDomain("www.who.int"); got != "who.int" {
		t.Errorf("normalizeDomain = %q, want who.int", got)
	}
	if got := normalizeDomain("cdc.gov"); got != "cdc.gov" {
		t.Errorf("normalizeDomain = %q, want cdc.gov", got)
	}
}
