package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// backend is a raw completion transport. Each provider implements one.
type backend interface {
	complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Client implements domain.LLMClient over a provider backend. Prompt
// construction and output parsing are shared; only the transport differs
// per provider.
type Client struct {
	backend backend
}

func newClient(b backend) *Client {
	return &Client{backend: b}
}

const maxExcerptChars = 2000

func (c *Client) AnalyzeQuery(ctx context.Context, query string) (*domain.QueryAnalysis, error) {
	raw, err := c.backend.complete(ctx, fmt.Sprintf(analyzeQueryPrompt, query), 0.2)
	if err != nil {
		return nil, fmt.Errorf("analyze query: %w", err)
	}

	var analysis domain.QueryAnalysis
	if err := parseJSON(raw, &analysis); err != nil {
		return nil, err
	}
	if analysis.EstimatedSources <= 0 {
		analysis.EstimatedSources = 3
	}
	return &analysis, nil
}

func (c *Client) GenerateSearchQueries(ctx context.Context, query string, topics []string) ([]string, error) {
	raw, err := c.backend.complete(ctx,
		fmt.Sprintf(searchQueriesPrompt, query, strings.Join(topics, ", ")), 0.4)
	if err != nil {
		return nil, fmt.Errorf("generate search queries: %w", err)
	}

	var queries []string
	if err := parseJSON(raw, &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

func (c *Client) OrganizeFindings(ctx context.Context, query string, pages []domain.PageContent) (*domain.OrganizedFindings, error) {
	var sb strings.Builder
	for i, p := range pages {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n\n", i+1, p.Title, p.URL, excerpt(p.Text))
	}

	raw, err := c.backend.complete(ctx, fmt.Sprintf(organizeFindingsPrompt, query, sb.String()), 0.2)
	if err != nil {
		return nil, fmt.Errorf("organize findings: %w", err)
	}

	var organized domain.OrganizedFindings
	if err := parseJSON(raw, &organized); err != nil {
		return nil, err
	}
	for i := range organized.KeyFindings {
		organized.KeyFindings[i].Confidence = clamp01(organized.KeyFindings[i].Confidence)
	}
	return &organized, nil
}

func (c *Client) VerifyFindings(ctx context.Context, query string, findings []domain.Finding, reliability map[string]float64) ([]domain.VerifiedFinding, error) {
	var fb strings.Builder
	for i, f := range findings {
		fmt.Fprintf(&fb, "%d. %s (sources: %s, confidence: %.2f)\n",
			i+1, f.Text, strings.Join(f.Sources, ", "), f.Confidence)
	}

	var rb strings.Builder
	for d, score := range reliability {
		fmt.Fprintf(&rb, "- %s: %.2f\n", d, score)
	}

	raw, err := c.backend.complete(ctx,
		fmt.Sprintf(verifyFindingsPrompt, query, fb.String(), rb.String()), 0.1)
	if err != nil {
		return nil, fmt.Errorf("verify findings: %w", err)
	}

	var verified []domain.VerifiedFinding
	if err := parseJSON(raw, &verified); err != nil {
		return nil, err
	}
	for i := range verified {
		if !domain.ValidVerificationStatus(string(verified[i].Status)) {
			verified[i].Status = domain.VerificationUnverifed
		}
		verified[i].Confidence = clamp01(verified[i].Confidence)
	}
	return verified, nil
}

func (c *Client) DetectConflicts(ctx context.Context, findings []domain.VerifiedFinding) ([]domain.Conflict, error) {
	var sb strings.Builder
	for i, f := range findings {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f.Text)
	}

	raw, err := c.backend.complete(ctx, fmt.Sprintf(detectConflictsPrompt, sb.String()), 0.1)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}

	var conflicts []domain.Conflict
	if err := parseJSON(raw, &conflicts); err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (c *Client) Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.DraftAnswer, error) {
	var fb strings.Builder
	for i, f := range req.Findings {
		fmt.Fprintf(&fb, "%d. [%s, %.2f] %s (sources: %s)\n",
			i+1, f.Status, f.Confidence, f.Text, strings.Join(f.SupportingSources, ", "))
	}

	cb := "none"
	if len(req.Conflicts) > 0 {
		var sb strings.Builder
		for _, cf := range req.Conflicts {
			fmt.Fprintf(&sb, "- %q vs %q: %s\n", cf.FindingA, cf.FindingB, cf.Explanation)
		}
		cb = sb.String()
	}

	raw, err := c.backend.complete(ctx,
		fmt.Sprintf(synthesizePrompt,
			req.Style, req.Query, req.CredibilityLevel,
			fb.String(), cb, strings.Join(req.Themes, ", ")),
		0.3)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	var draft domain.DraftAnswer
	if err := parseJSON(raw, &draft); err != nil {
		return nil, err
	}
	draft.QualityScore = clamp01(draft.QualityScore)
	return &draft, nil
}

func (c *Client) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (*domain.QualityAssessment, error) {
	raw, err := c.backend.complete(ctx,
		fmt.Sprintf(evaluateAnswerPrompt,
			req.Query, req.Answer, req.Confidence, req.CitationCount, req.CredibilityLevel),
		0.2)
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	var assessment domain.QualityAssessment
	if err := parseJSON(raw, &assessment); err != nil {
		return nil, err
	}
	assessment.OverallScore = clamp01(assessment.OverallScore)
	return &assessment, nil
}

func (c *Client) CheckCompleteness(ctx context.Context, query, answer string, keyPoints []string) (*domain.CompletenessCheck, error) {
	raw, err := c.backend.complete(ctx,
		fmt.Sprintf(checkCompletenessPrompt, query, answer, strings.Join(keyPoints, "; ")), 0.2)
	if err != nil {
		return nil, fmt.Errorf("check completeness: %w", err)
	}

	var check domain.CompletenessCheck
	if err := parseJSON(raw, &check); err != nil {
		return nil, err
	}
	check.Score = clamp01(check.Score)
	return &check, nil
}

// parseJSON strips markdown fences and unmarshals raw into v, wrapping parse
// failures in UnparseableError so callers can substitute defaults.
func parseJSON(raw string, v any) error {
	cleaned := strings.TrimPrefix(raw, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &UnparseableError{Raw: raw, Err: err}
	}
	return nil
}

func excerpt(text string) string {
	if len(text) > maxExcerptChars {
		return text[:maxExcerptChars]
	}
	return text
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
