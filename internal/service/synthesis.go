package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/state"
	"go.uber.org/zap"
)

const maxCitations = 10

// Synthesizer composes the final answer from verified findings and computes
// its aggregate confidence.
type Synthesizer struct {
	states *state.Store
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewSynthesizer(states *state.Store, lc domain.LLMClient, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{states: states, llm: lc, logger: logger}
}

func (s *Synthesizer) Name() string { return "synthesizer" }

func (s *Synthesizer) Execute(ctx context.Context, queryID string) (float64, error) {
	st, err := s.states.Get(queryID)
	if err != nil {
		return 0, fatalErr(s.Name(), err)
	}
	if st.Verification == nil {
		return 0, fatalErr(s.Name(), errors.New("no verification report to synthesize from"))
	}

	style := domain.StyleComprehensive
	var themes []string
	if st.Plan != nil {
		if planned := plannedStyle(st.Plan.Plan); planned != "" {
			style = planned
		}
	}
	if st.Findings != nil {
		themes = st.Findings.MainThemes
	}

	req := domain.SynthesisRequest{
		Query:            st.Query,
		Style:            style,
		Findings:         st.Verification.Findings,
		Conflicts:        st.Verification.Conflicts,
		Themes:           themes,
		CredibilityLevel: st.Verification.Assessment.Level,
	}

	_ = s.states.RecordToolCall(queryID, "synthesize_answer", map[string]any{"style": string(style)})

	draft, err := s.llm.Synthesize(ctx, req)
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return 0, recoverableErr(s.Name(), err)
		}
		s.logger.Warn("synthesis unparseable, using findings summary",
			zap.String("query_id", queryID), zap.Error(err))
		draft = defaultDraft(st)
	}

	result := &domain.SynthesisResult{
		Answer:     draft.Answer,
		Confidence: FinalConfidence(st.Verification.OverallConfidence, st.Verification.Assessment.Level, draft.QualityScore),
		Citations:  citationsFor(st, maxCitations),
		Style:      style,
		KeyPoints:  draft.KeyPoints,
		Caveats:    draft.Caveats,
		Metadata: domain.SynthesisMetadata{
			SourcesSearched:    sourcesSearched(st),
			SourcesAnalyzed:    sourcesAnalyzed(st),
			FindingsVerified:   st.Verification.Assessment.VerifiedCount,
			ConflictsAddressed: len(st.Verification.Conflicts),
			AnswerLength:       len(draft.Answer),
			CredibilityLevel:   st.Verification.Assessment.Level,
		},
	}
	if err := s.states.StoreSynthesis(queryID, result); err != nil {
		return 0, fatalErr(s.Name(), err)
	}

	s.logger.Info("synthesis complete",
		zap.String("query_id", queryID),
		zap.String("style", string(style)),
		zap.Int("citations", len(result.Citations)),
		zap.Float64("confidence", result.Confidence))
	return result.Confidence, nil
}

func plannedStyle(plan domain.Plan) domain.AnswerStyle {
	for _, step := range plan.Steps {
		if step.Agent == "synthesizer" && domain.ValidAnswerStyle(step.Style) {
			return domain.AnswerStyle(step.Style)
		}
	}
	return ""
}

// citationsFor lists the distinct fetched sources behind the verified and
// partially verified findings, most reliable first.
func citationsFor(st *domain.QueryState, limit int) []domain.Citation {
	titles := make(map[string]string)
	if st.Findings != nil {
		for _, p := range st.Findings.Pages {
			titles[p.URL] = p.Title
		}
	}

	seen := make(map[string]bool)
	var citations []domain.Citation
	for _, f := range st.Verification.Findings {
		if f.Status == domain.VerificationUnverifed {
			continue
		}
		for _, u := range f.SupportingSources {
			if seen[u] {
				continue
			}
			seen[u] = true
			citations = append(citations, domain.Citation{
				URL:         u,
				Title:       titles[u],
				Reliability: st.Verification.SourceReliability[domainOf(u)],
			})
		}
	}

	for i := 0; i < len(citations); i++ {
		for j := i + 1; j < len(citations); j++ {
			if citations[j].Reliability > citations[i].Reliability {
				citations[i], citations[j] = citations[j], citations[i]
			}
		}
	}
	if len(citations) > limit {
		citations = citations[:limit]
	}
	return citations
}

// defaultDraft is the conservative fallback answer when synthesis output
// cannot be parsed: the research summary plus verified finding texts.
func defaultDraft(st *domain.QueryState) *domain.DraftAnswer {
	var sb strings.Builder
	var points []string
	if st.Findings != nil && st.Findings.Summary != "" {
		sb.WriteString(st.Findings.Summary)
	}
	for _, f := range st.Verification.Verified() {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(f.Text)
		points = append(points, f.Text)
	}
	answer := sb.String()
	if answer == "" {
		answer = "No verifiable answer could be synthesized from the available sources."
	}
	return &domain.DraftAnswer{
		Answer:       answer,
		KeyPoints:    points,
		Caveats:      []string{"answer assembled from raw findings after a synthesis failure"},
		QualityScore: 0.5,
	}
}

func sourcesSearched(st *domain.QueryState) int {
	if st.Findings == nil {
		return 0
	}
	return st.Findings.SourcesFound
}

func sourcesAnalyzed(st *domain.QueryState) int {
	if st.Findings == nil {
		return 0
	}
	return st.Findings.SourcesFetched
}
