package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/llm"
	"github.com/Harshitk-cp/inquest/internal/state"
	"go.uber.org/zap"
)

// Verifier cross-checks research findings against source reliability from
// the trust ledger, grades credibility, and feeds outcomes back into the
// ledger.
type Verifier struct {
	states *state.Store
	llm    domain.LLMClient
	trust  *TrustService
	logger *zap.Logger
}

func NewVerifier(states *state.Store, lc domain.LLMClient, trust *TrustService, logger *zap.Logger) *Verifier {
	return &Verifier{states: states, llm: lc, trust: trust, logger: logger}
}

func (v *Verifier) Name() string { return "verifier" }

func (v *Verifier) Execute(ctx context.Context, queryID string) (float64, error) {
	st, err := v.states.Get(queryID)
	if err != nil {
		return 0, fatalErr(v.Name(), err)
	}
	if st.Findings == nil {
		return 0, fatalErr(v.Name(), errors.New("no research findings to verify"))
	}

	reliability := v.trust.ReliabilityFor(ctx, st.Sources)

	verified, err := v.verify(ctx, queryID, st.Query, st.Findings.KeyFindings, reliability)
	if err != nil {
		return 0, err
	}

	conflicts := v.conflicts(ctx, queryID, verified)

	assessment := AssessCredibility(verified, reliability)
	report := &domain.VerificationReport{
		Findings:          verified,
		Conflicts:         conflicts,
		SourceReliability: reliability,
		Assessment:        assessment,
		OverallConfidence: assessment.AverageFindingConfidence,
	}
	if assessment.UnverifiedCount > 0 {
		report.Recommendations = append(report.Recommendations,
			"treat unverified findings as provisional")
	}
	if len(conflicts) > 0 {
		report.Recommendations = append(report.Recommendations,
			"acknowledge conflicting findings in the answer")
	}

	if err := v.states.StoreVerification(queryID, report); err != nil {
		return 0, fatalErr(v.Name(), err)
	}

	// Close the feedback loop: verified findings vouch for their sources,
	// unverified findings count against them.
	v.trust.RecordVerification(ctx, report)

	v.logger.Info("verification complete",
		zap.String("query_id", queryID),
		zap.String("credibility", string(assessment.Level)),
		zap.Int("verified", assessment.VerifiedCount),
		zap.Int("unverified", assessment.UnverifiedCount),
		zap.Int("conflicts", len(conflicts)),
		zap.Float64("confidence", report.OverallConfidence))
	return report.OverallConfidence, nil
}

func (v *Verifier) verify(ctx context.Context, queryID, query string, findings []domain.Finding, reliability map[string]float64) ([]domain.VerifiedFinding, error) {
	if len(findings) == 0 {
		return nil, nil
	}

	_ = v.states.RecordToolCall(queryID, "verify_findings", map[string]any{"count": len(findings)})

	verified, err := v.llm.VerifyFindings(ctx, query, findings, reliability)
	if err != nil {
		var unparseable *llm.UnparseableError
		if !errors.As(err, &unparseable) {
			return nil, recoverableErr(v.Name(), err)
		}
		v.logger.Warn("verification unparseable, downgrading findings",
			zap.String("query_id", queryID), zap.Error(err))
		return downgradeAll(findings), nil
	}
	return verified, nil
}

func (v *Verifier) conflicts(ctx context.Context, queryID string, verified []domain.VerifiedFinding) []domain.Conflict {
	if len(verified) < 2 {
		return nil
	}
	conflicts, err := v.llm.DetectConflicts(ctx, verified)
	if err != nil {
		v.logger.Warn("conflict detection failed, assuming none",
			zap.String("query_id", queryID), zap.Error(err))
		return nil
	}
	return conflicts
}

// downgradeAll is the conservative default when verification output cannot
// be parsed: every finding becomes partially verified at mid confidence, so
// it neither vouches for nor penalizes its sources.
func downgradeAll(findings []domain.Finding) []domain.VerifiedFinding {
	out := make([]domain.VerifiedFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, domain.VerifiedFinding{
			Text:              f.Text,
			Status:            domain.VerificationPartial,
			Confidence:        0.5,
			SupportingSources: f.Sources,
			Concerns:          []string{"verification output unavailable"},
		})
	}
	return out
}
