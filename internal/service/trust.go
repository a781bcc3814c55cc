package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/inquest/internal/domain"
	"github.com/Harshitk-cp/inquest/internal/store"
	"go.uber.org/zap"
)

// TrustService maintains the source trust ledger: per-domain helpfulness
// counters fed back from verification outcomes and read back as reliability
// scores on later queries.
type TrustService struct {
	store  domain.SourceTrustStore
	logger *zap.Logger
}

func NewTrustService(st domain.SourceTrustStore, logger *zap.Logger) *TrustService {
	return &TrustService{store: st, logger: logger}
}

// RecordOutcome records one helpful or unhelpful observation for a domain.
func (s *TrustService) RecordOutcome(ctx context.Context, sourceDomain string, helpful bool) (*domain.SourceTrustRecord, error) {
	record, err := s.store.Observe(ctx, sourceDomain, helpful)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("trust observation recorded",
		zap.String("domain", sourceDomain),
		zap.Bool("helpful", helpful),
		zap.Float64("score", record.Score))
	return record, nil
}

// RecordVerification feeds verification outcomes back into the ledger:
// sources behind verified findings count as helpful, sources behind
// unverified findings as unhelpful. Partially verified findings carry no
// signal. Ledger write failures are logged and skipped; feedback is
// best-effort and never fails the query.
func (s *TrustService) RecordVerification(ctx context.Context, report *domain.VerificationReport) {
	for _, f := range report.Findings {
		var helpful bool
		switch f.Status {
		case domain.VerificationVerified:
			helpful = true
		case domain.VerificationUnverifed:
			helpful = false
		default:
			continue
		}
		for _, d := range uniqueDomains(f.SupportingSources) {
			if _, err := s.store.Observe(ctx, d, helpful); err != nil {
				s.logger.Warn("trust observation failed",
					zap.String("domain", d),
					zap.Error(err))
			}
		}
	}
}

// ReliabilityFor returns the trust score for each distinct domain behind
// urls. Domains never observed get the neutral score.
func (s *TrustService) ReliabilityFor(ctx context.Context, urls []string) map[string]float64 {
	scores := make(map[string]float64)
	for _, d := range uniqueDomains(urls) {
		record, err := s.store.Get(ctx, d)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.logger.Warn("trust lookup failed", zap.String("domain", d), zap.Error(err))
			}
			scores[d] = domain.NeutralTrustScore
			continue
		}
		scores[d] = record.Score
	}
	return scores
}

// Top returns the highest-scoring domains in the ledger.
func (s *TrustService) Top(ctx context.Context, limit int) ([]domain.SourceTrustRecord, error) {
	return s.store.Top(ctx, limit)
}

func uniqueDomains(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var domains []string
	for _, raw := range urls {
		d := domainOf(raw)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	return domains
}

// domainOf extracts the normalized domain of a URL, with the www prefix
// stripped so observations aggregate under one key.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
