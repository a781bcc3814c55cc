package service

import (
	"math"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

// Credibility level thresholds. A level is granted only when both the
// average finding confidence and the average source reliability clear it.
const (
	highFindingConfidence   = 0.85
	highSourceReliability   = 0.8
	mediumFindingConfidence = 0.60
	mediumSourceReliability = 0.6
)

// Final confidence weights.
const (
	verificationWeight = 0.4
	credibilityWeight  = 0.4
	synthesisWeight    = 0.2
)

// AssessCredibility grades a verified result set from its finding
// confidences and the reliability of the domains that produced them.
func AssessCredibility(findings []domain.VerifiedFinding, reliability map[string]float64) domain.CredibilityAssessment {
	a := domain.CredibilityAssessment{
		AverageFindingConfidence: meanFindingConfidence(findings),
		AverageSourceReliability: meanReliability(reliability),
		TotalSources:             len(reliability),
	}

	for _, f := range findings {
		switch f.Status {
		case domain.VerificationVerified:
			a.VerifiedCount++
		case domain.VerificationPartial:
			a.PartialCount++
		default:
			a.UnverifiedCount++
		}
	}
	for _, score := range reliability {
		if score >= highSourceReliability {
			a.HighQualitySources++
		}
	}

	switch {
	case a.AverageFindingConfidence >= highFindingConfidence && a.AverageSourceReliability >= highSourceReliability:
		a.Level = domain.CredibilityHigh
	case a.AverageFindingConfidence >= mediumFindingConfidence && a.AverageSourceReliability >= mediumSourceReliability:
		a.Level = domain.CredibilityMedium
	default:
		a.Level = domain.CredibilityLow
	}
	return a
}

// FinalConfidence combines verification confidence, the credibility level,
// and synthesis quality into the result's confidence, rounded to two
// decimal places.
func FinalConfidence(verificationConfidence float64, level domain.CredibilityLevel, synthesisQuality float64) float64 {
	c := verificationWeight*verificationConfidence +
		credibilityWeight*level.Score() +
		synthesisWeight*synthesisQuality
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}

func meanFindingConfidence(findings []domain.VerifiedFinding) float64 {
	if len(findings) == 0 {
		return 0
	}
	var sum float64
	for _, f := range findings {
		sum += f.Confidence
	}
	return sum / float64(len(findings))
}

func meanReliability(reliability map[string]float64) float64 {
	if len(reliability) == 0 {
		return domain.NeutralTrustScore
	}
	var sum float64
	for _, score := range reliability {
		sum += score
	}
	return sum / float64(len(reliability))
}
