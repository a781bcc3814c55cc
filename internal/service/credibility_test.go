package service

import (
	"math"
	"testing"

	"github.com/Harshitk-cp/inquest/internal/domain"
)

func TestAssessCredibility_High(t *testing.T) {
	findings := []domain.VerifiedFinding{
		{Status: domain.VerificationVerified, Confidence: 0.9},
		{Status: domain.VerificationVerified, Confidence: 0.85},
	}
	reliability := map[string]float64{
		"who.int": 0.9,
		"cdc.gov": 0.85,
	}

	a := AssessCredibility(findings, reliability)
	if a.Level != domain.CredibilityHigh {
		t.Errorf("level = %s, want high", a.Level)
	}
	if a.VerifiedCount != 2 {
		t.Errorf("verified count = %d, want 2", a.VerifiedCount)
	}
	if a.HighQualitySources != 2 {
		t.Errorf("high quality sources = %d, want 2", a.HighQualitySources)
	}
}

func TestAssessCredibility_MediumWhenReliabilityLags(t *testing.T) {
	// High finding confidence alone must not grant a high level.
	findings := []domain.VerifiedFinding{
		{Status: domain.VerificationVerified, Confidence: 0.9},
	}
	reliability := map[string]float64{"nih.gov": 0.65}

	a := AssessCredibility(findings, reliability)
	if a.Level != domain.CredibilityMedium {
		t.Errorf("level = %s, want medium", a.Level)
	}
}

func TestAssessCredibility_Low(t *testing.T) {
	findings := []domain.VerifiedFinding{
		{Status: domain.VerificationUnverifed, Confidence: 0.3},
		{Status: domain.VerificationPartial, Confidence: 0.5},
	}
	reliability := map[string]float64{"bmj.com": 0.4}

	a := AssessCredibility(findings, reliability)
	if a.Level != domain.CredibilityLow {
		t.Errorf("level = %s, want low", a.Level)
	}
	if a.UnverifiedCount != 1 || a.PartialCount != 1 {
		t.Errorf("counts = %d unverified, %d partial", a.UnverifiedCount, a.PartialCount)
	}
}

func TestAssessCredibility_NoSourcesIsNeutral(t *testing.T) {
	a := AssessCredibility(nil, nil)
	if a.AverageSourceReliability != domain.NeutralTrustScore {
		t.Errorf("reliability = %f, want neutral %f", a.AverageSourceReliability, domain.NeutralTrustScore)
	}
	if a.Level != domain.CredibilityLow {
		t.Errorf("level = %s, want low", a.Level)
	}
}

func TestFinalConfidence(t *testing.T) {
	// 0.4*0.9 + 0.4*0.9 + 0.2*0.8 = 0.88
	got := FinalConfidence(0.9, domain.CredibilityHigh, 0.8)
	if math.Abs(got-0.88) > 1e-9 {
		t.Errorf("confidence = %f, want 0.88", got)
	}
}

func TestFinalConfidence_Levels(t *testing.T) {
	tests := []struct {
		level domain.CredibilityLevel
		want  float64
	}{
		{domain.CredibilityHigh, 0.88},
		{domain.CredibilityMedium, 0.80},
		{domain.CredibilityLow, 0.72},
	}
	for _, tt := range tests {
		got := FinalConfidence(0.9, tt.level, 0.8)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("level %s: confidence = %f, want %f", tt.level, got, tt.want)
		}
	}
}

func TestFinalConfidence_RoundsToTwoDecimals(t *testing.T) {
	got := FinalConfidence(0.876, domain.CredibilityMedium, 0.753)
	// 0.4*0.876 + 0.4*0.7 + 0.2*0.753 = 0.781
	if math.Abs(got-0.78) > 1e-9 {
		t.Errorf("confidence = %f, want 0.78", got)
	}
}
