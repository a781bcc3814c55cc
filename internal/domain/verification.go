package domain

// VerificationStatus classifies how well a finding held up under verification.
type VerificationStatus string

const (
	VerificationVerified  VerificationStatus = "verified"
	VerificationPartial   VerificationStatus = "partially_verified"
	VerificationUnverifed VerificationStatus = "unverified"
)

func ValidVerificationStatus(s string) bool {
	switch VerificationStatus(s) {
	case VerificationVerified, VerificationPartial, VerificationUnverifed:
		return true
	}
	return false
}

// VerifiedFinding is a research finding after cross-checking.
type VerifiedFinding struct {
	Text              string             `json:"finding"`
	Status            VerificationStatus `json:"status"`
	Confidence        float64            `json:"confidence"`
	SupportingSources []string           `json:"supporting_sources"`
	Concerns          []string           `json:"concerns,omitempty"`
	Reasoning         string             `json:"reasoning,omitempty"`
}

// Conflict describes two findings that contradict each other.
type Conflict struct {
	FindingA    string `json:"finding_a"`
	FindingB    string `json:"finding_b"`
	Severity    string `json:"severity"`
	Explanation string `json:"explanation"`
}

// CredibilityLevel is the coarse trustworthiness grade of a verified result set.
type CredibilityLevel string

const (
	CredibilityHigh   CredibilityLevel = "high"
	CredibilityMedium CredibilityLevel = "medium"
	CredibilityLow    CredibilityLevel = "low"
)

// Score maps the level onto the fixed weight used in confidence aggregation.
func (l CredibilityLevel) Score() float64 {
	switch l {
	case CredibilityHigh:
		return 0.9
	case CredibilityMedium:
		return 0.7
	default:
		return 0.5
	}
}

// CredibilityAssessment summarizes source and finding quality for one query.
type CredibilityAssessment struct {
	Level                    CredibilityLevel `json:"level"`
	AverageFindingConfidence float64          `json:"average_finding_confidence"`
	AverageSourceReliability float64          `json:"average_source_reliability"`
	VerifiedCount            int              `json:"verified_count"`
	PartialCount             int              `json:"partially_verified_count"`
	UnverifiedCount          int              `json:"unverified_count"`
	TotalSources             int              `json:"total_sources"`
	HighQualitySources       int              `json:"high_quality_sources"`
}

// VerificationReport is the full output of the verification stage.
type VerificationReport struct {
	Findings          []VerifiedFinding     `json:"findings"`
	Conflicts         []Conflict            `json:"conflicts"`
	SourceReliability map[string]float64    `json:"source_reliability"`
	Assessment        CredibilityAssessment `json:"credibility"`
	OverallConfidence float64               `json:"overall_confidence"`
	Recommendations   []string              `json:"recommendations,omitempty"`
}

// Verified returns the findings that passed verification outright.
func (r *VerificationReport) Verified() []VerifiedFinding {
	return r.byStatus(VerificationVerified)
}

// Unverified returns the findings that failed verification.
func (r *VerificationReport) Unverified() []VerifiedFinding {
	return r.byStatus(VerificationUnverifed)
}

func (r *VerificationReport) byStatus(s VerificationStatus) []VerifiedFinding {
	var out []VerifiedFinding
	for _, f := range r.Findings {
		if f.Status == s {
			out = append(out, f)
		}
	}
	return out
}
