package domain

// AnswerStyle selects the output format requested by the plan.
type AnswerStyle string

const (
	StyleComprehensive AnswerStyle = "comprehensive"
	StyleConcise       AnswerStyle = "concise"
	StyleComparative   AnswerStyle = "comparative"
	StyleExplanatory   AnswerStyle = "explanatory"
)

func ValidAnswerStyle(s string) bool {
	switch AnswerStyle(s) {
	case StyleComprehensive, StyleConcise, StyleComparative, StyleExplanatory:
		return true
	}
	return false
}

// Citation points at one source the answer drew on.
type Citation struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Reliability float64 `json:"reliability"`
}

// DraftAnswer is the LLM's raw synthesis output before packaging.
type DraftAnswer struct {
	Answer       string   `json:"answer"`
	KeyPoints    []string `json:"key_points"`
	Caveats      []string `json:"caveats,omitempty"`
	QualityScore float64  `json:"quality_score"`
}

// SynthesisMetadata carries per-stage counters into the final result.
type SynthesisMetadata struct {
	SourcesSearched    int              `json:"sources_searched"`
	SourcesAnalyzed    int              `json:"sources_analyzed"`
	FindingsVerified   int              `json:"findings_verified"`
	ConflictsAddressed int              `json:"conflicts_addressed"`
	AnswerLength       int              `json:"answer_length"`
	CredibilityLevel   CredibilityLevel `json:"credibility_level"`
}

// SynthesisResult is the full output of the synthesis stage.
type SynthesisResult struct {
	Answer     string            `json:"answer"`
	Confidence float64           `json:"confidence"`
	Citations  []Citation        `json:"citations"`
	Style      AnswerStyle       `json:"answer_style"`
	KeyPoints  []string          `json:"key_points"`
	Caveats    []string          `json:"caveats,omitempty"`
	Metadata   SynthesisMetadata `json:"metadata"`
}
