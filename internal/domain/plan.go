package domain

// QueryAnalysis is the planner's structured reading of the user's question.
type QueryAnalysis struct {
	QueryType            string   `json:"query_type"`
	Complexity           string   `json:"complexity"`
	RequiresResearch     bool     `json:"requires_research"`
	RequiresVerification bool     `json:"requires_verification"`
	KeyTopics            []string `json:"key_topics"`
	EstimatedSources     int      `json:"estimated_sources_needed"`
	TimeSensitivity      string   `json:"time_sensitivity"`
	Reasoning            string   `json:"reasoning"`
}

// PlanStep is one ordered step of an execution plan.
type PlanStep struct {
	Step      int    `json:"step"`
	Agent     string `json:"agent"`
	Action    string `json:"action"`
	Sources   int    `json:"estimated_sources,omitempty"`
	Style     string `json:"style,omitempty"`
	Threshold string `json:"threshold,omitempty"`
}

// Plan is the executable strategy produced by the planning stage.
type Plan struct {
	Strategy      string     `json:"strategy"`
	Agents        []string   `json:"agents_needed"`
	Steps         []PlanStep `json:"execution_steps"`
	EstimatedTime string     `json:"estimated_time"`
	Notes         []string   `json:"special_considerations,omitempty"`
}

// PlanResult is everything the planning stage hands downstream.
type PlanResult struct {
	Analysis      QueryAnalysis   `json:"analysis"`
	Plan          Plan            `json:"plan"`
	PastLearnings []LearningMatch `json:"past_learnings,omitempty"`
	Confidence    float64         `json:"confidence"`
}
