package domain

// SearchResult is one hit returned by the web search client.
type SearchResult struct {
	Query   string  `json:"query"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// PageContent is the extracted text of one fetched page.
type PageContent struct {
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// Finding is one discrete factual claim extracted during research.
type Finding struct {
	Text       string   `json:"finding"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// SourceQuality buckets the fetched sources by apparent reliability.
type SourceQuality struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// OrganizedFindings is the LLM's structured digest of the fetched pages.
type OrganizedFindings struct {
	KeyFindings     []Finding     `json:"key_findings"`
	MainThemes      []string      `json:"main_themes"`
	SourceQuality   SourceQuality `json:"source_quality"`
	InformationGaps []string      `json:"information_gaps"`
	Summary         string        `json:"summary"`
}

// ResearchFindings is the full output of the research stage.
type ResearchFindings struct {
	OrganizedFindings

	SearchResults  []SearchResult `json:"search_results"`
	Pages          []PageContent  `json:"pages"`
	SourcesFound   int            `json:"sources_found"`
	SourcesFetched int            `json:"sources_fetched"`
	PastResearch   bool           `json:"past_research_available"`
}
