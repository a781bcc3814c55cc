package llm

const analyzeQueryPrompt = `You are a research planner. Analyze the following question and describe what answering it well requires.

Question: %s

Respond ONLY with JSON, no markdown:
{
  "query_type": "factual|comparative|exploratory|current_events",
  "complexity": "simple|moderate|complex",
  "requires_research": true,
  "requires_verification": true,
  "key_topics": ["topic1", "topic2"],
  "estimated_sources_needed": 3,
  "time_sensitivity": "none|recent|breaking",
  "reasoning": "one sentence"
}`

const searchQueriesPrompt = `You are a research assistant. Generate up to 3 distinct web search queries that together cover this question.

Question: %s
Key topics: %s

Queries should be specific and non-overlapping. Respond ONLY with a JSON array of strings, no markdown. Example:
["query one", "query two"]`

const organizeFindingsPrompt = `You are a research analyst. Organize the following page excerpts into discrete findings relevant to the question.

Question: %s

Sources:
%s

For each finding give the claim, the source URLs that support it, and your confidence (0.0-1.0). Also list the main themes, rate overall source quality, and note information gaps.

Respond ONLY with JSON, no markdown:
{
  "key_findings": [{"finding": "...", "sources": ["url"], "confidence": 0.8}],
  "main_themes": ["theme"],
  "source_quality": {"high": 0, "medium": 0, "low": 0},
  "information_gaps": ["gap"],
  "summary": "two sentences"
}`

const verifyFindingsPrompt = `You are a fact checker. For each finding below, judge how well its sources support it, using the per-domain reliability scores where given (1.0 = always helpful, 0.5 = unknown, 0.0 = never helpful).

Question: %s

Findings:
%s

Source reliability:
%s

Classify each finding as "verified", "partially_verified", or "unverified", adjust its confidence, and note concerns.

Respond ONLY with a JSON array, no markdown:
[{"finding": "...", "status": "verified", "confidence": 0.85, "supporting_sources": ["url"], "concerns": [], "reasoning": "one sentence"}]`

const detectConflictsPrompt = `You are a fact checker. Identify any pairs of findings below that contradict each other.

Findings:
%s

Respond ONLY with a JSON array, no markdown. Empty array if there are no conflicts:
[{"finding_a": "...", "finding_b": "...", "severity": "minor|significant", "explanation": "one sentence"}]`

const synthesizePrompt = `You are a research writer. Write a %s answer to the question using ONLY the verified findings below.

Question: %s

Credibility level: %s

Verified findings:
%s

Conflicts to acknowledge:
%s

Main themes: %s

Rules:
- Base every claim on the findings; do not introduce outside facts.
- Acknowledge conflicts and uncertainty where they exist.
- State caveats for partially verified material.

Respond ONLY with JSON, no markdown:
{"answer": "...", "key_points": ["point"], "caveats": ["caveat"], "quality_score": 0.8}`

const evaluateAnswerPrompt = `You are a quality reviewer. Grade this answer to the question on accuracy grounding, completeness, clarity, and citation use.

Question: %s

Answer:
%s

Answer confidence: %.2f
Citations: %d
Credibility level: %s

Respond ONLY with JSON, no markdown:
{
  "overall_score": 0.8,
  "quality_level": "excellent|good|acceptable|poor",
  "criteria_scores": {"accuracy": 0.8, "completeness": 0.8, "clarity": 0.8, "citations": 0.8},
  "strengths": ["..."],
  "weaknesses": ["..."],
  "reasoning": "one sentence"
}`

const checkCompletenessPrompt = `You are a quality reviewer. Judge whether this answer actually addresses the question.

Question: %s

Answer:
%s

Key points covered: %s

Respond ONLY with JSON, no markdown:
{
  "completeness_score": 0.8,
  "directly_addresses_query": true,
  "missing_aspects": ["..."],
  "sufficient_detail": true
}`
