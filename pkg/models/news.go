package models

import "time"

// Verdict is the tri-state outcome of fact verification.
type Verdict string

const (
	VerdictReal      Verdict = "REAL"
	VerdictFake      Verdict = "FAKE"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// Sentiment labels used throughout the pipeline.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// GroundingSource is a web document cited by the search-grounded model as
// support for generated text. Ephemeral: used to enrich news items, never
// persisted on its own.
type GroundingSource struct {
	Title    string `json:"title"`
	URI      string `json:"uri"`
	Snippet  string `json:"snippet,omitempty"`
	Category string `json:"category,omitempty"`
}

// RawNewsItem is a single claim produced by the aggregator. Immutable once
// created; ReportedDate is the free-text date string as the upstream model
// emitted it.
type RawNewsItem struct {
	Headline        string  `json:"title"`
	Summary         string  `json:"summary"`
	SourceName      string  `json:"source"`
	SourceURL       string  `json:"source_url"`
	ReportedDate    string  `json:"date"`
	Category        string  `json:"category"`
	Sentiment       string  `json:"sentiment"`
	Snippet         string  `json:"snippet,omitempty"`
	RelevanceWeight float64 `json:"relevance_score"`
}

// Verification is the verdict attached to a news item by the batch processor.
type Verification struct {
	VerifiedAt  time.Time `json:"verified_at"`
	Verdict     Verdict   `json:"verdict"`
	BiasLevel   string    `json:"bias_level"`
	ImpactLevel string    `json:"impact_level"`
	Reasoning   string    `json:"reasoning"`
	Confidence  float64   `json:"confidence"`
}

// VerifiedNewsItem pairs a raw item with exactly one verification.
// Never mutated after creation.
type VerifiedNewsItem struct {
	RawNewsItem
	Verification Verification `json:"verification"`
}

// CheckResult is the outcome of an ad-hoc single-claim fact check.
type CheckResult struct {
	Verdict     Verdict           `json:"verdict"`
	Explanation string            `json:"explanation"`
	Sources     []GroundingSource `json:"sources"`
	Confidence  float64           `json:"confidence"`
}

// TrendingClaim is one claim surfaced by a crisis scan, already verified.
type TrendingClaim struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Claim       string            `json:"claim"`
	Severity    string            `json:"severity"`
	Verdict     Verdict           `json:"verdict"`
	Explanation string            `json:"explanation"`
	Sources     []GroundingSource `json:"sources"`
	Confidence  float64           `json:"confidence"`
}
