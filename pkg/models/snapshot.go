package models

import "time"

// SentimentCounts is a positive/negative/neutral tally.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Statistics aggregates the verified result set of one analysis run.
type Statistics struct {
	CategoryBreakdown     map[string]int `json:"category_breakdown"`
	SentimentBreakdown    map[string]int `json:"sentiment_breakdown"`
	SourceBreakdown       map[string]int `json:"source_breakdown"`
	TotalNews             int            `json:"total_news"`
	RealCount             int            `json:"real_count"`
	FakeCount             int            `json:"fake_count"`
	UncertainCount        int            `json:"uncertain_count"`
	MentionsToday         int            `json:"mentions_today"`
	MentionsWeek          int            `json:"mentions_week"`
	AvgConfidence         float64        `json:"avg_confidence"`
	ReliabilityScore      float64        `json:"reliability_score"`
	OverallSentimentScore float64        `json:"overall_sentiment_score"`
}

// Crisis risk tiers.
const (
	CrisisLow    = "LOW"
	CrisisMedium = "MEDIUM"
	CrisisHigh   = "HIGH"
)

// CrisisAlert is the same-day risk classification of one run.
type CrisisAlert struct {
	RiskLevel      string  `json:"risk_level"`
	Message        string  `json:"message"`
	RiskScore      int     `json:"risk_score"`
	MentionsToday  int     `json:"mentions_today"`
	NegativeToday  int     `json:"negative_today"`
	PositiveToday  int     `json:"positive_today"`
	FakeNewsCount  int     `json:"fake_news_count"`
	SentimentRatio float64 `json:"sentiment_ratio"`
}

// SpikeInfo describes a detected jump in negative coverage between the two
// most recent dates seen in the result set.
type SpikeInfo struct {
	Increase string `json:"increase,omitempty"`
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Detected bool   `json:"detected"`
}

// TimelineDay is one bucket of the 7-day rolling timeline.
type TimelineDay struct {
	Date          string  `json:"date"`
	Total         int     `json:"total"`
	Real          int     `json:"real"`
	Fake          int     `json:"fake"`
	Uncertain     int     `json:"uncertain"`
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
	SmoothedTotal float64 `json:"smoothed_total"`
}

// FakeNewsDetail is a short record of one item judged FAKE.
type FakeNewsDetail struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	Date       string  `json:"date"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// CompetitorReport is the lightweight comparison run for one competitor.
type CompetitorReport struct {
	Name           string  `json:"name"`
	CrisisLevel    string  `json:"crisis_level,omitempty"`
	Error          string  `json:"error,omitempty"`
	TotalNews      int     `json:"total_news"`
	Positive       int     `json:"positive"`
	Negative       int     `json:"negative"`
	Neutral        int     `json:"neutral"`
	SentimentScore float64 `json:"sentiment_score"`
}

// AnalysisSnapshot is the persisted unit of one analysis run. Append-only:
// historical snapshots are never mutated, only superseded for "latest" reads.
type AnalysisSnapshot struct {
	Timestamp         time.Time                  `json:"timestamp"`
	EntityID          string                     `json:"entity_id"`
	EntityName        string                     `json:"entity_name"`
	Period            string                     `json:"analysis_period"`
	SentimentBySource map[string]SentimentCounts `json:"sentiment_by_source"`
	SentimentByTopic  map[string]SentimentCounts `json:"sentiment_by_topic"`
	VerifiedNews      []VerifiedNewsItem         `json:"verified_news"`
	Timeline          []TimelineDay              `json:"timeline_data"`
	FakeNewsDetails   []FakeNewsDetail           `json:"fake_news_details"`
	Competitors       []CompetitorReport         `json:"competitor_analysis,omitempty"`
	Statistics        Statistics                 `json:"statistics"`
	CrisisAlert       CrisisAlert                `json:"crisis_alert"`
	NegativeSpike     SpikeInfo                  `json:"negative_spike"`
}
