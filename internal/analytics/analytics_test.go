package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

func init() {
	_ = logger.Init("error", "")
}

var reference = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func item(date, sentiment string, verdict models.Verdict, confidence float64) models.VerifiedNewsItem {
	return models.VerifiedNewsItem{
		RawNewsItem: models.RawNewsItem{
			Headline:     "headline",
			SourceName:   "Example Source",
			ReportedDate: date,
			Category:     "Breaking News",
			Sentiment:    sentiment,
		},
		Verification: models.Verification{Verdict: verdict, Confidence: confidence},
	}
}

func TestClassifyCrisis(t *testing.T) {
	tests := []struct {
		name          string
		mentionsToday int
		negativeToday int
		fakeCount     int
		wantLevel     string
		wantScore     int
	}{
		{"high ratio and volume", 5, 4, 0, models.CrisisHigh, 85},
		{"volume alone is medium", 12, 3, 0, models.CrisisMedium, 50},
		{"quiet day is low", 0, 0, 0, models.CrisisLow, 15},
		{"ratio alone is medium", 4, 2, 0, models.CrisisMedium, 50},
		{"high ratio but thin volume stays medium", 3, 3, 0, models.CrisisMedium, 50},
		{"fake boost on low does not force high", 0, 0, 6, models.CrisisLow, 35},
		{"fake boost on medium forces high", 12, 3, 6, models.CrisisHigh, 70},
		{"fake boost on high caps at 100", 5, 4, 6, models.CrisisHigh, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := classifyCrisis(tt.mentionsToday, tt.negativeToday, 0, tt.fakeCount)
			if alert.RiskLevel != tt.wantLevel {
				t.Errorf("level = %q, want %q", alert.RiskLevel, tt.wantLevel)
			}
			if alert.RiskScore != tt.wantScore {
				t.Errorf("score = %d, want %d", alert.RiskScore, tt.wantScore)
			}
		})
	}
}

func TestDetectSpike(t *testing.T) {
	tests := []struct {
		name         string
		buckets      map[string]int
		wantDetected bool
		wantIncrease string
	}{
		{
			name:         "growth over 50 percent",
			buckets:      map[string]int{"2024-01-01": 2, "2024-01-02": 5},
			wantDetected: true,
			wantIncrease: "+150%",
		},
		{
			name:    "zero baseline excluded",
			buckets: map[string]int{"2024-01-01": 0, "2024-01-02": 3},
		},
		{
			name:    "mild growth ignored",
			buckets: map[string]int{"2024-01-01": 4, "2024-01-02": 5},
		},
		{
			name:    "single date has no baseline",
			buckets: map[string]int{"2024-01-02": 9},
		},
		{
			name:         "only two most recent dates compared",
			buckets:      map[string]int{"2024-01-01": 50, "2024-01-02": 2, "2024-01-03": 4},
			wantDetected: true,
			wantIncrease: "+100%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spike := detectSpike(tt.buckets)
			if spike.Detected != tt.wantDetected {
				t.Fatalf("detected = %v, want %v", spike.Detected, tt.wantDetected)
			}
			if spike.Increase != tt.wantIncrease {
				t.Errorf("increase = %q, want %q", spike.Increase, tt.wantIncrease)
			}
		})
	}
}

func TestSummarize_ReliabilityScore(t *testing.T) {
	var items []models.VerifiedNewsItem
	for i := 0; i < 6; i++ {
		items = append(items, item("2024-01-10", models.SentimentNeutral, models.VerdictReal, 0.8))
	}
	for i := 0; i < 4; i++ {
		items = append(items, item("2024-01-10", models.SentimentNeutral, models.VerdictUncertain, 0.8))
	}

	s := Summarize(items, reference)
	if got := s.Statistics.ReliabilityScore; math.Abs(got-48.0) > 1e-9 {
		t.Errorf("reliability = %v, want 48.0", got)
	}
	if s.Statistics.AvgConfidence != 0.8 {
		t.Errorf("avg confidence = %v, want 0.8", s.Statistics.AvgConfidence)
	}
	if s.Statistics.TotalNews != 10 {
		t.Errorf("total = %d, want 10", s.Statistics.TotalNews)
	}
	// All neutral: the sentiment score sits at the midpoint.
	if got := s.Statistics.OverallSentimentScore; math.Abs(got-50.0) > 1e-9 {
		t.Errorf("sentiment score = %v, want 50.0", got)
	}
}

func TestSentimentScore(t *testing.T) {
	tests := []struct {
		name      string
		breakdown map[string]int
		total     int
		want      float64
	}{
		{"all positive", map[string]int{models.SentimentPositive: 4}, 4, 100},
		{"all negative", map[string]int{models.SentimentNegative: 4}, 4, 0},
		{"even split", map[string]int{models.SentimentPositive: 1, models.SentimentNegative: 1}, 2, 50},
		{"mixed", map[string]int{models.SentimentPositive: 1, models.SentimentNeutral: 2, models.SentimentNegative: 1}, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sentimentScore(tt.breakdown, tt.total); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize_StrictDateSubsets(t *testing.T) {
	items := []models.VerifiedNewsItem{
		item("2024-01-15", models.SentimentNegative, models.VerdictReal, 0.9),
		item("2024-01-12", models.SentimentNeutral, models.VerdictReal, 0.9),
		item("2024-01-01", models.SentimentNeutral, models.VerdictReal, 0.9), // outside the week
		item("01/15/2024", models.SentimentNegative, models.VerdictReal, 0.9), // wrong shape, excluded
	}

	s := Summarize(items, reference)
	if s.Statistics.MentionsToday != 1 {
		t.Errorf("mentions today = %d, want 1", s.Statistics.MentionsToday)
	}
	if s.Statistics.MentionsWeek != 2 {
		t.Errorf("mentions week = %d, want 2", s.Statistics.MentionsWeek)
	}
	// The loosely formatted item still participates in the full statistics.
	if s.Statistics.TotalNews != 4 {
		t.Errorf("total = %d, want 4", s.Statistics.TotalNews)
	}
}

func TestSummarize_FakeDetailsAndSentimentMatrix(t *testing.T) {
	items := []models.VerifiedNewsItem{
		item("2024-01-14", models.SentimentNegative, models.VerdictFake, 0.7),
		item("2024-01-14", models.SentimentPositive, models.VerdictReal, 0.9),
	}
	items[0].Headline = "Fabricated story"

	s := Summarize(items, reference)
	if len(s.FakeNewsDetails) != 1 || s.FakeNewsDetails[0].Title != "Fabricated story" {
		t.Fatalf("fake details = %+v", s.FakeNewsDetails)
	}

	bySource := s.SentimentBySource["Example Source"]
	if bySource.Negative != 1 || bySource.Positive != 1 {
		t.Errorf("source matrix = %+v", bySource)
	}
	byTopic := s.SentimentByTopic["Breaking News"]
	if byTopic.Negative != 1 || byTopic.Positive != 1 {
		t.Errorf("topic matrix = %+v", byTopic)
	}
}

func TestBuildTimeline(t *testing.T) {
	items := []models.VerifiedNewsItem{
		item("2024-01-13", models.SentimentNegative, models.VerdictFake, 0.7),
		item("2024-01-13", models.SentimentPositive, models.VerdictReal, 0.9),
		item("2024-01-13", models.SentimentNeutral, models.VerdictReal, 0.9),
		item("2023-12-01", models.SentimentNeutral, models.VerdictReal, 0.9), // outside the window
	}

	days := buildTimeline(items, reference)
	if len(days) != 7 {
		t.Fatalf("timeline length = %d, want 7", len(days))
	}
	if days[0].Date != "2024-01-09" || days[6].Date != "2024-01-15" {
		t.Fatalf("window = %s .. %s", days[0].Date, days[6].Date)
	}

	busy := days[4] // 2024-01-13
	if busy.Total != 3 || busy.Fake != 1 || busy.Real != 2 {
		t.Errorf("busy day = %+v", busy)
	}
	if busy.Negative != 1 || busy.Positive != 1 || busy.Neutral != 1 {
		t.Errorf("busy day sentiment = %+v", busy)
	}

	// 3-day moving average over totals [0 0 0 0 3 0 0].
	if got := days[4].SmoothedTotal; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("smoothed total = %v, want 1.0", got)
	}
	for _, d := range days {
		if d.Date == "2024-01-10" && d.Total != 0 {
			t.Errorf("empty day not empty: %+v", d)
		}
	}
}

func TestTopSources(t *testing.T) {
	counts := map[string]int{}
	for i := 0; i < 12; i++ {
		counts[string(rune('a'+i))] = i + 1
	}
	top := topSources(counts, 10)
	if len(top) != 10 {
		t.Fatalf("len = %d, want 10", len(top))
	}
	if _, ok := top["a"]; ok {
		t.Error("lowest-count source should be cut")
	}
	if top["l"] != 12 {
		t.Errorf("highest-count source missing: %v", top)
	}
}
