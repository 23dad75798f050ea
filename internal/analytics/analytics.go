package analytics

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// strictDateLayout is the only format accepted for same-day and weekly
// subsetting. Items whose reported date uses any other shape still count in
// the overall statistics but are excluded from the day-bucketed metrics.
const strictDateLayout = "2006-01-02"

const (
	topSourceCount = 10
	maxFakeDetails = 5
)

// Summary is the computed analytics block of one run, merged into the
// persisted snapshot by the pipeline.
type Summary struct {
	Statistics        models.Statistics
	CrisisAlert       models.CrisisAlert
	NegativeSpike     models.SpikeInfo
	Timeline          []models.TimelineDay
	SentimentBySource map[string]models.SentimentCounts
	SentimentByTopic  map[string]models.SentimentCounts
	FakeNewsDetails   []models.FakeNewsDetail
}

// Summarize folds a verified result set into statistics, crisis tiering,
// spike detection and a 7-day timeline. reference anchors "today".
func Summarize(items []models.VerifiedNewsItem, reference time.Time) Summary {
	s := Summary{
		SentimentBySource: make(map[string]models.SentimentCounts),
		SentimentByTopic:  make(map[string]models.SentimentCounts),
	}

	stats := models.Statistics{
		TotalNews:          len(items),
		CategoryBreakdown:  make(map[string]int),
		SentimentBreakdown: make(map[string]int),
	}

	sourceCounts := make(map[string]int)
	negativeByDate := make(map[string]int)
	var confidenceSum float64

	for _, item := range items {
		switch item.Verification.Verdict {
		case models.VerdictReal:
			stats.RealCount++
		case models.VerdictFake:
			stats.FakeCount++
			s.FakeNewsDetails = append(s.FakeNewsDetails, models.FakeNewsDetail{
				Title:      item.Headline,
				Source:     item.SourceName,
				Date:       item.ReportedDate,
				Reasoning:  item.Verification.Reasoning,
				Confidence: item.Verification.Confidence,
			})
		default:
			stats.UncertainCount++
		}
		confidenceSum += item.Verification.Confidence

		stats.CategoryBreakdown[item.Category]++
		stats.SentimentBreakdown[item.Sentiment]++
		sourceCounts[item.SourceName]++

		bySource := s.SentimentBySource[item.SourceName]
		tally(&bySource, item.Sentiment)
		s.SentimentBySource[item.SourceName] = bySource

		byTopic := s.SentimentByTopic[item.Category]
		tally(&byTopic, item.Sentiment)
		s.SentimentByTopic[item.Category] = byTopic

		date, ok := strictDate(item.ReportedDate)
		if !ok {
			continue
		}
		days := daysSince(date, reference)
		if days == 0 {
			stats.MentionsToday++
		}
		if days <= 7 {
			stats.MentionsWeek++
		}
		if item.Sentiment == models.SentimentNegative {
			negativeByDate[item.ReportedDate]++
		}
	}

	if stats.TotalNews > 0 {
		stats.AvgConfidence = confidenceSum / float64(stats.TotalNews)
		stats.ReliabilityScore = float64(stats.RealCount) / float64(stats.TotalNews) * stats.AvgConfidence * 100
		stats.OverallSentimentScore = sentimentScore(stats.SentimentBreakdown, stats.TotalNews)
	}
	stats.SourceBreakdown = topSources(sourceCounts, topSourceCount)

	negativeToday := 0
	positiveToday := 0
	for _, item := range items {
		date, ok := strictDate(item.ReportedDate)
		if !ok || daysSince(date, reference) != 0 {
			continue
		}
		switch item.Sentiment {
		case models.SentimentNegative:
			negativeToday++
		case models.SentimentPositive:
			positiveToday++
		}
	}

	if len(s.FakeNewsDetails) > maxFakeDetails {
		s.FakeNewsDetails = s.FakeNewsDetails[:maxFakeDetails]
	}

	s.Statistics = stats
	s.CrisisAlert = classifyCrisis(stats.MentionsToday, negativeToday, positiveToday, stats.FakeCount)
	s.NegativeSpike = detectSpike(negativeByDate)
	s.Timeline = buildTimeline(items, reference)

	logger.Debug("analysis summarized",
		zap.Int("total", stats.TotalNews),
		zap.String("crisis_level", s.CrisisAlert.RiskLevel),
		zap.Bool("spike", s.NegativeSpike.Detected))

	return s
}

// sentimentScore maps the sentiment mix onto a 0..100 scale: positive items
// pull toward 100, neutral toward 50, negative toward 0.
func sentimentScore(breakdown map[string]int, total int) float64 {
	pos := breakdown[models.SentimentPositive]
	neu := breakdown[models.SentimentNeutral]
	return (float64(pos)*100 + float64(neu)*50) / float64(total)
}

func tally(c *models.SentimentCounts, sentiment string) {
	switch sentiment {
	case models.SentimentPositive:
		c.Positive++
	case models.SentimentNegative:
		c.Negative++
	default:
		c.Neutral++
	}
}

func strictDate(raw string) (time.Time, bool) {
	t, err := time.Parse(strictDateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysSince counts calendar days from date to reference, negative when date
// is in the future.
func daysSince(date, reference time.Time) int {
	d := truncateDay(date)
	r := truncateDay(reference)
	return int(r.Sub(d).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// topSources keeps the n most mentioned sources. Count descending, then name
// ascending so the cut is deterministic.
func topSources(counts map[string]int, n int) map[string]int {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.name] = e.count
	}
	return top
}
