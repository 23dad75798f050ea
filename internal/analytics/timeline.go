package analytics

import (
	"time"

	"github.com/cinar/indicator"

	"github.com/andrewsem/factwatch/pkg/models"
)

const (
	timelineDays    = 7
	smoothingPeriod = 3
)

// buildTimeline buckets items into the 7 calendar days ending at reference,
// empty days included, and overlays a 3-day moving average of the daily
// totals for trend display.
func buildTimeline(items []models.VerifiedNewsItem, reference time.Time) []models.TimelineDay {
	start := truncateDay(reference).AddDate(0, 0, -(timelineDays - 1))

	days := make([]models.TimelineDay, timelineDays)
	index := make(map[string]int, timelineDays)
	for i := range days {
		date := start.AddDate(0, 0, i).Format(strictDateLayout)
		days[i] = models.TimelineDay{Date: date}
		index[date] = i
	}

	for _, item := range items {
		i, ok := index[item.ReportedDate]
		if !ok {
			continue
		}
		days[i].Total++
		switch item.Verification.Verdict {
		case models.VerdictReal:
			days[i].Real++
		case models.VerdictFake:
			days[i].Fake++
		default:
			days[i].Uncertain++
		}
		switch item.Sentiment {
		case models.SentimentPositive:
			days[i].Positive++
		case models.SentimentNegative:
			days[i].Negative++
		default:
			days[i].Neutral++
		}
	}

	totals := make([]float64, timelineDays)
	for i := range days {
		totals[i] = float64(days[i].Total)
	}
	smoothed := indicator.Sma(smoothingPeriod, totals)
	for i := range days {
		days[i].SmoothedTotal = smoothed[i]
	}

	return days
}
