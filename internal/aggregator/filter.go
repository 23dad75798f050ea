package aggregator

import (
	"time"

	"github.com/andrewsem/factwatch/pkg/models"
)

// dateFormats are tried in priority order; the first parse wins. Items whose
// date matches none of them are excluded rather than guessed at.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseReportedDate normalizes a free-text reported date. The second return
// is false when no known format matched.
func ParseReportedDate(s string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// windowDays maps a period to its inclusive day window. Unknown periods fall
// back to the today window.
func windowDays(period string) int {
	switch period {
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	default:
		return 0
	}
}

// FilterByPeriod keeps only items whose parsed reported date falls within
// the period's window relative to referenceDate. Unparsable dates and dates
// in the future are dropped.
func FilterByPeriod(items []models.RawNewsItem, period string, referenceDate time.Time) []models.RawNewsItem {
	window := windowDays(period)
	kept := make([]models.RawNewsItem, 0, len(items))

	for _, item := range items {
		reported, ok := ParseReportedDate(item.ReportedDate)
		if !ok {
			continue
		}

		diff := daysBetween(reported, referenceDate)
		if diff < 0 || diff > window {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// daysBetween returns whole UTC calendar days from earlier to later, negative
// when earlier is actually in the future. Day boundaries are taken in UTC so
// the filter agrees with the downstream per-day statistics.
func daysBetween(earlier, later time.Time) int {
	ey, em, ed := earlier.UTC().Date()
	ly, lm, ld := later.UTC().Date()
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	l := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return int(l.Sub(e).Hours() / 24)
}
