package aggregator

import (
	"testing"
	"time"

	"github.com/andrewsem/factwatch/pkg/models"
)

func itemDated(date string) models.RawNewsItem {
	return models.RawNewsItem{Headline: "h", ReportedDate: date}
}

func TestParseReportedDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2024-01-15", true, "2024-01-15"},
		{"01/15/2024", true, "2024-01-15"},
		{"15-01-2024", true, "2024-01-15"},
		{"2024/01/15", true, "2024-01-15"},
		{"January 15, 2024", false, ""},
		{"yesterday", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseReportedDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parsed %q, want %q", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestFilterByPeriod(t *testing.T) {
	ref := time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)

	items := []models.RawNewsItem{
		itemDated("2024-01-15"), // today
		itemDated("2024-01-10"), // 5 days back
		itemDated("2023-12-20"), // 26 days back
		itemDated("2023-03-01"), // ~320 days back
		itemDated("2024-02-01"), // future
		itemDated("no idea"),    // unparsable
	}

	tests := []struct {
		period string
		want   int
	}{
		{"today", 1},
		{"week", 2},
		{"month", 3},
		{"year", 4},
		{"fortnight", 1}, // unknown period defaults to today
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got := FilterByPeriod(items, tt.period, ref)
			if len(got) != tt.want {
				t.Errorf("kept %d items, want %d", len(got), tt.want)
			}
			for _, item := range got {
				if _, ok := ParseReportedDate(item.ReportedDate); !ok {
					t.Errorf("unparsable date survived the filter: %q", item.ReportedDate)
				}
			}
		})
	}
}

func TestFilterByPeriod_ReferenceZoneNormalizedToUTC(t *testing.T) {
	// Just past local midnight in UTC+9, still the previous day in UTC. The
	// filter must agree with the per-day statistics, which work in UTC.
	ref := time.Date(2024, 1, 16, 0, 30, 0, 0, time.FixedZone("UTC+9", 9*3600))

	got := FilterByPeriod([]models.RawNewsItem{itemDated("2024-01-15")}, "today", ref)
	if len(got) != 1 {
		t.Fatalf("UTC-same-day item dropped under a local reference zone: kept %d", len(got))
	}
}

func TestFilterByPeriod_FutureDatesDropped(t *testing.T) {
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	got := FilterByPeriod([]models.RawNewsItem{itemDated("2024-01-16")}, "year", ref)
	if len(got) != 0 {
		t.Fatalf("future-dated item kept: %d", len(got))
	}
}
