package aggregator

import (
	"testing"

	"github.com/andrewsem/factwatch/pkg/models"
)

func TestParseNewsTuples(t *testing.T) {
	text := `Here is what I found:
NEWS: Acme launches new widget line | SOURCE: TechDaily | DATE: 2024-01-15 | SENTIMENT: positive
news: Acme faces supplier lawsuit | source: LawWire | date: 01/14/2024 | sentiment: Negative
Some commentary the model added.
NEWS: Acme quarterly results steady | SOURCE: FinanceHub | DATE: 2024-01-13 | SENTIMENT: neutral`

	tuples := parseNewsTuples(text)
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples, got %d", len(tuples))
	}

	if tuples[0].headline != "Acme launches new widget line" {
		t.Errorf("headline not trimmed: %q", tuples[0].headline)
	}
	if tuples[1].sentiment != models.SentimentNegative {
		t.Errorf("case-insensitive sentiment failed: %q", tuples[1].sentiment)
	}
	if tuples[2].date != "2024-01-13" {
		t.Errorf("date not trimmed: %q", tuples[2].date)
	}
}

func TestParseNewsTuples_NoMatches(t *testing.T) {
	tuples := parseNewsTuples("The model refused to answer in the requested format.")
	if len(tuples) != 0 {
		t.Fatalf("expected no tuples, got %d", len(tuples))
	}
}

func TestNormalizeSentiment(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"positive", models.SentimentPositive},
		{" Positive\n", models.SentimentPositive},
		{"NEGATIVE", models.SentimentNegative},
		{"neutral", models.SentimentNeutral},
		{"mixed", models.SentimentNeutral},
		{"", models.SentimentNeutral},
	}

	for _, tt := range tests {
		if got := normalizeSentiment(tt.raw); got != tt.want {
			t.Errorf("normalizeSentiment(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMatchSource(t *testing.T) {
	sources := []models.GroundingSource{
		{Title: "Quarterly earnings roundup", URI: "https://finance.example/earnings"},
		{Title: "Acme widget launch coverage", URI: "https://tech.example/widgets"},
	}

	src := matchSource("Acme launches new widget line", sources)
	if src == nil {
		t.Fatal("expected a match")
	}
	if src.URI != "https://tech.example/widgets" {
		t.Errorf("wrong source matched: %q", src.URI)
	}

	if matchSource("Completely unrelated story", sources) != nil {
		t.Error("expected no match for unrelated headline")
	}

	if matchSource("anything", nil) != nil {
		t.Error("expected no match with empty source list")
	}
}
