package aggregator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

func init() {
	_ = logger.Init("error", "")
}

// scriptedCaller answers each query by the category keyword it contains.
type scriptedCaller struct {
	mu        sync.Mutex
	responses map[string]*ai.GenerateResult
	errors    map[string]error
	calls     int
}

func (s *scriptedCaller) Generate(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	for key, err := range s.errors {
		if strings.Contains(req.Prompt, key) {
			return nil, err
		}
	}
	for key, res := range s.responses {
		if strings.Contains(req.Prompt, key) {
			return res, nil
		}
	}
	return &ai.GenerateResult{Text: ""}, nil
}

func newsLine(headline, source, date, sentiment string) string {
	return "NEWS: " + headline + " | SOURCE: " + source + " | DATE: " + date + " | SENTIMENT: " + sentiment + "\n"
}

func TestAggregate_MergesCategoriesDeterministically(t *testing.T) {
	caller := &scriptedCaller{
		responses: map[string]*ai.GenerateResult{
			"regulatory and legal": {
				Text: newsLine("Acme sued over patents", "LawWire", "2024-01-15", "negative"),
			},
			"most recent news": {
				Text: newsLine("Acme opens new plant", "TechDaily", "2024-01-15", "positive"),
				Sources: []models.GroundingSource{
					{Title: "Acme opens plant in Ohio", URI: "https://news.example/plant"},
				},
			},
		},
	}

	agg := New(caller, "test-model")
	items := agg.Aggregate(context.Background(), "Acme", "https://acme.example/about", "today")

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	// Breaking News outranks Legal/Regulatory regardless of completion order.
	if items[0].Category != "Breaking News" {
		t.Errorf("expected Breaking News first, got %q", items[0].Category)
	}
	if items[0].RelevanceWeight <= items[1].RelevanceWeight {
		t.Errorf("relevance weights not descending: %v then %v",
			items[0].RelevanceWeight, items[1].RelevanceWeight)
	}
	if items[0].SourceURL != "https://news.example/plant" {
		t.Errorf("grounding source not attached: %q", items[0].SourceURL)
	}
	if items[1].SourceURL != "" {
		t.Errorf("unmatched item should carry empty source URL, got %q", items[1].SourceURL)
	}
}

func TestAggregate_OneFailingCategoryDoesNotAbortOthers(t *testing.T) {
	caller := &scriptedCaller{
		responses: map[string]*ai.GenerateResult{
			"financial news": {
				Text: newsLine("Acme beats estimates", "FinanceHub", "2024-01-15", "positive"),
			},
		},
		errors: map[string]error{
			"most recent news": errors.New("upstream blew up"),
		},
	}

	agg := New(caller, "test-model")
	items := agg.Aggregate(context.Background(), "Acme", "", "week")

	if len(items) != 1 {
		t.Fatalf("expected the surviving category's item, got %d items", len(items))
	}
	if items[0].Category != "Financial" {
		t.Errorf("unexpected category %q", items[0].Category)
	}
	if caller.calls != len(categories) {
		t.Errorf("expected all %d categories queried, got %d", len(categories), caller.calls)
	}
}

func TestAggregate_AllQueriesFailingYieldsEmptyList(t *testing.T) {
	caller := &scriptedCaller{
		errors: map[string]error{"news": errors.New("quota exceeded")},
	}

	agg := New(caller, "test-model")
	items := agg.Aggregate(context.Background(), "Acme", "", "today")
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(items))
	}
}

func TestSiteFilter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://acme.example/about", " site:acme.example"},
		{"http://acme.example", " site:acme.example"},
		{"acme.example", " site:acme.example"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := siteFilter(tt.in); got != tt.want {
			t.Errorf("siteFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
