package verification

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

func init() {
	_ = logger.Init("error", "")
}

type stubCaller struct {
	text  string
	err   error
	calls int
}

func (s *stubCaller) Generate(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResult{Text: s.text}, nil
}

func rawItems(n int) []models.RawNewsItem {
	items := make([]models.RawNewsItem, n)
	for i := range items {
		items[i] = models.RawNewsItem{Headline: "headline", SourceName: "source"}
	}
	return items
}

func TestParseVerification(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantVerdict    models.Verdict
		wantConfidence float64
		wantBias       string
		wantImpact     string
	}{
		{
			name:           "full response",
			text:           "VERDICT: REAL, CONFIDENCE: 0.92, BIAS: low, IMPACT: high",
			wantVerdict:    models.VerdictReal,
			wantConfidence: 0.92,
			wantBias:       "low",
			wantImpact:     "high",
		},
		{
			name:           "case insensitive",
			text:           "verdict: fake\nconfidence: 0.7\nbias: High\nimpact: Low",
			wantVerdict:    models.VerdictFake,
			wantConfidence: 0.7,
			wantBias:       "high",
			wantImpact:     "low",
		},
		{
			name:           "all fields missing use defaults",
			text:           "I could not determine anything conclusive.",
			wantVerdict:    models.VerdictUncertain,
			wantConfidence: 0.5,
			wantBias:       "medium",
			wantImpact:     "medium",
		},
		{
			name:           "out of range confidence clamped",
			text:           "VERDICT: REAL, CONFIDENCE: 7.5",
			wantVerdict:    models.VerdictReal,
			wantConfidence: 1.0,
			wantBias:       "medium",
			wantImpact:     "medium",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parseVerification(tt.text)
			if v.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %q, want %q", v.Verdict, tt.wantVerdict)
			}
			if v.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", v.Confidence, tt.wantConfidence)
			}
			if v.BiasLevel != tt.wantBias {
				t.Errorf("bias = %q, want %q", v.BiasLevel, tt.wantBias)
			}
			if v.ImpactLevel != tt.wantImpact {
				t.Errorf("impact = %q, want %q", v.ImpactLevel, tt.wantImpact)
			}
		})
	}
}

func TestVerifyAll_OutputLengthEqualsInputLength(t *testing.T) {
	caller := &stubCaller{text: "VERDICT: REAL, CONFIDENCE: 0.8, BIAS: low, IMPACT: medium"}
	v := New(caller, "test-model")

	for _, n := range []int{0, 1, 10, 23} {
		got := v.VerifyAll(context.Background(), "Acme", rawItems(n))
		if len(got) != n {
			t.Errorf("n=%d: output length %d", n, len(got))
		}
	}
}

func TestVerifyAll_CallFailureDegradesItem(t *testing.T) {
	caller := &stubCaller{err: errors.New("upstream down")}
	v := New(caller, "test-model")

	got := v.VerifyAll(context.Background(), "Acme", rawItems(3))
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}

	for _, item := range got {
		if item.Verification.Verdict != models.VerdictUncertain {
			t.Errorf("verdict = %q, want UNCERTAIN", item.Verification.Verdict)
		}
		if item.Verification.Confidence != 0.0 {
			t.Errorf("confidence = %v, want 0.0", item.Verification.Confidence)
		}
		if item.Verification.Reasoning == "" {
			t.Error("degraded item must record the failure in reasoning")
		}
	}
}

func TestTruncate_CutsAtRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short ascii kept", "hello", 10, "hello"},
		{"long ascii cut", "abcdef", 3, "abc"},
		{"cyrillic cut between runes", "ошибка квоты", 6, "ошибка"},
		{"exact rune count kept", "проверка", 8, "проверка"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestVerifyAll_CancellationStopsNewCalls(t *testing.T) {
	caller := &stubCaller{text: "VERDICT: REAL, CONFIDENCE: 0.8"}
	v := New(caller, "test-model")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := v.VerifyAll(ctx, "Acme", rawItems(5))
	if len(got) != 5 {
		t.Fatalf("cancellation must not drop items: got %d", len(got))
	}
	if caller.calls != 0 {
		t.Errorf("no upstream calls expected after cancellation, got %d", caller.calls)
	}
	for _, item := range got {
		if item.Verification.Verdict != models.VerdictUncertain {
			t.Errorf("cancelled item should be UNCERTAIN, got %q", item.Verification.Verdict)
		}
	}
}
