package snippet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

func init() {
	_ = logger.Init("error", "")
}

const articleHTML = `<html>
<head><style>body { color: red }</style><script>var x = 1;</script></head>
<body>
<nav>Home News About</nav>
<header>The Example Times</header>
<p>Acme Corporation announced record widget production this quarter after opening its new factory.</p>
<p>Unrelated filler sentence about the weather being mild across the region this weekend.</p>
<footer>Copyright 2024</footer>
</body></html>`

func newExtractor(handler http.Handler, caller ai.Generator) (*Extractor, *httptest.Server) {
	srv := httptest.NewServer(handler)
	ex := New(NewCache(), caller, "test-model", 2*time.Second, 0)
	return ex, srv
}

func TestExtract_ReturnsVerbatimQuote(t *testing.T) {
	ex, srv := newExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}), nil)
	defer srv.Close()

	quote, rateLimited := ex.Extract(context.Background(), srv.URL, "Acme widget production factory")
	if rateLimited {
		t.Fatal("unexpected rate limit signal")
	}

	if !strings.HasPrefix(quote, `"`) || !strings.HasSuffix(quote, `"`) {
		t.Errorf("quote not wrapped in quotation marks: %q", quote)
	}
	if !strings.Contains(quote, "record widget production") {
		t.Errorf("expected the relevant sentence, got %q", quote)
	}
	if strings.Contains(quote, "Copyright") || strings.Contains(quote, "var x") {
		t.Errorf("boilerplate leaked into quote: %q", quote)
	}
}

func TestExtract_CacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	ex, srv := newExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(articleHTML))
	}), nil)
	defer srv.Close()

	query := "Acme widget production factory"
	first, _ := ex.Extract(context.Background(), srv.URL, query)
	second, _ := ex.Extract(context.Background(), srv.URL, query)

	if first != second {
		t.Errorf("cached call returned different value:\n%q\n%q", first, second)
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one fetch, got %d", hits.Load())
	}
}

func TestExtract_NoRelevantSentenceCachesSentinel(t *testing.T) {
	var hits atomic.Int32
	ex, srv := newExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><body><p>Completely different topic covered in depth here today.</p></body></html>`))
	}), nil)
	defer srv.Close()

	query := "quantum cryptography breakthrough"
	got, _ := ex.Extract(context.Background(), srv.URL, query)
	if got != NoSnippetFound {
		t.Fatalf("expected sentinel, got %q", got)
	}

	// Sentinel must be cached too: a known-bad source is not refetched.
	_, _ = ex.Extract(context.Background(), srv.URL, query)
	if hits.Load() != 1 {
		t.Errorf("sentinel not cached, fetches = %d", hits.Load())
	}
	if ex.cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", ex.cache.Len())
	}
}

func TestExtract_HTTPErrorProducesDiagnostic(t *testing.T) {
	ex, srv := newExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}), nil)
	defer srv.Close()

	got, _ := ex.Extract(context.Background(), srv.URL, "anything at all")
	if !strings.Contains(got, "Could not access source") {
		t.Errorf("expected access diagnostic, got %q", got)
	}
}

type hintCaller struct {
	text string
	err  error
}

func (h *hintCaller) Generate(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResult, error) {
	if h.err != nil {
		return nil, h.err
	}
	return &ai.GenerateResult{Text: h.text}, nil
}

func TestExtract_HintPassRecoversVerbatimSentence(t *testing.T) {
	// Query shares no 3+-letter tokens with the article, forcing the
	// model-assisted pass.
	caller := &hintCaller{text: "- Acme Corporation announced record widget\n"}
	ex, srv := newExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}), caller)
	defer srv.Close()

	got, rateLimited := ex.Extract(context.Background(), srv.URL, "zzz qqq xxx")
	if rateLimited {
		t.Fatal("unexpected rate limit signal")
	}
	if !strings.Contains(got, "record widget production") {
		t.Errorf("hint pass did not recover the sentence: %q", got)
	}
}

func TestEnrichSources_RateLimitStopsAndCascades(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`<html><body><p>Nothing matching the query appears anywhere in this body text.</p></body></html>`))
	})
	caller := &hintCaller{err: contextError("429 RESOURCE_EXHAUSTED")}
	ex, srv := newExtractor(handler, caller)
	defer srv.Close()

	sources := []models.GroundingSource{
		{URI: srv.URL + "/a"},
		{URI: srv.URL + "/b"},
		{URI: srv.URL + "/c"},
	}
	ex.EnrichSources(context.Background(), sources, "zzz qqq", 3)

	if sources[0].Snippet != RateLimited {
		t.Errorf("first source snippet = %q, want %q", sources[0].Snippet, RateLimited)
	}
	for _, s := range sources[1:] {
		if s.Snippet != SkippedRateLimit {
			t.Errorf("remaining source snippet = %q, want %q", s.Snippet, SkippedRateLimit)
		}
	}
	if calls != 1 {
		t.Errorf("expected extraction to stop after the rate limit, fetches = %d", calls)
	}
}

func TestFirstRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short ascii kept", "quote", 10, "quote"},
		{"long ascii cut", "abcdef", 4, "abcd"},
		{"multibyte cut between runes", "цитата из статьи", 6, "цитата"},
		{"exact rune count kept", "報道の内容", 5, "報道の内容"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstRunes(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("firstRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("firstRunes produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Short. This sentence is comfortably long enough to keep around! Tiny? " +
		"Another sentence of a reasonable length that should also survive the filter."
	got := splitSentences(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
}

type contextError string

func (e contextError) Error() string { return string(e) }
