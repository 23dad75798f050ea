package snippet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// Extraction bounds.
const (
	maxDocumentLen = 10000
	maxQuoteLen    = 500
	minSentenceLen = 20
	maxSentenceLen = 500
	topSentences   = 3
	hintPassDocLen = 5000
)

// Diagnostic strings returned instead of a quote when the fetch layer fails.
// These are cached like any other result so a known-bad source is not
// refetched on every call.
const (
	NoSnippetFound   = "No relevant snippet found"
	TimeoutDiag      = "Source timeout - could not fetch content"
	ExtractionFailed = "Snippet extraction failed"
	RateLimited      = "Rate limit reached"
	SkippedRateLimit = "Extraction skipped (rate limit)"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	wordTokenRe  = regexp.MustCompile(`[a-z0-9_]{3,}`)
	bulletRe     = regexp.MustCompile(`^[-*•]\s*`)
)

// Extractor fetches source documents and pulls verbatim evidence quotes
// relevant to a query. Fetches go through a rate limiter so requests to
// source sites stay spaced out.
type Extractor struct {
	cache   *Cache
	client  *http.Client
	limiter *rate.Limiter
	caller  ai.Generator
	model   string
}

// New creates an extractor. delay is the minimum spacing between document
// fetches; caller powers the model-assisted fallback pass and may be nil to
// disable it.
func New(cache *Cache, caller ai.Generator, model string, fetchTimeout, delay time.Duration) *Extractor {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Extractor{
		cache:   cache,
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: rate.NewLimiter(limit, 1),
		caller:  caller,
		model:   model,
	}
}

// Extract returns a verbatim quote from the document at uri relevant to
// query, or a short diagnostic string. It never returns an error; the
// second return reports that the model-assisted pass hit a quota limit so
// callers can stop issuing further extractions.
func (e *Extractor) Extract(ctx context.Context, uri, query string) (string, bool) {
	if cached, ok := e.cache.Get(uri, query); ok {
		logger.Debug("snippet cache hit", zap.String("uri", uri))
		return cached, false
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return ExtractionFailed, false
	}

	text, diag := e.fetchText(ctx, uri)
	if diag != "" {
		e.cache.Set(uri, query, diag)
		return diag, false
	}

	sentences := splitSentences(text)
	top := scoreSentences(sentences, query)

	var rateLimited bool
	if len(top) == 0 && e.caller != nil {
		top, rateLimited = e.hintPass(ctx, text, query, sentences)
		if rateLimited {
			// Transient; deliberately not cached.
			return RateLimited, true
		}
	}

	if len(top) == 0 {
		e.cache.Set(uri, query, NoSnippetFound)
		return NoSnippetFound, false
	}

	quote := strings.Join(top, " ")
	if utf8.RuneCountInString(quote) > maxQuoteLen {
		quote = firstRunes(quote, maxQuoteLen) + "..."
	}
	// Quotation marks signal the text is verbatim, not paraphrased.
	result := `"` + quote + `"`

	e.cache.Set(uri, query, result)
	return result, false
}

// fetchText downloads the document, strips boilerplate and collapses
// whitespace. A non-empty diagnostic return means the fetch failed.
func (e *Extractor) fetchText(ctx context.Context, uri string) (text, diag string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Sprintf("Could not access source: %.50s", err.Error())
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", TimeoutDiag
		}
		return "", fmt.Sprintf("Could not access source: %.50s", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Sprintf("Could not access source: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", ExtractionFailed
	}

	doc.Find("script, style, nav, footer, header").Remove()

	raw := doc.Text()
	raw = strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	return firstRunes(raw, maxDocumentLen), ""
}

// firstRunes cuts s to at most n runes, never splitting a multi-byte rune.
func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// splitSentences breaks text into sentence-like units on .!? boundaries and
// discards units outside the useful length band.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if len(s) >= minSentenceLen && len(s) <= maxSentenceLen {
			sentences = append(sentences, s)
		}
	}

	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return sentences
}

// scoreSentences ranks sentences by shared word tokens (3+ letters,
// case-insensitive) with the query and returns the top few. Document order
// breaks ties.
func scoreSentences(sentences []string, query string) []string {
	queryTokens := tokenSet(query)

	type scored struct {
		sentence string
		score    int
	}
	var candidates []scored

	for _, s := range sentences {
		overlap := 0
		for tok := range tokenSet(s) {
			if queryTokens[tok] {
				overlap++
			}
		}
		if overlap > 0 {
			candidates = append(candidates, scored{sentence: s, score: overlap})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topSentences {
		candidates = candidates[:topSentences]
	}
	result := make([]string, len(candidates))
	for i, c := range candidates {
		result[i] = c.sentence
	}
	return result
}

func tokenSet(s string) map[string]bool {
	tokens := wordTokenRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// hintPass asks the model to name the opening words of relevant sentences,
// then locates those prefixes verbatim in the sentence list. This preserves
// the verbatim-quote guarantee even when keyword overlap fails.
func (e *Extractor) hintPass(ctx context.Context, text, query string, sentences []string) ([]string, bool) {
	doc := firstRunes(text, hintPassDocLen)

	prompt := fmt.Sprintf(`From this article, identify which sentences are most relevant to: %q

Article text:
%s

List the first 5-10 words of each relevant sentence, so I can find them in the original text.`, query, doc)

	result, err := e.caller.Generate(ctx, &ai.GenerateRequest{
		Model:       e.model,
		Prompt:      prompt,
		Temperature: 0.0,
	})
	if err != nil {
		if ai.IsQuotaError(err) {
			return nil, true
		}
		logger.Warn("snippet hint pass failed", zap.Error(err))
		return nil, false
	}

	var top []string
	for _, line := range strings.Split(result.Text, "\n") {
		hint := strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
		hint = firstRunes(hint, 50)
		if utf8.RuneCountInString(hint) < 10 {
			continue
		}

		for _, sentence := range sentences {
			head := firstRunes(sentence, 100)
			if strings.Contains(strings.ToLower(head), strings.ToLower(hint)) {
				top = append(top, sentence)
				break
			}
		}
		if len(top) >= topSentences {
			break
		}
	}
	return top, false
}

// EnrichSources attaches snippets to the first maxSnippets grounded sources,
// sequentially. A quota hit during extraction marks the remaining sources as
// skipped and stops; cancellation stops issuing new fetches.
func (e *Extractor) EnrichSources(ctx context.Context, sources []models.GroundingSource, query string, maxSnippets int) {
	n := len(sources)
	if n > maxSnippets {
		n = maxSnippets
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}

		quote, rateLimited := e.Extract(ctx, sources[i].URI, query)
		if rateLimited {
			sources[i].Snippet = RateLimited
			for j := i + 1; j < n; j++ {
				sources[j].Snippet = SkippedRateLimit
			}
			return
		}
		if quote == "" {
			quote = "Snippet unavailable"
		}
		sources[i].Snippet = quote
	}

	logger.Debug("source enrichment complete",
		zap.Int("sources", n),
		zap.Int("cached_snippets", e.cache.Len()),
	)
}
