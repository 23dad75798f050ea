package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/internal/snippet"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

const (
	trendingClaimCount = 3
	scanFanout         = 2
)

var (
	checkVerdictRe     = regexp.MustCompile(`(?i)VERDICT:\s*(REAL|FAKE|UNCERTAIN)`)
	checkConfidenceRe  = regexp.MustCompile(`(?i)CONFIDENCE:\s*([0-9]*\.?[0-9]+)`)
	checkExplanationRe = regexp.MustCompile(`(?is)EXPLANATION:\s*(.+)`)
	jsonFenceRe        = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// Checker answers ad-hoc fact checks and topic crisis scans outside the
// scheduled pipeline.
type Checker struct {
	caller      ai.Generator
	extractor   *snippet.Extractor
	model       string
	maxSnippets int
}

// NewChecker creates the ad-hoc checker. extractor may be nil to skip
// snippet enrichment.
func NewChecker(caller ai.Generator, extractor *snippet.Extractor, model string, maxSnippets int) *Checker {
	return &Checker{
		caller:      caller,
		extractor:   extractor,
		model:       model,
		maxSnippets: maxSnippets,
	}
}

// CheckClaim fact-checks a single free-form claim against grounded search
// and enriches the cited sources with verbatim evidence snippets.
func (c *Checker) CheckClaim(ctx context.Context, query string) (*models.CheckResult, error) {
	prompt := fmt.Sprintf(`Fact-check this claim using current web sources: %q

Respond in this format:
VERDICT: REAL, FAKE, or UNCERTAIN
CONFIDENCE: a number between 0.0 and 1.0
EXPLANATION: a short justification citing the sources`, query)

	result, err := c.caller.Generate(ctx, &ai.GenerateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: 0.1,
		WithSearch:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("claim check failed: %w", err)
	}

	check := parseCheckResult(result.Text)
	check.Sources = result.Sources

	if c.extractor != nil {
		c.extractor.EnrichSources(ctx, check.Sources, query, c.maxSnippets)
	}

	logger.Info("claim checked",
		zap.String("verdict", string(check.Verdict)),
		zap.Int("sources", len(check.Sources)),
	)

	return check, nil
}

// ScanTrends surfaces the currently trending claims around a topic and
// verifies each one. A scan whose claim list cannot be parsed yields an
// empty result, not an error.
func (c *Checker) ScanTrends(ctx context.Context, topic string) ([]models.TrendingClaim, error) {
	prompt := fmt.Sprintf(
		`List the top %d trending or viral claims currently circulating about %q. Respond with only a JSON array of claim strings, nothing else.`,
		trendingClaimCount, topic)

	result, err := c.caller.Generate(ctx, &ai.GenerateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: 0.3,
		WithSearch:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("trend scan failed: %w", err)
	}

	claims := parseClaimList(result.Text)
	if len(claims) == 0 {
		logger.Warn("trend scan returned no parseable claims", zap.String("topic", topic))
		return nil, nil
	}

	verified := make([]models.TrendingClaim, len(claims))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanFanout)
	for i, claim := range claims {
		g.Go(func() error {
			verified[i] = c.verifyTrendingClaim(gctx, topic, claim)
			return nil
		})
	}
	_ = g.Wait()

	return verified, nil
}

func (c *Checker) verifyTrendingClaim(ctx context.Context, topic, claim string) models.TrendingClaim {
	tc := models.TrendingClaim{
		ID:    uuid.NewString(),
		Topic: topic,
		Claim: claim,
	}

	check, err := c.CheckClaim(ctx, claim)
	if err != nil {
		tc.Verdict = models.VerdictUncertain
		tc.Explanation = fmt.Sprintf("Verification failed: %v", err)
		tc.Severity = models.CrisisMedium
		return tc
	}

	tc.Verdict = check.Verdict
	tc.Explanation = check.Explanation
	tc.Confidence = check.Confidence
	tc.Sources = check.Sources

	// A confirmed fake circulating about the topic is the crisis signal.
	if check.Verdict == models.VerdictFake {
		tc.Severity = models.CrisisHigh
	} else {
		tc.Severity = models.CrisisMedium
	}

	return tc
}

// parseCheckResult extracts VERDICT / CONFIDENCE / EXPLANATION with the
// usual defaults for missing fields.
func parseCheckResult(text string) *models.CheckResult {
	check := &models.CheckResult{
		Verdict:     models.VerdictUncertain,
		Confidence:  0.5,
		Explanation: strings.TrimSpace(text),
	}

	if m := checkVerdictRe.FindStringSubmatch(text); m != nil {
		check.Verdict = models.Verdict(strings.ToUpper(m[1]))
	}
	if m := checkConfidenceRe.FindStringSubmatch(text); m != nil {
		if conf, err := strconv.ParseFloat(m[1], 64); err == nil {
			if conf < 0 {
				conf = 0
			}
			if conf > 1 {
				conf = 1
			}
			check.Confidence = conf
		}
	}
	if m := checkExplanationRe.FindStringSubmatch(text); m != nil {
		check.Explanation = strings.TrimSpace(m[1])
	}

	return check
}

// parseClaimList unwraps an optional markdown code fence and decodes the
// JSON array of claim strings. Anything unparseable yields nil.
func parseClaimList(text string) []string {
	body := strings.TrimSpace(text)
	if m := jsonFenceRe.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	var claims []string
	if err := json.Unmarshal([]byte(body), &claims); err != nil {
		return nil
	}

	out := claims[:0]
	for _, claim := range claims {
		if trimmed := strings.TrimSpace(claim); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) > trendingClaimCount {
		out = out[:trendingClaimCount]
	}
	return out
}
