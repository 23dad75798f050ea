package verification

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// batchSize groups items for log/progress granularity only; it has no effect
// on semantics.
const batchSize = 10

// maxReasoningLen caps the stored reasoning excerpt.
const maxReasoningLen = 300

// Verifier attaches a verdict to every news item through the resilient
// caller. Items are never dropped: call failures degrade the item's
// verification instead.
type Verifier struct {
	caller ai.Generator
	model  string
}

// New creates a verifier on top of the resilient caller.
func New(caller ai.Generator, model string) *Verifier {
	return &Verifier{caller: caller, model: model}
}

// VerifyAll verifies every item independently and returns exactly one
// verified item per input item. Once cancellation is observed no new
// upstream calls are issued; remaining items are emitted degraded.
func (v *Verifier) VerifyAll(ctx context.Context, entityName string, items []models.RawNewsItem) []models.VerifiedNewsItem {
	verified := make([]models.VerifiedNewsItem, 0, len(items))
	totalBatches := (len(items) + batchSize - 1) / batchSize

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		logger.Info("verifying news batch",
			zap.Int("batch", start/batchSize+1),
			zap.Int("total_batches", totalBatches),
			zap.Int("items", end-start),
		)

		for _, item := range items[start:end] {
			verified = append(verified, v.verifyOne(ctx, entityName, item))
		}
	}

	return verified
}

// verifyOne runs a single verification call and parses the structured
// verdict. Failures degrade to UNCERTAIN with zero confidence.
func (v *Verifier) verifyOne(ctx context.Context, entityName string, item models.RawNewsItem) models.VerifiedNewsItem {
	if err := ctx.Err(); err != nil {
		return degraded(item, fmt.Sprintf("Verification cancelled: %v", err))
	}

	prompt := fmt.Sprintf(
		`Verify this news about %s: %q from source %q. Check factual accuracy and provide: VERDICT: [REAL/FAKE/UNCERTAIN], CONFIDENCE: [0.0-1.0], BIAS: [low/medium/high], IMPACT: [low/medium/high]`,
		entityName, item.Headline, item.SourceName,
	)

	result, err := v.caller.Generate(ctx, &ai.GenerateRequest{
		Model:       v.model,
		Prompt:      prompt,
		Temperature: 0.1,
		WithSearch:  true,
	})
	if err != nil {
		logger.Warn("verification call failed",
			zap.String("headline", item.Headline),
			zap.Error(err),
		)
		return degraded(item, fmt.Sprintf("Verification failed: %v", err))
	}

	verification := parseVerification(result.Text)
	verification.VerifiedAt = time.Now().UTC()

	return models.VerifiedNewsItem{
		RawNewsItem:  item,
		Verification: verification,
	}
}

// degraded emits the item with the lowest-fidelity verification and a note
// recording why.
func degraded(item models.RawNewsItem, reason string) models.VerifiedNewsItem {
	return models.VerifiedNewsItem{
		RawNewsItem: item,
		Verification: models.Verification{
			Verdict:     models.VerdictUncertain,
			Confidence:  0.0,
			BiasLevel:   "unknown",
			ImpactLevel: "unknown",
			Reasoning:   truncate(reason, maxReasoningLen),
			VerifiedAt:  time.Now().UTC(),
		},
	}
}

// truncate caps s at n runes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
