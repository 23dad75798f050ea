package verification

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andrewsem/factwatch/pkg/models"
)

var (
	verdictRe    = regexp.MustCompile(`(?i)VERDICT:\s*(REAL|FAKE|UNCERTAIN)`)
	confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*([0-9]*\.?[0-9]+)`)
	biasRe       = regexp.MustCompile(`(?i)BIAS:\s*(low|medium|high)`)
	impactRe     = regexp.MustCompile(`(?i)IMPACT:\s*(low|medium|high)`)
)

// parseVerification extracts the structured verdict from model output.
// Every field the grammar cannot find falls back to its declared default:
// UNCERTAIN / 0.5 / medium / medium.
func parseVerification(text string) models.Verification {
	v := models.Verification{
		Verdict:     models.VerdictUncertain,
		Confidence:  0.5,
		BiasLevel:   "medium",
		ImpactLevel: "medium",
		Reasoning:   truncate(strings.TrimSpace(text), maxReasoningLen),
	}

	if m := verdictRe.FindStringSubmatch(text); m != nil {
		v.Verdict = models.Verdict(strings.ToUpper(m[1]))
	}
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.Confidence = clamp01(c)
		}
	}
	if m := biasRe.FindStringSubmatch(text); m != nil {
		v.BiasLevel = strings.ToLower(m[1])
	}
	if m := impactRe.FindStringSubmatch(text); m != nil {
		v.ImpactLevel = strings.ToLower(m[1])
	}

	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
