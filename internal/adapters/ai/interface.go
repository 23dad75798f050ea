package ai

import (
	"context"
	"strings"

	"github.com/andrewsem/factwatch/pkg/models"
)

// GenerateRequest describes one upstream text-generation call.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	// WithSearch requests search grounding; grounded web sources are
	// returned alongside the generated text.
	WithSearch bool
}

// GenerateResult is the upstream response: generated text plus any grounded
// web sources the model cited.
type GenerateResult struct {
	Text    string
	Sources []models.GroundingSource
}

// Provider represents one credential's view of the generation service.
type Provider interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// Generator is the call surface the rest of the pipeline depends on. The
// resilient Caller implements it; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// IsQuotaError classifies an upstream failure as quota/rate-limit exhaustion.
// Only these failures trigger credential rotation; everything else propagates
// to the caller untouched.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "quota")
}
