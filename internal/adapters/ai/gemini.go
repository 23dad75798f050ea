package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/andrewsem/factwatch/pkg/models"
)

// DefaultModel is used when a request does not name one.
const DefaultModel = "gemini-2.5-flash"

// GeminiProvider implements Provider for one Google Gemini API key.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider bound to a single API key.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

// Generate performs a single generation call. With WithSearch set, the
// Google Search tool is attached and grounding chunks are mapped to sources.
func (g *GeminiProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.WithSearch {
		cfg.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	return &GenerateResult{
		Text:    resp.Text(),
		Sources: extractSources(resp),
	}, nil
}

// extractSources maps grounding metadata to the pipeline's source model.
func extractSources(resp *genai.GenerateContentResponse) []models.GroundingSource {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}

	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	sources := make([]models.GroundingSource, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		sources = append(sources, models.GroundingSource{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}
