package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrUpstream marks a failed or unusable response from the model
var ErrUpstream = errors.New("ai upstream error")

// Generator produces a text completion for a prompt under a system instruction
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator. Every call is bounded
// by timeout through the underlying HTTP client.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return b.String(), nil
}

// Unconfigured is the generator used when no API key is set; every call fails
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: GEMINI_API_KEY is not configured", ErrUpstream)
}
