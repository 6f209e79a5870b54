package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini translates via the Google Gemini API. Unlike OpenAI it exposes a
// native token-counting endpoint, which the estimator uses when Gemini is
// the active backend.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini creates a Gemini backend. An empty model selects gemini-2.0-flash.
func NewGemini(ctx context.Context, apiKey, model string, maxTokens int) (*Gemini, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (g *Gemini) Name() string   { return NameGemini }
func (g *Gemini) Model() string  { return g.model }
func (g *Gemini) MaxTokens() int { return g.maxTokens }

// Complete streams one generation and returns the concatenated text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
		Temperature:     genai.Ptr[float32](0.3),
	}

	var sb strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), config) {
		if err != nil {
			return "", classifyGeminiError(err)
		}
		sb.WriteString(resp.Text())
	}
	return sb.String(), nil
}

// CountTokens asks the API for an exact token count of the given text.
func (g *Gemini) CountTokens(ctx context.Context, text string) (int, error) {
	resp, err := g.client.Models.CountTokens(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return int(resp.TotalTokens), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %v", ErrUnusable, err)
		case 429:
			if strings.Contains(apiErr.Status, "RESOURCE_EXHAUSTED") {
				return fmt.Errorf("%w: %v", ErrUnusable, err)
			}
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
