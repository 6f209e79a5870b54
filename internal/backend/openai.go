package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI translates via the OpenAI chat completion API, streaming the
// response and accumulating chunks into one string.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates an OpenAI backend. An empty model selects GPT-4o mini.
func NewOpenAI(apiKey, model string, maxTokens int) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (o *OpenAI) Name() string   { return NameOpenAI }
func (o *OpenAI) Model() string  { return o.model }
func (o *OpenAI) MaxTokens() int { return o.maxTokens }

// Complete streams one chat completion and returns the concatenated text.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0.3,
		Stream:      true,
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) > 0 {
			sb.WriteString(resp.Choices[0].Delta.Content)
		}
	}
	return sb.String(), nil
}

// CountTokens is unsupported; OpenAI has no counting endpoint.
func (o *OpenAI) CountTokens(ctx context.Context, text string) (int, error) {
	return 0, ErrCountUnsupported
}

// classifyOpenAIError maps API failures onto the unusable/transient split.
// Authentication and quota failures disable the backend for the run; rate
// limits and server errors are worth another attempt.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %v", ErrUnusable, err)
		case 429:
			if apiErr.Type == "insufficient_quota" {
				return fmt.Errorf("%w: %v", ErrUnusable, err)
			}
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
