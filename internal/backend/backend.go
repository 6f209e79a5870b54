package backend

import (
	"context"
	"errors"
)

// Backend names as used in configuration, logs and rate-limiter keys.
const (
	NameOpenAI = "openai"
	NameGemini = "gemini"
)

// ErrUnusable marks a backend failure that will not recover within this run,
// such as a rejected API key or an exhausted quota. The caller should disable
// the backend and fail over rather than retry.
var ErrUnusable = errors.New("backend unusable")

// ErrTransient marks a failure worth retrying against the same backend.
var ErrTransient = errors.New("transient backend error")

// ErrCountUnsupported is returned by CountTokens when the backend has no
// native token-counting endpoint.
var ErrCountUnsupported = errors.New("token counting not supported")

// Backend is a single translation provider. Complete sends one prompt and
// returns the full accumulated response text.
type Backend interface {
	Name() string
	Model() string
	MaxTokens() int
	Complete(ctx context.Context, prompt string) (string, error)
	CountTokens(ctx context.Context, text string) (int, error)
}
