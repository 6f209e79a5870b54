package estimate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type countingBackend struct {
	tokens    int
	countErr  error
	maxTokens int
	model     string
}

func (c *countingBackend) Name() string   { return "fake" }
func (c *countingBackend) Model() string  { return c.model }
func (c *countingBackend) MaxTokens() int { return c.maxTokens }

func (c *countingBackend) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not implemented")
}

func (c *countingBackend) CountTokens(ctx context.Context, text string) (int, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	return c.tokens, nil
}

func testEstimator() *Estimator {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var thirteen = []string{
	"german", "latam", "french", "italian", "japanese", "koreana", "polish",
	"brazilian", "russian", "turkish", "schinese", "tchinese", "spanish",
}

func TestEstimateUsesBackendCount(t *testing.T) {
	b := &countingBackend{tokens: 1300, maxTokens: 1000, model: "gemini-2.0-flash"}

	est := testEstimator().Estimate(context.Background(), b, "Hello world", thirteen)

	if est.TotalTokens != 1300 {
		t.Errorf("TotalTokens = %d, want 1300", est.TotalTokens)
	}
	// 1300/13 = 100 per language, ceiling 650 allows 6.
	if est.BatchSize != 6 {
		t.Errorf("BatchSize = %d, want 6", est.BatchSize)
	}
	if est.BatchTokens != 600 {
		t.Errorf("BatchTokens = %d, want 600", est.BatchTokens)
	}
}

func TestEstimateBatchSizeFloorIsOne(t *testing.T) {
	b := &countingBackend{tokens: 13000, maxTokens: 1000, model: "gpt-4o-mini"}

	est := testEstimator().Estimate(context.Background(), b, "Hello", thirteen)

	if est.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want 1", est.BatchSize)
	}
}

func TestEstimateBatchSizeCappedByLanguageCount(t *testing.T) {
	b := &countingBackend{tokens: 20, maxTokens: 1000, model: "gpt-4o-mini"}

	est := testEstimator().Estimate(context.Background(), b, "Hi", []string{"german", "french"})

	if est.BatchSize != 2 {
		t.Errorf("BatchSize = %d, want 2", est.BatchSize)
	}
}

func TestEstimateFallsThroughWhenCountUnsupported(t *testing.T) {
	b := &countingBackend{countErr: errors.New("no counting endpoint"), maxTokens: 1000, model: "gpt-4o-mini"}

	est := testEstimator().Estimate(context.Background(), b, "Hello world, how are you today?", thirteen)

	if est.TotalTokens == 0 {
		t.Fatal("expected nonzero estimate from fallback strategy")
	}
	if est.BatchSize < 1 {
		t.Errorf("BatchSize = %d, want >= 1", est.BatchSize)
	}
}

func TestEstimateNoLanguagesReturnsZeros(t *testing.T) {
	b := &countingBackend{tokens: 100, maxTokens: 1000, model: "gpt-4o-mini"}

	est := testEstimator().Estimate(context.Background(), b, "Hello", nil)

	if est != (Estimate{}) {
		t.Errorf("Estimate = %+v, want zero value", est)
	}
}

func TestExpansionFactorBoostsPunctuation(t *testing.T) {
	plain := expansionFactorEstimate("three simple words here", thirteen)
	dense := expansionFactorEstimate("three {simple} words, here!", thirteen)

	if dense <= plain {
		t.Errorf("punctuation-dense estimate %d not greater than plain %d", dense, plain)
	}
}
