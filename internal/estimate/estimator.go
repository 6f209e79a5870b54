// Package estimate predicts the token cost of a translation request and
// picks the largest language batch that stays under a safety-margined
// fraction of the backend's request ceiling.
package estimate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/XelaNull/7DTD-languageTranslator/internal/backend"
)

// SafetyMargin is the fraction of a backend's maximum request size the
// estimator is allowed to fill. The remainder absorbs estimation error.
const SafetyMargin = 0.65

// estimationID is a placeholder unit id used only for sizing prompts.
const estimationID = "1234567890"

// Estimate is the cost prediction for one translation request.
// Zero values signal that every strategy failed and the caller should
// fall back to single-language requests.
type Estimate struct {
	TotalTokens int
	BatchSize   int
	BatchTokens int
}

// Estimator computes Estimates against a concrete backend. Strategies are
// tried in order: the backend's own counting endpoint, a characters-per-token
// approximation calibrated to the model, and a word-count expansion factor.
type Estimator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Estimator {
	return &Estimator{logger: logger}
}

// Estimate predicts the cost of translating text into languages on b and
// derives the optimal batch size under the safety ceiling.
func (e *Estimator) Estimate(ctx context.Context, b backend.Backend, text string, languages []string) Estimate {
	if len(languages) == 0 {
		return Estimate{}
	}

	total := e.totalTokens(ctx, b, text, languages)
	if total == 0 {
		e.logger.Error("all token estimation strategies failed")
		return Estimate{}
	}

	perLanguage := total / len(languages)
	if perLanguage == 0 {
		perLanguage = 1
	}

	allowed := int(float64(b.MaxTokens()) * SafetyMargin)
	size := allowed / perLanguage
	if size > len(languages) {
		size = len(languages)
	}
	if size < 1 {
		size = 1
	}

	est := Estimate{
		TotalTokens: total,
		BatchSize:   size,
		BatchTokens: size * perLanguage,
	}
	e.logger.Debug("token estimate",
		"backend", b.Name(),
		"total", est.TotalTokens,
		"per_language", perLanguage,
		"batch_size", est.BatchSize,
		"batch_tokens", est.BatchTokens)
	return est
}

func (e *Estimator) totalTokens(ctx context.Context, b backend.Backend, text string, languages []string) int {
	prompt := backend.BuildPrompt(estimationID, text, languages)

	if n, err := b.CountTokens(ctx, prompt); err == nil && n > 0 {
		return n
	} else if err != nil {
		e.logger.Debug("backend token count unavailable", "backend", b.Name(), "error", err)
	}

	if n := charsPerTokenEstimate(prompt, b.Model()); n > 0 {
		return n
	}

	return expansionFactorEstimate(text, languages)
}

// charsPerTokenEstimate approximates the token count from prompt length.
// English prose averages roughly four characters per token on current
// GPT and Gemini tokenizers; older GPT-2 style vocabularies run denser.
func charsPerTokenEstimate(prompt, model string) int {
	charsPerToken := 4.0
	if strings.Contains(model, "gpt-3.5") {
		charsPerToken = 3.5
	}
	return int(float64(len(prompt)) / charsPerToken)
}

// expansionFactorEstimate is the last-resort heuristic: word count times a
// 20% expansion allowance per target language, boosted another 10% for
// punctuation-dense text.
func expansionFactorEstimate(text string, languages []string) int {
	base := float64(len(strings.Fields(text)))
	perLanguage := base * 1.2
	total := perLanguage * float64(len(languages))
	if strings.ContainsAny(text, "!@#$%^&*()_+-=[]{}|;:,.<>?") {
		total *= 1.1
	}
	return int(total)
}
