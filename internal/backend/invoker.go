package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/XelaNull/7DTD-languageTranslator/internal/ratelimit"
)

// Invoker issues a single translation request: it builds the prompt, waits
// for a rate-limiter slot, and runs the call through a per-backend circuit
// breaker so a backend that keeps failing is given time to recover.
type Invoker struct {
	limiter *ratelimit.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewInvoker creates an invoker sharing the given rate limiter.
func NewInvoker(limiter *ratelimit.Limiter, logger *slog.Logger) *Invoker {
	return &Invoker{
		limiter:  limiter,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Invoke sends one translation request for the given unit and languages and
// returns the raw response text. Errors wrap ErrUnusable or ErrTransient so
// the orchestrator can decide between fail-over and retry.
func (iv *Invoker) Invoke(ctx context.Context, b Backend, id, text string, languages []string) (string, error) {
	prompt := BuildPrompt(id, text, languages)

	if err := iv.limiter.Admit(ctx, b.Name()); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	iv.logger.Debug("invoking backend",
		"backend", b.Name(),
		"model", b.Model(),
		"id", id,
		"languages", len(languages))

	result, err := iv.breaker(b.Name()).Execute(func() (interface{}, error) {
		return b.Complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit breaker open for %s", ErrTransient, b.Name())
		}
		return "", err
	}
	return result.(string), nil
}

func (iv *Invoker) breaker(name string) *gobreaker.CircuitBreaker {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	cb, ok := iv.breakers[name]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				iv.logger.Warn("circuit breaker state change",
					"backend", name, "from", from.String(), "to", to.String())
			},
		})
		iv.breakers[name] = cb
	}
	return cb
}
