package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/XelaNull/7DTD-languageTranslator/internal/backend"
	"github.com/XelaNull/7DTD-languageTranslator/internal/cache"
	"github.com/XelaNull/7DTD-languageTranslator/internal/estimate"
	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
	"github.com/XelaNull/7DTD-languageTranslator/internal/parse"
	"github.com/XelaNull/7DTD-languageTranslator/internal/stats"
)

const (
	// batchRetries bounds halved-batch attempts before dropping to
	// single-language mode.
	batchRetries = 3
	// singleRetries bounds attempts per language in single-language mode.
	singleRetries = 3
	// singleBackoff is the base delay between single-language retries,
	// doubled on each further attempt.
	singleBackoff = time.Second
)

// Estimator predicts the cost of one translation request against a backend.
type Estimator interface {
	Estimate(ctx context.Context, b backend.Backend, text string, languages []string) estimate.Estimate
}

// Orchestrator owns the translation state machine for source texts. It is
// safe for concurrent use; per-unit state lives on the stack and shared
// collaborators synchronize internally.
type Orchestrator struct {
	pool      *backend.Pool
	invoker   *backend.Invoker
	estimator Estimator
	parser    *parse.Parser
	store     *cache.Store
	stats     *stats.Recorder
	logger    *slog.Logger

	sleep func(context.Context, time.Duration) error
}

func New(pool *backend.Pool, invoker *backend.Invoker, estimator Estimator,
	parser *parse.Parser, store *cache.Store, recorder *stats.Recorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		pool:      pool,
		invoker:   invoker,
		estimator: estimator,
		parser:    parser,
		store:     store,
		stats:     recorder,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// Translate produces the full translation record for text, reusing every
// durably cached language and calling backends only for what is missing.
// When every backend becomes unusable it returns the partial record
// together with backend.ErrExhausted; the subset returned is durably
// cached and a later run picks up where this one stopped.
func (o *Orchestrator) Translate(ctx context.Context, text string) (cache.Record, error) {
	id, err := o.store.ObtainID(text)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain unit id: %w", err)
	}

	if rec, ok := o.store.Get(id); ok {
		o.logger.Debug("translation fully cached", "id", id)
		return rec, nil
	}

	if err := o.run(ctx, id, text); err != nil {
		partial, _ := o.store.Partial(id)
		return partial, err
	}

	rec, err := o.store.Promote(id)
	if err != nil {
		return nil, fmt.Errorf("failed to promote unit %s: %w", id, err)
	}
	o.stats.RecordUnitCompleted()
	return rec, nil
}

// run advances one unit until no target language is missing or no backend
// can serve it.
func (o *Orchestrator) run(ctx context.Context, id, text string) error {
	for {
		missing := o.store.Missing(id, lang.Targets)
		if len(missing) == 0 {
			return nil
		}

		b, err := o.pool.Current()
		if err != nil {
			o.stats.RecordUnitPartial()
			o.logger.Error("translation unit left incomplete", "id", id, "missing", missing)
			return err
		}

		est := o.estimator.Estimate(ctx, b, text, missing)
		if est.BatchSize == 0 {
			o.logger.Warn("estimation unavailable, forcing single-language mode", "id", id)
			return o.runSingles(ctx, id, text, missing)
		}

		done, err := o.runBatches(ctx, id, text, missing, est.BatchSize)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		// Batch mode gave up on what is left; finish language by language.
		remaining := o.store.Missing(id, lang.Targets)
		if len(remaining) == 0 {
			return nil
		}
		return o.runSingles(ctx, id, text, remaining)
	}
}

// runBatches requests languages in batches of size, halving on partial
// recovery. It returns done=true when every requested language was
// recovered and the caller should re-estimate for a fresh missing set.
func (o *Orchestrator) runBatches(ctx context.Context, id, text string, missing []string, size int) (bool, error) {
	retries := 0
	for len(missing) > 0 && retries < batchRetries && size >= 1 {
		if size > len(missing) {
			size = len(missing)
		}
		batch := missing[:size]

		recovered, err := o.attempt(ctx, id, text, batch)
		if err != nil {
			return false, err
		}

		missing = o.store.Missing(id, lang.Targets)
		if recovered == len(batch) {
			return true, nil
		}

		// Strict subset (or nothing) came back: halve and retry.
		retries++
		size /= 2
		o.stats.RecordBatchRetry()
		o.logger.Warn("partial batch recovery, halving batch size",
			"id", id, "recovered", recovered, "requested", len(batch), "next_size", size, "retry", retries)
	}
	return false, nil
}

// runSingles requests each language independently with bounded retries and
// backoff. Individual language failures are logged and skipped; the unit is
// reported incomplete only after every language had its chances.
func (o *Orchestrator) runSingles(ctx context.Context, id, text string, languages []string) error {
	for _, code := range languages {
		if err := o.single(ctx, id, text, code); err != nil {
			if errors.Is(err, backend.ErrExhausted) || ctx.Err() != nil {
				o.stats.RecordUnitPartial()
				return err
			}
			o.logger.Error("language failed after retries", "id", id, "language", code, "error", err)
		}
	}

	if remaining := o.store.Missing(id, lang.Targets); len(remaining) > 0 {
		o.stats.RecordUnitPartial()
		return fmt.Errorf("%w: %d languages unrecovered", errSingleIncomplete, len(remaining))
	}
	return nil
}

var errSingleIncomplete = errors.New("single-language mode incomplete")

func (o *Orchestrator) single(ctx context.Context, id, text, code string) error {
	var lastErr error
	for attempt := 1; attempt <= singleRetries; attempt++ {
		if attempt > 1 {
			o.stats.RecordSingleRetry()
			if err := o.sleep(ctx, singleBackoff<<(attempt-2)); err != nil {
				return err
			}
		}

		recovered, err := o.attempt(ctx, id, text, []string{code})
		if err != nil {
			return err
		}
		if recovered > 0 {
			return nil
		}
		lastErr = fmt.Errorf("language %s not recovered on attempt %d", code, attempt)
	}
	return lastErr
}

// attempt issues one invocation for batch and persists whatever comes back.
// It fails over to the alternate backend on an unusable error and returns
// backend.ErrExhausted once none remains. Transient errors count as zero
// languages recovered.
func (o *Orchestrator) attempt(ctx context.Context, id, text string, batch []string) (int, error) {
	for {
		b, err := o.pool.Current()
		if err != nil {
			return 0, err
		}

		raw, err := o.invoker.Invoke(ctx, b, id, text, batch)
		o.stats.RecordCall(b.Name(), err != nil)
		if err != nil {
			if errors.Is(err, backend.ErrUnusable) {
				o.logger.Error("backend unusable, failing over", "backend", b.Name(), "error", err)
				o.pool.Disable(b.Name())
				continue
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			o.logger.Warn("invocation failed", "backend", b.Name(), "id", id, "error", err)
			return 0, nil
		}

		translations := o.parser.Parse(raw)
		if len(translations) == 0 {
			return 0, nil
		}
		if err := o.store.PutPartial(id, translations); err != nil {
			return 0, fmt.Errorf("failed to persist translations: %w", err)
		}

		recovered := 0
		for _, code := range batch {
			if translations[code] != "" {
				recovered++
			}
		}
		o.stats.RecordLanguages(recovered)
		return recovered, nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
