package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/XelaNull/7DTD-languageTranslator/internal/backend"
	"github.com/XelaNull/7DTD-languageTranslator/internal/cache"
	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
	"github.com/XelaNull/7DTD-languageTranslator/internal/locfile"
)

// Translator produces the full translation record for one source text.
type Translator interface {
	Translate(ctx context.Context, text string) (cache.Record, error)
}

// Summary reports what one run accomplished.
type Summary struct {
	Files      int
	Entries    int
	Translated int
	Skipped    int
	Incomplete int
	Errors     int
}

// Processor coordinates file discovery, translation and output writing.
type Processor struct {
	translator Translator
	logger     *slog.Logger
	workers    int

	// Retranslate reparses existing .translated.txt outputs so previous
	// partial results are kept and only their gaps are retried.
	Retranslate bool

	mu      sync.Mutex
	summary Summary
}

// New creates a processor with the given worker count; values below one run
// sequentially.
func New(translator Translator, workers int, logger *slog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		translator: translator,
		logger:     logger,
		workers:    workers,
	}
}

// Run locates every Localization.txt under root and processes them
// concurrently. Processing stops early when the context is cancelled or
// every translation backend becomes unusable; files already handled keep
// their outputs either way.
func (p *Processor) Run(ctx context.Context, root string) (Summary, error) {
	files, err := locfile.Locate(root)
	if err != nil {
		return Summary{}, err
	}
	p.logger.Info("located localization files", "count", len(files), "root", root)

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan string)
	var wg sync.WaitGroup
	var runErr error
	var errOnce sync.Once

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				err := p.processFile(ctx, path)
				if err == nil {
					continue
				}
				p.count(func(s *Summary) { s.Errors++ })
				if errors.Is(err, backend.ErrExhausted) || errors.Is(err, context.Canceled) {
					errOnce.Do(func() {
						runErr = err
						cancel()
					})
					return
				}
				p.logger.Error("file processing failed", "path", path, "error", err)
			}
		}()
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
		case work <- path:
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(work)
	wg.Wait()

	if runErr == nil && parent.Err() != nil {
		runErr = parent.Err()
	}

	p.mu.Lock()
	summary := p.summary
	p.mu.Unlock()
	summary.Files = len(files)
	return summary, runErr
}

// processFile translates one Localization.txt and writes the translated
// copy. Entries flagged NoTranslate or already complete pass through as-is.
func (p *Processor) processFile(ctx context.Context, path string) error {
	source := path
	output := locfile.OutputPath(path)
	if p.Retranslate {
		if _, err := os.Stat(output); err == nil {
			source = output
		}
	}

	entries, err := locfile.Parse(source)
	if err != nil {
		return err
	}
	p.logger.Info("processing file", "path", path, "entries", len(entries))

	for i := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e := &entries[i]
		p.count(func(s *Summary) { s.Entries++ })

		if e.SkipTranslation() || e.Complete() || e.English == "" {
			p.count(func(s *Summary) { s.Skipped++ })
			continue
		}

		rec, err := p.translator.Translate(ctx, e.English)
		mergeRecord(e, rec)

		if e.Complete() {
			p.count(func(s *Summary) { s.Translated++ })
		} else {
			p.count(func(s *Summary) { s.Incomplete++ })
			if err != nil {
				p.logger.Error("entry left incomplete", "key", e.Key, "error", err)
			}
		}

		if errors.Is(err, backend.ErrExhausted) || ctx.Err() != nil {
			// Write what we have before surfacing the stop condition.
			if werr := locfile.Write(output, entries); werr != nil {
				p.logger.Error("failed to write partial output", "path", output, "error", werr)
			}
			if errors.Is(err, backend.ErrExhausted) {
				return err
			}
			return ctx.Err()
		}
	}

	if err := locfile.Write(output, entries); err != nil {
		return err
	}
	p.logger.Info("wrote translated file", "path", output)
	return nil
}

// mergeRecord fills empty language slots from the translation record,
// never overwriting values the file already carried.
func mergeRecord(e *locfile.Entry, rec cache.Record) {
	for _, code := range lang.Targets {
		if e.Translations[code] == "" && rec[code] != "" {
			e.Translations[code] = rec[code]
		}
	}
}

func (p *Processor) count(update func(*Summary)) {
	p.mu.Lock()
	update(&p.summary)
	p.mu.Unlock()
}

// String renders a one-line run summary for operators.
func (s Summary) String() string {
	return fmt.Sprintf("files=%d entries=%d translated=%d skipped=%d incomplete=%d errors=%d",
		s.Files, s.Entries, s.Translated, s.Skipped, s.Incomplete, s.Errors)
}
