package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/XelaNull/7DTD-languageTranslator/internal/backend"
	"github.com/XelaNull/7DTD-languageTranslator/internal/cache"
	"github.com/XelaNull/7DTD-languageTranslator/internal/cli"
	"github.com/XelaNull/7DTD-languageTranslator/internal/estimate"
	"github.com/XelaNull/7DTD-languageTranslator/internal/logging"
	"github.com/XelaNull/7DTD-languageTranslator/internal/parse"
	"github.com/XelaNull/7DTD-languageTranslator/internal/processor"
	"github.com/XelaNull/7DTD-languageTranslator/internal/ratelimit"
	"github.com/XelaNull/7DTD-languageTranslator/internal/stats"
	"github.com/XelaNull/7DTD-languageTranslator/internal/translate"
)

func main() {
	flags := cli.NewFlags()
	rootCmd := cli.CreateRootCommand(flags)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	cli.ApplyConfig(flags)

	logger := logging.New(logging.Config{
		Level:  flags.LogLevel,
		Format: flags.LogFormat,
	}, os.Stderr)

	// Ctrl-C cancels the run; in-flight cache writes still complete, so a
	// later run resumes from whatever was persisted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, file := range []string{flags.CacheFile, flags.StatsFile} {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	recorder, err := stats.Open(flags.StatsFile, logger)
	if err != nil {
		logger.Warn("statistics disabled", "error", err)
		recorder = nil
	}
	defer recorder.Close()

	store, err := cache.Open(flags.CacheFile, logger, recorder)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	// Operator actions run against the cache alone, no backends needed.
	switch {
	case flags.CacheStats:
		counts := store.Stats()
		fmt.Printf("permanent: %d\npending:   %d\n", counts.Permanent, counts.Pending)
		return nil
	case flags.ClearCache:
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	case flags.Evict > 0:
		removed, err := store.EvictSample(flags.Evict)
		if err != nil {
			return fmt.Errorf("failed to evict: %w", err)
		}
		fmt.Printf("evicted %d entries\n", removed)
		return nil
	}

	pool, err := buildBackendPool(ctx, flags)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(flags.RateLimit, flags.RateWindow, logger)
	invoker := backend.NewInvoker(limiter, logger)
	orchestrator := translate.New(pool, invoker, estimate.New(logger),
		parse.New(logger), store, recorder, logger)

	proc := processor.New(orchestrator, flags.Workers, logger)
	proc.Retranslate = flags.Retranslate

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	summary, runErr := proc.Run(ctx, root)
	fmt.Printf("\n%s\n", summary)

	if flags.Report {
		report, err := recorder.Report()
		if err != nil {
			logger.Error("failed to build report", "error", err)
		} else if report != "" {
			fmt.Print(report)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Info("run interrupted, progress saved")
			return nil
		}
		return runErr
	}
	return nil
}

// buildBackendPool creates every backend with a configured API key. At
// least one key must be present.
func buildBackendPool(ctx context.Context, flags *cli.Flags) (*backend.Pool, error) {
	var backends []backend.Backend

	if key := cli.GetOpenAIKey(); key != "" {
		backends = append(backends, backend.NewOpenAI(key, flags.OpenAIModel, flags.MaxTokens))
	}
	if key := cli.GetGeminiKey(); key != "" {
		gemini, err := backend.NewGemini(ctx, key, flags.GeminiModel, flags.MaxTokens)
		if err != nil {
			return nil, err
		}
		backends = append(backends, gemini)
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no API keys configured: set OPENAI_API_KEY or GEMINI_API_KEY")
	}

	return backend.NewPool(flags.Backend, backends...), nil
}
