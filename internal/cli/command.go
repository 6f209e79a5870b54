package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/XelaNull/7DTD-languageTranslator/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "languagetranslator [directory]",
		Short: "7 Days to Die localization translator",
		Long: `languagetranslator recursively locates Localization.txt files and
translates their English text into all supported target languages using
OpenAI or Gemini, writing Localization.translated.txt files next to the
sources.

Translations are cached durably, so interrupted runs resume where they
stopped and repeated texts never hit the API twice.

Examples:
  languagetranslator ./Mods              # Translate all Localization.txt files under ./Mods
  languagetranslator --backend gemini .  # Prefer the Gemini backend
  languagetranslator --cache-stats       # Show cache occupancy and exit`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.languagetranslator.yaml)")

	// Local flags
	cmd.Flags().StringVar(&flags.CacheFile, "cache-file", flags.CacheFile, "Translation cache file")
	cmd.Flags().StringVar(&flags.StatsFile, "stats-file", flags.StatsFile, "Statistics database file")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", flags.Workers, "Number of files translated in parallel")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	// Translation flags
	cmd.Flags().StringVarP(&flags.Backend, "backend", "b", flags.Backend, "Preferred backend: openai or gemini")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", "", "OpenAI model (default gpt-4o-mini)")
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", "", "Gemini model (default gemini-2.0-flash)")
	cmd.Flags().IntVar(&flags.MaxTokens, "max-tokens", flags.MaxTokens, "Maximum tokens per backend request")
	cmd.Flags().IntVar(&flags.RateLimit, "rate-limit", flags.RateLimit, "Maximum calls per backend within the rate window")
	cmd.Flags().DurationVar(&flags.RateWindow, "rate-window", flags.RateWindow, "Rate limit window length")
	cmd.Flags().BoolVar(&flags.Retranslate, "retranslate", false, "Reparse existing translated files and fill only their gaps")

	// Operator flags
	cmd.Flags().BoolVar(&flags.CacheStats, "cache-stats", false, "Print cache occupancy and exit")
	cmd.Flags().BoolVar(&flags.ClearCache, "clear-cache", false, "Wipe the translation cache and exit")
	cmd.Flags().IntVar(&flags.Evict, "evict", 0, "Evict a random sample of N cached translation units and exit")
	cmd.Flags().BoolVar(&flags.Report, "report", false, "Print the statistics report after the run")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("cache.file", cmd.Flags().Lookup("cache-file"))
	viper.BindPFlag("stats.file", cmd.Flags().Lookup("stats-file"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("log.level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log.format", cmd.Flags().Lookup("log-format"))
	viper.BindPFlag("translator.backend", cmd.Flags().Lookup("backend"))
	viper.BindPFlag("translator.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("translator.gemini_model", cmd.Flags().Lookup("gemini-model"))
	viper.BindPFlag("translator.max_tokens", cmd.Flags().Lookup("max-tokens"))
	viper.BindPFlag("ratelimit.calls", cmd.Flags().Lookup("rate-limit"))
	viper.BindPFlag("ratelimit.window", cmd.Flags().Lookup("rate-window"))
}

// ApplyConfig copies the resolved configuration back onto flags. Through
// the viper bindings each value follows flag > environment > config file >
// default precedence.
func ApplyConfig(flags *Flags) {
	flags.CacheFile = viper.GetString("cache.file")
	flags.StatsFile = viper.GetString("stats.file")
	flags.Workers = viper.GetInt("workers")
	flags.LogLevel = viper.GetString("log.level")
	flags.LogFormat = viper.GetString("log.format")
	flags.Backend = viper.GetString("translator.backend")
	flags.OpenAIModel = viper.GetString("translator.openai_model")
	flags.GeminiModel = viper.GetString("translator.gemini_model")
	flags.MaxTokens = viper.GetInt("translator.max_tokens")
	flags.RateLimit = viper.GetInt("ratelimit.calls")
	flags.RateWindow = viper.GetDuration("ratelimit.window")
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".languagetranslator")
	}

	// Environment variables
	viper.SetEnvPrefix("LANGUAGETRANSLATOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("api.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("api.gemini_key")
}
