package cli

import (
	"os"
	"path/filepath"
	"time"
)

// Flags holds all command-line flag values.
type Flags struct {
	// General flags
	CfgFile   string
	CacheFile string
	StatsFile string
	Workers   int
	LogLevel  string
	LogFormat string

	// Translation flags
	Backend     string
	OpenAIModel string
	GeminiModel string
	MaxTokens   int
	RateLimit   int
	RateWindow  time.Duration
	Retranslate bool

	// Operator flags
	CacheStats bool
	ClearCache bool
	Evict      int
	Report     bool
}

// NewFlags creates a new Flags instance with default values.
func NewFlags() *Flags {
	return &Flags{
		CacheFile:  filepath.Join(stateDir(), "translation_cache.json"),
		StatsFile:  filepath.Join(stateDir(), "translation_stats.db"),
		Workers:    4,
		LogLevel:   "info",
		LogFormat:  "text",
		Backend:    "openai",
		MaxTokens:  1000,
		RateLimit:  10,
		RateWindow: 10 * time.Second,
	}
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "languagetranslator")
}
