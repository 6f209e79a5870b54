package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "languagetranslator [directory]" {
		t.Errorf("Expected Use to be 'languagetranslator [directory]', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "localization translator") {
		t.Errorf("Expected Short description to contain 'localization translator'")
	}

	// Test that flags are set up
	flagTests := []struct {
		name     string
		expected bool
	}{
		{"config", true},
		{"cache-file", true},
		{"stats-file", true},
		{"workers", true},
		{"log-level", true},
		{"log-format", true},
		{"backend", true},
		{"openai-model", true},
		{"gemini-model", true},
		{"max-tokens", true},
		{"rate-limit", true},
		{"rate-window", true},
		{"retranslate", true},
		{"cache-stats", true},
		{"clear-cache", true},
		{"evict", true},
		{"report", true},
	}

	for _, tt := range flagTests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			var flag *pflag.Flag
			if tt.name == "config" {
				flag = cmd.PersistentFlags().Lookup(tt.name)
			} else {
				flag = cmd.Flags().Lookup(tt.name)
			}
			if flag == nil && tt.expected {
				t.Errorf("Expected flag %s to exist", tt.name)
			}
		})
	}
}

func TestSetupFlags(t *testing.T) {
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	// Test default values
	backendFlag := cmd.Flags().Lookup("backend")
	if backendFlag == nil {
		t.Fatal("backend flag not found")
	}
	if backendFlag.DefValue != "openai" {
		t.Errorf("Expected default backend to be openai, got %s", backendFlag.DefValue)
	}

	maxTokensFlag := cmd.Flags().Lookup("max-tokens")
	if maxTokensFlag == nil {
		t.Fatal("max-tokens flag not found")
	}
	if maxTokensFlag.DefValue != "1000" {
		t.Errorf("Expected default max-tokens to be 1000, got %s", maxTokensFlag.DefValue)
	}

	rateFlag := cmd.Flags().Lookup("rate-limit")
	if rateFlag == nil {
		t.Fatal("rate-limit flag not found")
	}
	if rateFlag.DefValue != "10" {
		t.Errorf("Expected default rate-limit to be 10, got %s", rateFlag.DefValue)
	}
}

func TestInitConfig(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()
	InitConfig("")

	// Test environment variable prefix
	os.Setenv("LANGUAGETRANSLATOR_TEST_VAR", "test-value")
	defer os.Unsetenv("LANGUAGETRANSLATOR_TEST_VAR")

	if viper.GetString("test_var") != "test-value" {
		t.Error("Environment variable not properly loaded")
	}
}

func TestGetOpenAIKey(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{
			name:      "from environment",
			envKey:    "env-test-key",
			configKey: "config-test-key",
			expected:  "env-test-key",
		},
		{
			name:      "from config when no env",
			envKey:    "",
			configKey: "config-test-key",
			expected:  "config-test-key",
		},
		{
			name:      "empty when neither set",
			envKey:    "",
			configKey: "",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()

			if tt.envKey != "" {
				os.Setenv("OPENAI_API_KEY", tt.envKey)
				defer os.Unsetenv("OPENAI_API_KEY")
			} else {
				os.Unsetenv("OPENAI_API_KEY")
			}

			if tt.configKey != "" {
				viper.Set("api.openai_key", tt.configKey)
			}

			got := GetOpenAIKey()
			if got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetGeminiKey(t *testing.T) {
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()
	os.Setenv("GEMINI_API_KEY", "env-gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")

	if got := GetGeminiKey(); got != "env-gemini-key" {
		t.Errorf("GetGeminiKey() = %v, want env-gemini-key", got)
	}
}

func TestApplyConfig(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	// Config-file values win over defaults but lose to changed flags.
	viper.Set("translator.backend", "gemini")
	viper.Set("workers", 8)
	cmd.Flags().Set("max-tokens", "2000")

	ApplyConfig(flags)

	if flags.Backend != "gemini" {
		t.Errorf("Expected backend gemini from config, got %s", flags.Backend)
	}
	if flags.Workers != 8 {
		t.Errorf("Expected 8 workers from config, got %d", flags.Workers)
	}
	if flags.MaxTokens != 2000 {
		t.Errorf("Expected max-tokens 2000 from flag, got %d", flags.MaxTokens)
	}
}

func TestBindFlagsToViper(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	cmd.Flags().Set("backend", "gemini")
	cmd.Flags().Set("max-tokens", "2000")
	cmd.Flags().Set("rate-limit", "5")

	bindFlagsToViper(cmd)

	if viper.GetString("translator.backend") != "gemini" {
		t.Errorf("Expected translator.backend to be gemini, got %s", viper.GetString("translator.backend"))
	}

	if viper.GetInt("translator.max_tokens") != 2000 {
		t.Errorf("Expected translator.max_tokens to be 2000, got %d", viper.GetInt("translator.max_tokens"))
	}

	if viper.GetInt("ratelimit.calls") != 5 {
		t.Errorf("Expected ratelimit.calls to be 5, got %d", viper.GetInt("ratelimit.calls"))
	}
}
