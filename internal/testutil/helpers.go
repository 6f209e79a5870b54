package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XelaNull/7DTD-languageTranslator/internal/locfile"
)

// WriteLocalization writes a Localization.txt with the standard header and
// the given raw rows into dir, creating it as needed. Returns the file path.
func WriteLocalization(t *testing.T, dir string, rows ...string) string {
	t.Helper()

	content := strings.Join(locfile.Header, ",") + "\n" + strings.Join(rows, "\n") + "\n"
	path := filepath.Join(dir, "Localization.txt")
	WriteFile(t, path, []byte(content))
	return path
}

// WriteFile creates a test file with content, creating parent directories.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}
