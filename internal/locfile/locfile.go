// Package locfile reads and writes 7 Days to Die Localization.txt files:
// CSV with a fixed 20-column header, double-quoted text columns, and
// linefeeds stored as literal \n sequences.
package locfile

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
)

// Header is the exact column order of a Localization.txt file.
var Header = []string{
	"Key", "File", "Type", "UsedInMainMenu", "NoTranslate",
	"english", "Context / Alternate Text",
	"german", "latam", "french", "italian", "japanese", "koreana", "polish",
	"brazilian", "russian", "turkish", "schinese", "tchinese", "spanish",
}

// quotedColumns are wrapped in double quotes when non-empty.
var quotedColumns = map[string]bool{
	"english":                  true,
	"Context / Alternate Text": true,
	"german":                   true,
	"latam":                    true,
	"french":                   true,
	"italian":                  true,
	"japanese":                 true,
	"koreana":                  true,
	"polish":                   true,
	"brazilian":                true,
	"russian":                  true,
	"turkish":                  true,
	"schinese":                 true,
	"tchinese":                 true,
	"spanish":                  true,
}

// Entry is one Localization.txt row.
type Entry struct {
	Key            string
	File           string
	Type           string
	UsedInMainMenu string
	NoTranslate    string
	English        string
	Context        string
	Translations   map[string]string
}

// SkipTranslation reports whether the row is flagged to pass through
// untranslated.
func (e Entry) SkipTranslation() bool {
	return strings.EqualFold(strings.TrimSpace(e.NoTranslate), "true")
}

// Complete reports whether every target language already has a value.
func (e Entry) Complete() bool {
	for _, code := range lang.Targets {
		if e.Translations[code] == "" {
			return false
		}
	}
	return true
}

// Locate walks root and returns every Localization.txt file found,
// case-insensitively, excluding already-translated outputs.
func Locate(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), "Localization.txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// OutputPath derives the translated-file path for a source file.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".translated.txt"
}

// Parse reads a Localization.txt file into entries. Rows shorter than the
// english column are skipped; translation columns beyond it are optional.
func Parse(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := rows[0]
	var entries []Entry
	for _, row := range rows[1:] {
		if len(row) < 6 {
			continue
		}
		e := Entry{
			Key:            row[0],
			File:           row[1],
			Type:           row[2],
			UsedInMainMenu: row[3],
			NoTranslate:    row[4],
			English:        row[5],
			Translations:   make(map[string]string),
		}
		if len(row) > 6 {
			e.Context = row[6]
		}
		for i := 7; i < len(row) && i < len(header); i++ {
			code := header[i]
			if lang.IsTarget(code) && row[i] != "" {
				e.Translations[code] = row[i]
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Write renders entries to path in Localization.txt format. Text columns
// are quoted with doubled interior quotes, and any real linefeeds in values
// are stored as literal \n sequences.
func Write(path string, entries []Entry) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(Header, ","))
	sb.WriteString("\n")

	for _, e := range entries {
		row := []string{
			e.Key, e.File, e.Type, e.UsedInMainMenu, e.NoTranslate,
			e.English, e.Context,
		}
		for _, code := range lang.Targets {
			row = append(row, e.Translations[code])
		}
		for i, value := range row {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(formatValue(Header[i], value))
		}
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatValue(column, value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", `\n`)
	if quotedColumns[column] {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}
