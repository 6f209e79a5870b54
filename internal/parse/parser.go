// Package parse recovers per-language translations from raw backend
// responses. Payloads arrive as JSON wrapped in markdown fences, truncated
// mid-value, or structurally damaged; the parser salvages whatever subset of
// languages it can rather than failing the whole batch.
package parse

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
)

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
	bareJSON   = regexp.MustCompile(`^json\s*`)

	// One complete "key": "value" pair, escapes intact.
	pairPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)+)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Parser converts raw backend payloads into language-to-translation maps.
// Parse never fails: unrecoverable input yields an empty map and a log line.
type Parser struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts the best-effort set of translations from raw. The result
// only ever contains canonical target language codes; a detected refusal
// response discards the entire payload.
func (p *Parser) Parse(raw string) map[string]string {
	cleaned := cleanPayload(raw)
	if cleaned == "" {
		p.logger.Warn("empty payload after cleaning")
		return map[string]string{}
	}

	m, ok := decode(cleaned)
	if !ok {
		m, ok = decode(p.repair(cleaned))
		if !ok {
			p.logger.Error("payload unrecoverable", "payload", truncateForLog(cleaned))
			return map[string]string{}
		}
		p.logger.Debug("recovered translations from damaged payload", "languages", len(m))
	}

	if p.refused(m) {
		p.logger.Error("refusal response detected, discarding payload")
		return map[string]string{}
	}

	return finalize(m)
}

// cleanPayload strips markdown fences and anything outside the outermost
// JSON object boundaries.
func cleanPayload(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = bareJSON.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndex(s, "}"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return s
}

// decode parses s and unwraps the single-key id envelope when present.
// A flat language map is accepted as-is; any other shape is rejected.
func decode(s string) (map[string]string, bool) {
	if s == "" {
		return nil, false
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &outer); err != nil {
		return nil, false
	}

	if len(outer) == 1 {
		for _, v := range outer {
			var inner map[string]string
			if err := json.Unmarshal(v, &inner); err == nil {
				return inner, true
			}
		}
	}

	flat := make(map[string]string, len(outer))
	for k, v := range outer {
		var value string
		if err := json.Unmarshal(v, &value); err != nil {
			return nil, false
		}
		flat[k] = value
	}
	return flat, true
}

// repair rebuilds a decodable object from the complete key/value pairs in a
// damaged payload. The final harvested pair is always discarded: a value cut
// off mid-text can still end in a quote and look complete, and a truncated
// translation must never be cached. Brace balancing, comma placement and
// stray-escape normalization follow from the rebuild itself.
func (p *Parser) repair(s string) string {
	pairs := pairPattern.FindAllStringSubmatch(s, -1)
	if len(pairs) < 2 {
		return ""
	}
	pairs = pairs[:len(pairs)-1]

	var sb strings.Builder
	sb.WriteString("{")
	for i, pair := range pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(`"`)
		sb.WriteString(pair[1])
		sb.WriteString(`": "`)
		sb.WriteString(escapeStrayBackslashes(pair[2]))
		sb.WriteString(`"`)
	}
	sb.WriteString("}")

	p.logger.Debug("salvaged complete pairs from damaged payload", "kept", len(pairs))
	return sb.String()
}

// escapeStrayBackslashes doubles backslashes that do not begin a valid JSON
// escape sequence, so backend-emitted paths and stray slashes survive decode.
func escapeStrayBackslashes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(s) && strings.IndexByte(`"\/bfnrtu`, s[i+1]) >= 0 {
			sb.WriteByte(c)
			sb.WriteByte(s[i+1])
			i++
			continue
		}
		sb.WriteString(`\\`)
	}
	return sb.String()
}

// refused reports whether any value contains its language's known refusal
// phrase. One refusal taints the whole payload.
func (p *Parser) refused(m map[string]string) bool {
	for code, value := range m {
		phrase, ok := lang.RefusalPhrases[lang.Canonical(code)]
		if ok && strings.Contains(value, phrase) {
			p.logger.Error("refusal phrase in translation", "language", code)
			return true
		}
	}
	return false
}

// finalize remaps alias keys to canonical codes, drops keys that are not
// target languages, and trims trailing newlines. Interior escaped-newline
// sequences are data and pass through untouched.
func finalize(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for code, value := range m {
		canonical := lang.Canonical(code)
		if !lang.IsTarget(canonical) {
			continue
		}
		if _, exists := out[canonical]; exists && code != canonical {
			continue
		}
		out[canonical] = strings.TrimRight(value, "\n")
	}
	return out
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
