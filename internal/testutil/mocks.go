package testutil

import (
	"context"
	"sync"

	"github.com/XelaNull/7DTD-languageTranslator/internal/cache"
	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
)

// StubTranslator mocks the translation engine with canned per-language
// values. Every target receives "t-<language>" unless Err is set.
type StubTranslator struct {
	Err error

	mu    sync.Mutex
	texts []string
}

// Translate records the source text and returns a fully populated record,
// or a source-only record alongside Err when a failure is scripted.
func (s *StubTranslator) Translate(ctx context.Context, text string) (cache.Record, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()

	if s.Err != nil {
		return cache.Record{lang.SourceKey: text}, s.Err
	}
	rec := cache.Record{lang.SourceKey: text}
	for _, code := range lang.Targets {
		rec[code] = "t-" + code
	}
	return rec, nil
}

// CallCount reports how many times Translate was invoked.
func (s *StubTranslator) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

// Texts returns a copy of every source text seen so far.
func (s *StubTranslator) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}
