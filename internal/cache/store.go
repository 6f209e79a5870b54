package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"

	"github.com/XelaNull/7DTD-languageTranslator/internal/lang"
)

// ErrIncomplete is returned by Promote when the pending record is still
// missing required languages or holds empty values.
var ErrIncomplete = errors.New("pending record incomplete")

// ErrUnknownID is returned for operations on an id the store has never seen.
var ErrUnknownID = errors.New("unknown translation unit id")

// Record is one unit's language-to-text map, including the source slot.
type Record map[string]string

// Recorder receives cache hit/miss events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordHit()
	RecordMiss()
}

// Counts summarizes store occupancy for diagnostics.
type Counts struct {
	Permanent int
	Pending   int
}

type snapshot struct {
	Permanent map[string]Record `json:"permanent"`
	Pending   map[string]Record `json:"pending"`
	TextToID  map[string]string `json:"text_to_id"`
}

// Store holds both cache tiers in memory and mirrors every mutation to disk
// before returning. A single mutex serializes all access; writes go to a
// temp file renamed over the backing file so a crash never leaves a torn
// snapshot behind.
type Store struct {
	mu       sync.Mutex
	path     string
	logger   *slog.Logger
	recorder Recorder

	permanent map[string]Record
	pending   map[string]Record
	textToID  map[string]string
}

// Open loads the store from path, creating parent directories as needed.
// A missing file starts empty; a corrupt file is logged and discarded
// rather than aborting the run.
func Open(path string, logger *slog.Logger, recorder Recorder) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		path:      path,
		logger:    logger,
		recorder:  recorder,
		permanent: make(map[string]Record),
		pending:   make(map[string]Record),
		textToID:  make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("cache file corrupt, starting empty", "path", path, "error", err)
		return s, nil
	}
	if snap.Permanent != nil {
		s.permanent = snap.Permanent
	}
	if snap.Pending != nil {
		s.pending = snap.Pending
	}
	if snap.TextToID != nil {
		s.textToID = snap.TextToID
	}
	logger.Debug("cache loaded",
		"permanent", len(s.permanent), "pending", len(s.pending))
	return s, nil
}

// ObtainID returns the id bound to text, allocating one on first sight.
// A new allocation seeds a pending record holding the source text and is
// persisted before returning.
func (s *Store) ObtainID(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.textToID[text]; ok {
		return id, nil
	}

	id := s.newIDLocked()
	s.textToID[text] = id
	s.pending[id] = Record{lang.SourceKey: text}
	if err := s.persistLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// newIDLocked allocates an unused 10-digit numeric id.
func (s *Store) newIDLocked() string {
	for {
		id := fmt.Sprintf("%010d", rand.Int64N(1e10))
		_, inPerm := s.permanent[id]
		_, inPending := s.pending[id]
		if !inPerm && !inPending {
			return id
		}
	}
}

// Get looks up a permanent record. Hits and misses are reported to the
// recorder when one is configured.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.permanent[id]
	if s.recorder != nil {
		if ok {
			s.recorder.RecordHit()
		} else {
			s.recorder.RecordMiss()
		}
	}
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Partial returns a copy of the pending record for id.
func (s *Store) Partial(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[id]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Missing returns the required languages not yet present with a non-empty
// value in the pending record for id. An unknown id owes every language.
func (s *Store) Missing(id string, required []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.pending[id]
	var missing []string
	for _, code := range required {
		if rec[code] == "" {
			missing = append(missing, code)
		}
	}
	return missing
}

// PutPartial merges translations into the pending record for id. Entries
// are additive: an existing non-empty value is only ever replaced by another
// non-empty value. The merge is persisted before returning.
func (s *Store) PutPartial(id string, translations map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[id]
	if !ok {
		if _, done := s.permanent[id]; done {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	changed := false
	for code, text := range translations {
		if text == "" {
			continue
		}
		if rec[code] == text {
			continue
		}
		rec[code] = text
		changed = true
	}
	if !changed {
		return nil
	}
	return s.persistLocked()
}

// Promote moves the pending record for id to the permanent tier if and only
// if every required language plus the source slot is present and non-empty.
// Both tier changes land in one snapshot write, so the record is never on
// disk in both tiers or neither.
func (s *Store) Promote(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.permanent[id]; ok {
		return cloneRecord(rec), nil
	}

	rec, ok := s.pending[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	for _, code := range lang.Required() {
		if rec[code] == "" {
			return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, code)
		}
	}

	s.permanent[id] = rec
	delete(s.pending, id)
	if err := s.persistLocked(); err != nil {
		// Roll back so memory and disk stay consistent.
		s.pending[id] = rec
		delete(s.permanent, id)
		return nil, err
	}
	s.logger.Debug("promoted translation unit", "id", id)
	return cloneRecord(rec), nil
}

// Evict removes id from both tiers and drops its text binding.
func (s *Store) Evict(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, inPerm := s.permanent[id]
	_, inPending := s.pending[id]
	if !inPerm && !inPending {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	delete(s.permanent, id)
	delete(s.pending, id)
	for text, bound := range s.textToID {
		if bound == id {
			delete(s.textToID, text)
		}
	}
	return s.persistLocked()
}

// EvictSample removes up to n randomly chosen permanent entries along with
// their pending records and text bindings. Returns how many were removed.
func (s *Store) EvictSample(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.permanent {
		if removed >= n {
			break
		}
		delete(s.permanent, id)
		delete(s.pending, id)
		for text, bound := range s.textToID {
			if bound == id {
				delete(s.textToID, text)
			}
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.persistLocked(); err != nil {
		return removed, err
	}
	s.logger.Info("evicted cache sample", "count", removed)
	return removed, nil
}

// Clear wipes both tiers and all text bindings.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.permanent = make(map[string]Record)
	s.pending = make(map[string]Record)
	s.textToID = make(map[string]string)
	return s.persistLocked()
}

// Stats reports tier occupancy without side effects.
func (s *Store) Stats() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{Permanent: len(s.permanent), Pending: len(s.pending)}
}

// persistLocked rewrites the backing file from the in-memory state. Callers
// must hold s.mu.
func (s *Store) persistLocked() error {
	snap := snapshot{
		Permanent: s.permanent,
		Pending:   s.pending,
		TextToID:  s.textToID,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
