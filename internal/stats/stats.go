// Package stats records per-run translation statistics in a small SQLite
// database: cache effectiveness, backend call volume and failure counts.
package stats

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Counter names written to the counters table.
const (
	CounterCacheHits      = "cache_hits"
	CounterCacheMisses    = "cache_misses"
	CounterBatchRetries   = "batch_retries"
	CounterSingleRetries  = "single_retries"
	CounterLanguagesDone  = "languages_translated"
	CounterUnitsCompleted = "units_completed"
	CounterUnitsPartial   = "units_partial"
)

// Recorder accumulates counters in memory and flushes them to the database.
// All methods are safe on a nil receiver so callers can run without stats.
type Recorder struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
	runID  string
	counts map[string]int64
}

// Open creates or opens the stats database at path and registers a new run.
func Open(path string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	runID := uuid.New().String()
	_, err = db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	return &Recorder{
		db:     db,
		logger: logger,
		runID:  runID,
		counts: make(map[string]int64),
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id text PRIMARY KEY,
			started_at text NOT NULL,
			finished_at text
		)`,
		`CREATE TABLE IF NOT EXISTS counters (
			run_id text NOT NULL,
			name text NOT NULL,
			value integer NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS backend_calls (
			run_id text NOT NULL,
			backend text NOT NULL,
			calls integer NOT NULL,
			failures integer NOT NULL,
			PRIMARY KEY (run_id, backend)
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("failed to create stats tables: %w", err)
		}
	}
	return nil
}

// RecordHit counts a permanent-tier cache hit.
func (r *Recorder) RecordHit() { r.add(CounterCacheHits, 1) }

// RecordMiss counts a permanent-tier cache miss.
func (r *Recorder) RecordMiss() { r.add(CounterCacheMisses, 1) }

// RecordLanguages counts successfully translated languages.
func (r *Recorder) RecordLanguages(n int) { r.add(CounterLanguagesDone, int64(n)) }

// RecordBatchRetry counts one halved-batch retry.
func (r *Recorder) RecordBatchRetry() { r.add(CounterBatchRetries, 1) }

// RecordSingleRetry counts one single-language retry.
func (r *Recorder) RecordSingleRetry() { r.add(CounterSingleRetries, 1) }

// RecordUnitCompleted counts a unit promoted to the permanent tier.
func (r *Recorder) RecordUnitCompleted() { r.add(CounterUnitsCompleted, 1) }

// RecordUnitPartial counts a unit left incomplete after exhaustion.
func (r *Recorder) RecordUnitPartial() { r.add(CounterUnitsPartial, 1) }

// RecordCall counts one backend invocation and whether it failed.
func (r *Recorder) RecordCall(backend string, failed bool) {
	if r == nil {
		return
	}
	r.add("calls_"+backend, 1)
	if failed {
		r.add("failures_"+backend, 1)
	}
}

func (r *Recorder) add(name string, delta int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += delta
}

// Flush writes the accumulated counters for this run to the database.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, value := range r.counts {
		_, err := r.db.Exec(`INSERT INTO counters (run_id, name, value) VALUES (?, ?, ?)
			ON CONFLICT (run_id, name) DO UPDATE SET value = excluded.value`,
			r.runID, name, value)
		if err != nil {
			return fmt.Errorf("failed to flush counter %s: %w", name, err)
		}
	}
	return nil
}

// Close flushes counters, stamps the run as finished and closes the database.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if err := r.Flush(); err != nil {
		r.logger.Error("failed to flush stats", "error", err)
	}
	_, err := r.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), r.runID)
	if err != nil {
		r.logger.Error("failed to finish run", "error", err)
	}
	return r.db.Close()
}

// Total returns the all-runs sum for one counter, including unflushed
// increments from the current run.
func (r *Recorder) Total(name string) (int64, error) {
	if r == nil {
		return 0, nil
	}

	var flushed sql.NullInt64
	err := r.db.QueryRow(`SELECT SUM(value) FROM counters WHERE name = ? AND run_id != ?`,
		name, r.runID).Scan(&flushed)
	if err != nil {
		return 0, fmt.Errorf("failed to query counter %s: %w", name, err)
	}

	r.mu.Lock()
	current := r.counts[name]
	r.mu.Unlock()
	return flushed.Int64 + current, nil
}

// Report renders a human-readable summary of this run and all-time totals.
func (r *Recorder) Report() (string, error) {
	if r == nil {
		return "", nil
	}

	names := []string{
		CounterCacheHits, CounterCacheMisses,
		CounterUnitsCompleted, CounterUnitsPartial,
		CounterLanguagesDone,
		CounterBatchRetries, CounterSingleRetries,
	}

	out := fmt.Sprintf("Run %s\n", r.runID)
	r.mu.Lock()
	for _, name := range names {
		out += fmt.Sprintf("  %-22s %d\n", name, r.counts[name])
	}
	r.mu.Unlock()

	out += "All runs\n"
	for _, name := range names {
		total, err := r.Total(name)
		if err != nil {
			return "", err
		}
		out += fmt.Sprintf("  %-22s %d\n", name, total)
	}
	return out, nil
}
