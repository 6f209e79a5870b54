package stats

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCountersSurviveFlushAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translation_stats.db")

	r, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.RecordHit()
	r.RecordHit()
	r.RecordMiss()
	r.RecordLanguages(13)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	hits, err := reopened.Total(CounterCacheHits)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
	langs, err := reopened.Total(CounterLanguagesDone)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if langs != 13 {
		t.Errorf("languages = %d, want 13", langs)
	}
}

func TestTotalIncludesUnflushedCurrentRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translation_stats.db")

	r, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	r.RecordMiss()
	misses, err := r.Total(CounterCacheMisses)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestReportListsCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translation_stats.db")

	r, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	r.RecordUnitCompleted()
	report, err := r.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !strings.Contains(report, CounterUnitsCompleted) {
		t.Errorf("report missing %s:\n%s", CounterUnitsCompleted, report)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RecordHit()
	r.RecordCall("openai", true)
	if err := r.Flush(); err != nil {
		t.Errorf("Flush on nil: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
	if report, err := r.Report(); err != nil || report != "" {
		t.Errorf("Report on nil = %q, %v", report, err)
	}
}
