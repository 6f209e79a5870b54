package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeClock lets tests advance time manually instead of sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(maxCalls int, interval time.Duration) (*Limiter, *fakeClock, *[]time.Duration) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	var slept []time.Duration

	l := New(maxCalls, interval, discardLogger())
	l.now = clock.Now
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock.Advance(d)
		return nil
	}
	return l, clock, &slept
}

func TestAdmitWithinCap(t *testing.T) {
	l, _, slept := newTestLimiter(3, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Admit(ctx, "openai"); err != nil {
			t.Fatalf("Admit %d failed: %v", i, err)
		}
	}

	if len(*slept) != 0 {
		t.Errorf("expected no waiting for first 3 admissions, slept %v", *slept)
	}
	if got := l.Remaining("openai"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestFourthAdmissionWaitsForOldestSlot(t *testing.T) {
	l, clock, slept := newTestLimiter(3, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Admit(ctx, "openai"); err != nil {
			t.Fatalf("Admit failed: %v", err)
		}
		clock.Advance(time.Second)
	}

	// All 3 slots taken; oldest timestamp is 3s old, so the 4th admission
	// must wait the remaining 7s.
	if err := l.Admit(ctx, "openai"); err != nil {
		t.Fatalf("4th Admit failed: %v", err)
	}

	if len(*slept) != 1 {
		t.Fatalf("expected exactly one wait, got %v", *slept)
	}
	if (*slept)[0] != 7*time.Second {
		t.Errorf("waited %v, want 7s", (*slept)[0])
	}
}

func TestWindowsArePerBackend(t *testing.T) {
	l, _, slept := newTestLimiter(1, 10*time.Second)
	ctx := context.Background()

	if err := l.Admit(ctx, "openai"); err != nil {
		t.Fatalf("Admit openai: %v", err)
	}
	if err := l.Admit(ctx, "gemini"); err != nil {
		t.Fatalf("Admit gemini: %v", err)
	}

	if len(*slept) != 0 {
		t.Errorf("backends share a window: slept %v", *slept)
	}
}

func TestExpiredTimestampsArePurged(t *testing.T) {
	l, clock, _ := newTestLimiter(2, 10*time.Second)
	ctx := context.Background()

	if err := l.Admit(ctx, "openai"); err != nil {
		t.Fatal(err)
	}
	if err := l.Admit(ctx, "openai"); err != nil {
		t.Fatal(err)
	}
	if got := l.Remaining("openai"); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}

	clock.Advance(11 * time.Second)

	if got := l.Remaining("openai"); got != 2 {
		t.Errorf("Remaining after window elapsed = %d, want 2", got)
	}
}

func TestAdmitHonorsCancellation(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	l := New(1, 10*time.Second, discardLogger())
	l.now = clock.Now
	l.sleep = sleepCtx

	if err := l.Admit(context.Background(), "openai"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Admit(ctx, "openai"); err == nil {
		t.Error("Admit should fail when context is already cancelled")
	}
}

func TestRemainingHasNoSideEffects(t *testing.T) {
	l, _, _ := newTestLimiter(3, 10*time.Second)

	for i := 0; i < 5; i++ {
		if got := l.Remaining("openai"); got != 3 {
			t.Fatalf("Remaining = %d, want 3", got)
		}
	}
}

func TestConcurrentAdmitNeverExceedsCap(t *testing.T) {
	l := New(5, time.Minute, discardLogger())
	// Deterministic sleep that yields immediately; real clock.
	l.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	admitted := make(chan struct{}, 100)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Admit(ctx, "openai"); err == nil {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for range admitted {
		count++
	}
	if count > 5 {
		t.Errorf("%d admissions within one window, cap is 5", count)
	}
}
