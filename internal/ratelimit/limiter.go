package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// window is the sliding call window for a single backend. Timestamps older
// than the interval are purged lazily before every check; the slice never
// holds more than maxCalls entries.
type window struct {
	mu       sync.Mutex
	maxCalls int
	interval time.Duration
	calls    []time.Time
	now      func() time.Time
}

func newWindow(maxCalls int, interval time.Duration, now func() time.Time) *window {
	return &window{
		maxCalls: maxCalls,
		interval: interval,
		calls:    make([]time.Time, 0, maxCalls),
		now:      now,
	}
}

func (w *window) purge(now time.Time) {
	kept := w.calls[:0]
	for _, t := range w.calls {
		if now.Sub(t) < w.interval {
			kept = append(kept, t)
		}
	}
	w.calls = kept
}

// tryReserve reserves a slot if one is free. Otherwise it returns the wait
// until the oldest timestamp exits the window. Check and reservation are a
// single critical section so concurrent callers cannot both claim the last
// slot.
func (w *window) tryReserve() (ok bool, wait time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.purge(now)

	if len(w.calls) < w.maxCalls {
		w.calls = append(w.calls, now)
		return true, 0
	}
	return false, w.calls[0].Add(w.interval).Sub(now)
}

func (w *window) remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(w.now())
	return w.maxCalls - len(w.calls)
}

// Limiter throttles calls to each backend independently.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	logger  *slog.Logger

	maxCalls int
	interval time.Duration
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// New creates a limiter allowing maxCalls per backend within the trailing
// interval.
func New(maxCalls int, interval time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		logger:   logger,
		maxCalls: maxCalls,
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (l *Limiter) window(backend string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[backend]
	if !ok {
		w = newWindow(l.maxCalls, l.interval, l.now)
		l.windows[backend] = w
	}
	return w
}

// Admit blocks until a call slot is available for the backend, then reserves
// it. It returns early with the context error if ctx is cancelled while
// waiting. Bounded wait: the longest possible sleep is the window interval.
func (l *Limiter) Admit(ctx context.Context, backend string) error {
	if backend == "" {
		return fmt.Errorf("ratelimit: backend name must not be empty")
	}

	w := l.window(backend)
	for {
		ok, wait := w.tryReserve()
		if ok {
			return nil
		}
		l.logger.Debug("rate limit reached, waiting",
			slog.String("backend", backend),
			slog.Duration("wait", wait))
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining reports how many call slots are currently free for the backend.
// Diagnostic only; it reserves nothing.
func (l *Limiter) Remaining(backend string) int {
	return l.window(backend).remaining()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
