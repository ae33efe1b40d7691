package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a single-process sliding window limiter.
type MemoryLimiter struct {
	config  Config
	now     func() time.Time
	entries sync.Map // identifier -> *window

	done chan struct{}
	wg   sync.WaitGroup
}

// window holds the request times of one identifier, oldest first.
type window struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before start and returns what is left.
func (w *window) prune(start time.Time) int {
	i := 0
	for i < len(w.times) && !w.times[i].After(start) {
		i++
	}
	w.times = w.times[i:]
	return len(w.times)
}

// NewMemoryLimiter creates a limiter and starts its janitor goroutine.
// Close must be called to stop it.
func NewMemoryLimiter(cfg Config) (*MemoryLimiter, error) {
	return newMemoryLimiter(cfg, time.Now)
}

func newMemoryLimiter(cfg Config, now func() time.Time) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &MemoryLimiter{
		config: cfg,
		now:    now,
		done:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.janitor()

	return m, nil
}

// Allow records a request for identifier if it fits in the window.
func (m *MemoryLimiter) Allow(ctx context.Context, identifier string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.now()
	v, _ := m.entries.LoadOrStore(identifier, &window{})
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	count := w.prune(now.Add(-m.config.Window))

	var resetAfter time.Duration
	if count > 0 {
		resetAfter = max(w.times[0].Add(m.config.Window).Sub(now), 0)
	}

	if count >= m.config.Requests {
		return blocked(m.config.Requests, resetAfter), nil
	}

	w.times = append(w.times, now)
	if count == 0 {
		resetAfter = m.config.Window
	}

	return allowed(m.config.Requests, count+1, resetAfter), nil
}

// Reset clears the state for an identifier.
func (m *MemoryLimiter) Reset(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Delete(identifier)
	return nil
}

// Close stops the janitor goroutine.
func (m *MemoryLimiter) Close() error {
	close(m.done)
	m.wg.Wait()
	return nil
}

func (m *MemoryLimiter) janitor() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes identifiers with no requests left in the window.
func (m *MemoryLimiter) sweep() {
	start := m.now().Add(-m.config.Window)

	m.entries.Range(func(key, value any) bool {
		w := value.(*window)
		w.mu.Lock()
		empty := w.prune(start) == 0
		w.mu.Unlock()

		if empty {
			m.entries.CompareAndDelete(key, w)
		}
		return true
	})
}

// size reports how many identifiers are tracked.
func (m *MemoryLimiter) size() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
