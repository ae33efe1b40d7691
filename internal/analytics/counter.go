// Package analytics counts how many passwords each generation profile produced.
// Only profile labels and counts are tracked; passwords never reach this package.
package analytics

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Flusher persists accumulated per-profile counts.
type Flusher interface {
	Flush(ctx context.Context, counts map[string]int64) error
}

// Config holds configuration for the GenerationCounter.
type Config struct {
	FlushInterval time.Duration // How often to flush accumulated counts
	BatchSize     int           // Flush once this many passwords are pending
	ChannelBuffer int           // Size of the event buffer
	FlushTimeout  time.Duration // Deadline for a single flush
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FlushInterval: 10 * time.Second,
		BatchSize:     500,
		ChannelBuffer: 10000,
		FlushTimeout:  5 * time.Second,
	}
}

type event struct {
	profile string
	n       int64
}

// GenerationCounter is a non-blocking, batched counter of generated passwords
// keyed by profile label. Counts that fail to flush are kept for the next attempt.
type GenerationCounter struct {
	flusher Flusher
	cfg     Config

	events  chan event
	mu      sync.Mutex
	counts  map[string]int64
	pending int64

	dropped  atomic.Int64
	stopped  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewGenerationCounter starts a counter that flushes to flusher.
func NewGenerationCounter(cfg Config, flusher Flusher) *GenerationCounter {
	def := DefaultConfig()
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = def.ChannelBuffer
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = def.FlushTimeout
	}

	c := &GenerationCounter{
		flusher: flusher,
		cfg:     cfg,
		events:  make(chan event, cfg.ChannelBuffer),
		counts:  make(map[string]int64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go c.run()
	return c
}

// Record adds n generated passwords to profile. It never blocks; events are
// dropped when the buffer is full or the counter is stopped.
func (c *GenerationCounter) Record(profile string, n int) {
	if n <= 0 || c.stopped.Load() {
		return
	}

	select {
	case c.events <- event{profile: profile, n: int64(n)}:
	default:
		c.dropped.Add(1)
	}
}

// Pending returns a snapshot of counts not yet flushed.
func (c *GenerationCounter) Pending() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.counts)
}

// Dropped reports how many events were discarded because the buffer was full.
func (c *GenerationCounter) Dropped() int64 {
	return c.dropped.Load()
}

// Stop drains buffered events, flushes once more and stops the loop.
// It is safe to call more than once.
func (c *GenerationCounter) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.stop)
		<-c.done
	})
}

func (c *GenerationCounter) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.events:
			if c.add(ev) >= int64(c.cfg.BatchSize) {
				c.flush()
			}

		case <-ticker.C:
			c.flush()

		case <-c.stop:
			c.drain()
			c.flush()
			return
		}
	}
}

// add applies ev and returns the pending total.
func (c *GenerationCounter) add(ev event) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[ev.profile] += ev.n
	c.pending += ev.n
	return c.pending
}

func (c *GenerationCounter) drain() {
	for {
		select {
		case ev := <-c.events:
			c.add(ev)
		default:
			return
		}
	}
}

func (c *GenerationCounter) flush() {
	c.mu.Lock()
	if len(c.counts) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.counts
	total := c.pending
	c.counts = make(map[string]int64, len(batch))
	c.pending = 0
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FlushTimeout)
	defer cancel()

	if err := c.flusher.Flush(ctx, batch); err != nil {
		c.mu.Lock()
		for profile, n := range batch {
			c.counts[profile] += n
		}
		c.pending += total
		c.mu.Unlock()
	}
}
