package analytics

import (
	"context"
	"time"

	"github.com/passgen/passgen/internal/metrics"
	"github.com/passgen/passgen/pkg/logger"
)

// StatsWriter is the persistence side of the stats repository.
type StatsWriter interface {
	BatchIncrement(ctx context.Context, counts map[string]int64) error
}

// RepositoryFlusher implements Flusher using a StatsWriter.
type RepositoryFlusher struct {
	repo StatsWriter
	log  *logger.Logger
}

// NewRepositoryFlusher creates a new RepositoryFlusher. log may be nil.
func NewRepositoryFlusher(repo StatsWriter, log *logger.Logger) *RepositoryFlusher {
	if log == nil {
		log = logger.Nop()
	}
	return &RepositoryFlusher{
		repo: repo,
		log:  log,
	}
}

// Flush persists counts and records how long it took.
func (f *RepositoryFlusher) Flush(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	start := time.Now()
	err := f.repo.BatchIncrement(ctx, counts)
	metrics.RecordStatsFlush(time.Since(start))

	if err != nil {
		f.log.Error("failed to flush generation stats", "error", err.Error(), "profiles", len(counts))
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	f.log.Debug("flushed generation stats", "profiles", len(counts), "passwords", total)

	return nil
}
