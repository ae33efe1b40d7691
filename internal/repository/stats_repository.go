// Package repository persists per-profile generation statistics.
package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/passgen/passgen/internal/database"
	"github.com/passgen/passgen/internal/models"
)

// StatsRepository stores how many passwords each profile produced.
type StatsRepository interface {
	// BatchIncrement adds counts to the stored totals in one round trip.
	BatchIncrement(ctx context.Context, counts map[string]int64) error

	// List returns all profile totals, highest count first.
	List(ctx context.Context) ([]models.ProfileStat, error)

	// Get returns the totals for one profile. ok is false if it was never recorded.
	Get(ctx context.Context, profile string) (stat models.ProfileStat, ok bool, err error)

	// HealthCheck verifies the repository is reachable.
	HealthCheck(ctx context.Context) error
}

// validateCounts rejects malformed labels and negative counts before any write.
func validateCounts(counts map[string]int64) error {
	for profile, n := range counts {
		if err := models.ValidateProfile(profile); err != nil {
			return fmt.Errorf("%w: %q", err, profile)
		}
		if n < 0 {
			return fmt.Errorf("negative count %d for profile %q", n, profile)
		}
	}
	return nil
}

// PostgresStatsRepository implements StatsRepository on the generation_stats table.
type PostgresStatsRepository struct {
	pool *database.Pool
}

// NewPostgresStatsRepository creates a PostgreSQL-backed stats repository.
func NewPostgresStatsRepository(pool *database.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

const upsertStat = `
	INSERT INTO generation_stats (profile, count)
	VALUES ($1, $2)
	ON CONFLICT (profile)
	DO UPDATE SET count = generation_stats.count + EXCLUDED.count, last_seen = NOW()
`

// BatchIncrement upserts every profile inside one transaction.
func (r *PostgresStatsRepository) BatchIncrement(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	if err := validateCounts(counts); err != nil {
		return err
	}

	// Sorted keys keep lock order stable across concurrent flushes.
	batch := &pgx.Batch{}
	for _, profile := range slices.Sorted(maps.Keys(counts)) {
		batch.Queue(upsertStat, profile, counts[profile])
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to increment generation stats: %w", err)
	}
	return nil
}

// List returns all profile totals, highest count first.
func (r *PostgresStatsRepository) List(ctx context.Context) ([]models.ProfileStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT profile, count, first_seen, last_seen
		FROM generation_stats
		ORDER BY count DESC, profile
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProfileStat])
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation stats: %w", err)
	}
	return stats, nil
}

// Get returns the totals for one profile.
func (r *PostgresStatsRepository) Get(ctx context.Context, profile string) (models.ProfileStat, bool, error) {
	var s models.ProfileStat
	err := r.pool.QueryRow(ctx, `
		SELECT profile, count, first_seen, last_seen
		FROM generation_stats
		WHERE profile = $1
	`, profile).Scan(&s.Profile, &s.Count, &s.FirstSeen, &s.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ProfileStat{}, false, nil
		}
		return models.ProfileStat{}, false, fmt.Errorf("failed to get generation stats: %w", err)
	}
	return s, true, nil
}

// HealthCheck pings the database.
func (r *PostgresStatsRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// MemoryStatsRepository keeps totals in process memory. It is used when no
// database is configured; totals are lost on restart.
type MemoryStatsRepository struct {
	mu    sync.RWMutex
	stats map[string]models.ProfileStat
	now   func() time.Time
}

// NewMemoryStatsRepository creates an empty in-memory repository.
func NewMemoryStatsRepository() *MemoryStatsRepository {
	return &MemoryStatsRepository{
		stats: make(map[string]models.ProfileStat),
		now:   time.Now,
	}
}

// BatchIncrement adds counts to the stored totals.
func (r *MemoryStatsRepository) BatchIncrement(ctx context.Context, counts map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateCounts(counts); err != nil {
		return err
	}

	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	for profile, n := range counts {
		s, ok := r.stats[profile]
		if !ok {
			s = models.ProfileStat{Profile: profile, FirstSeen: now}
		}
		s.Count += n
		s.LastSeen = now
		r.stats[profile] = s
	}
	return nil
}

// List returns all profile totals, highest count first.
func (r *MemoryStatsRepository) List(ctx context.Context) ([]models.ProfileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	stats := slices.Collect(maps.Values(r.stats))
	r.mu.RUnlock()

	models.SortByCount(stats)
	return stats, nil
}

// Get returns the totals for one profile.
func (r *MemoryStatsRepository) Get(ctx context.Context, profile string) (models.ProfileStat, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.ProfileStat{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stats[profile]
	return s, ok, nil
}

// HealthCheck always succeeds.
func (r *MemoryStatsRepository) HealthCheck(ctx context.Context) error {
	return nil
}

var (
	_ StatsRepository = (*PostgresStatsRepository)(nil)
	_ StatsRepository = (*MemoryStatsRepository)(nil)
)
