package services

import (
	"context"
	"fmt"

	"github.com/passgen/passgen/internal/models"
	"github.com/passgen/passgen/internal/repository"
)

// ProfileStats combines persisted and not yet flushed counts for one profile.
type ProfileStats struct {
	Profile string
	Stored  int64
	Pending int64
}

// Total is Stored plus Pending.
func (p ProfileStats) Total() int64 {
	return p.Stored + p.Pending
}

// StatsSummary is the usage report returned by the stats endpoint.
type StatsSummary struct {
	Profiles       []ProfileStats
	TotalPasswords int64
}

// PendingStatsProvider exposes counts held in memory before a flush.
type PendingStatsProvider interface {
	Pending() map[string]int64
}

// StatsService defines the usage statistics operations.
type StatsService interface {
	Summary(ctx context.Context) (*StatsSummary, error)
}

// StatsServiceImpl implements StatsService.
type StatsServiceImpl struct {
	repo    repository.StatsRepository
	pending PendingStatsProvider
}

// NewStatsService creates a StatsService. pending may be nil.
func NewStatsService(repo repository.StatsRepository, pending PendingStatsProvider) *StatsServiceImpl {
	return &StatsServiceImpl{repo: repo, pending: pending}
}

// Summary merges stored and pending counts, highest total first.
func (s *StatsServiceImpl) Summary(ctx context.Context) (*StatsSummary, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	merged := make(map[string]*ProfileStats, len(stored))
	order := make([]models.ProfileStat, 0, len(stored))
	for _, st := range stored {
		merged[st.Profile] = &ProfileStats{Profile: st.Profile, Stored: st.Count}
		order = append(order, st)
	}

	if s.pending != nil {
		for profile, n := range s.pending.Pending() {
			ps, ok := merged[profile]
			if !ok {
				ps = &ProfileStats{Profile: profile}
				merged[profile] = ps
				order = append(order, models.ProfileStat{Profile: profile})
			}
			ps.Pending += n
		}
	}

	for i := range order {
		order[i].Count = merged[order[i].Profile].Total()
	}
	models.SortByCount(order)

	summary := &StatsSummary{Profiles: make([]ProfileStats, 0, len(order))}
	for _, st := range order {
		ps := *merged[st.Profile]
		summary.Profiles = append(summary.Profiles, ps)
		summary.TotalPasswords += ps.Total()
	}
	return summary, nil
}

var _ StatsService = (*StatsServiceImpl)(nil)
