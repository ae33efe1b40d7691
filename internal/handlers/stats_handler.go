package handlers

import (
	"net/http"

	"github.com/passgen/passgen/internal/services"
)

// ProfileStatsResponse is one row of the stats report.
type ProfileStatsResponse struct {
	Profile string `json:"profile"`
	Count   int64  `json:"count"`
	Stored  int64  `json:"stored"`
	Pending int64  `json:"pending,omitempty"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Profiles       []ProfileStatsResponse `json:"profiles"`
	TotalPasswords int64                  `json:"total_passwords"`
}

// StatsHandler handles the usage statistics endpoint.
type StatsHandler struct {
	service services.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc services.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := StatsResponse{
		Profiles:       make([]ProfileStatsResponse, 0, len(summary.Profiles)),
		TotalPasswords: summary.TotalPasswords,
	}
	for _, p := range summary.Profiles {
		resp.Profiles = append(resp.Profiles, ProfileStatsResponse{
			Profile: p.Profile,
			Count:   p.Total(),
			Stored:  p.Stored,
			Pending: p.Pending,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
