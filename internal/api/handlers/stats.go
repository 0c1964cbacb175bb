package handlers

import (
	"net/http"

	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/asgard/sentinel/internal/utils"
)

// StatsHandler rolls up counts from across the platform for a single
// operator-facing dashboard read.
type StatsHandler struct {
	missions   *store.MissionRepository
	detections *store.DetectionRepository
	tracks     *tracks.Store
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(missions *store.MissionRepository, detections *store.DetectionRepository, trackStore *tracks.Store) *StatsHandler {
	return &StatsHandler{missions: missions, detections: detections, tracks: trackStore}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	activeMissions, err := h.missions.List("active", 500)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LOAD_STATS", "failed to load mission stats", http.StatusInternalServerError))
		return
	}
	pendingMissions, err := h.missions.List("pending", 500)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LOAD_STATS", "failed to load mission stats", http.StatusInternalServerError))
		return
	}
	recentDetections, err := h.detections.List("", 100)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LOAD_STATS", "failed to load detection stats", http.StatusInternalServerError))
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_missions":   len(activeMissions),
		"pending_missions":  len(pendingMissions),
		"recent_detections": len(recentDetections),
		"tracked_sources":   len(h.tracks.Snapshot()),
	})
}
