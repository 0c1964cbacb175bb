package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/asgard/sentinel/internal/api/validation"
	"github.com/asgard/sentinel/internal/dispatch"
	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/utils"
	"github.com/go-chi/chi/v5"
)

// MissionHandler handles mission creation, listing, and updates.
type MissionHandler struct {
	coordinator *dispatch.Coordinator
	missions    *store.MissionRepository
}

// NewMissionHandler creates a new mission handler.
func NewMissionHandler(coordinator *dispatch.Coordinator, missions *store.MissionRepository) *MissionHandler {
	return &MissionHandler{coordinator: coordinator, missions: missions}
}

type missionLocation struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
}

type missionRequest struct {
	MissionID   string          `json:"mission_id"`
	Type        string          `json:"type"`
	Priority    string          `json:"priority"`
	Description string          `json:"description"`
	Location    missionLocation `json:"location"`
	Waypoints   json.RawMessage `json:"waypoints"`
	Assets      []string        `json:"assets"`
}

// Create handles POST /api/v1/missions.
func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	if err := validation.ValidateLatLon(req.Location.Lat, req.Location.Lon); err != nil {
		handleError(w, err)
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	missionType := req.Type
	if missionType == "" {
		missionType = "surveillance"
	}
	radius := req.Location.Radius
	if radius == 0 {
		radius = 200
	}

	mission := &db.Mission{
		MissionID: req.MissionID,
		Type:      missionType,
		Priority:  priority,
		Lat:       req.Location.Lat,
		Lon:       req.Location.Lon,
		Radius:    radius,
		Waypoints: req.Waypoints,
		Assets:    req.Assets,
	}
	if req.Description != "" {
		mission.Description.String = req.Description
		mission.Description.Valid = true
	}

	if err := h.coordinator.CreateMission(mission); err != nil {
		handleError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, missionResponse(mission))
}

// List handles GET /api/v1/missions.
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := parsePaginationParams(r)
	status := r.URL.Query().Get("status")

	missions, err := h.missions.List(status, limit)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LIST_MISSIONS", "failed to list missions", http.StatusInternalServerError))
		return
	}

	out := make([]interface{}, 0, len(missions))
	for _, m := range missions {
		out = append(out, missionResponse(m))
	}
	jsonResponse(w, http.StatusOK, out)
}

type missionUpdateRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

// Update handles PATCH /api/v1/missions/{mission_id}.
func (h *MissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "mission_id")

	var req missionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	mission, err := h.coordinator.UpdateMission(missionID, req.Status, req.Progress)
	if err != nil {
		handleError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, missionResponse(mission))
}

func missionResponse(m *db.Mission) map[string]interface{} {
	resp := map[string]interface{}{
		"id":       m.MissionID,
		"type":     m.Type,
		"status":   m.Status,
		"priority": m.Priority,
		"location": missionLocation{Lat: m.Lat, Lon: m.Lon, Radius: m.Radius},
		"progress": m.Progress,
		"assets":   m.Assets,
	}
	if m.Description.Valid {
		resp["description"] = m.Description.String
	}
	if !m.CreatedAt.IsZero() {
		resp["created_at"] = m.CreatedAt
	}
	return resp
}
