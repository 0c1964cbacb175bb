package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/asgard/sentinel/internal/api/validation"
	"github.com/asgard/sentinel/internal/dispatch"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/asgard/sentinel/internal/utils"
)

// DetectionHandler handles the detection hot path and track lookups.
type DetectionHandler struct {
	coordinator *dispatch.Coordinator
	detections  *store.DetectionRepository
	tracks      *tracks.Store
}

// NewDetectionHandler creates a new detection handler.
func NewDetectionHandler(coordinator *dispatch.Coordinator, detections *store.DetectionRepository, trackStore *tracks.Store) *DetectionHandler {
	return &DetectionHandler{coordinator: coordinator, detections: detections, tracks: trackStore}
}

type detectionRequest struct {
	SourceID   string   `json:"source_id"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Bearing    *float64 `json:"bearing"`
}

// Create handles POST /api/v1/detections.
func (h *DetectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req detectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	if err := validation.ValidateConfidence(req.Confidence); err != nil {
		handleError(w, err)
		return
	}
	if err := validation.ValidateLatLon(req.Lat, req.Lon); err != nil {
		handleError(w, err)
		return
	}
	if req.Bearing != nil {
		if err := validation.ValidateBearing(*req.Bearing); err != nil {
			handleError(w, err)
			return
		}
	}

	detection, mission, err := h.coordinator.HandleDetection(r.Context(), dispatch.DetectionInput{
		SourceID:   req.SourceID,
		Type:       req.Type,
		Confidence: req.Confidence,
		Lat:        req.Lat,
		Lon:        req.Lon,
		Bearing:    req.Bearing,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	resp := map[string]interface{}{
		"id":         detection.ID.String(),
		"type":       detection.Type,
		"confidence": detection.Confidence,
		"lat":        detection.Lat,
		"lon":        detection.Lon,
		"source_id":  detection.SourceID,
		"created_at": detection.CreatedAt,
	}
	if detection.TrackID.Valid {
		resp["track_id"] = detection.TrackID.String
	}
	if mission != nil {
		resp["mission_id"] = mission.MissionID
	}
	jsonResponse(w, http.StatusCreated, resp)
}

// ListTracks handles GET /api/v1/detections/tracks.
func (h *DetectionHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.tracks.Snapshot())
}
