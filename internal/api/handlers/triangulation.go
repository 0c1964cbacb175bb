package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/asgard/sentinel/internal/api/validation"
	"github.com/asgard/sentinel/internal/triangulation"
	"github.com/asgard/sentinel/internal/utils"
)

// TriangulationHandler exposes the bearing-fusion engine over HTTP.
type TriangulationHandler struct {
	engine *triangulation.Engine
}

// NewTriangulationHandler creates a new triangulation handler.
func NewTriangulationHandler(engine *triangulation.Engine) *TriangulationHandler {
	return &TriangulationHandler{engine: engine}
}

type observationRequest struct {
	DeviceID      string  `json:"device_id"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Alt           float64 `json:"alt"`
	CameraHeading float64 `json:"camera_heading"`
	CameraPitch   float64 `json:"camera_pitch"`
	Bearing       float64 `json:"bearing"`
	Confidence    float64 `json:"confidence"`
	DetectionID   string  `json:"detection_id"`
}

type triangulateRequest struct {
	Observations []observationRequest `json:"observations"`
}

// Triangulate handles POST /api/v1/triangulation/triangulate.
func (h *TriangulationHandler) Triangulate(w http.ResponseWriter, r *http.Request) {
	var req triangulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	observations := make([]triangulation.Observation, 0, len(req.Observations))
	for _, o := range req.Observations {
		if err := validation.ValidateLatLon(o.Lat, o.Lon); err != nil {
			handleError(w, err)
			return
		}
		if err := validation.ValidateBearing(o.Bearing); err != nil {
			handleError(w, err)
			return
		}
		if err := validation.ValidateConfidence(o.Confidence); err != nil {
			handleError(w, err)
			return
		}
		observations = append(observations, triangulation.Observation{
			DeviceID:      o.DeviceID,
			Lat:           o.Lat,
			Lon:           o.Lon,
			Alt:           o.Alt,
			CameraHeading: o.CameraHeading,
			CameraPitch:   o.CameraPitch,
			Bearing:       o.Bearing,
			Confidence:    o.Confidence,
			DetectionID:   o.DetectionID,
		})
	}

	result, err := h.engine.Triangulate(observations)
	if err != nil {
		handleError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, result)
}
