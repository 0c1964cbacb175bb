// Package handlers provides HTTP handlers for API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/asgard/sentinel/internal/api/validation"
	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/utils"
	"github.com/go-chi/chi/v5"
)

// TelemetryHandler handles raw device telemetry ingestion and lookup.
type TelemetryHandler struct {
	repo    *store.ObservationRepository
	archive *store.SensorArchive
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(repo *store.ObservationRepository, archive *store.SensorArchive) *TelemetryHandler {
	return &TelemetryHandler{repo: repo, archive: archive}
}

type telemetryRequest struct {
	DeviceID  string      `json:"device_id"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	Elevation *float64    `json:"elevation"`
	Sensors   []db.Sensor `json:"sensors"`
	Timestamp *time.Time  `json:"timestamp"`
}

// Create handles POST /api/v1/telemetry.
func (h *TelemetryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	if req.DeviceID == "" {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "device_id is required", http.StatusUnprocessableEntity))
		return
	}
	if err := validation.ValidateLatLon(req.Lat, req.Lon); err != nil {
		handleError(w, err)
		return
	}

	sensorJSON, err := store.EncodeSensors(req.Sensors)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "VALIDATION_ERROR", "invalid sensors payload", http.StatusUnprocessableEntity))
		return
	}

	observation := &db.Observation{
		DeviceID: req.DeviceID,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Sensors:  sensorJSON,
	}
	if req.Elevation != nil {
		observation.Elevation.Float64 = *req.Elevation
		observation.Elevation.Valid = true
	}
	if req.Timestamp != nil {
		observation.Timestamp = *req.Timestamp
	}

	if err := h.repo.Create(observation); err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_CREATE_TELEMETRY", "failed to persist telemetry", http.StatusInternalServerError))
		return
	}

	if h.archive != nil {
		if err := h.archive.Archive(r.Context(), observation, req.Sensors); err != nil {
			// Archival is best-effort; the operational write already succeeded.
			_ = err
		}
	}

	jsonResponse(w, http.StatusCreated, observationResponse(observation, req.Sensors))
}

// List handles GET /api/v1/telemetry?device_id=...
func (h *TelemetryHandler) List(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "device_id query parameter is required", http.StatusUnprocessableEntity))
		return
	}
	limit, _ := parsePaginationParams(r)

	observations, err := h.repo.ListByDevice(deviceID, limit)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LIST_TELEMETRY", "failed to list telemetry", http.StatusInternalServerError))
		return
	}

	out := make([]interface{}, 0, len(observations))
	for _, o := range observations {
		sensors, _ := store.DecodeSensors(o.Sensors)
		out = append(out, observationResponse(o, sensors))
	}
	jsonResponse(w, http.StatusOK, out)
}

// ListDevices handles GET /api/v1/telemetry/devices.
func (h *TelemetryHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.repo.Devices()
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LIST_DEVICES", "failed to list devices", http.StatusInternalServerError))
		return
	}
	jsonResponse(w, http.StatusOK, devices)
}

// Latest handles GET /api/v1/telemetry/devices/{id}/latest.
func (h *TelemetryHandler) Latest(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	observation, err := h.repo.Latest(deviceID)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "NOT_FOUND", err.Error(), http.StatusNotFound))
		return
	}
	sensors, _ := store.DecodeSensors(observation.Sensors)
	jsonResponse(w, http.StatusOK, observationResponse(observation, sensors))
}

func observationResponse(o *db.Observation, sensors []db.Sensor) map[string]interface{} {
	resp := map[string]interface{}{
		"id":        o.ID.String(),
		"device_id": o.DeviceID,
		"lat":       o.Lat,
		"lon":       o.Lon,
		"sensors":   sensors,
		"timestamp": o.Timestamp,
	}
	if o.Elevation.Valid {
		resp["elevation"] = o.Elevation.Float64
	}
	return resp
}
