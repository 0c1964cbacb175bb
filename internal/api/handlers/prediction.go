package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/asgard/sentinel/internal/api/validation"
	"github.com/asgard/sentinel/internal/geo"
	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/asgard/sentinel/internal/risk"
	"github.com/asgard/sentinel/internal/spread"
	"github.com/asgard/sentinel/internal/utils"
)

// PredictionHandler exposes the spread and risk engines over HTTP.
type PredictionHandler struct {
	spreadEngine *spread.Engine
	riskEngine   *risk.Engine
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(spreadEngine *spread.Engine, riskEngine *risk.Engine) *PredictionHandler {
	return &PredictionHandler{spreadEngine: spreadEngine, riskEngine: riskEngine}
}

type ignitionPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type simulateRequest struct {
	IgnitionPoints   []ignitionPoint `json:"ignition_points"`
	WindSpeedMps     float64         `json:"wind_speed_mps"`
	WindDirectionDeg float64         `json:"wind_direction_deg"`
	TemperatureC     float64         `json:"temperature_c"`
	RelativeHumidity float64         `json:"relative_humidity"`
	FuelMoisture     float64         `json:"fuel_moisture"`
	FuelModel        int             `json:"fuel_model"`
	SimulationHours  float64         `json:"simulation_hours"`
	TimeStepMinutes  float64         `json:"time_step_minutes"`
	MonteCarloRuns   int             `json:"monte_carlo_runs"`
	Seed             int64           `json:"seed"`
}

// Simulate handles POST /api/v1/prediction/simulate.
func (h *PredictionHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}
	if len(req.IgnitionPoints) == 0 {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "at least one ignition point is required", http.StatusUnprocessableEntity))
		return
	}
	if err := validation.ValidateFuelModel(req.FuelModel); err != nil {
		handleError(w, err)
		return
	}

	points := make([]geo.Point, 0, len(req.IgnitionPoints))
	for _, p := range req.IgnitionPoints {
		points = append(points, geo.Point{Lat: p.Lat, Lon: p.Lon})
	}

	params := spread.Parameters{
		IgnitionPoints:   points,
		WindSpeedMps:     req.WindSpeedMps,
		WindDirectionDeg: req.WindDirectionDeg,
		TemperatureC:     req.TemperatureC,
		RelativeHumidity: req.RelativeHumidity,
		FuelMoisture:     req.FuelMoisture,
		FuelModel:        req.FuelModel,
		SimulationHours:  req.SimulationHours,
		TimeStepMinutes:  req.TimeStepMinutes,
		MonteCarloRuns:   req.MonteCarloRuns,
		Seed:             req.Seed,
	}
	if params.SimulationHours <= 0 {
		params.SimulationHours = 24
	}
	if params.TimeStepMinutes <= 0 {
		params.TimeStepMinutes = 10
	}
	if params.MonteCarloRuns <= 0 {
		params.MonteCarloRuns = 20
	}

	start := time.Now()
	result := h.spreadEngine.Simulate(params)
	observability.RecordSpreadSimulation(time.Since(start))
	jsonResponse(w, http.StatusOK, result)
}

type riskScoreRequest struct {
	Lat                  float64 `json:"lat"`
	Lon                  float64 `json:"lon"`
	FuelModel            int     `json:"fuel_model"`
	SlopeDeg             float64 `json:"slope_deg"`
	AspectDeg            float64 `json:"aspect_deg"`
	CanopyCover          float64 `json:"canopy_cover"`
	SoilMoisture         float64 `json:"soil_moisture"`
	FuelMoisture         float64 `json:"fuel_moisture"`
	TemperatureC         float64 `json:"temperature_c"`
	RelativeHumidity     float64 `json:"relative_humidity"`
	WindSpeedMps         float64 `json:"wind_speed_mps"`
	WindDirectionDeg     float64 `json:"wind_direction_deg"`
	ElevationM           float64 `json:"elevation_m"`
	LightningStrikes24h  int     `json:"lightning_strikes_24h"`
	HistoricalIgnitions  int     `json:"historical_ignitions"`
}

// Score handles POST /api/v1/prediction/risk.
func (h *PredictionHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req riskScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}

	score := h.riskEngine.Score(risk.Cell{
		Lat:                  req.Lat,
		Lon:                  req.Lon,
		FuelModel:            req.FuelModel,
		SlopeDeg:             req.SlopeDeg,
		AspectDeg:            req.AspectDeg,
		CanopyCover:          req.CanopyCover,
		SoilMoisture:         req.SoilMoisture,
		FuelMoisture:         req.FuelMoisture,
		TemperatureC:         req.TemperatureC,
		RelativeHumidity:     req.RelativeHumidity,
		WindSpeedMps:         req.WindSpeedMps,
		WindDirectionDeg:     req.WindDirectionDeg,
		ElevationM:           req.ElevationM,
		LightningStrikes24h:  req.LightningStrikes24h,
		HistoricalIgnitions:  req.HistoricalIgnitions,
	})
	mode := "heuristic"
	if h.riskEngine.IsTrained() {
		mode = "trained"
	}
	observability.RecordRiskScore(mode)
	jsonResponse(w, http.StatusOK, score)
}
