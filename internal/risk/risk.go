// Package risk computes per-cell wildfire risk scores from environmental
// features, either with a fixed heuristic or a trained logistic model.
package risk

import "math"

// Cell is a single environmental grid cell, the engine's input unit.
type Cell struct {
	Lat                 float64
	Lon                 float64
	Timestamp           string
	FuelModel           int
	SlopeDeg            float64
	AspectDeg           float64
	CanopyCover         float64
	SoilMoisture        float64
	FuelMoisture        float64
	TemperatureC        float64
	RelativeHumidity    float64
	WindSpeedMps        float64
	WindDirectionDeg    float64
	ElevationM          float64
	LightningStrikes24h int
	HistoricalIgnitions int
}

// Score is the engine's output for one cell.
type Score struct {
	Lat                 float64
	Lon                 float64
	Risk                float64
	Confidence          float64
	ContributingFactors map[string]float64
	Timestamp           string
}

// Engine computes risk scores, dispatching on whether it has been fit.
// This is the sum-type the spec's design notes call for: an untrained
// Engine always scores heuristically, a fitted one always scores via the
// trained model.
type Engine struct {
	model *trainedModel
}

// NewEngine returns an Engine in heuristic mode.
func NewEngine() *Engine {
	return &Engine{}
}

// IsTrained reports whether Fit has produced a usable model.
func (e *Engine) IsTrained() bool {
	return e.model != nil
}

// Score computes the risk score for a single cell, using the trained model
// if one has been fit, else the fixed heuristic.
func (e *Engine) Score(c Cell) Score {
	if e.model != nil {
		return e.model.score(c)
	}
	return heuristicScore(c)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// heuristicScore implements the fixed weighted-sum formula: fuel 0.30,
// slope 0.20, moisture 0.20, weather 0.20, history 0.10.
func heuristicScore(c Cell) Score {
	fuelRisk := fuelRiskFor(c.FuelModel)
	slopeRisk := math.Min(1, c.SlopeDeg/45.0)
	moistureRisk := 0.5*(1-c.SoilMoisture) + 0.5*(1-c.FuelMoisture)

	tempRisk := clip01((c.TemperatureC - 20) / 30.0)
	humidityRisk := (100 - c.RelativeHumidity) / 100.0
	windRisk := math.Min(1, c.WindSpeedMps/20.0)
	weatherRisk := (tempRisk + humidityRisk + windRisk) / 3.0

	historyRisk := math.Min(1, float64(c.LightningStrikes24h+c.HistoricalIgnitions)/10.0)

	risk := 0.30*fuelRisk + 0.20*slopeRisk + 0.20*moistureRisk + 0.20*weatherRisk + 0.10*historyRisk
	risk = clip01(risk)

	return Score{
		Lat:        c.Lat,
		Lon:        c.Lon,
		Risk:       risk,
		Confidence: confidenceFor(c),
		ContributingFactors: map[string]float64{
			"fuel_model": fuelRisk,
			"slope":      slopeRisk,
			"moisture":   moistureRisk,
			"weather":    weatherRisk,
			"history":    historyRisk,
		},
		Timestamp: c.Timestamp,
	}
}

// confidenceFor implements the shared 0.7-baseline, multiplicatively
// reduced confidence formula used by both risk modes.
func confidenceFor(c Cell) float64 {
	confidence := 0.7
	if c.FuelModel == 0 {
		confidence *= 0.8
	}
	if c.SoilMoisture == 0 {
		confidence *= 0.9
	}
	if c.FuelMoisture == 0 {
		confidence *= 0.9
	}
	if c.WindSpeedMps == 0 {
		confidence *= 0.8
	}
	if c.TemperatureC < -20 || c.TemperatureC > 60 {
		confidence *= 0.7
	}
	if c.RelativeHumidity < 5 || c.RelativeHumidity > 100 {
		confidence *= 0.7
	}
	return confidence
}
