package spread

import (
	"testing"

	"github.com/asgard/sentinel/internal/geo"
)

func baseParams() Parameters {
	return Parameters{
		IgnitionPoints:   []geo.Point{{Lat: 40.0, Lon: -120.0}},
		WindSpeedMps:     5,
		WindDirectionDeg: 90,
		TemperatureC:     25,
		RelativeHumidity: 30,
		FuelMoisture:     0.1,
		FuelModel:        4,
		SimulationHours:  6,
		TimeStepMinutes:  10,
		MonteCarloRuns:   5,
		Seed:             42,
	}
}

func TestSimulate_ProducesBoundedResult(t *testing.T) {
	engine := NewEngine()
	result := engine.Simulate(baseParams())

	if result.TotalAreaHectares < 0 {
		t.Errorf("TotalAreaHectares = %v, want >= 0", result.TotalAreaHectares)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("Confidence = %v, want within [0,1]", result.Confidence)
	}
}

func TestSimulate_IsochronesCappedBySimulationHours(t *testing.T) {
	engine := NewEngine()
	p := baseParams()
	p.SimulationHours = 10

	result := engine.Simulate(p)
	for _, iso := range result.Isochrones {
		if iso.Hours > p.SimulationHours {
			t.Errorf("isochrone at %v hours exceeds simulation_hours %v", iso.Hours, p.SimulationHours)
		}
	}
}

func TestSimulate_WindMonotonicity(t *testing.T) {
	low := baseParams()
	low.WindSpeedMps = 2
	low.MonteCarloRuns = 30
	low.SimulationHours = 12

	high := baseParams()
	high.WindSpeedMps = 25
	high.MonteCarloRuns = 30
	high.SimulationHours = 12

	engine := NewEngine()
	lowResult := engine.Simulate(low)
	highResult := engine.Simulate(high)

	if highResult.TotalAreaHectares < 0.9*lowResult.TotalAreaHectares {
		t.Errorf("higher wind produced smaller area: low=%v high=%v", lowResult.TotalAreaHectares, highResult.TotalAreaHectares)
	}
}

func TestWindFactor_DirectionRange(t *testing.T) {
	tests := []struct {
		name             string
		windDirectionDeg float64
		want             float64
	}{
		{"upslope (max)", 180, 1.5},
		{"aligned with aspect (neutral direction term)", 0, 1.0},
		{"downslope tail (min)", 359, 0.7 + 1.0/180.0*0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windFactor(5, tt.windDirectionDeg) / (1 + 5.0/10.0)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("windFactor direction term at %v deg = %v, want %v", tt.windDirectionDeg, got, tt.want)
			}
		})
	}
}

func TestWindFactor_NoWindIsNeutral(t *testing.T) {
	if got := windFactor(0, 180); got != 1.0 {
		t.Errorf("windFactor(0, 180) = %v, want 1.0", got)
	}
}

func TestTemperatureFactor_Piecewise(t *testing.T) {
	tests := []struct {
		tempC float64
		want  float64
	}{
		{-5, 0.1},
		{5, 0.5},
		{30, 1.5},
		{100, 1.5},
	}

	for _, tt := range tests {
		if got := temperatureFactor(tt.tempC); got != tt.want {
			t.Errorf("temperatureFactor(%v) = %v, want %v", tt.tempC, got, tt.want)
		}
	}
}
