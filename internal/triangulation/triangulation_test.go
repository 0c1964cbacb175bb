package triangulation

import (
	"testing"

	"github.com/asgard/sentinel/internal/utils"
)

func TestTriangulate_InsufficientObservations(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		obs  []Observation
	}{
		{"zero observations", nil},
		{"one observation", []Observation{{Lat: 40, Lon: -120, Bearing: 45, Confidence: 0.9}}},
		{"all below confidence floor", []Observation{
			{Lat: 40, Lon: -120, Bearing: 45, Confidence: 0.1},
			{Lat: 40.1, Lon: -119.9, Bearing: 315, Confidence: 0.2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Triangulate(tt.obs)
			if err != utils.ErrInsufficientObservations {
				t.Errorf("Triangulate() error = %v, want ErrInsufficientObservations", err)
			}
		})
	}
}

func TestTriangulate_TwoObservations(t *testing.T) {
	engine := NewEngine()
	obs := []Observation{
		{DeviceID: "cam-1", Lat: 40.0, Lon: -120.0, Bearing: 45, Confidence: 0.9, DetectionID: "d1"},
		{DeviceID: "cam-2", Lat: 40.1, Lon: -119.9, Bearing: 315, Confidence: 0.8, DetectionID: "d2"},
	}

	result, err := engine.Triangulate(obs)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}

	if result.Lat < 39.9 || result.Lat > 40.2 {
		t.Errorf("Lat = %v, want near 40.05", result.Lat)
	}
	if result.Confidence <= 0.5 {
		t.Errorf("Confidence = %v, want > 0.5", result.Confidence)
	}
	if result.UncertaintyMeters > 2000 {
		t.Errorf("UncertaintyMeters = %v, want <= 2000", result.UncertaintyMeters)
	}
}

func TestTriangulate_ConfidenceMonotonic(t *testing.T) {
	engine := NewEngine()

	low := []Observation{
		{Lat: 40.0, Lon: -120.0, Bearing: 45, Confidence: 0.3, DetectionID: "d1"},
		{Lat: 40.1, Lon: -119.9, Bearing: 315, Confidence: 0.3, DetectionID: "d2"},
	}
	high := []Observation{
		{Lat: 40.0, Lon: -120.0, Bearing: 45, Confidence: 0.95, DetectionID: "d1"},
		{Lat: 40.1, Lon: -119.9, Bearing: 315, Confidence: 0.95, DetectionID: "d2"},
	}

	rLow, err := engine.Triangulate(low)
	if err != nil {
		t.Fatalf("Triangulate(low) error = %v", err)
	}
	rHigh, err := engine.Triangulate(high)
	if err != nil {
		t.Fatalf("Triangulate(high) error = %v", err)
	}

	if rHigh.Confidence < rLow.Confidence {
		t.Errorf("higher mean observation confidence produced lower result confidence: %v < %v", rHigh.Confidence, rLow.Confidence)
	}
}

func TestTriangulate_RANSACRejectsOutlier(t *testing.T) {
	engine := NewEngine()
	obs := []Observation{
		{Lat: 40.0, Lon: -120.0, Bearing: 45, Confidence: 0.9, DetectionID: "good-1"},
		{Lat: 40.1, Lon: -119.9, Bearing: 315, Confidence: 0.9, DetectionID: "good-2"},
		{Lat: 39.95, Lon: -119.95, Bearing: 10, Confidence: 0.9, DetectionID: "good-3"},
		{Lat: 50.0, Lon: -100.0, Bearing: 0, Confidence: 0.9, DetectionID: "outlier"},
	}

	result, err := engine.Triangulate(obs)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}

	for _, id := range result.ObservationIDs {
		if id == "outlier" {
			t.Errorf("observation_ids includes geographically inconsistent outlier: %v", result.ObservationIDs)
		}
	}
}
