package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Point
		want    float64
		epsilon float64
	}{
		{"same point", Point{37.0, -122.0}, Point{37.0, -122.0}, 0, 1},
		{"one degree longitude at equator", Point{0, 0}, Point{0, 1}, 111195, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Haversine() = %v, want %v +/- %v", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"due north", Point{0, 0}, Point{1, 0}, 0},
		{"due east", Point{0, 0}, Point{0, 1}, 90},
		{"due south", Point{1, 0}, Point{0, 0}, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1 {
				t.Errorf("Bearing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngularDifference(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{350, 10, 20},
		{10, 350, 20},
		{0, 180, 180},
		{45, 45, 0},
	}

	for _, tt := range tests {
		got := AngularDifference(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngularDifference(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCartesianRoundTrip(t *testing.T) {
	p := Point{Lat: 37.7749, Lon: -122.4194}
	c := LatLonToCartesian(p)
	back := CartesianToLatLon(c)

	if math.Abs(back.Lat-p.Lat) > 1e-6 || math.Abs(back.Lon-p.Lon) > 1e-6 {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

func TestAngularSpread(t *testing.T) {
	// Three evenly-spaced bearings split the circle into three equal gaps,
	// so the largest gap is ~120.
	bearings := []float64{0, 120, 240}
	if got := AngularSpread(bearings); got < 100 || got > 140 {
		t.Errorf("AngularSpread(%v) = %v, want ~120 for evenly spaced bearings", bearings, got)
	}

	// Two nearly-identical bearings leave almost the entire circle as one
	// empty arc, so the largest gap is close to 360 — matching the
	// reference implementation's max(gaps) exactly, however
	// counterintuitive for a "spread" value.
	tight := []float64{10, 12}
	if got := AngularSpread(tight); got < 300 {
		t.Errorf("AngularSpread(%v) = %v, want a wide wraparound gap for near-identical bearings", tight, got)
	}
}
