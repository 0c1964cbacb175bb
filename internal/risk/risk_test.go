package risk

import "testing"

func baseCell() Cell {
	return Cell{
		Lat: 40, Lon: -120, Timestamp: "2024-01-01T00:00:00Z",
		FuelModel: 4, SlopeDeg: 10, AspectDeg: 180, CanopyCover: 0.3,
		SoilMoisture: 0.2, FuelMoisture: 0.15,
		TemperatureC: 25, RelativeHumidity: 40, WindSpeedMps: 5, WindDirectionDeg: 90,
		ElevationM: 800, LightningStrikes24h: 1, HistoricalIgnitions: 0,
	}
}

func TestHeuristicScore_ClipsToRange(t *testing.T) {
	c := baseCell()
	c.FuelModel = 9
	c.SlopeDeg = 90
	c.TemperatureC = 60
	c.RelativeHumidity = 0
	c.WindSpeedMps = 40

	score := NewEngine().Score(c)
	if score.Risk < 0 || score.Risk > 1 {
		t.Errorf("Risk = %v, want within [0,1]", score.Risk)
	}
	if score.Confidence < 0 || score.Confidence > 1 {
		t.Errorf("Confidence = %v, want within [0,1]", score.Confidence)
	}
}

func TestHeuristicScore_TemperatureMonotonic(t *testing.T) {
	engine := NewEngine()
	low := baseCell()
	low.TemperatureC = 10

	high := baseCell()
	high.TemperatureC = 40

	lowScore := engine.Score(low)
	highScore := engine.Score(high)

	if highScore.Risk < lowScore.Risk {
		t.Errorf("increasing temperature decreased risk: low=%v high=%v", lowScore.Risk, highScore.Risk)
	}
}

func TestHeuristicScore_ConfidenceMultipliers(t *testing.T) {
	c := baseCell()
	c.FuelModel = 0
	c.SoilMoisture = 0
	c.FuelMoisture = 0
	c.WindSpeedMps = 0

	score := NewEngine().Score(c)
	want := 0.7 * 0.8 * 0.9 * 0.9 * 0.8
	if diff := score.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want %v", score.Confidence, want)
	}
}

func TestFit_RequiresMinimumSamples(t *testing.T) {
	engine := NewEngine()
	samples := make([]Sample, 5)
	for i := range samples {
		samples[i] = Sample{Cell: baseCell(), Label: 0.5}
	}

	if err := engine.Fit(samples); err == nil {
		t.Error("Fit() with 5 samples should fail, want error")
	}
	if engine.IsTrained() {
		t.Error("engine should not be marked trained after a failed Fit")
	}
}

func TestFit_ProducesUsableModel(t *testing.T) {
	engine := NewEngine()

	var samples []Sample
	for i := 0; i < 20; i++ {
		c := baseCell()
		label := 0.2
		if i%2 == 0 {
			c.TemperatureC = 45
			c.RelativeHumidity = 10
			label = 0.9
		}
		samples = append(samples, Sample{Cell: c, Label: label})
	}

	if err := engine.Fit(samples); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !engine.IsTrained() {
		t.Fatal("expected engine to be trained")
	}

	score := engine.Score(baseCell())
	if score.Risk < 0 || score.Risk > 1 {
		t.Errorf("Risk = %v, want within [0,1]", score.Risk)
	}
}

func TestIsotonicCurve_Monotonic(t *testing.T) {
	x := []float64{0.1, 0.5, 0.3, 0.9, 0.2}
	y := []float64{0.2, 0.4, 0.9, 0.3, 0.1}

	curve := fitIsotonic(x, y)
	for i := 1; i < len(curve.y); i++ {
		if curve.y[i] < curve.y[i-1] {
			t.Errorf("fitted isotonic curve is not monotonic at index %d: %v < %v", i, curve.y[i], curve.y[i-1])
		}
	}
}
