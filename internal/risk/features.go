package risk

import "math"

// featureNames enumerates the 30-dimensional feature vector extracted by
// extractFeatures, in order: one-hot fuel model (13), terrain (5), moisture
// (2), weather (5), fire history (2), and three derived fire-weather
// indices (3) — 13+5+2+5+2+3 = 30.
var featureNames = buildFeatureNames()

func buildFeatureNames() []string {
	names := make([]string, 0, 30)
	for i := 1; i <= 13; i++ {
		names = append(names, fuelFeatureName(i))
	}
	names = append(names,
		"slope_normalized", "aspect_sin", "aspect_cos", "canopy_cover", "elevation_normalized",
		"soil_moisture", "fuel_moisture",
		"temperature_normalized", "humidity_normalized", "wind_speed_normalized", "wind_direction_sin", "wind_direction_cos",
		"lightning_strikes_normalized", "historical_ignitions_normalized",
		"fire_weather_index", "energy_release_component", "burning_index",
	)
	return names
}

func fuelFeatureName(model int) string {
	return "fuel_model_" + itoa(model)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [4]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// extractFeatures builds the feature vector described by featureNames.
func extractFeatures(c Cell) []float64 {
	features := make([]float64, 0, 30)

	for i := 1; i <= 13; i++ {
		if i == c.FuelModel {
			features = append(features, 1.0)
		} else {
			features = append(features, 0.0)
		}
	}

	aspectRad := toRad(c.AspectDeg)
	features = append(features,
		c.SlopeDeg/90.0,
		math.Sin(aspectRad),
		math.Cos(aspectRad),
		c.CanopyCover,
		c.ElevationM/4000.0,
	)

	features = append(features, c.SoilMoisture, c.FuelMoisture)

	windRad := toRad(c.WindDirectionDeg)
	features = append(features,
		c.TemperatureC/50.0,
		c.RelativeHumidity/100.0,
		c.WindSpeedMps/30.0,
		math.Sin(windRad),
		math.Cos(windRad),
	)

	features = append(features,
		math.Min(float64(c.LightningStrikes24h)/10.0, 1.0),
		math.Min(float64(c.HistoricalIgnitions)/5.0, 1.0),
	)

	features = append(features,
		fireWeatherIndex(c),
		energyReleaseComponent(c),
		burningIndex(c),
	)

	return features
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// fireWeatherIndex is a simplified Fire Weather Index: a fine-fuel-moisture
// proxy scaled by a wind factor.
func fireWeatherIndex(c Cell) float64 {
	ffmc := 101 - c.RelativeHumidity
	if c.TemperatureC > 20 {
		ffmc += (c.TemperatureC - 20) * 2
	}
	windFactor := 1 + c.WindSpeedMps/20.0
	fwi := ffmc * windFactor / 100.0
	return clip01(fwi)
}

// energyReleaseComponent is a simplified Energy Release Component.
func energyReleaseComponent(c Cell) float64 {
	baseERC := (c.TemperatureC - 10) / 30.0 * (100 - c.RelativeHumidity) / 100.0
	windFactor := 1 + c.WindSpeedMps/15.0
	return clip01(baseERC * windFactor)
}

// burningIndex is a simplified Burning Index combining wind and slope.
func burningIndex(c Cell) float64 {
	baseBI := (c.TemperatureC / 40.0) * (100 - c.RelativeHumidity) / 100.0
	windSlopeFactor := 1 + c.WindSpeedMps/20.0 + c.SlopeDeg/45.0
	return clip01(baseBI * windSlopeFactor)
}
