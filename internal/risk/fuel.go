package risk

// FuelRisk is the Anderson 13 fuel-model risk coefficient lookup table,
// shared verbatim with the spread engine's base spread rate.
var FuelRisk = map[int]float64{
	1:  0.1,
	2:  0.2,
	3:  0.3,
	4:  0.4,
	5:  0.5,
	6:  0.6,
	7:  0.7,
	8:  0.8,
	9:  0.9,
	10: 0.8,
	11: 0.6,
	12: 0.7,
	13: 0.8,
}

func fuelRiskFor(model int) float64 {
	if v, ok := FuelRisk[model]; ok {
		return v
	}
	return 0.5
}
