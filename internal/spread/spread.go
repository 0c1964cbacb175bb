// Package spread runs a Monte-Carlo cellular-automaton wildfire spread
// simulation over a local grid, producing isochrones and a final perimeter.
package spread

import (
	"math"
	"math/rand"
	"sync"

	"github.com/asgard/sentinel/internal/geo"
	"github.com/asgard/sentinel/internal/risk"
)

const (
	gridResolutionMeters = 100.0
	isochroneHectarePerCell = 0.01
	isochroneKmPerCell      = 0.1
)

var isochroneHours = []float64{6, 12, 18, 24}

// Parameters describes one simulation request.
type Parameters struct {
	IgnitionPoints     []geo.Point
	WindSpeedMps       float64
	WindDirectionDeg   float64
	TemperatureC       float64
	RelativeHumidity   float64
	FuelMoisture       float64
	FuelModel          int
	SimulationHours    float64 // (0, 168]
	TimeStepMinutes    float64 // (0, 60]
	MonteCarloRuns     int     // (0, 1000]
	Seed               int64   // 0 uses the fixed per-run seeds 1..MonteCarloRuns
}

// Isochrone is the union of ignited cells across all runs at a time threshold.
type Isochrone struct {
	Hours         float64
	AreaHectares  float64
	PerimeterKm   float64
}

// Result aggregates the Monte-Carlo runs.
type Result struct {
	TotalAreaHectares float64
	MaxSpreadRateMph  float64
	Isochrones        []Isochrone
	FinalPerimeter    []cell
	Confidence        float64
}

type cell struct{ row, col int }

// Engine runs spread simulations.
type Engine struct{}

// NewEngine constructs a spread engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Simulate runs Parameters.MonteCarloRuns independent stochastic cellular
// automaton simulations in parallel and reduces them into a Result.
func (e *Engine) Simulate(p Parameters) *Result {
	runs := p.MonteCarloRuns
	if runs <= 0 {
		runs = 1
	}

	type runOutcome struct {
		areaHa      float64
		maxRateMph  float64
		burnedByHour map[float64]map[cell]bool
		finalBurned map[cell]bool
	}

	outcomes := make([]runOutcome, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var seed int64
			if p.Seed != 0 {
				seed = p.Seed + int64(i)
			} else {
				seed = int64(i) + 1
			}
			rng := rand.New(rand.NewSource(seed))
			burned, hourly, maxRate := simulateSingleRun(p, rng)
			outcomes[i] = runOutcome{
				areaHa:       float64(len(burned)) * isochroneHectarePerCell,
				maxRateMph:   maxRate,
				burnedByHour: hourly,
				finalBurned:  burned,
			}
		}(i)
	}
	wg.Wait()

	areas := make([]float64, runs)
	rates := make([]float64, runs)
	unionFinal := make(map[cell]bool)
	unionByHour := make(map[float64]map[cell]bool)
	for _, h := range isochroneHours {
		unionByHour[h] = make(map[cell]bool)
	}

	var sumArea, sumRate float64
	for i, o := range outcomes {
		areas[i] = o.areaHa
		rates[i] = o.maxRateMph
		sumArea += o.areaHa
		sumRate += o.maxRateMph
		for c := range o.finalBurned {
			unionFinal[c] = true
		}
		for h, cells := range o.burnedByHour {
			for c := range cells {
				unionByHour[h][c] = true
			}
		}
	}

	n := float64(runs)
	meanArea := sumArea / n
	meanRate := sumRate / n

	var isochrones []Isochrone
	for _, h := range isochroneHours {
		if h > p.SimulationHours {
			continue
		}
		count := len(unionByHour[h])
		isochrones = append(isochrones, Isochrone{
			Hours:        h,
			AreaHectares: float64(count) * isochroneHectarePerCell,
			PerimeterKm:  float64(count) * isochroneKmPerCell,
		})
	}

	finalCells := make([]cell, 0, len(unionFinal))
	for c := range unionFinal {
		finalCells = append(finalCells, c)
	}

	confidence := 1 - (coefficientOfVariation(areas)+coefficientOfVariation(rates))/2
	confidence = clip01(confidence)

	return &Result{
		TotalAreaHectares: meanArea,
		MaxSpreadRateMph:  meanRate,
		Isochrones:        isochrones,
		FinalPerimeter:    finalCells,
		Confidence:        confidence,
	}
}

// simulateSingleRun runs one stochastic cellular-automaton pass and returns
// the final burned set, the union of burned cells observed at each
// isochrone-hour snapshot (preserving the reference implementation's
// all-runs-to-date union semantics rather than true per-cell burn time),
// and the maximum observed spread rate in mph.
func simulateSingleRun(p Parameters, rng *rand.Rand) (map[cell]bool, map[float64]map[cell]bool, float64) {
	burned := make(map[cell]bool)
	front := make(map[cell]bool)

	origin := p.IgnitionPoints[0]
	for _, ip := range p.IgnitionPoints {
		c := cellFor(ip, origin)
		burned[c] = true
		front[c] = true
	}

	hourly := make(map[float64]map[cell]bool)
	for _, h := range isochroneHours {
		hourly[h] = make(map[cell]bool)
	}

	stepMinutes := p.TimeStepMinutes
	if stepMinutes <= 0 {
		stepMinutes = 10
	}
	totalSteps := int(p.SimulationHours * 60.0 / stepMinutes)

	maxRateMph := 0.0
	elapsedHours := 0.0

	for step := 0; step < totalSteps && len(front) > 0; step++ {
		rate := spreadRateMph(p)
		if rate > maxRateMph {
			maxRateMph = rate
		}

		nextFront := make(map[cell]bool)
		for c := range front {
			for _, n := range neighbors8(c) {
				if burned[n] {
					continue
				}
				if igniteDraw(rate, rng) {
					nextFront[n] = true
				}
			}
		}
		for c := range nextFront {
			burned[c] = true
		}
		front = nextFront

		elapsedHours += stepMinutes / 60.0
		for _, h := range isochroneHours {
			if elapsedHours <= h {
				for c := range burned {
					hourly[h][c] = true
				}
			}
		}
	}

	// Any isochrone threshold beyond the simulation's actual run length
	// still gets the final burned set (the simulation may stop early when
	// the front burns out).
	for _, h := range isochroneHours {
		if elapsedHours <= h {
			for c := range burned {
				hourly[h][c] = true
			}
		}
	}

	return burned, hourly, maxRateMph
}

func cellFor(p geo.Point, origin geo.Point) cell {
	dx := geo.Haversine(geo.Point{Lat: origin.Lat, Lon: p.Lon}, geo.Point{Lat: origin.Lat, Lon: origin.Lon})
	if p.Lon < origin.Lon {
		dx = -dx
	}
	dy := geo.Haversine(geo.Point{Lat: p.Lat, Lon: origin.Lon}, geo.Point{Lat: origin.Lat, Lon: origin.Lon})
	if p.Lat < origin.Lat {
		dy = -dy
	}
	return cell{row: int(math.Round(dy / gridResolutionMeters)), col: int(math.Round(dx / gridResolutionMeters))}
}

func neighbors8(c cell) []cell {
	out := make([]cell, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			out = append(out, cell{row: c.row + dr, col: c.col + dc})
		}
	}
	return out
}

// spreadRateMph is R(c) = base_rate(fuel_model)·wind_factor·slope_factor·
// moisture_factor·temperature_factor, expressed in m/s then converted to mph.
func spreadRateMph(p Parameters) float64 {
	base := baseRate(p.FuelModel)
	wind := windFactor(p.WindSpeedMps, p.WindDirectionDeg)
	slope := slopeFactor(0) // per-cell slope is not modeled (terrain stub, matching the reference)
	moisture := moistureFactor(p.FuelMoisture, p.RelativeHumidity)
	temp := temperatureFactor(p.TemperatureC)

	rateMps := base * wind * slope * moisture * temp
	return rateMps * 2.237
}

func baseRate(fuelModel int) float64 {
	if v, ok := riskFuelRiskTable()[fuelModel]; ok {
		return v
	}
	return 0.5
}

func riskFuelRiskTable() map[int]float64 {
	return risk.FuelRisk
}

func windFactor(windMps, windDirectionDeg float64) float64 {
	if windMps == 0 {
		return 1.0
	}

	speedFactor := 1 + windMps/10.0

	// Per-cell terrain aspect is not tracked by this grid (terrain stub,
	// matching the reference implementation's always-flat terrain lookup),
	// so the wind-relative angle is measured against aspect=0 rather than
	// an actual per-cell slope direction.
	windRelative := math.Mod(windDirectionDeg+360, 360)

	var directionFactor float64
	if windRelative <= 180 {
		directionFactor = 1 + (windRelative/180.0)*0.5
	} else {
		directionFactor = 1 - ((windRelative-180.0)/180.0)*0.3
	}

	return speedFactor * directionFactor
}

func slopeFactor(slopeDeg float64) float64 {
	alignmentFactor := 1.0
	return (1 + slopeDeg/45.0*0.5) * alignmentFactor
}

func moistureFactor(fuelMoisture, relativeHumidity float64) float64 {
	return math.Max(0.1, (1-0.8*fuelMoisture)*(1-0.5*relativeHumidity/100.0))
}

func temperatureFactor(tempC float64) float64 {
	switch {
	case tempC < 0:
		return 0.1
	case tempC < 10:
		return 0.5
	case tempC < 30:
		return 1 + (tempC-10)/20.0*0.5
	default:
		return 1.5
	}
}

// igniteDraw draws two independent uniform samples u and u' and ignites when
// u is below the capped rate times a constant diagonal distance factor times
// u' — the reference implementation's extra uniform-sample quirk (§9 design
// notes), preserved here rather than fixed.
func igniteDraw(rateMph float64, rng *rand.Rand) bool {
	distanceFactor := 1.0 / (1.0 + math.Sqrt(2)*100.0/1000.0)
	baseProb := math.Min(1, rateMph/10.0)
	u := rng.Float64()
	uPrime := rng.Float64()
	threshold := baseProb * distanceFactor * uPrime
	return u < threshold
}

func coefficientOfVariation(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n
	return math.Sqrt(variance) / mean
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
