// Package triangulation fuses bearing-only observations from spatially
// separated sensors into a single point estimate.
package triangulation

import (
	"math"
	"sort"

	"github.com/asgard/sentinel/internal/geo"
	"github.com/asgard/sentinel/internal/utils"
	"gonum.org/v1/gonum/optimize"
)

// Method identifies which algorithm produced a Result.
type Method string

const (
	MethodSimple      Method = "simple"
	MethodRANSAC      Method = "ransac"
	MethodLeastSquares Method = "least_squares"
)

const (
	minObservationConfidence = 0.3
	maxRayGapMeters          = 1000.0
	ransacInlierDegrees      = 5.0
	maxBaselineKm            = 50.0
)

// Observation is a transient bearing-only input to the engine.
type Observation struct {
	DeviceID      string
	Lat           float64
	Lon           float64
	Alt           float64
	CameraHeading float64
	CameraPitch   float64
	Bearing       float64
	Confidence    float64
	DetectionID   string
}

// Result is the output of a triangulation attempt.
type Result struct {
	Lat              float64
	Lon              float64
	Alt              float64
	Confidence       float64
	UncertaintyMeters float64
	ObservationIDs   []string
	Method           Method
	QualityMetrics   map[string]float64
}

// Engine triangulates a target location from a set of bearing observations.
type Engine struct {
	MaxDistanceKm float64
}

// NewEngine constructs a triangulation engine with MaxDistanceKm set to the
// reference max-baseline value; no triangulation method reads it.
func NewEngine() *Engine {
	return &Engine{MaxDistanceKm: maxBaselineKm}
}

// Triangulate runs all three candidate methods and keeps the highest
// confidence result, preferring least-squares on a tie per the spec's
// method precedence (least-squares, then RANSAC, then simple).
func (e *Engine) Triangulate(observations []Observation) (*Result, error) {
	filtered := filterObservations(observations)
	if len(filtered) < 2 {
		return nil, utils.ErrInsufficientObservations
	}

	var candidates []*Result

	if simple, ok := e.simpleIntersection(filtered[0], filtered[1]); ok {
		candidates = append(candidates, simple)
	}

	if ransac, ok := e.ransac(filtered); ok {
		candidates = append(candidates, ransac)
	}

	var seed *Result
	if len(candidates) > 0 {
		seed = candidates[0]
	}
	if seed != nil {
		if ls, ok := e.leastSquares(seed, filtered); ok {
			candidates = append(candidates, ls)
		}
	}

	if len(candidates) == 0 {
		return nil, utils.ErrEngineUnavailable
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence || (c.Confidence == best.Confidence && precedence(c.Method) < precedence(best.Method)) {
			best = c
		}
	}
	return best, nil
}

func precedence(m Method) int {
	switch m {
	case MethodLeastSquares:
		return 0
	case MethodRANSAC:
		return 1
	default:
		return 2
	}
}

func filterObservations(obs []Observation) []Observation {
	var out []Observation
	for _, o := range obs {
		if o.Confidence >= minObservationConfidence {
			out = append(out, o)
		}
	}
	return out
}

// simpleIntersection converts the first two observations to rays and solves
// for their closest-approach point.
func (e *Engine) simpleIntersection(a, b Observation) (*Result, bool) {
	p1 := geo.LatLonToCartesian(geo.Point{Lat: a.Lat, Lon: a.Lon})
	p2 := geo.LatLonToCartesian(geo.Point{Lat: b.Lat, Lon: b.Lon})
	d1 := geo.BearingToDirection(a.Bearing, a.CameraPitch)
	d2 := geo.BearingToDirection(b.Bearing, b.CameraPitch)

	mid, gap, ok := rayClosestApproach(p1, d1, p2, d2)
	if !ok || gap > maxRayGapMeters {
		return nil, false
	}

	used := []Observation{a, b}
	return e.finalizeResult(geo.CartesianToLatLon(mid), 0, used, MethodSimple), true
}

// rayClosestApproach solves for the midpoint of the shortest segment
// connecting two 3D rays (each given by an origin and a unit direction),
// and the length of that segment.
func rayClosestApproach(p1 geo.Cartesian, d1 [3]float64, p2 geo.Cartesian, d2 [3]float64) (geo.Cartesian, float64, bool) {
	r := [3]float64{p1.X - p2.X, p1.Y - p2.Y, p1.Z - p2.Z}

	a := dot(d1, d1)
	b := dot(d1, d2)
	c := dot(d2, d2)
	dd := dot(d1, r)
	e := dot(d2, r)

	denom := a*c - b*b
	if math.Abs(denom) < 1e-9 {
		return geo.Cartesian{}, 0, false
	}

	s := (b*e - c*dd) / denom
	t := (a*e - b*dd) / denom

	q1 := add(p1, scale(d1, s))
	q2 := add(p2, scale(d2, t))
	gap := dist(q1, q2)

	mid := geo.Cartesian{
		X: (q1.X + q2.X) / 2,
		Y: (q1.Y + q2.Y) / 2,
		Z: (q1.Z + q2.Z) / 2,
	}
	return mid, gap, true
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func scale(v [3]float64, s float64) geo.Cartesian {
	return geo.Cartesian{X: v[0] * s, Y: v[1] * s, Z: v[2] * s}
}
func add(c geo.Cartesian, v geo.Cartesian) geo.Cartesian {
	return geo.Cartesian{X: c.X + v.X, Y: c.Y + v.Y, Z: c.Z + v.Z}
}
func dist(a, b geo.Cartesian) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
}

// ransac enumerates every 3-subset of observations, scores each candidate
// by inlier count times mean confidence, and keeps the best.
func (e *Engine) ransac(obs []Observation) (*Result, bool) {
	if len(obs) < 3 {
		return nil, false
	}

	var bestCenter geo.Point
	var bestInliers []Observation
	bestScore := -1.0
	found := false

	n := len(obs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				// The 3-subset (i, j, k) is the RANSAC sample; the seed
				// estimate itself only needs the first two rays, matching
				// the simple-intersection definition above.
				candidate, ok := e.simpleIntersection(obs[i], obs[j])
				if !ok {
					continue
				}
				center := geo.Point{Lat: candidate.Lat, Lon: candidate.Lon}
				inliers := countInliers(center, obs)
				if len(inliers) < 2 {
					continue
				}
				meanConf := meanConfidence(inliers)
				score := float64(len(inliers)) * meanConf
				if score > bestScore {
					bestScore = score
					bestCenter = center
					bestInliers = inliers
					found = true
				}
			}
		}
	}

	if !found {
		return nil, false
	}
	cart := geo.LatLonToCartesian(bestCenter)
	return e.buildResult(cart, 0, bestInliers, obs, MethodRANSAC), true
}

func countInliers(center geo.Point, obs []Observation) []Observation {
	var inliers []Observation
	for _, o := range obs {
		backBearing := geo.Bearing(geo.Point{Lat: o.Lat, Lon: o.Lon}, center)
		if geo.AngularDifference(backBearing, o.Bearing) < ransacInlierDegrees {
			inliers = append(inliers, o)
		}
	}
	return inliers
}

func meanConfidence(obs []Observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range obs {
		sum += o.Confidence
	}
	return sum / float64(len(obs))
}

// leastSquares refines the seed estimate by minimizing the confidence-weighted
// sum of squared angular errors using a quasi-Newton method.
func (e *Engine) leastSquares(seed *Result, obs []Observation) (*Result, bool) {
	objective := func(x []float64) float64 {
		p := geo.Point{Lat: x[0], Lon: x[1]}
		sum := 0.0
		for _, o := range obs {
			predicted := geo.Bearing(geo.Point{Lat: o.Lat, Lon: o.Lon}, p)
			angErr := geo.AngularDifference(predicted, o.Bearing)
			weighted := o.Confidence * angErr
			sum += weighted * weighted
		}
		return sum
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, []float64{seed.Lat, seed.Lon}, nil, &optimize.BFGS{})
	if err != nil || result == nil || result.Status == optimize.Failure {
		return nil, false
	}

	refined := geo.Point{Lat: result.X[0], Lon: result.X[1]}
	cart := geo.LatLonToCartesian(refined)
	return e.buildResult(cart, seed.Alt, obs, obs, MethodLeastSquares), true
}

// buildResult assembles the confidence blend and uncertainty figures shared
// by all three methods, given the set of observations that contributed.
func (e *Engine) buildResult(center geo.Cartesian, alt float64, used []Observation, all []Observation, method Method) *Result {
	p := geo.CartesianToLatLon(center)
	return e.finalizeResult(p, alt, used, method)
}

func (e *Engine) finalizeResult(p geo.Point, alt float64, used []Observation, method Method) *Result {
	bearings := make([]float64, 0, len(used))
	ids := make([]string, 0, len(used))
	for _, o := range used {
		bearings = append(bearings, o.Bearing)
		ids = append(ids, o.DetectionID)
	}
	sort.Strings(ids)

	spread := geo.AngularSpread(bearings)
	baselineKm := baselineDistanceKm(used)
	meanConf := meanConfidence(used)

	confidence := 0.4*meanConf +
		0.3*math.Min(1, spread/90.0) +
		0.2*math.Min(1, baselineKm/10.0) +
		0.1*math.Min(1, float64(len(used))/4.0)
	confidence = clip01(confidence)

	uncertainty := 500.0
	if spread < 30 {
		uncertainty = 2000.0
	} else if spread < 60 {
		uncertainty = 1000.0
	}

	return &Result{
		Lat:               p.Lat,
		Lon:               p.Lon,
		Alt:               alt,
		Confidence:        confidence,
		UncertaintyMeters: uncertainty,
		ObservationIDs:    ids,
		Method:            method,
		QualityMetrics: map[string]float64{
			"angular_spread_deg": spread,
			"baseline_km":        baselineKm,
			"observation_count":  float64(len(used)),
		},
	}
}

func baselineDistanceKm(obs []Observation) float64 {
	if len(obs) < 2 {
		return 0
	}
	maxDist := 0.0
	for i := 0; i < len(obs); i++ {
		for j := i + 1; j < len(obs); j++ {
			d := geo.Haversine(geo.Point{Lat: obs[i].Lat, Lon: obs[i].Lon}, geo.Point{Lat: obs[j].Lat, Lon: obs[j].Lon})
			if d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist / 1000.0
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
