package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Sample is one (environmental cell, observed risk label) training pair.
type Sample struct {
	Cell  Cell
	Label float64 // observed risk in [0, 1], thresholded at 0.5 for classification
}

const minTrainingSamples = 10

// trainedModel holds a fitted logistic classifier plus its isotonic
// calibration curve and per-feature standardization statistics.
type trainedModel struct {
	mean        []float64
	std         []float64
	coef        []float64
	intercept   float64
	calibration *isotonicCurve
}

// Fit trains the logistic-regression-plus-isotonic-calibration pipeline
// described in the spec's "trained mode", and installs it on the engine.
// It requires at least 10 samples, matching the reference implementation's
// minimum training-set size.
func (e *Engine) Fit(samples []Sample) error {
	if len(samples) < minTrainingSamples {
		return fmt.Errorf("risk: need at least %d training samples, got %d", minTrainingSamples, len(samples))
	}

	X := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		X[i] = extractFeatures(s.Cell)
		if s.Label >= 0.5 {
			y[i] = 1
		} else {
			y[i] = 0
		}
	}

	mean, std := standardize(X)
	Xs := applyStandardization(X, mean, std)

	coef, intercept := fitLogisticRegression(Xs, y, balancedWeights(y))

	probs := make([]float64, len(Xs))
	for i, row := range Xs {
		probs[i] = sigmoid(dotAdd(coef, row, intercept))
	}

	curve := fitIsotonic(probs, y)

	e.model = &trainedModel{mean: mean, std: std, coef: coef, intercept: intercept, calibration: curve}
	return nil
}

func (m *trainedModel) score(c Cell) Score {
	features := extractFeatures(c)
	scaled := make([]float64, len(features))
	for i, v := range features {
		if m.std[i] == 0 {
			scaled[i] = 0
		} else {
			scaled[i] = (v - m.mean[i]) / m.std[i]
		}
	}

	prob := sigmoid(dotAdd(m.coef, scaled, m.intercept))
	calibrated := m.calibration.predict(prob)

	factors := make(map[string]float64)
	for i, name := range featureNames {
		if math.Abs(m.coef[i]) > 0.1 {
			factors[name] = m.coef[i] * features[i]
		}
	}

	return Score{
		Lat:                 c.Lat,
		Lon:                 c.Lon,
		Risk:                clip01(calibrated),
		Confidence:          confidenceFor(c),
		ContributingFactors: factors,
		Timestamp:           c.Timestamp,
	}
}

func standardize(X [][]float64) (mean, std []float64) {
	n := len(X)
	d := len(X[0])
	mean = make([]float64, d)
	std = make([]float64, d)

	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	for _, row := range X {
		for j, v := range row {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func applyStandardization(X [][]float64, mean, std []float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - mean[j]) / std[j]
		}
		out[i] = scaled
	}
	return out
}

// balancedWeights mirrors sklearn's class_weight='balanced': each sample is
// weighted inversely proportional to its class frequency.
func balancedWeights(y []float64) []float64 {
	var nPos, nNeg float64
	for _, v := range y {
		if v == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	n := float64(len(y))
	wPos, wNeg := 1.0, 1.0
	if nPos > 0 {
		wPos = n / (2 * nPos)
	}
	if nNeg > 0 {
		wNeg = n / (2 * nNeg)
	}

	weights := make([]float64, len(y))
	for i, v := range y {
		if v == 1 {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights
}

// fitLogisticRegression fits weighted L2-regularized logistic regression by
// batch gradient descent, using gonum/mat for the per-iteration linear algebra.
func fitLogisticRegression(X [][]float64, y, weights []float64) (coef []float64, intercept float64) {
	n := len(X)
	d := len(X[0])

	theta := mat.NewVecDense(d, nil)
	b := 0.0

	const (
		lr       = 0.1
		l2       = 0.01
		maxIters = 500
	)

	rows := make([]*mat.VecDense, n)
	for i, row := range X {
		rows[i] = mat.NewVecDense(d, row)
	}

	for iter := 0; iter < maxIters; iter++ {
		gradTheta := mat.NewVecDense(d, nil)
		gradB := 0.0

		for i := 0; i < n; i++ {
			z := mat.Dot(theta, rows[i]) + b
			pred := sigmoid(z)
			err := (pred - y[i]) * weights[i]

			scaled := mat.NewVecDense(d, nil)
			scaled.ScaleVec(err, rows[i])
			gradTheta.AddVec(gradTheta, scaled)
			gradB += err
		}

		gradTheta.ScaleVec(1.0/float64(n), gradTheta)
		l2Term := mat.NewVecDense(d, nil)
		l2Term.ScaleVec(l2, theta)
		gradTheta.AddVec(gradTheta, l2Term)
		gradB /= float64(n)

		gradTheta.ScaleVec(lr, gradTheta)
		theta.SubVec(theta, gradTheta)
		b -= lr * gradB
	}

	coef = make([]float64, d)
	for i := 0; i < d; i++ {
		coef[i] = theta.AtVec(i)
	}
	return coef, b
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dotAdd(coef, features []float64, intercept float64) float64 {
	sum := intercept
	for i, c := range coef {
		sum += c * features[i]
	}
	return sum
}

// isotonicCurve is a monotonically non-decreasing piecewise-linear curve fitted by
// the pool-adjacent-violators algorithm (PAVA). No isotonic-regression
// library is reachable from this corpus's dependency set, so this is
// implemented directly over plain float64 slices.
type isotonicCurve struct {
	x []float64
	y []float64
}

func fitIsotonic(x, y []float64) *isotonicCurve {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	sortedX := make([]float64, n)
	values := make([]float64, n)
	weights := make([]float64, n)
	for i, id := range idx {
		sortedX[i] = x[id]
		values[i] = y[id]
		weights[i] = 1
	}

	// Pool-adjacent-violators: merge adjacent blocks while the sequence
	// violates monotonicity, averaging each block's weighted value.
	i := 0
	for i < len(values)-1 {
		if values[i] > values[i+1] {
			merged := (values[i]*weights[i] + values[i+1]*weights[i+1]) / (weights[i] + weights[i+1])
			weights[i] += weights[i+1]
			values[i] = merged
			values = append(values[:i+1], values[i+2:]...)
			weights = append(weights[:i+1], weights[i+2:]...)
			sortedX = append(sortedX[:i+1], sortedX[i+2:]...)
			if i > 0 {
				i--
			}
			continue
		}
		i++
	}

	return &isotonicCurve{x: sortedX, y: values}
}

// predict returns the calibrated value at v by linear interpolation between
// fitted points,
// clamping to the fitted range (out_of_bounds='clip' in the reference).
func (c *isotonicCurve) predict(v float64) float64 {
	if len(c.x) == 0 {
		return v
	}
	if v <= c.x[0] {
		return c.y[0]
	}
	if v >= c.x[len(c.x)-1] {
		return c.y[len(c.y)-1]
	}
	for i := 1; i < len(c.x); i++ {
		if v <= c.x[i] {
			lo, hi := c.x[i-1], c.x[i]
			if hi == lo {
				return c.y[i]
			}
			t := (v - lo) / (hi - lo)
			return c.y[i-1] + t*(c.y[i]-c.y[i-1])
		}
	}
	return c.y[len(c.y)-1]
}
