package holefill

import (
	"math"

	"github.com/pkg/errors"
)

// A WeightFunction converts the distance between two points into a non-negative interpolation
// weight that grows as the points get closer. It must be finite for any pair of points.
type WeightFunction interface {
	Weight(p1, p2 Point) float64
}

// The WeightFunctionFunc type is an adapter to allow the use of ordinary functions as weight
// functions.
type WeightFunctionFunc func(p1, p2 Point) float64

// Weight calls f(p1, p2).
func (f WeightFunctionFunc) Weight(p1, p2 Point) float64 {
	return f(p1, p2)
}

const (
	// DefaultEpsilon keeps the default weight finite when both points coincide.
	DefaultEpsilon = 0.01
	// DefaultZ is the default distance exponent.
	DefaultZ = 3.0
	// DefaultSigma is the default spread of the gaussian weight, in pixels.
	DefaultSigma = 2.0
)

// DefaultWeightFunction weighs points by 1 / (epsilon + d^z), where d is their euclidean
// distance. Larger z makes the weight fall off faster.
type DefaultWeightFunction struct {
	Epsilon float64 `json:"epsilon"`
	Z       float64 `json:"z"`
}

// NewDefaultWeightFunction returns the weight function with epsilon 0.01 and z 3.
func NewDefaultWeightFunction() *DefaultWeightFunction {
	return &DefaultWeightFunction{Epsilon: DefaultEpsilon, Z: DefaultZ}
}

// Weight implements WeightFunction.
func (w *DefaultWeightFunction) Weight(p1, p2 Point) float64 {
	return 1 / (w.Epsilon + math.Pow(p1.DistanceSquared(p2), w.Z/2))
}

// Validate ensures the weight stays finite and positive.
func (w *DefaultWeightFunction) Validate() error {
	if !(w.Epsilon > 0) || math.IsInf(w.Epsilon, 0) {
		return errors.Errorf("epsilon must be a positive number, got %v", w.Epsilon)
	}
	if !(w.Z > 0) || math.IsInf(w.Z, 0) {
		return errors.Errorf("z must be a positive number, got %v", w.Z)
	}
	return nil
}

// A LogWeightFunction is a WeightFunction that can also report the natural log of its weight.
// Fills use the log weights of such functions relative to the largest one, so weights that
// underflow to zero on their own still keep their proportions.
type LogWeightFunction interface {
	WeightFunction
	LogWeight(p1, p2 Point) float64
}

// GaussianWeightFunction weighs points by exp(-d^2 / (2 sigma^2)). Far away points underflow to
// a zero weight, so fills use LogWeight instead.
type GaussianWeightFunction struct {
	Sigma float64 `json:"sigma"`
}

// Weight implements WeightFunction.
func (w *GaussianWeightFunction) Weight(p1, p2 Point) float64 {
	return math.Exp(w.LogWeight(p1, p2))
}

// LogWeight implements LogWeightFunction.
func (w *GaussianWeightFunction) LogWeight(p1, p2 Point) float64 {
	return -p1.DistanceSquared(p2) / (2 * w.Sigma * w.Sigma)
}

// Validate ensures sigma is usable.
func (w *GaussianWeightFunction) Validate() error {
	if !(w.Sigma > 0) || math.IsInf(w.Sigma, 0) {
		return errors.Errorf("sigma must be a positive number, got %v", w.Sigma)
	}
	return nil
}

// InverseLinearWeightFunction weighs points by 1 / (epsilon + d).
type InverseLinearWeightFunction struct {
	Epsilon float64 `json:"epsilon"`
}

// Weight implements WeightFunction.
func (w *InverseLinearWeightFunction) Weight(p1, p2 Point) float64 {
	return 1 / (w.Epsilon + math.Sqrt(p1.DistanceSquared(p2)))
}

// Validate ensures the weight stays finite.
func (w *InverseLinearWeightFunction) Validate() error {
	if !(w.Epsilon > 0) || math.IsInf(w.Epsilon, 0) {
		return errors.Errorf("epsilon must be a positive number, got %v", w.Epsilon)
	}
	return nil
}
