package referenceframe

import (
	"math/rand"

	"go.uber.org/multierr"

	"go.viam.com/kinecalc/utils"
)

// Limit represents the limits of motion of one joint, in degrees.
type Limit struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies inside [Min, Max].
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Range returns Max - Min.
func (l Limit) Range() float64 {
	return l.Max - l.Min
}

// DefaultJointLimits returns the mechanical limits of joints J1..J6.
func DefaultJointLimits() []Limit {
	return []Limit{
		{Min: -170, Max: 170},
		{Min: -132, Max: 0},
		{Min: 1, Max: 141},
		{Min: -165, Max: 165},
		{Min: -105, Max: 105},
		{Min: -155, Max: 155},
	}
}

// ValidateLimits checks that there is one well formed limit per joint.
func ValidateLimits(limits []Limit) error {
	if len(limits) != DoF {
		return NewIncorrectDoFError(len(limits), DoF)
	}
	var err error
	for i, l := range limits {
		if l.Min > l.Max {
			err = multierr.Combine(err, NewInvalidLimitError(i, l))
		}
	}
	return err
}

// CheckInputs returns an error naming every joint that lies outside its limit.
func CheckInputs(joints []float64, limits []Limit) error {
	if len(joints) != len(limits) {
		return NewIncorrectDoFError(len(joints), len(limits))
	}
	var err error
	for i, v := range joints {
		if !limits[i].Contains(v) {
			err = multierr.Combine(err, NewJointOutOfBoundsError(i, v, limits[i]))
		}
	}
	return err
}

// ClampInputs returns a copy of joints with every value moved inside its limit.
func ClampInputs(joints []float64, limits []Limit) []float64 {
	out := make([]float64, len(joints))
	for i, v := range joints {
		out[i] = utils.Clamp(v, limits[i].Min, limits[i].Max)
	}
	return out
}

// LimitsToArrays splits limits into separate lower and upper bound slices.
func LimitsToArrays(limits []Limit) ([]float64, []float64) {
	var min, max []float64
	for _, limit := range limits {
		min = append(min, limit.Min)
		max = append(max, limit.Max)
	}
	return min, max
}

// RandomInputs will produce a list of valid, in-bounds joint values for the given limits.
func RandomInputs(limits []Limit, rSeed *rand.Rand) []float64 {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make([]float64, 0, len(limits))
	for _, lim := range limits {
		pos = append(pos, rSeed.Float64()*lim.Range()+lim.Min)
	}
	return pos
}
