// Package referenceframe describes the geometry of the 6-DOF arm: the Denavit-Hartenberg
// parameters of each link and the mechanical limits of each joint.
package referenceframe

import (
	"fmt"
	"math"

	"go.viam.com/kinecalc/utils"
)

// DoF is the number of actuated joints, and therefore DH records, of the arm.
const DoF = 6

// DHParam holds the Denavit-Hartenberg description of one link. Angles are in degrees and
// lengths in millimeters.
type DHParam struct {
	// Theta is the nominal (home) joint angle. It is carried for display and as a default joint
	// value; forward kinematics uses the commanded joint angle instead.
	Theta float64 `json:"theta" yaml:"theta"`
	// D is the link offset along the previous z axis.
	D float64 `json:"d" yaml:"d"`
	// A is the link length along the new x axis.
	A float64 `json:"a" yaml:"a"`
	// Alpha is the link twist about the new x axis.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// Offset is the fixed mechanical offset added to the commanded joint angle.
	Offset float64 `json:"offset" yaml:"offset"`
}

// DefaultDHParams returns the factory DH table, base to tip.
func DefaultDHParams() [DoF]DHParam {
	return [DoF]DHParam{
		{Theta: 0, D: 170, A: 75, Alpha: -90, Offset: 0},
		{Theta: -90, D: 0, A: 330, Alpha: 0, Offset: 0},
		{Theta: 0, D: 0, A: 0, Alpha: -90, Offset: 90},
		{Theta: 0, D: -240, A: 0, Alpha: -90, Offset: 0},
		{Theta: 0, D: 0, A: 0, Alpha: -90, Offset: 0},
		{Theta: 180, D: -40, A: 0, Alpha: 0, Offset: 0},
	}
}

// Validate returns an error if any value is NaN or infinite.
func (p DHParam) Validate() error {
	if idx := utils.AllFinite(p.Values()); idx >= 0 {
		return NewNonFiniteParamError(dhFieldNames[idx], p.Values()[idx])
	}
	return nil
}

// Values returns the record in row order: theta, d, a, alpha, offset.
func (p DHParam) Values() []float64 {
	return []float64{p.Theta, p.D, p.A, p.Alpha, p.Offset}
}

// String formats the record as a comma separated row that ParseDHParamRow accepts.
func (p DHParam) String() string {
	return fmt.Sprintf("%g,%g,%g,%g,%g", p.Theta, p.D, p.A, p.Alpha, p.Offset)
}

// HomeAngles returns the nominal Theta of every joint.
func HomeAngles(params [DoF]DHParam) []float64 {
	home := make([]float64, 0, DoF)
	for _, p := range params {
		home = append(home, p.Theta)
	}
	return home
}

// Reach returns the sum of the absolute link lengths and offsets, an upper bound on the distance
// from the base origin to the end effector.
func Reach(params [DoF]DHParam) float64 {
	reach := 0.
	for _, p := range params {
		reach += math.Abs(p.A) + math.Abs(p.D)
	}
	return reach
}

var dhFieldNames = []string{"theta", "d", "a", "alpha", "offset"}
