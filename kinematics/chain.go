package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/kinecalc/referenceframe"
	"go.viam.com/kinecalc/spatialmath"
)

// Chain is an ordered, base to tip, list of DH links.
type Chain struct {
	params [referenceframe.DoF]referenceframe.DHParam
}

// NewChain creates a chain from a DH table. The table is copied.
func NewChain(params [referenceframe.DoF]referenceframe.DHParam) *Chain {
	return &Chain{params: params}
}

// Params returns a copy of the DH table of the chain.
func (c *Chain) Params() [referenceframe.DoF]referenceframe.DHParam {
	return c.params
}

// Transform composes the link transforms for the given joint angles (degrees) into the
// transform from the base to the end effector. Links are multiplied strictly base to tip,
// T = T0·T1·…·T5.
func (c *Chain) Transform(joints []float64) (mgl64.Mat4, error) {
	if err := ValidateJoints(joints); err != nil {
		return mgl64.Mat4{}, err
	}
	total := mgl64.Ident4()
	for i, p := range c.params {
		total = total.Mul4(LinkTransform(p, joints[i]))
	}
	return total, nil
}

// ComputePose returns the end effector position and ZYX orientation for the given joint angles.
// Orientation is degenerate when the resulting pitch is ±90°; see
// spatialmath.NewEulerAnglesFromTransform.
func (c *Chain) ComputePose(joints []float64) (*spatialmath.Pose, error) {
	total, err := c.Transform(joints)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPoseFromTransform(total), nil
}

// JointPositions returns the origin of the base frame followed by the origin of each link frame,
// so the last element is the end effector position.
func (c *Chain) JointPositions(joints []float64) ([]r3.Vector, error) {
	if err := ValidateJoints(joints); err != nil {
		return nil, err
	}
	positions := make([]r3.Vector, 0, referenceframe.DoF+1)
	positions = append(positions, r3.Vector{})
	total := mgl64.Ident4()
	for i, p := range c.params {
		total = total.Mul4(LinkTransform(p, joints[i]))
		positions = append(positions, r3.Vector{X: total.At(0, 3), Y: total.At(1, 3), Z: total.At(2, 3)})
	}
	return positions, nil
}
