package kinematics

import (
	"go.viam.com/kinecalc/referenceframe"
	"go.viam.com/kinecalc/spatialmath"
)

// ParamSource supplies the DH table to evaluate against. Implementations must return a snapshot
// that later writes do not affect.
type ParamSource interface {
	DHParams() [referenceframe.DoF]referenceframe.DHParam
}

// StaticParams is a ParamSource that never changes.
type StaticParams [referenceframe.DoF]referenceframe.DHParam

// DHParams returns the table.
func (s StaticParams) DHParams() [referenceframe.DoF]referenceframe.DHParam {
	return s
}

// ForwardSolver evaluates forward kinematics against whatever DH table its source currently
// holds. It keeps no state of its own.
type ForwardSolver struct {
	source ParamSource
}

// NewForwardSolver returns a ForwardSolver reading from source.
func NewForwardSolver(source ParamSource) *ForwardSolver {
	return &ForwardSolver{source: source}
}

// Solve returns the end effector pose for the given joint angles in degrees.
func (fs *ForwardSolver) Solve(joints []float64) (*spatialmath.Pose, error) {
	return fs.Chain().ComputePose(joints)
}

// Chain returns a chain built from the current snapshot of the source. Callers evaluating many
// configurations against one table, such as the IK objective, should hold on to it.
func (fs *ForwardSolver) Chain() *Chain {
	return NewChain(fs.source.DHParams())
}
