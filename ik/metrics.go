package ik

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/spatialmath"
)

// State is a candidate configuration together with the pose it produces.
type State struct {
	Position      *spatialmath.Pose
	Configuration []float64
}

// StateMetric are functions which, given a State, produces some score. Lower is better.
// This is used for gradient descent to converge upon a goal pose, for example.
type StateMetric func(*State) float64

// CostFunc scores a joint configuration in degrees. Lower is better.
type CostFunc func(joints []float64) float64

// NewPositionOnlyMetric returns a metric scoring the squared euclidean distance, in mm², between the
// end effector and goal. Orientation is ignored.
func NewPositionOnlyMetric(goal r3.Vector) StateMetric {
	return func(state *State) float64 {
		return state.Position.Point.Sub(goal).Norm2()
	}
}

// NewChainCostFunc scores configurations of chain with metric. Configurations the chain cannot
// evaluate score +Inf.
func NewChainCostFunc(chain *kinematics.Chain, metric StateMetric) CostFunc {
	return func(joints []float64) float64 {
		pose, err := chain.ComputePose(joints)
		if err != nil {
			return math.Inf(1)
		}
		return metric(&State{Position: pose, Configuration: joints})
	}
}
