// Package calculator is the entry point used by shells: forward and inverse kinematics over the
// live DH table, plus reading and replacing that table.
package calculator

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/kinecalc/ik"
	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/paramstore"
	"go.viam.com/kinecalc/referenceframe"
)

// EndEffector is a forward kinematics result: position in mm and ZYX Euler angles in degrees.
type EndEffector struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	// GimbalLocked is set when pitch is ±90°, where yaw and roll are not unique.
	GimbalLocked bool `json:"gimbal_locked"`
	// Quaternion is the orientation taken straight from the chain transform. Unlike the Euler
	// angles it is unique up to sign at gimbal lock.
	Quaternion quat.Number `json:"quaternion"`
}

func (ee EndEffector) String() string {
	return fmt.Sprintf("Position: x = %.2f, y = %.2f, z = %.2f\nOrientation: Yaw = %.2f°, Pitch = %.2f°, Roll = %.2f°",
		ee.X, ee.Y, ee.Z, ee.Yaw, ee.Pitch, ee.Roll)
}

// Config holds the knobs of a Calculator. The zero value uses the factory limits, the fixed seed
// and the default minimizer.
type Config struct {
	Limits []referenceframe.Limit
	Seed   []float64
	// Solver names the minimizer, see ik.NewMinimizer. Ignored when Minimizer is set.
	Solver         string
	Minimizer      ik.Minimizer
	MaxEvaluations int
	IK             ik.Options
}

// Calculator ties the parameter store to the forward and inverse solvers.
type Calculator struct {
	store  *paramstore.Store
	fk     *kinematics.ForwardSolver
	ik     *ik.InverseSolver
	logger logging.Logger

	mu     sync.RWMutex
	limits []referenceframe.Limit
	seed   []float64
}

// New returns a Calculator evaluating against store.
func New(store *paramstore.Store, cfg Config, logger logging.Logger) (*Calculator, error) {
	limits := cfg.Limits
	if limits == nil {
		limits = referenceframe.DefaultJointLimits()
	}
	if err := referenceframe.ValidateLimits(limits); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == nil {
		seed = ik.DefaultSeed()
	}
	if err := kinematics.ValidateJoints(seed); err != nil {
		return nil, err
	}
	if err := referenceframe.CheckInputs(seed, limits); err != nil {
		return nil, kinematics.NewInvalidInputError("seed: %v", err)
	}

	minimizer := cfg.Minimizer
	if minimizer == nil {
		var err error
		if minimizer, err = ik.NewMinimizer(cfg.Solver, logger.Sublogger("ik"), cfg.MaxEvaluations); err != nil {
			return nil, err
		}
	}
	fk := kinematics.NewForwardSolver(store)
	return &Calculator{
		store:  store,
		fk:     fk,
		ik:     ik.NewInverseSolver(fk, minimizer, cfg.IK, logger.Sublogger("ik")),
		logger: logger,
		limits: append([]referenceframe.Limit{}, limits...),
		seed:   append([]float64{}, seed...),
	}, nil
}

// NewDefault returns a Calculator over the factory DH table with default settings.
func NewDefault(logger logging.Logger) (*Calculator, error) {
	model := referenceframe.DefaultArmModel()
	return New(paramstore.New(model.Params, logger.Sublogger("params")), Config{Limits: model.Limits}, logger)
}

// Store returns the parameter store the calculator evaluates against.
func (c *Calculator) Store() *paramstore.Store {
	return c.store
}

// Limits returns the joint limits inverse kinematics is bounded by.
func (c *Calculator) Limits() []referenceframe.Limit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]referenceframe.Limit{}, c.limits...)
}

// SolverName returns the name of the minimizer used for inverse kinematics.
func (c *Calculator) SolverName() string {
	return c.ik.Minimizer().Name()
}

// ComputeForward returns the end effector pose for joint angles in degrees.
func (c *Calculator) ComputeForward(joints []float64) (EndEffector, error) {
	pose, err := c.fk.Solve(joints)
	if err != nil {
		return EndEffector{}, err
	}
	yaw, pitch, roll := pose.Orientation.Degrees()
	ee := EndEffector{
		X:            pose.Point.X,
		Y:            pose.Point.Y,
		Z:            pose.Point.Z,
		Yaw:          yaw,
		Pitch:        pitch,
		Roll:         roll,
		GimbalLocked: pose.Orientation.IsGimbalLocked(),
		Quaternion:   pose.Quaternion(),
	}
	if ee.GimbalLocked {
		c.logger.Warnw("pitch is at ±90°, yaw and roll are not unique", "joints", joints)
	}
	return ee, nil
}

// ComputeForwardText parses one decimal string per joint, then behaves like ComputeForward.
func (c *Calculator) ComputeForwardText(fields []string) (EndEffector, error) {
	joints, err := ParseJoints(fields)
	if err != nil {
		return EndEffector{}, err
	}
	return c.ComputeForward(joints)
}

// ComputeInverse returns joint angles in degrees that place the end effector at (x, y, z),
// searching from the configured seed within the configured limits. Only position is matched.
// A solve always sees the DH table and limits of one arm file; LoadModelFile waits for it.
func (c *Calculator) ComputeInverse(ctx context.Context, x, y, z float64) ([]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	target := r3.Vector{X: x, Y: y, Z: z}
	solution, err := c.ik.Solve(ctx, target, c.limits, c.seed)
	if err != nil {
		return nil, err
	}
	if !solution.Exact {
		fields := []interface{}{"target", target, "squared_error", solution.Score}
		if pose, err := c.fk.Solve(solution.Configuration); err == nil {
			fields = append(fields, "distance_mm", pose.DistanceTo(target))
		}
		c.logger.Infow("target not reached exactly, returning the closest configuration found", fields...)
	}
	return solution.Configuration, nil
}

// ComputeInverseText parses the target coordinates, then behaves like ComputeInverse.
func (c *Calculator) ComputeInverseText(ctx context.Context, x, y, z string) ([]float64, error) {
	target, err := ParseTarget(x, y, z)
	if err != nil {
		return nil, err
	}
	return c.ComputeInverse(ctx, target.X, target.Y, target.Z)
}

// JointPositions returns the origin of the base and every link frame for joint angles in degrees.
func (c *Calculator) JointPositions(joints []float64) ([]r3.Vector, error) {
	return c.fk.Chain().JointPositions(joints)
}

// GetDHParameters returns a snapshot of the DH table.
func (c *Calculator) GetDHParameters() [referenceframe.DoF]referenceframe.DHParam {
	return c.store.Get()
}

// SetDHParameters replaces the DH table from six "theta,d,a,alpha,offset" rows. On failure the
// table is unchanged and the error wraps paramstore.ErrParseFailure.
func (c *Calculator) SetDHParameters(rows []string) error {
	return c.store.SetRows(rows)
}

// LoadModelFile replaces the DH table, and the joint limits, from a YAML or JSON arm file. Files
// without joint_limits get the factory limits.
func (c *Calculator) LoadModelFile(path string) (*referenceframe.ArmModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	model, err := c.store.LoadFile(path)
	if err != nil {
		return nil, err
	}
	c.limits = append([]referenceframe.Limit{}, model.Limits...)
	if err := referenceframe.CheckInputs(c.seed, model.Limits); err != nil {
		c.logger.Warnw("inverse kinematics seed is outside the loaded joint limits", "file", path, "error", err)
	}
	return model, nil
}
