// Package ik solves position-only inverse kinematics for the six joint arm by bounded nonlinear
// minimization of the squared distance between the forward kinematics position and a target.
package ik

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
	"go.viam.com/kinecalc/utils"
)

// DefaultSeed is the configuration every solve starts from unless told otherwise, in degrees.
func DefaultSeed() []float64 {
	return []float64{0, -90, 90, 0, 0, 0}
}

// Options tune an InverseSolver. The zero value is usable.
type Options struct {
	// Timeout bounds a whole Solve call, restarts included. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Restarts is the number of additional minimizations started from random in-bounds
	// configurations when the first one does not reach GoalThreshold.
	Restarts int
	// RandSeed seeds the restart generator so solves are reproducible.
	RandSeed int64
	// GoalThreshold is the squared distance, in mm², at or below which a result is accepted even if
	// the minimizer did not report convergence. Defaults to 1e-8.
	GoalThreshold float64
}

// Solution is an accepted inverse kinematics result.
type Solution struct {
	// Configuration holds the joint angles in degrees, always inside the limits solved against.
	Configuration []float64
	// Score is the squared position error in mm².
	Score float64
	// Exact is true when Score is at or below the goal threshold.
	Exact       bool
	Evaluations int
	Attempts    int
}

// InverseSolver finds joint angles whose forward kinematics position matches a target. Each call
// evaluates against the DH table current at its start.
type InverseSolver struct {
	fk        *kinematics.ForwardSolver
	minimizer Minimizer
	opts      Options
	logger    logging.Logger
}

// NewInverseSolver returns a solver that evaluates positions with fk and searches with minimizer.
func NewInverseSolver(fk *kinematics.ForwardSolver, minimizer Minimizer, opts Options, logger logging.Logger) *InverseSolver {
	if opts.GoalThreshold <= 0 {
		opts.GoalThreshold = defaultGoalThreshold
	}
	if opts.Restarts < 0 {
		opts.Restarts = 0
	}
	return &InverseSolver{fk: fk, minimizer: minimizer, opts: opts, logger: logger}
}

// Minimizer returns the minimizer in use.
func (s *InverseSolver) Minimizer() Minimizer {
	return s.minimizer
}

// Solve searches for joint angles placing the end effector at target, starting from seed and never
// leaving limits. Inputs are validated and reported as kinematics.ErrInvalidInput; a search that does
// not succeed is reported as ErrIKFailure.
func (s *InverseSolver) Solve(
	ctx context.Context,
	target r3.Vector,
	limits []referenceframe.Limit,
	seed []float64,
) (*Solution, error) {
	if idx := utils.AllFinite([]float64{target.X, target.Y, target.Z}); idx >= 0 {
		return nil, kinematics.NewInvalidInputError("target %c is not a finite number", "xyz"[idx])
	}
	if err := referenceframe.ValidateLimits(limits); err != nil {
		return nil, kinematics.NewInvalidInputError("%v", err)
	}
	if err := kinematics.ValidateJoints(seed); err != nil {
		return nil, err
	}
	if err := referenceframe.CheckInputs(seed, limits); err != nil {
		return nil, kinematics.NewInvalidInputError("seed: %v", err)
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	chain := s.fk.Chain()
	cost := NewChainCostFunc(chain, NewPositionOnlyMetric(target))

	s.logger.Debugw("starting inverse kinematics",
		"target", target, "seed", seed, "solver", s.minimizer.Name(), "restarts", s.opts.Restarts)

	//nolint:gosec
	randSeed := rand.New(rand.NewSource(s.opts.RandSeed))
	start := append([]float64{}, seed...)

	var best *Solution
	var collectedErrs error
	evaluations := 0
	attempts := 0
	for attempt := 0; attempt <= s.opts.Restarts; attempt++ {
		if attempt > 0 {
			start = referenceframe.RandomInputs(limits, randSeed)
		}
		attempts++
		res, err := s.minimizer.Minimize(ctx, cost, start, limits)
		if err != nil {
			collectedErrs = multierr.Combine(collectedErrs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		evaluations += res.Evaluations
		candidate, err := s.accept(res, limits, cost)
		if err != nil {
			s.logger.Debugw("rejected minimization result", "attempt", attempt, "error", err)
			collectedErrs = multierr.Combine(collectedErrs, err)
			continue
		}
		if best == nil || candidate.Score < best.Score {
			best = candidate
		}
		if best.Exact {
			break
		}
	}

	if best == nil {
		return nil, multierr.Combine(NewIKFailureError("target %v after %d attempt(s)", target, attempts), collectedErrs)
	}
	best.Evaluations = evaluations
	best.Attempts = attempts
	s.logger.Debugw("inverse kinematics solved",
		"configuration", best.Configuration,
		"score", best.Score,
		"travel", floats.Distance(best.Configuration, seed, 2),
		"evaluations", evaluations,
		"attempts", attempts,
	)
	return best, nil
}

// accept turns a minimizer result into a Solution if it converged or is close enough, keeping the
// configuration within limits.
func (s *InverseSolver) accept(res *Result, limits []referenceframe.Limit, cost CostFunc) (*Solution, error) {
	if len(res.Configuration) != referenceframe.DoF {
		return nil, NewIKFailureError("minimizer returned no configuration (%s)", res.Status)
	}
	if idx := utils.AllFinite(res.Configuration); idx >= 0 {
		return nil, NewIKFailureError("minimizer returned non-finite J%d", idx+1)
	}
	if !res.Converged && !(res.Score <= s.opts.GoalThreshold) {
		return nil, NewIKFailureError("did not converge (%s), squared error %g", res.Status, res.Score)
	}
	configuration := referenceframe.ClampInputs(res.Configuration, limits)
	score := cost(configuration)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, NewIKFailureError("non-finite score for %v", configuration)
	}
	return &Solution{
		Configuration: configuration,
		Score:         score,
		Exact:         score <= s.opts.GoalThreshold,
	}, nil
}
