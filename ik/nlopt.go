//go:build !windows && !no_cgo

package ik

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

// NloptMinimizer runs sequential quadratic programming (SLSQP) with box bounds through nlopt.
type NloptMinimizer struct {
	logger         logging.Logger
	maxEvaluations int
	epsilon        float64
	goalThreshold  float64
}

type optimizeReturn struct {
	solution []float64
	score    float64
	err      error
}

// CreateNloptMinimizer creates an nlopt backed minimizer. If maxEvaluations is less than 1, it will be
// set to the default of 5000.
func CreateNloptMinimizer(logger logging.Logger, maxEvaluations int) (Minimizer, error) {
	if maxEvaluations < 1 {
		maxEvaluations = defaultMaxEvaluations
	}
	return &NloptMinimizer{
		logger:         logger,
		maxEvaluations: maxEvaluations,
		// The absolute smallest value able to be represented by a float64
		epsilon:       math.Nextafter(1, 2) - 1,
		goalThreshold: defaultGoalThreshold,
	}, nil
}

// NewDefaultMinimizer returns the nlopt minimizer on builds with cgo.
func NewDefaultMinimizer(logger logging.Logger, maxEvaluations int) Minimizer {
	//nolint:errcheck
	m, _ := CreateNloptMinimizer(logger, maxEvaluations)
	return m
}

// Name returns "nlopt".
func (nm *NloptMinimizer) Name() string {
	return NloptSolverName
}

// Minimize runs SLSQP once from seed. A returned error means the optimizer could not be set up or ctx
// ended; a run that simply fails to converge is reported through Result.Converged.
func (nm *NloptMinimizer) Minimize(
	ctx context.Context,
	cost CostFunc,
	seed []float64,
	limits []referenceframe.Limit,
) (*Result, error) {
	if len(limits) == 0 {
		return nil, errBadBounds
	}
	if len(seed) != len(limits) {
		return nil, referenceframe.NewIncorrectDoFError(len(seed), len(limits))
	}
	lowerBound, upperBound := referenceframe.LimitsToArrays(limits)

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(len(seed)))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	// Determine optimal jump values; start with default, and if gradient is zero, increase to try to avoid underflow.
	jump := calcJump(defaultJump, seed, limits, cost)

	evaluations := 0
	scratch := make([]float64, len(seed))

	// x is our set of inputs
	// Gradient is, under the hood, a unsafe C structure that we are meant to mutate in place.
	nloptMinFunc := func(x, gradient []float64) float64 {
		evaluations++
		copy(scratch, x)
		dist := cost(scratch)
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			nm.logger.Errorw("non-finite cost in nlopt", "joints", scratch, "cost", dist)
			if err := opt.ForceStop(); err != nil {
				nm.logger.Errorw("forcestop error", "error", err)
			}
			return math.MaxFloat64
		}
		if len(gradient) > 0 {
			centralGradient(gradient, scratch, jump, limits, cost, dist)
		}
		return dist
	}

	err = multierr.Combine(
		opt.SetFtolRel(nm.epsilon),
		opt.SetFtolAbs(nm.epsilon),
		opt.SetLowerBounds(lowerBound),
		opt.SetStopVal(nm.goalThreshold),
		opt.SetUpperBounds(upperBound),
		opt.SetXtolRel(nm.epsilon),
		opt.SetXtolAbs1(nm.epsilon),
		opt.SetMinObjective(nloptMinFunc),
		opt.SetMaxEval(nm.maxEvaluations),
	)
	if deadline, ok := ctx.Deadline(); ok {
		err = multierr.Combine(err, opt.SetMaxTime(time.Until(deadline).Seconds()))
	}
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var activeSolvers sync.WaitGroup
	solveChan := make(chan *optimizeReturn, 1)
	activeSolvers.Add(1)
	utils.PanicCapturingGo(func() {
		defer activeSolvers.Done()
		solutionRaw, result, nloptErr := opt.Optimize(append([]float64{}, seed...))
		solveChan <- &optimizeReturn{solutionRaw, result, nloptErr}
	})

	var ret *optimizeReturn
	select {
	case <-ctx.Done():
		err = opt.ForceStop()
		activeSolvers.Wait()
		return nil, multierr.Combine(err, ctx.Err())
	case ret = <-solveChan:
	}
	activeSolvers.Wait()

	converged := ret.err == nil && ret.solution != nil
	status := "converged"
	switch {
	case ret.err != nil:
		// This just *happens* sometimes due to weirdnesses in nonlinear problems. The caller decides
		// whether the score is good enough anyway.
		status = ret.err.Error()
	case evaluations >= nm.maxEvaluations:
		converged = false
		status = "evaluation limit reached"
	case ctx.Err() != nil:
		converged = false
		status = "time limit reached"
	}
	nm.logger.Debugw("nlopt finished", "status", status, "score", ret.score, "evaluations", evaluations)
	return &Result{
		Configuration: ret.solution,
		Score:         ret.score,
		Converged:     converged,
		Evaluations:   evaluations,
		Status:        status,
	}, nil
}
