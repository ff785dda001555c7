package ik

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

// finite difference step in the unbounded search space, radians.
const gonumStep = 1e-7

// GonumMinimizer runs L-BFGS from gonum/optimize. Box bounds are enforced by searching over an
// unbounded variable u and mapping it into each joint range with q = mid + half·sin(u).
type GonumMinimizer struct {
	logger         logging.Logger
	maxEvaluations int
	goalThreshold  float64
}

// CreateGonumMinimizer creates a pure Go minimizer. If maxEvaluations is less than 1, it will be set
// to the default of 5000.
func CreateGonumMinimizer(logger logging.Logger, maxEvaluations int) Minimizer {
	if maxEvaluations < 1 {
		maxEvaluations = defaultMaxEvaluations
	}
	return &GonumMinimizer{logger: logger, maxEvaluations: maxEvaluations, goalThreshold: defaultGoalThreshold}
}

// Name returns "gonum".
func (gm *GonumMinimizer) Name() string {
	return GonumSolverName
}

// boxTransform maps between bounded joint values and the unbounded search space.
type boxTransform struct {
	mid, half []float64
}

func newBoxTransform(limits []referenceframe.Limit) *boxTransform {
	bt := &boxTransform{mid: make([]float64, len(limits)), half: make([]float64, len(limits))}
	for i, l := range limits {
		bt.mid[i] = (l.Max + l.Min) / 2
		bt.half[i] = (l.Max - l.Min) / 2
	}
	return bt
}

func (bt *boxTransform) toBounded(u []float64) []float64 {
	q := make([]float64, len(u))
	for i, v := range u {
		q[i] = bt.mid[i] + bt.half[i]*math.Sin(v)
	}
	return q
}

func (bt *boxTransform) toUnbounded(q []float64) []float64 {
	u := make([]float64, len(q))
	for i, v := range q {
		if bt.half[i] == 0 {
			continue
		}
		s := (v - bt.mid[i]) / bt.half[i]
		u[i] = math.Asin(math.Max(-1, math.Min(1, s)))
	}
	return u
}

// Minimize runs L-BFGS once from seed.
func (gm *GonumMinimizer) Minimize(
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
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	bt := newBoxTransform(limits)
	// Gradient evaluations go through f too, so the cap is enforced here rather than only on
	// optimizer Func calls. Past the cap f reports +Inf without touching cost.
	evaluations := 0
	capped := false
	f := func(u []float64) float64 {
		if ctx.Err() != nil {
			return math.NaN()
		}
		if evaluations >= gm.maxEvaluations {
			capped = true
			return math.Inf(1)
		}
		evaluations++
		return cost(bt.toBounded(u))
	}
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, u []float64) {
			fd.Gradient(grad, f, u, &fd.Settings{Formula: fd.Central, Step: gonumStep})
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: gm.maxEvaluations,
		GradEvaluations: gm.maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   gm.goalThreshold * 1e-2,
			Relative:   1e-12,
			Iterations: 20,
		},
	}
	if deadline, ok := ctx.Deadline(); ok {
		settings.Runtime = time.Until(deadline)
	}

	result, err := optimize.Minimize(problem, bt.toUnbounded(seed), settings, &optimize.LBFGS{})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result == nil {
		return nil, errors.Wrap(err, "gonum optimize")
	}

	status := result.Status.String()
	if err != nil {
		status = err.Error()
	}
	if capped {
		status = "evaluation limit reached"
	}
	gm.logger.Debugw("gonum finished", "status", status, "score", result.F, "evaluations", evaluations)
	converged := err == nil && !capped && isConvergedStatus(result.Status)
	if result.F <= gm.goalThreshold {
		converged = true
	}
	return &Result{
		Configuration: bt.toBounded(result.X),
		Score:         result.F,
		Converged:     converged,
		Evaluations:   evaluations,
		Status:        status,
	}, nil
}

func isConvergedStatus(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.FunctionThreshold, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	default:
		return false
	}
}
