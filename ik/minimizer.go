package ik

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

const (
	// NloptSolverName selects the SLSQP minimizer backed by nlopt.
	NloptSolverName = "nlopt"
	// GonumSolverName selects the pure Go L-BFGS minimizer.
	GonumSolverName = "gonum"

	defaultMaxEvaluations = 5000
	// stop once the end effector is within 1e-4 mm of the goal.
	defaultGoalThreshold = 1e-8
	defaultJump          = 1e-6
)

// Result is the outcome of a single local minimization.
type Result struct {
	// Configuration is the final point, in degrees. It may be nil if the minimizer aborted.
	Configuration []float64
	Score         float64
	// Converged is true when the minimizer terminated on one of its convergence criteria rather than
	// an evaluation, time or error limit.
	Converged   bool
	Evaluations int
	Status      string
}

// Minimizer performs a bounded local minimization of cost starting from seed.
type Minimizer interface {
	Minimize(ctx context.Context, cost CostFunc, seed []float64, limits []referenceframe.Limit) (*Result, error)
	Name() string
}

// NewMinimizer returns the minimizer registered under name. An empty name selects the default for
// this build.
func NewMinimizer(name string, logger logging.Logger, maxEvaluations int) (Minimizer, error) {
	switch strings.ToLower(name) {
	case "":
		return NewDefaultMinimizer(logger, maxEvaluations), nil
	case NloptSolverName:
		return CreateNloptMinimizer(logger, maxEvaluations)
	case GonumSolverName:
		return CreateGonumMinimizer(logger, maxEvaluations), nil
	default:
		return nil, errors.Errorf("unknown solver %q, expected %q or %q", name, NloptSolverName, GonumSolverName)
	}
}

// calcJump finds, per joint, the smallest finite difference step starting at testJump that changes
// the cost, so gradients never underflow to zero.
func calcJump(testJump float64, seed []float64, limits []referenceframe.Limit, cost CostFunc) []float64 {
	jump := make([]float64, 0, len(seed))
	seedTest := append(make([]float64, 0, len(seed)), seed...)
	seedDist := cost(seed)
	for i, testVal := range seed {
		for jumpVal := testJump; jumpVal < 1; jumpVal *= 10 {
			seedTest[i] = testVal + jumpVal
			if seedTest[i] > limits[i].Max {
				seedTest[i] = testVal - jumpVal
				if seedTest[i] < limits[i].Min {
					jump = append(jump, testJump)
					break
				}
			}
			checkDist := cost(seedTest)

			// Use the smallest value that yields a change in distance
			if checkDist != seedDist {
				jump = append(jump, jumpVal)
				break
			}
		}
		seedTest[i] = testVal
		if len(jump) != i+1 {
			jump = append(jump, testJump)
		}
	}
	return jump
}

// centralGradient fills gradient with a central difference estimate of cost at x, falling back to a
// one sided difference next to a bound. x is restored before returning.
func centralGradient(gradient, x, jump []float64, limits []referenceframe.Limit, cost CostFunc, dist float64) {
	for i := range gradient {
		orig := x[i]
		switch {
		case orig+jump[i] > limits[i].Max:
			x[i] = orig - jump[i]
			gradient[i] = (dist - cost(x)) / jump[i]
		case orig-jump[i] < limits[i].Min:
			x[i] = orig + jump[i]
			gradient[i] = (cost(x) - dist) / jump[i]
		default:
			x[i] = orig + jump[i]
			up := cost(x)
			x[i] = orig - jump[i]
			down := cost(x)
			gradient[i] = (up - down) / (2 * jump[i])
		}
		x[i] = orig
	}
}
