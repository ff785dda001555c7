package ik

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

func newTestSolver(t *testing.T, minimizer Minimizer, opts Options) *InverseSolver {
	t.Helper()
	fk := kinematics.NewForwardSolver(kinematics.StaticParams(referenceframe.DefaultDHParams()))
	return NewInverseSolver(fk, minimizer, opts, logging.NewTestLogger(t))
}

func minimizersUnderTest(t *testing.T) []Minimizer {
	t.Helper()
	logger := logging.NewTestLogger(t)
	minimizers := []Minimizer{CreateGonumMinimizer(logger, 0)}
	if def := NewDefaultMinimizer(logger, 0); def.Name() != GonumSolverName {
		minimizers = append(minimizers, def)
	}
	return minimizers
}

func targetFor(t *testing.T, joints []float64) r3.Vector {
	t.Helper()
	pose, err := kinematics.NewChain(referenceframe.DefaultDHParams()).ComputePose(joints)
	test.That(t, err, test.ShouldBeNil)
	return pose.Point
}

func TestSolveConsistency(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	chain := kinematics.NewChain(referenceframe.DefaultDHParams())
	for _, m := range minimizersUnderTest(t) {
		t.Run(m.Name(), func(t *testing.T) {
			solver := newTestSolver(t, m, Options{})
			for _, joints := range [][]float64{
				DefaultSeed(),
				{10, -80, 80, 5, 10, 0},
				{-15, -95, 100, 0, 20, 0},
			} {
				target := targetFor(t, joints)
				solution, err := solver.Solve(context.Background(), target, limits, DefaultSeed())
				test.That(t, err, test.ShouldBeNil)
				test.That(t, referenceframe.CheckInputs(solution.Configuration, limits), test.ShouldBeNil)

				pose, err := chain.ComputePose(solution.Configuration)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, pose.Point.Distance(target), test.ShouldBeLessThanOrEqualTo, 1e-3)
				test.That(t, solution.Attempts, test.ShouldEqual, 1)
				test.That(t, solution.Evaluations, test.ShouldBeGreaterThan, 0)
			}
		})
	}
}

func TestSolveNeverLeavesBounds(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	//nolint:gosec
	r := rand.New(rand.NewSource(42))
	for _, m := range minimizersUnderTest(t) {
		t.Run(m.Name(), func(t *testing.T) {
			solver := newTestSolver(t, m, Options{Restarts: 2, RandSeed: 3})
			for i := 0; i < 10; i++ {
				target := targetFor(t, referenceframe.RandomInputs(limits, r))
				solution, err := solver.Solve(context.Background(), target, limits, DefaultSeed())
				if err != nil {
					test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
					continue
				}
				test.That(t, referenceframe.CheckInputs(solution.Configuration, limits), test.ShouldBeNil)
				test.That(t, math.IsNaN(solution.Score), test.ShouldBeFalse)
			}
		})
	}
}

func TestSolveUnreachable(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	reach := referenceframe.Reach(referenceframe.DefaultDHParams())
	for _, m := range minimizersUnderTest(t) {
		t.Run(m.Name(), func(t *testing.T) {
			solver := newTestSolver(t, m, Options{})
			for _, target := range []r3.Vector{
				{X: 5000, Y: 5000, Z: 5000},
				{X: -1e6, Z: 3},
			} {
				solution, err := solver.Solve(context.Background(), target, limits, DefaultSeed())
				if err != nil {
					test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
					continue
				}
				test.That(t, solution.Exact, test.ShouldBeFalse)
				test.That(t, referenceframe.CheckInputs(solution.Configuration, limits), test.ShouldBeNil)
				// The best it can do is stretch toward the target.
				test.That(t, math.Sqrt(solution.Score), test.ShouldBeGreaterThanOrEqualTo, target.Norm()-reach)
			}
		})
	}
}

func TestSolveInvalidInput(t *testing.T) {
	solver := newTestSolver(t, CreateGonumMinimizer(logging.NewTestLogger(t), 0), Options{})
	limits := referenceframe.DefaultJointLimits()
	ctx := context.Background()

	_, err := solver.Solve(ctx, r3.Vector{X: math.NaN()}, limits, DefaultSeed())
	test.That(t, errors.Is(err, kinematics.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "target x")

	_, err = solver.Solve(ctx, r3.Vector{Z: math.Inf(-1)}, limits, DefaultSeed())
	test.That(t, err.Error(), test.ShouldContainSubstring, "target z")

	_, err = solver.Solve(ctx, r3.Vector{X: 300}, limits[:5], DefaultSeed())
	test.That(t, errors.Is(err, kinematics.ErrInvalidInput), test.ShouldBeTrue)

	_, err = solver.Solve(ctx, r3.Vector{X: 300}, limits, []float64{0, -90, 90})
	test.That(t, errors.Is(err, kinematics.ErrInvalidInput), test.ShouldBeTrue)

	// J3 must stay at or above 1 degree.
	_, err = solver.Solve(ctx, r3.Vector{X: 300}, limits, []float64{0, -90, 0, 0, 0, 0})
	test.That(t, errors.Is(err, kinematics.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "J3")
}

func TestSolveCanceled(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	target := targetFor(t, []float64{10, -80, 80, 5, 10, 0})
	for _, m := range minimizersUnderTest(t) {
		t.Run(m.Name(), func(t *testing.T) {
			solver := newTestSolver(t, m, Options{Restarts: 5})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := solver.Solve(ctx, target, limits, DefaultSeed())
			test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
			test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
		})
	}
}

// fakeMinimizer returns canned results in order.
type fakeMinimizer struct {
	results []*Result
	calls   int
	seeds   [][]float64
}

func (fm *fakeMinimizer) Name() string { return "fake" }

func (fm *fakeMinimizer) Minimize(
	ctx context.Context,
	cost CostFunc,
	seed []float64,
	limits []referenceframe.Limit,
) (*Result, error) {
	fm.seeds = append(fm.seeds, seed)
	res := fm.results[fm.calls%len(fm.results)]
	fm.calls++
	return res, nil
}

func TestSolveAcceptance(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	target := targetFor(t, DefaultSeed())
	ctx := context.Background()

	t.Run("non-converged result is a failure", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{
			{Configuration: []float64{1, -45, 45, 0, 0, 0}, Score: 12, Status: "MAXEVAL_REACHED"},
		}}
		_, err := newTestSolver(t, fm, Options{}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "MAXEVAL_REACHED")
	})

	t.Run("non-finite configuration is a failure", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{
			{Configuration: []float64{0, math.NaN(), 90, 0, 0, 0}, Converged: true},
		}}
		_, err := newTestSolver(t, fm, Options{}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "J2")
	})

	t.Run("missing configuration is a failure", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{{Converged: true, Status: "FORCED_STOP"}}}
		_, err := newTestSolver(t, fm, Options{}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
	})

	t.Run("converged result is clamped into limits", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{
			{Configuration: []float64{0, -90, 90, 0, 0, 155.0000001}, Converged: true},
		}}
		solution, err := newTestSolver(t, fm, Options{}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, solution.Configuration[5], test.ShouldEqual, 155.)
		test.That(t, referenceframe.CheckInputs(solution.Configuration, limits), test.ShouldBeNil)
	})

	t.Run("restarts keep the best result", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{
			{Configuration: []float64{0, -80, 90, 0, 0, 0}, Converged: true},
			{Configuration: []float64{1, -90, 90, 0, 0, 0}, Converged: true},
			{Configuration: []float64{0, -100, 90, 0, 0, 0}, Converged: true},
		}}
		solution, err := newTestSolver(t, fm, Options{Restarts: 2}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fm.calls, test.ShouldEqual, 3)
		test.That(t, solution.Attempts, test.ShouldEqual, 3)
		test.That(t, solution.Configuration, test.ShouldResemble, []float64{1, -90, 90, 0, 0, 0})
		test.That(t, solution.Exact, test.ShouldBeFalse)

		// The first attempt always starts at the given seed, the rest inside the limits.
		test.That(t, fm.seeds[0], test.ShouldResemble, DefaultSeed())
		for _, seed := range fm.seeds[1:] {
			test.That(t, referenceframe.CheckInputs(seed, limits), test.ShouldBeNil)
		}
	})

	t.Run("an exact result stops restarting", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{{Configuration: DefaultSeed(), Converged: true}}}
		solution, err := newTestSolver(t, fm, Options{Restarts: 4}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fm.calls, test.ShouldEqual, 1)
		test.That(t, solution.Exact, test.ShouldBeTrue)
	})

	t.Run("a good enough score is accepted without convergence", func(t *testing.T) {
		fm := &fakeMinimizer{results: []*Result{{Configuration: DefaultSeed(), Score: 1e-12, Status: "MAXTIME_REACHED"}}}
		solution, err := newTestSolver(t, fm, Options{}).Solve(ctx, target, limits, DefaultSeed())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, solution.Exact, test.ShouldBeTrue)
	})
}

func TestSolveTimeout(t *testing.T) {
	limits := referenceframe.DefaultJointLimits()
	fm := &slowMinimizer{}
	solver := newTestSolver(t, fm, Options{Timeout: 10 * time.Millisecond, Restarts: 100})
	_, err := solver.Solve(context.Background(), r3.Vector{X: 300, Z: 300}, limits, DefaultSeed())
	test.That(t, errors.Is(err, ErrIKFailure), test.ShouldBeTrue)
	test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
	test.That(t, fm.calls, test.ShouldEqual, 1)
}

type slowMinimizer struct {
	calls int
}

func (sm *slowMinimizer) Name() string { return "slow" }

func (sm *slowMinimizer) Minimize(
	ctx context.Context,
	cost CostFunc,
	seed []float64,
	limits []referenceframe.Limit,
) (*Result, error) {
	sm.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestNewMinimizer(t *testing.T) {
	logger := logging.NewTestLogger(t)

	m, err := NewMinimizer("gonum", logger, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, GonumSolverName)

	m, err = NewMinimizer("", logger, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, NewDefaultMinimizer(logger, 10).Name())

	_, err = NewMinimizer("bfgs", logger, 10)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown solver")
}

func TestSolveReadsCurrentParams(t *testing.T) {
	params := referenceframe.DefaultDHParams()
	src := &swappableSource{params: params}
	fk := kinematics.NewForwardSolver(src)
	solver := NewInverseSolver(fk, CreateGonumMinimizer(logging.NewTestLogger(t), 0), Options{}, logging.NewTestLogger(t))

	params[0].D = 270
	target := targetFor(t, DefaultSeed()).Add(r3.Vector{Z: 100})
	src.params = params

	solution, err := solver.Solve(context.Background(), target, referenceframe.DefaultJointLimits(), DefaultSeed())
	test.That(t, err, test.ShouldBeNil)
	pose, err := fk.Solve(solution.Configuration)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point.Distance(target), test.ShouldBeLessThanOrEqualTo, 1e-3)
}

type swappableSource struct {
	params [referenceframe.DoF]referenceframe.DHParam
}

func (s *swappableSource) DHParams() [referenceframe.DoF]referenceframe.DHParam {
	return s.params
}
