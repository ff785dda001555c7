package cli

import (
	"context"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"go.viam.com/kinecalc/calculator"
	"go.viam.com/kinecalc/ik"
	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/paramstore"
	"go.viam.com/kinecalc/referenceframe"
)

// newCalculator builds a calculator from the global flags. Logs go to the app's ErrWriter.
func newCalculator(cCtx *cli.Context) (*calculator.Calculator, logging.Logger, error) {
	level, err := logging.LevelFromString(cCtx.String(flagLogLevel))
	if err != nil {
		return nil, nil, err
	}
	if cCtx.Bool(flagDebug) {
		level = logging.DEBUG
	}
	logger := logging.NewWriterLogger("kinecalc", level, cCtx.App.ErrWriter)

	model := referenceframe.DefaultArmModel()
	store := paramstore.New(model.Params, logger.Sublogger("params"))
	calc, err := calculator.New(store, calculator.Config{
		Limits:         model.Limits,
		Solver:         cCtx.String(flagSolver),
		MaxEvaluations: cCtx.Int(flagMaxEvaluations),
		IK: ik.Options{
			Restarts: cCtx.Int(flagRestarts),
			Timeout:  cCtx.Duration(flagTimeout),
		},
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if path := cCtx.Path(flagDHFile); path != "" {
		if _, err := calc.LoadModelFile(path); err != nil {
			return nil, nil, err
		}
	}
	logger.Debugw("calculator ready", "solver", calc.SolverName(), "params_version", store.Version())
	return calc, logger, nil
}

// ForwardAction is the corresponding action for 'fk'.
func ForwardAction(cCtx *cli.Context) error {
	calc, _, err := newCalculator(cCtx)
	if err != nil {
		return err
	}
	_, err = runForward(cCtx.App.Writer, calc, cCtx.Args().Slice(), cCtx.Bool(flagFrames))
	return err
}

// InverseAction is the corresponding action for 'ik'.
func InverseAction(cCtx *cli.Context) error {
	calc, _, err := newCalculator(cCtx)
	if err != nil {
		return err
	}
	_, err = runInverse(cCtx.Context, cCtx.App.Writer, calc, cCtx.Args().Slice(), cCtx.Bool(flagShowPose))
	return err
}

// ParamsAction is the corresponding action for 'params'.
func ParamsAction(cCtx *cli.Context) error {
	calc, _, err := newCalculator(cCtx)
	if err != nil {
		return err
	}
	printf(cCtx.App.Writer, "%s", paramsTable(calc.GetDHParameters(), calc.Limits()))
	return nil
}

// runForward prints the pose for the joint angles in args and returns the parsed angles.
func runForward(w io.Writer, calc *calculator.Calculator, args []string, frames bool) ([]float64, error) {
	joints, err := calculator.ParseJoints(splitFields(args))
	if err != nil {
		return nil, err
	}
	ee, err := calc.ComputeForward(joints)
	if err != nil {
		return nil, err
	}
	printf(w, "%s", ee)
	if ee.GimbalLocked {
		q := ee.Quaternion
		warningf(w, "pitch is ±90°, yaw and roll are not unique; orientation as quaternion w = %.4f, x = %.4f, y = %.4f, z = %.4f",
			q.Real, q.Imag, q.Jmag, q.Kmag)
	}
	if frames {
		positions, err := calc.JointPositions(joints)
		if err != nil {
			return nil, err
		}
		printf(w, "%s", framesTable(positions))
	}
	return joints, nil
}

// runInverse prints joint angles reaching the target in args and returns them.
func runInverse(ctx context.Context, w io.Writer, calc *calculator.Calculator, args []string, showPose bool) ([]float64, error) {
	fields := splitFields(args)
	if len(fields) != 3 {
		return nil, kinematics.NewInvalidInputError("expected x, y and z but got %d values", len(fields))
	}
	joints, err := calc.ComputeInverseText(ctx, fields[0], fields[1], fields[2])
	if err != nil {
		return nil, err
	}
	printf(w, "%s", formatJoints(joints))
	if showPose {
		ee, err := calc.ComputeForward(joints)
		if err != nil {
			return nil, err
		}
		printf(w, "%s", ee)
	}
	return joints, nil
}

// splitFields splits arguments on whitespace and commas, so "0,-90,90" and "0 -90 90" are read
// the same way.
func splitFields(args []string) []string {
	return strings.FieldsFunc(strings.Join(args, " "), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
