// Package cli contains the kinecalc command line application.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"go.viam.com/kinecalc/ik"
)

const (
	// Global flags.
	flagDHFile         = "dh-file"
	flagDebug          = "debug"
	flagLogLevel       = "log-level"
	flagRestarts       = "restarts"
	flagTimeout        = "timeout"
	flagSolver         = "solver"
	flagMaxEvaluations = "max-evaluations"

	// Command flags.
	flagFrames   = "frames"
	flagShowPose = "show-pose"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "kinecalc",
		Usage:           "forward and inverse kinematics for a 6-DOF arm",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    flagDHFile,
				Aliases: []string{"f"},
				Usage:   "load DH parameters and joint limits from a YAML or JSON `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "warn",
				Usage: "minimum level of log lines written to stderr: debug, info, warn or error",
			},
			&cli.IntFlag{
				Name:  flagRestarts,
				Value: 0,
				Usage: "extra inverse kinematics attempts from random seeds when the fixed seed misses",
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Value: 10 * time.Second,
				Usage: "upper bound on a single inverse kinematics solve",
			},
			&cli.StringFlag{
				Name:  flagSolver,
				Usage: fmt.Sprintf("inverse kinematics minimizer: %q or %q (default depends on the build)", ik.NloptSolverName, ik.GonumSolverName),
			},
			&cli.IntFlag{
				Name:  flagMaxEvaluations,
				Usage: "cost evaluations allowed per minimization",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "fk",
				Usage:     "compute the end effector pose for six joint angles in degrees",
				UsageText: "kinecalc [global options] fk [--frames] [--] <j1> <j2> <j3> <j4> <j5> <j6>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagFrames,
						Usage: "also print the origin of every link frame",
					},
				},
				Action: ForwardAction,
			},
			{
				Name:      "ik",
				Usage:     "compute joint angles that place the end effector at a position in mm",
				UsageText: "kinecalc [global options] ik [--show-pose] [--] <x> <y> <z>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagShowPose,
						Usage: "also print the pose the solution reaches",
					},
				},
				Action: InverseAction,
			},
			{
				Name:   "params",
				Usage:  "print the DH parameter table and joint limits",
				Action: ParamsAction,
			},
			{
				Name:   "shell",
				Usage:  "start an interactive session reading commands from stdin",
				Action: ShellAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
