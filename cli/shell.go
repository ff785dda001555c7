package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinecalc/calculator"
	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/paramstore"
	"go.viam.com/kinecalc/referenceframe"
)

const shellPrompt = "kinecalc> "

const shellHelp = `commands:
  fk <j1> <j2> <j3> <j4> <j5> <j6>   pose for joint angles in degrees
  frames <j1> ... <j6>               pose and the origin of every link frame
  ik <x> <y> <z>                     joint angles reaching a position in mm
  pose                               pose of the last joint angles shown, or of the DH table's
                                     theta column before any fk or ik
  params                             DH parameter table and joint limits
  set <row1>;<row2>;...;<row6>       replace the DH table, rows are theta,d,a,alpha,offset
  load <file>                        replace the DH table from a YAML or JSON arm file
  help                               this text
  quit                               leave the shell`

// ShellAction is the corresponding action for 'shell'.
func ShellAction(cCtx *cli.Context) error {
	calc, logger, err := newCalculator(cCtx)
	if err != nil {
		return err
	}
	sh := &shell{
		calc:   calc,
		out:    cCtx.App.Writer,
		errOut: cCtx.App.ErrWriter,
		logger: logger,
		prompt: isTerminal(cCtx.App.Reader),
	}
	return sh.run(cCtx.Context, cCtx.App.Reader)
}

// shell reads one command per line. A failing command prints its error and the shell carries on;
// the last joint angles shown are only replaced by a command that succeeds. Until one does, the
// theta column of the DH table stands in for them.
type shell struct {
	calc   *calculator.Calculator
	out    io.Writer
	errOut io.Writer
	logger logging.Logger
	prompt bool
	last   []float64
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (sh *shell) printPrompt() {
	if sh.prompt {
		//nolint:errcheck
		io.WriteString(sh.out, shellPrompt)
	}
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sh.printPrompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			if sh.exec(ctx, line) {
				return nil
			}
		}
		sh.printPrompt()
	}
	return scanner.Err()
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	cmd, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		cmd, rest = line[:i], strings.TrimSpace(line[i:])
	}
	cmd = strings.ToLower(cmd)

	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		printf(sh.out, "%s", shellHelp)
	case "fk", "frames":
		var joints []float64
		if joints, err = runForward(sh.out, sh.calc, []string{rest}, cmd == "frames"); err == nil {
			sh.last = joints
		}
	case "ik":
		var joints []float64
		if joints, err = runInverse(ctx, sh.out, sh.calc, []string{rest}, true); err == nil {
			sh.last = joints
		}
	case "pose":
		joints := sh.last
		if joints == nil {
			joints = referenceframe.HomeAngles(sh.calc.GetDHParameters())
		}
		printf(sh.out, "%s", formatJoints(joints))
		_, err = runForward(sh.out, sh.calc, []string{joinFloats(joints)}, false)
	case "params":
		printf(sh.out, "%s", paramsTable(sh.calc.GetDHParameters(), sh.calc.Limits()))
	case "set":
		rows := strings.Split(rest, ";")
		for i := range rows {
			rows[i] = strings.TrimSpace(rows[i])
		}
		if err = sh.calc.SetDHParameters(rows); err == nil {
			printf(sh.out, "DH parameters saved (version %d)", sh.calc.Store().Version())
		}
	case "load":
		if rest == "" {
			err = errors.New("load needs a file name")
			break
		}
		var model *referenceframe.ArmModel
		if model, err = sh.calc.LoadModelFile(rest); err == nil {
			printf(sh.out, "loaded %q from %s", model.Name, rest)
		}
	default:
		err = errors.Errorf("unknown command %q, type help for a list", cmd)
	}
	if err != nil {
		if errors.Is(err, paramstore.ErrParseFailure) {
			warningf(sh.errOut, "DH parameters left unchanged")
		}
		errorf(sh.errOut, "%v", err)
		sh.logger.Debugw("shell command failed", "command", cmd, "error", err)
	}
	return false
}

func joinFloats(values []float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}
