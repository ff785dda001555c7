package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: "); err != nil {
		printf(w, "Warning: "+format, a...)
		return
	}
	printf(w, format, a...)
}

// errorf prints a message prefixed with a bold red "Error: ". Unlike returning an error from an
// action it does not end the program.
func errorf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgRed).Fprint(w, "Error: "); err != nil {
		printf(w, "Error: "+format, a...)
		return
	}
	printf(w, format, a...)
}
