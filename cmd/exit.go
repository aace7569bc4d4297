package cmd

import (
	"errors"
	"fmt"

	"github.com/palette/canvaslogin/cmd/common"
)

// exitError carries a process exit code out of Execute once the outcome
// has been published. It must not have an ExitCode method, or urfave/cli
// treats it as a cli.ExitCoder and calls os.Exit itself.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitStatus maps an Execute result to a process exit code. A nil error is
// 0; an exitError carries its own code; anything else is 1.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return 1
}

// Reported reports whether err has already been written to the user.
func Reported(err error) bool {
	var e *exitError
	return errors.As(err, &e) || errors.Is(err, common.ErrUsage)
}
