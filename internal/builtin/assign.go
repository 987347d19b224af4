package builtin

import (
	"fmt"
	"io"

	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/procenv"
)

// Assign sets name=value in env. It runs in the evaluator's own branch, so
// later commands of that branch observe the value.
func Assign(env *procenv.Env, stderr io.Writer, name, value string) int {
	if err := env.Setenv(name, value); err != nil {
		if stderr != nil {
			fmt.Fprintf(stderr, "tsh: %v\n", err)
		}
		return exitcode.Failure
	}
	return exitcode.Success
}
