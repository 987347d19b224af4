package builtin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/marcelocantos/tsh/internal/exitcode"
)

// Cd changes the session's working directory and PWD.
type Cd struct{}

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string        { return "cd" }
func (c *Cd) Description() string { return "change the working directory and PWD" }

// Run changes to the first argument. Further arguments are ignored.
func (c *Cd) Run(_ context.Context, inv *Invocation) (int, error) {
	if len(inv.Args) == 0 {
		fmt.Fprintln(inv.stderr(), "tsh: cd: missing directory operand")
		return exitcode.Failure, nil
	}
	dir := inv.Args[0]
	if err := inv.Env.Chdir(dir); err != nil {
		fmt.Fprintf(inv.stderr(), "tsh: cd: %s: %s\n", dir, reason(err))
		return exitcode.Failure, nil
	}
	return exitcode.Success, nil
}

// reason strips the operation and path a *fs.PathError repeats.
func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
