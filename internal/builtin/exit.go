package builtin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marcelocantos/tsh/internal/exitcode"
)

// Exit ends the current process branch. It is registered as both exit and
// quit.
type Exit struct {
	Verb string
}

var _ Builtin = (*Exit)(nil)

func (e *Exit) Name() string        { return e.Verb }
func (e *Exit) Description() string { return "terminate the shell (status 0 unless given)" }

func (e *Exit) Run(_ context.Context, inv *Invocation) (int, error) {
	code := exitcode.Success
	if len(inv.Args) > 0 {
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil {
			fmt.Fprintf(inv.stderr(), "tsh: %s: %s: numeric argument required\n", e.Verb, inv.Args[0])
			n = exitcode.Usage
		}
		code = n & 0xff
	}
	return code, &ExitError{Code: code}
}
