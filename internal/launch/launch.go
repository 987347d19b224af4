// Package launch runs external programs for simple commands.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
	"github.com/marcelocantos/tsh/internal/word"
)

// Launcher starts a child process per simple command and waits for it.
type Launcher struct {
	opener *redirect.Opener
}

// New creates a Launcher that opens redirection targets with opener.
func New(opener *redirect.Opener) *Launcher {
	if opener == nil {
		opener = redirect.NewOpener(nil)
	}
	return &Launcher{opener: opener}
}

// Launch applies the command's redirections, starts the program with the
// session's directory and environment, and blocks until it terminates.
//
// Only the exit status comes back. Setup failures are reported on the
// command's stderr and mapped to a status; the command is then not run:
// redirection failures give exitcode.Failure, an unknown program
// exitcode.NotFound and an unstartable one exitcode.NotExecutable.
func (l *Launcher) Launch(ctx context.Context, s *ast.Simple, env *procenv.Env, stdio redirect.Stdio) int {
	argv := word.Argv(s, env)

	std, closeFn, err := l.opener.Apply(s, env, stdio)
	if err != nil {
		diag(stdio.Err, "%v", err)
		return exitcode.Failure
	}
	defer closeFn()

	path, err := LookPath(argv[0], env)
	if err != nil {
		diag(std.Err, "%v", err)
		if errors.Is(err, ErrNotFound) {
			return exitcode.NotFound
		}
		return exitcode.NotExecutable
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Dir = env.Dir()
	cmd.Env = env.Environ()
	cmd.Stdin = std.In
	cmd.Stdout = std.Out
	cmd.Stderr = std.Err

	if err := cmd.Start(); err != nil {
		diag(std.Err, "%s: %v", argv[0], err)
		return exitcode.NotExecutable
	}
	// A non-nil error here is either the non-zero exit itself or a copy
	// error on a non-file stream; the process state decides the status.
	_ = cmd.Wait()
	return Status(cmd.ProcessState)
}

// Status maps a terminated child to an exit status. A child killed by a
// signal reports exitcode.SignalBase plus the signal number.
func Status(state *os.ProcessState) int {
	if state == nil {
		return exitcode.Failure
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return exitcode.SignalBase + int(ws.Signal())
	}
	if state.Exited() {
		return state.ExitCode()
	}
	return exitcode.Failure
}

func diag(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "tsh: "+format+"\n", args...)
}
