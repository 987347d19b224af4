package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/audit"
	"github.com/marcelocantos/tsh/internal/builtin"
	"github.com/marcelocantos/tsh/internal/eval"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/parser"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
	"github.com/marcelocantos/tsh/internal/ui"
)

// Session evaluates commands against one session state and records them
// in the audit log.
type Session struct {
	ev     *eval.Evaluator
	stderr io.Writer
	logger *audit.Logger // may be nil
	rec    audit.Recorder

	// interactive makes an interrupt cancel only the running command.
	// Otherwise it takes its default action and ends tsh.
	interactive bool
}

// NewSession creates a session. logger may be nil.
func NewSession(env *procenv.Env, stdio redirect.Stdio, logger *audit.Logger) *Session {
	s := &Session{stderr: stdio.Err, logger: logger}
	s.ev = eval.New(env, eval.WithStdio(stdio), eval.WithObserver(&s.rec))
	return s
}

// Exec parses and evaluates src. exited reports that exit or quit ran,
// in which case status is its code.
func (s *Session) Exec(ctx context.Context, src string) (status int, exited bool, err error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return exitcode.Usage, false, err
	}
	status, exited = s.Eval(ctx, tree)
	return status, exited, nil
}

// Eval evaluates a tree. In an interactive session an interrupt cancels
// the commands it launched.
func (s *Session) Eval(ctx context.Context, tree ast.Node) (status int, exited bool) {
	if tree == nil {
		return exitcode.Success, false
	}
	if s.interactive {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	cwd := s.ev.Env().Dir()
	start := time.Now()
	status, err := s.ev.Run(ctx, tree)
	var exitErr *builtin.ExitError
	switch {
	case errors.As(err, &exitErr):
		status, exited = exitErr.Code, true
	case err != nil:
		s.diag(err)
	}
	s.logAudit(tree, status, exited, time.Since(start), cwd)
	return status, exited
}

// RunLines reads commands from r until EOF or exit and returns the final
// status. Commands may span lines. prompt, if not nil, is called before
// each line is read.
func (s *Session) RunLines(ctx context.Context, r io.Reader, prompt func(continuation bool)) int {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	status := exitcode.Success
	var pending strings.Builder
	for {
		if prompt != nil {
			prompt(pending.Len() > 0)
		}
		if !sc.Scan() {
			break
		}
		pending.WriteString(sc.Text())
		pending.WriteByte('\n')

		tree, err := parser.Parse(pending.String())
		if parser.IsIncomplete(err) {
			continue
		}
		pending.Reset()
		if err != nil {
			s.diag(err)
			status = exitcode.Usage
			continue
		}
		if tree == nil {
			continue
		}
		st, exited := s.Eval(ctx, tree)
		status = st
		if exited {
			return status
		}
	}
	if pending.Len() > 0 {
		if _, err := parser.Parse(pending.String()); err != nil {
			s.diag(err)
			status = exitcode.Usage
		}
	}
	if err := sc.Err(); err != nil {
		s.diag(err)
		return exitcode.Failure
	}
	return status
}

func (s *Session) diag(err error) {
	fmt.Fprintln(s.stderr, ui.ErrorColor("tsh: "+err.Error()))
}

func (s *Session) logAudit(tree ast.Node, status int, exited bool, d time.Duration, cwd string) {
	leaves := s.rec.Take()
	if s.logger == nil {
		return
	}
	// Best-effort: a failing audit log does not fail the command.
	_ = s.logger.Log(audit.Record{
		Command:  ast.Format(tree),
		Leaves:   leaves,
		ExitCode: status,
		Exited:   exited,
		Duration: d,
		Cwd:      cwd,
	})
}
