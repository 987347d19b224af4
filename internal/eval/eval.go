// Package eval walks a command tree and produces its exit status.
//
// Built-ins and assignments run in the evaluator's own frame, so their
// effects are visible to the commands that follow. PARALLEL and PIPE run
// their two sides as concurrently scheduled branches; each branch gets a
// forked copy of the session state and its own stream view, which gives it
// the isolation a forked child would have.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/builtin"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/launch"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
	"github.com/marcelocantos/tsh/internal/word"
)

// Observer is told the status of every evaluated node, leaves first.
// Branches of PARALLEL and PIPE call it concurrently.
type Observer interface {
	Observe(n ast.Node, status int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(n ast.Node, status int)

func (f ObserverFunc) Observe(n ast.Node, status int) { f(n, status) }

// Evaluator evaluates command trees against one session state.
type Evaluator struct {
	env      *procenv.Env
	stdio    redirect.Stdio
	builtins *builtin.Registry
	opener   *redirect.Opener
	launcher *launch.Launcher
	exit     func(code int)
	observer Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStdio sets the streams of the root frame (default: the process's).
func WithStdio(s redirect.Stdio) Option {
	return func(e *Evaluator) { e.stdio = s }
}

// WithBuiltins replaces the built-in registry.
func WithBuiltins(r *builtin.Registry) Option {
	return func(e *Evaluator) { e.builtins = r }
}

// WithOpener sets the opener used for redirections.
func WithOpener(o *redirect.Opener) Option {
	return func(e *Evaluator) { e.opener = o }
}

// WithExitFunc replaces os.Exit as the action taken when exit runs at the
// root of a tree.
func WithExitFunc(f func(code int)) Option {
	return func(e *Evaluator) { e.exit = f }
}

// WithObserver installs an observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// New creates an Evaluator for env.
func New(env *procenv.Env, opts ...Option) *Evaluator {
	e := &Evaluator{
		env:   env,
		stdio: redirect.Std(),
		exit:  os.Exit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.builtins == nil {
		e.builtins = builtin.Default()
	}
	if e.opener == nil {
		e.opener = redirect.NewOpener(nil)
	}
	e.launcher = launch.New(e.opener)
	return e
}

// Env returns the session state of the root frame.
func (e *Evaluator) Env() *procenv.Env {
	return e.env
}

// Evaluate runs a tree and returns its exit status. If exit or quit runs
// at the root, the exit function is called with its code, which by
// default terminates the process.
func (e *Evaluator) Evaluate(ctx context.Context, n ast.Node) int {
	status, err := e.Run(ctx, n)
	if err == nil {
		return status
	}
	var exitErr *builtin.ExitError
	if errors.As(err, &exitErr) {
		e.exit(exitErr.Code)
		return exitErr.Code
	}
	diag(e.stdio.Err, "%v", err)
	return status
}

// Run is Evaluate for callers that must survive exit: it returns the
// *builtin.ExitError instead of calling the exit function. An invalid tree
// is reported as an error with status exitcode.Usage; a nil tree is a no-op.
func (e *Evaluator) Run(ctx context.Context, n ast.Node) (int, error) {
	if n == nil {
		return exitcode.Success, nil
	}
	if err := ast.Validate(n); err != nil {
		return exitcode.Usage, fmt.Errorf("invalid command tree: %w", err)
	}
	fm := &frame{ev: e, env: e.env, stdio: guardStdio(e.stdio)}
	return fm.eval(ctx, n)
}

// frame is the state one branch of evaluation runs with.
type frame struct {
	ev    *Evaluator
	env   *procenv.Env
	stdio redirect.Stdio
}

// cloneForBranch returns a frame with a forked copy of the session state,
// like the child side of a fork.
func (fm *frame) cloneForBranch() *frame {
	return &frame{ev: fm.ev, env: fm.env.Fork(), stdio: fm.stdio}
}

func (fm *frame) eval(ctx context.Context, n ast.Node) (int, error) {
	var status int
	var err error
	switch n := n.(type) {
	case *ast.Simple:
		status, err = fm.simple(ctx, n)
	case *ast.Compound:
		status, err = fm.compound(ctx, n)
	default:
		return exitcode.Success, nil
	}
	if fm.ev.observer != nil {
		fm.ev.observer.Observe(n, status)
	}
	return status, err
}

// branch evaluates n as a separate process would: exit ends the branch
// and nothing else.
func (fm *frame) branch(ctx context.Context, n ast.Node) int {
	status, err := fm.eval(ctx, n)
	var exitErr *builtin.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return status
}

func (fm *frame) simple(ctx context.Context, s *ast.Simple) (int, error) {
	if ctx.Err() != nil {
		return exitcode.SignalBase + int(syscall.SIGINT), nil
	}

	if s.Kind == ast.KindAssignment {
		name, _ := s.Verb.Literal()
		return builtin.Assign(fm.env, fm.stdio.Err, name, word.Resolve(s.Value, fm.env)), nil
	}

	verb := word.Resolve(s.Verb, fm.env)
	b, ok := fm.ev.builtins.Lookup(verb)
	if !ok {
		return fm.ev.launcher.Launch(ctx, s, fm.env, fm.stdio), nil
	}

	std, closeFn, err := fm.ev.opener.Apply(s, fm.env, fm.stdio)
	if err != nil {
		diag(fm.stdio.Err, "%v", err)
		return exitcode.Failure, nil
	}
	defer closeFn()
	return b.Run(ctx, &builtin.Invocation{
		Args:  word.ResolveAll(s.Args, fm.env),
		Env:   fm.env,
		Stdio: std,
	})
}

func diag(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "tsh: "+format+"\n", args...)
}
