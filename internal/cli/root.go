// Package cli implements the tsh command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/audit"
	"github.com/marcelocantos/tsh/internal/config"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
	"github.com/marcelocantos/tsh/internal/ui"
)

// statusError carries an exit status out of a command's RunE.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func failf(status int, format string, args ...any) error {
	return &statusError{status: status, err: fmt.Errorf(format, args...)}
}

// app is the state shared by the commands of one invocation.
type app struct {
	version string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	configPath string
	noAudit    bool
	cfg        *config.Config
	status     int
}

// Main runs tsh with args (excluding the program name) and returns the
// process exit status.
func Main(ctx context.Context, version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{version: version, stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, ui.ErrorColor("tsh: "+err.Error()))
		var se *statusError
		if errors.As(err, &se) {
			return se.status
		}
		return exitcode.Usage
	}
	return a.status
}

func (a *app) rootCommand() *cobra.Command {
	var command string
	root := &cobra.Command{
		Use:   "tsh [script]",
		Short: "tsh is a small command interpreter.",
		Long: `tsh evaluates command lines built from simple commands joined by
; & | || and &&, with redirections, $VAR expansion, NAME=value
assignment and the cd and exit built-ins.

With no arguments tsh reads commands from standard input, prompting when
it is a terminal. With a script argument it reads commands from the file.`,
		Version:       a.version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if command != "" && len(args) > 0 {
				return errors.New("-c and a script file are mutually exclusive")
			}
			return a.runShell(cmd.Context(), command, args)
		},
	}
	root.Flags().StringVarP(&command, "command", "c", "", "evaluate `text` and exit")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVar(&a.noAudit, "no-audit", false, "do not write the audit log")

	root.AddCommand(a.treeCommand())
	root.AddCommand(a.runTreeCommand())
	root.AddCommand(a.builtinsCommand())
	root.AddCommand(a.syntaxCommand())
	root.AddCommand(a.auditCommand())
	root.AddCommand(a.mcpCommand())
	return root
}

func (a *app) loadConfig() error {
	var cfg *config.Config
	var err error
	if a.configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(a.configPath)
	}
	if err != nil {
		return failf(exitcode.Failure, "config: %w", err)
	}
	a.cfg = cfg
	if f, ok := a.stderr.(*os.File); ok {
		ui.SetColorMode(cfg.Shell.Color, f)
	} else {
		ui.SetColorMode(config.ColorNever, nil)
	}
	return nil
}

// openLogger returns the audit logger, or nil when auditing is off or the
// log cannot be opened.
func (a *app) openLogger() *audit.Logger {
	if a.noAudit || !a.cfg.Audit.Enabled {
		return nil
	}
	logger, err := audit.NewLogger(a.cfg.Audit.Path)
	if err != nil {
		fmt.Fprintln(a.stderr, ui.WarningColor("tsh: audit: "+err.Error()))
		return nil
	}
	return logger
}

func (a *app) stdio() redirect.Stdio {
	return redirect.Stdio{In: a.stdin, Out: a.stdout, Err: a.stderr}
}

func (a *app) runShell(ctx context.Context, command string, args []string) error {
	env, err := procenv.FromProcess()
	if err != nil {
		return failf(exitcode.Failure, "%w", err)
	}
	s := NewSession(env, a.stdio(), a.openLogger())

	switch {
	case command != "":
		status, _, err := s.Exec(ctx, command)
		if err != nil {
			return failf(exitcode.Usage, "%w", err)
		}
		a.status = status

	case len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return failf(exitcode.NotFound, "%w", err)
		}
		defer f.Close()
		a.status = s.RunLines(ctx, f, nil)

	default:
		var prompt func(bool)
		if f, ok := a.stdin.(*os.File); ok && ui.IsTerminal(f) {
			// Interrupts reach the foreground command; the shell survives them.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)
			defer signal.Stop(sigs)
			prompt = a.prompt
			s.interactive = true
		}
		a.status = s.RunLines(ctx, a.stdin, prompt)
	}
	return nil
}

func (a *app) prompt(continuation bool) {
	p := a.cfg.Shell.Prompt
	if continuation {
		p = "> "
	}
	fmt.Fprint(a.stderr, ui.PromptColor(p))
}
