package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/parser"
	"github.com/marcelocantos/tsh/internal/procenv"
)

func (a *app) treeCommand() *cobra.Command {
	var command, format string
	cmd := &cobra.Command{
		Use:   "tree [-c text | file]",
		Short: "Print the command tree of shell text without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := command
			if src == "" {
				data, err := a.readInput(args)
				if err != nil {
					return err
				}
				src = string(data)
			}
			tree, err := parser.Parse(src)
			if err != nil {
				return failf(exitcode.Usage, "%w", err)
			}
			if tree == nil {
				return nil
			}

			switch format {
			case "yaml":
				data, err := ast.EncodeYAML(tree)
				if err != nil {
					return failf(exitcode.Failure, "%w", err)
				}
				_, err = a.stdout.Write(data)
				return err
			case "shell":
				_, err := fmt.Fprintln(a.stdout, ast.Format(tree))
				return err
			default:
				return failf(exitcode.Usage, "unknown format %q (want yaml or shell)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&command, "command", "c", "", "parse `text`")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or shell")
	return cmd
}

func (a *app) runTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-tree FILE",
		Short: "Evaluate a command tree stored as YAML (- reads standard input)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}
			tree, err := ast.DecodeYAML(data)
			if err != nil {
				return failf(exitcode.Usage, "%w", err)
			}
			env, err := procenv.FromProcess()
			if err != nil {
				return failf(exitcode.Failure, "%w", err)
			}
			s := NewSession(env, a.stdio(), a.openLogger())
			a.status, _ = s.Eval(cmd.Context(), tree)
			return nil
		},
	}
}

// readInput reads the file named by args[0], or standard input when there
// is no argument or it is "-".
func (a *app) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, failf(exitcode.Failure, "read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, failf(exitcode.Failure, "%w", err)
	}
	return data, nil
}
