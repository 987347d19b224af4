package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/toolserver"
)

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve a tsh session as MCP tools on standard input and output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return failf(exitcode.Failure, "%w", err)
			}
			env := procenv.New(wd, os.Environ())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := toolserver.New(env, a.openLogger(), a.version)
			if err := srv.Serve(ctx, a.stdin, a.stdout); err != nil && !errors.Is(err, context.Canceled) {
				return failf(exitcode.Failure, "mcp: %w", err)
			}
			return nil
		},
	}
}
