package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/audit"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/ui"
)

func (a *app) auditCommand() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}
	cmd.PersistentFlags().StringVar(&logPath, "log", "", "audit log path (default from config)")
	path := func() string {
		if logPath != "" {
			return logPath
		}
		return a.cfg.Audit.Path
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the hash chain of the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := audit.Verify(path())
			if err != nil {
				return failf(exitcode.Failure, "audit verification FAILED: %w", err)
			}
			fmt.Fprintln(a.stdout, ui.SuccessColor(fmt.Sprintf("audit log integrity verified (%d entries)", n)))
			return nil
		},
	})

	var n int
	var asJSON bool
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := audit.Tail(path(), n)
			if err != nil {
				return failf(exitcode.Failure, "audit: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.stdout, "no audit entries")
				return nil
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				for _, e := range entries {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				return nil
			}
			a.renderEntries(entries)
			return nil
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", 20, "number of entries")
	tail.Flags().BoolVar(&asJSON, "json", false, "print raw JSON lines")
	cmd.AddCommand(tail)
	return cmd
}

func (a *app) renderEntries(entries []audit.Entry) {
	table := tablewriter.NewWriter(a.stdout)
	table.SetHeader([]string{"Seq", "Time", "Status", "ms", "Dir", "Command"})
	table.SetAutoWrapText(false)
	for _, e := range entries {
		status := strconv.Itoa(e.ExitCode)
		if e.Exited {
			status += " (exit)"
		}
		table.Append([]string{
			strconv.FormatUint(e.Seq, 10),
			ui.DetailColor(e.Time.Local().Format("2006-01-02 15:04:05")),
			status,
			strconv.FormatFloat(e.Duration, 'f', 1, 64),
			ui.DetailColor(e.Cwd),
			e.Command,
		})
	}
	table.Render()
}
