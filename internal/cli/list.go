package cli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/builtin"
)

func (a *app) builtinsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "builtins",
		Short: "List the commands tsh runs itself",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"Name", "Description"})
			table.SetBorder(true)
			table.SetAutoWrapText(false)
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
			for _, b := range builtin.Default().All() {
				table.Append([]string{b.Name(), b.Description()})
			}
			table.Append([]string{"NAME=value", "set a variable in the session environment"})
			table.Render()
		},
	}
}
