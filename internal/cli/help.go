package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/ui"
)

func (a *app) syntaxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "syntax",
		Short: "Describe the command language",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printSyntax(a.stdout)
		},
	}
}

func printSyntax(w io.Writer) {
	fmt.Fprintln(w, ui.HeaderColor("operators (loosest first):"))
	fmt.Fprintf(w, "  %-3s  sequence: run left, then right; status of right\n", ast.OpSequential.Token())
	fmt.Fprintf(w, "  %-3s  parallel: run both at once, wait for both; status 0\n", ast.OpParallel.Token())
	fmt.Fprintf(w, "  %-3s  or-else: run right only if left failed\n", ast.OpOrElse.Token())
	fmt.Fprintf(w, "  %-3s  and-then: run right only if left succeeded\n", ast.OpAndThen.Token())
	fmt.Fprintf(w, "  %-3s  pipe: left's output feeds right's input; status of right\n", ast.OpPipe.Token())
	fmt.Fprintln(w, "  { list; }  grouping")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.HeaderColor("redirections:"))
	fmt.Fprintln(w, "  < f    read input from f")
	fmt.Fprintln(w, "  > f    write output to f (truncate)    >> f   append")
	fmt.Fprintln(w, "  2> f   write errors to f (truncate)    2>> f  append")
	fmt.Fprintln(w, "  &> f   output and errors to f          &>> f  append")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.HeaderColor("words:"))
	fmt.Fprintln(w, "  'single'  literal    \"double\"  expands $VAR    \\x  escapes x")
	fmt.Fprintln(w, "  $NAME ${NAME}  variable from the session environment")
	fmt.Fprintln(w, "  NAME=value     as a whole command, sets a variable")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.HeaderColor("exit statuses:"))
	fmt.Fprintln(w, "  126 not executable    127 not found    128+N killed by signal N")
}
