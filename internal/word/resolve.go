// Package word turns word specs into strings at execution time.
package word

import (
	"strings"

	"github.com/marcelocantos/tsh/internal/ast"
)

// Lookuper provides variable values. Unset variables resolve to "".
type Lookuper interface {
	Getenv(name string) string
}

// Resolve concatenates the literal parts of w with the current value of
// each variable part.
func Resolve(w ast.Word, env Lookuper) string {
	var sb strings.Builder
	for _, p := range w {
		if p.Var {
			sb.WriteString(env.Getenv(p.Text))
		} else {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// ResolveAll resolves each word to exactly one string.
func ResolveAll(ws []ast.Word, env Lookuper) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = Resolve(w, env)
	}
	return out
}

// Argv returns the resolved verb followed by the resolved arguments.
func Argv(s *ast.Simple, env Lookuper) []string {
	return append([]string{Resolve(s.Verb, env)}, ResolveAll(s.Args, env)...)
}
