// Package builtin implements the commands that run inside the interpreter
// instead of in a child process, because their effect must outlive them.
package builtin

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
)

// Builtin is the interface every built-in command implements.
type Builtin interface {
	// Name returns the verb that selects the built-in.
	Name() string

	// Description returns a human-readable summary for help output.
	Description() string

	// Run executes the built-in. The returned error is nil or an
	// *ExitError; all other failures are reported on inv.Stdio.Err and
	// reflected in the status.
	Run(ctx context.Context, inv *Invocation) (int, error)
}

// Invocation carries the resolved arguments and the state a built-in acts on.
type Invocation struct {
	Args  []string // arguments after the verb
	Env   *procenv.Env
	Stdio redirect.Stdio
}

func (inv *Invocation) stderr() io.Writer {
	if inv.Stdio.Err == nil {
		return io.Discard
	}
	return inv.Stdio.Err
}

// ExitError asks the evaluator to stop the current process branch with Code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Registry maps verbs to built-ins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Default returns a registry holding cd, exit and quit.
func Default() *Registry {
	r := NewRegistry()
	RegisterAll(r)
	return r
}

// RegisterAll adds all built-ins to the registry.
func RegisterAll(r *Registry) {
	r.Register(&Cd{})
	r.Register(&Exit{Verb: "exit"})
	r.Register(&Exit{Verb: "quit"})
}

// Register adds a built-in, replacing any with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns the built-in for a verb.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// All returns all registered built-ins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}
