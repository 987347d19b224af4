package audit

import (
	"sync"
	"time"

	"github.com/marcelocantos/tsh/internal/ast"
)

// Leaf is the outcome of one simple command within an evaluated tree.
type Leaf struct {
	Verb   string `json:"verb"`
	Status int    `json:"status"`
}

// Entry represents a single audit log record.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Command  string    `json:"command"`          // tree rendered as shell text
	Leaves   []Leaf    `json:"leaves,omitempty"` // in completion order
	ExitCode int       `json:"exit_code"`
	Exited   bool      `json:"exited,omitempty"` // exit or quit ran at the root
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"` // working directory when the command started
	Hash     string    `json:"hash"` // SHA-256 of this entry with hash empty
}

// Record is what a caller supplies for one evaluated command. The logger
// fills in sequencing and hashes.
type Record struct {
	Command  string
	Leaves   []Leaf
	ExitCode int
	Exited   bool
	Duration time.Duration
	Cwd      string
}

// Recorder collects leaf outcomes while a tree is evaluated. Its Observe
// method matches the evaluator's observer hook and is safe for concurrent
// use.
type Recorder struct {
	mu     sync.Mutex
	leaves []Leaf
}

func (r *Recorder) Observe(n ast.Node, status int) {
	s, ok := n.(*ast.Simple)
	if !ok {
		return
	}
	verb := ast.Quote(s.Verb)
	if s.Kind == ast.KindAssignment {
		verb += "="
	}
	r.mu.Lock()
	r.leaves = append(r.leaves, Leaf{Verb: verb, Status: status})
	r.mu.Unlock()
}

// Take returns the leaves collected so far and resets the recorder.
func (r *Recorder) Take() []Leaf {
	r.mu.Lock()
	defer r.mu.Unlock()
	leaves := r.leaves
	r.leaves = nil
	return leaves
}
