package ast

import "fmt"

// Op is the operator of a compound node.
type Op int

const (
	OpSequential Op = iota + 1 // run left, then right (;)
	OpParallel                 // run left and right concurrently (&)
	OpPipe                     // left's stdout feeds right's stdin (|)
	OpOrElse                   // run right if left exited non-zero (||)
	OpAndThen                  // run right if left exited zero (&&)
)

// Token returns the shell spelling of the operator.
func (o Op) Token() string {
	switch o {
	case OpSequential:
		return ";"
	case OpParallel:
		return "&"
	case OpPipe:
		return "|"
	case OpOrElse:
		return "||"
	case OpAndThen:
		return "&&"
	default:
		return ""
	}
}

func (o Op) String() string {
	if t := o.Token(); t != "" {
		return t
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// ParseOp converts a shell operator token to an Op.
func ParseOp(s string) (Op, error) {
	for _, o := range []Op{OpSequential, OpParallel, OpPipe, OpOrElse, OpAndThen} {
		if o.Token() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown operator: %q", s)
}

// Node is a command tree node: either *Simple or *Compound.
type Node interface {
	node()
}

// Kind distinguishes a program invocation from a variable assignment.
// It is decided once by whoever builds the tree.
type Kind int

const (
	KindInvocation Kind = iota
	KindAssignment
)

// IOFlags selects append rather than truncate for output redirections.
// A clear bit means truncate.
type IOFlags uint8

const (
	OutAppend IOFlags = 1 << iota
	ErrAppend
)

// Simple is a leaf command.
type Simple struct {
	Kind Kind

	// Verb is the program or built-in name. For assignments it holds the
	// variable name.
	Verb Word
	Args []Word

	// Value is the assigned value (KindAssignment only).
	Value Word

	// Redirection targets; nil means the stream is inherited.
	In  Word
	Out Word
	Err Word

	Flags IOFlags
}

// Compound joins two subtrees with an operator.
type Compound struct {
	Op    Op
	Left  Node
	Right Node
}

func (*Simple) node()   {}
func (*Compound) node() {}

// Command builds an invocation node from literal words.
func Command(verb string, args ...string) *Simple {
	s := &Simple{Kind: KindInvocation, Verb: Lit(verb)}
	for _, a := range args {
		s.Args = append(s.Args, Lit(a))
	}
	return s
}

// Assign builds an assignment node.
func Assign(name string, value Word) *Simple {
	return &Simple{Kind: KindAssignment, Verb: Lit(name), Value: value}
}

// Join builds a compound node.
func Join(op Op, left, right Node) *Compound {
	return &Compound{Op: op, Left: left, Right: right}
}

// Leaves returns the simple commands of a tree in left-to-right order.
func Leaves(n Node) []*Simple {
	switch n := n.(type) {
	case *Simple:
		return []*Simple{n}
	case *Compound:
		return append(Leaves(n.Left), Leaves(n.Right)...)
	default:
		return nil
	}
}
