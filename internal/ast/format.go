package ast

import "strings"

// precedence orders operators from loosest to tightest binding.
func precedence(o Op) int {
	switch o {
	case OpSequential:
		return 1
	case OpParallel:
		return 2
	case OpOrElse, OpAndThen:
		return 3
	case OpPipe:
		return 4
	default:
		return 0
	}
}

// Format renders a tree as shell text that parses back to the same tree.
// Subtrees that bind looser than their parent are wrapped in { ...; }.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Simple:
		formatSimple(sb, n)
	case *Compound:
		p := precedence(n.Op)
		formatChild(sb, n.Left, p, false)
		if n.Op == OpSequential {
			sb.WriteString("; ")
		} else {
			sb.WriteString(" " + n.Op.Token() + " ")
		}
		formatChild(sb, n.Right, p, true)
	}
}

// formatChild groups a child when the operators are left associative and
// the child would otherwise be regrouped.
func formatChild(sb *strings.Builder, n Node, parent int, right bool) {
	c, ok := n.(*Compound)
	if !ok {
		format(sb, n)
		return
	}
	p := precedence(c.Op)
	if p > parent || (p == parent && !right) {
		format(sb, n)
		return
	}
	sb.WriteString("{ ")
	format(sb, n)
	sb.WriteString("; }")
}

func formatSimple(sb *strings.Builder, s *Simple) {
	if s.Kind == KindAssignment {
		name, _ := s.Verb.Literal()
		sb.WriteString(name + "=" + Quote(s.Value))
		return
	}
	words := append([]Word{s.Verb}, s.Args...)
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Quote(w))
	}
	writeRedirects(sb, s)
}

func writeRedirects(sb *strings.Builder, s *Simple) {
	if s.In != nil {
		sb.WriteString(" < " + Quote(s.In))
	}
	if s.Out != nil && s.Err != nil && s.Out.String() == s.Err.String() &&
		(s.Flags&OutAppend != 0) == (s.Flags&ErrAppend != 0) {
		op := " &> "
		if s.Flags&OutAppend != 0 {
			op = " &>> "
		}
		sb.WriteString(op + Quote(s.Out))
		return
	}
	if s.Out != nil {
		op := " > "
		if s.Flags&OutAppend != 0 {
			op = " >> "
		}
		sb.WriteString(op + Quote(s.Out))
	}
	if s.Err != nil {
		op := " 2> "
		if s.Flags&ErrAppend != 0 {
			op = " 2>> "
		}
		sb.WriteString(op + Quote(s.Err))
	}
}

// Quote renders a word as shell text: variables as ${NAME}, literals bare
// when safe and single-quoted otherwise.
func Quote(w Word) string {
	if len(w) == 0 {
		return "''"
	}
	var sb strings.Builder
	for _, p := range w {
		if p.Var {
			sb.WriteString("${" + p.Text + "}")
			continue
		}
		if p.Text != "" && isBare(p.Text) {
			sb.WriteString(p.Text)
			continue
		}
		sb.WriteString("'" + strings.ReplaceAll(p.Text, "'", `'\''`) + "'")
	}
	return sb.String()
}

func isBare(s string) bool {
	if s == "{" || s == "}" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isNameChar(c):
		case strings.IndexByte("-_./:,+%@^", c) >= 0:
		default:
			return false
		}
	}
	return true
}
