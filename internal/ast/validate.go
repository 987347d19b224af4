package ast

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a tree: compound nodes carry
// a known operator and two children, invocations have a verb and
// assignments name a valid variable.
func Validate(n Node) error {
	switch n := n.(type) {
	case nil:
		return errors.New("empty command")
	case *Simple:
		return validateSimple(n)
	case *Compound:
		if n == nil {
			return errors.New("nil compound node")
		}
		if n.Op.Token() == "" {
			return fmt.Errorf("compound node: %v", n.Op)
		}
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("%s: compound node needs two children", n.Op)
		}
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	default:
		return fmt.Errorf("unknown node type %T", n)
	}
}

func validateSimple(s *Simple) error {
	if s == nil {
		return errors.New("nil simple node")
	}
	switch s.Kind {
	case KindInvocation:
		if len(s.Verb) == 0 {
			return errors.New("command has no verb")
		}
		if s.Value != nil {
			return errors.New("invocation carries an assignment value")
		}
	case KindAssignment:
		name, ok := s.Verb.Literal()
		if !ok || !IsName(name) {
			return fmt.Errorf("assignment to invalid name %q", s.Verb.String())
		}
		if len(s.Args) > 0 {
			return fmt.Errorf("assignment to %s has arguments", name)
		}
	default:
		return fmt.Errorf("unknown command kind %d", s.Kind)
	}
	return nil
}
