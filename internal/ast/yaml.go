package ast

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlNode is the on-disk form of a tree node. Exactly one of Op, Verb or
// Assign is set.
type yamlNode struct {
	Op    string    `yaml:"op,omitempty"`
	Left  *yamlNode `yaml:"left,omitempty"`
	Right *yamlNode `yaml:"right,omitempty"`

	Verb string   `yaml:"verb,omitempty"`
	Args []string `yaml:"args,omitempty"`

	Assign string  `yaml:"assign,omitempty"`
	Value  *string `yaml:"value,omitempty"`

	In        *string `yaml:"in,omitempty"`
	Out       *string `yaml:"out,omitempty"`
	Err       *string `yaml:"err,omitempty"`
	OutAppend bool    `yaml:"out_append,omitempty"`
	ErrAppend bool    `yaml:"err_append,omitempty"`
}

// EncodeYAML serializes a tree.
func EncodeYAML(n Node) ([]byte, error) {
	y, err := toYAML(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeYAML parses a serialized tree and validates it.
func DecodeYAML(data []byte) (Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var y yamlNode
	if err := dec.Decode(&y); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode tree: empty document")
		}
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	n, err := fromYAML(&y, "root")
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if err := Validate(n); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return n, nil
}

func toYAML(n Node) (*yamlNode, error) {
	switch n := n.(type) {
	case *Compound:
		l, err := toYAML(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := toYAML(n.Right)
		if err != nil {
			return nil, err
		}
		return &yamlNode{Op: n.Op.Token(), Left: l, Right: r}, nil
	case *Simple:
		y := &yamlNode{
			In:        optWord(n.In),
			Out:       optWord(n.Out),
			Err:       optWord(n.Err),
			OutAppend: n.Flags&OutAppend != 0,
			ErrAppend: n.Flags&ErrAppend != 0,
		}
		if n.Kind == KindAssignment {
			name, _ := n.Verb.Literal()
			y.Assign = name
			v := n.Value.String()
			y.Value = &v
			return y, nil
		}
		y.Verb = n.Verb.String()
		for _, a := range n.Args {
			y.Args = append(y.Args, a.String())
		}
		return y, nil
	default:
		return nil, fmt.Errorf("encode tree: unknown node type %T", n)
	}
}

func fromYAML(y *yamlNode, path string) (Node, error) {
	if y == nil {
		return nil, fmt.Errorf("%s: missing node", path)
	}
	set := 0
	for _, s := range []string{y.Op, y.Verb, y.Assign} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: node needs exactly one of op, verb or assign", path)
	}

	if y.Op != "" {
		op, err := ParseOp(y.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		left, err := fromYAML(y.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := fromYAML(y.Right, path+".right")
		if err != nil {
			return nil, err
		}
		return Join(op, left, right), nil
	}

	s := &Simple{}
	var err error
	if y.Assign != "" {
		s.Kind = KindAssignment
		s.Verb = Lit(y.Assign)
		s.Value = Word{}
		if y.Value != nil {
			if s.Value, err = ParseWord(*y.Value); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	} else {
		if s.Verb, err = ParseWord(y.Verb); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, a := range y.Args {
			w, err := ParseWord(a)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			s.Args = append(s.Args, w)
		}
	}
	for _, r := range []struct {
		src *string
		dst *Word
	}{{y.In, &s.In}, {y.Out, &s.Out}, {y.Err, &s.Err}} {
		if r.src == nil {
			continue
		}
		if *r.dst, err = ParseWord(*r.src); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if y.OutAppend {
		s.Flags |= OutAppend
	}
	if y.ErrAppend {
		s.Flags |= ErrAppend
	}
	return s, nil
}

func optWord(w Word) *string {
	if w == nil {
		return nil
	}
	s := w.String()
	return &s
}
