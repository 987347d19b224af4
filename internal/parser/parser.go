// Package parser turns shell command text into a command tree.
//
// Operators, from loosest to tightest binding, all left associative:
//
//	; newline    sequence
//	&            parallel
//	|| &&        conditionals
//	|            pipe
//
// Commands may be grouped with { list; }. A command consisting of a single
// NAME=value word is an assignment.
package parser

import (
	"errors"
	"fmt"

	"github.com/marcelocantos/tsh/internal/ast"
)

// SyntaxError reports malformed input at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
	// Incomplete is set when more input could make the text valid, such as
	// an open quote or a trailing operator.
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

func syntaxError(offset int, msg string) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: msg}
}

func incomplete(offset int, msg string) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: msg, Incomplete: true}
}

// IsIncomplete reports whether err is a syntax error caused by input that
// ended too early.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.Incomplete
}

// Parse parses src. Input containing no commands yields a nil tree.
func Parse(src string) (ast.Node, error) {
	p := &parser{lx: &lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.list(false)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tEOF {
		return nil, p.unexpected()
	}
	return n, nil
}

type parser struct {
	lx  *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) unexpected() error {
	if p.tok.kind == tEOF {
		return incomplete(p.tok.pos, "unexpected end of input")
	}
	return syntaxError(p.tok.pos, "unexpected "+p.tok.describe())
}

func (p *parser) isBareWord(text string) bool {
	if p.tok.kind != tWord || !p.tok.bare {
		return false
	}
	s, _ := p.tok.word.Literal()
	return s == text
}

func (p *parser) skipNewlines() error {
	for p.tok.kind == tNewline {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// list parses commands separated by ; or newline. Inside a group it stops
// at a } in command position.
func (p *parser) list(inGroup bool) (ast.Node, error) {
	var n ast.Node
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		if p.tok.kind == tEOF || (inGroup && p.isBareWord("}")) {
			return n, nil
		}
		right, err := p.parallel()
		if err != nil {
			return nil, err
		}
		n = join(ast.OpSequential, n, right)

		switch p.tok.kind {
		case tSemi, tNewline:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tEOF:
		default:
			if !inGroup || !p.isBareWord("}") {
				return nil, p.unexpected()
			}
		}
	}
}

func join(op ast.Op, left, right ast.Node) ast.Node {
	if left == nil {
		return right
	}
	return ast.Join(op, left, right)
}

// binary parses a left-associative chain of operands separated by any of
// the given operators. A newline may follow an operator.
func (p *parser) binary(operand func() (ast.Node, error), ops map[tokenKind]ast.Op) (ast.Node, error) {
	n, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.tok.kind]
		if !ok {
			return n, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		n = ast.Join(op, n, right)
	}
}

var (
	parallelOps    = map[tokenKind]ast.Op{tAmp: ast.OpParallel}
	conditionalOps = map[tokenKind]ast.Op{tOr: ast.OpOrElse, tAnd: ast.OpAndThen}
	pipeOps        = map[tokenKind]ast.Op{tPipe: ast.OpPipe}
)

func (p *parser) parallel() (ast.Node, error) {
	return p.binary(p.conditional, parallelOps)
}

func (p *parser) conditional() (ast.Node, error) {
	return p.binary(p.pipeline, conditionalOps)
}

func (p *parser) pipeline() (ast.Node, error) {
	return p.binary(p.command, pipeOps)
}

func (p *parser) command() (ast.Node, error) {
	switch {
	case p.isBareWord("{"):
		return p.group()
	case p.isBareWord("}"):
		return nil, p.unexpected()
	case p.tok.kind == tWord, p.tok.kind == tRedir:
		return p.simple()
	}
	return nil, p.unexpected()
}

func (p *parser) group() (ast.Node, error) {
	open := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.list(true)
	if err != nil {
		return nil, err
	}
	if !p.isBareWord("}") {
		return nil, incomplete(open, "missing } for {")
	}
	if body == nil {
		return nil, syntaxError(open, "empty { }")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if (p.tok.kind == tWord && !p.isBareWord("}")) || p.tok.kind == tRedir {
		return nil, syntaxError(p.tok.pos, "words and redirections after } are not supported")
	}
	return body, nil
}

func (p *parser) simple() (ast.Node, error) {
	start := p.tok.pos
	s := &ast.Simple{}
	var words []token
	for {
		switch p.tok.kind {
		case tWord:
			words = append(words, p.tok)
		case tRedir:
			if err := p.redirect(s); err != nil {
				return nil, err
			}
			continue
		default:
			return finishSimple(s, words, start)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func finishSimple(s *ast.Simple, words []token, start int) (ast.Node, error) {
	if len(words) == 0 {
		return nil, syntaxError(start, "redirection without a command")
	}
	if w := words[0]; len(words) == 1 && w.assignAt > 0 {
		if s.In != nil || s.Out != nil || s.Err != nil {
			return nil, syntaxError(start, "redirection on an assignment")
		}
		head := w.word[0].Text
		value := append(ast.Word{}, w.word[1:]...)
		if rest := head[w.assignAt+1:]; rest != "" {
			value = append(ast.Word{{Text: rest}}, value...)
		}
		return ast.Assign(head[:w.assignAt], value), nil
	}
	s.Kind = ast.KindInvocation
	s.Verb = words[0].word
	for _, w := range words[1:] {
		s.Args = append(s.Args, w.word)
	}
	return s, nil
}

func (p *parser) redirect(s *ast.Simple) error {
	op := p.tok
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tWord {
		return syntaxError(op.pos, fmt.Sprintf("missing target for %s", op.text))
	}
	target := p.tok.word
	switch op.text {
	case "<":
		s.In = target
	case ">", ">>":
		s.Out = target
		s.Flags &^= ast.OutAppend
		if op.text == ">>" {
			s.Flags |= ast.OutAppend
		}
	case "2>", "2>>":
		s.Err = target
		s.Flags &^= ast.ErrAppend
		if op.text == "2>>" {
			s.Flags |= ast.ErrAppend
		}
	case "&>", "&>>":
		s.Out, s.Err = target, target
		s.Flags &^= ast.OutAppend | ast.ErrAppend
		if op.text == "&>>" {
			s.Flags |= ast.OutAppend | ast.ErrAppend
		}
	}
	return p.advance()
}
