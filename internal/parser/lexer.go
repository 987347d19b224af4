package parser

import (
	"fmt"
	"strings"

	"github.com/marcelocantos/tsh/internal/ast"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tWord
	tNewline
	tSemi  // ;
	tAmp   // &
	tPipe  // |
	tOr    // ||
	tAnd   // &&
	tRedir // < > >> 2> 2>> &> &>>
)

type token struct {
	kind tokenKind
	pos  int
	text string // source text of operators and redirections

	word ast.Word
	// bare is set for words written without quotes, escapes or variables.
	bare bool
	// assignAt is the offset of the = in NAME=value words, or -1.
	assignAt int
}

func (t token) describe() string {
	switch t.kind {
	case tEOF:
		return "end of input"
	case tNewline:
		return "newline"
	case tWord:
		return fmt.Sprintf("%q", ast.Quote(t.word))
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src string
	pos int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func isMeta(c byte) bool { return strings.IndexByte(";&|<>\n", c) >= 0 }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool { return isNameStart(c) || (c >= '0' && c <= '9') }

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) next() (token, error) {
	for {
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		switch {
		case l.peek(0) == '\\' && l.peek(1) == '\n':
			l.pos += 2
			continue
		case l.peek(0) == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}

	start := l.pos
	op := func(kind tokenKind, text string) (token, error) {
		l.pos += len(text)
		return token{kind: kind, pos: start, text: text}, nil
	}

	if l.pos >= len(l.src) {
		return token{kind: tEOF, pos: start}, nil
	}
	switch c := l.src[l.pos]; {
	case c == '\n':
		return op(tNewline, "\n")
	case c == ';':
		return op(tSemi, ";")
	case c == '|' && l.peek(1) == '|':
		return op(tOr, "||")
	case c == '|':
		return op(tPipe, "|")
	case c == '&' && l.peek(1) == '&':
		return op(tAnd, "&&")
	case c == '&' && l.peek(1) == '>' && l.peek(2) == '>':
		return op(tRedir, "&>>")
	case c == '&' && l.peek(1) == '>':
		return op(tRedir, "&>")
	case c == '&':
		return op(tAmp, "&")
	case c == '<':
		return op(tRedir, "<")
	case c == '>' && l.peek(1) == '>':
		return op(tRedir, ">>")
	case c == '>':
		return op(tRedir, ">")
	case c == '2' && l.peek(1) == '>' && l.peek(2) == '>':
		return op(tRedir, "2>>")
	case c == '2' && l.peek(1) == '>':
		return op(tRedir, "2>")
	}
	return l.word()
}

func (l *lexer) word() (token, error) {
	start := l.pos
	var w ast.Word
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			w = append(w, ast.Part{Text: lit.String()})
			lit.Reset()
		}
	}
	bare, inPlain := true, true
	plain := 0 // leading bytes outside any quoting
	quoted := func() { bare, inPlain = false, false }

	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isSpace(c) || isMeta(c) {
			break
		}
		switch c {
		case '\'':
			quoted()
			end := strings.IndexByte(l.src[l.pos+1:], '\'')
			if end < 0 {
				return token{}, incomplete(l.pos, "unterminated single quote")
			}
			lit.WriteString(l.src[l.pos+1 : l.pos+1+end])
			l.pos += end + 2
		case '"':
			quoted()
			if err := l.doubleQuoted(&w, &lit, flush); err != nil {
				return token{}, err
			}
		case '\\':
			quoted()
			switch l.peek(1) {
			case 0:
				return token{}, incomplete(l.pos, "trailing backslash")
			case '\n':
			default:
				lit.WriteByte(l.peek(1))
			}
			l.pos += 2
		case '$':
			quoted()
			if err := l.dollar(&w, &lit, flush); err != nil {
				return token{}, err
			}
		default:
			lit.WriteByte(c)
			if inPlain {
				plain++
			}
			l.pos++
		}
	}
	flush()
	if w == nil {
		w = ast.Word{}
	}

	t := token{kind: tWord, pos: start, word: w, bare: bare, assignAt: -1}
	if plain > 0 && len(w) > 0 && !w[0].Var {
		if eq := strings.IndexByte(w[0].Text[:plain], '='); eq > 0 && ast.IsName(w[0].Text[:eq]) {
			t.assignAt = eq
		}
	}
	return t, nil
}

// doubleQuoted consumes "..." starting at the opening quote. Variables are
// expanded; a backslash escapes only $ ` " \ and newline.
func (l *lexer) doubleQuoted(w *ast.Word, lit *strings.Builder, flush func()) error {
	open := l.pos
	l.pos++
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; c {
		case '"':
			l.pos++
			return nil
		case '\\':
			switch n := l.peek(1); n {
			case '$', '`', '"', '\\':
				lit.WriteByte(n)
				l.pos += 2
			case '\n':
				l.pos += 2
			default:
				lit.WriteByte(c)
				l.pos++
			}
		case '$':
			if err := l.dollar(w, lit, flush); err != nil {
				return err
			}
		default:
			lit.WriteByte(c)
			l.pos++
		}
	}
	return incomplete(open, "unterminated double quote")
}

// dollar consumes $NAME or ${NAME}. A $ followed by anything else is
// literal.
func (l *lexer) dollar(w *ast.Word, lit *strings.Builder, flush func()) error {
	start := l.pos
	if l.peek(1) == '{' {
		end := strings.IndexByte(l.src[l.pos+2:], '}')
		if end < 0 {
			return syntaxError(start, "unterminated ${")
		}
		name := l.src[l.pos+2 : l.pos+2+end]
		if !ast.IsName(name) {
			return syntaxError(start, fmt.Sprintf("bad substitution ${%s}", name))
		}
		flush()
		*w = append(*w, ast.Part{Text: name, Var: true})
		l.pos += end + 3
		return nil
	}
	if !isNameStart(l.peek(1)) {
		lit.WriteByte('$')
		l.pos++
		return nil
	}
	j := l.pos + 1
	for j < len(l.src) && isNameChar(l.src[j]) {
		j++
	}
	flush()
	*w = append(*w, ast.Part{Text: l.src[l.pos+1 : j], Var: true})
	l.pos = j
	return nil
}
