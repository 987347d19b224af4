package ast

import (
	"fmt"
	"strings"
)

// Part is one piece of a word: literal text or a variable reference.
type Part struct {
	Text string
	Var  bool // Text names a variable
}

// Word is a chain of parts that resolves to a single string.
// A nil Word means "absent".
type Word []Part

// Lit returns a word consisting of a single literal.
func Lit(s string) Word {
	return Word{{Text: s}}
}

// Var returns a word consisting of a single variable reference.
func Var(name string) Word {
	return Word{{Text: name, Var: true}}
}

// Literal reports whether w contains no variable references, and if so
// returns its text.
func (w Word) Literal() (string, bool) {
	var sb strings.Builder
	for _, p := range w {
		if p.Var {
			return "", false
		}
		sb.WriteString(p.Text)
	}
	return sb.String(), true
}

// String renders the word in the notation used by the YAML codec:
// variables as ${NAME}, a literal $ or \ escaped with a backslash.
func (w Word) String() string {
	var sb strings.Builder
	for _, p := range w {
		if p.Var {
			fmt.Fprintf(&sb, "${%s}", p.Text)
			continue
		}
		for _, r := range p.Text {
			if r == '$' || r == '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ParseWord is the inverse of Word.String. Both $NAME and ${NAME} are
// accepted; a $ not followed by a name is literal.
func ParseWord(s string) (Word, error) {
	var w Word
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			w = append(w, Part{Text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("word %q: trailing backslash", s)
			}
			i++
			lit.WriteByte(s[i])
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("word %q: unterminated ${", s)
			}
			name := s[i+2 : i+2+end]
			if !IsName(name) {
				return nil, fmt.Errorf("word %q: bad variable name %q", s, name)
			}
			flush()
			w = append(w, Part{Text: name, Var: true})
			i += 2 + end
		case c == '$' && i+1 < len(s) && isNameStart(s[i+1]):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			flush()
			w = append(w, Part{Text: s[i+1 : j], Var: true})
			i = j - 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	if w == nil {
		w = Word{}
	}
	return w, nil
}

// IsName reports whether s is a valid variable name.
func IsName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
