package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseWord(t *testing.T) {
	tests := []struct {
		in   string
		want Word
	}{
		{"hello", Word{{Text: "hello"}}},
		{"$HOME", Word{{Text: "HOME", Var: true}}},
		{"${HOME}/bin", Word{{Text: "HOME", Var: true}, {Text: "/bin"}}},
		{"a$X-b", Word{{Text: "a"}, {Text: "X", Var: true}, {Text: "-b"}}},
		{`cost \$5`, Word{{Text: "cost $5"}}},
		{"100$", Word{{Text: "100$"}}},
		{"", Word{}},
	}
	for _, tt := range tests {
		got, err := ParseWord(tt.in)
		if err != nil {
			t.Errorf("ParseWord(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseWord(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseWordErrors(t *testing.T) {
	for _, in := range []string{`trailing\`, "${HOME", "${1X}"} {
		if _, err := ParseWord(in); err == nil {
			t.Errorf("ParseWord(%q): expected error", in)
		}
	}
}

func TestWordStringRoundTrip(t *testing.T) {
	w := Word{{Text: `a$b\c`}, {Text: "X", Var: true}, {Text: "tail"}}
	got, err := ParseWord(w.String())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr bool
	}{
		{"simple", Command("ls", "-l"), false},
		{"compound", Join(OpPipe, Command("ls"), Command("wc")), false},
		{"nil", nil, true},
		{"missing right", &Compound{Op: OpSequential, Left: Command("ls")}, true},
		{"bad op", Join(Op(42), Command("a"), Command("b")), true},
		{"no verb", &Simple{}, true},
		{"assignment", Assign("FOO", Lit("bar")), false},
		{"bad name", Assign("1FOO", Lit("bar")), true},
		{"assignment with args", &Simple{Kind: KindAssignment, Verb: Lit("A"), Args: []Word{Lit("x")}}, true},
		{"nested error", Join(OpAndThen, Command("a"), Join(OpOrElse, &Simple{}, Command("b"))), true},
	}
	for _, tt := range tests {
		err := Validate(tt.node)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestFormat(t *testing.T) {
	redirected := Command("cmd")
	redirected.In = Lit("in.txt")
	redirected.Out = Lit("out.txt")
	redirected.Err = Lit("out.txt")
	redirected.Flags = OutAppend | ErrAppend

	split := Command("cmd")
	split.Out = Lit("o")
	split.Err = Lit("e")
	split.Flags = ErrAppend

	tests := []struct {
		name string
		node Node
		want string
	}{
		{"simple", Command("echo", "hello world"), "echo 'hello world'"},
		{"variable", &Simple{Verb: Lit("echo"), Args: []Word{{{Text: "HOME", Var: true}, {Text: "/x"}}}}, "echo ${HOME}/x"},
		{"assignment", Assign("A", Lit("it's")), `A='it'\''s'`},
		{"sequence", Join(OpSequential, Command("a"), Command("b")), "a; b"},
		{"pipe binds tighter", Join(OpAndThen, Join(OpPipe, Command("a"), Command("b")), Command("c")), "a | b && c"},
		{"grouped left", Join(OpPipe, Join(OpSequential, Command("a"), Command("b")), Command("c")), "{ a; b; } | c"},
		{"grouped right", Join(OpAndThen, Command("a"), Join(OpOrElse, Command("b"), Command("c"))), "a && { b || c; }"},
		{"both streams", redirected, "cmd < in.txt &>> out.txt"},
		{"split streams", split, "cmd > o 2>> e"},
		{"empty arg", &Simple{Verb: Lit("echo"), Args: []Word{{}}}, "echo ''"},
	}
	for _, tt := range tests {
		if got := Format(tt.node); got != tt.want {
			t.Errorf("%s: Format() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	echo := Command("echo")
	echo.Args = []Word{{{Text: "GREETING", Var: true}}, Lit("$5")}
	echo.Out = Lit("out.txt")
	echo.Flags = OutAppend

	tree := Join(OpSequential,
		Assign("GREETING", Lit("hi")),
		Join(OpPipe, echo, Command("cat")),
	)

	data, err := EncodeYAML(tree)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("decode:\n%s\nerror: %v", data, err)
	}
	if diff := cmp.Diff(Node(tree), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
op: "&&"
left:
  verb: test
  args: ["-d", "$HOME"]
right:
  verb: echo
  args: [ok]
  out: log.txt
  out_append: true
`
	n, err := DecodeYAML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := n.(*Compound)
	if !ok || c.Op != OpAndThen {
		t.Fatalf("expected && compound, got %#v", n)
	}
	right := c.Right.(*Simple)
	if right.Flags != OutAppend {
		t.Errorf("expected OutAppend, got %v", right.Flags)
	}
	if got := Format(n); got != "test -d ${HOME} && echo ok >> log.txt" {
		t.Errorf("unexpected tree %q", got)
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown field", "verb: ls\nbogus: 1\n", "bogus"},
		{"ambiguous", "verb: ls\nop: ';'\n", "exactly one"},
		{"missing child", "op: '|'\nleft: {verb: ls}\n", "root.right"},
		{"bad op", "op: '>>'\nleft: {verb: a}\nright: {verb: b}\n", "unknown operator"},
		{"bad assignment", "assign: 9X\nvalue: v\n", "invalid name"},
	}
	for _, tt := range tests {
		_, err := DecodeYAML([]byte(tt.doc))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}

func TestLeaves(t *testing.T) {
	tree := Join(OpParallel, Join(OpPipe, Command("a"), Command("b")), Command("c"))
	var verbs []string
	for _, s := range Leaves(tree) {
		v, _ := s.Verb.Literal()
		verbs = append(verbs, v)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, verbs); diff != "" {
		t.Errorf("Leaves mismatch (-want +got):\n%s", diff)
	}
}
