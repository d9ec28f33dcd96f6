package starbind

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type scriptedLines struct {
	lines   []string
	history []string
}

func (s *scriptedLines) Prompt(prompt string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedLines) AppendHistory(item string) {
	s.history = append(s.history, item)
}

type echoBuffer struct {
	bytes.Buffer
	echo strings.Builder
}

func (b *echoBuffer) Echo(s string) { b.echo.WriteString(s) }
func (b *echoBuffer) Flush()        {}

func TestREPL(t *testing.T) {
	out := new(echoBuffer)
	env := New(nil, out)
	rl := &scriptedLines{lines: []string{
		"Answer = 20",
		"def f(n):",
		"    return n * 2",
		"",
		") (",
		"f(Answer) + 2",
		"undefined_name",
		"exit",
		"Answer = 0",
	}}
	if err := env.repl(rl); err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"42\n", "undefined: undefined_name"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("output does not contain %q:\n%s", s, out.String())
		}
	}
	if len(rl.lines) != 1 {
		t.Errorf("input after exit was read: %v", rl.lines)
	}
	if v := env.env["Answer"]; v == nil || v.String() != "20" {
		t.Errorf("Answer not exported: %v", v)
	}
	if _, ok := env.env["f"]; ok {
		t.Errorf("lowercase global exported")
	}
	if echo := out.echo.String(); !strings.Contains(echo, ">>> def f(n):\n...     return n * 2\n") {
		t.Errorf("transcript: %q", echo)
	}
}

func TestREPLEndOfInput(t *testing.T) {
	out := new(echoBuffer)
	env := New(nil, out)
	if err := env.repl(&scriptedLines{lines: []string{"Last = 1 + 1"}}); err != nil {
		t.Fatal(err)
	}
	if v := env.env["Last"]; v == nil || v.String() != "2" {
		t.Errorf("Last: %v", v)
	}
}
