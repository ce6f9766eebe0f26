package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxfmt/edit"
	"maxfmt/levels"
)

func run(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	r := NewREPL(REPLConfig{In: strings.NewReader(input), Out: &out})
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestREPLFormatsBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"blank line ends block", "(a*b)\n  +c\n\n", "a*b + c\n"},
		{"end of input ends block", "x = (a+b)", "x = a + b\n"},
		{"terminated command", "f(x):=(x^2);\n", "f(x) := x^2;\n"},
		{"open bracket keeps reading", "f(a;\nb);\n", "f(a;b);\n"},
		{"session reply", "(%o1) (a*b)\n      +c\n\n", "/* (%o1): */\na*b + c\n"},
		{"two blocks", "(a)\n\n(b)\n", "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.input))
		})
	}
}

func TestREPLCommands(t *testing.T) {
	t.Run("quit stops reading", func(t *testing.T) {
		assert.Equal(t, "a\n", run(t, "(a)\n\n:quit\n(b)\n"))
	})

	t.Run("strip mode", func(t *testing.T) {
		out := run(t, ":strip\n(a*b)+c\n")
		assert.Equal(t, "mode: strip\na*b+c\n", out)
	})

	t.Run("keep newlines", func(t *testing.T) {
		out := run(t, ":keep\n1 \n2 \n")
		assert.Equal(t, "keep newlines: true\n1\n2\n", out)
	})

	t.Run("levels mode", func(t *testing.T) {
		out := run(t, ":levels\nf(x)\n")
		assert.Contains(t, out, "mode: levels\n")
		assert.Contains(t, out, "f")
	})

	t.Run("unknown command suggests", func(t *testing.T) {
		out := run(t, ":lev\n")
		assert.Contains(t, out, "unknown command: :lev")
		assert.Contains(t, out, "did you mean :levels?")
	})

	t.Run("help", func(t *testing.T) {
		out := run(t, ":help\n")
		for _, name := range []string{":help", ":quit", ":keep", ":strip", ":levels", ":format", ":reset"} {
			assert.Contains(t, out, name)
		}
	})

	t.Run("command inside a block is text", func(t *testing.T) {
		var out bytes.Buffer
		r := NewREPL(REPLConfig{In: strings.NewReader(""), Out: &out})
		r.HandleLine("(a")
		r.HandleLine(":quit")
		assert.Equal(t, ModeFormat, r.Mode())
		r.HandleLine(")")
		r.Flush()
		assert.Equal(t, "a:quit\n", out.String())
	})
}

func TestMultiLineBuffer(t *testing.T) {
	b := NewMultiLineBuffer(levels.DefaultOptions())
	assert.True(t, b.IsEmpty())
	assert.False(t, b.IsComplete())

	b.AddLine("f(x,")
	assert.False(t, b.IsComplete())
	b.AddLine(`"a;");`)
	assert.True(t, b.IsComplete())
	assert.Equal(t, 2, b.GetLineCount())
	assert.Equal(t, "f(x,\n\"a;\");", b.GetContent())

	assert.Equal(t, `"a;");`, b.RemoveLastLine())
	b.AddLine(`"a;`)
	assert.False(t, b.IsComplete())

	b.Clear()
	assert.True(t, b.IsEmpty())
	assert.Empty(t, b.RemoveLastLine())
}

func TestCompleter(t *testing.T) {
	words := edit.NewCompleter(edit.WithVocabulary([]string{"sin(x)", "sinh(x)", "sqrt(x)"}))
	c := NewCompleter(words, func() []string { return []string{":help", ":keep", ":levels"} })

	line := []rune("y + si")
	got, length := c.Do(line, len(line))
	assert.Equal(t, 2, length)
	assert.Equal(t, [][]rune{[]rune("n(x)"), []rune("nh(x)")}, got)

	line = []rune(":le")
	got, length = c.Do(line, len(line))
	assert.Equal(t, 3, length)
	assert.Equal(t, [][]rune{[]rune("vels")}, got)

	line = []rune("f(")
	got, length = c.Do(line, len(line))
	assert.Zero(t, length)
	assert.Empty(t, got)
}
