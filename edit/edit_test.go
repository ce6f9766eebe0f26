package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeHands(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"equation", "y = a*x + b", "a*x + b = y", true},
		{"tight", "a=b", "b = a", true},
		{"nested equation ignored", "f(x = 1) = 2", "2 = f(x = 1)", true},
		{"chain", "a = b = c", "c = b = a", true},
		{"no equation", "a + b", "a + b", false},
		{"less or equal", "a <= b", "a <= b", false},
		{"definition", "f(x) := x", "f(x) := x", false},
		{"string", `s = "x = y"`, `"x = y" = s`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExchangeHands(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeclareInteger(t *testing.T) {
	assert.Equal(t,
		"declare(a, integer, b, integer)$ /* <-> remove(a, integer, b, integer)$ */ facts();",
		DeclareInteger("a, b"))
	assert.Equal(t,
		"declare(n, integer)$ /* <-> remove(n, integer)$ */ facts();",
		DeclareInteger("n"))
}

func TestLineNumbered(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		head   bool
		prefix string
		suffix string
		want   string
	}{
		{"head", "a\nb", true, "", ": ", "1: a\n2: b"},
		{"tail", "a\nb", false, " // ", "", "a // 1\nb // 2"},
		{"trailing newline", "a\n", true, "", ": ", "1: a\n2: \n"},
		{"width", "1\n2\n3\n4\n5\n6\n7\n8\n9\n10", true, "", " ", " 1 1\n 2 2\n 3 3\n 4 4\n 5 5\n 6 6\n 7 7\n 8 8\n 9 9\n10 10"},
		{"crlf", "a\r\nb", true, "", ":", "1:a\r\n2:b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineNumbered(tt.in, tt.head, tt.prefix, tt.suffix))
		})
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		offset   int
		removed  string
		inserted string
	}{
		{"empty old", "", "abc", 0, "", "abc"},
		{"empty new", "abc", "", 0, "abc", ""},
		{"identical", "abc", "abc", 3, "", ""},
		{"append", "ab", "abc", 2, "", "c"},
		{"truncate", "abc", "ab", 2, "c", ""},
		{"middle", "a+b+c", "a*b+c", 1, "+", "*"},
		{"insert middle", "ac", "abc", 1, "", "b"},
		{"delete middle", "abc", "ac", 1, "b", ""},
		{"repeated text", "aaa", "aaaa", 3, "", "a"},
		{"multibyte", "xπy", "xσy", 1, "π", "σ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, removed, inserted := Diff(tt.a, tt.b)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.removed, removed)
			assert.Equal(t, tt.inserted, inserted)
			assert.Equal(t, tt.b, tt.a[:offset]+inserted+tt.a[offset+len(removed):])
		})
	}
}

func TestOperations(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		command string
		result  string
		splice  string
	}{
		{"negate", Negate("a-b"), "-(a-b)", "b - a", "b - a"},
		{"negate group", Negate("(a-b)"), "-((a-b))", "b - a", "(b - a)"},
		{"reciprocal group", Reciprocal("(a/b)"), "1/((a/b))", "b/a", "b/a"},
		{"multiply", Multiply("2", "(x+1)"), "multthru(2,(x+1))", "2*x + 2", "(2*x + 2)"},
		{"plus", Plus("1", "x"), "1+x", "x + 1", "x + 1"},
		{"power", Power("2", "(a)*(b)"), "((a)*(b))^(2)", "a^2*b^2", "a^2*b^2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.command, tt.op.Command)
			assert.Equal(t, tt.splice, tt.op.Splice(tt.result))
		})
	}
}

func TestParenthesized(t *testing.T) {
	assert.True(t, Parenthesized("(a+b)"))
	assert.True(t, Parenthesized("((a)+(b))"))
	assert.False(t, Parenthesized("(a)+(b)"))
	assert.False(t, Parenthesized("a+b"))
	assert.False(t, Parenthesized("("))
}

func TestWordStart(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret int
		want  int
	}{
		{"start of text", "integ", 5, 0},
		{"after operator", "x*integ", 7, 2},
		{"percent included", "2*%p", 4, 2},
		{"underscore included", "a_1", 3, 1},
		{"space ends word", "a sin", 5, 2},
		{"empty word", "f(", 2, 2},
		{"caret clamped", "ab", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordStart(tt.text, tt.caret))
		})
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter()

	t.Run("prefix ignores case", func(t *testing.T) {
		assert.Equal(t, []string{"integrate(expr, x)", "integrate(expr, x, a, b)"}, c.Candidates("INTEG"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, c.Candidates("zzz"))
		_, ok := c.Complete("x + zzz", 7)
		assert.False(t, ok)
	})

	t.Run("fuzzy fallback", func(t *testing.T) {
		f := NewCompleter(WithVocabulary([]string{"ratsimp(expr)", "trigsimp(expr)"}), WithFuzzy(true))
		assert.Equal(t, []string{"trigsimp(expr)"}, f.Candidates("tgsmp"))
	})

	t.Run("cycling", func(t *testing.T) {
		comp, ok := NewCompleter(WithVocabulary([]string{"sin(x)", "sinh(x)", "sqrt(x)"})).Complete("y + si", 6)
		require.True(t, ok)
		assert.Equal(t, 4, comp.From)
		assert.Equal(t, "sin(x)", comp.Next())
		assert.Equal(t, "sinh(x)", comp.Next())
		assert.Equal(t, "sin(x)", comp.Next())
		assert.Equal(t, "sinh(x)", comp.Prev())
		assert.Equal(t, "sin(x)", comp.Prev())
	})

	t.Run("constant", func(t *testing.T) {
		comp, ok := c.Complete("2*%p", 4)
		require.True(t, ok)
		assert.Equal(t, []string{"%pi"}, comp.Candidates)
	})
}

func TestSuggest(t *testing.T) {
	commands := []string{":help", ":keep", ":levels", ":quit", ":strip"}

	got, ok := Suggest(":lev", commands)
	require.True(t, ok)
	assert.Equal(t, ":levels", got)

	got, ok = Suggest(":qiut", commands)
	require.True(t, ok)
	assert.Equal(t, ":quit", got)

	_, ok = Suggest(":xyzzy", commands)
	assert.False(t, ok)
}
