package output

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxfmt/errors"
	"maxfmt/parens"
)

func TestCollapseNewlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"wrapped operator", "a+\n  b", "a+b"},
		{"wrapped before operator", "(a*b)\n   +c", "(a*b)+c"},
		{"symbols stay apart", "foo\nbar", "foo bar"},
		{"plain spaces untouched", "a + b", "a + b"},
		{"literal keeps its newline", "\"x\ny\"\n+z", "\"x\ny\"+z"},
		{"crlf", "a,\r\nb", "a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseNewlines(tt.in))
		})
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces removed", "f ( x , y )", "f(x,y)"},
		{"word operators keep one space", "a  and  b", "a and b"},
		{"quoted call", "'diff(y,x)", "diff(y,x)"},
		{"quoted symbol untouched", "'x+1", "'x+1"},
		{"literal spaces kept", `print("a  b")`, `print("a  b")`},
		{"literals stay apart from words", `"a" and "b"`, `"a" and "b"`},
		{"newlines kept", "1 \n2", "1\n2"},
		{"keyword before group", "if (x>0) then - 1", "if (x>0) then -1"},
		{"prefix after word operator", "x and  -y", "x and -y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in))
		})
	}
}

func TestRespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exponent notation", "1.0e + 10", "1.0e+10"},
		{"binary plus", "a+b", "a + b"},
		{"binary minus", "a-b", "a - b"},
		{"leading minus", "-a", "-a"},
		{"minus after operator", "a*-b", "a*-b"},
		{"minus after bracket", "f(-x)", "f(-x)"},
		{"minus after comma", "[1,-2]", "[1, -2]"},
		{"minus after equals", "a=-1", "a = -1"},
		{"minus after word operator", "a and -b", "a and -b"},
		{"comma", "f(a,b)", "f(a, b)"},
		{"assignment", "f(x):=x^2", "f(x) := x^2"},
		{"relational kept tight", "a<=b", "a<=b"},
		{"existing spacing normalized", "a   +   b", "a + b"},
		{"compact exponent", "2.5e-3*x", "2.5e-3*x"},
		{"bigfloat exponent", "1.5b-7", "1.5b-7"},
		{"symbol ending in e", "x1e-3", "x1e - 3"},
		{"literal untouched", `"a+b"+c`, `"a+b" + c`},
		{"exponent of negative", "%e^-x", "%e^-x"},
		{"plus before line break", "a+\nb", "a +\nb"},
		{"minus after line break", "a\n-b", "a\n- b"},
		{"prefix minus after line break", "a+\n-b", "a +\n-b"},
		{"equals before line break", "x=\n1", "x =\n1"},
		{"equals after line break", "x\n=1", "x\n= 1"},
		{"comma before line break", "f(a,\nb)", "f(a,\nb)"},
		{"crlf before operator", "a\r\n+b", "a\r\n+ b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Respace(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		keepNewlines bool
		want         string
	}{
		{"wrapped product", "(a*b)\n   +c", false, "a*b + c"},
		{"first derivative", "'diff(y,x,1)", false, "diff(y, x)"},
		{"list of negatives", "[1,(-2)]", false, "[1, -2]"},
		{"equation", "x = (a+b)", false, "x = a + b"},
		{"kept grouping", "(a + b) * c", false, "(a + b)*c"},
		{"exponent numeral", "1.0e+10*x", false, "1.0e+10*x"},
		{"definition", "f(x):=(x^2)", false, "f(x) := x^2"},
		{"literal argument", `print("a  +  b"), x`, false, `print("a  +  b"), x`},
		{"word operators", "a and (not b)", false, "a and not b"},
		{"print output keeps lines", "1 \n2 \n3", true, "1\n2\n3"},
		{"exponent guard", "%e^-(a*b)", false, "%e^-(a*b)"},
		{"kept break after plus", "a+\nb", true, "a +\nb"},
		{"kept break before minus", "a\n-b", true, "a\n- b"},
		{"kept break after equals", "x = \n 1", true, "x =\n1"},
		{"kept break in sum", "(a+b)*c +\n  (d*e)", true, "(a + b)*c +\nd*e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in, tt.keepNewlines))
		})
	}
}

func TestFormatTooDeep(t *testing.T) {
	f := New(WithMaxDepth(2))
	in := "(((a)))+b"

	t.Run("lenient keeps parentheses", func(t *testing.T) {
		res := f.Run(in, false)
		assert.True(t, res.Degraded)
		assert.Equal(t, "(((a))) + b", res.Output)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, res.Output, f.Format(in, false))
	})

	t.Run("strict returns the error", func(t *testing.T) {
		out, err := f.FormatStrict(in, false)
		require.Error(t, err)
		assert.Empty(t, out)
		assert.True(t, parens.IsTooDeep(err))
	})
}

func TestFormatFilters(t *testing.T) {
	upper := FilterFunc{FilterName: "upper", Fn: func(s string) (string, error) {
		return strings.ToUpper(s), nil
	}}
	broken := FilterFunc{FilterName: "broken", Fn: func(string) (string, error) {
		return "", stderrors.New("no")
	}}

	t.Run("applied in order", func(t *testing.T) {
		f := New(WithFilters(upper))
		assert.Equal(t, "A + B", f.Format("a+b", false))
	})

	t.Run("failing filter is skipped", func(t *testing.T) {
		f := New(WithFilters(broken, upper))
		res := f.Run("a+b", false)
		assert.Equal(t, "A + B", res.Output)
		assert.True(t, res.Degraded)
		assert.Equal(t, []string{"broken: no"}, res.Warnings)
	})

	t.Run("strict stops at failing filter", func(t *testing.T) {
		f := New(WithFilters(broken))
		_, err := f.FormatStrict("a+b", false)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeScriptCall))
	})
}

func TestFormatIsIdempotent(t *testing.T) {
	inputs := []string{
		"(a*b)\n   +c",
		"'diff(y,x,1)+((x-1))^2",
		"[1,(-2),\"s, t\"]",
		"f(x):=if (x>0) then x else -x",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Format(in, false)
			assert.Equal(t, once, Format(once, false))
		})
	}

	t.Run("kept line breaks", func(t *testing.T) {
		once := Format("(a+b)*c +\n  (d*e)-\nf", true)
		assert.Equal(t, once, Format(once, true))
	})
}
