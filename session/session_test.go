package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worksheet = "a + b;\n\nb + c;\nc + d;\n\nd + e;"

func TestBlockAt(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret int
		want  string
	}{
		{"first block", worksheet, 0, "a + b;"},
		{"middle block", worksheet, 10, "b + c;\nc + d;"},
		{"last block", worksheet, 25, "d + e;"},
		{"caret past end", worksheet, 100, "d + e;"},
		{"trailing blank lines", "x;\n\n\n", 5, ""},
		{"single block", "x;\n", 1, "x;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BlockAt(tt.text, tt.caret)
			assert.Equal(t, tt.want, b.Text)
			assert.Equal(t, tt.want, tt.text[b.Start:b.End])
		})
	}
}

func TestBlocks(t *testing.T) {
	texts := func(blocks []Block) []string {
		var out []string
		for _, b := range blocks {
			out = append(out, b.Text)
		}
		return out
	}

	assert.Equal(t, []string{"a + b;", "b + c;\nc + d;", "d + e;"}, texts(Blocks(worksheet)))
	assert.Equal(t, []string{"x;", "y;"}, texts(Blocks("\n\nx;\n\n\n\ny;\n\n")))
	assert.Empty(t, Blocks(" \n\n \n"))
}

func TestStripInputLabels(t *testing.T) {
	rest, n := StripInputLabels("/* (%i1): */\n/* (%i2): */\nx;")
	assert.Equal(t, "x;", rest)
	assert.Equal(t, 26, n)

	rest, n = StripInputLabels("x; /* (%i1): */\n")
	assert.Equal(t, "x; /* (%i1): */\n", rest)
	assert.Zero(t, n)

	assert.Equal(t, "/* (%i3): */", InputHeader(" (%i3) "))
}

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"terminators", "a:1$ b:2; c", []string{"a:1$", "b:2;", "c;"}},
		{"comments dropped", "/* note; */ x; /* y$ */", []string{"x;"}},
		{"string terminator", `print("a;b")$`, []string{`print("a;b")$`}},
		{"comment marker in string", `s:"/*"; t;`, []string{`s:"/*";`, "t;"}},
		{"lisp runs to semicolon", ":lisp (princ $x); y;", []string{":lisp (princ $x);", "y;"}},
		{"unterminated lisp", ":lisp (foo)", []string{":lisp (foo);"}},
		{"lone terminators", ";;x", []string{"x;"}},
		{"terminator inside brackets", "f(a;b);", []string{"f(a;b);"}},
		{"worksheet block", "b + c;\nc + d;", []string{"b + c;", "c + d;"}},
		{"empty", "  \n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCommands(tt.in))
		})
	}
}

func TestParseReply(t *testing.T) {
	t.Run("output", func(t *testing.T) {
		r := ParseReply("expand((a+b)^2);", "(%o2) b^2+2*a*b+a^2\n")
		assert.Equal(t, KindOutput, r.Kind)
		assert.Equal(t, "(%o2)", r.Label)
		assert.Equal(t, "b^2 + 2*a*b + a^2", r.Text)
		assert.Equal(t, "/* (%o2): */\nb^2 + 2*a*b + a^2", r.Render(false))
		assert.Equal(t, "b^2 + 2*a*b + a^2", r.Render(true))
	})

	t.Run("wrapped output", func(t *testing.T) {
		r := ParseReply("x;", "(%o1) (a*b)\n      +c")
		assert.Equal(t, "a*b + c", r.Text)
	})

	t.Run("label inside string result", func(t *testing.T) {
		r := ParseReply("s;", `(%o5) "see (%o2) above"`)
		assert.Equal(t, KindOutput, r.Kind)
		assert.Equal(t, "(%o5)", r.Label)
		assert.Equal(t, `"see (%o2) above"`, r.Text)
		assert.Empty(t, r.Printed)
	})

	t.Run("printed lines", func(t *testing.T) {
		r := ParseReply("for i thru 2 do print(i);", "1 \n2 \n(%o3) done")
		assert.Equal(t, KindOutput, r.Kind)
		assert.Equal(t, "1\n2", r.Printed)
		assert.Equal(t, "done", r.Text)
		assert.Equal(t, "1\n2\n/* (%o3): */\ndone", r.Render(false))
	})

	t.Run("help", func(t *testing.T) {
		r := ParseReply("? integrate", "integrate help text\n\n(%o4) true")
		assert.Equal(t, KindHelp, r.Kind)
		assert.Equal(t, "integrate help text", r.Text)
		assert.Equal(t, "/* HELP: */\nintegrate help text", r.Render(false))
	})

	t.Run("silent", func(t *testing.T) {
		r := ParseReply("a:1$", "")
		assert.Equal(t, KindSilent, r.Kind)
		assert.Empty(t, r.Render(false))
	})

	t.Run("error", func(t *testing.T) {
		raw := "expt: undefined: 0 to a negative exponent.\n -- an error. To debug this try: debugmode(true);"
		r := ParseReply("1/0;", raw)
		assert.Equal(t, KindError, r.Kind)
		assert.Equal(t, "/* ERROR: */\n"+raw, r.Render(false))
		assert.Equal(t, "1/0;\n/* ERROR: */\n"+raw, r.Render(true))
	})

	t.Run("syntax error", func(t *testing.T) {
		r := ParseReply("f(;", "incorrect syntax: , is not a prefix operator")
		assert.Equal(t, KindError, r.Kind)
	})

	t.Run("warning", func(t *testing.T) {
		r := ParseReply("x;", "Warning: something odd\n\nmore")
		assert.Equal(t, KindWarning, r.Kind)
		assert.Equal(t, "/* WARNING */\nWarning: something odd", r.Render(false))
	})

	t.Run("lisp", func(t *testing.T) {
		r := ParseReply(":lisp (+ 1 2);", "3")
		assert.Equal(t, KindLisp, r.Kind)
		assert.Equal(t, "/* lisp: */\n3", r.Render(false))
		assert.Equal(t, "3", r.Render(true))
	})

	t.Run("unclear", func(t *testing.T) {
		r := ParseReply("x;", "???")
		assert.Equal(t, KindUnclear, r.Kind)
		assert.Empty(t, r.Render(false))
	})
}

func TestTranscript(t *testing.T) {
	replies := []Reply{
		ParseReply("x+x;", "(%o1) 2*x"),
		ParseReply("a:1$", ""),
		ParseReply("y;", "(%o3) y"),
	}
	assert.Equal(t, "/* (%o1): */\n2*x\n\n/* (%o3): */\ny", Transcript(replies, false))
	assert.Equal(t, "2*x\ny", Transcript(replies, true))
}

func TestReplyJSON(t *testing.T) {
	data, err := json.Marshal(ParseReply("x;", "(%o1) x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"x;","kind":"output","label":"(%o1)","text":"x"}`, string(data))
}

const sessionLog = "(%i1) expand((a+b)^2);\n(%o1) b^2+2*a*b+a^2\n(%i2) a:1$\n(%i3) f(x):=(x^2);\n(%o3) f(x):=x^2\n(%i4) "

func TestParseLog(t *testing.T) {
	exchanges := NewParser(nil, nil).ParseLog(sessionLog)
	require.Len(t, exchanges, 3)

	tests := []struct {
		label   string
		command string
		kind    Kind
		text    string
	}{
		{"(%i1)", "expand((a+b)^2);", KindOutput, "b^2 + 2*a*b + a^2"},
		{"(%i2)", "a:1$", KindSilent, ""},
		{"(%i3)", "f(x):=(x^2);", KindOutput, "f(x) := x^2"},
	}
	for i, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.label, exchanges[i].Label)
			assert.Equal(t, tt.command, exchanges[i].Command)
			assert.Equal(t, tt.kind, exchanges[i].Reply.Kind)
			assert.Equal(t, tt.text, exchanges[i].Reply.Text)
		})
	}

	assert.Empty(t, NewParser(nil, nil).ParseLog("no prompts here"))
}

func TestWorksheet(t *testing.T) {
	exchanges := NewParser(nil, nil).ParseLog(sessionLog)
	want := "/* (%i1): */\nexpand((a+b)^2);\n/* (%o1): */\nb^2 + 2*a*b + a^2\n\n" +
		"/* (%i2): */\na:1$\n\n" +
		"/* (%i3): */\nf(x):=(x^2);\n/* (%o3): */\nf(x) := x^2"
	assert.Equal(t, want, Worksheet(exchanges))

	assert.Equal(t, "/* (%o1): */\nb^2 + 2*a*b + a^2\n\n/* (%o3): */\nf(x) := x^2",
		Transcript(Replies(exchanges), false))

	rest, _ := StripInputLabels(Blocks(Worksheet(exchanges))[0].Text)
	assert.Equal(t, "expand((a+b)^2);\n/* (%o1): */\nb^2 + 2*a*b + a^2", rest)
}
