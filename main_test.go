package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxfmt/errors"
)

// execute runs the root command with defaults only and returns what it
// printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTextCommands(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"format", "(a*b)\n  +c\n", []string{"format"}, "a*b + c\n"},
		{"format blocks", "(%o1) (a*b)\n      +c\n\n(x)\n", []string{"format", "--blocks"}, "/* (%o1): */\na*b + c\n\nx\n"},
		{"strip", "(a*b)+c\n", []string{"strip"}, "a*b+c\n"},
		{"split", "f(a,b), c ,d\n", []string{"split"}, "f(a,b)\nc\nd\n"},
		{"split commands", "a:1$ b:2; c", []string{"split", "--commands"}, "a:1$\nb:2;\nc;\n"},
		{"levels", "f(x)\n", []string{"levels"}, "0\t0\t1\t\"f\"\n1\t1\t4\t\"(x)\"\n"},
		{"span", "f(a+b)", []string{"span", "--start", "3", "--end", "4"}, "1\t6\t(a+b)\n"},
		{"no span", "a+b", []string{"span", "--start", "1"}, "no enclosing brackets\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestStructuredOutput(t *testing.T) {
	out, err := execute(t, "(a*b)\n  +c\n", "-o", "json", "format")
	require.NoError(t, err)
	assert.Contains(t, out, `"output": "a*b + c"`)

	out, err = execute(t, "f(a+b)", "--output", "yaml", "span", "--start", "3", "--end", "4")
	require.NoError(t, err)
	assert.Equal(t, "found: true\nstart: 1\nend: 6\ntext: (a+b)\n", out)

	out, err = execute(t, "", "-o", "json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_depth": 256`)

	_, err = execute(t, "x", "-o", "xml", "format")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnknownEncoding))
}

func TestFormatReadsFile(t *testing.T) {
	path := writeFile(t, "reply.txt", "x = (a+b)\n")
	out, err := execute(t, "", "format", path)
	require.NoError(t, err)
	assert.Equal(t, "x = a + b\n", out)

	_, err = execute(t, "", "format", filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.HasCode(err, errors.CodeIORead))
}

func TestFormatWithLuaFilter(t *testing.T) {
	filter := writeFile(t, "upper.lua", "function filter(text) return string.upper(text) end\n")
	out, err := execute(t, "(a*b)\n  +c\n", "format", "--filter", filter)
	require.NoError(t, err)
	assert.Equal(t, "A*B + C\n", out)

	bad := writeFile(t, "bad.lua", "function filter(")
	_, err = execute(t, "x", "format", "--filter", bad)
	assert.True(t, errors.HasCode(err, errors.CodeScriptLoad))
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "one.txt")
	second := filepath.Join(dir, "two.txt")
	require.NoError(t, os.WriteFile(first, []byte("(%o1) (a*b)\n      +c\n\n(x)\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("f(x):=(x^2);\n"), 0644))

	out, err := execute(t, "", "batch", "-j", "2", first, second)
	require.NoError(t, err)
	assert.Equal(t, first+": completed\n"+second+": completed\n", out)

	data, err := os.ReadFile(first + ".out")
	require.NoError(t, err)
	assert.Equal(t, "/* (%o1): */\na*b + c\n\nx\n", string(data))

	out, err = execute(t, "", "batch", "--stdout", first, second)
	require.NoError(t, err)
	assert.Equal(t, "==> "+first+" <==\n/* (%o1): */\na*b + c\n\nx\n==> "+second+" <==\nf(x) := x^2;\n", out)

	missing := filepath.Join(dir, "missing.txt")
	out, err = execute(t, "", "batch", second, missing)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeBatchFailed))
	assert.Contains(t, out, second+": completed\n")
	assert.Contains(t, out, missing+": failed")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maxfmt.yaml")
	out, err := execute(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr", func(t *testing.T) {
		var stderr bytes.Buffer
		logger, closeLog, err := newLogger(LoggingConfig{Level: "warn", Format: "json"}, false, &stderr)
		require.NoError(t, err)
		logger.Info("hidden")
		logger.Warn("shown")
		closeLog()
		assert.NotContains(t, stderr.String(), "hidden")
		assert.Contains(t, stderr.String(), `"message":"shown"`)
	})

	t.Run("file with debug copy", func(t *testing.T) {
		var stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "maxfmt.log")
		logger, closeLog, err := newLogger(LoggingConfig{Level: "error", File: path}, true, &stderr)
		require.NoError(t, err)
		logger.Debug("traced")
		closeLog()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "traced")
		assert.Contains(t, stderr.String(), "traced")
	})

	t.Run("file only", func(t *testing.T) {
		var stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "maxfmt.log")
		logger, closeLog, err := newLogger(LoggingConfig{Level: "info", File: path}, false, &stderr)
		require.NoError(t, err)
		logger.Info("quiet")
		closeLog()
		assert.Empty(t, stderr.String())
	})
}

func TestEditCommands(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"exchange", "a+b = c\n", []string{"edit", "exchange"}, "c = a+b\n"},
		{"declare", "m, n\n", []string{"edit", "declare"}, "declare(m, integer, n, integer)$ /* <-> remove(m, integer, n, integer)$ */ facts();\n"},
		{"number", "x;\ny;\n", []string{"edit", "number"}, "1 x;\n2 y;\n"},
		{"number tail", "x;\ny;\n", []string{"edit", "number", "--tail", "--prefix", " /* ", "--suffix", " */"}, "x; /* 1 */\ny; /* 2 */\n"},
		{"negate", "(a-b)\n", []string{"edit", "op", "negate"}, "-((a-b))\n"},
		{"reciprocal", "a/b", []string{"edit", "op", "reciprocal"}, "1/(a/b)\n"},
		{"multiply", "(x+1)", []string{"edit", "op", "multiply", "--by", "2"}, "multthru(2,(x+1))\n"},
		{"plus", "x", []string{"edit", "op", "plus", "--by", "1"}, "1+x\n"},
		{"power", "a*b", []string{"edit", "op", "power", "--by", "2"}, "(a*b)^(2)\n"},
		{"splice keeps group", "(x+1)", []string{"edit", "op", "multiply", "--by", "2", "--result", "2*x + 2"}, "(2*x + 2)\n"},
		{"splice plain", "a-b", []string{"edit", "op", "negate", "--result", "b - a"}, "b - a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEditCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  string
	}{
		{"not an equation", "a <= b", []string{"edit", "exchange"}, errors.CodeNotEquation},
		{"unknown operation", "x", []string{"edit", "op", "square"}, errors.CodeUnknownCommand},
		{"missing operand", "x", []string{"edit", "op", "power"}, errors.CodeMissingOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestEditDiff(t *testing.T) {
	old := writeFile(t, "old.txt", "f(x) := x^2;\n")
	changed := writeFile(t, "new.txt", "f(x) := x^3;\n")

	out, err := execute(t, "", "edit", "diff", old, changed)
	require.NoError(t, err)
	assert.Equal(t, "10\t\"2\"\t\"3\"\n", out)

	out, err = execute(t, "", "-o", "json", "edit", "diff", old, changed)
	require.NoError(t, err)
	assert.Contains(t, out, `"offset": 10`)
	assert.Contains(t, out, `"inserted": "3"`)
}

const sessionLog = "(%i1) expand((a+b)^2);\n(%o1) b^2+2*a*b+a^2\n(%i2) a:1$\n(%i3) f(x):=(x^2);\n(%o3) f(x):=x^2\n(%i4) "

func TestTranscriptCommand(t *testing.T) {
	out, err := execute(t, sessionLog, "transcript")
	require.NoError(t, err)
	assert.Equal(t, "/* (%i1): */\nexpand((a+b)^2);\n/* (%o1): */\nb^2 + 2*a*b + a^2\n\n"+
		"/* (%i2): */\na:1$\n\n"+
		"/* (%i3): */\nf(x):=(x^2);\n/* (%o3): */\nf(x) := x^2\n", out)

	out, err = execute(t, sessionLog, "transcript", "--replies")
	require.NoError(t, err)
	assert.Equal(t, "/* (%o1): */\nb^2 + 2*a*b + a^2\n\n/* (%o3): */\nf(x) := x^2\n", out)

	out, err = execute(t, sessionLog, "-o", "json", "transcript")
	require.NoError(t, err)
	assert.Contains(t, out, `"label": "(%i2)"`)
	assert.Contains(t, out, `"kind": "silent"`)

	out, err = execute(t, "", "transcript")
	require.NoError(t, err)
	assert.Empty(t, out)
}
