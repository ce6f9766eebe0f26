// Package edit implements the text operations an editor applies to a
// selection of algebra input: side swapping, declarations, line numbering,
// change detection and the commands behind the arithmetic shortcuts.
package edit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"maxfmt/levels"
)

// ExchangeHands swaps the sides of a top-level equation, a = b becoming
// b = a. Chains reverse as a whole. ok is false when s has no top-level =.
func ExchangeHands(s string) (string, bool) {
	parts := levels.Split(s, "=", levels.DefaultOptions())
	if len(parts) < 2 {
		return s, false
	}
	for i, p := range parts {
		// <=, >=, := and friends are not equations.
		if i < len(parts)-1 && strings.ContainsAny(lastByte(p), "<>:#!") {
			return s, false
		}
		parts[i] = strings.TrimSpace(p)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " = "), true
}

func lastByte(s string) string {
	if s == "" {
		return ""
	}
	return s[len(s)-1:]
}

// DeclareInteger turns a list of symbols into a declaration followed by the
// matching removal, commented out, and a facts() query:
//
//	declare(a, integer, b, integer)$ /* <-> remove(a, integer, b, integer)$ */ facts();
func DeclareInteger(s string) string {
	names := levels.Split(s, ",", levels.DefaultOptions())
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	args := "(" + strings.Join(names, ", integer, ") + ", integer)"
	return "declare" + args + "$ /* <-> remove" + args + "$ */ facts();"
}

// LineNumbered adds a line number to every line of s, before the line when
// head is set and after it otherwise. Numbers are right aligned to the width
// of the largest one and wrapped in prefix and suffix. CRLF line endings and
// a final line break are preserved.
func LineNumbered(s string, head bool, prefix, suffix string) string {
	trailing := strings.HasSuffix(s, "\n")
	eol := "\n"
	if strings.Contains(s, "\r") {
		eol = "\r\n"
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r", ""), "\n")
	n := len(lines)
	if trailing {
		n++
	}
	width := len(strconv.Itoa(n))

	var b strings.Builder
	for i, line := range lines {
		label := fmt.Sprintf("%s%*d%s", prefix, width, i+1, suffix)
		if head {
			b.WriteString(label + line)
		} else {
			b.WriteString(line + label)
		}
		b.WriteString(eol)
	}
	out := b.String()
	if !trailing {
		out = strings.TrimSuffix(out, eol)
	}
	return out
}

// Diff finds the single changed region between a and b. It returns the byte
// offset where they start to differ and the differing middles of each, after
// removing the longest common prefix and then the longest common suffix
// that does not overlap it. Offsets never split a UTF-8 sequence.
func Diff(a, b string) (offset int, removed, inserted string) {
	if a == "" || b == "" {
		return 0, a, b
	}
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	if i == len(a) || i == len(b) {
		return i, a[i:], b[i:]
	}

	j := 0
	for j < len(a)-i && j < len(b)-i && a[len(a)-1-j] == b[len(b)-1-j] {
		j++
	}
	for j > 0 && !utf8.RuneStart(a[len(a)-j]) {
		j--
	}
	return i, a[i : len(a)-j], b[i : len(b)-j]
}

// Operation is a session command built around a selection. The command's
// reply replaces the selection.
type Operation struct {
	Name    string `json:"name" yaml:"name"`
	Command string `json:"command" yaml:"command"`
	// keepParens keeps a parenthesized selection parenthesized.
	keepParens bool
	selection  string
}

// Splice returns the text that replaces the selection once the session
// answered with result.
func (op Operation) Splice(result string) string {
	if op.keepParens && Parenthesized(op.selection) {
		return "(" + result + ")"
	}
	return result
}

// Parenthesized reports whether s is one group: an opening parenthesis at
// the start matched by the closing one at the end.
func Parenthesized(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	span, ok := levels.FindEnclosingSpan(s, 1, 1, []levels.Pair{{Open: "(", Close: ")"}})
	return ok && span.Start == 0 && span.End == len(s)
}

// Negate builds -(sel).
func Negate(sel string) Operation {
	return Operation{Name: "negate", Command: "-(" + sel + ")", keepParens: true, selection: sel}
}

// Reciprocal builds 1/(sel).
func Reciprocal(sel string) Operation {
	return Operation{Name: "reciprocal", Command: "1/(" + sel + ")", selection: sel}
}

// Multiply distributes m over the terms of sel.
func Multiply(m, sel string) Operation {
	return Operation{Name: "multiply", Command: "multthru(" + m + "," + sel + ")", keepParens: true, selection: sel}
}

// Plus adds a to sel.
func Plus(a, sel string) Operation {
	return Operation{Name: "plus", Command: a + "+" + sel, keepParens: true, selection: sel}
}

// Power raises sel to e.
func Power(e, sel string) Operation {
	return Operation{Name: "power", Command: "(" + sel + ")^(" + e + ")", keepParens: true, selection: sel}
}
