package output

import (
	"regexp"
	"strings"

	"maxfmt/levels"
)

// quotedCall matches a quote mark before a function name, as in 'diff(.
var quotedCall = regexp.MustCompile(`'([A-Za-z_%][A-Za-z0-9_%]*)\(`)

// exponentSpacing matches a numeral whose exponent sign was spaced as a
// binary operator, e.g. 1.0e + 10. The leading group stops a match inside a
// symbol such as x1e.
var exponentSpacing = regexp.MustCompile(`(^|[^A-Za-z0-9_%.])((?:\d+\.?\d*|\.\d+)[eEbB]) ([+-]) (\d)`)

// wordOperators are symbols after which + and - are prefix operators.
var wordOperators = map[string]bool{
	"and": true, "or": true, "not": true,
	"if": true, "then": true, "else": true, "elseif": true,
	"do": true, "while": true, "unless": true, "thru": true,
	"step": true, "from": true, "in": true, "return": true,
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '%' || c >= 0x80
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// operandEnd reports whether c can end an operand.
func operandEnd(c byte) bool {
	return isWordByte(c) || strings.IndexByte(`)]}"!`, c) >= 0
}

// operandStart reports whether c can start an operand, a prefix minus included.
func operandStart(c byte) bool {
	return isWordByte(c) || strings.IndexByte(`([{-'".`, c) >= 0
}

// keepSpace reports whether the blank run s[i:j] must survive as one space:
// it keeps two symbols or literals apart, or it borders a word operator.
func keepSpace(s string, i, j int) bool {
	if i == 0 || j >= len(s) {
		return false
	}
	prev, next := s[i-1], s[j]
	if (isWordByte(prev) || prev == '"') && (isWordByte(next) || next == '"') {
		return true
	}
	if isWhitespace(prev) || isWhitespace(next) {
		return false
	}
	return wordOperators[trailingWord(s[:i])] || wordOperators[leadingWord(s[j:])]
}

// squeeze rewrites each maximal run of bytes in class found outside string
// literals and accepted by match. The run becomes one space when keepSpace
// says so, and disappears otherwise.
func squeeze(s string, class func(byte) bool, match func(run string) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range levels.Scan(s, levels.LiteralOptions()) {
		if seg.Depth > 0 {
			b.WriteString(seg.Text(s))
			continue
		}
		for i := seg.Start; i < seg.End; {
			if !class(s[i]) {
				b.WriteByte(s[i])
				i++
				continue
			}
			j := i
			for j < seg.End && class(s[j]) {
				j++
			}
			switch {
			case !match(s[i:j]):
				b.WriteString(s[i:j])
			case keepSpace(s, i, j):
				b.WriteByte(' ')
			}
			i = j
		}
	}
	return b.String()
}

// CollapseNewlines removes every whitespace run that contains a line break,
// outside string literals. This undoes the line wrapping of session output.
func CollapseNewlines(s string) string {
	return squeeze(s, isWhitespace, func(run string) bool {
		return strings.ContainsAny(run, "\r\n")
	})
}

// Compact removes plain spaces outside string literals, keeping a single
// space where two symbols would otherwise merge or next to a word operator
// such as and, and turns 'name( into name(.
func Compact(s string) string {
	s = squeeze(s, isBlank, func(string) bool { return true })
	return levels.ReplaceOutside(s, quotedCall, "$1(", levels.DoubleQuoted, `\`)
}

// Respace writes a single space around binary +, -, = and := and after each
// comma, outside string literals. A minus that follows an operator, an
// opening bracket or a comma is a prefix and stays attached. Exponent signs
// of numerals are then rejoined, so 1.0e + 10 reads 1.0e+10.
func Respace(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, seg := range levels.Scan(s, levels.LiteralOptions()) {
		if seg.Depth > 0 {
			b.WriteString(seg.Text(s))
			continue
		}
		respaceRange(&b, s, seg.Start, seg.End)
	}
	return levels.ReplaceOutside(b.String(), exponentSpacing, "$1$2$3$4", levels.DoubleQuoted, `\`)
}

func respaceRange(b *strings.Builder, s string, start, end int) {
	for i := start; i < end; {
		if isBlank(s[i]) {
			j := i
			for j < end && isBlank(s[j]) {
				j++
			}
			// Blanks around a spaced token are rewritten with the token.
			if (i > 0 && endsSpacedToken(s, i-1)) || spacedToken(s, j) != "" {
				i = j
				continue
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}
		tok := spacedToken(s, i)
		if tok == "" {
			b.WriteByte(s[i])
			i++
			continue
		}
		writeSpaced(b, s, tok, i+len(tok))
		i += len(tok)
	}
}

// spacedToken returns the token at s[i] that Respace puts spaces around.
func spacedToken(s string, i int) string {
	if i >= len(s) {
		return ""
	}
	if strings.HasPrefix(s[i:], ":=") && (i == 0 || s[i-1] != ':') {
		return ":="
	}
	switch s[i] {
	case '+', '-', ',':
		return s[i : i+1]
	case '=':
		if i > 0 && strings.IndexByte("<>:=", s[i-1]) >= 0 {
			return ""
		}
		return "="
	}
	return ""
}

// endsSpacedToken reports whether s[i] is the last byte of a spaced token.
func endsSpacedToken(s string, i int) bool {
	switch s[i] {
	case '+', '-', ',':
		return true
	case '=':
		if i > 0 && s[i-1] == ':' {
			return i < 2 || s[i-2] != ':'
		}
		return i == 0 || strings.IndexByte("<>=", s[i-1]) < 0
	}
	return false
}

// writeSpaced writes tok with the spaces it takes. A kept line break next
// to tok replaces the space on that side, and operands are looked for
// across it.
func writeSpaced(b *strings.Builder, s, tok string, after int) {
	out := b.String()
	before := strings.TrimRight(out, " \t\r\n")
	prev := byte(0)
	if before != "" {
		prev = before[len(before)-1]
	}
	lineBefore := isLineBreak(lastNonBlank(out))

	rest := strings.TrimLeft(s[after:], " \t")
	lineAfter := rest != "" && isLineBreak(rest[0])
	next := byte(0)
	if rest = strings.TrimLeft(rest, " \t\r\n"); rest != "" {
		next = rest[0]
	}

	lead := prev != 0 && !lineBefore
	trailing := next != 0 && !lineAfter

	switch tok {
	case ",":
		b.WriteString(",")
		if trailing {
			b.WriteByte(' ')
		}
	case "+", "-":
		switch {
		case wordOperators[trailingWord(before)]:
			if lead {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
		case operandEnd(prev) && (next == 0 || operandStart(next)):
			if lead {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
			if trailing {
				b.WriteByte(' ')
			}
		default:
			b.WriteString(tok)
		}
	default:
		if lead {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		if trailing {
			b.WriteByte(' ')
		}
	}
}

func isLineBreak(c byte) bool {
	return c == '\n' || c == '\r'
}

func lastNonBlank(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if !isBlank(s[i]) {
			return s[i]
		}
	}
	return 0
}

func leadingWord(s string) string {
	i := 0
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return s[:i]
}

func trailingWord(s string) string {
	i := len(s)
	for i > 0 && isWordByte(s[i-1]) {
		i--
	}
	return s[i:]
}
