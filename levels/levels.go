// Package levels classifies the ranges of a string by nesting depth with
// respect to paired delimiters and quoted literal spans.
//
// The scanner never validates balance. An unmatched closer is ordinary text
// and an unterminated opener simply leaves the rest of the input one level
// deeper. Callers that need balanced input must check it themselves.
package levels

import (
	"strings"
)

// Pair is an opening and closing token, e.g. {"(", ")"}.
type Pair struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// Segment is a contiguous run [Start, End) of the input at a single depth.
// An opening delimiter belongs to the segment it opens, and so does its
// closing delimiter.
type Segment struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
	Depth int `json:"depth" yaml:"depth"`
}

// Text returns the part of s covered by the segment.
func (seg Segment) Text(s string) string {
	return s[seg.Start:seg.End]
}

// Options selects the delimiters the scanner tracks.
type Options struct {
	Parentheses []Pair
	Literals    []Pair
	// Escape, when non-empty, disables a literal token directly preceded by
	// an odd number of Escape repetitions.
	Escape string
}

// DefaultParentheses are parentheses, brackets and braces.
var DefaultParentheses = []Pair{{"(", ")"}, {"[", "]"}, {"{", "}"}}

// DoubleQuoted is the only literal form in session output.
var DoubleQuoted = []Pair{{`"`, `"`}}

// DefaultOptions tracks (), [] and {} with backslash-escaped double quoted strings.
func DefaultOptions() Options {
	return Options{
		Parentheses: DefaultParentheses,
		Literals:    DoubleQuoted,
		Escape:      `\`,
	}
}

// LiteralOptions tracks only backslash-escaped double quoted strings.
func LiteralOptions() Options {
	return Options{
		Literals: DoubleQuoted,
		Escape:   `\`,
	}
}

// escaped reports whether the token at i is preceded by an odd number of
// escape prefixes.
func escaped(s string, i int, escape string) bool {
	if escape == "" {
		return false
	}
	n := 0
	for j := i; j >= len(escape) && s[j-len(escape):j] == escape; j -= len(escape) {
		n++
	}
	return n%2 == 1
}

// Scan partitions s into depth-annotated segments. The result covers s with
// no gaps or overlaps and is empty only for an empty input.
//
// At each position a pending literal closer is checked first. Outside a
// literal, literal openers take priority over delimiters, and a delimiter
// closer only counts when it matches the innermost open delimiter.
func Scan(s string, opts Options) []Segment {
	var (
		segments []Segment
		stack    []string
		start    int
		depth    int
		literal  bool
	)

	flush := func(end int) {
		if start < end {
			segments = append(segments, Segment{Start: start, End: end, Depth: depth})
		}
		start = end
	}

	i := 0
	for i < len(s) {
		rest := s[i:]

		if literal {
			closer := stack[len(stack)-1]
			if strings.HasPrefix(rest, closer) && !escaped(s, i, opts.Escape) {
				i += len(closer)
				flush(i)
				stack = stack[:len(stack)-1]
				depth--
				literal = false
				continue
			}
			i++
			continue
		}

		if p, ok := matchOpen(rest, opts.Literals); ok && !escaped(s, i, opts.Escape) {
			flush(i)
			stack = append(stack, p.Close)
			depth++
			literal = true
			i += len(p.Open)
			continue
		}

		if p, opening, ok := matchDelimiter(rest, opts.Parentheses, stack); ok && opening {
			flush(i)
			stack = append(stack, p.Close)
			depth++
			i += len(p.Open)
			continue
		} else if ok {
			i += len(p.Close)
			flush(i)
			stack = stack[:len(stack)-1]
			depth--
			continue
		}

		i++
	}
	flush(len(s))

	return segments
}

func matchOpen(rest string, pairs []Pair) (Pair, bool) {
	for _, p := range pairs {
		if p.Open != "" && strings.HasPrefix(rest, p.Open) {
			return p, true
		}
	}
	return Pair{}, false
}

// matchDelimiter reports whether rest starts with an opener, or with the
// closer expected on top of stack. A pair whose open and close tokens are
// identical closes when its closer is on top of the stack and opens otherwise.
func matchDelimiter(rest string, pairs []Pair, stack []string) (Pair, bool, bool) {
	top := ""
	if len(stack) > 0 {
		top = stack[len(stack)-1]
	}
	for _, p := range pairs {
		if p.Open == "" || p.Close == "" {
			continue
		}
		if p.Close == top && strings.HasPrefix(rest, p.Close) {
			return p, false, true
		}
		if strings.HasPrefix(rest, p.Open) {
			return p, true, true
		}
	}
	return Pair{}, false, false
}

// MinDepth returns the smallest depth among segments, or 0 when there are none.
func MinDepth(segments []Segment) int {
	if len(segments) == 0 {
		return 0
	}
	m := segments[0].Depth
	for _, seg := range segments[1:] {
		if seg.Depth < m {
			m = seg.Depth
		}
	}
	return m
}
