package levels

import (
	"regexp"
	"strings"
)

// ReplaceOutside applies re to every run of s that lies outside a literal
// span. Literal spans, delimiters included, are copied unchanged.
func ReplaceOutside(s string, re *regexp.Regexp, repl string, literals []Pair, escape string) string {
	return ReplaceOutsideFunc(s, literals, escape, func(run string) string {
		return re.ReplaceAllString(run, repl)
	})
}

// ReplaceOutsideFunc is ReplaceOutside with an arbitrary transform.
func ReplaceOutsideFunc(s string, literals []Pair, escape string, fn func(string) string) string {
	return rewriteAtDepth(s, Options{Literals: literals, Escape: escape}, 0, fn)
}

// ReplaceTopLevel applies re only to the segments at the shallowest depth
// present in s. For a selection that starts inside a bracket this is the
// depth of the selection's own text rather than depth 0.
func ReplaceTopLevel(s string, re *regexp.Regexp, repl string, opts Options) string {
	segments := Scan(s, opts)
	top := MinDepth(segments)
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range segments {
		if seg.Depth == top {
			b.WriteString(re.ReplaceAllString(seg.Text(s), repl))
		} else {
			b.WriteString(seg.Text(s))
		}
	}
	return b.String()
}

func rewriteAtDepth(s string, opts Options, depth int, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range Scan(s, opts) {
		if seg.Depth == depth {
			b.WriteString(fn(seg.Text(s)))
		} else {
			b.WriteString(seg.Text(s))
		}
	}
	return b.String()
}

// Split cuts s at every occurrence of sep that lies at depth 0. The
// separators are not included in the result. An empty input yields a single
// empty part.
func Split(s, sep string, opts Options) []string {
	if sep == "" {
		return []string{s}
	}
	var (
		parts []string
		last  int
	)
	for _, seg := range Scan(s, opts) {
		if seg.Depth != 0 {
			continue
		}
		text := seg.Text(s)
		for off := 0; ; {
			k := strings.Index(text[off:], sep)
			if k < 0 {
				break
			}
			at := seg.Start + off + k
			parts = append(parts, s[last:at])
			last = at + len(sep)
			off += k + len(sep)
		}
	}
	return append(parts, s[last:])
}

// IndexTopLevel returns the offset of the first depth-0 occurrence of any of
// the given tokens and the token found there, or -1 and "".
func IndexTopLevel(s string, tokens []string, opts Options) (int, string) {
	for _, seg := range Scan(s, opts) {
		if seg.Depth != 0 {
			continue
		}
		text := seg.Text(s)
		best, which := -1, ""
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			if k := strings.Index(text, tok); k >= 0 && (best < 0 || k < best) {
				best, which = k, tok
			}
		}
		if best >= 0 {
			return seg.Start + best, which
		}
	}
	return -1, ""
}
