package levels

import "strings"

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Text returns the part of s covered by the span.
func (sp Span) Text(s string) string {
	return s[sp.Start:sp.End]
}

// FindEnclosingSpan returns the innermost delimiter pair that encloses the
// whole selection [selStart, selEnd), including both delimiters. ok is false
// when no such pair exists or when the pair is not closed before the end of s.
//
// Closers inside the selection that have no opener there must be matched
// before selStart, and openers left open inside the selection must be closed
// after selEnd, so a selection that runs past an inner pair yields the pair
// around it. Pairs whose open and close tokens are identical are ignored.
func FindEnclosingSpan(s string, selStart, selEnd int, pairs []Pair) (Span, bool) {
	if selStart < 0 || selEnd > len(s) || selStart > selEnd {
		return Span{}, false
	}
	pairs = directionalPairs(pairs)
	if len(pairs) == 0 {
		return Span{}, false
	}

	unopened, unclosed := balanceSelection(s[selStart:selEnd], pairs)

	// Backward: pending holds the openers still owed by closers seen so far.
	pending := make([]string, 0, len(unopened))
	for i := len(unopened) - 1; i >= 0; i-- {
		pending = append(pending, openerFor(unopened[i], pairs))
	}

	head := s[:selStart]
	open := -1
	var want string
	for i := selStart - 1; i >= 0 && open < 0; i-- {
		rest := head[i:]
		for _, p := range pairs {
			if strings.HasPrefix(rest, p.Close) {
				pending = append(pending, p.Open)
				break
			}
			if strings.HasPrefix(rest, p.Open) {
				if len(pending) == 0 {
					open = i
					want = p.Close
				} else if pending[len(pending)-1] == p.Open {
					pending = pending[:len(pending)-1]
				}
				break
			}
		}
	}
	if open < 0 {
		return Span{}, false
	}

	// Forward: pending holds the closers owed by openers seen so far.
	pending = append(pending[:0], unclosed...)
	for i := selEnd; i < len(s); i++ {
		rest := s[i:]
		for _, p := range pairs {
			if strings.HasPrefix(rest, p.Open) {
				pending = append(pending, p.Close)
				break
			}
			if strings.HasPrefix(rest, p.Close) {
				if len(pending) == 0 {
					if p.Close == want {
						return Span{Start: open, End: i + len(p.Close)}, true
					}
					return Span{}, false
				}
				if pending[len(pending)-1] == p.Close {
					pending = pending[:len(pending)-1]
				}
				break
			}
		}
	}

	return Span{}, false
}

func directionalPairs(pairs []Pair) []Pair {
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Open != "" && p.Close != "" && p.Open != p.Close {
			out = append(out, p)
		}
	}
	return out
}

// balanceSelection returns the closers in sel that have no matching opener
// in sel, in order of appearance, and the closers owed by openers left
// unclosed, innermost last.
func balanceSelection(sel string, pairs []Pair) (unopened, unclosed []string) {
	for i := 0; i < len(sel); {
		rest := sel[i:]
		advanced := false
		for _, p := range pairs {
			if strings.HasPrefix(rest, p.Open) {
				unclosed = append(unclosed, p.Close)
				i += len(p.Open)
				advanced = true
				break
			}
			if strings.HasPrefix(rest, p.Close) {
				if n := len(unclosed); n > 0 && unclosed[n-1] == p.Close {
					unclosed = unclosed[:n-1]
				} else {
					unopened = append(unopened, p.Close)
				}
				i += len(p.Close)
				advanced = true
				break
			}
		}
		if !advanced {
			i++
		}
	}
	return unopened, unclosed
}

func openerFor(closer string, pairs []Pair) string {
	for _, p := range pairs {
		if p.Close == closer {
			return p.Open
		}
	}
	return ""
}
