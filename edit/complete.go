package edit

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultVocabulary holds the expression templates offered for completion.
var DefaultVocabulary = []string{
	"%e",
	"%gamma",
	"%i",
	"%pi",
	":lisp $%;",
	"abs(x)",
	"acos(x)",
	"acosh(x)",
	"asin(x)",
	"asinh(x)",
	"assume(x > 0, ...)$ /* <-> forget(x > 0, ...)$ */ facts();",
	"atan(x)",
	"atanh(x)",
	"atan2(y, x)",
	"atvalue(f(x), x = x0, f0)",
	"bc2(ode2('diff(y, x) ..., y, x), x = x1, y = y1, x = x2, y = y2)",
	"ceiling(x)",
	"cos(x)",
	"cosh(x)",
	"determinant(matrix)",
	"depends(f_1, x_1, ..., [f_n, g_n], [x_n, y_n])",
	"diff(expr, x)",
	"diff(expr, x, n)",
	"eigenvalues(matrix)",
	"eigenvectors(matrix)",
	"erf(x)",
	"erfc(x)",
	"ev(expr, x = a)",
	"exp(x)",
	"expand(expr)",
	"declare(a_1, integer, ...)$ /* <-> remove(a_1, integer, ...)$ */ facts();",
	"desolve('diff(f(x), x) ..., f(x))",
	"desolve(['diff(f(x), x) ..., 'diff(g(x), x) ...], [f(x), g(x)])",
	"factor(expr)",
	"facts()",
	"float(expr)",
	"floor(x)",
	"forget(x > 0, ...)$",
	"fpprec: digits$",
	"ic1(ode2('diff(y, x) ..., y, x), x = x0, y = y0)",
	"ic2(ode2('diff(y, x) ..., y, x), x = x0, y = y0, 'diff(y, x) = dy0)",
	"inf /* real positive infinity */",
	"infinity /* complex infinity */",
	"integrate(expr, x)",
	"integrate(expr, x, a, b)",
	"invert(matrix)",
	"kill(a_1, ...)$",
	"kill(all)$",
	"matrix([a_11, ...], [a_21, ...])",
	"max(x_1, ...)",
	"minf /* real negative infinity */",
	"min(x_1, ...)",
	"mod(x, y)",
	"multthru(expr)",
	"multthru(x, expr)",
	"ode2('diff(y, x) ..., y, x)",
	"ode2('diff(y, x) ..., y, x); bc2(%, x = x1, y = y1, x = x2, y = y2)",
	"ode2('diff(y, x) ..., y, x); ic1(%, x = x0, y = y0)",
	"ode2('diff(y, x) ..., y, x); ic2(%, x = x0, y = y0, 'diff(y, x) = dy0)",
	`plot2d(f(x), [x, x_min, x_max], [style, lines], [color, red], [legend, "f(x)"], [xlabel, "x"], [ylabel, "y"], [y, y_min, y_max])$`,
	`plot2d([f(x), g(x)], [x, x_min, x_max], [style, lines], [color, red], [legend, "f(x)", "g(x)"], [xlabel, "x"], [ylabel, "y"], [y, y_min, y_max])$`,
	`plot2d(discrete, [x_0, ...], [y_0, ...], [x, x_min, x_max], [style, points], [color, red], [legend, "series 1"], [xlabel, "x"], [ylabel, "y"], [y, y_min, y_max])$`,
	`plot2d(discrete, [x_0, y_0], [x_1, y_1], [x, x_min, x_max], [style, points], [color, red], [legend, "series 1"], [xlabel, "x"], [ylabel, "y"], [y, y_min, y_max])$`,
	"product(expr, i, i_0, i_1)",
	"product(expr, i, i_0, i_1), simpproduct",
	"rat(expr, x_1, ...)",
	"rationalize(expr)",
	"ratsimp(expr)",
	"remove(a_1, integer, ...)$",
	"round(x)",
	"simpproduct",
	"simpsum",
	"sin(x)",
	"sinh(x)",
	"solve(expr, x)",
	"solve([eqn_1, ...], [x_1, ...])",
	"sqrt(x)",
	"subst(a, x, expr)",
	"sum(expr, i, i_0, i_1)",
	"sum(expr, i, i_0, i_1), simpsum",
	"tan(x)",
	"tanh(x)",
	"taylor(expr, x, a, n)",
	"trigexpand(expr)",
	"trigsimp(expr)",
	"transpose(matrix)",
}

// wordStarters begin a completion word and belong to it.
const wordStarters = `/\%+-^_?:`

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// WordStart returns the offset where the word ending at caret begins. The
// scan runs back over letters and digits; one of /\%+-^_?: is taken as the
// first character of the word, anything else ends it.
func WordStart(text string, caret int) int {
	if caret > len(text) {
		caret = len(text)
	}
	for i := caret - 1; i >= 0; i-- {
		c := text[i]
		if strings.IndexByte(wordStarters, c) >= 0 {
			return i
		}
		if !isAlnum(c) {
			return i + 1
		}
	}
	return 0
}

// Completer matches a word against a vocabulary of templates.
type Completer struct {
	vocabulary []string
	fuzzy      bool
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

// WithVocabulary replaces the default vocabulary.
func WithVocabulary(words []string) CompleterOption {
	return func(c *Completer) {
		c.vocabulary = words
	}
}

// WithFuzzy enables fuzzy matching when no template starts with the word.
func WithFuzzy(enabled bool) CompleterOption {
	return func(c *Completer) {
		c.fuzzy = enabled
	}
}

// NewCompleter creates a Completer over DefaultVocabulary.
func NewCompleter(opts ...CompleterOption) *Completer {
	c := &Completer{vocabulary: DefaultVocabulary}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Candidates returns the templates starting with word, ignoring case, in
// vocabulary order. With fuzzy matching enabled and no prefix match, the
// templates containing the characters of word in order are returned best
// first.
func (c *Completer) Candidates(word string) []string {
	if word == "" {
		return nil
	}
	var out []string
	for _, v := range c.vocabulary {
		if len(v) >= len(word) && strings.EqualFold(v[:len(word)], word) {
			out = append(out, v)
		}
	}
	if len(out) > 0 || !c.fuzzy {
		return out
	}
	ranks := fuzzy.RankFindFold(word, c.vocabulary)
	sort.Stable(ranks)
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

// Complete starts a completion for the word ending at caret. ok is false
// when there is no word or nothing matches it.
func (c *Completer) Complete(text string, caret int) (*Completion, bool) {
	if caret > len(text) {
		caret = len(text)
	}
	from := WordStart(text, caret)
	candidates := c.Candidates(text[from:caret])
	if len(candidates) == 0 {
		return nil, false
	}
	return &Completion{From: from, Candidates: candidates}, true
}

// Completion cycles through the candidates for one word. The word occupies
// text from From to the caret; each step yields the text to put there.
type Completion struct {
	From       int
	Candidates []string
	index      int
}

// Next returns the following candidate, wrapping after the last.
func (c *Completion) Next() string {
	c.index %= len(c.Candidates)
	s := c.Candidates[c.index]
	c.index++
	return s
}

// Prev returns the candidate before the one last returned, wrapping before
// the first.
func (c *Completion) Prev() string {
	n := len(c.Candidates)
	c.index = ((c.index-2)%n + n) % n
	s := c.Candidates[c.index]
	c.index++
	return s
}

// Suggest returns the candidate closest to word, for "did you mean" hints.
// A fuzzy match is preferred; otherwise a candidate within edit distance 2
// is accepted.
func Suggest(word string, candidates []string) (string, bool) {
	if word == "" {
		return "", false
	}
	if ranks := fuzzy.RankFindFold(word, candidates); len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target, true
	}
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(word), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
