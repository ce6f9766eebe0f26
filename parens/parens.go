// Package parens removes grouping parentheses that the operator priorities
// of the surrounding expression make redundant.
//
// The rewriter is a single recursive pass. Each call handles one nesting
// level and reports the weakest operator it saw there, which is all the
// parent needs to decide whether the group's own parentheses can go.
// Double quoted literals are copied through without inspection.
package parens

import (
	stderrors "errors"
	"fmt"
	"strings"

	"maxfmt/errors"
	"maxfmt/levels"
	"maxfmt/logging"
)

// DefaultMaxDepth bounds the nesting the rewriter descends into.
const DefaultMaxDepth = 256

// ErrTooDeep matches every error returned for input nested deeper than the
// configured maximum.
var ErrTooDeep = errors.NewResourceError(errors.CodeDepthExceeded, "expression nested too deeply")

// Result is the outcome of RemoveRedundant.
type Result struct {
	Text string `json:"text" yaml:"text"`
	// MinPriority is the weakest operator found at the top level of Text,
	// PriorityNone for a bare operand.
	MinPriority Priority `json:"min_priority" yaml:"min_priority"`
	// Removed counts the parenthesis pairs dropped.
	Removed int `json:"removed" yaml:"removed"`
}

// Option configures a Relinearizer.
type Option func(*Relinearizer)

// WithMaxDepth sets the deepest nesting accepted. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(r *Relinearizer) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logging.Logger) Option {
	return func(r *Relinearizer) {
		if logger != nil {
			r.logger = logger.WithComponent("parens")
		}
	}
}

// Relinearizer holds configuration only and is safe for concurrent use.
type Relinearizer struct {
	maxDepth int
	logger   logging.Logger
}

// New creates a Relinearizer.
func New(opts ...Option) *Relinearizer {
	r := &Relinearizer{
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RemoveRedundant rewrites s with a default Relinearizer.
func RemoveRedundant(s string, opts ...Option) (Result, error) {
	return New(opts...).RemoveRedundant(s)
}

// RemoveRedundant returns s without the parentheses that do not affect how
// it groups. On error the input is returned unchanged alongside it.
func (r *Relinearizer) RemoveRedundant(s string) (Result, error) {
	run := &pass{r: r, src: s}
	lv, err := run.level(0, 0)
	if err != nil {
		r.logger.Warn("parentheses left in place", logging.ErrorField("error", err))
		return Result{Text: s, MinPriority: PriorityNone}, err
	}
	// Stray closers at the top level are copied as text, so one call always
	// consumes the whole input.
	r.logger.Debug("parentheses removed",
		logging.IntField("count", run.removed),
		logging.StringField("min_priority", lv.min.String()))
	return Result{Text: lv.text, MinPriority: lv.min, Removed: run.removed}, nil
}

type tokenKind int

const (
	// kindStart is the start of a level or the position after a separator.
	kindStart tokenKind = iota
	kindOperator
	kindOperand
	// kindOther is a symbol outside the known grammar, e.g. a quote mark.
	kindOther
)

// pass is the state of one RemoveRedundant call.
type pass struct {
	r       *Relinearizer
	src     string
	removed int
}

// levelResult is the rewritten text of one nesting level. next is the offset
// just past the closer that ended the level, or len(src); closer is 0 when
// the input ran out first.
type levelResult struct {
	text   string
	min    Priority
	next   int
	closer byte
}

// levelState accumulates one level.
type levelState struct {
	b    strings.Builder
	min  Priority
	last *operator // nil when nothing constrains the next group
	prev tokenKind
	word string // identifier directly before the current position
}

func (st *levelState) lower(p Priority) {
	if p < st.min {
		st.min = p
	}
}

func (st *levelState) separator(text string) {
	st.b.WriteString(text)
	st.lower(PrioritySeparator)
	st.last = nil
	st.prev = kindStart
	st.word = ""
}

func (st *levelState) operand(text string) {
	st.b.WriteString(text)
	st.prev = kindOperand
	st.word = ""
}

// applyOperator records op written as text. A prefix operator binds its
// operand at op.prefix; it replaces a preceding looser operator as the
// constraint on what follows but never weakens the level below its own
// binding, so a^-b still counts as a power.
func (st *levelState) applyOperator(op *operator, text string) {
	st.b.WriteString(text)
	st.word = ""
	switch {
	case st.prev != kindOperand && op.prefix > 0:
		prefix := &operator{token: op.token, priority: op.prefix}
		if st.last == nil {
			st.lower(op.prefix)
			st.last = prefix
		} else if st.last.priority < op.prefix {
			st.last = prefix
		}
		st.prev = kindOperator
	case op.postfix:
		st.lower(op.priority)
		st.prev = kindOperand
	default:
		st.lower(op.priority)
		st.last = op
		st.prev = kindOperator
	}
}

func (p *pass) level(pos, depth int) (levelResult, error) {
	if depth > p.r.maxDepth {
		return levelResult{}, errors.NewResourceError(errors.CodeDepthExceeded, "expression nested too deeply",
			errors.WithContextOption("max_depth", p.r.maxDepth)).
			Wrap(fmt.Errorf("depth %d exceeds %d", depth, p.r.maxDepth)).
			WithOffset(pos)
	}

	s := p.src
	st := &levelState{min: PriorityNone, prev: kindStart}
	i := pos
	for i < len(s) {
		c := s[i]
		switch {
		case isSpace(c):
			st.b.WriteByte(c)
			i++

		case c == '"':
			j := skipLiteral(s, i)
			st.operand(s[i:j])
			i = j

		case c == ')' || c == ']' || c == '}':
			if depth == 0 {
				st.operand(string(c))
				i++
				continue
			}
			return levelResult{text: st.b.String(), min: st.min, next: i + 1, closer: c}, nil

		case c == '(':
			next, err := p.group(st, i, depth)
			if err != nil {
				return levelResult{}, err
			}
			i = next

		case c == '[' || c == '{':
			inner, err := p.level(i+1, depth+1)
			if err != nil {
				return levelResult{}, err
			}
			st.operand(string(c) + inner.text + closerText(inner.closer))
			i = inner.next

		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1]) && st.prev != kindOperand):
			j := scanNumber(s, i)
			st.operand(s[i:j])
			i = j

		case isIdentStart(c):
			j := scanIdentifier(s, i)
			word := s[i:j]
			if op, ok := wordOperators[word]; ok {
				st.applyOperator(op, word)
			} else if keywords[word] {
				st.separator(word)
			} else {
				st.operand(word)
				st.word = word
			}
			i = j

		case c == ',' || c == ';' || c == '$':
			st.separator(string(c))
			i++

		default:
			if op, ok := matchOperator(s[i:]); ok {
				st.applyOperator(op, op.token)
				i += len(op.token)
				continue
			}
			st.b.WriteByte(c)
			st.prev = kindOther
			st.word = ""
			i++
		}
	}
	return levelResult{text: st.b.String(), min: st.min, next: len(s)}, nil
}

// group handles the parenthesized group opening at s[open] and returns the
// offset after it.
func (p *pass) group(st *levelState, open, depth int) (int, error) {
	inner, err := p.level(open+1, depth+1)
	if err != nil {
		return 0, err
	}

	switch {
	case inner.closer == 0:
		// Unterminated: copy what is there.
		st.operand("(" + inner.text)
	case st.prev == kindOperand:
		name := st.word
		text := inner.text
		if name == "diff" {
			text = dropFirstOrder(text)
		}
		st.operand("(" + text + closerText(inner.closer))
	case st.prev != kindOther && p.removable(st, inner):
		p.removed++
		// Keep neighbouring words such as "and" apart from the spliced text.
		text := inner.text
		if out := st.b.String(); out != "" && isIdentPart(out[len(out)-1]) && isIdentPart(text[0]) {
			st.b.WriteByte(' ')
		}
		st.b.WriteString(text)
		if inner.next < len(p.src) && isIdentPart(p.src[inner.next]) && isIdentPart(text[len(text)-1]) {
			st.b.WriteByte(' ')
		}
		st.lower(inner.min)
		st.prev = kindOperand
		st.word = ""
	default:
		st.operand("(" + inner.text + closerText(inner.closer))
	}
	return inner.next, nil
}

// removable decides whether a group may lose its parentheses given the
// operator before it (st.last) and the token after it.
func (p *pass) removable(st *levelState, inner levelResult) bool {
	if inner.closer != ')' || strings.TrimSpace(inner.text) == "" {
		return false
	}
	priority := inner.min
	if priority <= PrioritySeparator {
		return false
	}
	if strings.HasSuffix(strings.TrimRight(st.b.String(), " \t\r\n"), "%e^-") {
		return false
	}
	if st.last != nil && !st.last.admitsRight(priority) {
		return false
	}

	follow, kind := p.following(inner.next)
	switch kind {
	case followEnd:
		return true
	case followOperator:
		if follow.postfix {
			return priority == PriorityNone
		}
		if priority == PriorityMultiply && follow.token == "/" {
			return true
		}
		return follow.admitsLeft(priority)
	default:
		return false
	}
}

type followKind int

const (
	followEnd followKind = iota
	followOperator
	followOther
)

// following classifies the first token at or after i.
func (p *pass) following(i int) (*operator, followKind) {
	s := p.src
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i >= len(s) {
		return nil, followEnd
	}
	switch c := s[i]; {
	case c == ')' || c == ']' || c == '}' || c == ',' || c == ';' || c == '$':
		return nil, followEnd
	case isIdentStart(c):
		word := s[i:scanIdentifier(s, i)]
		if op, ok := wordOperators[word]; ok && op.prefix == 0 {
			return op, followOperator
		}
		if keywords[word] {
			return nil, followEnd
		}
		return nil, followOther
	}
	if op, ok := matchOperator(s[i:]); ok {
		return op, followOperator
	}
	return nil, followOther
}

// dropFirstOrder turns the argument list y,x,1 into y,x. A first order
// derivative is the default and reads better without the explicit order.
func dropFirstOrder(args string) string {
	parts := levels.Split(args, ",", levels.DefaultOptions())
	if len(parts) != 3 || strings.TrimSpace(parts[2]) != "1" {
		return args
	}
	return parts[0] + "," + parts[1]
}

func closerText(c byte) string {
	if c == 0 {
		return ""
	}
	return string(c)
}

// IsTooDeep reports whether err came from exceeding the nesting limit.
func IsTooDeep(err error) bool {
	return stderrors.Is(err, ErrTooDeep)
}
