package parens

import (
	"sort"
	"strings"
)

// Priority ranks how tightly an operator binds. A higher value binds tighter.
type Priority int

const (
	PriorityDoubleFactorial Priority = 100 // !!
	PriorityFactorial       Priority = 90  // !
	PriorityPower           Priority = 80  // ^ ^^ **
	PriorityDot             Priority = 70  // .
	PriorityDivide          Priority = 60  // /
	PriorityMultiply        Priority = 59  // * and prefix -; one below / so (a*b)/c loses its parentheses
	PriorityAdd             Priority = 50  // + -
	PriorityRelational      Priority = 40  // = # < > <= >=
	PriorityNot             Priority = 32  // not
	PriorityAnd             Priority = 30  // and
	PriorityOr              Priority = 28  // or
	PriorityAssign          Priority = 10  // : :: := ::=
	PrioritySeparator       Priority = 0   // , ; $ and control keywords
	PriorityNone            Priority = 1000
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PrioritySeparator:
		return "separator"
	}
	for _, op := range symbolOperators {
		if op.priority == p {
			return op.token
		}
	}
	for word, op := range wordOperators {
		if op.priority == p {
			return word
		}
	}
	return "unknown"
}

// operator describes one token of the closed operator set.
//
// leftStrict means a parenthesized left operand must bind strictly tighter
// than the operator, as for right associative ^. rightStrict is the same for
// the right operand, as for - and /.
type operator struct {
	token       string
	priority    Priority
	leftStrict  bool
	rightStrict bool
	postfix     bool
	// prefix is the binding of the token used as a prefix operator, 0 when
	// the token is never a prefix.
	prefix Priority
}

// admitsLeft reports whether a group whose weakest operator is inner may
// drop its parentheses when it is this operator's left operand.
func (op *operator) admitsLeft(inner Priority) bool {
	if op.leftStrict {
		return inner > op.priority
	}
	return inner >= op.priority
}

// admitsRight is admitsLeft for the right operand.
func (op *operator) admitsRight(inner Priority) bool {
	if op.rightStrict {
		return inner > op.priority
	}
	return inner >= op.priority
}

// symbolOperators is sorted longest token first so that the scanner always
// takes the longest match.
var symbolOperators = sortedByLength([]operator{
	{token: "!!", priority: PriorityDoubleFactorial, postfix: true},
	{token: "!", priority: PriorityFactorial, postfix: true},
	{token: "^^", priority: PriorityPower, leftStrict: true},
	{token: "**", priority: PriorityPower, leftStrict: true},
	{token: "^", priority: PriorityPower, leftStrict: true},
	{token: ".", priority: PriorityDot},
	{token: "/", priority: PriorityDivide, rightStrict: true},
	{token: "*", priority: PriorityMultiply},
	{token: "+", priority: PriorityAdd, prefix: PriorityMultiply},
	{token: "-", priority: PriorityAdd, rightStrict: true, prefix: PriorityMultiply},
	{token: "<=", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: ">=", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: "=", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: "#", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: "<", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: ">", priority: PriorityRelational, leftStrict: true, rightStrict: true},
	{token: "::=", priority: PriorityAssign, leftStrict: true},
	{token: ":=", priority: PriorityAssign, leftStrict: true},
	{token: "::", priority: PriorityAssign, leftStrict: true},
	{token: ":", priority: PriorityAssign, leftStrict: true},
})

var wordOperators = map[string]*operator{
	"and": {token: "and", priority: PriorityAnd},
	"or":  {token: "or", priority: PriorityOr},
	"not": {token: "not", priority: PriorityNot, prefix: PriorityNot},
}

// keywords separate independent expressions the way a comma does.
var keywords = map[string]bool{
	"if": true, "then": true, "else": true, "elseif": true,
	"for": true, "do": true, "while": true, "unless": true,
	"thru": true, "step": true, "from": true, "in": true, "next": true,
}

func sortedByLength(ops []operator) []operator {
	sort.SliceStable(ops, func(i, j int) bool {
		return len(ops[i].token) > len(ops[j].token)
	})
	return ops
}

// matchOperator returns the longest symbolic operator at the start of rest.
func matchOperator(rest string) (*operator, bool) {
	for i := range symbolOperators {
		if strings.HasPrefix(rest, symbolOperators[i].token) {
			return &symbolOperators[i], true
		}
	}
	return nil, false
}

// PriorityOf returns the binary priority of an operator token.
func PriorityOf(token string) (Priority, bool) {
	if op, ok := wordOperators[token]; ok {
		return op.priority, true
	}
	for i := range symbolOperators {
		if symbolOperators[i].token == token {
			return symbolOperators[i].priority, true
		}
	}
	return 0, false
}
