// Package session handles the text exchanged with an interactive algebra
// session: it cuts editor text into commands and turns captured replies into
// insertion text.
package session

import (
	"regexp"
	"strings"

	"maxfmt/levels"
)

// Block is a blank-line delimited region of editor text.
type Block struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Text  string `json:"text" yaml:"text"`
}

// BlockAt returns the block around caret. Blocks are separated by an empty
// line; the last block ends at the last non-blank character.
func BlockAt(text string, caret int) Block {
	if caret < 0 {
		caret = 0
	}
	if caret > len(text) {
		caret = len(text)
	}
	start := 0
	if i := strings.LastIndex(text[:caret], "\n\n"); i >= 0 {
		start = i + 2
	}
	end := len(strings.TrimRight(text, " \t\r\n"))
	if j := strings.Index(text[caret:], "\n\n"); j >= 0 {
		end = caret + j
	}
	if end < start {
		end = start
	}
	return Block{Start: start, End: end, Text: text[start:end]}
}

// Blocks returns every non-blank block of text in order.
func Blocks(text string) []Block {
	var blocks []Block
	last := len(strings.TrimRight(text, " \t\r\n"))
	for caret := 0; caret < last; {
		b := BlockAt(text, caret)
		if strings.TrimSpace(b.Text) != "" {
			blocks = append(blocks, b)
		}
		if b.End >= last {
			break
		}
		caret = b.End + 2
	}
	return blocks
}

var inputLabels = regexp.MustCompile(`^(?:/\* \(%i\d+\): \*/\n)+`)

// StripInputLabels removes the /* (%iN): */ marker lines a previous run left
// at the top of a block and reports how many bytes went.
func StripInputLabels(block string) (string, int) {
	loc := inputLabels.FindStringIndex(block)
	if loc == nil {
		return block, 0
	}
	return block[loc[1]:], loc[1]
}

// InputHeader is the marker line written above a block sent to the session.
func InputHeader(label string) string {
	return "/* " + strings.TrimSpace(label) + ": */"
}

const lispPrefix = ":lisp "

// commandOptions see comments and strings as opaque and track brackets so
// that terminators inside them do not end a command.
var commandOptions = levels.Options{
	Parentheses: levels.DefaultParentheses,
	Literals:    []levels.Pair{{Open: `"`, Close: `"`}, {Open: "/*", Close: "*/"}},
	Escape:      `\`,
}

// StripComments removes /* ... */ comments that are not inside a string.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range levels.Scan(text, levels.Options{Literals: commandOptions.Literals, Escape: commandOptions.Escape}) {
		part := seg.Text(text)
		if seg.Depth > 0 && strings.HasPrefix(part, "/*") {
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

// SplitCommands cuts text into terminated commands. Comments are dropped.
// Each command keeps its ; or $ terminator, and a final command without one
// gets ;. A :lisp command runs to the next ; whatever it contains, since $
// is an ordinary character in Lisp symbols.
func SplitCommands(text string) []string {
	rest := StripComments(text)
	var commands []string
	for {
		at, tok := levels.IndexTopLevel(rest, []string{";", "$", lispPrefix}, commandOptions)
		if at < 0 {
			if c := strings.TrimSpace(rest); c != "" {
				if !strings.HasSuffix(c, ";") && !strings.HasSuffix(c, "$") {
					c += ";"
				}
				commands = append(commands, c)
			}
			return commands
		}

		if tok == lispPrefix {
			k := strings.IndexByte(rest[at:], ';')
			if k < 0 {
				commands = append(commands, strings.TrimSpace(rest)+";")
				return commands
			}
			commands = append(commands, strings.TrimSpace(rest[:at+k+1]))
			rest = rest[at+k+1:]
			continue
		}

		if c := strings.TrimSpace(rest[:at+len(tok)]); c != ";" && c != "$" {
			commands = append(commands, c)
		}
		rest = rest[at+len(tok):]
	}
}
