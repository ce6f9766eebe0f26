package repl

import (
	"strings"

	"maxfmt/edit"
)

// Completer adapts edit.Completer to readline. Lines starting with : are
// completed against the REPL commands.
type Completer struct {
	words    *edit.Completer
	commands func() []string
}

// NewCompleter creates a readline completer.
func NewCompleter(words *edit.Completer, commands func() []string) *Completer {
	return &Completer{words: words, commands: commands}
}

// Do implements readline.AutoCompleter. It returns the remaining part of
// each candidate and the length of the typed prefix, in runes.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	head := string(line[:pos])

	if strings.HasPrefix(head, ":") && !strings.ContainsAny(head, " \t") {
		for _, name := range c.commands() {
			if strings.HasPrefix(name, head) {
				newLine = append(newLine, []rune(name[len(head):]))
			}
		}
		return newLine, len([]rune(head))
	}

	from := edit.WordStart(head, len(head))
	word := head[from:]
	if word == "" {
		return nil, 0
	}
	for _, candidate := range c.words.Candidates(word) {
		// readline only appends to the typed word, so fuzzy candidates
		// that do not extend it are skipped.
		if len(candidate) < len(word) || !strings.EqualFold(candidate[:len(word)], word) {
			continue
		}
		newLine = append(newLine, []rune(candidate[len(word):]))
	}
	return newLine, len([]rune(word))
}
