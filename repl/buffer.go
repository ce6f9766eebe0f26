package repl

import (
	"strings"

	"maxfmt/levels"
)

// MultiLineBuffer collects the lines of one pasted block.
type MultiLineBuffer struct {
	lines []string
	opts  levels.Options
}

// NewMultiLineBuffer creates a buffer that tracks nesting with opts.
func NewMultiLineBuffer(opts levels.Options) *MultiLineBuffer {
	return &MultiLineBuffer{opts: opts}
}

// AddLine appends a line.
func (b *MultiLineBuffer) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// GetContent returns the buffer content as a single string
func (b *MultiLineBuffer) GetContent() string {
	return strings.Join(b.lines, "\n")
}

// Clear empties the buffer.
func (b *MultiLineBuffer) Clear() {
	b.lines = nil
}

// IsEmpty returns true if the buffer is empty
func (b *MultiLineBuffer) IsEmpty() bool {
	return len(b.lines) == 0
}

// GetLineCount returns the number of lines in the buffer
func (b *MultiLineBuffer) GetLineCount() int {
	return len(b.lines)
}

// RemoveLastLine removes and returns the last line from the buffer
func (b *MultiLineBuffer) RemoveLastLine() string {
	if len(b.lines) == 0 {
		return ""
	}
	last := b.lines[len(b.lines)-1]
	b.lines = b.lines[:len(b.lines)-1]
	return last
}

// IsComplete reports whether the content is a finished command: every
// bracket and string is closed and it ends with ; or $.
func (b *MultiLineBuffer) IsComplete() bool {
	content := strings.TrimSpace(b.GetContent())
	if !strings.HasSuffix(content, ";") && !strings.HasSuffix(content, "$") {
		return false
	}
	segments := levels.Scan(content, b.opts)
	return len(segments) == 0 || segments[len(segments)-1].Depth == 0
}
