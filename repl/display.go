package repl

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// DisplayManager writes results, notices and errors to the terminal.
type DisplayManager struct {
	out     io.Writer
	notice  *color.Color
	warning *color.Color
	failure *color.Color
	prompt  *color.Color
}

// NewDisplayManager creates a display writing to out. Without colors every
// message is plain text.
func NewDisplayManager(out io.Writer, useColors bool) *DisplayManager {
	dm := &DisplayManager{
		out:     out,
		notice:  color.New(color.FgBlue),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		prompt:  color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{dm.notice, dm.warning, dm.failure, dm.prompt} {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return dm
}

// Prompt returns text painted as a prompt.
func (dm *DisplayManager) Prompt(text string) string {
	return dm.prompt.Sprint(text)
}

// Result prints a formatted block.
func (dm *DisplayManager) Result(text string) {
	fmt.Fprintln(dm.out, text)
}

// Notice prints an informational line.
func (dm *DisplayManager) Notice(format string, args ...interface{}) {
	fmt.Fprintln(dm.out, dm.notice.Sprintf(format, args...))
}

// Warning prints a warning line.
func (dm *DisplayManager) Warning(format string, args ...interface{}) {
	fmt.Fprintln(dm.out, dm.warning.Sprintf("warning: "+format, args...))
}

// Error prints an error line.
func (dm *DisplayManager) Error(err error) {
	fmt.Fprintln(dm.out, dm.failure.Sprintf("error: %v", err))
}
