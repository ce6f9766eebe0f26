// Package repl is an interactive loop for pasting session output and getting
// it back formatted.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"maxfmt/edit"
	"maxfmt/errors"
	"maxfmt/levels"
	"maxfmt/logging"
	"maxfmt/output"
	"maxfmt/parens"
	"maxfmt/session"
)

// Mode selects what the loop does with a finished block.
type Mode int

const (
	// ModeFormat runs the whole formatting pipeline.
	ModeFormat Mode = iota
	// ModeStrip only removes redundant parentheses.
	ModeStrip
	// ModeLevels shows the nesting depth in color.
	ModeLevels
)

func (m Mode) String() string {
	switch m {
	case ModeStrip:
		return "strip"
	case ModeLevels:
		return "levels"
	default:
		return "format"
	}
}

// REPLConfig contains configuration for the REPL
type REPLConfig struct {
	Prompt         string // default "maxfmt> "
	ContinuePrompt string // default "... "
	HistoryFile    string // empty disables history
	HistorySize    int    // default 1000
	KeepNewlines   bool
	EnableColors   bool
	Formatter      *output.Formatter
	Relinearizer   *parens.Relinearizer
	Completer      *edit.Completer
	Scanner        levels.Options
	Logger         logging.Logger
	// In and Out default to the process stdio. A non-nil In is always read
	// line by line without terminal editing.
	In  io.Reader
	Out io.Writer
}

// REPL represents the Read-Eval-Print Loop
type REPL struct {
	config    REPLConfig
	running   bool
	mode      Mode
	keep      bool
	buffer    *MultiLineBuffer
	display   *DisplayManager
	parser    *session.Parser
	relin     *parens.Relinearizer
	completer *edit.Completer
	commands  map[string]*command
	logger    logging.Logger
}

// NewREPL creates a REPL, filling in defaults for unset configuration.
func NewREPL(config REPLConfig) *REPL {
	if config.Prompt == "" {
		config.Prompt = "maxfmt> "
	}
	if config.ContinuePrompt == "" {
		config.ContinuePrompt = "... "
	}
	if config.HistorySize == 0 {
		config.HistorySize = 1000
	}
	if config.Formatter == nil {
		config.Formatter = output.New()
	}
	if config.Relinearizer == nil {
		config.Relinearizer = parens.New()
	}
	if config.Completer == nil {
		config.Completer = edit.NewCompleter()
	}
	if config.Scanner.Parentheses == nil && config.Scanner.Literals == nil {
		config.Scanner = levels.DefaultOptions()
	}
	if config.Logger == nil {
		config.Logger = logging.NewNullLogger()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	r := &REPL{
		config:    config,
		keep:      config.KeepNewlines,
		buffer:    NewMultiLineBuffer(config.Scanner),
		display:   NewDisplayManager(config.Out, config.EnableColors),
		parser:    session.NewParser(config.Formatter, config.Logger),
		relin:     config.Relinearizer,
		completer: config.Completer,
		logger:    config.Logger.WithComponent("repl"),
	}
	r.registerCommands()
	return r
}

// Mode returns the current mode.
func (r *REPL) Mode() Mode {
	return r.mode
}

// KeepNewlines reports whether line breaks in pasted blocks are kept.
func (r *REPL) KeepNewlines() bool {
	return r.keep
}

// isInteractive checks if the input is interactive (terminal) or piped
func (r *REPL) isInteractive() bool {
	if r.config.In != nil {
		return false
	}
	fileInfo, err := os.Stdin.Stat()
	return err == nil && fileInfo.Mode()&os.ModeCharDevice != 0
}

// Run starts the loop and returns when input ends, :quit is entered or ctx
// is done.
func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	if r.isInteractive() {
		return r.runInteractive(ctx)
	}
	in := r.config.In
	if in == nil {
		in = os.Stdin
	}
	return r.runPiped(ctx, in)
}

func (r *REPL) runInteractive(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.display.Prompt(r.config.Prompt),
		HistoryFile:     r.config.HistoryFile,
		HistoryLimit:    r.config.HistorySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		AutoComplete:    NewCompleter(r.completer, r.commandNames),
	})
	if err != nil {
		return errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("failed to initialize readline: %v", err))
	}
	defer func() {
		if err := rl.Close(); err != nil {
			r.logger.Warn("failed to close readline", logging.ErrorField("error", err))
		}
	}()

	r.display.Notice("Paste session output; a blank line formats it. :help lists commands.")

	for r.running && ctx.Err() == nil {
		if r.buffer.IsEmpty() {
			rl.SetPrompt(r.display.Prompt(r.config.Prompt))
		} else {
			rl.SetPrompt(r.display.Prompt(r.config.ContinuePrompt))
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if r.buffer.IsEmpty() && len(line) == 0 {
				break
			}
			r.buffer.Clear()
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("read error: %v", err))
		}
		r.HandleLine(line)
	}
	r.Flush()
	return nil
}

func (r *REPL) runPiped(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for r.running && ctx.Err() == nil && scanner.Scan() {
		r.HandleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("error reading input: %v", err))
	}
	r.Flush()
	return nil
}

// HandleLine feeds one input line. A command line runs at once when no block
// is pending. A blank line, or a line completing a terminated command,
// processes the pending block.
func (r *REPL) HandleLine(line string) {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)

	if r.buffer.IsEmpty() && strings.HasPrefix(trimmed, ":") && !strings.HasPrefix(trimmed, ":lisp ") {
		if err := r.runCommand(trimmed); err != nil {
			r.display.Error(err)
		}
		return
	}

	if trimmed == "" {
		r.Flush()
		return
	}

	r.buffer.AddLine(line)
	if r.buffer.IsComplete() {
		r.Flush()
	}
}

// Flush processes and prints the pending block, if any.
func (r *REPL) Flush() {
	if r.buffer.IsEmpty() {
		return
	}
	block := r.buffer.GetContent()
	r.buffer.Clear()

	if text := r.Process(block); text != "" {
		r.display.Result(text)
	}
}

// Process turns one block into the text to print, according to the mode.
func (r *REPL) Process(block string) string {
	switch r.mode {
	case ModeStrip:
		res, err := r.relin.RemoveRedundant(block)
		if err != nil {
			r.display.Error(err)
		}
		return res.Text
	case ModeLevels:
		return levels.Colorize(block, levels.Scan(block, r.config.Scanner), nil)
	}

	if strings.Contains(block, "(%o") {
		return r.parser.Parse("", block).Render(false)
	}
	res := r.config.Formatter.Run(block, r.keep)
	for _, w := range res.Warnings {
		r.display.Warning("%s", w)
	}
	return res.Output
}

// command is one : command of the loop.
type command struct {
	name    string
	aliases []string
	help    string
	run     func(args []string) error
}

func (r *REPL) registerCommands() {
	r.commands = make(map[string]*command)
	for _, c := range []*command{
		{name: ":help", aliases: []string{":h"}, help: "show this help", run: r.printHelp},
		{name: ":quit", aliases: []string{":q", ":exit"}, help: "leave the loop", run: func([]string) error {
			r.running = false
			return nil
		}},
		{name: ":keep", help: "toggle keeping line breaks (print output)", run: func([]string) error {
			r.keep = !r.keep
			r.display.Notice("keep newlines: %t", r.keep)
			return nil
		}},
		{name: ":format", help: "format blocks (default)", run: r.switchMode(ModeFormat)},
		{name: ":strip", help: "only remove redundant parentheses", run: r.switchMode(ModeStrip)},
		{name: ":levels", help: "show nesting depth in color", run: r.switchMode(ModeLevels)},
		{name: ":reset", help: "drop the pending block", run: func([]string) error {
			r.buffer.Clear()
			return nil
		}},
	} {
		r.commands[c.name] = c
		for _, alias := range c.aliases {
			r.commands[alias] = c
		}
	}
}

func (r *REPL) switchMode(m Mode) func([]string) error {
	return func([]string) error {
		r.mode = m
		r.display.Notice("mode: %s", m)
		return nil
	}
}

// commandNames returns the primary command names, sorted.
func (r *REPL) commandNames() []string {
	names := make([]string, 0, len(r.commands))
	for name, c := range r.commands {
		if name == c.name {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *REPL) runCommand(line string) error {
	parts := strings.Fields(line)
	c, ok := r.commands[parts[0]]
	if !ok {
		msg := fmt.Sprintf("unknown command: %s", parts[0])
		if guess, found := edit.Suggest(parts[0], r.commandNames()); found {
			msg += fmt.Sprintf(" (did you mean %s?)", guess)
		}
		return errors.NewUserError(errors.CodeUnknownCommand, msg)
	}
	r.logger.Debug("command", logging.StringField("name", c.name))
	return c.run(parts[1:])
}

func (r *REPL) printHelp([]string) error {
	r.display.Notice("Available commands:")
	for _, name := range r.commandNames() {
		c := r.commands[name]
		label := strings.Join(append([]string{c.name}, c.aliases...), ", ")
		r.display.Notice("  %-18s - %s", label, c.help)
	}
	r.display.Notice("Current mode: %s, keep newlines: %t", r.mode, r.keep)
	return nil
}
