package session

import (
	"fmt"
	"regexp"
	"strings"

	"maxfmt/levels"
	"maxfmt/logging"
	"maxfmt/output"
)

// Kind classifies a captured reply.
type Kind int

const (
	KindOutput Kind = iota
	KindHelp
	KindLisp
	KindWarning
	KindError
	KindSilent
	KindUnclear
)

var kindNames = map[Kind]string{
	KindOutput:  "output",
	KindHelp:    "help",
	KindLisp:    "lisp",
	KindWarning: "warning",
	KindError:   "error",
	KindSilent:  "silent",
	KindUnclear: "unclear",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error messages the session prints when a command fails.
var errorMarkers = []string{
	"incorrect syntax: ",
	"Maxima encountered a Lisp error: ",
}

const debugHint = " -- an error. To debug this try: debugmode(true);"

func isError(s string) bool {
	for _, marker := range errorMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return strings.HasSuffix(s, debugHint)
}

var outputLabel = regexp.MustCompile(`\(%o\d+\)`)

// outputLabels returns the locations of (%oN) labels outside string literals.
func outputLabels(s string) [][]int {
	var locs [][]int
	for _, seg := range levels.Scan(s, levels.LiteralOptions()) {
		if seg.Depth > 0 {
			continue
		}
		for _, loc := range outputLabel.FindAllStringIndex(seg.Text(s), -1) {
			locs = append(locs, []int{seg.Start + loc[0], seg.Start + loc[1]})
		}
	}
	return locs
}

// Reply is one classified session reply.
type Reply struct {
	Command string `json:"command" yaml:"command"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	// Label is the (%oN) label of an output reply.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Printed holds lines the command printed before its result.
	Printed string `json:"printed,omitempty" yaml:"printed,omitempty"`
	Text    string `json:"text" yaml:"text"`
}

// Render returns the text to insert into the document. With replace the
// reply substitutes the selection it was computed from, so result labels
// are left out and a failed command is kept above its error.
func (r Reply) Render(replace bool) string {
	switch r.Kind {
	case KindOutput:
		text := r.Text
		if !replace {
			text = "/* " + r.Label + ": */\n" + text
		}
		if r.Printed != "" {
			text = r.Printed + "\n" + text
		}
		return text
	case KindHelp:
		return "/* HELP: */\n" + r.Text
	case KindLisp:
		if replace {
			return r.Text
		}
		return "/* lisp: */\n" + r.Text
	case KindWarning:
		return "/* WARNING */\n" + r.Text
	case KindError:
		text := "/* ERROR: */\n" + r.Text
		if replace {
			text = r.Command + "\n" + text
		}
		return text
	default:
		return ""
	}
}

// Parser classifies replies and formats their results.
type Parser struct {
	formatter *output.Formatter
	logger    logging.Logger
}

// NewParser creates a Parser. A nil formatter or logger selects the default.
func NewParser(formatter *output.Formatter, logger logging.Logger) *Parser {
	if formatter == nil {
		formatter = output.New()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Parser{formatter: formatter, logger: logger.WithComponent("session")}
}

var defaultParser = NewParser(nil, nil)

// ParseReply classifies raw with the default Parser.
func ParseReply(command, raw string) Reply {
	return defaultParser.Parse(command, raw)
}

// Parse classifies raw, the text the session printed in response to command
// with the echoed input line already removed.
func (p *Parser) Parse(command, raw string) Reply {
	command = strings.TrimSpace(command)
	s := strings.TrimRight(strings.TrimLeft(raw, "\r\n"), " \t\r\n")
	r := Reply{Command: command}

	if strings.HasSuffix(command, "$") && (s == "" || strings.HasPrefix(s, "(%i") || strings.HasSuffix(s, "$")) {
		if isError(s) {
			r.Kind, r.Text = KindError, s
		} else {
			r.Kind = KindSilent
		}
		return r
	}

	if labels := outputLabels(s); labels != nil {
		loc := labels[len(labels)-1]
		if strings.HasPrefix(command, "? ") {
			r.Kind = KindHelp
			r.Text = strings.TrimRight(s[:loc[0]], " \t\r\n")
			return r
		}
		r.Kind = KindOutput
		r.Label = s[loc[0]:loc[1]]
		if printed := strings.TrimSpace(s[:loc[0]]); printed != "" {
			r.Printed = p.formatter.Format(printed, true)
		}
		r.Text = p.formatter.Format(strings.TrimSpace(s[loc[1]:]), false)
		return r
	}

	switch {
	case strings.HasPrefix(command, lispPrefix):
		r.Kind, r.Text = KindLisp, s
	case strings.HasPrefix(s, "Warning: "):
		if i := strings.Index(s, "\n\n"); i >= 0 {
			s = s[:i]
		}
		r.Kind, r.Text = KindWarning, s
	case isError(s):
		r.Kind, r.Text = KindError, s
	default:
		p.logger.Warn("unclear reply",
			logging.StringField("command", command),
			logging.IntField("bytes", len(s)))
		r.Kind, r.Text = KindUnclear, s
	}
	return r
}

// Transcript joins the rendered replies the way they are inserted below a
// block: separated by blank lines, or by single newlines when replacing a
// selection. Replies that render to nothing are skipped.
func Transcript(replies []Reply, replace bool) string {
	sep := "\n\n"
	if replace {
		sep = "\n"
	}
	parts := make([]string, 0, len(replies))
	for _, r := range replies {
		if text := r.Render(replace); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}
