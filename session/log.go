package session

import (
	"regexp"
	"strings"

	"maxfmt/levels"
	"maxfmt/logging"
)

var inputPrompt = regexp.MustCompile(`(?m)^\(%i\d+\) ?`)

// Exchange is one prompt of a captured terminal session.
type Exchange struct {
	Label   string `json:"label" yaml:"label"`
	Command string `json:"command" yaml:"command"`
	Reply   Reply  `json:"reply" yaml:"reply"`
}

// ParseLog cuts a terminal session log at its (%iN) prompts. The command
// runs to the first top-level terminator after the prompt and everything up
// to the next prompt is its reply. Prompts without a command, like the one
// a log usually ends on, are dropped.
func (p *Parser) ParseLog(log string) []Exchange {
	locs := inputPrompt.FindAllStringIndex(log, -1)
	exchanges := make([]Exchange, 0, len(locs))
	for i, loc := range locs {
		end := len(log)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		rest := log[loc[1]:end]

		command, raw := rest, ""
		if at, _ := levels.IndexTopLevel(rest, []string{";", "$"}, commandOptions); at >= 0 {
			command, raw = rest[:at+1], rest[at+1:]
		}
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		exchanges = append(exchanges, Exchange{
			Label:   strings.TrimSpace(log[loc[0]:loc[1]]),
			Command: command,
			Reply:   p.Parse(command, raw),
		})
	}
	p.logger.Debug("session log parsed", logging.IntField("exchanges", len(exchanges)))
	return exchanges
}

// Worksheet lays exchanges out as editor text: each command under its input
// header followed by the rendered reply, exchanges separated by blank lines.
func Worksheet(exchanges []Exchange) string {
	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		part := InputHeader(ex.Label) + "\n" + ex.Command
		if reply := ex.Reply.Render(false); reply != "" {
			part += "\n" + reply
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n")
}

// Replies returns the reply of every exchange.
func Replies(exchanges []Exchange) []Reply {
	replies := make([]Reply, len(exchanges))
	for i, ex := range exchanges {
		replies[i] = ex.Reply
	}
	return replies
}
