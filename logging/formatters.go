package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// JSONFormatter formats log entries as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as one JSON line
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	// IncludeTimestamp controls whether to include the timestamp
	IncludeTimestamp bool
	// IncludeCaller controls whether to include the caller information
	IncludeCaller bool
	// ColorOutput controls whether the level is colorized
	ColorOutput bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    false,
		ColorOutput:      false,
	}
}

// NewTextFormatterWithOptions creates a new text formatter with custom options
func NewTextFormatterWithOptions(includeTimestamp, includeCaller, colorOutput bool) *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: includeTimestamp,
		IncludeCaller:    includeCaller,
		ColorOutput:      colorOutput,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	fmt.Fprintf(&b, "[%s] ", f.colorizeLevel(entry.Level))

	if entry.Component != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Component)
	}

	b.WriteString(entry.Message)

	if f.IncludeCaller && entry.Caller != "" {
		fmt.Fprintf(&b, " (caller: %s)", entry.Caller)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " (error: %s)", entry.Error.Error())
	}
	if len(entry.Fields) > 0 {
		b.WriteString(" ")
		b.WriteString(formatFields(entry.Fields))
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

// formatFields renders fields sorted by key so output is stable
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var levelColors = map[LogLevel]*color.Color{
	LevelDebug:   color.New(color.FgCyan),
	LevelInfo:    color.New(color.FgGreen),
	LevelWarning: color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed),
}

// colorizeLevel adds color codes to the level string
func (f *TextFormatter) colorizeLevel(level LogLevel) string {
	if !f.ColorOutput {
		return level.String()
	}
	c, ok := levelColors[level]
	if !ok {
		return level.String()
	}
	return c.Sprint(level.String())
}

// NewFormatter returns the formatter registered under name ("text" or "json")
func NewFormatter(name string, colorOutput bool) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatterWithOptions(true, false, colorOutput), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", name)
	}
}
