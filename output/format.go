// Package output turns one raw result block of an algebra session into
// compact, evenly spaced expression text with only the parentheses that
// matter.
package output

import (
	"time"

	"maxfmt/errors"
	"maxfmt/logging"
	"maxfmt/parens"
)

// Filter is an extra rewrite applied after the built-in steps.
type Filter interface {
	Name() string
	Apply(text string) (string, error)
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc struct {
	FilterName string
	Fn         func(string) (string, error)
}

func (f FilterFunc) Name() string                      { return f.FilterName }
func (f FilterFunc) Apply(text string) (string, error) { return f.Fn(text) }

// Result describes one formatting run.
type Result struct {
	Input   string `json:"input" yaml:"input"`
	Output  string `json:"output" yaml:"output"`
	Removed int    `json:"removed_parentheses" yaml:"removed_parentheses"`
	// Degraded is set when a step failed and was skipped.
	Degraded bool     `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLogger sets the logger for the formatter and its re-linearizer.
func WithLogger(logger logging.Logger) Option {
	return func(f *Formatter) {
		if logger != nil {
			f.logger = logger.WithComponent("output")
			f.parensOpts = append(f.parensOpts, parens.WithLogger(logger))
		}
	}
}

// WithMaxDepth bounds the nesting the re-linearizer accepts.
func WithMaxDepth(depth int) Option {
	return func(f *Formatter) {
		f.parensOpts = append(f.parensOpts, parens.WithMaxDepth(depth))
	}
}

// WithFilters appends filters, applied in order.
func WithFilters(filters ...Filter) Option {
	return func(f *Formatter) {
		f.filters = append(f.filters, filters...)
	}
}

// Formatter runs the formatting steps. It keeps no per-call state and may
// be shared between goroutines as long as its filters can.
type Formatter struct {
	logger     logging.Logger
	relin      *parens.Relinearizer
	parensOpts []parens.Option
	filters    []Filter
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{logger: logging.NewNullLogger()}
	for _, opt := range opts {
		opt(f)
	}
	f.relin = parens.New(f.parensOpts...)
	return f
}

var defaultFormatter = New()

// Format formats raw with the default Formatter.
func Format(raw string, keepNewlines bool) string {
	return defaultFormatter.Format(raw, keepNewlines)
}

// FormatStrict formats raw with the default Formatter and reports failures.
func FormatStrict(raw string, keepNewlines bool) (string, error) {
	return defaultFormatter.FormatStrict(raw, keepNewlines)
}

// Format never fails. A step that cannot complete is logged and skipped and
// the text from the step before it carries on.
func (f *Formatter) Format(raw string, keepNewlines bool) string {
	res, _ := f.run(raw, keepNewlines, false)
	return res.Output
}

// FormatStrict stops at the first failing step and returns its error.
func (f *Formatter) FormatStrict(raw string, keepNewlines bool) (string, error) {
	res, err := f.run(raw, keepNewlines, true)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Run is Format with a report of what happened.
func (f *Formatter) Run(raw string, keepNewlines bool) Result {
	res, _ := f.run(raw, keepNewlines, false)
	return res
}

func (f *Formatter) run(raw string, keepNewlines, strict bool) (Result, error) {
	start := time.Now()
	res := Result{Input: raw}

	text := raw
	if !keepNewlines {
		text = CollapseNewlines(text)
	}
	text = Compact(text)

	relinearized, err := f.relin.RemoveRedundant(text)
	if err != nil {
		if strict {
			return res, err
		}
		f.logger.Warn("keeping parentheses", logging.ErrorField("error", err))
		res.Degraded = true
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		text = relinearized.Text
		res.Removed = relinearized.Removed
	}

	text = Respace(text)

	for _, filter := range f.filters {
		out, err := filter.Apply(text)
		if err != nil {
			if strict {
				return res, errors.WrapError(err, errors.CodeScriptCall, "filter failed").
					WithContext("filter", filter.Name())
			}
			f.logger.Warn("filter skipped",
				logging.StringField("filter", filter.Name()),
				logging.ErrorField("error", err))
			res.Degraded = true
			res.Warnings = append(res.Warnings, filter.Name()+": "+err.Error())
			continue
		}
		text = out
	}

	res.Output = text
	f.logger.Debug("formatted",
		logging.IntField("input_bytes", len(raw)),
		logging.IntField("output_bytes", len(text)),
		logging.IntField("removed", res.Removed),
		logging.DurationField("elapsed", time.Since(start)))
	return res, nil
}
