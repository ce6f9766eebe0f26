package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"maxfmt/edit"
	"maxfmt/errors"
	"maxfmt/levels"
	"maxfmt/logging"
	"maxfmt/output"
	"maxfmt/parens"
	"maxfmt/repl"
	"maxfmt/script"
	"maxfmt/serialization"
	"maxfmt/session"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprintf("error: %v", err))
		return 1
	}
	return 0
}

// app carries what every subcommand shares: configuration, logger and the
// chosen machine output format.
type app struct {
	configPath string
	debug      bool
	output     string

	cfg     *Config
	logger  logging.Logger
	closers []func()
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "maxfmt",
		Short:         "Make Maxima session output readable",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML or JSON configuration file")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text, "+strings.Join(serialization.GetSupportedFormats(), ", "))

	cmd.AddCommand(
		a.newFormatCmd(),
		a.newStripCmd(),
		a.newLevelsCmd(),
		a.newSpanCmd(),
		a.newSplitCmd(),
		a.newBatchCmd(),
		a.newTranscriptCmd(),
		a.newEditCmd(),
		a.newREPLCmd(),
		a.newConfigCmd(),
	)

	return cmd
}

func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		path = FindConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.output != "text" {
		if _, err := serialization.GetSerializer(a.output); err != nil {
			return err
		}
	}

	logger, closeLog, err := newLogger(cfg.Logging, a.debug, os.Stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)
	a.logger.Debug("configuration loaded", logging.StringField("path", path))
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newLogger builds the process logger from the logging section. Entries go
// to stderr, or to the configured file. With debug on, a log file also gets
// a copy on stderr.
func newLogger(cfg LoggingConfig, debug bool, stderr io.Writer) (logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Level)
	if debug {
		level = logging.LevelDebug
	}

	var writer logging.Writer = logging.NewStreamWriter(stderr)
	colorOutput := !color.NoColor
	if cfg.File != "" {
		fw, err := logging.NewFileWriter(expandHome(cfg.File))
		if err != nil {
			return nil, nil, errors.NewSystemError(errors.CodeIOWrite, fmt.Sprintf("failed to open log file: %v", err)).
				WithPath(cfg.File).Wrap(err)
		}
		if debug {
			writer = logging.NewMultiWriter(fw, writer)
		} else {
			writer = fw
		}
		colorOutput = false
	}

	formatter, err := logging.NewFormatter(cfg.Format, colorOutput)
	if err != nil {
		return nil, nil, errors.NewValidationError(errors.CodeInvalidConfig, err.Error()).WithContext("field", "logging.format")
	}

	logger := logging.NewDefaultLoggerWithConfig(logging.LoggerConfig{
		Level:     level,
		Formatter: formatter,
		Writer:    writer,
	})
	return logger, func() { _ = logger.Close() }, nil
}

// newFormatter builds the output pipeline, loading the configured Lua
// filters followed by extra ones.
func (a *app) newFormatter(extraFilters []string) (*output.Formatter, error) {
	opts := []output.Option{
		output.WithLogger(a.logger),
		output.WithMaxDepth(a.cfg.Format.MaxDepth),
	}

	files := append(append([]string(nil), a.cfg.Format.Filters...), extraFilters...)
	if len(files) > 0 {
		engine, err := script.NewEngine(
			script.WithLogger(a.logger),
			script.WithMaxDepth(a.cfg.Format.MaxDepth),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, engine.Close)
		for _, file := range files {
			if _, err := engine.LoadFile(expandHome(file)); err != nil {
				return nil, err
			}
		}
		opts = append(opts, output.WithFilters(engine.Filters()...))
	}
	return output.New(opts...), nil
}

// emit writes v in the machine format, or text when the format is text.
func (a *app) emit(cmd *cobra.Command, v interface{}, text string) error {
	out := cmd.OutOrStdout()
	if a.output == "text" {
		_, err := io.WriteString(out, text)
		return err
	}
	data, err := serialization.Serialize(v, a.output)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// readInput returns the content of the file named by args, or stdin when
// there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("failed to read stdin: %v", err)).Wrap(err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("failed to read input: %v", err)).
			WithPath(args[0]).Wrap(err)
	}
	return string(data), nil
}

func (a *app) newFormatCmd() *cobra.Command {
	var (
		keep    bool
		strict  bool
		blocks  bool
		filters []string
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format raw session output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			formatter, err := a.newFormatter(filters)
			if err != nil {
				return err
			}
			keep = keep || a.cfg.Format.KeepNewlines

			if blocks {
				text := newDocumentFormatter(formatter, a.logger, keep).Format(raw)
				return a.emit(cmd, map[string]string{"output": text}, text+"\n")
			}

			raw = strings.TrimRight(raw, "\r\n")
			if strict {
				text, err := formatter.FormatStrict(raw, keep)
				if err != nil {
					return err
				}
				return a.emit(cmd, output.Result{Input: raw, Output: text}, text+"\n")
			}
			res := formatter.Run(raw, keep)
			for _, w := range res.Warnings {
				a.logger.Warn(w)
			}
			return a.emit(cmd, res, res.Output+"\n")
		},
	}

	cmd.Flags().BoolVarP(&keep, "keep-newlines", "k", false, "keep line breaks (output of print)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of skipping a step that cannot complete")
	cmd.Flags().BoolVar(&blocks, "blocks", false, "format each blank-line separated block as its own reply")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "Lua filter file to run after formatting (repeatable)")
	return cmd
}

func (a *app) newStripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strip [file]",
		Short: "Remove redundant parentheses only",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			relin := parens.New(parens.WithMaxDepth(a.cfg.Format.MaxDepth), parens.WithLogger(a.logger))
			res, err := relin.RemoveRedundant(strings.TrimRight(raw, "\r\n"))
			if err != nil {
				return err
			}
			return a.emit(cmd, res, res.Text+"\n")
		},
	}
}

func (a *app) newLevelsCmd() *cobra.Command {
	var useColor bool

	cmd := &cobra.Command{
		Use:   "levels [file]",
		Short: "Show the bracket and string nesting of the input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			raw = strings.TrimRight(raw, "\r\n")
			segments := levels.Scan(raw, a.cfg.ScannerOptions())

			if useColor {
				color.NoColor = false
				return a.emit(cmd, segments, levels.Colorize(raw, segments, nil)+"\n")
			}
			var b strings.Builder
			for _, seg := range segments {
				fmt.Fprintf(&b, "%d\t%d\t%d\t%q\n", seg.Depth, seg.Start, seg.End, seg.Text(raw))
			}
			return a.emit(cmd, segments, b.String())
		},
	}

	cmd.Flags().BoolVar(&useColor, "color", false, "paint each level in its own color instead of listing segments")
	return cmd
}

func (a *app) newSpanCmd() *cobra.Command {
	var start, end int

	cmd := &cobra.Command{
		Use:   "span [file]",
		Short: "Find the innermost brackets enclosing a selection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if end < 0 {
				end = start
			}
			sp, found := levels.FindEnclosingSpan(raw, start, end, a.cfg.ScannerOptions().Parentheses)

			report := struct {
				Found bool   `json:"found" yaml:"found"`
				Start int    `json:"start" yaml:"start"`
				End   int    `json:"end" yaml:"end"`
				Text  string `json:"text,omitempty" yaml:"text,omitempty"`
			}{Found: found}
			text := "no enclosing brackets\n"
			if found {
				report.Start, report.End, report.Text = sp.Start, sp.End, sp.Text(raw)
				text = fmt.Sprintf("%d\t%d\t%s\n", sp.Start, sp.End, sp.Text(raw))
			}
			return a.emit(cmd, report, text)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "selection start (byte offset)")
	cmd.Flags().IntVar(&end, "end", -1, "selection end (byte offset, default: start)")
	return cmd
}

func (a *app) newSplitCmd() *cobra.Command {
	var (
		sep      string
		commands bool
	)

	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Split at top-level separators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var parts []string
			if commands {
				parts = session.SplitCommands(raw)
			} else {
				parts = levels.Split(strings.TrimRight(raw, "\r\n"), sep, a.cfg.ScannerOptions())
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
			}

			text := strings.Join(parts, "\n")
			if len(parts) > 0 {
				text += "\n"
			}
			return a.emit(cmd, parts, text)
		},
	}

	cmd.Flags().StringVar(&sep, "sep", ",", "separator to split at")
	cmd.Flags().BoolVar(&commands, "commands", false, "split into terminated commands, dropping comments")
	return cmd
}

func (a *app) newBatchCmd() *cobra.Command {
	var (
		toStdout    bool
		concurrency int
		keep        bool
		filters     []string
	)

	cmd := &cobra.Command{
		Use:   "batch file...",
		Short: "Format many transcript files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.newFormatter(filters)
			if err != nil {
				return err
			}
			if concurrency < 1 {
				concurrency = a.cfg.Batch.Concurrency
			}
			docs := newDocumentFormatter(formatter, a.logger, keep || a.cfg.Format.KeepNewlines)

			opts := BatchOptions{Concurrency: concurrency, ToStdout: toStdout}
			if a.output == "text" {
				opts.Out = cmd.OutOrStdout()
			}
			summaries, runErr := RunBatch(cmd.Context(), docs, args, opts, a.logger)
			if a.output != "text" && summaries != nil {
				if err := a.emit(cmd, summaries, ""); err != nil {
					return err
				}
			}
			if a.output == "text" && !toStdout {
				for _, s := range summaries {
					line := fmt.Sprintf("%s: %s", s.Name, s.Status)
					if s.Error != "" {
						line += " (" + s.Error + ")"
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print results instead of writing <file>.out")
	cmd.Flags().IntVarP(&concurrency, "jobs", "j", 0, "files formatted at once (default from config)")
	cmd.Flags().BoolVarP(&keep, "keep-newlines", "k", false, "keep line breaks")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "Lua filter file to run after formatting (repeatable)")
	return cmd
}

func (a *app) newREPLCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Paste session output interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := a.newFormatter(nil)
			if err != nil {
				return err
			}
			words := append(append([]string(nil), edit.DefaultVocabulary...), a.cfg.Completion.Words...)

			r := repl.NewREPL(repl.REPLConfig{
				Prompt:       a.cfg.REPL.Prompt,
				HistoryFile:  expandHome(a.cfg.REPL.HistoryFile),
				HistorySize:  a.cfg.REPL.HistorySize,
				KeepNewlines: a.cfg.Format.KeepNewlines,
				EnableColors: !noColor && !color.NoColor,
				Formatter:    formatter,
				Relinearizer: parens.New(parens.WithMaxDepth(a.cfg.Format.MaxDepth), parens.WithLogger(a.logger)),
				Completer:    edit.NewCompleter(edit.WithVocabulary(words), edit.WithFuzzy(true)),
				Scanner:      a.cfg.ScannerOptions(),
				Logger:       a.logger,
			})
			return r.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := a.output
			if format == "text" {
				format = "yaml"
			}
			data, err := serialization.Serialize(a.cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configSearchPaths()[0]
			if len(args) == 1 {
				path = args[0]
			}
			if err := SaveConfig(DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", expandHome(path))
			return nil
		},
	})
	return cmd
}
