package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"maxfmt/edit"
	"maxfmt/errors"
	"maxfmt/logging"
	"maxfmt/session"
)

// operations builds the session command for a selection. by is the operand
// given with --by.
var operations = map[string]func(by, sel string) edit.Operation{
	"negate":     func(_, sel string) edit.Operation { return edit.Negate(sel) },
	"reciprocal": func(_, sel string) edit.Operation { return edit.Reciprocal(sel) },
	"multiply":   edit.Multiply,
	"plus":       edit.Plus,
	"power":      edit.Power,
}

var needsOperand = map[string]bool{"multiply": true, "plus": true, "power": true}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildOperation(name, by, sel string) (edit.Operation, error) {
	build, ok := operations[name]
	if !ok {
		return edit.Operation{}, errors.NewUserError(errors.CodeUnknownCommand,
			fmt.Sprintf("unknown operation %q (want one of %s)", name, strings.Join(operationNames(), ", ")))
	}
	if needsOperand[name] && strings.TrimSpace(by) == "" {
		return edit.Operation{}, errors.NewUserError(errors.CodeMissingOperand,
			fmt.Sprintf("%s needs an operand, pass --by", name)).WithContext("operation", name)
	}
	return build(strings.TrimSpace(by), sel), nil
}

func (a *app) newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply editor operations to a selection",
	}
	cmd.AddCommand(
		a.newExchangeCmd(),
		a.newDeclareCmd(),
		a.newNumberCmd(),
		a.newDiffCmd(),
		a.newOperationCmd(),
	)
	return cmd
}

// textResult is the machine output of the edit commands that produce text.
type textResult struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

func (a *app) newExchangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exchange [file]",
		Short: "Swap the sides of an equation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			raw = strings.TrimSpace(raw)
			swapped, ok := edit.ExchangeHands(raw)
			if !ok {
				return errors.NewUserError(errors.CodeNotEquation, "selection has no top-level =").
					WithContext("input", raw)
			}
			return a.emit(cmd, textResult{Input: raw, Output: swapped}, swapped+"\n")
		},
	}
}

func (a *app) newDeclareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "declare [file]",
		Short: "Declare a list of symbols integer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			raw = strings.TrimSpace(raw)
			text := edit.DeclareInteger(raw)
			return a.emit(cmd, textResult{Input: raw, Output: text}, text+"\n")
		},
	}
}

func (a *app) newNumberCmd() *cobra.Command {
	var (
		tail   bool
		prefix string
		suffix string
	)

	cmd := &cobra.Command{
		Use:   "number [file]",
		Short: "Number the lines of the input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			raw = strings.TrimRight(raw, "\r\n")
			text := edit.LineNumbered(raw, !tail, prefix, suffix)
			return a.emit(cmd, textResult{Input: raw, Output: text}, text+"\n")
		},
	}

	cmd.Flags().BoolVar(&tail, "tail", false, "put numbers after the lines")
	cmd.Flags().StringVar(&prefix, "prefix", "", "text before each number")
	cmd.Flags().StringVar(&suffix, "suffix", " ", "text after each number")
	return cmd
}

func (a *app) newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff old new",
		Short: "Show the single changed region between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := readInput(cmd, args[:1])
			if err != nil {
				return err
			}
			changed, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			offset, removed, inserted := edit.Diff(old, changed)

			report := struct {
				Offset   int    `json:"offset" yaml:"offset"`
				Removed  string `json:"removed" yaml:"removed"`
				Inserted string `json:"inserted" yaml:"inserted"`
			}{offset, removed, inserted}
			return a.emit(cmd, report, fmt.Sprintf("%d\t%q\t%q\n", offset, removed, inserted))
		},
	}
}

func (a *app) newOperationCmd() *cobra.Command {
	var (
		by     string
		result string
	)

	cmd := &cobra.Command{
		Use:   "op name [file]",
		Short: "Build the session command for negate, reciprocal, multiply, plus or power",
		Long: "Build the session command for an arithmetic operation on the selection.\n" +
			"With --result, print the text that replaces the selection once the session answered instead.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			op, err := buildOperation(args[0], by, strings.TrimSpace(raw))
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("result") {
				text := op.Splice(result)
				return a.emit(cmd, textResult{Input: result, Output: text}, text+"\n")
			}
			a.logger.Debug("operation built", logging.StringField("operation", op.Name))
			return a.emit(cmd, op, op.Command+"\n")
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "operand of multiply, plus and power")
	cmd.Flags().StringVar(&result, "result", "", "session result to splice in place of the selection")
	return cmd
}

func (a *app) newTranscriptCmd() *cobra.Command {
	var replies bool

	cmd := &cobra.Command{
		Use:   "transcript [file]",
		Short: "Turn a terminal session log into a worksheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			formatter, err := a.newFormatter(nil)
			if err != nil {
				return err
			}
			exchanges := session.NewParser(formatter, a.logger).ParseLog(raw)

			text := session.Worksheet(exchanges)
			if replies {
				text = session.Transcript(session.Replies(exchanges), false)
			}
			if text != "" {
				text += "\n"
			}
			return a.emit(cmd, exchanges, text)
		},
	}

	cmd.Flags().BoolVar(&replies, "replies", false, "print only the rendered replies")
	return cmd
}
