package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"maxfmt/errors"
	"maxfmt/jobmanager"
	"maxfmt/logging"
	"maxfmt/output"
	"maxfmt/session"
)

// documentFormatter formats whole transcripts block by block.
type documentFormatter struct {
	formatter *output.Formatter
	parser    *session.Parser
	keep      bool
}

func newDocumentFormatter(formatter *output.Formatter, logger logging.Logger, keep bool) *documentFormatter {
	return &documentFormatter{
		formatter: formatter,
		parser:    session.NewParser(formatter, logger),
		keep:      keep,
	}
}

// Format formats every blank-line separated block of text. Blocks holding a
// (%oN) label are treated as session replies, the rest as raw output.
func (d *documentFormatter) Format(text string) string {
	blocks := session.Blocks(text)
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		block, _ := session.StripInputLabels(b.Text)
		if strings.Contains(block, "(%o") {
			parts = append(parts, d.parser.Parse("", block).Render(false))
			continue
		}
		parts = append(parts, d.formatter.Format(block, d.keep))
	}
	return strings.Join(parts, "\n\n")
}

// BatchOptions controls RunBatch.
type BatchOptions struct {
	Concurrency int
	// ToStdout prints results instead of writing <file>.out next to each input.
	ToStdout bool
	Out      io.Writer
}

// RunBatch formats files concurrently and returns one summary per file in
// argument order. The error reports how many files failed.
func RunBatch(ctx context.Context, docs *documentFormatter, files []string, opts BatchOptions, logger logging.Logger) ([]jobmanager.Summary, error) {
	jm := jobmanager.NewJobManager(opts.Concurrency, jobmanager.WithLogger(logger))
	defer jm.Shutdown()

	for _, file := range files {
		path := file
		if _, err := jm.Submit(ctx, path, func(ctx context.Context) (string, error) {
			return formatFile(ctx, docs, path, opts.ToStdout)
		}); err != nil {
			return nil, err
		}
	}

	jobs, err := jm.Wait(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]jobmanager.Summary, 0, len(jobs))
	failed := 0
	for _, job := range jobs {
		summaries = append(summaries, job.Summary())
		if job.Status() != jobmanager.StatusCompleted {
			failed++
			continue
		}
		if opts.ToStdout && opts.Out != nil {
			if len(jobs) > 1 {
				fmt.Fprintf(opts.Out, "==> %s <==\n", job.Name())
			}
			fmt.Fprintln(opts.Out, job.Result())
		}
	}

	if failed > 0 {
		return summaries, errors.NewUserError(errors.CodeBatchFailed,
			fmt.Sprintf("%d of %d files failed", failed, len(jobs))).
			WithContext("failed", failed)
	}
	return summaries, nil
}

// formatFile formats one file. The result is the formatted text when toStdout
// is set and the path written otherwise.
func formatFile(ctx context.Context, docs *documentFormatter, path string, toStdout bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewSystemError(errors.CodeIORead, fmt.Sprintf("failed to read %s: %v", path, err)).
			WithPath(path).Wrap(err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	formatted := docs.Format(string(data))
	if toStdout {
		return formatted, nil
	}

	target := path + ".out"
	if err := os.WriteFile(target, []byte(formatted+"\n"), 0644); err != nil {
		return "", errors.NewSystemError(errors.CodeIOWrite, fmt.Sprintf("failed to write %s: %v", target, err)).
			WithPath(target).Wrap(err)
	}
	return target, nil
}
