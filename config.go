package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"maxfmt/errors"
	"maxfmt/levels"
)

// Config represents the maxfmt configuration
type Config struct {
	Format     FormatConfig     `yaml:"format" json:"format"`
	Scanner    ScannerConfig    `yaml:"scanner" json:"scanner"`
	REPL       REPLConfig       `yaml:"repl" json:"repl"`
	Batch      BatchConfig      `yaml:"batch" json:"batch"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Completion CompletionConfig `yaml:"completion" json:"completion"`
}

// FormatConfig controls the output pipeline
type FormatConfig struct {
	KeepNewlines bool `yaml:"keep_newlines" json:"keep_newlines"`
	MaxDepth     int  `yaml:"max_depth" json:"max_depth"`
	// Filters are Lua files run after formatting, in order.
	Filters []string `yaml:"filters" json:"filters"`
}

// ScannerConfig lists the delimiters the level scanner tracks. Each pair is
// written as [open, close].
type ScannerConfig struct {
	Parentheses [][]string `yaml:"parentheses" json:"parentheses"`
	Literals    [][]string `yaml:"literals" json:"literals"`
	Escape      string     `yaml:"escape" json:"escape"`
}

// REPLConfig contains REPL-specific settings
type REPLConfig struct {
	Prompt      string `yaml:"prompt" json:"prompt"`
	HistoryFile string `yaml:"history_file" json:"history_file"`
	HistorySize int    `yaml:"history_size" json:"history_size"`
}

// BatchConfig contains settings of the batch command
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// CompletionConfig adds words to the completion vocabulary
type CompletionConfig struct {
	Words []string `yaml:"words" json:"words"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Format: FormatConfig{
			MaxDepth: 256,
			Filters:  []string{},
		},
		Scanner: ScannerConfig{
			Parentheses: [][]string{{"(", ")"}, {"[", "]"}, {"{", "}"}},
			Literals:    [][]string{{`"`, `"`}},
			Escape:      `\`,
		},
		REPL: REPLConfig{
			Prompt:      "maxfmt> ",
			HistoryFile: "~/.maxfmt/history",
			HistorySize: 1000,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Completion: CompletionConfig{
			Words: []string{},
		},
	}
}

// configSearchPaths are tried in order when no --config is given.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".maxfmt", "config.yaml"),
		"./maxfmt.yaml",
	}
}

// FindConfig returns the first existing default config file, or "".
func FindConfig() string {
	for _, path := range configSearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.NewSystemError(errors.CodeConfigRead, fmt.Sprintf("failed to read config file: %v", err)).
			WithPath(path).Wrap(err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.NewValidationError(errors.CodeConfigParse, fmt.Sprintf("failed to parse config file: %v", err)).
			WithPath(path).Wrap(err)
	}

	if err := config.Validate(); err != nil {
		return nil, err.WithPath(path)
	}
	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewSystemError(errors.CodeIOWrite, fmt.Sprintf("failed to create config directory: %v", err)).Wrap(err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return errors.WrapError(err, errors.CodeIOWrite, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewSystemError(errors.CodeIOWrite, fmt.Sprintf("failed to write config file: %v", err)).
			WithPath(path).Wrap(err)
	}
	return nil
}

// Validate rejects settings the formatter cannot work with.
func (c *Config) Validate() *errors.ExecutionError {
	invalid := func(field, msg string) *errors.ExecutionError {
		return errors.NewValidationError(errors.CodeInvalidConfig, fmt.Sprintf("%s: %s", field, msg)).
			WithContext("field", field)
	}

	if c.Format.MaxDepth < 1 {
		return invalid("format.max_depth", "must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return invalid("batch.concurrency", "must be positive")
	}
	if c.REPL.HistorySize < 0 {
		return invalid("repl.history_size", "must not be negative")
	}
	for field, pairs := range map[string][][]string{
		"scanner.parentheses": c.Scanner.Parentheses,
		"scanner.literals":    c.Scanner.Literals,
	} {
		for i, pair := range pairs {
			if len(pair) != 2 {
				return invalid(fmt.Sprintf("%s[%d]", field, i), "want [open, close]")
			}
			if pair[0] == "" || pair[1] == "" {
				return invalid(fmt.Sprintf("%s[%d]", field, i), "empty delimiter")
			}
		}
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	return nil
}

// ScannerOptions converts the scanner section for the levels package.
func (c *Config) ScannerOptions() levels.Options {
	toPairs := func(raw [][]string) []levels.Pair {
		pairs := make([]levels.Pair, 0, len(raw))
		for _, p := range raw {
			if len(p) == 2 {
				pairs = append(pairs, levels.Pair{Open: p[0], Close: p[1]})
			}
		}
		return pairs
	}
	return levels.Options{
		Parentheses: toPairs(c.Scanner.Parentheses),
		Literals:    toPairs(c.Scanner.Literals),
		Escape:      c.Scanner.Escape,
	}
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
