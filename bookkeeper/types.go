package bookkeeper

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/annotator"
)

// Argument mismatch policies.
const (
	ArgMismatchFail       = "fail"
	ArgMismatchImpossible = "impossible"
)

// Options configures a Bookkeeper.
type Options struct {
	// Logging configuration
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=error warn warning info debug"`

	// Diagnostic warnings
	EchoWarnings bool   `yaml:"echo_warnings"`                                              // Print warnings as they happen
	WarningColor string `yaml:"warning_color" validate:"omitempty,oneof=auto always never"` // Red warnings: auto (tty), always, never
	KeepWarnings bool   `yaml:"keep_warnings"`                                              // Collect warnings for Warnings()

	// ArgMismatch decides what a call whose arguments cannot bind to the
	// callee's signature produces: "fail" returns an error, "impossible"
	// warns and yields the Impossible value.
	ArgMismatch string `yaml:"arg_mismatch" validate:"required,oneof=fail impossible"`

	// Limits to catch runaway specialization
	MaxMemoCombinations int `yaml:"max_memo_combinations" validate:"gte=0"` // 0 = unlimited
	MaxSpecializations  int `yaml:"max_specializations" validate:"gte=0"`   // 0 = unlimited
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		LogLevel:            "warn",
		EchoWarnings:        true,
		WarningColor:        "auto",
		KeepWarnings:        true,
		ArgMismatch:         ArgMismatchFail,
		MaxMemoCombinations: 4096,
		MaxSpecializations:  0,
	}
}

var optionsValidator = validator.New()

// Validate checks the options for unsupported values.
func (o Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("invalid bookkeeper options: %w", err)
	}
	return nil
}

// LoadOptions reads options from a YAML file. Fields missing from the file
// keep their default values.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read options: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options on top of DefaultOptions.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Option customizes a Bookkeeper at construction.
type Option func(*Bookkeeper)

// WithOptions replaces the configuration.
func WithOptions(opts Options) Option {
	return func(bk *Bookkeeper) {
		bk.opts = opts
	}
}

// WithLogger sets the logger. The default is derived from Options.LogLevel.
func WithLogger(l Logger) Option {
	return func(bk *Bookkeeper) {
		bk.logger = l
	}
}

// WithWarningOutput sets where echoed warnings go (default os.Stderr).
func WithWarningOutput(w io.Writer) Option {
	return func(bk *Bookkeeper) {
		bk.warnOut = w
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(bk *Bookkeeper) {
		bk.metrics = m
	}
}

// WithReflowQueue makes the bookkeeper append stale positions to q.
func WithReflowQueue(q *ReflowQueue) Option {
	return func(bk *Bookkeeper) {
		bk.reflows = q
	}
}

// WithReflowHook registers a function called for every position pushed to
// the reflow queue.
func WithReflowHook(fn func(annotator.Position)) Option {
	return func(bk *Bookkeeper) {
		bk.onReflow = fn
	}
}

// WithBuiltin registers an analyzer for a built-in callable.
func WithBuiltin(b *annotator.Builtin, a Analyzer) Option {
	return func(bk *Bookkeeper) {
		bk.builtins[b] = a
	}
}
