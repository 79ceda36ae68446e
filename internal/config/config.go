// Package config loads the optional goldengen.yml harness configuration.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults reproduce the harness this tool replaces: a Rust interpreter
// built with cargo in release mode, test sources ending in .my, baselines
// ending in .out.
const (
	DefaultSourceExtension = ".my"
	DefaultOutputSuffix    = ".out"
	DefaultBuildCommand    = "cargo"
	DefaultInterpreter     = "../target/release/myton"
)

// DefaultBuildArgs returns a fresh copy of the default build arguments.
func DefaultBuildArgs() []string { return []string{"build", "--release"} }

// Config describes one generation setup. All paths are interpreted relative
// to the invocation's working directory, never the process CWD.
type Config struct {
	// SourceExtension identifies test sources, dot included (".my").
	SourceExtension string `yaml:"source_extension"`

	// OutputSuffix names baseline artifacts, dot included (".out").
	OutputSuffix string `yaml:"output_suffix"`

	// Build is the release build of the interpreter, run once per
	// generation with its output discarded.
	Build BuildConfig `yaml:"build"`

	// Interpreter is the path to the interpreter binary.
	Interpreter string `yaml:"interpreter"`
}

// BuildConfig is the external build command.
type BuildConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the configuration used when no goldengen.yml is present.
func Default() Config {
	return Config{
		SourceExtension: DefaultSourceExtension,
		OutputSuffix:    DefaultOutputSuffix,
		Build: BuildConfig{
			Command: DefaultBuildCommand,
			Args:    DefaultBuildArgs(),
		},
		Interpreter: DefaultInterpreter,
	}
}

// Load parses a goldengen.yml from disk. Decoding is strict: unknown keys
// are rejected so typos surface as configuration errors instead of silently
// falling back to defaults. Absent fields take their default values.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: %s is empty", absPath)
		}
		return Config{}, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourceExtension == "" {
		c.SourceExtension = DefaultSourceExtension
	}
	if c.OutputSuffix == "" {
		c.OutputSuffix = DefaultOutputSuffix
	}
	if c.Build.Command == "" {
		c.Build.Command = DefaultBuildCommand
		if c.Build.Args == nil {
			c.Build.Args = DefaultBuildArgs()
		}
	}
	if c.Interpreter == "" {
		c.Interpreter = DefaultInterpreter
	}
}

// Validate checks the invariants the pipeline depends on.
func (c Config) Validate() error {
	var issues []string
	if !strings.HasPrefix(c.SourceExtension, ".") || len(c.SourceExtension) < 2 {
		issues = append(issues, fmt.Sprintf("source_extension must be a dotted extension (got %q)", c.SourceExtension))
	}
	if !strings.HasPrefix(c.OutputSuffix, ".") || len(c.OutputSuffix) < 2 {
		issues = append(issues, fmt.Sprintf("output_suffix must be a dotted extension (got %q)", c.OutputSuffix))
	}
	if c.SourceExtension == c.OutputSuffix {
		issues = append(issues, "source_extension and output_suffix must differ")
	}
	if strings.TrimSpace(c.Build.Command) == "" {
		issues = append(issues, "build.command is required")
	}
	if strings.TrimSpace(c.Interpreter) == "" {
		issues = append(issues, "interpreter is required")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Hash returns the deterministic identity of this configuration: sha256 hex
// over a stable JSON encoding. Struct field order fixes the byte layout, so
// equal configs always hash equally.
func (c Config) Hash() string {
	type stable struct {
		SourceExtension string   `json:"source_extension"`
		OutputSuffix    string   `json:"output_suffix"`
		BuildCommand    string   `json:"build_command"`
		BuildArgs       []string `json:"build_args"`
		Interpreter     string   `json:"interpreter"`
	}
	args := c.Build.Args
	if args == nil {
		args = []string{}
	}
	b, err := json.Marshal(stable{
		SourceExtension: c.SourceExtension,
		OutputSuffix:    c.OutputSuffix,
		BuildCommand:    c.Build.Command,
		BuildArgs:       args,
		Interpreter:     c.Interpreter,
	})
	if err != nil {
		// Marshaling a struct of strings cannot fail; keep the signature simple.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
