// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrMissing is returned by Options when a required option is unset.
var ErrMissing = errors.New("configuration missing")

// Backends answering declaration, definition and outline queries.
const (
	BackendLSP        = "lsp"
	BackendTreeSitter = "treesitter"
)

// Config is the root configuration structure.
type Config struct {
	Generate GenerateConfig `toml:"generate"`
	LSP      LSPConfig      `toml:"lsp"`
	Hooks    HooksConfig    `toml:"hooks"`
	Undo     UndoConfig     `toml:"undo"`
	UI       UIConfig       `toml:"ui"`
}

// GenerateConfig controls the text of generated code. The two booleans have
// no default: a command refuses to run until both are set.
type GenerateConfig struct {
	DefinitionWithNamespace *bool  `toml:"definition_with_namespace"`
	UseNestedNamespaces     *bool  `toml:"use_nested_namespaces"`
	Indent                  string `toml:"indent"`
}

// LSPConfig selects and starts the language server.
type LSPConfig struct {
	Backend string   `toml:"backend"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// Exclude lists extra gitignore-style globs the offline index skips.
	Exclude []string `toml:"exclude"`
}

// BackendOrDefault returns the configured backend or "lsp" if unset.
func (l LSPConfig) BackendOrDefault() string {
	if l.Backend == "" {
		return BackendLSP
	}
	return l.Backend
}

// HooksConfig holds shell commands run after a plan is applied.
type HooksConfig struct {
	// Format runs once per touched file with $FILE set to its path.
	Format string `toml:"format"`
}

// UndoConfig locates the undo journal.
type UndoConfig struct {
	Path string `toml:"path"`
	Keep int    `toml:"keep"`
}

// UIConfig holds output settings.
type UIConfig struct {
	// SyntaxTheme is the Chroma theme for previews and status colors.
	// Defaults to "vulcan" if unset.
	SyntaxTheme string `toml:"syntax_theme"`
}

// SyntaxThemeOrDefault returns the configured syntax theme or "vulcan" if unset.
func (u UIConfig) SyntaxThemeOrDefault() string {
	if u.SyntaxTheme == "" {
		return "vulcan"
	}
	return u.SyntaxTheme
}

// Options is the generation policy read once per command and passed through
// the whole pipeline.
type Options struct {
	DefinitionWithNamespace bool
	UseNestedNamespaces     bool
	Indent                  string
}

// DefaultIndent is the indentation of generated declarations.
const DefaultIndent = "    "

// Options returns the generation policy, or an error wrapping ErrMissing
// naming every unset option.
func (c *Config) Options() (Options, error) {
	var missing []string
	if c.Generate.DefinitionWithNamespace == nil {
		missing = append(missing, "generate.definition_with_namespace")
	}
	if c.Generate.UseNestedNamespaces == nil {
		missing = append(missing, "generate.use_nested_namespaces")
	}
	if len(missing) > 0 {
		return Options{}, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	indent := c.Generate.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	return Options{
		DefinitionWithNamespace: *c.Generate.DefinitionWithNamespace,
		UseNestedNamespaces:     *c.Generate.UseNestedNamespaces,
		Indent:                  indent,
	}, nil
}

// Load reads configuration from a TOML file and applies environment
// variable overrides. An empty path means DefaultPath. A missing file is not
// an error; the configuration then comes from the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	switch c.LSP.Backend {
	case "", BackendLSP, BackendTreeSitter:
	default:
		errs = append(errs, fmt.Errorf("lsp.backend=%q must be %q or %q", c.LSP.Backend, BackendLSP, BackendTreeSitter))
	}

	if strings.TrimSpace(c.Generate.Indent) != "" {
		errs = append(errs, fmt.Errorf("generate.indent=%q must contain only spaces and tabs", c.Generate.Indent))
	}

	if c.Undo.Keep < 0 {
		errs = append(errs, fmt.Errorf("undo.keep=%d must not be negative", c.Undo.Keep))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	boolean := func(name string, dst **bool) func(string) {
		return func(v string) {
			if v == "" {
				return
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q is not a boolean", name, v))
				return
			}
			*dst = &b
		}
	}
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"CPPREF_DEFINITION_WITH_NAMESPACE", boolean("CPPREF_DEFINITION_WITH_NAMESPACE", &cfg.Generate.DefinitionWithNamespace)},
		{"CPPREF_USE_NESTED_NAMESPACES", boolean("CPPREF_USE_NESTED_NAMESPACES", &cfg.Generate.UseNestedNamespaces)},
		{"CPPREF_LSP_COMMAND", func(v string) {
			if v != "" {
				cfg.LSP.Command = v
			}
		}},
		{"CPPREF_BACKEND", func(v string) {
			if v != "" {
				cfg.LSP.Backend = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
	return errors.Join(errs...)
}

// ConfigDir returns $XDG_CONFIG_HOME/cppref, or ~/.config/cppref.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cppref"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cppref"), nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}

// UndoPath returns the journal database path, creating its directory.
func (c *Config) UndoPath() (string, error) {
	if c.Undo.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Undo.Path), 0750); err != nil {
			return "", err
		}
		return c.Undo.Path, nil
	}
	dir, err := EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "undo.db"), nil
}
