package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/cppref/internal/config"
)

type globalFlags struct {
	configPath string
	backend    string
	root       string
	logLevel   string
	dryRun     bool
	noColor    bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := &globalFlags{}
	p := newPrinter(stdout, stderr, os.Getenv("NO_COLOR") != "")

	root := newRootCmd(flags, p)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		p.noColor = p.noColor || flags.noColor
		p.Fail(err)
		return 1
	}
	return 0
}

func newRootCmd(flags *globalFlags, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cppref",
		Short:         "Refactor C++ classes across header and source files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if flags.noColor {
				p.noColor = true
			}
			return setupLogging(p.err, flags.logLevel, p.noColor)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cppref/config.toml)")
	pf.StringVar(&flags.backend, "backend", "", `navigation backend, "lsp" or "treesitter" (default from config)`)
	pf.StringVar(&flags.root, "root", "", "workspace root (default current directory)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "print the edits as a unified diff instead of applying them")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newImplementCmd(flags, p),
		newDefineCmd(flags, p),
		newMoveCmd(flags, p),
		newChangeDeclCmd(flags, p),
		newOutlineCmd(flags, p),
		newNewPairCmd(flags, p),
		newUndoCmd(flags, p),
	)
	return cmd
}

func setupLogging(w io.Writer, level string, noColor bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
	return nil
}

// loadConfig reads the config file and applies the command-line overrides.
func loadConfig(flags *globalFlags, p *printer) (*config.Config, string, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, "", err
	}
	if flags.backend != "" {
		cfg.LSP.Backend = flags.backend
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	p.setTheme(cfg.UI.SyntaxThemeOrDefault())

	root := flags.root
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, "", err
		}
	}
	if root, err = filepath.Abs(root); err != nil {
		return nil, "", err
	}
	log.Debug().Str("root", root).Str("backend", cfg.LSP.BackendOrDefault()).Msg("config loaded")
	return cfg, root, nil
}
