// Package shell runs user-configured hooks in an in-process POSIX shell with
// command blocking. The only hook today formats files after a plan is applied.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Shell interprets commands in dir. Each run starts from the process
// environment; nothing carries over between runs.
type Shell struct {
	dir        string
	env        []string
	blockFuncs []BlockFunc
}

// New creates a Shell running in dir with the given block functions.
func New(dir string, blockers []BlockFunc) *Shell {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &Shell{
		dir:        dir,
		env:        os.Environ(),
		blockFuncs: blockers,
	}
}

// Run executes command with vars exported in addition to the environment.
func (s *Shell) Run(ctx context.Context, command string, vars map[string]string, stdout, stderr io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command execution panic: %v", r)
		}
	}()

	parsed, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return fmt.Errorf("could not parse command: %w", err)
	}

	env := append([]string{}, s.env...)
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	runner, err := interp.New(
		interp.StdIO(nil, stdout, stderr),
		interp.Interactive(false),
		interp.Env(expand.ListEnviron(env...)),
		interp.Dir(s.dir),
		interp.ExecHandlers(s.blockHandler()),
	)
	if err != nil {
		return fmt.Errorf("could not create interpreter: %w", err)
	}
	return runner.Run(ctx, parsed)
}

func (s *Shell) blockHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}
			for _, bf := range s.blockFuncs {
				if bf(args) {
					return fmt.Errorf("command blocked: %q", args[0])
				}
			}
			return next(ctx, args)
		}
	}
}

// ExitCode extracts the exit code from an interpreter error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr interp.ExitStatus
	if errors.As(err, &exitErr) {
		return int(exitErr)
	}
	return 1
}

// DefaultHookTimeout bounds a single hook run.
const DefaultHookTimeout = 30 * time.Second

// FormatHook runs a formatting command on each edited file. The file path
// is exported as $FILE.
type FormatHook struct {
	Shell   *Shell
	Command string
	Timeout time.Duration
}

// NewFormatHook returns a hook running command in root with the default
// block list.
func NewFormatHook(root, command string) *FormatHook {
	return &FormatHook{
		Shell:   New(root, DefaultBlockFuncs()),
		Command: command,
		Timeout: DefaultHookTimeout,
	}
}

// Format runs the hook for path.
func (h *FormatHook) Format(ctx context.Context, path string) error {
	if strings.TrimSpace(h.Command) == "" {
		return nil
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	err := h.Shell.Run(ctx, h.Command, map[string]string{"FILE": path}, &stdout, &stderr)
	log.Debug().Str("file", path).Str("stdout", stdout.String()).Msg("format hook ran")
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("format hook (exit %d): %w", ExitCode(err), err)
		}
		return fmt.Errorf("format hook (exit %d): %s", ExitCode(err), msg)
	}
	return nil
}
