package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/cppref/internal/command"
	"github.com/xonecas/cppref/internal/config"
	"github.com/xonecas/cppref/internal/delta"
	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/lsp"
	"github.com/xonecas/cppref/internal/shell"
	"github.com/xonecas/cppref/internal/source"
	"github.com/xonecas/cppref/internal/store"
	"github.com/xonecas/cppref/internal/treesitter"
)

// app is the state shared by one invocation.
type app struct {
	flags *globalFlags
	p     *printer
	cfg   *config.Config
	root  string
	docs  *source.Documents
	nav   source.Navigator
	close func()
}

func newApp(ctx context.Context, flags *globalFlags, p *printer) (*app, error) {
	cfg, root, err := loadConfig(flags, p)
	if err != nil {
		return nil, err
	}
	a := &app{flags: flags, p: p, cfg: cfg, root: root, docs: source.NewDocuments(), close: func() {}}

	switch cfg.LSP.BackendOrDefault() {
	case config.BackendTreeSitter:
		a.nav = treesitter.NewNavigator(a.docs, treesitter.NewIndex(root, cfg.LSP.Exclude))
	default:
		mgr := lsp.NewManager(cfg.LSP.Command, cfg.LSP.Args, root)
		a.nav = lsp.NewNavigator(a.docs, mgr)
		a.close = func() { mgr.StopAll(context.WithoutCancel(ctx)) }
	}
	return a, nil
}

func (a *app) journal() (*delta.Journal, func(), error) {
	path, err := a.cfg.UndoPath()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(path, a.cfg.Undo.Keep)
	if err != nil {
		return nil, nil, err
	}
	return delta.New(db), func() { db.Close() }, nil
}

// finish previews or applies the result of a command.
func (a *app) finish(ctx context.Context, res *command.Result) error {
	if res.Plan.Empty() {
		a.p.Note(res.Status)
		return nil
	}
	if a.flags.dryRun {
		changes, err := res.Changes()
		if err != nil {
			return err
		}
		a.p.Diff(edit.Preview(a.root, changes))
		return nil
	}

	j, closeDB, err := a.journal()
	if err != nil {
		return err
	}
	defer closeDB()

	x := &edit.Executor{Journal: j, Formatter: shell.NewFormatHook(a.root, a.cfg.Hooks.Format)}
	changes, err := res.Apply(ctx, x)
	if err != nil {
		return err
	}
	log.Info().Str("command", res.Plan.Name).Int("files", len(changes)).Msg("plan applied")
	a.p.Status(res.Status)
	return nil
}

type cursorFunc func(s *command.Session, ctx context.Context, loc document.Location) (*command.Result, error)

// cursorCmd builds a subcommand that runs fn at FILE LINE COL.
func cursorCmd(use, short string, flags *globalFlags, p *printer, fn cursorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " FILE LINE COL",
		Short: short,
		Long:  short + ".\n\nLINE and COL are 1-based; COL counts bytes.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), flags, p, args, fn)
		},
	}
}

func generate(ctx context.Context, flags *globalFlags, p *printer, args []string, fn cursorFunc) error {
	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	a, err := newApp(ctx, flags, p)
	if err != nil {
		return err
	}
	defer a.close()

	opts, err := command.Options(a.cfg)
	if err != nil {
		return err
	}
	s := command.New(a.nav, a.docs, opts)
	res, err := fn(s, ctx, command.Cursor(args[0], pos))
	if err != nil {
		return err
	}
	return a.finish(ctx, res)
}

func parsePosition(line, col string) (document.Position, error) {
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return document.Position{}, fmt.Errorf("invalid line %q", line)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return document.Position{}, fmt.Errorf("invalid column %q", col)
	}
	return document.Position{Line: l - 1, Col: c - 1}, nil
}

func newImplementCmd(flags *globalFlags, p *printer) *cobra.Command {
	return cursorCmd("implement", "Declare and stub the unimplemented virtual methods of the class at the cursor",
		flags, p, (*command.Session).ImplementInterface)
}

func newDefineCmd(flags *globalFlags, p *printer) *cobra.Command {
	return cursorCmd("define", "Add an empty definition of the function declared at the cursor to the paired source",
		flags, p, (*command.Session).DefineStub)
}

func newMoveCmd(flags *globalFlags, p *printer) *cobra.Command {
	return cursorCmd("move", "Move the in-class definition at the cursor to the paired source",
		flags, p, (*command.Session).MoveDefinition)
}

func newChangeDeclCmd(flags *globalFlags, p *printer) *cobra.Command {
	var signature string
	cmd := cursorCmd("change-decl", "Rewrite the declaration at the cursor and its definition header",
		flags, p, func(s *command.Session, ctx context.Context, loc document.Location) (*command.Result, error) {
			return s.ChangeDeclaration(ctx, loc, signature)
		})
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "new declaration header, e.g. \"int resize(int w, int h)\"")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func newOutlineCmd(flags *globalFlags, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the classes and namespaces of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, p)
			if err != nil {
				return err
			}
			defer a.close()
			text, err := command.Outline(cmd.Context(), a.nav, args[0], a.root)
			if err != nil {
				return err
			}
			p.Plain(text)
			return nil
		},
	}
}

func newNewPairCmd(flags *globalFlags, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "new-pair DIR NAME",
		Short: "Create NAME.h and NAME.cpp in DIR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, p)
			if err != nil {
				return err
			}
			defer a.close()
			res, err := command.NewPair(a.docs, args[0], args[1])
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
}

func newUndoCmd(flags *globalFlags, p *printer) *cobra.Command {
	var list int
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recently applied command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags, p)
			if err != nil {
				return err
			}
			a := &app{flags: flags, p: p, cfg: cfg}
			j, closeDB, err := a.journal()
			if err != nil {
				return err
			}
			defer closeDB()

			if list > 0 {
				cmds, err := j.History(list)
				if err != nil {
					return err
				}
				if len(cmds) == 0 {
					p.Note("Nothing to undo")
				}
				for _, c := range cmds {
					p.Plain(fmt.Sprintf("%s  %-20s %d file(s)\n", c.Created.Local().Format("2006-01-02 15:04:05"), c.Name, c.Files))
				}
				return nil
			}

			status, err := command.Undo(j)
			if err != nil {
				return err
			}
			p.Status(status)
			return nil
		},
	}
	cmd.Flags().IntVar(&list, "list", 0, "list the N most recent commands instead of undoing")
	return cmd
}
