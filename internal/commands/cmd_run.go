package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/stencil/internal/backup"
	"github.com/hay-kot/stencil/internal/core"
	"github.com/hay-kot/stencil/internal/generator"
	"github.com/hay-kot/stencil/pkgs/printer"
	"github.com/hay-kot/stencil/pkgs/styles"
)

type RunCmd struct {
	globals *Globals
	flags   struct {
		Filter   string
		Jobs     int
		NoBackup bool
		DryRun   bool
	}
}

func NewRunCmd(globals *Globals) *RunCmd {
	return &RunCmd{globals: globals}
}

func (rc *RunCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "run",
		Usage:     "render every templated file with a replacement set",
		ArgsUsage: "[set]",
		Description: `Renders the templates declared in config.toml, replacing each token with the
value from the chosen replacement set, and writes the results to their output paths.

When no set is given and stdin is a terminal, the set is chosen interactively.

Files whose whitelist does not name the set are skipped, as are files without a
whitelist when the set is whitelist-only. Existing outputs are copied into the
backup directory of the config root first unless backup = false or --no-backup.

A file that fails (unreadable template, unknown key, unwritable output) is left
untouched and the remaining files are still rendered.

Examples:
	stencil run home
	stencil run work --filter 'path contains "nvim"'
	stencil run work --filter '+work'          # only files that whitelist work
	stencil run home --dry-run

Filter variables:
	- path:      output path as declared
	- template:  template path relative to the config root
	- whitelist: array of set names
	- index:     position of the file in the config`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "only render files matching this expression",
				Destination: &rc.flags.Filter,
			},
			&cli.IntFlag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "number of files to render concurrently",
				Value:       1,
				Destination: &rc.flags.Jobs,
			},
			&cli.BoolFlag{
				Name:        "no-backup",
				Usage:       "do not back up existing outputs",
				Destination: &rc.flags.NoBackup,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Aliases:     []string{"n"},
				Usage:       "render in memory and report without writing anything",
				Destination: &rc.flags.DryRun,
			},
		},
		Action: rc.run,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (rc *RunCmd) run(ctx context.Context, c *cli.Command) error {
	l := rc.globals.Logger

	cfg, err := rc.globals.loadConfig()
	if err != nil {
		return err
	}

	name := c.Args().First()
	if name == "" {
		name, err = rc.pickSet(cfg)
		if err != nil {
			return err
		}
	}

	set, err := cfg.ResolveSet(l, name)
	if err != nil {
		return err
	}

	filter, err := newFilter(rc.flags.Filter)
	if err != nil {
		return err
	}

	l.Debug().
		Str("set", set.Name).
		Bool("whitelist-only", set.WhitelistOnly).
		Str("filter", rc.flags.Filter).
		Int("jobs", rc.flags.Jobs).
		Bool("dry-run", rc.flags.DryRun).
		Msg("run cmd")

	if cfg.Backup && !rc.flags.NoBackup && !rc.flags.DryRun {
		if err := rc.backup(cfg); err != nil {
			return err
		}
	}

	gen, err := generator.New(cfg, set, l, generator.Options{
		Jobs:   rc.flags.Jobs,
		DryRun: rc.flags.DryRun,
		Filter: filter,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := gen.Run(ctx)

	if rc.flags.DryRun || rc.globals.Flags.Verbose {
		rc.report(ctx, set.Name, results)
	}

	failed := 0
	for _, r := range results {
		if r.Status == generator.StatusFailed {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to render with set `%s`", failed, len(results), set.Name)
	}

	return nil
}

// pickSet asks for a set when running interactively.
func (rc *RunCmd) pickSet(cfg *core.ConfigFile) (string, error) {
	names := cfg.SetNames()

	if len(names) == 0 || !isTerminal(os.Stdin) {
		return "", &core.Error{Kind: core.KindSetNotFound, Available: names}
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a replacement set").
				Options(huh.NewOptions(names...)...).
				Value(&choice),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("no set selected")
		}
		return "", err
	}

	return choice, nil
}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

func (rc *RunCmd) backup(cfg *core.ConfigFile) error {
	var (
		report backup.Report
		err    error
	)

	action := func() {
		report, err = backup.Config(rc.globals.Logger, cfg)
	}

	if rc.globals.Flags.Quiet || !isTerminal(os.Stdout) {
		action()
	} else {
		spin := spinner.New().
			Type(spinner.Line).
			Style(spinnerStyle).
			Title(" Backing up outputs").
			Action(action)

		if serr := spin.Run(); serr != nil {
			rc.globals.Logger.Debug().Err(serr).Msg("spinner failed")
		}
	}

	if err != nil {
		return err
	}

	rc.globals.Logger.Debug().
		Int("copied", len(report.Copied)).
		Int("missing", len(report.Missing)).
		Str("dir", cfg.BackupDir()).
		Msg("backup complete")

	return nil
}

func (rc *RunCmd) report(ctx context.Context, setName string, results []generator.Result) {
	p := printer.Ctx(ctx)

	items := make([]printer.StatusListItem, 0, len(results))
	for _, r := range results {
		item := printer.StatusListItem{
			Ok:     r.Status != generator.StatusFailed,
			Status: fmt.Sprintf("%-8s %s", r.Status, styles.Path(r.Output)),
		}

		switch r.Status {
		case generator.StatusSkipped:
			item.Detail = r.Reason
		case generator.StatusFailed:
			item.Detail = r.Err.Error()
		default:
			item.Detail = fmt.Sprintf("%s %s", styles.Arrow, r.Template)
		}

		items = append(items, item)
	}

	p.Title(createStyledHeader("SET", setName, terminalWidth()))
	p.StatusList("Files", items)

	for _, r := range results {
		var te *generator.TokenError
		if errors.As(r.Err, &te) {
			p.LineBreak()
			p.FatalError(te)
		}
	}
}
