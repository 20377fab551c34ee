package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/stencil/internal/generator"
	"github.com/hay-kot/stencil/pkgs/printer"
)

type CheckCmd struct {
	globals *Globals
}

func NewCheckCmd(globals *Globals) *CheckCmd {
	return &CheckCmd{globals: globals}
}

func (cc *CheckCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "check",
		Usage:     "validate the config and report unresolved keys",
		ArgsUsage: "[set...]",
		Description: `Loads and validates the configuration, then reads every template each set may
render and lists all keys the set does not define. Nothing is written.

With no arguments every declared set is checked.`,
		Action: cc.check,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (cc *CheckCmd) check(ctx context.Context, c *cli.Command) error {
	l := cc.globals.Logger

	cfg, err := cc.globals.loadConfig()
	if err != nil {
		return err
	}

	names := c.Args().Slice()
	if len(names) == 0 {
		names = cfg.SetNames()
	}

	p := printer.Ctx(ctx)
	problems := 0

	for _, name := range names {
		set, err := cfg.ResolveSet(l, name)
		if err != nil {
			return err
		}

		gen, err := generator.New(cfg, set, l, generator.Options{})
		if err != nil {
			return err
		}

		issues := gen.Check()
		problems += len(issues)

		items := make([]printer.StatusListItem, 0, len(issues))
		for _, is := range issues {
			item := printer.StatusListItem{Status: is.File.Output}
			if is.Err != nil {
				item.Detail = is.Err.Error()
			} else {
				item.Detail = "missing: " + strings.Join(is.Missing, ", ")
			}
			items = append(items, item)
		}

		if len(items) == 0 {
			items = append(items, printer.StatusListItem{Ok: true, Status: "all keys resolved"})
		}

		p.StatusList("set "+name, items)
	}

	if problems > 0 {
		return fmt.Errorf("check found %d problem(s)", problems)
	}

	return nil
}
