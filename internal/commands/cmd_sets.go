package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/stencil/pkgs/printer"
)

const secretMask = "********"

type SetsCmd struct {
	globals *Globals
	reveal  bool
}

func NewSetsCmd(globals *Globals) *SetsCmd {
	return &SetsCmd{globals: globals}
}

func (sc *SetsCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:   "list-sets",
			Usage:  "list the replacement sets in the current config",
			Action: sc.list,
		},
		{
			Name:      "show",
			Usage:     "print the entries of a replacement set",
			ArgsUsage: "<set>",
			Description: `Prints every key and replacement value of a set, including entries loaded
from its secrets file. Secret values are masked unless --reveal is given.`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "reveal",
					Usage:       "print secret values instead of masking them",
					Destination: &sc.reveal,
				},
			},
			Action: sc.show,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (sc *SetsCmd) list(ctx context.Context, c *cli.Command) error {
	cfg, err := sc.globals.loadConfig()
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Lines(cfg.SetNames())
	return nil
}

func (sc *SetsCmd) show(ctx context.Context, c *cli.Command) error {
	cfg, err := sc.globals.loadConfig()
	if err != nil {
		return err
	}

	set, err := cfg.ResolveSet(sc.globals.Logger, c.Args().First())
	if err != nil {
		return err
	}

	items := make([]printer.KeyValue, 0, len(set.Entries))
	for _, k := range set.Keys() {
		v := set.Entries[k]
		if !sc.reveal && slices.Contains(set.SecretKeys, k) {
			v = secretMask
		}
		items = append(items, printer.KeyValue{Key: k, Value: v})
	}

	title := fmt.Sprintf("set %s", set.Name)
	if set.WhitelistOnly {
		title += " (whitelist-only)"
	}

	printer.Ctx(ctx).KeyValues(title, items)
	return nil
}
