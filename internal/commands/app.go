package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/stencil/internal/core"
	"github.com/hay-kot/stencil/pkgs/cll"
)

var envvars = cll.EnvWithPrefix(core.EnvPrefix)

// NewApp builds the root command with every subcommand registered.
func NewApp(g *Globals, version string) *cli.Command {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "stencil",
		Usage:                 "System-wide templater: render template files with named replacement sets",
		Version:               version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path of the configuration directory (default: . or $XDG_CONFIG_HOME/stencil)",
				Sources:     envvars("CONFIG"),
				Destination: &g.Flags.ConfigDir,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "set the logging verbosity level explicitly",
				Sources:     envvars("LOG_LEVEL"),
				Destination: &g.Flags.LogLevel,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "suppress output",
				Destination: &g.Flags.Quiet,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "verbose output",
				Destination: &g.Flags.Verbose,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := g.Setup(); err != nil {
				return ctx, fmt.Errorf("failed to set up logging: %w", err)
			}
			return ctx, nil
		},
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return err
		},
	}

	return cll.Register(app,
		NewRunCmd(g),
		NewSetsCmd(g),
		NewCheckCmd(g),
		NewEncryptCmd(g),
	)
}
