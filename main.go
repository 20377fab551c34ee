package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/hay-kot/stencil/internal/commands"
	"github.com/hay-kot/stencil/pkgs/printer"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "v1.0.0-develop"
	commit  = "HEAD"
	date    = time.Now().Format(time.DateTime)
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	var (
		ctx     = context.Background()
		writer  = printer.NewDeferredWriter(os.Stdout)
		globals = commands.NewGlobals()
	)

	ctx = printer.WithWriter(ctx, writer)
	printer.ConsolePrinter = printer.Ctx(ctx)

	app := commands.NewApp(globals, build())

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		if !globals.Flags.Quiet {
			tty := term.IsTerminal(int(os.Stdout.Fd()))
			printer.Ctx(ctx).Report(err, tty, os.Stderr)
		}
		exitCode = 1
	}

	if err := writer.Flush(); err != nil {
		panic(err)
	}
	os.Exit(exitCode)
}
