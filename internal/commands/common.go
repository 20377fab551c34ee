// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/hay-kot/stencil/internal/core"
)

// Globals is the state shared by every command. Flags are bound by the root
// command and Logger is built from them before any command action runs.
type Globals struct {
	Flags  core.Flags
	Logger zerolog.Logger
}

// NewGlobals returns globals with a silent logger until flags are parsed.
func NewGlobals() *Globals {
	return &Globals{Logger: zerolog.Nop()}
}

// Setup builds the logger from the parsed flags.
func (g *Globals) Setup() error {
	level, err := g.Flags.Level()
	if err != nil {
		return err
	}

	g.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	g.Logger.Debug().
		Str("log-level", level.String()).
		Str("config", g.Flags.ConfigDir).
		Msg("global flags")

	return nil
}

func (g *Globals) loadConfig() (*core.ConfigFile, error) {
	root := g.Flags.ConfigRoot()
	g.Logger.Trace().Str("root", root).Msg("using configuration directory")

	cfg, err := core.Load(root)
	if err != nil {
		return nil, err
	}

	g.Logger.Debug().
		Str("path", cfg.Path).
		Int("files", len(cfg.Files)).
		Int("sets", len(cfg.Sets)).
		Msg("loaded configuration")

	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	bracketStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// createStyledHeader renders `-- [LABEL] name ------` across the terminal.
func createStyledHeader(label, name string, width int) string {
	left := fmt.Sprintf("%s %s%s%s %s ",
		dividerStyle.Render("--"),
		bracketStyle.Render("["),
		labelStyle.Render(label),
		bracketStyle.Render("]"),
		nameStyle.Render(name),
	)

	visible := 4 + len(label) + len(name) + 4
	return left + dividerStyle.Render(strings.Repeat("-", max(width-visible, 0)))
}
