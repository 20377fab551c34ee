package core

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

// AppName names the XDG config directory used when no root is given.
const AppName = "stencil"

// Flags are the global CLI flags shared by every command.
type Flags struct {
	LogLevel  string
	ConfigDir string
	Quiet     bool
	Verbose   bool
}

// Level resolves the logging level. Higher verbosity prints more: --quiet
// disables output, the default shows warnings, --verbose shows everything.
// An explicit --log-level takes precedence over both.
func (f Flags) Level() (zerolog.Level, error) {
	if f.Quiet && f.Verbose {
		return zerolog.NoLevel, errors.New("--quiet and --verbose cannot be used together")
	}

	if f.LogLevel != "" {
		return zerolog.ParseLevel(f.LogLevel)
	}

	switch {
	case f.Quiet:
		return zerolog.Disabled, nil
	case f.Verbose:
		return zerolog.TraceLevel, nil
	default:
		return zerolog.WarnLevel, nil
	}
}

// ConfigRoot returns the config root to load. An explicit directory always
// wins; otherwise the working directory is used when it holds a config file,
// falling back to $XDG_CONFIG_HOME/stencil.
func (f Flags) ConfigRoot() string {
	if f.ConfigDir != "" {
		return f.ConfigDir
	}

	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return "."
		}
	}

	return filepath.Join(xdg.ConfigHome, AppName)
}
