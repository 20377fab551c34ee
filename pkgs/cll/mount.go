// Package cll holds small helpers for composing urfave/cli/v3 applications.
package cll

import "github.com/urfave/cli/v3"

// Registerable is a command (or group of commands) that attaches itself to a
// root command.
type Registerable interface {
	Register(*cli.Command) *cli.Command
}

// Register applies each Registerable to root in order.
func Register(root *cli.Command, subs ...Registerable) *cli.Command {
	for _, s := range subs {
		root = s.Register(root)
	}

	return root
}

// EnvWithPrefix returns a constructor for env-var sources that share a prefix,
// so env("CONFIG") reads PREFIX_CONFIG.
func EnvWithPrefix(prefix string) func(strs ...string) cli.ValueSourceChain {
	return func(strs ...string) cli.ValueSourceChain {
		withPrefix := make([]string, len(strs))
		for i, str := range strs {
			withPrefix[i] = prefix + str
		}

		return cli.EnvVars(withPrefix...)
	}
}

// Names returns the names of the direct subcommands of root.
func Names(root *cli.Command) []string {
	names := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	return names
}
