package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of a stencil failure so callers can branch on it
// without parsing message text.
type Kind string

const (
	KindConfigLoad      Kind = "config-load"
	KindConfigParse     Kind = "config-parse"
	KindSetNotFound     Kind = "set-not-found"
	KindTemplateRead    Kind = "template-read"
	KindKeyUnresolved   Kind = "key-unresolved"
	KindOutputWrite     Kind = "output-write"
	KindBackupDirCreate Kind = "backup-dir-create"
	KindBackupCopy      Kind = "backup-copy"
)

// Fatal reports whether a failure of this kind aborts the whole run. All other
// kinds are local to a single templated file.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfigLoad, KindConfigParse, KindSetNotFound, KindBackupDirCreate, KindBackupCopy:
		return true
	default:
		return false
	}
}

// Kinded is implemented by every structured error produced by stencil.
type Kinded interface {
	error
	ErrorKind() Kind
}

// KindOf returns the kind of the first structured error in err's chain.
func KindOf(err error) (Kind, bool) {
	var k Kinded
	if errors.As(err, &k) {
		return k.ErrorKind(), true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Error is the structured error used across the config, backup and output
// layers. Only the fields relevant to Kind are populated.
type Error struct {
	Kind Kind
	Path string
	Set  string
	Key  string

	// Line and Column locate config parse errors when the decoder reports them.
	Line   int
	Column int

	// Available lists the declared set names for KindSetNotFound.
	Available []string

	Err error
}

func (e *Error) ErrorKind() Kind { return e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Error() string {
	var msg string

	switch e.Kind {
	case KindConfigLoad:
		msg = fmt.Sprintf("failed to load configuration `%s`", e.Path)
	case KindConfigParse:
		switch {
		case e.Line > 0 && e.Column > 0:
			msg = fmt.Sprintf("error in configuration file `%s` at line %d, col %d", e.Path, e.Line, e.Column)
		case e.Line > 0:
			msg = fmt.Sprintf("error in configuration file `%s` at line %d", e.Path, e.Line)
		default:
			msg = fmt.Sprintf("error in configuration file `%s`", e.Path)
		}
	case KindSetNotFound:
		if e.Set == "" {
			return fmt.Sprintf("no set given\nthe available sets are: %s", strings.Join(e.Available, ", "))
		}
		return fmt.Sprintf("set `%s` not defined in config\nthe available sets are: %s",
			e.Set, strings.Join(e.Available, ", "))
	case KindTemplateRead:
		msg = fmt.Sprintf("failed to read template `%s`", e.Path)
	case KindKeyUnresolved:
		return fmt.Sprintf("in file `%s`: could not find key `%s` in set `%s`", e.Path, e.Key, e.Set)
	case KindOutputWrite:
		msg = fmt.Sprintf("failed to write output `%s`", e.Path)
	case KindBackupDirCreate:
		msg = fmt.Sprintf("failed to create backup directory `%s`", e.Path)
	case KindBackupCopy:
		msg = fmt.Sprintf("failed to back up `%s`", e.Path)
	default:
		msg = string(e.Kind)
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}
