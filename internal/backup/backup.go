// Package backup copies existing output files into the config root before
// they are overwritten.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hay-kot/stencil/internal/core"
)

// Separator joins the segments of a flattened path.
const Separator = "."

// Copy is a single backed up file.
type Copy struct {
	Source string
	Dest   string
}

// Report lists what BackupAll did. Missing holds outputs that did not exist
// yet, which is the normal state on a first run.
type Report struct {
	Copied  []Copy
	Missing []string
}

// EnsureDir creates dir if needed. An existing directory is not an error.
func EnsureDir(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrExist) {
		info, serr := os.Stat(dir)
		if serr == nil && info.IsDir() {
			return nil
		}
	}

	return &core.Error{Kind: core.KindBackupDirCreate, Path: dir, Err: err}
}

// FlattenPath turns an absolute path into a single file name by joining its
// segments with Separator, e.g. /home/ada/.gitconfig -> home.ada..gitconfig.
func FlattenPath(abs string) string {
	abs = filepath.Clean(abs)
	abs = strings.TrimPrefix(abs, filepath.VolumeName(abs))
	abs = strings.TrimLeft(abs, string(filepath.Separator))

	return strings.Join(strings.Split(abs, string(filepath.Separator)), Separator)
}

// BackupAll copies every existing output into dir, replacing earlier copies.
// Outputs that do not exist are recorded in the report and skipped. Any other
// failure stops the backup so no output is overwritten without a copy.
func BackupAll(l zerolog.Logger, dir string, outputs []string) (Report, error) {
	var report Report

	if err := EnsureDir(dir); err != nil {
		return report, err
	}

	for _, out := range outputs {
		src, err := canonical(out)
		if errors.Is(err, fs.ErrNotExist) {
			l.Debug().Str("output", out).Msg("nothing to back up")
			report.Missing = append(report.Missing, out)
			continue
		}
		if err != nil {
			return report, &core.Error{Kind: core.KindBackupCopy, Path: out, Err: err}
		}

		dest := filepath.Join(dir, FlattenPath(src))

		l.Trace().Str("output", out).Str("backup", dest).Msg("backing up")

		if err := copyFile(src, dest); err != nil {
			return report, &core.Error{Kind: core.KindBackupCopy, Path: out, Err: err}
		}

		report.Copied = append(report.Copied, Copy{Source: src, Dest: dest})
	}

	return report, nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", resolved)
	}

	return resolved, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// Config backs up the outputs of every file declared in cfg, whitelisted for
// the current set or not, into cfg's backup directory.
func Config(l zerolog.Logger, cfg *core.ConfigFile) (Report, error) {
	paths := cfg.Resolver()

	outputs := make([]string, 0, len(cfg.Files))
	for _, f := range cfg.Files {
		out, err := paths.Output(f.Output)
		if err != nil {
			return Report{}, &core.Error{Kind: core.KindBackupCopy, Path: f.Output, Err: err}
		}
		outputs = append(outputs, out)
	}

	return BackupAll(l, cfg.BackupDir(), outputs)
}
