package core

import (
	"os"
	"path/filepath"
	"strings"
)

// PathResolver maps the paths declared in a config file onto the filesystem.
// Template paths are rooted at the config directory; output paths are taken
// as given (absolute or relative to the working directory) with only '~'
// expanded.
type PathResolver struct {
	configDir string // config directory used to set relative template roots
}

func NewPathResolver(configDir string) PathResolver {
	return PathResolver{configDir: configDir}
}

// Template resolves a template path declared relative to the config root.
func (pr PathResolver) Template(rel string) string {
	if filepath.IsAbs(rel) || pr.configDir == "" {
		return filepath.Clean(rel)
	}
	return filepath.Join(pr.configDir, rel)
}

// Output resolves an output path field. It is independent of the config root.
func (pr PathResolver) Output(p string) (string, error) {
	p, err := expandHome(p)
	if err != nil {
		return "", err
	}
	return filepath.Clean(p), nil
}

// Resolve turns a path into an absolute one, expanding '~' and rooting
// relative paths at the config directory when one is set.
func (pr PathResolver) Resolve(ip string) (string, error) {
	ip, err := expandHome(ip)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(ip) {
		return filepath.Clean(ip), nil
	}

	if pr.configDir != "" {
		return filepath.Join(pr.configDir, ip), nil
	}

	return filepath.Abs(ip)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, strings.TrimPrefix(p, "~")), nil
}
