package core

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

const (
	// EnvPrefix namespaces every environment variable read by the CLI.
	EnvPrefix = "STENCIL_"

	// KeyWhitelistOnly is the only reserved key inside a set table.
	KeyWhitelistOnly = "whitelist-only"
)

// ConfigFileNames are the file names searched in a config root, in order.
var ConfigFileNames = []string{"config.toml", "config.yaml", "config.yml"}

// ConfigFile is the parsed, validated configuration of a config root. It is
// not modified after Load returns.
type ConfigFile struct {
	Root string // absolute config root
	Path string // config file that was loaded

	Before string
	After  string
	Backup bool

	Files []TemplatedFile
	Sets  map[string]ReplacementSet

	Age     Age
	Secrets map[string]string // set name -> secrets file, relative to Root
}

// TemplatedFile declares one template and the path it renders to.
type TemplatedFile struct {
	Output    string   `toml:"path" yaml:"path"`
	Template  string   `toml:"template" yaml:"template"`
	Whitelist []string `toml:"whitelist" yaml:"whitelist"`
}

// HasWhitelist reports whether the file restricts which sets may render it.
// A declared but empty list is a whitelist that permits no set.
func (f TemplatedFile) HasWhitelist() bool {
	return f.Whitelist != nil
}

// Eligible decides whether set may render f. When it may not, reason says why.
func (f TemplatedFile) Eligible(set ReplacementSet) (ok bool, reason string) {
	if f.HasWhitelist() {
		if slices.Contains(f.Whitelist, set.Name) {
			return true, ""
		}
		return false, fmt.Sprintf("set `%s` is not whitelisted for file `%s`", set.Name, f.Output)
	}

	if set.WhitelistOnly {
		return false, fmt.Sprintf("set `%s` requires whitelist only, but `%s` does not specify a whitelist", set.Name, f.Output)
	}

	return true, ""
}

// ReplacementSet is a named key -> replacement table.
type ReplacementSet struct {
	Name          string
	WhitelistOnly bool
	Entries       map[string]string

	// SecretKeys lists the entries that came from an encrypted secrets file.
	SecretKeys []string
}

// Lookup returns the replacement for key. Keys are matched exactly.
func (s ReplacementSet) Lookup(key string) (string, bool) {
	v, ok := s.Entries[key]
	return v, ok
}

// Keys returns the entry keys in sorted order.
func (s ReplacementSet) Keys() []string {
	return slices.Sorted(maps.Keys(s.Entries))
}

// rawConfig mirrors the on-disk schema before sets are split into their
// reserved flag and replacement entries.
type rawConfig struct {
	Before  *string                   `toml:"template-before" yaml:"template-before"`
	After   *string                   `toml:"template-after" yaml:"template-after"`
	Backup  *bool                     `toml:"backup" yaml:"backup"`
	Files   []TemplatedFile           `toml:"file" yaml:"file"`
	Sets    map[string]map[string]any `toml:"set" yaml:"set"`
	Age     Age                       `toml:"age" yaml:"age"`
	Secrets map[string]string         `toml:"secrets" yaml:"secrets"`
}

// FindConfigFile returns the config file inside root, or an error wrapping
// fs.ErrNotExist when root holds none.
func FindConfigFile(root string) (string, error) {
	for _, name := range ConfigFileNames {
		p := filepath.Join(root, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}

	return filepath.Join(root, ConfigFileNames[0]), fmt.Errorf("no %s in %s: %w", ConfigFileNames[0], root, fs.ErrNotExist)
}

// Load reads and validates the configuration found in root.
func Load(root string) (*ConfigFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Kind: KindConfigLoad, Path: root, Err: err}
	}

	path, err := FindConfigFile(absRoot)
	if err != nil {
		return nil, &Error{Kind: KindConfigLoad, Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindConfigLoad, Path: path, Err: err}
	}

	var raw rawConfig
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = decodeYAML(path, data, &raw)
	default:
		err = decodeTOML(path, data, &raw)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := raw.build(absRoot, path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeTOML(path string, data []byte, raw *rawConfig) error {
	err := toml.Unmarshal(data, raw)
	if err == nil {
		return nil
	}

	perr := &Error{Kind: KindConfigParse, Path: path, Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
		perr.Err = errors.New(derr.String())
	}

	return perr
}

func decodeYAML(path string, data []byte, raw *rawConfig) error {
	err := yaml.Unmarshal(data, raw)
	if err == nil {
		return nil
	}

	return &Error{
		Kind: KindConfigParse,
		Path: path,
		Err:  errors.New(yaml.FormatError(err, false, true)),
	}
}

func (raw rawConfig) build(root, path string) (*ConfigFile, error) {
	parseErr := func(format string, args ...any) error {
		return &Error{Kind: KindConfigParse, Path: path, Err: fmt.Errorf(format, args...)}
	}

	if raw.Before == nil {
		return nil, parseErr("missing field `template-before`")
	}
	if raw.After == nil {
		return nil, parseErr("missing field `template-after`")
	}

	cfg := &ConfigFile{
		Root:    root,
		Path:    path,
		Before:  *raw.Before,
		After:   *raw.After,
		Backup:  true,
		Files:   raw.Files,
		Sets:    make(map[string]ReplacementSet, len(raw.Sets)),
		Age:     raw.Age,
		Secrets: raw.Secrets,
	}

	if raw.Backup != nil {
		cfg.Backup = *raw.Backup
	}

	if cfg.Age.IdentityFile != "" {
		id, err := cfg.Resolver().Resolve(cfg.Age.IdentityFile)
		if err != nil {
			return nil, &Error{Kind: KindConfigLoad, Path: cfg.Age.IdentityFile, Err: err}
		}
		cfg.Age.IdentityFile = id
	}

	for name, table := range raw.Sets {
		set := ReplacementSet{
			Name:    name,
			Entries: make(map[string]string, len(table)),
		}

		for k, v := range table {
			if k == KeyWhitelistOnly {
				b, ok := v.(bool)
				if !ok {
					return nil, parseErr("set `%s`: `%s` must be a boolean, got %T", name, k, v)
				}
				set.WhitelistOnly = b
				continue
			}

			s, ok := v.(string)
			if !ok {
				return nil, parseErr("set `%s`: value for key `%s` must be a string, got %T", name, k, v)
			}
			set.Entries[k] = s
		}

		cfg.Sets[name] = set
	}

	return cfg, nil
}

// Validate checks the structural shape of the configuration and that every
// set referenced by a whitelist or secrets entry is declared.
func (c *ConfigFile) Validate() error {
	var errs []error

	for i, f := range c.Files {
		if f.Output == "" {
			errs = append(errs, fmt.Errorf("file #%d: missing field `path`", i+1))
		}
		if f.Template == "" {
			errs = append(errs, fmt.Errorf("file #%d: missing field `template`", i+1))
		}
		for _, name := range f.Whitelist {
			if _, ok := c.Sets[name]; !ok {
				errs = append(errs, fmt.Errorf("file `%s`: whitelist references undeclared set `%s`", f.Output, name))
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.Secrets)) {
		if _, ok := c.Sets[name]; !ok {
			errs = append(errs, fmt.Errorf("secrets: undeclared set `%s`", name))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return &Error{Kind: KindConfigParse, Path: c.Path, Err: errors.Join(errs...)}
}

// SetNames returns the declared set names in sorted order.
func (c *ConfigFile) SetNames() []string {
	return slices.Sorted(maps.Keys(c.Sets))
}

// Set returns the named set without any secrets merged in.
func (c *ConfigFile) Set(name string) (ReplacementSet, error) {
	set, ok := c.Sets[name]
	if !ok {
		return ReplacementSet{}, &Error{Kind: KindSetNotFound, Set: name, Available: c.SetNames()}
	}
	return set, nil
}

// BackupDir is where copies of existing outputs are stored.
func (c *ConfigFile) BackupDir() string {
	return filepath.Join(c.Root, "backup")
}

// Resolver returns a PathResolver rooted at the config root.
func (c *ConfigFile) Resolver() PathResolver {
	return NewPathResolver(c.Root)
}
