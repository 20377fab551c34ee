package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `template-before = "{{"
template-after = "}}"

[[file]]
path = "out/gitconfig"
template = "templates/gitconfig"

[[file]]
path = "out/work.env"
template = "templates/work.env"
whitelist = ["work"]

[set.home]
name = "Ada"
email = "ada@home"

[set.work]
whitelist-only = true
name = "Ada Lovelace"
email = "ada@work"
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	return root
}

func TestLoad_TOML(t *testing.T) {
	root := writeConfig(t, "config.toml", sampleTOML)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "{{", cfg.Before)
	assert.Equal(t, "}}", cfg.After)
	assert.True(t, cfg.Backup, "backup defaults to true")
	assert.Equal(t, filepath.Join(root, "config.toml"), cfg.Path)

	require.Len(t, cfg.Files, 2)
	assert.Equal(t, "out/gitconfig", cfg.Files[0].Output)
	assert.Equal(t, "templates/gitconfig", cfg.Files[0].Template)
	assert.False(t, cfg.Files[0].HasWhitelist())
	assert.Equal(t, []string{"work"}, cfg.Files[1].Whitelist)

	assert.Equal(t, []string{"home", "work"}, cfg.SetNames())

	work := cfg.Sets["work"]
	assert.True(t, work.WhitelistOnly)
	assert.Equal(t, map[string]string{"name": "Ada Lovelace", "email": "ada@work"}, work.Entries)
	_, reserved := work.Lookup(KeyWhitelistOnly)
	assert.False(t, reserved, "whitelist-only must not leak into entries")

	assert.False(t, cfg.Sets["home"].WhitelistOnly)
}

func TestLoad_YAML(t *testing.T) {
	body := `template-before: "<%"
template-after: "%>"
backup: false
file:
  - path: out/a
    template: a.tmpl
set:
  home:
    user: ada
`
	root := writeConfig(t, "config.yaml", body)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "<%", cfg.Before)
	assert.Equal(t, "%>", cfg.After)
	assert.False(t, cfg.Backup)
	assert.Equal(t, map[string]string{"user": "ada"}, cfg.Sets["home"].Entries)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind Kind
		wantLine bool
	}{
		{
			name:     "syntax error reports position",
			body:     "template-before = \"{{\"\ntemplate-after = \n",
			wantKind: KindConfigParse,
			wantLine: true,
		},
		{
			name:     "missing delimiter",
			body:     "template-before = \"{{\"\n",
			wantKind: KindConfigParse,
		},
		{
			name:     "non string entry",
			body:     "template-before = \"{{\"\ntemplate-after = \"}}\"\n[set.home]\nage = 36\n",
			wantKind: KindConfigParse,
		},
		{
			name:     "non bool whitelist-only",
			body:     "template-before = \"{{\"\ntemplate-after = \"}}\"\n[set.home]\nwhitelist-only = \"yes\"\n",
			wantKind: KindConfigParse,
		},
		{
			name: "whitelist names undeclared set",
			body: "template-before = \"{{\"\ntemplate-after = \"}}\"\n" +
				"[[file]]\npath = \"o\"\ntemplate = \"t\"\nwhitelist = [\"nope\"]\n[set.home]\na = \"b\"\n",
			wantKind: KindConfigParse,
		},
		{
			name: "secrets for undeclared set",
			body: "template-before = \"{{\"\ntemplate-after = \"}}\"\n" +
				"[secrets]\nnope = \"secrets/nope.toml\"\n[set.home]\na = \"b\"\n",
			wantKind: KindConfigParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeConfig(t, "config.toml", tt.body)

			_, err := Load(root)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.wantKind), "got %v", err)
			assert.True(t, tt.wantKind.Fatal())

			if tt.wantLine {
				var cerr *Error
				require.ErrorAs(t, err, &cerr)
				assert.Positive(t, cerr.Line)
			}
		})
	}
}

func TestLoad_MissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfigLoad))
}

func TestConfigFile_Set_NotFound(t *testing.T) {
	root := writeConfig(t, "config.toml", sampleTOML)
	cfg, err := Load(root)
	require.NoError(t, err)

	_, err = cfg.Set("travel")
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindSetNotFound, cerr.Kind)
	assert.Equal(t, []string{"home", "work"}, cerr.Available)
	assert.Contains(t, err.Error(), "home, work")
}

func TestTemplatedFile_Eligible(t *testing.T) {
	a := ReplacementSet{Name: "A"}
	c := ReplacementSet{Name: "C"}
	strict := ReplacementSet{Name: "S", WhitelistOnly: true}

	listed := TemplatedFile{Output: "f", Whitelist: []string{"A", "B"}}
	open := TemplatedFile{Output: "g"}

	tests := []struct {
		name string
		file TemplatedFile
		set  ReplacementSet
		want bool
	}{
		{name: "whitelisted set", file: listed, set: a, want: true},
		{name: "set not in whitelist", file: listed, set: c, want: false},
		{name: "no whitelist, normal set", file: open, set: c, want: true},
		{name: "no whitelist, whitelist-only set", file: open, set: strict, want: false},
		{name: "whitelist-only set named in whitelist", file: TemplatedFile{Whitelist: []string{"S"}}, set: strict, want: true},
		{name: "empty whitelist, normal set", file: TemplatedFile{Output: "h", Whitelist: []string{}}, set: c, want: false},
		{name: "empty whitelist, whitelist-only set", file: TemplatedFile{Output: "h", Whitelist: []string{}}, set: strict, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := tt.file.Eligible(tt.set)
			assert.Equal(t, tt.want, got)
			if !tt.want {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestLoad_EmptyWhitelist(t *testing.T) {
	root := writeConfig(t, "config.toml", `template-before = "{{"
template-after = "}}"

[[file]]
path = "out/disabled"
template = "disabled"
whitelist = []

[[file]]
path = "out/open"
template = "open"

[set.home]
name = "Ada"
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Len(t, cfg.Files, 2)

	home := cfg.Sets["home"]

	assert.True(t, cfg.Files[0].HasWhitelist())
	ok, reason := cfg.Files[0].Eligible(home)
	assert.False(t, ok)
	assert.Contains(t, reason, "not whitelisted")

	assert.False(t, cfg.Files[1].HasWhitelist())
	ok, _ = cfg.Files[1].Eligible(home)
	assert.True(t, ok)
}

func TestFlags_Level(t *testing.T) {
	lvl, err := Flags{}.Level()
	require.NoError(t, err)
	assert.Equal(t, "warn", lvl.String())

	lvl, err = Flags{Verbose: true}.Level()
	require.NoError(t, err)
	assert.Equal(t, "trace", lvl.String())

	lvl, err = Flags{Quiet: true}.Level()
	require.NoError(t, err)
	assert.Equal(t, "disabled", lvl.String())

	lvl, err = Flags{Quiet: true, LogLevel: "debug"}.Level()
	require.NoError(t, err)
	assert.Equal(t, "debug", lvl.String())

	_, err = Flags{Quiet: true, Verbose: true}.Level()
	assert.Error(t, err)
}
