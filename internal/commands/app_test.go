package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/stencil/internal/backup"
	"github.com/hay-kot/stencil/internal/core"
	"github.com/hay-kot/stencil/pkgs/printer"
)

type appFixture struct {
	root string
	out  string
}

func newAppFixture(t *testing.T) appFixture {
	t.Helper()

	root := t.TempDir()
	out := t.TempDir()

	config := `template-before = "{{"
template-after = "}}"

[[file]]
path = "` + filepath.Join(out, "greeting.txt") + `"
template = "templates/greeting"

[[file]]
path = "` + filepath.Join(out, "work.txt") + `"
template = "templates/work"
whitelist = ["work"]

[set.home]
name = "Ada"
age = "36"

[set.work]
whitelist-only = true
name = "Ada Lovelace"
age = "36"
company = "Analytical Engines"
`

	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.toml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "greeting"),
		[]byte("Hello {{name}}, you are {{age}}."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "work"),
		[]byte("{{name}} @ {{company}}"), 0o644))

	return appFixture{root: root, out: out}
}

func (f appFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	ctx := printer.WithWriter(context.Background(), &buf)

	app := NewApp(NewGlobals(), "test")
	err := app.Run(ctx, append([]string{"stencil", "-q", "-c", f.root}, args...))

	return buf.String(), err
}

func (f appFixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, name))
	require.NoError(t, err)
	return string(data)
}

func TestApp_Run(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.run(t, "run", "home")
	require.NoError(t, err)

	assert.Equal(t, "Hello Ada, you are 36.", f.read(t, "greeting.txt"))
	assert.NoFileExists(t, filepath.Join(f.out, "work.txt"), "home is not whitelisted for work.txt")

	_, err = f.run(t, "run", "work")
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace @ Analytical Engines", f.read(t, "work.txt"))
	assert.Equal(t, "Hello Ada, you are 36.", f.read(t, "greeting.txt"), "whitelist-only set skips open files")
}

func TestApp_Run_BacksUpBeforeOverwrite(t *testing.T) {
	f := newAppFixture(t)

	greeting := filepath.Join(f.out, "greeting.txt")
	require.NoError(t, os.WriteFile(greeting, []byte("hand edited"), 0o644))

	for range 2 {
		_, err := f.run(t, "run", "home")
		require.NoError(t, err)
	}

	canon, err := filepath.EvalSymlinks(greeting)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.root, "backup", backup.FlattenPath(canon)))
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, you are 36.", string(data), "second run replaces the first copy")
}

func TestApp_Run_NoBackup(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.run(t, "run", "--no-backup", "home")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(f.root, "backup"))
}

func TestApp_Run_UnknownSet(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.run(t, "run", "travel")
	require.Error(t, err)

	var cerr *core.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, core.KindSetNotFound, cerr.Kind)
	assert.Equal(t, []string{"home", "work"}, cerr.Available)
}

func TestApp_Run_MissingKeyFailsFile(t *testing.T) {
	f := newAppFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "templates", "greeting"),
		[]byte("{{nickname}}"), 0o644))

	_, err := f.run(t, "run", "home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.NoFileExists(t, filepath.Join(f.out, "greeting.txt"))
}

func TestApp_Run_DryRun(t *testing.T) {
	f := newAppFixture(t)

	out, err := f.run(t, "run", "--dry-run", "home")
	require.NoError(t, err)

	assert.Contains(t, out, "planned")
	assert.NoFileExists(t, filepath.Join(f.out, "greeting.txt"))
}

func TestApp_ListSets(t *testing.T) {
	f := newAppFixture(t)

	out, err := f.run(t, "list-sets")
	require.NoError(t, err)
	assert.Equal(t, "home\nwork\n", out)
}

func TestApp_Show(t *testing.T) {
	f := newAppFixture(t)

	out, err := f.run(t, "show", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "whitelist-only")
	assert.Contains(t, out, "company")
	assert.Contains(t, out, "Analytical Engines")
}

func TestApp_Check(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.run(t, "check")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(f.root, "templates", "greeting"),
		[]byte("{{a}} {{name}} {{b}}"), 0o644))

	out, err := f.run(t, "check", "home")
	require.Error(t, err)
	assert.Contains(t, out, "missing: a, b")
}

func TestApp_BadConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.toml"), []byte("template-before = \n"), 0o644))

	app := NewApp(NewGlobals(), "test")
	err := app.Run(context.Background(), []string{"stencil", "-q", "-c", root, "list-sets"})

	assert.True(t, core.IsKind(err, core.KindConfigParse))
}
