package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/catalog/catalogtest"
	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/tree"
	"github.com/papapumpkin/foundry/internal/ui"
	"github.com/papapumpkin/foundry/internal/watch"
)

// dataRoot prepares a data directory with the fixture catalog and points
// the configuration at it.
type dataRoot struct {
	dir string
	cat *catalog.Catalog
}

func newDataRoot(t *testing.T) dataRoot {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.toml"), []byte(catalogtest.TOML), 0o644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("data_dir", dir)
	viper.Set("log_level", "error")
	return dataRoot{dir: dir, cat: catalogtest.New(t)}
}

func (d dataRoot) write(t *testing.T, name string, instances ...*tree.Instance) {
	t.Helper()
	data, err := document.NewCodec(d.cat).Encode(tree.New(d.cat.Summary(), instances...))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(d.dir, name), data, 0o644))
}

func (d dataRoot) smelter(t *testing.T) *tree.Instance {
	t.Helper()
	return tree.NewInstance(node.New(catalogtest.Producer(t, d.cat, "Smelter"), nil))
}

func (d dataRoot) plates(t *testing.T) *tree.Instance {
	t.Helper()
	return tree.NewInstance(node.New(catalogtest.Producer(t, d.cat, "Constructor"),
		catalogtest.Recipe(t, d.cat, "Constructor", "Iron Plate")))
}

func (d dataRoot) module(id string) *tree.Instance {
	return tree.NewInstance(node.New(d.cat.Module(), catalog.EmptyRecipe(id)))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShow(t *testing.T) {
	d := newDataRoot(t)
	d.write(t, "ingots.yaml", d.smelter(t))
	d.write(t, "factory.yaml", d.module("ingots"), d.plates(t))

	out, err := run(t, "show", "factory", "--collapse-modules=false")
	require.NoError(t, err)
	assert.Contains(t, out, "<Module> ingots")
	assert.Contains(t, out, "Constructor Iron Plate ×1 @100%")
	assert.Contains(t, out, "Smelter Iron Ingot", "module contents are listed")
	assert.Contains(t, out, "net factory")
	assert.Contains(t, out, "flows: +20 Iron Plate, -30 Iron Ore")
	assert.Contains(t, out, "power: 8 MW")

	t.Run("collapsed modules", func(t *testing.T) {
		out, err := run(t, "show", "factory", "--collapse-modules")
		require.NoError(t, err)
		assert.NotContains(t, out, "Smelter Iron Ingot")
		assert.Contains(t, out, "flows: +20 Iron Plate, -30 Iron Ore")
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := run(t, "show", "absent", "--collapse-modules=false")
		assert.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	d := newDataRoot(t)
	d.write(t, "ingots.yaml", d.smelter(t))
	d.write(t, "loop.yaml", d.module("loop"), d.smelter(t))
	d.write(t, "broken.yaml", d.module("gone"))

	out, err := run(t, "check", "ingots")
	require.NoError(t, err)
	assert.Contains(t, out, "ingots — no problems")

	out, err = run(t, "check", "loop", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s)")
	assert.Contains(t, out, "recursive modules: loop > loop")
	assert.Contains(t, out, "missing")
}

func TestModules(t *testing.T) {
	d := newDataRoot(t)
	d.write(t, "ingots.yaml", d.smelter(t))
	require.NoError(t, os.Mkdir(filepath.Join(d.dir, "lines"), 0o755))
	d.write(t, "lines/plates.yaml", d.module("ingots"), d.plates(t))

	out, err := run(t, "modules")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ingots ingots.yaml")
	assert.Contains(t, out, "✓ plates lines/plates.yaml")
	assert.Contains(t, out, "+20 Iron Plate, -30 Iron Ore")
}

func TestSessions(t *testing.T) {
	d := newDataRoot(t)
	d.write(t, "factory.yaml", d.smelter(t))
	staging := filepath.Join(d.dir, ".staging", "[main]")

	out, err := run(t, "sessions", "new", "factory")
	require.NoError(t, err)
	assert.Contains(t, out, "opened session 001 for factory")
	assert.FileExists(t, filepath.Join(staging, "001.yaml"))
	assert.FileExists(t, filepath.Join(staging, "001.yaml.sink"))

	out, err = run(t, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "factory  clean")

	out, err = run(t, "sessions", "save", "001", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, "saved session 001")
	assert.FileExists(t, filepath.Join(d.dir, "copy.yaml"))

	_, err = run(t, "sessions", "save", "007")
	assert.Error(t, err)

	_, err = run(t, "sessions", "discard", "001")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(staging, "001.yaml"))
	assert.NoFileExists(t, filepath.Join(staging, "001.yaml.sink"))
}

func TestWatchLoop(t *testing.T) {
	d := newDataRoot(t)
	d.write(t, "ingots.yaml", d.smelter(t))

	w, err := openWorkspace(rootCmd)
	require.NoError(t, err)
	var out bytes.Buffer
	w.printer = ui.New(&out, false)

	changes := make(chan watch.Change, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d.write(t, "plates.yaml", d.module("ingots"), d.plates(t))
	changes <- watch.Change{Kind: watch.ChangeModified, File: filepath.Join(d.dir, "plates.yaml")}
	close(changes)

	require.NoError(t, watchLoop(ctx, w, changes))
	assert.Equal(t, "↻ plates modified\n", out.String())
	_, ok := w.modules.Get("plates")
	assert.True(t, ok, "the registry picked up the new module")
}
