package tree_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/catalog/catalogtest"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/tree"
)

type fixture struct {
	cat *catalog.Catalog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixture{cat: catalogtest.New(t)}
}

func (f fixture) smelter(t *testing.T) *tree.Instance {
	t.Helper()
	p := catalogtest.Producer(t, f.cat, "Smelter")
	return tree.NewInstance(node.New(p, nil))
}

func (f fixture) plates(t *testing.T) *tree.Instance {
	t.Helper()
	p := catalogtest.Producer(t, f.cat, "Constructor")
	r := catalogtest.Recipe(t, f.cat, "Constructor", "Iron Plate")
	return tree.NewInstance(node.New(p, r))
}

func (f fixture) group(children ...*tree.Instance) *tree.Instance {
	return tree.NewInstance(node.NewSummary(f.cat.Summary()), children...)
}

func (f fixture) module(id string) *tree.Instance {
	return tree.NewInstance(node.New(f.cat.Module(), catalog.EmptyRecipe(id)))
}

// rowNames renders rows as their recipe names for comparison.
func rowNames(rows []*tree.Instance) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Node.Recipe().Name
	}
	return names
}

func TestNodes_Flatten(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ingots, plates := f.smelter(t), f.plates(t)
	line := f.group(ingots, plates)
	require.NoError(t, line.Node.Rename("line"))
	rods := f.plates(t)
	require.NoError(t, rods.Node.SetRecipe(catalogtest.Recipe(t, f.cat, "Constructor", "Iron Rod")))
	doc := tree.New(f.cat.Summary(), line, rods)

	rows := doc.Nodes()
	assert.Empty(t, cmp.Diff([]string{"", "line", "Iron Ingot", "Iron Plate", "Iron Rod"}, rowNames(rows)))
	assert.Equal(t, 5, doc.Len())

	for i, want := range []*tree.Instance{doc.Root, line, line, line, rods} {
		assert.Same(t, want, doc.Owner(i), "owner of row %d", i)
	}
	assert.Same(t, plates, doc.Row(3))
	assert.Equal(t, 2, plates.Level)
	assert.Equal(t, 3, plates.Row)

	t.Run("clamps rows", func(t *testing.T) {
		assert.Same(t, doc.Root, doc.Row(-4))
		assert.Same(t, rods, doc.Row(99))
		assert.Same(t, rods, doc.Owner(99))
	})
}

func TestNodes_HiddenAndCollapsed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ingots, plates := f.smelter(t), f.plates(t)
	line := f.group(ingots, plates)
	doc := tree.New(f.cat.Summary(), line)

	ingots.ShowHide()
	assert.Equal(t, []*tree.Instance{doc.Root, line, plates}, doc.Nodes())

	line.Collapse()
	assert.Equal(t, []*tree.Instance{doc.Root, line}, doc.Nodes())

	line.Expand()
	line.ShowHide()
	assert.Equal(t, []*tree.Instance{doc.Root}, doc.Nodes())
}

func TestBeforeFlatten(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	doc := tree.New(f.cat.Summary())

	assert.Nil(t, doc.Row(0))
	assert.Nil(t, doc.Owner(0))
	assert.False(t, doc.RemoveRow(0))
}

func TestShowHide_PropagatesToAncestors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	leaf := f.smelter(t)
	inner := f.group(leaf)
	outer := f.group(inner)
	doc := tree.New(f.cat.Summary(), outer)

	outer.SetShown(false)
	inner.SetShown(false)
	leaf.SetShown(false)

	leaf.ShowHide()
	for _, inst := range append([]*tree.Instance{leaf}, leaf.Ancestors()...) {
		assert.True(t, inst.Shown)
	}
	assert.Len(t, leaf.Ancestors(), 3)

	// Hiding affects only the instance itself.
	inner.ShowHide()
	assert.False(t, inner.Shown)
	assert.True(t, leaf.Shown)
	assert.True(t, outer.Shown)

	doc.Root.ShowHide()
	assert.True(t, doc.Root.Shown, "root stays visible")
}

func TestSummaries_BottomUp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ingots, plates := f.smelter(t), f.plates(t)
	line := f.group(ingots, plates)
	doc := tree.New(f.cat.Summary(), line)

	want := map[string]float64{"Iron Ore": -30, "Iron Plate": 20}
	assert.Empty(t, cmp.Diff(want, line.Node.Ingredients()))
	assert.Empty(t, cmp.Diff(want, doc.Root.Node.Ingredients()))
	assert.InDelta(t, 8, doc.Power(), 1e-9)

	t.Run("hidden subtrees still count", func(t *testing.T) {
		line.ShowHide()
		_, err := ingots.Node.SetCount(2)
		require.NoError(t, err)

		doc.Nodes()
		want := map[string]float64{"Iron Ore": -60, "Iron Ingot": 30, "Iron Plate": 20}
		assert.Empty(t, cmp.Diff(want, doc.Root.Node.Ingredients()))
		assert.InDelta(t, 12, doc.Power(), 1e-9)
	})
}

func TestEditRows(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	a, b := f.smelter(t), f.plates(t)
	c := f.group(f.smelter(t))
	doc := tree.New(f.cat.Summary(), a, b, c)
	doc.Nodes()

	assert.True(t, doc.ShiftRow(1, 5))
	assert.Equal(t, []*tree.Instance{b, c, a}, doc.Root.Children)
	assert.False(t, doc.ShiftRow(0, 1), "root cannot move")

	doc.Nodes()
	assert.True(t, doc.RemoveRow(3), "row inside c resolves to c")
	assert.Equal(t, []*tree.Instance{b, a}, doc.Root.Children)
	assert.Nil(t, c.Parent())

	doc.Nodes()
	assert.True(t, doc.RemoveRow(0))
	assert.Empty(t, doc.Root.Children)
}

func TestInstanceEditing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	a, b, c := f.smelter(t), f.smelter(t), f.smelter(t)
	g := f.group(a)

	g.AddChildren(0, b)
	assert.Equal(t, []*tree.Instance{b, a}, g.Children)
	b.InsertAfter(c)
	assert.Equal(t, []*tree.Instance{b, c, a}, g.Children)
	assert.Same(t, g, c.Parent())

	assert.True(t, g.ShiftChild(a, -10))
	assert.Equal(t, []*tree.Instance{a, b, c}, g.Children)
	assert.True(t, g.ShiftChild(a, 1))
	assert.Equal(t, []*tree.Instance{b, a, c}, g.Children)

	assert.False(t, g.ShiftChild(g, 1))
	assert.False(t, g.Remove(g))
	assert.True(t, g.Remove(b))
	assert.Nil(t, b.Parent())

	g.InsertAfter(b)
	assert.Same(t, b, g.Children[0], "a root anchor receives children first")
}

func TestCollectModules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	doc := tree.New(f.cat.Summary(),
		f.module("beta"),
		f.group(f.module("alpha"), f.smelter(t)),
		f.module("beta"),
	)
	assert.Equal(t, []string{"alpha", "beta"}, doc.CollectModules())
}
