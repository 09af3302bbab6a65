package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/foundry/internal/ansi"
	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/catalog/catalogtest"
	"github.com/papapumpkin/foundry/internal/module"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/storage"
	"github.com/papapumpkin/foundry/internal/tree"
	"github.com/papapumpkin/foundry/internal/watch"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{30, "30"},
		{29.999, "30"},
		{-30.004, "-30"},
		{12.345, "12.35"},
		{1234.5, "1,234.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
	assert.Equal(t, "8 MW", FormatPower(8))
}

func TestFlows(t *testing.T) {
	p := New(&bytes.Buffer{}, false)
	got := p.Flows(map[string]float64{
		"Iron Ore":   -30,
		"Iron Plate": 20,
		"Iron Ingot": 0.001,
		"Coal":       -15,
	})
	assert.Equal(t, "+20 Iron Plate, -15 Coal, -30 Iron Ore", got)

	colored := New(&bytes.Buffer{}, true).Flows(map[string]float64{"Iron Plate": 20})
	assert.Equal(t, ansi.Green+"+20 Iron Plate"+ansi.Reset, colored)
}

func TestRows(t *testing.T) {
	cat := catalogtest.New(t)
	smelter := tree.NewInstance(node.New(catalogtest.Producer(t, cat, "Smelter"), nil, node.WithCount(2)))
	miner := tree.NewInstance(node.New(catalogtest.Producer(t, cat, "Miner"), nil, node.WithPurity(node.PurityPure)))
	group := tree.NewInstance(node.NewSummary(cat.Summary()), smelter)
	require.NoError(t, group.Node.Rename("Smelting"))
	tr := tree.New(cat.Summary(), miner, group)

	var buf bytes.Buffer
	New(&buf, false).Rows(tr.Nodes())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.True(t, strings.HasPrefix(lines[0], "▾ (group)"), lines[0])
	assert.Contains(t, lines[1], "  · Miner Iron Ore ×1 @100% Mk1 Pure")
	assert.True(t, strings.HasPrefix(lines[2], "  ▾ Smelting"), lines[2])
	assert.Contains(t, lines[3], "    · Smelter Iron Ingot ×2 @100%")
	assert.Contains(t, lines[3], "+60 Iron Ingot, -60 Iron Ore")
	assert.Contains(t, lines[3], "8 MW")
}

func TestSummary(t *testing.T) {
	cat := catalogtest.New(t)
	tr := tree.New(cat.Summary(), tree.NewInstance(node.New(catalogtest.Producer(t, cat, "Smelter"), nil)))

	var buf bytes.Buffer
	New(&buf, false).Summary("factory", tr)
	out := buf.String()
	assert.Contains(t, out, "net factory")
	assert.Contains(t, out, "flows: +30 Iron Ingot, -30 Iron Ore")
	assert.Contains(t, out, "power: 4 MW")
}

func TestCheck(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	assert.Equal(t, 0, p.Check("factory", nil))
	assert.Contains(t, buf.String(), "no problems")

	buf.Reset()
	err := errors.Join(
		&tree.CycleError{Chain: []string{"a", "b", "a"}},
		errors.Join(fmt.Errorf("loading module %q: %w", "gone", tree.ErrModuleMissing)),
	)
	assert.Equal(t, 2, p.Check("factory", err))
	out := buf.String()
	assert.Contains(t, out, "2 problem(s)")
	assert.Contains(t, out, "cycle   recursive modules: a > b > a")
	assert.Contains(t, out, `missing loading module "gone": module not found`)
}

func TestModules(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Modules(nil)
	assert.Contains(t, buf.String(), "(no modules)")

	buf.Reset()
	p.Modules([]*module.Entry{{
		ID:     "plates",
		File:   storage.DataFile{Root: "/data", Subpath: "lines/plates.yaml"},
		Recipe: catalog.RecipeFromRates("plates", map[string]float64{"Iron Ore": -30, "Iron Plate": 20}),
		Err:    &tree.CycleError{Chain: []string{"plates", "plates"}},
	}})
	out := buf.String()
	assert.Contains(t, out, "✗ plates lines/plates.yaml")
	assert.Contains(t, out, "+20 Iron Plate, -30 Iron Ore")
	assert.Contains(t, out, "recursive modules: plates > plates")
}

func TestChange(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Change(watch.Change{Kind: watch.ChangeRemoved, File: "/data/ingots.yaml"}, nil)
	assert.Equal(t, "↻ ingots removed\n", buf.String())
}

func TestProblems(t *testing.T) {
	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	assert.Nil(t, Problems(nil))
	assert.Equal(t, []error{a}, Problems(a))
	assert.Equal(t, []error{a, b, c}, Problems(errors.Join(a, errors.Join(b, c))))
}
