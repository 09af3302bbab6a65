// Package catalogtest provides a small, fixed catalog for tests across the
// planner packages.
package catalogtest

import (
	"strings"
	"testing"

	"github.com/papapumpkin/foundry/internal/catalog"
)

// TOML is the source of the fixture catalog.
const TOML = `
[[producer]]
name = "Miner"
description = "Extracts ore from a resource node."
is_miner = true
max_tier = 3
base_power = 5
  [[producer.recipe]]
  name = "Iron Ore"
  cycle_time = 60
  outputs = [{ name = "Iron Ore", count = 60 }]

[[producer]]
name = "Smelter"
base_power = 4
  [[producer.recipe]]
  name = "Iron Ingot"
  cycle_time = 2
  inputs = [{ name = "Iron Ore", count = 1 }]
  outputs = [{ name = "Iron Ingot", count = 1 }]

[[producer]]
name = "Constructor"
base_power = 4
  [[producer.recipe]]
  name = "Iron Plate"
  cycle_time = 6
  inputs = [{ name = "Iron Ingot", count = 3 }]
  outputs = [{ name = "Iron Plate", count = 2 }]

  [[producer.recipe]]
  name = "Iron Rod"
  cycle_time = 4
  inputs = [{ name = "Iron Ingot", count = 1 }]
  outputs = [{ name = "Iron Rod", count = 1 }]

  [[producer.recipe]]
  name = "Alternate: Iron Wire"
  cycle_time = 24
  is_alternate = true
  inputs = [{ name = "Iron Ingot", count = 5 }]
  outputs = [{ name = "Wire", count = 9 }]

[[producer]]
name = "Coal Generator"
is_power_generator = true
base_power = 0
  [[producer.recipe]]
  name = "Coal Power"
  cycle_time = 4
  inputs = [{ name = "Coal", count = 1 }]
  outputs = [{ name = "Energy", count = 4500 }]
`

// New decodes the fixture catalog, failing the test on error.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Decode(strings.NewReader(TOML))
	if err != nil {
		t.Fatalf("decoding fixture catalog: %v", err)
	}
	return c
}

// Producer returns the named fixture producer, failing the test if absent.
func Producer(t testing.TB, c *catalog.Catalog, name string) *catalog.Producer {
	t.Helper()
	p, err := c.Producer(name)
	if err != nil {
		t.Fatalf("fixture producer %q: %v", name, err)
	}
	return p
}

// Recipe returns the named recipe of the named fixture producer.
func Recipe(t testing.TB, c *catalog.Catalog, producer, recipe string) *catalog.Recipe {
	t.Helper()
	p := Producer(t, c, producer)
	r, ok := p.Recipe(recipe)
	if !ok {
		t.Fatalf("fixture recipe %q not found on %q", recipe, producer)
	}
	return r
}
