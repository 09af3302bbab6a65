// Package catalog holds the read-only producer and recipe reference data that
// the planner computes against: ingredients, recipes, producers and the
// recipe-to-producer lookup.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// PowerIngredient is the ingredient name used for electrical power flows.
const PowerIngredient = "+Power"

// energyIngredient is the raw name power flows carry in catalog sources.
const energyIngredient = "Energy"

// PlaceholderPrefix marks recipes that could not be resolved against the
// catalog when a document was loaded.
const PlaceholderPrefix = "! "

// Ingredient is a named per-cycle quantity. Its sign is carried by context:
// recipe inputs are consumed, outputs are produced.
type Ingredient struct {
	Name  string  `toml:"name"`
	Count float64 `toml:"count"`
}

// NewIngredient returns an ingredient, normalizing raw "Energy" flows (per
// hour) into "+Power" flows (per minute).
func NewIngredient(name string, count float64) Ingredient {
	if name == energyIngredient {
		return Ingredient{Name: PowerIngredient, Count: count / 60}
	}
	return Ingredient{Name: name, Count: count}
}

// String returns the ingredient as "(count x name)".
func (i Ingredient) String() string {
	return fmt.Sprintf("(%sx %s)", formatNum(i.Count), i.Name)
}

// Recipe is a named list of input and output ingredients with a cycle time
// in seconds.
type Recipe struct {
	Name        string
	CycleTime   float64
	Inputs      []Ingredient
	Outputs     []Ingredient
	IsAlternate bool
}

// EmptyRecipe returns a recipe with no flows and a 60 second cycle.
func EmptyRecipe(name string) *Recipe {
	return &Recipe{Name: name, CycleTime: 60}
}

// PlaceholderRecipe returns an empty recipe standing in for a recipe name
// that the catalog does not know.
func PlaceholderRecipe(name string) *Recipe {
	return EmptyRecipe(PlaceholderPrefix + strings.TrimSpace(strings.TrimPrefix(name, "!")))
}

// IsPlaceholder reports whether r stands in for an unresolved recipe.
func (r *Recipe) IsPlaceholder() bool {
	return strings.HasPrefix(r.Name, PlaceholderPrefix)
}

// RecipeFromRates builds a recipe from net per-minute rates. Negative rates
// become inputs, positive rates outputs, and zero rates are dropped. Entries
// are ordered by ingredient name so equal rate maps yield equal recipes.
func RecipeFromRates(name string, rates map[string]float64) *Recipe {
	names := make([]string, 0, len(rates))
	for n := range rates {
		names = append(names, n)
	}
	sort.Strings(names)

	r := EmptyRecipe(name)
	for _, n := range names {
		q := rates[n]
		switch {
		case q < 0:
			r.Inputs = append(r.Inputs, Ingredient{Name: n, Count: math.Abs(q)})
		case q > 0:
			r.Outputs = append(r.Outputs, Ingredient{Name: n, Count: q})
		}
	}
	return r
}

// Input returns the input ingredient with the given name.
func (r *Recipe) Input(name string) (Ingredient, bool) {
	return find(r.Inputs, name)
}

// Output returns the output ingredient with the given name.
func (r *Recipe) Output(name string) (Ingredient, bool) {
	return find(r.Outputs, name)
}

func find(list []Ingredient, name string) (Ingredient, bool) {
	for _, ing := range list {
		if ing.Name == name {
			return ing, true
		}
	}
	return Ingredient{}, false
}

// Clone returns a deep copy of r.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Inputs = append([]Ingredient(nil), r.Inputs...)
	c.Outputs = append([]Ingredient(nil), r.Outputs...)
	return &c
}

// Key returns the structural identity of r: name, cycle time, inputs and
// outputs. Two recipes with equal keys are interchangeable for lookups.
func (r *Recipe) Key() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('|')
	b.WriteString(formatNum(r.CycleTime))
	writeIngredients(&b, r.Inputs)
	writeIngredients(&b, r.Outputs)
	return b.String()
}

func writeIngredients(b *strings.Builder, list []Ingredient) {
	b.WriteByte('|')
	for i, ing := range list {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatNum(ing.Count))
		b.WriteByte('*')
		b.WriteString(ing.Name)
	}
}

// Equal reports whether r and other are structurally identical.
func (r *Recipe) Equal(other *Recipe) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Key() == other.Key()
}

// String returns a compact one-line description of the recipe.
func (r *Recipe) String() string {
	in := make([]string, len(r.Inputs))
	for i, ing := range r.Inputs {
		in[i] = ing.String()
	}
	out := make([]string, len(r.Outputs))
	for i, ing := range r.Outputs {
		out[i] = ing.String()
	}
	return fmt.Sprintf("%s/%s %s <> %s", r.Name, formatNum(r.CycleTime), strings.Join(in, ", "), strings.Join(out, ", "))
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
