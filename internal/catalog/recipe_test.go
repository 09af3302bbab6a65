package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeFromRates(t *testing.T) {
	t.Parallel()

	r := RecipeFromRates("sum", map[string]float64{
		"Iron Plate": 20,
		"Iron Ingot": -30,
		"Iron Ore":   0,
		"Coal":       -5,
	})

	assert.Equal(t, "sum", r.Name)
	assert.Equal(t, 60.0, r.CycleTime)
	assert.Equal(t, []Ingredient{{"Coal", 5}, {"Iron Ingot", 30}}, r.Inputs)
	assert.Equal(t, []Ingredient{{"Iron Plate", 20}}, r.Outputs)
}

func TestRecipeKey(t *testing.T) {
	t.Parallel()

	a := &Recipe{Name: "r", CycleTime: 4, Inputs: []Ingredient{{"A", 1}}, Outputs: []Ingredient{{"B", 2}}}
	b := a.Clone()
	require.True(t, a.Equal(b))

	b.Outputs[0].Count = 3
	assert.False(t, a.Equal(b), "clone shares ingredient storage")
	assert.Equal(t, 2.0, a.Outputs[0].Count)

	c := a.Clone()
	c.CycleTime = 5
	assert.NotEqual(t, a.Key(), c.Key())

	// Alternate flag is not part of the structural identity.
	d := a.Clone()
	d.IsAlternate = true
	assert.Equal(t, a.Key(), d.Key())
}

func TestPlaceholderRecipe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Iron Plate", "! Iron Plate"},
		{"! Iron Plate", "! Iron Plate"},
		{"!Iron Plate", "! Iron Plate"},
	}
	for _, tt := range tests {
		r := PlaceholderRecipe(tt.in)
		assert.Equal(t, tt.want, r.Name)
		assert.True(t, r.IsPlaceholder())
		assert.Empty(t, r.Inputs)
		assert.Empty(t, r.Outputs)
	}
	assert.False(t, EmptyRecipe("x").IsPlaceholder())
}

func TestProducerRecipeMap(t *testing.T) {
	t.Parallel()

	p := NewProducer("P", EmptyRecipe("a"), EmptyRecipe("b"))
	_, ok := p.Recipe("a")
	require.True(t, ok)

	p.SetRecipes([]*Recipe{EmptyRecipe("c")})
	_, ok = p.Recipe("a")
	assert.False(t, ok, "recipe map not rebuilt")
	_, ok = p.Recipe("c")
	assert.True(t, ok)

	p.ReplaceRecipe(&Recipe{Name: "c", CycleTime: 10})
	r, _ := p.Recipe("c")
	assert.Equal(t, 10.0, r.CycleTime)
	assert.Len(t, p.Recipes(), 1)

	p.ReplaceRecipe(EmptyRecipe("d"))
	assert.Len(t, p.Recipes(), 2)
	assert.True(t, p.HasRecipe(EmptyRecipe("d")))
	assert.False(t, p.HasRecipe(EmptyRecipe("zzz")))
}

func TestIngredientString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "(2.5x Wire)", Ingredient{"Wire", 2.5}.String())
}
