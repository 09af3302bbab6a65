package catalog

import (
	"errors"
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrInvalidCatalog indicates a catalog source that decodes but is unusable.
var ErrInvalidCatalog = errors.New("invalid catalog")

// catalogFile is the on-disk TOML layout of a catalog.
type catalogFile struct {
	Producers []producerEntry `toml:"producer"`
}

type producerEntry struct {
	Name             string       `toml:"name"`
	Description      string       `toml:"description"`
	IsMiner          bool         `toml:"is_miner"`
	IsPowerGenerator bool         `toml:"is_power_generator"`
	MaxTier          int          `toml:"max_tier"`
	BasePower        float64      `toml:"base_power"`
	Recipes          []recipeEntry `toml:"recipe"`
}

type recipeEntry struct {
	Name        string       `toml:"name"`
	CycleTime   float64      `toml:"cycle_time"`
	IsAlternate bool         `toml:"is_alternate"`
	Inputs      []Ingredient `toml:"inputs"`
	Outputs     []Ingredient `toml:"outputs"`
}

// Decode reads a TOML catalog:
//
//	[[producer]]
//	name = "Constructor"
//	max_tier = 0
//	base_power = 4
//	  [[producer.recipe]]
//	  name = "Iron Plate"
//	  cycle_time = 6
//	  inputs = [{ name = "Iron Ingot", count = 3 }]
//	  outputs = [{ name = "Iron Plate", count = 2 }]
func Decode(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	producers := make([]*Producer, 0, len(file.Producers))
	for i, pf := range file.Producers {
		if pf.Name == "" {
			return nil, fmt.Errorf("%w: producer #%d has no name", ErrInvalidCatalog, i+1)
		}
		recipes := make([]*Recipe, 0, len(pf.Recipes))
		for _, rs := range pf.Recipes {
			if rs.CycleTime <= 0 {
				return nil, fmt.Errorf("%w: %s: recipe %q has cycle_time %v", ErrInvalidCatalog, pf.Name, rs.Name, rs.CycleTime)
			}
			recipes = append(recipes, &Recipe{
				Name:        rs.Name,
				CycleTime:   rs.CycleTime,
				IsAlternate: rs.IsAlternate,
				Inputs:      normalize(rs.Inputs),
				Outputs:     normalize(rs.Outputs),
			})
		}
		p := NewProducer(pf.Name, recipes...)
		p.Description = pf.Description
		p.IsMiner = pf.IsMiner
		p.IsPowerGenerator = pf.IsPowerGenerator
		p.MaxTier = pf.MaxTier
		p.BasePower = pf.BasePower
		producers = append(producers, p)
	}

	c, err := New(producers...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return c, nil
}

func normalize(list []Ingredient) []Ingredient {
	out := make([]Ingredient, len(list))
	for i, ing := range list {
		out[i] = NewIngredient(ing.Name, ing.Count)
	}
	return out
}
