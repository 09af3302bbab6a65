package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProducer is returned when a producer name is not in the catalog.
var ErrUnknownProducer = errors.New("unknown producer")

// ErrDuplicateProducer is returned when adding a producer whose name is taken.
var ErrDuplicateProducer = errors.New("duplicate producer")

// aliases maps alternate producer names to their canonical catalog names.
var aliases = map[string]string{
	"Blueprint":              ModuleProducerName,
	"Coal Generator":         "Coal-Powered Generator",
	"Fuel Generator":         "Fuel-Powered Generator",
	"Coal-Powered Generator": "Coal Generator",
	"Fuel-Powered Generator": "Fuel Generator",
}

// Catalog is the read-only producer and recipe lookup supplied to the
// planner at startup. It always contains the Module pseudo-producer.
type Catalog struct {
	producers []*Producer
	byName    map[string]*Producer
	owners    map[string]*Producer // recipe key -> owning primary producer

	module  *Producer
	summary *Producer
	empty   *Producer
}

// New returns a catalog holding the built-in pseudo-producers followed by
// producers, in order.
func New(producers ...*Producer) (*Catalog, error) {
	c := &Catalog{
		byName:  make(map[string]*Producer),
		owners:  make(map[string]*Producer),
		module:  newModuleProducer(),
		summary: newSummaryProducer(),
		empty:   NewProducer("", EmptyRecipe("")),
	}
	c.empty.IsPrimary = false
	if err := c.Add(c.module); err != nil {
		return nil, err
	}
	for _, p := range producers {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers a producer. Primary producers' recipes join the
// recipe-to-producer lookup and stay registered as their recipes change.
func (c *Catalog) Add(p *Producer) error {
	if _, exists := c.byName[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProducer, p.Name)
	}
	c.producers = append(c.producers, p)
	c.byName[p.Name] = p
	p.onChange = func(*Producer) { c.reindex() }
	c.reindex()
	return nil
}

func (c *Catalog) reindex() {
	c.owners = make(map[string]*Producer, len(c.owners))
	for _, p := range c.producers {
		if !p.IsPrimary {
			continue
		}
		for _, r := range p.recipes {
			c.owners[r.Key()] = p
		}
	}
}

// Producer looks up a producer by name or alias.
func (c *Catalog) Producer(name string) (*Producer, error) {
	if p, ok := c.byName[name]; ok {
		return p, nil
	}
	if name == AllRecipesProducerName {
		return c.AllRecipes(), nil
	}
	if alias, ok := aliases[name]; ok {
		if p, ok := c.byName[alias]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProducer, name)
}

// Producers returns all registered producers in registration order.
func (c *Catalog) Producers() []*Producer {
	return append([]*Producer(nil), c.producers...)
}

// Module returns the pseudo-producer whose recipes are module documents.
func (c *Catalog) Module() *Producer { return c.module }

// Summary returns the pseudo-producer backing aggregate rows.
func (c *Catalog) Summary() *Producer { return c.summary }

// Empty returns the placeholder producer for unconfigured nodes.
func (c *Catalog) Empty() *Producer { return c.empty }

// ProducerOf returns the primary producer owning a structurally equal recipe.
func (c *Catalog) ProducerOf(r *Recipe) (*Producer, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := c.owners[r.Key()]
	return p, ok
}

// AllRecipes returns an abstract, non-primary producer offering every named
// non-module recipe, sorted by name. Later producers win on name clashes.
func (c *Catalog) AllRecipes() *Producer {
	byName := make(map[string]*Recipe)
	for _, p := range c.producers {
		if p.IsModule {
			continue
		}
		for _, r := range p.recipes {
			if r.Name != "" {
				byName[r.Name] = r
			}
		}
	}
	recipes := make([]*Recipe, 0, len(byName))
	for _, r := range byName {
		recipes = append(recipes, r)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })

	p := &Producer{Name: AllRecipesProducerName, IsAbstract: true}
	p.SetRecipes(recipes)
	return p
}

// Ingredients returns every ingredient name used by any recipe, sorted.
func (c *Catalog) Ingredients() []string {
	seen := make(map[string]bool)
	for _, p := range c.producers {
		for _, r := range p.recipes {
			for _, ing := range r.Inputs {
				seen[ing.Name] = true
			}
			for _, ing := range r.Outputs {
				seen[ing.Name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Producing returns the non-module producers with a recipe that outputs
// ingredient.
func (c *Catalog) Producing(ingredient string) []*Producer {
	return c.filter(func(r *Recipe) bool { _, ok := r.Output(ingredient); return ok })
}

// Consuming returns the non-module producers with a recipe that takes
// ingredient as an input.
func (c *Catalog) Consuming(ingredient string) []*Producer {
	return c.filter(func(r *Recipe) bool { _, ok := r.Input(ingredient); return ok })
}

func (c *Catalog) filter(match func(*Recipe) bool) []*Producer {
	var out []*Producer
	for _, p := range c.producers {
		if p.IsModule {
			continue
		}
		for _, r := range p.recipes {
			if match(r) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
