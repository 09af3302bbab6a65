package catalog

// Names of the built-in pseudo-producers.
const (
	ModuleProducerName     = "Module"
	SummaryProducerName    = "Summary"
	AllRecipesProducerName = "<ALL RECIPES>"
)

// Producer is a building type owning a list of recipes. The name-keyed
// recipe map is derived from the list and rebuilt on every SetRecipes call.
type Producer struct {
	Name             string
	IsMiner          bool
	IsPowerGenerator bool
	MaxTier          int
	BasePower        float64
	Description      string

	// IsAbstract marks producers that cannot be built (aggregates, modules).
	IsAbstract bool
	// IsPrimary producers register their recipes in the catalog's
	// recipe-to-producer lookup. Aggregate producers must not.
	IsPrimary bool
	// IsModule marks the pseudo-producer whose recipes are module documents.
	IsModule bool

	recipes   []*Recipe
	recipeMap map[string]*Recipe
	onChange  func(*Producer)
}

// NewProducer returns a primary producer owning recipes.
func NewProducer(name string, recipes ...*Recipe) *Producer {
	p := &Producer{Name: name, IsPrimary: true}
	p.SetRecipes(recipes)
	return p
}

// SetRecipes replaces the recipe list and rebuilds the name lookup.
func (p *Producer) SetRecipes(recipes []*Recipe) {
	p.recipes = append([]*Recipe(nil), recipes...)
	p.rebuild()
}

// ReplaceRecipe swaps the recipe sharing r's name in place, or appends r if
// no recipe of that name exists.
func (p *Producer) ReplaceRecipe(r *Recipe) {
	for i, existing := range p.recipes {
		if existing.Name == r.Name {
			p.recipes[i] = r
			p.rebuild()
			return
		}
	}
	p.recipes = append(p.recipes, r)
	p.rebuild()
}

func (p *Producer) rebuild() {
	p.recipeMap = make(map[string]*Recipe, len(p.recipes))
	for _, r := range p.recipes {
		p.recipeMap[r.Name] = r
	}
	if p.onChange != nil {
		p.onChange(p)
	}
}

// Recipes returns the producer's recipes in catalog order.
func (p *Producer) Recipes() []*Recipe {
	return append([]*Recipe(nil), p.recipes...)
}

// Recipe returns the recipe with the given name.
func (p *Producer) Recipe(name string) (*Recipe, bool) {
	r, ok := p.recipeMap[name]
	return r, ok
}

// HasRecipe reports whether r is one of this producer's current recipes.
func (p *Producer) HasRecipe(r *Recipe) bool {
	if r == nil {
		return false
	}
	existing, ok := p.recipeMap[r.Name]
	return ok && existing.Equal(r)
}

// DefaultRecipe returns the first recipe, or an empty recipe for producers
// without any.
func (p *Producer) DefaultRecipe() *Recipe {
	if len(p.recipes) == 0 {
		return EmptyRecipe("")
	}
	return p.recipes[0]
}

// String returns the producer name, wrapped in angle brackets when abstract.
func (p *Producer) String() string {
	if p.IsAbstract && p.Name != "" && p.Name[0] != '<' {
		return "<" + p.Name + ">"
	}
	return p.Name
}

func newModuleProducer() *Producer {
	p := &Producer{
		Name:        ModuleProducerName,
		IsAbstract:  true,
		IsPrimary:   true,
		IsModule:    true,
		Description: "A pseudo producer which embeds other documents into this one.",
	}
	p.SetRecipes([]*Recipe{EmptyRecipe("")})
	return p
}

func newSummaryProducer() *Producer {
	p := &Producer{Name: SummaryProducerName}
	p.SetRecipes([]*Recipe{EmptyRecipe("")})
	return p
}
