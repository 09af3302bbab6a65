// Package node computes the flows and power of a single production unit.
//
// A Node is either a normal node, whose recipe and tunables are chosen by the
// user, or a summary node, whose recipe is computed from a set of child nodes
// and cannot be edited. Every mutation recomputes the derived ingredient
// rates and power, so readers always observe state consistent with the
// node's fields.
package node

import (
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/papapumpkin/foundry/internal/catalog"
)

// ErrReadOnly is returned when editing a summary node.
var ErrReadOnly = errors.New("summary nodes are read-only")

// ErrClampUnsupported is returned when a clamp cannot apply to a node.
var ErrClampUnsupported = errors.New("clamp not supported")

var errNotSummary = errors.New("not a summary node")

// powerExponent is the overclocking power curve exponent.
const powerExponent = 1.321928

// Kind distinguishes user-authored nodes from computed aggregates.
type Kind int

const (
	KindNormal  Kind = iota // recipe and tunables chosen by the user
	KindSummary             // recipe computed from child nodes
)

// Clamp pins one ingredient's rate; throughput is solved to meet it.
type Clamp struct {
	Ingredient string
	// Target is the pinned rate. After each solve it holds the rate the
	// node actually achieves.
	Target float64
}

// Node is one production unit: a producer running a recipe at a count,
// throughput, tier and purity.
type Node struct {
	kind     Kind
	producer *catalog.Producer
	recipe   *catalog.Recipe

	count      int
	throughput float64
	tier       int
	purity     Purity

	clamp     *Clamp
	requested float64
	forced    bool

	// embeddedPower is the aggregate power of a module's subtree, or the
	// summed child power for summary nodes.
	embeddedPower float64

	ingredients map[string]float64
	power       float64

	recipeCache map[string]*catalog.Recipe
	purityCache map[string]Purity
}

// Option configures a node at construction.
type Option func(*Node)

// WithCount sets the number of units.
func WithCount(count int) Option { return func(n *Node) { n.count = count } }

// WithThroughput sets the throughput percentage.
func WithThroughput(pct float64) Option { return func(n *Node) { n.throughput = pct } }

// WithTier sets the extraction tier.
func WithTier(tier int) Option { return func(n *Node) { n.tier = tier } }

// WithPurity sets the miner purity.
func WithPurity(p Purity) Option { return func(n *Node) { n.purity = p } }

// WithClamp pins ingredient to target.
func WithClamp(ingredient string, target float64) Option {
	return func(n *Node) {
		n.clamp = &Clamp{Ingredient: ingredient, Target: target}
		n.requested = target
	}
}

// New returns a normal node. A nil recipe selects the producer's default
// recipe. Tunables default to one unit at 100% throughput, tier 1 and Normal
// purity, and are clamped into their valid ranges.
func New(p *catalog.Producer, r *catalog.Recipe, opts ...Option) *Node {
	n := &Node{
		kind:        KindNormal,
		producer:    p,
		count:       1,
		throughput:  100,
		tier:        1,
		purity:      PurityNormal,
		recipeCache: make(map[string]*catalog.Recipe),
		purityCache: make(map[string]Purity),
	}
	for _, opt := range opts {
		opt(n)
	}
	if r == nil {
		r = p.DefaultRecipe()
	}
	n.setRecipe(r)
	n.normalize()
	n.Recompute()
	return n
}

// NewSummary returns an empty summary node backed by producer p.
func NewSummary(p *catalog.Producer) *Node {
	n := &Node{
		kind:       KindSummary,
		producer:   p,
		recipe:     catalog.EmptyRecipe(""),
		count:      1,
		throughput: 100,
		tier:       1,
	}
	n.Recompute()
	return n
}

// normalize clamps every tunable into range and reports whether all were
// already valid.
func (n *Node) normalize() bool {
	exact := true
	if c := clampInt(n.count, 0, MaxCount); c != n.count {
		n.count, exact = c, false
	}
	if t := clampFloat(n.throughput, 0, MaxThroughput); t != n.throughput {
		n.throughput, exact = t, false
	}
	if t := clampInt(n.tier, MinTier, n.maxTier()); t != n.tier {
		n.tier, exact = t, false
	}
	if p := n.validPurity(n.purity); p != n.purity {
		n.purity, exact = p, false
	}
	if n.producer.IsMiner {
		n.purityCache[n.producer.Name] = n.purity
	}
	return exact
}

func (n *Node) maxTier() int {
	return max(MinTier, n.producer.MaxTier)
}

func (n *Node) validPurity(p Purity) Purity {
	if !n.producer.IsMiner {
		return PurityNA
	}
	if p == PurityNA || !p.Valid() {
		return PurityNormal
	}
	return p
}

func (n *Node) setRecipe(r *catalog.Recipe) {
	n.recipe = r
	if n.recipeCache != nil {
		n.recipeCache[n.producer.Name] = r
	}
}

// Recompute derives ingredient rates and power from the node's fields. For a
// clamped node it first solves throughput for the clamp target, then
// refreshes the target to the achieved rate. Recompute is idempotent.
func (n *Node) Recompute() {
	if n.kind == KindSummary {
		n.ingredients = summaryRates(n.recipe)
		n.power = n.embeddedPower
		return
	}

	n.forced = false
	solved := n.clamp != nil && n.count > 0 && n.solveClamp()

	n.ingredients = n.flows()
	if solved {
		n.clamp.Target = n.ingredients[n.clamp.Ingredient]
	}

	switch {
	case n.producer.IsPowerGenerator:
		// Generator power output has no defined formula yet.
		n.power = 0
	case n.producer.IsModule:
		n.power = n.embeddedPower * float64(n.count)
	default:
		n.power = n.producer.BasePower * math.Pow(n.throughput/100, powerExponent) * float64(n.count)
	}
}

func (n *Node) flows() map[string]float64 {
	rates := make(map[string]float64, len(n.recipe.Inputs)+len(n.recipe.Outputs))
	mult := n.rateMult() * n.throughput * float64(n.count) / 100

	for _, in := range n.recipe.Inputs {
		rates[in.Name] += -in.Count * mult
	}
	for _, out := range n.recipe.Outputs {
		if n.producer.IsMiner {
			rates[out.Name] += (out.Count / n.purity.Multiplier()) * math.Pow(2, float64(n.tier)) * mult
		} else {
			rates[out.Name] += out.Count * mult
		}
	}
	return rates
}

func (n *Node) rateMult() float64 {
	if n.recipe.CycleTime <= 0 {
		return 0
	}
	return 60 / n.recipe.CycleTime
}

// solveClamp sets throughput so the clamped ingredient reaches the requested
// rate, clamped to [0, MaxThroughput]. It reports false when the recipe has
// no usable entry for the ingredient.
func (n *Node) solveClamp() bool {
	want := math.Abs(n.requested)
	ct := n.recipe.CycleTime
	count := float64(n.count)

	pct, found := 0.0, false
	if in, ok := n.recipe.Input(n.clamp.Ingredient); ok && in.Count != 0 {
		pct, found = 5*ct*want/(3*in.Count*count), true
	}
	if out, ok := n.recipe.Output(n.clamp.Ingredient); ok && out.Count != 0 {
		if n.producer.IsMiner {
			pct = 5 * ct * n.purity.Multiplier() * want / (3 * math.Pow(2, float64(n.tier)) * out.Count * count)
		} else {
			pct = 5 * ct * want / (3 * out.Count * count)
		}
		found = true
	}
	if !found {
		return false
	}

	clamped := clampFloat(pct, 0, MaxThroughput)
	n.forced = clamped != pct
	n.throughput = clamped
	return true
}

func summaryRates(r *catalog.Recipe) map[string]float64 {
	rates := make(map[string]float64, len(r.Inputs)+len(r.Outputs))
	for _, in := range r.Inputs {
		rates[in.Name] -= in.Count
	}
	for _, out := range r.Outputs {
		rates[out.Name] += out.Count
	}
	return rates
}

// Summarize recomputes a summary node from the current rates and power of
// nodes. Ingredients netting to zero are dropped. The recipe name is kept.
func (n *Node) Summarize(nodes []*Node) error {
	if n.kind != KindSummary {
		return fmt.Errorf("summarize: %w", errNotSummary)
	}
	sums := make(map[string]float64)
	power := 0.0
	for _, c := range nodes {
		power += c.power
		for name, rate := range c.ingredients {
			sums[name] += rate
		}
	}
	n.recipe = catalog.RecipeFromRates(n.recipe.Name, sums)
	n.embeddedPower = power
	n.Recompute()
	return nil
}

// SetSummaryRecipe replaces a summary node's computed recipe, as when a
// stored aggregate is displayed before its children are available.
func (n *Node) SetSummaryRecipe(r *catalog.Recipe) error {
	if n.kind != KindSummary {
		return fmt.Errorf("set summary recipe: %w", errNotSummary)
	}
	n.recipe = r
	n.Recompute()
	return nil
}

// Rename changes the name of a summary node's computed recipe.
func (n *Node) Rename(name string) error {
	if n.kind != KindSummary {
		return fmt.Errorf("rename: %w", errNotSummary)
	}
	r := n.recipe.Clone()
	r.Name = name
	n.recipe = r
	return nil
}

// Kind returns whether the node is normal or a summary.
func (n *Node) Kind() Kind { return n.kind }

// IsSummary reports whether the node is a computed aggregate.
func (n *Node) IsSummary() bool { return n.kind == KindSummary }

// IsModule reports whether the node embeds a module document.
func (n *Node) IsModule() bool { return n.kind == KindNormal && n.producer.IsModule }

// Producer returns the node's producer.
func (n *Node) Producer() *catalog.Producer { return n.producer }

// Recipe returns the node's recipe.
func (n *Node) Recipe() *catalog.Recipe { return n.recipe }

// Count returns the number of units.
func (n *Node) Count() int { return n.count }

// Throughput returns the throughput percentage.
func (n *Node) Throughput() float64 { return n.throughput }

// Tier returns the extraction tier.
func (n *Node) Tier() int { return n.tier }

// Purity returns the miner purity, NA for non-miners.
func (n *Node) Purity() Purity { return n.purity }

// Clamp returns the node's clamp, if any.
func (n *Node) Clamp() (Clamp, bool) {
	if n.clamp == nil {
		return Clamp{}, false
	}
	return *n.clamp, true
}

// ClampForced reports whether the last solve had to clamp throughput, so the
// achieved rate differs from the requested one.
func (n *Node) ClampForced() bool { return n.forced }

// Ingredients returns a copy of the net per-minute rate of each ingredient:
// negative for consumption, positive for production.
func (n *Node) Ingredients() map[string]float64 { return maps.Clone(n.ingredients) }

// Rate returns the net per-minute rate of one ingredient.
func (n *Node) Rate(ingredient string) float64 { return n.ingredients[ingredient] }

// Power returns the node's power draw in MW.
func (n *Node) Power() float64 { return n.power }

// PowerKnown reports whether Power is meaningful. Power generators have no
// formula and always report zero.
func (n *Node) PowerKnown() bool { return !n.producer.IsPowerGenerator }

// EmbeddedPower returns the aggregate power captured from a module's subtree.
func (n *Node) EmbeddedPower() float64 { return n.embeddedPower }

// DuplicatePartially returns a fresh node with the same producer, recipe and
// tier and default tunables otherwise.
func (n *Node) DuplicatePartially() *Node {
	if n.kind == KindSummary {
		return NewSummary(n.producer)
	}
	d := New(n.producer, n.recipe, WithTier(n.tier))
	d.embeddedPower = n.embeddedPower
	d.Recompute()
	return d
}
