package node

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/foundry/internal/catalog"
)

// ErrNoClamp is returned when editing the clamp target of an unclamped node.
var ErrNoClamp = errors.New("node has no clamp")

// Field names an editable numeric tunable.
type Field int

const (
	FieldCount      Field = iota // number of units
	FieldThroughput              // throughput percentage
	FieldTier                    // extraction tier
	FieldPurity                  // purity edit level, 1 Impure .. 3 Pure
	FieldClamp                   // clamp target rate
)

// String returns the field's column name.
func (f Field) String() string {
	switch f {
	case FieldCount:
		return "count"
	case FieldThroughput:
		return "throughput"
	case FieldTier:
		return "tier"
	case FieldPurity:
		return "purity"
	case FieldClamp:
		return "clamp"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// SetField sets a numeric tunable. Out-of-range values are clamped, and the
// returned bool is false when that happened. For FieldClamp it is false when
// the target could not be reached.
func (n *Node) SetField(f Field, v float64) (bool, error) {
	switch f {
	case FieldCount:
		return n.SetCount(int(v))
	case FieldThroughput:
		return n.SetThroughput(v)
	case FieldTier:
		return n.SetTier(int(v))
	case FieldPurity:
		if !n.producer.IsMiner {
			return false, n.editable()
		}
		return n.SetPurity(PurityFromLevel(int(v)))
	case FieldClamp:
		if err := n.editable(); err != nil {
			return false, err
		}
		if n.clamp == nil {
			return false, ErrNoClamp
		}
		if err := n.SetClamp(n.clamp.Ingredient, v); err != nil {
			return false, err
		}
		return !n.forced, nil
	}
	return false, fmt.Errorf("unknown field %s", f)
}

func (n *Node) editable() error {
	if n.kind == KindSummary {
		return ErrReadOnly
	}
	return nil
}

// SetCount sets the number of units, clamped to [0, MaxCount].
func (n *Node) SetCount(count int) (bool, error) {
	if err := n.editable(); err != nil {
		return false, err
	}
	n.count = count
	exact := n.normalize()
	n.Recompute()
	return exact, nil
}

// SetThroughput sets the throughput percentage, clamped to
// [0, MaxThroughput]. An explicit throughput replaces any clamp.
func (n *Node) SetThroughput(pct float64) (bool, error) {
	if err := n.editable(); err != nil {
		return false, err
	}
	n.clamp = nil
	n.throughput = pct
	exact := n.normalize()
	n.Recompute()
	return exact, nil
}

// SetTier sets the extraction tier, clamped to [1, producer max tier].
func (n *Node) SetTier(tier int) (bool, error) {
	if err := n.editable(); err != nil {
		return false, err
	}
	n.tier = tier
	exact := n.normalize()
	n.Recompute()
	return exact, nil
}

// SetPurity sets the miner purity. Non-miners are forced to NA and miners
// to a defined, non-NA purity.
func (n *Node) SetPurity(p Purity) (bool, error) {
	if err := n.editable(); err != nil {
		return false, err
	}
	n.purity = p
	exact := n.normalize()
	n.Recompute()
	return exact, nil
}

// SetClamp pins ingredient to target and solves throughput for it.
// Power generators and ingredients outside the recipe cannot be clamped.
func (n *Node) SetClamp(ingredient string, target float64) error {
	if err := n.editable(); err != nil {
		return err
	}
	if n.producer.IsPowerGenerator {
		return fmt.Errorf("%w: %s is a power generator", ErrClampUnsupported, n.producer.Name)
	}
	_, isIn := n.recipe.Input(ingredient)
	_, isOut := n.recipe.Output(ingredient)
	if !isIn && !isOut {
		return fmt.Errorf("%w: %q is not part of recipe %q", ErrClampUnsupported, ingredient, n.recipe.Name)
	}
	n.clamp = &Clamp{Ingredient: ingredient, Target: target}
	n.requested = target
	n.Recompute()
	return nil
}

// ClearClamp removes the clamp, keeping the solved throughput.
func (n *Node) ClearClamp() {
	if n.clamp == nil {
		return
	}
	n.clamp = nil
	n.Recompute()
}

// SetProducer switches the producer. The recipe and purity last used with
// that producer on this node are restored; otherwise the producer's default
// recipe and purity apply.
func (n *Node) SetProducer(p *catalog.Producer) error {
	if err := n.editable(); err != nil {
		return err
	}
	n.producer = p
	if !p.HasRecipe(n.recipe) {
		r, ok := n.recipeCache[p.Name]
		if !ok {
			r = p.DefaultRecipe()
		}
		n.recipe = r
	}
	n.recipeCache[p.Name] = n.recipe

	if cached, ok := n.purityCache[p.Name]; ok {
		n.purity = cached
	} else {
		n.purity = PurityNormal
	}
	if n.clamp != nil && !n.recipeHas(n.clamp.Ingredient) {
		n.clamp = nil
	}
	n.embeddedPower = 0
	n.normalize()
	n.Recompute()
	return nil
}

// SetRecipe selects a recipe. A clamp on an ingredient the new recipe does
// not use is dropped.
func (n *Node) SetRecipe(r *catalog.Recipe) error {
	if err := n.editable(); err != nil {
		return err
	}
	n.setRecipe(r)
	if n.clamp != nil && !n.recipeHas(n.clamp.Ingredient) {
		n.clamp = nil
	}
	n.Recompute()
	return nil
}

func (n *Node) recipeHas(ingredient string) bool {
	_, isIn := n.recipe.Input(ingredient)
	_, isOut := n.recipe.Output(ingredient)
	return isIn || isOut
}

// SetModule binds a module node to the aggregate recipe and power of its
// freshly loaded subtree.
func (n *Node) SetModule(r *catalog.Recipe, power float64) error {
	if err := n.editable(); err != nil {
		return err
	}
	if !n.producer.IsModule {
		return fmt.Errorf("set module on %s: not a module node", n.producer.Name)
	}
	n.setRecipe(r)
	n.embeddedPower = power
	n.Recompute()
	return nil
}
