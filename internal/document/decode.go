package document

import (
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/tree"
)

// alternatePrefix names the alternate variant of a recipe.
const alternatePrefix = "Alternate: "

// Decode parses a document into a tree. Besides the current form it accepts
// an empty document, a bare sequence of !node records, and the legacy field
// names clock_rate, mk and cycle_rate. Every summary is recomputed from its
// children before Decode returns.
func (c *Codec) Decode(data []byte) (*tree.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return tree.New(c.catalog.Summary()), nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		return tree.New(c.catalog.Summary()), nil
	case root.Kind != yaml.SequenceNode:
		return nil, malformed(root.Line, "expected a %s sequence, got %s", TagTree, root.ShortTag())
	}

	instances := make([]*tree.Instance, 0, len(root.Content))
	for _, item := range root.Content {
		inst, err := c.decodeEntry(item)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return tree.New(c.catalog.Summary(), instances...), nil
}

// decodeEntry accepts an !instance record, or a bare !node record from
// documents predating instances.
func (c *Codec) decodeEntry(n *yaml.Node) (*tree.Instance, error) {
	if n.Tag == TagNode {
		nd, err := c.decodeNode(n)
		if err != nil {
			return nil, err
		}
		return tree.NewInstance(nd), nil
	}
	return c.decodeInstance(n)
}

func (c *Codec) decodeInstance(n *yaml.Node) (*tree.Instance, error) {
	if n.Kind != yaml.MappingNode {
		return nil, malformed(n.Line, "expected an %s mapping", TagInstance)
	}
	fields := fieldsOf(n)

	mainNode, ok := fields["main"]
	if !ok {
		return nil, malformed(n.Line, "instance without main node")
	}
	var main *node.Node
	var err error
	switch mainNode.Tag {
	case TagSummary, TagRecipe:
		main, err = c.decodeSummary(mainNode)
	default:
		main, err = c.decodeNode(mainNode)
	}
	if err != nil {
		return nil, err
	}

	inst := tree.NewInstance(main)
	if inst.Shown, err = boolField(fields, "shown", true); err != nil {
		return nil, err
	}
	if inst.Expanded, err = boolField(fields, "expanded", true); err != nil {
		return nil, err
	}

	if children, ok := fields["children"]; ok && !isNull(children) {
		if children.Kind != yaml.SequenceNode {
			return nil, malformed(children.Line, "children must be a sequence")
		}
		for _, item := range children.Content {
			child, err := c.decodeEntry(item)
			if err != nil {
				return nil, err
			}
			inst.AddChildren(-1, child)
		}
	}
	return inst, nil
}

func (c *Codec) decodeNode(n *yaml.Node) (*node.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, malformed(n.Line, "expected a %s mapping", TagNode)
	}
	fields := fieldsOf(n)

	producerName, err := stringField(fields, "producer")
	if err != nil {
		return nil, err
	}
	p, err := c.catalog.Producer(producerName)
	if err != nil {
		return nil, malformed(n.Line, "%v", err)
	}
	recipeName, err := stringField(fields, "recipe")
	if err != nil {
		return nil, err
	}

	var opts []node.Option
	count, err := numberField(fields, 1, "count")
	if err != nil {
		return nil, err
	}
	opts = append(opts, node.WithCount(int(count)))

	pct, err := numberField(fields, 100, "throughput_pct", "clock_rate")
	if err != nil {
		return nil, err
	}
	opts = append(opts, node.WithThroughput(pct))

	tier, err := numberField(fields, 1, "tier", "mk")
	if err != nil {
		return nil, err
	}
	opts = append(opts, node.WithTier(int(tier)))

	rawPurity, err := numberField(fields, float64(node.PurityNA), "purity")
	if err != nil {
		return nil, err
	}
	purity, err := node.ParsePurity(int(rawPurity))
	if err != nil {
		return nil, malformed(n.Line, "%v", err)
	}
	opts = append(opts, node.WithPurity(purity))

	nd := node.New(p, c.lookupRecipe(p, recipeName), opts...)

	if clampNode, ok := fields["clamp"]; ok && !isNull(clampNode) {
		if clampNode.Kind != yaml.MappingNode || len(clampNode.Content) != 2 {
			return nil, malformed(clampNode.Line, "clamp must map one ingredient to its target")
		}
		var target float64
		if err := clampNode.Content[1].Decode(&target); err != nil {
			return nil, malformed(clampNode.Line, "clamp target: %v", err)
		}
		err := nd.SetClamp(clampNode.Content[0].Value, target)
		if err != nil && !errors.Is(err, node.ErrClampUnsupported) {
			return nil, err
		}
	}
	return nd, nil
}

// lookupRecipe resolves a stored recipe name. Module nodes name their module
// directly. Other names are tried as written, then as their alternate; an
// unknown recipe becomes a placeholder so the document still opens.
func (c *Codec) lookupRecipe(p *catalog.Producer, name string) *catalog.Recipe {
	if p.IsModule {
		if r, ok := p.Recipe(name); ok {
			return r
		}
		return catalog.EmptyRecipe(name)
	}
	name = strings.TrimSpace(strings.TrimPrefix(name, "!"))
	if r, ok := p.Recipe(name); ok {
		return r
	}
	if r, ok := p.Recipe(alternatePrefix + name); ok {
		return r
	}
	return catalog.PlaceholderRecipe(name)
}

func (c *Codec) decodeSummary(n *yaml.Node) (*node.Node, error) {
	r, err := decodeRecipe(n)
	if err != nil {
		return nil, err
	}
	s := node.NewSummary(c.catalog.Summary())
	if err := s.SetSummaryRecipe(r); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeRecipe(n *yaml.Node) (*catalog.Recipe, error) {
	if n.Kind != yaml.MappingNode {
		return nil, malformed(n.Line, "expected a %s mapping", TagSummary)
	}
	fields := fieldsOf(n)

	r := &catalog.Recipe{}
	if v, ok := fields["name"]; ok && !isNull(v) {
		r.Name = v.Value
	}
	var err error
	if r.CycleTime, err = numberField(fields, 60, "cycle_time", "cycle_rate"); err != nil {
		return nil, err
	}
	if r.IsAlternate, err = boolField(fields, "is_alternate", false); err != nil {
		return nil, err
	}
	if r.Inputs, err = decodeIngredients(fields["inputs"]); err != nil {
		return nil, err
	}
	if r.Outputs, err = decodeIngredients(fields["outputs"]); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeIngredients(n *yaml.Node) ([]catalog.Ingredient, error) {
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(n.Line, "ingredients must be a sequence")
	}
	list := make([]catalog.Ingredient, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
			return nil, malformed(item.Line, "expected %s [count, name]", TagIngredient)
		}
		var count float64
		if err := item.Content[0].Decode(&count); err != nil {
			return nil, malformed(item.Line, "ingredient count: %v", err)
		}
		list = append(list, catalog.Ingredient{Name: item.Content[1].Value, Count: count})
	}
	return list, nil
}

func fieldsOf(n *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = n.Content[i+1]
	}
	return fields
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func stringField(fields map[string]*yaml.Node, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v.Kind != yaml.ScalarNode {
		line := 0
		if ok {
			line = v.Line
		}
		return "", malformed(line, "missing %s", key)
	}
	return v.Value, nil
}

// numberField reads the first of keys present, or returns def.
func numberField(fields map[string]*yaml.Node, def float64, keys ...string) (float64, error) {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || isNull(v) {
			continue
		}
		var f float64
		if err := v.Decode(&f); err != nil {
			return 0, malformed(v.Line, "%s: %v", key, err)
		}
		return f, nil
	}
	return def, nil
}

func boolField(fields map[string]*yaml.Node, key string, def bool) (bool, error) {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return def, nil
	}
	var b bool
	if err := v.Decode(&b); err != nil {
		return false, malformed(v.Line, "%s: %v", key, err)
	}
	return b, nil
}
