package document

import (
	"bytes"
	"fmt"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/tree"
)

// Encode serializes t. The root summary is not written; it is recomputed
// on decode.
func (c *Codec) Encode(t *tree.Tree) ([]byte, error) {
	doc := seq(TagTree)
	for _, inst := range t.Root.Children {
		if inst.FromModule {
			continue
		}
		doc.Content = append(doc.Content, encodeInstance(inst))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeInstance(inst *tree.Instance) *yaml.Node {
	children := seq("")
	if !inst.Node.IsModule() {
		for _, c := range inst.Children {
			if c.FromModule {
				continue
			}
			children.Content = append(children.Content, encodeInstance(c))
		}
	}
	if len(children.Content) == 0 {
		children.Style = yaml.FlowStyle
	}

	var main *yaml.Node
	if inst.Node.IsSummary() {
		main = encodeRecipe(TagSummary, inst.Node.Recipe())
	} else {
		main = encodeNode(inst.Node)
	}

	return mapping(TagInstance,
		str("shown"), boolean(inst.Shown),
		str("expanded"), boolean(inst.Expanded),
		str("main"), main,
		str("children"), children,
	)
}

func encodeNode(n *node.Node) *yaml.Node {
	m := mapping(TagNode,
		str("producer"), str(n.Producer().Name),
		str("recipe"), str(n.Recipe().Name),
		str("count"), integer(n.Count()),
		str("throughput_pct"), number(n.Throughput()),
		str("tier"), integer(n.Tier()),
		str("purity"), integer(int(n.Purity())),
	)
	if cl, ok := n.Clamp(); ok {
		m.Content = append(m.Content, str("clamp"), mapping("", str(cl.Ingredient), number(cl.Target)))
	}
	return m
}

func encodeRecipe(tag string, r *catalog.Recipe) *yaml.Node {
	return mapping(tag,
		str("name"), str(r.Name),
		str("cycle_time"), number(r.CycleTime),
		str("inputs"), encodeIngredients(r.Inputs),
		str("outputs"), encodeIngredients(r.Outputs),
		str("is_alternate"), boolean(r.IsAlternate),
	)
}

func encodeIngredients(list []catalog.Ingredient) *yaml.Node {
	s := seq("")
	for _, ing := range list {
		entry := seq(TagIngredient, number(ing.Count), str(ing.Name))
		entry.Style = yaml.FlowStyle
		s.Content = append(s.Content, entry)
	}
	if len(s.Content) == 0 {
		s.Style = yaml.FlowStyle
	}
	return s
}

// mapping builds a mapping node from alternating keys and values.
func mapping(tag string, kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: tag, Content: kv}
}

func seq(tag string, items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Content: items}
}

func str(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	return n
}

func number(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

func integer(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(i)}
}

func boolean(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatBool(b)}
}
