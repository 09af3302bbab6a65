package tree

import (
	"slices"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/node"
)

// Tree is a document: a root instance whose summary node aggregates the
// whole tree, plus the row tables produced by the last flattening pass.
type Tree struct {
	Root *Instance

	rows   []*Instance
	owners []*Instance
}

// New returns a tree whose root summary, backed by summary, owns instances.
// Summaries are computed before New returns.
func New(summary *catalog.Producer, instances ...*Instance) *Tree {
	root := NewInstance(node.NewSummary(summary), instances...)
	t := &Tree{Root: root}
	root.UpdateSummaries()
	return t
}

// FromNodes returns a tree of leaf instances wrapping nodes.
func FromNodes(summary *catalog.Producer, nodes ...*node.Node) *Tree {
	instances := make([]*Instance, len(nodes))
	for i, n := range nodes {
		instances[i] = NewInstance(n)
	}
	return New(summary, instances...)
}

// Nodes flattens the tree into its visible rows and rebuilds the row tables.
//
// The traversal is depth-first pre-order. Hidden instances and their
// subtrees produce no rows, and collapsed instances hide their descendants.
// Every summary node in the tree is recomputed after its children within
// the same pass, visible or not. Row 0 is always the root.
func (t *Tree) Nodes() []*Instance {
	t.rows = t.rows[:0]
	t.owners = t.owners[:0]
	t.flatten(t.Root, 0, t.Root)
	return slices.Clone(t.rows)
}

func (t *Tree) flatten(i *Instance, level int, owner *Instance) {
	if level > 0 && !i.Shown {
		i.Row = max(0, len(t.rows)-1)
		i.UpdateSummaries()
		return
	}
	if level == 1 {
		owner = i
	}
	i.Level = level
	i.Row = len(t.rows)
	t.rows = append(t.rows, i)
	t.owners = append(t.owners, owner)

	for _, c := range i.Children {
		if i.Expanded {
			t.flatten(c, level+1, owner)
		} else {
			c.UpdateSummaries()
		}
	}
	i.summarize()
}

// Len returns the number of rows from the last flattening pass.
func (t *Tree) Len() int { return len(t.rows) }

// Row returns the instance displayed at row, clamping row into range. It
// returns nil before the first flattening pass.
func (t *Tree) Row(row int) *Instance {
	if len(t.rows) == 0 {
		return nil
	}
	return t.rows[clampRow(row, len(t.rows))]
}

// Owner returns the top-level instance whose subtree contains row. Row 0
// resolves to the root.
func (t *Tree) Owner(row int) *Instance {
	if len(t.owners) == 0 {
		return nil
	}
	return t.owners[clampRow(row, len(t.owners))]
}

func clampRow(row, n int) int {
	return max(0, min(row, n-1))
}

// RemoveRow removes the top-level subtree owning row. Removing row 0 clears
// the whole tree. The row tables are stale until the next call to Nodes.
func (t *Tree) RemoveRow(row int) bool {
	owner := t.Owner(row)
	if owner == nil {
		return false
	}
	if owner == t.Root {
		t.Root.ClearChildren()
		return true
	}
	return t.Root.Remove(owner)
}

// ShiftRow moves the top-level subtree owning row by offset positions.
func (t *Tree) ShiftRow(row, offset int) bool {
	owner := t.Owner(row)
	if owner == nil || owner == t.Root {
		return false
	}
	return t.Root.ShiftChild(owner, offset)
}

// Recipe returns the root aggregate: the net flows of the whole tree.
func (t *Tree) Recipe() *catalog.Recipe { return t.Root.Node.Recipe() }

// Power returns the aggregate power of the whole tree.
func (t *Tree) Power() float64 { return t.Root.Node.Power() }

// UpdateSummaries recomputes every summary node bottom-up.
func (t *Tree) UpdateSummaries() { t.Root.UpdateSummaries() }

// CollectModules returns the sorted identifiers of every module reachable
// from the root, including modules nested inside loaded modules.
func (t *Tree) CollectModules() []string {
	seen := make(map[string]struct{})
	t.Root.Walk(func(i *Instance) bool {
		if i.Node.IsModule() {
			seen[i.Node.Recipe().Name] = struct{}{}
		}
		return true
	})
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
