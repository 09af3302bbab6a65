// Package tree arranges nodes into a document tree with visibility and
// expansion, flattens it into addressable rows, keeps per-subtree summary
// aggregates current, and embeds module documents by reference.
package tree

import (
	"slices"

	"github.com/papapumpkin/foundry/internal/node"
)

// Instance places a node in the tree. Children are owned; the parent link is
// a back-reference maintained by the tree-editing methods.
type Instance struct {
	Node     *node.Node
	Children []*Instance

	Shown    bool
	Expanded bool

	// FromModule marks instances expanded from a module document. They are
	// read-only: not persisted with the embedding document, not movable.
	FromModule bool

	// Row and Level are assigned by the last flattening pass.
	Row   int
	Level int

	parent *Instance
}

// NewInstance wraps n in a shown, expanded instance owning children.
func NewInstance(n *node.Node, children ...*Instance) *Instance {
	inst := &Instance{Node: n, Shown: true, Expanded: true}
	inst.adopt(children)
	return inst
}

func (i *Instance) adopt(children []*Instance) {
	for _, c := range children {
		c.parent = i
	}
	i.Children = append(i.Children, children...)
}

// Parent returns the enclosing instance, or nil for a root.
func (i *Instance) Parent() *Instance { return i.parent }

// Ancestors returns the chain of parents from the immediate parent up to
// the root.
func (i *Instance) Ancestors() []*Instance {
	var out []*Instance
	for p := i.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// AddChildren inserts instances at index at, or appends them when at is out
// of range.
func (i *Instance) AddChildren(at int, instances ...*Instance) {
	if at < 0 || at > len(i.Children) {
		at = len(i.Children)
	}
	for _, c := range instances {
		c.parent = i
	}
	i.Children = slices.Insert(i.Children, at, instances...)
}

// InsertAfter inserts instances into i's parent directly after i. A root
// receives them as its first children.
func (i *Instance) InsertAfter(instances ...*Instance) {
	if i.parent == nil {
		i.AddChildren(0, instances...)
		return
	}
	i.parent.AddChildren(i.parent.index(i)+1, instances...)
}

func (i *Instance) index(child *Instance) int {
	return slices.Index(i.Children, child)
}

// Remove detaches child. It reports false when child is not a direct child.
func (i *Instance) Remove(child *Instance) bool {
	idx := i.index(child)
	if idx < 0 {
		return false
	}
	i.Children = slices.Delete(i.Children, idx, idx+1)
	child.parent = nil
	return true
}

// ClearChildren detaches every child.
func (i *Instance) ClearChildren() {
	for _, c := range i.Children {
		c.parent = nil
	}
	i.Children = nil
}

// ShiftChild moves child by offset positions among its siblings, stopping
// at either end. It reports false when child is not a direct child.
func (i *Instance) ShiftChild(child *Instance, offset int) bool {
	idx := i.index(child)
	if idx < 0 {
		return false
	}
	if offset == 0 {
		return true
	}
	i.Children = slices.Delete(i.Children, idx, idx+1)
	to := max(0, min(idx+offset, len(i.Children)))
	i.Children = slices.Insert(i.Children, to, child)
	return true
}

// ShowHide toggles visibility. Roots are always shown.
func (i *Instance) ShowHide() {
	i.SetShown(!i.Shown)
}

// SetShown sets visibility. Showing an instance shows every ancestor so the
// instance has a visible path to the root; hiding affects only i.
func (i *Instance) SetShown(shown bool) {
	if i.parent == nil {
		i.Shown = true
		return
	}
	i.Shown = shown
	if shown {
		i.parent.SetShown(true)
	}
}

// Expand shows i's children in the flattened rows.
func (i *Instance) Expand() { i.Expanded = true }

// Collapse hides i's children from the flattened rows.
func (i *Instance) Collapse() { i.Expanded = false }

// ToggleExpanded flips the expansion state.
func (i *Instance) ToggleExpanded() { i.Expanded = !i.Expanded }

// UpdateSummaries recomputes every summary node in the subtree, children
// before parents.
func (i *Instance) UpdateSummaries() {
	for _, c := range i.Children {
		c.UpdateSummaries()
	}
	i.summarize()
}

func (i *Instance) summarize() {
	if !i.Node.IsSummary() {
		return
	}
	nodes := make([]*node.Node, len(i.Children))
	for k, c := range i.Children {
		nodes[k] = c.Node
	}
	// Summarize only fails for non-summary nodes.
	_ = i.Node.Summarize(nodes)
}

// MarkFromModule flags the whole subtree as expanded from a module.
func (i *Instance) MarkFromModule() {
	i.FromModule = true
	for _, c := range i.Children {
		c.MarkFromModule()
	}
}

// Walk visits i and its descendants depth-first in pre-order. Returning
// false from fn skips the visited instance's children.
func (i *Instance) Walk(fn func(*Instance) bool) {
	if !fn(i) {
		return
	}
	for _, c := range i.Children {
		c.Walk(fn)
	}
}
