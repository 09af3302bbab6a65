package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/papapumpkin/foundry/internal/catalog"
)

// ErrModuleCycle is returned when a module includes itself, directly or
// through other modules.
var ErrModuleCycle = errors.New("recursive modules")

// ErrModuleMissing is returned when a module's document cannot be found.
var ErrModuleMissing = errors.New("module not found")

// CycleError reports a recursive module inclusion.
type CycleError struct {
	// Chain lists module identifiers from the first occurrence of the
	// repeated module to its repetition, e.g. [A B A].
	Chain []string
}

// Error formats the chain as "recursive modules: A > B > A".
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrModuleCycle, strings.Join(e.Chain, " > "))
}

// Unwrap returns ErrModuleCycle.
func (e *CycleError) Unwrap() error { return ErrModuleCycle }

// ModuleLoader loads a module document as an independent tree. Each call
// returns a freshly parsed tree that the caller may take ownership of.
type ModuleLoader interface {
	LoadModule(id string) (*Tree, error)
}

// ModuleRecorder is implemented by loaders that cache module aggregates.
// RecordModule is called with a module's aggregate recipe once its own
// nested modules have been expanded.
type ModuleRecorder interface {
	RecordModule(id string, recipe *catalog.Recipe)
}

// ReloadModules reloads every module instance in the tree from loader.
//
// stack holds the module identifiers already open on the path to this tree,
// normally the identifier of the document itself. A module whose identifier
// is already on the stack is not loaded: its children are cleared and a
// *CycleError naming the chain is reported. Failures abort only the
// offending branch; siblings still load, and all failures are joined.
func (t *Tree) ReloadModules(loader ModuleLoader, stack []string) error {
	errs := reloadChildren(t.Root, loader, stack)
	t.UpdateSummaries()
	return errors.Join(errs...)
}

// SelectModule binds inst to module id and loads it.
func (t *Tree) SelectModule(inst *Instance, id string, loader ModuleLoader, stack []string) error {
	if !inst.Node.IsModule() {
		return fmt.Errorf("select module %q: instance is not a module node", id)
	}
	if err := inst.Node.SetModule(catalog.EmptyRecipe(id), 0); err != nil {
		return err
	}
	err := reloadInstance(inst, id, loader, stack)
	t.UpdateSummaries()
	return err
}

func reloadChildren(parent *Instance, loader ModuleLoader, stack []string) []error {
	var errs []error
	for _, c := range parent.Children {
		if !c.Node.IsModule() {
			errs = append(errs, reloadChildren(c, loader, stack)...)
			continue
		}
		if err := reloadInstance(c, c.Node.Recipe().Name, loader, stack); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// reloadInstance replaces inst's children with a freshly loaded copy of
// module id and recurses into it with id pushed onto the stack. A branch
// that cannot be loaded is cut: the instance keeps no children and
// contributes no flows or power.
func reloadInstance(inst *Instance, id string, loader ModuleLoader, stack []string) error {
	inst.ClearChildren()
	if idx := slices.Index(stack, id); idx >= 0 {
		chain := append(slices.Clone(stack[idx:]), id)
		return cut(inst, id, &CycleError{Chain: chain})
	}

	sub, err := loader.LoadModule(id)
	if err != nil {
		return cut(inst, id, fmt.Errorf("loading module %q: %w", id, err))
	}

	nested := append(slices.Clone(stack), id)
	errs := reloadChildren(sub.Root, loader, nested)
	sub.UpdateSummaries()

	r := sub.Recipe().Clone()
	r.Name = id
	if err := inst.Node.SetModule(r, sub.Power()); err != nil {
		return err
	}
	if rec, ok := loader.(ModuleRecorder); ok {
		rec.RecordModule(id, r.Clone())
	}
	sub.Root.MarkFromModule()
	inst.AddChildren(-1, sub.Root)
	return errors.Join(errs...)
}

// cut empties the module node of an aborted branch so ancestors do not
// count a recipe decoded from a stale aggregate.
func cut(inst *Instance, id string, cause error) error {
	if err := inst.Node.SetModule(catalog.EmptyRecipe(id), 0); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
