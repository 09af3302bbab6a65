// Package module discovers module documents under the data root and loads
// them for embedding into other trees.
//
// A Registry is an explicit last-write-wins cache from module identifier to
// the module's document, aggregate recipe and parsed tree. It implements
// tree.ModuleLoader, and it publishes every module's aggregate recipe on the
// catalog's Module producer so a module can be selected like any recipe.
// A Registry is not safe for concurrent use.
package module

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/storage"
	"github.com/papapumpkin/foundry/internal/tree"
)

// Entry is a cached module.
type Entry struct {
	ID     string
	File   storage.DataFile
	Recipe *catalog.Recipe
	// Tree is the module's own tree with nested modules expanded. Only Load
	// and Rescan set it; a module recorded while expanding another document
	// has its tree embedded in that document and leaves Tree unchanged,
	// nil for a module not loaded on its own. It must not be modified.
	Tree *tree.Tree
	// Err holds the failures met while expanding nested modules.
	Err error
}

// Registry caches module documents found under a data root.
type Registry struct {
	root    *storage.Root
	codec   *document.Codec
	catalog *catalog.Catalog
	logger  *slog.Logger

	files   map[string]storage.DataFile
	entries map[string]*Entry
}

// NewRegistry returns an empty registry reading from root. A nil logger
// discards output.
func NewRegistry(root *storage.Root, codec *document.Codec, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		root:    root,
		codec:   codec,
		catalog: codec.Catalog(),
		logger:  logger,
		files:   make(map[string]storage.DataFile),
		entries: make(map[string]*Entry),
	}
}

// Rescan walks the data root for documents, skipping dot-directories, and
// caches each one as a module. Module recipes on the catalog are replaced
// by the scanned set. Documents that fail to load are skipped and their
// errors joined; module cycles are recorded on the entry and logged.
func (r *Registry) Rescan() error {
	files, err := r.scan()
	if err != nil {
		return err
	}
	r.files = files
	r.entries = make(map[string]*Entry, len(files))

	var errs []error
	for _, id := range r.IDs() {
		if _, err := r.load(id, true); err != nil {
			errs = append(errs, err)
		}
	}
	r.publish()
	r.logger.Info("modules scanned", "count", len(r.entries), "dir", r.root.Dir)
	return errors.Join(errs...)
}

func (r *Registry) scan() (map[string]storage.DataFile, error) {
	files := make(map[string]storage.DataFile)
	err := afero.Walk(r.root.Fs, r.root.Dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != r.root.Dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != storage.DocumentExt {
			return nil
		}
		df, err := r.root.Resolve(path)
		if err != nil {
			return err
		}
		if prev, dup := files[df.ModuleID()]; dup {
			r.logger.Warn("duplicate module id", "module", df.ModuleID(), "kept", prev.Subpath, "ignored", df.Subpath)
			return nil
		}
		files[df.ModuleID()] = df
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return files, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", r.root.Dir, err)
	}
	return files, nil
}

// LoadModule reads module id from disk and returns a fresh tree owned by
// the caller. Nested modules are left for the caller to expand. A module
// with no document returns an error wrapping tree.ErrModuleMissing.
func (r *Registry) LoadModule(id string) (*tree.Tree, error) {
	chunk, err := r.read(id)
	if err != nil {
		return nil, err
	}
	return chunk.Data, nil
}

// RecordModule caches the aggregate recipe of module id, computed by the
// caller after expanding the module's nested modules, and publishes it.
// The entry's Tree is left as is.
func (r *Registry) RecordModule(id string, recipe *catalog.Recipe) {
	e, ok := r.entries[id]
	if !ok {
		e = &Entry{ID: id, File: r.files[id]}
		r.entries[id] = e
	}
	e.Recipe = recipe
	r.catalog.Module().ReplaceRecipe(recipe)
}

func (r *Registry) read(id string) (*storage.Chunk, error) {
	df, ok := r.files[id]
	if !ok {
		resolved, err := r.root.Resolve(id)
		if err != nil {
			return nil, err
		}
		df = resolved
	}
	chunk := storage.NewChunk(r.root.Fs, r.codec, &df)
	if err := chunk.Load(); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", tree.ErrModuleMissing, err)
		}
		return nil, err
	}
	r.files[id] = df
	return chunk, nil
}

// Load reads module id, expands its nested modules and caches the result,
// overwriting any previous entry.
func (r *Registry) Load(id string) (*Entry, error) {
	e, err := r.load(id, false)
	if err != nil {
		return nil, err
	}
	r.catalog.Module().ReplaceRecipe(e.Recipe)
	return e, nil
}

func (r *Registry) load(id string, quiet bool) (*Entry, error) {
	chunk, err := r.read(id)
	if err != nil {
		r.logger.Warn("module failed to load", "module", id, "err", err)
		return nil, err
	}
	t := chunk.Data
	reloadErr := t.ReloadModules(r, []string{id})
	if reloadErr != nil && !quiet {
		r.logger.Warn("module has broken modules", "module", id, "err", reloadErr)
	} else if reloadErr != nil {
		r.logger.Debug("module has broken modules", "module", id, "err", reloadErr)
	}

	recipe := t.Recipe().Clone()
	recipe.Name = id
	e := &Entry{ID: id, File: *chunk.Target, Recipe: recipe, Tree: t, Err: reloadErr}
	r.entries[id] = e
	return e, nil
}

// publish replaces the Module producer's recipes with the cached set.
func (r *Registry) publish() {
	recipes := []*catalog.Recipe{catalog.EmptyRecipe("")}
	for _, id := range r.Cached() {
		recipes = append(recipes, r.entries[id].Recipe)
	}
	r.catalog.Module().SetRecipes(recipes)
}

// Get returns the cached entry for module id.
func (r *Registry) Get(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// IDs returns the sorted identifiers of every module document found by the
// last scan or load.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.files))
	for id := range r.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Cached returns the sorted identifiers of the cached entries.
func (r *Registry) Cached() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
