// Package storage persists tree documents.
//
// A Sink pairs two Chunks: staging, bound to the live editable tree, and
// sink, mirroring the last content saved to the user's named document.
// The document is dirty exactly when the two contents hash differently.
// Staging content is periodically committed to a recovery file, separate
// from the named document, so unsaved edits survive a crash without being
// mistaken for a save.
//
// All filesystem access goes through an afero.Fs.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/tree"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrNoTarget is returned when saving or loading a chunk without a target.
var ErrNoTarget = errors.New("no target document")

// ErrSaveCycle is returned when saving a tree into a document that one of
// its modules refers to.
var ErrSaveCycle = errors.New("save would create a module cycle")

// ParseError reports a document that exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error { return e.Err }

// SaveCycleError reports a refused save. Saving would make Target include
// itself through one of Modules on the next open.
type SaveCycleError struct {
	Target  string
	Modules []string
}

// Error implements error.
func (e *SaveCycleError) Error() string {
	return fmt.Sprintf("%s: %s is among its modules [%s]", ErrSaveCycle, e.Target, strings.Join(e.Modules, ", "))
}

// Unwrap returns ErrSaveCycle.
func (e *SaveCycleError) Unwrap() error { return ErrSaveCycle }

// Copy returns an independent copy of t made by serializing and parsing it.
// Module contents are not copied; reload them on the copy if needed.
func Copy(codec *document.Codec, t *tree.Tree) (*tree.Tree, error) {
	data, err := codec.Encode(t)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}
