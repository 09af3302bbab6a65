// Package document reads and writes tree documents as tagged YAML.
//
// A document is a !tree sequence of !instance mappings. Each instance holds
// its visibility, its main node (a !node record, or a !summary record for
// computed aggregates) and its children. Ingredient entries are written as
// two-element !ingredient sequences of count and name.
//
//	!tree
//	- !instance
//	  shown: true
//	  expanded: true
//	  main: !node
//	    producer: Smelter
//	    recipe: Iron Ingot
//	    count: 2
//	    throughput_pct: 100
//	    tier: 1
//	    purity: 0
//	  children: []
//
// The contents of module instances are not written; the module's own
// document is their source of truth and they are reloaded on open.
package document

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/foundry/internal/catalog"
)

// ErrMalformed is returned when a document cannot be parsed.
var ErrMalformed = errors.New("malformed document")

// Tags used in documents.
const (
	TagTree       = "!tree"
	TagInstance   = "!instance"
	TagNode       = "!node"
	TagSummary    = "!summary"
	TagRecipe     = "!recipe"
	TagIngredient = "!ingredient"
)

// Codec converts between trees and their document form, resolving
// producers and recipes against a catalog.
type Codec struct {
	catalog *catalog.Catalog
}

// NewCodec returns a codec resolving names against c.
func NewCodec(c *catalog.Catalog) *Codec {
	return &Codec{catalog: c}
}

// Catalog returns the catalog the codec resolves against.
func (c *Codec) Catalog() *catalog.Catalog { return c.catalog }

func malformed(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, line, fmt.Sprintf(format, args...))
}
