package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/tree"
)

// Checksum is the content hash of a serialized tree.
type Checksum [blake2b.Size256]byte

// Sum hashes serialized document content.
func Sum(data []byte) Checksum {
	return blake2b.Sum256(data)
}

// String returns a short hex prefix for logs.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:6])
}

// Chunk binds a tree to an optional target file, with the checksum of its
// content and the modification time of the file it was last read from or
// written to.
type Chunk struct {
	Target   *DataFile
	Data     *tree.Tree
	Checksum Checksum
	MTime    time.Time

	fs    afero.Fs
	codec *document.Codec
}

// NewChunk returns a chunk holding an empty tree.
func NewChunk(fsys afero.Fs, codec *document.Codec, target *DataFile) *Chunk {
	c := &Chunk{Target: target, fs: fsys, codec: codec}
	// Encoding an empty tree cannot fail.
	_ = c.SetData(tree.New(codec.Catalog().Summary()))
	return c
}

// SetData replaces the chunk's tree and recomputes its checksum.
func (c *Chunk) SetData(t *tree.Tree) error {
	data, err := c.codec.Encode(t)
	if err != nil {
		return err
	}
	c.Data = t
	c.Checksum = Sum(data)
	return nil
}

// Sum returns the checksum of the chunk's tree as it is now.
func (c *Chunk) Sum() (Checksum, error) {
	data, err := c.codec.Encode(c.Data)
	if err != nil {
		return Checksum{}, err
	}
	return Sum(data), nil
}

// Load reads and parses the target. It returns ErrNoTarget without a
// target, an error wrapping ErrNotFound when the file is absent, and a
// *ParseError when it cannot be parsed. The chunk is unchanged on error.
func (c *Chunk) Load() error {
	if c.Target == nil {
		return ErrNoTarget
	}
	path := c.Target.FullPath()
	data, err := afero.ReadFile(c.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	t, err := c.codec.Decode(data)
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	info, err := c.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	c.Data = t
	c.Checksum = Sum(data)
	c.MTime = info.ModTime()
	return nil
}

// Save writes the chunk's tree to its target.
func (c *Chunk) Save() error {
	data, err := c.codec.Encode(c.Data)
	if err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		return err
	}
	c.Checksum = Sum(data)
	return nil
}

// store writes already serialized content and adopts an independent copy
// of it as the chunk's tree.
func (c *Chunk) store(data []byte) error {
	t, err := c.codec.Decode(data)
	if err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		return err
	}
	c.Data = t
	c.Checksum = Sum(data)
	return nil
}

func (c *Chunk) write(data []byte) error {
	if c.Target == nil {
		return ErrNoTarget
	}
	path := c.Target.FullPath()
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if info, err := c.fs.Stat(path); err == nil {
		c.MTime = info.ModTime()
	}
	return nil
}
