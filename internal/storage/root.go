package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// DocumentExt is the extension of tree documents.
const DocumentExt = ".yaml"

// Root is the data directory that portable documents are stored under.
type Root struct {
	Fs  afero.Fs
	Dir string
}

// NewRoot returns a root at dir on fsys. A leading ~ in dir is expanded.
func NewRoot(fsys afero.Fs, dir string) (*Root, error) {
	if dir == "" {
		return nil, errors.New("data directory not set")
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding data directory: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return &Root{Fs: fsys, Dir: abs}, nil
}

// Resolve classifies a user path against the root. Relative paths are taken
// relative to the root. A path inside the root is portable and stored
// root-relative; any other path is external and stored absolute. A path
// without an extension gets DocumentExt.
func (r *Root) Resolve(path string) (DataFile, error) {
	if strings.TrimSpace(path) == "" {
		return DataFile{}, errors.New("empty document path")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return DataFile{}, fmt.Errorf("expanding %s: %w", path, err)
	}
	if filepath.Ext(expanded) == "" {
		expanded += DocumentExt
	}

	full := expanded
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.Dir, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(r.Dir, full)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return DataFile{Root: r.Dir, Subpath: rel}, nil
	}
	return DataFile{Root: filepath.Dir(full), Subpath: filepath.Base(full), External: true}, nil
}

// Exists reports whether df names an existing regular file.
func (r *Root) Exists(df DataFile) bool {
	info, err := r.Fs.Stat(df.FullPath())
	return err == nil && info.Mode().IsRegular()
}

// DataFile is a resolved document location.
type DataFile struct {
	Root     string
	Subpath  string
	External bool
}

// FullPath returns the absolute path of the document.
func (d DataFile) FullPath() string {
	return filepath.Join(d.Root, d.Subpath)
}

// LinkPath returns the form remembered across sessions: root-relative for
// portable documents so they follow the data directory, absolute otherwise.
func (d DataFile) LinkPath() string {
	if d.External {
		return d.FullPath()
	}
	return d.Subpath
}

// ModuleID returns the document's module identifier, the stem of its name.
func (d DataFile) ModuleID() string {
	base := filepath.Base(d.Subpath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// String returns the link path.
func (d DataFile) String() string { return d.LinkPath() }
