package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// SidecarExt is appended to a staging file's name to form the path of the
// file remembering that session's named target.
const SidecarExt = ".sink"

type sidecar struct {
	Target string `toml:"target"`
}

func readSidecar(fsys afero.Fs, path string) (sidecar, error) {
	var sc sidecar
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return sc, nil
	}
	if err != nil {
		return sc, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sc, nil
}

func writeSidecar(fsys afero.Fs, path string, sc sidecar) error {
	data, err := toml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
