package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/tree"
)

// unnamed is the name of a sink without a target.
const unnamed = "<unnamed>"

// SinkConfig holds the collaborators of a Sink.
type SinkConfig struct {
	Root  *Root
	Codec *document.Codec

	// Modules reloads module instances after each load. Nil leaves module
	// instances unexpanded.
	Modules tree.ModuleLoader

	// Staging is the absolute path of the recovery file. Empty disables
	// Commit and the remembered target.
	Staging string

	Logger *slog.Logger
}

// LoadResult describes a completed Sink.Load.
type LoadResult struct {
	// FromStaging is set when pending staged edits were newer than the
	// document and were kept in place of its content.
	FromStaging bool

	// Modules holds module reload failures. The document itself loaded.
	Modules error
}

// Sink owns one open document: the live staging tree and a mirror of the
// document's content on disk.
type Sink struct {
	root    *Root
	codec   *document.Codec
	modules tree.ModuleLoader
	logger  *slog.Logger

	staging *Chunk
	sink    *Chunk
	sidecar string
}

// NewSink returns a sink with an empty staging tree. When cfg.Staging is
// set, the target remembered for that staging file is restored; call Load
// to read any content.
func NewSink(cfg SinkConfig) (*Sink, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Sink{
		root:    cfg.Root,
		codec:   cfg.Codec,
		modules: cfg.Modules,
		logger:  logger,
	}

	var stagingTarget *DataFile
	if cfg.Staging != "" {
		stagingTarget = &DataFile{
			Root:     filepath.Dir(cfg.Staging),
			Subpath:  filepath.Base(cfg.Staging),
			External: true,
		}
		s.sidecar = cfg.Staging + SidecarExt
	}
	s.staging = NewChunk(cfg.Root.Fs, cfg.Codec, stagingTarget)
	s.sink = NewChunk(cfg.Root.Fs, cfg.Codec, nil)

	if s.sidecar != "" {
		sc, err := readSidecar(cfg.Root.Fs, s.sidecar)
		if err != nil {
			return nil, err
		}
		if sc.Target != "" {
			df, err := cfg.Root.Resolve(sc.Target)
			if err != nil {
				return nil, fmt.Errorf("restoring target of %s: %w", cfg.Staging, err)
			}
			s.sink.Target = &df
		}
	}
	return s, nil
}

// Load opens a document. With a path, the named document is read and
// replaces the staging tree. Without one, the remembered target is reread
// and staged edits from the recovery file are kept if they are newer than
// the document.
//
// A missing named document returns an error wrapping ErrNotFound and an
// unparseable one a *ParseError; in both cases the sink is unchanged.
// Module reload failures do not fail the load; they are reported in the
// result.
func (s *Sink) Load(path string) (LoadResult, error) {
	var res LoadResult

	target := s.sink.Target
	if path != "" {
		df, err := s.root.Resolve(path)
		if err != nil {
			return res, err
		}
		if !s.root.Exists(df) {
			return res, fmt.Errorf("%w: %s", ErrNotFound, df.FullPath())
		}
		target = &df
	}

	var recovered *Chunk
	if path == "" && s.staging.Target != nil {
		next := NewChunk(s.root.Fs, s.codec, s.staging.Target)
		switch err := next.Load(); {
		case err == nil:
			recovered = next
		case errors.Is(err, ErrNotFound):
		default:
			return res, err
		}
	}

	disk := NewChunk(s.root.Fs, s.codec, target)
	diskLoaded := false
	if target != nil {
		switch err := disk.Load(); {
		case err == nil:
			diskLoaded = true
		case errors.Is(err, ErrNotFound) && path == "":
			s.logger.Warn("remembered document is missing", "path", target.FullPath())
		default:
			return res, err
		}
	}

	live := disk.Data
	if recovered != nil && (!diskLoaded || recovered.MTime.After(disk.MTime)) {
		res.FromStaging = true
		live = recovered.Data
		s.staging.MTime = recovered.MTime
		s.logger.Info("keeping staged edits", "path", recovered.Target.FullPath(), "staged", recovered.MTime, "saved", disk.MTime)
	} else {
		copied, err := Copy(s.codec, disk.Data)
		if err != nil {
			return res, err
		}
		live = copied
	}

	s.sink = disk
	s.staging.Data = live
	if s.modules != nil {
		// The mirror is expanded too so both sides hash the same aggregates.
		_ = disk.Data.ReloadModules(s.modules, s.stack())
		res.Modules = live.ReloadModules(s.modules, s.stack())
		if res.Modules != nil {
			s.logger.Warn("module reload failed", "name", s.Name(), "err", res.Modules)
		}
	}
	if err := disk.SetData(disk.Data); err != nil {
		return res, err
	}
	live.Nodes()

	if path != "" {
		if err := s.saveSidecar(); err != nil {
			return res, err
		}
	}
	s.logger.Debug("loaded", "name", s.Name(), "checksum", disk.Checksum)
	return res, nil
}

func (s *Sink) stack() []string {
	if s.sink.Target == nil {
		return nil
	}
	return []string{s.sink.Target.ModuleID()}
}

// Save writes the staging tree to path, or to the current target when path
// is empty, and mirrors the written content so the sink is clean. A save
// that would make the document include itself through its modules is
// refused with a *SaveCycleError before anything is written.
func (s *Sink) Save(path string) error {
	target := s.sink.Target
	if path != "" {
		df, err := s.root.Resolve(path)
		if err != nil {
			return err
		}
		target = &df
	}
	if target == nil {
		return ErrNoTarget
	}

	id := target.ModuleID()
	if mods := s.staging.Data.CollectModules(); slices.Contains(mods, id) {
		return &SaveCycleError{Target: id, Modules: mods}
	}

	data, err := s.codec.Encode(s.staging.Data)
	if err != nil {
		return err
	}
	disk := NewChunk(s.root.Fs, s.codec, target)
	if err := disk.store(data); err != nil {
		return err
	}
	s.sink = disk
	s.logger.Info("saved", "name", s.Name(), "path", target.FullPath(), "checksum", disk.Checksum)
	return s.saveSidecar()
}

// Commit writes the staging tree to the recovery file without touching the
// named document. It is a no-op for sinks without a staging file.
func (s *Sink) Commit() error {
	if s.staging.Target == nil {
		return nil
	}
	if err := s.staging.Save(); err != nil {
		return err
	}
	s.logger.Debug("committed", "name", s.Name(), "staging", s.staging.Target.FullPath())
	return s.saveSidecar()
}

func (s *Sink) saveSidecar() error {
	if s.sidecar == "" {
		return nil
	}
	var sc sidecar
	if s.sink.Target != nil {
		sc.Target = s.sink.Target.LinkPath()
	}
	if err := s.root.Fs.MkdirAll(filepath.Dir(s.sidecar), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(s.sidecar), err)
	}
	return writeSidecar(s.root.Fs, s.sidecar, sc)
}

// IsDirty reports whether the staging tree differs from the saved content.
func (s *Sink) IsDirty() bool {
	sum, err := s.staging.Sum()
	if err != nil {
		s.logger.Error("hashing staging tree", "err", err)
		return true
	}
	return sum != s.sink.Checksum
}

// Staging returns the live, editable tree.
func (s *Sink) Staging() *tree.Tree { return s.staging.Data }

// Saved returns the tree as last loaded from or written to the document.
// It must not be modified.
func (s *Sink) Saved() *tree.Tree { return s.sink.Data }

// Target returns the named document, if any.
func (s *Sink) Target() (DataFile, bool) {
	if s.sink.Target == nil {
		return DataFile{}, false
	}
	return *s.sink.Target, true
}

// StagingPath returns the recovery file path, empty if none.
func (s *Sink) StagingPath() string {
	if s.staging.Target == nil {
		return ""
	}
	return s.staging.Target.FullPath()
}

// Name returns the module identifier of the target, or "<unnamed>".
func (s *Sink) Name() string {
	if s.sink.Target == nil {
		return unnamed
	}
	return s.sink.Target.ModuleID()
}

// Title returns Name, prefixed with * when the sink is dirty.
func (s *Sink) Title() string {
	if s.IsDirty() {
		return "*" + s.Name()
	}
	return s.Name()
}
