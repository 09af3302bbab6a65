package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/spf13/afero"

	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/tree"
)

// stagingName matches staging files: a three-digit session number.
var stagingName = regexp.MustCompile(`^(\d{3})\.yaml$`)

// ManagerConfig holds the collaborators of a Manager.
type ManagerConfig struct {
	Root    *Root
	Codec   *document.Codec
	Modules tree.ModuleLoader

	// Dir is the staging directory holding one recovery file per session.
	Dir string

	Logger *slog.Logger
}

// Manager keeps one Sink per staging session in a staging directory.
type Manager struct {
	cfg   ManagerConfig
	sinks []*Sink
	ids   []int
}

// NewManager returns a manager with no open sessions.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{cfg: cfg}
}

// Open opens a sink for every staging file in the directory, in session
// order, creating session 000 when there are none. Sessions that fail to
// load stay open with an empty tree; their errors are joined. Sessions
// opened by an earlier call are replaced.
func (m *Manager) Open() ([]*Sink, error) {
	m.sinks, m.ids = nil, nil
	ids, err := m.scan()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = []int{0}
	}

	var errs []error
	for _, id := range ids {
		s, err := m.newSink(id)
		if err != nil {
			return nil, err
		}
		res, err := s.Load("")
		switch {
		case err != nil:
			m.cfg.Logger.Warn("session failed to load", "session", sessionName(id), "err", err)
			errs = append(errs, fmt.Errorf("session %s: %w", sessionName(id), err))
		case res.Modules != nil:
			errs = append(errs, fmt.Errorf("session %s: %w", sessionName(id), res.Modules))
		}
	}
	return m.Sinks(), errors.Join(errs...)
}

func (m *Manager) scan() ([]int, error) {
	entries, err := afero.ReadDir(m.cfg.Root.Fs, m.cfg.Dir)
	if err != nil {
		if exists, _ := afero.DirExists(m.cfg.Root.Fs, m.cfg.Dir); !exists {
			return nil, nil
		}
		return nil, fmt.Errorf("reading staging directory: %w", err)
	}
	var ids []int
	for _, e := range entries {
		match := stagingName.FindStringSubmatch(e.Name())
		if e.IsDir() || match == nil {
			continue
		}
		id, _ := strconv.Atoi(match[1])
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Manager) newSink(id int) (*Sink, error) {
	s, err := NewSink(SinkConfig{
		Root:    m.cfg.Root,
		Codec:   m.cfg.Codec,
		Modules: m.cfg.Modules,
		Staging: filepath.Join(m.cfg.Dir, sessionName(id)+DocumentExt),
		Logger:  m.cfg.Logger.With("session", sessionName(id)),
	})
	if err != nil {
		return nil, err
	}
	m.sinks = append(m.sinks, s)
	m.ids = append(m.ids, id)
	return s, nil
}

func sessionName(id int) string {
	return fmt.Sprintf("%03d", id)
}

// AddSink opens a new, empty session numbered after the highest one open.
func (m *Manager) AddSink() (*Sink, error) {
	next := 0
	if len(m.ids) > 0 {
		next = slices.Max(m.ids) + 1
	}
	return m.newSink(next)
}

// Sinks returns the open sessions in order.
func (m *Manager) Sinks() []*Sink {
	return slices.Clone(m.sinks)
}

// Discard closes s and removes its staging and sidecar files.
func (m *Manager) Discard(s *Sink) error {
	idx := slices.Index(m.sinks, s)
	if idx < 0 {
		return fmt.Errorf("discard %s: not managed", s.Name())
	}
	m.sinks = slices.Delete(m.sinks, idx, idx+1)
	m.ids = slices.Delete(m.ids, idx, idx+1)

	if path := s.StagingPath(); path != "" {
		for _, p := range []string{path, path + SidecarExt} {
			if err := m.cfg.Root.Fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing %s: %w", p, err)
			}
		}
	}
	return nil
}

// CommitAll commits every open session, continuing past failures.
func (m *Manager) CommitAll() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Commit(); err != nil {
			errs = append(errs, fmt.Errorf("committing %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
