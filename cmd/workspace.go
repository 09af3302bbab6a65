package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/foundry/internal/catalog"
	"github.com/papapumpkin/foundry/internal/config"
	"github.com/papapumpkin/foundry/internal/document"
	"github.com/papapumpkin/foundry/internal/module"
	"github.com/papapumpkin/foundry/internal/storage"
	"github.com/papapumpkin/foundry/internal/ui"
)

// workspace bundles the collaborators every command needs: configuration,
// logger, data root, codec over the loaded catalog, and module registry.
type workspace struct {
	cfg     config.Config
	logger  *slog.Logger
	root    *storage.Root
	codec   *document.Codec
	modules *module.Registry
	printer *ui.Printer
}

func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	fsys := afero.NewOsFs()
	root, err := storage.NewRoot(fsys, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(fsys, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	codec := document.NewCodec(cat)

	noColor, _ := cmd.Flags().GetBool("no-color")
	color := !noColor && isatty.IsTerminal(os.Stdout.Fd())

	logger.Debug("workspace opened", "data_dir", cfg.DataDir, "catalog", cfg.Catalog, "instance", cfg.Instance)
	return &workspace{
		cfg:     cfg,
		logger:  logger,
		root:    root,
		codec:   codec,
		modules: module.NewRegistry(root, codec, logger.With("component", "modules")),
		printer: ui.New(cmd.OutOrStdout(), color),
	}, nil
}

func loadCatalog(fsys afero.Fs, path string) (*catalog.Catalog, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	c, err := catalog.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// rescan refreshes the module registry. Documents that fail to load are
// logged and otherwise ignored so one broken file does not block the rest.
func (w *workspace) rescan() {
	if err := w.modules.Rescan(); err != nil {
		for _, problem := range ui.Problems(err) {
			w.logger.Warn("skipping module", "err", problem)
		}
	}
}

// openDocument loads path into a sink without a staging file.
func (w *workspace) openDocument(path string) (*storage.Sink, storage.LoadResult, error) {
	s, err := storage.NewSink(storage.SinkConfig{
		Root:    w.root,
		Codec:   w.codec,
		Modules: w.modules,
		Logger:  w.logger.With("component", "sink"),
	})
	if err != nil {
		return nil, storage.LoadResult{}, err
	}
	res, err := s.Load(path)
	return s, res, err
}

func (w *workspace) manager() *storage.Manager {
	return storage.NewManager(storage.ManagerConfig{
		Root:    w.root,
		Codec:   w.codec,
		Modules: w.modules,
		Dir:     w.cfg.StagingDir(),
		Logger:  w.logger.With("component", "sessions"),
	})
}

// findSession returns the open session whose staging file is named id,
// e.g. "001".
func findSession(sinks []*storage.Sink, id string) (*storage.Sink, error) {
	for _, s := range sinks {
		base := filepath.Base(s.StagingPath())
		if base == id+storage.DocumentExt {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no session %q", id)
}
