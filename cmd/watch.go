package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/foundry/internal/storage"
	"github.com/papapumpkin/foundry/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan modules whenever a document under the data root changes",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change is handled")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	w, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	w.rescan()
	w.printer.Info("watching " + w.cfg.DataDir)

	debounce, _ := cmd.Flags().GetDuration("debounce")
	watcher, err := watch.NewWatcher(watch.Config{
		Dir:      w.cfg.DataDir,
		Ext:      storage.DocumentExt,
		Debounce: debounce,
		Logger:   w.logger.With("component", "watch"),
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchLoop(ctx, w, watcher.Changes)
}

// watchLoop rescans the registry for every settled change so modules that
// embed the changed document are refreshed too.
func watchLoop(ctx context.Context, w *workspace, changes <-chan watch.Change) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			err := w.modules.Rescan()
			if entry, found := w.modules.Get(c.ModuleID()); found && err == nil {
				err = entry.Err
			}
			w.printer.Change(c, err)
		}
	}
}
