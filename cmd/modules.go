package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/foundry/internal/module"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules found under the data root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		w.rescan()

		var entries []*module.Entry
		for _, id := range w.modules.Cached() {
			e, _ := w.modules.Get(id)
			entries = append(entries, e)
		}
		w.printer.Modules(entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
