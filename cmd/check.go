package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <document>...",
	Short: "Report recursive or missing modules in documents",
	Long: "Check loads each document, expands its modules, and reports module cycles and\n" +
		"modules whose documents cannot be found. It exits non-zero if any are found.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		w.rescan()

		problems := 0
		for _, path := range args {
			s, res, err := w.openDocument(path)
			if err != nil {
				w.printer.Error(err.Error())
				problems++
				continue
			}
			problems += w.printer.Check(s.Name(), res.Modules)
		}
		if problems > 0 {
			return fmt.Errorf("%d problem(s) found", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
