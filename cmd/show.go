package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/foundry/internal/tree"
)

var showCmd = &cobra.Command{
	Use:   "show <document>",
	Short: "Print a document's rows and net flows",
	Long: "Show loads a document from the data root, expands its modules, and prints one\n" +
		"row per visible instance followed by the document's net flows and power.",
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("collapse-modules", false, "hide the contents of module instances")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	w.rescan()

	s, res, err := w.openDocument(args[0])
	if err != nil {
		w.printer.Error(err.Error())
		return err
	}
	if res.Modules != nil {
		w.printer.Check(s.Name(), res.Modules)
	}

	t := s.Staging()
	if collapse, _ := cmd.Flags().GetBool("collapse-modules"); collapse {
		t.Root.Walk(func(inst *tree.Instance) bool {
			if inst.Node.IsModule() {
				inst.Collapse()
				return false
			}
			return true
		})
	}
	w.printer.Rows(t.Nodes())
	w.printer.Summary(s.Name(), t)
	return nil
}
