package cli

import (
	"github.com/spf13/cobra"
)

var (
	emptySummaryFlag string
	emptyDryRunFlag  bool
)

var emptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Create an empty changeset (no version bumps)",
	Long: `Create a changeset that records no version bumps. Useful to mark a unit
of work as intentionally release-irrelevant so changeset tooling stops
asking about it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, root, err := setup()
		if err != nil {
			return err
		}
		res, err := w.AddEmpty(root, emptySummaryFlag, emptyDryRunFlag)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(emptyCmd)

	emptyCmd.Flags().StringVar(&emptySummaryFlag, "summary", "", "Optional summary text")
	emptyCmd.Flags().BoolVar(&emptyDryRunFlag, "dry-run", false, "Print the changeset instead of writing it")
}
