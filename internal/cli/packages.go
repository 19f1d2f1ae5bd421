package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List the public packages discovered in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, root, err := setup()
		if err != nil {
			return err
		}
		packages, err := w.Discover(root)
		if err != nil {
			return err
		}
		if len(packages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No packages found.")
			return nil
		}
		for _, p := range packages {
			rel, relErr := filepath.Rel(root, p.Dir)
			if relErr != nil {
				rel = p.Dir
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, rel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}
