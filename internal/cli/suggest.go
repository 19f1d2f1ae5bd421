package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raveheart1/changekit/internal/changeset"
	"github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/gitdiff"
	"github.com/raveheart1/changekit/internal/keystore"
	"github.com/raveheart1/changekit/internal/progress"
	"github.com/raveheart1/changekit/internal/suggest"
	"github.com/raveheart1/changekit/internal/validation"
)

var (
	suggestYesFlag    bool
	suggestDryRunFlag bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Create a changeset from an AI suggestion over the staged diff",
	Long: `Ask the configured AI model to suggest a changeset for the currently
staged changes. The suggestion is validated, shown for confirmation, and
only then written. Ctrl-C during the request aborts without writing.

Examples:
  changekit suggest
  changekit suggest --yes        # skip the confirmation
  changekit suggest --dry-run    # print instead of writing`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggest(cmd)
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().BoolVarP(&suggestYesFlag, "yes", "y", false, "Write the suggestion without confirming")
	suggestCmd.Flags().BoolVar(&suggestDryRunFlag, "dry-run", false, "Print the changeset instead of writing it")
}

func runSuggest(cmd *cobra.Command) error {
	w, root, err := setup()
	if err != nil {
		return err
	}
	if !gitdiff.IsRepository(root) {
		return errors.NewEnvironmentError("workspace is not a git repository",
			"run changekit inside a git repository with staged changes")
	}
	if err := ensureCredential(cmd, w.Keys); err != nil {
		return err
	}

	// Ctrl-C cancels the in-flight request; the run ends with a neutral
	// notice, never a half-written file.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if files, err := gitdiff.StagedFiles(root); err == nil && len(files) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Staged files: %d\n", len(files))
	}

	var res *changeset.Changeset
	err = progress.Run(ctx, cmd.OutOrStdout(), "Asking the model for a suggestion...", func(ctx context.Context) error {
		built, buildErr := w.BuildSuggestion(ctx, root)
		if buildErr != nil {
			return buildErr
		}
		res = built.Changeset
		return nil
	})
	if err == suggest.ErrCancelled {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; no changeset written.")
		return nil
	}
	if err != nil {
		return err
	}

	printSuggestion(cmd, res)
	if !suggestDryRunFlag && !suggestYesFlag && !w.Config.SkipConfirmations {
		if !confirm(cmd, "Write this changeset?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; no changeset written.")
			return nil
		}
	}

	result, err := w.Emit(root, res, suggestDryRunFlag)
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

// ensureCredential prompts for and stores an API key when none is stored yet.
func ensureCredential(cmd *cobra.Command, keys keystore.Store) error {
	if _, err := keys.Get(); err == nil {
		return nil
	}
	secret, err := readSecret(cmd, "Enter API key: ")
	if err != nil || secret == "" {
		return errors.NewEnvironmentError("no API key available",
			"run 'changekit key set' or export "+keystore.EnvKey)
	}
	if !validation.IsValidAPIKeyFormat(secret) {
		return errors.NewValidationError("API key must be 20-100 alphanumeric characters")
	}
	if err := keys.Set(secret); err != nil {
		return errors.WrapWithMessage(err, errors.Environment, "storing API key")
	}
	return nil
}

func printSuggestion(cmd *cobra.Command, cs *changeset.Changeset) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Suggested changeset:")
	if len(cs.Bumps) == 0 {
		fmt.Fprintln(out, "  (no version bumps)")
	}
	for _, b := range cs.Bumps {
		fmt.Fprintf(out, "  %s: %s\n", b.Package, b.Level)
	}
	fmt.Fprintf(out, "  Summary: %s\n", cs.Summary)
}
