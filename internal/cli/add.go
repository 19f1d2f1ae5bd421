package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/raveheart1/changekit/internal/changeset"
	"github.com/raveheart1/changekit/internal/discovery"
	"github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/validation"
	"github.com/raveheart1/changekit/internal/workflow"
)

var (
	addBumpFlags   []string
	addSummaryFlag string
	addDryRunFlag  bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a changeset from selected packages and bump levels",
	Long: `Create a changeset file recording version bumps for selected packages.

With --bump flags the command is non-interactive; without them it prompts
for package selection, bump levels, and a summary.

Examples:
  changekit add --bump @scope/core=minor --bump cli=patch --summary "Fix parser"
  changekit add                  # interactive selection
  changekit add --dry-run --bump cli=patch --summary "s"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringArrayVar(&addBumpFlags, "bump", nil, "Package bump as name=level (repeatable)")
	addCmd.Flags().StringVar(&addSummaryFlag, "summary", "", "Changeset summary text")
	addCmd.Flags().BoolVar(&addDryRunFlag, "dry-run", false, "Print the changeset instead of writing it")
}

func runAdd(cmd *cobra.Command) error {
	w, root, err := setup()
	if err != nil {
		return err
	}

	bumps, summary := map[string]string{}, addSummaryFlag
	if len(addBumpFlags) > 0 {
		if bumps, err = parseBumpFlags(addBumpFlags); err != nil {
			return err
		}
	} else {
		packages, err := w.Discover(root)
		if err != nil {
			return err
		}
		cancelled := false
		bumps, summary, cancelled, err = promptManual(cmd, packages)
		if err != nil {
			return err
		}
		if cancelled {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; no changeset written.")
			return nil
		}
	}

	res, err := w.AddManual(root, bumps, summary, addDryRunFlag)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

// parseBumpFlags turns repeated name=level flags into a mapping.
func parseBumpFlags(flags []string) (map[string]string, error) {
	bumps := make(map[string]string, len(flags))
	for _, f := range flags {
		name, level, ok := strings.Cut(f, "=")
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("malformed --bump %q", f),
				"use --bump package=level, e.g. --bump @scope/core=minor")
		}
		if _, dup := bumps[name]; dup {
			return nil, errors.NewValidationError(fmt.Sprintf("package %q appears in more than one --bump", name))
		}
		bumps[name] = level
	}
	return bumps, nil
}

// promptManual collects packages, levels, and a summary interactively.
// An empty selection is a cancellation, not an error.
func promptManual(cmd *cobra.Command, packages []discovery.Package) (map[string]string, string, bool, error) {
	out := cmd.OutOrStdout()
	if len(packages) == 0 {
		return nil, "", false, errors.NewEnvironmentError("no packages found in workspace",
			"ensure the workspace contains package.json manifests with public names")
	}

	fmt.Fprintln(out, "Workspace packages:")
	for i, p := range packages {
		fmt.Fprintf(out, "  %d) %s\n", i+1, p.Name)
	}
	fmt.Fprint(out, "Select packages (comma-separated numbers, empty to cancel): ")
	line, err := readLine(cmd)
	if err != nil || line == "" {
		return nil, "", true, nil
	}

	bumps := make(map[string]string)
	for _, field := range strings.Split(line, ",") {
		idx, convErr := strconv.Atoi(strings.TrimSpace(field))
		if convErr != nil || idx < 1 || idx > len(packages) {
			return nil, "", false, errors.NewValidationError(fmt.Sprintf("invalid selection %q", strings.TrimSpace(field)))
		}
		name := packages[idx-1].Name
		fmt.Fprintf(out, "Bump level for %s (major/minor/patch): ", name)
		level, readErr := readLine(cmd)
		if readErr != nil || level == "" {
			return nil, "", true, nil
		}
		if !validation.IsValidBumpType(level) {
			return nil, "", false, errors.NewValidationError(fmt.Sprintf("invalid bump level %q", level),
				"use one of: major, minor, patch")
		}
		bumps[name] = level
	}

	fmt.Fprint(out, "Summary: ")
	summary, err := readLine(cmd)
	if err != nil {
		return nil, "", true, nil
	}
	return bumps, summary, false, nil
}

// printResult reports a completed run: the written path, or the serialized
// changeset on dry runs.
func printResult(cmd *cobra.Command, res *workflow.Result) error {
	out := cmd.OutOrStdout()
	if res.Path == "" {
		content, err := changeset.Serialize(res.Changeset)
		if err != nil {
			return errors.Wrap(err, errors.Validation)
		}
		fmt.Fprint(out, content)
		return nil
	}
	success := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", success("Created"), res.Path)
	return nil
}
