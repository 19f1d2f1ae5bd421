// Package cli wires the changekit commands. Commands are thin shells: they
// parse flags, run the prompts the workflow needs, and delegate everything
// else to internal/workflow.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/raveheart1/changekit/internal/config"
	"github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/gitdiff"
	"github.com/raveheart1/changekit/internal/keystore"
	"github.com/raveheart1/changekit/internal/suggest"
	"github.com/raveheart1/changekit/internal/workflow"
)

var (
	rootFlag   string
	configFlag string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "changekit",
	Short: "Create changeset files for pending package version bumps",
	Long: `changekit creates changeset files: small metadata files recording which
packages change, by what semantic-version magnitude, and a summary of the
change. Changesets can be written manually or suggested by an AI model from
the staged git diff.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			logger := log.New(cmd.ErrOrStderr(), "", log.Ltime)
			gitdiff.SetDebugLogger(logger.Printf)
			suggest.SetDebugLogger(logger.Printf)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "C", "", "Workspace root (default: repository root, else current directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Project config file path (default: <root>/.changekit.yml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging to stderr")
}

// Execute runs the CLI and prints any failure once, formatted.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if cliErr := errors.AsCLIError(err); cliErr != nil {
		fmt.Fprint(os.Stderr, errors.FormatError(cliErr))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	cliErr := errors.AsCLIError(err)
	if cliErr == nil {
		return ExitInternal
	}
	switch cliErr.Category {
	case errors.Validation:
		return ExitValidation
	case errors.Environment:
		return ExitEnvironment
	case errors.External:
		return ExitExternal
	default:
		return ExitInternal
	}
}

// resolveRoot picks the workspace root: the --root flag when given, else the
// enclosing repository root, else the current directory.
func resolveRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithMessage(err, errors.Environment, "resolving current directory")
	}
	if root, err := gitdiff.RepositoryRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// setup loads configuration and builds the workflow for the resolved root.
func setup() (*workflow.Workflow, string, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(root, configFlag)
	if err != nil {
		return nil, "", errors.WrapWithMessage(err, errors.Environment, "loading configuration")
	}
	keys, err := keystore.NewFileStore()
	if err != nil {
		return nil, "", errors.WrapWithMessage(err, errors.Environment, "opening credential store")
	}
	return workflow.New(cfg, keys), root, nil
}
