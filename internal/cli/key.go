package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/keystore"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the AI API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an API key",
	Long: `Prompt for an API key and store it in the user credential file.
The key is read without terminal echo and validated for format before it
is stored. It is never passed as a command argument, so it stays out of
shell history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := keystore.NewFileStore()
		if err != nil {
			return errors.WrapWithMessage(err, errors.Environment, "opening credential store")
		}
		secret, err := readSecret(cmd, "Enter API key: ")
		if err != nil {
			return errors.WrapWithMessage(err, errors.Environment, "reading API key")
		}
		if err := keys.Set(secret); err != nil {
			return errors.Wrap(err, errors.Validation,
				"keys are 20-100 alphanumeric characters; check for stray spaces or quotes")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key stored.")
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := keystore.NewFileStore()
		if err != nil {
			return errors.WrapWithMessage(err, errors.Environment, "opening credential store")
		}
		if err := keys.Delete(); err != nil {
			return errors.WrapWithMessage(err, errors.Environment, "removing API key")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyClearCmd)
}
