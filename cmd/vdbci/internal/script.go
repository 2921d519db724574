package internal

import (
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <abi> <blosc> <mode> <platform> <compiler>",
	Short: "Build and test one variant",
	Long: `Script runs the make-based build for the variant: install and test
targets for standalone variants (or the header hygiene check in header
mode), and the plugin library build against the SDK for platform variants.`,
	Args: cobra.ExactArgs(5),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	d, err := newDriver(args)
	if err != nil {
		return err
	}
	return d.Script(cmd.Context())
}
