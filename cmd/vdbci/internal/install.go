package internal

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <abi> <blosc> <mode> <platform> <compiler>",
	Short: "Prepare the machine for one build variant",
	Long: `Install writes the ccache compiler wrappers, installs OS packages and
either builds the third-party dependencies from source (standalone variants)
or fetches and unpacks the Houdini SDK (platform variants).`,
	Args: cobra.ExactArgs(5),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	d, err := newDriver(args)
	if err != nil {
		return err
	}
	return d.Install(cmd.Context())
}
