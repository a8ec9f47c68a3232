package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/nitai/internal/app"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the configuration file.",
		Long: `Write the effective configuration (defaults, the configuration file and flags)
to the file given by --config, or to the default configuration file.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			force, _ := cmd.Flags().GetBool("force")

			app.ExecuteConfigInitCommand(cmd.Context(), appConfig, configFilenameFromFlag, force)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteConfigShowCommand(cmd.Context(), appConfig, os.Stdout)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing configuration file.")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
