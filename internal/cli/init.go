package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory and default catalog directory",
	Long: `Create ` + config.Dir() + ` with a commented config file and an empty
catalog directory. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Initializing %s\n", config.Dir())
		if err := config.Init(out); err != nil {
			return fmt.Errorf("initializing: %w", err)
		}
		fmt.Fprintln(out, "\nDone. Put catalog manifests in "+config.DefaultCatalogDir()+".")
		return nil
	},
}
