package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check catalog manifests against the schema",
	Long: `Validate each manifest against the catalog schema, then parse it and check
its version and requires constraint against this build.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			if !validateManifest(cmd.OutOrStdout(), path) {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d manifests invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateManifest prints the outcome for path and reports whether it passed.
func validateManifest(w io.Writer, path string) bool {
	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "[FAIL] %s: %v\n", path, err)
		return false
	}
	if !result.Valid {
		fmt.Fprintf(w, "[FAIL] %s: %d issue(s)\n", path, len(result.Issues))
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "       %s\n", issue)
		}
		return false
	}

	c, err := manifest.ParseFile(path)
	if err == nil {
		err = manifest.CheckVersion(c)
	}
	if err == nil {
		err = manifest.CheckRequires(c, buildVersion)
	}
	if err != nil {
		fmt.Fprintf(w, "[FAIL] %s: %v\n", path, err)
		return false
	}
	fmt.Fprintf(w, "[ OK ] %s (%s %s)\n", path, c.Name, c.Version)
	return true
}
