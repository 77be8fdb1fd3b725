package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/branding"
	"github.com/agentx-labs/registrar/internal/manifest"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
	Requires string `json:"catalog_requires"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the engine version and how it is matched against the requires
constraint of each catalog. Development builds load every catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		info := versionInfo{
			Version:  buildVersion,
			Commit:   buildCommit,
			Date:     buildDate,
			Go:       runtime.Version(),
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
			Requires: requiresPolicy(buildVersion),
		}
		if versionJSON {
			return writeJSON(out, info)
		}
		printVersion(out, info)
		return nil
	},
}

// requiresPolicy describes how catalogs' requires constraints are checked
// against version.
func requiresPolicy(version string) string {
	v, checked, err := manifest.EngineVersion(version)
	switch {
	case !checked:
		return "not checked (development build)"
	case err != nil:
		return "unsatisfiable (" + err.Error() + ")"
	default:
		return "checked against " + v.String()
	}
}

func printVersion(w io.Writer, info versionInfo) {
	fmt.Fprintf(w, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), info.Version, info.Commit, info.Date)
	fmt.Fprintf(w, "  %s %s\n", info.Go, info.Platform)
	fmt.Fprintf(w, "  catalog requires: %s\n", info.Requires)
}
