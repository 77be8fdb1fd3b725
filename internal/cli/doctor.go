package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/catalog"
	"github.com/agentx-labs/registrar/internal/logging"
)

var (
	checkConfig   bool
	checkCatalogs bool
	checkBuild    bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkConfig, "check-config", false, "Verify the config file")
	doctorCmd.Flags().BoolVar(&checkCatalogs, "check-catalogs", false, "Verify catalog paths and manifests")
	doctorCmd.Flags().BoolVar(&checkBuild, "check-build", false, "Build the registry and report events")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the configured catalogs",
	Long:  `Run diagnostic checks on the config file, the catalog paths and a trial build.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := !checkConfig && !checkCatalogs && !checkBuild
		out := cmd.OutOrStdout()
		ok := true
		if all || checkConfig {
			ok = runConfigCheck(out) && ok
		}
		if all || checkCatalogs {
			ok = runCatalogCheck(out) && ok
		}
		if all || checkBuild {
			ok = runBuildCheck(out) && ok
		}
		if !ok {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func runConfigCheck(w io.Writer) bool {
	fmt.Fprintln(w, "Config check:")
	path := cfg.Path()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  [INFO] %s not found, using defaults\n", path)
		return true
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", path)
	return true
}

func runCatalogCheck(w io.Writer) bool {
	fmt.Fprintln(w, "Catalog check:")
	sources := catalog.SourcesFromPaths(catalogPaths())
	files, skipped := catalog.Discover(sources)
	for _, err := range skipped {
		fmt.Fprintf(w, "  [MISS] %v\n", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "  [WARN] no manifests found")
		return false
	}

	p, _ := catalog.Load(sources, catalog.Options{EngineVersion: buildVersion, Log: logging.Nop()})
	for _, c := range p.Catalogs() {
		fmt.Fprintf(w, "  [ OK ] %s %s (%s)\n", c.Name, c.Version, c.Path)
	}
	for _, prob := range p.Problems() {
		fmt.Fprintf(w, "  [FAIL] %s\n", prob.Error())
	}
	return len(p.Problems()) == 0
}

func runBuildCheck(w io.Writer) bool {
	fmt.Fprintln(w, "Build check:")
	sys, _, err := loadSystem()
	if sys == nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return false
	}
	for _, ev := range sys.Events() {
		label := "WARN"
		if ev.Fatal() {
			label = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %s\n", label, ev.Error())
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %d managers, %d items, %d events\n", len(sys.Managers()), sys.Len(), len(sys.Events()))
	return true
}
