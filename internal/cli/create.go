package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/scaffold"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var (
	createOutputDir string
	createTemplate  string
	createManager   string
	createItemType  string
)

func init() {
	createCmd.Flags().StringVar(&createOutputDir, "output-dir", "", "Output directory (default: ./<name>)")
	createCmd.Flags().StringVar(&createTemplate, "template", "catalog", "Template set: "+strings.Join(scaffold.Templates(), ", "))
	createCmd.Flags().StringVar(&createManager, "manager", "", "Root manager key (default: derived from name)")
	createCmd.Flags().StringVar(&createItemType, "item-type", "", "Item type key (default: item)")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new catalog from a template",
	Long: `Create a starter catalog manifest from a built-in template.

Examples:
  registrar create my-tools
  registrar create gear --template tree --manager Armory --item-type weapon`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateName(name); err != nil {
			return err
		}

		data := scaffold.NewData(name, createManager, createItemType, buildVersion)
		result, err := scaffold.Generate(createTemplate, data, resolveOutputDir(name))
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: must match pattern [a-z0-9][a-z0-9_-]*", name)
	}
	return nil
}

func resolveOutputDir(name string) string {
	if createOutputDir != "" {
		return createOutputDir
	}
	return filepath.Join(".", name)
}

func printResult(w io.Writer, result *scaffold.Result) {
	fmt.Fprintf(w, "Created catalog at %s/\n", result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}
