package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get <full-path-name>",
	Short: "Show one registered item or tag",
	Long: `Build the registry and show the item or tag with the given full path name,
for example "armory/blades@longsword" or "armory~heavy".`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	sys, _, err := loadSystem()
	if sys == nil {
		return err
	}

	var view any
	if it, ok := sys.ItemByFullPathName(args[0]); ok {
		view = viewItem(sys, it)
	} else if t, ok := sys.TagByFullPathName(args[0]); ok {
		view = viewTag(t)
	} else {
		return fmt.Errorf("nothing registered as %q", args[0])
	}

	if getJSON {
		if werr := writeJSON(cmd.OutOrStdout(), view); werr != nil {
			return werr
		}
		return err
	}
	data, merr := yaml.Marshal(view)
	if merr != nil {
		return fmt.Errorf("rendering %s: %w", args[0], merr)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}
