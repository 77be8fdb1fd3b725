package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	tagsJSON     bool
	tagsWithSelf bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List declared tags and their members",
	Long: `Build the registry and list every declared tag with its members. Each
manager's self tag is hidden unless --self is given.`,
	Args: cobra.NoArgs,
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Output in JSON format")
	tagsCmd.Flags().BoolVar(&tagsWithSelf, "self", false, "Include manager self tags")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	sys, _, err := loadSystem()
	if sys == nil {
		return err
	}

	views := []tagView{}
	for _, t := range sys.Tags() {
		if t.IsSelf() && !tagsWithSelf {
			continue
		}
		views = append(views, viewTag(t))
	}

	if tagsJSON {
		if werr := writeJSON(cmd.OutOrStdout(), views); werr != nil {
			return werr
		}
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tags declared.")
		return err
	}
	if werr := printTagTable(cmd, views); werr != nil {
		return werr
	}
	return err
}

func printTagTable(cmd *cobra.Command, views []tagView) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TAG\tTYPE\tMEMBERS")
	for _, v := range views {
		members := strings.Join(v.Members, ", ")
		if members == "" {
			members = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.FullPathName, v.ItemType, members)
	}
	return w.Flush()
}
