package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	findTypeFilter    string
	findTagFilter     string
	findManagerFilter string
	findKindFilter    string
	findJSON          bool
)

var findCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Search registered items",
	Long: `Build the registry and list the items whose name or full path name contains
the query (case-insensitive substring).

Use --type, --manager and --kind to narrow by exact value and --tag to keep
items in any of the given tags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findTypeFilter, "type", "", "Filter by item type key")
	findCmd.Flags().StringVar(&findTagFilter, "tag", "", "Filter by tag full path names (comma-separated, matches any)")
	findCmd.Flags().StringVar(&findManagerFilter, "manager", "", "Filter by manager full path name")
	findCmd.Flags().StringVar(&findKindFilter, "kind", "", "Filter by item kind")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	sys, _, err := loadSystem()
	if sys == nil {
		return err
	}

	var filterTags []string
	for _, t := range strings.Split(findTagFilter, ",") {
		if tag := strings.TrimSpace(t); tag != "" {
			filterTags = append(filterTags, tag)
		}
	}

	entries := []itemView{}
	for it := range sys.Items() {
		v := viewItem(sys, it)
		if matchesFind(v, query, findTypeFilter, filterTags, findManagerFilter, findKindFilter) {
			entries = append(entries, v)
		}
	}

	if findJSON {
		if werr := writeJSON(cmd.OutOrStdout(), entries); werr != nil {
			return werr
		}
		return err
	}
	if len(entries) == 0 {
		msg := "No items found"
		if query != "" {
			msg += fmt.Sprintf(" matching %q", query)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return err
	}
	if werr := printFindTable(cmd, entries); werr != nil {
		return werr
	}
	return err
}

// matchesFind reports whether v passes every non-empty filter.
func matchesFind(v itemView, query, typeFilter string, filterTags []string, managerFilter, kindFilter string) bool {
	if typeFilter != "" && v.Type != typeFilter {
		return false
	}
	if managerFilter != "" && v.Manager != managerFilter {
		return false
	}
	if kindFilter != "" && v.Kind != kindFilter {
		return false
	}
	if len(filterTags) > 0 && !matchesAnyTag(v.Tags, filterTags) {
		return false
	}
	if query != "" {
		q := strings.ToLower(query)
		if !strings.Contains(strings.ToLower(v.Name), q) &&
			!strings.Contains(strings.ToLower(v.FullPathName), q) {
			return false
		}
	}
	return true
}

// matchesAnyTag reports whether any item tag equals any filter tag.
func matchesAnyTag(itemTags, filterTags []string) bool {
	for _, ft := range filterTags {
		for _, tt := range itemTags {
			if tt == ft {
				return true
			}
		}
	}
	return false
}

func printFindTable(cmd *cobra.Command, entries []itemView) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ITEM\tTYPE\tPRIORITY\tTAGS")
	for _, e := range entries {
		tags := strings.Join(e.Tags, ",")
		if tags == "" {
			tags = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.FullPathName, e.Type, e.Priority, tags)
	}
	return w.Flush()
}
