package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/registrar/internal/catalog"
	"github.com/agentx-labs/registrar/internal/registry"
)

var buildJSON bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the registry and print the manager tree",
	Long: `Load every catalog manifest under the configured catalog paths, build the
registry and print each root manager with its items and child managers.

Rejected manifests and non-fatal build events are listed after the tree.
With --strict either one fails the command.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(buildCmd)
}

type buildReport struct {
	BuildID  string        `json:"build_id"`
	Managers []managerView `json:"managers"`
	Tags     []tagView     `json:"tags"`
	Items    int           `json:"items"`
	Events   []string      `json:"events,omitempty"`
	Rejected []string      `json:"rejected,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	sys, p, err := loadSystem()
	if sys == nil {
		return err
	}

	report := reportOf(sys, p)
	if buildJSON {
		if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
			return werr
		}
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return err
}

func reportOf(sys *registry.System, p *catalog.Provider) buildReport {
	r := buildReport{
		BuildID:  sys.BuildID(),
		Managers: []managerView{},
		Tags:     []tagView{},
		Items:    sys.Len(),
	}
	for _, root := range sys.Roots() {
		r.Managers = append(r.Managers, viewManager(sys, root))
	}
	for _, t := range sys.Tags() {
		r.Tags = append(r.Tags, viewTag(t))
	}
	for _, ev := range sys.Events() {
		r.Events = append(r.Events, ev.Error())
	}
	if p != nil {
		for _, prob := range p.Problems() {
			r.Rejected = append(r.Rejected, prob.Error())
		}
	}
	return r
}

func printReport(w io.Writer, r buildReport) {
	if len(r.Managers) == 0 {
		fmt.Fprintln(w, "No managers registered.")
	}
	for _, m := range r.Managers {
		fmt.Fprintln(w, managerLine(m))
		printChildren(w, m, "")
	}

	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected manifests:\n")
		for _, msg := range r.Rejected {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	if len(r.Events) > 0 {
		fmt.Fprintf(w, "\nEvents:\n")
		for _, msg := range r.Events {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	fmt.Fprintf(w, "\n%d managers, %d items, %d tags, %d events (build %s)\n",
		countManagers(r.Managers), r.Items, len(r.Tags), len(r.Events), r.BuildID)
}

// printChildren draws m's items, then its child managers, below m.
func printChildren(w io.Writer, m managerView, prefix string) {
	total := len(m.Items) + len(m.Children)
	n := 0
	branch := func() (string, string) {
		n++
		if n == total {
			return prefix + "└── ", prefix + "    "
		}
		return prefix + "├── ", prefix + "│   "
	}
	for _, it := range m.Items {
		line, _ := branch()
		fmt.Fprintln(w, line+itemLine(it))
	}
	for _, child := range m.Children {
		line, next := branch()
		fmt.Fprintln(w, line+managerLine(child))
		printChildren(w, child, next)
	}
}

func managerLine(m managerView) string {
	line := m.Name + " [" + m.ItemType + "]"
	if m.Priority != 0 {
		line += fmt.Sprintf(" priority %d", m.Priority)
	}
	return line
}

func itemLine(it itemView) string {
	var b strings.Builder
	b.WriteString("@" + it.Name)
	if it.Index != nil {
		fmt.Fprintf(&b, " #%d", *it.Index)
	}
	b.WriteString(" (" + it.Type)
	if it.Priority != 0 {
		fmt.Fprintf(&b, ", priority %d", it.Priority)
	}
	b.WriteString(")")
	return b.String()
}

func countManagers(ms []managerView) int {
	n := len(ms)
	for _, m := range ms {
		n += countManagers(m.Children)
	}
	return n
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
