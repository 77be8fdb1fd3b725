package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentx-labs/registrar/internal/manifest"
	"github.com/agentx-labs/registrar/internal/naming"
)

//go:embed scaffolds
var scaffoldFS embed.FS

const scaffoldsDir = "scaffolds"

// ManifestFile is the name of the generated catalog manifest.
const ManifestFile = "catalog.yaml"

var title = cases.Title(language.Und)

// Data holds all template variables available to scaffold templates.
type Data struct {
	Name        string // catalog name, e.g. "my-tools"
	Manager     string // root manager key, e.g. "MyTools"
	ManagerPath string // root manager full path name, e.g. "my_tools"
	ItemType    string
	Description string
	Version     string
	Requires    string // empty for development builds
	Year        int
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewData fills in Data for a catalog called name. An empty manager or item
// type is derived from name; engineVersion pins the requires constraint to
// its minor release.
func NewData(name, manager, itemType, engineVersion string) *Data {
	if manager == "" {
		manager = managerKey(name)
	}
	if itemType == "" {
		itemType = "item"
	}
	d := &Data{
		Name:        name,
		Manager:     manager,
		ManagerPath: naming.OfPath(manager),
		ItemType:    itemType,
		Description: fmt.Sprintf("Catalog %s", name),
		Version:     "0.1.0",
		Year:        time.Now().Year(),
	}
	if v, err := semver.NewVersion(strings.TrimPrefix(engineVersion, "v")); err == nil {
		d.Requires = fmt.Sprintf(">= %d.%d.0", v.Major(), v.Minor())
	}
	return d
}

// managerKey turns "my-tools" into "MyTools".
func managerKey(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' }) {
		b.WriteString(title.String(part))
	}
	key := b.String()
	if key == "" || (key[0] >= '0' && key[0] <= '9') {
		key = "Catalog" + key
	}
	return key
}

// Templates lists the embedded template sets.
func Templates() []string {
	entries, err := fs.ReadDir(scaffoldFS, scaffoldsDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// Generate renders the template set into outputDir, which must be empty or
// missing, and validates the generated manifest.
func Generate(set string, data *Data, outputDir string) (*Result, error) {
	templatesDir := path.Join(scaffoldsDir, set)
	entries, err := fs.ReadDir(scaffoldFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("template set %q not found (known: %s): %w", set, strings.Join(Templates(), ", "), err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	existing, err := os.ReadDir(outputDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		tmplPath := path.Join(templatesDir, entry.Name())
		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		tmpl, err := template.New(entry.Name()).Option("missingkey=error").Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, outName)
	}

	manifestPath := filepath.Join(outputDir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		valResult, valErr := manifest.ValidateFile(manifestPath)
		switch {
		case valErr != nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("could not validate manifest: %v", valErr))
		case !valResult.Valid:
			for _, issue := range valResult.Issues {
				result.Warnings = append(result.Warnings, issue.String())
			}
		}
	}
	return result, nil
}
