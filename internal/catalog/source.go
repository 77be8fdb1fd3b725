package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Source is a directory searched for catalog manifests.
type Source struct {
	Name     string // e.g. "user", "project"
	BasePath string
}

// SourcesFromPaths names each path after its position: the first path is
// "catalog", later ones "catalog-2", "catalog-3" and so on.
func SourcesFromPaths(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for i, p := range paths {
		name := "catalog"
		if i > 0 {
			name = fmt.Sprintf("catalog-%d", i+1)
		}
		sources = append(sources, Source{Name: name, BasePath: p})
	}
	return sources
}

// ManifestFile is a manifest found in a source.
type ManifestFile struct {
	Path       string
	SourceName string
}

// walkSource returns the manifest files under source in lexical path order.
// A source that is itself a file is returned as is.
func walkSource(source Source) ([]ManifestFile, error) {
	info, err := os.Stat(source.BasePath)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name, err)
	}
	if !info.IsDir() {
		return []ManifestFile{{Path: source.BasePath, SourceName: source.Name}}, nil
	}

	var result []ManifestFile
	err = filepath.WalkDir(source.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		name := d.Name()
		if d.IsDir() {
			if path != source.BasePath && isHidden(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) || !isManifestFile(name) {
			return nil
		}
		result = append(result, ManifestFile{Path: path, SourceName: source.Name})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source %s: %w", source.Name, err)
	}
	slices.SortFunc(result, func(a, b ManifestFile) int { return strings.Compare(a.Path, b.Path) })
	return result, nil
}

// Discover walks every source in order. Missing sources are reported in the
// returned skipped list instead of failing discovery.
func Discover(sources []Source) (files []ManifestFile, skipped []error) {
	for _, src := range sources {
		found, err := walkSource(src)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		files = append(files, found...)
	}
	return files, skipped
}

func isManifestFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
