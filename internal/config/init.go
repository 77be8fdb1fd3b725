package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Permissions used by Init.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

const defaultConfigContent = `log:
  level: info
  format: console
build:
  strict: false
  # max_expansion_depth: 8
# catalog:
#   paths:
#     - /path/to/catalogs
`

// Init creates the config directory, a config file with commented defaults
// and the default catalog directory. It prints progress to w; existing
// entries are left alone.
func Init(w io.Writer) error {
	dir := Dir()
	if err := ensureDir(w, dir, DirPerm); err != nil {
		return err
	}
	if err := ensureFile(w, FilePath(), defaultConfigContent, FilePerm); err != nil {
		return err
	}
	return ensureDir(w, DefaultCatalogDir(), DirPerm)
}

func ensureDir(w io.Writer, path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll applies the umask.
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}

func ensureFile(w io.Writer, path, content string, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}
