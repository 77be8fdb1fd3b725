// Package naming derives registry names from Go identifiers and joins them
// into the path forms used for managers, items and tags.
package naming

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// ManagerSep separates manager names in a manager's full path name.
	ManagerSep = "/"
	// ItemSep separates a manager's full path name from an item name.
	ItemSep = "@"
	// TagSep separates a manager's full path name from a tag name.
	TagSep = "~"
	// ChildSep separates a parent item's name from a child item's local name.
	ChildSep = "/"
)

var lower = cases.Lower(language.Und)

// OfPath converts a CamelCase identifier into a snake_case name.
// Runs of upper-case letters are treated as one word, so "HTTPServer"
// becomes "httpserver" and "ColorManager" becomes "color_manager".
// Existing underscores are kept as word separators; empty segments are dropped.
func OfPath(identifier string) string {
	var b strings.Builder
	first := true
	for _, cell := range strings.Split(identifier, "_") {
		if cell == "" {
			continue
		}
		if !first {
			b.WriteByte('_')
		}
		first = false

		prevUpper := false
		for i, r := range cell {
			if unicode.IsUpper(r) {
				if i != 0 && !prevUpper {
					b.WriteByte('_')
				}
				prevUpper = true
				b.WriteRune(r)
				continue
			}
			prevUpper = false
			b.WriteRune(r)
		}
	}
	return lower.String(b.String())
}

// Base strips package qualifiers and pointer markers from a Go type string,
// e.g. "*game.WeaponItem" -> "WeaponItem".
func Base(typeName string) string {
	name := strings.TrimLeft(typeName, "*[]")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FromType derives a default registry name for a type key.
func FromType(typeName string) string {
	return OfPath(Base(typeName))
}

// CheckManagerName rejects names that are empty or contain a path separator.
func CheckManagerName(name string) error {
	if name == "" {
		return fmt.Errorf("manager name is empty")
	}
	if i := strings.IndexAny(name, ManagerSep+ItemSep+TagSep); i >= 0 {
		return fmt.Errorf("manager name %q contains reserved character %q", name, name[i])
	}
	return nil
}

// JoinManagers joins manager names root first.
func JoinManagers(names ...string) string {
	return strings.Join(names, ManagerSep)
}

// ItemPath returns the full path name of an item.
func ItemPath(managerPath, item string) string {
	return managerPath + ItemSep + item
}

// TagPath returns the full path name of a tag.
func TagPath(managerPath, tag string) string {
	return managerPath + TagSep + tag
}

// ChildName returns the name of an item produced by parent.
func ChildName(parent, local string) string {
	return parent + ChildSep + local
}
