// Package manifest parses and validates catalog manifests: YAML files that
// declare item types, managers, tags and items for a registry build. Files
// are checked against an embedded JSON Schema, and a catalog's requires
// constraint is checked against the running engine version.
package manifest
