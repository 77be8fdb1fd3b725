// Package cli defines the Cobra command tree for the registrar CLI. Each file
// registers one top-level command with the root command. Commands load the
// configured catalogs, build a registry and only handle flag parsing and
// output formatting.
package cli
