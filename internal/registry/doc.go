// Package registry builds a hierarchical registry of named, typed items held
// by managers. A System reads descriptors from its discovery sources, creates
// and links managers, registers items in priority order (recursing on the
// items they produce), resolves deferred dependencies, fills tags and then
// freezes everything. After Build the registry is read-only.
package registry
