// Package catalog turns catalog manifests found on disk into registry
// descriptors. Directories are walked for YAML manifests, each manifest is
// validated and version checked, and items are built through a table of
// factories keyed by kind.
package catalog
