package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/agentx-labs/registrar/internal/manifest"
	"github.com/agentx-labs/registrar/internal/registry"
)

// Entry is the built-in item kind: a typed bag of properties that may carry
// tags, dependencies and child items.
type Entry struct {
	registry.Basics

	kind      string
	itemType  registry.TypeKey
	props     map[string]any
	tags      []string
	deps      []manifest.DependencySpec
	children  []manifest.ItemSpec
	factories Factories
	refs      map[string]registry.Item
}

// NewEntry is the Factory for the "entry" kind.
func NewEntry(spec manifest.ItemSpec, f Factories) (registry.Item, error) {
	for _, d := range spec.DependsOn {
		if _, err := strategyOf(d.Strategy); err != nil {
			return nil, err
		}
	}
	return &Entry{
		kind:      kindOf(spec),
		itemType:  registry.TypeKey(spec.Type),
		props:     maps.Clone(spec.Properties),
		tags:      slices.Clone(spec.Tags),
		deps:      slices.Clone(spec.DependsOn),
		children:  slices.Clone(spec.Children),
		factories: f,
		refs:      make(map[string]registry.Item),
	}, nil
}

// DeclaredItemType returns the manifest type, falling back to the Go type
// when none was given.
func (e *Entry) DeclaredItemType() registry.TypeKey { return e.itemType }

func (e *Entry) Kind() string { return e.kind }

// Property returns one property value.
func (e *Entry) Property(key string) (any, bool) {
	v, ok := e.props[key]
	return v, ok
}

// Properties returns a copy of all properties.
func (e *Entry) Properties() map[string]any { return maps.Clone(e.props) }

// Ref returns the item a dependency resolved to, by its "as" key.
func (e *Entry) Ref(as string) (registry.Item, bool) {
	it, ok := e.refs[as]
	return it, ok
}

// Refs returns the resolved dependency keys, sorted.
func (e *Entry) Refs() []string {
	return slices.Sorted(maps.Keys(e.refs))
}

// AwakeInit builds the declared children and attaches them.
func (e *Entry) AwakeInit() error {
	var errs []error
	for _, spec := range e.children {
		if spec.Ignored || spec.Obsolete {
			continue
		}
		if e.factories == nil {
			errs = append(errs, fmt.Errorf("child %q: no factories", spec.Name))
			continue
		}
		child, err := e.factories.New(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("child %q: %w", spec.Name, err))
			continue
		}
		name := spec.CustomName
		if name == "" {
			name = spec.Name
		}
		if err := e.Attach(registry.Additional{
			Name:     name,
			Item:     child,
			Priority: spec.Priority,
			Manager:  registry.ManagerKey(spec.Manager),
			Type:     registry.TypeKey(spec.Type),
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Entry) TagNames() []string { return e.tags }

// Dependencies maps the manifest's depends_on entries. Targets that are not
// found leave the ref unset.
func (e *Entry) Dependencies() []registry.Dependency {
	deps := make([]registry.Dependency, 0, len(e.deps))
	for _, d := range e.deps {
		strategy, err := strategyOf(d.Strategy)
		if err != nil {
			continue
		}
		as := d.As
		deps = append(deps, registry.Dependency{
			Strategy: strategy,
			Type:     registry.TypeKey(d.Type),
			Name:     d.Name,
			Assign: func(it registry.Item) {
				if it != nil {
					e.refs[as] = it
				}
			},
		})
	}
	return deps
}

func strategyOf(s string) (registry.Strategy, error) {
	switch s {
	case manifest.StrategyByType:
		return registry.ByType, nil
	case manifest.StrategyByManager:
		return registry.ByManager, nil
	case manifest.StrategyByFullPathName:
		return registry.ByFullPathName, nil
	default:
		return 0, fmt.Errorf("unknown dependency strategy %q", s)
	}
}
