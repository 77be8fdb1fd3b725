package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agentx-labs/registrar/internal/manifest"
	"github.com/agentx-labs/registrar/internal/registry"
)

// Factory builds the item described by spec. f is the table the factory was
// found in, for items that build children.
type Factory func(spec manifest.ItemSpec, f Factories) (registry.Item, error)

// Factories maps an item kind to its factory.
type Factories map[string]Factory

// DefaultFactories returns the built-in kinds.
func DefaultFactories() Factories {
	return Factories{manifest.DefaultKind: NewEntry}
}

// New builds spec with the factory registered for its kind.
func (f Factories) New(spec manifest.ItemSpec) (registry.Item, error) {
	kind := kindOf(spec)
	fn, ok := f[kind]
	if !ok {
		return nil, fmt.Errorf("unknown item kind %q (known: %s)", kind, strings.Join(f.Kinds(), ", "))
	}
	return fn(spec, f)
}

// Kinds returns the registered kinds, sorted.
func (f Factories) Kinds() []string {
	kinds := make([]string, 0, len(f))
	for k := range f {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// check reports every spec in the tree whose kind has no factory or whose
// dependencies name an unknown strategy.
func (f Factories) check(spec manifest.ItemSpec, where string) error {
	var errs []error
	if _, ok := f[kindOf(spec)]; !ok {
		errs = append(errs, fmt.Errorf("%s: unknown item kind %q", where, kindOf(spec)))
	}
	for _, d := range spec.DependsOn {
		if _, err := strategyOf(d.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("%s: dependency %q: %w", where, d.As, err))
		}
	}
	for i, child := range spec.Children {
		errs = append(errs, f.check(child, fmt.Sprintf("%s.children[%d]", where, i)))
	}
	return errors.Join(errs...)
}

func kindOf(spec manifest.ItemSpec) string {
	if spec.Kind == "" {
		return manifest.DefaultKind
	}
	return spec.Kind
}

// Behaviors maps a manager behavior name to its constructor.
type Behaviors map[string]func() any

// DefaultBehaviors returns the built-in manager behaviors.
func DefaultBehaviors() Behaviors {
	return Behaviors{indexName: func() any { return &indexBehavior{} }}
}

const indexName = "index"

// indexBehavior adds an "index" entry once the first wave is registered,
// listing the manager's items at that point. A manager already holding an
// item of that name gets no index.
type indexBehavior struct{}

func (*indexBehavior) SecondWaveItems(m *registry.Manager) []registry.Pending {
	if _, taken := m.Get(indexName); taken {
		m.Log().Warn("index name already taken, skipping index",
			"manager", m.FullPathName(), "item", indexName)
		return nil
	}
	var names []any
	for it := range m.All() {
		if named, ok := it.(interface{ Name() string }); ok {
			names = append(names, named.Name())
		}
	}
	entry := &Entry{
		kind:     manifest.DefaultKind,
		itemType: m.ItemType(),
		props:    map[string]any{"items": names, "count": len(names)},
	}
	return []registry.Pending{{Item: entry, Name: indexName, Priority: -1}}
}
