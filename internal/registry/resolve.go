package registry

import "fmt"

// Strategy selects how a Dependency is looked up.
type Strategy int

const (
	// ByType fetches the automatically registered item of exactly Type.
	ByType Strategy = iota + 1
	// ByManager fetches the item called Name from the manager responsible
	// for Type.
	ByManager
	// ByFullPathName fetches the item whose full path name is Name.
	ByFullPathName
)

func (st Strategy) String() string {
	switch st {
	case ByType:
		return "by-type"
	case ByManager:
		return "by-manager"
	case ByFullPathName:
		return "by-full-path-name"
	default:
		return fmt.Sprintf("strategy(%d)", int(st))
	}
}

// Dependency is a deferred reference. Assign receives the resolved item, or
// nil when nothing matched.
type Dependency struct {
	Strategy Strategy
	Type     TypeKey
	Name     string
	Assign   func(Item)
}

// DependencyDeclarer is implemented by items and manager behaviors whose
// references are resolved after registration: items once they are put,
// managers at finalize.
type DependencyDeclarer interface {
	Dependencies() []Dependency
}

// Lookup resolves d against the registry. Missing targets yield nil.
func (s *System) Lookup(d Dependency) Item {
	switch d.Strategy {
	case ByType:
		it, ok := s.auto[d.Type]
		if !ok || it.basics().manager == nil {
			return nil
		}
		return it
	case ByManager:
		m, ok := s.ManagerByItemType(d.Type)
		if !ok {
			return nil
		}
		it, _ := m.Get(d.Name)
		return it
	case ByFullPathName:
		it, _ := s.ItemByFullPathName(d.Name)
		return it
	default:
		return nil
	}
}

// resolve looks up and assigns every dependency of d once; done guards
// against re-running.
func (s *System) resolve(phase Phase, entity string, d DependencyDeclarer, done *bool) {
	if *done {
		return
	}
	*done = true

	var deps []Dependency
	if !s.call(phase, entity, func() error {
		deps = d.Dependencies()
		return nil
	}) {
		return
	}
	for _, dep := range deps {
		it := s.Lookup(dep)
		if it == nil {
			s.log.Debug("dependency not found", "entity", entity,
				"strategy", dep.Strategy.String(), "type", dep.Type, "name", dep.Name)
		}
		if dep.Assign == nil {
			continue
		}
		s.call(phase, entity, func() error {
			dep.Assign(it)
			return nil
		})
	}
}

// Into returns an Assign callback storing the resolved item in dst. dst is
// zeroed when nothing was found or the item is not a T.
func Into[T Item](dst *T) func(Item) {
	return func(it Item) {
		v, ok := it.(T)
		if !ok {
			var zero T
			*dst = zero
			return
		}
		*dst = v
	}
}
