package registry

import (
	"fmt"
	"reflect"
)

// TypeKey identifies an item type. Keys form an explicit parent-pointer tree
// that stands in for type inheritance.
type TypeKey string

// ManagerKey identifies a manager descriptor.
type ManagerKey string

// TypeDescriptor declares an item type and its parent type.
type TypeDescriptor struct {
	Key    TypeKey
	Parent TypeKey
}

// TypeDeclarer lets an item report its own type key instead of the one
// derived from its Go type.
type TypeDeclarer interface {
	DeclaredItemType() TypeKey
}

// TypeOf returns the type key derived from the Go type T.
func TypeOf[T any]() TypeKey {
	return TypeKey(reflect.TypeFor[T]().String())
}

// TypeKeyOf returns the type key of v: the declared key when v implements
// TypeDeclarer, otherwise the Go type name.
func TypeKeyOf(v any) TypeKey {
	if v == nil {
		return ""
	}
	if d, ok := v.(TypeDeclarer); ok {
		if k := d.DeclaredItemType(); k != "" {
			return k
		}
	}
	return TypeKey(reflect.TypeOf(v).String())
}

// typeTree is the parent-pointer tree over item type keys. Undeclared keys are
// roots with no ancestors.
type typeTree struct {
	parents map[TypeKey]TypeKey
}

func newTypeTree() *typeTree {
	return &typeTree{parents: make(map[TypeKey]TypeKey)}
}

func (t *typeTree) declare(key, parent TypeKey) error {
	if key == "" {
		return fmt.Errorf("type key is empty")
	}
	if key == parent {
		return fmt.Errorf("type %q cannot be its own parent", key)
	}
	if existing, ok := t.parents[key]; ok {
		if existing == parent {
			return nil
		}
		return fmt.Errorf("type %q already declared with parent %q, got %q", key, existing, parent)
	}
	for _, a := range t.ancestors(parent) {
		if a == key {
			return fmt.Errorf("declaring %q under %q creates a cycle", key, parent)
		}
	}
	t.parents[key] = parent
	return nil
}

// ancestors returns key followed by its parents, nearest first.
func (t *typeTree) ancestors(key TypeKey) []TypeKey {
	if key == "" {
		return nil
	}
	chain := []TypeKey{key}
	seen := map[TypeKey]bool{key: true}
	for {
		parent, ok := t.parents[key]
		if !ok || parent == "" || seen[parent] {
			return chain
		}
		seen[parent] = true
		chain = append(chain, parent)
		key = parent
	}
}

// isA reports whether key equals ancestor or descends from it.
func (t *typeTree) isA(key, ancestor TypeKey) bool {
	for _, a := range t.ancestors(key) {
		if a == ancestor {
			return true
		}
	}
	return false
}

func (t *typeTree) related(a, b TypeKey) bool {
	return t.isA(a, b) || t.isA(b, a)
}
