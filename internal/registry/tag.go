package registry

import (
	"fmt"
	"iter"

	"github.com/agentx-labs/registrar/internal/naming"
)

// Tag is a named set of items constrained to an item type. A tag references
// its members; it does not own them.
type Tag struct {
	name         string
	fullPathName string
	itemType     TypeKey
	manager      *Manager
	system       *System
	self         bool
	members      []Item
	set          map[Item]struct{}
	frozen       bool
}

func newTag(m *Manager, name string, itemType TypeKey, self bool) *Tag {
	return &Tag{
		name:         name,
		fullPathName: naming.TagPath(m.fullPathName, name),
		itemType:     itemType,
		manager:      m,
		system:       m.system,
		self:         self,
		set:          make(map[Item]struct{}),
	}
}

func (t *Tag) Name() string         { return t.name }
func (t *Tag) FullPathName() string { return t.fullPathName }
func (t *Tag) ItemType() TypeKey    { return t.itemType }
func (t *Tag) Manager() *Manager    { return t.manager }
func (t *Tag) Frozen() bool         { return t.frozen }
func (t *Tag) Len() int             { return len(t.members) }

// IsSelf reports whether this is the manager's implicit tag.
func (t *Tag) IsSelf() bool { return t.self }

// Has reports whether it is a member.
func (t *Tag) Has(it Item) bool {
	if it == nil {
		return false
	}
	_, ok := t.set[it]
	return ok
}

// All yields members in insertion order. The sequence is restartable.
func (t *Tag) All() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range t.members {
			if !yield(it) {
				return
			}
		}
	}
}

// Add puts it into the tag. It is rejected after freeze, and when its type is
// not the tag's item type or a descendant of it.
func (t *Tag) Add(it Item) error {
	if t.frozen {
		return t.system.rejectFrozen(t.fullPathName, "add tag member")
	}
	if it == nil {
		return fmt.Errorf("tag %s: nil member", t.fullPathName)
	}
	if t.itemType != "" && !t.system.types.isA(it.basics().itemType, t.itemType) {
		return fmt.Errorf("tag %s: item %s has type %s, want %s",
			t.fullPathName, describeItem(it), it.basics().itemType, t.itemType)
	}
	t.put(it)
	return nil
}

func (t *Tag) put(it Item) {
	if _, ok := t.set[it]; ok {
		return
	}
	t.set[it] = struct{}{}
	t.members = append(t.members, it)
}

func (t *Tag) String() string { return t.fullPathName }

// Members yields the tag's members that have type T.
func Members[T Item](t *Tag) iter.Seq[T] {
	return func(yield func(T) bool) {
		if t == nil {
			return
		}
		for it := range t.All() {
			v, ok := it.(T)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
