package registry

import (
	"fmt"
	"iter"
	"slices"

	"github.com/agentx-labs/registrar/internal/logging"
	"github.com/agentx-labs/registrar/internal/naming"
)

// Manager is a named collection of items of one type, optionally parented to
// another manager.
type Manager struct {
	key          ManagerKey
	name         string
	fullPathName string
	priority     int
	itemType     TypeKey
	parentKey    ManagerKey
	parent       *Manager
	children     []*Manager
	behavior     any
	desc         ManagerDescriptor
	system       *System

	// items is kept in priority order, ties in insertion order.
	items   []Item
	byName  map[string]Item
	indexed []Item
	tags    map[string]*Tag
	tagList []*Tag
	selfTag *Tag

	frozen   bool
	resolved bool
}

func newManager(s *System, d ManagerDescriptor, name string, behavior any) *Manager {
	return &Manager{
		key:       d.Key,
		name:      name,
		priority:  d.Priority,
		itemType:  d.ItemType,
		parentKey: d.Parent,
		behavior:  behavior,
		desc:      d,
		system:    s,
		byName:    make(map[string]Item),
		tags:      make(map[string]*Tag),
	}
}

// Key returns the descriptor key the manager was created from.
func (m *Manager) Key() ManagerKey { return m.key }

// Name returns the manager's system-wide unique name.
func (m *Manager) Name() string { return m.name }

// FullPathName returns the parent chain of names joined by "/".
func (m *Manager) FullPathName() string { return m.fullPathName }

func (m *Manager) Priority() int      { return m.priority }
func (m *Manager) ItemType() TypeKey  { return m.itemType }
func (m *Manager) Parent() *Manager   { return m.parent }
func (m *Manager) IsRoot() bool       { return m.parent == nil }
func (m *Manager) Frozen() bool       { return m.frozen }
func (m *Manager) System() *System    { return m.system }
func (m *Manager) Behavior() any      { return m.behavior }

// Log returns the system's diagnostic sink, for behaviors.
func (m *Manager) Log() logging.Sink { return m.system.log }
func (m *Manager) Len() int           { return len(m.items) }
func (m *Manager) SelfTag() *Tag      { return m.selfTag }
func (m *Manager) Children() []*Manager {
	return slices.Clone(m.children)
}

// Get returns the item registered under name.
func (m *Manager) Get(name string) (Item, bool) {
	it, ok := m.byName[name]
	return it, ok
}

// All yields the manager's items in priority order, ties in insertion order.
// The sequence can be ranged over any number of times.
func (m *Manager) All() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range m.items {
			if !yield(it) {
				return
			}
		}
	}
}

// Tags returns the manager's tags in creation order, the self tag first.
func (m *Manager) Tags() []*Tag {
	return slices.Clone(m.tagList)
}

// Tag returns the tag named name owned by this manager.
func (m *Manager) Tag(name string) (*Tag, bool) {
	t, ok := m.tags[name]
	return t, ok
}

// SetName renames the manager. Full path names of the manager's subtree and
// of everything registered in it are recomputed. The rename is rejected after
// freeze, when name contains a path separator, or when a name or path would
// collide.
func (m *Manager) SetName(name string) error {
	if m.frozen {
		return m.system.rejectFrozen(m.fullPathName, "rename manager")
	}
	if err := naming.CheckManagerName(name); err != nil {
		return err
	}
	if name == m.name {
		return nil
	}
	return m.system.renameManager(m, name)
}

// SetPriority changes the manager's priority. After freeze it is rejected.
func (m *Manager) SetPriority(p int) error {
	if m.frozen {
		return m.system.rejectFrozen(m.fullPathName, "set manager priority")
	}
	m.priority = p
	return nil
}

func (m *Manager) String() string {
	return fmt.Sprintf("%s (key: %s, type: %s)", m.fullPathName, m.key, m.itemType)
}

func (m *Manager) addTag(t *Tag) {
	m.tags[t.name] = t
	m.tagList = append(m.tagList, t)
}

func (m *Manager) insert(it Item) {
	b := it.basics()
	m.items = slices.Insert(m.items, m.insertPos(b.priority), it)
	m.byName[b.name] = it
	if m.parent == nil {
		b.index = len(m.indexed)
		b.indexed = true
		m.indexed = append(m.indexed, it)
	}
}

// insertPos returns the position after the last item with priority >= p.
func (m *Manager) insertPos(p int) int {
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].basics().priority >= p {
			return i + 1
		}
	}
	return 0
}

func (m *Manager) reposition(b *Basics) {
	i := slices.IndexFunc(m.items, func(it Item) bool { return it.basics() == b })
	if i < 0 {
		return
	}
	it := m.items[i]
	m.items = slices.Delete(m.items, i, i+1)
	m.items = slices.Insert(m.items, m.insertPos(b.priority), it)
}

func (m *Manager) isAncestorOf(other *Manager) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == m {
			return true
		}
	}
	return false
}

// subtree returns m and its descendants, parents first.
func (m *Manager) subtree() []*Manager {
	out := []*Manager{m}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].children...)
	}
	return out
}

// Manager behavior hooks. The value returned by ManagerDescriptor.New
// implements the ones it needs.
type (
	ManagerAwakeIniter interface {
		AwakeInit(m *Manager) error
	}
	ManagerIniter interface {
		Init(m *Manager) error
	}
	ManagerInitEnder interface {
		InitEnd(m *Manager) error
	}
	// DefaultItemer supplies items during collection. Pending entries with
	// neither Manager nor ManagerKey go to m.
	DefaultItemer interface {
		DefaultItems(m *Manager) []Pending
	}
	// SecondWaveItemer supplies items once the first wave is fully
	// registered.
	SecondWaveItemer interface {
		SecondWaveItems(m *Manager) []Pending
	}
)
