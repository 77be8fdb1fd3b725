package registry

import (
	"fmt"

	"github.com/agentx-labs/registrar/internal/naming"
)

// Item is a registered entry. Implement it by embedding Basics in a struct
// and registering a pointer to that struct.
type Item interface {
	basics() *Basics
}

// Basics carries the identity and lifecycle state shared by every item. The
// System fills it in during registration.
type Basics struct {
	name         string
	fullPathName string
	priority     int
	index        int
	indexed      bool
	itemType     TypeKey
	manager      *Manager
	system       *System
	frozen       bool
	resolved     bool
	attached     []Additional
}

func (b *Basics) basics() *Basics { return b }

// Name returns the item's name, unique within its manager.
func (b *Basics) Name() string { return b.name }

// FullPathName returns the globally unique "manager@name" identifier.
func (b *Basics) FullPathName() string { return b.fullPathName }

// Priority returns the registration priority; higher sorts first.
func (b *Basics) Priority() int { return b.priority }

// Index returns the registration index. Only items of root managers have one.
func (b *Basics) Index() (int, bool) { return b.index, b.indexed }

// Manager returns the owning manager, nil before registration.
func (b *Basics) Manager() *Manager { return b.manager }

// System returns the system the item was registered in.
func (b *Basics) System() *System { return b.system }

// Type returns the item type key the item was registered under.
func (b *Basics) Type() TypeKey { return b.itemType }

// Frozen reports whether the item has been finalized.
func (b *Basics) Frozen() bool { return b.frozen }

func (b *Basics) String() string {
	if b.fullPathName != "" {
		return b.fullPathName
	}
	return b.name
}

// SetPriority changes the item's priority. After freeze it is rejected.
func (b *Basics) SetPriority(p int) error {
	if b.frozen {
		return b.system.rejectFrozen(b.fullPathName, "set item priority")
	}
	b.priority = p
	if b.manager != nil {
		b.manager.reposition(b)
	}
	return nil
}

// Attach adds child slots that are registered after this item's batch, named
// "<item>/<local>". It is meant to be called from AwakeInit.
func (b *Basics) Attach(children ...Additional) error {
	if b.frozen {
		return b.system.rejectFrozen(b.fullPathName, "attach child items")
	}
	b.attached = append(b.attached, children...)
	return nil
}

// Additional is a child item produced by another item.
type Additional struct {
	// Name is the local name; the registered name is "<parent>/<Name>".
	Name     string
	Item     Item
	Priority int
	// Manager targets a specific manager; otherwise the child's type decides.
	Manager ManagerKey
	Type    TypeKey
}

// Pending is an item waiting for a registration pass.
type Pending struct {
	Item     Item
	Name     string
	Priority int
	// Manager, when set, is used as is.
	Manager *Manager
	// ManagerKey selects a manager by descriptor key.
	ManagerKey ManagerKey
	// Type overrides the item's type key.
	Type TypeKey

	source string
}

// Item hooks. An item implements the ones it needs.
type (
	// AwakeIniter runs before the item is inserted into its manager.
	AwakeIniter interface {
		AwakeInit() error
	}
	// Putter runs right after insertion, once dependencies are resolved.
	Putter interface {
		OnPut() error
	}
	// Initer runs after every item in the batch was put.
	Initer interface {
		Init() error
	}
	// InitEnder runs when the item is frozen.
	InitEnder interface {
		InitEnd() error
	}
	// AdditionalProducer yields child items registered in a further pass.
	AdditionalProducer interface {
		AdditionalItems() []Additional
	}
	// Tagged lists tag full path names the item joins at tag finalize.
	Tagged interface {
		TagNames() []string
	}
)

// Get returns the item named name in m if it has type T.
func Get[T Item](m *Manager, name string) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	it, ok := m.Get(name)
	if !ok {
		return zero, false
	}
	v, ok := it.(T)
	return v, ok
}

func defaultItemName(typ TypeKey) string {
	return naming.FromType(string(typ))
}

func describeItem(it Item) string {
	if it == nil {
		return "<nil item>"
	}
	b := it.basics()
	if b.fullPathName != "" {
		return b.fullPathName
	}
	if b.name != "" {
		return b.name
	}
	return fmt.Sprintf("%T", it)
}
