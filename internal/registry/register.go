package registry

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/agentx-labs/registrar/internal/naming"
)

type placement struct {
	item    Item
	b       *Basics
	manager *Manager
}

// register runs one registration pass over batch and recurses on the items
// it produces. depth counts the additional-item generations above batch.
func (s *System) register(batch []Pending, depth int) error {
	if len(batch) == 0 {
		return nil
	}
	if s.maxDepth > 0 && depth > s.maxDepth {
		for _, p := range batch {
			s.dropAuto(p.Item)
			s.report(&Error{
				Kind:   ErrExpansionLimit,
				Phase:  PhaseItemInit,
				Entity: p.Name,
				Err:    fmt.Errorf("expansion depth %d exceeds limit %d", depth, s.maxDepth),
			})
		}
		return nil
	}

	work, err := s.place(batch)
	if err != nil {
		return err
	}

	slices.SortStableFunc(work, func(x, y placement) int {
		if c := cmp.Compare(y.manager.priority, x.manager.priority); c != 0 {
			return c
		}
		return cmp.Compare(y.b.priority, x.b.priority)
	})

	kept := work[:0]
	for _, w := range work {
		if h, ok := w.item.(AwakeIniter); ok {
			if _, op := s.invoke(PhaseItemAwakeInit, describeItem(w.item), h.AwakeInit); op == OpAbandon {
				s.abandon(w)
				continue
			}
		}
		s.fire(HookEvent{Phase: PhaseItemAwakeInit, Manager: w.manager, Item: w.item})
		kept = append(kept, w)
	}
	work = kept
	if err := s.halted(); err != nil {
		return err
	}

	for _, w := range work {
		fp := naming.ItemPath(w.manager.fullPathName, w.b.name)
		if prev, dup := s.items[fp]; dup {
			return conflict(PhaseItemPut, fp, "duplicate item full path name (already held by %T)", prev)
		}
		w.b.fullPathName = fp
		w.b.manager = w.manager
		w.manager.insert(w.item)
		s.items[fp] = w.item
	}

	for _, w := range work {
		if d, ok := w.item.(DependencyDeclarer); ok {
			s.resolve(PhaseItemPut, w.b.fullPathName, d, &w.b.resolved)
		}
		if h, ok := w.item.(Putter); ok {
			s.call(PhaseItemPut, w.b.fullPathName, h.OnPut)
		}
		s.fire(HookEvent{Phase: PhaseItemPut, Manager: w.manager, Item: w.item})
	}
	if err := s.halted(); err != nil {
		return err
	}

	for _, w := range work {
		if h, ok := w.item.(Initer); ok {
			s.call(PhaseItemInit, w.b.fullPathName, h.Init)
		}
		s.fire(HookEvent{Phase: PhaseItemInit, Manager: w.manager, Item: w.item})
	}
	if err := s.halted(); err != nil {
		return err
	}

	var next []Pending
	for _, w := range work {
		next = append(next, s.additional(w)...)
	}
	if err := s.halted(); err != nil {
		return err
	}
	if len(next) > 0 {
		s.log.Debug("registering additional items", "build_id", s.buildID,
			"count", len(next), "depth", depth+1)
	}
	return s.register(next, depth+1)
}

// place resolves the manager of every pending item. Items no manager claims
// are dropped with an UnresolvedManager event.
func (s *System) place(batch []Pending) ([]placement, error) {
	work := make([]placement, 0, len(batch))
	seen := make(map[*Basics]bool, len(batch))
	for _, p := range batch {
		if isNil(p.Item) {
			s.log.Warn("skipping nil item", "name", p.Name, "source", p.source)
			continue
		}
		b := p.Item.basics()
		if b.manager != nil || seen[b] {
			return nil, conflict(PhaseItemAwakeInit, describeItem(p.Item), "item submitted for registration twice")
		}
		seen[b] = true

		typ := p.Type
		if typ == "" {
			typ = TypeKeyOf(p.Item)
		}
		m := p.Manager
		if m == nil && p.ManagerKey != "" {
			m = s.byKey[p.ManagerKey]
		}
		if m == nil && p.ManagerKey == "" {
			m, _ = s.ManagerByItemType(typ)
		}
		name := p.Name
		if name == "" {
			name = defaultItemName(typ)
		}
		if m == nil {
			s.dropAuto(p.Item)
			cause := fmt.Errorf("no manager claims item type %s", typ)
			if p.ManagerKey != "" {
				cause = fmt.Errorf("manager %s not found", p.ManagerKey)
			}
			s.report(&Error{Kind: ErrUnresolvedManager, Phase: PhaseItemAwakeInit, Entity: name, Err: cause})
			continue
		}

		b.name = name
		b.priority = p.Priority
		b.itemType = typ
		b.system = s
		work = append(work, placement{item: p.Item, b: b, manager: m})
	}
	return work, nil
}

// additional collects children attached during awake-init and those the item
// produces, named "<item>/<local>".
func (s *System) additional(w placement) []Pending {
	children := w.b.attached
	w.b.attached = nil
	if h, ok := w.item.(AdditionalProducer); ok {
		var produced []Additional
		s.call(PhaseItemInit, w.b.fullPathName, func() error {
			produced = h.AdditionalItems()
			return nil
		})
		children = append(children, produced...)
	}

	out := make([]Pending, 0, len(children))
	for _, c := range children {
		if isNil(c.Item) {
			s.log.Warn("skipping nil additional item", "parent", w.b.fullPathName, "name", c.Name)
			continue
		}
		local := c.Name
		if local == "" {
			typ := c.Type
			if typ == "" {
				typ = TypeKeyOf(c.Item)
			}
			local = defaultItemName(typ)
		}
		out = append(out, Pending{
			Item:       c.Item,
			Name:       naming.ChildName(w.b.name, local),
			Priority:   c.Priority,
			ManagerKey: c.Manager,
			Type:       c.Type,
			source:     w.b.fullPathName,
		})
	}
	return out
}

// abandon forgets an item whose awake-init hook asked to be dropped.
func (s *System) abandon(w placement) {
	s.log.Warn("item abandoned by its awake-init hook",
		"manager", w.manager.fullPathName, "item", describeItem(w.item), "build_id", s.buildID)
	s.dropAuto(w.item)
	w.b.name, w.b.priority, w.b.itemType, w.b.system = "", 0, "", nil
	w.b.attached = nil
}

func (s *System) dropAuto(it Item) {
	for k, v := range s.auto {
		if v == it {
			delete(s.auto, k)
			return
		}
	}
}

// finalizeManagers resolves manager dependencies, freezes every manager and
// runs its init-end hook.
func (s *System) finalizeManagers() {
	for _, m := range s.managers {
		if d, ok := m.behavior.(DependencyDeclarer); ok {
			s.resolve(PhaseManagerInitEnd, m.String(), d, &m.resolved)
		}
		m.frozen = true
		if h, ok := m.behavior.(ManagerInitEnder); ok {
			s.call(PhaseManagerInitEnd, m.String(), func() error { return h.InitEnd(m) })
		}
		s.fire(HookEvent{Phase: PhaseManagerInitEnd, Manager: m})
	}
}

// finalizeItems freezes every item in manager order and runs init-end.
func (s *System) finalizeItems() {
	for _, m := range s.managers {
		for _, it := range m.items {
			it.basics().frozen = true
			if h, ok := it.(InitEnder); ok {
				s.call(PhaseItemInitEnd, describeItem(it), h.InitEnd)
			}
			s.fire(HookEvent{Phase: PhaseItemInitEnd, Manager: m, Item: it})
		}
	}
}

// finalizeTags fills self tags, declared members and the tags items ask to
// join, then freezes every tag.
func (s *System) finalizeTags() {
	for _, m := range s.managers {
		for _, it := range m.items {
			m.selfTag.put(it)
		}
		for _, td := range m.desc.Tags {
			t, ok := m.tags[td.Name]
			if !ok {
				continue
			}
			for _, path := range td.Members {
				s.join(t, path, "manager "+m.fullPathName)
			}
		}
	}

	for it := range s.Items() {
		tagged, ok := it.(Tagged)
		if !ok {
			continue
		}
		var names []string
		if !s.call(PhaseTagInitEnd, describeItem(it), func() error {
			names = tagged.TagNames()
			return nil
		}) {
			continue
		}
		for _, name := range names {
			t, ok := s.tags[name]
			if !ok {
				s.log.Warn("item names unknown tag", "item", describeItem(it), "tag", name)
				continue
			}
			if err := t.Add(it); err != nil {
				s.log.Warn("tag rejected member", "tag", name, "item", describeItem(it), "error", err)
			}
		}
	}

	for _, t := range s.Tags() {
		t.frozen = true
		s.fire(HookEvent{Phase: PhaseTagInitEnd, Manager: t.manager, Tag: t})
	}
}

func (s *System) join(t *Tag, path, owner string) {
	it, ok := s.items[path]
	if !ok {
		s.log.Warn("tag member not found", "tag", t.fullPathName, "member", path, "owner", owner)
		return
	}
	if err := t.Add(it); err != nil {
		s.log.Warn("tag rejected member", "tag", t.fullPathName, "item", path, "error", err)
	}
}
