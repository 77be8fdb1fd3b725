package registry

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/agentx-labs/registrar/internal/naming"
)

// discover reads every source in order. Ignored and obsolete descriptors are
// excluded; for duplicate manager keys the first source wins.
func (s *System) discover() error {
	kept := make(map[ManagerKey]string)
	for i, src := range s.sources {
		source := sourceName(src, i)

		if tp, ok := src.(TypeProvider); ok {
			for _, td := range tp.TypeDescriptors() {
				if err := s.types.declare(td.Key, td.Parent); err != nil {
					return conflict(PhaseDiscovery, string(td.Key), "source %s: %w", source, err)
				}
			}
		}

		for _, d := range src.ManagerDescriptors() {
			switch {
			case d.Key == "":
				s.log.Warn("skipping manager descriptor without key", "source", source)
				continue
			case d.Ignored || d.Obsolete:
				s.log.Debug("skipping manager descriptor", "key", d.Key, "source", source,
					"ignored", d.Ignored, "obsolete", d.Obsolete)
				continue
			}
			if prev, ok := kept[d.Key]; ok {
				s.log.Warn("duplicate manager descriptor, keeping first",
					"key", d.Key, "kept", prev, "skipped", source)
				continue
			}
			kept[d.Key] = source
			s.managerDescs = append(s.managerDescs, d)
		}

		for _, d := range src.ItemDescriptors() {
			switch {
			case d.Ignored || d.Obsolete:
				s.log.Debug("skipping item descriptor", "type", d.Type, "name", d.Name, "source", source)
				continue
			case d.New == nil:
				s.log.Warn("skipping item descriptor without factory", "type", d.Type, "source", source)
				continue
			}
			s.itemDescs = append(s.itemDescs, d)
		}
	}

	s.log.Debug("discovery complete", "build_id", s.buildID,
		"managers", len(s.managerDescs), "items", len(s.itemDescs))
	s.fire(HookEvent{Phase: PhaseDiscovery})
	return nil
}

func sourceName(src Provider, i int) string {
	if st, ok := src.(fmt.Stringer); ok {
		return st.String()
	}
	return "source[" + strconv.Itoa(i) + "]"
}

// instantiate creates one manager per descriptor, in priority order. Name
// collisions get a numeric suffix.
func (s *System) instantiate() error {
	descs := slices.Clone(s.managerDescs)
	slices.SortStableFunc(descs, func(a, b ManagerDescriptor) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	for _, d := range descs {
		var behavior any
		if d.New != nil {
			ok := s.call(PhaseManagerCreate, string(d.Key), func() error {
				behavior = d.New()
				return nil
			})
			if !ok {
				continue
			}
		}

		name := d.Name
		if name == "" {
			name = naming.OfPath(string(d.Key))
		}
		if name == "" {
			name = string(d.Key)
		}
		if err := naming.CheckManagerName(name); err != nil {
			return conflict(PhaseManagerCreate, string(d.Key), "%w", err)
		}
		if _, taken := s.byName[name]; taken {
			base := name
			for n := 2; ; n++ {
				name = base + "_" + strconv.Itoa(n)
				if _, taken := s.byName[name]; !taken {
					break
				}
			}
			s.log.Warn("manager name already used, renamed",
				"key", d.Key, "wanted", base, "name", name)
		}

		m := newManager(s, d, name, behavior)
		s.managers = append(s.managers, m)
		s.byKey[d.Key] = m
		s.byName[name] = m
		s.fire(HookEvent{Phase: PhaseManagerCreate, Manager: m})
	}
	return nil
}

// collect gathers the first batch from manager slots, automatically
// registered item types and manager default items.
func (s *System) collect() []Pending {
	var batch []Pending

	for _, m := range s.managers {
		for _, slot := range m.desc.Slots {
			if slot.Ignored || slot.Obsolete {
				continue
			}
			if slot.New == nil {
				s.log.Warn("skipping slot without factory", "manager", m.fullPathName, "slot", slot.Name)
				continue
			}
			var it Item
			if !s.call(PhaseCollect, m.fullPathName+"."+slot.Name, func() error {
				it = slot.New()
				return nil
			}) {
				continue
			}
			batch = append(batch, Pending{
				Item:       it,
				Name:       slot.Name,
				Priority:   slot.Priority,
				ManagerKey: slot.Manager,
				Type:       slot.Type,
				source:     m.fullPathName,
			})
		}
	}

	for _, d := range s.itemDescs {
		var it Item
		if !s.call(PhaseCollect, string(d.Type), func() error {
			it = d.New()
			return nil
		}) {
			continue
		}
		if isNil(it) {
			s.log.Warn("item factory returned nil", "type", d.Type)
			continue
		}
		typ := d.Type
		if typ == "" {
			typ = TypeKeyOf(it)
		}
		if prev, ok := s.auto[typ]; ok {
			s.log.Warn("automatic item already registered for type, keeping first",
				"type", typ, "kept", describeItem(prev))
			continue
		}
		s.auto[typ] = it
		batch = append(batch, Pending{
			Item:       it,
			Name:       d.name(typ),
			Priority:   d.Priority,
			ManagerKey: d.Manager,
			Type:       typ,
			source:     "auto",
		})
	}

	for _, m := range s.managers {
		h, ok := m.behavior.(DefaultItemer)
		if !ok {
			continue
		}
		var items []Pending
		if !s.call(PhaseCollect, m.String(), func() error {
			items = h.DefaultItems(m)
			return nil
		}) {
			continue
		}
		batch = append(batch, s.ownedBy(m, items)...)
	}

	s.fire(HookEvent{Phase: PhaseCollect})
	return batch
}

// secondWave asks every manager for items that depend on the first wave.
func (s *System) secondWave() []Pending {
	var batch []Pending
	for _, m := range s.managers {
		h, ok := m.behavior.(SecondWaveItemer)
		if !ok {
			continue
		}
		var items []Pending
		if !s.call(PhaseSecondWave, m.String(), func() error {
			items = h.SecondWaveItems(m)
			return nil
		}) {
			continue
		}
		batch = append(batch, s.ownedBy(m, items)...)
	}
	s.fire(HookEvent{Phase: PhaseSecondWave})
	return batch
}

func (s *System) ownedBy(m *Manager, items []Pending) []Pending {
	for i := range items {
		if items[i].Manager == nil && items[i].ManagerKey == "" {
			items[i].Manager = m
		}
		items[i].source = m.fullPathName
	}
	return items
}
