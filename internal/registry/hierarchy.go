package registry

// bindHierarchy links managers to their parents, checks that parent and child
// item types are related, builds the item-type map, assigns full path names
// and creates tags.
func (s *System) bindHierarchy() error {
	for _, m := range s.managers {
		if m.parentKey == "" {
			continue
		}
		p, ok := s.byKey[m.parentKey]
		if !ok {
			s.log.Warn("parent manager not found, treating as root",
				"manager", m.key, "parent", m.parentKey)
			continue
		}
		m.parent = p
		p.children = append(p.children, m)
	}

	for _, m := range s.managers {
		seen := map[*Manager]bool{}
		for p := m; p != nil; p = p.parent {
			if seen[p] {
				return conflict(PhaseHierarchy, string(m.key), "manager parent chain forms a cycle")
			}
			seen[p] = true
		}
	}

	for _, m := range s.managers {
		p := m.parent
		if p == nil || m.itemType == "" || p.itemType == "" {
			continue
		}
		if !s.types.related(m.itemType, p.itemType) {
			return conflict(PhaseHierarchy, string(m.key),
				"item type %s is not compatible with parent %s item type %s", m.itemType, p.key, p.itemType)
		}
	}

	for _, m := range s.managers {
		if m.itemType == "" {
			continue
		}
		cur, ok := s.byType[m.itemType]
		switch {
		case !ok:
			s.byType[m.itemType] = m
		case cur.isAncestorOf(m):
			s.byType[m.itemType] = m
		case m.isAncestorOf(cur):
		default:
			return conflict(PhaseHierarchy, string(m.itemType),
				"managers %s and %s both claim item type %s", cur.key, m.key, m.itemType)
		}
	}

	paths := make(map[string]*Manager, len(s.managers))
	for _, m := range s.managers {
		m.fullPathName = s.pathOf(m)
		if other, dup := paths[m.fullPathName]; dup {
			return conflict(PhaseHierarchy, m.fullPathName,
				"managers %s and %s share a full path name", other.key, m.key)
		}
		paths[m.fullPathName] = m
	}

	for _, m := range s.managers {
		m.selfTag = newTag(m, m.name, m.itemType, true)
		if err := s.bindTag(m.selfTag); err != nil {
			return err
		}
		for _, td := range m.desc.Tags {
			if td.Name == "" {
				s.log.Warn("skipping tag without name", "manager", m.fullPathName)
				continue
			}
			typ := td.ItemType
			if typ == "" {
				typ = m.itemType
			}
			if err := s.bindTag(newTag(m, td.Name, typ, false)); err != nil {
				return err
			}
		}
	}

	s.bound = true
	s.typeCache.Flush()

	for _, m := range s.managers {
		s.fire(HookEvent{Phase: PhaseHierarchy, Manager: m})
	}
	return nil
}

func (s *System) bindTag(t *Tag) error {
	if _, dup := s.tags[t.fullPathName]; dup {
		return conflict(PhaseHierarchy, t.fullPathName, "duplicate tag full path name")
	}
	if _, dup := t.manager.tags[t.name]; dup {
		return conflict(PhaseHierarchy, t.fullPathName, "duplicate tag name in manager")
	}
	t.manager.addTag(t)
	s.tags[t.fullPathName] = t
	return nil
}
