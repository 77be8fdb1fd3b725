package registry

import (
	"errors"
	"time"
)

// Build runs every phase once: discovery, manager creation, hierarchy
// binding, item collection and registration, the second wave, and the
// finalize phases. Only a configuration conflict or a hook asking to collapse
// stops it; that error is returned and the registry stays queryable with what
// was registered before.
// A second call is rejected with ErrDuplicateBuild and changes nothing.
func (s *System) Build() error {
	if s.building || s.built {
		s.log.Warn("build already ran", "build_id", s.buildID)
		return &Error{Kind: ErrDuplicateBuild, Entity: "system"}
	}
	s.building = true
	defer func() {
		s.building = false
		s.built = true
	}()

	start := time.Now()
	s.log.Info("build started", "build_id", s.buildID, "sources", len(s.sources))

	if err := s.run(); err != nil {
		var re *Error
		if errors.As(err, &re) && re.Fatal() {
			s.report(re)
		}
		return err
	}

	s.log.Info("build finished",
		"build_id", s.buildID,
		"managers", len(s.managers),
		"items", len(s.items),
		"tags", len(s.tags),
		"events", len(s.Events()),
		"elapsed", time.Since(start))
	return nil
}

func (s *System) run() error {
	if err := s.discover(); err != nil {
		return err
	}
	if err := s.instantiate(); err != nil {
		return err
	}
	if err := s.halted(); err != nil {
		return err
	}
	if err := s.bindHierarchy(); err != nil {
		return err
	}

	for _, m := range s.managers {
		if h, ok := m.behavior.(ManagerAwakeIniter); ok {
			s.call(PhaseManagerAwakeInit, m.String(), func() error { return h.AwakeInit(m) })
		}
		s.fire(HookEvent{Phase: PhaseManagerAwakeInit, Manager: m})
		if err := s.halted(); err != nil {
			return err
		}
	}

	batch := s.collect()
	if err := s.halted(); err != nil {
		return err
	}

	for _, m := range s.managers {
		if h, ok := m.behavior.(ManagerIniter); ok {
			s.call(PhaseManagerInit, m.String(), func() error { return h.Init(m) })
		}
		s.fire(HookEvent{Phase: PhaseManagerInit, Manager: m})
		if err := s.halted(); err != nil {
			return err
		}
	}

	if err := s.register(batch, 0); err != nil {
		return err
	}
	if err := s.register(s.secondWave(), 0); err != nil {
		return err
	}

	for _, step := range []func(){s.finalizeManagers, s.finalizeItems, s.finalizeTags} {
		step()
		if err := s.halted(); err != nil {
			return err
		}
	}
	return nil
}
