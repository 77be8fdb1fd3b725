package registry

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/agentx-labs/registrar/internal/logging"
	"github.com/agentx-labs/registrar/internal/naming"
)

// System owns every manager, item and tag. It is configured, built once, and
// then only queried.
type System struct {
	log      logging.Sink
	buildID  string
	maxDepth int

	sources []Provider
	types   *typeTree
	hooks   map[Phase][]Hook

	building bool
	built    bool
	bound    bool

	managerDescs []ManagerDescriptor
	itemDescs    []ItemDescriptor

	managers []*Manager
	byKey    map[ManagerKey]*Manager
	byType   map[TypeKey]*Manager
	byName   map[string]*Manager
	items    map[string]Item
	tags     map[string]*Tag
	auto     map[TypeKey]Item

	// typeCache memoizes ancestor walks from an item type to its manager.
	// It is filled on the read path, so concurrent queries after a build
	// write to it.
	typeCache *cache.Cache

	mu        sync.Mutex
	events    []*Error
	collapsed *Error
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the diagnostic sink. Panics inside the sink are swallowed.
func WithLogger(l logging.Sink) Option {
	return func(s *System) { s.log = logging.Safe(l) }
}

// WithMaxExpansionDepth bounds recursive additional-item expansion. Zero
// leaves it unbounded.
func WithMaxExpansionDepth(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithBuildID overrides the generated build identifier.
func WithBuildID(id string) Option {
	return func(s *System) {
		if id != "" {
			s.buildID = id
		}
	}
}

// New creates an empty System.
func New(opts ...Option) *System {
	s := &System{
		log:       logging.Nop(),
		buildID:   uuid.NewString(),
		types:     newTypeTree(),
		hooks:     make(map[Phase][]Hook),
		byKey:     make(map[ManagerKey]*Manager),
		byType:    make(map[TypeKey]*Manager),
		byName:    make(map[string]*Manager),
		items:     make(map[string]Item),
		tags:      make(map[string]*Tag),
		auto:      make(map[TypeKey]Item),
		typeCache: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildID identifies this system's build in log output.
func (s *System) BuildID() string { return s.buildID }

// Built reports whether Build has run.
func (s *System) Built() bool { return s.built }

// AddDiscoverySource appends a descriptor provider. Sources are read in the
// order they were added; for duplicate manager keys the first source wins.
func (s *System) AddDiscoverySource(p Provider) error {
	if err := s.rejectConfigured("add discovery source"); err != nil {
		return err
	}
	if p == nil || isNil(p) {
		return fmt.Errorf("discovery source is nil")
	}
	s.sources = append(s.sources, p)
	return nil
}

// DeclareType adds key to the item type tree under parent. An empty parent
// declares a root type.
func (s *System) DeclareType(key, parent TypeKey) error {
	if err := s.rejectConfigured("declare type"); err != nil {
		return err
	}
	return s.types.declare(key, parent)
}

// AddLifecycleHook registers hook for phase. Hooks of one phase run in the
// order they were added.
func (s *System) AddLifecycleHook(phase Phase, hook Hook) error {
	if err := s.rejectConfigured("add lifecycle hook"); err != nil {
		return err
	}
	if _, ok := phaseNames[phase]; !ok {
		return fmt.Errorf("unknown phase %d", int(phase))
	}
	if hook == nil {
		return fmt.Errorf("hook for %s is nil", phase)
	}
	s.hooks[phase] = append(s.hooks[phase], hook)
	return nil
}

// ManagerByKey returns the manager created from the descriptor with key.
func (s *System) ManagerByKey(key ManagerKey) (*Manager, bool) {
	m, ok := s.byKey[key]
	return m, ok
}

// ManagerByName returns the manager with the given name.
func (s *System) ManagerByName(name string) (*Manager, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// ManagerByItemType returns the manager responsible for typ: the manager
// claiming the nearest type on typ's ancestor chain.
func (s *System) ManagerByItemType(typ TypeKey) (*Manager, bool) {
	if typ == "" {
		return nil, false
	}
	if v, ok := s.typeCache.Get(string(typ)); ok {
		m, _ := v.(*Manager)
		return m, m != nil
	}
	var found *Manager
	for _, a := range s.types.ancestors(typ) {
		if m, ok := s.byType[a]; ok {
			found = m
			break
		}
	}
	if s.bound {
		s.typeCache.Set(string(typ), found, cache.NoExpiration)
	}
	return found, found != nil
}

// ItemByFullPathName returns the item registered under path.
func (s *System) ItemByFullPathName(path string) (Item, bool) {
	it, ok := s.items[path]
	return it, ok
}

// ItemAt returns the item of root with the given registration index. Only
// root managers index their items; asking a child manager is logged as an
// error and finds nothing.
func (s *System) ItemAt(root *Manager, index int) (Item, bool) {
	if root == nil {
		return nil, false
	}
	if !root.IsRoot() {
		s.log.Error("item index lookup on non-root manager",
			"manager", root.fullPathName, "index", index, "build_id", s.buildID)
		return nil, false
	}
	if index < 0 || index >= len(root.indexed) {
		return nil, false
	}
	return root.indexed[index], true
}

// TagByFullPathName returns the tag registered under path.
func (s *System) TagByFullPathName(path string) (*Tag, bool) {
	t, ok := s.tags[path]
	return t, ok
}

// ForAllItems yields m's items in priority order, ties in insertion order.
func (s *System) ForAllItems(m *Manager) iter.Seq[Item] {
	if m == nil {
		return func(func(Item) bool) {}
	}
	return m.All()
}

// Items yields every registered item, manager by manager.
func (s *System) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, m := range s.managers {
			for _, it := range m.items {
				if !yield(it) {
					return
				}
			}
		}
	}
}

// Len returns the number of registered items.
func (s *System) Len() int { return len(s.items) }

// Managers returns every manager in priority order.
func (s *System) Managers() []*Manager {
	return slices.Clone(s.managers)
}

// Roots returns the managers without a parent, in priority order.
func (s *System) Roots() []*Manager {
	var roots []*Manager
	for _, m := range s.managers {
		if m.parent == nil {
			roots = append(roots, m)
		}
	}
	return roots
}

// Tags returns every tag, manager by manager.
func (s *System) Tags() []*Tag {
	var out []*Tag
	for _, m := range s.managers {
		out = append(out, m.tagList...)
	}
	return out
}

// Events returns the non-fatal and fatal errors recorded so far.
func (s *System) Events() []*Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *System) report(e *Error) *Error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()

	kv := []any{"kind", e.Kind.Error(), "build_id", s.buildID}
	if e.Phase != 0 {
		kv = append(kv, "phase", e.Phase.String())
	}
	if e.Entity != "" {
		kv = append(kv, "entity", e.Entity)
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err)
	}
	if e.Op != OpSkip {
		kv = append(kv, "operation", e.Op.String())
	}
	switch {
	case e.Fatal():
		s.log.Error("registry build aborted", kv...)
	case e.Kind == ErrHookFailure:
		s.log.Error("lifecycle hook failed", kv...)
	default:
		s.log.Warn("registry event", kv...)
	}
	return e
}

func (s *System) rejectFrozen(entity, op string) error {
	err := &Error{Kind: ErrMutationAfterFreeze, Entity: entity, Err: fmt.Errorf("%s rejected", op)}
	if s == nil {
		return err
	}
	return s.report(err)
}

func (s *System) rejectConfigured(op string) error {
	if !s.building && !s.built {
		return nil
	}
	return s.rejectFrozen("system", op)
}

// call runs fn, turning a returned error or a panic into a HookFailure event.
func (s *System) call(phase Phase, entity string, fn func() error) bool {
	ok, _ := s.invoke(phase, entity, fn)
	return ok
}

// invoke is call that also returns the operation a failing hook asked for.
// A collapse is held back until the build checks halted.
func (s *System) invoke(phase Phase, entity string, fn func() error) (ok bool, op Operation) {
	defer func() {
		if r := recover(); r != nil {
			s.report(&Error{Kind: ErrHookFailure, Phase: phase, Entity: entity, Err: fmt.Errorf("panic: %v", r)})
			ok, op = false, OpSkip
		}
	}()
	err := fn()
	if err == nil {
		return true, OpSkip
	}
	e := &Error{Kind: ErrHookFailure, Phase: phase, Entity: entity, Err: err, Op: operationOf(err)}
	if e.Op == OpCollapse {
		if s.collapsed == nil {
			s.collapsed = e
		}
		return false, e.Op
	}
	s.report(e)
	return false, e.Op
}

// halted returns the failure of the first hook that asked to collapse the
// build.
func (s *System) halted() error {
	if s.collapsed != nil {
		return s.collapsed
	}
	return nil
}

// fire runs the lifecycle hooks registered for ev.Phase.
func (s *System) fire(ev HookEvent) {
	hooks := s.hooks[ev.Phase]
	if len(hooks) == 0 {
		return
	}
	ev.System = s
	entity := eventEntity(ev)
	for _, h := range hooks {
		s.call(ev.Phase, entity, func() error { return h(ev) })
	}
}

func eventEntity(ev HookEvent) string {
	switch {
	case ev.Item != nil:
		return describeItem(ev.Item)
	case ev.Tag != nil:
		return ev.Tag.fullPathName
	case ev.Manager != nil:
		return ev.Manager.String()
	default:
		return "system"
	}
}

// pathOf joins the names of m's parent chain, root first.
func (s *System) pathOf(m *Manager) string {
	var names []string
	for p := m; p != nil; p = p.parent {
		names = append(names, p.name)
	}
	slices.Reverse(names)
	return naming.JoinManagers(names...)
}

func (s *System) renameManager(m *Manager, name string) error {
	if other, ok := s.byName[name]; ok && other != m {
		return fmt.Errorf("manager name %q already used by %s", name, other.key)
	}
	if t, ok := m.tags[name]; ok && t != m.selfTag {
		return fmt.Errorf("manager %s already has a tag named %q", m.fullPathName, name)
	}
	old := m.name
	if s.bound {
		m.name = name
		err := s.checkRepath(m.subtree())
		m.name = old
		if err != nil {
			return err
		}
	}
	delete(s.byName, old)
	s.byName[name] = m
	m.name = name
	if m.selfTag != nil {
		delete(m.tags, old)
		m.selfTag.name = name
		m.tags[name] = m.selfTag
	}
	if s.bound {
		s.repath(m.subtree())
	}
	s.log.Info("manager renamed", "key", m.key, "from", old, "to", name, "build_id", s.buildID)
	return nil
}

// checkRepath reports a full path name that ms, once repathed, would take
// from a manager, item or tag outside ms.
func (s *System) checkRepath(ms []*Manager) error {
	moving := make(map[*Manager]bool, len(ms))
	for _, m := range ms {
		moving[m] = true
	}
	for _, m := range ms {
		path := s.pathOf(m)
		for _, other := range s.managers {
			if !moving[other] && other.fullPathName == path {
				return fmt.Errorf("manager path %q already used by %s", path, other.key)
			}
		}
		for _, it := range m.items {
			p := naming.ItemPath(path, it.basics().name)
			if cur, ok := s.items[p]; ok && !moving[cur.basics().manager] {
				return fmt.Errorf("item path %q already used", p)
			}
		}
		for _, t := range m.tagList {
			tagName := t.name
			if t == m.selfTag {
				tagName = m.name
			}
			p := naming.TagPath(path, tagName)
			if cur, ok := s.tags[p]; ok && !moving[cur.manager] {
				return fmt.Errorf("tag path %q already used", p)
			}
		}
	}
	return nil
}

// repath recomputes the full path names of ms and everything they own.
func (s *System) repath(ms []*Manager) {
	for _, m := range ms {
		m.fullPathName = s.pathOf(m)
		for _, it := range m.items {
			b := it.basics()
			delete(s.items, b.fullPathName)
			b.fullPathName = naming.ItemPath(m.fullPathName, b.name)
			s.items[b.fullPathName] = it
		}
		for _, t := range m.tagList {
			delete(s.tags, t.fullPathName)
			t.fullPathName = naming.TagPath(m.fullPathName, t.name)
			s.tags[t.fullPathName] = t
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
