package registry

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/registrar/internal/logging"
)

// traced is a test item that records its hooks into a shared trace.
type traced struct {
	Basics
	typ      TypeKey
	trace    *[]string
	children []Additional
	produce  []Additional
	deps     []Dependency
	tags     []string
	failOn   string
	panicOn  string
	// wrap, when set, decorates the failOn error, e.g. with Abandon.
	wrap func(error) error
}

func newTraced(typ TypeKey, trace *[]string) *traced {
	return &traced{typ: typ, trace: trace}
}

func (p *traced) DeclaredItemType() TypeKey { return p.typ }

func (p *traced) record(hook string) error {
	if p.trace != nil {
		*p.trace = append(*p.trace, hook+":"+p.Name())
	}
	if p.panicOn == hook {
		panic("boom in " + hook)
	}
	if p.failOn == hook {
		err := errors.New(hook + " failed")
		if p.wrap != nil {
			err = p.wrap(err)
		}
		return err
	}
	return nil
}

func (p *traced) AwakeInit() error {
	if err := p.record("awake"); err != nil {
		return err
	}
	if len(p.children) > 0 {
		return p.Attach(p.children...)
	}
	return nil
}

func (p *traced) OnPut() error   { return p.record("put") }
func (p *traced) Init() error    { return p.record("init") }
func (p *traced) InitEnd() error { return p.record("end") }

func (p *traced) AdditionalItems() []Additional { return p.produce }
func (p *traced) Dependencies() []Dependency     { return p.deps }
func (p *traced) TagNames() []string             { return p.tags }

// plain is an item without hooks.
type plain struct {
	Basics
	typ TypeKey
}

func (p *plain) DeclaredItemType() TypeKey { return p.typ }

// behavior is a test manager behavior.
type behavior struct {
	trace    *[]string
	defaults func(m *Manager) []Pending
	second   func(m *Manager) []Pending
	deps     []Dependency
}

func (b *behavior) record(hook string, m *Manager) {
	if b.trace != nil {
		*b.trace = append(*b.trace, "manager-"+hook+":"+m.Name())
	}
}

func (b *behavior) AwakeInit(m *Manager) error { b.record("awake", m); return nil }
func (b *behavior) Init(m *Manager) error      { b.record("init", m); return nil }
func (b *behavior) InitEnd(m *Manager) error   { b.record("end", m); return nil }

func (b *behavior) DefaultItems(m *Manager) []Pending {
	if b.defaults == nil {
		return nil
	}
	return b.defaults(m)
}

func (b *behavior) SecondWaveItems(m *Manager) []Pending {
	if b.second == nil {
		return nil
	}
	return b.second(m)
}

func (b *behavior) Dependencies() []Dependency { return b.deps }

func behaviorOf(b *behavior) func() any {
	return func() any { return b }
}

func fixed(items ...Pending) func(*Manager) []Pending {
	return func(*Manager) []Pending { return items }
}

// build creates a System over a static provider and builds it, failing the
// test on a build error.
func build(t *testing.T, p StaticProvider, opts ...Option) (*System, *logging.Recorder) {
	t.Helper()
	s, rec, err := tryBuild(p, opts...)
	require.NoError(t, err)
	return s, rec
}

func tryBuild(p StaticProvider, opts ...Option) (*System, *logging.Recorder, error) {
	rec := logging.NewRecorder()
	s := New(append([]Option{WithLogger(rec)}, opts...)...)
	if err := s.AddDiscoverySource(p); err != nil {
		return nil, rec, err
	}
	return s, rec, s.Build()
}

func names(seq func(func(Item) bool)) []string {
	var out []string
	for it := range seq {
		out = append(out, it.basics().name)
	}
	return out
}

func paths(s *System) []string {
	var out []string
	for it := range s.Items() {
		out = append(out, it.basics().fullPathName)
	}
	slices.Sort(out)
	return out
}

func eventsOf(s *System, kind error) []*Error {
	var out []*Error
	for _, e := range s.Events() {
		if errors.Is(e, kind) {
			out = append(out, e)
		}
	}
	return out
}

func itemNames(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}
