package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/registrar/internal/logging"
)

func TestBuild_PriorityThenInsertionOrder(t *testing.T) {
	a, b, c := &plain{typ: "thing"}, &plain{typ: "thing"}, &plain{typ: "thing"}
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key:      "M",
		ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: a, Name: "A", Priority: 5},
			Pending{Item: b, Name: "B", Priority: 5},
			Pending{Item: c, Name: "C", Priority: 10},
		)}),
	}}})

	m, ok := s.ManagerByKey("M")
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, names(s.ForAllItems(m)))
}

func TestBuild_ColorScenario(t *testing.T) {
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key:      "Color",
		Name:     "Color",
		ItemType: "color",
		Slots: []SlotDescriptor{
			{Name: "Red", Priority: 0, Manager: "Color", New: func() Item { return &plain{typ: "color"} }},
			{Name: "Blue", Priority: 10, Manager: "Color", New: func() Item { return &plain{typ: "color"} }},
		},
	}}})

	m, ok := s.ManagerByName("Color")
	require.True(t, ok)
	assert.Equal(t, []string{"Blue", "Red"}, names(s.ForAllItems(m)))

	red, ok := s.ItemByFullPathName("Color@Red")
	require.True(t, ok)
	assert.Equal(t, "Red", red.basics().Name())
	assert.Same(t, m, red.basics().Manager())

	_, ok = s.ItemByFullPathName("Color@Green")
	assert.False(t, ok)
}

func TestBuild_DefaultManagerName(t *testing.T) {
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{Key: "ColorManager", ItemType: "color"}}})

	m, ok := s.ManagerByName("color_manager")
	require.True(t, ok)
	assert.Equal(t, ManagerKey("ColorManager"), m.Key())
	assert.Equal(t, "color_manager", m.FullPathName())
}

func TestBuild_ManagerNameCollisionGetsSuffix(t *testing.T) {
	s, rec := build(t, StaticProvider{Managers: []ManagerDescriptor{
		{Key: "first", Name: "dup", Priority: 1},
		{Key: "second", Name: "dup"},
		{Key: "third", Name: "dup"},
	}})

	first, _ := s.ManagerByKey("first")
	second, _ := s.ManagerByKey("second")
	third, _ := s.ManagerByKey("third")
	assert.Equal(t, "dup", first.Name())
	assert.Equal(t, "dup_2", second.Name())
	assert.Equal(t, "dup_3", third.Name())
	assert.Equal(t, 2, rec.Count(logging.LevelWarn))
}

func TestBuild_TwoUnrelatedManagersClaimingTypeIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{
		{Key: "Armory", ItemType: "Weapon"},
		{Key: "Arsenal", ItemType: "Weapon"},
	}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigurationConflict)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, PhaseHierarchy, re.Phase)
	assert.True(t, re.Fatal())
}

func TestBuild_MoreSpecificManagerWinsType(t *testing.T) {
	s, _ := build(t, StaticProvider{
		Types: []TypeDescriptor{{Key: "weapon"}, {Key: "sword", Parent: "weapon"}},
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon"},
			{Key: "blades", ItemType: "weapon", Parent: "armory"},
		},
	})

	blades, _ := s.ManagerByKey("blades")
	got, ok := s.ManagerByItemType("weapon")
	require.True(t, ok)
	assert.Same(t, blades, got)

	got, ok = s.ManagerByItemType("sword")
	require.True(t, ok)
	assert.Same(t, blades, got)
	assert.Equal(t, "armory/blades", blades.FullPathName())

	_, ok = s.ManagerByItemType("shield")
	assert.False(t, ok)
}

func TestBuild_IncompatibleParentTypeIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{
		Types: []TypeDescriptor{{Key: "weapon"}, {Key: "potion"}},
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon"},
			{Key: "potions", ItemType: "potion", Parent: "armory"},
		},
	})
	assert.ErrorIs(t, err, ErrConfigurationConflict)
}

func TestBuild_RelatedParentTypesAccepted(t *testing.T) {
	s, _ := build(t, StaticProvider{
		Types: []TypeDescriptor{{Key: "weapon"}, {Key: "sword", Parent: "weapon"}},
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon"},
			{Key: "swords", ItemType: "sword", Parent: "armory"},
		},
	})
	swords, _ := s.ManagerByKey("swords")
	armory, _ := s.ManagerByKey("armory")
	assert.Same(t, armory, swords.Parent())
	assert.Equal(t, []*Manager{swords}, armory.Children())
}

func TestBuild_ParentCycleIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{
		{Key: "a", Parent: "b"},
		{Key: "b", Parent: "a"},
	}})
	assert.ErrorIs(t, err, ErrConfigurationConflict)
}

func TestBuild_MissingParentBecomesRoot(t *testing.T) {
	s, rec := build(t, StaticProvider{Managers: []ManagerDescriptor{{Key: "orphan", Parent: "ghost"}}})

	m, _ := s.ManagerByKey("orphan")
	assert.True(t, m.IsRoot())
	assert.True(t, rec.Contains(logging.LevelWarn, "parent manager not found"))
}

func TestBuild_IndexOnlyForRootManagers(t *testing.T) {
	var root, child []Pending
	for _, n := range itemNames("r", 4) {
		root = append(root, Pending{Item: &plain{typ: "weapon"}, Name: n, Priority: len(n)})
	}
	for _, n := range itemNames("c", 2) {
		child = append(child, Pending{Item: &plain{typ: "sword"}, Name: n})
	}
	s, rec := build(t, StaticProvider{
		Types: []TypeDescriptor{{Key: "weapon"}, {Key: "sword", Parent: "weapon"}},
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon", New: behaviorOf(&behavior{defaults: fixed(root...)})},
			{Key: "swords", ItemType: "sword", Parent: "armory", New: behaviorOf(&behavior{defaults: fixed(child...)})},
		},
	})

	armory, _ := s.ManagerByKey("armory")
	for i, p := range root {
		idx, ok := p.Item.basics().Index()
		require.True(t, ok)
		assert.Equal(t, i, idx)
		got, ok := s.ItemAt(armory, i)
		require.True(t, ok)
		assert.Same(t, p.Item, got)
	}
	_, ok := s.ItemAt(armory, len(root))
	assert.False(t, ok)

	swords, _ := s.ManagerByKey("swords")
	for _, p := range child {
		_, ok := p.Item.basics().Index()
		assert.False(t, ok)
	}
	_, ok = s.ItemAt(swords, 0)
	assert.False(t, ok)
	assert.True(t, rec.Contains(logging.LevelError, "non-root manager"))
}

func TestBuild_SecondCallRejected(t *testing.T) {
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: &plain{typ: "thing"}, Name: "x"})}),
	}}})
	before := paths(s)
	events := len(s.Events())

	err := s.Build()
	assert.ErrorIs(t, err, ErrDuplicateBuild)
	assert.Equal(t, before, paths(s))
	assert.Len(t, s.Events(), events)
	assert.True(t, s.Built())
}

func TestBuild_AttachedChildrenAreRegistered(t *testing.T) {
	parent := &traced{typ: "thing"}
	const n = 3
	for _, local := range itemNames("slot", n) {
		parent.children = append(parent.children, Additional{Name: local, Item: &plain{typ: "thing"}})
	}
	other := &plain{typ: "thing"}

	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: parent, Name: "root"},
			Pending{Item: other, Name: "other"},
		)}),
	}}})

	assert.Equal(t, 2+n, s.Len())
	for _, local := range itemNames("slot", n) {
		it, ok := s.ItemByFullPathName("m@root/" + local)
		require.True(t, ok, local)
		assert.Equal(t, "root/"+local, it.basics().Name())
	}
}

func TestBuild_ProducedItemsRecurse(t *testing.T) {
	leaf := &plain{typ: "thing"}
	mid := &traced{typ: "thing", produce: []Additional{{Name: "leaf", Item: leaf}}}
	top := &traced{typ: "thing", produce: []Additional{{Name: "mid", Item: mid}}}

	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: top, Name: "top"})}),
	}}})

	assert.Equal(t, []string{"m@top", "m@top/mid", "m@top/mid/leaf"}, paths(s))
	assert.Equal(t, "m@top/mid/leaf", leaf.FullPathName())
}

func TestBuild_ChildTargetsOtherManager(t *testing.T) {
	gem := &plain{typ: "gem"}
	sword := &traced{typ: "weapon", children: []Additional{{Name: "socket", Item: gem}}}

	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{
		{Key: "armory", ItemType: "weapon", New: behaviorOf(&behavior{defaults: fixed(Pending{Item: sword, Name: "blade"})})},
		{Key: "gems", ItemType: "gem"},
	}})

	gems, _ := s.ManagerByKey("gems")
	assert.Same(t, gems, gem.Manager())
	assert.Equal(t, "gems@blade/socket", gem.FullPathName())
}

func TestBuild_ExpansionLimit(t *testing.T) {
	// Each traced produces the next one, four generations deep.
	var chain []*traced
	for i := 0; i < 4; i++ {
		chain = append(chain, &traced{typ: "thing"})
	}
	for i := 0; i < len(chain)-1; i++ {
		chain[i].produce = []Additional{{Name: "next", Item: chain[i+1]}}
	}

	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: chain[0], Name: "g0"})}),
	}}}, WithMaxExpansionDepth(2))

	assert.Equal(t, 3, s.Len())
	limit := eventsOf(s, ErrExpansionLimit)
	require.Len(t, limit, 1)
	assert.Equal(t, "g0/next/next/next", limit[0].Entity)
	assert.Nil(t, chain[3].Manager())
}

func TestBuild_UnresolvedManagerDropsItem(t *testing.T) {
	kept := &plain{typ: "thing"}
	s, _ := build(t, StaticProvider{
		Managers: []ManagerDescriptor{{Key: "M", ItemType: "thing"}},
		Items: []ItemDescriptor{
			{Type: "thing", Name: "kept", New: func() Item { return kept }},
			{Type: "ghost", Name: "lost", New: func() Item { return &plain{typ: "ghost"} }},
			{Type: "other", Name: "wrongkey", Manager: "Nope", New: func() Item { return &plain{} }},
		},
	})

	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, kept.Manager())
	unresolved := eventsOf(s, ErrUnresolvedManager)
	require.Len(t, unresolved, 2)
	assert.Equal(t, "lost", unresolved[0].Entity)
	assert.Equal(t, "wrongkey", unresolved[1].Entity)

	assert.Nil(t, s.Lookup(Dependency{Strategy: ByType, Type: "ghost"}))
}

func TestBuild_DuplicateFullPathNameIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: &plain{}, Name: "same"},
			Pending{Item: &plain{}, Name: "same"},
		)}),
	}}})
	assert.ErrorIs(t, err, ErrConfigurationConflict)
}

func TestBuild_FatalErrorLeavesRegistryQueryable(t *testing.T) {
	first := &plain{}
	s, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m",
		New: behaviorOf(&behavior{
			defaults: fixed(Pending{Item: first, Name: "first"}),
			second:   fixed(Pending{Item: &plain{}, Name: "first"}),
		}),
	}}})

	require.ErrorIs(t, err, ErrConfigurationConflict)
	got, ok := s.ItemByFullPathName("m@first")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.NotEmpty(t, eventsOf(s, ErrConfigurationConflict))
}

func TestBuild_ResubmittedItemIsFatal(t *testing.T) {
	shared := &plain{}
	_, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: shared, Name: "one"},
			Pending{Item: shared, Name: "two"},
		)}),
	}}})
	assert.ErrorIs(t, err, ErrConfigurationConflict)
}

func TestBuild_HookFailuresAreIsolated(t *testing.T) {
	failing := &traced{typ: "thing", failOn: "awake"}
	panicking := &traced{typ: "thing", panicOn: "init"}
	fine := &traced{typ: "thing"}

	s, rec := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: failing, Name: "failing"},
			Pending{Item: panicking, Name: "panicking"},
			Pending{Item: fine, Name: "fine"},
		)}),
	}}})

	assert.Equal(t, 3, s.Len())
	hooks := eventsOf(s, ErrHookFailure)
	require.Len(t, hooks, 2)
	assert.Equal(t, PhaseItemAwakeInit, hooks[0].Phase)
	assert.Equal(t, PhaseItemInit, hooks[1].Phase)
	assert.Contains(t, hooks[1].Error(), "boom in init")
	assert.Equal(t, 2, rec.Count(logging.LevelError))
	assert.True(t, fine.Frozen())
}

func TestBuild_PhaseOrder(t *testing.T) {
	var trace []string
	a := newTraced("thing", &trace)
	b := newTraced("thing", &trace)

	build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{trace: &trace, defaults: fixed(
			Pending{Item: a, Name: "a", Priority: 1},
			Pending{Item: b, Name: "b"},
		)}),
	}}})

	assert.Equal(t, []string{
		"manager-awake:m",
		"manager-init:m",
		"awake:a", "awake:b",
		"put:a", "put:b",
		"init:a", "init:b",
		"manager-end:m",
		"end:a", "end:b",
	}, trace)
}

func TestBuild_LifecycleHooksRunInOrder(t *testing.T) {
	var seen []string
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: &plain{}, Name: "x"})}),
	}}}))
	for _, ph := range []Phase{PhaseDiscovery, PhaseManagerCreate, PhaseCollect, PhaseItemPut, PhaseSecondWave, PhaseTagInitEnd} {
		require.NoError(t, s.AddLifecycleHook(ph, func(ev HookEvent) error {
			entity := "system"
			switch {
			case ev.Item != nil:
				entity = ev.Item.basics().FullPathName()
			case ev.Tag != nil:
				entity = ev.Tag.FullPathName()
			case ev.Manager != nil:
				entity = ev.Manager.Name()
			}
			seen = append(seen, ev.Phase.String()+":"+entity)
			return nil
		}))
	}
	require.NoError(t, s.AddLifecycleHook(PhaseItemPut, func(ev HookEvent) error {
		seen = append(seen, "second-put-hook")
		return nil
	}))
	require.Error(t, s.AddLifecycleHook(Phase(99), func(HookEvent) error { return nil }))

	require.NoError(t, s.Build())
	assert.Equal(t, []string{
		"discovery:system",
		"manager-create:m",
		"collect:system",
		"item-put:m@x",
		"second-put-hook",
		"second-wave:system",
		"tag-init-end:m~m",
	}, seen)
}

func TestBuild_SecondWaveSeesFirstWave(t *testing.T) {
	var firstWave int
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{
			defaults: fixed(Pending{Item: &plain{}, Name: "a"}, Pending{Item: &plain{}, Name: "b"}),
			second: func(m *Manager) []Pending {
				firstWave = m.Len()
				return []Pending{{Item: &plain{}, Name: "summary", Priority: 100}}
			},
		}),
	}}})

	assert.Equal(t, 2, firstWave)
	m, _ := s.ManagerByKey("M")
	assert.Equal(t, []string{"summary", "a", "b"}, names(m.All()))
}

func TestBuild_ManagerPriorityOrdersBatch(t *testing.T) {
	var trace []string
	s, _ := build(t, StaticProvider{
		Managers: []ManagerDescriptor{
			{Key: "low", ItemType: "low"},
			{Key: "high", ItemType: "high", Priority: 10},
		},
		Items: []ItemDescriptor{
			{Type: "low", Name: "l", Priority: 100, New: func() Item { return newTraced("low", &trace) }},
			{Type: "high", Name: "h", New: func() Item { return newTraced("high", &trace) }},
		},
	})

	assert.Equal(t, "high", s.Managers()[0].Name())
	assert.Equal(t, []string{"awake:h", "awake:l"}, trace[:2])
}

func TestDiscovery_SkipsIgnoredAndKeepsFirstSource(t *testing.T) {
	s := New(WithLogger(logging.NewRecorder()))
	require.NoError(t, s.AddDiscoverySource(StaticProvider{
		Managers: []ManagerDescriptor{
			{Key: "kept", Name: "from_first"},
			{Key: "ignored", Ignored: true},
			{Key: "obsolete", Obsolete: true},
		},
		Items: []ItemDescriptor{
			{Type: "thing", Obsolete: true, New: func() Item { return &plain{} }},
			{Type: "thing"},
		},
	}))
	require.NoError(t, s.AddDiscoverySource(StaticProvider{
		Managers: []ManagerDescriptor{{Key: "kept", Name: "from_second"}},
	}))
	require.NoError(t, s.Build())

	assert.Len(t, s.Managers(), 1)
	m, ok := s.ManagerByKey("kept")
	require.True(t, ok)
	assert.Equal(t, "from_first", m.Name())
	_, ok = s.ManagerByKey("ignored")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestDiscovery_TypeConflictIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{Types: []TypeDescriptor{
		{Key: "sword", Parent: "weapon"},
		{Key: "sword", Parent: "tool"},
	}})
	assert.ErrorIs(t, err, ErrConfigurationConflict)
}

func TestAutoItems_FirstPerTypeWins(t *testing.T) {
	first, second := &plain{}, &plain{}
	s, rec := build(t, StaticProvider{
		Managers: []ManagerDescriptor{{Key: "M", Name: "m", ItemType: "thing"}},
		Items: []ItemDescriptor{
			{Type: "thing", Name: "first", New: func() Item { return first }},
			{Type: "thing", Name: "second", New: func() Item { return second }},
		},
	})

	assert.Equal(t, 1, s.Len())
	assert.Same(t, first, s.Lookup(Dependency{Strategy: ByType, Type: "thing"}))
	assert.True(t, rec.Contains(logging.LevelWarn, "keeping first"))
}

func TestAutoItems_CustomNameAndDefaultName(t *testing.T) {
	s, _ := build(t, StaticProvider{
		Managers: []ManagerDescriptor{{Key: "M", Name: "m", ItemType: "weapon"}},
		Types:    []TypeDescriptor{{Key: "weapon"}, {Key: "GreatSword", Parent: "weapon"}, {Key: "Dagger", Parent: "weapon"}},
		Items: []ItemDescriptor{
			{Type: "GreatSword", New: func() Item { return &plain{} }},
			{Type: "Dagger", Name: "knife", CustomName: "shiv", New: func() Item { return &plain{} }},
		},
	})

	_, ok := s.ItemByFullPathName("m@great_sword")
	assert.True(t, ok)
	_, ok = s.ItemByFullPathName("m@shiv")
	assert.True(t, ok)
}

func TestFrozen_MutationsRejected(t *testing.T) {
	item := &plain{}
	s, rec := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: item, Name: "x", Priority: 3})}),
	}}})
	m, _ := s.ManagerByKey("M")

	assert.ErrorIs(t, item.SetPriority(9), ErrMutationAfterFreeze)
	assert.Equal(t, 3, item.Priority())
	assert.ErrorIs(t, item.Attach(Additional{Name: "late", Item: &plain{}}), ErrMutationAfterFreeze)
	assert.ErrorIs(t, m.SetName("renamed"), ErrMutationAfterFreeze)
	assert.Equal(t, "m", m.Name())
	assert.ErrorIs(t, m.SetPriority(4), ErrMutationAfterFreeze)
	assert.ErrorIs(t, m.SelfTag().Add(&plain{}), ErrMutationAfterFreeze)
	assert.ErrorIs(t, s.AddLifecycleHook(PhaseItemPut, func(HookEvent) error { return nil }), ErrMutationAfterFreeze)
	assert.ErrorIs(t, s.AddDiscoverySource(StaticProvider{}), ErrMutationAfterFreeze)
	assert.ErrorIs(t, s.DeclareType("late", ""), ErrMutationAfterFreeze)

	assert.Len(t, eventsOf(s, ErrMutationAfterFreeze), 8)
	assert.GreaterOrEqual(t, rec.Count(logging.LevelWarn), 8)
}

func TestManager_RenameBeforeFreezeRepaths(t *testing.T) {
	child := &plain{typ: "sword"}
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{
		Types: []TypeDescriptor{{Key: "weapon"}, {Key: "sword", Parent: "weapon"}},
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon"},
			{Key: "blades", ItemType: "sword", Parent: "armory",
				New: behaviorOf(&behavior{defaults: fixed(Pending{Item: child})})},
		},
	}))
	require.NoError(t, s.AddLifecycleHook(PhaseItemInit, func(ev HookEvent) error {
		if ev.Item != Item(child) {
			return nil
		}
		m, _ := ev.System.ManagerByKey("armory")
		return m.SetName("vault")
	}))
	require.NoError(t, s.Build())
	assert.Empty(t, s.Events())

	_, ok := s.ManagerByName("armory")
	assert.False(t, ok)
	vault, ok := s.ManagerByName("vault")
	require.True(t, ok)
	assert.Equal(t, "vault", vault.FullPathName())
	blades, _ := s.ManagerByKey("blades")
	assert.Equal(t, "vault/blades", blades.FullPathName())
	assert.Equal(t, "vault/blades@sword", child.FullPathName())
	got, ok := s.ItemByFullPathName("vault/blades@sword")
	require.True(t, ok)
	assert.Same(t, child, got)
	_, ok = s.TagByFullPathName("vault~vault")
	assert.True(t, ok)
	_, ok = s.TagByFullPathName("vault/blades~blades")
	assert.True(t, ok)
	_, ok = s.TagByFullPathName("armory~armory")
	assert.False(t, ok)
}

func TestManager_RenameCollisionRejected(t *testing.T) {
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{Managers: []ManagerDescriptor{
		{Key: "a", Name: "alpha"},
		{Key: "b", Name: "beta"},
	}}))
	var renameErr error
	require.NoError(t, s.AddLifecycleHook(PhaseManagerAwakeInit, func(ev HookEvent) error {
		if ev.Manager.Key() == "b" {
			renameErr = ev.Manager.SetName("alpha")
		}
		return nil
	}))
	require.NoError(t, s.Build())

	require.Error(t, renameErr)
	b, _ := s.ManagerByKey("b")
	assert.Equal(t, "beta", b.Name())
}

func TestManager_RenameToPathSeparatorRejected(t *testing.T) {
	x1, x2 := &plain{}, &plain{}
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{Managers: []ManagerDescriptor{
		{Key: "a"},
		{Key: "b", Parent: "a", New: behaviorOf(&behavior{defaults: fixed(Pending{Item: x1, Name: "x"})})},
		{Key: "c", New: behaviorOf(&behavior{defaults: fixed(Pending{Item: x2, Name: "x"})})},
		{Key: "z"},
	}}))
	var renameErr error
	require.NoError(t, s.AddLifecycleHook(PhaseItemInit, func(ev HookEvent) error {
		if ev.Item == Item(x2) {
			renameErr = ev.Manager.SetName("a/b")
		}
		return nil
	}))
	require.NoError(t, s.Build())

	require.Error(t, renameErr)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a/b@x", "c@x"}, paths(s))
	got, ok := s.ItemByFullPathName("a/b@x")
	require.True(t, ok)
	assert.Same(t, x1, got)
	c, _ := s.ManagerByKey("c")
	assert.Equal(t, "c", c.Name())
}

func TestManager_RenameRejectsEveryReservedCharacter(t *testing.T) {
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{Managers: []ManagerDescriptor{{Key: "m"}}}))
	var errs []error
	require.NoError(t, s.AddLifecycleHook(PhaseManagerAwakeInit, func(ev HookEvent) error {
		for _, name := range []string{"", "m/n", "m@n", "m~n"} {
			errs = append(errs, ev.Manager.SetName(name))
		}
		return nil
	}))
	require.NoError(t, s.Build())

	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.Error(t, err)
	}
	_, ok := s.TagByFullPathName("m~m")
	assert.True(t, ok)
}

func TestBuild_ManagerNameWithPathSeparatorIsFatal(t *testing.T) {
	_, _, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{
		{Key: "a"},
		{Key: "b", Parent: "a"},
		{Key: "ab", Name: "a/b"},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigurationConflict)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, PhaseManagerCreate, re.Phase)
	assert.Equal(t, "ab", re.Entity)
}

func TestBuild_AbandonDropsItemBeforeRegistration(t *testing.T) {
	var trace []string
	keep := newTraced("thing", &trace)
	drop := newTraced("thing", &trace)
	drop.failOn = "awake"
	drop.wrap = Abandon
	drop.children = []Additional{{Name: "part", Item: &plain{typ: "thing"}}}

	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: keep, Name: "keep"},
			Pending{Item: drop, Name: "drop"},
		)}),
	}}})

	assert.Equal(t, []string{"m@keep"}, paths(s))
	assert.Nil(t, drop.Manager())
	assert.NotContains(t, trace, "put:drop")
	hooks := eventsOf(s, ErrHookFailure)
	require.Len(t, hooks, 1)
	assert.Equal(t, OpAbandon, hooks[0].Op)
	assert.False(t, hooks[0].Fatal())
}

func TestBuild_AbandonAfterRegistrationActsAsSkip(t *testing.T) {
	late := &traced{typ: "thing", failOn: "init", wrap: Abandon}
	s, _ := build(t, StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: late, Name: "late"})}),
	}}})

	assert.Equal(t, []string{"m@late"}, paths(s))
	assert.True(t, late.Frozen())
	require.Len(t, eventsOf(s, ErrHookFailure), 1)
}

func TestBuild_CollapseAbortsBuild(t *testing.T) {
	first := &traced{typ: "thing", failOn: "init", wrap: Collapse}
	second := &plain{typ: "thing"}

	s, rec, err := tryBuild(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", Name: "m", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(
			Pending{Item: first, Name: "first", Priority: 10},
			Pending{Item: second, Name: "second"},
		)}),
	}}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHookFailure)
	assert.ErrorContains(t, err, "init failed")
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Fatal())
	assert.Equal(t, OpCollapse, re.Op)
	assert.Equal(t, PhaseItemInit, re.Phase)

	assert.True(t, s.Built())
	assert.Equal(t, 2, s.Len())
	assert.False(t, first.Frozen())
	assert.False(t, second.Frozen())
	require.Len(t, eventsOf(s, ErrHookFailure), 1)
	assert.Equal(t, 1, rec.Count(logging.LevelError))
}

func TestBuild_LifecycleHookCanCollapse(t *testing.T) {
	s := New()
	require.NoError(t, s.AddDiscoverySource(StaticProvider{Managers: []ManagerDescriptor{{
		Key: "M", ItemType: "thing",
		New: behaviorOf(&behavior{defaults: fixed(Pending{Item: &plain{typ: "thing"}})}),
	}}}))
	require.NoError(t, s.AddLifecycleHook(PhaseManagerAwakeInit, func(HookEvent) error {
		return Collapse(errors.New("halt"))
	}))

	err := s.Build()
	require.Error(t, err)
	assert.ErrorContains(t, err, "halt")
	assert.Equal(t, 0, s.Len())
}

func TestSystem_ConcurrentReadsAfterBuild(t *testing.T) {
	types := []TypeDescriptor{{Key: "weapon"}, {Key: "sword", Parent: "weapon"}, {Key: "dagger", Parent: "sword"}}
	var slots []SlotDescriptor
	for _, name := range itemNames("w", 8) {
		slots = append(slots, SlotDescriptor{Name: name, Manager: "armory", New: func() Item { return &plain{typ: "weapon"} }})
	}
	s, _ := build(t, StaticProvider{
		Types: types,
		Managers: []ManagerDescriptor{
			{Key: "armory", ItemType: "weapon", Slots: slots},
			{Key: "blades", ItemType: "sword", Parent: "armory"},
		},
	})
	armory, _ := s.ManagerByKey("armory")
	blades, _ := s.ManagerByKey("blades")

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				m, ok := s.ManagerByItemType("dagger")
				assert.True(t, ok)
				assert.Same(t, blades, m)
				m, _ = s.ManagerByItemType("weapon")
				assert.Same(t, armory, m)
				_, ok = s.ManagerByItemType("unknown")
				assert.False(t, ok)

				it, ok := s.ItemAt(armory, (g+i)%8)
				assert.True(t, ok)
				assert.NotNil(t, it)
				_, ok = s.ItemByFullPathName("armory@w3")
				assert.True(t, ok)
				assert.Empty(t, s.Events())
				assert.Len(t, names(s.ForAllItems(armory)), 8)
			}
		}()
	}
	wg.Wait()
}
