package registry

import "fmt"

// Phase is one step of the build lifecycle.
type Phase int

const (
	PhaseDiscovery Phase = iota + 1
	PhaseManagerCreate
	PhaseHierarchy
	PhaseManagerAwakeInit
	PhaseCollect
	PhaseManagerInit
	PhaseItemAwakeInit
	PhaseItemPut
	PhaseItemInit
	PhaseSecondWave
	PhaseManagerInitEnd
	PhaseItemInitEnd
	PhaseTagInitEnd
)

var phaseNames = map[Phase]string{
	PhaseDiscovery:        "discovery",
	PhaseManagerCreate:    "manager-create",
	PhaseHierarchy:        "hierarchy",
	PhaseManagerAwakeInit: "manager-awake-init",
	PhaseCollect:          "collect",
	PhaseManagerInit:      "manager-init",
	PhaseItemAwakeInit:    "item-awake-init",
	PhaseItemPut:          "item-put",
	PhaseItemInit:         "item-init",
	PhaseSecondWave:       "second-wave",
	PhaseManagerInitEnd:   "manager-init-end",
	PhaseItemInitEnd:      "item-init-end",
	PhaseTagInitEnd:       "tag-init-end",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// HookEvent is passed to lifecycle hooks. Manager, Item and Tag are set for
// the phases that concern them; Discovery, Collect and SecondWave hooks run
// once per build with only System set.
type HookEvent struct {
	Phase   Phase
	System  *System
	Manager *Manager
	Item    Item
	Tag     *Tag
}

// Hook is a lifecycle callback. A returned error or a panic is reported as
// ErrHookFailure and does not stop the build.
type Hook func(HookEvent) error
