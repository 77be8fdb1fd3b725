package registry

// ManagerDescriptor describes one manager to instantiate.
type ManagerDescriptor struct {
	Key ManagerKey
	// Name overrides the default name derived from Key.
	Name     string
	Priority int
	// ItemType is the item type this manager claims.
	ItemType TypeKey
	Parent   ManagerKey
	Ignored  bool
	Obsolete bool
	// New creates the manager's behavior. The result may implement any of
	// the Manager* hook interfaces, DefaultItemer, SecondWaveItemer and
	// DependencyDeclarer. Nil means no behavior.
	New   func() any
	Slots []SlotDescriptor
	Tags  []TagDescriptor
}

// SlotDescriptor is a named item declared on a manager descriptor. The item
// goes to Manager when set, otherwise to the manager claiming its type.
type SlotDescriptor struct {
	Name     string
	Priority int
	Manager  ManagerKey
	Type     TypeKey
	Ignored  bool
	Obsolete bool
	New      func() Item
}

// ItemDescriptor describes an automatically self-registered item. At most one
// such item exists per type; it is the target of ByType dependencies.
type ItemDescriptor struct {
	Type       TypeKey
	Name       string
	CustomName string
	Priority   int
	Manager    ManagerKey
	Ignored    bool
	Obsolete   bool
	New        func() Item
}

// TagDescriptor declares a tag owned by a manager. Members are item full path
// names bound after every item is registered.
type TagDescriptor struct {
	Name     string
	ItemType TypeKey
	Members  []string
}

// Provider supplies candidate descriptors to a System.
type Provider interface {
	ManagerDescriptors() []ManagerDescriptor
	ItemDescriptors() []ItemDescriptor
}

// TypeProvider is implemented by providers that also declare item types.
type TypeProvider interface {
	TypeDescriptors() []TypeDescriptor
}

// StaticProvider serves descriptors declared in code.
type StaticProvider struct {
	Types    []TypeDescriptor
	Managers []ManagerDescriptor
	Items    []ItemDescriptor
}

func (p StaticProvider) ManagerDescriptors() []ManagerDescriptor { return p.Managers }
func (p StaticProvider) ItemDescriptors() []ItemDescriptor       { return p.Items }
func (p StaticProvider) TypeDescriptors() []TypeDescriptor       { return p.Types }

func (d ItemDescriptor) name(typ TypeKey) string {
	switch {
	case d.CustomName != "":
		return d.CustomName
	case d.Name != "":
		return d.Name
	default:
		return defaultItemName(typ)
	}
}
