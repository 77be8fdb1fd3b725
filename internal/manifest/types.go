package manifest

// Catalog is one catalog manifest file. A catalog declares item types,
// managers and automatically registered items.
type Catalog struct {
	Name        string        `yaml:"name" json:"name"`
	Version     string        `yaml:"version" json:"version"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Requires    string        `yaml:"requires,omitempty" json:"requires,omitempty"`
	Author      string        `yaml:"author,omitempty" json:"author,omitempty"`
	Types       []TypeSpec    `yaml:"types,omitempty" json:"types,omitempty"`
	Managers    []ManagerSpec `yaml:"managers,omitempty" json:"managers,omitempty"`
	Items       []ItemSpec    `yaml:"items,omitempty" json:"items,omitempty"`

	// Path is the file the catalog was read from; empty for in-memory data.
	Path string `yaml:"-" json:"-"`
}

// TypeSpec declares an item type and its parent type.
type TypeSpec struct {
	Key    string `yaml:"key" json:"key"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// ManagerSpec declares a manager.
type ManagerSpec struct {
	Key      string     `yaml:"key" json:"key"`
	Name     string     `yaml:"name,omitempty" json:"name,omitempty"`
	ItemType string     `yaml:"item_type,omitempty" json:"item_type,omitempty"`
	Parent   string     `yaml:"parent,omitempty" json:"parent,omitempty"`
	Priority int        `yaml:"priority,omitempty" json:"priority,omitempty"`
	Ignored  bool       `yaml:"ignored,omitempty" json:"ignored,omitempty"`
	Obsolete bool       `yaml:"obsolete,omitempty" json:"obsolete,omitempty"`
	Behavior string     `yaml:"behavior,omitempty" json:"behavior,omitempty"`
	Slots    []ItemSpec `yaml:"slots,omitempty" json:"slots,omitempty"`
	Tags     []TagSpec  `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// TagSpec declares a tag owned by a manager.
type TagSpec struct {
	Name     string   `yaml:"name" json:"name"`
	ItemType string   `yaml:"item_type,omitempty" json:"item_type,omitempty"`
	Members  []string `yaml:"members,omitempty" json:"members,omitempty"`
}

// ItemSpec describes an item. The same shape is used for manager slots,
// automatically registered items and child items.
type ItemSpec struct {
	Name       string           `yaml:"name,omitempty" json:"name,omitempty"`
	CustomName string           `yaml:"custom_name,omitempty" json:"custom_name,omitempty"`
	Kind       string           `yaml:"kind,omitempty" json:"kind,omitempty"`
	Type       string           `yaml:"type,omitempty" json:"type,omitempty"`
	Manager    string           `yaml:"manager,omitempty" json:"manager,omitempty"`
	Priority   int              `yaml:"priority,omitempty" json:"priority,omitempty"`
	Ignored    bool             `yaml:"ignored,omitempty" json:"ignored,omitempty"`
	Obsolete   bool             `yaml:"obsolete,omitempty" json:"obsolete,omitempty"`
	Properties map[string]any   `yaml:"properties,omitempty" json:"properties,omitempty"`
	Tags       []string         `yaml:"tags,omitempty" json:"tags,omitempty"`
	DependsOn  []DependencySpec `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Children   []ItemSpec       `yaml:"children,omitempty" json:"children,omitempty"`
}

// DependencySpec is a deferred reference from an item to another item.
type DependencySpec struct {
	// As is the key the resolved item is stored under.
	As       string `yaml:"as" json:"as"`
	Strategy string `yaml:"strategy" json:"strategy"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Dependency strategies accepted in manifests.
const (
	StrategyByType         = "by-type"
	StrategyByManager      = "by-manager"
	StrategyByFullPathName = "by-full-path-name"
)

// DefaultKind is the item kind used when a spec names none.
const DefaultKind = "entry"
