package cli

import (
	"github.com/agentx-labs/registrar/internal/catalog"
	"github.com/agentx-labs/registrar/internal/registry"
)

// basicItem is the read-only surface every registered item has through
// registry.Basics.
type basicItem interface {
	Name() string
	FullPathName() string
	Priority() int
	Index() (int, bool)
	Type() registry.TypeKey
	Manager() *registry.Manager
}

type itemView struct {
	FullPathName string            `json:"full_path_name" yaml:"full_path_name"`
	Name         string            `json:"name" yaml:"name"`
	Type         string            `json:"type" yaml:"type"`
	Manager      string            `json:"manager" yaml:"manager"`
	Priority     int               `json:"priority" yaml:"priority"`
	Index        *int              `json:"index,omitempty" yaml:"index,omitempty"`
	Kind         string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Properties   map[string]any    `json:"properties,omitempty" yaml:"properties,omitempty"`
	Refs         map[string]string `json:"refs,omitempty" yaml:"refs,omitempty"`
	Tags         []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type managerView struct {
	FullPathName string        `json:"full_path_name"`
	Name         string        `json:"name"`
	Key          string        `json:"key"`
	ItemType     string        `json:"item_type"`
	Priority     int           `json:"priority"`
	Items        []itemView    `json:"items,omitempty"`
	Children     []managerView `json:"children,omitempty"`
}

type tagView struct {
	FullPathName string   `json:"full_path_name" yaml:"full_path_name"`
	ItemType     string   `json:"item_type" yaml:"item_type"`
	Self         bool     `json:"self" yaml:"self"`
	Members      []string `json:"members" yaml:"members"`
}

func viewItem(sys *registry.System, it registry.Item) itemView {
	b, ok := it.(basicItem)
	if !ok {
		return itemView{}
	}
	v := itemView{
		FullPathName: b.FullPathName(),
		Name:         b.Name(),
		Type:         string(b.Type()),
		Priority:     b.Priority(),
	}
	if m := b.Manager(); m != nil {
		v.Manager = m.FullPathName()
	}
	if idx, ok := b.Index(); ok {
		v.Index = &idx
	}
	if e, ok := it.(*catalog.Entry); ok {
		v.Kind = e.Kind()
		v.Properties = e.Properties()
		for _, as := range e.Refs() {
			ref, _ := e.Ref(as)
			if rb, ok := ref.(basicItem); ok {
				if v.Refs == nil {
					v.Refs = make(map[string]string)
				}
				v.Refs[as] = rb.FullPathName()
			}
		}
	}
	for _, t := range sys.Tags() {
		if t.Has(it) {
			v.Tags = append(v.Tags, t.FullPathName())
		}
	}
	return v
}

func viewManager(sys *registry.System, m *registry.Manager) managerView {
	v := managerView{
		FullPathName: m.FullPathName(),
		Name:         m.Name(),
		Key:          string(m.Key()),
		ItemType:     string(m.ItemType()),
		Priority:     m.Priority(),
	}
	for it := range m.All() {
		v.Items = append(v.Items, viewItem(sys, it))
	}
	for _, child := range m.Children() {
		v.Children = append(v.Children, viewManager(sys, child))
	}
	return v
}

func viewTag(t *registry.Tag) tagView {
	v := tagView{
		FullPathName: t.FullPathName(),
		ItemType:     string(t.ItemType()),
		Self:         t.IsSelf(),
		Members:      []string{},
	}
	for it := range t.All() {
		if b, ok := it.(basicItem); ok {
			v.Members = append(v.Members, b.FullPathName())
		}
	}
	return v
}
