package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentx-labs/registrar/internal/logging"
	"github.com/agentx-labs/registrar/internal/manifest"
	"github.com/agentx-labs/registrar/internal/registry"
)

// Options configures Load.
type Options struct {
	// EngineVersion is checked against each catalog's requires constraint.
	EngineVersion string
	// Factories defaults to DefaultFactories.
	Factories Factories
	// Behaviors defaults to DefaultBehaviors.
	Behaviors Behaviors
	// Strict turns any rejected manifest into a Load error.
	Strict bool
	Log    logging.Sink
}

// Problem is a manifest that was rejected during Load.
type Problem struct {
	File   ManifestFile
	Err    error
	Issues []manifest.ValidationIssue
}

func (p Problem) Error() string {
	if len(p.Issues) == 0 {
		return fmt.Sprintf("%s: %v", p.File.Path, p.Err)
	}
	lines := make([]string, 0, len(p.Issues))
	for _, issue := range p.Issues {
		lines = append(lines, "  "+issue.String())
	}
	return fmt.Sprintf("%s: %v\n%s", p.File.Path, p.Err, strings.Join(lines, "\n"))
}

func (p Problem) Unwrap() error { return p.Err }

// ErrInvalidManifest marks manifests that failed schema validation.
var ErrInvalidManifest = errors.New("invalid manifest")

// Provider serves the descriptors of every accepted catalog. It implements
// registry.Provider and registry.TypeProvider.
type Provider struct {
	name     string
	catalogs []*manifest.Catalog
	problems []Problem
	types    []registry.TypeDescriptor
	managers []registry.ManagerDescriptor
	items    []registry.ItemDescriptor
}

// Load discovers, validates and parses the manifests under sources. Missing
// sources are skipped. Rejected manifests are logged and kept in Problems;
// with Strict set they also fail the load.
func Load(sources []Source, opts Options) (*Provider, error) {
	if opts.Factories == nil {
		opts.Factories = DefaultFactories()
	}
	if opts.Behaviors == nil {
		opts.Behaviors = DefaultBehaviors()
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	files, skipped := Discover(sources)
	for _, err := range skipped {
		log.Debug("catalog source skipped", "error", err)
	}

	p := &Provider{name: sourceLabel(sources)}
	seen := make(map[string]string)
	for _, f := range files {
		c, prob := loadFile(f, opts)
		if prob != nil {
			log.Warn("catalog rejected", "path", f.Path, "source", f.SourceName, "error", prob.Err)
			p.problems = append(p.problems, *prob)
			continue
		}
		if prev, ok := seen[c.Name]; ok {
			log.Warn("duplicate catalog, keeping first", "catalog", c.Name, "kept", prev, "skipped", f.Path)
			continue
		}
		seen[c.Name] = f.Path
		log.Debug("catalog loaded", "catalog", c.Name, "version", c.Version, "path", f.Path)
		p.add(c, opts)
	}

	if opts.Strict && len(p.problems) > 0 {
		errs := make([]error, 0, len(p.problems))
		for _, prob := range p.problems {
			errs = append(errs, prob)
		}
		return p, errors.Join(errs...)
	}
	return p, nil
}

func loadFile(f ManifestFile, opts Options) (*manifest.Catalog, *Problem) {
	result, err := manifest.ValidateFile(f.Path)
	if err != nil {
		return nil, &Problem{File: f, Err: err}
	}
	if !result.Valid {
		return nil, &Problem{File: f, Err: ErrInvalidManifest, Issues: result.Issues}
	}
	c, err := manifest.ParseFile(f.Path)
	if err != nil {
		return nil, &Problem{File: f, Err: err}
	}
	if err := manifest.CheckVersion(c); err != nil {
		return nil, &Problem{File: f, Err: err}
	}
	if err := manifest.CheckRequires(c, opts.EngineVersion); err != nil {
		return nil, &Problem{File: f, Err: err}
	}
	if err := check(c, opts); err != nil {
		return nil, &Problem{File: f, Err: err}
	}
	return c, nil
}

// check rejects kinds and behaviors nothing can build.
func check(c *manifest.Catalog, opts Options) error {
	var errs []error
	for i, m := range c.Managers {
		if m.Behavior != "" {
			if _, ok := opts.Behaviors[m.Behavior]; !ok {
				errs = append(errs, fmt.Errorf("managers[%d]: unknown behavior %q", i, m.Behavior))
			}
		}
		for j, slot := range m.Slots {
			errs = append(errs, opts.Factories.check(slot, fmt.Sprintf("managers[%d].slots[%d]", i, j)))
		}
	}
	for i, it := range c.Items {
		errs = append(errs, opts.Factories.check(it, fmt.Sprintf("items[%d]", i)))
	}
	return errors.Join(errs...)
}

func (p *Provider) add(c *manifest.Catalog, opts Options) {
	p.catalogs = append(p.catalogs, c)
	for _, t := range c.Types {
		p.types = append(p.types, registry.TypeDescriptor{
			Key:    registry.TypeKey(t.Key),
			Parent: registry.TypeKey(t.Parent),
		})
	}
	for _, m := range c.Managers {
		p.managers = append(p.managers, managerDescriptor(m, opts))
	}
	for _, it := range c.Items {
		p.items = append(p.items, registry.ItemDescriptor{
			Type:       registry.TypeKey(it.Type),
			Name:       it.Name,
			CustomName: it.CustomName,
			Priority:   it.Priority,
			Manager:    registry.ManagerKey(it.Manager),
			Ignored:    it.Ignored,
			Obsolete:   it.Obsolete,
			New:        newItem(it, opts.Factories),
		})
	}
}

func managerDescriptor(m manifest.ManagerSpec, opts Options) registry.ManagerDescriptor {
	d := registry.ManagerDescriptor{
		Key:      registry.ManagerKey(m.Key),
		Name:     m.Name,
		Priority: m.Priority,
		ItemType: registry.TypeKey(m.ItemType),
		Parent:   registry.ManagerKey(m.Parent),
		Ignored:  m.Ignored,
		Obsolete: m.Obsolete,
	}
	if m.Behavior != "" {
		d.New = opts.Behaviors[m.Behavior]
	}
	for _, slot := range m.Slots {
		d.Slots = append(d.Slots, registry.SlotDescriptor{
			Name:     slot.Name,
			Priority: slot.Priority,
			Manager:  registry.ManagerKey(slot.Manager),
			Type:     registry.TypeKey(slot.Type),
			Ignored:  slot.Ignored,
			Obsolete: slot.Obsolete,
			New:      newItem(slot, opts.Factories),
		})
	}
	for _, t := range m.Tags {
		d.Tags = append(d.Tags, registry.TagDescriptor{
			Name:     t.Name,
			ItemType: registry.TypeKey(t.ItemType),
			Members:  t.Members,
		})
	}
	return d
}

// newItem returns a registry factory for spec. Specs are checked at load,
// so a failure here yields nil, which the registry skips with a warning.
func newItem(spec manifest.ItemSpec, f Factories) func() registry.Item {
	return func() registry.Item {
		it, err := f.New(spec)
		if err != nil {
			return nil
		}
		return it
	}
}

func sourceLabel(sources []Source) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return "catalogs(" + strings.Join(names, ",") + ")"
}

func (p *Provider) String() string { return p.name }

// Catalogs returns the accepted catalogs in load order.
func (p *Provider) Catalogs() []*manifest.Catalog { return p.catalogs }

// Problems returns the rejected manifests.
func (p *Provider) Problems() []Problem { return p.problems }

func (p *Provider) TypeDescriptors() []registry.TypeDescriptor       { return p.types }
func (p *Provider) ManagerDescriptors() []registry.ManagerDescriptor { return p.managers }
func (p *Provider) ItemDescriptors() []registry.ItemDescriptor       { return p.items }
