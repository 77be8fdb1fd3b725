package cli

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/registrar/internal/catalog"
	"github.com/agentx-labs/registrar/internal/logging"
	"github.com/agentx-labs/registrar/internal/registry"
)

// loadSystem loads the configured catalogs and builds a registry from them.
// The returned system is usable even when an error is returned after Build.
func loadSystem() (*registry.System, *catalog.Provider, error) {
	sink := logging.Nop()
	if logger != nil {
		sink = logging.NewZap(logger)
	}
	isStrict := strict()

	p, err := catalog.Load(catalog.SourcesFromPaths(catalogPaths()), catalog.Options{
		EngineVersion: buildVersion,
		Strict:        isStrict,
		Log:           sink,
	})
	if err != nil {
		return nil, p, fmt.Errorf("loading catalogs: %w", err)
	}

	opts := []registry.Option{registry.WithLogger(sink)}
	if cfg != nil && cfg.MaxExpansionDepth() > 0 {
		opts = append(opts, registry.WithMaxExpansionDepth(cfg.MaxExpansionDepth()))
	}
	sys := registry.New(opts...)
	if err := sys.AddDiscoverySource(p); err != nil {
		return nil, p, err
	}
	if err := sys.Build(); err != nil {
		return sys, p, fmt.Errorf("building registry: %w", err)
	}

	if isStrict {
		if events := sys.Events(); len(events) > 0 {
			errs := make([]error, 0, len(events))
			for _, ev := range events {
				errs = append(errs, ev)
			}
			return sys, p, fmt.Errorf("strict mode: build recorded %d event(s): %w", len(events), errors.Join(errs...))
		}
	}
	return sys, p, nil
}
