package router

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ManifestEntry is one declarative route binding: a path template, the
// verbs it answers to, and the name of a controller registered in a
// Registry. Manifests are a complement to programmatic Add calls, not
// a replacement — both populate the same Router.
type ManifestEntry struct {
	Path       string   `yaml:"path"`
	Verbs      []string `yaml:"verbs"`
	Controller string   `yaml:"controller"`
}

// Registry resolves a manifest's controller name to the concrete
// Controller wired up at startup.
type Registry map[string]Controller

// LoadManifest parses a YAML document of route entries and appends the
// resolved routes onto rt. An unknown controller name or a duplicated
// path parameter aborts the whole load with the first error found.
func LoadManifest(rt *Router, data []byte, registry Registry) error {
	var entries []ManifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing route manifest: %w", err)
	}

	for _, entry := range entries {
		controller, ok := registry[entry.Controller]
		if !ok {
			return fmt.Errorf("route manifest: unknown controller %q for path %q", entry.Controller, entry.Path)
		}
		route, err := New(entry.Verbs, entry.Path, controller)
		if err != nil {
			return fmt.Errorf("route manifest: %s %s: %w", entry.Verbs, entry.Path, err)
		}
		rt.Add(route)
	}
	return nil
}
