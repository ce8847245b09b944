package sources

import (
	"fmt"
	"strings"
)

// Registry is the process-wide table of known sources. It is constructed at
// startup, populated once, and injected into whatever needs to look sources
// up; there is no package-level singleton.
type Registry struct {
	order   []Source
	byName  map[string]Source
	configs *ConfigCache
}

// NewRegistry creates an empty registry. The config cache is optional; when
// nil every registered source is treated as enabled with its built-in
// cadence.
func NewRegistry(configs *ConfigCache) *Registry {
	return &Registry{
		byName:  make(map[string]Source),
		configs: configs,
	}
}

// Register adds a source to the registry. Registering two sources with the
// same name is a wiring mistake and fails loudly.
func (r *Registry) Register(src Source) error {
	name := src.Name()
	if name == "" {
		return fmt.Errorf("source has empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	r.byName[name] = src
	r.order = append(r.order, src)
	return nil
}

// Get returns the source with the given name, or nil if unknown.
func (r *Registry) Get(name string) Source {
	return r.byName[name]
}

// All returns every registered source in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.order))
	copy(out, r.order)
	return out
}

// Enabled returns the sources not disabled by an override file.
func (r *Registry) Enabled() []Source {
	out := make([]Source, 0, len(r.order))
	for _, src := range r.order {
		if r.ConfigFor(src).Enabled {
			out = append(out, src)
		}
	}
	return out
}

// ByTier returns the enabled sources in the given tier.
func (r *Registry) ByTier(tier Tier) []Source {
	out := make([]Source, 0, len(r.order))
	for _, src := range r.Enabled() {
		if src.Tier() == tier {
			out = append(out, src)
		}
	}
	return out
}

// ApplicableToStack returns the enabled sources applicable to a project
// stack. A source with no stack conditions is always applicable; one with
// conditions applies iff at least one condition is a case-insensitive
// substring of at least one stack entry.
func (r *Registry) ApplicableToStack(stack []string) []Source {
	out := make([]Source, 0, len(r.order))
	for _, src := range r.Enabled() {
		if matchesStack(src.StackConditions(), stack) {
			out = append(out, src)
		}
	}
	return out
}

// ConfigFor returns the effective configuration view of a source, with any
// override from the sources directory applied.
func (r *Registry) ConfigFor(src Source) Config {
	cfg := Config{
		Name:            src.Name(),
		Tier:            src.Tier(),
		Reliability:     src.Reliability(),
		Enabled:         true,
		FetchMethod:     src.FetchMethod(),
		RefreshInterval: src.RefreshInterval(),
		StackConditions: src.StackConditions(),
	}
	if r.configs != nil {
		r.configs.Apply(&cfg)
	}
	return cfg
}

func matchesStack(conditions, stack []string) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, cond := range conditions {
		cond = strings.ToLower(strings.TrimSpace(cond))
		if cond == "" {
			continue
		}
		for _, entry := range stack {
			if strings.Contains(strings.ToLower(entry), cond) {
				return true
			}
		}
	}
	return false
}
