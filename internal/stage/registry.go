package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flarebyte/glossa/internal/config"
)

// CustomPrefix marks a dynamically configured stage: custom:<name>.
const CustomPrefix = "custom:"

var (
	// ErrDuplicate is returned when a stage or plugin name is registered twice.
	ErrDuplicate = errors.New("already registered")
	// ErrUnknownPlugin is returned when customAnnotatorClass names no plugin.
	ErrUnknownPlugin = errors.New("unknown annotator class")
)

// Entry is one row of the static stage table.
type Entry struct {
	Name          string
	Prerequisites []string
	// Keys lists properties outside the <name>.* namespace that change the
	// stage's behavior.
	Keys    []string
	Factory Factory
	// PrerequisitesFor, when set, replaces Prerequisites for stages whose
	// inputs depend on their properties.
	PrerequisitesFor func(props config.Properties) []string
}

// Registry maps stage names to factories and prerequisite lists, and class
// names to plugin constructors for custom stages. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	plugins map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: map[string]Entry{},
		plugins: map[string]Factory{},
	}
}

// NewDefaultRegistry returns a registry holding every built-in stage and
// plugin class.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range builtins {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	for class, f := range builtinPlugins {
		if err := r.RegisterPlugin(class, f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a built-in stage row.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || strings.HasPrefix(e.Name, CustomPrefix) {
		return fmt.Errorf("invalid stage name: %q", e.Name)
	}
	if e.Factory == nil {
		return fmt.Errorf("stage %s: nil factory", e.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("stage %s: %w", e.Name, ErrDuplicate)
	}
	e.Prerequisites = append([]string(nil), e.Prerequisites...)
	e.Keys = append([]string(nil), e.Keys...)
	r.entries[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// RegisterPlugin adds a constructor for custom stages selected with
// customAnnotatorClass.<name> = class.
func (r *Registry) RegisterPlugin(class string, f Factory) error {
	if class == "" || f == nil {
		return fmt.Errorf("invalid plugin registration: %q", class)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[class]; ok {
		return fmt.Errorf("plugin %s: %w", class, ErrDuplicate)
	}
	r.plugins[class] = f
	return nil
}

// Lookup returns the built-in row for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns built-in stage names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Plugins returns registered plugin class names, sorted.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for c := range r.plugins {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsCustom reports whether name is in the custom namespace.
func IsCustom(name string) bool { return strings.HasPrefix(name, CustomPrefix) }

// CustomName strips the custom namespace prefix.
func CustomName(name string) string { return strings.TrimPrefix(name, CustomPrefix) }

// Known reports whether name is a built-in stage, or a custom stage whose
// class is configured in props.
func (r *Registry) Known(name string, props config.Properties) bool {
	if IsCustom(name) {
		base := CustomName(name)
		if base == "" {
			return false
		}
		_, ok := props.CustomClass(base)
		return ok
	}
	_, ok := r.Lookup(name)
	return ok
}

// Prerequisites returns the prerequisite list of name. Custom stages read
// theirs from <name>.prerequisites.
func (r *Registry) Prerequisites(name string, props config.Properties) ([]string, bool) {
	if IsCustom(name) {
		if !r.Known(name, props) {
			return nil, false
		}
		return props.List(CustomName(name) + ".prerequisites"), true
	}
	e, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	if e.PrerequisitesFor != nil {
		return e.PrerequisitesFor(props), true
	}
	return append([]string(nil), e.Prerequisites...), true
}

// RelevantProperties returns exactly the properties that determine the
// behavior of stage name: its own namespace plus declared extra keys, and
// for custom stages the class key.
func (r *Registry) RelevantProperties(name string, props config.Properties) config.Properties {
	if IsCustom(name) {
		base := CustomName(name)
		rel := props.WithPrefix(base + ".")
		if v, ok := props.Lookup(config.CustomClassPrefix + base); ok {
			rel = rel.With(config.CustomClassPrefix+base, v)
		}
		return rel
	}
	rel := props.WithPrefix(name + ".")
	if e, ok := r.Lookup(name); ok {
		for _, k := range e.Keys {
			if v, ok := props.Lookup(k); ok {
				rel = rel.With(k, v)
			}
		}
	}
	return rel
}

// Construct builds a stage instance. Built-in names use the static factory
// table; custom names resolve their class through the plugin table.
func (r *Registry) Construct(name string, props config.Properties) (Stage, error) {
	if IsCustom(name) {
		base := CustomName(name)
		class, ok := props.CustomClass(base)
		if !ok {
			return nil, fmt.Errorf("missing %s%s", config.CustomClassPrefix, base)
		}
		r.mu.RLock()
		f, ok := r.plugins[class]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, class)
		}
		return f(base, props)
	}
	e, ok := r.Lookup(name)
	if !ok {
		return nil, ErrUnknown{name: name}
	}
	return e.Factory(name, props)
}

// ErrUnknown is returned when a stage is not found.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown stage: " + e.name }
