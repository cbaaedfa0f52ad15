package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Supported output format names.
const (
	FormatNameJSON = "json"
	FormatNameYAML = "yaml"
)

// Registry maps format names to FormatFunc implementations, enabling
// pluggable output formats for the filter and diff commands.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]FormatFunc
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]FormatFunc),
	}
}

// Register adds a formatter under the given format name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, fn FormatFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.formats[name] = fn
}

// Format returns the formatter for the given name, or an error if not found.
func (r *Registry) Format(name string) (FormatFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.availableLocked())
	}

	return fn, nil
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.namesLocked()
}

// AvailableFormats returns a comma-separated string of registered format names.
func (r *Registry) AvailableFormats() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.availableLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) availableLocked() string {
	names := r.namesLocked()
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}

// DefaultRegistry returns a registry pre-populated with the built-in
// formats: json and yaml.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(FormatNameJSON, FormatJSON)
	r.Register(FormatNameYAML, FormatYAML)

	return r
}
