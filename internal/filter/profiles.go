package filter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

// ProfileConfig describes a reusable, named set of specifiers that can be
// applied via --profile.
type ProfileConfig struct {
	// Fields lists include specifiers.
	Fields []string `json:"fields,omitempty"`
	// ExcludeFields lists exclude specifiers.
	ExcludeFields []string `json:"excludeFields,omitempty"`
	// Extends names another profile whose specifiers are applied first.
	Extends string `json:"extends,omitempty"`
}

// ProfileNames returns the sorted names of the given profiles.
func ProfileNames(profiles map[string]ProfileConfig) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveProfile resolves a profile by name, following its extends chain.
// The returned profile carries the base specifiers first and has an empty
// Extends. Returns an error for unknown names and for cycles.
func ResolveProfile(name string, profiles map[string]ProfileConfig) (ProfileConfig, error) {
	return resolveProfile(name, profiles, nil)
}

func resolveProfile(name string, profiles map[string]ProfileConfig, chain []string) (ProfileConfig, error) {
	for _, seen := range chain {
		if seen == name {
			return ProfileConfig{}, fmt.Errorf("profile cycle: %s -> %s", strings.Join(chain, " -> "), name)
		}
	}

	p, ok := profiles[name]
	if !ok {
		if len(chain) > 0 {
			return ProfileConfig{}, fmt.Errorf("profile %q extends unknown profile %q", chain[len(chain)-1], name)
		}

		return ProfileConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	if p.Extends == "" {
		return mergeProfiles(ProfileConfig{}, p), nil
	}

	base, err := resolveProfile(p.Extends, profiles, append(chain, name))
	if err != nil {
		return ProfileConfig{}, err
	}

	return mergeProfiles(base, p), nil
}

// mergeProfiles appends an extension profile's specifiers to a base profile.
func mergeProfiles(base, ext ProfileConfig) ProfileConfig {
	return ProfileConfig{
		Fields:        append(append([]string{}, base.Fields...), ext.Fields...),
		ExcludeFields: append(append([]string{}, base.ExcludeFields...), ext.ExcludeFields...),
	}
}

// Apply appends the profile's specifiers to the filter.
func (f *PropertyFilter) Apply(p ProfileConfig) *PropertyFilter {
	f.AddInclude(p.Fields...)
	f.AddExclude(p.ExcludeFields...)

	return f
}

// LoadProfiles loads profile definitions from a YAML file.
// The file should contain a top-level "profiles" key.
func LoadProfiles(path string) (map[string]ProfileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	return ParseProfiles(data)
}

// ParseProfiles parses profile definitions from YAML bytes.
func ParseProfiles(data []byte) (map[string]ProfileConfig, error) {
	var raw struct {
		Profiles map[string]ProfileConfig `json:"profiles"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	if raw.Profiles == nil {
		return make(map[string]ProfileConfig), nil
	}

	return raw.Profiles, nil
}
