package document

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

// SupportedSchemaVersions is the semver constraint a schema's version must
// satisfy.
const SupportedSchemaVersions = ">= 1.0.0, < 2.0.0"

// Schema describes the types of an untyped document tree so that each
// mapping key can be attributed to the type that declares it.
type Schema struct {
	// Version is the schema format version. Empty means the current version.
	Version string `json:"version,omitempty"`
	// Root is the type of every top-level document unless overridden.
	Root string `json:"root,omitempty"`
	// Types maps type names to their definitions.
	Types map[string]TypeDef `json:"types"`
}

// TypeDef defines one object type.
type TypeDef struct {
	// Embeds lists types whose properties are promoted into this type.
	// Promoted properties keep their embedded type as declaring type.
	Embeds []string `json:"embeds,omitempty"`
	// Properties maps property names to type references.
	Properties map[string]string `json:"properties,omitempty"`
}

// LoadSchema reads and parses a schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied schema path
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	return ParseSchema(data)
}

// ParseSchema parses a YAML or JSON schema.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	if s.Types == nil {
		s.Types = map[string]TypeDef{}
	}

	return &s, nil
}

// TypeNames returns the sorted names of all defined types.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// HasType reports whether the schema defines typeName.
func (s *Schema) HasType(typeName string) bool {
	_, ok := s.Types[typeName]

	return ok
}

// Property returns the type that declares property when it appears on an
// object of type typeName, together with the property's type reference.
// The type itself is searched first, then its embeds breadth-first. When
// no type declares the property, typeName is returned with ok false.
func (s *Schema) Property(typeName, property string) (declaringType string, ref TypeRef, ok bool) {
	queue := []string{typeName}
	seen := map[string]bool{}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if seen[name] {
			continue
		}

		seen[name] = true

		def, found := s.Types[name]
		if !found {
			continue
		}

		if raw, declared := def.Properties[property]; declared {
			r, err := ParseTypeRef(raw)
			if err != nil {
				r = TypeRef{}
			}

			return name, r, true
		}

		queue = append(queue, def.Embeds...)
	}

	return typeName, TypeRef{}, false
}

// DeclaringType returns the type that declares property on typeName.
func (s *Schema) DeclaringType(typeName, property string) string {
	decl, _, _ := s.Property(typeName, property)

	return decl
}

// RefKind classifies a TypeRef.
type RefKind int

const (
	// RefScalar is a value that is copied without filtering.
	RefScalar RefKind = iota
	// RefObject is an object of a schema type.
	RefObject
	// RefArray is a sequence whose items share Elem's type.
	RefArray
	// RefMap is an object with arbitrary keys whose values share Elem's type.
	RefMap
)

// scalarRefs are the reference spellings that denote an unfiltered value.
var scalarRefs = map[string]bool{
	"":        true,
	"any":     true,
	"boolean": true,
	"integer": true,
	"number":  true,
	"string":  true,
}

// TypeRef is a parsed property type reference such as "Director",
// "[]Director" or "map[[]Director]".
type TypeRef struct {
	Kind RefKind
	Name string
	Elem *TypeRef
}

// ParseTypeRef parses a type reference.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)

	switch {
	case scalarRefs[s]:
		return TypeRef{Kind: RefScalar}, nil
	case strings.HasPrefix(s, "[]"):
		elem, err := ParseTypeRef(s[2:])
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: RefArray, Elem: &elem}, nil
	case strings.HasPrefix(s, "map["):
		if !strings.HasSuffix(s, "]") {
			return TypeRef{}, fmt.Errorf("invalid type reference %q: missing closing bracket", s)
		}

		elem, err := ParseTypeRef(s[len("map[") : len(s)-1])
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: RefMap, Elem: &elem}, nil
	case strings.ContainsAny(s, ".[]* \t"):
		return TypeRef{}, fmt.Errorf("invalid type reference %q", s)
	default:
		return TypeRef{Kind: RefObject, Name: s}, nil
	}
}

// String returns the reference in its parseable form.
func (r TypeRef) String() string {
	switch r.Kind {
	case RefObject:
		return r.Name
	case RefArray:
		return "[]" + r.Elem.String()
	case RefMap:
		return "map[" + r.Elem.String() + "]"
	default:
		return ""
	}
}

// ObjectNames returns every object type name the reference mentions.
func (r TypeRef) ObjectNames() []string {
	switch r.Kind {
	case RefObject:
		return []string{r.Name}
	case RefArray, RefMap:
		return r.Elem.ObjectNames()
	default:
		return nil
	}
}
