// Package docs generates a property reference from a schema: every type
// with its own and promoted properties, the type that declares each one and
// whether the configured filter serializes it. Markdown, HTML and AsciiDoc
// output are supported, with an optional example document.
package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/filter"
)

// PropertyInfo describes a single property of a type.
type PropertyInfo struct {
	// Name is the property name (e.g., "Title").
	Name string
	// Type is the type reference as written in the schema, or "any".
	Type string
	// DeclaredBy is the type that declares the property. It differs from
	// the owning type for properties promoted from an embedded type.
	DeclaredBy string
	// Serialized is the filter decision for DeclaredBy.Name.
	Serialized bool
	// Reason explains the decision.
	Reason string
}

// Promoted reports whether the property is declared by an embedded type.
func (p PropertyInfo) Promoted(owner string) bool {
	return p.DeclaredBy != owner
}

// TypeInfo describes a schema type.
type TypeInfo struct {
	// Name is the type name.
	Name string
	// Embeds lists the directly embedded types.
	Embeds []string
	// Properties are the own and promoted properties, sorted by name.
	Properties []PropertyInfo
}

// SerializedCount returns the number of serialized properties.
func (t TypeInfo) SerializedCount() int {
	n := 0

	for _, p := range t.Properties {
		if p.Serialized {
			n++
		}
	}

	return n
}

// DocModel is the structured data model for documentation generation.
type DocModel struct {
	// Title overrides the document title.
	Title string
	// Version is the schema version.
	Version string
	// Root is the type of top-level documents.
	Root string
	// Fields and ExcludeFields are the filter's specifier lists.
	Fields        []string
	ExcludeFields []string
	// Types are all schema types, sorted by name.
	Types []TypeInfo
	// IncludeExamples controls whether an example document is appended.
	IncludeExamples bool
}

// Type returns the type with the given name.
func (m *DocModel) Type(name string) (TypeInfo, bool) {
	for _, t := range m.Types {
		if t.Name == name {
			return t, true
		}
	}

	return TypeInfo{}, false
}

// Build extracts a DocModel from a schema and a filter. A nil filter
// serializes everything.
func Build(schema *document.Schema, f *filter.PropertyFilter) (*DocModel, error) {
	if schema == nil {
		return nil, fmt.Errorf("no schema given")
	}

	if f == nil {
		f = filter.New()
	}

	model := &DocModel{
		Version:       schema.Version,
		Root:          schema.Root,
		Fields:        append([]string(nil), f.Fields...),
		ExcludeFields: append([]string(nil), f.ExcludeFields...),
	}

	for _, name := range schema.TypeNames() {
		ti := TypeInfo{
			Name:   name,
			Embeds: append([]string(nil), schema.Types[name].Embeds...),
		}

		for _, p := range collectProperties(schema, name) {
			d := f.Explain(p.DeclaredBy, p.Name)
			p.Serialized = d.Serialize
			p.Reason = d.Reason

			ti.Properties = append(ti.Properties, p)
		}

		model.Types = append(model.Types, ti)
	}

	return model, nil
}

// collectProperties walks typeName and its embeds breadth-first. The first
// type that declares a name wins, matching Schema.DeclaringType.
func collectProperties(schema *document.Schema, typeName string) []PropertyInfo {
	var props []PropertyInfo

	seenProp := map[string]bool{}
	seenType := map[string]bool{}
	queue := []string{typeName}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if seenType[name] {
			continue
		}

		seenType[name] = true

		def := schema.Types[name]

		// Sort keys for stable output.
		keys := make([]string, 0, len(def.Properties))
		for k := range def.Properties {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			if seenProp[k] {
				continue
			}

			seenProp[k] = true

			typ := strings.TrimSpace(def.Properties[k])
			if typ == "" {
				typ = "any"
			}

			props = append(props, PropertyInfo{Name: k, Type: typ, DeclaredBy: name})
		}

		queue = append(queue, def.Embeds...)
	}

	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })

	return props
}

// GenerateExampleYAML creates an example root document containing only
// the serialized properties. Nested objects are expanded once per type.
func GenerateExampleYAML(model *DocModel) string {
	var b strings.Builder

	if _, ok := model.Type(model.Root); !ok {
		return "{}\n"
	}

	if !writeExampleFields(&b, model, model.Root, 0, map[string]bool{}) {
		return "{}\n"
	}

	return b.String()
}

func writeExampleFields(b *strings.Builder, model *DocModel, typeName string, indent int, visiting map[string]bool) bool {
	t, _ := model.Type(typeName)
	prefix := strings.Repeat(" ", indent)
	wrote := false

	visiting[typeName] = true
	defer delete(visiting, typeName)

	for _, p := range t.Properties {
		if !p.Serialized {
			continue
		}

		wrote = true

		b.WriteString(prefix)
		b.WriteString(p.Name)

		ref, err := document.ParseTypeRef(p.Type)
		if err == nil && ref.Kind == document.RefObject && !visiting[ref.Name] {
			if _, ok := model.Type(ref.Name); ok {
				var nested strings.Builder
				if writeExampleFields(&nested, model, ref.Name, indent+2, visiting) {
					b.WriteString(":\n")
					b.WriteString(nested.String())

					continue
				}
			}
		}

		b.WriteString(": ")
		b.WriteString(exampleValue(p.Type, ref, err))
		b.WriteString("\n")
	}

	return wrote
}

func exampleValue(typ string, ref document.TypeRef, err error) string {
	if err != nil {
		return `""`
	}

	switch ref.Kind {
	case document.RefArray:
		return "[]"
	case document.RefMap, document.RefObject:
		return "{}"
	}

	switch typ {
	case "integer":
		return "1"
	case "number":
		return "1.0"
	case "boolean":
		return "true"
	default:
		return `""`
	}
}
