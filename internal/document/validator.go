package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/propfilter/internal/filter"
)

// ValidationSeverity indicates the severity of a validation finding.
type ValidationSeverity int

const (
	// SeverityError means the schema is unusable.
	SeverityError ValidationSeverity = iota
	// SeverityWarning means a specifier or definition will likely not do
	// what was intended.
	SeverityWarning
)

// String returns the severity name.
func (s ValidationSeverity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// ValidationFinding is a single validation issue.
type ValidationFinding struct {
	Severity ValidationSeverity
	Field    string
	Message  string
}

// Error implements the error interface.
func (f *ValidationFinding) Error() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Field, f.Message)
}

// ValidationResult holds all findings from a validation run.
type ValidationResult struct {
	Findings []ValidationFinding
}

// Errors returns only error-severity findings.
func (r *ValidationResult) Errors() []ValidationFinding {
	return r.bySeverity(SeverityError)
}

// Warnings returns only warning-severity findings.
func (r *ValidationResult) Warnings() []ValidationFinding {
	return r.bySeverity(SeverityWarning)
}

// HasErrors returns true if any error-severity findings exist.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors()) > 0
}

// HasWarnings returns true if any warning-severity findings exist.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

func (r *ValidationResult) bySeverity(sev ValidationSeverity) []ValidationFinding {
	var result []ValidationFinding

	for _, f := range r.Findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}

	return result
}

// Validate checks the schema for structural problems: an unsupported
// version, a missing root, dangling references and embed cycles.
func (s *Schema) Validate() *ValidationResult {
	v := &validator{schema: s}
	v.validateVersion()
	v.validateRoot()
	v.validateTypes()
	v.validateEmbedGraph()

	return &v.result
}

// Lint reports specifiers of f that cannot match anything under the
// schema. Malformed specifiers and unknown types are warnings, as the
// filter treats them as inert rather than invalid.
func (s *Schema) Lint(f *filter.PropertyFilter) *ValidationResult {
	v := &validator{schema: s}

	for _, issue := range f.Lint() {
		v.addWarning(issue.List, fmt.Sprintf("%q: %v", issue.Specifier, issue.Err))
	}

	v.lintList("fields", f.Fields)
	v.lintList("exclude-fields", f.ExcludeFields)

	return &v.result
}

type validator struct {
	schema *Schema
	result ValidationResult
}

func (v *validator) addError(field, msg string) {
	v.result.Findings = append(v.result.Findings, ValidationFinding{
		Severity: SeverityError,
		Field:    field,
		Message:  msg,
	})
}

func (v *validator) addWarning(field, msg string) {
	v.result.Findings = append(v.result.Findings, ValidationFinding{
		Severity: SeverityWarning,
		Field:    field,
		Message:  msg,
	})
}

func (v *validator) validateVersion() {
	if v.schema.Version == "" {
		return
	}

	ver, err := semver.NewVersion(v.schema.Version)
	if err != nil {
		v.addError("version", fmt.Sprintf("invalid version %q: %v", v.schema.Version, err))
		return
	}

	c, err := semver.NewConstraint(SupportedSchemaVersions)
	if err != nil {
		v.addError("version", err.Error())
		return
	}

	if !c.Check(ver) {
		v.addError("version", fmt.Sprintf("unsupported schema version %s (supported: %s)", ver, SupportedSchemaVersions))
	}
}

func (v *validator) validateRoot() {
	switch {
	case v.schema.Root == "":
		v.addWarning("root", "no root type set (documents require --root)")
	case !v.schema.HasType(v.schema.Root):
		v.addError("root", fmt.Sprintf("root type %q is not defined", v.schema.Root))
	}
}

func (v *validator) validateTypes() {
	if len(v.schema.Types) == 0 {
		v.addError("types", "no types defined")
		return
	}

	for _, name := range v.schema.TypeNames() {
		def := v.schema.Types[name]

		if _, err := filter.ParseSpecifier(name + "." + filter.Wildcard); err != nil {
			v.addError("types."+name, fmt.Sprintf("invalid type name: %v", err))
		}

		for _, embed := range def.Embeds {
			if !v.schema.HasType(embed) {
				v.addError("types."+name+".embeds", fmt.Sprintf("embeds unknown type %q", embed))
			}
		}

		props := make([]string, 0, len(def.Properties))
		for p := range def.Properties {
			props = append(props, p)
		}

		sort.Strings(props)

		for _, p := range props {
			field := "types." + name + ".properties." + p

			ref, err := ParseTypeRef(def.Properties[p])
			if err != nil {
				v.addError(field, err.Error())
				continue
			}

			for _, obj := range ref.ObjectNames() {
				if !v.schema.HasType(obj) {
					v.addError(field, fmt.Sprintf("references unknown type %q", obj))
				}
			}
		}
	}
}

// validateEmbedGraph rejects types that embed themselves directly or
// transitively.
func (v *validator) validateEmbedGraph() {
	adj := make(map[string][]string)

	for name, def := range v.schema.Types {
		if len(def.Embeds) > 0 {
			adj[name] = append([]string(nil), def.Embeds...)
		}
	}

	if cycle := detectCycle(adj); len(cycle) > 0 {
		v.addError("types", fmt.Sprintf("embed cycle detected: %s", strings.Join(cycle, " -> ")))
	}
}

func (v *validator) lintList(list string, specs []string) {
	for _, raw := range specs {
		spec, err := filter.ParseSpecifier(raw)
		if err != nil {
			continue
		}

		typeName, ok := v.lookupType(spec.TypeName)
		if !ok {
			v.addWarning(list, fmt.Sprintf("%q: type %q is not defined in the schema", raw, spec.TypeName))
			continue
		}

		if spec.IsWildcard() {
			continue
		}

		prop, decl, found := v.lookupProperty(typeName, spec.Property)

		switch {
		case !found:
			v.addWarning(list, fmt.Sprintf("%q: type %q has no property %q", raw, typeName, spec.Property))
		case decl != typeName:
			v.addWarning(list, fmt.Sprintf("%q: property %q is declared by %q; use %q",
				raw, prop, decl, filter.Key(decl, prop)))
		}
	}
}

// lookupType finds a type by case-insensitive name.
func (v *validator) lookupType(name string) (string, bool) {
	if v.schema.HasType(name) {
		return name, true
	}

	for _, candidate := range v.schema.TypeNames() {
		if strings.EqualFold(candidate, name) {
			return candidate, true
		}
	}

	return "", false
}

// lookupProperty finds a property by case-insensitive name on typeName or
// its embeds and returns its canonical name and declaring type.
func (v *validator) lookupProperty(typeName, property string) (string, string, bool) {
	queue := []string{typeName}
	seen := map[string]bool{}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if seen[name] {
			continue
		}

		seen[name] = true

		def := v.schema.Types[name]
		for p := range def.Properties {
			if strings.EqualFold(p, property) {
				return p, name, true
			}
		}

		queue = append(queue, def.Embeds...)
	}

	return "", "", false
}

// detectCycle finds a cycle in a directed graph using DFS.
func detectCycle(adj map[string][]string) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // in progress
		black = 2 // done
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}

	sort.Strings(nodes)

	var dfs func(node string) []string

	dfs = func(node string) []string {
		color[node] = gray

		neighbors := adj[node]
		sort.Strings(neighbors)

		for _, neighbor := range neighbors {
			if color[neighbor] == gray {
				cycle := []string{node}

				for cur := node; cur != neighbor; {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}

				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}

				return append(cycle, neighbor)
			}

			if color[neighbor] == white {
				parent[neighbor] = node

				if cycle := dfs(neighbor); len(cycle) > 0 {
					return cycle
				}
			}
		}

		color[node] = black

		return nil
	}

	for _, n := range nodes {
		if color[n] == white {
			if cycle := dfs(n); len(cycle) > 0 {
				return cycle
			}
		}
	}

	return nil
}

// FormatValidationResult returns a human-readable string of all findings.
func FormatValidationResult(result *ValidationResult) string {
	if len(result.Findings) == 0 {
		return "Validation passed: no issues found."
	}

	var sb strings.Builder

	errs := result.Errors()
	warnings := result.Warnings()

	if len(errs) > 0 {
		_, _ = fmt.Fprintf(&sb, "Errors (%d):\n", len(errs))

		for _, f := range errs {
			_, _ = fmt.Fprintf(&sb, "  - %s: %s\n", f.Field, f.Message)
		}
	}

	if len(warnings) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}

		_, _ = fmt.Fprintf(&sb, "Warnings (%d):\n", len(warnings))

		for _, f := range warnings {
			_, _ = fmt.Fprintf(&sb, "  - %s: %s\n", f.Field, f.Message)
		}
	}

	return sb.String()
}
