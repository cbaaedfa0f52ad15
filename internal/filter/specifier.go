package filter

import (
	"fmt"
	"strings"
)

// Specifier is a parsed "TypeName.PropertyName" or "TypeName.*" string.
type Specifier struct {
	TypeName string
	Property string
}

// IsWildcard reports whether the specifier selects every property of its type.
func (s Specifier) IsWildcard() bool {
	return s.Property == Wildcard
}

// String returns the dotted form of the specifier.
func (s Specifier) String() string {
	return Key(s.TypeName, s.Property)
}

// ParseSpecifier splits a specifier into its two segments. It rejects the
// shapes that a filter would silently never match: a missing dot, more than
// one dot, an empty segment, or a wildcard in the type position.
func ParseSpecifier(s string) (Specifier, error) {
	parts := strings.Split(s, ".")

	switch {
	case len(parts) < 2:
		return Specifier{}, fmt.Errorf("specifier %q: missing \".\" between type and property", s)
	case len(parts) > 2:
		return Specifier{}, fmt.Errorf("specifier %q: nested paths are not supported, use TypeName.PropertyName", s)
	case parts[0] == "":
		return Specifier{}, fmt.Errorf("specifier %q: empty type name", s)
	case parts[1] == "":
		return Specifier{}, fmt.Errorf("specifier %q: empty property name", s)
	case parts[0] == Wildcard:
		return Specifier{}, fmt.Errorf("specifier %q: wildcards are only allowed in the property position", s)
	}

	return Specifier{TypeName: parts[0], Property: parts[1]}, nil
}

// LintIssue describes a specifier that can never match anything.
type LintIssue struct {
	// List is "fields" or "exclude-fields".
	List string
	// Specifier is the offending entry.
	Specifier string
	// Err describes the problem.
	Err error
}

func (i LintIssue) String() string {
	return fmt.Sprintf("%s: %v", i.List, i.Err)
}

// Lint reports the malformed specifiers in both lists. The filter itself
// never validates; Lint exists for tooling that wants to warn about inert
// entries.
func (f *PropertyFilter) Lint() []LintIssue {
	var issues []LintIssue

	issues = append(issues, lintList("fields", f.Fields)...)
	issues = append(issues, lintList("exclude-fields", f.ExcludeFields)...)

	return issues
}

func lintList(name string, specs []string) []LintIssue {
	var issues []LintIssue

	for _, s := range specs {
		if _, err := ParseSpecifier(s); err != nil {
			issues = append(issues, LintIssue{List: name, Specifier: s, Err: err})
		}
	}

	return issues
}
