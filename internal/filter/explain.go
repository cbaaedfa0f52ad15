package filter

import "fmt"

// Decision is the outcome of a filter decision together with a
// human-readable explanation.
type Decision struct {
	// Serialize is the filter result; always equal to ShouldSerialize.
	Serialize bool
	// Reason explains which rule produced the result.
	Reason string
	// Matched is the specifier that decided the result, if any.
	Matched string
}

// Explain evaluates the same rules as ShouldSerialize and reports why the
// property is kept or dropped.
func (f *PropertyFilter) Explain(declaringType, property string) Decision {
	if f.Empty() {
		return Decision{Serialize: true, Reason: "no property filters configured"}
	}

	wildcard := WildcardKey(declaringType)
	exact := Key(declaringType, property)

	var d Decision

	if len(f.Fields) > 0 {
		m, ok := firstMatchFold(f.Fields, exact, wildcard)
		if !ok {
			return Decision{Reason: fmt.Sprintf("not matched by any include specifier %v", f.Fields)}
		}

		d = Decision{Serialize: true, Reason: fmt.Sprintf("included by %q", m), Matched: m}
	}

	if len(f.ExcludeFields) > 0 {
		if m, ok := firstMatchFold(f.ExcludeFields, exact, wildcard); ok {
			return Decision{Reason: fmt.Sprintf("excluded by %q", m), Matched: m}
		}

		if len(f.Fields) == 0 {
			d = Decision{Serialize: true, Reason: fmt.Sprintf("not matched by any exclude specifier %v", f.ExcludeFields)}
		}
	}

	return d
}
