package filter

import (
	"strings"
)

// Wildcard is the property segment that matches every property declared
// by a type.
const Wildcard = "*"

// Predicate decides whether a single property is serialized.
// Implementations must be pure: the result may only depend on the two
// arguments and the predicate's current configuration.
type Predicate interface {
	// ShouldSerialize reports whether the property declared by
	// declaringType should be emitted.
	ShouldSerialize(declaringType, property string) bool
}

// PropertyFilter is a Predicate driven by an include list and an exclude
// list of specifiers. Both lists may be mutated directly at any time; every
// decision reads their current contents.
//
// A PropertyFilter holds no locks. Do not mutate it while a serializer is
// reading from it concurrently; use Clone to hand out a snapshot instead.
type PropertyFilter struct {
	// Fields lists the specifiers to serialize. When empty, every property
	// is allowed unless excluded.
	Fields []string

	// ExcludeFields lists the specifiers never to serialize. When empty,
	// nothing is excluded.
	ExcludeFields []string
}

// New creates a PropertyFilter with empty include and exclude lists.
func New() *PropertyFilter {
	return &PropertyFilter{
		Fields:        []string{},
		ExcludeFields: []string{},
	}
}

// AddInclude appends specifiers to the include list. No validation is
// performed; malformed specifiers never match.
func (f *PropertyFilter) AddInclude(specifiers ...string) *PropertyFilter {
	f.Fields = append(f.Fields, specifiers...)

	return f
}

// AddExclude appends specifiers to the exclude list. No validation is
// performed; malformed specifiers never match.
func (f *PropertyFilter) AddExclude(specifiers ...string) *PropertyFilter {
	f.ExcludeFields = append(f.ExcludeFields, specifiers...)

	return f
}

// Empty reports whether neither list is populated. Serializers treat an
// empty filter as absent.
func (f *PropertyFilter) Empty() bool {
	return f == nil || (len(f.Fields) == 0 && len(f.ExcludeFields) == 0)
}

// ShouldSerialize implements Predicate.
func (f *PropertyFilter) ShouldSerialize(declaringType, property string) bool {
	if f == nil {
		return true
	}

	return ShouldSerialize(declaringType, property, f.Fields, f.ExcludeFields)
}

// Clone returns an independent copy of f.
func (f *PropertyFilter) Clone() *PropertyFilter {
	if f == nil {
		return New()
	}

	return &PropertyFilter{
		Fields:        append([]string{}, f.Fields...),
		ExcludeFields: append([]string{}, f.ExcludeFields...),
	}
}

// ShouldSerialize is the stateless form of the filter decision. A property
// is serialized iff the include list is empty or matches it, and the
// exclude list is empty or does not match it. A list matches when it
// contains either "declaringType.*" or "declaringType.property", compared
// case-insensitively.
func ShouldSerialize(declaringType, property string, include, exclude []string) bool {
	wildcard := WildcardKey(declaringType)
	exact := Key(declaringType, property)

	if len(include) > 0 && !containsAnyFold(include, wildcard, exact) {
		return false
	}

	if len(exclude) > 0 && containsAnyFold(exclude, wildcard, exact) {
		return false
	}

	return true
}

// Key builds the "TypeName.PropertyName" specifier for a property.
func Key(typeName, property string) string {
	return typeName + "." + property
}

// WildcardKey builds the "TypeName.*" specifier for a type.
func WildcardKey(typeName string) string {
	return Key(typeName, Wildcard)
}

// containsAnyFold reports whether list holds any of the keys, ignoring case.
func containsAnyFold(list []string, keys ...string) bool {
	_, ok := firstMatchFold(list, keys...)

	return ok
}

// firstMatchFold returns the first list entry equal to one of the keys,
// ignoring case.
func firstMatchFold(list []string, keys ...string) (string, bool) {
	for _, entry := range list {
		for _, k := range keys {
			if strings.EqualFold(entry, k) {
				return entry, true
			}
		}
	}

	return "", false
}

// Func adapts an ordinary function to the Predicate interface.
type Func func(declaringType, property string) bool

// ShouldSerialize implements Predicate.
func (fn Func) ShouldSerialize(declaringType, property string) bool {
	return fn(declaringType, property)
}

// IsEmpty reports whether p is nil or a predicate that declares itself
// empty. Serializers use it to skip filtering entirely.
func IsEmpty(p Predicate) bool {
	if p == nil {
		return true
	}

	if e, ok := p.(interface{ Empty() bool }); ok {
		return e.Empty()
	}

	return false
}
