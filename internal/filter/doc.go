// Package filter implements the property filter consulted by propfilter's
// serializers. A filter holds an include list and an exclude list of
// "TypeName.PropertyName" specifiers (or "TypeName.*" wildcards) and answers,
// for each property a serializer is about to emit, whether it should appear
// in the output.
//
// Matching is case-insensitive on both segments. Exclusion always wins over
// inclusion, and a filter with both lists empty is a complete no-op.
//
// The package is built around the [Predicate] interface, implemented by
// [PropertyFilter] and by the pure function [ShouldSerialize].
package filter
