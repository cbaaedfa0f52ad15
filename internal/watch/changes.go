package watch

import (
	"fmt"
	"sort"
	"strings"
)

// Kinds of PropertyChange.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
)

// PropertyChange describes a property path that appeared in or disappeared
// from the output between two consecutive runs.
type PropertyChange struct {
	Kind string
	Path string
}

// PropertyDiff compares two sets of property paths. Changes are sorted by
// path.
func PropertyDiff(prev, curr []string) []PropertyChange {
	prevSet := toSet(prev)
	currSet := toSet(curr)

	var changes []PropertyChange

	for p := range prevSet {
		if !currSet[p] {
			changes = append(changes, PropertyChange{Kind: ChangeRemoved, Path: p})
		}
	}

	for p := range currSet {
		if !prevSet[p] {
			changes = append(changes, PropertyChange{Kind: ChangeAdded, Path: p})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}

		return changes[i].Kind < changes[j].Kind
	})

	return changes
}

// PropertyDiffSummary returns a human-readable one-line summary.
func PropertyDiffSummary(changes []PropertyChange) string {
	var added, removed int

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		}
	}

	if added == 0 && removed == 0 {
		return "no property changes"
	}

	parts := make([]string, 0, 2)

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d path(s) added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d path(s) removed", removed))
	}

	return strings.Join(parts, ", ")
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}

	return set
}
