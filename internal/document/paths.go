package document

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Paths returns the sorted, de-duplicated property paths present in docs.
// Mapping keys are joined with "." and sequence items contribute "[]", so
// {"Cast":[{"Name":"x"}]} yields "Cast", "Cast[]" and "Cast[].Name".
func Paths(docs []*yaml.Node) []string {
	seen := map[string]bool{}

	for _, d := range docs {
		collectPaths(d, "", seen)
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

func collectPaths(n *yaml.Node, prefix string, seen map[string]bool) {
	if n == nil {
		return
	}

	n = resolveAlias(n)

	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			collectPaths(c, prefix, seen)
		}
	case yaml.MappingNode:
		for _, kv := range mappingPairs(n) {
			p := kv.key.Value
			if prefix != "" {
				p = prefix + "." + p
			}

			seen[p] = true

			collectPaths(kv.value, p, seen)
		}
	case yaml.SequenceNode:
		p := prefix + "[]"
		if len(n.Content) > 0 {
			seen[p] = true
		}

		for _, c := range n.Content {
			collectPaths(c, p, seen)
		}
	}
}
