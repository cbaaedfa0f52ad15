package document

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// A document may grow through aliases to expansionFactor times its own
// node count, and always to at least minExpansionBudget nodes.
const (
	expansionFactor    = 100
	minExpansionBudget = 100_000
)

// ErrAliasExpansion is returned for documents whose aliases expand beyond
// the node budget, such as "billion laughs" inputs.
var ErrAliasExpansion = errors.New("alias expansion exceeds limit")

// checkExpansion reports ErrAliasExpansion when n, with every alias
// replaced by its target, holds more nodes than its budget allows. Sizes
// are memoized per node, so the check is linear in the decoded size.
func checkExpansion(n *yaml.Node) error {
	if n == nil {
		return nil
	}

	budget := max(expansionFactor*countNodes(n), minExpansionBudget)

	if size := expandedSize(n, make(map[*yaml.Node]int), budget); size > budget {
		return fmt.Errorf("%w: more than %d nodes", ErrAliasExpansion, budget)
	}

	return nil
}

// countNodes counts the nodes of n without following aliases.
func countNodes(n *yaml.Node) int {
	count := 1

	for _, c := range n.Content {
		count += countNodes(c)
	}

	return count
}

// expandedSize returns the node count of n with aliases expanded, capped
// at limit+1. A node still in progress counts as limit+1, so alias cycles
// exceed every budget.
func expandedSize(n *yaml.Node, memo map[*yaml.Node]int, limit int) int {
	if size, ok := memo[n]; ok {
		return size
	}

	memo[n] = limit + 1

	size := 1

	if n.Kind == yaml.AliasNode && n.Alias != nil {
		size += expandedSize(n.Alias, memo, limit)
	}

	for _, c := range n.Content {
		if size > limit {
			break
		}

		size += expandedSize(c, memo, limit)
	}

	size = min(size, limit+1)
	memo[n] = size

	return size
}
