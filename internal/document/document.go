package document

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/propfilter/internal/filter"
)

// mergeTag is the resolved tag of a YAML merge key ("<<").
const mergeTag = "!!merge"

// Decode reads every document of a YAML stream or a stream of
// concatenated JSON values (for example JSON Lines). Mapping key order is
// preserved in the returned nodes.
func Decode(r io.Reader) ([]*yaml.Node, error) {
	br := bufio.NewReader(r)

	if isJSONStream(br) {
		return decodeJSON(br)
	}

	dec := yaml.NewDecoder(br)

	var docs []*yaml.Node

	for {
		var n yaml.Node

		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}

		if err := checkExpansion(&n); err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}

		docs = append(docs, &n)
	}

	return docs, nil
}

// isJSONStream reports whether the first non-blank byte opens a JSON object
// or array.
func isJSONStream(br *bufio.Reader) bool {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return false
		}

		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			_ = br.UnreadByte()
			return true
		default:
			_ = br.UnreadByte()
			return false
		}
	}
}

// decodeJSON splits a JSON value stream with encoding/json and parses each
// value into a node, which keeps key order.
func decodeJSON(r io.Reader) ([]*yaml.Node, error) {
	dec := json.NewDecoder(r)

	var docs []*yaml.Node

	for {
		var raw json.RawMessage

		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}

		var n yaml.Node
		if err := yaml.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}

		docs = append(docs, &n)
	}

	return docs, nil
}

// Filter returns a copy of node in which every mapping key of a known
// schema type is kept only when pred allows it for its declaring type.
// Values of unknown keys and scalar properties are copied unfiltered.
// Aliases and merge keys inside filtered objects are resolved; a node whose
// aliases expand too far yields ErrAliasExpansion.
//
// With an empty predicate node itself is returned.
func Filter(node *yaml.Node, typeName string, schema *Schema, pred filter.Predicate) (*yaml.Node, error) {
	if node == nil || filter.IsEmpty(pred) {
		return node, nil
	}

	if err := checkExpansion(node); err != nil {
		return nil, err
	}

	f := &nodeFilter{schema: schema, pred: pred}

	return f.walk(node, TypeRef{Kind: RefObject, Name: typeName}), nil
}

type nodeFilter struct {
	schema *Schema
	pred   filter.Predicate
}

func (f *nodeFilter) walk(n *yaml.Node, ref TypeRef) *yaml.Node {
	switch n.Kind {
	case yaml.DocumentNode:
		c := *n
		c.Content = make([]*yaml.Node, len(n.Content))

		for i, child := range n.Content {
			c.Content[i] = f.walk(child, ref)
		}

		return &c
	case yaml.AliasNode:
		if n.Alias == nil {
			return copyNode(n)
		}

		return f.walk(n.Alias, ref)
	}

	switch ref.Kind {
	case RefObject:
		if n.Kind == yaml.MappingNode && f.schema.HasType(ref.Name) {
			return f.object(n, ref.Name)
		}
	case RefArray:
		if n.Kind == yaml.SequenceNode {
			c := shallowCopy(n)
			for _, item := range n.Content {
				c.Content = append(c.Content, f.walk(item, *ref.Elem))
			}

			return c
		}
	case RefMap:
		if n.Kind == yaml.MappingNode {
			c := shallowCopy(n)
			for _, kv := range mappingPairs(n) {
				c.Content = append(c.Content, copyNode(kv.key), f.walk(kv.value, *ref.Elem))
			}

			return c
		}
	}

	return copyNode(n)
}

func (f *nodeFilter) object(n *yaml.Node, typeName string) *yaml.Node {
	c := shallowCopy(n)

	for _, kv := range mappingPairs(n) {
		property := kv.key.Value

		decl, ref, _ := f.schema.Property(typeName, property)
		if !f.pred.ShouldSerialize(decl, property) {
			continue
		}

		c.Content = append(c.Content, copyNode(kv.key), f.walk(kv.value, ref))
	}

	return c
}

type pair struct {
	key, value *yaml.Node
}

// mappingPairs returns the key/value pairs of a mapping with merge keys
// expanded in place. Explicit keys override merged ones and the first
// merged source wins among merged keys.
func mappingPairs(n *yaml.Node) []pair {
	explicit := map[string]bool{}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; k.ShortTag() != mergeTag {
			explicit[k.Value] = true
		}
	}

	seen := map[string]bool{}

	var pairs []pair

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if k.ShortTag() != mergeTag {
			seen[k.Value] = true

			pairs = append(pairs, pair{key: k, value: v})

			continue
		}

		for _, src := range mergeSources(v) {
			for _, kv := range mappingPairs(src) {
				name := kv.key.Value
				if explicit[name] || seen[name] {
					continue
				}

				seen[name] = true

				pairs = append(pairs, kv)
			}
		}
	}

	return pairs
}

// mergeSources returns the mappings referenced by a merge value, which is
// either a mapping (or alias to one) or a sequence of them.
func mergeSources(v *yaml.Node) []*yaml.Node {
	v = resolveAlias(v)

	switch v.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{v}
	case yaml.SequenceNode:
		var out []*yaml.Node

		for _, item := range v.Content {
			if item = resolveAlias(item); item.Kind == yaml.MappingNode {
				out = append(out, item)
			}
		}

		return out
	}

	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	return n
}

// shallowCopy copies n without its children or anchor.
func shallowCopy(n *yaml.Node) *yaml.Node {
	c := *n
	c.Anchor = ""
	c.Content = make([]*yaml.Node, 0, len(n.Content))

	return &c
}

// copyNode deep-copies n, replacing aliases with copies of their targets
// and expanding merge keys. Anchors are dropped since no alias refers to
// the copy.
func copyNode(n *yaml.Node) *yaml.Node {
	n = resolveAlias(n)

	c := shallowCopy(n)

	if n.Kind == yaml.MappingNode {
		for _, kv := range mappingPairs(n) {
			c.Content = append(c.Content, copyNode(kv.key), copyNode(kv.value))
		}

		return c
	}

	for _, child := range n.Content {
		c.Content = append(c.Content, copyNode(child))
	}

	return c
}
