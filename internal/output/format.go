package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FormatOptions configures a document formatter.
type FormatOptions struct {
	// Indent is the per-level indentation. JSON output is compact when
	// empty; YAML uses len(Indent) spaces, defaulting to 2.
	Indent string
}

// FormatFunc renders a stream of YAML nodes into a concrete output format.
type FormatFunc func(docs []*yaml.Node, opts FormatOptions) ([]byte, error)

// FormatJSON renders each document as one JSON value followed by a
// newline. Mapping key order is preserved.
func FormatJSON(docs []*yaml.Node, opts FormatOptions) ([]byte, error) {
	var out bytes.Buffer

	for _, doc := range docs {
		var buf bytes.Buffer
		if err := writeJSONNode(&buf, doc); err != nil {
			return nil, err
		}

		if opts.Indent == "" {
			out.Write(buf.Bytes())
		} else if err := json.Indent(&out, buf.Bytes(), "", opts.Indent); err != nil {
			return nil, fmt.Errorf("indenting JSON: %w", err)
		}

		out.WriteByte('\n')
	}

	return out.Bytes(), nil
}

// FormatYAML renders the documents as a YAML stream. Collections written
// in flow style (for example JSON input) are converted to block style.
func FormatYAML(docs []*yaml.Node, opts FormatOptions) ([]byte, error) {
	indent := len(opts.Indent)
	if indent == 0 {
		indent = 2
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	for _, doc := range docs {
		if err := enc.Encode(blockStyle(doc, false)); err != nil {
			return nil, fmt.Errorf("encoding YAML: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// writeJSONNode writes n as compact JSON.
func writeJSONNode(buf *bytes.Buffer, n *yaml.Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}

		return writeJSONNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSONNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')

		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: JSON object keys must be scalars", key.Line)
			}

			if i > 0 {
				buf.WriteByte(',')
			}

			k, err := json.Marshal(key.Value)
			if err != nil {
				return err
			}

			buf.Write(k)
			buf.WriteByte(':')

			if err := writeJSONNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')

		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSONNode(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case yaml.ScalarNode:
		b, err := scalarJSON(n)
		if err != nil {
			return err
		}

		buf.Write(b)
	default:
		return fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}

	return nil
}

// scalarJSON converts a resolved YAML scalar into its JSON form.
func scalarJSON(n *yaml.Node) ([]byte, error) {
	switch n.ShortTag() {
	case "!!null":
		return []byte("null"), nil
	case "!!int", "!!float":
		if isJSONNumber(n.Value) {
			return []byte(n.Value), nil
		}

		return decodedScalarJSON(n)
	case "!!bool":
		return decodedScalarJSON(n)
	default:
		return json.Marshal(n.Value)
	}
}

// isJSONNumber reports whether s is already a JSON number literal, so it
// can be written without losing precision.
func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}

	return json.Valid([]byte(s))
}

// decodedScalarJSON converts YAML-only spellings such as 0x1F, 1_000 or
// yes/no through their Go value.
func decodedScalarJSON(n *yaml.Node) ([]byte, error) {
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: decoding scalar: %w", n.Line, err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}

	return b, nil
}

// blockStyle returns a copy of n with flow collections converted to block
// style. Quoted strings inside flow collections are unquoted; the encoder
// re-quotes any value that would otherwise change type.
func blockStyle(n *yaml.Node, inFlow bool) *yaml.Node {
	if n == nil {
		return nil
	}

	c := *n

	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		flow := inFlow || n.Style&yaml.FlowStyle != 0
		c.Style &^= yaml.FlowStyle
		c.Content = make([]*yaml.Node, len(n.Content))

		for i, child := range n.Content {
			c.Content[i] = blockStyle(child, flow)
		}
	case yaml.DocumentNode:
		c.Content = make([]*yaml.Node, len(n.Content))

		for i, child := range n.Content {
			c.Content[i] = blockStyle(child, inFlow)
		}
	case yaml.ScalarNode:
		if inFlow && n.ShortTag() == "!!str" {
			c.Style &^= yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle
		}
	}

	return &c
}

// DetectFormat returns the format matching the style of the first
// document: FormatNameJSON for flow-style collections such as decoded JSON,
// FormatNameYAML otherwise.
func DetectFormat(docs []*yaml.Node) string {
	if len(docs) == 0 {
		return FormatNameJSON
	}

	n := docs[0]
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}

	if (n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode) && n.Style&yaml.FlowStyle != 0 {
		return FormatNameJSON
	}

	return FormatNameYAML
}
