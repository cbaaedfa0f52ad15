package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func constFormat(out string) FormatFunc {
	return func(_ []*yaml.Node, _ FormatOptions) ([]byte, error) {
		return []byte(out), nil
	}
}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register("test", constFormat("hello"))

	fn, err := r.Format("test")
	require.NoError(t, err)

	out, err := fn(nil, FormatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestRegistry_UnknownFormat(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Format("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
	assert.Contains(t, err.Error(), "xml")
	assert.Contains(t, err.Error(), "json, yaml")
}

func TestRegistry_Formats(t *testing.T) {
	r := NewRegistry()
	r.Register("json", FormatJSON)
	r.Register("yaml", FormatYAML)
	r.Register("csv", constFormat(""))

	assert.Equal(t, []string{"csv", "json", "yaml"}, r.Formats())
	assert.Equal(t, "csv, json, yaml", r.AvailableFormats())
}

func TestRegistry_Overwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("fmt", constFormat("first"))
	r.Register("fmt", constFormat("second"))

	fn, err := r.Format("fmt")
	require.NoError(t, err)

	out, err := fn(nil, FormatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", string(out))
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Formats())
	assert.Equal(t, "none", r.AvailableFormats())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "yaml"}, DefaultRegistry().Formats())
}
