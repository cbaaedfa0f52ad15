package propfilter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/propfilter/pkg/propfilter"
)

type Entity struct {
	Id int
}

type Director struct {
	Name string
}

type Movie struct {
	Entity
	Title    string
	Year     int
	Director *Director
}

func inception() Movie {
	return Movie{
		Entity:   Entity{Id: 12},
		Title:    "Inception",
		Year:     2010,
		Director: &Director{Name: "Christopher Nolan"},
	}
}

const schemaYAML = `root: Movie
types:
  Entity:
    properties:
      Id: ""
  Movie:
    embeds: [Entity]
    properties:
      Title: ""
      Director: Director
  Director:
    properties:
      Name: ""
`

// ---------------------------------------------------------------------------
// Marshal
// ---------------------------------------------------------------------------

func TestMarshal_EmptyFilterMatchesEncodingJSON(t *testing.T) {
	want, err := json.Marshal(inception())
	require.NoError(t, err)

	got, err := propfilter.Marshal(inception(), propfilter.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	got, err = propfilter.Marshal(inception(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMarshal_Filtered(t *testing.T) {
	f := propfilter.NewFilter().AddInclude("Movie.*", "Director.*")

	got, err := propfilter.Marshal(inception(), f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Title":"Inception","Year":2010,"Director":{"Name":"Christopher Nolan"}}`, string(got))
}

func TestMarshal_ExcludeWins(t *testing.T) {
	f := propfilter.NewFilter().AddInclude("Entity.Id", "Movie.Title").AddExclude("movie.title")

	got, err := propfilter.Marshal(inception(), f)
	require.NoError(t, err)
	assert.Equal(t, `{"Id":12}`, string(got))
}

func TestMarshalIndent(t *testing.T) {
	got, err := propfilter.MarshalIndent(inception(), propfilter.NewFilter().AddInclude("Entity.Id"), "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Id\": 12\n}", string(got))
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, propfilter.Encode(&buf, inception(), propfilter.NewFilter().AddExclude("Movie.*", "Entity.*")))
	assert.Equal(t, "{}\n", buf.String())
}

func TestShouldSerialize(t *testing.T) {
	assert.True(t, propfilter.ShouldSerialize("Movie", "Id", nil, nil))
	assert.True(t, propfilter.ShouldSerialize("Movie", "Id", []string{"MOVIE.*"}, nil))
	assert.False(t, propfilter.ShouldSerialize("Movie", "Id", []string{"Movie.Id"}, []string{"Movie.Id"}))
}

// ---------------------------------------------------------------------------
// Schema and documents
// ---------------------------------------------------------------------------

func TestFilterDocument(t *testing.T) {
	schema, err := propfilter.ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)

	in := `{"Id":12,"Title":"Inception","Director":{"Name":"Christopher Nolan"}}`

	out, err := propfilter.FilterDocument(context.Background(), strings.NewReader(in), schema,
		propfilter.NewFilter().AddInclude("Movie.*"))
	require.NoError(t, err)
	assert.Equal(t, "{\"Title\":\"Inception\",\"Director\":{}}\n", string(out))

	out, err = propfilter.FilterDocument(context.Background(), strings.NewReader(in), schema,
		propfilter.NewFilter().AddInclude("Entity.Id"), propfilter.WithFormat("yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Id: 12\n", string(out))
}

func TestFilterDocument_NoSchema(t *testing.T) {
	out, err := propfilter.FilterDocument(context.Background(), strings.NewReader("a: 1\n"), nil,
		propfilter.NewFilter().AddExclude("Movie.*"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(out))
}

func TestFilterDocument_EmptyFilterKeepsNumbers(t *testing.T) {
	schema, err := propfilter.ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)

	in := `{"Id":12345678901234567890123,"Title":"Pi","Year":3.14159265358979323846}`

	out, err := propfilter.FilterDocument(context.Background(), strings.NewReader(in), schema, propfilter.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, in+"\n", string(out))
}

func TestFilterDocument_UnknownFormat(t *testing.T) {
	_, err := propfilter.FilterDocument(context.Background(), strings.NewReader("{}"), nil, nil,
		propfilter.WithFormat("toml"))
	assert.ErrorContains(t, err, "unknown output format")
}

func TestParseSchema_Invalid(t *testing.T) {
	_, err := propfilter.ParseSchema([]byte("root: Missing\ntypes:\n  A: {}\n"))
	assert.ErrorContains(t, err, `root type "Missing" is not defined`)
}

func TestLoadSchema(t *testing.T) {
	p := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(p, []byte(schemaYAML), 0o600))

	s, err := propfilter.LoadSchema(p)
	require.NoError(t, err)
	assert.Equal(t, "Movie", s.Root)
}
