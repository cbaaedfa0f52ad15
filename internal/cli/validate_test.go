package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidSchema(t *testing.T) {
	schema, _ := writeFixtures(t)

	stdout, stderr, err := executeCommand("validate", "--schema", schema, "--fields", "Movie.*,Entity.Id")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed.")
	assert.Contains(t, stderr, "no issues found")
}

func TestValidate_StrictMode(t *testing.T) {
	schema, _ := writeFixtures(t)

	// Movie.Id is declared by Entity, so the specifier never matches.
	stdout, stderr, err := executeCommand("validate", "--schema", schema, "--fields", "Movie.Id")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")
	assert.Contains(t, stderr, `property "Id" is declared by "Entity"; use "Entity.Id"`)

	_, _, err = executeCommand("validate", "--strict", "--schema", schema, "--fields", "Movie.Id")
	requireExitCode(t, err, 7)
	assert.Contains(t, err.Error(), "1 warning(s)")
}

func TestValidate_SchemaErrors(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", `version: 3.0.0
root: Movie
types:
  Movie:
    properties:
      Director: Director
`)

	_, stderr, err := executeCommand("validate", "--schema", schema)
	requireExitCode(t, err, 7)
	assert.Contains(t, err.Error(), "2 error(s)")
	assert.Contains(t, stderr, "unsupported schema version 3.0.0")
	assert.Contains(t, stderr, `references unknown type "Director"`)
}

func TestValidate_RootOverride(t *testing.T) {
	schema, _ := writeFixtures(t)

	_, stderr, err := executeCommand("validate", "--schema", schema, "--root", "Show")
	requireExitCode(t, err, 7)
	assert.Contains(t, stderr, `root type "Show" is not defined`)
}

func TestValidate_SpecifiersWithoutSchema(t *testing.T) {
	_, stderr, err := executeCommand("validate", "--fields", "Movie", "--exclude-fields", "*.Name")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warnings (2):")

	_, _, err = executeCommand("validate", "--strict", "--fields", "Movie")
	requireExitCode(t, err, 7)
}

func TestValidate_SchemaNotFound(t *testing.T) {
	_, stderr, err := executeCommand("validate", "--schema", filepath.Join(t.TempDir(), "missing.yaml"))
	requireExitCode(t, err, 7)
	assert.Contains(t, stderr, "reading schema file")
}

func TestValidate_RejectsArgs(t *testing.T) {
	_, _, err := executeCommand("validate", "schema.yaml")
	require.Error(t, err)
}

func TestValidate_Help(t *testing.T) {
	stdout, _, err := executeCommand("validate", "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validate checks the schema")
	assert.Contains(t, stdout, "--strict")
}
