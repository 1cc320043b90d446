package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: movies_by_title
description: "Equality filter"
schema: ../schema.graphql
query: |
  { movies(where: {title: "Heat"}) { title } }
expect:
  cypher: |
    MATCH (this:Movie)
    WHERE this.title = $param0
    RETURN this { .title } AS this
`

const failingScenario = `name: wrong_cypher
description: "Expects the wrong text"
schema: ../schema.graphql
query: |
  { movies { title } }
expect:
  contains: ["ORDER BY"]
`

func setupScenarios(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "schema.graphql", testSchema)
	for name, content := range scenarios {
		writeFile(t, dir, filepath.Join("scenarios", name), content)
	}
	return filepath.Join(dir, "scenarios")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := runCLI(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := runCLI(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := runCLI(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandPassing(t *testing.T) {
	dir := setupScenarios(t, map[string]string{"movies.yaml": passingScenario})

	out, _, err := runCLI(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ movies_by_title")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	dir := setupScenarios(t, map[string]string{
		"movies.yaml": passingScenario,
		"wrong.yaml":  failingScenario,
		"broken.yaml": "name: broken\n",
	})

	out, _, err := runCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_cypher")
	assert.Contains(t, out, `cypher containing "ORDER BY"`)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "Test Summary: 1 passed, 2 failed, 3 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := setupScenarios(t, map[string]string{
		"movies.yaml": passingScenario,
		"wrong.yaml":  failingScenario,
	})

	out, _, err := runCLI(t, "", "test", dir, "--filter", "mov*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "wrong_cypher")
}

func TestTestCommandGolden(t *testing.T) {
	dir := setupScenarios(t, map[string]string{"movies.yaml": passingScenario})

	out, _, err := runCLI(t, "", "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ movies_by_title (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "movies.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, "// movies (read)\n"+
		"MATCH (this:Movie)\n"+
		"WHERE this.title = $param0\n"+
		"RETURN this { .title } AS this\n"+
		"// params {\"param0\":\"Heat\"}\n", string(golden))

	_, _, err = runCLI(t, "", "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0644))
	out, _, err = runCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandJSON(t *testing.T) {
	dir := setupScenarios(t, map[string]string{
		"movies.yaml": passingScenario,
		"wrong.yaml":  failingScenario,
	})

	out, _, err := runCLI(t, "", "test", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}
