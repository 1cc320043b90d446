package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherql/internal/store"
)

func seedHistory(t *testing.T) (string, []string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "log.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	var ids []string
	for _, field := range []string{"movies", "actors"} {
		id, _, err := st.WriteTranslation(context.Background(), store.Translation{
			RequestHash: "req-1",
			SchemaHash:  "schema-1",
			RootField:   field,
			Operation:   "read",
			Cypher:      "MATCH (this)\nRETURN this",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return dbPath, ids
}

func TestHistoryCommand_List(t *testing.T) {
	dbPath, ids := seedHistory(t)

	out, _, err := runCLI(t, "", "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[2] "+ids[1]+" actors (read) request=req-1\n")
	assert.Contains(t, out, "    MATCH (this)\n    RETURN this\n")

	out, _, err = runCLI(t, "", "history", "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "actors")
	assert.NotContains(t, out, "movies")

	out, _, err = runCLI(t, "", "history", "--db", dbPath, "--schema-hash", "other")
	require.NoError(t, err)
	assert.Equal(t, "No translations recorded.\n", out)
}

func TestHistoryCommand_Lookup(t *testing.T) {
	dbPath, ids := seedHistory(t)

	out, _, err := runCLI(t, "", "history", "--db", dbPath, "--id", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "movies (read)")
	assert.NotContains(t, out, "actors")

	out, _, err = runCLI(t, "", "history", "--db", dbPath, "--request", "req-1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] "+ids[0])
	assert.Contains(t, out, "[2] "+ids[1])

	_, _, err = runCLI(t, "", "history", "--db", dbPath, "--id", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHistoryCommand_NoDatabase(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, "", "history", "--db", filepath.Join(dir, "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "translation log not found")

	configPath := writeFile(t, dir, "cypherql.cue", `schema: "schema.graphql"`)
	out, _, err := runCLI(t, "", "history", "-c", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no translation log configured")
}
