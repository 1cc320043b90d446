package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTranslation creates a translation with minimal required fields.
func createTestTranslation(requestHash, rootField string) Translation {
	return Translation{
		RequestHash: requestHash,
		SchemaHash:  "schema-hash",
		RootField:   rootField,
		Operation:   "read",
		Cypher:      "MATCH (this:Movie)\nRETURN this { .title } AS this",
		CypherHash:  "cypher-hash",
		Params:      map[string]any{},
	}
}
