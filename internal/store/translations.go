package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/cypherql/internal/canonical"
)

// Translation is one recorded root-field translation.
type Translation struct {
	ID          string         `json:"id"`
	Seq         int64          `json:"seq"`
	RequestHash string         `json:"request_hash"`
	SchemaHash  string         `json:"schema_hash"`
	RootField   string         `json:"root_field"`
	Operation   string         `json:"operation"`
	Cypher      string         `json:"cypher"`
	CypherHash  string         `json:"cypher_hash"`
	Params      map[string]any `json:"params"`
}

const translationColumns = `id, seq, request_hash, schema_hash, root_field, operation, cypher, cypher_hash, params`

// WriteTranslation records tr and returns its id. A translation of the
// same root field of the same request is stored once: writing it again
// returns the existing id and inserted=false.
//
// An empty tr.ID is replaced by a fresh UUIDv7. Seq is assigned by the
// store and params are stored as canonical JSON.
func (s *Store) WriteTranslation(ctx context.Context, tr Translation) (id string, inserted bool, err error) {
	if tr.ID == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return "", false, fmt.Errorf("write translation: new id: %w", err)
		}
		tr.ID = u.String()
	}
	params := tr.Params
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := canonical.Marshal(params)
	if err != nil {
		return "", false, fmt.Errorf("write translation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("write translation: begin tx: %w", err)
	}
	defer tx.Rollback()

	// WHERE true disambiguates INSERT ... SELECT from the upsert clause.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO translations (`+translationColumns+`)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?
		FROM translations
		WHERE true
		ON CONFLICT(request_hash, root_field) DO NOTHING
	`,
		tr.ID,
		tr.RequestHash,
		tr.SchemaHash,
		tr.RootField,
		tr.Operation,
		tr.Cypher,
		tr.CypherHash,
		string(paramsJSON),
	)
	if err != nil {
		return "", false, fmt.Errorf("write translation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write translation: rows affected: %w", err)
	}

	id = tr.ID
	if affected == 0 {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM translations
			WHERE request_hash = ? AND root_field = ?
		`, tr.RequestHash, tr.RootField).Scan(&id)
		if err != nil {
			return "", false, fmt.Errorf("write translation: lookup existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("write translation: commit: %w", err)
	}
	return id, affected > 0, nil
}

// ReadTranslation retrieves a translation by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTranslation(ctx context.Context, id string) (Translation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		WHERE id = ?
	`, id)
	return scanTranslation(row)
}

// FindByRequest returns the translations of one request ordered by seq.
// Returns an empty slice, not nil, when there are none.
func (s *Store) FindByRequest(ctx context.Context, requestHash string) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		WHERE request_hash = ?
		ORDER BY seq ASC
	`, requestHash)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	return collectTranslations(rows)
}

// ListOptions filters ListTranslations.
type ListOptions struct {
	// SchemaHash restricts the listing to one schema version.
	SchemaHash string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// ListTranslations returns the most recent translations first.
func (s *Store) ListTranslations(ctx context.Context, opts ListOptions) ([]Translation, error) {
	query := `SELECT ` + translationColumns + ` FROM translations`
	var args []any
	if opts.SchemaHash != "" {
		query += ` WHERE schema_hash = ?`
		args = append(args, opts.SchemaHash)
	}
	query += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	return collectTranslations(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTranslation(row scanner) (Translation, error) {
	var (
		tr         Translation
		paramsJSON string
	)
	if err := row.Scan(
		&tr.ID, &tr.Seq, &tr.RequestHash, &tr.SchemaHash, &tr.RootField,
		&tr.Operation, &tr.Cypher, &tr.CypherHash, &paramsJSON,
	); err != nil {
		return Translation{}, err
	}
	params, err := unmarshalParams(paramsJSON)
	if err != nil {
		return Translation{}, err
	}
	tr.Params = params
	return tr, nil
}

func collectTranslations(rows *sql.Rows) ([]Translation, error) {
	defer rows.Close()

	out := []Translation{}
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return out, nil
}

// unmarshalParams decodes stored params, keeping integers as int64 so
// they compare equal to the values that were written.
func unmarshalParams(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	out, _ := fromJSON(raw).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func fromJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i, elem := range val {
			val[i] = fromJSON(elem)
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = fromJSON(elem)
		}
		return val
	default:
		return v
	}
}
