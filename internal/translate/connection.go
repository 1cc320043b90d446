package translate

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cypherql/internal/queryast"
)

// ShapeConnection turns the {edges, totalCount} value a connection
// statement returns into a Relay connection. offset is the statement's
// Offset: the index of the first returned edge in the full edge set.
//
// Each edge gains a cursor, and pageInfo reports the first and last
// cursors plus whether edges exist before or after this page.
func ShapeConnection(raw map[string]any, offset int64) (map[string]any, error) {
	total, err := toInt64(raw["totalCount"])
	if err != nil {
		return nil, fmt.Errorf("shape connection: totalCount: %w", err)
	}

	var rawEdges []any
	if v, ok := raw["edges"]; ok && v != nil {
		rawEdges, ok = v.([]any)
		if !ok {
			return nil, fmt.Errorf("shape connection: edges: expected list, got %T", v)
		}
	}

	edges := make([]any, len(rawEdges))
	for i, e := range rawEdges {
		edge := make(map[string]any)
		if m, ok := e.(map[string]any); ok {
			for k, v := range m {
				edge[k] = v
			}
		}
		edge["cursor"] = queryast.OffsetToCursor(offset + int64(i))
		edges[i] = edge
	}

	pageInfo := map[string]any{
		"startCursor":     nil,
		"endCursor":       nil,
		"hasPreviousPage": offset > 0 && total > 0,
		"hasNextPage":     offset+int64(len(edges)) < total,
	}
	if len(edges) > 0 {
		pageInfo["startCursor"] = queryast.OffsetToCursor(offset)
		pageInfo["endCursor"] = queryast.OffsetToCursor(offset + int64(len(edges)) - 1)
	}

	return map[string]any{
		"edges":      edges,
		"totalCount": total,
		"pageInfo":   pageInfo,
	}, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("non-integral count %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}
