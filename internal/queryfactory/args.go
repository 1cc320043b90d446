package queryfactory

import (
	"math"
	"sort"

	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

// CreateSort builds sort fields from a list of {attribute: ASC|DESC}
// objects. A single object is accepted in place of a list.
func (f *Factory) CreateSort(value any, entity schema.Entity) ([]queryast.SortField, error) {
	var out []queryast.SortField
	for _, item := range asList(value) {
		m, err := asMap(item, "sort")
		if err != nil {
			return nil, err
		}
		fields, err := createSortFields(m, entity.FindAttribute, entity.EntityName(), queryast.OnNode)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

// CreateConnectionSort builds sort fields from a list of
// {node: {...}, edge: {...}} objects.
func (f *Factory) CreateConnectionSort(value any, entity schema.Entity, rel *schema.Relationship) ([]queryast.SortField, error) {
	var out []queryast.SortField
	for _, item := range asList(value) {
		m, err := asMap(item, "sort")
		if err != nil {
			return nil, err
		}
		for _, key := range sortedKeys(m) {
			inner, err := asMap(m[key], key)
			if err != nil {
				return nil, err
			}
			var fields []queryast.SortField
			switch key {
			case "node":
				fields, err = createSortFields(inner, entity.FindAttribute, entity.EntityName(), queryast.OnNode)
			case "edge":
				fields, err = createSortFields(inner, rel.FindAttribute, rel.Name, queryast.OnRelationship)
			default:
				err = queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid connection sort key %s", key).WithEntity(entity.EntityName(), key)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		}
	}
	return out, nil
}

func createSortFields(m map[string]any, lookup func(string) (*schema.Attribute, bool), owner string, attachment queryast.Attachment) ([]queryast.SortField, error) {
	var out []queryast.SortField
	for _, key := range sortedKeys(m) {
		attr, ok := lookup(key)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no sort attribute %s", key).WithEntity(owner, key)
		}
		if attr.Cypher != nil {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "cannot sort on custom cypher attribute %s", key).WithEntity(owner, key)
		}
		dir, _ := m[key].(string)
		switch queryast.SortDirection(dir) {
		case queryast.SortAsc, queryast.SortDesc:
		default:
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid sort direction %v", m[key]).WithEntity(owner, key)
		}
		out = append(out, queryast.SortField{Attribute: attr, Direction: queryast.SortDirection(dir), Attachment: attachment})
	}
	return out, nil
}

// CreatePagination reads limit and offset from options, or from the field
// arguments directly. It returns nil when neither is given.
func (f *Factory) CreatePagination(args map[string]any) (*queryast.Pagination, error) {
	source := args
	if options, err := mapArg(args, "options"); err != nil {
		return nil, err
	} else if options != nil {
		source = options
	}

	p := &queryast.Pagination{}
	var err error
	if p.Limit, err = intArg(source, "limit"); err != nil {
		return nil, err
	}
	if p.Skip, err = intArg(source, "offset"); err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return nil, nil
	}
	return p, nil
}

// CreateConnectionPagination reads first and after. An after cursor at
// offset n skips n+1 edges.
func (f *Factory) CreateConnectionPagination(args map[string]any) (*queryast.Pagination, error) {
	p := &queryast.Pagination{}
	var err error
	if p.Limit, err = intArg(args, "first"); err != nil {
		return nil, err
	}
	if after, ok := args["after"]; ok && after != nil {
		cursor, ok := after.(string)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "after must be a cursor string")
		}
		offset, err := queryast.CursorToOffset(cursor)
		if err != nil {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "%v", err)
		}
		skip := offset + 1
		p.Skip = &skip
	}
	if p.IsEmpty() {
		return nil, nil
	}
	return p, nil
}

// sortArg returns options.sort, or the sort argument.
func sortArg(args map[string]any) any {
	if options, ok := args["options"].(map[string]any); ok {
		if s, ok := options["sort"]; ok {
			return s
		}
	}
	return args["sort"]
}

func mapArg(args map[string]any, name string) (map[string]any, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	return asMap(v, name)
}

func asMap(v any, name string) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "%s must be an object, got %T", name, v)
	}
	return m, nil
}

// asList coerces a single value to a one-element list. nil is empty.
func asList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

func intArg(args map[string]any, name string) (*int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "%s must be a non-negative integer, got %v", name, v)
	}
	return &n, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
