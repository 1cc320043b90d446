package queryfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/request"
	"github.com/roach88/cypherql/internal/schema"
)

const testSDL = `
interface Production {
	title: String
}

type Movie implements Production {
	title: String
	released: Int
	rating: Float
	location: Point
	actorCount: Int @cypher(statement: "RETURN 1 AS c", columnName: "c")
	actors: [Actor!]! @relationship(type: "ACTED_IN", direction: IN, properties: "ActedIn")
	director: Person @relationship(type: "DIRECTED", direction: IN)
	related: [SearchResult!]! @relationship(type: "RELATED", direction: OUT)
}

type Series implements Production {
	title: String
}

type Actor {
	name: String
}

type Person {
	name: String
}

type ActedIn @relationshipProperties {
	role: String
	screenTime: Int
}

union SearchResult = Movie | Actor
`

func newTestFactory(t *testing.T, opts ...Option) (*Factory, *schema.Model) {
	t.Helper()
	model, err := schema.Parse(testSDL)
	require.NoError(t, err)
	return New(model, opts...), model
}

func rootField(t *testing.T, query string) *request.Field {
	t.Helper()
	doc, err := request.Parse(query, nil, "")
	require.NoError(t, err)
	require.Len(t, doc.Fields, 1)
	return doc.Fields[0]
}

func entity(t *testing.T, model *schema.Model, name string) schema.Entity {
	t.Helper()
	e, ok := model.Entity(name)
	require.True(t, ok, "entity %s", name)
	return e
}

func TestCreateQueryAST_RootDispatch(t *testing.T) {
	f, _ := newTestFactory(t)

	t.Run("read", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ films: movies { title } }`))
		require.NoError(t, err)
		assert.Equal(t, "films", ast.Field)
		read, ok := ast.Operation.(*queryast.ReadOperation)
		require.True(t, ok)
		assert.False(t, read.IsComposite())
		require.Len(t, read.Branches, 1)
		require.Len(t, read.Branches[0].Fields, 1)
		assert.Equal(t, "title", read.Branches[0].Fields[0].ResponseKey())
	})

	t.Run("connection", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ moviesConnection { edges { node { title } } } }`))
		require.NoError(t, err)
		conn, ok := ast.Operation.(*queryast.ConnectionReadOperation)
		require.True(t, ok)
		require.Len(t, conn.Branches, 1)
		assert.Equal(t, "node", conn.Branches[0].NodeAlias)
	})

	t.Run("aggregate", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ moviesAggregate { count rating { min max } } }`))
		require.NoError(t, err)
		op, ok := ast.Operation.(*queryast.AggregationOperation)
		require.True(t, ok)
		assert.Equal(t, "count", op.Aggregation.CountAlias)
		require.Len(t, op.Aggregation.NodeFields, 1)
		assert.Equal(t, []string{"min", "max"}, op.Aggregation.NodeFields[0].Keys)
	})

	t.Run("composite", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ productions { title } }`))
		require.NoError(t, err)
		read := ast.Operation.(*queryast.ReadOperation)
		assert.True(t, read.IsComposite())
		require.Len(t, read.Branches, 2)
		for i, name := range []string{"Movie", "Series"} {
			assert.Equal(t, name, read.Branches[i].Entity.Name)
			typename, ok := read.Branches[i].Fields[0].(*queryast.TypenameField)
			require.True(t, ok)
			assert.Equal(t, name, typename.TypeName)
		}
	})

	t.Run("unknown root", func(t *testing.T) {
		_, err := f.CreateQueryAST(rootField(t, `{ directors { name } }`))
		require.Error(t, err)
		assert.True(t, queryast.IsNotFound(err))
		assert.Equal(t, queryast.ErrCodeEntityNotFound, queryast.CodeOf(err))
	})
}

func TestCreateFilters(t *testing.T) {
	f, model := newTestFactory(t)
	movie := entity(t, model, "Movie")

	t.Run("property", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{"title_NOT_STARTS_WITH": "The"}, movie)
		require.NoError(t, err)
		require.Len(t, filters, 1)
		pf, ok := filters[0].(*queryast.PropertyFilter)
		require.True(t, ok)
		assert.Equal(t, "title", pf.Attribute.Name)
		assert.Equal(t, queryast.OpStartsWith, pf.Operator)
		assert.True(t, pf.IsNot)
		assert.Equal(t, queryast.OnNode, pf.Attachment)
	})

	t.Run("keys are visited in sorted order", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{"title": "a", "released": int64(1), "rating_GT": 2.5}, movie)
		require.NoError(t, err)
		require.Len(t, filters, 3)
		var names []string
		for _, filter := range filters {
			names = append(names, filter.(*queryast.PropertyFilter).Attribute.Name)
		}
		assert.Equal(t, []string{"rating", "released", "title"}, names)
	})

	t.Run("relationship", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{"actors_NONE": map[string]any{"name": "x"}}, movie)
		require.NoError(t, err)
		require.Len(t, filters, 1)
		rf, ok := filters[0].(*queryast.RelationshipFilter)
		require.True(t, ok)
		assert.Equal(t, "actors", rf.Relationship.Name)
		assert.True(t, rf.IsNot)
		assert.Equal(t, queryast.Operator(""), rf.Operator)
		assert.Len(t, rf.Filters, 1)
	})

	t.Run("connection edge negation", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{
			"actorsConnection_ALL": map[string]any{"edge_NOT": map[string]any{"role": "Neo"}},
		}, movie)
		require.NoError(t, err)
		cf, ok := filters[0].(*queryast.ConnectionFilter)
		require.True(t, ok)
		assert.Equal(t, queryast.OpAll, cf.Operator)
		require.Len(t, cf.Filters, 1)
		not, ok := cf.Filters[0].(*queryast.LogicalFilter)
		require.True(t, ok)
		assert.Equal(t, queryast.LogicalNot, not.Operator)
		assert.Equal(t, queryast.OnRelationship, not.Children[0].(*queryast.PropertyFilter).Attachment)
	})

	t.Run("aggregation", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{
			"actorsAggregate": map[string]any{
				"count_GTE": int64(2),
				"node":      map[string]any{"name_SHORTEST_LENGTH_LT": int64(5)},
				"edge":      map[string]any{"screenTime_SUM_GT": int64(100)},
			},
		}, movie)
		require.NoError(t, err)
		af, ok := filters[0].(*queryast.AggregationFilter)
		require.True(t, ok)
		require.Len(t, af.Filters, 3)

		count := af.Filters[0].(*queryast.CountFilter)
		assert.Equal(t, queryast.OpGte, count.Operator)

		edge := af.Filters[1].(*queryast.AggregationPropertyFilter)
		assert.Equal(t, queryast.AggSum, edge.Aggregation)
		assert.Equal(t, queryast.OnRelationship, edge.Attachment)

		node := af.Filters[2].(*queryast.AggregationPropertyFilter)
		assert.Equal(t, queryast.AggShortestLength, node.Aggregation)
		assert.Equal(t, queryast.OpLt, node.Operator)
		assert.Equal(t, queryast.OnNode, node.Attachment)
	})

	t.Run("union target", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{
			"related_SOME": map[string]any{
				"Actor": map[string]any{"name": "a"},
				"Movie": map[string]any{"title": "m"},
			},
		}, movie)
		require.NoError(t, err)
		rf := filters[0].(*queryast.RelationshipFilter)
		require.Len(t, rf.Filters, 1)
		or, ok := rf.Filters[0].(*queryast.LogicalFilter)
		require.True(t, ok)
		assert.Equal(t, queryast.LogicalOr, or.Operator)
		require.Len(t, or.Children, 2)
		first := or.Children[0].(*queryast.LogicalFilter)
		label, ok := first.Children[0].(*queryast.LabelFilter)
		require.True(t, ok)
		assert.Equal(t, "Actor", label.Entity.Name)
	})

	t.Run("empty logical filters are dropped", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{"AND": []any{}, "OR": []any{map[string]any{}}, "NOT": map[string]any{}}, movie)
		require.NoError(t, err)
		assert.Empty(t, filters)
	})

	t.Run("not flattens its objects", func(t *testing.T) {
		filters, err := f.CreateFilters(map[string]any{"NOT": map[string]any{"title": "a", "released": int64(1)}}, movie)
		require.NoError(t, err)
		not := filters[0].(*queryast.LogicalFilter)
		assert.Equal(t, queryast.LogicalNot, not.Operator)
		assert.Len(t, not.Children, 2)
	})
}

func TestCreateFilters_Errors(t *testing.T) {
	f, model := newTestFactory(t)
	movie := entity(t, model, "Movie")

	testCases := []struct {
		name  string
		where map[string]any
		code  queryast.ErrorCode
	}{
		{"unknown attribute", map[string]any{"budget_GT": int64(1)}, queryast.ErrCodeAttributeNotFound},
		{"unknown connection", map[string]any{"writersConnection": map[string]any{}}, queryast.ErrCodeRelationshipNotFound},
		{"comparison on relationship", map[string]any{"actors_GT": map[string]any{}}, queryast.ErrCodeInvalidOperator},
		{"quantifier on attribute", map[string]any{"title_SOME": "x"}, queryast.ErrCodeInvalidOperator},
		{"custom cypher attribute", map[string]any{"actorCount": int64(1)}, queryast.ErrCodeInvalidArgument},
		{"relationship value not an object", map[string]any{"actors_SOME": "x"}, queryast.ErrCodeInvalidArgument},
		{"bad connection key", map[string]any{"actorsConnection": map[string]any{"nodes": map[string]any{}}}, queryast.ErrCodeInvalidArgument},
		{"unknown edge property", map[string]any{"actorsConnection": map[string]any{"edge": map[string]any{"salary": int64(1)}}}, queryast.ErrCodeAttributeNotFound},
		{"invalid count operator", map[string]any{"actorsAggregate": map[string]any{"count_CONTAINS": int64(1)}}, queryast.ErrCodeInvalidOperator},
		{"quantifier on aggregation filter", map[string]any{"actorsAggregate_SOME": map[string]any{"count": int64(1)}}, queryast.ErrCodeInvalidOperator},
		{"negated aggregation filter", map[string]any{"actorsAggregate_NOT": map[string]any{"count": int64(1)}}, queryast.ErrCodeInvalidOperator},
		{"length aggregate on int", map[string]any{"actorsAggregate": map[string]any{"edge": map[string]any{"screenTime_LONGEST_LENGTH": int64(1)}}}, queryast.ErrCodeInvalidOperator},
		{"union member unknown", map[string]any{"related": map[string]any{"Person": map[string]any{}}}, queryast.ErrCodeEntityNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.CreateFilters(tc.where, movie)
			require.Error(t, err)
			assert.Equal(t, tc.code, queryast.CodeOf(err))
		})
	}
}

func TestCreateFields(t *testing.T) {
	f, _ := newTestFactory(t)

	ast, err := f.CreateQueryAST(rootField(t, `{
		movies {
			__typename
			name: title
			location { latitude crs }
			actorCount
			director { name }
			actorsConnection { totalCount }
			actorsAggregate { count }
			writersAggregate { count }
		}
	}`))
	require.NoError(t, err)
	fields := ast.Operation.(*queryast.ReadOperation).Branches[0].Fields
	require.Len(t, fields, 7)

	assert.IsType(t, &queryast.TypenameField{}, fields[0])
	alias := fields[1].(*queryast.AttributeField)
	assert.Equal(t, "name", alias.Alias)
	assert.Equal(t, "title", alias.Attribute.Name)
	assert.True(t, fields[2].(*queryast.AttributeField).IncludeCRS)
	assert.IsType(t, &queryast.CypherAttributeField{}, fields[3])
	assert.IsType(t, &queryast.RelationshipField{}, fields[4])
	assert.IsType(t, &queryast.ConnectionField{}, fields[5])
	assert.IsType(t, &queryast.AggregationField{}, fields[6])

	_, err = f.CreateQueryAST(rootField(t, `{ movies { budget } }`))
	require.Error(t, err)
	assert.Equal(t, queryast.ErrCodeAttributeNotFound, queryast.CodeOf(err))

	_, err = f.CreateQueryAST(rootField(t, `{ moviesAggregate { title { average } } }`))
	require.Error(t, err)
	assert.Equal(t, queryast.ErrCodeInvalidArgument, queryast.CodeOf(err))
}

func TestSortAndPagination(t *testing.T) {
	f, model := newTestFactory(t)
	movie := entity(t, model, "Movie")

	t.Run("sort list", func(t *testing.T) {
		sort, err := f.CreateSort([]any{map[string]any{"released": "DESC"}, map[string]any{"title": "ASC"}}, movie)
		require.NoError(t, err)
		require.Len(t, sort, 2)
		assert.True(t, sort[0].Desc())
		assert.False(t, sort[1].Desc())
	})

	t.Run("invalid direction", func(t *testing.T) {
		_, err := f.CreateSort(map[string]any{"title": "UP"}, movie)
		assert.Equal(t, queryast.ErrCodeInvalidArgument, queryast.CodeOf(err))
	})

	t.Run("connection sort", func(t *testing.T) {
		rel, _ := movie.FindRelationship("actors")
		sort, err := f.CreateConnectionSort([]any{map[string]any{"edge": map[string]any{"screenTime": "DESC"}, "node": map[string]any{"name": "ASC"}}}, rel.Target, rel)
		require.NoError(t, err)
		require.Len(t, sort, 2)
		assert.Equal(t, queryast.OnRelationship, sort[0].Attachment)
		assert.Equal(t, queryast.OnNode, sort[1].Attachment)
	})

	t.Run("options pagination", func(t *testing.T) {
		p, err := f.CreatePagination(map[string]any{"options": map[string]any{"limit": int64(10), "offset": int64(5)}})
		require.NoError(t, err)
		assert.Equal(t, int64(10), *p.Limit)
		assert.Equal(t, int64(5), *p.Skip)
	})

	t.Run("no pagination", func(t *testing.T) {
		p, err := f.CreatePagination(map[string]any{})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := f.CreatePagination(map[string]any{"limit": int64(-1)})
		assert.Equal(t, queryast.ErrCodeInvalidArgument, queryast.CodeOf(err))
	})

	t.Run("after cursor skips past it", func(t *testing.T) {
		p, err := f.CreateConnectionPagination(map[string]any{"first": int64(3), "after": queryast.OffsetToCursor(4)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), *p.Limit)
		assert.Equal(t, int64(5), *p.Skip)
	})

	t.Run("bad cursor", func(t *testing.T) {
		_, err := f.CreateConnectionPagination(map[string]any{"after": "not-a-cursor"})
		assert.Equal(t, queryast.ErrCodeInvalidArgument, queryast.CodeOf(err))
	})
}

func TestLimits(t *testing.T) {
	f, _ := newTestFactory(t, WithLimits(20, 50))

	testCases := []struct {
		name  string
		query string
		want  int64
	}{
		{"default applied", `{ movies { title } }`, 20},
		{"explicit kept", `{ movies(options: {limit: 30}) { title } }`, 30},
		{"capped at max", `{ movies(limit: 500) { title } }`, 50},
		{"connection default", `{ moviesConnection { totalCount } }`, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ast, err := f.CreateQueryAST(rootField(t, tc.query))
			require.NoError(t, err)
			var p *queryast.Pagination
			switch op := ast.Operation.(type) {
			case *queryast.ReadOperation:
				p = op.Pagination
			case *queryast.ConnectionReadOperation:
				p = op.Pagination
			}
			require.NotNil(t, p)
			assert.Equal(t, tc.want, *p.Limit)
		})
	}

	t.Run("single relationship is not limited", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ movies { director { name } } }`))
		require.NoError(t, err)
		field := ast.Operation.(*queryast.ReadOperation).Branches[0].Fields[0].(*queryast.RelationshipField)
		assert.True(t, field.Read.Pagination.IsEmpty())
	})
}

func TestUnionReadWhere(t *testing.T) {
	f, _ := newTestFactory(t)

	ast, err := f.CreateQueryAST(rootField(t, `{
		searchResults(where: {Actor: {name: "Keanu"}}) {
			... on Movie { title }
			... on Actor { name }
		}
	}`))
	require.NoError(t, err)
	read := ast.Operation.(*queryast.ReadOperation)
	require.Len(t, read.Branches, 1)
	assert.Equal(t, "Actor", read.Branches[0].Entity.Name)
	require.Len(t, read.Branches[0].Filters, 1)
}

type staticAuth map[string]map[string]any

func (s staticAuth) AuthorizationFilters(entity *schema.ConcreteEntity, filters FilterFactory) ([]queryast.Filter, error) {
	where, ok := s[entity.Name]
	if !ok {
		return nil, nil
	}
	return filters.CreateFilters(where, entity)
}

func TestAuthorization(t *testing.T) {
	f, _ := newTestFactory(t, WithAuthorization(staticAuth{"Actor": {"name_NOT": "secret"}}))

	t.Run("read boundary", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ movies { actors { name } } }`))
		require.NoError(t, err)
		movie := ast.Operation.(*queryast.ReadOperation).Branches[0]
		assert.Empty(t, movie.AuthFilters)
		actors := movie.Fields[0].(*queryast.RelationshipField).Read.Branches[0]
		require.Len(t, actors.AuthFilters, 1)
		assert.Len(t, actors.AllFilters(), 1)
	})

	t.Run("aggregation boundary over a union", func(t *testing.T) {
		ast, err := f.CreateQueryAST(rootField(t, `{ searchResultsAggregate { count } }`))
		require.NoError(t, err)
		agg := ast.Operation.(*queryast.AggregationOperation).Aggregation
		require.Len(t, agg.Filters, 1)
		or := agg.Filters[0].(*queryast.LogicalFilter)
		assert.Equal(t, queryast.LogicalOr, or.Operator)
		assert.Len(t, or.Children, 2)
	})
}
