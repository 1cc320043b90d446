package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const movieSDL = `
enum Genre { ACTION DRAMA }

interface Production {
	title: String!
}

type Movie implements Production @node(labels: ["Movie", "Film"]) {
	title: String!
	released: DateTime
	genre: Genre
	location: Point
	tagline: String @alias(property: "movie_tagline")
	score: Float @cypher(statement: "RETURN 5 AS s", columnName: "s")
	actors: [Actor!]! @relationship(type: "ACTED_IN", direction: IN, properties: "ActedIn")
	director: Person @relationship(type: "DIRECTED", direction: IN)
}

type Series implements Production {
	title: String!
}

type Actor {
	name: String!
	movies: [Movie!]! @relationship(type: "ACTED_IN", direction: OUT, properties: "ActedIn")
}

type Person @plural(value: "people") {
	name: String
}

type ActedIn @relationshipProperties {
	role: String
	screenTime: Int
}

union SearchResult = Movie | Actor
`

func TestParse_ConcreteEntities(t *testing.T) {
	m, err := Parse(movieSDL)
	require.NoError(t, err)

	e, ok := m.Entity("Movie")
	require.True(t, ok)
	movie, ok := e.(*ConcreteEntity)
	require.True(t, ok)

	assert.Equal(t, []string{"Movie", "Film"}, movie.Labels)
	assert.Equal(t, "movies", movie.Plural())
	assert.Equal(t, []string{"Production"}, movie.Interfaces)

	title, ok := movie.FindAttribute("title")
	require.True(t, ok)
	assert.Equal(t, ScalarString, title.Type.Name)
	assert.True(t, title.Type.Required)

	genre, ok := movie.FindAttribute("genre")
	require.True(t, ok)
	assert.True(t, genre.Type.IsEnum)
	assert.True(t, genre.Type.IsString())

	loc, ok := movie.FindAttribute("location")
	require.True(t, ok)
	assert.True(t, loc.Type.IsPoint())

	tagline, ok := movie.FindAttribute("tagline")
	require.True(t, ok)
	assert.Equal(t, "movie_tagline", tagline.DatabaseName)

	score, ok := movie.FindAttribute("score")
	require.True(t, ok)
	require.NotNil(t, score.Cypher)
	assert.Equal(t, "s", score.Cypher.ColumnName)

	released, ok := movie.FindAttribute("released")
	require.True(t, ok)
	assert.Equal(t, "datetime", released.Type.TemporalConstructor())
}

func TestParse_Relationships(t *testing.T) {
	m, err := Parse(movieSDL)
	require.NoError(t, err)

	e, _ := m.Entity("Movie")
	actors, ok := e.FindRelationship("actors")
	require.True(t, ok)

	assert.Equal(t, "ACTED_IN", actors.Type)
	assert.Equal(t, DirectionIn, actors.Direction)
	assert.True(t, actors.IsList)
	assert.Equal(t, "Actor", actors.Target.EntityName())
	assert.Equal(t, "actorsConnection", actors.ConnectionFieldName())
	assert.Equal(t, "actorsAggregate", actors.AggregateFieldName())

	role, ok := actors.FindAttribute("role")
	require.True(t, ok)
	assert.Equal(t, ScalarString, role.Type.Name)
	assert.Len(t, actors.Attributes(), 2)

	director, ok := e.FindRelationship("director")
	require.True(t, ok)
	assert.False(t, director.IsList)

	_, isEntity := m.Entity("ActedIn")
	assert.False(t, isEntity, "relationship properties types are not entities")
}

func TestParse_Composites(t *testing.T) {
	m, err := Parse(movieSDL)
	require.NoError(t, err)

	e, ok := m.Entity("Production")
	require.True(t, ok)
	prod := e.(*CompositeEntity)
	assert.Equal(t, KindInterface, prod.Kind)

	names := []string{}
	for _, c := range prod.ConcreteEntities() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Movie", "Series"}, names)

	_, ok = prod.FindAttribute("title")
	assert.True(t, ok)

	e, ok = m.Entity("SearchResult")
	require.True(t, ok)
	search := e.(*CompositeEntity)
	assert.Equal(t, KindUnion, search.Kind)
	assert.Len(t, search.ConcreteEntities(), 2)

	member, ok := search.Member("Actor")
	require.True(t, ok)
	assert.Equal(t, "Actor", member.Name)
}

func TestParse_Plurals(t *testing.T) {
	m, err := Parse(movieSDL)
	require.NoError(t, err)

	e, ok := m.EntityByPlural("people")
	require.True(t, ok)
	assert.Equal(t, "Person", e.EntityName())

	e, ok = m.EntityByPlural("actors")
	require.True(t, ok)
	assert.Equal(t, "Actor", e.EntityName())

	assert.Contains(t, m.Plurals(), "movies")
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		sdl  string
		want string
	}{
		{
			name: "missing relationship directive",
			sdl:  `type A { b: B } type B { x: Int }`,
			want: "without @relationship",
		},
		{
			name: "invalid direction",
			sdl:  `type A { b: B @relationship(type: "X", direction: SIDEWAYS) } type B { x: Int }`,
			want: "invalid direction",
		},
		{
			name: "missing relationship type",
			sdl:  `type A { b: B @relationship(direction: OUT) } type B { x: Int }`,
			want: "requires type",
		},
		{
			name: "unknown properties type",
			sdl:  `type A { b: B @relationship(type: "X", direction: OUT, properties: "Nope") } type B { x: Int }`,
			want: "properties type Nope not found",
		},
		{
			name: "syntax error",
			sdl:  `type A {`,
			want: "parse schema",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.sdl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_InterfaceWithoutImplementations(t *testing.T) {
	m, err := Parse(`interface Lonely { id: ID } type Thing { id: ID }`)
	require.NoError(t, err)

	e, ok := m.Entity("Lonely")
	require.True(t, ok)
	assert.Empty(t, e.ConcreteEntities())
}
