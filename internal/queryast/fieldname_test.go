package queryast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWhereField(t *testing.T) {
	testCases := []struct {
		key  string
		want WhereField
	}{
		{key: "title", want: WhereField{FieldName: "title"}},
		{key: "title_CONTAINS", want: WhereField{FieldName: "title", Operator: OpContains}},
		{key: "title_NOT_CONTAINS", want: WhereField{FieldName: "title", Operator: OpContains, IsNot: true}},
		{key: "title_NOT", want: WhereField{FieldName: "title", IsNot: true}},
		{key: "year_LT", want: WhereField{FieldName: "year", Operator: OpLt}},
		{key: "year_LTE", want: WhereField{FieldName: "year", Operator: OpLte}},
		{key: "year_NOT_IN", want: WhereField{FieldName: "year", Operator: OpIn, IsNot: true}},
		{key: "created_at_GTE", want: WhereField{FieldName: "created_at", Operator: OpGte}},
		{key: "tags_NOT_INCLUDES", want: WhereField{FieldName: "tags", Operator: OpIncludes, IsNot: true}},
		{key: "location_DISTANCE", want: WhereField{FieldName: "location", Operator: OpDistance}},
		{key: "actors_SINGLE", want: WhereField{FieldName: "actors", Operator: OpSingle}},
		{key: "actors_NONE", want: WhereField{FieldName: "actors", IsNot: true}},
		{key: "actorsConnection", want: WhereField{FieldName: "actors", IsConnection: true}},
		{key: "actorsConnection_ALL", want: WhereField{FieldName: "actors", Operator: OpAll, IsConnection: true}},
		{key: "actorsAggregate", want: WhereField{FieldName: "actors", IsAggregate: true}},
		{key: "moviesConnection", want: WhereField{FieldName: "movies", IsConnection: true}},
		{key: "name_NOT_STARTS_WITH", want: WhereField{FieldName: "name", Operator: OpStartsWith, IsNot: true}},
		{key: "name_ENDS_WITH", want: WhereField{FieldName: "name", Operator: OpEndsWith}},
		{key: "name_MATCHES", want: WhereField{FieldName: "name", Operator: OpMatches}},
		{key: "_id", want: WhereField{FieldName: "_id"}},
		{key: "9lives", want: WhereField{FieldName: "9lives"}},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseWhereField(tc.key))
		})
	}
}

func TestParseWhereField_RoundTrip(t *testing.T) {
	keys := []string{
		"title", "title_NOT", "title_IN", "title_NOT_IN", "year_GT",
		"actors_ALL", "actors_SOME", "actors_SINGLE",
		"actorsConnection_SOME", "actorsConnection_NOT", "actorsAggregate",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			parsed := ParseWhereField(key)
			assert.Equal(t, parsed, ParseWhereField(parsed.String()))
		})
	}
}

func TestParseWhereField_NegatedOperators(t *testing.T) {
	base := []Operator{OpIn, OpIncludes, OpContains, OpStartsWith, OpEndsWith}
	for _, op := range base {
		t.Run(string(op), func(t *testing.T) {
			wf := ParseWhereField("field_NOT_" + string(op))
			assert.True(t, wf.IsNot)
			assert.Equal(t, op, wf.Operator)
		})
	}

	for _, token := range []string{"NOT", "NONE"} {
		t.Run(token, func(t *testing.T) {
			wf := ParseWhereField("field_" + token)
			assert.True(t, wf.IsNot)
			assert.Equal(t, Operator(""), wf.Operator)
		})
	}
}

func TestParseConnectionWhereKey(t *testing.T) {
	testCases := []struct {
		key    string
		target ConnectionTarget
		isNot  bool
		ok     bool
	}{
		{key: "node", target: ConnectionNode, ok: true},
		{key: "node_NOT", target: ConnectionNode, isNot: true, ok: true},
		{key: "edge", target: ConnectionEdge, ok: true},
		{key: "edge_NOT", target: ConnectionEdge, isNot: true, ok: true},
		{key: "AND"},
		{key: "nodes"},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			target, isNot, ok := ParseConnectionWhereKey(tc.key)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.target, target)
			assert.Equal(t, tc.isNot, isNot)
		})
	}
}

func TestParseAggregationKey(t *testing.T) {
	testCases := []struct {
		key  string
		want AggregationKey
		ok   bool
	}{
		{key: "name_SHORTEST_LENGTH_GT", want: AggregationKey{FieldName: "name", Aggregation: AggShortestLength, Operator: OpGt}, ok: true},
		{key: "rating_AVERAGE_EQUAL", want: AggregationKey{FieldName: "rating", Aggregation: AggAverage, Operator: OpEq}, ok: true},
		{key: "rating_MAX", want: AggregationKey{FieldName: "rating", Aggregation: AggMax, Operator: OpEq}, ok: true},
		{key: "screen_time_SUM_LTE", want: AggregationKey{FieldName: "screen_time", Aggregation: AggSum, Operator: OpLte}, ok: true},
		{key: "name_AVERAGE_LENGTH_LT", want: AggregationKey{FieldName: "name", Aggregation: AggAverageLength, Operator: OpLt}, ok: true},
		{key: "name", ok: false},
		{key: "count_GT", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			got, ok := ParseAggregationKey(tc.key)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsRelationshipOperator(t *testing.T) {
	for _, op := range []Operator{OpAll, OpNone, OpSingle, OpSome} {
		assert.True(t, IsRelationshipOperator(op), op)
		assert.False(t, IsComparisonOperator(op), op)
	}
	for _, op := range []Operator{OpEq, OpIn, OpContains, OpDistance, ""} {
		assert.False(t, IsRelationshipOperator(op), op)
	}
}
