package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_DeferredNaming(t *testing.T) {
	// Names follow first render, not construction order.
	a := NewNode()
	b := NewVariable()
	c := NewNode()
	this := NamedVariable("this")

	clause := Concat(
		NewMatch(NewPattern(Node(this, "Movie")).Related(c, "ACTED_IN", Incoming, Node(a, "Actor"))),
		NewReturn(As(Collect(a), b)),
	)
	res := Build(clause)
	assert.Equal(t, "MATCH (this:Movie)<-[this0:ACTED_IN]-(this1:Actor)\nRETURN collect(this1) AS var2", res.Cypher)
	assert.Empty(t, res.Params)
}

func TestBuild_Params(t *testing.T) {
	v := NamedVariable("n")
	p := NewParam("x")
	pred := Or(Eq(v.Property("a"), p), Eq(v.Property("b"), p), Gt(v.Property("c"), NewParam(int64(3))))
	res := Build(NewMatch(NewPattern(Node(v))).Where(pred))
	assert.Equal(t, "MATCH (n)\nWHERE (n.a = $param0 OR n.b = $param0 OR n.c > $param1)", res.Cypher)
	assert.Equal(t, map[string]any{"param0": "x", "param1": int64(3)}, res.Params)
}

func TestBooleanCombinators(t *testing.T) {
	v := NamedVariable("n")
	x := Eq(v.Property("a"), Lit(1))

	testCases := []struct {
		name string
		expr Expr
		want string
	}{
		{"and of one", And(nil, x, nil), "n.a = 1"},
		{"or of two", Or(x, IsNull(v.Property("b"))), "(n.a = 1 OR n.b IS NULL)"},
		{"not", Not(x), "NOT (n.a = 1)"},
		{"is not null", IsNotNull(v.Property("b")), "n.b IS NOT NULL"},
		{"labels", HasLabels(v, "A", "B"), "n:A:B"},
		{"in", In(Lit("x"), v.Property("tags")), `"x" IN n.tags`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv()
			assert.Equal(t, tc.want, tc.expr.cypher(e))
		})
	}

	assert.Nil(t, And())
	assert.Nil(t, Or(nil, nil))
	assert.Nil(t, Not(nil))
}

func TestExpressions(t *testing.T) {
	n := NamedVariable("n")
	v := NamedVariable("v")

	testCases := []struct {
		name string
		expr Expr
		want string
	}{
		{"empty map", NewMap(), "{}"},
		{"map", NewMap().Set("edges", List()).Set("totalCount", Lit(0)), "{ edges: [], totalCount: 0 }"},
		{"projection", NewMapProjection(n).AddShorthand("title").Add("x", n.Property("y")), "n { .title, x: n.y }"},
		{"list comprehension", ListComprehension(v, n.Property("l"), nil, Point(v)), "[v IN n.l | point(v)]"},
		{"case", Case(IsNotNull(n.Property("p")), n.Property("p"), Null), "CASE WHEN n.p IS NOT NULL THEN n.p ELSE NULL END"},
		{"literal string", Lit(`say "hi"`), `"say \"hi\""`},
		{"literal bool", Lit(true), "true"},
		{"escaped property", n.Property("my prop"), "n.`my prop`"},
		{"exists", Exists(NewPattern(Node(n)).Related(nil, "R", Outgoing, Node(v, "X")), Eq(v.Property("a"), Lit(1))),
			"EXISTS {\n    MATCH (n)-[:R]->(v:X)\n    WHERE v.a = 1\n}"},
		{"single", Single(v, List(Lit(1)), Lit(true)), "single(v IN [1] WHERE true)"},
		{"any label", Exists(NewPattern(Node(n)).Related(nil, "R", Undirected, NodeWithAnyLabel(v, "A", "B")), nil),
			"EXISTS {\n    MATCH (n)-[:R]-(v:A|B)\n}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.expr.cypher(newEnv()))
		})
	}
}

func TestClauses(t *testing.T) {
	this := NamedVariable("this")
	out := NewVariable()

	t.Run("call imports", func(t *testing.T) {
		call := NewCall(Concat(
			NewMatch(NewPattern(Node(this)).Related(nil, "R", Outgoing, Node(out))),
			NewReturn(As(Count(out), NamedVariable("c"))),
		), this)
		want := "CALL {\n" +
			"    WITH this\n" +
			"    MATCH (this)-[:R]->(var0)\n" +
			"    RETURN count(var0) AS c\n" +
			"}"
		assert.Equal(t, want, Build(call).Cypher)
	})

	t.Run("union", func(t *testing.T) {
		branch := func(label string) Clause {
			n := NewNode()
			return Concat(NewMatch(NewPattern(Node(n, label))), NewReturn(As(n, this)))
		}
		want := "CALL {\n" +
			"    MATCH (this0:A)\n" +
			"    RETURN this0 AS this\n" +
			"    UNION\n" +
			"    MATCH (this1:B)\n" +
			"    RETURN this1 AS this\n" +
			"}"
		assert.Equal(t, want, Build(NewCall(Union(branch("A"), branch("B")))).Cypher)
	})

	t.Run("with order skip limit", func(t *testing.T) {
		with := WithStar().
			OrderBy(Order{Expr: this.Property("a"), Desc: true}, Order{Expr: this.Property("b")}).
			Skip(NewParam(int64(1))).
			Limit(NewParam(int64(2)))
		res := Build(with)
		assert.Equal(t, "WITH *\nORDER BY this.a DESC, this.b ASC\nSKIP $param0\nLIMIT $param1", res.Cypher)
	})

	t.Run("unwind", func(t *testing.T) {
		res := Build(Concat(NewUnwind(List(), this), NewReturn(Var(this))))
		assert.Equal(t, "UNWIND [] AS this\nRETURN this", res.Cypher)
	})

	t.Run("raw clause", func(t *testing.T) {
		res := Build(Concat(NewWith(As(this, NamedVariable("m"))), RawClause("RETURN m.x AS x")))
		assert.Equal(t, "WITH this AS m\nRETURN m.x AS x", res.Cypher)
	})

	t.Run("exists subquery", func(t *testing.T) {
		n := NewNode()
		body := Concat(NewMatch(NewPattern(Node(n))), WithStar().Where(Eq(n.Property("a"), Lit(1))))
		want := "EXISTS {\n" +
			"    MATCH (this0)\n" +
			"    WITH *\n" +
			"    WHERE this0.a = 1\n" +
			"}"
		assert.Equal(t, want, ExistsSubquery(body).cypher(newEnv()))
	})
}
