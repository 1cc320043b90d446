// Package cypher provides a small, side-effect-free Cypher expression and
// clause builder.
//
// Builders produce a tree of Expr and Clause values. Nothing is rendered
// until Build is called on the outermost clause:
//
//	this := cypher.NamedVariable("this")
//	match := cypher.NewMatch(cypher.NewPattern(cypher.Node(this, "Movie"))).
//		Where(cypher.Eq(this.Property("title"), cypher.NewParam("Inception")))
//	ret := cypher.NewReturn(cypher.As(cypher.NewMapProjection(this).AddShorthand("title"), this))
//	res := cypher.Build(cypher.Concat(match, ret))
//
// produces
//
//	MATCH (this:Movie)
//	WHERE this.title = $param0
//	RETURN this { .title } AS this
//
// DEFERRED NAMING:
//
// Variables and parameters are opaque pointers. Their textual names
// (this0, var1, param0, ...) are assigned in order of first appearance
// during Build, so independently built sub-trees can be composed without
// any renaming pass and never collide within one query.
//
// ESCAPE HATCH:
//
// Raw and RawClause embed literal Cypher text. They exist for user supplied
// statements (custom cypher fields) and are never used for generated
// fragments.
package cypher
