// Package querycypher compiles a Query AST to one Cypher clause tree.
//
// Each AST node contributes up to three things, computed by one visitor per
// concern:
//
//   - a predicate for the enclosing WHERE (filters)
//   - an entry of the enclosing map projection (fields)
//   - subqueries that must run before that WHERE or projection
//
// A root read compiles, in this fixed order, to:
//
//	MATCH (this:Label)
//	WHERE <conjunction of filter predicates>
//	WITH * ORDER BY ... SKIP ... LIMIT ...
//	CALL { <field subquery> } ...
//	RETURN this { <projection> } AS this
//
// Filters whose predicate needs a subquery (aggregation filters) move the
// WHERE after those subqueries as WITH * WHERE. Clauses are never
// reordered otherwise, because later clauses read variables bound by
// earlier ones.
package querycypher
