// Package queryfactory builds Query ASTs from resolved request fields and
// the schema model.
//
// One Factory serves one request. It dispatches on the root field name:
//
//	movies            → ReadOperation
//	moviesConnection  → ConnectionReadOperation
//	moviesAggregate   → AggregationOperation
//
// and recursively builds filters from where arguments, projection fields
// from selection sets, and sort and pagination from options. Schema
// reference problems are reported as *queryast.TranslationError.
//
// Where keys are visited in sorted order so the same request always
// yields the same AST and therefore the same Cypher text.
package queryfactory
