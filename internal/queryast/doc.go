// Package queryast defines the intermediate Query AST built from a GraphQL
// read request and compiled to Cypher by package querycypher.
//
// The AST sits between the request and the Cypher builder:
//
//	[request + schema] → [queryfactory] → [Query AST] → [querycypher] → Cypher
//
// SEALED INTERFACES:
//
// Filter, Field and Operation are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so the compiler can
// switch exhaustively on node kind:
//
//	switch f := filter.(type) {
//	case *PropertyFilter:
//	    // comparison against one attribute
//	case *LogicalFilter:
//	    // AND / OR / NOT over child filters
//	case *RelationshipFilter, *ConnectionFilter:
//	    // quantified existence over a relationship pattern
//	case *AggregationFilter:
//	    // comparison against an aggregate of related nodes
//	}
//
// OWNERSHIP:
//
// An AST is built fresh for every request and compiled once. Nodes hold
// pointers to schema objects (entities, attributes, relationships) which
// are shared and read-only. The owned graph is always a tree.
//
// VARIABLES:
//
// Nodes that bind a subquery result allocate their *cypher.Variable at
// construction. Names are only assigned when the final clause is rendered.
package queryast
