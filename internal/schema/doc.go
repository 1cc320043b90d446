// Package schema provides the normalized graph schema model consumed by the
// query AST factories.
//
// The model is built once from GraphQL type definitions (Parse) and is
// read-only afterwards. Query AST nodes hold pointers to its Entity,
// Relationship and Attribute values; they never copy or mutate them, so the
// same Model may serve any number of concurrent translations.
//
// Entity is a sealed interface with two variants:
//   - ConcreteEntity: a node type with labels, attributes and relationships
//   - CompositeEntity: an interface or union over concrete entities
package schema
