package queryast

import "github.com/roach88/cypherql/internal/schema"

// Filter is a node of a where tree.
//
// This is a sealed interface - only types in this package implement it.
// Every filter compiles to either a boolean expression or nothing; a
// filter that constrains nothing never compiles to a literal true or false.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// Attachment says whether an attribute lives on the node or on the
// relationship (edge properties).
type Attachment int

const (
	OnNode Attachment = iota
	OnRelationship
)

// PropertyFilter compares one attribute against a request value.
//
// A nil Value compiles to IS NULL, or IS NOT NULL when IsNot is set,
// whatever the operator.
type PropertyFilter struct {
	Attribute  *schema.Attribute
	Value      any
	Operator   Operator // "" means EQ
	IsNot      bool
	Attachment Attachment
}

func (*PropertyFilter) filterNode() {}

// LogicalFilter combines child filters with AND, OR or NOT. NOT negates
// the conjunction of its children.
type LogicalFilter struct {
	Operator LogicalOperator
	Children []Filter
}

func (*LogicalFilter) filterNode() {}

// RelationshipFilter quantifies over the nodes related through
// Relationship, each tested against Filters.
//
// Semantics (P = conjunction of Filters):
//
//	SOME   at least one related node satisfies P
//	ALL    at least one related node exists and none fails P
//	SINGLE exactly one related node satisfies P
//
// IsNot negates the result, so NONE is a negated SOME. Empty Filters
// constrain nothing.
type RelationshipFilter struct {
	Relationship *schema.Relationship
	Operator     Operator // "" means SOME
	IsNot        bool
	Filters      []Filter
}

func (*RelationshipFilter) filterNode() {}

// ConnectionFilter quantifies like RelationshipFilter but its Filters may
// test both the related node and the relationship itself.
type ConnectionFilter struct {
	Relationship *schema.Relationship
	Operator     Operator // "" means SOME
	IsNot        bool
	Filters      []Filter
}

func (*ConnectionFilter) filterNode() {}

// LabelFilter tests that the current node carries the entity's labels. It
// selects one member when filtering through a union or interface.
type LabelFilter struct {
	Entity *schema.ConcreteEntity
}

func (*LabelFilter) filterNode() {}

// AggregationFilter compares aggregates of the nodes related through
// Relationship. It compiles to a subquery that evaluates Filters over the
// related set and a predicate on that subquery's boolean result.
//
// Filters holds CountFilter, AggregationPropertyFilter and LogicalFilter
// nodes only.
type AggregationFilter struct {
	Relationship *schema.Relationship
	Filters      []Filter
}

func (*AggregationFilter) filterNode() {}

// CountFilter compares the number of related nodes.
type CountFilter struct {
	Operator Operator
	Value    any
}

func (*CountFilter) filterNode() {}

// AggregationPropertyFilter compares an aggregate of one attribute across
// the related set, e.g. the average of a node property or the shortest
// length of an edge property.
type AggregationPropertyFilter struct {
	Attribute   *schema.Attribute
	Aggregation AggregationFunction
	Operator    Operator
	Value       any
	Attachment  Attachment
}

func (*AggregationPropertyFilter) filterNode() {}
