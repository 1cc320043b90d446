package queryast

// Operator is a comparison or relationship quantifier operator.
//
// The zero value means no operator was given; comparisons default to EQ and
// relationship filters default to SOME.
type Operator string

const (
	OpEq         Operator = "EQ"
	OpLt         Operator = "LT"
	OpLte        Operator = "LTE"
	OpGt         Operator = "GT"
	OpGte        Operator = "GTE"
	OpIn         Operator = "IN"
	OpContains   Operator = "CONTAINS"
	OpStartsWith Operator = "STARTS_WITH"
	OpEndsWith   Operator = "ENDS_WITH"
	OpMatches    Operator = "MATCHES"
	OpIncludes   Operator = "INCLUDES"
	OpDistance   Operator = "DISTANCE"

	OpAll    Operator = "ALL"
	OpNone   Operator = "NONE"
	OpSingle Operator = "SINGLE"
	OpSome   Operator = "SOME"
)

// IsRelationshipOperator reports whether op quantifies over related nodes.
func IsRelationshipOperator(op Operator) bool {
	switch op {
	case OpAll, OpNone, OpSingle, OpSome:
		return true
	}
	return false
}

// IsComparisonOperator reports whether op compares a single attribute value.
func IsComparisonOperator(op Operator) bool {
	switch op {
	case OpEq, OpLt, OpLte, OpGt, OpGte, OpIn, OpContains, OpStartsWith,
		OpEndsWith, OpMatches, OpIncludes, OpDistance:
		return true
	}
	return false
}

// LogicalOperator combines child filters.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
	LogicalNot LogicalOperator = "NOT"
)

// IsLogicalKey reports whether a where key is AND, OR or NOT.
func IsLogicalKey(key string) bool {
	switch LogicalOperator(key) {
	case LogicalAnd, LogicalOr, LogicalNot:
		return true
	}
	return false
}

// AggregationFunction is the aggregate a property aggregation filter
// compares against.
type AggregationFunction string

const (
	AggAverage        AggregationFunction = "AVERAGE"
	AggSum            AggregationFunction = "SUM"
	AggMin            AggregationFunction = "MIN"
	AggMax            AggregationFunction = "MAX"
	AggShortestLength AggregationFunction = "SHORTEST_LENGTH"
	AggLongestLength  AggregationFunction = "LONGEST_LENGTH"
	AggAverageLength  AggregationFunction = "AVERAGE_LENGTH"
)
