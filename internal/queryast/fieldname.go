package queryast

import (
	"regexp"
	"strings"
)

// WhereField is a decoded where key or root field name.
type WhereField struct {
	FieldName    string
	Operator     Operator // "" when no comparison operator was given
	IsNot        bool
	IsConnection bool
	IsAggregate  bool
}

// Operator tokens in the order the grammar tries them.
var whereFieldPattern = regexp.MustCompile(
	`^(?P<fieldName>[_A-Za-z]\w*?)(?P<isConnection>Connection)?(?P<isAggregate>Aggregate)?` +
		`(?:_(?P<operator>NOT|NOT_IN|IN|NOT_INCLUDES|INCLUDES|MATCHES|NOT_CONTAINS|CONTAINS|` +
		`NOT_STARTS_WITH|STARTS_WITH|NOT_ENDS_WITH|ENDS_WITH|LT|LTE|GT|GTE|DISTANCE|ALL|NONE|SINGLE|SOME))?$`)

// ParseWhereField decodes <field>[Connection][Aggregate][_<OPERATOR>].
//
// NOT_<OP> yields IsNot with operator OP. Bare NOT and NONE yield IsNot with
// no operator. A key that does not fit the grammar is returned whole as the
// field name, so every input has exactly one parse.
func ParseWhereField(key string) WhereField {
	m := whereFieldPattern.FindStringSubmatch(key)
	if m == nil {
		return WhereField{FieldName: key}
	}

	wf := WhereField{
		FieldName:    m[whereFieldPattern.SubexpIndex("fieldName")],
		IsConnection: m[whereFieldPattern.SubexpIndex("isConnection")] != "",
		IsAggregate:  m[whereFieldPattern.SubexpIndex("isAggregate")] != "",
	}

	switch op := m[whereFieldPattern.SubexpIndex("operator")]; {
	case op == "":
	case op == "NOT" || op == "NONE":
		wf.IsNot = true
	case strings.HasPrefix(op, "NOT_"):
		wf.IsNot = true
		wf.Operator = Operator(strings.TrimPrefix(op, "NOT_"))
	default:
		wf.Operator = Operator(op)
	}
	return wf
}

// String re-encodes the parsed parts as a where key.
func (wf WhereField) String() string {
	var b strings.Builder
	b.WriteString(wf.FieldName)
	if wf.IsConnection {
		b.WriteString("Connection")
	}
	if wf.IsAggregate {
		b.WriteString("Aggregate")
	}
	switch {
	case wf.IsNot && wf.Operator == "":
		b.WriteString("_NOT")
	case wf.IsNot:
		b.WriteString("_NOT_" + string(wf.Operator))
	case wf.Operator != "":
		b.WriteString("_" + string(wf.Operator))
	}
	return b.String()
}

// ConnectionTarget says what a connection where key filters on.
type ConnectionTarget string

const (
	ConnectionNode ConnectionTarget = "node"
	ConnectionEdge ConnectionTarget = "edge"
)

// ParseConnectionWhereKey decodes node, node_NOT, edge and edge_NOT. It
// reports false for any other key.
func ParseConnectionWhereKey(key string) (target ConnectionTarget, isNot bool, ok bool) {
	base, isNot := strings.CutSuffix(key, "_NOT")
	switch ConnectionTarget(base) {
	case ConnectionNode, ConnectionEdge:
		return ConnectionTarget(base), isNot, true
	}
	return "", false, false
}

var aggregationKeyPattern = regexp.MustCompile(
	`^(?P<field>[_A-Za-z]\w*?)_(?P<agg>AVERAGE_LENGTH|SHORTEST_LENGTH|LONGEST_LENGTH|AVERAGE|SUM|MIN|MAX)` +
		`(?:_(?P<op>EQUAL|LT|LTE|GT|GTE))?$`)

// AggregationKey is a decoded aggregation filter key such as
// name_SHORTEST_LENGTH_GT.
type AggregationKey struct {
	FieldName   string
	Aggregation AggregationFunction
	Operator    Operator
}

// ParseAggregationKey decodes <field>_<AGG>[_<OP>]. EQUAL and a missing
// operator both mean EQ.
func ParseAggregationKey(key string) (AggregationKey, bool) {
	m := aggregationKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return AggregationKey{}, false
	}
	op := Operator(m[aggregationKeyPattern.SubexpIndex("op")])
	if op == "" || op == "EQUAL" {
		op = OpEq
	}
	return AggregationKey{
		FieldName:   m[aggregationKeyPattern.SubexpIndex("field")],
		Aggregation: AggregationFunction(m[aggregationKeyPattern.SubexpIndex("agg")]),
		Operator:    op,
	}, true
}
