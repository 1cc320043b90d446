package schema

// ScalarName is the GraphQL type name of an attribute.
type ScalarName string

const (
	ScalarID             ScalarName = "ID"
	ScalarString         ScalarName = "String"
	ScalarInt            ScalarName = "Int"
	ScalarFloat          ScalarName = "Float"
	ScalarBigInt         ScalarName = "BigInt"
	ScalarBoolean        ScalarName = "Boolean"
	ScalarDateTime       ScalarName = "DateTime"
	ScalarDate           ScalarName = "Date"
	ScalarTime           ScalarName = "Time"
	ScalarLocalDateTime  ScalarName = "LocalDateTime"
	ScalarLocalTime      ScalarName = "LocalTime"
	ScalarDuration       ScalarName = "Duration"
	ScalarPoint          ScalarName = "Point"
	ScalarCartesianPoint ScalarName = "CartesianPoint"
)

// AttributeType describes the value shape of an attribute.
type AttributeType struct {
	Name     ScalarName
	IsList   bool
	Required bool
	// IsEnum is set for user enums, which behave as strings.
	IsEnum bool
}

// IsPoint reports whether the attribute holds spatial points.
func (t AttributeType) IsPoint() bool {
	return t.Name == ScalarPoint || t.Name == ScalarCartesianPoint
}

// IsDateTime reports whether the attribute is a zoned date-time.
func (t AttributeType) IsDateTime() bool {
	return t.Name == ScalarDateTime
}

// IsTemporal reports whether the attribute is any temporal type.
func (t AttributeType) IsTemporal() bool {
	switch t.Name {
	case ScalarDateTime, ScalarDate, ScalarTime, ScalarLocalDateTime, ScalarLocalTime, ScalarDuration:
		return true
	}
	return false
}

// IsNumeric reports whether the attribute supports min/max/average/sum.
func (t AttributeType) IsNumeric() bool {
	switch t.Name {
	case ScalarInt, ScalarFloat, ScalarBigInt:
		return true
	}
	return false
}

// IsString reports whether the attribute is string-like (String, ID, enum).
func (t AttributeType) IsString() bool {
	return t.IsEnum || t.Name == ScalarString || t.Name == ScalarID
}

// TemporalConstructor returns the Cypher function that builds a value of
// the attribute's temporal type, or "" for non-temporal types.
func (t AttributeType) TemporalConstructor() string {
	switch t.Name {
	case ScalarDateTime:
		return "datetime"
	case ScalarDate:
		return "date"
	case ScalarTime:
		return "time"
	case ScalarLocalDateTime:
		return "localdatetime"
	case ScalarLocalTime:
		return "localtime"
	case ScalarDuration:
		return "duration"
	}
	return ""
}

// CypherAnnotation is a custom @cypher statement backing an attribute.
type CypherAnnotation struct {
	Statement  string
	ColumnName string
}

// Attribute is a scalar, spatial or temporal field of an entity or of a
// relationship's properties. Attributes are immutable once parsed.
type Attribute struct {
	Name         string
	DatabaseName string
	Type         AttributeType
	Cypher       *CypherAnnotation
}

// Direction is a relationship direction relative to its source entity.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Relationship is a typed, directed edge kind from a source entity to a
// target entity. It is owned by its source and referenced, never copied, by
// query AST nodes.
type Relationship struct {
	Name       string
	Type       string
	Direction  Direction
	Source     Entity
	Target     Entity
	IsList     bool
	Properties string

	attributes     map[string]*Attribute
	attributeOrder []string
	targetName     string
}

// FindAttribute returns an edge property by name.
func (r *Relationship) FindAttribute(name string) (*Attribute, bool) {
	a, ok := r.attributes[name]
	return a, ok
}

// Attributes returns the edge properties in declaration order.
func (r *Relationship) Attributes() []*Attribute {
	out := make([]*Attribute, 0, len(r.attributeOrder))
	for _, n := range r.attributeOrder {
		out = append(out, r.attributes[n])
	}
	return out
}

// ConnectionFieldName is the name of the paired connection field.
func (r *Relationship) ConnectionFieldName() string {
	return r.Name + "Connection"
}

// AggregateFieldName is the name of the paired aggregation field.
func (r *Relationship) AggregateFieldName() string {
	return r.Name + "Aggregate"
}
