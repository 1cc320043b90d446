package cypher

// Variable is a query variable. Unnamed variables receive a generated name
// (prefix + counter) the first time they are rendered.
type Variable struct {
	prefix string
	name   string
}

// NewVariable creates an unnamed variable rendered as var<n>.
func NewVariable() *Variable {
	return &Variable{prefix: "var"}
}

// NewNode creates an unnamed node variable rendered as this<n>.
func NewNode() *Variable {
	return &Variable{prefix: "this"}
}

// NewRelationship creates an unnamed relationship variable rendered as this<n>.
func NewRelationship() *Variable {
	return &Variable{prefix: "this"}
}

// NamedVariable creates a variable with a fixed name.
func NamedVariable(name string) *Variable {
	return &Variable{name: name}
}

// Property returns a property access on the variable.
func (v *Variable) Property(name string) *PropertyRef {
	return &PropertyRef{target: v, name: name}
}

func (v *Variable) cypher(e *env) string {
	return e.variableName(v)
}

// Param is a query parameter. Its name is assigned at render time and its
// value is collected into Result.Params.
type Param struct {
	Value any
}

// NewParam creates a parameter holding value.
func NewParam(value any) *Param {
	return &Param{Value: value}
}

// Property returns a property access on the parameter, e.g. $param0.point.
func (p *Param) Property(name string) *PropertyRef {
	return &PropertyRef{target: p, name: name}
}

func (p *Param) cypher(e *env) string {
	return "$" + e.paramName(p)
}
