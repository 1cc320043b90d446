package cypher

import "strings"

// Direction of a relationship pattern, relative to the start node.
type Direction int

const (
	// Outgoing renders (a)-[r]->(b).
	Outgoing Direction = iota
	// Incoming renders (a)<-[r]-(b).
	Incoming
	// Undirected renders (a)-[r]-(b).
	Undirected
)

// NodePattern is a node in a pattern. A nil variable renders anonymously.
type NodePattern struct {
	v        *Variable
	labels   []string
	anyLabel bool
}

// Node creates a node pattern carrying all the given labels.
func Node(v *Variable, labels ...string) *NodePattern {
	return &NodePattern{v: v, labels: labels}
}

// NodeWithAnyLabel creates a node pattern matching any one of labels,
// rendered as a label disjunction (n:A|B).
func NodeWithAnyLabel(v *Variable, labels ...string) *NodePattern {
	return &NodePattern{v: v, labels: labels, anyLabel: true}
}

func (n *NodePattern) cypher(e *env) string {
	s := "("
	if n.v != nil {
		s += n.v.cypher(e)
	}
	if len(n.labels) > 0 {
		sep := ":"
		if n.anyLabel {
			sep = "|"
		}
		escaped := make([]string, len(n.labels))
		for i, l := range n.labels {
			escaped[i] = escapeName(l)
		}
		s += ":" + strings.Join(escaped, sep)
	}
	return s + ")"
}

type relPattern struct {
	v       *Variable
	relType string
	dir     Direction
	end     *NodePattern
}

// Pattern is a node optionally followed by one relationship hop.
type Pattern struct {
	start *NodePattern
	rel   *relPattern
}

// NewPattern starts a pattern at start.
func NewPattern(start *NodePattern) *Pattern {
	return &Pattern{start: start}
}

// Related extends the pattern with one hop. rel may be nil for an
// anonymous relationship.
func (p *Pattern) Related(rel *Variable, relType string, dir Direction, end *NodePattern) *Pattern {
	p.rel = &relPattern{v: rel, relType: relType, dir: dir, end: end}
	return p
}

func (p *Pattern) cypher(e *env) string {
	s := p.start.cypher(e)
	if p.rel == nil {
		return s
	}
	inner := "["
	if p.rel.v != nil {
		inner += p.rel.v.cypher(e)
	}
	if p.rel.relType != "" {
		inner += ":" + escapeName(p.rel.relType)
	}
	inner += "]"
	switch p.rel.dir {
	case Outgoing:
		s += "-" + inner + "->"
	case Incoming:
		s += "<-" + inner + "-"
	default:
		s += "-" + inner + "-"
	}
	return s + p.rel.end.cypher(e)
}
