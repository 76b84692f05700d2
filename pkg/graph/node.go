package graph

import (
	"slices"
	"time"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// Node is a vertex of the graph. Its fields are owned by the Graph that created it;
// callers read them through accessors and change them through Graph methods.
type Node struct {
	graph *Graph

	id       string
	name     string
	parent   string
	nodeType string

	factory   protocol.NodeFactory
	transform protocol.Transform
	shape     models.Shape

	params     map[string]*models.Parameter
	paramOrder []string
	position   models.Position

	inputs  map[int]string   // input index -> connection id
	outputs map[int][]string // output index -> connection ids in connect order

	state        models.NodeState
	cookCount    int
	lastCookTime time.Duration
	errors       []string
	warnings     []string
	outputData   [][]string

	fingerprint     string
	carriedWarnings []string
	forceNext       bool
	cycleFailed     bool
	subgraphDirty   bool // a descendant changed since the last container cook
}

func newNode(id, nodeType, parent, name string, factory protocol.NodeFactory) (*Node, error) {
	transform, err := factory.Create(id)
	if err != nil {
		return nil, err
	}

	shape := factory.Shape()

	n := &Node{
		id:         id,
		name:       name,
		parent:     parent,
		nodeType:   nodeType,
		factory:    factory,
		transform:  transform,
		shape:      shape,
		params:     make(map[string]*models.Parameter),
		inputs:     make(map[int]string),
		outputs:    make(map[int][]string),
		state:      models.StateUncooked,
		outputData: emptyOutputs(len(shape.Outputs)),
	}

	for _, spec := range factory.Parameters() {
		p, err := models.NewParameter(spec)
		if err != nil {
			return nil, err
		}

		n.params[spec.Name] = p
		n.paramOrder = append(n.paramOrder, spec.Name)
	}

	return n, nil
}

// ID returns the session-scoped id of the node. It survives renames and moves.
func (n *Node) ID() string { return n.id }

// Name returns the last path segment.
func (n *Node) Name() string { return n.name }

// ParentPath returns the path of the node's container, "/" for top-level nodes.
func (n *Node) ParentPath() string { return n.parent }

// Path returns the absolute path of the node.
func (n *Node) Path() string { return joinPath(n.parent, n.name) }

// Type returns the node type tag.
func (n *Node) Type() string { return n.nodeType }

// State returns the cook state.
func (n *Node) State() models.NodeState { return n.state }

// CookCount returns how many times the transform has run.
func (n *Node) CookCount() int { return n.cookCount }

// LastCookTime returns the duration of the last transform run.
func (n *Node) LastCookTime() time.Duration { return n.lastCookTime }

// Shape returns the socket layout of the node type.
func (n *Node) Shape() models.Shape { return n.shape }

// Position returns the editor position.
func (n *Node) Position() models.Position { return n.position }

// Transform returns the node's transform instance.
func (n *Node) Transform() protocol.Transform { return n.transform }

// Errors returns the errors recorded by the last cook.
func (n *Node) Errors() []string {
	if len(n.errors) == 0 {
		return []string{}
	}

	return slices.Clone(n.errors)
}

// Warnings returns the warnings recorded by the last cook.
func (n *Node) Warnings() []string {
	if len(n.warnings) == 0 {
		return []string{}
	}

	return slices.Clone(n.warnings)
}

// Parameter returns a copy of the named parameter.
func (n *Node) Parameter(name string) (models.Parameter, bool) {
	p, ok := n.params[name]
	if !ok {
		return models.Parameter{}, false
	}

	cp := *p
	cp.Value = models.CloneValue(p.Value)
	cp.Default = models.CloneValue(p.Default)

	return cp, true
}

// Parameters returns copies of all parameters in declaration order.
func (n *Node) Parameters() []models.Parameter {
	out := make([]models.Parameter, 0, len(n.paramOrder))

	for _, name := range n.paramOrder {
		p, _ := n.Parameter(name)
		out = append(out, p)
	}

	return out
}

// ParameterValues returns the raw values of the persistent parameters.
func (n *Node) ParameterValues() map[string]any {
	out := make(map[string]any, len(n.params))

	for name, p := range n.params {
		if p.Persistent() {
			out[name] = models.CloneValue(p.Value)
		}
	}

	return out
}

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool {
	_, ok := n.factory.(containerFactory)

	return ok
}

func emptyOutputs(count int) [][]string {
	out := make([][]string, count)
	for i := range out {
		out[i] = []string{}
	}

	return out
}
