package flowstate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowcook/pkg/globals"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TypeResolver answers the node-type questions validation needs. *graph.Graph implements it.
type TypeResolver interface {
	NodeFactory(nodeType string) (protocol.NodeFactory, bool)
	IsContainerType(nodeType string) bool
}

// History is the undo history cleared after a successful load.
type History interface {
	FlushAll()
}

// Save builds a document from g and its globals. It never changes g.
// Connections are listed per source output in fan-out order, so loading the document
// reproduces the same order.
func Save(g *graph.Graph) *Document {
	doc := New()

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, Node{
			Type:       n.Type(),
			Path:       n.Path(),
			Parameters: n.ParameterValues(),
			Position:   n.Position(),
		})

		for i := range n.Shape().Outputs {
			for _, c := range g.OutputConnections(n, i) {
				_, target := g.Endpoints(c)
				doc.Connections = append(doc.Connections, Connection{
					Source: n.Path(),
					Output: c.OutputIndex(),
					Target: target.Path(),
					Input:  c.InputIndex(),
				})
			}
		}
	}

	doc.Globals = g.Globals().Snapshot()

	return doc
}

// Load validates doc against g's node types, then replaces g's nodes, connections and
// globals with the document's and clears history (when not nil).
func Load(g *graph.Graph, doc *Document, history History) error {
	if err := Validate(doc, g); err != nil {
		return err
	}

	g.FlushAll()
	g.Globals().FlushAll()

	nodes := slices.Clone(doc.Nodes)
	slices.SortStableFunc(nodes, func(a, b Node) int {
		return strings.Count(a.Path, "/") - strings.Count(b.Path, "/")
	})

	for _, n := range nodes {
		if _, err := g.InsertNode(graph.NodeSpec{
			Path:     n.Path,
			Type:     n.Type,
			Params:   n.Parameters,
			Position: n.Position,
		}); err != nil {
			return fmt.Errorf("load node %s: %w", n.Path, err)
		}
	}

	for _, c := range doc.Connections {
		source, _ := g.Lookup(c.Source)
		target, _ := g.Lookup(c.Target)

		if _, err := g.SetInput(target, c.Input, source, c.Output); err != nil {
			return fmt.Errorf("load connection %s -> %s: %w", c.Source, c.Target, err)
		}
	}

	for key, values := range doc.Globals {
		if err := g.SetGlobal(key, values); err != nil {
			return fmt.Errorf("load global %s: %w", key, err)
		}
	}

	if history != nil {
		history.FlushAll()
	}

	return nil
}

// Validate checks a document against the registered node types without touching any graph.
func Validate(doc *Document, types TypeResolver) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var problems []string

	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	byPath := make(map[string]Node, len(doc.Nodes))

	for _, n := range doc.Nodes {
		if !graph.ValidPath(n.Path) {
			addf("node path %q is invalid", n.Path)

			continue
		}

		if _, dup := byPath[n.Path]; dup {
			addf("node path %s is used twice", n.Path)

			continue
		}

		byPath[n.Path] = n
	}

	for _, n := range doc.Nodes {
		factory, ok := types.NodeFactory(n.Type)
		if !ok {
			addf("node %s has unknown type %q", n.Path, n.Type)

			continue
		}

		if parent, _ := graph.SplitPath(n.Path); parent != graph.RootPath {
			p, exists := byPath[parent]

			switch {
			case !exists:
				addf("node %s has no parent node %s", n.Path, parent)
			case !types.IsContainerType(p.Type):
				addf("node %s is inside %s, which cannot hold children", n.Path, parent)
			}
		}

		specs := make(map[string]models.ParameterSpec)
		for _, spec := range factory.Parameters() {
			specs[spec.Name] = spec
		}

		for name, value := range n.Parameters {
			spec, known := specs[name]
			if !known {
				addf("node %s has unknown parameter %s", n.Path, name)

				continue
			}

			if _, err := models.Coerce(spec.Type, value); err != nil {
				addf("node %s parameter %s: %v", n.Path, name, err)
			}
		}
	}

	inputs := make(map[string]bool)

	for _, c := range doc.Connections {
		source, sok := byPath[c.Source]
		target, tok := byPath[c.Target]

		if !sok || !tok {
			addf("connection %s -> %s references a missing node", c.Source, c.Target)

			continue
		}

		if c.Source == c.Target {
			addf("connection on %s feeds the node itself", c.Source)

			continue
		}

		if sf, ok := types.NodeFactory(source.Type); ok && !sf.Shape().AcceptsOutput(c.Output) {
			addf("connection %s -> %s uses missing output %d", c.Source, c.Target, c.Output)
		}

		if tf, ok := types.NodeFactory(target.Type); ok && !tf.Shape().AcceptsInput(c.Input) {
			addf("connection %s -> %s uses missing input %d", c.Source, c.Target, c.Input)
		}

		key := fmt.Sprintf("%s#%d", c.Target, c.Input)
		if inputs[key] {
			addf("input %d of %s is connected twice", c.Input, c.Target)
		}

		inputs[key] = true
	}

	for key := range doc.Globals {
		if _, err := globals.NormalizeKey(key); err != nil {
			addf("global %q: %v", key, err)
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}

	return nil
}
