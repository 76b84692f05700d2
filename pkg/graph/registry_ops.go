package graph

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/google/uuid"
)

// NodeSpec describes a node to insert at an exact path, as done when loading documents
// and restoring history. No default children are created.
type NodeSpec struct {
	ID       string
	Path     string
	Type     string
	Params   map[string]any
	Position models.Position
}

// Create adds a node of nodeType under parentPath. An empty name is generated from the
// type; an explicit name that is already used fails with ErrNameTaken.
func (g *Graph) Create(nodeType, name, parentPath string) (*Node, error) {
	return g.create("Create", nodeType, name, parentPath, false)
}

// CreateUnique is Create with suffix disambiguation instead of ErrNameTaken.
func (g *Graph) CreateUnique(nodeType, name, parentPath string) (*Node, error) {
	return g.create("CreateUnique", nodeType, name, parentPath, true)
}

func (g *Graph) create(op, nodeType, name, parentPath string, unique bool) (*Node, error) {
	factory, ok := g.NodeFactory(nodeType)
	if !ok {
		return nil, opError(op, "", fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType))
	}

	parent := cleanPath(parentPath)
	if err := g.checkParent(parent); err != nil {
		return nil, opError(op, parent, err)
	}

	switch {
	case name == "":
		name = g.uniqueName(parent, typeBaseName(nodeType)+"1", nil)
	case !ValidName(name):
		return nil, opError(op, joinPath(parent, name), ErrInvalidName)
	case unique:
		name = g.uniqueName(parent, name, nil)
	default:
		if _, taken := g.paths[joinPath(parent, name)]; taken {
			return nil, opError(op, joinPath(parent, name), ErrNameTaken)
		}
	}

	n, err := newNode(uuid.New().String(), nodeType, parent, name, factory)
	if err != nil {
		return nil, opError(op, joinPath(parent, name), err)
	}

	g.register(n)

	if cf, ok := factory.(containerFactory); ok {
		for _, child := range cf.defaultChildren() {
			childFactory, _ := g.NodeFactory(child.nodeType)

			c, err := newNode(uuid.New().String(), child.nodeType, n.Path(), child.name, childFactory)
			if err != nil {
				g.unregister(n)

				return nil, opError(op, n.Path(), err)
			}

			g.register(c)
		}
	}

	g.invalidateAncestors(n)

	g.logger.Debug("node created",
		slog.String("path", n.Path()),
		slog.String("type", nodeType),
		slog.String("id", n.id))

	return n, nil
}

// InsertNode registers a node at an exact path with an optional fixed id.
func (g *Graph) InsertNode(spec NodeSpec) (*Node, error) {
	if !ValidPath(spec.Path) {
		return nil, opError("InsertNode", spec.Path, ErrInvalidName)
	}

	if _, taken := g.paths[spec.Path]; taken {
		return nil, opError("InsertNode", spec.Path, ErrNameTaken)
	}

	if spec.ID != "" {
		if _, taken := g.nodes[spec.ID]; taken {
			return nil, opError("InsertNode", spec.Path, fmt.Errorf("%w: duplicate id %s", ErrInvalidName, spec.ID))
		}
	}

	factory, ok := g.NodeFactory(spec.Type)
	if !ok {
		return nil, opError("InsertNode", spec.Path, fmt.Errorf("%w: %s", ErrUnknownNodeType, spec.Type))
	}

	parent, name := SplitPath(spec.Path)
	if err := g.checkParent(parent); err != nil {
		return nil, opError("InsertNode", spec.Path, err)
	}

	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}

	n, err := newNode(id, spec.Type, parent, name, factory)
	if err != nil {
		return nil, opError("InsertNode", spec.Path, err)
	}

	if err := n.applyParams(spec.Params); err != nil {
		return nil, opError("InsertNode", spec.Path, err)
	}

	n.position = spec.Position

	g.register(n)
	g.invalidateAncestors(n)

	return n, nil
}

// Destroy removes a node, its descendants and every connection touching them.
func (g *Graph) Destroy(n *Node) error {
	if !g.owns(n) {
		return opError("Destroy", "", ErrNodeNotFound)
	}

	path := n.Path()
	doomed := append(g.Descendants(path), n)

	// deepest first
	slices.SortFunc(doomed, func(a, b *Node) int {
		return strings.Count(b.Path(), "/") - strings.Count(a.Path(), "/")
	})

	g.invalidateAncestors(n)

	for _, d := range doomed {
		g.detachAll(d)
		g.unregister(d)
	}

	g.logger.Debug("node destroyed", slog.String("path", path), slog.Int("removed", len(doomed)))

	return nil
}

// Delete destroys the node at path.
func (g *Graph) Delete(path string) error {
	n, ok := g.Lookup(path)
	if !ok {
		return opError("Delete", path, ErrNodeNotFound)
	}

	return g.Destroy(n)
}

// Rename changes the node's name, disambiguating collisions with a numeric suffix.
// It reports whether the node's path changed.
func (g *Graph) Rename(n *Node, name string) (bool, error) {
	if !g.owns(n) {
		return false, opError("Rename", "", ErrNodeNotFound)
	}

	if !ValidName(name) {
		return false, opError("Rename", n.Path(), fmt.Errorf("%w: %q", ErrInvalidName, name))
	}

	final := g.uniqueName(n.parent, name, n)
	if final == n.name {
		return false, nil
	}

	old := n.Path()
	g.rekey(n, n.parent, final)
	g.invalidateAncestors(n)

	g.logger.Debug("node renamed", slog.String("from", old), slog.String("to", n.Path()))

	return true, nil
}

// Move re-parents the node under parentPath, keeping its name when free.
// It reports whether the node's path changed.
func (g *Graph) Move(n *Node, parentPath string) (bool, error) {
	if !g.owns(n) {
		return false, opError("Move", "", ErrNodeNotFound)
	}

	parent := cleanPath(parentPath)
	if parent == n.parent {
		return false, nil
	}

	if isWithin(parent, n.Path()) {
		return false, opError("Move", n.Path(), fmt.Errorf("%w: %s is inside the node", ErrInvalidParent, parent))
	}

	if err := g.checkParent(parent); err != nil {
		return false, opError("Move", n.Path(), err)
	}

	old := n.Path()

	g.invalidateAncestors(n)
	g.rekey(n, parent, g.uniqueName(parent, n.name, nil))
	g.invalidateAncestors(n)

	g.logger.Debug("node moved", slog.String("from", old), slog.String("to", n.Path()))

	return true, nil
}

func (g *Graph) checkParent(parent string) error {
	if parent == RootPath {
		return nil
	}

	p, ok := g.paths[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}

	if !p.IsContainer() {
		return fmt.Errorf("%w: %s cannot hold children", ErrInvalidParent, parent)
	}

	return nil
}

func (g *Graph) register(n *Node) {
	n.graph = g
	g.nodes[n.id] = n
	g.paths[n.Path()] = n
}

func (g *Graph) unregister(n *Node) {
	delete(g.nodes, n.id)
	delete(g.paths, n.Path())
	n.graph = nil
}

// rekey moves n and its descendants to parent/name.
func (g *Graph) rekey(n *Node, parent, name string) {
	oldPath := n.Path()
	descendants := g.Descendants(oldPath)

	delete(g.paths, oldPath)

	for _, d := range descendants {
		delete(g.paths, d.Path())
	}

	n.parent = parent
	n.name = name
	newPath := n.Path()
	g.paths[newPath] = n

	for _, d := range descendants {
		d.parent = newPath + strings.TrimPrefix(d.parent, oldPath)
		g.paths[d.Path()] = d
	}
}

func (n *Node) applyParams(values map[string]any) error {
	for name, value := range values {
		p, ok := n.params[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}

		if !p.Persistent() {
			continue
		}

		v, err := models.Coerce(p.Type, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidParameterValue, name, err)
		}

		p.Value = v
	}

	return nil
}
