// Package graph implements the node registry, connection tables and the cooking engine.
//
// A Graph is one engine instance: it owns its nodes, their connections and a global
// variable store. Nothing in this package is process-wide, so separate sessions use
// separate Graph values. A Graph is not safe for concurrent use; hosts that share one
// across goroutines serialize access themselves.
package graph

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/flowcook/pkg/globals"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for cook spans.
const TracerName = "github.com/dukex/flowcook/pkg/graph"

// TypeLookup resolves node type tags to factories. *registry.Registry implements it.
type TypeLookup interface {
	NodeFactory(nodeType string) (protocol.NodeFactory, bool)
}

// Observer is notified after every transform run.
type Observer interface {
	NodeCooked(ctx context.Context, node *Node)
	NodeFailed(ctx context.Context, node *Node, err error)
}

// Graph is a node registry plus connection table plus cooking engine.
type Graph struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	types    TypeLookup
	builtins map[string]protocol.NodeFactory
	globals  *globals.Store
	observer Observer

	nodes       map[string]*Node // by session id
	paths       map[string]*Node // by path
	connections map[string]*Connection
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithTracer sets the tracer used for cook spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Graph) {
		g.tracer = tracer
	}
}

// WithObserver registers an observer for cook results.
func WithObserver(observer Observer) Option {
	return func(g *Graph) {
		g.observer = observer
	}
}

// WithGlobals uses an existing global store instead of a fresh one.
func WithGlobals(store *globals.Store) Option {
	return func(g *Graph) {
		g.globals = store
	}
}

// New creates an empty graph resolving node types through types.
func New(types TypeLookup, opts ...Option) *Graph {
	g := &Graph{
		types:       types,
		nodes:       make(map[string]*Node),
		paths:       make(map[string]*Node),
		connections: make(map[string]*Connection),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}

	if g.tracer == nil {
		g.tracer = otel.Tracer(TracerName)
	}

	if g.globals == nil {
		g.globals = globals.New()
	}

	g.builtins = map[string]protocol.NodeFactory{
		TypeLooper:     &looperFactory{g: g},
		TypeInputNull:  inputNullFactory{},
		TypeOutputNull: outputNullFactory{},
	}

	return g
}

// Globals returns the global variable store used for $VAR substitution.
func (g *Graph) Globals() *globals.Store {
	return g.globals
}

// SetObserver replaces the cook observer. A nil observer disables notifications.
func (g *Graph) SetObserver(observer Observer) {
	g.observer = observer
}

// NodeFactory returns the factory of a type tag, built-in types included.
func (g *Graph) NodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	if factory, ok := g.builtins[nodeType]; ok {
		return factory, true
	}

	if g.types == nil {
		return nil, false
	}

	return g.types.NodeFactory(nodeType)
}

// IsContainerType reports whether nodes of nodeType can hold children.
func (g *Graph) IsContainerType(nodeType string) bool {
	factory, ok := g.NodeFactory(nodeType)
	if !ok {
		return false
	}

	_, container := factory.(containerFactory)

	return container
}

// Lookup returns the node registered at path.
func (g *Graph) Lookup(path string) (*Node, bool) {
	n, ok := g.paths[cleanPath(path)]

	return n, ok
}

// LookupByID returns the node with the given session id.
func (g *Graph) LookupByID(id string) (*Node, bool) {
	n, ok := g.nodes[id]

	return n, ok
}

// MustLookup returns the node at path or an ErrNodeNotFound operation error.
func (g *Graph) MustLookup(path string) (*Node, error) {
	n, ok := g.Lookup(path)
	if !ok {
		return nil, opError("Lookup", path, ErrNodeNotFound)
	}

	return n, nil
}

// Nodes returns every node sorted by path, so parents come before their children.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}

	sortByPath(out)

	return out
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Children returns the direct children of path sorted by path.
func (g *Graph) Children(path string) []*Node {
	parent := cleanPath(path)

	var out []*Node

	for _, n := range g.nodes {
		if n.parent == parent {
			out = append(out, n)
		}
	}

	sortByPath(out)

	return out
}

// Descendants returns every node below path sorted by path. The root path "/" yields all nodes.
func (g *Graph) Descendants(path string) []*Node {
	root := cleanPath(path)
	if root == RootPath {
		return g.Nodes()
	}

	prefix := root + "/"

	var out []*Node

	for p, n := range g.paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, n)
		}
	}

	sortByPath(out)

	return out
}

// FlushAll destroys every node and connection.
func (g *Graph) FlushAll() {
	for _, n := range g.nodes {
		n.graph = nil
	}

	g.nodes = make(map[string]*Node)
	g.paths = make(map[string]*Node)
	g.connections = make(map[string]*Connection)
}

// Info returns a read-only view of a node.
func (g *Graph) Info(n *Node) models.NodeInfo {
	return models.NodeInfo{
		ID:            n.id,
		Path:          n.Path(),
		Name:          n.name,
		Type:          n.nodeType,
		State:         n.state,
		CookCount:     n.cookCount,
		LastCookTime:  n.lastCookTime,
		TimeDependent: g.isTimeDependent(n),
		Errors:        n.Errors(),
		Warnings:      n.Warnings(),
		Parameters:    n.ParameterValues(),
		Position:      n.position,
		Inputs:        g.inputCount(n),
		Outputs:       len(n.shape.Outputs),
	}
}

func (g *Graph) owns(n *Node) bool {
	if n == nil {
		return false
	}

	registered, ok := g.nodes[n.id]

	return ok && registered == n
}

func sortByPath(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		return strings.Compare(a.Path(), b.Path())
	})
}
