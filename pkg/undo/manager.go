// Package undo records graph mutations as snapshot groups and replays them backwards and forwards.
package undo

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
)

// DefaultLimit is the history depth used when no WithLimit option is given.
const DefaultLimit = 100

var (
	// ErrNothingToUndo is returned by Undo when the history is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when nothing was undone since the last operation.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// snapshot is the state a group of nodes (and optionally the globals) had before an operation.
type snapshot struct {
	label   string
	capture *graph.Capture
	globals map[string][]string // nil when the operation did not touch globals
}

// Manager wraps every graph mutation so it can be undone and redone.
type Manager struct {
	graph  *graph.Graph
	logger *slog.Logger
	limit  int
	undo   []snapshot
	redo   []snapshot
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit bounds the number of undo groups kept.
func WithLimit(limit int) Option {
	return func(m *Manager) {
		m.limit = limit
	}
}

// WithLogger sets the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an undo manager for g.
func NewManager(g *graph.Graph, opts ...Option) *Manager {
	m := &Manager{
		graph: g,
		limit: DefaultLimit,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// Graph returns the wrapped graph.
func (m *Manager) Graph() *graph.Graph {
	return m.graph
}

// Create creates a node and records its removal as the undo step.
func (m *Manager) Create(nodeType, name, parentPath string) (*graph.Node, error) {
	n, err := m.graph.Create(nodeType, name, parentPath)
	if err != nil {
		return nil, err
	}

	m.recordCreated("create "+n.Path(), n)

	return n, nil
}

// CreateUnique is Create with name disambiguation.
func (m *Manager) CreateUnique(nodeType, name, parentPath string) (*graph.Node, error) {
	n, err := m.graph.CreateUnique(nodeType, name, parentPath)
	if err != nil {
		return nil, err
	}

	m.recordCreated("create "+n.Path(), n)

	return n, nil
}

// CreateAt creates a node placed at pos as a single undo step.
func (m *Manager) CreateAt(nodeType, name, parentPath string, unique bool, pos models.Position) (*graph.Node, error) {
	create := m.graph.Create
	if unique {
		create = m.graph.CreateUnique
	}

	n, err := create(nodeType, name, parentPath)
	if err != nil {
		return nil, err
	}

	if err := m.graph.SetPosition(n, pos); err != nil {
		return nil, errors.Join(err, m.graph.Destroy(n))
	}

	m.recordCreated("create "+n.Path(), n)

	return n, nil
}

// Destroy deletes a node with its descendants and connections.
func (m *Manager) Destroy(n *graph.Node) error {
	label := "delete " + n.Path()
	ids := m.destroyScope(n)

	return m.record(label, ids, false, func() error {
		return m.graph.Destroy(n)
	})
}

// Delete destroys the node at path.
func (m *Manager) Delete(path string) error {
	n, err := m.graph.MustLookup(path)
	if err != nil {
		return err
	}

	return m.Destroy(n)
}

// Rename renames a node. Calls that leave the path unchanged are not recorded.
func (m *Manager) Rename(n *graph.Node, name string) (bool, error) {
	from := n.Path()
	before := m.take("", m.subtree(n), false)

	changed, err := m.graph.Rename(n, name)
	if err != nil || !changed {
		return changed, err
	}

	before.label = fmt.Sprintf("rename %s to %s", from, n.Path())
	m.push(before)

	return true, nil
}

// Move re-parents a node. Calls that leave the path unchanged are not recorded.
func (m *Manager) Move(n *graph.Node, parentPath string) (bool, error) {
	from := n.Path()
	before := m.take("", m.subtree(n), false)

	changed, err := m.graph.Move(n, parentPath)
	if err != nil || !changed {
		return changed, err
	}

	before.label = fmt.Sprintf("move %s to %s", from, n.Path())
	m.push(before)

	return true, nil
}

// SetParameter sets a parameter value. Button presses carry no state and are not recorded.
func (m *Manager) SetParameter(n *graph.Node, name string, value any) error {
	if p, ok := n.Parameter(name); ok && p.Type == models.ParamButton {
		return m.graph.SetParameter(n, name, value)
	}

	return m.record(fmt.Sprintf("set %s.%s", n.Path(), name), []string{n.ID()}, false, func() error {
		return m.graph.SetParameter(n, name, value)
	})
}

// SetPosition moves a node in the editor.
func (m *Manager) SetPosition(n *graph.Node, pos models.Position) error {
	return m.record("position "+n.Path(), []string{n.ID()}, false, func() error {
		return m.graph.SetPosition(n, pos)
	})
}

// SetInput connects two nodes, recording the replaced connection's source as well.
func (m *Manager) SetInput(target *graph.Node, inputIndex int, source *graph.Node, outputIndex int) (*graph.Connection, error) {
	ids := []string{target.ID(), source.ID()}
	if existing, ok := m.graph.InputConnection(target, inputIndex); ok {
		ids = append(ids, existing.OutputNodeID())
	}

	var conn *graph.Connection

	err := m.record(fmt.Sprintf("connect %s to %s", source.Path(), target.Path()), ids, false, func() error {
		var err error

		conn, err = m.graph.SetInput(target, inputIndex, source, outputIndex)

		return err
	})

	return conn, err
}

// RemoveConnection disconnects a connection.
func (m *Manager) RemoveConnection(c *graph.Connection) error {
	if c == nil {
		return m.graph.RemoveConnection(c)
	}

	return m.record("disconnect "+c.ID(), []string{c.InputNodeID(), c.OutputNodeID()}, false, func() error {
		return m.graph.RemoveConnection(c)
	})
}

// RemoveInput disconnects whatever feeds target's input index.
func (m *Manager) RemoveInput(target *graph.Node, inputIndex int) error {
	c, ok := m.graph.InputConnection(target, inputIndex)
	if !ok {
		return m.graph.RemoveInput(target, inputIndex)
	}

	return m.RemoveConnection(c)
}

// SetGlobal assigns a global variable.
func (m *Manager) SetGlobal(key string, values []string) error {
	return m.record("set global "+key, nil, true, func() error {
		return m.graph.SetGlobal(key, values)
	})
}

// DeleteGlobal removes a global variable. Deleting a missing key is not recorded.
func (m *Manager) DeleteGlobal(key string) (bool, error) {
	before := m.take("delete global "+key, nil, true)

	deleted, err := m.graph.DeleteGlobal(key)
	if err != nil || !deleted {
		return deleted, err
	}

	m.push(before)

	return true, nil
}

// Undo reverts the most recent operation and returns its label.
func (m *Manager) Undo() (string, error) {
	if len(m.undo) == 0 {
		return "", ErrNothingToUndo
	}

	s := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]

	inverse := m.inverse(s)
	if err := m.apply(s); err != nil {
		return "", fmt.Errorf("undo %s: %w", s.label, err)
	}

	m.redo = append(m.redo, inverse)

	m.logger.Debug("undo", slog.String("operation", s.label))

	return s.label, nil
}

// Redo re-applies the most recently undone operation and returns its label.
func (m *Manager) Redo() (string, error) {
	if len(m.redo) == 0 {
		return "", ErrNothingToRedo
	}

	s := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]

	inverse := m.inverse(s)
	if err := m.apply(s); err != nil {
		return "", fmt.Errorf("redo %s: %w", s.label, err)
	}

	m.undo = append(m.undo, inverse)

	m.logger.Debug("redo", slog.String("operation", s.label))

	return s.label, nil
}

// CanUndo reports whether Undo has anything to revert.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo has anything to re-apply.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Labels lists the undo history, most recent last.
func (m *Manager) Labels() []string {
	labels := make([]string, 0, len(m.undo))
	for _, s := range m.undo {
		labels = append(labels, s.label)
	}

	return labels
}

// FlushAll forgets both histories.
func (m *Manager) FlushAll() {
	m.undo = nil
	m.redo = nil
}

func (m *Manager) record(label string, ids []string, withGlobals bool, op func() error) error {
	before := m.take(label, ids, withGlobals)

	if err := op(); err != nil {
		return err
	}

	m.push(before)

	return nil
}

func (m *Manager) recordCreated(label string, n *graph.Node) {
	capture := &graph.Capture{}
	for _, id := range m.subtree(n) {
		capture.Nodes = append(capture.Nodes, graph.NodeCapture{ID: id})
	}

	m.push(snapshot{label: label, capture: capture})
}

func (m *Manager) take(label string, ids []string, withGlobals bool) snapshot {
	s := snapshot{label: label, capture: m.graph.Capture(ids...)}
	if withGlobals {
		s.globals = m.graph.Globals().Snapshot()
	}

	return s
}

func (m *Manager) inverse(s snapshot) snapshot {
	return m.take(s.label, s.capture.IDs(), s.globals != nil)
}

func (m *Manager) apply(s snapshot) error {
	if err := m.graph.Restore(s.capture); err != nil {
		return err
	}

	if s.globals != nil {
		m.graph.RestoreGlobals(s.globals)
	}

	return nil
}

func (m *Manager) push(s snapshot) {
	m.undo = append(m.undo, s)
	m.redo = nil

	if m.limit > 0 && len(m.undo) > m.limit {
		m.undo = m.undo[len(m.undo)-m.limit:]
	}
}

func (m *Manager) subtree(n *graph.Node) []string {
	ids := []string{n.ID()}
	for _, d := range m.graph.Descendants(n.Path()) {
		ids = append(ids, d.ID())
	}

	return ids
}

// destroyScope is every node a destroy touches: the subtree plus all of its neighbours.
func (m *Manager) destroyScope(n *graph.Node) []string {
	ids := m.subtree(n)
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		seen[id] = true
	}

	for _, id := range m.subtree(n) {
		member, ok := m.graph.LookupByID(id)
		if !ok {
			continue
		}

		for _, neighbour := range m.graph.Neighbours(member) {
			if !seen[neighbour] {
				seen[neighbour] = true
				ids = append(ids, neighbour)
			}
		}
	}

	return ids
}
