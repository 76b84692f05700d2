package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// Connection links one output socket to one input socket.
type Connection struct {
	id          string
	outputNode  string
	outputIndex int
	inputNode   string
	inputIndex  int
}

// ID returns the connection id.
func (c *Connection) ID() string { return c.id }

// OutputNodeID returns the id of the source node.
func (c *Connection) OutputNodeID() string { return c.outputNode }

// OutputIndex returns the source output index.
func (c *Connection) OutputIndex() int { return c.outputIndex }

// InputNodeID returns the id of the target node.
func (c *Connection) InputNodeID() string { return c.inputNode }

// InputIndex returns the target input index.
func (c *Connection) InputIndex() int { return c.inputIndex }

// SetInput connects source's output outputIndex to target's input inputIndex.
// An existing connection on that input is removed first.
func (g *Graph) SetInput(target *Node, inputIndex int, source *Node, outputIndex int) (*Connection, error) {
	if !g.owns(target) || !g.owns(source) {
		return nil, opError("SetInput", "", ErrNodeNotFound)
	}

	if target == source {
		return nil, opError("SetInput", target.Path(), fmt.Errorf("%w: node cannot feed itself", ErrInvalidConnection))
	}

	if !target.shape.AcceptsInput(inputIndex) {
		return nil, opError("SetInput", target.Path(), fmt.Errorf("%w: input %d", ErrInvalidSocketIndex, inputIndex))
	}

	if !source.shape.AcceptsOutput(outputIndex) {
		return nil, opError("SetInput", source.Path(), fmt.Errorf("%w: output %d", ErrInvalidSocketIndex, outputIndex))
	}

	if existing, ok := target.inputs[inputIndex]; ok {
		g.detach(g.connections[existing])
	}

	c := &Connection{
		id:          uuid.New().String(),
		outputNode:  source.id,
		outputIndex: outputIndex,
		inputNode:   target.id,
		inputIndex:  inputIndex,
	}

	g.attach(c)
	g.invalidate(target)

	g.logger.Debug("nodes connected",
		slog.String("source", source.Path()),
		slog.Int("output", outputIndex),
		slog.String("target", target.Path()),
		slog.Int("input", inputIndex))

	return c, nil
}

// RemoveConnection deletes a connection after checking it is registered on both sockets.
func (g *Graph) RemoveConnection(c *Connection) error {
	if c == nil {
		return opError("RemoveConnection", "", ErrConnectionMismatch)
	}

	stored, ok := g.connections[c.id]
	if !ok {
		return opError("RemoveConnection", "", fmt.Errorf("%w: unknown connection %s", ErrConnectionMismatch, c.id))
	}

	target := g.nodes[stored.inputNode]
	source := g.nodes[stored.outputNode]

	if target == nil || source == nil ||
		target.inputs[stored.inputIndex] != stored.id ||
		!slices.Contains(source.outputs[stored.outputIndex], stored.id) {
		return opError("RemoveConnection", "", fmt.Errorf("%w: %s", ErrConnectionMismatch, c.id))
	}

	g.detach(stored)
	g.invalidate(target)

	return nil
}

// RemoveInput disconnects whatever feeds target's input index.
func (g *Graph) RemoveInput(target *Node, inputIndex int) error {
	if !g.owns(target) {
		return opError("RemoveInput", "", ErrNodeNotFound)
	}

	id, ok := target.inputs[inputIndex]
	if !ok {
		return opError("RemoveInput", target.Path(), fmt.Errorf("%w: input %d is not connected", ErrConnectionMismatch, inputIndex))
	}

	return g.RemoveConnection(g.connections[id])
}

// Connection returns a registered connection by id.
func (g *Graph) Connection(id string) (*Connection, bool) {
	c, ok := g.connections[id]

	return c, ok
}

// InputConnection returns the connection feeding target's input index.
func (g *Graph) InputConnection(target *Node, inputIndex int) (*Connection, bool) {
	id, ok := target.inputs[inputIndex]
	if !ok {
		return nil, false
	}

	return g.Connection(id)
}

// OutputConnections returns the connections leaving source's output index in connect order.
func (g *Graph) OutputConnections(source *Node, outputIndex int) []*Connection {
	ids := source.outputs[outputIndex]
	out := make([]*Connection, 0, len(ids))

	for _, id := range ids {
		out = append(out, g.connections[id])
	}

	return out
}

// Connections returns every connection ordered by target path, then input index.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, 0, len(g.connections))

	for _, n := range g.Nodes() {
		for _, idx := range sortedIndexes(n.inputs) {
			out = append(out, g.connections[n.inputs[idx]])
		}
	}

	return out
}

// Endpoints returns the source and target nodes of a connection.
func (g *Graph) Endpoints(c *Connection) (source, target *Node) {
	return g.nodes[c.outputNode], g.nodes[c.inputNode]
}

// InputCount returns how many inputs the node currently exposes.
func (g *Graph) InputCount(n *Node) int {
	return g.inputCount(n)
}

func (g *Graph) inputCount(n *Node) int {
	highest := -1
	for idx := range n.inputs {
		highest = max(highest, idx)
	}

	return n.shape.InputCount(highest)
}

func (g *Graph) attach(c *Connection) {
	g.connections[c.id] = c
	g.nodes[c.inputNode].inputs[c.inputIndex] = c.id

	source := g.nodes[c.outputNode]
	source.outputs[c.outputIndex] = append(source.outputs[c.outputIndex], c.id)
}

func (g *Graph) detach(c *Connection) {
	if c == nil {
		return
	}

	delete(g.connections, c.id)

	if target, ok := g.nodes[c.inputNode]; ok && target.inputs[c.inputIndex] == c.id {
		delete(target.inputs, c.inputIndex)
	}

	if source, ok := g.nodes[c.outputNode]; ok {
		source.outputs[c.outputIndex] = slices.DeleteFunc(source.outputs[c.outputIndex], func(id string) bool {
			return id == c.id
		})

		if len(source.outputs[c.outputIndex]) == 0 {
			delete(source.outputs, c.outputIndex)
		}
	}
}

// detachAll removes every connection touching n and invalidates the former targets.
func (g *Graph) detachAll(n *Node) {
	for _, id := range n.inputs {
		g.detach(g.connections[id])
	}

	for _, ids := range n.outputs {
		for _, id := range slices.Clone(ids) {
			c := g.connections[id]
			if c == nil {
				continue
			}

			g.detach(c)

			if target, ok := g.nodes[c.inputNode]; ok && target != n {
				g.invalidate(target)
			}
		}
	}
}

func sortedIndexes[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}

	slices.Sort(out)

	return out
}
