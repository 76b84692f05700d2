package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dukex/flowcook/pkg/models"
)

// ConnectionRecord is an immutable copy of a connection.
type ConnectionRecord struct {
	ID          string
	OutputNode  string
	OutputIndex int
	InputNode   string
	InputIndex  int
}

// NodeCapture is an immutable copy of one node's structural state.
type NodeCapture struct {
	ID       string
	Exists   bool
	Path     string
	Type     string
	Params   map[string]any
	Position models.Position
	Inputs   []ConnectionRecord         // ordered by input index
	Outputs  map[int][]ConnectionRecord // per output index in connect order
}

// Capture is a snapshot of a set of nodes.
type Capture struct {
	Nodes []NodeCapture
}

// IDs returns the ids of the captured nodes.
func (c *Capture) IDs() []string {
	ids := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		ids = append(ids, n.ID)
	}

	return ids
}

// Capture snapshots the nodes with the given ids. Unknown ids are captured as absent.
func (g *Graph) Capture(ids ...string) *Capture {
	seen := make(map[string]bool, len(ids))
	c := &Capture{}

	for _, id := range ids {
		if seen[id] {
			continue
		}

		seen[id] = true

		n, ok := g.nodes[id]
		if !ok {
			c.Nodes = append(c.Nodes, NodeCapture{ID: id})

			continue
		}

		nc := NodeCapture{
			ID:       id,
			Exists:   true,
			Path:     n.Path(),
			Type:     n.nodeType,
			Params:   n.ParameterValues(),
			Position: n.position,
			Outputs:  make(map[int][]ConnectionRecord),
		}

		for _, idx := range sortedIndexes(n.inputs) {
			nc.Inputs = append(nc.Inputs, g.connections[n.inputs[idx]].record())
		}

		for idx, conns := range n.outputs {
			for _, cid := range conns {
				nc.Outputs[idx] = append(nc.Outputs[idx], g.connections[cid].record())
			}
		}

		c.Nodes = append(c.Nodes, nc)
	}

	return c
}

// Neighbours returns the ids of every node connected to n.
func (g *Graph) Neighbours(n *Node) []string {
	var ids []string

	for _, cid := range n.inputs {
		ids = append(ids, g.connections[cid].outputNode)
	}

	for _, conns := range n.outputs {
		for _, cid := range conns {
			ids = append(ids, g.connections[cid].inputNode)
		}
	}

	slices.Sort(ids)

	return slices.Compact(ids)
}

// Restore puts every captured node back into its captured state: absent nodes are
// destroyed, present ones are recreated or re-keyed, then parameters, positions and
// incident connections (with their original ids and output order) are reinstated.
func (g *Graph) Restore(c *Capture) error {
	var present, absent []NodeCapture

	for _, nc := range c.Nodes {
		if nc.Exists {
			present = append(present, nc)
		} else {
			absent = append(absent, nc)
		}
	}

	// absent nodes go first, deepest first
	slices.SortFunc(absent, func(a, b NodeCapture) int {
		return depth(g.currentPath(b.ID)) - depth(g.currentPath(a.ID))
	})

	for _, nc := range absent {
		n, ok := g.nodes[nc.ID]
		if !ok {
			continue
		}

		g.invalidateAncestors(n)
		g.detachAll(n)
		g.unregister(n)
	}

	if err := g.restorePresent(present); err != nil {
		return err
	}

	g.restoreConnections(present)

	for _, nc := range present {
		n := g.nodes[nc.ID]
		n.forceNext = false
		g.invalidate(n)
	}

	return nil
}

func (g *Graph) restorePresent(present []NodeCapture) error {
	// parents first
	slices.SortFunc(present, func(a, b NodeCapture) int {
		if d := depth(a.Path) - depth(b.Path); d != 0 {
			return d
		}

		return strings.Compare(a.Path, b.Path)
	})

	// free every target path before re-keying so swapped names do not collide
	var moved []*Node

	for _, nc := range present {
		if n, ok := g.nodes[nc.ID]; ok && n.Path() != nc.Path {
			g.invalidateAncestors(n)
			delete(g.paths, n.Path())
			moved = append(moved, n)
		}
	}

	for _, n := range moved {
		for _, nc := range present {
			if nc.ID == n.id {
				n.parent, n.name = SplitPath(nc.Path)
			}
		}
	}

	for _, n := range moved {
		if other, taken := g.paths[n.Path()]; taken && other != n {
			return opError("Restore", n.Path(), ErrNameTaken)
		}

		g.paths[n.Path()] = n
	}

	for _, nc := range present {
		n, ok := g.nodes[nc.ID]
		if !ok {
			inserted, err := g.InsertNode(NodeSpec{
				ID:       nc.ID,
				Path:     nc.Path,
				Type:     nc.Type,
				Params:   nc.Params,
				Position: nc.Position,
			})
			if err != nil {
				return fmt.Errorf("restore %s: %w", nc.Path, err)
			}

			n = inserted
		}

		if err := n.applyParams(nc.Params); err != nil {
			return opError("Restore", nc.Path, err)
		}

		n.position = nc.Position
	}

	return nil
}

func (g *Graph) restoreConnections(present []NodeCapture) {
	desired := make(map[string]ConnectionRecord)

	for _, nc := range present {
		for _, r := range nc.Inputs {
			desired[r.ID] = r
		}

		for _, records := range nc.Outputs {
			for _, r := range records {
				desired[r.ID] = r
			}
		}
	}

	restored := make(map[string]bool, len(present))
	for _, nc := range present {
		restored[nc.ID] = true
	}

	// drop current connections of restored nodes that the capture does not know
	for _, c := range slices.Collect(maps.Values(g.connections)) {
		if (restored[c.inputNode] || restored[c.outputNode]) && !hasRecord(desired, c.id) {
			g.detach(c)

			if target, ok := g.nodes[c.inputNode]; ok {
				g.invalidate(target)
			}
		}
	}

	ids := slices.Sorted(maps.Keys(desired))
	for _, id := range ids {
		r := desired[id]
		if _, exists := g.connections[id]; exists {
			continue
		}

		target, tok := g.nodes[r.InputNode]
		_, sok := g.nodes[r.OutputNode]

		if !tok || !sok {
			continue
		}

		if occupant, taken := target.inputs[r.InputIndex]; taken {
			g.detach(g.connections[occupant])
		}

		g.attach(&Connection{
			id:          r.ID,
			outputNode:  r.OutputNode,
			outputIndex: r.OutputIndex,
			inputNode:   r.InputNode,
			inputIndex:  r.InputIndex,
		})
	}

	// reinstate the captured fan-out order
	for _, nc := range present {
		n := g.nodes[nc.ID]

		for idx, records := range nc.Outputs {
			order := make([]string, 0, len(n.outputs[idx]))
			for _, r := range records {
				if slices.Contains(n.outputs[idx], r.ID) {
					order = append(order, r.ID)
				}
			}

			for _, cid := range n.outputs[idx] {
				if !slices.Contains(order, cid) {
					order = append(order, cid)
				}
			}

			n.outputs[idx] = order
		}
	}
}

func hasRecord(records map[string]ConnectionRecord, id string) bool {
	_, ok := records[id]

	return ok
}

func (c *Connection) record() ConnectionRecord {
	return ConnectionRecord{
		ID:          c.id,
		OutputNode:  c.outputNode,
		OutputIndex: c.outputIndex,
		InputNode:   c.inputNode,
		InputIndex:  c.inputIndex,
	}
}

func (g *Graph) currentPath(id string) string {
	if n, ok := g.nodes[id]; ok {
		return n.Path()
	}

	return ""
}

func depth(path string) int {
	return strings.Count(path, "/")
}
