package graph

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/dukex/flowcook/pkg/globals"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// SetParameter changes a parameter and invalidates the node when the value changed.
// Pressing a button forces the node's next cook and notifies its transform.
func (g *Graph) SetParameter(n *Node, name string, value any) error {
	if !g.owns(n) {
		return opError("SetParameter", "", ErrNodeNotFound)
	}

	p, ok := n.params[name]
	if !ok {
		return opError("SetParameter", n.Path(), fmt.Errorf("%w: %s", ErrParameterNotFound, name))
	}

	if p.ReadOnly {
		return opError("SetParameter", n.Path(), fmt.Errorf("%w: %s", ErrReadOnlyParameter, name))
	}

	if p.Type == models.ParamButton {
		n.forceNext = true

		if handler, ok := n.transform.(protocol.ButtonHandler); ok {
			handler.PressButton(name)
		}

		g.invalidate(n)

		return nil
	}

	v, err := models.Coerce(p.Type, value)
	if err != nil {
		return opError("SetParameter", n.Path(), fmt.Errorf("%w: %s: %w", ErrInvalidParameterValue, name, err))
	}

	if reflect.DeepEqual(p.Value, v) {
		return nil
	}

	p.Value = v
	g.invalidate(n)

	g.logger.Debug("parameter set", slog.String("path", n.Path()), slog.String("parameter", name))

	return nil
}

// SetPosition stores editor placement. Positions never affect cooking.
func (g *Graph) SetPosition(n *Node, pos models.Position) error {
	if !g.owns(n) {
		return opError("SetPosition", "", ErrNodeNotFound)
	}

	n.position = pos

	return nil
}

// SetGlobal assigns a global variable and invalidates nodes whose parameters reference it.
func (g *Graph) SetGlobal(key string, values []string) error {
	if err := g.globals.Set(key, values); err != nil {
		return err
	}

	g.invalidateReferences(key)

	return nil
}

// DeleteGlobal removes a global variable. It reports whether the key existed.
func (g *Graph) DeleteGlobal(key string) (bool, error) {
	deleted, err := g.globals.Delete(key)
	if err != nil || !deleted {
		return deleted, err
	}

	g.invalidateReferences(key)

	return true, nil
}

// RestoreGlobals replaces every global variable and invalidates the nodes that reference
// a key whose value changed.
func (g *Graph) RestoreGlobals(values map[string][]string) {
	before := g.globals.Snapshot()
	g.globals.Restore(values)

	for key, value := range before {
		if after, ok := values[key]; !ok || !slices.Equal(after, value) {
			g.invalidateReferences(key)
		}
	}

	for key := range values {
		if _, ok := before[key]; !ok {
			g.invalidateReferences(key)
		}
	}
}

func (g *Graph) invalidateReferences(key string) {
	norm, err := globals.NormalizeKey(key)
	if err != nil {
		return
	}

	for _, n := range g.Nodes() {
		if slices.Contains(n.globalReferences(), norm) {
			g.invalidate(n)
		}
	}
}

func (n *Node) globalReferences() []string {
	var refs []string

	for _, name := range n.paramOrder {
		switch v := n.params[name].Value.(type) {
		case string:
			refs = append(refs, globals.References(v)...)
		case []string:
			for _, item := range v {
				refs = append(refs, globals.References(item)...)
			}
		}
	}

	return refs
}

// resolveParameters substitutes globals into string parameters. Missing variables
// become empty strings and are reported as warnings.
func (g *Graph) resolveParameters(n *Node) (models.Params, []string) {
	params := make(models.Params, len(n.params))

	var warnings []string

	warn := func(param string, missing []string) {
		for _, m := range missing {
			warnings = append(warnings, fmt.Sprintf("undefined global variable $%s in parameter %s", m, param))
		}
	}

	for _, name := range n.paramOrder {
		p := n.params[name]
		if !p.Persistent() {
			continue
		}

		switch v := p.Value.(type) {
		case string:
			resolved, missing := g.globals.Substitute(v)
			warn(name, missing)
			params[name] = resolved
		case []string:
			list := make([]string, len(v))

			for i, item := range v {
				resolved, missing := g.globals.Substitute(item)
				warn(name, missing)
				list[i] = resolved
			}

			params[name] = list
		default:
			params[name] = v
		}
	}

	return params, warnings
}

// invalidate marks n, everything downstream of it and their container chains as uncooked.
func (g *Graph) invalidate(n *Node) {
	g.invalidateFrom([]*Node{n})
}

// invalidateAncestors marks the containers holding n, and their downstream, as uncooked.
func (g *Graph) invalidateAncestors(n *Node) {
	chain := g.ancestors(n)
	for _, a := range chain {
		a.markSubgraphDirty()
	}

	g.invalidateFrom(chain)
}

// invalidateDownstream marks the nodes fed by n as uncooked, leaving n itself alone.
func (g *Graph) invalidateDownstream(n *Node) {
	g.invalidateFrom(g.downstream(n))
}

// invalidateFrom walks the dependency graph from start, climbing into the containers of
// every node it marks. Nodes on the active cook path are skipped and not traversed.
func (g *Graph) invalidateFrom(start []*Node) {
	visited := make(map[string]bool)
	queue := slices.Clone(start)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if visited[n.id] || n.state == models.StateCooking {
			continue
		}

		visited[n.id] = true
		n.state = models.StateUncooked

		queue = append(queue, g.downstream(n)...)

		for _, a := range g.ancestors(n) {
			a.markSubgraphDirty()
			queue = append(queue, a)
		}
	}
}

func (n *Node) markSubgraphDirty() {
	if n.state != models.StateCooking {
		n.subgraphDirty = true
	}
}

func (g *Graph) ancestors(n *Node) []*Node {
	var chain []*Node

	for parent := n.parent; parent != RootPath; {
		p, ok := g.paths[parent]
		if !ok {
			break
		}

		chain = append(chain, p)
		parent = p.parent
	}

	return chain
}

func (g *Graph) downstream(n *Node) []*Node {
	var out []*Node

	for _, idx := range sortedIndexes(n.outputs) {
		for _, id := range n.outputs[idx] {
			if c, ok := g.connections[id]; ok {
				if target, ok := g.nodes[c.inputNode]; ok {
					out = append(out, target)
				}
			}
		}
	}

	return out
}
