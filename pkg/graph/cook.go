package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/otelhelper"
	"github.com/dukex/flowcook/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// cookPass tracks the nodes already settled by one top-level Cook call.
type cookPass struct {
	force bool
	done  map[string]bool
}

func newCookPass(force bool) *cookPass {
	return &cookPass{force: force, done: make(map[string]bool)}
}

// Cook brings n up to date, cooking uncooked upstream nodes first. Transform failures
// are recorded on the failing node; the only error returned is ErrCyclicDependency
// (or ErrNodeNotFound for a foreign node).
func (g *Graph) Cook(ctx context.Context, n *Node) error {
	return g.cookRoot(ctx, n, false)
}

// ForceCook is Cook with the fingerprint cache bypassed for n and its whole upstream.
func (g *Graph) ForceCook(ctx context.Context, n *Node) error {
	return g.cookRoot(ctx, n, true)
}

// CookPath cooks the node registered at path.
func (g *Graph) CookPath(ctx context.Context, path string, force bool) (*Node, error) {
	n, ok := g.Lookup(path)
	if !ok {
		return nil, opError("Cook", path, ErrNodeNotFound)
	}

	return n, g.cookRoot(ctx, n, force)
}

// Output returns a copy of the node's output at index, as produced by its last cook.
func (g *Graph) Output(n *Node, index int) ([]string, error) {
	if !g.owns(n) {
		return nil, opError("Output", "", ErrNodeNotFound)
	}

	if index < 0 || index >= len(n.outputData) {
		return nil, opError("Output", n.Path(), fmt.Errorf("%w: output %d", ErrInvalidSocketIndex, index))
	}

	return slices.Clone(n.outputData[index]), nil
}

func (g *Graph) cookRoot(ctx context.Context, n *Node, force bool) error {
	if !g.owns(n) {
		return opError("Cook", "", ErrNodeNotFound)
	}

	return g.cookNode(ctx, n, newCookPass(force))
}

func (g *Graph) cookNode(ctx context.Context, n *Node, pass *cookPass) error {
	if n.state == models.StateCooking {
		return fmt.Errorf("%w: %s is already cooking", ErrCyclicDependency, n.Path())
	}

	force := pass.force || n.forceNext

	n.errors = nil
	n.warnings = nil
	n.cycleFailed = false
	n.state = models.StateCooking

	inputs, err := g.gatherInputs(ctx, n, pass)
	if err != nil {
		n.state = models.StateError
		n.errors = append(n.errors, err.Error())
		n.fingerprint = ""
		n.cycleFailed = true
		pass.done[n.id] = true

		g.logger.Debug("cook aborted", slog.String("path", n.Path()), slog.Any("error", err))

		return err
	}

	params, warnings := g.resolveParameters(n)
	n.warnings = append(n.warnings, warnings...)

	fingerprint := g.fingerprint(n, inputs, params)

	if !force && !g.isTimeDependent(n) && fingerprint != "" && fingerprint == n.fingerprint {
		n.warnings = append(n.warnings, n.carriedWarnings...)
		n.state = models.StateUnchanged
		pass.done[n.id] = true

		return nil
	}

	g.runTransform(ctx, n, inputs, params, fingerprint)
	n.forceNext = false
	pass.done[n.id] = true

	return nil
}

func (g *Graph) gatherInputs(ctx context.Context, n *Node, pass *cookPass) ([][]string, error) {
	inputs := make([][]string, g.inputCount(n))
	for i := range inputs {
		inputs[i] = []string{}
	}

	for _, idx := range sortedIndexes(n.inputs) {
		c := g.connections[n.inputs[idx]]
		upstream := g.nodes[c.outputNode]

		if upstream.state == models.StateCooking {
			return nil, fmt.Errorf("%w: %s depends on %s", ErrCyclicDependency, n.Path(), upstream.Path())
		}

		if !pass.done[upstream.id] && g.needsCook(upstream, pass) {
			if err := g.cookNode(ctx, upstream, pass); err != nil {
				return nil, err
			}
		}

		if upstream.state == models.StateError {
			n.warnings = append(n.warnings, fmt.Sprintf("upstream node %s failed: %s",
				upstream.Path(), strings.Join(upstream.errors, "; ")))
		}

		if c.outputIndex < len(upstream.outputData) && idx < len(inputs) {
			inputs[idx] = slices.Clone(upstream.outputData[c.outputIndex])
		}
	}

	return inputs, nil
}

func (g *Graph) needsCook(n *Node, pass *cookPass) bool {
	switch {
	case pass.force, n.forceNext:
		return true
	case n.state == models.StateUncooked:
		return true
	case n.state == models.StateError && n.cycleFailed:
		return true
	default:
		return false
	}
}

func (g *Graph) runTransform(ctx context.Context, n *Node, inputs [][]string, params models.Params, fingerprint string) {
	path := n.Path()

	ctx, span := g.tracer.Start(ctx, "cook "+path,
		trace.WithAttributes(
			attribute.String(otelhelper.NodePathKey, path),
			attribute.String(otelhelper.NodeTypeKey, n.nodeType),
		))
	defer span.End()

	start := time.Now()
	out, err := safeCook(ctx, n.transform, &protocol.CookInput{Path: path, Inputs: inputs, Params: params})
	n.lastCookTime = time.Since(start)
	n.cookCount++

	if err != nil {
		n.state = models.StateError
		n.errors = append(n.errors, err.Error())
		n.fingerprint = ""
		n.carriedWarnings = nil

		otelhelper.SetError(span, err, attribute.String(otelhelper.NodePathKey, path))
		g.logger.DebugContext(ctx, "node cook failed", slog.String("path", path), slog.Any("error", err))

		if g.observer != nil {
			g.observer.NodeFailed(ctx, n, err)
		}

		return
	}

	// the transform may have changed its own external state (file_out writes the file it
	// fingerprints) or made it fingerprintable (loopers), so record the state it left behind
	if _, ok := n.transform.(protocol.ExternalFingerprinter); ok || fingerprint == "" {
		fingerprint = g.fingerprint(n, inputs, params)
	}

	outputs := normalizeOutputs(out, len(n.shape.Outputs))
	changed := !equalOutputs(n.outputData, outputs)

	n.outputData = outputs
	n.fingerprint = fingerprint
	n.carriedWarnings = slices.Clone(out.Warnings)
	n.warnings = append(n.warnings, out.Warnings...)
	n.state = models.StateUnchanged

	span.SetAttributes(
		attribute.Bool(otelhelper.OutputChangedKey, changed),
		attribute.Int(otelhelper.CookCountKey, n.cookCount),
	)

	g.logger.DebugContext(ctx, "node cooked",
		slog.String("path", path),
		slog.Duration("elapsed", n.lastCookTime),
		slog.Bool("changed", changed))

	if changed {
		g.invalidateDownstream(n)
	}

	if g.observer != nil {
		g.observer.NodeCooked(ctx, n)
	}
}

func safeCook(ctx context.Context, t protocol.Transform, in *protocol.CookInput) (out *protocol.CookOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()

	out, err = t.Cook(ctx, in)
	if err == nil && out == nil {
		out = &protocol.CookOutput{}
	}

	return out, err
}

func normalizeOutputs(out *protocol.CookOutput, count int) [][]string {
	outputs := emptyOutputs(count)

	for i := range min(count, len(out.Outputs)) {
		if out.Outputs[i] != nil {
			outputs[i] = slices.Clone(out.Outputs[i])
		}
	}

	return outputs
}

func equalOutputs(a, b [][]string) bool {
	return slices.EqualFunc(a, b, slices.Equal[[]string])
}

func (g *Graph) isTimeDependent(n *Node) bool {
	td, ok := n.transform.(protocol.TimeDependent)

	return ok && td.TimeDependent()
}

type fingerprintInput struct {
	Type     string         `json:"type"`
	Inputs   [][]string     `json:"inputs"`
	Params   map[string]any `json:"params"`
	External string         `json:"external,omitempty"`
}

// fingerprint hashes everything that determines a node's output. It returns "" when
// the external state cannot be fingerprinted, which disables the cache for this cook.
func (g *Graph) fingerprint(n *Node, inputs [][]string, params models.Params) string {
	fi := fingerprintInput{Type: n.nodeType, Inputs: inputs, Params: params}

	if ef, ok := n.transform.(protocol.ExternalFingerprinter); ok {
		external, err := ef.ExternalFingerprint(params)
		if err != nil {
			g.logger.Debug("external fingerprint unavailable", slog.String("path", n.Path()), slog.Any("error", err))

			return ""
		}

		fi.External = external
	}

	data, err := json.Marshal(fi)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
