// Package protocol defines the interfaces and contracts for pluggable node types.
package protocol

import (
	"context"

	"github.com/dukex/flowcook/pkg/models"
)

// NodeFactory creates node transforms and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new transform instance for the node with the given session id
	Create(id string) (Transform, error)

	// ID returns the unique type tag for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Shape returns the socket layout of the node type
	Shape() models.Shape

	// Parameters returns the parameter declarations of the node type
	Parameters() []models.ParameterSpec
}

// CookInput is what the engine hands to a transform.
type CookInput struct {
	Path   string
	Inputs [][]string // one entry per input socket, empty when unconnected
	Params models.Params
}

// Input returns the lines on input index i, or nil when out of range.
func (in *CookInput) Input(i int) []string {
	if i < 0 || i >= len(in.Inputs) {
		return nil
	}

	return in.Inputs[i]
}

// CookOutput is what a transform returns on success.
type CookOutput struct {
	Outputs  [][]string // one entry per output socket
	Warnings []string
}

// Single wraps one output list.
func Single(lines []string, warnings ...string) *CookOutput {
	if lines == nil {
		lines = []string{}
	}

	return &CookOutput{Outputs: [][]string{lines}, Warnings: warnings}
}

// Transform is the node-type specific computation. Returning an error is a fatal
// cook failure for the node; warnings are reported through CookOutput.
type Transform interface {
	Cook(ctx context.Context, in *CookInput) (*CookOutput, error)
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(ctx context.Context, in *CookInput) (*CookOutput, error)

// Cook calls f.
func (f TransformFunc) Cook(ctx context.Context, in *CookInput) (*CookOutput, error) {
	return f(ctx, in)
}

// TimeDependent is implemented by transforms whose output can change without any
// upstream change (external services, clocks).
type TimeDependent interface {
	TimeDependent() bool
}

// ExternalFingerprinter is implemented by transforms backed by state outside the graph
// (files, sub-graphs). The fingerprint joins the engine's change detection.
type ExternalFingerprinter interface {
	ExternalFingerprint(params models.Params) (string, error)
}

// ButtonHandler is implemented by transforms that react to button parameters.
type ButtonHandler interface {
	PressButton(name string)
}
