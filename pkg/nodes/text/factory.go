// Package text provides the text source node factory for registry integration.
package text

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// TextNodeFactory creates TextNode instances.
type TextNodeFactory struct{}

// NewTextNodeFactory creates a new factory instance.
func NewTextNodeFactory() protocol.NodeFactory {
	return &TextNodeFactory{}
}

// Create creates a new TextNode instance.
func (f *TextNodeFactory) Create(id string) (protocol.Transform, error) {
	return &TextNode{id: id}, nil
}

// ID returns the factory ID.
func (f *TextNodeFactory) ID() string {
	return "text"
}

// Name returns the factory name.
func (f *TextNodeFactory) Name() string {
	return "Text"
}

// Description returns the factory description.
func (f *TextNodeFactory) Description() string {
	return "Emits its lines, with $VARIABLES replaced by global values"
}

func (f *TextNodeFactory) Shape() models.Shape {
	return models.Shape{Outputs: models.SingleOutput("text", true)}
}

func (f *TextNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "text", Type: models.ParamStringList, Description: "Lines to emit"},
	}
}
