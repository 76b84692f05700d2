// Package split provides the split node factory for registry integration.
package split

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// SplitNodeFactory creates SplitNode instances.
type SplitNodeFactory struct{}

// NewSplitNodeFactory creates a new factory instance.
func NewSplitNodeFactory() protocol.NodeFactory {
	return &SplitNodeFactory{}
}

// Create creates a new SplitNode instance.
func (f *SplitNodeFactory) Create(id string) (protocol.Transform, error) {
	return &SplitNode{id: id}, nil
}

// ID returns the factory ID.
func (f *SplitNodeFactory) ID() string {
	return "split"
}

// Name returns the factory name.
func (f *SplitNodeFactory) Name() string {
	return "Split"
}

// Description returns the factory description.
func (f *SplitNodeFactory) Description() string {
	return "Splits every input line on a separator"
}

func (f *SplitNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("parts", true),
	}
}

func (f *SplitNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "separator", Type: models.ParamString, Default: "\n"},
		{Name: "keep_empty", Type: models.ParamToggle, Default: false, Description: "Keep empty parts"},
	}
}
