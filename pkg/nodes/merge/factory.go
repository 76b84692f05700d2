// Package merge provides the merge node factory for registry integration.
package merge

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// MergeNodeFactory creates MergeNode instances.
type MergeNodeFactory struct{}

// NewMergeNodeFactory creates a new merge node factory.
func NewMergeNodeFactory() protocol.NodeFactory {
	return &MergeNodeFactory{}
}

// Create creates a new MergeNode instance.
func (f *MergeNodeFactory) Create(id string) (protocol.Transform, error) {
	return &MergeNode{id: id}, nil
}

// ID returns the factory ID.
func (f *MergeNodeFactory) ID() string {
	return "merge"
}

// Name returns the factory name.
func (f *MergeNodeFactory) Name() string {
	return "Merge"
}

// Description returns the factory description.
func (f *MergeNodeFactory) Description() string {
	return "Concatenates any number of inputs in input order"
}

// Shape grows one input slot past the highest connected input.
func (f *MergeNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:        []models.Socket{{Name: "input", Multi: true}},
		Outputs:       models.SingleOutput("merged", true),
		DynamicInputs: true,
	}
}

func (f *MergeNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "unique", Type: models.ParamToggle, Default: false, Description: "Drop lines already emitted"},
	}
}
