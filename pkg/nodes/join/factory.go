// Package join provides the join node factory for registry integration.
package join

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// JoinNodeFactory creates JoinNode instances.
type JoinNodeFactory struct{}

// NewJoinNodeFactory creates a new factory instance.
func NewJoinNodeFactory() protocol.NodeFactory {
	return &JoinNodeFactory{}
}

// Create creates a new JoinNode instance.
func (f *JoinNodeFactory) Create(id string) (protocol.Transform, error) {
	return &JoinNode{id: id}, nil
}

// ID returns the factory ID.
func (f *JoinNodeFactory) ID() string {
	return "join"
}

// Name returns the factory name.
func (f *JoinNodeFactory) Name() string {
	return "Join"
}

// Description returns the factory description.
func (f *JoinNodeFactory) Description() string {
	return "Joins every input line into a single line"
}

func (f *JoinNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("joined", false),
	}
}

func (f *JoinNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "separator", Type: models.ParamString, Default: "\n", Description: "Placed between lines"},
	}
}
