// Package file provides the file input and output node factories for registry integration.
package file

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// InNodeFactory creates InNode instances.
type InNodeFactory struct{}

// NewInNodeFactory creates a new file_in factory.
func NewInNodeFactory() protocol.NodeFactory {
	return &InNodeFactory{}
}

// Create creates a new InNode instance.
func (f *InNodeFactory) Create(id string) (protocol.Transform, error) {
	return &InNode{id: id}, nil
}

func (f *InNodeFactory) ID() string   { return "file_in" }
func (f *InNodeFactory) Name() string { return "File In" }

func (f *InNodeFactory) Description() string {
	return "Reads a text file as lines; recooks when the file content changes"
}

func (f *InNodeFactory) Shape() models.Shape {
	return models.Shape{Outputs: models.SingleOutput("lines", true)}
}

func (f *InNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "path", Type: models.ParamString, Description: "File to read"},
		{Name: "reload", Type: models.ParamButton, Description: "Read the file again"},
	}
}

// OutNodeFactory creates OutNode instances.
type OutNodeFactory struct{}

// NewOutNodeFactory creates a new file_out factory.
func NewOutNodeFactory() protocol.NodeFactory {
	return &OutNodeFactory{}
}

// Create creates a new OutNode instance.
func (f *OutNodeFactory) Create(id string) (protocol.Transform, error) {
	return &OutNode{id: id}, nil
}

func (f *OutNodeFactory) ID() string   { return "file_out" }
func (f *OutNodeFactory) Name() string { return "File Out" }

func (f *OutNodeFactory) Description() string {
	return "Writes its input to a text file when the content differs and passes it through"
}

func (f *OutNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("passthrough", true),
	}
}

func (f *OutNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "path", Type: models.ParamString, Description: "File to write"},
		{Name: "write", Type: models.ParamButton, Description: "Write even when the content is unchanged"},
	}
}
