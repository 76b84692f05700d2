// Package textsplit provides the chunking node factory for registry integration.
package textsplit

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// TextSplitNodeFactory creates TextSplitNode instances.
type TextSplitNodeFactory struct{}

// NewTextSplitNodeFactory creates a new factory instance.
func NewTextSplitNodeFactory() protocol.NodeFactory {
	return &TextSplitNodeFactory{}
}

// Create creates a new TextSplitNode instance.
func (f *TextSplitNodeFactory) Create(id string) (protocol.Transform, error) {
	return &TextSplitNode{id: id}, nil
}

// ID returns the factory ID.
func (f *TextSplitNodeFactory) ID() string {
	return "text_split"
}

// Name returns the factory name.
func (f *TextSplitNodeFactory) Name() string {
	return "Text Split"
}

// Description returns the factory description.
func (f *TextSplitNodeFactory) Description() string {
	return "Splits the input text into overlapping chunks sized for LLM prompts"
}

func (f *TextSplitNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("chunks", true),
	}
}

func (f *TextSplitNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "chunk_size", Type: models.ParamInt, Default: DefaultChunkSize, Description: "Maximum characters per chunk"},
		{Name: "chunk_overlap", Type: models.ParamInt, Default: DefaultChunkOverlap, Description: "Characters shared by neighbouring chunks"},
	}
}
