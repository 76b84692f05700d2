// Package llm provides the LLM query node factory for registry integration.
package llm

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/tmc/langchaingo/llms"
)

// QueryNodeFactory creates QueryNode instances bound to one model.
type QueryNodeFactory struct {
	model llms.Model
}

// NewQueryNodeFactory creates a factory whose nodes query model. Nodes created with a nil
// model fail on cook.
func NewQueryNodeFactory(model llms.Model) protocol.NodeFactory {
	return &QueryNodeFactory{model: model}
}

// Create creates a new QueryNode instance.
func (f *QueryNodeFactory) Create(id string) (protocol.Transform, error) {
	return &QueryNode{id: id, model: f.model}, nil
}

// ID returns the factory ID.
func (f *QueryNodeFactory) ID() string {
	return "llm_query"
}

// Name returns the factory name.
func (f *QueryNodeFactory) Name() string {
	return "LLM Query"
}

// Description returns the factory description.
func (f *QueryNodeFactory) Description() string {
	return "Sends the prompt and the input to a language model and emits the responses"
}

func (f *QueryNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("response", true),
	}
}

func (f *QueryNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "prompt", Type: models.ParamString, Description: "Instruction placed before the input"},
		{Name: "per_item", Type: models.ParamToggle, Default: false, Description: "Query once per input line"},
		{Name: "temperature", Type: models.ParamFloat, Default: 0.0, Description: "0 keeps the model default"},
		{Name: "max_tokens", Type: models.ParamInt, Default: 0, Description: "0 keeps the model default"},
		{Name: "refresh", Type: models.ParamButton, Description: "Query again"},
	}
}
