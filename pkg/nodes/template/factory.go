// Package template provides the template node factory for registry integration.
package template

import (
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// TemplateNodeFactory creates TemplateNode instances.
type TemplateNodeFactory struct{}

// NewTemplateNodeFactory creates a new factory instance.
func NewTemplateNodeFactory() protocol.NodeFactory {
	return &TemplateNodeFactory{}
}

// Create creates a new TemplateNode instance.
func (f *TemplateNodeFactory) Create(id string) (protocol.Transform, error) {
	return &TemplateNode{id: id}, nil
}

// ID returns the factory ID.
func (f *TemplateNodeFactory) ID() string {
	return "template"
}

// Name returns the factory name.
func (f *TemplateNodeFactory) Name() string {
	return "Template"
}

// Description returns the factory description.
func (f *TemplateNodeFactory) Description() string {
	return "Renders a Go text/template over the input lines, once or once per line"
}

func (f *TemplateNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("rendered", true),
	}
}

func (f *TemplateNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{
			Name:        "template",
			Type:        models.ParamString,
			Default:     "{{ range .input }}{{ . }}\n{{ end }}",
			Description: "Fields: .input (all lines), .item and .index (per item), .path; funcs: now, env, join, upper, lower, trim, rand",
		},
		{Name: "per_item", Type: models.ParamToggle, Default: false, Description: "Render once per input line"},
	}
}
