package template

import (
	"context"
	"fmt"

	"github.com/dukex/flowcook/pkg/protocol"
	flowtemplate "github.com/dukex/flowcook/pkg/template"
)

// TemplateNode renders its template. Each render is one output line.
type TemplateNode struct {
	id string
}

func (n *TemplateNode) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	tmpl, err := flowtemplate.Parse(in.Path, in.Params.String("template"))
	if err != nil {
		return nil, err
	}

	input := in.Input(0)

	if !in.Params.Bool("per_item") {
		rendered, err := flowtemplate.Execute(tmpl, map[string]any{
			"input": input,
			"path":  in.Path,
		})
		if err != nil {
			return nil, err
		}

		return protocol.Single([]string{rendered}), nil
	}

	out := make([]string, 0, len(input))

	for i, item := range input {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rendered, err := flowtemplate.Execute(tmpl, map[string]any{
			"input": input,
			"item":  item,
			"index": i,
			"path":  in.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		out = append(out, rendered)
	}

	return protocol.Single(out), nil
}
