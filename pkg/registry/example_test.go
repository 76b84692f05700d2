package registry_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/dukex/flowcook/pkg/registry"
)

// ReverseFactory is a custom node type that reverses the order of its input lines.
type ReverseFactory struct{}

func (f *ReverseFactory) ID() string          { return "reverse" }
func (f *ReverseFactory) Name() string        { return "Reverse" }
func (f *ReverseFactory) Description() string { return "Reverses the order of the input lines" }

func (f *ReverseFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("reversed", true),
	}
}

func (f *ReverseFactory) Parameters() []models.ParameterSpec { return nil }

func (f *ReverseFactory) Create(string) (protocol.Transform, error) {
	return protocol.TransformFunc(func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		lines := in.Input(0)
		out := make([]string, len(lines))

		for i, line := range lines {
			out[len(lines)-1-i] = line
		}

		return protocol.Single(out), nil
	}), nil
}

func Example() {
	r := registry.NewRegistry(slog.Default())
	r.RegisterDefaultNodes(nil)
	r.RegisterNode(&ReverseFactory{})

	transform, err := r.Create("reverse", "example")
	if err != nil {
		fmt.Println(err)

		return
	}

	out, _ := transform.Cook(context.Background(), &protocol.CookInput{
		Inputs: [][]string{{"a", "b", "c"}},
	})

	fmt.Println(strings.Join(out.Outputs[0], ","))
	fmt.Println(len(r.Types()))
	// Output:
	// c,b,a
	// 12
}
