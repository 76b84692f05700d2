package merge

import (
	"context"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeNode_Cook(t *testing.T) {
	tests := []struct {
		name   string
		inputs [][]string
		unique bool
		want   []string
	}{
		{"index order", [][]string{{"a", "b"}, {"c"}}, false, []string{"a", "b", "c"}},
		{"gaps are skipped", [][]string{{"a"}, nil, {"c"}}, false, []string{"a", "c"}},
		{"duplicates kept", [][]string{{"a"}, {"a"}}, false, []string{"a", "a"}},
		{"unique", [][]string{{"a", "b"}, {"b", "c", "a"}}, true, []string{"a", "b", "c"}},
		{"no inputs", nil, false, []string{}},
	}

	node, err := NewMergeNodeFactory().Create("n1")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := node.Cook(context.Background(), &protocol.CookInput{
				Inputs: tt.inputs,
				Params: models.Params{"unique": tt.unique},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Outputs[0])
		})
	}
}

func TestMergeNodeFactory_Shape(t *testing.T) {
	shape := NewMergeNodeFactory().Shape()

	assert.True(t, shape.DynamicInputs)
	assert.True(t, shape.AcceptsInput(7))
	assert.Equal(t, 4, shape.InputCount(2))
}
