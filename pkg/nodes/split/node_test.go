package split

import (
	"context"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNode_Cook(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		separator string
		keepEmpty bool
		want      []string
	}{
		{"newlines", []string{"a\nb", "c"}, "\n", false, []string{"a", "b", "c"}},
		{"drops empty parts", []string{"a,,b,"}, ",", false, []string{"a", "b"}},
		{"keeps empty parts", []string{"a,,b"}, ",", true, []string{"a", "", "b"}},
		{"no separator found", []string{"abc"}, ";", false, []string{"abc"}},
		{"empty input", nil, ",", false, []string{}},
	}

	node, err := NewSplitNodeFactory().Create("n1")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := node.Cook(context.Background(), &protocol.CookInput{
				Inputs: [][]string{tt.input},
				Params: models.Params{"separator": tt.separator, "keep_empty": tt.keepEmpty},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Outputs[0])
		})
	}
}

func TestSplitNode_EmptySeparator(t *testing.T) {
	node, err := NewSplitNodeFactory().Create("n1")
	require.NoError(t, err)

	_, err = node.Cook(context.Background(), &protocol.CookInput{
		Inputs: [][]string{{"a"}},
		Params: models.Params{"separator": ""},
	})
	require.ErrorIs(t, err, errEmptySeparator)
}
