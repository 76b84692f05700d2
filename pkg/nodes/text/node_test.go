package text

import (
	"context"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextNode_Cook(t *testing.T) {
	factory := NewTextNodeFactory()
	node, err := factory.Create("n1")
	require.NoError(t, err)

	out, err := node.Cook(context.Background(), &protocol.CookInput{
		Params: models.Params{"text": []string{"one", "two"}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"one", "two"}}, out.Outputs)

	out, err = node.Cook(context.Background(), &protocol.CookInput{Params: models.Params{}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}}, out.Outputs)
}

func TestTextNodeFactory(t *testing.T) {
	factory := NewTextNodeFactory()

	assert.Equal(t, "text", factory.ID())
	assert.Empty(t, factory.Shape().Inputs)
	assert.Len(t, factory.Shape().Outputs, 1)
	require.Len(t, factory.Parameters(), 1)
	assert.Equal(t, models.ParamStringList, factory.Parameters()[0].Type)
}
