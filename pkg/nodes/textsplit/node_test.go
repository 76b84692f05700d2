package textsplit

import (
	"context"
	"strings"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cook(t *testing.T, lines []string, size, overlap int) (*protocol.CookOutput, error) {
	t.Helper()

	node, err := NewTextSplitNodeFactory().Create("n1")
	require.NoError(t, err)

	return node.Cook(context.Background(), &protocol.CookInput{
		Inputs: [][]string{lines},
		Params: models.Params{"chunk_size": size, "chunk_overlap": overlap},
	})
}

func TestTextSplitNode_Chunks(t *testing.T) {
	words := []string{"alpha beta gamma delta", "epsilon zeta eta theta"}

	out, err := cook(t, words, 16, 0)
	require.NoError(t, err)

	chunks := out.Outputs[0]
	assert.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 16, chunk)
	}

	joined := strings.Join(chunks, " ")
	for _, w := range strings.Fields(strings.Join(words, " ")) {
		assert.Contains(t, joined, w)
	}
}

func TestTextSplitNode_ShortTextIsOneChunk(t *testing.T) {
	out, err := cook(t, []string{"short", "text"}, DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	assert.Equal(t, []string{"short\ntext"}, out.Outputs[0])
}

func TestTextSplitNode_EmptyInput(t *testing.T) {
	out, err := cook(t, []string{"  "}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, out.Outputs[0])
}

func TestTextSplitNode_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap as large as size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cook(t, []string{"text"}, tt.size, tt.overlap)
			require.ErrorIs(t, err, ErrInvalidChunking)
		})
	}
}
