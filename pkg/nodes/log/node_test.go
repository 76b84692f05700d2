package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNode_Cook(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	node, err := NewLogNodeFactory(logger).Create("n1")
	require.NoError(t, err)

	tests := []struct {
		level string
		want  string
	}{
		{"debug", "level=DEBUG"},
		{"info", "level=INFO"},
		{"warn", "level=WARN"},
		{"error", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()

			out, err := node.Cook(context.Background(), &protocol.CookInput{
				Path:   "/log",
				Inputs: [][]string{{"a", "b"}},
				Params: models.Params{"level": tt.level, "message": "{{ .path }} got {{ .count }}: {{ index .input 0 }}"},
			})
			require.NoError(t, err)

			assert.Equal(t, []string{"a", "b"}, out.Outputs[0])
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), `msg="/log got 2: a"`)
			assert.Contains(t, buf.String(), "node_id=n1")
		})
	}
}

func TestLogNode_Errors(t *testing.T) {
	node, err := NewLogNodeFactory(nil).Create("n1")
	require.NoError(t, err)

	_, err = node.Cook(context.Background(), &protocol.CookInput{
		Params: models.Params{"level": "loud", "message": "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = node.Cook(context.Background(), &protocol.CookInput{
		Params: models.Params{"level": "info", "message": "{{ .nope"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render")
}
