package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\r\nb\n", []string{"a", "b"}},
		{"a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Lines(tt.content), "%q", tt.content)
	}

	assert.Equal(t, "", Content(nil))
	assert.Equal(t, "a\nb\n", Content([]string{"a", "b"}))
}

func TestInNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o600))

	node, err := NewInNodeFactory().Create("n1")
	require.NoError(t, err)

	params := models.Params{"path": path}

	out, err := node.Cook(context.Background(), &protocol.CookInput{Params: params})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, out.Outputs[0])

	fp := node.(protocol.ExternalFingerprinter)

	before, err := fp.ExternalFingerprint(params)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("three\n"), 0o600))

	after, err := fp.ExternalFingerprint(params)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestInNode_Errors(t *testing.T) {
	node, err := NewInNodeFactory().Create("n1")
	require.NoError(t, err)

	_, err = node.Cook(context.Background(), &protocol.CookInput{Params: models.Params{}})
	require.ErrorIs(t, err, ErrPathRequired)

	_, err = node.Cook(context.Background(), &protocol.CookInput{
		Params: models.Params{"path": filepath.Join(t.TempDir(), "missing.txt")},
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutNode_WritesOnlyChangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.txt")

	node, err := NewOutNodeFactory().Create("n1")
	require.NoError(t, err)

	in := &protocol.CookInput{
		Inputs: [][]string{{"a", "b"}},
		Params: models.Params{"path": path},
	}

	fp := node.(protocol.ExternalFingerprinter)
	absent, err := fp.ExternalFingerprint(in.Params)
	require.NoError(t, err)

	out, err := node.Cook(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Outputs[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))

	written, err := fp.ExternalFingerprint(in.Params)
	require.NoError(t, err)
	assert.NotEqual(t, absent, written)

	// same content: the file is left alone
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	_, err = node.Cook(context.Background(), in)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged content is not rewritten")

	// the write button forces the next write
	node.(protocol.ButtonHandler).PressButton("write")

	_, err = node.Cook(context.Background(), in)
	require.NoError(t, err)

	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.ModTime().Equal(old))

	// changed content is written
	in.Inputs = [][]string{{"c"}}
	_, err = node.Cook(context.Background(), in)
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(data))
}

func TestOutNode_PathRequired(t *testing.T) {
	node, err := NewOutNodeFactory().Create("n1")
	require.NoError(t, err)

	_, err = node.Cook(context.Background(), &protocol.CookInput{Params: models.Params{}})
	require.ErrorIs(t, err, ErrPathRequired)
}
