package template

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Fields(t *testing.T) {
	data := map[string]any{
		"input": []string{"a", "b"},
		"item":  "x",
		"index": 3,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"item", "{{ .item }}", "x"},
		{"index", "#{{ .index }}", "#3"},
		{"range", "{{ range .input }}[{{ . }}]{{ end }}", "[a][b]"},
		{"join", `{{ join ", " .input }}`, "a, b"},
		{"upper", "{{ upper .item }}", "X"},
		{"trim", `{{ trim "  y  " }}`, "y"},
		{"literal", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_ErrorHandling(t *testing.T) {
	_, err := Render("{{ .item", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")

	_, err = Render("{{ .missing }}", map[string]any{"item": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}

func TestRender_EnvironmentVariables(t *testing.T) {
	t.Setenv("FLOWCOOK_TEMPLATE_TEST", "from-env")

	got, err := Render(`{{ env "FLOWCOOK_TEMPLATE_TEST" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, os.Getenv("FLOWCOOK_TEMPLATE_TEST"), got)
}

func TestRender_Now(t *testing.T) {
	got, err := Render("{{ now }}", nil)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, got)
}

func TestParse_Reuse(t *testing.T) {
	tmpl, err := Parse("item", "<{{ .item }}>")
	require.NoError(t, err)

	for _, item := range []string{"a", "b"} {
		got, err := Execute(tmpl, map[string]any{"item": item})
		require.NoError(t, err)
		assert.Equal(t, "<"+item+">", got)
	}
}
