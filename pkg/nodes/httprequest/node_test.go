package httprequest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(overrides models.Params) models.Params {
	p := models.Params{
		"method":      "GET",
		"timeout":     5,
		"attempts":    1,
		"retry_delay": 0,
	}

	for k, v := range overrides {
		p[k] = v
	}

	return p
}

func newNode(t *testing.T) protocol.Transform {
	t.Helper()

	node, err := NewHTTPRequestNodeFactory(nil).Create("n1")
	require.NoError(t, err)

	return node
}

func TestHTTPRequestNode_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))

		_, _ = w.Write([]byte("first\nsecond\n"))
	}))
	defer server.Close()

	out, err := newNode(t).Cook(context.Background(), &protocol.CookInput{
		Inputs: [][]string{{"ignored"}},
		Params: params(models.Params{"url": server.URL, "headers": []string{"X-Token: secret"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, out.Outputs[0])
}

func TestHTTPRequestNode_PostSendsInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/plain; charset=utf-8", r.Header.Get("Content-Type"))

		_, _ = w.Write(append([]byte("echo:"), body...))
	}))
	defer server.Close()

	out, err := newNode(t).Cook(context.Background(), &protocol.CookInput{
		Inputs: [][]string{{"a", "b"}},
		Params: params(models.Params{"url": server.URL, "method": "post"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"echo:a", "b"}, out.Outputs[0])
}

func TestHTTPRequestNode_Retries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	out, err := newNode(t).Cook(context.Background(), &protocol.CookInput{
		Params: params(models.Params{"url": server.URL, "attempts": 3}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, out.Outputs[0])
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPRequestNode_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	_, err := newNode(t).Cook(context.Background(), &protocol.CookInput{
		Params: params(models.Params{"url": server.URL, "attempts": 3}),
	})
	require.Error(t, err)

	httpErr := &HTTPError{}
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPRequestNode_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		params models.Params
	}{
		{"missing url", params(nil)},
		{"relative url", params(models.Params{"url": "/x"})},
		{"bad method", params(models.Params{"url": "http://x", "method": "FETCH"})},
		{"bad timeout", params(models.Params{"url": "http://x", "timeout": 0})},
		{"bad attempts", params(models.Params{"url": "http://x", "attempts": 11})},
		{"bad header", params(models.Params{"url": "http://x", "headers": []string{"no colon"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newNode(t).Cook(context.Background(), &protocol.CookInput{Params: tt.params})
			require.Error(t, err)
		})
	}
}

func TestHTTPRequestNode_TimeDependent(t *testing.T) {
	td, ok := newNode(t).(protocol.TimeDependent)
	require.True(t, ok)
	assert.True(t, td.TimeDependent())
}
