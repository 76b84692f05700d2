// Package httprequest provides HTTP request node implementation for the cooking engine.
package httprequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/flowcook/pkg/protocol"
)

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	http.MethodPatch: true, http.MethodHead: true, http.MethodOptions: true,
}

// HTTPRequestNode performs one request per cook. Its output depends on the remote server,
// so it is time-dependent.
type HTTPRequestNode struct {
	id     string
	client *http.Client
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

type requestConfig struct {
	url      string
	method   string
	headers  http.Header
	timeout  time.Duration
	attempts int
	delay    time.Duration
}

func (n *HTTPRequestNode) TimeDependent() bool { return true }

// Cook sends the request. For methods other than GET and HEAD the input lines, joined by
// newlines, are the request body.
func (n *HTTPRequestNode) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	cfg, err := parseConfig(in)
	if err != nil {
		return nil, err
	}

	var body string
	if cfg.method != http.MethodGet && cfg.method != http.MethodHead {
		body = strings.Join(in.Input(0), "\n")
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.delay):
			}
		}

		respBody, err := n.performRequest(ctx, cfg, body)
		if err == nil {
			return protocol.Single(splitBody(respBody)), nil
		}

		lastErr = err

		// client errors are not retried
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			break
		}
	}

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", cfg.attempts, lastErr)
}

func parseConfig(in *protocol.CookInput) (*requestConfig, error) {
	rawURL := strings.TrimSpace(in.Params.String("url"))
	if rawURL == "" {
		return nil, errors.New("missing required parameter 'url'")
	}

	if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	method := strings.ToUpper(strings.TrimSpace(in.Params.String("method")))
	if method == "" {
		method = http.MethodGet
	}

	if !validMethods[method] {
		return nil, fmt.Errorf("invalid HTTP method: %s", method)
	}

	timeout := in.Params.Int("timeout")
	if timeout < 1 || timeout > 300 {
		return nil, errors.New("timeout must be between 1 and 300 seconds")
	}

	attempts := in.Params.Int("attempts")
	if attempts < 1 || attempts > 10 {
		return nil, errors.New("attempts must be between 1 and 10")
	}

	delay := in.Params.Int("retry_delay")
	if delay < 0 || delay > 30000 {
		return nil, errors.New("retry_delay must be between 0 and 30000 milliseconds")
	}

	headers := http.Header{}

	for _, line := range in.Params.StringList("headers") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("header %q must look like 'Name: value'", line)
		}

		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return &requestConfig{
		url:      rawURL,
		method:   method,
		headers:  headers,
		timeout:  time.Duration(timeout) * time.Second,
		attempts: attempts,
		delay:    time.Duration(delay) * time.Millisecond,
	}, nil
}

// performRequest executes a single HTTP request and returns the response body.
func (n *HTTPRequestNode) performRequest(ctx context.Context, cfg *requestConfig, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, cfg.url, reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = cfg.headers.Clone()

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	return string(respBody), nil
}

func splitBody(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if body == "" {
		return []string{}
	}

	return strings.Split(strings.TrimSuffix(body, "\n"), "\n")
}
