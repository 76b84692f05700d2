// Package httprequest provides HTTP request node factory for the registry system.
package httprequest

import (
	"net/http"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// HTTPRequestNodeFactory creates HTTPRequestNode instances.
type HTTPRequestNodeFactory struct {
	client *http.Client
}

// NewHTTPRequestNodeFactory creates a new HTTP request node factory. A nil client uses
// http.DefaultTransport.
func NewHTTPRequestNodeFactory(client *http.Client) protocol.NodeFactory {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPRequestNodeFactory{client: client}
}

// Create creates a new HTTPRequestNode instance.
func (f *HTTPRequestNodeFactory) Create(id string) (protocol.Transform, error) {
	return &HTTPRequestNode{id: id, client: f.client}, nil
}

// ID returns the factory ID.
func (f *HTTPRequestNodeFactory) ID() string {
	return "http_request"
}

// Name returns the factory name.
func (f *HTTPRequestNodeFactory) Name() string {
	return "HTTP Request"
}

// Description returns the factory description.
func (f *HTTPRequestNodeFactory) Description() string {
	return "Performs an HTTP request with retries; the input is the request body and the response body is the output"
}

func (f *HTTPRequestNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("body", true),
	}
}

func (f *HTTPRequestNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "url", Type: models.ParamString, Description: "Request URL"},
		{Name: "method", Type: models.ParamString, Default: http.MethodGet},
		{Name: "headers", Type: models.ParamStringList, Description: `"Name: value" lines`},
		{Name: "timeout", Type: models.ParamInt, Default: 30, Description: "Request timeout in seconds"},
		{Name: "attempts", Type: models.ParamInt, Default: 1, Description: "Tries before failing; 4xx responses are not retried"},
		{Name: "retry_delay", Type: models.ParamInt, Default: 1000, Description: "Milliseconds between tries"},
	}
}
