// Package flowstate defines the saved form of a graph and converts between it and a live graph.
package flowstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/flowcook/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	// Format is the value of the document "format" field.
	Format = "flowstate"

	// Version is the document version written by this package.
	Version = 1
)

// ErrInvalidDocument is returned when a document fails schema, struct or graph validation.
var ErrInvalidDocument = errors.New("invalid flowstate document")

// IsInvalidDocument checks if an error is a document validation failure.
func IsInvalidDocument(err error) bool {
	return errors.Is(err, ErrInvalidDocument)
}

// Document is a complete saved graph.
type Document struct {
	Format      string              `json:"format"      validate:"required,eq=flowstate" yaml:"format"`
	Version     int                 `json:"version"     validate:"required,eq=1"         yaml:"version"`
	Nodes       []Node              `json:"nodes"       validate:"dive"                  yaml:"nodes"`
	Connections []Connection        `json:"connections" validate:"dive"                  yaml:"connections"`
	Globals     map[string][]string `json:"globals"     validate:"dive,keys,min=2,endkeys" yaml:"globals"`
}

// Node is one saved node. Ids are session-scoped and not saved.
type Node struct {
	Type       string          `json:"type"                 validate:"required"               yaml:"type"`
	Path       string          `json:"path"                 validate:"required,startswith=/" yaml:"path"`
	Parameters map[string]any  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Position   models.Position `json:"position"             yaml:"position"`
}

// Connection is one saved connection. It is encoded as the tuple
// [source path, output index, target path, input index].
type Connection struct {
	Source string `validate:"required,startswith=/"`
	Output int    `validate:"gte=0"`
	Target string `validate:"required,startswith=/"`
	Input  int    `validate:"gte=0"`
}

// New returns an empty document of the current version.
func New() *Document {
	return &Document{
		Format:      Format,
		Version:     Version,
		Nodes:       []Node{},
		Connections: []Connection{},
		Globals:     map[string][]string{},
	}
}

func (c Connection) tuple() []any {
	return []any{c.Source, c.Output, c.Target, c.Input}
}

func (c Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.tuple())
}

func (c *Connection) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) != 4 {
		return fmt.Errorf("connection needs 4 elements, got %d", len(raw))
	}

	for i, dst := range []any{&c.Source, &c.Output, &c.Target, &c.Input} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("connection element %d: %w", i, err)
		}
	}

	return nil
}

func (c Connection) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	if err := node.Encode(c.tuple()); err != nil {
		return nil, err
	}

	node.Style = yaml.FlowStyle

	return node, nil
}

func (c *Connection) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode || len(value.Content) != 4 {
		return fmt.Errorf("line %d: connection must be a sequence of 4 elements", value.Line)
	}

	for i, dst := range []any{&c.Source, &c.Output, &c.Target, &c.Input} {
		if err := value.Content[i].Decode(dst); err != nil {
			return fmt.Errorf("connection element %d: %w", i, err)
		}
	}

	return nil
}
