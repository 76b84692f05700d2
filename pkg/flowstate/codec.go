package flowstate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Encoding is a document serialization.
type Encoding string

const (
	JSON Encoding = "json"
	YAML Encoding = "yaml"
)

// EncodingFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func EncodingFromPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Encode serializes doc.
func Encode(doc *Document, enc Encoding) ([]byte, error) {
	switch enc {
	case YAML:
		var buf bytes.Buffer

		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)

		if err := encoder.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode flowstate yaml: %w", err)
		}

		if err := encoder.Close(); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	case JSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode flowstate json: %w", err)
		}

		return data, nil
	default:
		return nil, fmt.Errorf("unknown flowstate encoding %q", enc)
	}
}

// Decode parses data and checks it against the flowstate JSON schema and the struct
// rules. Graph-level checks (types, parents, sockets) happen in Validate.
func Decode(data []byte, enc Encoding) (*Document, error) {
	jsonData := data

	if enc == YAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		jsonData = converted
	}

	if err := validateSchema(jsonData); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Connections == nil {
		doc.Connections = []Connection{}
	}

	if doc.Globals == nil {
		doc.Globals = map[string][]string{}
	}

	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return &doc, nil
}

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}

	return nil
}
