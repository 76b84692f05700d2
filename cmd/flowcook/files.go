package main

import (
	"fmt"
	"os"

	"github.com/dukex/flowcook/pkg/flowstate"
)

func readDocument(path string) (*flowstate.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := flowstate.Decode(data, flowstate.EncodingFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

func writeDocument(path string, doc *flowstate.Document) error {
	data, err := flowstate.Encode(doc, flowstate.EncodingFromPath(path))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
