package split

import (
	"context"
	"errors"
	"strings"

	"github.com/dukex/flowcook/pkg/protocol"
)

var errEmptySeparator = errors.New("separator must not be empty")

// SplitNode splits each input line into parts, in input order.
type SplitNode struct {
	id string
}

func (n *SplitNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	separator := in.Params.String("separator")
	if separator == "" {
		return nil, errEmptySeparator
	}

	keepEmpty := in.Params.Bool("keep_empty")

	var parts []string

	for _, line := range in.Input(0) {
		for _, part := range strings.Split(line, separator) {
			if part == "" && !keepEmpty {
				continue
			}

			parts = append(parts, part)
		}
	}

	return protocol.Single(parts), nil
}
