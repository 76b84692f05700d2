package join

import (
	"context"
	"strings"

	"github.com/dukex/flowcook/pkg/protocol"
)

// JoinNode collapses its input into one line.
type JoinNode struct {
	id string
}

func (n *JoinNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	lines := in.Input(0)
	if len(lines) == 0 {
		return protocol.Single(nil), nil
	}

	return protocol.Single([]string{strings.Join(lines, in.Params.String("separator"))}), nil
}
