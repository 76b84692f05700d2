package text

import (
	"context"

	"github.com/dukex/flowcook/pkg/protocol"
)

// TextNode emits the lines of its "text" parameter.
type TextNode struct {
	id string
}

func (n *TextNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	return protocol.Single(in.Params.StringList("text")), nil
}
