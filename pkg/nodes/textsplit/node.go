package textsplit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/tmc/langchaingo/textsplitter"
)

var ErrInvalidChunking = errors.New("invalid chunking parameters")

// TextSplitNode joins its input lines and splits the text with a recursive character splitter.
type TextSplitNode struct {
	id string
}

func (n *TextSplitNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	size := in.Params.Int("chunk_size")
	overlap := in.Params.Int("chunk_overlap")

	switch {
	case size <= 0:
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, size)
	case overlap < 0 || overlap >= size:
		return nil, fmt.Errorf("%w: chunk_overlap must be in [0, %d), got %d", ErrInvalidChunking, size, overlap)
	}

	text := strings.Join(in.Input(0), "\n")
	if strings.TrimSpace(text) == "" {
		return protocol.Single(nil), nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)

	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	return protocol.Single(chunks), nil
}
