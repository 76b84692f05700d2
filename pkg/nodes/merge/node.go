package merge

import (
	"context"

	"github.com/dukex/flowcook/pkg/protocol"
)

// MergeNode concatenates its inputs. Unconnected inputs contribute nothing.
type MergeNode struct {
	id string
}

func (n *MergeNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	unique := in.Params.Bool("unique")
	seen := make(map[string]bool)

	var merged []string

	for _, lines := range in.Inputs {
		for _, line := range lines {
			if unique {
				if seen[line] {
					continue
				}

				seen[line] = true
			}

			merged = append(merged, line)
		}
	}

	return protocol.Single(merged), nil
}
