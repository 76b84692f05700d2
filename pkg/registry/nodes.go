package registry

import (
	"github.com/dukex/flowcook/pkg/nodes/file"
	"github.com/dukex/flowcook/pkg/nodes/httprequest"
	"github.com/dukex/flowcook/pkg/nodes/join"
	"github.com/dukex/flowcook/pkg/nodes/llm"
	"github.com/dukex/flowcook/pkg/nodes/log"
	"github.com/dukex/flowcook/pkg/nodes/merge"
	"github.com/dukex/flowcook/pkg/nodes/split"
	templatenode "github.com/dukex/flowcook/pkg/nodes/template"
	"github.com/dukex/flowcook/pkg/nodes/text"
	"github.com/dukex/flowcook/pkg/nodes/textsplit"
	"github.com/tmc/langchaingo/llms"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
// llm_query nodes query model; a nil model leaves them failing with llm.ErrNoModel.
func (r *Registry) RegisterDefaultNodes(model llms.Model) {
	// Text sources and list plumbing
	r.RegisterNode(text.NewTextNodeFactory())
	r.RegisterNode(merge.NewMergeNodeFactory())
	r.RegisterNode(join.NewJoinNodeFactory())
	r.RegisterNode(split.NewSplitNodeFactory())
	r.RegisterNode(textsplit.NewTextSplitNodeFactory())
	r.RegisterNode(templatenode.NewTemplateNodeFactory())

	// File I/O
	r.RegisterNode(file.NewInNodeFactory())
	r.RegisterNode(file.NewOutNodeFactory())

	// External services
	r.RegisterNode(httprequest.NewHTTPRequestNodeFactory(nil))
	r.RegisterNode(llm.NewQueryNodeFactory(model))

	r.RegisterNode(log.NewLogNodeFactory(r.logger))
}
