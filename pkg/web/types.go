// Package web provides the HTTP API over flowcook sessions.
package web

import (
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
)

type CreateNodeRequest struct {
	Type     string           `json:"type"     validate:"required"`
	Name     string           `json:"name"`
	Parent   string           `json:"parent"   validate:"omitempty,startswith=/"`
	Unique   bool             `json:"unique"`
	Position *models.Position `json:"position"`
}

type RenameNodeRequest struct {
	Path string `json:"path" validate:"required,startswith=/"`
	Name string `json:"name" validate:"required"`
}

type MoveNodeRequest struct {
	Path   string `json:"path"   validate:"required,startswith=/"`
	Parent string `json:"parent" validate:"required,startswith=/"`
}

type SetParameterRequest struct {
	Path  string `json:"path"  validate:"required,startswith=/"`
	Name  string `json:"name"  validate:"required"`
	Value any    `json:"value"`
}

type SetPositionRequest struct {
	Path string  `json:"path" validate:"required,startswith=/"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type ConnectRequest struct {
	Source string `json:"source" validate:"required,startswith=/"`
	Output int    `json:"output" validate:"gte=0"`
	Target string `json:"target" validate:"required,startswith=/"`
	Input  int    `json:"input"  validate:"gte=0"`
}

type CookRequest struct {
	Path  string `json:"path"  validate:"required,startswith=/"`
	Force bool   `json:"force"`
}

type SetGlobalRequest struct {
	Values []string `json:"values" validate:"required"`
}

type FlowstateRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type CreateScheduleRequest struct {
	Path  string `json:"path"  validate:"required,startswith=/"`
	Cron  string `json:"cron"  validate:"required"`
	Force bool   `json:"force"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Nodes     int    `json:"nodes"`
	CanUndo   bool   `json:"can_undo"`
	CanRedo   bool   `json:"can_redo"`
}

type ConnectionResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Output int    `json:"output"`
	Target string `json:"target"`
	Input  int    `json:"input"`
}

// NodeResponse is a node's info plus its connections and, when cooked, its outputs.
type NodeResponse struct {
	models.NodeInfo

	Connections []ConnectionResponse `json:"connections"`
	Outputs     [][]string           `json:"outputs,omitempty"`
}

type HistoryResponse struct {
	Label   string `json:"label"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

func connectionResponse(g *graph.Graph, c *graph.Connection) ConnectionResponse {
	source, target := g.Endpoints(c)

	return ConnectionResponse{
		ID:     c.ID(),
		Source: source.Path(),
		Output: c.OutputIndex(),
		Target: target.Path(),
		Input:  c.InputIndex(),
	}
}

// nodeResponse describes n with every connection that touches it. Outputs are included
// when withOutputs is set.
func nodeResponse(g *graph.Graph, n *graph.Node, withOutputs bool) NodeResponse {
	resp := NodeResponse{
		NodeInfo:    g.Info(n),
		Connections: []ConnectionResponse{},
	}

	for _, c := range g.Connections() {
		if c.InputNodeID() == n.ID() || c.OutputNodeID() == n.ID() {
			resp.Connections = append(resp.Connections, connectionResponse(g, c))
		}
	}

	if withOutputs {
		for i := range n.Shape().Outputs {
			lines, _ := g.Output(n, i)
			if lines == nil {
				lines = []string{}
			}

			resp.Outputs = append(resp.Outputs, lines)
		}
	}

	return resp
}
