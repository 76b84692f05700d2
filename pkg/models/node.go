package models

import "time"

// NodeState is the cook state of a node.
type NodeState string

const (
	StateUncooked  NodeState = "uncooked"  // needs a cook before its output is current
	StateUnchanged NodeState = "unchanged" // up to date
	StateCooking   NodeState = "cooking"   // on the current cook path
	StateError     NodeState = "error"     // last cook attempt failed
)

// Position is editor placement metadata.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeInfo is a read-only view of a node used by API layers.
type NodeInfo struct {
	ID            string         `json:"id"`
	Path          string         `json:"path"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	State         NodeState      `json:"state"`
	CookCount     int            `json:"cook_count"`
	LastCookTime  time.Duration  `json:"last_cook_time"`
	TimeDependent bool           `json:"time_dependent"`
	Errors        []string       `json:"errors"`
	Warnings      []string       `json:"warnings"`
	Parameters    map[string]any `json:"parameters"`
	Position      Position       `json:"position"`
	Inputs        int            `json:"inputs"`
	Outputs       int            `json:"outputs"`
}
