package models

// Socket describes one input or output of a node type.
type Socket struct {
	Name        string `json:"name"`
	Multi       bool   `json:"multi"` // carries a list rather than a single string
	Description string `json:"description,omitempty"`
}

// Shape is the socket layout of a node type.
type Shape struct {
	Inputs        []Socket `json:"inputs"`
	Outputs       []Socket `json:"outputs"`
	DynamicInputs bool     `json:"dynamic_inputs,omitempty"` // inputs grow as connections are added
}

// InputCount returns how many inputs a node currently exposes given its highest
// connected input index (-1 when nothing is connected). Dynamic shapes always keep
// one free slot past the highest connected index.
func (s Shape) InputCount(highestConnected int) int {
	if !s.DynamicInputs {
		return len(s.Inputs)
	}

	return max(len(s.Inputs), highestConnected+2)
}

// AcceptsInput reports whether index is a valid input index.
func (s Shape) AcceptsInput(index int) bool {
	if index < 0 {
		return false
	}

	return s.DynamicInputs || index < len(s.Inputs)
}

// AcceptsOutput reports whether index is a valid output index.
func (s Shape) AcceptsOutput(index int) bool {
	return index >= 0 && index < len(s.Outputs)
}

// SingleOutput is a convenience for the common one-output shape.
func SingleOutput(name string, multi bool) []Socket {
	return []Socket{{Name: name, Multi: multi}}
}
