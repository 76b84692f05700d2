// Package models defines the shared data model of the cooking engine: parameters, sockets and node state.
package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ParamType is the type tag of a node parameter.
type ParamType string

const (
	ParamString     ParamType = "string"
	ParamInt        ParamType = "int"
	ParamFloat      ParamType = "float"
	ParamToggle     ParamType = "toggle"
	ParamButton     ParamType = "button"
	ParamStringList ParamType = "string_list"
)

// ErrInvalidValue is returned when a value cannot be coerced to a parameter type.
var ErrInvalidValue = errors.New("invalid parameter value")

// ParameterSpec declares a parameter of a node type.
type ParameterSpec struct {
	Name        string    `json:"name"                  validate:"required"`
	Type        ParamType `json:"type"                  validate:"required,oneof=string int float toggle button string_list"`
	Default     any       `json:"default,omitempty"`
	ReadOnly    bool      `json:"read_only,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Parameter is a live parameter on a node.
type Parameter struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Value    any       `json:"value"`
	Default  any       `json:"default"`
	ReadOnly bool      `json:"read_only"`
}

// NewParameter builds a parameter from its spec, with the value set to the coerced default.
func NewParameter(spec ParameterSpec) (*Parameter, error) {
	def, err := Coerce(spec.Type, spec.Default)
	if err != nil {
		return nil, fmt.Errorf("parameter %s default: %w", spec.Name, err)
	}

	return &Parameter{
		Name:     spec.Name,
		Type:     spec.Type,
		Value:    CloneValue(def),
		Default:  def,
		ReadOnly: spec.ReadOnly,
	}, nil
}

// Persistent reports whether the parameter value belongs in saved documents and snapshots.
func (p *Parameter) Persistent() bool {
	return p.Type != ParamButton
}

// Coerce converts v to the canonical Go representation of t:
// string, int, float64, bool or []string. Buttons always coerce to false.
// A nil value yields the zero value of the type.
func Coerce(t ParamType, v any) (any, error) {
	switch t {
	case ParamString:
		return coerceString(v)
	case ParamInt:
		return coerceInt(v)
	case ParamFloat:
		return coerceFloat(v)
	case ParamToggle:
		return coerceBool(v)
	case ParamButton:
		return false, nil
	case ParamStringList:
		return coerceStringList(v)
	default:
		return nil, fmt.Errorf("%w: unknown parameter type %q", ErrInvalidValue, t)
	}
}

func coerceString(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as string", ErrInvalidValue, v)
	}
}

func coerceInt(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, val)
		}

		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, val)
		}

		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as int", ErrInvalidValue, v)
	}
}

func coerceFloat(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, val)
		}

		return f, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as float", ErrInvalidValue, v)
	}
}

func coerceBool(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, val)
		}

		return b, nil
	case int:
		return val != 0, nil
	case float64:
		return val != 0, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as toggle", ErrInvalidValue, v)
	}
}

func coerceStringList(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return slices.Clone(val), nil
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))

		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T, not string", ErrInvalidValue, i, item)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as string list", ErrInvalidValue, v)
	}
}

// CloneValue copies list values so callers never share backing arrays with a node.
func CloneValue(v any) any {
	if list, ok := v.([]string); ok {
		return slices.Clone(list)
	}

	return v
}

// Params holds resolved parameter values handed to a transform.
type Params map[string]any

// String returns the named string parameter or "".
func (p Params) String(name string) string {
	s, _ := p[name].(string)

	return s
}

// Int returns the named int parameter or 0.
func (p Params) Int(name string) int {
	n, _ := p[name].(int)

	return n
}

// Float returns the named float parameter or 0.
func (p Params) Float(name string) float64 {
	f, _ := p[name].(float64)

	return f
}

// Bool returns the named toggle parameter or false.
func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)

	return b
}

// StringList returns a copy of the named string-list parameter.
func (p Params) StringList(name string) []string {
	list, _ := p[name].([]string)

	return slices.Clone(list)
}
