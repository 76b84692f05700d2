package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/tmc/langchaingo/llms"
)

var (
	ErrNoModel     = errors.New("no language model configured")
	ErrEmptyPrompt = errors.New("prompt and input are both empty")
)

// QueryNode asks the model once for the whole input, or once per line. Model answers vary
// between calls, so the node is time-dependent.
type QueryNode struct {
	id    string
	model llms.Model
}

func (n *QueryNode) TimeDependent() bool { return true }

func (n *QueryNode) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	if n.model == nil {
		return nil, ErrNoModel
	}

	prompt := in.Params.String("prompt")
	input := in.Input(0)
	opts := callOptions(in.Params)

	if !in.Params.Bool("per_item") {
		text := compose(prompt, strings.Join(input, "\n"))
		if text == "" {
			return nil, ErrEmptyPrompt
		}

		answer, err := llms.GenerateFromSinglePrompt(ctx, n.model, text, opts...)
		if err != nil {
			return nil, fmt.Errorf("llm query: %w", err)
		}

		return protocol.Single([]string{answer}), nil
	}

	answers := make([]string, 0, len(input))

	var warnings []string

	for i, item := range input {
		text := compose(prompt, item)
		if text == "" {
			warnings = append(warnings, fmt.Sprintf("item %d is empty, skipped", i))

			continue
		}

		answer, err := llms.GenerateFromSinglePrompt(ctx, n.model, text, opts...)
		if err != nil {
			return nil, fmt.Errorf("llm query item %d: %w", i, err)
		}

		answers = append(answers, answer)
	}

	return protocol.Single(answers, warnings...), nil
}

func compose(prompt, input string) string {
	prompt = strings.TrimSpace(prompt)
	input = strings.TrimSpace(input)

	switch {
	case prompt == "":
		return input
	case input == "":
		return prompt
	default:
		return prompt + "\n\n" + input
	}
}

func callOptions(params models.Params) []llms.CallOption {
	var opts []llms.CallOption

	if t := params.Float("temperature"); t > 0 {
		opts = append(opts, llms.WithTemperature(t))
	}

	if m := params.Int("max_tokens"); m > 0 {
		opts = append(opts, llms.WithMaxTokens(m))
	}

	return opts
}
