package cmd

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewModel builds the model used by llm_query nodes from "provider:model", for example
// "openai:gpt-4o-mini" or "ollama:llama3". A bare model name means openai. An empty
// spec returns a nil model; llm_query nodes then fail with a clear error when cooked.
// baseURL overrides the provider endpoint when not empty.
func NewModel(spec, baseURL string) (llms.Model, error) {
	if spec == "" {
		return nil, nil
	}

	provider, name, found := strings.Cut(spec, ":")
	if !found {
		provider, name = "openai", spec
	}

	switch provider {
	case "openai":
		opts := []openai.Option{openai.WithModel(name)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}

		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai model %s: %w", name, err)
		}

		return llm, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(name)}
		if baseURL != "" {
			opts = append(opts, ollama.WithServerURL(baseURL))
		}

		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("ollama model %s: %w", name, err)
		}

		return llm, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", provider)
	}
}
