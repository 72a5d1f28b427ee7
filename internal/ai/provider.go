package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Options selects and configures a provider.
type Options struct {
	Provider    string
	Model       string
	Temperature float64

	GoogleAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	OllamaHost      string
}

// InferProvider guesses the provider from a model identifier.
func InferProvider(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI
	case strings.Contains(m, ":"):
		// ollama tags look like llava:13b
		return ProviderOllama
	}
	return ProviderOpenAI
}

// New constructs the Model for opts.
func New(ctx context.Context, opts Options) (Model, error) {
	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		provider = InferProvider(opts.Model)
	}

	switch provider {
	case ProviderGemini:
		return NewGemini(ctx, opts.GoogleAPIKey, opts.Model, opts.Temperature)
	case ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, errors.New("missing OPENAI_API_KEY")
		}
		o := []openai.Option{openai.WithModel(opts.Model), openai.WithToken(opts.OpenAIAPIKey)}
		if opts.OpenAIBaseURL != "" {
			o = append(o, openai.WithBaseURL(opts.OpenAIBaseURL))
		}
		llm, err := openai.New(o...)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return NewLangChain(provider, llm, opts.Temperature), nil
	case ProviderAnthropic:
		if opts.AnthropicAPIKey == "" {
			return nil, errors.New("missing ANTHROPIC_API_KEY")
		}
		llm, err := anthropic.New(anthropic.WithModel(opts.Model), anthropic.WithToken(opts.AnthropicAPIKey))
		if err != nil {
			return nil, fmt.Errorf("anthropic client: %w", err)
		}
		return NewLangChain(provider, llm, opts.Temperature), nil
	case ProviderOllama:
		o := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.OllamaHost != "" {
			o = append(o, ollama.WithServerURL(opts.OllamaHost))
		}
		llm, err := ollama.New(o...)
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return NewLangChain(provider, llm, opts.Temperature), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
}
