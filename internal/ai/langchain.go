package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChain adapts any langchaingo chat model to Model.
type LangChain struct {
	llm         llms.Model
	provider    string
	temperature float64
}

func NewLangChain(provider string, llm llms.Model, temperature float64) *LangChain {
	return &LangChain{llm: llm, provider: provider, temperature: temperature}
}

func (l *LangChain) Complete(ctx context.Context, system, prompt string) (Response, error) {
	var msgs []llms.MessageContent
	if system != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return l.generate(ctx, msgs)
}

func (l *LangChain) Describe(ctx context.Context, prompt string, img Image) (Response, error) {
	mt := img.MIMEType
	if mt == "" {
		mt = "image/png"
	}
	// OpenAI-compatible endpoints only accept images as data URLs.
	var imagePart llms.ContentPart
	if l.provider == ProviderOpenAI {
		imagePart = llms.ImageURLPart("data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
	} else {
		imagePart = llms.BinaryPart(mt, img.Data)
	}
	return l.generate(ctx, []llms.MessageContent{{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{imagePart, llms.TextPart(prompt)},
	}})
}

func (l *LangChain) generate(ctx context.Context, msgs []llms.MessageContent) (Response, error) {
	completion, err := l.llm.GenerateContent(ctx, msgs, llms.WithTemperature(l.temperature))
	if err != nil {
		return Response{}, fmt.Errorf("%s API call failed: %w", l.provider, err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, errors.New(l.provider + ": empty completion")
	}
	choice := completion.Choices[0]
	return Response{Text: choice.Content, Usage: usageFromInfo(choice.GenerationInfo)}, nil
}

// usageFromInfo reads token counters from GenerationInfo. Key names
// differ between providers.
func usageFromInfo(info map[string]any) Usage {
	u := Usage{
		PromptTokens:     firstInt(info, "PromptTokens", "InputTokens"),
		CompletionTokens: firstInt(info, "CompletionTokens", "OutputTokens"),
		TotalTokens:      firstInt(info, "TotalTokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func firstInt(info map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
